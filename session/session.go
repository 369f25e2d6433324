// Chat session bookkeeping on top of an LLM provider.
//
// Information Hiding:
// - Conversation turn storage and trimming
// - Role mapping between domain turns and the provider wire format
// - Initial-context priming as the first user message
// - Filtering rules for which turns are worth persisting

package session

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/praxisapocalyptica/jamie/llm"
	"github.com/praxisapocalyptica/jamie/model"
)

// Config holds session parameters.
type Config struct {
	// MaxHistoryTurns caps the turns kept in the live session. Nil means
	// no manual trimming; the provider's context window is the only limit.
	MaxHistoryTurns *int
}

// Session manages one conversation with an LLM provider.
type Session struct {
	client *llm.Client
	cfg    Config
	logger *zap.Logger
	turns  []model.Turn
}

// New creates a session around the given client.
func New(client *llm.Client, cfg Config, logger *zap.Logger) (*Session, error) {
	if client == nil {
		return nil, fmt.Errorf("session requires an llm client")
	}
	if cfg.MaxHistoryTurns != nil && *cfg.MaxHistoryTurns < 0 {
		return nil, fmt.Errorf("max history turns must be non-negative, got %d", *cfg.MaxHistoryTurns)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{client: client, cfg: cfg, logger: logger}, nil
}

// Send sends user text to the model and records both turns.
// Empty input is a no-op returning an empty reply.
func (s *Session) Send(ctx context.Context, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", nil
	}

	s.trim()

	messages := s.wireMessages()
	messages = append(messages, llm.UserMessage(text))

	reply, err := s.client.Chat(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("send failed: %w", err)
	}

	s.turns = append(s.turns, model.UserTurn(text), model.ModelTurn(reply))
	return reply, nil
}

// Prime sends the initial context prompt before the first user input, so
// long-term memory enters the session as its opening exchange.
func (s *Session) Prime(ctx context.Context, initialPrompt string) error {
	if strings.TrimSpace(initialPrompt) == "" {
		s.logger.Debug("empty initial prompt, session starts cold")
		return nil
	}
	if _, err := s.Send(ctx, initialPrompt); err != nil {
		return fmt.Errorf("priming session: %w", err)
	}
	return nil
}

// History returns a copy of all recorded turns in order.
func (s *Session) History() []model.Turn {
	out := make([]model.Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

// Memories returns the turns worth persisting: standard user and model
// roles only, text parts only, turns without any text dropped.
func (s *Session) Memories() []model.Turn {
	var kept []model.Turn
	for _, turn := range s.turns {
		if turn.Role != model.RoleUser && turn.Role != model.RoleModel {
			continue
		}
		var parts []model.Part
		for _, part := range turn.Parts {
			if strings.TrimSpace(part.Text) != "" {
				parts = append(parts, part)
			}
		}
		if len(parts) == 0 {
			continue
		}
		kept = append(kept, model.Turn{Role: turn.Role, Parts: parts})
	}
	return kept
}

// Clear discards all recorded turns.
func (s *Session) Clear() {
	s.turns = nil
	s.logger.Debug("conversation history cleared")
}

// trim drops the oldest turns when the manual cap is exceeded.
func (s *Session) trim() {
	if s.cfg.MaxHistoryTurns == nil {
		return
	}
	max := *s.cfg.MaxHistoryTurns
	if len(s.turns) <= max {
		return
	}
	s.logger.Warn("history exceeds cap, trimming",
		zap.Int("length", len(s.turns)),
		zap.Int("max", max))
	s.turns = append([]model.Turn(nil), s.turns[len(s.turns)-max:]...)
}

// wireMessages converts recorded turns to the provider message format.
// The model role maps to the wire's assistant role.
func (s *Session) wireMessages() []llm.ChatMessage {
	var messages []llm.ChatMessage
	for _, turn := range s.turns {
		text := turn.Text()
		if text == "" {
			continue
		}
		switch turn.Role {
		case model.RoleUser:
			messages = append(messages, llm.UserMessage(text))
		case model.RoleModel:
			messages = append(messages, llm.AssistantMessage(text))
		}
	}
	return messages
}
