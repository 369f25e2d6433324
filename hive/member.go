// Council members backed by chat sessions.

package hive

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/praxisapocalyptica/jamie/llm"
	"github.com/praxisapocalyptica/jamie/session"
)

// SessionMember is a council member with its own conversation history.
type SessionMember struct {
	name    string
	session *session.Session
}

// NewSessionMember wraps a session as a named member.
func NewSessionMember(name string, s *session.Session) *SessionMember {
	return &SessionMember{name: name, session: s}
}

// Name returns the member's name.
func (m *SessionMember) Name() string {
	return m.name
}

// Communicate sends the prompt through the member's session, so each
// member carries its own view of the discussion between rounds.
func (m *SessionMember) Communicate(ctx context.Context, prompt string) (string, error) {
	return m.session.Send(ctx, prompt)
}

// NewCouncil builds count members sharing one provider. Each member gets
// an isolated session; only the prompts link their deliberations.
func NewCouncil(collectiveName string, count int, client *llm.Client, maxHistoryTurns *int, logger *zap.Logger) ([]Member, error) {
	if count <= 0 {
		return nil, fmt.Errorf("member count must be positive, got %d", count)
	}

	members := make([]Member, 0, count)
	for i := 0; i < count; i++ {
		name := fmt.Sprintf("%s Member %d", collectiveName, i+1)
		s, err := session.New(client, session.Config{MaxHistoryTurns: maxHistoryTurns}, logger)
		if err != nil {
			return nil, fmt.Errorf("initializing %s: %w", name, err)
		}
		members = append(members, NewSessionMember(name, s))
	}
	return members, nil
}

var _ Member = (*SessionMember)(nil)
