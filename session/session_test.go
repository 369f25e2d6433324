package session

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/praxisapocalyptica/jamie/llm"
	"github.com/praxisapocalyptica/jamie/model"
)

// scriptedProvider replies with a fixed prefix of the last user message.
type scriptedProvider struct {
	calls [][]llm.ChatMessage
	fail  error
}

func (p *scriptedProvider) Name() string  { return "scripted" }
func (p *scriptedProvider) Model() string { return "scripted-1" }

func (p *scriptedProvider) Chat(_ context.Context, messages []llm.ChatMessage) (llm.Response, error) {
	p.calls = append(p.calls, messages)
	if p.fail != nil {
		return llm.Response{}, p.fail
	}
	last := messages[len(messages)-1]
	return llm.Response{Content: "echo: " + last.Content}, nil
}

func testSession(t *testing.T, provider llm.Provider, cfg Config) *Session {
	t.Helper()
	s, err := New(llm.NewClient(provider), cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return s
}

func TestSendRecordsBothTurns(t *testing.T) {
	provider := &scriptedProvider{}
	s := testSession(t, provider, Config{})

	reply, err := s.Send(context.Background(), "hello")
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if reply != "echo: hello" {
		t.Errorf("unexpected reply %q", reply)
	}

	history := s.History()
	if len(history) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(history))
	}
	if history[0].Role != model.RoleUser || history[1].Role != model.RoleModel {
		t.Errorf("unexpected roles %q, %q", history[0].Role, history[1].Role)
	}
}

func TestSendEmptyInputIsNoOp(t *testing.T) {
	provider := &scriptedProvider{}
	s := testSession(t, provider, Config{})

	reply, err := s.Send(context.Background(), "   ")
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if reply != "" {
		t.Errorf("expected empty reply, got %q", reply)
	}
	if len(provider.calls) != 0 {
		t.Errorf("expected no provider call, got %d", len(provider.calls))
	}
}

func TestSendFailureLeavesHistoryUntouched(t *testing.T) {
	provider := &scriptedProvider{fail: fmt.Errorf("backend down")}
	s := testSession(t, provider, Config{})

	if _, err := s.Send(context.Background(), "hello"); err == nil {
		t.Fatal("expected error")
	}
	if len(s.History()) != 0 {
		t.Errorf("failed send must not record turns, got %d", len(s.History()))
	}
}

func TestSendIncludesPriorTurnsOnWire(t *testing.T) {
	provider := &scriptedProvider{}
	s := testSession(t, provider, Config{})

	ctx := context.Background()
	if _, err := s.Send(ctx, "first"); err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if _, err := s.Send(ctx, "second"); err != nil {
		t.Fatalf("send failed: %v", err)
	}

	second := provider.calls[1]
	if len(second) != 3 {
		t.Fatalf("expected 3 wire messages, got %d", len(second))
	}
	if second[0].Role != "user" || second[1].Role != "assistant" || second[2].Role != "user" {
		t.Errorf("unexpected wire roles: %v", second)
	}
}

func TestPrimeSendsInitialPrompt(t *testing.T) {
	provider := &scriptedProvider{}
	s := testSession(t, provider, Config{})

	if err := s.Prime(context.Background(), "--- Context ---\nbackground"); err != nil {
		t.Fatalf("prime failed: %v", err)
	}
	history := s.History()
	if len(history) != 2 {
		t.Fatalf("expected priming exchange, got %d turns", len(history))
	}
	if !strings.Contains(history[0].Text(), "--- Context ---") {
		t.Errorf("first turn should carry the context prompt, got %q", history[0].Text())
	}
}

func TestHistoryTrimming(t *testing.T) {
	provider := &scriptedProvider{}
	max := 4
	s := testSession(t, provider, Config{MaxHistoryTurns: &max})

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		if _, err := s.Send(ctx, fmt.Sprintf("message %d", i)); err != nil {
			t.Fatalf("send failed: %v", err)
		}
	}

	history := s.History()
	// Trimming runs before each send, so the cap plus the newest pair.
	if len(history) > max+2 {
		t.Errorf("history length %d exceeds cap window", len(history))
	}
	if !strings.Contains(history[len(history)-2].Text(), "message 4") {
		t.Errorf("newest turn missing after trim")
	}
}

func TestMemoriesFiltersTurns(t *testing.T) {
	provider := &scriptedProvider{}
	s := testSession(t, provider, Config{})

	s.turns = []model.Turn{
		model.UserTurn("keep me"),
		{Role: "tool", Parts: []model.Part{{Text: "drop role"}}},
		{Role: model.RoleModel, Parts: []model.Part{{Text: "  "}}},
		{Role: model.RoleModel, Parts: []model.Part{{Text: "reply"}, {Text: ""}}},
	}

	memories := s.Memories()
	if len(memories) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(memories))
	}
	if memories[1].Role != model.RoleModel || len(memories[1].Parts) != 1 {
		t.Errorf("blank parts should be dropped, got %+v", memories[1])
	}
}

func TestClear(t *testing.T) {
	provider := &scriptedProvider{}
	s := testSession(t, provider, Config{})

	if _, err := s.Send(context.Background(), "hello"); err != nil {
		t.Fatalf("send failed: %v", err)
	}
	s.Clear()
	if len(s.History()) != 0 {
		t.Error("clear should discard all turns")
	}
}

func TestFallbackReplyCategories(t *testing.T) {
	tests := []struct {
		name string
		err  error
		pool []string
	}{
		{"blocked", &llm.Error{Kind: llm.KindBlocked, Provider: "x", Err: fmt.Errorf("blocked")}, securityReplies},
		{"rate limited", &llm.Error{Kind: llm.KindRateLimited, Provider: "x", Err: fmt.Errorf("429")}, unavailableReplies},
		{"transient", &llm.Error{Kind: llm.KindTransient, Provider: "x", Err: fmt.Errorf("503")}, unavailableReplies},
		{"malformed", &llm.Error{Kind: llm.KindMalformed, Provider: "x", Err: fmt.Errorf("400")}, confusedReplies},
		{"plain", fmt.Errorf("boom"), unexpectedReplies},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reply := FallbackReply(tt.err)
			found := false
			for _, candidate := range tt.pool {
				if reply == candidate {
					found = true
				}
			}
			if !found {
				t.Errorf("reply %q not in expected category", reply)
			}
		})
	}
}
