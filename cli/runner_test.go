package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/praxisapocalyptica/jamie/capability"
	"github.com/praxisapocalyptica/jamie/config"
	"github.com/praxisapocalyptica/jamie/llm"
	"github.com/praxisapocalyptica/jamie/session"
)

func newREPLStack(t *testing.T, provider llm.Provider) *stack {
	t.Helper()
	sess, err := session.New(llm.NewClient(provider), session.Config{}, nil)
	if err != nil {
		t.Fatalf("session.New: %v", err)
	}
	cognition := capability.NewCognition(capability.CognitionConfig{}, nil)
	registry := capability.NewCognitionRegistry(cognition)
	return &stack{
		settings: config.Settings{Robot: config.RobotConfig{Name: "Jamie"}},
		logger:   zap.NewNop(),
		brain:    NewBrain(sess, registry, nil),
		registry: registry,
	}
}

func TestREPLClearHistoryReprimes(t *testing.T) {
	provider := &scriptedProvider{replies: []string{"Understood."}}
	s := newREPLStack(t, provider)
	ctx := context.Background()

	if err := s.prime(ctx, s.capabilityPrompt()); err != nil {
		t.Fatalf("prime: %v", err)
	}
	if got := len(s.brain.Session().History()); got != 2 {
		t.Fatalf("expected 2 turns after priming, got %d", got)
	}

	var out bytes.Buffer
	in := strings.NewReader("clear history\nexit\n")
	if err := runREPL(ctx, s, in, &out); err != nil {
		t.Fatalf("runREPL: %v", err)
	}

	if !strings.Contains(out.String(), "History cleared.") {
		t.Errorf("expected clear confirmation, got %q", out.String())
	}
	if provider.calls != 2 {
		t.Errorf("expected a re-priming model call after clear, got %d calls", provider.calls)
	}
	history := s.brain.Session().History()
	if len(history) != 2 {
		t.Fatalf("expected a freshly primed session after clear, got %d turns", len(history))
	}
	if !strings.Contains(history[0].Text(), "Capabilities Summary") {
		t.Errorf("expected capability vocabulary in the new priming turn, got %q", history[0].Text())
	}
}

func TestREPLShowHistoryPrintsTurns(t *testing.T) {
	provider := &scriptedProvider{replies: []string{"Understood."}}
	s := newREPLStack(t, provider)
	ctx := context.Background()

	if err := s.prime(ctx, s.capabilityPrompt()); err != nil {
		t.Fatalf("prime: %v", err)
	}

	var out bytes.Buffer
	in := strings.NewReader("show history\nexit\n")
	if err := runREPL(ctx, s, in, &out); err != nil {
		t.Fatalf("runREPL: %v", err)
	}

	if !strings.Contains(out.String(), "[Model]: Understood.") {
		t.Errorf("expected model turn in history output, got %q", out.String())
	}
}

func TestREPLExitStopsLoop(t *testing.T) {
	provider := &scriptedProvider{replies: []string{"Understood."}}
	s := newREPLStack(t, provider)

	var out bytes.Buffer
	in := strings.NewReader("exit\nthis line is never read\n")
	if err := runREPL(context.Background(), s, in, &out); err != nil {
		t.Fatalf("runREPL: %v", err)
	}

	if !strings.Contains(out.String(), "Goodbye.") {
		t.Errorf("expected farewell, got %q", out.String())
	}
	if provider.calls != 0 {
		t.Errorf("expected no model calls, got %d", provider.calls)
	}
}
