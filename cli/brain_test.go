package cli

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/praxisapocalyptica/jamie/capability"
	"github.com/praxisapocalyptica/jamie/llm"
	"github.com/praxisapocalyptica/jamie/session"
)

// scriptedProvider returns canned replies in order and then repeats the
// last one.
type scriptedProvider struct {
	replies []string
	err     error
	calls   int
}

func (p *scriptedProvider) Name() string  { return "scripted" }
func (p *scriptedProvider) Model() string { return "scripted-model" }

func (p *scriptedProvider) Chat(_ context.Context, _ []llm.ChatMessage) (llm.Response, error) {
	if p.err != nil {
		return llm.Response{}, p.err
	}
	idx := p.calls
	if idx >= len(p.replies) {
		idx = len(p.replies) - 1
	}
	p.calls++
	return llm.Response{Content: p.replies[idx]}, nil
}

func newTestBrain(t *testing.T, provider llm.Provider, mover capability.Mover) *Brain {
	t.Helper()
	s, err := session.New(llm.NewClient(provider), session.Config{}, nil)
	if err != nil {
		t.Fatalf("session.New: %v", err)
	}
	cognition := capability.NewCognition(capability.CognitionConfig{Mover: mover}, nil)
	return NewBrain(s, capability.NewCognitionRegistry(cognition), nil)
}

func TestRespondExecutesNormalReplyPlan(t *testing.T) {
	provider := &scriptedProvider{replies: []string{
		`capabilities = [provide_normal_reply(prompt="Hello there")]`,
	}}
	brain := newTestBrain(t, provider, nil)

	reply := brain.Respond(context.Background(), "hi")
	if reply != "Hello there" {
		t.Errorf("expected plan output, got %q", reply)
	}
}

func TestRespondExecutesActionSequence(t *testing.T) {
	var out bytes.Buffer
	provider := &scriptedProvider{replies: []string{
		`capabilities = [plan_action_sequence(request=[{'interface': 'Movement', 'action': 'move_forward', 'params': {'distance': 2.0}}])]`,
	}}
	brain := newTestBrain(t, provider, &ConsoleMover{Out: &out})

	reply := brain.Respond(context.Background(), "go forward")
	if !strings.Contains(reply, "Executed 1 actions") {
		t.Errorf("expected execution summary, got %q", reply)
	}
	if got := out.String(); !strings.Contains(got, "[motion] MOVE_FORWARD distance=2") {
		t.Errorf("expected motion command on console, got %q", got)
	}
}

func TestRespondMalformedReplyFallsBack(t *testing.T) {
	provider := &scriptedProvider{replies: []string{"I cannot express that as a plan."}}
	brain := newTestBrain(t, provider, nil)

	reply := brain.Respond(context.Background(), "hi")
	if reply == "" {
		t.Fatal("expected a fallback reply")
	}
	if strings.Contains(reply, "cannot express") {
		t.Errorf("raw model text leaked through: %q", reply)
	}
}

func TestRespondUnknownCapabilityFallsBack(t *testing.T) {
	provider := &scriptedProvider{replies: []string{
		`capabilities = [self_destruct(countdown=3)]`,
	}}
	brain := newTestBrain(t, provider, nil)

	reply := brain.Respond(context.Background(), "do it")
	if reply == "" {
		t.Fatal("expected a fallback reply")
	}
	if strings.Contains(reply, "self_destruct") {
		t.Errorf("unbound capability name leaked through: %q", reply)
	}
}

func TestRespondProviderFailureLeavesCleanHistory(t *testing.T) {
	provider := &scriptedProvider{err: fmt.Errorf("connection refused")}
	brain := newTestBrain(t, provider, nil)

	reply := brain.Respond(context.Background(), "hi")
	if reply == "" {
		t.Fatal("expected a fallback reply")
	}
	if got := len(brain.Session().History()); got != 0 {
		t.Errorf("expected empty history after failed send, got %d turns", got)
	}
}

func TestRespondCapabilityFailureWithNoOutputs(t *testing.T) {
	// Movement plan with no mover attached fails at execution.
	provider := &scriptedProvider{replies: []string{
		`capabilities = [plan_action_sequence(request=[{'interface': 'Movement', 'action': 'move_forward', 'params': {}}])]`,
	}}
	brain := newTestBrain(t, provider, nil)

	reply := brain.Respond(context.Background(), "go")
	if reply == "" {
		t.Fatal("expected a fallback reply")
	}
	if strings.Contains(reply, "Executed") {
		t.Errorf("unexpected success summary: %q", reply)
	}
}
