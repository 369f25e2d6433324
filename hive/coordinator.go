// Collective deliberation across multiple model sessions.
//
// Information Hiding:
// - Fan-out/fan-in concurrency over council members
// - Per-member failure isolation as error-text slots
// - Round prompts and response formatting
// - Decision selection and fallback order
//
// Deliberation runs exactly two rounds: individual initial thoughts,
// then synthesis toward a single collective decision.

package hive

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// errorSlotPrefix marks a member slot that holds a failure instead of a
// response. Error slots flow through round formatting so surviving
// members see which voices went silent.
const errorSlotPrefix = "Error:"

// Member is one deliberation participant.
type Member interface {
	// Name identifies the member in logs and transcripts.
	Name() string

	// Communicate sends a prompt and returns the member's response.
	Communicate(ctx context.Context, prompt string) (string, error)
}

// Entry is a single line of deliberation dialogue.
type Entry struct {
	Member  string
	Role    string
	Message string
}

// Recorder persists a deliberation transcript. Recording is best effort;
// failures never abort a deliberation.
type Recorder interface {
	Record(ctx context.Context, topic string, entries []Entry) error
}

// Coordinator orchestrates a council of members.
type Coordinator struct {
	name     string
	members  []Member
	recorder Recorder
	logger   *zap.Logger
}

// New creates a coordinator over the given members.
// The recorder may be nil to skip transcript persistence.
func New(name string, members []Member, recorder Recorder, logger *zap.Logger) (*Coordinator, error) {
	if name == "" {
		name = "Collective Mind"
	}
	if len(members) == 0 {
		return nil, fmt.Errorf("deliberation requires at least one member")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{
		name:     name,
		members:  members,
		recorder: recorder,
		logger:   logger,
	}, nil
}

// Deliberate runs the two-round protocol on a topic and returns the
// collective decision. A round in which every member fails aborts the
// deliberation with an error.
func (c *Coordinator) Deliberate(ctx context.Context, topic string) (string, error) {
	c.logger.Info("starting deliberation",
		zap.String("collective", c.name),
		zap.String("topic", preview(topic)))

	var transcript []Entry

	initialResponses, round1 := c.debate(ctx, initialThoughtsPrompt(topic))
	transcript = append(transcript, round1...)

	if allErrors(initialResponses) {
		c.record(ctx, topic, transcript)
		return "", fmt.Errorf("deliberation on %q: no member produced initial thoughts", preview(topic))
	}

	formatted := c.formatResponses(initialResponses)

	synthesisResponses, round2 := c.debate(ctx, synthesisPrompt(topic, formatted))
	transcript = append(transcript, round2...)
	c.record(ctx, topic, transcript)

	if allErrors(synthesisResponses) {
		return "", fmt.Errorf("deliberation on %q: no member produced a synthesis", preview(topic))
	}

	decision, member := c.selectDecision(synthesisResponses)
	c.logger.Info("deliberation complete",
		zap.String("collective", c.name),
		zap.String("decided_by", member))
	return decision, nil
}

// debate poses one prompt to every member concurrently. The returned
// slice has one slot per member in member order; a failed member's slot
// carries error text instead of a response.
func (c *Coordinator) debate(ctx context.Context, prompt string) ([]string, []Entry) {
	type result struct {
		index    int
		response string
		entry    Entry
	}

	// Buffered so abandoned senders cannot leak.
	results := make(chan result, len(c.members))

	for i, member := range c.members {
		go func(index int, m Member) {
			response, err := m.Communicate(ctx, prompt)
			if err != nil {
				c.logger.Warn("member failed during debate",
					zap.String("member", m.Name()),
					zap.Error(err))
				results <- result{
					index:    index,
					response: fmt.Sprintf("%s Could not get response from %s. Details: %v", errorSlotPrefix, m.Name(), err),
					entry:    Entry{Member: m.Name(), Role: "error", Message: err.Error()},
				}
				return
			}
			results <- result{
				index:    index,
				response: response,
				entry:    Entry{Member: m.Name(), Role: "model", Message: response},
			}
		}(i, member)
	}

	responses := make([]string, len(c.members))
	entries := make([]Entry, 0, 2*len(c.members))
	entries = append(entries, Entry{Member: c.name, Role: "user", Message: prompt})

	replyEntries := make([]Entry, len(c.members))
	for range c.members {
		r := <-results
		responses[r.index] = r.response
		replyEntries[r.index] = r.entry
	}
	entries = append(entries, replyEntries...)

	return responses, entries
}

// selectDecision takes member 0's synthesis, falling back to the first
// non-error slot. Callers guarantee at least one non-error slot exists.
func (c *Coordinator) selectDecision(responses []string) (string, string) {
	if !isErrorSlot(responses[0]) {
		return responses[0], c.members[0].Name()
	}
	for i, response := range responses {
		if !isErrorSlot(response) {
			c.logger.Warn("designated member failed synthesis, using fallback",
				zap.String("fallback", c.members[i].Name()))
			return response, c.members[i].Name()
		}
	}
	return responses[0], c.members[0].Name()
}

// formatResponses labels each slot with its member's name for the
// synthesis round. Error slots are included so members can account for
// missing voices.
func (c *Coordinator) formatResponses(responses []string) string {
	labeled := make([]string, len(responses))
	for i, response := range responses {
		labeled[i] = fmt.Sprintf("%s:\n%s", c.members[i].Name(), response)
	}
	return strings.Join(labeled, "\n\n")
}

func (c *Coordinator) record(ctx context.Context, topic string, entries []Entry) {
	if c.recorder == nil {
		return
	}
	if err := c.recorder.Record(ctx, topic, entries); err != nil {
		c.logger.Warn("failed to record deliberation transcript", zap.Error(err))
	}
}

func allErrors(responses []string) bool {
	for _, response := range responses {
		if !isErrorSlot(response) {
			return false
		}
	}
	return true
}

func isErrorSlot(response string) bool {
	return strings.HasPrefix(response, errorSlotPrefix)
}

func initialThoughtsPrompt(topic string) string {
	return fmt.Sprintf(
		"You are one member of a deliberating council. Consider the following topic and give your individual thoughts and an initial recommendation. Be concise.\n\nTopic: %s",
		topic)
}

func synthesisPrompt(topic, individualResponses string) string {
	return fmt.Sprintf(
		"The council gathered these individual thoughts on the topic %q. Review all of them, weigh the tradeoffs, and state a single collective decision with a short justification.\n\nIndividual thoughts:\n%s",
		topic, individualResponses)
}

func preview(s string) string {
	if len(s) > 50 {
		return s[:50] + "..."
	}
	return s
}
