package capability

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/praxisapocalyptica/jamie/model"
)

// External collaborators. These are the narrow seams to the hardware
// and cloud glue; the brain never sees protocol framing.

// Mover sends motion commands to the motion controller.
type Mover interface {
	SendCommand(command string) error
}

// Speaker plays synthesized speech. Returns false when playback was
// not possible; speech failure is never an error for the caller.
type Speaker interface {
	Speak(text string) bool
}

// Relay forwards structured payloads to a connected client device.
type Relay interface {
	SendToClient(payload any) error
}

// Deliberator produces a consolidated decision for a complex topic.
// Satisfied by hive.Coordinator.
type Deliberator interface {
	Deliberate(ctx context.Context, topic string) (string, error)
}

// Cognition implements the robot's action vocabulary over its
// collaborators. Each public operation corresponds to one plan-call
// name in the registry built by NewCognitionRegistry.
type Cognition struct {
	mover       Mover
	speaker     Speaker
	relay       Relay
	deliberator Deliberator
	logger      *zap.Logger
}

// CognitionConfig wires the collaborators. Any of them may be nil; the
// corresponding operation then degrades (logged, not fatal) or fails.
type CognitionConfig struct {
	Mover       Mover
	Speaker     Speaker
	Relay       Relay
	Deliberator Deliberator
}

// NewCognition creates the cognition actions.
func NewCognition(cfg CognitionConfig, logger *zap.Logger) *Cognition {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cognition{
		mover:       cfg.Mover,
		speaker:     cfg.Speaker,
		relay:       cfg.Relay,
		deliberator: cfg.Deliberator,
		logger:      logger,
	}
}

// ProvideNormalReply delivers a conversational reply: spoken when a
// speaker is attached, and returned for console display.
func (c *Cognition) ProvideNormalReply(_ context.Context, prompt string) (string, error) {
	if prompt == "" {
		return "", fmt.Errorf("reply text cannot be empty")
	}
	if c.speaker != nil && !c.speaker.Speak(prompt) {
		c.logger.Warn("speech playback failed, continuing with text only")
	}
	return prompt, nil
}

// DeliberateAndDecide hands a complex topic to the deliberation
// coordinator and returns its consolidated decision.
func (c *Cognition) DeliberateAndDecide(ctx context.Context, topic string) (string, error) {
	if c.deliberator == nil {
		return "", fmt.Errorf("no deliberator attached")
	}
	return c.deliberator.Deliberate(ctx, topic)
}

// PlanActionSequence executes a sequence of physical action steps.
// Movement steps go to the motion controller; perception steps are
// relayed to the vision device. Steps run in order and the first
// failure aborts the remainder.
func (c *Cognition) PlanActionSequence(_ context.Context, steps []model.ActionStep) (string, error) {
	if len(steps) == 0 {
		return "", fmt.Errorf("action sequence cannot be empty")
	}

	for i, step := range steps {
		switch step.Interface {
		case "Movement":
			if c.mover == nil {
				return "", fmt.Errorf("step %d: no motion controller attached", i)
			}
			if err := c.mover.SendCommand(encodeMotionCommand(step)); err != nil {
				return "", fmt.Errorf("step %d (%s): %w", i, step.Action, err)
			}
		case "Perception":
			if c.relay == nil {
				return "", fmt.Errorf("step %d: no perception relay attached", i)
			}
			if err := c.relay.SendToClient(step); err != nil {
				return "", fmt.Errorf("step %d (%s): %w", i, step.Action, err)
			}
		default:
			return "", fmt.Errorf("step %d: unknown interface %q", i, step.Interface)
		}
		c.logger.Debug("executed action step",
			zap.Int("step", i),
			zap.String("interface", step.Interface),
			zap.String("action", step.Action))
	}
	return fmt.Sprintf("Executed %d actions.", len(steps)), nil
}

// InterpretSensorData renders a textual interpretation of raw sensor
// data. Interpretation here is bookkeeping; deeper analysis belongs to
// the perception device.
func (c *Cognition) InterpretSensorData(_ context.Context, sensorID string, data any) (string, error) {
	if sensorID == "" {
		return "", fmt.Errorf("sensor id cannot be empty")
	}
	preview := fmt.Sprint(data)
	if len(preview) > 50 {
		preview = preview[:50] + "..."
	}
	return fmt.Sprintf("Interpreted data from %s: %s", sensorID, preview), nil
}

// encodeMotionCommand flattens a movement step into the line format
// the serial controller expects: ACTION key=value ... with stable key
// order handled by the controller.
func encodeMotionCommand(step model.ActionStep) string {
	var b strings.Builder
	b.WriteString(strings.ToUpper(step.Action))
	for _, key := range sortedKeys(step.Params) {
		fmt.Fprintf(&b, " %s=%v", key, step.Params[key])
	}
	return b.String()
}
