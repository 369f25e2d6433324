package capability

import (
	"context"
	"fmt"
	"sort"

	"github.com/praxisapocalyptica/jamie/model"
)

// Plan-call names. These are part of the prompt contract: the model is
// instructed to emit exactly these identifiers.
const (
	NameProvideNormalReply  = "provide_normal_reply"
	NameDeliberateAndDecide = "deliberate_and_decide"
	NamePlanActionSequence  = "plan_action_sequence"
	NameInterpretSensorData = "interpret_sensor_data"
)

// NewCognitionRegistry builds the registry exposing the cognition
// vocabulary to the plan binder. Each adapter decodes the loosely typed
// parser arguments into the typed method signature.
func NewCognitionRegistry(c *Cognition) *Registry {
	r := NewRegistry("Cognition")

	r.Register(NameProvideNormalReply, func(ctx context.Context, args map[string]any) (string, error) {
		prompt, err := stringArg(args, "prompt")
		if err != nil {
			return "", err
		}
		return c.ProvideNormalReply(ctx, prompt)
	})

	r.Register(NameDeliberateAndDecide, func(ctx context.Context, args map[string]any) (string, error) {
		topic, err := stringArg(args, "topic")
		if err != nil {
			return "", err
		}
		return c.DeliberateAndDecide(ctx, topic)
	})

	r.Register(NamePlanActionSequence, func(ctx context.Context, args map[string]any) (string, error) {
		steps, err := actionStepsArg(args, "request")
		if err != nil {
			return "", err
		}
		return c.PlanActionSequence(ctx, steps)
	})

	r.Register(NameInterpretSensorData, func(ctx context.Context, args map[string]any) (string, error) {
		sensorID, err := stringArg(args, "sensor_id")
		if err != nil {
			return "", err
		}
		return c.InterpretSensorData(ctx, sensorID, args["sensor_data"])
	})

	return r
}

func stringArg(args map[string]any, key string) (string, error) {
	value, ok := args[key]
	if !ok {
		return "", fmt.Errorf("missing argument %q", key)
	}
	s, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("argument %q must be a string, got %T", key, value)
	}
	return s, nil
}

// actionStepsArg decodes the parser's list-of-mappings value into
// typed action steps.
func actionStepsArg(args map[string]any, key string) ([]model.ActionStep, error) {
	value, ok := args[key]
	if !ok {
		return nil, fmt.Errorf("missing argument %q", key)
	}
	list, ok := value.([]any)
	if !ok {
		return nil, fmt.Errorf("argument %q must be a list, got %T", key, value)
	}

	steps := make([]model.ActionStep, 0, len(list))
	for i, entry := range list {
		m, ok := entry.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("argument %q entry %d must be a mapping, got %T", key, i, entry)
		}
		step := model.ActionStep{Params: map[string]any{}}
		if iface, ok := m["interface"].(string); ok {
			step.Interface = iface
		}
		if action, ok := m["action"].(string); ok {
			step.Action = action
		}
		if params, ok := m["params"].(map[string]any); ok {
			step.Params = params
		}
		if step.Interface == "" || step.Action == "" {
			return nil, fmt.Errorf("argument %q entry %d missing interface or action", key, i)
		}
		steps = append(steps, step)
	}
	return steps, nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
