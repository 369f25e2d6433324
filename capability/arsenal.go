package capability

import (
	"fmt"
	"strings"
)

// Descriptor declares one capability for prompt generation. Descriptors
// are maintained by hand; the registry and this list must agree, which
// DescribeCapabilities cross-checks at call time.
type Descriptor struct {
	Name      string
	Signature string
	Doc       string
}

// CognitionDescriptors lists the cognition vocabulary shown to the
// model. Signatures use the plan grammar, not Go syntax.
func CognitionDescriptors() []Descriptor {
	return []Descriptor{
		{
			Name:      NameProvideNormalReply,
			Signature: `provide_normal_reply(prompt="...")`,
			Doc:       "Generates a direct, conversational response without deep analysis or planning. Suitable for simple questions or statements.",
		},
		{
			Name:      NameDeliberateAndDecide,
			Signature: `deliberate_and_decide(topic="...")`,
			Doc:       "Performs deeper thinking or deliberation on a complex topic or task, consulting the collective mind, and returns the final decision.",
		},
		{
			Name:      NamePlanActionSequence,
			Signature: `plan_action_sequence(request=[{'interface': 'Movement', 'action': 'move_forward', 'params': {'distance': 2.0}}, ...])`,
			Doc:       "Breaks a physical request into a sequence of concrete actions executed through the Movement and Perception interfaces, in order.",
		},
		{
			Name:      NameInterpretSensorData,
			Signature: `interpret_sensor_data(sensor_id="...", sensor_data=...)`,
			Doc:       "Analyzes data from a sensor and provides a textual interpretation.",
		},
	}
}

// DescribeCapabilities renders the capabilities summary block of the
// system prompt: how to use the vocabulary, then each action with its
// signature and description. Descriptors that name an unregistered
// capability are dropped with an inline error marker rather than
// advertised.
func DescribeCapabilities(r *Registry, descriptors []Descriptor) string {
	var b strings.Builder

	b.WriteString("---\n## Capabilities Summary\n\n")
	b.WriteString("You are an AI controlling a robot. Below are the actions you can request " +
		"to be performed. You never execute them directly; instead you output a plan as a " +
		"single line in exactly this format and nothing else:\n\n" +
		"    capabilities = [action_name(key=value, ...), ...]\n\n" +
		"Calls run left to right. Values are literals only: strings, numbers, booleans, " +
		"null, lists and mappings. If a request cannot be satisfied with the actions below, " +
		"say so with provide_normal_reply.\n\n")
	b.WriteString("**Available Actions:**\n\n")

	registered := make(map[string]bool, len(r.funcs))
	for name := range r.funcs {
		registered[name] = true
	}

	for _, d := range descriptors {
		if !registered[d.Name] {
			fmt.Fprintf(&b, "- `%s`: [not available]\n\n", d.Name)
			continue
		}
		fmt.Fprintf(&b, "- `%s`\n  %s\n\n", d.Signature, d.Doc)
	}

	b.WriteString("---\n")
	return b.String()
}
