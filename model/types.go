// Package model provides domain types shared across packages.
package model

// Role identifies the author of a conversation turn.
type Role string

const (
	// RoleUser is a turn authored by the human operator.
	RoleUser Role = "user"
	// RoleModel is a turn authored by the language model.
	RoleModel Role = "model"
)

// Part is one piece of content inside a turn. Only text parts carry
// information for this system; non-text parts are dropped at the
// session boundary.
type Part struct {
	Text string
}

// Turn represents one conversation turn in the current session.
// Sequence order is chronological.
type Turn struct {
	Role  Role
	Parts []Part
}

// Text concatenates all text parts of the turn.
func (t Turn) Text() string {
	var out string
	for _, p := range t.Parts {
		out += p.Text
	}
	return out
}

// UserTurn creates a user turn with a single text part.
func UserTurn(text string) Turn {
	return Turn{Role: RoleUser, Parts: []Part{{Text: text}}}
}

// ModelTurn creates a model turn with a single text part.
func ModelTurn(text string) Turn {
	return Turn{Role: RoleModel, Parts: []Part{{Text: text}}}
}

// ActionStep is one entry of a planned physical action sequence, as
// emitted by the model inside a plan_action_sequence request.
type ActionStep struct {
	Interface string         `json:"interface"`
	Action    string         `json:"action"`
	Params    map[string]any `json:"params"`
}
