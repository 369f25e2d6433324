// The brain pipeline: user input goes to the language model as part of
// the running session, the model's reply is parsed as a capability
// plan, the plan is bound against the cognition registry and executed
// in order.
//
// Information Hiding:
// - The order of pipeline stages and their failure handling
// - Which fallback reply pool answers which failure

package cli

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/praxisapocalyptica/jamie/capability"
	"github.com/praxisapocalyptica/jamie/plan"
	"github.com/praxisapocalyptica/jamie/session"
)

// Brain runs the input-to-action pipeline over a session and a
// capability registry.
type Brain struct {
	session  *session.Session
	registry *capability.Registry
	logger   *zap.Logger
}

// NewBrain wires the pipeline. Session and registry are required.
func NewBrain(s *session.Session, registry *capability.Registry, logger *zap.Logger) *Brain {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Brain{session: s, registry: registry, logger: logger}
}

// Session exposes the underlying conversation for history commands and
// shutdown persistence.
func (b *Brain) Session() *session.Session {
	return b.session
}

// Respond processes one user input end to end and returns the text to
// show the operator. Failures never escape as errors; every failure
// mode maps to a spoken-style fallback reply, with detail in the log.
func (b *Brain) Respond(ctx context.Context, input string) string {
	reply, err := b.session.Send(ctx, input)
	if err != nil {
		b.logger.Warn("model request failed", zap.Error(err))
		return session.FallbackReply(err)
	}
	if strings.TrimSpace(reply) == "" {
		return ""
	}

	parsed, err := plan.ParseResponse(reply)
	if err != nil {
		b.logger.Warn("model reply is not a valid plan",
			zap.String("reply", preview(reply)),
			zap.Error(err))
		return session.ConfusedReply()
	}

	bound, err := b.registry.Bind(parsed)
	if err != nil {
		b.logger.Warn("plan names an unknown capability", zap.Error(err))
		return session.ConfusedReply()
	}

	outputs, err := capability.RunAll(ctx, bound)
	if err != nil {
		b.logger.Warn("capability execution aborted", zap.Error(err))
		if len(outputs) == 0 {
			return session.ConfusedReply()
		}
	}
	return strings.Join(outputs, "\n")
}

func preview(s string) string {
	if len(s) > 120 {
		return s[:120] + "..."
	}
	return s
}
