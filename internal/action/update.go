package action

import (
	"context"
	"fmt"

	"github.com/gyaneshwarpardhi/ticketsupervisor/internal/ticket"
)

// Update writes fields back to the ticket.
type Update struct{}

func (Update) Kind() Kind { return KindUpdate }

// Execute resolves the field values, adds the automatic comment unless the
// rule sets the comment field itself, and sends the update (or only logs it
// in dry-run mode).
func (Update) Execute(ctx context.Context, t ticket.Ticket, a Action, env *Env) (*Result, error) {
	payload, err := resolveFields(t, a, env)
	if err != nil {
		return nil, err
	}
	if cf := env.Settings.CommentField; !a.Has(cf) {
		payload[cf] = AutoComment(env.Settings.MsgPrefix, env.Robot, env.Rule)
	}

	log := env.Logger.WithField("code", "402")
	if env.DryRun {
		log.Infof("#%s -> %s: '%v' -> [simulation]", t.Number(), a.Tag, payload)
		return &Result{Kind: KindUpdate, Success: true, Message: "simulated"}, nil
	}
	if env.Source == nil {
		return nil, fmt.Errorf("no ticket source")
	}
	res, err := env.Source.Update(ctx, env.Settings.Table, t, payload)
	if err != nil {
		return nil, err
	}
	log.Infof("#%s -> %s: '%v' -> %s", t.Number(), a.Tag, payload, res.Number())
	return &Result{Kind: KindUpdate, Success: true, Message: fmt.Sprintf("updated %d fields", len(payload))}, nil
}

// AutoComment is the comment added to every update that does not set one.
func AutoComment(prefix, robot, rule string) string {
	return fmt.Sprintf("%s402I %s -> %s", prefix, robot, rule)
}
