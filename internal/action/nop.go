package action

import (
	"context"

	"github.com/gyaneshwarpardhi/ticketsupervisor/internal/ticket"
)

// Nop only logs that the rule fired.
type Nop struct{}

func (Nop) Kind() Kind { return KindNop }

func (Nop) Execute(_ context.Context, t ticket.Ticket, a Action, env *Env) (*Result, error) {
	env.Logger.WithField("code", "401").Infof("#%s -> %s", t.Number(), a.Tag)
	return &Result{Kind: KindNop, Success: true, Message: "nop"}, nil
}
