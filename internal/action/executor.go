package action

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/gyaneshwarpardhi/ticketsupervisor/internal/config"
	"github.com/gyaneshwarpardhi/ticketsupervisor/internal/selector"
	"github.com/gyaneshwarpardhi/ticketsupervisor/internal/ticket"
	"github.com/gyaneshwarpardhi/ticketsupervisor/internal/vars"
)

// TicketFileVar is the template variable holding the ticket snapshot path
// for run actions.
const TicketFileVar = "tkt_json_file"

// Result holds the outcome of executing a single action.
type Result struct {
	Kind    Kind   `json:"kind"`
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Env is the per-robot, per-rule context an action runs in. It is built by
// the poll loop for every matching rule; nothing here is global.
type Env struct {
	Robot    string
	Rule     string
	Settings config.Settings
	Vars     vars.Map
	Selector *selector.Selector
	Source   ticket.Source
	DryRun   bool
	Logger   *logrus.Entry
}

// Executor is the interface all action implementations must satisfy.
type Executor interface {
	// Kind returns the action kind this executor is registered under.
	Kind() Kind
	// Execute runs the action against one ticket.
	Execute(ctx context.Context, t ticket.Ticket, a Action, env *Env) (*Result, error)
}

// resolveFields picks a value for every list-valued field and expands
// placeholders against ticket fields and variables. Dry runs leave the
// round-robin position untouched.
func resolveFields(t ticket.Ticket, a Action, env *Env) (map[string]string, error) {
	combined := vars.Combine(t, env.Vars)
	out := make(map[string]string, len(a.Fields))
	for _, f := range a.Fields {
		v := f.Value.Scalar
		if f.Value.IsList() {
			if env.Selector == nil {
				return nil, fmt.Errorf("%s: no selector for list value", f.Name)
			}
			pick := env.Selector.Select
			if env.DryRun {
				pick = env.Selector.Peek
			}
			var err error
			v, err = pick(f.Value, env.Robot, env.Rule+"/"+f.Name, env.Settings.RoundRobin)
			if err != nil {
				return nil, err
			}
		}
		out[f.Name] = vars.Expand(v, combined)
	}
	return out, nil
}
