package action

import (
	"context"
	"fmt"

	"github.com/gyaneshwarpardhi/ticketsupervisor/internal/metrics"
	"github.com/gyaneshwarpardhi/ticketsupervisor/internal/ticket"
)

// Runner executes a rule's act list.
type Runner struct {
	registry *Registry
}

// NewRunner returns a Runner over reg (DefaultRegistry when nil).
func NewRunner(reg *Registry) *Runner {
	if reg == nil {
		reg = DefaultRegistry()
	}
	return &Runner{registry: reg}
}

// Execute runs actions strictly in order. Actions without an executor are
// logged and skipped; the first failing action stops the sequence and its
// error is returned.
func (r *Runner) Execute(ctx context.Context, t ticket.Ticket, actions []Action, env *Env) ([]*Result, error) {
	results := make([]*Result, 0, len(actions))
	for _, a := range actions {
		env.Logger.WithField("code", "481").Debugf("> %s %v", a.Tag, a.Fields)
		exec, err := r.registry.Get(a.Kind)
		if err != nil {
			env.Logger.WithField("code", "491").Errorf("#%s ?? %s %v", t.Number(), a.Tag, a.Fields)
			metrics.ActionsExecuted.WithLabelValues(string(a.Kind), "skipped").Inc()
			continue
		}
		res, err := exec.Execute(ctx, t, a, env)
		if err != nil {
			metrics.ActionsExecuted.WithLabelValues(string(a.Kind), "error").Inc()
			return results, fmt.Errorf("%s: %w", a.Tag, err)
		}
		status := "success"
		if env.DryRun {
			status = "simulated"
		}
		metrics.ActionsExecuted.WithLabelValues(string(a.Kind), status).Inc()
		results = append(results, res)
	}
	return results, nil
}
