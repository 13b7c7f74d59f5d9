package ticket

import (
	"context"
	"errors"
	"fmt"
)

// Query selects the eligible batch: active tickets whose state is not in
// IgnoreStates, optionally restricted to one assignment group.
type Query struct {
	Table           string
	IgnoreStates    []string
	AssignmentGroup string
	Limit           int
}

// Source is the ticketing backend as seen by the supervisor.
type Source interface {
	// Query blocks until the backend answers. Failures are *ConnError.
	Query(ctx context.Context, q Query) ([]Ticket, error)
	// Update applies a partial field map to one ticket.
	Update(ctx context.Context, table string, t Ticket, fields map[string]string) (Ticket, error)
	// Get looks a single ticket up by number.
	Get(ctx context.Context, table, number string) (Ticket, error)
}

// ErrNotFound is returned by Get when no ticket carries the number.
var ErrNotFound = errors.New("ticket not found")

// ConnError marks a transient failure talking to the backend. The poll loop
// retries these with a bounded budget.
type ConnError struct {
	Op  string
	Err error
}

func (e *ConnError) Error() string {
	return fmt.Sprintf("backend %s: %v", e.Op, e.Err)
}

func (e *ConnError) Unwrap() error { return e.Err }

// IsConnError reports whether err (or anything it wraps) is a *ConnError.
func IsConnError(err error) bool {
	var ce *ConnError
	return errors.As(err, &ce)
}
