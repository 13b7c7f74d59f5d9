package engine

import "time"

// State is a poll loop state.
type State string

const (
	StateIdle       State = "idle"
	StateFetching   State = "fetching"
	StateProcessing State = "processing"
	StateSleeping   State = "sleeping"
	StateRetrying   State = "retrying_connection"
	StateFailed     State = "failed"
	StateStopped    State = "stopped"
)

// Status is a point-in-time snapshot of the loop, safe to hand to other
// goroutines.
type Status struct {
	State     State     `json:"state"`
	CycleID   string    `json:"cycle_id,omitempty"`
	Cycles    int64     `json:"cycles"`
	Retries   int       `json:"retries"`
	LastCycle time.Time `json:"last_cycle,omitempty"`
	LastError string    `json:"last_error,omitempty"`
	Robots    []string  `json:"robots"`
}

// Status returns the current snapshot.
func (e *Engine) Status() Status {
	if s := e.status.Load(); s != nil {
		return *s
	}
	return Status{State: StateIdle}
}

// Ready reports whether at least one cycle completed and the loop is not
// retrying or failed.
func (e *Engine) Ready() bool {
	s := e.Status()
	return s.Cycles > 0 && s.State != StateRetrying && s.State != StateFailed
}

// setStatus publishes a modified copy of the current status. Only the
// loop goroutine writes.
func (e *Engine) setStatus(fn func(*Status)) {
	next := e.Status()
	fn(&next)
	e.status.Store(&next)
}
