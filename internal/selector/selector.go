// Package selector resolves list-valued action parameters to one value,
// either at random or round-robin with the position persisted per robot.
package selector

import (
	"fmt"
	"math/rand"

	"github.com/sirupsen/logrus"
)

// Selector picks one candidate out of a Value. It assumes a single writer
// per state file; there is no cross-process locking.
type Selector struct {
	// Dir holds the <robot>-rr.yaml state files.
	Dir    string
	Logger *logrus.Entry
	// IntN returns a uniform random int in [0, n). Defaults to math/rand.
	IntN func(n int) int
}

// New returns a Selector persisting its state under dir.
func New(dir string, logger *logrus.Entry) *Selector {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Selector{Dir: dir, Logger: logger, IntN: rand.Intn}
}

// Select returns v itself for scalars. For lists it returns the next
// candidate after the one stored under key (round-robin) or a random one.
func (s *Selector) Select(v Value, robot, key string, roundRobin bool) (string, error) {
	return s.pick(v, robot, key, roundRobin, true)
}

// Peek is Select without persisting the round-robin position, so repeated
// calls return the same candidate.
func (s *Selector) Peek(v Value, robot, key string, roundRobin bool) (string, error) {
	return s.pick(v, robot, key, roundRobin, false)
}

func (s *Selector) pick(v Value, robot, key string, roundRobin, save bool) (string, error) {
	if !v.IsList() {
		return v.Scalar, nil
	}
	n := len(v.List)
	if n == 0 {
		return "", fmt.Errorf("select %s: empty candidate list", key)
	}
	if !roundRobin {
		intn := s.IntN
		if intn == nil {
			intn = rand.Intn
		}
		return v.List[intn(n)], nil
	}

	path := StateFile(s.Dir, robot)
	state, err := loadState(path)
	if err != nil {
		s.Logger.WithField("code", "171").Warnf("Round-robin state unreadable, starting over: %v", err)
	}
	last, ok := state[key]
	if !ok {
		last = -1
	}
	next := (last + 1) % n
	if next < 0 {
		next = 0
	}
	if save {
		state[key] = next
		if err := saveState(path, state); err != nil {
			s.Logger.WithField("code", "172").Warnf("Round-robin state not saved: %v", err)
		}
	}
	s.Logger.WithField("code", "173").Debugf("RR %s: %d/%d -> %s", key, next, n, v.List[next])
	return v.List[next], nil
}
