// Package engine runs the poll loop: every cycle each robot fetches its
// eligible tickets, matches them against its rules and executes the
// actions of the matching rules.
package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/gyaneshwarpardhi/ticketsupervisor/internal/action"
	"github.com/gyaneshwarpardhi/ticketsupervisor/internal/clock"
	"github.com/gyaneshwarpardhi/ticketsupervisor/internal/condition"
	"github.com/gyaneshwarpardhi/ticketsupervisor/internal/config"
	"github.com/gyaneshwarpardhi/ticketsupervisor/internal/logging"
	"github.com/gyaneshwarpardhi/ticketsupervisor/internal/metrics"
	"github.com/gyaneshwarpardhi/ticketsupervisor/internal/rule"
	"github.com/gyaneshwarpardhi/ticketsupervisor/internal/selector"
	"github.com/gyaneshwarpardhi/ticketsupervisor/internal/ticket"
	"github.com/gyaneshwarpardhi/ticketsupervisor/internal/vars"
)

// ErrRetriesExhausted is returned by Run when the backend stayed
// unreachable for more than max_retry_connect consecutive cycles.
var ErrRetriesExhausted = errors.New("connection retries exhausted")

// SourceFactory builds the ticket backend for a robot's settings.
type SourceFactory func(s config.Settings) (ticket.Source, error)

// Options control one supervisor run.
type Options struct {
	Config config.File
	// Robots to process, in order. Empty means every section but global.
	Robots  []string
	DryRun  bool
	Quiet   bool
	Once    bool
	Version string
}

// Engine drives the poll loop. It is not safe for concurrent Run calls;
// Status may be read from any goroutine.
type Engine struct {
	opts      Options
	newSource SourceFactory
	runner    *action.Runner
	clock     clock.Clock
	log       *logrus.Entry
	files     *logging.ActionFileHook
	environ   func() []string

	status atomic.Pointer[Status]
}

// Option customizes an Engine.
type Option func(*Engine)

// WithClock replaces the real clock.
func WithClock(c clock.Clock) Option { return func(e *Engine) { e.clock = c } }

// WithRunner replaces the default action runner.
func WithRunner(r *action.Runner) Option { return func(e *Engine) { e.runner = r } }

// WithActionFiles routes each robot's coded log lines to its log_dir.
func WithActionFiles(h *logging.ActionFileHook) Option { return func(e *Engine) { e.files = h } }

// WithEnviron replaces os.Environ as the highest-precedence variable source.
func WithEnviron(fn func() []string) Option { return func(e *Engine) { e.environ = fn } }

// New creates an Engine.
func New(opts Options, newSource SourceFactory, log *logrus.Entry, options ...Option) *Engine {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	e := &Engine{
		opts:      opts,
		newSource: newSource,
		runner:    action.NewRunner(nil),
		clock:     clock.Real(),
		log:       log,
		environ:   os.Environ,
	}
	for _, o := range options {
		o(e)
	}
	if len(e.opts.Robots) == 0 {
		e.opts.Robots = Robots(opts.Config)
	}
	e.setStatus(func(s *Status) {
		s.State = StateIdle
		s.Robots = append([]string(nil), e.opts.Robots...)
	})
	return e
}

// Robots lists the robot sections of a configuration, sorted.
func Robots(f config.File) []string {
	var out []string
	for name := range f {
		if name != config.GlobalSection {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// Run executes cycles until ctx is cancelled. A failed fetch aborts the
// cycle and the whole cycle is retried after retry_sleep_sec; more than
// max_retry_connect consecutive failures end the run with
// ErrRetriesExhausted. With Options.Once a single cycle runs and its error
// is returned without retrying.
func (e *Engine) Run(ctx context.Context) error {
	global, err := config.EffectiveConfig(config.GlobalSection, e.opts.Config)
	if err != nil {
		return err
	}
	e.banner()

	if e.opts.Once {
		err := e.RunCycle(ctx)
		if err != nil && ctx.Err() == nil {
			e.setStatus(func(s *Status) { s.State = StateFailed })
			return err
		}
		e.setStatus(func(s *Status) { s.State = StateStopped })
		return nil
	}

	retries := 0
	for {
		err := e.RunCycle(ctx)
		if ctx.Err() != nil {
			e.setStatus(func(s *Status) { s.State = StateStopped })
			return nil
		}

		wait := global.SleepBetween()
		state := StateSleeping
		switch {
		case err == nil:
			retries = 0
		case ticket.IsConnError(err):
			retries++
			if retries > global.MaxRetryConnect {
				e.setStatus(func(s *Status) {
					s.State = StateFailed
					s.Retries = retries - 1
				})
				return fmt.Errorf("%w after %d retries: %v", ErrRetriesExhausted, retries-1, err)
			}
			wait = global.RetrySleep()
			state = StateRetrying
			e.log.WithField(logging.FieldCode, "191").Warnf("Connection failed, retry %d/%d in %s: %v",
				retries, global.MaxRetryConnect, wait, err)
		default:
			e.log.WithField(logging.FieldCode, "191").Errorf("Cycle failed: %v", err)
		}
		metrics.ConnectRetries.Set(float64(retries))
		e.setStatus(func(s *Status) {
			s.State = state
			s.Retries = retries
		})

		select {
		case <-ctx.Done():
			e.setStatus(func(s *Status) { s.State = StateStopped })
			return nil
		case <-e.clock.After(wait):
		}
	}
}

// RunCycle processes every robot once. Configuration, rule and ticket
// errors are logged and contained; a backend connection error aborts the
// cycle and is returned.
func (e *Engine) RunCycle(ctx context.Context) error {
	id := uuid.NewString()
	start := e.clock.Now()
	e.setStatus(func(s *Status) {
		s.State = StateFetching
		s.CycleID = id
	})

	var cycleErr error
	for _, robot := range e.opts.Robots {
		if err := ctx.Err(); err != nil {
			cycleErr = err
			break
		}
		err := e.runRobot(ctx, id, robot)
		if err == nil {
			continue
		}
		if ticket.IsConnError(err) {
			metrics.FetchFailures.Inc()
			cycleErr = err
			break
		}
		if ctx.Err() != nil {
			cycleErr = ctx.Err()
			break
		}
		metrics.RobotErrors.WithLabelValues(robot, "robot").Inc()
		e.robotLog(robot, id, "").WithField(logging.FieldCode, "191").Errorf("%s: %v", robot, err)
	}

	status := "success"
	if cycleErr != nil {
		status = "error"
	}
	metrics.Cycles.WithLabelValues(status).Inc()
	metrics.CycleDuration.Observe(e.clock.Now().Sub(start).Seconds())
	e.setStatus(func(s *Status) {
		s.Cycles++
		s.LastCycle = start
		s.LastError = ""
		if cycleErr != nil {
			s.LastError = cycleErr.Error()
		}
	})
	return cycleErr
}

func (e *Engine) robotLog(robot, cycle, prefix string) *logrus.Entry {
	f := logrus.Fields{logging.FieldRobot: robot, logging.FieldCycle: cycle}
	if prefix != "" {
		f[logging.FieldPrefix] = prefix
	}
	return e.log.WithFields(f)
}

func (e *Engine) runRobot(ctx context.Context, cycle, robot string) error {
	s, err := config.EffectiveConfig(robot, e.opts.Config)
	if err != nil {
		return err
	}
	if err := config.Validate(robot, s); err != nil {
		return err
	}
	if e.files != nil {
		e.files.Route(robot, s.LogDir)
	}
	log := e.robotLog(robot, cycle, s.MsgPrefix)

	src, err := e.newSource(s)
	if err != nil {
		return err
	}
	tickets, err := src.Query(ctx, ticket.Query{
		Table:           s.Table,
		IgnoreStates:    s.StateIgnore,
		AssignmentGroup: s.AssignGroup,
		Limit:           s.Limit,
	})
	if err != nil {
		return fmt.Errorf("fetch %s: %w", robot, err)
	}
	metrics.TicketsFetched.WithLabelValues(robot).Add(float64(len(tickets)))
	log.WithField(logging.FieldCode, "009").Infof("%s: %d eligible tickets in %s", robot, len(tickets), s.Table)

	rules, err := rule.Load(s.RulePath(robot))
	if err != nil {
		return err
	}
	variables, err := vars.Provider{Dir: s.CfgDir, Environ: e.environ}.Load(robot)
	if err != nil {
		return err
	}

	e.setStatus(func(st *Status) { st.State = StateProcessing })
	r := &robotRun{
		engine:   e,
		robot:    robot,
		settings: s,
		rules:    rules,
		vars:     variables,
		selector: selector.New(s.StatePath(), log),
		source:   src,
		log:      log,
	}
	for _, t := range tickets {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := r.process(ctx, t); err != nil {
			metrics.RobotErrors.WithLabelValues(robot, "ticket").Inc()
			log.WithField(logging.FieldCode, "192").Errorf("#%s %v", t.Number(), err)
		}
	}
	return nil
}

// robotRun is the per-robot state of one cycle.
type robotRun struct {
	engine   *Engine
	robot    string
	settings config.Settings
	rules    []rule.Rule
	vars     vars.Map
	selector *selector.Selector
	source   ticket.Source
	log      *logrus.Entry
}

func (r *robotRun) process(ctx context.Context, t ticket.Ticket) error {
	desc, _ := t.Field(r.settings.DescriptionField)
	opts := condition.Options{
		IgnoreCase: r.settings.IgnoreCase,
		Now:        r.engine.clock.Now,
		Logger:     r.log,
	}
	matched := false
	for _, ru := range r.rules {
		if !condition.Matches(t, ru.Find, r.vars, opts) {
			continue
		}
		matched = true
		metrics.RulesMatched.WithLabelValues(r.robot, ru.Name).Inc()
		r.log.WithField(logging.FieldCode, "202").Infof("#%s %s: %s", t.Number(), ru.Name, desc)

		env := &action.Env{
			Robot:    r.robot,
			Rule:     ru.Name,
			Settings: r.settings,
			Vars:     r.vars,
			Selector: r.selector,
			Source:   r.source,
			DryRun:   r.engine.opts.DryRun,
			Logger:   r.log,
		}
		if _, err := r.engine.runner.Execute(ctx, t, ru.Act, env); err != nil {
			return fmt.Errorf("%s: %w", ru.Name, err)
		}
		if r.settings.FirstMatchOnly {
			break
		}
	}
	if !matched && !r.engine.opts.Quiet {
		r.log.WithField(logging.FieldCode, "201").Infof("#%s NA: %s", t.Number(), desc)
	}
	return nil
}

func (e *Engine) banner() {
	user := os.Getenv("USER")
	if user == "" {
		user = os.Getenv("USERNAME")
	}
	host, _ := os.Hostname()
	for _, robot := range e.opts.Robots {
		s, err := config.EffectiveConfig(robot, e.opts.Config)
		if err != nil {
			continue
		}
		e.robotLog(robot, "", s.MsgPrefix).WithField(logging.FieldCode, "008").Infof(
			"%s@%s supervisor %s robot=%s table=%s dry-run=%t once=%t",
			user, host, e.opts.Version, robot, s.Table, e.opts.DryRun, e.opts.Once)
	}
}
