// Package condition implements the rule matching language: every pattern is
// a field test with an optional negation and one comparison operator.
package condition

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"github.com/gyaneshwarpardhi/ticketsupervisor/internal/ticket"
	"github.com/gyaneshwarpardhi/ticketsupervisor/internal/vars"
)

// Test is one field/pattern pair. Patterns without placeholders are parsed
// once by NewTest; templated ones are parsed after substitution.
type Test struct {
	Field   string
	Pattern string

	parsed   *Pattern
	parseErr error
}

// NewTest builds a Test, parsing the pattern eagerly when it has no
// placeholders.
func NewTest(field, pattern string) Test {
	t := Test{Field: field, Pattern: pattern}
	if !vars.HasPlaceholder(pattern) {
		t.parsed, t.parseErr = Parse(pattern)
	}
	return t
}

// Templated reports whether the pattern depends on substitution.
func (t Test) Templated() bool { return t.parsed == nil && t.parseErr == nil }

// Err returns the load-time parse error, if any.
func (t Test) Err() error { return t.parseErr }

// Clause is an ordered group of tests. Grouping has no meaning beyond order.
type Clause []Test

// Options tune evaluation.
type Options struct {
	IgnoreCase bool
	Now        func() time.Time
	Logger     *logrus.Entry
}

// Matches evaluates every test of every clause in order and reports whether
// all of them hold. It never fails: errors (missing field, bad regex, bad
// timestamp) are logged and count as a non-match.
func Matches(t ticket.Ticket, clauses []Clause, v vars.Map, opts Options) bool {
	ok, err := Evaluate(t, clauses, v, opts)
	if err != nil {
		logger(opts).WithField("code", "391").Warnf("#%s ?!? %v", t.Number(), err)
		return false
	}
	return ok
}

// Evaluate is Matches with the error surfaced.
func Evaluate(t ticket.Ticket, clauses []Clause, v vars.Map, opts Options) (bool, error) {
	var combined vars.Map
	for _, clause := range clauses {
		for _, test := range clause {
			p, err := test.parsed, test.parseErr
			if test.Templated() {
				if combined == nil {
					combined = vars.Combine(t, v)
				}
				p, err = Parse(vars.Expand(test.Pattern, combined))
			}
			if err != nil {
				return false, fmt.Errorf("field %s: %w", test.Field, err)
			}
			ok, err := evalPattern(t, test.Field, p, opts)
			if err != nil {
				return false, fmt.Errorf("field %s: %w", test.Field, err)
			}
			if !ok {
				return false, nil
			}
		}
	}
	return true, nil
}

func evalPattern(t ticket.Ticket, field string, p *Pattern, opts Options) (bool, error) {
	value, err := t.Field(field)
	if err != nil {
		return false, err
	}

	var matched bool
	var desc string
	switch p.Kind {
	case KindWindow:
		matched, desc, err = evalWindow(t, value, p.Window, opts)
		if err != nil {
			return false, err
		}
	default:
		operand := p.Operand
		if p.FieldRef {
			if operand, err = t.Field(p.Operand); err != nil {
				return false, err
			}
		}
		got := normalize(value, opts.IgnoreCase)
		want := normalize(operand, opts.IgnoreCase && p.Kind != KindRegex)
		switch p.Kind {
		case KindEquals:
			matched = got == want
		case KindRegex:
			re, err := p.compiled(want, opts.IgnoreCase)
			if err != nil {
				return false, fmt.Errorf("pattern %q: %w", p.Raw, err)
			}
			matched = re.MatchString(got)
		default:
			matched = strings.Contains(got, want)
		}
		desc = fmt.Sprintf("'%s' %s '%s'", clip(got), p.Kind, clip(want))
	}

	if p.Negate {
		matched = !matched
	}
	logger(opts).WithField("code", "382").Debugf("? %v: %s %s%s", matched, clip(field), negMark(p.Negate), desc)
	return matched, nil
}

func evalWindow(t ticket.Ticket, value string, w *Window, opts Options) (bool, string, error) {
	ts, err := parseTimestamp(value)
	if err != nil {
		return false, "", fmt.Errorf("timestamp %q: %w", value, err)
	}
	var base time.Time
	switch {
	case w.Base == "now":
		now := time.Now
		if opts.Now != nil {
			now = opts.Now
		}
		base = now().Truncate(time.Second)
	case strings.HasPrefix(w.Base, "*"):
		ref, err := t.Field(w.Base[1:])
		if err != nil {
			return false, "", err
		}
		if base, err = parseTimestamp(ref); err != nil {
			return false, "", fmt.Errorf("window base %q: %w", ref, err)
		}
	default:
		if base, err = parseTimestamp(w.Base); err != nil {
			return false, "", fmt.Errorf("window base %q: %w", w.Base, err)
		}
	}
	lo, hi := w.bounds(base)
	desc := fmt.Sprintf("%s in [%s ... %s]", ts.Format(TimeLayout), lo.Format(TimeLayout), hi.Format(TimeLayout))
	return inWindow(ts, lo, hi), desc, nil
}

func logger(opts Options) *logrus.Entry {
	if opts.Logger != nil {
		return opts.Logger
	}
	return logrus.NewEntry(logrus.StandardLogger())
}

func negMark(neg bool) string {
	if neg {
		return "^"
	}
	return ""
}

func clip(s string) string {
	if len(s) <= 35 {
		return s
	}
	cut := 35
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
