package condition

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// TimeLayout is the timestamp format of ticket fields and window bases.
const TimeLayout = "2006-01-02 15:04:05"

// Kind is the comparison a pattern performs.
type Kind int

const (
	KindContains Kind = iota // plain text: substring containment
	KindEquals               // "=value"
	KindRegex                // "~expr", unanchored search
	KindWindow               // "@base op duration"
)

func (k Kind) String() string {
	switch k {
	case KindContains:
		return "contains"
	case KindEquals:
		return "equals"
	case KindRegex:
		return "regex"
	case KindWindow:
		return "window"
	default:
		return "unknown"
	}
}

// Window is a parsed "@base op duration" operand.
type Window struct {
	// Base is "now", a literal timestamp, or "*field".
	Base string
	// Before selects [base-d, base]; otherwise the window is [base, base+d].
	Before   bool
	Duration time.Duration
}

// Pattern is the structured form of a clause pattern string.
type Pattern struct {
	Raw    string
	Negate bool
	Kind   Kind
	// Operand is the literal, the regex source, or (with FieldRef) the name
	// of the ticket field to compare against.
	Operand  string
	FieldRef bool
	Window   *Window

	re     *regexp.Regexp
	reFold *regexp.Regexp
}

// Parse turns a (substituted) pattern string into a Pattern. The prefix
// precedence is fixed: "^" first, then one of "~", "=", "@", then "*".
func Parse(raw string) (*Pattern, error) {
	p := &Pattern{Raw: raw, Kind: KindContains}
	s := raw
	if strings.HasPrefix(s, "^") {
		p.Negate = true
		s = s[1:]
	}
	switch {
	case strings.HasPrefix(s, "~"):
		p.Kind = KindRegex
		s = s[1:]
	case strings.HasPrefix(s, "="):
		p.Kind = KindEquals
		s = s[1:]
	case strings.HasPrefix(s, "@"):
		w, err := parseWindow(s[1:])
		if err != nil {
			return nil, err
		}
		p.Kind = KindWindow
		p.Window = w
		p.Operand = s[1:]
		return p, nil
	}
	if strings.HasPrefix(s, "*") {
		p.FieldRef = true
		s = s[1:]
		if s == "" {
			return nil, fmt.Errorf("pattern %q: empty field reference", raw)
		}
	}
	p.Operand = s
	if p.Kind == KindRegex && !p.FieldRef {
		var err error
		if p.re, err = regexp.Compile(s); err != nil {
			return nil, fmt.Errorf("pattern %q: %w", raw, err)
		}
		p.reFold = regexp.MustCompile("(?i)" + s)
	}
	return p, nil
}

func parseWindow(body string) (*Window, error) {
	parts := strings.Fields(body)
	if len(parts) < 3 {
		return nil, fmt.Errorf("window %q: want \"@base op duration\"", body)
	}
	d, err := ParseDuration(parts[len(parts)-1])
	if err != nil {
		return nil, fmt.Errorf("window %q: %w", body, err)
	}
	w := &Window{
		Base:     strings.Join(parts[:len(parts)-2], " "),
		Before:   parts[len(parts)-2] == "-",
		Duration: d,
	}
	if w.Base != "now" && !strings.HasPrefix(w.Base, "*") {
		if _, err := time.ParseInLocation(TimeLayout, w.Base, time.Local); err != nil {
			return nil, fmt.Errorf("window %q: base: %w", body, err)
		}
	}
	return w, nil
}

// compiled returns the compiled expression for p, compiling field-referenced
// expressions on demand.
func (p *Pattern) compiled(src string, fold bool) (*regexp.Regexp, error) {
	if !p.FieldRef && p.re != nil {
		if fold {
			return p.reFold, nil
		}
		return p.re, nil
	}
	if fold {
		src = "(?i)" + src
	}
	return regexp.Compile(src)
}
