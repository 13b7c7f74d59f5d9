// Package vars assembles the substitution variables used by rule patterns,
// update payloads and external commands.
package vars

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/gyaneshwarpardhi/ticketsupervisor/internal/ticket"
)

// Map is a variable name to value mapping.
type Map map[string]string

// SharedPattern matches variable files read for every robot.
const SharedPattern = "shared-vars-*.txt"

// RobotPattern returns the glob of a robot's own variable files.
func RobotPattern(robot string) string {
	return robot + "-vars-*.txt"
}

// Provider reads variable files from a directory and overlays the process
// environment. Files are re-read on every Load.
type Provider struct {
	Dir     string
	Environ func() []string
}

// Load builds the variable map for robot: shared files, then the robot's
// files, then the environment (highest precedence).
func (p Provider) Load(robot string) (Map, error) {
	out := Map{}
	dir := p.Dir
	if dir == "" {
		dir = "."
	}
	for _, pattern := range []string{SharedPattern, RobotPattern(robot)} {
		files, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, fmt.Errorf("vars glob %s: %w", pattern, err)
		}
		sort.Strings(files)
		for _, f := range files {
			if err := readFile(f, out); err != nil {
				return nil, err
			}
		}
	}
	environ := p.Environ
	if environ == nil {
		environ = os.Environ
	}
	for _, kv := range environ() {
		if k, v, ok := strings.Cut(kv, "="); ok && k != "" {
			out[k] = v
		}
	}
	return out, nil
}

func readFile(path string, into Map) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read vars %s: %w", path, err)
	}
	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parse vars %s: %w", path, err)
	}
	for k, v := range raw {
		into[k] = ticket.Stringify(v)
	}
	return nil
}

// Combine merges ticket fields with variables; variables win on collision.
func Combine(t ticket.Ticket, v Map) Map {
	out := make(Map, len(t)+len(v))
	for k, s := range t.Strings() {
		out[k] = s
	}
	for k, s := range v {
		out[k] = s
	}
	return out
}

// With returns a copy of m with extra entries added.
func (m Map) With(extra Map) Map {
	out := make(Map, len(m)+len(extra))
	for k, v := range m {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

var placeholder = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_.\-]*)\}`)

// HasPlaceholder reports whether s contains a {name} placeholder.
func HasPlaceholder(s string) bool {
	return placeholder.MatchString(s)
}

// Unresolved returns the distinct placeholder names in s that m does not
// define, in order of appearance.
func Unresolved(s string, m Map) []string {
	var out []string
	seen := map[string]bool{}
	for _, sm := range placeholder.FindAllStringSubmatch(s, -1) {
		name := sm[1]
		if _, ok := m[name]; ok || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}

// Expand replaces {name} placeholders with values from m. Unknown names are
// left in place.
func Expand(s string, m Map) string {
	return placeholder.ReplaceAllStringFunc(s, func(ph string) string {
		if v, ok := m[ph[1:len(ph)-1]]; ok {
			return v
		}
		return ph
	})
}
