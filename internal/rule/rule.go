// Package rule loads a robot's rule file: an ordered list of named
// find/act pairs.
package rule

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/gyaneshwarpardhi/ticketsupervisor/internal/action"
	"github.com/gyaneshwarpardhi/ticketsupervisor/internal/condition"
)

// Rule is one named pair of match clauses and actions.
type Rule struct {
	Name string
	Find []condition.Clause
	Act  []action.Action
}

type rawRule struct {
	Name string          `yaml:"name"`
	Find yaml.Node       `yaml:"find"`
	Act  []action.Action `yaml:"act"`
}

// UnmarshalYAML decodes a rule. find is a list of mappings (one clause each)
// or a single mapping; field order inside a mapping is preserved.
func (r *Rule) UnmarshalYAML(n *yaml.Node) error {
	var raw rawRule
	if err := n.Decode(&raw); err != nil {
		return err
	}
	out := Rule{Name: raw.Name, Act: raw.Act}
	switch raw.Find.Kind {
	case 0:
	case yaml.MappingNode:
		c, err := decodeClause(&raw.Find)
		if err != nil {
			return err
		}
		out.Find = append(out.Find, c)
	case yaml.SequenceNode:
		for _, item := range raw.Find.Content {
			c, err := decodeClause(item)
			if err != nil {
				return err
			}
			out.Find = append(out.Find, c)
		}
	default:
		if raw.Find.Tag != "!!null" {
			return fmt.Errorf("line %d: find must be a list of field/pattern mappings", raw.Find.Line)
		}
	}
	*r = out
	return nil
}

func decodeClause(n *yaml.Node) (condition.Clause, error) {
	if n.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: clause must be a field/pattern mapping", n.Line)
	}
	var c condition.Clause
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, val := n.Content[i], n.Content[i+1]
		if val.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("line %d: pattern for %s must be a scalar", val.Line, key.Value)
		}
		pattern := val.Value
		if val.Tag == "!!null" {
			pattern = ""
		}
		c = append(c, condition.NewTest(key.Value, pattern))
	}
	return c, nil
}

// Load reads and decodes a rule file. It is called at the start of every
// cycle so edits apply without a restart.
func Load(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules %s: %w", path, err)
	}
	rules, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse rules %s: %w", path, err)
	}
	return rules, nil
}

// Parse decodes rule-file bytes.
func Parse(data []byte) ([]Rule, error) {
	var rules []Rule
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, err
	}
	return rules, nil
}

// Validate reports every problem of a rule set: missing or duplicate names,
// empty act lists, patterns that cannot parse and malformed actions.
// Unknown actions are reported too even though execution only skips them.
func Validate(rules []Rule) error {
	seen := map[string]int{}
	var errs []string
	for i, r := range rules {
		loc := fmt.Sprintf("rules[%d]", i)
		if r.Name == "" {
			errs = append(errs, loc+": name is required")
		} else {
			loc = fmt.Sprintf("rule %q", r.Name)
			if prev, ok := seen[r.Name]; ok {
				errs = append(errs, fmt.Sprintf("duplicate name %q (rules[%d] and rules[%d])", r.Name, prev, i))
			} else {
				seen[r.Name] = i
			}
		}
		if len(r.Act) == 0 {
			errs = append(errs, loc+": act must not be empty")
		}
		for _, c := range r.Find {
			for _, t := range c {
				if t.Err() != nil {
					errs = append(errs, fmt.Sprintf("%s: find %s: %v", loc, t.Field, t.Err()))
				}
			}
		}
		for j, a := range r.Act {
			if err := a.Validate(); err != nil {
				errs = append(errs, fmt.Sprintf("%s: act[%d]: %v", loc, j, err))
			}
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("rule validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
