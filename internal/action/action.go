package action

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/gyaneshwarpardhi/ticketsupervisor/internal/selector"
)

// Kind tags an Action.
type Kind string

const (
	KindNop     Kind = "nop"
	KindUpdate  Kind = "update"
	KindRun     Kind = "run1"
	KindUnknown Kind = "unknown"
)

// kindByTag maps rule-file tags to kinds. "run" is accepted as an alias.
var kindByTag = map[string]Kind{
	"nop":    KindNop,
	"update": KindUpdate,
	"run1":   KindRun,
	"run":    KindRun,
}

// Field is one named action parameter, kept in declaration order.
type Field struct {
	Name  string
	Value selector.Value
}

// Action is one step of a rule's act list.
type Action struct {
	Kind Kind
	// Tag is the name used in the rule file (useful for Unknown).
	Tag    string
	Fields []Field
	// Command is the shell command line of a run action.
	Command string
	// Argv, when set, runs the program directly without a shell.
	Argv []string
}

// UnmarshalYAML decodes "nop" or a single-key mapping such as
// {update: {...}} / {run1: {cmd: ..., ...}}. Unknown tags decode to
// KindUnknown so execution can report and skip them.
func (a *Action) UnmarshalYAML(n *yaml.Node) error {
	var tag string
	var body *yaml.Node
	switch n.Kind {
	case yaml.ScalarNode:
		tag = n.Value
	case yaml.MappingNode:
		if len(n.Content) != 2 {
			return fmt.Errorf("line %d: action must have exactly one key, got %d", n.Line, len(n.Content)/2)
		}
		tag, body = n.Content[0].Value, n.Content[1]
	default:
		return fmt.Errorf("line %d: action must be a name or a mapping", n.Line)
	}

	kind, ok := kindByTag[tag]
	if !ok {
		*a = Action{Kind: KindUnknown, Tag: tag}
		return nil
	}
	out := Action{Kind: kind, Tag: tag}
	if body != nil && body.Kind == yaml.MappingNode {
		for i := 0; i+1 < len(body.Content); i += 2 {
			key, val := body.Content[i].Value, body.Content[i+1]
			if kind == KindRun {
				switch key {
				case "cmd":
					if err := val.Decode(&out.Command); err != nil {
						return fmt.Errorf("line %d: cmd: %w", val.Line, err)
					}
					continue
				case "argv":
					if err := val.Decode(&out.Argv); err != nil {
						return fmt.Errorf("line %d: argv: %w", val.Line, err)
					}
					continue
				}
			}
			var v selector.Value
			if err := val.Decode(&v); err != nil {
				return fmt.Errorf("line %d: %s: %w", val.Line, key, err)
			}
			out.Fields = append(out.Fields, Field{Name: key, Value: v})
		}
	} else if body != nil && body.Tag != "!!null" {
		return fmt.Errorf("line %d: %s parameters must be a mapping", body.Line, tag)
	}
	*a = out
	return nil
}

// Has reports whether the action declares a field named name.
func (a Action) Has(name string) bool {
	for _, f := range a.Fields {
		if f.Name == name {
			return true
		}
	}
	return false
}

// Validate checks an action at load time.
func (a Action) Validate() error {
	switch a.Kind {
	case KindUnknown:
		return fmt.Errorf("unknown action %q", a.Tag)
	case KindRun:
		if a.Command == "" && len(a.Argv) == 0 {
			return fmt.Errorf("%s: one of cmd or argv is required", a.Tag)
		}
		if a.Command != "" && len(a.Argv) > 0 {
			return fmt.Errorf("%s: only one of cmd or argv may be set", a.Tag)
		}
	case KindUpdate:
		if len(a.Fields) == 0 {
			return fmt.Errorf("update: no fields")
		}
	}
	for _, f := range a.Fields {
		if f.Value.IsList() && len(f.Value.List) == 0 {
			return fmt.Errorf("%s.%s: empty candidate list", a.Tag, f.Name)
		}
	}
	return nil
}
