package selector

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/gyaneshwarpardhi/ticketsupervisor/internal/ticket"
)

// Value is an action parameter: either one scalar or a list of candidates
// to choose from.
type Value struct {
	Scalar string
	List   []string
}

// Scalar wraps a single string.
func Scalar(s string) Value { return Value{Scalar: s} }

// List wraps a candidate list.
func List(items ...string) Value { return Value{List: items} }

// IsList reports whether v holds candidates.
func (v Value) IsList() bool { return v.List != nil }

func (v Value) String() string {
	if v.IsList() {
		return fmt.Sprintf("%q", v.List)
	}
	return v.Scalar
}

// UnmarshalYAML accepts a scalar or a sequence of scalars.
func (v *Value) UnmarshalYAML(n *yaml.Node) error {
	switch n.Kind {
	case yaml.ScalarNode:
		if n.Tag == "!!null" {
			*v = Value{}
			return nil
		}
		*v = Value{Scalar: n.Value}
		return nil
	case yaml.SequenceNode:
		items := make([]string, 0, len(n.Content))
		for _, c := range n.Content {
			var raw interface{}
			if err := c.Decode(&raw); err != nil {
				return err
			}
			items = append(items, ticket.Stringify(raw))
		}
		*v = Value{List: items}
		return nil
	default:
		return fmt.Errorf("line %d: value must be a scalar or a list", n.Line)
	}
}
