package ticket

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Well-known ServiceNow field names.
const (
	FieldNumber = "number"
	FieldSysID  = "sys_id"
)

// Ticket is one record of the ticketing backend: a field name to value map.
// It is owned by the backend; changes only happen through Source.Update.
type Ticket map[string]interface{}

// Number returns the human-facing identifier (e.g. INC0012345).
func (t Ticket) Number() string {
	s, _ := t.Field(FieldNumber)
	return s
}

// SysID returns the backend row identifier used for updates.
func (t Ticket) SysID() string {
	s, _ := t.Field(FieldSysID)
	return s
}

// Field renders the named field as a string. A missing field is an error so
// callers can treat it as a local failure.
func (t Ticket) Field(name string) (string, error) {
	v, ok := t[name]
	if !ok {
		return "", fmt.Errorf("ticket %v: field %q not found", t[FieldNumber], name)
	}
	return Stringify(v), nil
}

// Strings returns every field rendered as a string.
func (t Ticket) Strings() map[string]string {
	out := make(map[string]string, len(t))
	for k, v := range t {
		out[k] = Stringify(v)
	}
	return out
}

// Names returns the sorted field names.
func (t Ticket) Names() []string {
	names := make([]string, 0, len(t))
	for k := range t {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Snapshot encodes the full field set as indented JSON.
func (t Ticket) Snapshot() ([]byte, error) {
	return json.MarshalIndent(t, "", "  ")
}

// Stringify renders a field value. Reference fields arrive as objects with a
// "value" (and possibly "link"/"display_value") key; the value is used.
func Stringify(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case map[string]interface{}:
		if inner, ok := x["value"]; ok {
			return Stringify(inner)
		}
		if inner, ok := x["display_value"]; ok {
			return Stringify(inner)
		}
	}
	return fmt.Sprintf("%v", v)
}
