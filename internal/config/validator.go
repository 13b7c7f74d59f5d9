package config

import (
	"fmt"
	"strings"
)

// Validate checks a robot's effective settings for values the poll loop
// cannot work with.
func Validate(robot string, s Settings) error {
	var errs []string
	if robot == "" {
		errs = append(errs, "robot name is required")
	}
	if robot == GlobalSection {
		errs = append(errs, fmt.Sprintf("%q is reserved and cannot name a robot", GlobalSection))
	}
	if s.Instance == "" {
		errs = append(errs, "snc (instance) is required")
	}
	if strings.ContainsAny(s.Table, "/?#") {
		errs = append(errs, fmt.Sprintf("snc_table %q is not a table name", s.Table))
	}
	for _, st := range s.StateIgnore {
		if st == "" {
			errs = append(errs, "snc_state_ignore has an empty state")
		}
	}
	if strings.ContainsAny(s.AssignGroup, "^") {
		errs = append(errs, "snc_assign_group must not contain '^'")
	}
	if len(errs) > 0 {
		return fmt.Errorf("config %s validation errors:\n  - %s", robot, strings.Join(errs, "\n  - "))
	}
	return nil
}
