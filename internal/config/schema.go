package config

import (
	"fmt"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// GlobalSection is the section every robot inherits from.
const GlobalSection = "global"

// File is the whole configuration: named sections of loosely typed keys.
// "global" applies to every robot; a section named after a robot overrides it.
type File map[string]map[string]interface{}

// Settings is the effective configuration of one robot.
type Settings struct {
	Instance string `yaml:"snc"`
	User     string `yaml:"user"`
	Password string `yaml:"pwd"`
	Proxy    string `yaml:"proxy"`

	Table            string     `yaml:"snc_table"`
	StateIgnore      StringList `yaml:"snc_state_ignore"`
	AssignGroup      string     `yaml:"snc_assign_group"`
	Limit            int        `yaml:"snc_limit"`
	CommentField     string     `yaml:"comment_field"`
	DescriptionField string     `yaml:"description_field"`

	FirstMatchOnly bool `yaml:"first_match_only"`
	IgnoreCase     bool `yaml:"ignore_case"`
	RoundRobin     bool `yaml:"value_round_robin"`

	ExtCmdTimeoutSec int `yaml:"ext_cmd_timeout"`
	SleepSecBetween  int `yaml:"sleep_sec_between"`
	MaxRetryConnect  int `yaml:"max_retry_connect"`
	RetrySleepSec    int `yaml:"retry_sleep_sec"`

	MsgPrefix string `yaml:"msg_prefix"`
	CfgDir    string `yaml:"cfg_dir"`
	LogDir    string `yaml:"log_dir"`
	StateDir  string `yaml:"state_dir"`
	RuleFile  string `yaml:"rule_file"`
}

// Defaults returns the settings used for keys no section sets.
func Defaults() Settings {
	return Settings{
		Table:            "incident",
		StateIgnore:      StringList{"6"},
		Limit:            333,
		CommentField:     "comments",
		DescriptionField: "short_description",
		ExtCmdTimeoutSec: 30,
		SleepSecBetween:  20,
		MaxRetryConnect:  15,
		RetrySleepSec:    30,
		MsgPrefix:        "PVE",
		CfgDir:           ".",
	}
}

// ExtCmdTimeout is the limit for external commands.
func (s Settings) ExtCmdTimeout() time.Duration {
	return time.Duration(s.ExtCmdTimeoutSec) * time.Second
}

// SleepBetween is the pause between cycles.
func (s Settings) SleepBetween() time.Duration {
	return time.Duration(s.SleepSecBetween) * time.Second
}

// RetrySleep is the fixed backoff after a connection failure.
func (s Settings) RetrySleep() time.Duration {
	return time.Duration(s.RetrySleepSec) * time.Second
}

// RulePath is the robot's rule file; relative names resolve against CfgDir.
func (s Settings) RulePath(robot string) string {
	name := s.RuleFile
	if name == "" {
		name = robot + ".yaml"
	}
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(s.CfgDir, name)
}

// StatePath is the directory holding round-robin state.
func (s Settings) StatePath() string {
	if s.StateDir != "" {
		return s.StateDir
	}
	return s.CfgDir
}

// StringList accepts either a scalar or a sequence.
type StringList []string

func (l *StringList) UnmarshalYAML(n *yaml.Node) error {
	switch n.Kind {
	case yaml.ScalarNode:
		if n.Tag == "!!null" || n.Value == "" {
			*l = StringList{}
			return nil
		}
		*l = StringList{n.Value}
		return nil
	case yaml.SequenceNode:
		out := make(StringList, 0, len(n.Content))
		for _, c := range n.Content {
			if c.Kind != yaml.ScalarNode {
				return fmt.Errorf("line %d: list items must be scalars", c.Line)
			}
			out = append(out, c.Value)
		}
		*l = out
		return nil
	default:
		return fmt.Errorf("line %d: expected a scalar or a list", n.Line)
	}
}
