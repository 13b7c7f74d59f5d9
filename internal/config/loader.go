package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads the whole configuration. The file is a mapping of sections; a
// one-element list wrapping that mapping is accepted for older files.
func Load(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return f, nil
}

// Parse decodes configuration bytes.
func Parse(data []byte) (File, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	f := File{}
	if len(doc.Content) == 0 {
		return f, nil
	}
	root := doc.Content[0]
	if root.Kind == yaml.SequenceNode {
		if len(root.Content) != 1 {
			return nil, fmt.Errorf("line %d: list form must hold exactly one mapping", root.Line)
		}
		root = root.Content[0]
	}
	if err := root.Decode(&f); err != nil {
		return nil, err
	}
	return f, nil
}

// EffectiveConfig overlays the section named exactly robot onto "global",
// key by key, on top of Defaults. The result is normalized.
func EffectiveConfig(robot string, whole File) (Settings, error) {
	merged := map[string]interface{}{}
	for k, v := range whole[GlobalSection] {
		merged[k] = v
	}
	if robot != GlobalSection {
		for k, v := range whole[robot] {
			merged[k] = v
		}
	}

	s := Defaults()
	data, err := yaml.Marshal(merged)
	if err != nil {
		return Settings{}, fmt.Errorf("config %s: %w", robot, err)
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("config %s: %w", robot, err)
	}
	return s.normalize(), nil
}

// normalize replaces unusable values with defaults.
func (s Settings) normalize() Settings {
	d := Defaults()
	if s.Table == "" {
		s.Table = d.Table
	}
	if s.Limit <= 0 {
		s.Limit = d.Limit
	}
	if s.CommentField == "" {
		s.CommentField = d.CommentField
	}
	if s.DescriptionField == "" {
		s.DescriptionField = d.DescriptionField
	}
	if s.ExtCmdTimeoutSec <= 0 {
		s.ExtCmdTimeoutSec = d.ExtCmdTimeoutSec
	}
	if s.SleepSecBetween < 0 {
		s.SleepSecBetween = d.SleepSecBetween
	}
	if s.MaxRetryConnect < 0 {
		s.MaxRetryConnect = d.MaxRetryConnect
	}
	if s.RetrySleepSec < 0 {
		s.RetrySleepSec = d.RetrySleepSec
	}
	if s.CfgDir == "" {
		s.CfgDir = d.CfgDir
	}
	return s
}
