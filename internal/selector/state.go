package selector

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// StateFile returns the round-robin state path of a robot.
func StateFile(dir, robot string) string {
	if dir == "" {
		dir = "."
	}
	return filepath.Join(dir, robot+"-rr.yaml")
}

// loadState reads key -> last index. A missing file is an empty state; a
// corrupt one is reported so the caller can log it and start over.
func loadState(path string) (map[string]int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]int{}, nil
		}
		return map[string]int{}, fmt.Errorf("read state %s: %w", path, err)
	}
	state := map[string]int{}
	if err := yaml.Unmarshal(data, &state); err != nil {
		return map[string]int{}, fmt.Errorf("parse state %s: %w", path, err)
	}
	if state == nil {
		state = map[string]int{}
	}
	return state, nil
}

func saveState(path string, state map[string]int) error {
	data, err := yaml.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write state %s: %w", path, err)
	}
	return os.Rename(tmp, path)
}
