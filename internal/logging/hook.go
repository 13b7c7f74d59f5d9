package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"
)

// ActionFileHook copies coded entries of a robot to
// <dir>/actions-<robot>-YYYYMMDD.log. The file is opened and closed for
// every message so external rotation and cleanup need no signalling.
type ActionFileHook struct {
	mu        sync.RWMutex
	dirs      map[string]string
	formatter logrus.Formatter
}

// NewActionFileHook returns a hook with no robots routed.
func NewActionFileHook(prefix string) *ActionFileHook {
	return &ActionFileHook{
		dirs:      make(map[string]string),
		formatter: &CodeFormatter{Prefix: prefix},
	}
}

// Route sets the action log directory of robot; "" disables it.
func (h *ActionFileHook) Route(robot, dir string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if dir == "" {
		delete(h.dirs, robot)
		return
	}
	h.dirs[robot] = dir
}

// ActionFile returns the daily file path for robot in dir.
func ActionFile(dir, robot string, e *logrus.Entry) string {
	return filepath.Join(dir, fmt.Sprintf("actions-%s-%s.log", robot, e.Time.Format("20060102")))
}

func (h *ActionFileHook) Levels() []logrus.Level { return logrus.AllLevels }

func (h *ActionFileHook) Fire(e *logrus.Entry) error {
	robot, _ := e.Data[FieldRobot].(string)
	if _, coded := e.Data[FieldCode]; !coded || robot == "" {
		return nil
	}
	h.mu.RLock()
	dir, ok := h.dirs[robot]
	h.mu.RUnlock()
	if !ok {
		return nil
	}
	line, err := h.formatter.Format(e)
	if err != nil {
		return err
	}
	f, err := os.OpenFile(ActionFile(dir, robot, e), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	_, werr := f.Write(line)
	if cerr := f.Close(); werr == nil {
		werr = cerr
	}
	return werr
}
