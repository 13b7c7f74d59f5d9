// Package logging configures logrus for the supervisor: message-code text
// lines, optional JSON, rotation through lumberjack and the daily per-robot
// action files.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Entry fields understood by the formatter and the action file hook.
const (
	FieldCode   = "code"
	FieldPrefix = "prefix"
	FieldRobot  = "robot"
	FieldCycle  = "cycle"
)

// Options selects level, format and output of the process log.
type Options struct {
	Level  string
	Format string // code | text | json
	Output string // stdout | file | both
	// FilePath is the rotating log file used by the file and both outputs.
	FilePath   string
	MaxSize    int
	MaxBackups int
	MaxAge     int
	Compress   bool
	// Prefix is the message prefix used when an entry carries none.
	Prefix string
}

// Init applies o to l.
func Init(l *logrus.Logger, o Options) error {
	level, err := logrus.ParseLevel(o.Level)
	if err != nil {
		l.Warnf("Invalid log level '%s', using 'info'", o.Level)
		level = logrus.InfoLevel
	}
	l.SetLevel(level)

	switch strings.ToLower(o.Format) {
	case "json":
		l.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05",
		})
	case "text":
		l.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	default:
		l.SetFormatter(&CodeFormatter{Prefix: o.Prefix})
	}

	switch strings.ToLower(o.Output) {
	case "file", "both":
		if o.FilePath == "" {
			o.FilePath = "supervisor.log"
		}
		if err := os.MkdirAll(filepath.Dir(o.FilePath), 0755); err != nil {
			return err
		}
		rotate := &lumberjack.Logger{
			Filename:   o.FilePath,
			MaxSize:    o.MaxSize,
			MaxBackups: o.MaxBackups,
			MaxAge:     o.MaxAge,
			Compress:   o.Compress,
			LocalTime:  true,
		}
		if strings.EqualFold(o.Output, "both") {
			l.SetOutput(io.MultiWriter(os.Stdout, rotate))
		} else {
			l.SetOutput(rotate)
		}
	default:
		l.SetOutput(os.Stdout)
	}
	return nil
}
