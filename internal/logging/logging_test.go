package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodeFormatter(t *testing.T) {
	ts := time.Date(2024, 3, 7, 9, 5, 1, 0, time.Local)
	tests := []struct {
		name  string
		level logrus.Level
		data  logrus.Fields
		want  string
	}{
		{"info", logrus.InfoLevel, logrus.Fields{FieldCode: "202"}, "PVE202I 07-090501 hello\n"},
		{"warn with prefix", logrus.WarnLevel, logrus.Fields{FieldCode: "391", FieldPrefix: "XY"}, "XY391W 07-090501 hello\n"},
		{"error", logrus.ErrorLevel, logrus.Fields{FieldCode: "192"}, "PVE192E 07-090501 hello\n"},
		{"debug", logrus.DebugLevel, logrus.Fields{FieldCode: "382"}, "PVE382D 07-090501 hello\n"},
		{"no code", logrus.InfoLevel, nil, "PVE000I 07-090501 hello\n"},
	}
	f := &CodeFormatter{Prefix: "PVE"}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			e := &logrus.Entry{Time: ts, Level: tc.level, Message: "hello", Data: tc.data}
			out, err := f.Format(e)
			require.NoError(t, err)
			assert.Equal(t, tc.want, string(out))
		})
	}
}

func TestActionFileHook(t *testing.T) {
	dir := t.TempDir()
	l := logrus.New()
	l.SetOutput(&bytes.Buffer{})
	hook := NewActionFileHook("PVE")
	l.AddHook(hook)
	hook.Route("r1", dir)

	l.WithFields(logrus.Fields{FieldRobot: "r1", FieldCode: "402"}).Info("#INC1 -> update")
	l.WithFields(logrus.Fields{FieldRobot: "r1", FieldCode: "202"}).Info("#INC1 -> matched")
	l.WithFields(logrus.Fields{FieldRobot: "r2", FieldCode: "402"}).Info("not routed")
	l.WithField(FieldRobot, "r1").Info("uncoded")

	name := filepath.Join(dir, "actions-r1-"+time.Now().Format("20060102")+".log")
	data, err := os.ReadFile(name)
	require.NoError(t, err)
	lines := bytes.Split(bytes.TrimSpace(data), []byte("\n"))
	require.Len(t, lines, 2)
	assert.Contains(t, string(lines[0]), "PVE402I")
	assert.Contains(t, string(lines[1]), "#INC1 -> matched")

	matches, _ := filepath.Glob(filepath.Join(dir, "actions-r2-*"))
	assert.Empty(t, matches)
}

func TestInit_LevelAndFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "sup.log")
	l := logrus.New()
	require.NoError(t, Init(l, Options{Level: "debug", Output: "file", FilePath: path, Prefix: "AB"}))
	assert.Equal(t, logrus.DebugLevel, l.GetLevel())

	l.WithField(FieldCode, "008").Info("start")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "AB008I ")
}

func TestInit_BadLevel(t *testing.T) {
	l := logrus.New()
	l.SetOutput(&bytes.Buffer{})
	require.NoError(t, Init(l, Options{Level: "loud"}))
	assert.Equal(t, logrus.InfoLevel, l.GetLevel())
}
