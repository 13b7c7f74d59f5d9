package logging

import (
	"bytes"
	"fmt"

	"github.com/sirupsen/logrus"
)

// CodeFormatter renders "<prefix><code><sev> <dd-HHMMSS> <message>".
type CodeFormatter struct {
	Prefix string
}

// Severity returns the one-letter severity used in message codes.
func Severity(l logrus.Level) string {
	switch l {
	case logrus.PanicLevel, logrus.FatalLevel:
		return "F"
	case logrus.ErrorLevel:
		return "E"
	case logrus.WarnLevel:
		return "W"
	case logrus.DebugLevel, logrus.TraceLevel:
		return "D"
	default:
		return "I"
	}
}

func (f *CodeFormatter) Format(e *logrus.Entry) ([]byte, error) {
	prefix := f.Prefix
	if p, ok := e.Data[FieldPrefix].(string); ok {
		prefix = p
	}
	code, ok := e.Data[FieldCode].(string)
	if !ok || code == "" {
		code = "000"
	}
	var b bytes.Buffer
	fmt.Fprintf(&b, "%s%s%s %s %s\n", prefix, code, Severity(e.Level), e.Time.Format("02-150405"), e.Message)
	return b.Bytes(), nil
}
