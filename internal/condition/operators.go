package condition

import (
	"strings"
	"time"
)

var lineBreaks = strings.NewReplacer("\n", " ", "\r", "")

// normalize prepares an operand for comparison: line feeds become blanks,
// carriage returns are dropped and, if fold is set, the text is lowercased.
func normalize(s string, fold bool) string {
	s = lineBreaks.Replace(s)
	if fold {
		s = strings.ToLower(s)
	}
	return s
}

// inWindow reports whether ts lies within [lo, hi], both ends inclusive.
func inWindow(ts, lo, hi time.Time) bool {
	return !ts.Before(lo) && !ts.After(hi)
}

func parseTimestamp(s string) (time.Time, error) {
	return time.ParseInLocation(TimeLayout, strings.TrimSpace(normalize(s, false)), time.Local)
}

// bounds resolves a window against its concrete base time.
func (w *Window) bounds(base time.Time) (time.Time, time.Time) {
	if w.Before {
		return base.Add(-w.Duration), base
	}
	return base, base.Add(w.Duration)
}
