package condition

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"time"
)

var durationRE = regexp.MustCompile(`^(?:(\d+)d)?(?:(\d+)h)?(?:(\d+)m)?(?:(\d+)s)?$`)

// ParseDuration parses the window grammar: an optional number of days,
// hours, minutes and seconds in that order ("2d8h5m20s", "12h30m", "90s").
// At least one part is required.
func ParseDuration(s string) (time.Duration, error) {
	m := durationRE.FindStringSubmatch(s)
	if s == "" || m == nil {
		return 0, fmt.Errorf("invalid duration %q (examples: 8h, 2d8h5m20s, 2m4s)", s)
	}
	units := []time.Duration{24 * time.Hour, time.Hour, time.Minute, time.Second}
	var d time.Duration
	for i, unit := range units {
		if m[i+1] == "" {
			continue
		}
		n, err := strconv.ParseInt(m[i+1], 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q: %w", s, err)
		}
		if n > math.MaxInt64/int64(unit) || time.Duration(n)*unit > math.MaxInt64-d {
			return 0, fmt.Errorf("invalid duration %q: out of range", s)
		}
		d += time.Duration(n) * unit
	}
	return d, nil
}
