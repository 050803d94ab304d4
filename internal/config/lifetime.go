package config

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Lifetime is a token or window duration read from the environment. It
// accepts Go duration syntax ("15m", "1h30m"), a whole number of days ("7d")
// or a bare number of seconds ("900").
type Lifetime time.Duration

func (l *Lifetime) UnmarshalText(text []byte) error {
	d, err := ParseLifetime(string(text))
	if err != nil {
		return err
	}
	*l = Lifetime(d)
	return nil
}

func (l Lifetime) Duration() time.Duration {
	return time.Duration(l)
}

func (l Lifetime) String() string {
	return time.Duration(l).String()
}

// ParseLifetime parses the formats described on [Lifetime].
func ParseLifetime(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("config: empty duration")
	}

	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return scale(s, n, time.Second)
	}

	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.ParseInt(days, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("config: invalid duration %q", s)
		}
		return scale(s, n, 24*time.Hour)
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("config: invalid duration %q", s)
	}
	return d, nil
}

func scale(s string, n int64, unit time.Duration) (time.Duration, error) {
	if n > math.MaxInt64/int64(unit) || n < math.MinInt64/int64(unit) {
		return 0, fmt.Errorf("config: duration %q out of range", s)
	}
	return time.Duration(n) * unit, nil
}
