package history

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Retention is a history retention window in calendar units.
// Months and years clamp to the end of the target month: three months
// before 31 May is 28 (or 29) February.
type Retention struct {
	Years  int
	Months int
	Days   int
	Hours  int
}

// DefaultRetention is three calendar months.
var DefaultRetention = Retention{Months: 3}

// ParseRetention converts a string like "24h", "7d", "1w", "3m", "1y" into a Retention.
// Units combine in any order, as in "1y3m" or "1m15d". A plain integer is read as hours.
func ParseRetention(s string) (Retention, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Retention{}, fmt.Errorf("retention period cannot be empty")
	}

	if hours, err := strconv.Atoi(s); err == nil {
		if hours <= 0 {
			return Retention{}, fmt.Errorf("invalid retention period format: %s", s)
		}
		return Retention{Hours: hours}, nil
	}

	var r Retention
	rest := s
	for rest != "" {
		i := 0
		for i < len(rest) && rest[i] >= '0' && rest[i] <= '9' {
			i++
		}
		if i == 0 || i == len(rest) {
			return Retention{}, fmt.Errorf("invalid retention period format: %s", s)
		}
		number, err := strconv.Atoi(rest[:i])
		if err != nil || number <= 0 {
			return Retention{}, fmt.Errorf("invalid retention period format: %s", s)
		}

		switch rest[i] {
		case 'h':
			r.Hours += number
		case 'd':
			r.Days += number
		case 'w':
			r.Days += number * 7
		case 'm':
			r.Months += number
		case 'y':
			r.Years += number
		default:
			return Retention{}, fmt.Errorf("invalid suffix for retention period: %c", rest[i])
		}
		rest = rest[i+1:]
	}
	return r, nil
}

// Cutoff returns now minus the window. Records detected strictly before the
// cutoff are expired.
func (r Retention) Cutoff(now time.Time) time.Time {
	t := addMonthsClamped(now, -(r.Years*12 + r.Months))
	return t.AddDate(0, 0, -r.Days).Add(-time.Duration(r.Hours) * time.Hour)
}

func addMonthsClamped(t time.Time, months int) time.Time {
	if months == 0 {
		return t
	}
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(months), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	if last := daysIn(first); d > last {
		d = last
	}
	return first.AddDate(0, 0, d-1)
}

func daysIn(t time.Time) int {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, t.Location()).Day()
}

// IsZero reports whether the window is empty.
func (r Retention) IsZero() bool {
	return r == Retention{}
}

// String formats the window in the notation ParseRetention accepts.
func (r Retention) String() string {
	var parts []string
	if r.Years != 0 {
		parts = append(parts, fmt.Sprintf("%dy", r.Years))
	}
	if r.Months != 0 {
		parts = append(parts, fmt.Sprintf("%dm", r.Months))
	}
	if r.Days != 0 {
		parts = append(parts, fmt.Sprintf("%dd", r.Days))
	}
	if r.Hours != 0 {
		parts = append(parts, fmt.Sprintf("%dh", r.Hours))
	}
	if len(parts) == 0 {
		return "0h"
	}
	return strings.Join(parts, "")
}
