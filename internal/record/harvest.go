package record

import (
	"math"
	"regexp"
	"strconv"
	"time"
)

var digitsRegex = regexp.MustCompile(`\d+`)

// ParseEstimateDays extracts the first run of digits from a harvest estimate
// such as "±30 hari". ok is false when the text holds no number.
func ParseEstimateDays(estimate string) (days int, ok bool) {
	m := digitsRegex.FindString(estimate)
	if m == "" {
		return 0, false
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0, false
	}
	return n, true
}

// HarvestDate returns detectedAt plus the given number of calendar days.
func HarvestDate(detectedAt time.Time, days int) time.Time {
	return detectedAt.AddDate(0, 0, days)
}

// DaysRemaining returns whole days from now until harvest, rounded up and
// never negative. It prefers HarvestDate and falls back to the estimate text.
// ok is false when neither is usable.
func DaysRemaining(g *GrowthInfo, now time.Time) (days int, ok bool) {
	if g == nil {
		return 0, false
	}
	if g.HarvestDate != nil {
		diff := g.HarvestDate.Sub(now)
		if diff <= 0 {
			return 0, true
		}
		return int(math.Ceil(diff.Hours() / 24)), true
	}
	return ParseEstimateDays(g.HarvestEstimate)
}
