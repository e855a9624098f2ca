package pricing

import (
	"regexp"
	"strconv"
)

var (
	daysRe    = regexp.MustCompile(`(\d+)\s*d`)
	hoursRe   = regexp.MustCompile(`(\d+)\s*h`)
	minutesRe = regexp.MustCompile(`(\d+)\s*m`)
	secondsRe = regexp.MustCompile(`(\d+)\s*s`)
)

// ParsePrintTime converts a slicer estimate like "2d 3h 45m 30s" into hours.
// Any subset of components may appear; components that are missing or do not
// parse count as zero. The slicer sometimes emits partial estimates, so a
// string with no recognizable components yields 0 rather than an error.
func ParsePrintTime(s string) float64 {
	var hours float64
	if m := daysRe.FindStringSubmatch(s); m != nil {
		if v, err := strconv.Atoi(m[1]); err == nil {
			hours += float64(v) * 24
		}
	}
	if m := hoursRe.FindStringSubmatch(s); m != nil {
		if v, err := strconv.Atoi(m[1]); err == nil {
			hours += float64(v)
		}
	}
	if m := minutesRe.FindStringSubmatch(s); m != nil {
		if v, err := strconv.Atoi(m[1]); err == nil {
			hours += float64(v) / 60
		}
	}
	if m := secondsRe.FindStringSubmatch(s); m != nil {
		if v, err := strconv.Atoi(m[1]); err == nil {
			hours += float64(v) / 3600
		}
	}
	return hours
}
