package ui

import (
	"fmt"
	"math"
	"strings"
	"time"
)

var metricUnits = []string{"B", "KB", "MB", "GB", "TB", "PB", "EB", "ZB", "YB"}

// MetricBytes formats a byte count with 1000-based units and one decimal,
// e.g. "1.5 MB".
func MetricBytes(value float64) string {
	index := 0
	for ; index < len(metricUnits)-1 && value > 1000; index++ {
		value /= 1000
	}
	return fmt.Sprintf("%.1f %s", value, metricUnits[index])
}

const (
	minutesInDay   = 1440
	minutesInMonth = 43200
)

// FormatDistance describes a duration in words, the way a person would
// ("half a minute", "about 3 hours", "almost 2 years").
func FormatDistance(d time.Duration) string {
	if d < 0 {
		d = -d
	}
	seconds := d.Seconds()
	minutes := int(math.Round(seconds / 60))

	switch {
	case minutes < 2:
		switch {
		case seconds < 5:
			return "less than 5 seconds"
		case seconds < 10:
			return "less than 10 seconds"
		case seconds < 20:
			return "less than 20 seconds"
		case seconds < 40:
			return "half a minute"
		case seconds < 60:
			return "less than a minute"
		default:
			return "1 minute"
		}
	case minutes < 45:
		return fmt.Sprintf("%d minutes", minutes)
	case minutes < 90:
		return "about 1 hour"
	case minutes < minutesInDay:
		return plural("about %d hour", int(math.Round(float64(minutes)/60)))
	case minutes < 2520:
		return "1 day"
	case minutes < minutesInMonth:
		return plural("%d day", int(math.Round(float64(minutes)/minutesInDay)))
	case minutes < 2*minutesInMonth:
		return plural("about %d month", int(math.Round(float64(minutes)/minutesInMonth)))
	}

	months := minutes / minutesInMonth
	if months < 12 {
		return plural("%d month", months)
	}

	years := months / 12
	switch rest := months % 12; {
	case rest < 3:
		return plural("about %d year", years)
	case rest < 9:
		return plural("over %d year", years)
	default:
		return plural("almost %d year", years+1)
	}
}

func plural(format string, n int) string {
	s := fmt.Sprintf(format, n)
	if n != 1 {
		s += "s"
	}
	return s
}

// Remaining renders the ETA column of the status line. A zero or unknown
// estimate (no download rate yet) reads as "Infinity years remaining.".
func Remaining(done bool, eta time.Duration, known bool) string {
	if done {
		return "Done."
	}
	if !known {
		return "Infinity years remaining."
	}
	return capitalize(FormatDistance(eta)) + " remaining."
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
