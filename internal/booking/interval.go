package booking

import (
	"math"
	"time"
)

// Overlaps reports whether two half-open intervals [s1, e1) and [s2, e2)
// intersect. A booking ending exactly when another starts does not conflict.
func Overlaps(s1, e1, s2, e2 time.Time) bool {
	return s1.Before(e2) && s2.Before(e1)
}

// ValidInterval reports whether [start, end) is a bookable interval: strictly
// positive length, and not starting in the past beyond the grace tolerance.
func ValidInterval(start, end, now time.Time, grace time.Duration) bool {
	if !end.After(start) {
		return false
	}
	return !start.Before(now.Add(-grace))
}

// TotalPrice computes the booking total from elapsed minutes times the
// per-minute rate, rounded to cents.
func TotalPrice(start, end time.Time, perMinute float64) float64 {
	minutes := end.Sub(start).Minutes()
	return math.Round(minutes*perMinute*100) / 100
}
