package model

import (
	"time"
)

const DateLayout = "2006-01-02"

// ValidDate reports whether s is a well-formed YYYY-MM-DD date. Dates are
// kept as ISO strings end to end: lexicographic order matches chronological
// order, so range comparisons work the same in Go and in Mongo filters.
func ValidDate(s string) bool {
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

// DateRangeValid reports whether start <= end (inclusive range).
func DateRangeValid(start, end string) bool {
	return ValidDate(start) && ValidDate(end) && start <= end
}

// DatesOverlap reports whether the two inclusive ranges share at least one
// day: start1 <= end2 && start2 <= end1.
func DatesOverlap(start1, end1, start2, end2 string) bool {
	return start1 <= end2 && start2 <= end1
}
