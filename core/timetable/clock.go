package timetable

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Days of the weekly template. There is no Sunday.
var Days = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

var hhmmRegex = regexp.MustCompile(`^([01]\d|2[0-3]):([0-5]\d)$`)

// NormalizeDay returns the canonical day name for `s` (case-insensitive).
func NormalizeDay(s string) (string, bool) {
	s = strings.TrimSpace(s)
	for _, day := range Days {
		if strings.EqualFold(s, day) {
			return day, true
		}
	}
	return s, false
}

// ParseTime parses a strict 24h "HH:MM" string into minutes since midnight.
func ParseTime(s string) (int, error) {
	m := hhmmRegex.FindStringSubmatch(s)
	if m == nil {
		return 0, &Error{Kind: KindInvalidTimeFormat, Detail: fmt.Sprintf("invalid time %q: expected HH:MM", s)}
	}
	hours, _ := strconv.Atoi(m[1])
	mins, _ := strconv.Atoi(m[2])
	return hours*60 + mins, nil
}

// FormatTime is the inverse of ParseTime.
func FormatTime(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// Overlaps reports whether [startA, endA) and [startB, endB) intersect.
// Touching intervals do not overlap, and any malformed bound yields false.
func Overlaps(startA, endA, startB, endB string) bool {
	aS, err := ParseTime(startA)
	if err != nil {
		return false
	}
	aE, err := ParseTime(endA)
	if err != nil {
		return false
	}
	bS, err := ParseTime(startB)
	if err != nil {
		return false
	}
	bE, err := ParseTime(endB)
	if err != nil {
		return false
	}
	return aS < bE && bS < aE
}
