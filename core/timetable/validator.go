package timetable

import "fmt"

// Validate decides whether `candidate` may be stored alongside `existing` given the owner's lunch settings.
// Checks run in order: time range, lecture overlap on the shared day grid, then the owner's lunch window.
// Stored lunch-break rows and the candidate's own id never take part in the overlap scan.
func Validate(candidate Entry, existing []Entry, lunch LunchConfig) error {
	day, ok := NormalizeDay(candidate.Day)
	if !ok {
		return &Error{Kind: KindInvalidTimeRange, Detail: fmt.Sprintf("Invalid day %q: expected Monday to Saturday.", candidate.Day)}
	}
	start, err := ParseTime(candidate.StartTime)
	if err != nil {
		return &Error{Kind: KindInvalidTimeRange, Day: day, Detail: "Invalid time range: " + err.Error()}
	}
	end, err := ParseTime(candidate.EndTime)
	if err != nil {
		return &Error{Kind: KindInvalidTimeRange, Day: day, Detail: "Invalid time range: " + err.Error()}
	}
	if start >= end {
		return &Error{Kind: KindInvalidTimeRange, Day: day}
	}

	for i := range existing {
		e := existing[i]
		if e.IsLunchBreak || (candidate.ID != "" && e.ID == candidate.ID) {
			continue
		}
		if d, _ := NormalizeDay(e.Day); d != day {
			continue
		}
		if Overlaps(candidate.StartTime, candidate.EndTime, e.StartTime, e.EndTime) {
			return &Error{Kind: KindScheduleConflict, Day: day, Conflicting: &e}
		}
	}

	if candidate.IsLunchBreak {
		return nil
	}
	if w, ok := lunch.WindowFor(day); ok && Overlaps(candidate.StartTime, candidate.EndTime, w.Start, w.End) {
		return &Error{Kind: KindLunchBreakConflict, Day: day, LunchBreak: &w}
	}
	return nil
}
