package timetable

import (
	"errors"
	"fmt"
)

type ErrorKind string

// Error kinds
const (
	KindInvalidTimeFormat  ErrorKind = "InvalidTimeFormat"
	KindInvalidTimeRange   ErrorKind = "InvalidTimeRange"
	KindScheduleConflict   ErrorKind = "ScheduleConflict"
	KindLunchBreakConflict ErrorKind = "LunchBreakConflict"
	KindNotFound           ErrorKind = "NotFound"
	KindForbidden          ErrorKind = "Forbidden"
	KindNoChanges          ErrorKind = "NoChangesProvided"
)

var (
	// errors
	ErrInvalidTimeFormat  = &Error{Kind: KindInvalidTimeFormat}
	ErrInvalidTimeRange   = &Error{Kind: KindInvalidTimeRange}
	ErrScheduleConflict   = &Error{Kind: KindScheduleConflict}
	ErrLunchBreakConflict = &Error{Kind: KindLunchBreakConflict}
	ErrNotFound           = &Error{Kind: KindNotFound}
	ErrForbidden          = &Error{Kind: KindForbidden}
	ErrNoChanges          = &Error{Kind: KindNoChanges}

	ErrStaleVersion    = errors.New("timetable was modified concurrently")
	ErrTeacherNotFound = errors.New("teacher not found")

	defaultMessages = map[ErrorKind]string{
		KindInvalidTimeFormat:  "Invalid time format: expected HH:MM.",
		KindInvalidTimeRange:   "Invalid time range: start time must be before end time.",
		KindScheduleConflict:   "Time conflict with an existing class.",
		KindLunchBreakConflict: "Time conflict with a lunch break.",
		KindNotFound:           "Timetable entry not found.",
		KindForbidden:          "You can only modify your own timetable entries.",
		KindNoChanges:          "No changes provided.",
	}
)

// Error is a scheduling rejection. Errors match by Kind with errors.Is.
type Error struct {
	Kind   ErrorKind
	Detail string
	Day    string

	// LunchBreak is the lunch window involved in a LunchBreakConflict.
	LunchBreak *Window
	// Conflicting is the stored entry the candidate collides with.
	Conflicting *Entry
	// TeacherName is the display name of Conflicting's owner.
	TeacherName string
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindScheduleConflict:
		if c := e.Conflicting; c != nil {
			name := e.TeacherName
			if name == "" {
				name = "Another teacher"
			}
			return fmt.Sprintf("Time conflict: %s already has class on %s from %s to %s.", name, c.Day, c.StartTime, c.EndTime)
		}
	case KindLunchBreakConflict:
		if c, lb := e.Conflicting, e.LunchBreak; c != nil && lb != nil {
			return fmt.Sprintf("Lunch break overlaps with %s on %s (%s-%s).", c.Subject, c.Day, c.StartTime, c.EndTime)
		} else if lb != nil {
			return fmt.Sprintf("Time conflict: Lunch break is set on %s from %s to %s.", e.Day, lb.Start, lb.End)
		}
	}
	if e.Detail != "" {
		return e.Detail
	}
	return defaultMessages[e.Kind]
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// KindOf returns the ErrorKind carried by err, if any.
func KindOf(err error) (ErrorKind, bool) {
	var terr *Error
	if errors.As(err, &terr) {
		return terr.Kind, true
	}
	return "", false
}
