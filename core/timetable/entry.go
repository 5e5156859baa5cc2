package timetable

import (
	"errors"
	"fmt"
	"time"

	"github.com/trezcool/ratiba/core"
)

const LunchBreakSubject = "Lunch Break"

var errSubjectRequired = errors.New("this field is required")

// Entry is one weekly recurring slot of the shared timetable.
type Entry struct {
	ID           string     `json:"id" bson:"id"`
	Subject      string     `json:"subject" bson:"subject"`
	Day          string     `json:"day" bson:"day"`
	StartTime    string     `json:"start_time" bson:"start_time"`
	EndTime      string     `json:"end_time" bson:"end_time"`
	TeacherID    string     `json:"teacher_id" bson:"teacher_id"`
	IsLunchBreak bool       `json:"is_lunch_break" bson:"is_lunch_break"`
	IsCancelled  bool       `json:"is_cancelled" bson:"is_cancelled"`
	CancelledAt  *time.Time `json:"cancelled_at,omitempty" bson:"cancelled_at,omitempty"` // UTC
	CancelReason string     `json:"cancel_reason,omitempty" bson:"cancel_reason,omitempty"`
	CreatedAt    time.Time  `json:"created_at" bson:"created_at"` // UTC
}

// EntryView is an Entry as rendered to a caller.
type EntryView struct {
	Entry
	TeacherName string `json:"teacher_name,omitempty"`
	IsVirtual   bool   `json:"is_virtual,omitempty"`
}

// Teacher is what the timetable needs to know about an entry owner.
type Teacher struct {
	ID       string
	Name     string
	Username string
	Lunch    LunchConfig
}

func (t Teacher) DisplayName() string {
	switch {
	case t.Name != "":
		return t.Name
	case t.Username != "":
		return t.Username
	default:
		return t.ID
	}
}

// VirtualLunchID is the id of the read-only lunch entry of a teacher on a day.
func VirtualLunchID(teacherID, day string) string {
	return fmt.Sprintf("lunch-%s-%s", teacherID, day)
}

// NewEntry contains information needed to create a new Entry.
type NewEntry struct {
	Subject      string `json:"subject" validate:"max=120"`
	Day          string `json:"day" validate:"required"`
	StartTime    string `json:"start_time" validate:"required"`
	EndTime      string `json:"end_time" validate:"required"`
	IsLunchBreak bool   `json:"is_lunch_break"`
}

func (ne *NewEntry) clean() {
	ne.Subject = core.CleanString(ne.Subject)
	ne.Day, _ = NormalizeDay(ne.Day)
	ne.StartTime = core.CleanString(ne.StartTime)
	ne.EndTime = core.CleanString(ne.EndTime)
	if ne.IsLunchBreak {
		ne.Subject = LunchBreakSubject
	}
}

// EntryPatch defines what information may be provided to modify an existing Entry. Nil fields are left untouched.
type EntryPatch struct {
	Subject      *string `json:"subject" validate:"omitempty,max=120"`
	Day          *string `json:"day"`
	StartTime    *string `json:"start_time"`
	EndTime      *string `json:"end_time"`
	IsLunchBreak *bool   `json:"is_lunch_break"`
	IsCancelled  *bool   `json:"is_cancelled"`
	CancelReason *string `json:"cancel_reason" validate:"omitempty,max=500"`
}

func (p *EntryPatch) clean() {
	clean := func(s *string) *string {
		if s == nil {
			return nil
		}
		c := core.CleanString(*s)
		return &c
	}
	p.Subject = clean(p.Subject)
	p.StartTime = clean(p.StartTime)
	p.EndTime = clean(p.EndTime)
	p.CancelReason = clean(p.CancelReason)
	if p.Day != nil {
		day, _ := NormalizeDay(*p.Day)
		p.Day = &day
	}
}

func (p EntryPatch) hasScheduleUpdate() bool {
	return p.Subject != nil || p.Day != nil || p.StartTime != nil || p.EndTime != nil || p.IsLunchBreak != nil
}

func (p EntryPatch) hasCancellationUpdate() bool {
	return p.IsCancelled != nil
}

// apply merges the patch onto `cur`.
func (p EntryPatch) apply(cur Entry, now time.Time) Entry {
	next := cur
	if p.Day != nil {
		next.Day = *p.Day
	}
	if p.StartTime != nil {
		next.StartTime = *p.StartTime
	}
	if p.EndTime != nil {
		next.EndTime = *p.EndTime
	}
	if p.IsLunchBreak != nil {
		next.IsLunchBreak = *p.IsLunchBreak
	}
	if p.Subject != nil && *p.Subject != "" {
		next.Subject = *p.Subject
	}
	if next.IsLunchBreak {
		next.Subject = LunchBreakSubject
	}

	if p.IsCancelled != nil {
		next.IsCancelled = *p.IsCancelled
		if next.IsCancelled {
			t := now
			next.CancelledAt = &t
			next.CancelReason = ""
			if p.CancelReason != nil {
				next.CancelReason = *p.CancelReason
			}
		} else {
			next.CancelledAt = nil
			next.CancelReason = ""
		}
	}
	return next
}

func scheduleChanged(cur, next Entry) bool {
	return cur.Day != next.Day ||
		cur.StartTime != next.StartTime ||
		cur.EndTime != next.EndTime ||
		cur.Subject != next.Subject ||
		cur.IsLunchBreak != next.IsLunchBreak
}

func requireSubject(e Entry) error {
	if e.Subject == "" {
		return core.NewValidationError(errSubjectRequired, core.FieldError{Field: "subject", Error: errSubjectRequired.Error()})
	}
	return nil
}
