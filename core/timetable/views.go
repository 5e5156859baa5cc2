package timetable

import (
	"context"
	"sort"

	"github.com/pkg/errors"

	"github.com/trezcool/ratiba/core"
)

type Scope string

// Scopes
const (
	ScopeDefault Scope = ""
	ScopeAll     Scope = "all"
)

// VirtualLunchEntries synthesizes one read-only lunch entry per teacher and day with a resolvable window.
func VirtualLunchEntries(teachers []Teacher) []Entry {
	entries := make([]Entry, 0, len(teachers)*len(Days))
	for _, t := range teachers {
		for _, day := range Days {
			w, ok := t.Lunch.WindowFor(day)
			if !ok {
				continue
			}
			entries = append(entries, Entry{
				ID:           VirtualLunchID(t.ID, day),
				Subject:      LunchBreakSubject,
				Day:          day,
				StartTime:    w.Start,
				EndTime:      w.End,
				TeacherID:    t.ID,
				IsLunchBreak: true,
			})
		}
	}
	return entries
}

// List returns the timetable as seen by `caller`:
// every stored entry for ScopeAll and admins, only their own entries for teachers,
// and every stored entry plus the virtual lunch entries for students.
func (svc *Service) List(ctx context.Context, caller core.Identity, scope Scope) ([]EntryView, error) {
	entries, _, err := svc.repo.GetAll(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "loading timetable")
	}
	teachers, err := svc.teachers.QueryTeachers(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "querying teachers")
	}
	names := make(map[string]string, len(teachers))
	for _, t := range teachers {
		names[t.ID] = t.DisplayName()
	}

	views := make([]EntryView, 0, len(entries))
	switch {
	case scope == ScopeAll || caller.IsAdmin():
		for _, e := range entries {
			views = append(views, EntryView{Entry: e, TeacherName: names[e.TeacherID]})
		}
	case caller.IsTeacher():
		for _, e := range entries {
			if e.TeacherID == caller.ID {
				views = append(views, EntryView{Entry: e, TeacherName: names[e.TeacherID]})
			}
		}
	case caller.IsStudent():
		for _, e := range entries {
			views = append(views, EntryView{Entry: e, TeacherName: names[e.TeacherID]})
		}
		for _, e := range VirtualLunchEntries(teachers) {
			views = append(views, EntryView{Entry: e, TeacherName: names[e.TeacherID], IsVirtual: true})
		}
	}
	return views, nil
}

// DaySchedule is one column of the weekly grid.
type DaySchedule struct {
	Day     string      `json:"day"`
	Entries []EntryView `json:"entries"`
}

// Week is the timetable arranged by day, each day ordered by start time.
type Week struct {
	Days []DaySchedule `json:"days"`
}

func NewWeek(views []EntryView) Week {
	byDay := make(map[string][]EntryView, len(Days))
	for _, v := range views {
		day, ok := NormalizeDay(v.Day)
		if !ok {
			continue
		}
		byDay[day] = append(byDay[day], v)
	}

	week := Week{Days: make([]DaySchedule, 0, len(Days))}
	for _, day := range Days {
		entries := byDay[day]
		sort.SliceStable(entries, func(i, j int) bool {
			si, _ := ParseTime(entries[i].StartTime)
			sj, _ := ParseTime(entries[j].StartTime)
			if si != sj {
				return si < sj
			}
			ei, _ := ParseTime(entries[i].EndTime)
			ej, _ := ParseTime(entries[j].EndTime)
			return ei < ej
		})
		week.Days = append(week.Days, DaySchedule{Day: day, Entries: entries})
	}
	return week
}

// MaxEntries returns the length of the busiest day.
func (w Week) MaxEntries() int {
	var max int
	for _, d := range w.Days {
		if len(d.Entries) > max {
			max = len(d.Entries)
		}
	}
	return max
}
