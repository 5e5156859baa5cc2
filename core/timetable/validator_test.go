package timetable

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	math := Entry{ID: "tt-1", Subject: "Math", Day: "Monday", StartTime: "09:00", EndTime: "10:00", TeacherID: "t1"}
	physics := Entry{ID: "tt-2", Subject: "Physics", Day: "Monday", StartTime: "10:00", EndTime: "11:00", TeacherID: "t2", IsCancelled: true}
	lunchRow := Entry{ID: "tt-3", Subject: LunchBreakSubject, Day: "Monday", StartTime: "12:00", EndTime: "13:00", TeacherID: "t2", IsLunchBreak: true}
	existing := []Entry{math, physics, lunchRow}
	lunch := LunchConfig{Start: "12:00", End: "13:00", Overrides: map[string]Window{"Tuesday": {Start: "13:00", End: "14:00"}}}

	candidate := func(day, start, end string) Entry {
		return Entry{Subject: "Chemistry", Day: day, StartTime: start, EndTime: end, TeacherID: "t1"}
	}

	tests := []struct {
		name      string
		candidate Entry
		wantErr   error
		wantConf  string // id of the conflicting entry
	}{
		{name: "free slot", candidate: candidate("Monday", "08:00", "09:00")},
		{name: "other day", candidate: candidate("Thursday", "09:00", "10:00")},
		{name: "unknown day", candidate: candidate("Sunday", "09:00", "10:00"), wantErr: ErrInvalidTimeRange},
		{name: "malformed start", candidate: candidate("Monday", "9:00", "10:00"), wantErr: ErrInvalidTimeRange},
		{name: "end before start", candidate: candidate("Monday", "11:00", "10:00"), wantErr: ErrInvalidTimeRange},
		{name: "empty range", candidate: candidate("Monday", "11:00", "11:00"), wantErr: ErrInvalidTimeRange},
		{name: "overlap with another teacher", candidate: candidate("Monday", "09:30", "10:30"), wantErr: ErrScheduleConflict, wantConf: "tt-1"},
		{name: "cancelled entry still blocks", candidate: candidate("Monday", "10:15", "10:45"), wantErr: ErrScheduleConflict, wantConf: "tt-2"},
		{name: "case-insensitive day", candidate: candidate("monday", "09:30", "09:45"), wantErr: ErrScheduleConflict, wantConf: "tt-1"},
		{name: "default lunch window", candidate: candidate("Monday", "12:30", "13:30"), wantErr: ErrLunchBreakConflict},
		{name: "override replaces default", candidate: candidate("Tuesday", "12:00", "13:00")},
		{name: "override window", candidate: candidate("Tuesday", "13:30", "14:30"), wantErr: ErrLunchBreakConflict},
		{name: "touching lunch", candidate: candidate("Monday", "11:00", "12:00")},
		{name: "updating itself", candidate: Entry{ID: "tt-1", Subject: "Math", Day: "Monday", StartTime: "09:30", EndTime: "10:00", TeacherID: "t1"}},
		{
			name:      "lunch break skips lunch window",
			candidate: Entry{Subject: LunchBreakSubject, Day: "Monday", StartTime: "12:00", EndTime: "13:00", TeacherID: "t1", IsLunchBreak: true},
		},
		{
			name:      "lunch break against lecture",
			candidate: Entry{Subject: LunchBreakSubject, Day: "Monday", StartTime: "09:30", EndTime: "10:30", TeacherID: "t1", IsLunchBreak: true},
			wantErr:   ErrScheduleConflict,
			wantConf:  "tt-1",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.candidate, existing, lunch)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			require.True(t, errors.Is(err, tt.wantErr), "Validate() error = %v, want %v", err, tt.wantErr)
			if tt.wantConf != "" {
				var terr *Error
				require.True(t, errors.As(err, &terr))
				require.NotNil(t, terr.Conflicting)
				assert.Equal(t, tt.wantConf, terr.Conflicting.ID)
			}
		})
	}
}

func TestValidate_Precedence(t *testing.T) {
	existing := []Entry{{ID: "tt-1", Subject: "Math", Day: "Monday", StartTime: "12:00", EndTime: "13:00", TeacherID: "t2"}}
	lunch := LunchConfig{Start: "12:00", End: "13:00"}

	// both a lecture and the lunch window collide: the lecture wins
	err := Validate(Entry{Subject: "Art", Day: "Monday", StartTime: "12:15", EndTime: "12:45", TeacherID: "t1"}, existing, lunch)
	assert.True(t, errors.Is(err, ErrScheduleConflict))

	// an invalid range is reported before any overlap
	err = Validate(Entry{Subject: "Art", Day: "Monday", StartTime: "12:45", EndTime: "12:15", TeacherID: "t1"}, existing, lunch)
	assert.True(t, errors.Is(err, ErrInvalidTimeRange))
}

func TestError_Error(t *testing.T) {
	conflicting := &Entry{Subject: "Math", Day: "Monday", StartTime: "09:00", EndTime: "10:00"}
	window := &Window{Start: "12:00", End: "13:00"}

	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "schedule conflict",
			err:  &Error{Kind: KindScheduleConflict, Conflicting: conflicting, TeacherName: "Mr. Smith"},
			want: "Time conflict: Mr. Smith already has class on Monday from 09:00 to 10:00.",
		},
		{
			name: "schedule conflict without name",
			err:  &Error{Kind: KindScheduleConflict, Conflicting: conflicting},
			want: "Time conflict: Another teacher already has class on Monday from 09:00 to 10:00.",
		},
		{
			name: "lunch window",
			err:  &Error{Kind: KindLunchBreakConflict, Day: "Monday", LunchBreak: window},
			want: "Time conflict: Lunch break is set on Monday from 12:00 to 13:00.",
		},
		{
			name: "lunch settings",
			err:  &Error{Kind: KindLunchBreakConflict, Day: "Monday", LunchBreak: window, Conflicting: conflicting},
			want: "Lunch break overlaps with Math on Monday (09:00-10:00).",
		},
		{name: "detail", err: &Error{Kind: KindInvalidTimeRange, Detail: "bad"}, want: "bad"},
		{name: "default", err: ErrNotFound, want: "Timetable entry not found."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestKindOf(t *testing.T) {
	kind, ok := KindOf(&Error{Kind: KindForbidden})
	assert.True(t, ok)
	assert.Equal(t, KindForbidden, kind)

	_, ok = KindOf(ErrStaleVersion)
	assert.False(t, ok)
}
