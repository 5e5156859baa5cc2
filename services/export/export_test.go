package exportsvc

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/trezcool/ratiba/core/timetable"
)

func testWeek() timetable.Week {
	view := func(subject, day, start, end, teacher string, cancelled bool) timetable.EntryView {
		return timetable.EntryView{
			Entry: timetable.Entry{
				Subject:     subject,
				Day:         day,
				StartTime:   start,
				EndTime:     end,
				IsCancelled: cancelled,
			},
			TeacherName: teacher,
		}
	}
	return timetable.NewWeek([]timetable.EntryView{
		view("Physics", "Monday", "10:00", "11:00", "Bob", false),
		view("Math", "Monday", "09:00", "10:00", "Alice", true),
		view("Art", "Wednesday", "14:00", "15:00", "", false),
	})
}

func TestCellText(t *testing.T) {
	week := testWeek()
	assert.Equal(t, "09:00-10:00 Math (Alice) [cancelled]", CellText(week.Days[0].Entries[0]))
	assert.Equal(t, "10:00-11:00 Physics (Bob)", CellText(week.Days[0].Entries[1]))
	assert.Equal(t, "14:00-15:00 Art", CellText(week.Days[2].Entries[0]))
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, testWeek()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	tests := []struct {
		cell string
		want string
	}{
		{cell: "A1", want: "Monday"},
		{cell: "F1", want: "Saturday"},
		{cell: "A2", want: "09:00-10:00 Math (Alice) [cancelled]"},
		{cell: "A3", want: "10:00-11:00 Physics (Bob)"},
		{cell: "C2", want: "14:00-15:00 Art"},
		{cell: "B2", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.cell, func(t *testing.T) {
			got, err := f.GetCellValue(sheet, tt.cell)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWritePDF(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WritePDF(&buf, testWeek(), "Ratiba Timetable"))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))

	buf.Reset()
	require.NoError(t, WritePDF(&buf, timetable.Week{}, "Empty"))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}
