package exportsvc

import (
	"io"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/trezcool/ratiba/core/timetable"
)

const (
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	sheet           = "Sheet1"
)

// WriteXLSX renders the week as a spreadsheet: one column per day, one cell per entry.
func WriteXLSX(w io.Writer, week timetable.Week) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return errors.Wrap(err, "creating header style")
	}

	for col, day := range week.Days {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err = f.SetCellValue(sheet, cell, day.Day); err != nil {
			return errors.Wrap(err, "writing header")
		}
		if err = f.SetCellStyle(sheet, cell, cell, headerStyle); err != nil {
			return errors.Wrap(err, "styling header")
		}

		for row, e := range day.Entries {
			cell, err = excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return err
			}
			if err = f.SetCellValue(sheet, cell, CellText(e)); err != nil {
				return errors.Wrap(err, "writing entry")
			}
		}
	}
	if len(week.Days) > 0 {
		last, _ := excelize.ColumnNumberToName(len(week.Days))
		if err = f.SetColWidth(sheet, "A", last, 28); err != nil {
			return errors.Wrap(err, "sizing columns")
		}
	}

	_, err = f.WriteTo(w)
	return errors.Wrap(err, "writing xlsx")
}
