package exportsvc

import (
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"
	"github.com/pkg/errors"

	"github.com/trezcool/ratiba/core/timetable"
)

const ContentTypePDF = "application/pdf"

// CellText is the single-line rendering of an entry in exported grids.
func CellText(e timetable.EntryView) string {
	text := fmt.Sprintf("%s-%s %s", e.StartTime, e.EndTime, e.Subject)
	if e.TeacherName != "" {
		text += " (" + e.TeacherName + ")"
	}
	if e.IsCancelled {
		text += " [cancelled]"
	}
	return text
}

// WritePDF renders the week as a landscape A4 table.
func WritePDF(w io.Writer, week timetable.Week, title string) error {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetTitle(title, true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 10, title, "", 1, "C", false, 0, "")
	pdf.Ln(2)

	if len(week.Days) == 0 {
		return errors.Wrap(pdf.Output(w), "writing pdf")
	}

	pageW, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	colW := (pageW - left - right) / float64(len(week.Days))

	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(230, 230, 230)
	for _, day := range week.Days {
		pdf.CellFormat(colW, 8, day.Day, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 8)
	for row := 0; row < week.MaxEntries(); row++ {
		for _, day := range week.Days {
			var text string
			if row < len(day.Entries) {
				text = CellText(day.Entries[row])
			}
			pdf.CellFormat(colW, 7, truncate(pdf, text, colW-2), "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	if err := pdf.Output(w); err != nil {
		return errors.Wrap(err, "writing pdf")
	}
	return nil
}

func truncate(pdf *gofpdf.Fpdf, text string, width float64) string {
	if pdf.GetStringWidth(text) <= width {
		return text
	}
	runes := []rune(text)
	for len(runes) > 0 && pdf.GetStringWidth(string(runes)+"...") > width {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "..."
}
