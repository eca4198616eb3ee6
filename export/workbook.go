// Package export writes day records to spreadsheet files.
package export

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/horacerta/timeclock/clock"
)

// ErrGenerate is returned when the workbook cannot be produced.
var ErrGenerate = errors.New("failed to generate workbook")

const (
	RecordsSheet = "Records"
	SummarySheet = "Summary"
)

var recordHeaders = []string{"Date", "Entry", "Lunch out", "Lunch return", "Exit", "Total", "Balance", "Hours"}

// Workbook is a clock.ExportSink that writes an .xlsx file to W.
//
// The Records sheet has one row per day, ascending, with punches and the
// formatted total and balance as text plus the total as decimal hours. The
// Summary sheet totals the resolved days.
type Workbook struct {
	W      io.Writer
	Title  string
	Logger *zap.Logger
}

var _ clock.ExportSink = (*Workbook)(nil)

func NewWorkbook(w io.Writer, title string, logger *zap.Logger) *Workbook {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Workbook{W: w, Title: title, Logger: logger}
}

// Export writes rows to the workbook.
func (wb *Workbook) Export(ctx context.Context, rows []clock.ExportRow) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(RecordsSheet)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrGenerate, err)
	}
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	f.SetColWidth(RecordsSheet, "A", "A", 12)
	f.SetColWidth(RecordsSheet, "B", "E", 12)
	f.SetColWidth(RecordsSheet, "F", "G", 14)
	f.SetColWidth(RecordsSheet, "H", "H", 10)

	for i, h := range recordHeaders {
		f.SetCellValue(RecordsSheet, cell(i, 1), h)
	}
	f.SetCellStyle(RecordsSheet, cell(0, 1), cell(len(recordHeaders)-1, 1), headerStyle)

	var (
		total    clock.Duration
		resolved int
	)
	for i, r := range rows {
		line := i + 2
		values := []any{r.Date, r.Entry, r.LunchOut, r.LunchReturn, r.Exit, r.TotalFormatted, r.BalanceFormatted}
		for col, v := range values {
			f.SetCellValue(RecordsSheet, cell(col, line), v)
		}
		if r.Resolved {
			f.SetCellValue(RecordsSheet, cell(7, line), hours(r.Total))
			total += r.Total
			resolved++
		}
	}

	if err := wb.writeSummary(f, headerStyle, total, resolved); err != nil {
		return err
	}

	if err := f.Write(wb.W); err != nil {
		wb.Logger.Error("failed to write workbook", zap.String("title", wb.Title), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrGenerate, err)
	}
	wb.Logger.Debug("workbook exported", zap.String("title", wb.Title), zap.Int("rows", len(rows)))
	return nil
}

func (wb *Workbook) writeSummary(f *excelize.File, headerStyle int, total clock.Duration, days int) error {
	if _, err := f.NewSheet(SummarySheet); err != nil {
		return fmt.Errorf("%w: %v", ErrGenerate, err)
	}
	f.SetColWidth(SummarySheet, "A", "A", 18)
	f.SetColWidth(SummarySheet, "B", "B", 16)

	f.SetCellValue(SummarySheet, "A1", wb.Title)
	f.MergeCell(SummarySheet, "A1", "B1")
	f.SetCellStyle(SummarySheet, "A1", "B1", headerStyle)

	lines := []struct {
		label string
		value any
	}{
		{"Worked days", days},
		{"Total", clock.FormatDuration(total)},
		{"Total hours", hours(total)},
		{"Daily average", clock.FormatDuration(clock.Average(total, days))},
	}
	for i, l := range lines {
		f.SetCellValue(SummarySheet, cell(0, i+2), l.label)
		f.SetCellValue(SummarySheet, cell(1, i+2), l.value)
	}
	return nil
}

// hours is the duration as decimal hours rounded to two places.
func hours(d clock.Duration) float64 {
	v, _ := d.Hours().Round(2).Float64()
	return v
}

// cell converts a zero-based column and one-based row to "A1" form.
func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col+1, row)
	return name
}

// Filename suggests a download name for a period export.
func Filename(userID clock.UserID, period clock.Period) string {
	if period.Start.IsZero() {
		return fmt.Sprintf("timesheet_%s.xlsx", userID)
	}
	return fmt.Sprintf("timesheet_%s_%s_%s.xlsx", userID, period.Start, period.End)
}
