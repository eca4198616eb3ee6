package export_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap/zaptest"

	"github.com/horacerta/timeclock/clock"
	"github.com/horacerta/timeclock/export"
)

func exportRows(t *testing.T) []clock.ExportRow {
	t.Helper()
	p := func(s string) clock.PunchTime { return clock.Punched(clock.MustParseTimeOfDay(s)) }
	records := []clock.DayRecord{
		{Date: clock.NewDate(2024, time.March, 4), Entry: p("08:00"), LunchOut: p("12:00"), LunchReturn: p("13:00"), Exit: p("17:00")},
		{Date: clock.NewDate(2024, time.March, 5), Entry: p("08:00"), Exit: p("17:30")},
		{Date: clock.NewDate(2024, time.March, 6), Entry: p("08:00")},
	}
	resolved, err := clock.ResolveAll(records, clock.DefaultSchedule())
	require.NoError(t, err)
	return clock.BuildExportRows(resolved)
}

func TestWorkbook_WritesRecordsAndSummary(t *testing.T) {
	// GIVEN: two resolved days and one open day
	var buf bytes.Buffer
	wb := export.NewWorkbook(&buf, "Ana - March 2024", zaptest.NewLogger(t))

	// WHEN
	require.NoError(t, wb.Export(context.Background(), exportRows(t)))

	// THEN: the file reopens with both sheets
	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{export.RecordsSheet, export.SummarySheet}, f.GetSheetList())

	header, _ := f.GetCellValue(export.RecordsSheet, "A1")
	assert.Equal(t, "Date", header)

	date, _ := f.GetCellValue(export.RecordsSheet, "A2")
	total, _ := f.GetCellValue(export.RecordsSheet, "F2")
	balance, _ := f.GetCellValue(export.RecordsSheet, "G2")
	hours, _ := f.GetCellValue(export.RecordsSheet, "H2")
	assert.Equal(t, "2024-03-04", date)
	assert.Equal(t, "8h 0min", total)
	assert.Equal(t, "-0h 48min", balance)
	assert.Equal(t, "8", hours)

	lunch, _ := f.GetCellValue(export.RecordsSheet, "C3")
	assert.Equal(t, "", lunch, "absent punch is an empty cell")

	openTotal, _ := f.GetCellValue(export.RecordsSheet, "F4")
	assert.Equal(t, "", openTotal, "unresolved day has no total")

	days, _ := f.GetCellValue(export.SummarySheet, "B2")
	sum, _ := f.GetCellValue(export.SummarySheet, "B3")
	sumHours, _ := f.GetCellValue(export.SummarySheet, "B4")
	assert.Equal(t, "2", days)
	assert.Equal(t, "17h 30min", sum)
	assert.Equal(t, "17.5", sumHours)

	avg, _ := f.GetCellValue(export.SummarySheet, "B5")
	assert.Equal(t, "8h 45min", avg)
	assert.Equal(t, clock.FormatDuration(clock.Average(1050, 2)), avg)
}

func TestWorkbook_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	err := export.NewWorkbook(&buf, "x", nil).Export(ctx, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, buf.Len())
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "timesheet_ana.xlsx", export.Filename("ana", clock.Period{}))
	assert.Equal(t, "timesheet_ana_2024-03-01_2024-03-31.xlsx",
		export.Filename("ana", clock.MonthOf(2024, time.March)))
}
