package clock

import "context"

// ExportRow is one pre-formatted spreadsheet/PDF line. Absent punches and
// unresolved totals are empty strings.
type ExportRow struct {
	Date             string
	Entry            string
	LunchOut         string
	LunchReturn      string
	Exit             string
	TotalFormatted   string
	BalanceFormatted string

	// Total is the raw worked duration, zero when unresolved, for sinks
	// that also write numeric columns.
	Total    Duration
	Resolved bool
}

// ExportSink consumes the ordered rows produced by BuildExportRows.
type ExportSink interface {
	Export(ctx context.Context, rows []ExportRow) error
}

// BuildExportRows formats records ascending by date. Unresolved records keep
// their punches and leave the totals empty.
func BuildExportRows(records []DayRecord) []ExportRow {
	sorted := SortByDate(records)
	rows := make([]ExportRow, 0, len(sorted))
	for _, r := range sorted {
		row := ExportRow{
			Date:        r.Date.String(),
			Entry:       r.Entry.String(),
			LunchOut:    r.LunchOut.String(),
			LunchReturn: r.LunchReturn.String(),
			Exit:        r.Exit.String(),
		}
		if total, ok := r.Total(); ok {
			balance, _ := r.Balance()
			row.TotalFormatted = FormatDuration(total)
			row.BalanceFormatted = FormatBalance(balance)
			row.Total = total
			row.Resolved = true
		}
		rows = append(rows, row)
	}
	return rows
}
