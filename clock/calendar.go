package clock

// =============================================================================
// CALENDAR MARKER - Year-long presence map for the heatmap
// =============================================================================

// PresenceDay is one cell of the heatmap.
type PresenceDay struct {
	Date    Date
	Present bool
}

// CalendarYear has exactly one entry per day of Year, ascending.
type CalendarYear struct {
	Year int
	Days []PresenceDay
}

// PresentDays counts the marked days.
func (c CalendarYear) PresentDays() int {
	n := 0
	for _, d := range c.Days {
		if d.Present {
			n++
		}
	}
	return n
}

// IsLeapYear: divisible by 400, or divisible by 4 and not by 100.
func IsLeapYear(year int) bool {
	return year%400 == 0 || (year%4 == 0 && year%100 != 0)
}

func DaysInYear(year int) int {
	if IsLeapYear(year) {
		return 366
	}
	return 365
}

// YearPresence marks every date of the year on which a record with at
// least one punch exists. Resolution does not matter here: a day with only
// an entry is still a day the user showed up.
func YearPresence(records []DayRecord, year int) CalendarYear {
	present := make(map[string]bool)
	for _, r := range records {
		if r.Date.Year() == year && r.HasAnyPunch() {
			present[r.Date.String()] = true
		}
	}

	n := DaysInYear(year)
	days := make([]PresenceDay, n)
	start := YearOf(year).Start
	for i := 0; i < n; i++ {
		d := start.AddDays(i)
		days[i] = PresenceDay{Date: d, Present: present[d.String()]}
	}
	return CalendarYear{Year: year, Days: days}
}
