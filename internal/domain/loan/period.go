package loan

import "time"

// PeriodKey names the billing period containing t: "2006-01" for monthly
// billing, "2006-01-02" for daily billing. t is read in loc.
func (p PeriodUnit) PeriodKey(t time.Time, loc *time.Location) string {
	t = t.In(loc)
	if p == PeriodDay {
		return t.Format("2006-01-02")
	}
	return t.Format("2006-01")
}

// DayOfPeriod is the 1-based day of t within its billing period.
func (p PeriodUnit) DayOfPeriod(t time.Time, loc *time.Location) int {
	if p == PeriodDay {
		return 1
	}
	return t.In(loc).Day()
}

// PeriodBounds returns the first and last instant of the period holding t.
func (p PeriodUnit) PeriodBounds(t time.Time, loc *time.Location) (time.Time, time.Time) {
	t = t.In(loc)
	if p == PeriodDay {
		return StartOfDay(t, loc), EndOfDay(t, loc)
	}
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 1, 0).Add(-time.Millisecond)
}

func StartOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// EndOfDay is 23:59:59.999 local time.
func EndOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(999*time.Millisecond), loc)
}
