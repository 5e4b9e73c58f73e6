package model

import "time"

// DateLayout is the calendar-date format used by the billing API.
const DateLayout = "2006-01-02"

// BillingPeriod is a month-aligned date range. End is exclusive.
type BillingPeriod struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// CurrentMonthRange returns the billing period containing now: the first day of
// now's month through the first day of the following month, both at 00:00 UTC.
func CurrentMonthRange(now time.Time) BillingPeriod {
	now = now.UTC()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return BillingPeriod{
		Start: start,
		End:   start.AddDate(0, 1, 0),
	}
}

// DateRange returns the start and exclusive end as YYYY-MM-DD strings.
func (p BillingPeriod) DateRange() (start, end string) {
	return p.Start.Format(DateLayout), p.End.Format(DateLayout)
}

// String renders the period as "start to end".
func (p BillingPeriod) String() string {
	start, end := p.DateRange()
	return start + " to " + end
}
