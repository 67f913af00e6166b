package core

import (
	"errors"
	"time"
)

// ErrNoPeriods means the planning calendar has no periods to resolve against.
var ErrNoPeriods = errors.New("no planning periods available")

// ResolvePeriod returns the id of the period containing dueDate. periods must be sorted
// ascending by start date. Dates before the first period resolve to the first period,
// dates after the last resolve to the last, and a date falling in a gap resolves to the
// next period.
func ResolvePeriod(dueDate time.Time, periods []Period) (string, error) {
	if len(periods) == 0 {
		return "", ErrNoPeriods
	}

	d := dateOnly(dueDate)
	for _, p := range periods {
		if !d.After(dateOnly(p.EndDate)) {
			return p.ID, nil
		}
	}
	return periods[len(periods)-1].ID, nil
}
