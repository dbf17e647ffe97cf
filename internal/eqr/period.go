package eqr

import (
	"errors"
	"fmt"
	"time"
)

// DateLayout is the MM/DD/YYYY format the report viewer expects.
const DateLayout = "01/02/2006"

// SellerAll requests a download for every seller the form offers.
const SellerAll = "all"

var quarterLabels = [4]string{"Q1, Jan-Mar", "Q2, Apr-Jun", "Q3, Jul-Sep", "Q4, Oct-Dec"}

// Query holds the user-supplied search parameters for one download run.
type Query struct {
	Start     time.Time
	End       time.Time
	Seller    string // a seller name, or SellerAll
	Authority string
}

// Validate checks the query before any browser work starts.
func (q Query) Validate() error {
	if q.Start.IsZero() || q.End.IsZero() {
		return errors.New("start and end dates are required")
	}
	if q.End.Before(q.Start) {
		return fmt.Errorf("end date %s is before start date %s",
			q.End.Format(DateLayout), q.Start.Format(DateLayout))
	}
	if q.Authority == "" {
		return errors.New("balancing authority is required")
	}
	return nil
}

// ReportPeriod returns the quarter label the report viewer uses, e.g.
// "Q2, Apr-Jun 2024". The quarter is taken from the midpoint of the range,
// matching how a range straddling a quarter boundary should lean.
func ReportPeriod(start, end time.Time) string {
	mid := start.Add(end.Sub(start) / 2)
	return fmt.Sprintf("%s %d", quarterLabels[(int(mid.Month())-1)/3], mid.Year())
}

// QuarterStart returns the first day of the quarter containing t.
func QuarterStart(t time.Time) time.Time {
	month := time.Month(((int(t.Month())-1)/3)*3 + 1)
	return time.Date(t.Year(), month, 1, 0, 0, 0, 0, t.Location())
}
