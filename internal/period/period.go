// Package period defines the month/year key that scopes plans, tiers and
// ledger entries.
package period

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidMonth = errors.New("period_month_out_of_range")
	ErrInvalidYear  = errors.New("period_year_out_of_range")
)

// Period identifies one payroll month. Immutable once referenced.
type Period struct {
	Month int `json:"month"`
	Year  int `json:"year"`
}

func New(month, year int) (Period, error) {
	p := Period{Month: month, Year: year}
	if err := p.Validate(); err != nil {
		return Period{}, err
	}
	return p, nil
}

func (p Period) Validate() error {
	if p.Month < 1 || p.Month > 12 {
		return ErrInvalidMonth
	}
	if p.Year < 2000 {
		return ErrInvalidYear
	}
	return nil
}

func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, p.Month)
}

// Start returns the first instant of the period in UTC.
func (p Period) Start() time.Time {
	return time.Date(p.Year, time.Month(p.Month), 1, 0, 0, 0, 0, time.UTC)
}

// End returns the first instant of the following period in UTC.
func (p Period) End() time.Time {
	return p.Start().AddDate(0, 1, 0)
}

// FromTime returns the period containing t.
func FromTime(t time.Time) Period {
	t = t.UTC()
	return Period{Month: int(t.Month()), Year: t.Year()}
}
