// Package analytics implements the date-range aggregation engine behind the
// reporting endpoints: it resolves reporting windows, partitions them into
// trend buckets and folds transaction records into sums, breakdowns and
// rankings. Everything here is pure; callers supply the records, the clock and
// the location.
package analytics

import (
	"fmt"
	"strings"
	"time"

	apperrors "jizhang/internal/errors"
)

// ViewMode selects the temporal granularity of a report.
type ViewMode string

const (
	ViewModeDay    ViewMode = "day"
	ViewModeWeek   ViewMode = "week"
	ViewModeMonth  ViewMode = "month"
	ViewModeCustom ViewMode = "custom"
)

// Type is the direction of a transaction record.
type Type string

const (
	TypeExpense Type = "EXPENSE"
	TypeIncome  Type = "INCOME"
)

// Valid reports whether t is one of the known transaction types.
func (t Type) Valid() bool {
	return t == TypeExpense || t == TypeIncome
}

// Query is the parameter contract shared by every aggregation, independent of
// the transport that produced it. Zero values mean "not supplied".
type Query struct {
	ViewMode  ViewMode `form:"view_mode" json:"view_mode"`
	Month     int      `form:"month" json:"month,omitempty"`
	Year      int      `form:"year" json:"year,omitempty"`
	Date      string   `form:"date" json:"date,omitempty"`
	StartDate string   `form:"start_date" json:"start_date,omitempty"`
	EndDate   string   `form:"end_date" json:"end_date,omitempty"`
	Type      Type     `form:"transaction_type" json:"transaction_type,omitempty"`
	UserID    string   `form:"-" json:"-"`
}

// TypeOrDefault returns the requested transaction type, EXPENSE when absent.
func (q Query) TypeOrDefault() Type {
	if q.Type == "" {
		return TypeExpense
	}
	return q.Type
}

const dateLayout = "2006-01-02"

// Supported calendar years, for both month windows and explicit dates.
const (
	MinYear = 1900
	MaxYear = 9999
)

// ParseDate parses a calendar date in loc. It accepts plain YYYY-MM-DD dates
// and RFC 3339 timestamps; timestamps are moved into loc before the calendar
// day is taken. The result is midnight of that day.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, apperrors.WithMessage(apperrors.ErrInvalidParameter, "date is required")
	}
	d, err := time.ParseInLocation(dateLayout, s, loc)
	if err != nil {
		ts, tsErr := time.Parse(time.RFC3339Nano, s)
		if tsErr != nil {
			return time.Time{}, apperrors.WithMessage(apperrors.ErrInvalidParameter, "invalid date: "+s)
		}
		d = startOfDay(ts.In(loc))
	}
	if d.Year() < MinYear || d.Year() > MaxYear {
		return time.Time{}, apperrors.WithMessage(apperrors.ErrInvalidParameter,
			fmt.Sprintf("date must fall between years %d and %d, got %s", MinYear, MaxYear, s))
	}
	return d, nil
}
