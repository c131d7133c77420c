package analytics

import (
	"fmt"
	"time"

	apperrors "jizhang/internal/errors"
)

// Window is an inclusive [Start, End] reporting range.
type Window struct {
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	ViewMode ViewMode  `json:"view_mode"`
}

// Contains reports whether t falls inside the window, both ends inclusive.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// endOfDay returns 23:59:59.999 on t's calendar day. It is built from the
// wall clock rather than by adding 24h so DST transitions do not shift it.
func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(999*time.Millisecond), t.Location())
}

// startOfWeek returns the Sunday on or before t.
func startOfWeek(t time.Time) time.Time {
	d := startOfDay(t)
	return d.AddDate(0, 0, -int(d.Weekday()))
}

func startOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// dayWindow spans the whole calendar days from through to.
func dayWindow(from, to time.Time, mode ViewMode) Window {
	return Window{Start: startOfDay(from), End: endOfDay(to), ViewMode: mode}
}

// MonthWindow returns the window covering a calendar month. Day 0 of the next
// month is the last day of this one, which takes care of month lengths and
// leap years.
func MonthWindow(month, year int, loc *time.Location) (Window, error) {
	if month < 1 || month > 12 {
		return Window{}, apperrors.WithMessage(apperrors.ErrInvalidParameter,
			fmt.Sprintf("month must be between 1 and 12, got %d", month))
	}
	if year < MinYear || year > MaxYear {
		return Window{}, apperrors.WithMessage(apperrors.ErrInvalidParameter,
			fmt.Sprintf("year must be between %d and %d, got %d", MinYear, MaxYear, year))
	}
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, loc)
	last := time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, loc)
	return Window{Start: start, End: endOfDay(last), ViewMode: ViewModeMonth}, nil
}

// ResolveWindow maps a query onto a concrete reporting window. now is the
// reference instant for the implicit "today" and "this week" cases.
func ResolveWindow(q Query, now time.Time, loc *time.Location) (Window, error) {
	now = now.In(loc)

	switch q.ViewMode {
	case ViewModeCustom:
		start, end, err := explicitRange(q, loc)
		if err != nil {
			return Window{}, err
		}
		return dayWindow(start, end, ViewModeCustom), nil

	case ViewModeDay:
		ref := now
		if s := firstNonEmpty(q.Date, q.StartDate); s != "" {
			d, err := ParseDate(s, loc)
			if err != nil {
				return Window{}, err
			}
			ref = d
		}
		return dayWindow(ref, ref, ViewModeDay), nil

	case ViewModeWeek:
		ref := now
		if q.StartDate != "" {
			d, err := ParseDate(q.StartDate, loc)
			if err != nil {
				return Window{}, err
			}
			ref = d
			if q.EndDate != "" {
				end, err := ParseDate(q.EndDate, loc)
				if err != nil {
					return Window{}, err
				}
				if end.Before(d) {
					return Window{}, apperrors.WithMessage(apperrors.ErrInvalidParameter, "end_date must not be before start_date")
				}
			}
		}
		sunday := startOfWeek(ref)
		return dayWindow(sunday, sunday.AddDate(0, 0, 6), ViewModeWeek), nil

	case ViewModeMonth, "":
		return MonthWindow(q.Month, q.Year, loc)
	}

	return Window{}, apperrors.WithMessage(apperrors.ErrInvalidParameter, "unknown view_mode: "+string(q.ViewMode))
}

// explicitRange parses and orders the start/end dates of a custom query.
func explicitRange(q Query, loc *time.Location) (time.Time, time.Time, error) {
	if q.StartDate == "" || q.EndDate == "" {
		return time.Time{}, time.Time{}, apperrors.WithMessage(apperrors.ErrInvalidParameter,
			"start_date and end_date are required for a custom range")
	}
	start, err := ParseDate(q.StartDate, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := ParseDate(q.EndDate, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, apperrors.WithMessage(apperrors.ErrInvalidParameter, "end_date must not be before start_date")
	}
	return start, end, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
