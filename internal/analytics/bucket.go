package analytics

import (
	"fmt"
	"time"

	apperrors "jizhang/internal/errors"
)

// Bucket is one sub-interval of a trend chart.
type Bucket struct {
	Label       string    `json:"label"`
	PeriodYear  int       `json:"period_year"`
	PeriodStart time.Time `json:"period_start"`
	PeriodEnd   time.Time `json:"period_end"`
}

// Window returns the bucket as an inclusive reporting window.
func (b Bucket) Window() Window {
	return Window{Start: b.PeriodStart, End: b.PeriodEnd}
}

type granularity int

const (
	byDay granularity = iota
	byWeek
	byMonth
)

func (g granularity) next(t time.Time) time.Time {
	switch g {
	case byWeek:
		return t.AddDate(0, 0, 7)
	case byMonth:
		return t.AddDate(0, 1, 0)
	default:
		return t.AddDate(0, 0, 1)
	}
}

func (g granularity) label(t time.Time) string {
	switch g {
	case byWeek:
		return fmt.Sprintf("%d/%d周", int(t.Month()), t.Day())
	case byMonth:
		return fmt.Sprintf("%d月", int(t.Month()))
	default:
		return fmt.Sprintf("%d/%d", int(t.Month()), t.Day())
	}
}

// plan describes a run of buckets: consecutive periods of unit starting at
// first, the last one cut off at clip.
type plan struct {
	unit  granularity
	first time.Time
	clip  time.Time
}

func (p plan) buckets() []Bucket {
	var out []Bucket
	for cur := p.first; !cur.After(p.clip); cur = p.unit.next(cur) {
		end := endOfDay(p.unit.next(cur).AddDate(0, 0, -1))
		if end.After(p.clip) {
			end = p.clip
		}
		out = append(out, Bucket{
			Label:       p.unit.label(cur),
			PeriodYear:  cur.Year(),
			PeriodStart: cur,
			PeriodEnd:   end,
		})
	}
	return out
}

// Custom ranges switch granularity on their span in days.
const (
	maxDailySpan  = 14
	maxWeeklySpan = 90
)

// Partition splits the period implied by q into ordered trend buckets, oldest
// first. The fixed modes look back from now: 7 days, 4 Sunday-based weeks or
// 6 calendar months, each ending with the current period. A custom range is
// cut into days, 7-day windows or calendar months depending on its length.
func Partition(q Query, now time.Time, loc *time.Location) ([]Bucket, error) {
	p, err := planFor(q, now.In(loc), loc)
	if err != nil {
		return nil, err
	}
	return p.buckets(), nil
}

func planFor(q Query, now time.Time, loc *time.Location) (plan, error) {
	today := startOfDay(now)

	switch q.ViewMode {
	case ViewModeDay:
		return plan{unit: byDay, first: today.AddDate(0, 0, -6), clip: endOfDay(today)}, nil

	case ViewModeWeek:
		sunday := startOfWeek(today)
		return plan{unit: byWeek, first: sunday.AddDate(0, 0, -21), clip: endOfDay(sunday.AddDate(0, 0, 6))}, nil

	case ViewModeCustom:
		start, end, err := explicitRange(q, loc)
		if err != nil {
			return plan{}, err
		}
		span := daysBetween(start, end)
		switch {
		case span <= maxDailySpan:
			return plan{unit: byDay, first: start, clip: endOfDay(end)}, nil
		case span <= maxWeeklySpan:
			return plan{unit: byWeek, first: start, clip: endOfDay(end)}, nil
		default:
			lastDay := startOfMonth(end).AddDate(0, 1, -1)
			return plan{unit: byMonth, first: startOfMonth(start), clip: endOfDay(lastDay)}, nil
		}

	case ViewModeMonth, "":
		month := startOfMonth(today)
		return plan{unit: byMonth, first: month.AddDate(0, -5, 0), clip: endOfDay(month.AddDate(0, 1, -1))}, nil
	}

	return plan{}, apperrors.WithMessage(apperrors.ErrInvalidParameter, "unknown view_mode: "+string(q.ViewMode))
}

// daysBetween counts calendar days from a to b, ignoring DST by working on
// the dates alone.
func daysBetween(a, b time.Time) int {
	da := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	db := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(db.Sub(da).Hours() / 24)
}

// Span returns the window from the first bucket's start to the last bucket's
// end. It is the zero Window for an empty slice.
func Span(buckets []Bucket) Window {
	if len(buckets) == 0 {
		return Window{}
	}
	return Window{Start: buckets[0].PeriodStart, End: buckets[len(buckets)-1].PeriodEnd}
}
