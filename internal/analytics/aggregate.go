package analytics

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// UnknownCategoryName labels a breakdown group whose category cannot be found.
const UnknownCategoryName = "未知"

// DefaultTopN is the length of a ranking when the caller does not choose one.
const DefaultTopN = 5

// Record is the engine's view of a stored transaction.
type Record struct {
	ID         string
	UserID     string
	Type       Type
	Amount     decimal.Decimal
	Date       time.Time
	CategoryID string
	Note       *string
}

// Category is the engine's view of a category row.
type Category struct {
	ID   string
	Name string
	Icon string
	Type Type
}

// Categories indexes categories by id.
type Categories map[string]Category

// IndexCategories builds a lookup table from a category list.
func IndexCategories(list []Category) Categories {
	idx := make(Categories, len(list))
	for _, c := range list {
		idx[c.ID] = c
	}
	return idx
}

// Slice is one category's share of a breakdown.
type Slice struct {
	CategoryID string          `json:"category_id"`
	Name       string          `json:"name"`
	Icon       string          `json:"icon"`
	Value      decimal.Decimal `json:"value"`
}

// CategoryRef is the category summary attached to ranked items.
type CategoryRef struct {
	Name string `json:"name"`
	Icon string `json:"icon"`
}

// TopItem is one entry of a top-N ranking.
type TopItem struct {
	ID       string          `json:"id"`
	Amount   decimal.Decimal `json:"amount"`
	Date     string          `json:"date"`
	Note     *string         `json:"note"`
	Category *CategoryRef    `json:"category"`
}

// CategoryUsage is the amount spent against one category in a budget month.
type CategoryUsage struct {
	CategoryID   string          `json:"category_id"`
	SummedAmount decimal.Decimal `json:"summed_amount"`
}

// TrendPoint carries the sums of one bucket.
type TrendPoint struct {
	Label      string          `json:"label"`
	PeriodYear int             `json:"period_year"`
	Expense    decimal.Decimal `json:"expense"`
	Income     decimal.Decimal `json:"income"`
}

// SumByType adds up the amounts of records of type t dated inside w.
func SumByType(records []Record, t Type, w Window) decimal.Decimal {
	sum := decimal.Zero
	for _, r := range records {
		if r.Type == t && w.Contains(r.Date) {
			sum = sum.Add(r.Amount)
		}
	}
	return sum
}

// groupByCategory sums the matching records per category id in one pass.
func groupByCategory(records []Record, t Type, w Window) map[string]decimal.Decimal {
	groups := make(map[string]decimal.Decimal)
	for _, r := range records {
		if r.Type != t || !w.Contains(r.Date) {
			continue
		}
		groups[r.CategoryID] = groups[r.CategoryID].Add(r.Amount)
	}
	return groups
}

// Breakdown groups the records of type t inside w by category. Groups whose
// category is missing from cats are labelled UnknownCategoryName. The result
// is ordered by value, largest first, then by category id.
func Breakdown(records []Record, cats Categories, t Type, w Window) []Slice {
	groups := groupByCategory(records, t, w)

	out := make([]Slice, 0, len(groups))
	for id, value := range groups {
		s := Slice{CategoryID: id, Name: UnknownCategoryName, Value: value}
		if c, ok := cats[id]; ok {
			s.Name = c.Name
			s.Icon = c.Icon
		}
		out = append(out, s)
	}

	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Value.Cmp(out[j].Value); c != 0 {
			return c > 0
		}
		return out[i].CategoryID < out[j].CategoryID
	})
	return out
}

// TopN returns up to n records of type t inside w, largest amount first.
// Equal amounts are ordered by the later date, then by id. n <= 0 selects
// DefaultTopN.
func TopN(records []Record, cats Categories, t Type, w Window, n int) []TopItem {
	if n <= 0 {
		n = DefaultTopN
	}

	var matched []Record
	for _, r := range records {
		if r.Type == t && w.Contains(r.Date) {
			matched = append(matched, r)
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if c := a.Amount.Cmp(b.Amount); c != 0 {
			return c > 0
		}
		if !a.Date.Equal(b.Date) {
			return a.Date.After(b.Date)
		}
		return a.ID < b.ID
	})
	if len(matched) > n {
		matched = matched[:n]
	}

	out := make([]TopItem, 0, len(matched))
	for _, r := range matched {
		item := TopItem{
			ID:     r.ID,
			Amount: r.Amount,
			Date:   r.Date.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
			Note:   r.Note,
		}
		if c, ok := cats[r.CategoryID]; ok {
			item.Category = &CategoryRef{Name: c.Name, Icon: c.Icon}
		}
		out = append(out, item)
	}
	return out
}

// Usage sums the EXPENSE records of a calendar month per category, ordered by
// category id. It is the budget view of Breakdown.
func Usage(records []Record, month, year int, loc *time.Location) ([]CategoryUsage, error) {
	w, err := MonthWindow(month, year, loc)
	if err != nil {
		return nil, err
	}

	groups := groupByCategory(records, TypeExpense, w)
	out := make([]CategoryUsage, 0, len(groups))
	for id, sum := range groups {
		out = append(out, CategoryUsage{CategoryID: id, SummedAmount: sum})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CategoryID < out[j].CategoryID })
	return out, nil
}

// Trend sums expense and income per bucket. Buckets must be ordered and
// non-overlapping, as produced by Partition; each record is placed with a
// binary search instead of rescanning the set per bucket.
func Trend(records []Record, buckets []Bucket) []TrendPoint {
	out := make([]TrendPoint, len(buckets))
	for i, b := range buckets {
		out[i] = TrendPoint{Label: b.Label, PeriodYear: b.PeriodYear, Expense: decimal.Zero, Income: decimal.Zero}
	}

	for _, r := range records {
		i := sort.Search(len(buckets), func(i int) bool { return !buckets[i].PeriodEnd.Before(r.Date) })
		if i == len(buckets) || !buckets[i].Window().Contains(r.Date) {
			continue
		}
		switch r.Type {
		case TypeExpense:
			out[i].Expense = out[i].Expense.Add(r.Amount)
		case TypeIncome:
			out[i].Income = out[i].Income.Add(r.Amount)
		}
	}
	return out
}
