package analytics

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testCats = IndexCategories([]Category{
	{ID: "food", Name: "餐饮", Icon: "🍜", Type: TypeExpense},
	{ID: "rent", Name: "住房", Icon: "🏠", Type: TypeExpense},
	{ID: "salary", Name: "工资", Icon: "💰", Type: TypeIncome},
})

func rec(id, cat string, typ Type, amount string, at time.Time) Record {
	return Record{ID: id, UserID: "u1", Type: typ, Amount: decimal.RequireFromString(amount), Date: at, CategoryID: cat}
}

func day(d int) time.Time {
	return time.Date(2024, 3, d, 12, 0, 0, 0, shanghai)
}

func marchRecords() []Record {
	return []Record{
		rec("t1", "food", TypeExpense, "30", day(1)),
		rec("t2", "food", TypeExpense, "45.5", day(5)),
		rec("t3", "rent", TypeExpense, "3000", day(1)),
		rec("t4", "salary", TypeIncome, "9000", day(10)),
		rec("t5", "gone", TypeExpense, "12", day(20)),
		rec("t6", "food", TypeExpense, "80", time.Date(2024, 2, 29, 23, 0, 0, 0, shanghai)),
		rec("t7", "food", TypeExpense, "80", time.Date(2024, 4, 1, 0, 0, 0, 0, shanghai)),
	}
}

func march(t *testing.T) Window {
	t.Helper()
	w, err := MonthWindow(3, 2024, shanghai)
	require.NoError(t, err)
	return w
}

func TestSumByType(t *testing.T) {
	w := march(t)
	records := marchRecords()

	assert.True(t, SumByType(records, TypeExpense, w).Equal(decimal.RequireFromString("3087.5")))
	assert.True(t, SumByType(records, TypeIncome, w).Equal(decimal.NewFromInt(9000)))
	assert.True(t, SumByType(nil, TypeExpense, w).IsZero())
}

func TestBreakdown(t *testing.T) {
	w := march(t)
	records := marchRecords()

	slices := Breakdown(records, testCats, TypeExpense, w)
	require.Len(t, slices, 3)
	assert.Equal(t, "住房", slices[0].Name)
	assert.Equal(t, "🏠", slices[0].Icon)
	assert.Equal(t, "餐饮", slices[1].Name)
	assert.True(t, slices[1].Value.Equal(decimal.RequireFromString("75.5")))
	assert.Equal(t, UnknownCategoryName, slices[2].Name)
	assert.Equal(t, "gone", slices[2].CategoryID)

	sum := decimal.Zero
	for _, s := range slices {
		sum = sum.Add(s.Value)
	}
	assert.True(t, sum.Equal(SumByType(records, TypeExpense, w)), "slices must add up to the total")

	t.Run("income", func(t *testing.T) {
		slices := Breakdown(records, testCats, TypeIncome, w)
		require.Len(t, slices, 1)
		assert.Equal(t, "工资", slices[0].Name)
	})

	t.Run("empty", func(t *testing.T) {
		assert.Empty(t, Breakdown(nil, testCats, TypeExpense, w))
	})

	t.Run("ties ordered by category id", func(t *testing.T) {
		tied := []Record{
			rec("a", "rent", TypeExpense, "10", day(2)),
			rec("b", "food", TypeExpense, "10", day(3)),
		}
		slices := Breakdown(tied, testCats, TypeExpense, w)
		require.Len(t, slices, 2)
		assert.Equal(t, "food", slices[0].CategoryID)
	})
}

func TestTopN(t *testing.T) {
	w := march(t)
	records := marchRecords()
	records = append(records,
		rec("t8", "food", TypeExpense, "45.5", day(6)),
		rec("t9", "food", TypeExpense, "1", day(7)),
	)

	t.Run("default length", func(t *testing.T) {
		top := TopN(records, testCats, TypeExpense, w, 0)
		require.Len(t, top, DefaultTopN)
		assert.Equal(t, "t3", top[0].ID)
		// Equal amounts: the later one first.
		assert.Equal(t, "t8", top[1].ID)
		assert.Equal(t, "t2", top[2].ID)
		for i := 1; i < len(top); i++ {
			assert.True(t, top[i-1].Amount.GreaterThanOrEqual(top[i].Amount))
		}
	})

	t.Run("explicit length", func(t *testing.T) {
		top := TopN(records, testCats, TypeExpense, w, 2)
		assert.Len(t, top, 2)
	})

	t.Run("fewer records than n", func(t *testing.T) {
		top := TopN(records, testCats, TypeIncome, w, 5)
		require.Len(t, top, 1)
		assert.Equal(t, "工资", top[0].Category.Name)
		assert.Equal(t, "2024-03-10T04:00:00.000Z", top[0].Date)
	})

	t.Run("unknown category has no ref", func(t *testing.T) {
		top := TopN([]Record{rec("x", "gone", TypeExpense, "5", day(2))}, testCats, TypeExpense, w, 1)
		require.Len(t, top, 1)
		assert.Nil(t, top[0].Category)
	})
}

func TestUsage(t *testing.T) {
	usage, err := Usage(marchRecords(), 3, 2024, shanghai)
	require.NoError(t, err)
	require.Len(t, usage, 3)
	assert.Equal(t, []string{"food", "gone", "rent"}, []string{usage[0].CategoryID, usage[1].CategoryID, usage[2].CategoryID})
	assert.True(t, usage[0].SummedAmount.Equal(decimal.RequireFromString("75.5")))

	_, err = Usage(nil, 13, 2024, shanghai)
	assertInvalidParameter(t, err)
}

func TestTrend(t *testing.T) {
	buckets, err := Partition(Query{ViewMode: ViewModeCustom, StartDate: "2024-03-01", EndDate: "2024-03-10"}, refNow, shanghai)
	require.NoError(t, err)

	points := Trend(marchRecords(), buckets)
	require.Len(t, points, 10)
	assert.True(t, points[0].Expense.Equal(decimal.NewFromInt(3030)))
	assert.True(t, points[4].Expense.Equal(decimal.RequireFromString("45.5")))
	assert.True(t, points[9].Income.Equal(decimal.NewFromInt(9000)))
	assert.True(t, points[1].Expense.IsZero())
	assert.Equal(t, "3/1", points[0].Label)
	assert.Equal(t, 2024, points[0].PeriodYear)

	t.Run("bucket edges", func(t *testing.T) {
		edge := []Record{
			rec("start", "food", TypeExpense, "1", buckets[1].PeriodStart),
			rec("end", "food", TypeExpense, "2", buckets[1].PeriodEnd),
			rec("before", "food", TypeExpense, "4", buckets[0].PeriodStart.Add(-time.Millisecond)),
		}
		points := Trend(edge, buckets)
		assert.True(t, points[1].Expense.Equal(decimal.NewFromInt(3)))
		assert.True(t, points[0].Expense.IsZero())
	})

	t.Run("no buckets", func(t *testing.T) {
		assert.Empty(t, Trend(marchRecords(), nil))
	})
}

func BenchmarkTrend(b *testing.B) {
	buckets, _ := Partition(Query{ViewMode: ViewModeCustom, StartDate: "2023-01-01", EndDate: "2024-03-01"}, refNow, shanghai)
	records := make([]Record, 0, 10000)
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, shanghai)
	for i := 0; i < cap(records); i++ {
		records = append(records, rec(fmt.Sprint(i), "food", TypeExpense, "1", start.Add(time.Duration(i)*time.Hour)))
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Trend(records, buckets)
	}
}
