package services

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"jizhang/internal/models"
	"jizhang/internal/pagination"
	"jizhang/internal/testutil"
)

func TestCreateTransaction(t *testing.T) {
	ctx := context.Background()
	shanghai := time.FixedZone("CST", 8*3600)

	t.Run("valid_expense", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := NewTransactionService(db)
		user := testutil.CreateTestUser(t, db)
		cat := testutil.CreateTestCategory(t, db, models.CategoryTypeExpense)

		date := time.Date(2024, 3, 1, 7, 30, 0, 0, shanghai)
		tx, err := svc.CreateTransaction(ctx, user.ID, CreateTransactionInput{
			CategoryID: cat.ID,
			Type:       models.TransactionTypeExpense,
			Amount:     decimal.RequireFromString("35.456"),
			Date:       date,
			Note:       strPtr("午饭"),
		})
		testutil.AssertNoError(t, err)

		if tx.ID == "" {
			t.Fatal("expected transaction ID")
		}
		testutil.AssertDecimal(t, tx.Amount, "35.46")
		if tx.Date.Location() != time.UTC || !tx.Date.Equal(date) {
			t.Errorf("expected the same instant in UTC, got %v", tx.Date)
		}
		if tx.Category == nil || tx.Category.ID != cat.ID {
			t.Error("expected category to be attached")
		}
	})

	t.Run("zero_amount_allowed", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := NewTransactionService(db)
		user := testutil.CreateTestUser(t, db)
		cat := testutil.CreateTestCategory(t, db, models.CategoryTypeIncome)

		_, err := svc.CreateTransaction(ctx, user.ID, CreateTransactionInput{
			CategoryID: cat.ID, Type: models.TransactionTypeIncome, Amount: decimal.Zero, Date: time.Now(),
		})
		testutil.AssertNoError(t, err)
	})

	t.Run("inline_category", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := NewTransactionService(db)
		user := testutil.CreateTestUser(t, db)

		in := CreateTransactionInput{
			NewCategory: &NewCategory{Name: "宠物", Icon: strPtr("🐶")},
			Type:        models.TransactionTypeExpense,
			Amount:      decimal.NewFromInt(20),
			Date:        time.Now(),
		}
		first, err := svc.CreateTransaction(ctx, user.ID, in)
		testutil.AssertNoError(t, err)
		second, err := svc.CreateTransaction(ctx, user.ID, in)
		testutil.AssertNoError(t, err)

		if first.CategoryID != second.CategoryID {
			t.Error("expected the inline category to be reused")
		}
		if first.Category.Type != models.CategoryTypeExpense {
			t.Errorf("inline category should take the transaction type, got %s", first.Category.Type)
		}
	})

	t.Run("category_not_found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := NewTransactionService(db)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.CreateTransaction(ctx, user.ID, CreateTransactionInput{
			CategoryID: "0190b8a4-0000-7000-8000-000000000000",
			Type:       models.TransactionTypeExpense,
			Amount:     decimal.NewFromInt(1),
			Date:       time.Now(),
		})
		testutil.AssertAppError(t, err, "CATEGORY_NOT_FOUND")
	})

	t.Run("category_type_mismatch", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := NewTransactionService(db)
		user := testutil.CreateTestUser(t, db)
		cat := testutil.CreateTestCategory(t, db, models.CategoryTypeIncome)

		_, err := svc.CreateTransaction(ctx, user.ID, CreateTransactionInput{
			CategoryID: cat.ID, Type: models.TransactionTypeExpense, Amount: decimal.NewFromInt(1), Date: time.Now(),
		})
		testutil.AssertAppError(t, err, "CATEGORY_TYPE_MISMATCH")
	})

	t.Run("invalid_input", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := NewTransactionService(db)
		user := testutil.CreateTestUser(t, db)
		cat := testutil.CreateTestCategory(t, db, models.CategoryTypeExpense)

		cases := []struct {
			name string
			in   CreateTransactionInput
			code string
		}{
			{"negative_amount", CreateTransactionInput{CategoryID: cat.ID, Type: models.TransactionTypeExpense, Amount: decimal.NewFromInt(-1), Date: time.Now()}, "INVALID_INPUT"},
			{"bad_type", CreateTransactionInput{CategoryID: cat.ID, Type: "TRANSFER", Amount: decimal.NewFromInt(1), Date: time.Now()}, "INVALID_TRANSACTION_TYPE"},
			{"missing_date", CreateTransactionInput{CategoryID: cat.ID, Type: models.TransactionTypeExpense, Amount: decimal.NewFromInt(1)}, "INVALID_INPUT"},
			{"no_category", CreateTransactionInput{Type: models.TransactionTypeExpense, Amount: decimal.NewFromInt(1), Date: time.Now()}, "INVALID_INPUT"},
			{"both_categories", CreateTransactionInput{CategoryID: cat.ID, NewCategory: &NewCategory{Name: "x"}, Type: models.TransactionTypeExpense, Amount: decimal.NewFromInt(1), Date: time.Now()}, "INVALID_INPUT"},
		}
		for _, c := range cases {
			t.Run(c.name, func(t *testing.T) {
				_, err := svc.CreateTransaction(ctx, user.ID, c.in)
				testutil.AssertAppError(t, err, c.code)
			})
		}
	})
}

func TestGetUserTransactions(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	svc := NewTransactionService(db)
	user := testutil.CreateTestUser(t, db)
	other := testutil.CreateTestUser(t, db)
	food := testutil.CreateTestCategory(t, db, models.CategoryTypeExpense)
	salary := testutil.CreateTestCategory(t, db, models.CategoryTypeIncome)

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		testutil.CreateTestTransaction(t, db, user.ID, food, "10", base.AddDate(0, 0, i))
	}
	testutil.CreateTestTransaction(t, db, user.ID, salary, "5000", base.AddDate(0, 0, 10))
	testutil.CreateTestTransaction(t, db, other.ID, food, "99", base)

	t.Run("paginated_newest_first", func(t *testing.T) {
		result, err := svc.GetUserTransactions(ctx, user.ID, pagination.PageRequest{Page: 1, PageSize: 4}, TransactionFilter{})
		testutil.AssertNoError(t, err)

		if result.TotalItems != 6 {
			t.Errorf("expected 6 total items, got %d", result.TotalItems)
		}
		if len(result.Data) != 4 || result.TotalPages != 2 {
			t.Fatalf("expected 4 items over 2 pages, got %d over %d", len(result.Data), result.TotalPages)
		}
		if result.Data[0].Type != models.TransactionTypeIncome {
			t.Error("expected the latest (income) transaction first")
		}
		if result.Data[0].Category == nil {
			t.Error("expected category to be preloaded")
		}
	})

	t.Run("filters", func(t *testing.T) {
		expense := models.TransactionTypeExpense
		from := base.AddDate(0, 0, 1)
		to := base.AddDate(0, 0, 3)
		result, err := svc.GetUserTransactions(ctx, user.ID, pagination.PageRequest{}, TransactionFilter{
			FromDate: &from, ToDate: &to, Type: &expense, CategoryID: &food.ID,
		})
		testutil.AssertNoError(t, err)
		if result.TotalItems != 3 {
			t.Errorf("expected 3 filtered items, got %d", result.TotalItems)
		}
	})
}

func TestGetTransactionByID(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	svc := NewTransactionService(db)
	user := testutil.CreateTestUser(t, db)
	other := testutil.CreateTestUser(t, db)
	cat := testutil.CreateTestCategory(t, db, models.CategoryTypeExpense)
	tx := testutil.CreateTestTransaction(t, db, user.ID, cat, "12.5", time.Now())

	got, err := svc.GetTransactionByID(ctx, user.ID, tx.ID)
	testutil.AssertNoError(t, err)
	testutil.AssertDecimal(t, got.Amount, "12.50")

	_, err = svc.GetTransactionByID(ctx, other.ID, tx.ID)
	testutil.AssertAppError(t, err, "TRANSACTION_NOT_FOUND")
}

func TestDeleteTransaction(t *testing.T) {
	ctx := context.Background()

	t.Run("owner_deletes", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := NewTransactionService(db)
		user := testutil.CreateTestUser(t, db)
		cat := testutil.CreateTestCategory(t, db, models.CategoryTypeExpense)
		tx := testutil.CreateTestTransaction(t, db, user.ID, cat, "10", time.Now())

		testutil.AssertNoError(t, svc.DeleteTransaction(ctx, user.ID, tx.ID))

		_, err := svc.GetTransactionByID(ctx, user.ID, tx.ID)
		testutil.AssertAppError(t, err, "TRANSACTION_NOT_FOUND")
	})

	t.Run("other_user_forbidden", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := NewTransactionService(db)
		owner := testutil.CreateTestUser(t, db)
		intruder := testutil.CreateTestUser(t, db)
		cat := testutil.CreateTestCategory(t, db, models.CategoryTypeExpense)
		tx := testutil.CreateTestTransaction(t, db, owner.ID, cat, "10", time.Now())

		err := svc.DeleteTransaction(ctx, intruder.ID, tx.ID)
		testutil.AssertAppError(t, err, "FORBIDDEN")

		_, err = svc.GetTransactionByID(ctx, owner.ID, tx.ID)
		testutil.AssertNoError(t, err)
	})

	t.Run("missing", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := NewTransactionService(db)
		user := testutil.CreateTestUser(t, db)

		err := svc.DeleteTransaction(ctx, user.ID, "0190b8a4-0000-7000-8000-000000000000")
		testutil.AssertAppError(t, err, "TRANSACTION_NOT_FOUND")
	})
}
