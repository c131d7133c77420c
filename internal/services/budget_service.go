package services

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"jizhang/internal/analytics"
	apperrors "jizhang/internal/errors"
	"jizhang/internal/models"
)

// budgetService handles monthly category budgets.
type budgetService struct {
	db  *gorm.DB
	loc *time.Location
}

// NewBudgetService creates a new BudgetServicer. loc decides which calendar
// month a transaction falls in.
func NewBudgetService(db *gorm.DB, loc *time.Location) BudgetServicer {
	return &budgetService{db: db, loc: loc}
}

// GetBudgets lists the user's budgets for a month with their categories.
func (s *budgetService) GetBudgets(ctx context.Context, userID string, month, year int) ([]models.Budget, error) {
	if _, err := analytics.MonthWindow(month, year, s.loc); err != nil {
		return nil, err
	}

	budgets := []models.Budget{}
	err := s.db.WithContext(ctx).Preload("Category").
		Where("user_id = ? AND month = ? AND year = ?", userID, month, year).
		Order("category_id ASC").
		Find(&budgets).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return budgets, nil
}

// UpsertBudget sets the amount of the user's budget for a category and month
// with a single INSERT ... ON CONFLICT DO UPDATE on the natural key, so two
// concurrent writers never both insert.
func (s *budgetService) UpsertBudget(ctx context.Context, userID, categoryID string, month, year int, amount decimal.Decimal) (*models.Budget, error) {
	if _, err := analytics.MonthWindow(month, year, s.loc); err != nil {
		return nil, err
	}
	if amount.IsNegative() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must not be negative")
	}

	db := s.db.WithContext(ctx)

	var category models.Category
	if err := db.Where("id = ?", categoryID).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if category.Type != models.CategoryTypeExpense {
		return nil, apperrors.WithMessage(apperrors.ErrCategoryTypeMismatch, "budgets can only be set on expense categories")
	}

	budget := &models.Budget{
		UserID:     userID,
		CategoryID: categoryID,
		Month:      month,
		Year:       year,
		Amount:     amount.Round(2),
	}
	err := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "category_id"}, {Name: "month"}, {Name: "year"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"amount":     budget.Amount,
			"updated_at": time.Now().UTC(),
		}),
	}).Create(budget).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.Wrap(apperrors.ErrConcurrencyConflict, err)
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	// On update the generated id was discarded; read the row back by key.
	var stored models.Budget
	err = db.Preload("Category").
		Where("user_id = ? AND category_id = ? AND month = ? AND year = ?", userID, categoryID, month, year).
		First(&stored).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &stored, nil
}

// DeleteBudget removes a budget after checking the stored owner.
func (s *budgetService) DeleteBudget(ctx context.Context, userID, budgetID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var budget models.Budget
		if err := tx.Select("id", "user_id").Where("id = ?", budgetID).First(&budget).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrBudgetNotFound
			}
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if budget.UserID != userID {
			return apperrors.ErrForbidden
		}

		res := tx.Where("id = ? AND user_id = ?", budgetID, userID).Delete(&models.Budget{})
		if res.Error != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
		}
		if res.RowsAffected == 0 {
			return apperrors.ErrBudgetNotFound
		}
		return nil
	})
}

// monthRecords loads the user's expense records dated inside the month.
func (s *budgetService) monthRecords(ctx context.Context, userID string, w analytics.Window) ([]analytics.Record, error) {
	var rows []models.Transaction
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND type = ? AND date >= ? AND date <= ?",
			userID, models.TransactionTypeExpense, w.Start.UTC(), w.End.UTC()).
		Find(&rows).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	records := make([]analytics.Record, len(rows))
	for i, row := range rows {
		records[i] = row.Record()
	}
	return records, nil
}

// GetUsage sums the user's spending per category for a month.
func (s *budgetService) GetUsage(ctx context.Context, userID string, month, year int) ([]analytics.CategoryUsage, error) {
	w, err := analytics.MonthWindow(month, year, s.loc)
	if err != nil {
		return nil, err
	}
	records, err := s.monthRecords(ctx, userID, w)
	if err != nil {
		return nil, err
	}
	return analytics.Usage(records, month, year, s.loc)
}

// GetSummary combines budgets and usage into one line per expense category,
// each evaluated on its own, and a total across all categories.
func (s *budgetService) GetSummary(ctx context.Context, userID string, month, year int) (*BudgetSummary, error) {
	usage, err := s.GetUsage(ctx, userID, month, year)
	if err != nil {
		return nil, err
	}
	budgets, err := s.GetBudgets(ctx, userID, month, year)
	if err != nil {
		return nil, err
	}

	var categories []models.Category
	err = s.db.WithContext(ctx).
		Where("type = ?", models.CategoryTypeExpense).
		Order("name ASC").
		Find(&categories).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	spentBy := make(map[string]decimal.Decimal, len(usage))
	for _, u := range usage {
		spentBy[u.CategoryID] = u.SummedAmount
	}
	budgetBy := make(map[string]models.Budget, len(budgets))
	for _, b := range budgets {
		budgetBy[b.CategoryID] = b
	}

	summary := &BudgetSummary{Month: month, Year: year, Items: make([]BudgetLine, 0, len(categories))}
	inputs := make([]analytics.BudgetInput, 0, len(categories))
	for _, c := range categories {
		spent := spentBy[c.ID]
		line := BudgetLine{
			CategoryID: c.ID,
			Name:       c.Name,
			Icon:       c.IconOrEmpty(),
			Spent:      spent,
		}

		in := analytics.BudgetInput{Spent: spent.InexactFloat64()}
		if b, ok := budgetBy[c.ID]; ok {
			id, amount := b.ID, b.Amount
			line.BudgetID = &id
			line.Budget = &amount
			in.Limit = analytics.Limit(amount.InexactFloat64())
		}
		line.Evaluation = analytics.Evaluate(in).Snapshot()

		summary.Items = append(summary.Items, line)
		inputs = append(inputs, in)
		delete(spentBy, c.ID)
	}
	// Spending on categories outside the expense list still counts toward
	// the total, without a limit of its own.
	for _, u := range usage {
		if spent, ok := spentBy[u.CategoryID]; ok {
			inputs = append(inputs, analytics.BudgetInput{Spent: spent.InexactFloat64()})
		}
	}
	summary.Total = analytics.EvaluateTotal(inputs).Snapshot()

	return summary, nil
}

