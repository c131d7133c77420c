package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	apperrors "jizhang/internal/errors"
	"jizhang/internal/models"
	"jizhang/internal/pagination"
)

// transactionService handles transaction-related business logic.
type transactionService struct {
	db *gorm.DB
}

// NewTransactionService creates a new TransactionServicer.
func NewTransactionService(db *gorm.DB) TransactionServicer {
	return &transactionService{db: db}
}

// CreateTransaction records a transaction. The category must exist and have
// the transaction's type; an inline NewCategory is found or created in the
// same database transaction. Dates are stored in UTC.
func (s *transactionService) CreateTransaction(ctx context.Context, userID string, in CreateTransactionInput) (*models.Transaction, error) {
	if in.Type != models.TransactionTypeExpense && in.Type != models.TransactionTypeIncome {
		return nil, apperrors.ErrInvalidTransactionType
	}
	if in.Amount.IsNegative() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must not be negative")
	}
	if in.Date.IsZero() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "date is required")
	}
	if (in.CategoryID == "") == (in.NewCategory == nil) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "exactly one of category_id and new_category is required")
	}

	transaction := &models.Transaction{
		UserID: userID,
		Type:   in.Type,
		Amount: in.Amount.Round(2),
		Date:   in.Date.UTC(),
		Note:   in.Note,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		category, err := resolveCategory(tx, in)
		if err != nil {
			return err
		}
		if string(category.Type) != string(in.Type) {
			return apperrors.ErrCategoryTypeMismatch
		}

		transaction.CategoryID = category.ID
		transaction.Category = category
		if err := tx.Omit("Category").Create(transaction).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return transaction, nil
}

func resolveCategory(tx *gorm.DB, in CreateTransactionInput) (*models.Category, error) {
	if in.NewCategory != nil {
		return findOrCreateCategory(tx, in.NewCategory.Name, models.CategoryType(in.Type), in.NewCategory.Icon)
	}

	var category models.Category
	if err := tx.Where("id = ?", in.CategoryID).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &category, nil
}

// GetUserTransactions retrieves a paginated, filtered list of the user's
// transactions, newest first.
func (s *transactionService) GetUserTransactions(ctx context.Context, userID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	page.Defaults()

	base := s.db.WithContext(ctx).Model(&models.Transaction{}).Where("user_id = ?", userID)
	base = applyTransactionFilters(base, filter)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var transactions []models.Transaction
	if err := base.Preload("Category").
		Scopes(pagination.Paginate(page)).
		Order("date DESC").Order("id DESC").
		Find(&transactions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(transactions, page.Page, page.PageSize, totalItems)
	return &result, nil
}

func applyTransactionFilters(q *gorm.DB, f TransactionFilter) *gorm.DB {
	if f.FromDate != nil {
		q = q.Where("date >= ?", f.FromDate.UTC())
	}
	if f.ToDate != nil {
		q = q.Where("date <= ?", f.ToDate.UTC())
	}
	if f.Type != nil {
		q = q.Where("type = ?", *f.Type)
	}
	if f.CategoryID != nil {
		q = q.Where("category_id = ?", *f.CategoryID)
	}
	return q
}

// GetTransactionByID retrieves one of the user's transactions.
func (s *transactionService) GetTransactionByID(ctx context.Context, userID, transactionID string) (*models.Transaction, error) {
	var transaction models.Transaction
	err := s.db.WithContext(ctx).Preload("Category").
		Where("id = ? AND user_id = ?", transactionID, userID).
		First(&transaction).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &transaction, nil
}

// DeleteTransaction removes a transaction after checking the stored owner.
// A missing row is NotFound; a row owned by someone else is Forbidden.
func (s *transactionService) DeleteTransaction(ctx context.Context, userID, transactionID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var transaction models.Transaction
		if err := tx.Select("id", "user_id").Where("id = ?", transactionID).First(&transaction).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrTransactionNotFound
			}
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if transaction.UserID != userID {
			return apperrors.ErrForbidden
		}

		res := tx.Where("id = ? AND user_id = ?", transactionID, userID).Delete(&models.Transaction{})
		if res.Error != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
		}
		if res.RowsAffected == 0 {
			return apperrors.ErrTransactionNotFound
		}
		return nil
	})
}
