package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "jizhang/internal/errors"
	"jizhang/internal/logger"
	"jizhang/internal/models"
)

// categoryService manages the category table shared by all users.
type categoryService struct {
	db *gorm.DB
}

// NewCategoryService creates a new CategoryServicer.
func NewCategoryService(db *gorm.DB) CategoryServicer {
	return &categoryService{db: db}
}

func normalizeCategory(name string, categoryType models.CategoryType, icon *string) (string, *string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category name is required")
	}
	if categoryType != models.CategoryTypeExpense && categoryType != models.CategoryTypeIncome {
		return "", nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category type must be EXPENSE or INCOME")
	}
	if icon != nil {
		trimmed := strings.TrimSpace(*icon)
		if trimmed == "" {
			icon = nil
		} else {
			icon = &trimmed
		}
	}
	return name, icon, nil
}

// CreateCategory adds a category. A category with the same name and type
// already existing is a conflict.
func (s *categoryService) CreateCategory(ctx context.Context, name string, categoryType models.CategoryType, icon *string) (*models.Category, error) {
	name, icon, err := normalizeCategory(name, categoryType, icon)
	if err != nil {
		return nil, err
	}

	category := &models.Category{Name: name, Icon: icon, Type: categoryType}
	if err := s.db.WithContext(ctx).Create(category).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.ErrDuplicateCategory
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return category, nil
}

// findOrCreateCategory returns the category with the given name and type,
// creating it first if needed. It runs on whatever handle it is given so
// callers can use it inside their own transaction.
func findOrCreateCategory(db *gorm.DB, name string, categoryType models.CategoryType, icon *string) (*models.Category, error) {
	name, icon, err := normalizeCategory(name, categoryType, icon)
	if err != nil {
		return nil, err
	}

	candidate := &models.Category{Name: name, Icon: icon, Type: categoryType}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(candidate).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var category models.Category
	if err := db.Where("name = ? AND type = ?", name, categoryType).First(&category).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &category, nil
}

// ListCategories returns all categories ordered by type then name, optionally
// restricted to one type.
func (s *categoryService) ListCategories(ctx context.Context, categoryType *models.CategoryType) ([]models.Category, error) {
	q := s.db.WithContext(ctx).Model(&models.Category{})
	if categoryType != nil {
		q = q.Where("type = ?", *categoryType)
	}

	categories := []models.Category{}
	if err := q.Order("type ASC").Order("name ASC").Find(&categories).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return categories, nil
}

// GetCategoryByID retrieves a category by ID
func (s *categoryService) GetCategoryByID(ctx context.Context, id string) (*models.Category, error) {
	var category models.Category
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &category, nil
}

// SeedDefaults inserts the default categories that are missing and reports
// how many were added. Running it again is a no-op.
func (s *categoryService) SeedDefaults(ctx context.Context) (int, error) {
	defaults := models.DefaultCategories()
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&defaults)
	if res.Error != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
	}

	logger.Get().Infow("seeded default categories", "inserted", res.RowsAffected, "total", len(defaults))
	return int(res.RowsAffected), nil
}
