package models

import "jizhang/internal/analytics"

// CategoryType represents the type of category
type CategoryType string

const (
	CategoryTypeExpense CategoryType = "EXPENSE"
	CategoryTypeIncome  CategoryType = "INCOME"
)

// Category is a shared lookup entry; categories are global, not owned by a
// user. Name and type together are unique.
type Category struct {
	Base
	Name string       `gorm:"not null;uniqueIndex:idx_categories_name_type" json:"name"`
	Icon *string      `json:"icon"`
	Type CategoryType `gorm:"not null;uniqueIndex:idx_categories_name_type;index" json:"type"`
}

// IconOrEmpty returns the icon, or "" when none is set.
func (c Category) IconOrEmpty() string {
	if c.Icon == nil {
		return ""
	}
	return *c.Icon
}

// Info converts the row into the aggregation engine's representation.
func (c Category) Info() analytics.Category {
	return analytics.Category{
		ID:   c.ID,
		Name: c.Name,
		Icon: c.IconOrEmpty(),
		Type: analytics.Type(c.Type),
	}
}

// DefaultCategories is the set seeded into an empty category table.
func DefaultCategories() []Category {
	defaults := []struct {
		name, icon string
		typ        CategoryType
	}{
		{"餐饮", "🍜", CategoryTypeExpense},
		{"交通", "🚗", CategoryTypeExpense},
		{"购物", "🛒", CategoryTypeExpense},
		{"娱乐", "🎮", CategoryTypeExpense},
		{"住房", "🏠", CategoryTypeExpense},
		{"医疗", "💊", CategoryTypeExpense},
		{"教育", "📚", CategoryTypeExpense},
		{"其他支出", "💸", CategoryTypeExpense},
		{"工资", "💰", CategoryTypeIncome},
		{"奖金", "🎁", CategoryTypeIncome},
		{"投资收益", "📈", CategoryTypeIncome},
		{"其他收入", "💵", CategoryTypeIncome},
	}

	out := make([]Category, 0, len(defaults))
	for _, d := range defaults {
		icon := d.icon
		out = append(out, Category{Name: d.name, Icon: &icon, Type: d.typ})
	}
	return out
}
