package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"jizhang/internal/analytics"
	"jizhang/internal/models"
	"jizhang/internal/pagination"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(ctx context.Context, email, password, firstName, lastName string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
	AttemptLogin(ctx context.Context, email, password string) (*models.User, error)
	StoreRefreshTokenHash(ctx context.Context, userID, tokenHash string) error
	GetRefreshTokenHash(ctx context.Context, userID string) (string, error)
}

// CategoryServicer defines the contract for the shared category table.
type CategoryServicer interface {
	CreateCategory(ctx context.Context, name string, categoryType models.CategoryType, icon *string) (*models.Category, error)
	ListCategories(ctx context.Context, categoryType *models.CategoryType) ([]models.Category, error)
	GetCategoryByID(ctx context.Context, id string) (*models.Category, error)
	SeedDefaults(ctx context.Context) (int, error)
}

// TransactionFilter holds optional filter parameters for listing transactions.
type TransactionFilter struct {
	FromDate   *time.Time
	ToDate     *time.Time
	Type       *models.TransactionType
	CategoryID *string
}

// NewCategory describes a category created inline while recording a
// transaction. An existing category with the same name and type is reused.
type NewCategory struct {
	Name string
	Icon *string
}

// CreateTransactionInput carries the fields of a new transaction. Exactly one
// of CategoryID and NewCategory is expected.
type CreateTransactionInput struct {
	CategoryID  string
	NewCategory *NewCategory
	Type        models.TransactionType
	Amount      decimal.Decimal
	Date        time.Time
	Note        *string
}

// TransactionServicer defines the contract for transaction-related business logic.
type TransactionServicer interface {
	CreateTransaction(ctx context.Context, userID string, in CreateTransactionInput) (*models.Transaction, error)
	GetUserTransactions(ctx context.Context, userID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
	GetTransactionByID(ctx context.Context, userID, transactionID string) (*models.Transaction, error)
	DeleteTransaction(ctx context.Context, userID, transactionID string) error
}

// BudgetLine is one expense category in a monthly budget summary.
type BudgetLine struct {
	CategoryID string                   `json:"category_id"`
	Name       string                   `json:"name"`
	Icon       string                   `json:"icon"`
	BudgetID   *string                  `json:"budget_id"`
	Budget     *decimal.Decimal         `json:"budget"`
	Spent      decimal.Decimal          `json:"spent"`
	Evaluation analytics.BudgetSnapshot `json:"evaluation"`
}

// BudgetSummary is the dashboard view of a month: every expense category with
// its budget and spending, plus the rolled-up total.
type BudgetSummary struct {
	Month int                      `json:"month"`
	Year  int                      `json:"year"`
	Items []BudgetLine             `json:"items"`
	Total analytics.BudgetSnapshot `json:"total"`
}

// BudgetServicer defines the contract for budget-related business logic.
type BudgetServicer interface {
	GetBudgets(ctx context.Context, userID string, month, year int) ([]models.Budget, error)
	UpsertBudget(ctx context.Context, userID, categoryID string, month, year int, amount decimal.Decimal) (*models.Budget, error)
	DeleteBudget(ctx context.Context, userID, budgetID string) error
	GetUsage(ctx context.Context, userID string, month, year int) ([]analytics.CategoryUsage, error)
	GetSummary(ctx context.Context, userID string, month, year int) (*BudgetSummary, error)
}

// BreakdownResult is a category breakdown together with the window it covers.
type BreakdownResult struct {
	Window analytics.Window  `json:"window"`
	Type   analytics.Type    `json:"transaction_type"`
	Total  decimal.Decimal   `json:"total"`
	Data   []analytics.Slice `json:"data"`
}

// TrendResult is a bucketed expense/income series.
type TrendResult struct {
	Window analytics.Window       `json:"window"`
	Data   []analytics.TrendPoint `json:"data"`
}

// TopResult is a top-N ranking together with the window it covers.
type TopResult struct {
	Window analytics.Window    `json:"window"`
	Type   analytics.Type      `json:"transaction_type"`
	Data   []analytics.TopItem `json:"data"`
}

// AnalyticsServicer runs the aggregation engine over a user's stored
// transactions.
type AnalyticsServicer interface {
	GetBreakdown(ctx context.Context, q analytics.Query) (*BreakdownResult, error)
	GetTrend(ctx context.Context, q analytics.Query) (*TrendResult, error)
	GetTop(ctx context.Context, q analytics.Query, n int) (*TopResult, error)
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(ctx context.Context, userID, action, resourceType, resourceID, ipAddress string, changes map[string]interface{})
}
