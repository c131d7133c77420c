package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "jizhang/internal/errors"
	"jizhang/internal/services"
)

// BudgetHandler handles budget-related requests.
type BudgetHandler struct {
	budgetService services.BudgetServicer
	auditService  services.AuditServicer
}

// NewBudgetHandler creates a new BudgetHandler.
func NewBudgetHandler(budgetService services.BudgetServicer, auditService services.AuditServicer) *BudgetHandler {
	return &BudgetHandler{budgetService: budgetService, auditService: auditService}
}

// MonthQuery selects a budget month.
type MonthQuery struct {
	Month int `form:"month" binding:"required,min=1,max=12"`
	Year  int `form:"year" binding:"required,min=1900,max=9999"`
}

// UpsertBudgetRequest represents the request payload for setting a budget.
type UpsertBudgetRequest struct {
	CategoryID string           `json:"category_id" binding:"required,uuid"`
	Month      int              `json:"month" binding:"required,min=1,max=12"`
	Year       int              `json:"year" binding:"required,min=1900,max=9999"`
	Amount     *decimal.Decimal `json:"amount" binding:"required" swaggertype:"number"`
}

func bindMonth(c *gin.Context) (MonthQuery, error) {
	var q MonthQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		return q, apperrors.WithMessage(apperrors.ErrInvalidParameter, err.Error())
	}
	return q, nil
}

// GetBudgets handles listing budgets of one month.
// @Summary     Get budgets
// @Description Get the authenticated user's budgets for a month
// @Tags        budgets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       month query int true "Month (1-12)"
// @Param       year  query int true "Year"
// @Success     200 {array}  models.Budget "Budgets"
// @Failure     400 {object} ErrorResponse "Invalid parameter"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets [get]
func (h *BudgetHandler) GetBudgets(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	q, err := bindMonth(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgets, err := h.budgetService.GetBudgets(c.Request.Context(), userID, q.Month, q.Year)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"budgets": budgets})
}

// UpsertBudget creates or replaces the budget of a category for a month.
// @Summary     Set a budget
// @Description Create the budget for a category and month, or update its amount if one exists
// @Tags        budgets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body UpsertBudgetRequest true "Budget details"
// @Success     200 {object} models.Budget "Stored budget"
// @Failure     400 {object} ErrorResponse "Invalid input or not an expense category"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Failure     409 {object} ErrorResponse "Concurrent update"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets [post]
func (h *BudgetHandler) UpsertBudget(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpsertBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	budget, err := h.budgetService.UpsertBudget(c.Request.Context(), userID, req.CategoryID, req.Month, req.Year, *req.Amount)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.Request.Context(), userID, services.AuditUpsertBudget, "budget", budget.ID, c.ClientIP(),
		map[string]interface{}{"category_id": req.CategoryID, "month": req.Month, "year": req.Year, "amount": budget.Amount.String()})

	c.JSON(http.StatusOK, gin.H{"budget": budget})
}

// DeleteBudget handles deleting a budget.
// @Summary     Delete budget
// @Description Delete one of the authenticated user's budgets
// @Tags        budgets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Budget ID"
// @Success     200 {object} MessageResponse "Budget deleted"
// @Failure     400 {object} ErrorResponse "Invalid budget ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Budget belongs to another user"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/{id} [delete]
func (h *BudgetHandler) DeleteBudget(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.budgetService.DeleteBudget(c.Request.Context(), userID, budgetID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.Request.Context(), userID, services.AuditDeleteBudget, "budget", budgetID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, MessageResponse{Message: "Budget deleted successfully"})
}

// GetUsage returns the month's spending per expense category.
// @Summary     Get budget usage
// @Tags        budgets
// @Produce     json
// @Security    BearerAuth
// @Param       month query int true "Month (1-12)"
// @Param       year  query int true "Year"
// @Success     200 {array}  analytics.CategoryUsage "Spending per category"
// @Failure     400 {object} ErrorResponse "Invalid parameter"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /budgets/usage [get]
func (h *BudgetHandler) GetUsage(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	q, err := bindMonth(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	usage, err := h.budgetService.GetUsage(c.Request.Context(), userID, q.Month, q.Year)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"usage": usage})
}

// GetSummary returns every expense category with its budget evaluation.
// @Summary     Get budget summary
// @Description Budget, spending and warning state per expense category plus the month total
// @Tags        budgets
// @Produce     json
// @Security    BearerAuth
// @Param       month query int true "Month (1-12)"
// @Param       year  query int true "Year"
// @Success     200 {object} services.BudgetSummary "Budget summary"
// @Failure     400 {object} ErrorResponse "Invalid parameter"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /budgets/summary [get]
func (h *BudgetHandler) GetSummary(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	q, err := bindMonth(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	summary, err := h.budgetService.GetSummary(c.Request.Context(), userID, q.Month, q.Year)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}
