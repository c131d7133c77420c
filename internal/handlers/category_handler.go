package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "jizhang/internal/errors"
	"jizhang/internal/models"
	"jizhang/internal/services"
)

// CategoryHandler handles category-related requests
type CategoryHandler struct {
	categoryService services.CategoryServicer
	auditService    services.AuditServicer
}

// NewCategoryHandler creates a new CategoryHandler
func NewCategoryHandler(categoryService services.CategoryServicer, auditService services.AuditServicer) *CategoryHandler {
	return &CategoryHandler{categoryService: categoryService, auditService: auditService}
}

// CreateCategoryRequest represents the request payload for creating a category
type CreateCategoryRequest struct {
	Name string              `json:"name" binding:"required,max=50"`
	Type models.CategoryType `json:"type" binding:"required,category_type"`
	Icon *string             `json:"icon" binding:"omitempty,max=16"`
}

// SeedResponse reports how many default categories were inserted.
type SeedResponse struct {
	Inserted int `json:"inserted"`
}

// CreateCategory handles the creation of a new category
// @Summary     Create a category
// @Description Create a new shared category. Name and type together must be unique.
// @Tags        categories
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateCategoryRequest true "Category details"
// @Success     201 {object} models.Category "Category created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     409 {object} ErrorResponse "Category already exists"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /categories [post]
func (h *CategoryHandler) CreateCategory(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	category, err := h.categoryService.CreateCategory(c.Request.Context(), req.Name, req.Type, req.Icon)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.Request.Context(), userID, services.AuditCreateCategory, "category", category.ID, c.ClientIP(),
		map[string]interface{}{"name": category.Name, "type": category.Type})

	c.JSON(http.StatusCreated, gin.H{"category": category})
}

// GetCategories lists categories, optionally of one type.
// @Summary     List categories
// @Description List all categories ordered by type and name
// @Tags        categories
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       type query string false "EXPENSE or INCOME"
// @Success     200 {array}  models.Category "Categories"
// @Failure     400 {object} ErrorResponse "Invalid type"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /categories [get]
func (h *CategoryHandler) GetCategories(c *gin.Context) {
	var filter *models.CategoryType
	if v := c.Query("type"); v != "" {
		t := models.CategoryType(v)
		if t != models.CategoryTypeExpense && t != models.CategoryTypeIncome {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "type must be EXPENSE or INCOME"))
			return
		}
		filter = &t
	}

	categories, err := h.categoryService.ListCategories(c.Request.Context(), filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

// GetCategory returns one category.
// @Summary     Get category by ID
// @Tags        categories
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Category ID"
// @Success     200 {object} models.Category "Category details"
// @Failure     400 {object} ErrorResponse "Invalid category ID"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Router      /categories/{id} [get]
func (h *CategoryHandler) GetCategory(c *gin.Context) {
	categoryID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	category, err := h.categoryService.GetCategoryByID(c.Request.Context(), categoryID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"category": category})
}

// SeedDefaults inserts the default category set, skipping existing entries.
// @Summary     Seed default categories
// @Tags        admin
// @Produce     json
// @Param       X-API-Key header string true "Admin API key"
// @Success     200 {object} SeedResponse "Number of inserted categories"
// @Failure     401 {object} ErrorResponse "Invalid API key"
// @Failure     503 {object} ErrorResponse "Admin endpoints disabled"
// @Router      /admin/categories/seed [post]
func (h *CategoryHandler) SeedDefaults(c *gin.Context) {
	inserted, err := h.categoryService.SeedDefaults(c.Request.Context())
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, SeedResponse{Inserted: inserted})
}
