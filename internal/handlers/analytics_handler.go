package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"jizhang/internal/analytics"
	apperrors "jizhang/internal/errors"
	"jizhang/internal/services"
)

// AnalyticsHandler serves the reporting endpoints.
type AnalyticsHandler struct {
	analyticsService services.AnalyticsServicer
}

// NewAnalyticsHandler creates a new AnalyticsHandler.
func NewAnalyticsHandler(analyticsService services.AnalyticsServicer) *AnalyticsHandler {
	return &AnalyticsHandler{analyticsService: analyticsService}
}

// ReportQuery is the query string shared by the reporting endpoints.
type ReportQuery struct {
	ViewMode  string `form:"view_mode" binding:"omitempty,view_mode"`
	Month     *int   `form:"month" binding:"omitempty,min=1,max=12"`
	Year      *int   `form:"year" binding:"omitempty,min=1900,max=9999"`
	Date      string `form:"date" binding:"omitempty,calendar_date"`
	StartDate string `form:"start_date" binding:"omitempty,calendar_date"`
	EndDate   string `form:"end_date" binding:"omitempty,calendar_date"`
	Type      string `form:"transaction_type" binding:"omitempty,transaction_type"`
}

// TopQuery adds the ranking length to a report query.
type TopQuery struct {
	N int `form:"n" binding:"omitempty,min=1,max=100"`
}

func bindReportQuery(c *gin.Context, userID string) (analytics.Query, error) {
	var req ReportQuery
	if err := c.ShouldBindQuery(&req); err != nil {
		return analytics.Query{}, apperrors.WithMessage(apperrors.ErrInvalidParameter, err.Error())
	}
	q := analytics.Query{
		ViewMode:  analytics.ViewMode(req.ViewMode),
		Date:      req.Date,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		Type:      analytics.Type(req.Type),
		UserID:    userID,
	}
	if req.Month != nil {
		q.Month = *req.Month
	}
	if req.Year != nil {
		q.Year = *req.Year
	}
	return q, nil
}

// GetBreakdown groups the window's transactions by category.
// @Summary     Category breakdown
// @Description Sum of one transaction type per category over a day, week, month or custom range
// @Tags        analytics
// @Produce     json
// @Security    BearerAuth
// @Param       view_mode        query string false "day, week, month (default) or custom"
// @Param       month            query int    false "Month for view_mode=month"
// @Param       year             query int    false "Year for view_mode=month"
// @Param       date             query string false "Day for view_mode=day"
// @Param       start_date       query string false "Range start"
// @Param       end_date         query string false "Range end"
// @Param       transaction_type query string false "EXPENSE (default) or INCOME"
// @Success     200 {object} services.BreakdownResult "Breakdown"
// @Failure     400 {object} ErrorResponse "Invalid parameter"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /analytics/breakdown [get]
func (h *AnalyticsHandler) GetBreakdown(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	q, err := bindReportQuery(c, userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.analyticsService.GetBreakdown(c.Request.Context(), q)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetTrend returns bucketed expense and income sums.
// @Summary     Trend
// @Description Expense and income per day (last 7 days), week (last 4), month (last 6) or across a custom range
// @Tags        analytics
// @Produce     json
// @Security    BearerAuth
// @Param       view_mode  query string false "day, week, month (default) or custom"
// @Param       start_date query string false "Range start for view_mode=custom"
// @Param       end_date   query string false "Range end for view_mode=custom"
// @Success     200 {object} services.TrendResult "Trend"
// @Failure     400 {object} ErrorResponse "Invalid parameter"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /analytics/trend [get]
func (h *AnalyticsHandler) GetTrend(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	q, err := bindReportQuery(c, userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.analyticsService.GetTrend(c.Request.Context(), q)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetTop ranks the window's largest transactions.
// @Summary     Top transactions
// @Tags        analytics
// @Produce     json
// @Security    BearerAuth
// @Param       view_mode        query string false "day, week, month (default) or custom"
// @Param       month            query int    false "Month for view_mode=month"
// @Param       year             query int    false "Year for view_mode=month"
// @Param       date             query string false "Day for view_mode=day"
// @Param       start_date       query string false "Range start"
// @Param       end_date         query string false "Range end"
// @Param       transaction_type query string false "EXPENSE (default) or INCOME"
// @Param       n                query int    false "Number of items (default 5)"
// @Success     200 {object} services.TopResult "Ranking"
// @Failure     400 {object} ErrorResponse "Invalid parameter"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /analytics/top [get]
func (h *AnalyticsHandler) GetTop(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	q, err := bindReportQuery(c, userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var top TopQuery
	if err := c.ShouldBindQuery(&top); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidParameter, err.Error()))
		return
	}

	result, err := h.analyticsService.GetTop(c.Request.Context(), q, top.N)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
