// Package router wires handlers and middleware into the HTTP engine.
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "jizhang/internal/docs" // swagger docs
	"jizhang/internal/handlers"
	"jizhang/internal/middleware"
)

// Handlers bundles the HTTP handlers served by the API.
type Handlers struct {
	Auth        *handlers.AuthHandler
	Category    *handlers.CategoryHandler
	Transaction *handlers.TransactionHandler
	Budget      *handlers.BudgetHandler
	Analytics   *handlers.AnalyticsHandler
}

// Options tunes the engine.
type Options struct {
	// AdminAPIKey guards /api/v1/admin. While empty those routes answer 503.
	AdminAPIKey string
	// Swagger mounts the API documentation under /swagger.
	Swagger bool
}

func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-API-Key, X-Request-ID")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// New builds the gin engine with every route registered.
func New(h Handlers, opts Options) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogging())
	r.Use(middleware.ErrorHandler())
	r.Use(cors())

	if opts.Swagger {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	r.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("/api/v1")

	// Public routes
	auth := v1.Group("/auth")
	auth.POST("/register", h.Auth.Register)
	auth.POST("/login", h.Auth.Login)
	auth.POST("/refresh", h.Auth.Refresh)

	admin := v1.Group("/admin")
	admin.Use(middleware.AdminKeyMiddleware(opts.AdminAPIKey))
	admin.POST("/categories/seed", h.Category.SeedDefaults)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	protected.GET("/profile", h.Auth.GetProfile)

	categories := protected.Group("/categories")
	categories.POST("", h.Category.CreateCategory)
	categories.GET("", h.Category.GetCategories)
	categories.GET("/:id", h.Category.GetCategory)

	transactions := protected.Group("/transactions")
	transactions.POST("", h.Transaction.CreateTransaction)
	transactions.GET("", h.Transaction.GetUserTransactions)
	transactions.GET("/:id", h.Transaction.GetTransaction)
	transactions.DELETE("/:id", h.Transaction.DeleteTransaction)

	budgets := protected.Group("/budgets")
	budgets.GET("", h.Budget.GetBudgets)
	budgets.POST("", h.Budget.UpsertBudget)
	budgets.GET("/usage", h.Budget.GetUsage)
	budgets.GET("/summary", h.Budget.GetSummary)
	budgets.DELETE("/:id", h.Budget.DeleteBudget)

	reports := protected.Group("/analytics")
	reports.GET("/breakdown", h.Analytics.GetBreakdown)
	reports.GET("/trend", h.Analytics.GetTrend)
	reports.GET("/top", h.Analytics.GetTop)

	return r
}
