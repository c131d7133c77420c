package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"jizhang/internal/config"
	"jizhang/internal/database"
	"jizhang/internal/handlers"
	"jizhang/internal/logger"
	"jizhang/internal/router"
	"jizhang/internal/services"
	"jizhang/internal/validator"
)

// @title           Jizhang API
// @version         1.0
// @description     Jizhang records personal income and expenses and reports on them by day, week, month or custom range.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @securityDefinitions.apikey AdminKey
// @in header
// @name X-API-Key

const shutdownTimeout = 10 * time.Second

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	dbManager, err := database.NewManager(database.NewConfig(appConfig))
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}
	defer func() {
		if err := dbManager.Close(); err != nil {
			log.Warnf("failed to close database: %v", err)
		}
	}()

	if err := dbManager.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	validator.Register()

	// Initialize services
	db := dbManager.DB()
	userService := services.NewUserService(db)
	categoryService := services.NewCategoryService(db)
	transactionService := services.NewTransactionService(db)
	budgetService := services.NewBudgetService(db, appConfig.Timezone)
	analyticsService := services.NewAnalyticsService(db, appConfig.Timezone, services.WithDefaultTopN(appConfig.TopN))
	auditService := services.NewAuditService(db)

	engine := router.New(router.Handlers{
		Auth:        handlers.NewAuthHandler(userService, auditService),
		Category:    handlers.NewCategoryHandler(categoryService, auditService),
		Transaction: handlers.NewTransactionHandler(transactionService, auditService, appConfig.Timezone),
		Budget:      handlers.NewBudgetHandler(budgetService, auditService),
		Analytics:   handlers.NewAnalyticsHandler(analyticsService),
	}, router.Options{
		AdminAPIKey: appConfig.AdminAPIKey,
		Swagger:     appConfig.Env != "production",
	})

	server := &http.Server{
		Addr:              ":" + appConfig.Port,
		Handler:           engine,
		ReadHeaderTimeout: appConfig.ReadHeaderTimeout,
		WriteTimeout:      appConfig.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Infow("Starting Jizhang server", "port", appConfig.Port, "timezone", appConfig.Timezone.String())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}
