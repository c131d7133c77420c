// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"jizhang/internal/analytics"
)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("transaction_type", validateTransactionType)
		_ = v.RegisterValidation("category_type", validateTransactionType)
		_ = v.RegisterValidation("view_mode", validateViewMode)
		_ = v.RegisterValidation("calendar_date", validateCalendarDate)
	}
}

func validateTransactionType(fl validator.FieldLevel) bool {
	return analytics.Type(fl.Field().String()).Valid()
}

func validateViewMode(fl validator.FieldLevel) bool {
	switch analytics.ViewMode(fl.Field().String()) {
	case analytics.ViewModeDay, analytics.ViewModeWeek, analytics.ViewModeMonth, analytics.ViewModeCustom:
		return true
	}
	return false
}

// validateCalendarDate accepts the same date forms as the reporting queries.
func validateCalendarDate(fl validator.FieldLevel) bool {
	_, err := analytics.ParseDate(fl.Field().String(), time.UTC)
	return err == nil
}
