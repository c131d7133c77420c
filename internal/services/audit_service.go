package services

import (
	"context"
	"encoding/json"

	"gorm.io/gorm"

	"jizhang/internal/logger"
	"jizhang/internal/models"
)

// Audit actions.
const (
	AuditCreateTransaction = "CREATE_TRANSACTION"
	AuditDeleteTransaction = "DELETE_TRANSACTION"
	AuditUpsertBudget      = "UPSERT_BUDGET"
	AuditDeleteBudget      = "DELETE_BUDGET"
	AuditCreateCategory    = "CREATE_CATEGORY"
	AuditRegister          = "REGISTER"
	AuditLogin             = "LOGIN"
)

// auditService handles audit log recording.
type auditService struct {
	db *gorm.DB
}

// NewAuditService creates a new AuditServicer.
func NewAuditService(db *gorm.DB) AuditServicer {
	return &auditService{db: db}
}

// Log records an audit event. Failures are logged and swallowed so auditing
// never breaks the request that triggered it.
func (s *auditService) Log(ctx context.Context, userID, action, resourceType, resourceID, ipAddress string, changes map[string]interface{}) {
	var changesJSON string
	if changes != nil {
		data, err := json.Marshal(changes)
		if err != nil {
			logger.Get().Errorw("failed to marshal audit log changes", "error", err, "action", action)
			changesJSON = "{}"
		} else {
			changesJSON = string(data)
		}
	}

	entry := &models.AuditLog{
		UserID:       userID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		IPAddress:    ipAddress,
		Changes:      changesJSON,
	}

	// The request may already be finished; the entry should still be written.
	if err := s.db.WithContext(context.WithoutCancel(ctx)).Create(entry).Error; err != nil {
		logger.Get().Errorw("failed to create audit log entry",
			"error", err,
			"user_id", userID,
			"action", action,
			"resource_type", resourceType,
			"resource_id", resourceID,
		)
	}
}
