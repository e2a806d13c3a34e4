// internal/services/audit_service.go
package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/javajoker/pod-backend/internal/models"
	"github.com/javajoker/pod-backend/internal/utils"
)

const (
	AuditActionSubmitDesign   = "SUBMIT_DESIGN"
	AuditActionValidateDesign = "VALIDATE_DESIGN"
	AuditActionRejectDesign   = "REJECT_DESIGN"
	AuditActionReconcileLinks = "RECONCILE_LINKS"
	AuditActionAPIRequest     = "API_REQUEST"
)

type AuditEntry struct {
	ActorID      *uuid.UUID
	Action       string
	ResourceType string
	ResourceID   *uuid.UUID
	OldValues    map[string]interface{}
	NewValues    map[string]interface{}
	IPAddress    string
	UserAgent    string
}

type AuditService struct {
	db  *gorm.DB
	log *logrus.Entry
}

func NewAuditService(db *gorm.DB, log *logrus.Logger) *AuditService {
	return &AuditService{
		db:  db,
		log: log.WithField("service", "audit"),
	}
}

func (s *AuditService) Record(ctx context.Context, entry AuditEntry) error {
	auditLog := &models.AuditLog{
		ActorID:      entry.ActorID,
		Action:       entry.Action,
		ResourceType: entry.ResourceType,
		ResourceID:   entry.ResourceID,
		OldValues:    models.JSONB(entry.OldValues),
		NewValues:    models.JSONB(entry.NewValues),
		IPAddress:    entry.IPAddress,
		UserAgent:    entry.UserAgent,
	}

	if err := s.db.WithContext(ctx).Create(auditLog).Error; err != nil {
		return fmt.Errorf("failed to create audit log: %w", err)
	}
	return nil
}

// List returns audit rows newest first, optionally filtered by resource.
func (s *AuditService) List(ctx context.Context, resourceType string, resourceID *uuid.UUID, params utils.PaginationParams) ([]models.AuditLog, int64, error) {
	params = utils.NormalizePagination(params)
	query := s.db.WithContext(ctx).Model(&models.AuditLog{})

	if resourceType != "" {
		query = query.Where("resource_type = ?", resourceType)
	}
	if resourceID != nil {
		query = query.Where("resource_id = ?", *resourceID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count audit logs: %w", err)
	}

	var logs []models.AuditLog
	query = utils.ApplyPagination(query.Order("created_at desc"), params)
	if err := query.Find(&logs).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch audit logs: %w", err)
	}

	return logs, total, nil
}
