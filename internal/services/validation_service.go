// internal/services/validation_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/javajoker/pod-backend/internal/models"
)

// ValidationService applies admin decisions to a design and cascades them to
// every linked vendor product in one transaction.
type ValidationService struct {
	db            *gorm.DB
	links         *LinkService
	audit         *AuditService
	notifications *NotificationService
	log           *logrus.Entry

	tasks background
}

type DecisionRequest struct {
	DesignID uuid.UUID       `json:"design_id"`
	Decision models.Decision `json:"decision"`
	Reason   string          `json:"reason,omitempty"`
	ActorID  uuid.UUID       `json:"actor_id"`
}

type DecisionResult struct {
	Design            *models.Design  `json:"design"`
	Decision          models.Decision `json:"decision"`
	ActorID           uuid.UUID       `json:"actor_id"`
	UpdatedProductIDs []uuid.UUID     `json:"updated_product_ids"`
}

var productDecisionColumns = []string{"status", "is_validated", "validated_at", "rejection_reason", "published_at"}

func NewValidationService(db *gorm.DB, links *LinkService, audit *AuditService, notifications *NotificationService, log *logrus.Logger) *ValidationService {
	return &ValidationService{
		db:            db,
		links:         links,
		audit:         audit,
		notifications: notifications,
		log:           log.WithField("service", "validation"),
	}
}

// Decide validates or rejects a PENDING design. The design and all linked
// products change together or not at all; a second decision on the same
// design fails with ErrInvalidState. The rejection reason is optional here
// and copied verbatim, blank included; the admin API requires one.
func (s *ValidationService) Decide(ctx context.Context, req DecisionRequest) (*DecisionResult, error) {
	req.Reason = strings.TrimSpace(req.Reason)
	if !req.Decision.Valid() {
		return nil, fmt.Errorf("%w: unknown decision %q", ErrValidation, req.Decision)
	}
	if req.ActorID == uuid.Nil {
		return nil, fmt.Errorf("%w: actor id is required", ErrValidation)
	}

	// cheap rejection before opening a transaction
	var current models.Design
	if err := s.db.WithContext(ctx).First(&current, "id = ?", req.DesignID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: design %s", ErrNotFound, req.DesignID)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	if current.Status != models.DesignStatusPending {
		return nil, fmt.Errorf("%w: design is %s, only PENDING designs can be decided", ErrInvalidState, current.Status)
	}

	result := &DecisionResult{Decision: req.Decision, ActorID: req.ActorID}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var design models.Design
		if err := lockDesign(tx, req.DesignID, &design); err != nil {
			return err
		}
		if design.Status != models.DesignStatusPending {
			return fmt.Errorf("%w: design is %s, only PENDING designs can be decided", ErrInvalidState, design.Status)
		}

		now := time.Now()
		design.ValidatedAt = &now
		design.ValidatedBy = &req.ActorID
		if req.Decision == models.DecisionValidate {
			design.Status = models.DesignStatusValidated
			design.RejectionReason = ""
		} else {
			design.Status = models.DesignStatusRejected
			design.RejectionReason = req.Reason
		}

		err := tx.Model(&design).
			Select("status", "validated_at", "validated_by", "rejection_reason").
			Updates(&design).Error
		if err != nil {
			return fmt.Errorf("failed to update design: %w", err)
		}

		ids, err := s.links.ProductsFor(tx, design.ID)
		if err != nil {
			return err
		}

		updated, err := s.cascade(tx, &design, ids)
		if err != nil {
			return err
		}

		result.Design = &design
		result.UpdatedProductIDs = updated
		return nil
	})
	if err != nil {
		s.log.WithError(err).WithField("design_id", req.DesignID).Warn("Design decision rolled back")
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"design_id":        result.Design.ID,
		"decision":         result.Decision,
		"actor_id":         result.ActorID,
		"updated_products": len(result.UpdatedProductIDs),
	}).Info("Design decision applied")

	s.afterDecision(result)
	return result, nil
}

func (s *ValidationService) cascade(tx *gorm.DB, design *models.Design, ids []uuid.UUID) ([]uuid.UUID, error) {
	updated := make([]uuid.UUID, 0, len(ids))
	if len(ids) == 0 {
		return updated, nil
	}

	var products []models.VendorProduct
	if err := tx.Where("id IN ?", ids).Order("id").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to load linked products: %w", err)
	}

	for i := range products {
		product := &products[i]
		if !applyDecision(product, design) {
			continue
		}

		err := tx.Model(product).Select(productDecisionColumns).Updates(product).Error
		if err != nil {
			return nil, fmt.Errorf("failed to update product %s: %w", product.ID, err)
		}
		updated = append(updated, product.ID)
	}

	return updated, nil
}

// applyDecision sets the product's derived state from its design's
// validation state. Products of undecided designs are left alone. It
// reports whether the product changed.
func applyDecision(product *models.VendorProduct, design *models.Design) bool {
	switch design.Status {
	case models.DesignStatusValidated:
		product.IsValidated = true
		product.ValidatedAt = design.ValidatedAt
		product.RejectionReason = ""
		if product.PostValidationAction == models.PostValidationAutoPublish {
			product.Status = models.ProductStatusPublished
			product.PublishedAt = design.ValidatedAt
		} else {
			product.Status = models.ProductStatusDraft
			product.PublishedAt = nil
		}
		return true

	case models.DesignStatusRejected:
		product.Status = models.ProductStatusRejected
		product.IsValidated = false
		product.ValidatedAt = nil
		product.PublishedAt = nil
		product.RejectionReason = design.RejectionReason
		return true
	}

	return false
}

func (s *ValidationService) afterDecision(result *DecisionResult) {
	action := AuditActionValidateDesign
	if result.Decision == models.DecisionReject {
		action = AuditActionRejectDesign
	}

	productIDs := make([]string, 0, len(result.UpdatedProductIDs))
	for _, id := range result.UpdatedProductIDs {
		productIDs = append(productIDs, id.String())
	}

	s.tasks.Go(s.log, "audit_decision", func() error {
		return s.audit.Record(context.Background(), AuditEntry{
			ActorID:      &result.ActorID,
			Action:       action,
			ResourceType: "design",
			ResourceID:   &result.Design.ID,
			OldValues:    map[string]interface{}{"status": models.DesignStatusPending},
			NewValues: map[string]interface{}{
				"status":              result.Design.Status,
				"rejection_reason":    result.Design.RejectionReason,
				"updated_product_ids": productIDs,
			},
		})
	})

	s.tasks.Go(s.log, "notify_decision", func() error {
		return s.notifications.SendDesignDecisionNotification(context.Background(), result)
	})
}

// Wait blocks until audit and notification tasks have finished.
func (s *ValidationService) Wait() {
	s.tasks.Wait()
}
