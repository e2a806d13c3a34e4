// internal/services/notification_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/javajoker/pod-backend/internal/models"
	"github.com/javajoker/pod-backend/internal/utils"
)

const (
	NotificationTypeDesignValidated = "design_validated"
	NotificationTypeDesignRejected  = "design_rejected"
)

// NotificationService stores in-app notifications for vendors.
type NotificationService struct {
	db  *gorm.DB
	log *logrus.Entry
}

func NewNotificationService(db *gorm.DB, log *logrus.Logger) *NotificationService {
	return &NotificationService{
		db:  db,
		log: log.WithField("service", "notification"),
	}
}

// SendDesignDecisionNotification tells the design owner about the admin
// decision and which of their products moved. Owners whose account is
// mirrored as inactive are skipped; owners with no mirrored account still
// get the notification.
func (s *NotificationService) SendDesignDecisionNotification(ctx context.Context, result *DecisionResult) error {
	design := result.Design

	recipient, err := s.recipient(ctx, design.VendorID)
	if err != nil {
		return err
	}
	if recipient != nil && !recipient.IsActive {
		s.log.WithFields(logrus.Fields{
			"recipient_id": design.VendorID,
			"design_id":    design.ID,
		}).Debug("Recipient inactive, notification skipped")
		return nil
	}

	productIDs := make([]string, 0, len(result.UpdatedProductIDs))
	for _, id := range result.UpdatedProductIDs {
		productIDs = append(productIDs, id.String())
	}

	notification := &models.Notification{
		RecipientID: design.VendorID,
		Data: models.JSONB{
			"design_id":           design.ID.String(),
			"decision":            string(result.Decision),
			"actor_id":            result.ActorID.String(),
			"updated_product_ids": productIDs,
		},
		Status:   models.NotificationUnread,
		DesignID: &design.ID,
	}

	switch result.Decision {
	case models.DecisionValidate:
		notification.Type = NotificationTypeDesignValidated
		notification.Title = "Design Approved"
		notification.Message = fmt.Sprintf("Your design '%s' was approved. %d product(s) updated.", designLabel(design), len(productIDs))
	default:
		notification.Type = NotificationTypeDesignRejected
		notification.Title = "Design Rejected"
		notification.Message = fmt.Sprintf("Your design '%s' was rejected.", designLabel(design))
		if design.RejectionReason != "" {
			notification.Message = fmt.Sprintf("Your design '%s' was rejected: %s", designLabel(design), design.RejectionReason)
		}
		notification.Data["reason"] = design.RejectionReason
	}
	if recipient != nil {
		notification.Data["recipient"] = recipient.Username
	}

	if err := s.db.WithContext(ctx).Create(notification).Error; err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"recipient_id": design.VendorID,
		"design_id":    design.ID,
		"type":         notification.Type,
	}).Debug("Notification stored")
	return nil
}

// recipient returns the mirrored account for userID, or nil when the auth
// service has not synced one.
func (s *NotificationService) recipient(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("id = ?", userID).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load recipient %s: %w", userID, err)
	}
	return &user, nil
}

func (s *NotificationService) GetNotifications(ctx context.Context, recipientID uuid.UUID, params utils.PaginationParams) ([]models.Notification, int64, error) {
	params = utils.NormalizePagination(params)
	query := s.db.WithContext(ctx).Model(&models.Notification{}).Where("recipient_id = ?", recipientID)

	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count notifications: %w", err)
	}

	var notifications []models.Notification
	query = utils.ApplyPagination(query.Order("created_at desc"), params)
	if err := query.Find(&notifications).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch notifications: %w", err)
	}

	return notifications, total, nil
}

func (s *NotificationService) MarkAsRead(ctx context.Context, notificationID, recipientID uuid.UUID) error {
	var notification models.Notification
	err := s.db.WithContext(ctx).
		Where("id = ? AND recipient_id = ?", notificationID, recipientID).
		First(&notification).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: notification %s", ErrNotFound, notificationID)
		}
		return fmt.Errorf("database error: %w", err)
	}

	now := time.Now()
	err = s.db.WithContext(ctx).Model(&notification).Updates(map[string]interface{}{
		"status":  models.NotificationRead,
		"read_at": now,
	}).Error
	if err != nil {
		return fmt.Errorf("failed to mark notification as read: %w", err)
	}
	return nil
}

func designLabel(design *models.Design) string {
	if design.Name != "" {
		return design.Name
	}
	return design.ID.String()
}
