// internal/models/notification.go
package models

import (
	"time"

	"github.com/google/uuid"
)

type NotificationStatus string

const (
	NotificationUnread NotificationStatus = "unread"
	NotificationRead   NotificationStatus = "read"
)

// Notification is an in-app message addressed to a vendor.
type Notification struct {
	BaseModel
	RecipientID uuid.UUID          `json:"recipient_id" gorm:"type:uuid;not null;index"`
	Type        string             `json:"type" gorm:"type:varchar(50);not null;index"`
	Title       string             `json:"title" gorm:"size:255;not null"`
	Message     string             `json:"message" gorm:"type:text;not null"`
	Data        JSONB              `json:"data" gorm:"type:jsonb"`
	Status      NotificationStatus `json:"status" gorm:"type:varchar(20);default:'unread';index"`
	DesignID    *uuid.UUID         `json:"design_id,omitempty" gorm:"type:uuid;index"`
	ReadAt      *time.Time         `json:"read_at"`
}
