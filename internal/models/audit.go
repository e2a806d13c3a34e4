// internal/models/audit.go
package models

import (
	"github.com/google/uuid"
)

// AuditLog records who did what to which resource. Decision and reconcile
// rows are written by the services, API_REQUEST rows by the HTTP layer.
type AuditLog struct {
	BaseModel
	ActorID      *uuid.UUID `json:"actor_id" gorm:"type:uuid;index"`
	Action       string     `json:"action" gorm:"size:100;not null;index"`
	ResourceType string     `json:"resource_type" gorm:"size:50;not null;index"`
	ResourceID   *uuid.UUID `json:"resource_id" gorm:"type:uuid;index"`
	OldValues    JSONB      `json:"old_values,omitempty" gorm:"type:jsonb"`
	NewValues    JSONB      `json:"new_values,omitempty" gorm:"type:jsonb"`
	IPAddress    string     `json:"ip_address,omitempty" gorm:"size:45"`
	UserAgent    string     `json:"user_agent,omitempty" gorm:"type:text"`
}
