// internal/models/common.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// BeforeCreate assigns the id client side so the same models work on
// postgres and on the sqlite databases used in tests.
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// JSONB type for PostgreSQL
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, j)
	case string:
		return json.Unmarshal([]byte(v), j)
	default:
		return nil
	}
}

// Enums
type UserType string

const (
	UserTypeVendor UserType = "vendor"
	UserTypeAdmin  UserType = "admin"
)

// DesignStatus is the validation state of a design.
type DesignStatus string

const (
	DesignStatusDraft     DesignStatus = "DRAFT"
	DesignStatusPending   DesignStatus = "PENDING"
	DesignStatusValidated DesignStatus = "VALIDATED"
	DesignStatusRejected  DesignStatus = "REJECTED"
)

// IsTerminal reports whether the admin decision has already been taken.
func (s DesignStatus) IsTerminal() bool {
	return s == DesignStatusValidated || s == DesignStatusRejected
}

type ProductStatus string

const (
	ProductStatusPending   ProductStatus = "PENDING"
	ProductStatusPublished ProductStatus = "PUBLISHED"
	ProductStatusDraft     ProductStatus = "DRAFT"
	ProductStatusRejected  ProductStatus = "REJECTED"
)

// PostValidationAction is what happens to a product once its design is validated.
type PostValidationAction string

const (
	PostValidationAutoPublish PostValidationAction = "AUTO_PUBLISH"
	PostValidationToDraft     PostValidationAction = "TO_DRAFT"
)

func (a PostValidationAction) Valid() bool {
	return a == PostValidationAutoPublish || a == PostValidationToDraft
}

type Decision string

const (
	DecisionValidate Decision = "VALIDATE"
	DecisionReject   Decision = "REJECT"
)

func (d Decision) Valid() bool {
	return d == DecisionValidate || d == DecisionReject
}
