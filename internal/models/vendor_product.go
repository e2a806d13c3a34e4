// internal/models/vendor_product.go
package models

import (
	"time"

	"github.com/google/uuid"
)

type VendorProduct struct {
	BaseModel
	VendorID      uuid.UUID  `json:"vendor_id" gorm:"type:uuid;not null;index"`
	BaseProductID uuid.UUID  `json:"base_product_id" gorm:"type:uuid;not null;index"`
	DesignID      *uuid.UUID `json:"design_id" gorm:"type:uuid;index"`

	Name        string   `json:"name" gorm:"size:255;not null"`
	Description string   `json:"description" gorm:"type:text"`
	Price       float64  `json:"price" gorm:"type:decimal(10,2);not null"`
	Stock       int      `json:"stock" gorm:"default:0"`
	Sizes       []string `json:"sizes" gorm:"serializer:json;type:text"`
	Colors      []string `json:"colors" gorm:"serializer:json;type:text"`

	// Snapshot of the admin base product taken at creation time.
	BaseProductName   string   `json:"base_product_name" gorm:"size:255"`
	BaseProductPrice  float64  `json:"base_product_price" gorm:"type:decimal(10,2)"`
	BaseProductImages []string `json:"base_product_images" gorm:"serializer:json;type:text"`
	BaseProductSizes  []string `json:"base_product_sizes" gorm:"serializer:json;type:text"`

	PostValidationAction PostValidationAction `json:"post_validation_action" gorm:"type:varchar(20);not null;default:'AUTO_PUBLISH'"`
	Status               ProductStatus        `json:"status" gorm:"type:varchar(20);not null;default:'PENDING';index"`
	IsValidated          bool                 `json:"is_validated" gorm:"not null;default:false"`
	ValidatedAt          *time.Time           `json:"validated_at"`
	RejectionReason      string               `json:"rejection_reason,omitempty" gorm:"type:text"`
	PublishedAt          *time.Time           `json:"published_at"`

	// Relationships
	Design *Design `json:"design,omitempty" gorm:"foreignKey:DesignID"`
}

// BaseProduct is an admin owned catalog item that vendors decorate.
type BaseProduct struct {
	BaseModel
	Name     string   `json:"name" gorm:"size:255;not null"`
	Price    float64  `json:"price" gorm:"type:decimal(10,2);not null"`
	Images   []string `json:"images" gorm:"serializer:json;type:text"`
	Sizes    []string `json:"sizes" gorm:"serializer:json;type:text"`
	Colors   []string `json:"colors" gorm:"serializer:json;type:text"`
	IsActive bool     `json:"is_active" gorm:"default:true"`
}
