// internal/models/design.go
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Design is a vendor owned artwork, deduplicated per vendor by content hash.
type Design struct {
	BaseModel
	VendorID        uuid.UUID    `json:"vendor_id" gorm:"type:uuid;not null;uniqueIndex:idx_designs_vendor_hash,priority:1"`
	ContentHash     string       `json:"content_hash" gorm:"size:64;not null;uniqueIndex:idx_designs_vendor_hash,priority:2"`
	StorageURL      string       `json:"storage_url" gorm:"type:text;not null"`
	StorageKey      string       `json:"storage_key" gorm:"size:512;not null"`
	ByteSize        int64        `json:"byte_size" gorm:"not null"`
	Format          string       `json:"format" gorm:"size:20"`
	Width           int          `json:"width"`
	Height          int          `json:"height"`
	Name            string       `json:"name" gorm:"size:255"`
	Tags            []string     `json:"tags" gorm:"serializer:json;type:text"`
	Category        string       `json:"category" gorm:"size:100;index"`
	Status          DesignStatus `json:"status" gorm:"type:varchar(20);not null;default:'DRAFT';index"`
	SubmittedAt     *time.Time   `json:"submitted_at"`
	ValidatedAt     *time.Time   `json:"validated_at"`
	ValidatedBy     *uuid.UUID   `json:"validated_by" gorm:"type:uuid"`
	RejectionReason string       `json:"rejection_reason,omitempty" gorm:"type:text"`
}

// DesignProductLink is the authoritative association between a design and
// the vendor products built from it.
type DesignProductLink struct {
	ID              uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	DesignID        uuid.UUID `json:"design_id" gorm:"type:uuid;not null;uniqueIndex:idx_design_product_links_pair,priority:1"`
	VendorProductID uuid.UUID `json:"vendor_product_id" gorm:"type:uuid;not null;uniqueIndex:idx_design_product_links_pair,priority:2;index"`
	CreatedAt       time.Time `json:"created_at"`
}

func (l *DesignProductLink) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
