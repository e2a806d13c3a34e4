// internal/services/catalog_service.go
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/javajoker/pod-backend/internal/models"
)

// BaseProductSnapshot is the part of an admin catalog item copied onto a
// vendor product when it is created.
type BaseProductSnapshot struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	Price  float64   `json:"price"`
	Images []string  `json:"images"`
	Sizes  []string  `json:"sizes"`
	Colors []string  `json:"colors"`
}

type Catalog interface {
	GetBaseProduct(ctx context.Context, id uuid.UUID) (*BaseProductSnapshot, error)
}

// CatalogService reads the admin owned base_products table.
type CatalogService struct {
	db *gorm.DB
}

func NewCatalogService(db *gorm.DB) *CatalogService {
	return &CatalogService{db: db}
}

func (s *CatalogService) GetBaseProduct(ctx context.Context, id uuid.UUID) (*BaseProductSnapshot, error) {
	var product models.BaseProduct
	err := s.db.WithContext(ctx).Where("id = ? AND is_active = ?", id, true).First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrBaseProductNotFound, id)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	return snapshotOf(&product), nil
}

func (s *CatalogService) ListBaseProducts(ctx context.Context) ([]BaseProductSnapshot, error) {
	var products []models.BaseProduct
	if err := s.db.WithContext(ctx).Where("is_active = ?", true).Order("name asc").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch base products: %w", err)
	}

	snapshots := make([]BaseProductSnapshot, 0, len(products))
	for i := range products {
		snapshots = append(snapshots, *snapshotOf(&products[i]))
	}
	return snapshots, nil
}

func snapshotOf(product *models.BaseProduct) *BaseProductSnapshot {
	return &BaseProductSnapshot{
		ID:     product.ID,
		Name:   product.Name,
		Price:  product.Price,
		Images: product.Images,
		Sizes:  product.Sizes,
		Colors: product.Colors,
	}
}
