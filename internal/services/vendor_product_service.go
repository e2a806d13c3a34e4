// internal/services/vendor_product_service.go
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

	"github.com/javajoker/pod-backend/internal/database"
	"github.com/javajoker/pod-backend/internal/models"
	"github.com/javajoker/pod-backend/internal/utils"
)

type VendorProductService struct {
	db      *gorm.DB
	designs *DesignService
	links   *LinkService
	catalog Catalog
	log     *logrus.Entry
}

// CreateVendorProductRequest carries either DesignID, to reuse an uploaded
// design, or DesignData with the raw artwork. Exactly one must be set.
type CreateVendorProductRequest struct {
	BaseProductID        uuid.UUID                   `json:"base_product_id" validate:"required"`
	DesignID             *uuid.UUID                  `json:"design_id,omitempty"`
	DesignData           []byte                      `json:"-"`
	DesignMetadata       DesignMetadata              `json:"design_metadata"`
	Name                 string                      `json:"name" validate:"required,min=1,max=255"`
	Description          string                      `json:"description,omitempty" validate:"max=5000"`
	Price                float64                     `json:"price" validate:"required,gt=0"`
	Stock                int                         `json:"stock" validate:"min=0"`
	Sizes                []string                    `json:"sizes,omitempty"`
	Colors               []string                    `json:"colors,omitempty"`
	PostValidationAction models.PostValidationAction `json:"post_validation_action" validate:"required,post_validation_action"`
}

type UpdateVendorProductRequest struct {
	Name        *string  `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
	Description *string  `json:"description,omitempty" validate:"omitempty,max=5000"`
	Price       *float64 `json:"price,omitempty" validate:"omitempty,gt=0"`
	Stock       *int     `json:"stock,omitempty" validate:"omitempty,min=0"`
	Sizes       []string `json:"sizes,omitempty"`
	Colors      []string `json:"colors,omitempty"`
}

func NewVendorProductService(db *gorm.DB, designs *DesignService, links *LinkService, catalog Catalog, log *logrus.Logger) *VendorProductService {
	return &VendorProductService{
		db:      db,
		designs: designs,
		links:   links,
		catalog: catalog,
		log:     log.WithField("service", "vendor_product"),
	}
}

// CreateProduct persists a vendor product together with its design link.
// When the design has already been decided the product starts in the state
// the decision implies instead of PENDING.
func (s *VendorProductService) CreateProduct(ctx context.Context, vendorID uuid.UUID, req *CreateVendorProductRequest) (*models.VendorProduct, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	hasID := req.DesignID != nil && *req.DesignID != uuid.Nil
	hasData := len(req.DesignData) > 0
	if hasID == hasData {
		return nil, fmt.Errorf("%w: provide either a design id or design data", ErrValidation)
	}

	base, err := s.catalog.GetBaseProduct(ctx, req.BaseProductID)
	if err != nil {
		return nil, err
	}

	var designID uuid.UUID
	if hasData {
		// upload happens here, before the product transaction opens
		design, _, err := s.designs.GetOrCreateDesign(ctx, vendorID, req.DesignData, req.DesignMetadata)
		if err != nil {
			return nil, err
		}
		designID = design.ID
	} else {
		designID = *req.DesignID
	}

	product := &models.VendorProduct{
		VendorID:             vendorID,
		BaseProductID:        base.ID,
		DesignID:             &designID,
		Name:                 strings.TrimSpace(req.Name),
		Description:          req.Description,
		Price:                req.Price,
		Stock:                req.Stock,
		Sizes:                req.Sizes,
		Colors:               req.Colors,
		BaseProductName:      base.Name,
		BaseProductPrice:     base.Price,
		BaseProductImages:    base.Images,
		BaseProductSizes:     base.Sizes,
		PostValidationAction: req.PostValidationAction,
		Status:               models.ProductStatusPending,
		IsValidated:          false,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// the design lock orders this insert against a concurrent decision
		var design models.Design
		if err := lockVendorDesign(tx, designID, vendorID, &design); err != nil {
			return err
		}

		if applyDecision(product, &design) && product.Status == models.ProductStatusPublished {
			now := time.Now()
			product.PublishedAt = &now
		}

		if err := tx.Create(product).Error; err != nil {
			return fmt.Errorf("failed to create product: %w", err)
		}
		if err := s.links.Link(tx, design.ID, product.ID); err != nil {
			return err
		}

		product.Design = &design
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"vendor_id":  vendorID,
		"product_id": product.ID,
		"design_id":  designID,
		"status":     product.Status,
	}).Info("Vendor product created")

	return product, nil
}

// SetPostValidationAction changes what happens to the product once its
// design is validated. The choice freezes when the design is decided.
func (s *VendorProductService) SetPostValidationAction(ctx context.Context, productID, vendorID uuid.UUID, action models.PostValidationAction) (*models.VendorProduct, error) {
	if !action.Valid() {
		return nil, fmt.Errorf("%w: unknown post validation action %q", ErrValidation, action)
	}

	current, err := s.GetProduct(ctx, productID, &vendorID)
	if err != nil {
		return nil, err
	}

	var product models.VendorProduct
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// design before product, the same order the cascade locks in
		if current.DesignID != nil {
			var design models.Design
			if err := lockDesign(tx, *current.DesignID, &design); err != nil {
				return err
			}
			if design.Status.IsTerminal() {
				return fmt.Errorf("%w: design is already %s", ErrLockedState, design.Status)
			}
		}

		if err := lockVendorProduct(tx, productID, vendorID, &product); err != nil {
			return err
		}
		if product.Status != models.ProductStatusPending {
			return fmt.Errorf("%w: product is already %s", ErrLockedState, product.Status)
		}

		product.PostValidationAction = action
		return tx.Model(&product).Select("post_validation_action").Updates(&product).Error
	})
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// PublishProduct makes a validated draft visible. Validation fields are
// left untouched.
func (s *VendorProductService) PublishProduct(ctx context.Context, productID, vendorID uuid.UUID) (*models.VendorProduct, error) {
	var product models.VendorProduct
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockVendorProduct(tx, productID, vendorID, &product); err != nil {
			return err
		}
		if product.Status != models.ProductStatusDraft || !product.IsValidated {
			return fmt.Errorf("%w: product is %s, only validated drafts can be published", ErrInvalidState, product.Status)
		}

		now := time.Now()
		product.Status = models.ProductStatusPublished
		product.PublishedAt = &now
		return tx.Model(&product).Select("status", "published_at").Updates(&product).Error
	})
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (s *VendorProductService) UpdateProduct(ctx context.Context, productID, vendorID uuid.UUID, req *UpdateVendorProductRequest) (*models.VendorProduct, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	var product models.VendorProduct
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockVendorProduct(tx, productID, vendorID, &product); err != nil {
			return err
		}
		if product.Status == models.ProductStatusRejected {
			return fmt.Errorf("%w: rejected products cannot be edited", ErrInvalidState)
		}

		var columns []string
		if req.Name != nil {
			product.Name = strings.TrimSpace(*req.Name)
			columns = append(columns, "name")
		}
		if req.Description != nil {
			product.Description = *req.Description
			columns = append(columns, "description")
		}
		if req.Price != nil {
			product.Price = *req.Price
			columns = append(columns, "price")
		}
		if req.Stock != nil {
			product.Stock = *req.Stock
			columns = append(columns, "stock")
		}
		if req.Sizes != nil {
			product.Sizes = req.Sizes
			columns = append(columns, "sizes")
		}
		if req.Colors != nil {
			product.Colors = req.Colors
			columns = append(columns, "colors")
		}
		if len(columns) == 0 {
			return nil
		}

		return tx.Model(&product).Select(columns).Updates(&product).Error
	})
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// DeleteProduct soft deletes the product and drops its design link.
func (s *VendorProductService) DeleteProduct(ctx context.Context, productID, vendorID uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var product models.VendorProduct
		if err := lockVendorProduct(tx, productID, vendorID, &product); err != nil {
			return err
		}

		if err := tx.Where("vendor_product_id = ?", product.ID).Delete(&models.DesignProductLink{}).Error; err != nil {
			return fmt.Errorf("failed to delete product links: %w", err)
		}
		if err := tx.Delete(&product).Error; err != nil {
			return fmt.Errorf("failed to delete product: %w", err)
		}
		return nil
	})
}

// GetProduct loads a product with its design. Anyone other than the owning
// vendor only sees published products.
func (s *VendorProductService) GetProduct(ctx context.Context, productID uuid.UUID, viewerID *uuid.UUID) (*models.VendorProduct, error) {
	var product models.VendorProduct
	err := s.db.WithContext(ctx).Preload("Design").Where("id = ?", productID).First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: product %s", ErrNotFound, productID)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	isOwner := viewerID != nil && *viewerID == product.VendorID
	if !isOwner && product.Status != models.ProductStatusPublished {
		return nil, fmt.Errorf("%w: product %s", ErrNotFound, productID)
	}
	return &product, nil
}

func (s *VendorProductService) ListVendorProducts(ctx context.Context, vendorID uuid.UUID, params utils.PaginationParams) ([]models.VendorProduct, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.VendorProduct{}).Where("vendor_id = ?", vendorID)
	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	}
	return s.listProducts(query, params)
}

// ListPublishedProducts is the public storefront listing.
func (s *VendorProductService) ListPublishedProducts(ctx context.Context, params utils.PaginationParams) ([]models.VendorProduct, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.VendorProduct{}).Where("status = ?", models.ProductStatusPublished)
	return s.listProducts(query, params)
}

func (s *VendorProductService) listProducts(query *gorm.DB, params utils.PaginationParams) ([]models.VendorProduct, int64, error) {
	params = utils.NormalizePagination(params)

	if params.Search != "" {
		search := "%" + strings.ToLower(params.Search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", search, search)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	query = utils.ApplySort(query, params, []string{"created_at", "published_at", "price", "name"})
	query = utils.ApplyPagination(query, params)

	var products []models.VendorProduct
	if err := query.Preload("Design").Find(&products).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch products: %w", err)
	}
	return products, total, nil
}

func lockVendorProduct(tx *gorm.DB, productID, vendorID uuid.UUID, product *models.VendorProduct) error {
	err := database.ForUpdate(tx).Where("id = ?", productID).First(product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: product %s", ErrNotFound, productID)
		}
		return fmt.Errorf("database error: %w", err)
	}
	if product.VendorID != vendorID {
		return fmt.Errorf("%w: product %s", ErrNotFound, productID)
	}
	return nil
}
