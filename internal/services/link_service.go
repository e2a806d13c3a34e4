// internal/services/link_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/javajoker/pod-backend/internal/database"
	"github.com/javajoker/pod-backend/internal/models"
)

const reconcileBatchSize = 500

// LinkService maintains design_product_links, the set of products a design
// decision cascades to.
type LinkService struct {
	db  *gorm.DB
	log *logrus.Entry
}

type ReconcileReport struct {
	LinksCreated       int64         `json:"links_created"`
	ProductsSettled    int64         `json:"products_settled"`
	OrphansRemoved     int64         `json:"orphans_removed"`
	DanglingProductIDs []uuid.UUID   `json:"dangling_product_ids"`
	StartedAt          time.Time     `json:"started_at"`
	Duration           time.Duration `json:"duration"`
}

// Changed reports whether the sweep modified any row.
func (r *ReconcileReport) Changed() bool {
	return r.LinksCreated > 0 || r.ProductsSettled > 0 || r.OrphansRemoved > 0
}

type missingLink struct {
	ProductID    uuid.UUID
	DesignID     uuid.UUID
	DesignStatus models.DesignStatus
}

func NewLinkService(db *gorm.DB, log *logrus.Logger) *LinkService {
	return &LinkService{
		db:  db,
		log: log.WithField("service", "link"),
	}
}

// Link records that productID is built from designID. It must run in the
// transaction that creates the product; an existing pair is left alone.
func (s *LinkService) Link(tx *gorm.DB, designID, productID uuid.UUID) error {
	_, err := insertLink(tx, designID, productID)
	return err
}

func insertLink(tx *gorm.DB, designID, productID uuid.UUID) (int64, error) {
	link := &models.DesignProductLink{DesignID: designID, VendorProductID: productID}
	result := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "design_id"}, {Name: "vendor_product_id"}},
		DoNothing: true,
	}).Create(link)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to link design %s to product %s: %w", designID, productID, result.Error)
	}
	return result.RowsAffected, nil
}

// ProductsFor returns the live products linked to designID, locking them for
// the rest of tx.
func (s *LinkService) ProductsFor(tx *gorm.DB, designID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := database.ForUpdate(tx.Model(&models.VendorProduct{}), "vendor_products").
		Joins("JOIN design_product_links ON design_product_links.vendor_product_id = vendor_products.id").
		Where("design_product_links.design_id = ?", designID).
		Order("vendor_products.id").
		Pluck("vendor_products.id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load products for design %s: %w", designID, err)
	}
	return ids, nil
}

// LinkedProducts loads the products a decision on designID would touch.
func (s *LinkService) LinkedProducts(ctx context.Context, designID uuid.UUID) ([]models.VendorProduct, error) {
	var products []models.VendorProduct
	err := s.db.WithContext(ctx).
		Joins("JOIN design_product_links ON design_product_links.vendor_product_id = vendor_products.id").
		Where("design_product_links.design_id = ?", designID).
		Order("vendor_products.created_at asc").
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load linked products: %w", err)
	}
	return products, nil
}

// Reconcile restores the one-link-per-product invariant: products with a
// design_id but no link get one, and links to missing or soft deleted rows
// are removed. A relinked product whose design was already decided, and
// which a cascade therefore never reached, is moved out of PENDING. Both phases are idempotent and touch disjoint rows, so they
// run concurrently and are safe alongside normal traffic.
func (s *LinkService) Reconcile(ctx context.Context) (*ReconcileReport, error) {
	report := &ReconcileReport{StartedAt: time.Now()}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		created, settled, err := s.createMissingLinks(gctx)
		report.LinksCreated = created
		report.ProductsSettled = settled
		return err
	})
	g.Go(func() error {
		removed, err := s.removeOrphanLinks(gctx)
		report.OrphansRemoved = removed
		return err
	})
	g.Go(func() error {
		ids, err := s.danglingProducts(gctx)
		report.DanglingProductIDs = ids
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report.Duration = time.Since(report.StartedAt)
	s.log.WithFields(logrus.Fields{
		"links_created":     report.LinksCreated,
		"products_settled":  report.ProductsSettled,
		"orphans_removed":   report.OrphansRemoved,
		"dangling_products": len(report.DanglingProductIDs),
		"duration":          report.Duration,
	}).Info("Design link reconciliation finished")

	return report, nil
}

func (s *LinkService) createMissingLinks(ctx context.Context) (created, settled int64, err error) {
	var missing []missingLink
	err = s.db.WithContext(ctx).
		Table("vendor_products").
		Select("vendor_products.id AS product_id, vendor_products.design_id AS design_id, designs.status AS design_status").
		Joins("JOIN designs ON designs.id = vendor_products.design_id AND designs.deleted_at IS NULL").
		Joins("LEFT JOIN design_product_links ON design_product_links.vendor_product_id = vendor_products.id AND design_product_links.design_id = vendor_products.design_id").
		Where("vendor_products.design_id IS NOT NULL AND vendor_products.deleted_at IS NULL").
		Where("design_product_links.id IS NULL").
		Order("vendor_products.id").
		Scan(&missing).Error
	if err != nil {
		return 0, 0, fmt.Errorf("failed to find products without links: %w", err)
	}

	var undecided []missingLink
	decided := make(map[uuid.UUID][]uuid.UUID)
	var decidedOrder []uuid.UUID
	for _, m := range missing {
		if !m.DesignStatus.IsTerminal() {
			undecided = append(undecided, m)
			continue
		}
		if _, ok := decided[m.DesignID]; !ok {
			decidedOrder = append(decidedOrder, m.DesignID)
		}
		decided[m.DesignID] = append(decided[m.DesignID], m.ProductID)
	}

	for start := 0; start < len(undecided); start += reconcileBatchSize {
		end := start + reconcileBatchSize
		if end > len(undecided) {
			end = len(undecided)
		}

		links := make([]models.DesignProductLink, 0, end-start)
		for _, m := range undecided[start:end] {
			links = append(links, models.DesignProductLink{DesignID: m.DesignID, VendorProductID: m.ProductID})
		}

		result := s.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "design_id"}, {Name: "vendor_product_id"}},
			DoNothing: true,
		}).Create(&links)
		if result.Error != nil {
			return created, settled, fmt.Errorf("failed to create missing links: %w", result.Error)
		}
		created += result.RowsAffected
	}

	for _, designID := range decidedOrder {
		linked, moved, err := s.settleDecided(ctx, designID, decided[designID])
		created += linked
		settled += moved
		if err != nil {
			return created, settled, err
		}
	}

	return created, settled, nil
}

// settleDecided links products to a design that has already been decided
// and gives PENDING ones the state the cascade would have set. Locks follow
// the decide order: design first, then its products.
func (s *LinkService) settleDecided(ctx context.Context, designID uuid.UUID, productIDs []uuid.UUID) (created, settled int64, err error) {
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		created, settled = 0, 0

		var design models.Design
		if err := lockDesign(tx, designID, &design); err != nil {
			if errors.Is(err, ErrNotFound) {
				return nil
			}
			return err
		}

		var products []models.VendorProduct
		err := database.ForUpdate(tx).
			Where("id IN ? AND design_id = ?", productIDs, designID).
			Order("id").
			Find(&products).Error
		if err != nil {
			return fmt.Errorf("failed to load products for design %s: %w", designID, err)
		}

		for i := range products {
			product := &products[i]
			n, err := insertLink(tx, designID, product.ID)
			if err != nil {
				return err
			}
			created += n

			if product.Status != models.ProductStatusPending || !applyDecision(product, &design) {
				continue
			}
			if err := tx.Model(product).Select(productDecisionColumns).Updates(product).Error; err != nil {
				return fmt.Errorf("failed to update product %s: %w", product.ID, err)
			}
			settled++
		}
		return nil
	})
	if err != nil {
		return 0, 0, err
	}

	if settled > 0 {
		s.log.WithFields(logrus.Fields{
			"design_id": designID,
			"status":    "settled",
			"products":  settled,
		}).Info("Applied earlier design decision to relinked products")
	}
	return created, settled, nil
}

// removeOrphanLinks deletes links whose design or product is gone, and links
// that disagree with the product's current design_id.
func (s *LinkService) removeOrphanLinks(ctx context.Context) (int64, error) {
	result := s.db.WithContext(ctx).
		Where(`NOT EXISTS (SELECT 1 FROM designs WHERE designs.id = design_product_links.design_id AND designs.deleted_at IS NULL)
			OR NOT EXISTS (SELECT 1 FROM vendor_products WHERE vendor_products.id = design_product_links.vendor_product_id
				AND vendor_products.deleted_at IS NULL AND vendor_products.design_id = design_product_links.design_id)`).
		Delete(&models.DesignProductLink{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to remove orphan links: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// danglingProducts lists live products whose design row no longer exists.
// They cannot be repaired automatically and are reported for follow-up.
func (s *LinkService) danglingProducts(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := s.db.WithContext(ctx).Model(&models.VendorProduct{}).
		Where("design_id IS NOT NULL").
		Where("NOT EXISTS (SELECT 1 FROM designs WHERE designs.id = vendor_products.design_id AND designs.deleted_at IS NULL)").
		Order("id").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find dangling products: %w", err)
	}
	return ids, nil
}
