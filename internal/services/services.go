// internal/services/services.go
package services

import (
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/javajoker/pod-backend/internal/config"
)

// Services wires the design validation services together.
type Services struct {
	Audit         *AuditService
	Notifications *NotificationService
	Catalog       *CatalogService
	Designs       *DesignService
	Links         *LinkService
	Products      *VendorProductService
	Validation    *ValidationService
	Reconciler    *ReconcileWorker
}

func New(db *gorm.DB, blobs BlobStore, cfg *config.Config, log *logrus.Logger) *Services {
	audit := NewAuditService(db, log)
	notifications := NewNotificationService(db, log)
	catalog := NewCatalogService(db)
	links := NewLinkService(db, log)
	designs := NewDesignService(db, blobs, audit, cfg.Design.MaxBytes, log)

	return &Services{
		Audit:         audit,
		Notifications: notifications,
		Catalog:       catalog,
		Designs:       designs,
		Links:         links,
		Products:      NewVendorProductService(db, designs, links, catalog, log),
		Validation:    NewValidationService(db, links, audit, notifications, log),
		Reconciler:    NewReconcileWorker(links, audit, time.Duration(cfg.Reconcile.IntervalSeconds)*time.Second, log),
	}
}

// Wait drains background side effects, used on shutdown.
func (s *Services) Wait() {
	s.Designs.Wait()
	s.Validation.Wait()
}
