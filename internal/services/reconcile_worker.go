// internal/services/reconcile_worker.go
package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// ReconcileWorker runs the design link repair sweep on an interval.
type ReconcileWorker struct {
	links    *LinkService
	audit    *AuditService
	interval time.Duration
	log      *logrus.Entry
}

func NewReconcileWorker(links *LinkService, audit *AuditService, interval time.Duration, log *logrus.Logger) *ReconcileWorker {
	return &ReconcileWorker{
		links:    links,
		audit:    audit,
		interval: interval,
		log:      log.WithField("service", "reconcile_worker"),
	}
}

// Run blocks until ctx is cancelled. A zero interval disables the sweep.
func (w *ReconcileWorker) Run(ctx context.Context) {
	if w.interval <= 0 {
		w.log.Info("Periodic link reconciliation disabled")
		return
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.log.WithField("interval", w.interval).Info("Periodic link reconciliation started")
	for {
		select {
		case <-ctx.Done():
			w.log.Info("Periodic link reconciliation stopped")
			return
		case <-ticker.C:
			if _, err := w.RunOnce(ctx); err != nil && ctx.Err() == nil {
				w.log.WithError(err).Error("Link reconciliation failed")
			}
		}
	}
}

// RunOnce performs a single sweep and records an audit entry when it
// repaired anything.
func (w *ReconcileWorker) RunOnce(ctx context.Context) (*ReconcileReport, error) {
	report, err := w.links.Reconcile(ctx)
	if err != nil {
		return nil, err
	}

	if report.Changed() {
		err := w.audit.Record(ctx, AuditEntry{
			Action:       AuditActionReconcileLinks,
			ResourceType: "design_product_link",
			NewValues: map[string]interface{}{
				"links_created":     report.LinksCreated,
				"products_settled":  report.ProductsSettled,
				"orphans_removed":   report.OrphansRemoved,
				"dangling_products": len(report.DanglingProductIDs),
			},
		})
		if err != nil {
			w.log.WithError(err).Warn("Failed to record reconcile audit entry")
		}
	}

	return report, nil
}
