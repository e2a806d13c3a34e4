// cmd/reconcile/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/javajoker/pod-backend/internal/config"
	"github.com/javajoker/pod-backend/internal/database"
	"github.com/javajoker/pod-backend/internal/logger"
	"github.com/javajoker/pod-backend/internal/services"
)

// Runs a single design link reconciliation sweep and exits. Intended for
// cron jobs and for repairing data after a bulk import.
func main() {
	timeout := flag.Duration("timeout", 10*time.Minute, "abort the sweep after this long")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to load configuration:", err)
		os.Exit(1)
	}

	log := logger.Setup(cfg.Log)

	db, err := database.Initialize(cfg.Database)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize database")
	}
	defer database.Close(db)

	if err := database.RunMigrations(db); err != nil {
		log.WithError(err).Fatal("Failed to run migrations")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	ctx, cancelTimeout := context.WithTimeout(ctx, *timeout)
	defer cancelTimeout()

	// The sweep never touches blobs, so no store is needed.
	svc := services.New(db, nil, cfg, log)
	report, err := svc.Reconciler.RunOnce(ctx)
	if err != nil {
		log.WithError(err).Error("Reconciliation failed")
		os.Exit(1)
	}

	log.WithFields(logrus.Fields{
		"links_created":     report.LinksCreated,
		"products_settled":  report.ProductsSettled,
		"orphans_removed":   report.OrphansRemoved,
		"dangling_products": report.DanglingProductIDs,
		"duration":          report.Duration,
	}).Info("Reconciliation finished")
}
