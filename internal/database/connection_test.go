package database

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/javajoker/pod-backend/internal/models"
)

func TestRunMigrationsCreatesTables(t *testing.T) {
	db := NewTestDB(t)

	for _, table := range []string{"designs", "vendor_products", "design_product_links", "base_products", "audit_logs", "notifications"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
}

func TestDesignVendorHashIsUnique(t *testing.T) {
	db := NewTestDB(t)
	vendorID := uuid.New()
	design := models.Design{VendorID: vendorID, ContentHash: "abc", StorageURL: "u", StorageKey: "k", ByteSize: 1, Status: models.DesignStatusDraft}
	require.NoError(t, db.Create(&design).Error)

	dup := models.Design{VendorID: vendorID, ContentHash: "abc", StorageURL: "u2", StorageKey: "k2", ByteSize: 1, Status: models.DesignStatusDraft}
	err := db.Create(&dup).Error
	assert.True(t, errors.Is(err, gorm.ErrDuplicatedKey), "got %v", err)
}

func TestWithTransactionRollsBack(t *testing.T) {
	db := NewTestDB(t)

	err := WithTransaction(db, func(tx *gorm.DB) error {
		if err := tx.Create(&models.BaseProduct{Name: "Tote", Price: 5}).Error; err != nil {
			return err
		}
		return errors.New("boom")
	})
	require.Error(t, err)

	var count int64
	db.Model(&models.BaseProduct{}).Count(&count)
	assert.Zero(t, count)
}

func TestSeedBaseProductsIsIdempotent(t *testing.T) {
	db := NewTestDB(t)

	require.NoError(t, SeedBaseProducts(db))
	require.NoError(t, SeedBaseProducts(db))

	var count int64
	db.Model(&models.BaseProduct{}).Count(&count)
	assert.Equal(t, int64(3), count)
}
