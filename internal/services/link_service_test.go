package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/javajoker/pod-backend/internal/models"
)

type LinkServiceTestSuite struct {
	serviceSuite
}

func TestLinkServiceTestSuite(t *testing.T) {
	suite.Run(t, new(LinkServiceTestSuite))
}

// legacyProduct inserts a product the way old imports did: design_id set,
// no link row.
func (suite *LinkServiceTestSuite) legacyProduct(designID uuid.UUID) models.VendorProduct {
	product := models.VendorProduct{
		VendorID:             suite.vendorID,
		BaseProductID:        suite.baseProduct.ID,
		DesignID:             &designID,
		Name:                 "Legacy",
		Price:                10,
		PostValidationAction: models.PostValidationAutoPublish,
		Status:               models.ProductStatusPending,
	}
	suite.Require().NoError(suite.db.Create(&product).Error)
	return product
}

func (suite *LinkServiceTestSuite) TestLinkIsIdempotent() {
	design := suite.newDesign(suite.vendorID, 1)
	product := suite.legacyProduct(design.ID)

	err := suite.db.Transaction(func(tx *gorm.DB) error {
		if err := suite.svc.Links.Link(tx, design.ID, product.ID); err != nil {
			return err
		}
		return suite.svc.Links.Link(tx, design.ID, product.ID)
	})
	suite.Require().NoError(err)

	assert.Equal(suite.T(), int64(1), suite.countRows(&models.DesignProductLink{}))
}

func (suite *LinkServiceTestSuite) TestProductsForSkipsDeletedProducts() {
	design := suite.newDesign(suite.vendorID, 2)
	kept := suite.newProduct(design.ID, models.PostValidationAutoPublish)
	removed := suite.newProduct(design.ID, models.PostValidationAutoPublish)

	// soft delete without going through DeleteProduct so the link survives
	suite.Require().NoError(suite.db.Delete(&models.VendorProduct{}, "id = ?", removed.ID).Error)

	var ids []uuid.UUID
	err := suite.db.Transaction(func(tx *gorm.DB) error {
		var err error
		ids, err = suite.svc.Links.ProductsFor(tx, design.ID)
		return err
	})
	suite.Require().NoError(err)
	assert.Equal(suite.T(), []uuid.UUID{kept.ID}, ids)
}

func (suite *LinkServiceTestSuite) TestReconcileCreatesMissingLinks() {
	design := suite.newDesign(suite.vendorID, 3)
	linked := suite.newProduct(design.ID, models.PostValidationAutoPublish)
	legacy := suite.legacyProduct(design.ID)

	report, err := suite.svc.Links.Reconcile(suite.ctx)
	suite.Require().NoError(err)

	assert.Equal(suite.T(), int64(1), report.LinksCreated)
	assert.Equal(suite.T(), int64(0), report.OrphansRemoved)
	assert.True(suite.T(), report.Changed())

	products, err := suite.svc.Links.LinkedProducts(suite.ctx, design.ID)
	suite.Require().NoError(err)
	assert.Len(suite.T(), products, 2)

	ids := []uuid.UUID{products[0].ID, products[1].ID}
	assert.ElementsMatch(suite.T(), []uuid.UUID{linked.ID, legacy.ID}, ids)

	again, err := suite.svc.Links.Reconcile(suite.ctx)
	suite.Require().NoError(err)
	assert.False(suite.T(), again.Changed())
}

func (suite *LinkServiceTestSuite) TestReconcileRemovesOrphans() {
	design := suite.newDesign(suite.vendorID, 4)
	deletedProduct := suite.newProduct(design.ID, models.PostValidationAutoPublish)
	moved := suite.newProduct(design.ID, models.PostValidationAutoPublish)
	healthy := suite.newProduct(design.ID, models.PostValidationAutoPublish)

	suite.Require().NoError(suite.db.Delete(&models.VendorProduct{}, "id = ?", deletedProduct.ID).Error)

	// product now points at another design, its old link is stale
	other := suite.newDesign(suite.vendorID, 5)
	suite.Require().NoError(suite.db.Model(&models.VendorProduct{}).Where("id = ?", moved.ID).Update("design_id", other.ID).Error)

	ghost := models.DesignProductLink{DesignID: uuid.New(), VendorProductID: healthy.ID}
	suite.Require().NoError(suite.db.Create(&ghost).Error)

	report, err := suite.svc.Links.Reconcile(suite.ctx)
	suite.Require().NoError(err)

	assert.Equal(suite.T(), int64(3), report.OrphansRemoved)
	assert.Equal(suite.T(), int64(1), report.LinksCreated)

	var links []models.DesignProductLink
	suite.Require().NoError(suite.db.Order("created_at").Find(&links).Error)
	pairs := make(map[uuid.UUID]uuid.UUID)
	for _, l := range links {
		pairs[l.VendorProductID] = l.DesignID
	}
	assert.Equal(suite.T(), map[uuid.UUID]uuid.UUID{
		healthy.ID: design.ID,
		moved.ID:   other.ID,
	}, pairs)
}

func (suite *LinkServiceTestSuite) TestReconcileReportsProductsWithMissingDesign() {
	product := suite.legacyProduct(uuid.New())

	report, err := suite.svc.Links.Reconcile(suite.ctx)
	suite.Require().NoError(err)

	assert.Equal(suite.T(), []uuid.UUID{product.ID}, report.DanglingProductIDs)
	assert.Equal(suite.T(), int64(0), report.LinksCreated)
	assert.Equal(suite.T(), int64(0), suite.countRows(&models.DesignProductLink{}))
}

func (suite *LinkServiceTestSuite) TestReconcileSettlesProductsOfValidatedDesign() {
	design := suite.pendingDesign(7)
	_, err := suite.svc.Validation.Decide(suite.ctx, DecisionRequest{
		DesignID: design.ID,
		Decision: models.DecisionValidate,
		ActorID:  suite.adminID,
	})
	suite.Require().NoError(err)

	legacy := suite.legacyProduct(design.ID)

	report, err := suite.svc.Links.Reconcile(suite.ctx)
	suite.Require().NoError(err)
	assert.Equal(suite.T(), int64(1), report.LinksCreated)
	assert.Equal(suite.T(), int64(1), report.ProductsSettled)

	stored := suite.reloadProduct(legacy.ID)
	decided := suite.reloadDesign(design.ID)
	assert.Equal(suite.T(), models.ProductStatusPublished, stored.Status)
	assert.True(suite.T(), stored.IsValidated)
	suite.Require().NotNil(stored.PublishedAt)
	assert.WithinDuration(suite.T(), *decided.ValidatedAt, *stored.PublishedAt, time.Second)

	again, err := suite.svc.Links.Reconcile(suite.ctx)
	suite.Require().NoError(err)
	assert.False(suite.T(), again.Changed())
}

func (suite *LinkServiceTestSuite) TestReconcileSettlesProductsOfRejectedDesign() {
	design := suite.pendingDesign(8)
	_, err := suite.svc.Validation.Decide(suite.ctx, DecisionRequest{
		DesignID: design.ID,
		Decision: models.DecisionReject,
		Reason:   "low resolution",
		ActorID:  suite.adminID,
	})
	suite.Require().NoError(err)

	legacy := suite.legacyProduct(design.ID)

	// already out of PENDING, only the link is restored
	drafted := suite.legacyProduct(design.ID)
	suite.Require().NoError(suite.db.Model(&models.VendorProduct{}).Where("id = ?", drafted.ID).
		Update("status", models.ProductStatusDraft).Error)

	report, err := suite.svc.Links.Reconcile(suite.ctx)
	suite.Require().NoError(err)
	assert.Equal(suite.T(), int64(2), report.LinksCreated)
	assert.Equal(suite.T(), int64(1), report.ProductsSettled)

	stored := suite.reloadProduct(legacy.ID)
	assert.Equal(suite.T(), models.ProductStatusRejected, stored.Status)
	assert.Equal(suite.T(), "low resolution", stored.RejectionReason)
	assert.False(suite.T(), stored.IsValidated)

	assert.Equal(suite.T(), models.ProductStatusDraft, suite.reloadProduct(drafted.ID).Status)
	assert.Equal(suite.T(), int64(2), suite.countRows(&models.DesignProductLink{}))
}

func (suite *LinkServiceTestSuite) TestReconcileWorkerRecordsRepairs() {
	design := suite.newDesign(suite.vendorID, 6)
	suite.legacyProduct(design.ID)

	report, err := suite.svc.Reconciler.RunOnce(suite.ctx)
	suite.Require().NoError(err)
	assert.Equal(suite.T(), int64(1), report.LinksCreated)

	var audit models.AuditLog
	suite.Require().NoError(suite.db.Where("action = ?", AuditActionReconcileLinks).First(&audit).Error)
	assert.EqualValues(suite.T(), 1, audit.NewValues["links_created"])

	_, err = suite.svc.Reconciler.RunOnce(suite.ctx)
	suite.Require().NoError(err)
	assert.Equal(suite.T(), int64(1), suite.countRows(&models.AuditLog{}))
}

func (suite *LinkServiceTestSuite) TestReconcileWorkerStopsOnCancel() {
	worker := NewReconcileWorker(suite.svc.Links, suite.svc.Audit, 10*time.Millisecond, discardLogger())

	ctx, cancel := context.WithCancel(suite.ctx)
	done := make(chan struct{})
	go func() {
		worker.Run(ctx)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		suite.T().Fatal("worker did not stop after cancel")
	}
}

func (suite *LinkServiceTestSuite) TestReconcileWorkerDisabled() {
	worker := NewReconcileWorker(suite.svc.Links, suite.svc.Audit, 0, discardLogger())

	done := make(chan struct{})
	go func() {
		worker.Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		suite.T().Fatal("disabled worker should return immediately")
	}
}
