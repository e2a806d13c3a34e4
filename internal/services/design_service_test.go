package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/javajoker/pod-backend/internal/logger"
	"github.com/javajoker/pod-backend/internal/models"
	"github.com/javajoker/pod-backend/internal/utils"
)

type DesignServiceTestSuite struct {
	serviceSuite
}

func TestDesignServiceTestSuite(t *testing.T) {
	suite.Run(t, new(DesignServiceTestSuite))
}

func (suite *DesignServiceTestSuite) TestGetOrCreateDesignDeduplicates() {
	data := artwork(suite.T(), 1)

	first, created, err := suite.svc.Designs.GetOrCreateDesign(suite.ctx, suite.vendorID, data, DesignMetadata{Name: "Sunset"})
	suite.Require().NoError(err)
	assert.True(suite.T(), created)

	second, created, err := suite.svc.Designs.GetOrCreateDesign(suite.ctx, suite.vendorID, data, DesignMetadata{Name: "Other name"})
	suite.Require().NoError(err)
	assert.False(suite.T(), created)

	assert.Equal(suite.T(), first.ID, second.ID)
	assert.Equal(suite.T(), "Sunset", second.Name)
	assert.Equal(suite.T(), 1, suite.blobs.uploadCount())
	assert.Equal(suite.T(), int64(1), suite.countRows(&models.Design{}))
}

func (suite *DesignServiceTestSuite) TestGetOrCreateDesignRecordsContent() {
	data := artwork(suite.T(), 2)

	design, _, err := suite.svc.Designs.GetOrCreateDesign(suite.ctx, suite.vendorID, data, DesignMetadata{Tags: []string{"sun"}, Category: "nature"})
	suite.Require().NoError(err)

	assert.Equal(suite.T(), utils.HashContent(data), design.ContentHash)
	assert.Equal(suite.T(), models.DesignStatusDraft, design.Status)
	assert.Equal(suite.T(), "png", design.Format)
	assert.Equal(suite.T(), 4, design.Width)
	assert.Equal(suite.T(), 3, design.Height)
	assert.Equal(suite.T(), int64(len(data)), design.ByteSize)
	assert.Contains(suite.T(), design.StorageKey, suite.vendorID.String())
	assert.Equal(suite.T(), "https://cdn.test/"+design.StorageKey, design.StorageURL)

	stored := suite.reloadDesign(design.ID)
	assert.Equal(suite.T(), []string{"sun"}, stored.Tags)
}

func (suite *DesignServiceTestSuite) TestSameBytesDifferentVendorsAreIsolated() {
	data := artwork(suite.T(), 3)
	otherVendor := uuid.New()

	mine, _, err := suite.svc.Designs.GetOrCreateDesign(suite.ctx, suite.vendorID, data, DesignMetadata{})
	suite.Require().NoError(err)
	theirs, created, err := suite.svc.Designs.GetOrCreateDesign(suite.ctx, otherVendor, data, DesignMetadata{})
	suite.Require().NoError(err)

	assert.True(suite.T(), created)
	assert.NotEqual(suite.T(), mine.ID, theirs.ID)
	assert.Equal(suite.T(), mine.ContentHash, theirs.ContentHash)
	assert.Equal(suite.T(), 2, suite.blobs.uploadCount())
}

func (suite *DesignServiceTestSuite) TestConcurrentUploadsOfSameContentShareOneDesign() {
	data := artwork(suite.T(), 4)

	const callers = 8
	ids := make([]uuid.UUID, callers)
	errs := make([]error, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			design, _, err := suite.svc.Designs.GetOrCreateDesign(suite.ctx, suite.vendorID, data, DesignMetadata{})
			errs[i] = err
			if design != nil {
				ids[i] = design.ID
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		suite.Require().NoError(errs[i])
		assert.Equal(suite.T(), ids[0], ids[i])
	}
	assert.Equal(suite.T(), 1, suite.blobs.uploadCount())
	assert.Equal(suite.T(), int64(1), suite.countRows(&models.Design{}))
}

func (suite *DesignServiceTestSuite) TestInsertRaceReturnsWinner() {
	data := artwork(suite.T(), 5)

	// two service instances do not share a singleflight group, so both
	// reach the insert and one of them hits the unique index
	var barrier sync.WaitGroup
	barrier.Add(2)
	suite.blobs.onUpload = func() {
		barrier.Done()
		barrier.Wait()
	}

	first := NewDesignService(suite.db, suite.blobs, suite.svc.Audit, 1<<20, logger.Discard())
	second := NewDesignService(suite.db, suite.blobs, suite.svc.Audit, 1<<20, logger.Discard())

	var wg sync.WaitGroup
	results := make([]*models.Design, 2)
	created := make([]bool, 2)
	errs := make([]error, 2)
	for i, svc := range []*DesignService{first, second} {
		wg.Add(1)
		go func(i int, svc *DesignService) {
			defer wg.Done()
			results[i], created[i], errs[i] = svc.GetOrCreateDesign(suite.ctx, suite.vendorID, data, DesignMetadata{})
		}(i, svc)
	}
	wg.Wait()

	suite.Require().NoError(errs[0])
	suite.Require().NoError(errs[1])
	assert.Equal(suite.T(), results[0].ID, results[1].ID)
	assert.True(suite.T(), created[0] != created[1])
	assert.Equal(suite.T(), int64(1), suite.countRows(&models.Design{}))
	// both uploads wrote the same content addressed key, which the winner owns
	assert.Empty(suite.T(), suite.blobs.deletes)
}

func (suite *DesignServiceTestSuite) TestCancelledCallerDoesNotAbortCreation() {
	ctx, cancel := context.WithCancel(suite.ctx)
	defer cancel()
	suite.blobs.onUpload = cancel

	design, created, err := suite.svc.Designs.GetOrCreateDesign(ctx, suite.vendorID, artwork(suite.T(), 30), DesignMetadata{})

	suite.Require().NoError(err)
	assert.True(suite.T(), created)
	assert.Equal(suite.T(), design.ID, suite.reloadDesign(design.ID).ID)
	assert.Empty(suite.T(), suite.blobs.deletes)
}

// failDesignInserts makes design inserts fail with a non-constraint error
// once armed is set.
func (suite *DesignServiceTestSuite) failDesignInserts(armed *bool) {
	err := suite.db.Callback().Create().Before("gorm:create").Register("test:fail_design_insert", func(tx *gorm.DB) {
		if !*armed || tx.Statement.Schema == nil || tx.Statement.Schema.Table != "designs" {
			return
		}
		tx.AddError(errors.New("simulated write failure"))
	})
	suite.Require().NoError(err)
}

func (suite *DesignServiceTestSuite) TestFailedInsertKeepsBlobOwnedByCommittedDesign() {
	data := artwork(suite.T(), 31)
	hash := utils.HashContent(data)
	key := fmt.Sprintf("designs/%s/%s.png", suite.vendorID, hash)

	var armed bool
	suite.failDesignInserts(&armed)

	// another instance commits the same content while this one uploads
	suite.blobs.onUpload = func() {
		winner := models.Design{
			VendorID:    suite.vendorID,
			ContentHash: hash,
			StorageURL:  "https://cdn.test/" + key,
			StorageKey:  key,
			ByteSize:    int64(len(data)),
			Format:      "png",
			Width:       4,
			Height:      3,
			Status:      models.DesignStatusDraft,
		}
		suite.Require().NoError(suite.db.Create(&winner).Error)
		armed = true
	}

	_, _, err := suite.svc.Designs.GetOrCreateDesign(suite.ctx, suite.vendorID, data, DesignMetadata{})

	suite.Require().Error(err)
	assert.Empty(suite.T(), suite.blobs.deletes)
	assert.Equal(suite.T(), int64(1), suite.countRows(&models.Design{}))
}

func (suite *DesignServiceTestSuite) TestFailedInsertDeletesUnownedBlob() {
	data := artwork(suite.T(), 32)
	key := fmt.Sprintf("designs/%s/%s.png", suite.vendorID, utils.HashContent(data))

	armed := true
	suite.failDesignInserts(&armed)

	_, _, err := suite.svc.Designs.GetOrCreateDesign(suite.ctx, suite.vendorID, data, DesignMetadata{})

	suite.Require().Error(err)
	assert.Equal(suite.T(), []string{key}, suite.blobs.deletes)
	assert.Equal(suite.T(), int64(0), suite.countRows(&models.Design{}))
}

func (suite *DesignServiceTestSuite) TestGetOrCreateDesignRejectsBadInput() {
	_, _, err := suite.svc.Designs.GetOrCreateDesign(suite.ctx, suite.vendorID, nil, DesignMetadata{})
	assert.ErrorIs(suite.T(), err, ErrValidation)

	_, _, err = suite.svc.Designs.GetOrCreateDesign(suite.ctx, suite.vendorID, []byte("not an image"), DesignMetadata{})
	assert.ErrorIs(suite.T(), err, ErrValidation)

	_, _, err = suite.svc.Designs.GetOrCreateDesign(suite.ctx, uuid.Nil, artwork(suite.T(), 6), DesignMetadata{})
	assert.ErrorIs(suite.T(), err, ErrValidation)

	small := NewDesignService(suite.db, suite.blobs, suite.svc.Audit, 10, logger.Discard())
	_, _, err = small.GetOrCreateDesign(suite.ctx, suite.vendorID, artwork(suite.T(), 6), DesignMetadata{})
	assert.ErrorIs(suite.T(), err, ErrValidation)

	assert.Equal(suite.T(), 0, suite.blobs.uploadCount())
	assert.Equal(suite.T(), int64(0), suite.countRows(&models.Design{}))
}

func (suite *DesignServiceTestSuite) TestStorageFailureCreatesNoDesign() {
	suite.blobs.uploadErr = errors.New("bucket unavailable")

	_, _, err := suite.svc.Designs.GetOrCreateDesign(suite.ctx, suite.vendorID, artwork(suite.T(), 7), DesignMetadata{})

	assert.ErrorIs(suite.T(), err, ErrStorageFailure)
	assert.Equal(suite.T(), int64(0), suite.countRows(&models.Design{}))
}

func (suite *DesignServiceTestSuite) TestSubmitMovesDraftToPending() {
	design := suite.newDesign(suite.vendorID, 8)

	submitted, err := suite.svc.Designs.Submit(suite.ctx, design.ID, suite.vendorID)
	suite.Require().NoError(err)
	assert.Equal(suite.T(), models.DesignStatusPending, submitted.Status)
	assert.NotNil(suite.T(), submitted.SubmittedAt)

	_, err = suite.svc.Designs.Submit(suite.ctx, design.ID, suite.vendorID)
	assert.ErrorIs(suite.T(), err, ErrInvalidState)

	suite.svc.Wait()
	var audit models.AuditLog
	suite.Require().NoError(suite.db.Where("action = ?", AuditActionSubmitDesign).First(&audit).Error)
	assert.Equal(suite.T(), design.ID, *audit.ResourceID)
}

func (suite *DesignServiceTestSuite) TestSubmitHidesOtherVendorsDesign() {
	design := suite.newDesign(uuid.New(), 9)

	_, err := suite.svc.Designs.Submit(suite.ctx, design.ID, suite.vendorID)
	assert.ErrorIs(suite.T(), err, ErrNotFound)

	_, err = suite.svc.Designs.Submit(suite.ctx, uuid.New(), suite.vendorID)
	assert.ErrorIs(suite.T(), err, ErrNotFound)
}

func (suite *DesignServiceTestSuite) TestUpdateDesignMetadataLocksAfterDecision() {
	design := suite.pendingDesign(10)
	name := "Renamed"

	updated, err := suite.svc.Designs.UpdateDesignMetadata(suite.ctx, design.ID, suite.vendorID, &UpdateDesignRequest{Name: &name, Tags: []string{"a"}})
	suite.Require().NoError(err)
	assert.Equal(suite.T(), "Renamed", updated.Name)
	assert.Equal(suite.T(), models.DesignStatusPending, updated.Status)

	_, err = suite.svc.Validation.Decide(suite.ctx, DecisionRequest{DesignID: design.ID, Decision: models.DecisionValidate, ActorID: suite.adminID})
	suite.Require().NoError(err)

	_, err = suite.svc.Designs.UpdateDesignMetadata(suite.ctx, design.ID, suite.vendorID, &UpdateDesignRequest{Name: &name})
	assert.ErrorIs(suite.T(), err, ErrLockedState)
}

func (suite *DesignServiceTestSuite) TestListPendingDesignsOnlyReturnsQueue() {
	suite.pendingDesign(11)
	suite.pendingDesign(12)
	suite.newDesign(suite.vendorID, 13)

	designs, total, err := suite.svc.Designs.ListPendingDesigns(suite.ctx, utils.PaginationParams{})
	suite.Require().NoError(err)
	assert.Equal(suite.T(), int64(2), total)
	for _, d := range designs {
		assert.Equal(suite.T(), models.DesignStatusPending, d.Status)
	}

	mine, total, err := suite.svc.Designs.ListVendorDesigns(suite.ctx, suite.vendorID, utils.PaginationParams{Status: "DRAFT"})
	suite.Require().NoError(err)
	assert.Equal(suite.T(), int64(1), total)
	assert.Len(suite.T(), mine, 1)
}

func (suite *DesignServiceTestSuite) TestGetDesignScopesToVendor() {
	design := suite.newDesign(suite.vendorID, 14)
	other := uuid.New()

	_, err := suite.svc.Designs.GetDesign(suite.ctx, design.ID, &other)
	assert.ErrorIs(suite.T(), err, ErrNotFound)

	found, err := suite.svc.Designs.GetDesign(suite.ctx, design.ID, nil)
	suite.Require().NoError(err)
	assert.Equal(suite.T(), design.ID, found.ID)
}
