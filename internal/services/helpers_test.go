package services

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/javajoker/pod-backend/internal/config"
	"github.com/javajoker/pod-backend/internal/database"
	"github.com/javajoker/pod-backend/internal/logger"
	"github.com/javajoker/pod-backend/internal/models"
)

type fakeBlobStore struct {
	mu        sync.Mutex
	uploads   map[string]int
	deletes   []string
	uploadErr error
	onUpload  func()
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{uploads: make(map[string]int)}
}

func (f *fakeBlobStore) Upload(ctx context.Context, data []byte, opts UploadOptions) (*UploadResult, error) {
	if f.onUpload != nil {
		f.onUpload()
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	f.uploads[opts.Key]++
	return &UploadResult{
		URL:      "https://cdn.test/" + opts.Key,
		Key:      opts.Key,
		Size:     int64(len(data)),
		MimeType: opts.ContentType,
	}, nil
}

func (f *fakeBlobStore) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, key)
	return nil
}

func (f *fakeBlobStore) uploadCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, n := range f.uploads {
		total += n
	}
	return total
}

func discardLogger() *logrus.Logger {
	return logger.Discard()
}

// artwork returns a small valid PNG whose bytes differ per seed.
func artwork(t testing.TB, seed uint8) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 3))
	img.Set(0, 0, color.RGBA{R: seed, G: 10, B: 20, A: 255})

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// serviceSuite gives every test a fresh database and service graph.
type serviceSuite struct {
	suite.Suite
	ctx         context.Context
	db          *gorm.DB
	blobs       *fakeBlobStore
	svc         *Services
	vendorID    uuid.UUID
	adminID     uuid.UUID
	baseProduct models.BaseProduct
}

func (suite *serviceSuite) SetupTest() {
	suite.ctx = context.Background()
	suite.db = database.NewTestDB(suite.T())
	suite.blobs = newFakeBlobStore()
	cfg := &config.Config{
		Design:    config.DesignConfig{MaxBytes: 1 << 20},
		Reconcile: config.ReconcileConfig{IntervalSeconds: 0},
	}
	suite.svc = New(suite.db, suite.blobs, cfg, logger.Discard())
	suite.vendorID = uuid.New()
	suite.adminID = uuid.New()

	suite.baseProduct = models.BaseProduct{
		Name:     "Classic T-Shirt",
		Price:    12.5,
		Images:   []string{"https://cdn.test/tee.png"},
		Sizes:    []string{"S", "M", "L"},
		Colors:   []string{"white"},
		IsActive: true,
	}
	suite.Require().NoError(suite.db.Create(&suite.baseProduct).Error)
}

func (suite *serviceSuite) TearDownTest() {
	suite.svc.Wait()
}

func (suite *serviceSuite) newDesign(vendorID uuid.UUID, seed uint8) *models.Design {
	design, _, err := suite.svc.Designs.GetOrCreateDesign(suite.ctx, vendorID, artwork(suite.T(), seed), DesignMetadata{Name: "art"})
	suite.Require().NoError(err)
	return design
}

func (suite *serviceSuite) pendingDesign(seed uint8) *models.Design {
	design := suite.newDesign(suite.vendorID, seed)
	design, err := suite.svc.Designs.Submit(suite.ctx, design.ID, suite.vendorID)
	suite.Require().NoError(err)
	return design
}

func (suite *serviceSuite) productRequest(designID uuid.UUID, action models.PostValidationAction) *CreateVendorProductRequest {
	return &CreateVendorProductRequest{
		BaseProductID:        suite.baseProduct.ID,
		DesignID:             &designID,
		Name:                 "Sunset tee",
		Price:                24.99,
		Stock:                10,
		Sizes:                []string{"M"},
		PostValidationAction: action,
	}
}

func (suite *serviceSuite) newProduct(designID uuid.UUID, action models.PostValidationAction) *models.VendorProduct {
	product, err := suite.svc.Products.CreateProduct(suite.ctx, suite.vendorID, suite.productRequest(designID, action))
	suite.Require().NoError(err)
	return product
}

func (suite *serviceSuite) reloadProduct(id uuid.UUID) models.VendorProduct {
	var product models.VendorProduct
	suite.Require().NoError(suite.db.Unscoped().First(&product, "id = ?", id).Error)
	return product
}

func (suite *serviceSuite) reloadDesign(id uuid.UUID) models.Design {
	var design models.Design
	suite.Require().NoError(suite.db.First(&design, "id = ?", id).Error)
	return design
}

func (suite *serviceSuite) countRows(model interface{}) int64 {
	var n int64
	suite.Require().NoError(suite.db.Model(model).Count(&n).Error)
	return n
}
