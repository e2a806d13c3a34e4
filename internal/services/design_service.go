// internal/services/design_service.go
package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"

	"github.com/javajoker/pod-backend/internal/database"
	"github.com/javajoker/pod-backend/internal/models"
	"github.com/javajoker/pod-backend/internal/utils"
)

// designCreateTimeout bounds a shared creation flight, which outlives the
// caller that started it.
const designCreateTimeout = 2 * time.Minute

type DesignService struct {
	db       *gorm.DB
	blobs    BlobStore
	audit    *AuditService
	maxBytes int64
	log      *logrus.Entry

	inflight singleflight.Group
	tasks    background
}

type DesignMetadata struct {
	Name     string   `json:"name" validate:"omitempty,max=255"`
	Tags     []string `json:"tags,omitempty" validate:"omitempty,max=20,dive,min=1,max=50"`
	Category string   `json:"category,omitempty" validate:"omitempty,max=100"`
}

type UpdateDesignRequest struct {
	Name     *string  `json:"name,omitempty" validate:"omitempty,max=255"`
	Tags     []string `json:"tags,omitempty" validate:"omitempty,max=20,dive,min=1,max=50"`
	Category *string  `json:"category,omitempty" validate:"omitempty,max=100"`
}

type imageInfo struct {
	format      string
	contentType string
	ext         string
	width       int
	height      int
}

var supportedFormats = map[string]imageInfo{
	"png":  {format: "png", contentType: "image/png", ext: ".png"},
	"jpeg": {format: "jpeg", contentType: "image/jpeg", ext: ".jpg"},
	"gif":  {format: "gif", contentType: "image/gif", ext: ".gif"},
	"webp": {format: "webp", contentType: "image/webp", ext: ".webp"},
}

type createdDesign struct {
	design  *models.Design
	created bool
}

func NewDesignService(db *gorm.DB, blobs BlobStore, audit *AuditService, maxBytes int64, log *logrus.Logger) *DesignService {
	return &DesignService{
		db:       db,
		blobs:    blobs,
		audit:    audit,
		maxBytes: maxBytes,
		log:      log.WithField("service", "design"),
	}
}

// GetOrCreateDesign returns the vendor's design with the same content or
// uploads the bytes and creates a DRAFT design. created reports whether a
// new row was inserted by this call.
func (s *DesignService) GetOrCreateDesign(ctx context.Context, vendorID uuid.UUID, data []byte, meta DesignMetadata) (*models.Design, bool, error) {
	if vendorID == uuid.Nil {
		return nil, false, fmt.Errorf("%w: vendor id is required", ErrValidation)
	}
	if len(data) == 0 {
		return nil, false, fmt.Errorf("%w: design file is empty", ErrValidation)
	}
	if s.maxBytes > 0 && int64(len(data)) > s.maxBytes {
		return nil, false, fmt.Errorf("%w: design exceeds %d bytes", ErrValidation, s.maxBytes)
	}
	if err := utils.ValidateStruct(&meta); err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	hash := utils.HashContent(data)

	existing, err := s.findByHash(ctx, vendorID, hash)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, false, err
	}

	info, err := inspectImage(data)
	if err != nil {
		return nil, false, err
	}

	v, err, _ := s.inflight.Do(vendorID.String()+":"+hash, func() (interface{}, error) {
		flightCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), designCreateTimeout)
		defer cancel()
		return s.createDesign(flightCtx, vendorID, hash, data, info, meta)
	})
	if err != nil {
		return nil, false, err
	}

	result := v.(*createdDesign)
	return result.design, result.created, nil
}

func (s *DesignService) createDesign(ctx context.Context, vendorID uuid.UUID, hash string, data []byte, info imageInfo, meta DesignMetadata) (*createdDesign, error) {
	// a flight that finished between the first lookup and Do already created it
	if existing, err := s.findByHash(ctx, vendorID, hash); err == nil {
		return &createdDesign{design: existing}, nil
	}

	key := fmt.Sprintf("designs/%s/%s%s", vendorID, hash, info.ext)
	upload, err := s.blobs.Upload(ctx, data, UploadOptions{
		Key:         key,
		ContentType: info.contentType,
		IsPublic:    true,
	})
	if err != nil {
		if !errors.Is(err, ErrStorageFailure) {
			err = fmt.Errorf("%w: %v", ErrStorageFailure, err)
		}
		return nil, err
	}

	design := &models.Design{
		VendorID:    vendorID,
		ContentHash: hash,
		StorageURL:  upload.URL,
		StorageKey:  upload.Key,
		ByteSize:    int64(len(data)),
		Format:      info.format,
		Width:       info.width,
		Height:      info.height,
		Name:        strings.TrimSpace(meta.Name),
		Tags:        meta.Tags,
		Category:    meta.Category,
		Status:      models.DesignStatusDraft,
	}

	if err := s.insertDesign(ctx, design); err != nil {
		if !errors.Is(err, errConstraintViolation) {
			s.releaseBlob(ctx, vendorID, hash, upload.Key)
			return nil, err
		}

		winner, findErr := s.findByHash(ctx, vendorID, hash)
		if findErr != nil {
			return nil, fmt.Errorf("failed to load concurrently created design: %w", findErr)
		}
		if winner.StorageKey != upload.Key {
			s.deleteBlob(upload.Key)
		}

		s.log.WithFields(logrus.Fields{
			"vendor_id": vendorID,
			"design_id": winner.ID,
		}).Debug("Lost design creation race, returning existing design")
		return &createdDesign{design: winner}, nil
	}

	s.log.WithFields(logrus.Fields{
		"vendor_id": vendorID,
		"design_id": design.ID,
		"format":    design.Format,
		"bytes":     design.ByteSize,
	}).Info("Design created")

	return &createdDesign{design: design, created: true}, nil
}

func (s *DesignService) insertDesign(ctx context.Context, design *models.Design) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(design).Error
	})
	if err == nil {
		return nil
	}
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: %v", errConstraintViolation, err)
	}
	return fmt.Errorf("failed to create design: %w", err)
}

// releaseBlob deletes an uploaded blob after a failed insert unless another
// instance has committed a design that points at the same key.
func (s *DesignService) releaseBlob(ctx context.Context, vendorID uuid.UUID, hash, key string) {
	owner, err := s.findByHash(ctx, vendorID, hash)
	switch {
	case err == nil && owner.StorageKey == key:
		return
	case err != nil && !errors.Is(err, ErrNotFound):
		s.log.WithError(err).WithField("key", key).Warn("Keeping design blob, owner lookup failed")
		return
	}
	s.deleteBlob(key)
}

func (s *DesignService) deleteBlob(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.blobs.Delete(ctx, key); err != nil {
		s.log.WithError(err).WithField("key", key).Warn("Failed to delete unused design blob")
	}
}

func (s *DesignService) findByHash(ctx context.Context, vendorID uuid.UUID, hash string) (*models.Design, error) {
	var design models.Design
	err := s.db.WithContext(ctx).
		Where("vendor_id = ? AND content_hash = ?", vendorID, hash).
		First(&design).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &design, nil
}

func inspectImage(data []byte) (imageInfo, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return imageInfo{}, fmt.Errorf("%w: unsupported or corrupt image: %v", ErrValidation, err)
	}

	info, ok := supportedFormats[format]
	if !ok {
		return imageInfo{}, fmt.Errorf("%w: unsupported image format %q", ErrValidation, format)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return imageInfo{}, fmt.Errorf("%w: image has no dimensions", ErrValidation)
	}

	info.width = cfg.Width
	info.height = cfg.Height
	return info, nil
}

// Submit moves a DRAFT design into the admin review queue.
func (s *DesignService) Submit(ctx context.Context, designID, vendorID uuid.UUID) (*models.Design, error) {
	var design models.Design
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockVendorDesign(tx, designID, vendorID, &design); err != nil {
			return err
		}

		if design.Status != models.DesignStatusDraft {
			return fmt.Errorf("%w: design is %s, only DRAFT designs can be submitted", ErrInvalidState, design.Status)
		}

		now := time.Now()
		design.Status = models.DesignStatusPending
		design.SubmittedAt = &now
		return tx.Model(&design).Select("status", "submitted_at").Updates(&design).Error
	})
	if err != nil {
		return nil, err
	}

	s.tasks.Go(s.log, "audit_submit", func() error {
		return s.audit.Record(context.Background(), AuditEntry{
			ActorID:      &vendorID,
			Action:       AuditActionSubmitDesign,
			ResourceType: "design",
			ResourceID:   &design.ID,
			OldValues:    map[string]interface{}{"status": models.DesignStatusDraft},
			NewValues:    map[string]interface{}{"status": models.DesignStatusPending},
		})
	})

	return &design, nil
}

// GetDesign loads a design. When vendorID is set the design must belong to
// that vendor.
func (s *DesignService) GetDesign(ctx context.Context, designID uuid.UUID, vendorID *uuid.UUID) (*models.Design, error) {
	var design models.Design
	if err := s.db.WithContext(ctx).First(&design, "id = ?", designID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: design %s", ErrNotFound, designID)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if vendorID != nil && design.VendorID != *vendorID {
		return nil, fmt.Errorf("%w: design %s", ErrNotFound, designID)
	}
	return &design, nil
}

func (s *DesignService) ListVendorDesigns(ctx context.Context, vendorID uuid.UUID, params utils.PaginationParams) ([]models.Design, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Design{}).Where("vendor_id = ?", vendorID)
	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	}
	return s.listDesigns(query, params)
}

// ListPendingDesigns is the admin review queue, oldest submission first.
func (s *DesignService) ListPendingDesigns(ctx context.Context, params utils.PaginationParams) ([]models.Design, int64, error) {
	if params.Sort == "" || params.Sort == "created_at" {
		params.Sort = "submitted_at"
		params.Order = "asc"
	}
	query := s.db.WithContext(ctx).Model(&models.Design{}).Where("status = ?", models.DesignStatusPending)
	return s.listDesigns(query, params)
}

func (s *DesignService) listDesigns(query *gorm.DB, params utils.PaginationParams) ([]models.Design, int64, error) {
	params = utils.NormalizePagination(params)

	if params.Category != "" {
		query = query.Where("category = ?", params.Category)
	}
	if params.Search != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(params.Search)+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count designs: %w", err)
	}

	query = utils.ApplySort(query, params, []string{"created_at", "submitted_at", "name", "byte_size"})
	query = utils.ApplyPagination(query, params)

	var designs []models.Design
	if err := query.Find(&designs).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch designs: %w", err)
	}
	return designs, total, nil
}

// UpdateDesignMetadata edits descriptive fields while the design is still
// DRAFT or PENDING.
func (s *DesignService) UpdateDesignMetadata(ctx context.Context, designID, vendorID uuid.UUID, req *UpdateDesignRequest) (*models.Design, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	var design models.Design
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockVendorDesign(tx, designID, vendorID, &design); err != nil {
			return err
		}
		if design.Status.IsTerminal() {
			return fmt.Errorf("%w: design is %s", ErrLockedState, design.Status)
		}

		var columns []string
		if req.Name != nil {
			design.Name = strings.TrimSpace(*req.Name)
			columns = append(columns, "name")
		}
		if req.Tags != nil {
			design.Tags = req.Tags
			columns = append(columns, "tags")
		}
		if req.Category != nil {
			design.Category = *req.Category
			columns = append(columns, "category")
		}
		if len(columns) == 0 {
			return nil
		}

		return tx.Model(&design).Select(columns).Updates(&design).Error
	})
	if err != nil {
		return nil, err
	}
	return &design, nil
}

// Wait blocks until post-commit side effects have finished.
func (s *DesignService) Wait() {
	s.tasks.Wait()
}

// lockVendorDesign loads a design row under a write lock. A design owned by
// another vendor is reported as not found.
func lockVendorDesign(tx *gorm.DB, designID, vendorID uuid.UUID, design *models.Design) error {
	if err := lockDesign(tx, designID, design); err != nil {
		return err
	}
	if design.VendorID != vendorID {
		return fmt.Errorf("%w: design %s", ErrNotFound, designID)
	}
	return nil
}

func lockDesign(tx *gorm.DB, designID uuid.UUID, design *models.Design) error {
	err := database.ForUpdate(tx).Where("id = ?", designID).First(design).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: design %s", ErrNotFound, designID)
		}
		return fmt.Errorf("database error: %w", err)
	}
	return nil
}
