// internal/handlers/design.go
package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/pod-backend/internal/i18n"
	"github.com/javajoker/pod-backend/internal/services"
	"github.com/javajoker/pod-backend/internal/utils"
)

type DesignHandler struct {
	designService *services.DesignService
	maxBytes      int64
}

func NewDesignHandler(designService *services.DesignService, maxBytes int64) *DesignHandler {
	return &DesignHandler{
		designService: designService,
		maxBytes:      maxBytes,
	}
}

// POST /vendor/designs
func (h *DesignHandler) UploadDesign(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	vendorID, ok := currentUserID(c)
	if !ok {
		return
	}

	data, ok := readDesignFile(c, h.maxBytes)
	if !ok {
		return
	}

	meta := services.DesignMetadata{
		Name:     c.PostForm("name"),
		Category: c.PostForm("category"),
	}
	if tags := c.PostForm("tags"); tags != "" {
		for _, tag := range strings.Split(tags, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				meta.Tags = append(meta.Tags, tag)
			}
		}
	}

	design, created, err := h.designService.GetOrCreateDesign(c.Request.Context(), vendorID, data, meta)
	if err != nil {
		respondServiceError(c, err, designErrors)
		return
	}

	if !created {
		utils.SuccessResponse(c, gin.H{
			"message": i18n.T(lang, i18n.KeyDesignReused),
			"design":  design,
			"created": false,
		})
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyDesignUploaded),
		"design":  design,
		"created": true,
	})
}

// GET /vendor/designs
func (h *DesignHandler) GetMyDesigns(c *gin.Context) {
	vendorID, ok := currentUserID(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	designs, total, err := h.designService.ListVendorDesigns(c.Request.Context(), vendorID, params)
	if err != nil {
		respondServiceError(c, err, designErrors)
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(designs, total, params))
}

// GET /vendor/designs/:id
func (h *DesignHandler) GetDesign(c *gin.Context) {
	vendorID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := idParam(c)
	if !ok {
		return
	}

	design, err := h.designService.GetDesign(c.Request.Context(), id, &vendorID)
	if err != nil {
		respondServiceError(c, err, designErrors)
		return
	}

	utils.SuccessResponse(c, gin.H{"design": design})
}

// PUT /vendor/designs/:id
func (h *DesignHandler) UpdateDesign(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	vendorID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := idParam(c)
	if !ok {
		return
	}

	var req services.UpdateDesignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	// Validate request
	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	design, err := h.designService.UpdateDesignMetadata(c.Request.Context(), id, vendorID, &req)
	if err != nil {
		respondServiceError(c, err, designErrors)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyDesignUpdated),
		"design":  design,
	})
}

// POST /vendor/designs/:id/submit
func (h *DesignHandler) SubmitDesign(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	vendorID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := idParam(c)
	if !ok {
		return
	}

	design, err := h.designService.Submit(c.Request.Context(), id, vendorID)
	if err != nil {
		respondServiceError(c, err, designErrors)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyDesignSubmitted),
		"design":  design,
	})
}
