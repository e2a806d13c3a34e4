// internal/handlers/admin.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/javajoker/pod-backend/internal/i18n"
	"github.com/javajoker/pod-backend/internal/models"
	"github.com/javajoker/pod-backend/internal/services"
	"github.com/javajoker/pod-backend/internal/utils"
)

type AdminHandler struct {
	designService     *services.DesignService
	linkService       *services.LinkService
	validationService *services.ValidationService
	reconciler        *services.ReconcileWorker
	auditService      *services.AuditService
}

type DecisionBody struct {
	Decision models.Decision `json:"decision" validate:"required,decision"`
	Reason   string          `json:"reason,omitempty" validate:"required_if=Decision REJECT,max=2000"`
}

func NewAdminHandler(
	designService *services.DesignService,
	linkService *services.LinkService,
	validationService *services.ValidationService,
	reconciler *services.ReconcileWorker,
	auditService *services.AuditService,
) *AdminHandler {
	return &AdminHandler{
		designService:     designService,
		linkService:       linkService,
		validationService: validationService,
		reconciler:        reconciler,
		auditService:      auditService,
	}
}

// GET /admin/designs/pending
func (h *AdminHandler) GetPendingDesigns(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	designs, total, err := h.designService.ListPendingDesigns(c.Request.Context(), params)
	if err != nil {
		respondServiceError(c, err, designErrors)
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(designs, total, params))
}

// GET /admin/designs/:id
func (h *AdminHandler) GetDesign(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	design, err := h.designService.GetDesign(c.Request.Context(), id, nil)
	if err != nil {
		respondServiceError(c, err, designErrors)
		return
	}

	products, err := h.linkService.LinkedProducts(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, designErrors)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"design":          design,
		"linked_products": products,
	})
}

// POST /admin/designs/:id/decision
func (h *AdminHandler) DecideDesign(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	adminID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := idParam(c)
	if !ok {
		return
	}

	var req DecisionBody
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}
	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	result, err := h.validationService.Decide(c.Request.Context(), services.DecisionRequest{
		DesignID: id,
		Decision: req.Decision,
		Reason:   req.Reason,
		ActorID:  adminID,
	})
	if err != nil {
		respondServiceError(c, err, designErrors)
		return
	}

	messageKey := i18n.KeyDesignValidated
	if result.Decision == models.DecisionReject {
		messageKey = i18n.KeyDesignRejected
	}

	utils.SuccessResponse(c, gin.H{
		"message":             i18n.T(lang, messageKey),
		"design":              result.Design,
		"decision":            result.Decision,
		"updated_product_ids": result.UpdatedProductIDs,
	})
}

// POST /admin/reconcile
func (h *AdminHandler) ReconcileLinks(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	report, err := h.reconciler.RunOnce(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, designErrors)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyReconcileCompleted),
		"report":  report,
	})
}

// GET /admin/audit-logs
func (h *AdminHandler) GetAuditLogs(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	var resourceID *uuid.UUID
	if raw := c.Query("resource_id"); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			lang := utils.GetLangFromContext(c)
			utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "resource_id"), nil)
			return
		}
		resourceID = &parsed
	}

	logs, total, err := h.auditService.List(c.Request.Context(), c.Query("resource_type"), resourceID, params)
	if err != nil {
		respondServiceError(c, err, designErrors)
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(logs, total, params))
}
