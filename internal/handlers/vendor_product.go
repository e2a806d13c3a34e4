// internal/handlers/vendor_product.go
package handlers

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/pod-backend/internal/i18n"
	"github.com/javajoker/pod-backend/internal/models"
	"github.com/javajoker/pod-backend/internal/services"
	"github.com/javajoker/pod-backend/internal/utils"
)

type VendorProductHandler struct {
	productService *services.VendorProductService
	catalogService *services.CatalogService
	maxBytes       int64
}

type SetPostValidationActionRequest struct {
	PostValidationAction models.PostValidationAction `json:"post_validation_action" validate:"required,post_validation_action"`
}

func NewVendorProductHandler(productService *services.VendorProductService, catalogService *services.CatalogService, maxBytes int64) *VendorProductHandler {
	return &VendorProductHandler{
		productService: productService,
		catalogService: catalogService,
		maxBytes:       maxBytes,
	}
}

// GET /base-products
func (h *VendorProductHandler) GetBaseProducts(c *gin.Context) {
	products, err := h.catalogService.ListBaseProducts(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, productErrors)
		return
	}

	utils.SuccessResponse(c, gin.H{"base_products": products})
}

// GET /products
func (h *VendorProductHandler) GetPublishedProducts(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	products, total, err := h.productService.ListPublishedProducts(c.Request.Context(), params)
	if err != nil {
		respondServiceError(c, err, productErrors)
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(products, total, params))
}

// GET /products/:id
func (h *VendorProductHandler) GetProduct(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	product, err := h.productService.GetProduct(c.Request.Context(), id, optionalUserID(c))
	if err != nil {
		respondServiceError(c, err, productErrors)
		return
	}

	utils.SuccessResponse(c, gin.H{"product": product})
}

// POST /vendor/products
//
// Accepts JSON referencing an uploaded design, or multipart with the
// artwork in "file" and the JSON request in "data".
func (h *VendorProductHandler) CreateProduct(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	vendorID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req services.CreateVendorProductRequest
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		if err := json.Unmarshal([]byte(c.PostForm("data")), &req); err != nil {
			utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "data"), err.Error())
			return
		}
		data, ok := readDesignFile(c, h.maxBytes)
		if !ok {
			return
		}
		req.DesignData = data
	} else if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	// Validate request
	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	product, err := h.productService.CreateProduct(c.Request.Context(), vendorID, &req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrBaseProductNotFound):
			utils.NotFoundResponse(c, i18n.KeyBaseProductNotFound)
		default:
			// remaining not-found cases refer to the design
			respondServiceError(c, err, designErrors)
		}
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyProductCreated),
		"product": product,
	})
}

// GET /vendor/products
func (h *VendorProductHandler) GetMyProducts(c *gin.Context) {
	vendorID, ok := currentUserID(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	products, total, err := h.productService.ListVendorProducts(c.Request.Context(), vendorID, params)
	if err != nil {
		respondServiceError(c, err, productErrors)
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(products, total, params))
}

// PUT /vendor/products/:id
func (h *VendorProductHandler) UpdateProduct(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	vendorID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := idParam(c)
	if !ok {
		return
	}

	var req services.UpdateVendorProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}
	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	product, err := h.productService.UpdateProduct(c.Request.Context(), id, vendorID, &req)
	if err != nil {
		respondServiceError(c, err, productErrors)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyProductUpdated),
		"product": product,
	})
}

// PUT /vendor/products/:id/post-validation-action
func (h *VendorProductHandler) SetPostValidationAction(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	vendorID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := idParam(c)
	if !ok {
		return
	}

	var req SetPostValidationActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}
	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	product, err := h.productService.SetPostValidationAction(c.Request.Context(), id, vendorID, req.PostValidationAction)
	if err != nil {
		respondServiceError(c, err, productErrors)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyProductActionSaved),
		"product": product,
	})
}

// POST /vendor/products/:id/publish
func (h *VendorProductHandler) PublishProduct(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	vendorID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := idParam(c)
	if !ok {
		return
	}

	product, err := h.productService.PublishProduct(c.Request.Context(), id, vendorID)
	if err != nil {
		respondServiceError(c, err, productErrors)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyProductPublished),
		"product": product,
	})
}

// DELETE /vendor/products/:id
func (h *VendorProductHandler) DeleteProduct(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	vendorID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := idParam(c)
	if !ok {
		return
	}

	if err := h.productService.DeleteProduct(c.Request.Context(), id, vendorID); err != nil {
		respondServiceError(c, err, productErrors)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyProductDeleted),
	})
}
