// internal/utils/response.go
package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/pod-backend/internal/i18n"
)

// Error codes carried in APIError.Code. Clients switch on these, not on
// the translated message.
const (
	CodeBadRequest     = "BAD_REQUEST"
	CodeValidation     = "VALIDATION_ERROR"
	CodeUnauthorized   = "UNAUTHORIZED"
	CodeForbidden      = "FORBIDDEN"
	CodeNotFound       = "NOT_FOUND"
	CodeInvalidState   = "INVALID_STATE"
	CodeLockedState    = "LOCKED_STATE"
	CodeFileTooLarge   = "FILE_TOO_LARGE"
	CodeRateLimited    = "RATE_LIMITED"
	CodeStorageFailure = "STORAGE_FAILURE"
	CodeInternal       = "INTERNAL_ERROR"
)

type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
	Meta    interface{} `json:"meta,omitempty"`
}

type APIError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func SuccessResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data})
}

func CreatedResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, APIResponse{Success: true, Data: data})
}

// PaginatedResponse writes a page of results with the pagination block in
// meta and mirrored into X-* headers.
func PaginatedResponse(c *gin.Context, result PaginationResult) {
	SetPaginationHeaders(c, result)
	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Data:    result.Data,
		Meta: gin.H{
			"pagination": gin.H{
				"page":        result.Page,
				"limit":       result.Limit,
				"total":       result.Total,
				"total_pages": result.TotalPages,
			},
		},
	})
}

func ErrorResponse(c *gin.Context, statusCode int, code, message string, details interface{}) {
	c.JSON(statusCode, APIResponse{
		Success: false,
		Error: &APIError{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// translatedError writes an error whose message is the i18n key rendered
// in the request language.
func translatedError(c *gin.Context, statusCode int, code, key string) {
	ErrorResponse(c, statusCode, code, i18n.T(GetLangFromContext(c), key), nil)
}

func BadRequestResponse(c *gin.Context, message string, details interface{}) {
	if message == "" {
		message = i18n.T(GetLangFromContext(c), i18n.KeyValidationInvalid, "request")
	}
	ErrorResponse(c, http.StatusBadRequest, CodeBadRequest, message, details)
}

func ValidationErrorResponse(c *gin.Context, errors []ValidationError) {
	message := i18n.T(GetLangFromContext(c), i18n.KeyValidationInvalid, "input")
	ErrorResponse(c, http.StatusBadRequest, CodeValidation, message, errors)
}

func UnauthorizedResponse(c *gin.Context, message string) {
	if message == "" {
		message = i18n.T(GetLangFromContext(c), i18n.KeyAuthRequired)
	}
	ErrorResponse(c, http.StatusUnauthorized, CodeUnauthorized, message, nil)
}

func ForbiddenResponse(c *gin.Context) {
	translatedError(c, http.StatusForbidden, CodeForbidden, i18n.KeyAccessDenied)
}

func NotFoundResponse(c *gin.Context, key string) {
	translatedError(c, http.StatusNotFound, CodeNotFound, key)
}

// InvalidStateResponse reports a request that the resource's lifecycle
// state does not allow.
func InvalidStateResponse(c *gin.Context, key string) {
	translatedError(c, http.StatusConflict, CodeInvalidState, key)
}

// LockedStateResponse reports an edit attempted after the admin decision
// froze the resource.
func LockedStateResponse(c *gin.Context, key string) {
	translatedError(c, http.StatusLocked, CodeLockedState, key)
}

func FileTooLargeResponse(c *gin.Context) {
	translatedError(c, http.StatusRequestEntityTooLarge, CodeFileTooLarge, i18n.KeyFileTooLarge)
}

func TooManyRequestsResponse(c *gin.Context) {
	translatedError(c, http.StatusTooManyRequests, CodeRateLimited, i18n.KeyRateLimited)
}

func StorageFailureResponse(c *gin.Context) {
	translatedError(c, http.StatusBadGateway, CodeStorageFailure, i18n.KeyFileUploadFailed)
}

func InternalErrorResponse(c *gin.Context) {
	translatedError(c, http.StatusInternalServerError, CodeInternal, i18n.KeyInternalError)
}
