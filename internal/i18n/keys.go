// internal/i18n/keys.go
package i18n

// Translation keys constants
const (
	// Authentication
	KeyAuthRequired     = "auth.required"
	KeyAuthInvalidToken = "auth.invalid_token"
	KeyAccessDenied     = "auth.access_denied"

	// Designs
	KeyDesignUploaded     = "design.uploaded"
	KeyDesignReused       = "design.reused"
	KeyDesignSubmitted    = "design.submitted"
	KeyDesignUpdated      = "design.updated"
	KeyDesignNotFound     = "design.not_found"
	KeyDesignValidated    = "design.validated"
	KeyDesignRejected     = "design.rejected"
	KeyDesignInvalidState = "design.invalid_state"
	KeyDesignLocked       = "design.locked"

	// Vendor products
	KeyProductCreated      = "product.created"
	KeyProductUpdated      = "product.updated"
	KeyProductDeleted      = "product.deleted"
	KeyProductPublished    = "product.published"
	KeyProductNotFound     = "product.not_found"
	KeyProductLocked       = "product.locked"
	KeyProductActionSaved  = "product.action_saved"
	KeyProductInvalidState = "product.invalid_state"

	// Catalog
	KeyBaseProductNotFound = "base_product.not_found"

	// Notifications
	KeyNotificationNotFound = "notification.not_found"
	KeyNotificationRead     = "notification.read"

	// Admin
	KeyReconcileCompleted = "admin.reconcile_completed"

	// Validation
	KeyValidationRequired = "validation.required"
	KeyValidationInvalid  = "validation.invalid"

	// File Upload
	KeyFileUploadFailed = "file.upload_failed"
	KeyFileTooLarge     = "file.too_large"
	KeyFileInvalidType  = "file.invalid_type"

	// Generic
	KeyNotFound      = "common.not_found"
	KeyInternalError = "common.internal_error"
	KeyRateLimited   = "common.rate_limited"
)
