// internal/i18n/keys.go
package i18n

// Translation keys constants
const (
	// Authentication
	KeyAuthRequired           = "auth.required"
	KeyAuthInvalidToken       = "auth.invalid_token"
	KeyAuthTokenExpired       = "auth.token_expired"
	KeyAuthInvalidCredentials = "auth.invalid_credentials"
	KeyAuthAccountDisabled    = "auth.account_disabled"

	// Access
	KeyAdminAccessDenied = "admin.access_denied"
	KeyForbidden         = "access.forbidden"

	// Generic errors
	KeyValidationInvalid = "validation.invalid"
	KeyConflict          = "error.conflict"
	KeyInternalError     = "error.internal"
	KeyRateLimited       = "error.rate_limited"
	KeyNotFound          = "error.not_found"

	// Inventory
	KeyProductDeleted     = "product.deleted"
	KeyProductsCleared    = "product.cleared"
	KeyCategoryDeleted    = "category.deleted"
	KeyAssetTypeDeleted   = "asset_type.deleted"
	KeyImportFileRequired = "import.file_required"
	KeyImportFileTooLarge = "import.file_too_large"
	KeyImportUnsupported  = "import.unsupported_format"
	KeyImportEmpty        = "import.empty"
	KeyImportUnreadable   = "import.unreadable"
	KeyRecountFinished    = "asset_type.recount_finished"

	// Supplementary
	KeyCompanyDeleted  = "company.deleted"
	KeyRoleDeleted     = "role.deleted"
	KeyWFHDeleted      = "wfh.deleted"
	KeyReminderDeleted = "reminder.deleted"
)
