// internal/i18n/keys.go
package i18n

// Translation keys constants
const (
	// Authentication
	KeyAuthRequired     = "auth.required"
	KeyAuthInvalidToken = "auth.invalid_token"
	KeyAuthForbidden    = "auth.forbidden"

	// Accounts
	KeyAccountNotFound       = "account.not_found"
	KeyAccountProfileUpdated = "account.profile_updated"

	// Wizard
	KeyWizardNotFound         = "wizard.not_found"
	KeyWizardStepIncomplete   = "wizard.step_incomplete"
	KeyWizardAtFinalStep      = "wizard.at_final_step"
	KeyWizardNotFinalStep     = "wizard.not_final_step"
	KeyWizardSubmitted        = "wizard.submitted"
	KeyWizardAlreadySubmitted = "wizard.already_submitted"
	KeyWizardNotPersisted     = "wizard.not_persisted"
	KeyWizardSaveFailed       = "wizard.save_failed"
	KeyWizardUnknownFlavor    = "wizard.unknown_flavor"
	KeyWizardInvalidField     = "wizard.invalid_field"

	// Applications
	KeyApplicationNotFound    = "application.not_found"
	KeyApplicationApproved    = "application.approved"
	KeyApplicationRejected    = "application.rejected"
	KeyApplicationNotReviewed = "application.not_reviewable"
	KeyPartnershipNotFound    = "partnership.not_found"

	// Products
	KeyProductCreated  = "product.created"
	KeyProductUpdated  = "product.updated"
	KeyProductDeleted  = "product.deleted"
	KeyProductNotFound = "product.not_found"
	KeyProductInactive = "product.inactive"

	// Messaging
	KeyConversationNotFound = "conversation.not_found"
	KeyMessageSent          = "message.sent"
	KeyNotificationNotFound = "notification.not_found"

	// Validation
	KeyValidationRequired = "validation.required"
	KeyValidationInvalid  = "validation.invalid"

	// File Upload
	KeyFileUploadFailed = "file.upload_failed"
	KeyFileInvalidType  = "file.invalid_type"
	KeyFileTooLarge     = "file.too_large"
	KeyFileTooMany      = "file.too_many"

	// Rate limiting
	KeyRateLimited = "rate_limit.exceeded"
)
