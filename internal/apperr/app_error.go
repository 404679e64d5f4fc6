package apperr

import "github.com/tuanvumaihuynh/sweetshop/pkg/zerror"

const (
	UnauthenticatedCode   = "UNAUTHENTICATED"
	ForbiddenCode         = "FORBIDDEN"
	ValidationErrorCode   = "VALIDATION_FAILED"
	NotFoundCode          = "NOT_FOUND"
	ConflictCode          = "CONFLICT"
	InsufficientStockCode = "INSUFFICIENT_STOCK"
	TransientCode         = "TRANSIENT"
)

var (
	ValidationErr = zerror.NewValidationFailed(ValidationErrorCode, "validation error")

	NoCredentialErr      = zerror.NewUnauthorized(UnauthenticatedCode, "no credential supplied")
	InvalidCredentialErr = zerror.NewUnauthorized(UnauthenticatedCode, "credential invalid")
	InvalidLoginErr      = zerror.NewUnauthorized(UnauthenticatedCode, "invalid email or password")

	AdminRequiredErr = zerror.NewForbidden(ForbiddenCode, "administrator role required")

	SweetNotFoundErr = zerror.NewNotFound(NotFoundCode, "sweet not found")

	// Conflicts and stock shortfalls are client errors reported as 400.
	SweetNameTakenErr    = zerror.NewBadRequest(ConflictCode, "a sweet with this name already exists")
	EmailTakenErr        = zerror.NewBadRequest(ConflictCode, "a user with this email already exists")
	InsufficientStockErr = zerror.NewBadRequest(InsufficientStockCode, "insufficient stock")

	TransientErr = zerror.NewServiceUnavailable(TransientCode, "storage temporarily unavailable, retry later")
)

// NewValidationErr returns ValidationErr carrying a single field detail.
func NewValidationErr(field, msg string) zerror.ZError {
	return ValidationErr.WithDetails(zerror.Detail{Field: field, Message: msg})
}
