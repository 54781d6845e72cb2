package app

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	"jerrygfit/api/internal/ai"
	"jerrygfit/api/internal/auth"
	"jerrygfit/api/internal/authpw"
	"jerrygfit/api/internal/domain"
	"jerrygfit/api/internal/export"
	"jerrygfit/api/internal/oauth"
	"jerrygfit/api/internal/storage"
)

type DomainError struct {
	Status  int
	Code    string
	Message string
	Details any
}

func (e *DomainError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func domainError(status int, code, message string, details any) *DomainError {
	return &DomainError{
		Status:  status,
		Code:    code,
		Message: message,
		Details: details,
	}
}

func notFound(entity string) *DomainError {
	return domainError(http.StatusNotFound, "NOT_FOUND", entity+" not found", nil)
}

func validationError(message string, details any) *DomainError {
	return domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", message, details)
}

// mapError turns any service error into the response status, code, message
// and details.
func mapError(err error) (status int, code, message string, details any) {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Status, domainErr.Code, domainErr.Message, domainErr.Details
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		return http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Validation failed", fieldDetails(fieldErrs)
	}
	var enumErr *domain.InvalidValueError
	if errors.As(err, &enumErr) {
		return http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Validation failed", map[string]string{enumErr.Field: enumErr.Error()}
	}

	switch {
	case errors.Is(err, sql.ErrNoRows):
		return http.StatusNotFound, "NOT_FOUND", "Not found", nil
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrExpiredToken):
		return http.StatusUnauthorized, "UNAUTHORIZED", "Could not validate credentials", nil
	case errors.Is(err, authpw.ErrInvalidCredentials):
		return http.StatusUnauthorized, "INVALID_CREDENTIALS", "Incorrect username or password", nil
	case errors.Is(err, authpw.ErrInactiveUser):
		return http.StatusBadRequest, "INACTIVE_USER", "Inactive user", nil
	case errors.Is(err, authpw.ErrEmailTaken):
		return http.StatusBadRequest, "EMAIL_TAKEN", "Email already registered", nil
	case errors.Is(err, authpw.ErrUsernameTaken):
		return http.StatusBadRequest, "USERNAME_TAKEN", "Username already taken", nil
	case errors.Is(err, authpw.ErrWeakPassword), errors.Is(err, authpw.ErrMissingFields):
		return http.StatusUnprocessableEntity, "VALIDATION_ERROR", err.Error(), nil
	case errors.Is(err, ai.ErrNotConfigured), errors.Is(err, ai.ErrRateLimited), errors.Is(err, ai.ErrConnectionFailure):
		return http.StatusServiceUnavailable, "AI_UNAVAILABLE", ai.Message(err), nil
	case errors.Is(err, ai.ErrProviderError):
		return http.StatusBadGateway, "AI_PROVIDER_ERROR", ai.Message(err), nil
	case errors.Is(err, export.ErrPDFDependencyMissing):
		return http.StatusServiceUnavailable, "EXPORT_UNAVAILABLE", "PDF export is not available on this server", nil
	case errors.Is(err, storage.ErrNotConfigured), errors.Is(err, oauth.ErrNotConfigured):
		return http.StatusServiceUnavailable, "NOT_CONFIGURED", err.Error(), nil
	case errors.Is(err, oauth.ErrMissingProfile):
		return http.StatusBadRequest, "OAUTH_PROFILE_INCOMPLETE", "Email or Google ID not provided", nil
	case errors.Is(err, storage.ErrUnsupportedType), errors.Is(err, storage.ErrTooLarge):
		return http.StatusUnprocessableEntity, "VALIDATION_ERROR", err.Error(), nil
	}
	return http.StatusInternalServerError, "SERVER_ERROR", "Server error", nil
}
