package handler

import (
	"errors"
	"net/http"

	"github.com/99minutos/auth-service/internal/core/domain"
)

// ResolveError maps a domain error to its HTTP status and error envelope.
// ok is false for errors the API does not know, which callers report as 500.
func ResolveError(err error) (status int, body ErrorResponse, ok bool) {
	switch {
	case errors.Is(err, domain.ErrMissingToken):
		return http.StatusUnauthorized, ErrorResponse{Error: err.Error(), Code: "MISSING_TOKEN"}, true
	case errors.Is(err, domain.ErrTokenExpired),
		errors.Is(err, domain.ErrTokenInvalid),
		errors.Is(err, domain.ErrDecodingFailed):
		return http.StatusUnauthorized, ErrorResponse{Error: err.Error(), Code: "INVALID_TOKEN"}, true
	case errors.Is(err, domain.ErrTokenRevoked):
		return http.StatusUnauthorized, ErrorResponse{Error: err.Error(), Code: "TOKEN_REVOKED"}, true
	case errors.Is(err, domain.ErrNotAdmin):
		return http.StatusForbidden, ErrorResponse{Error: err.Error(), Code: "NOT_ADMIN"}, true
	case errors.Is(err, domain.ErrMissingCapability):
		return http.StatusForbidden, ErrorResponse{Error: err.Error(), Code: "MISSING_CAPABILITY"}, true

	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, ErrorResponse{Error: "invalid credentials", Code: "INVALID_CREDENTIALS"}, true
	case errors.Is(err, domain.ErrAccountInactive):
		return http.StatusForbidden, ErrorResponse{Error: err.Error(), Code: "ACCOUNT_INACTIVE"}, true
	case errors.Is(err, domain.ErrEmailExists):
		return http.StatusConflict, ErrorResponse{Error: err.Error(), Code: "EMAIL_EXISTS"}, true
	case errors.Is(err, domain.ErrUsernameExists):
		return http.StatusConflict, ErrorResponse{Error: err.Error(), Code: "USERNAME_EXISTS"}, true
	case errors.Is(err, domain.ErrInvalidEmail):
		return http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "INVALID_EMAIL"}, true
	case errors.Is(err, domain.ErrWeakPassword):
		return http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "WEAK_PASSWORD"}, true
	case errors.Is(err, domain.ErrKeyNotRedeemable):
		return http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "KEY_NOT_REDEEMABLE"}, true

	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, ErrorResponse{Error: "not found", Code: "NOT_FOUND"}, true
	case errors.Is(err, domain.ErrConnection):
		return http.StatusServiceUnavailable, ErrorResponse{Error: "storage unavailable", Code: "STORAGE_UNAVAILABLE"}, true
	}
	return http.StatusInternalServerError, ErrorResponse{Error: "internal server error"}, false
}

// errorCode is the metrics label for err.
func errorCode(err error) string {
	if _, body, ok := ResolveError(err); ok {
		return body.Code
	}
	return "INTERNAL"
}
