package domain

import "errors"

// Token errors. Expired and malformed tokens are reported separately for
// diagnostics; both deny access.
var (
	ErrEncodingFailed = errors.New("token encoding failed")
	ErrDecodingFailed = errors.New("token decoding failed")
	ErrTokenExpired   = errors.New("token has expired")
	ErrTokenInvalid   = errors.New("invalid token")
)

// Authorization gate errors.
var (
	ErrMissingToken      = errors.New("missing authorization token")
	ErrTokenRevoked      = errors.New("token has been revoked")
	ErrNotAdmin          = errors.New("admin access required")
	ErrMissingCapability = errors.New("missing required capability")
)

// Auth flow errors.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountInactive    = errors.New("account is not active")
	ErrEmailExists        = errors.New("email already registered")
	ErrUsernameExists     = errors.New("username already taken")
	ErrInvalidEmail       = errors.New("invalid email format")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
	ErrKeyNotRedeemable   = errors.New("validation key is unknown, used or expired")
)

// Storage errors. Backends wrap the underlying cause with one of these.
var (
	ErrNotFound   = errors.New("record not found")
	ErrDuplicate  = errors.New("duplicate record")
	ErrConnection = errors.New("storage connection error")
	ErrQuery      = errors.New("storage query error")
	ErrOther      = errors.New("storage error")
)
