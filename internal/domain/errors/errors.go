package errors

import (
	"errors"
	"net/http"
)

// Domain errors
var (
	ErrNotFound               = errors.New("resource not found")
	ErrAlreadyExists          = errors.New("resource already exists")
	ErrInvalidInput           = errors.New("invalid input")
	ErrUnauthorized           = errors.New("unauthorized")
	ErrForbidden              = errors.New("forbidden")
	ErrConflict               = errors.New("conflict")
	ErrUnsupportedChain       = errors.New("unsupported chain")
	ErrAlreadyProcessed       = errors.New("gift already processed")
	ErrChainUnavailable       = errors.New("chain rpc unavailable")
	ErrDatabaseUnavailable    = errors.New("database unavailable")
	ErrVerificationInProgress = errors.New("verification already in progress")
	ErrTxReferenceUsed        = errors.New("transaction reference already settled other gifts")
)

// Error codes returned to clients
const (
	CodeBadRequest            = "BAD_REQUEST"
	CodeUnauthorized          = "UNAUTHORIZED"
	CodeForbidden             = "FORBIDDEN"
	CodeNotFound              = "NOT_FOUND"
	CodeConflict              = "CONFLICT"
	CodeInternal              = "INTERNAL_ERROR"
	CodeChainUnavailable      = "CHAIN_UNAVAILABLE"
	CodeDatabaseUnavailable   = "DATABASE_UNAVAILABLE"
	CodeVerificationInFlight  = "VERIFICATION_IN_PROGRESS"
	CodeVerificationRejected  = "VERIFICATION_REJECTED"
	CodeIdempotencyInProgress = "ERR_IDEMPOTENCY_CONFLICT"
)

// AppError represents application error with HTTP status
type AppError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new app error
func NewAppError(status int, code, message string, err error) *AppError {
	return &AppError{
		Status:  status,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common error constructors
func NotFound(message string) *AppError {
	return NewAppError(http.StatusNotFound, CodeNotFound, message, ErrNotFound)
}

func BadRequest(message string) *AppError {
	return NewAppError(http.StatusBadRequest, CodeBadRequest, message, ErrInvalidInput)
}

func Unauthorized(message string) *AppError {
	return NewAppError(http.StatusUnauthorized, CodeUnauthorized, message, ErrUnauthorized)
}

func Forbidden(message string) *AppError {
	return NewAppError(http.StatusForbidden, CodeForbidden, message, ErrForbidden)
}

func Conflict(message string) *AppError {
	return NewAppError(http.StatusConflict, CodeConflict, message, ErrConflict)
}

func ChainUnavailable(err error) *AppError {
	return NewAppError(http.StatusServiceUnavailable, CodeChainUnavailable, "chain rpc unavailable, retry later", err)
}

func DatabaseUnavailable(err error) *AppError {
	return NewAppError(http.StatusServiceUnavailable, CodeDatabaseUnavailable, "database unavailable, retry later", err)
}

func VerificationInProgress() *AppError {
	return NewAppError(http.StatusConflict, CodeVerificationInFlight, "verification already in progress for this transaction", ErrVerificationInProgress)
}

func InternalError(err error) *AppError {
	return NewAppError(http.StatusInternalServerError, CodeInternal, "internal server error", err)
}

// FromError maps sentinel errors to an AppError
func FromError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return NewAppError(http.StatusNotFound, CodeNotFound, "resource not found", err)
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrUnsupportedChain):
		return NewAppError(http.StatusBadRequest, CodeBadRequest, err.Error(), err)
	case errors.Is(err, ErrUnauthorized):
		return NewAppError(http.StatusUnauthorized, CodeUnauthorized, "unauthorized", err)
	case errors.Is(err, ErrForbidden):
		return NewAppError(http.StatusForbidden, CodeForbidden, "forbidden", err)
	case errors.Is(err, ErrConflict), errors.Is(err, ErrAlreadyExists), errors.Is(err, ErrAlreadyProcessed),
		errors.Is(err, ErrTxReferenceUsed):
		return NewAppError(http.StatusConflict, CodeConflict, err.Error(), err)
	case errors.Is(err, ErrVerificationInProgress):
		return VerificationInProgress()
	case errors.Is(err, ErrChainUnavailable):
		return ChainUnavailable(err)
	case errors.Is(err, ErrDatabaseUnavailable):
		return DatabaseUnavailable(err)
	default:
		return InternalError(err)
	}
}
