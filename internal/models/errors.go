package models

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// ErrorKind is the stable error category exposed to API callers.
type ErrorKind string

const (
	KindBadRequest   ErrorKind = "bad_request"
	KindUnauthorized ErrorKind = "unauthorized"
	KindForbidden    ErrorKind = "forbidden"
	KindNotFound     ErrorKind = "not_found"
	KindConflict     ErrorKind = "conflict"
	KindRateLimited  ErrorKind = "rate_limit_exceeded"
	KindServerError  ErrorKind = "server_error"
)

// HTTPStatus maps the kind to its response status code.
func (k ErrorKind) HTTPStatus() int {
	switch k {
	case KindBadRequest:
		return fiber.StatusBadRequest
	case KindUnauthorized:
		return fiber.StatusUnauthorized
	case KindForbidden:
		return fiber.StatusForbidden
	case KindNotFound:
		return fiber.StatusNotFound
	case KindConflict:
		return fiber.StatusConflict
	case KindRateLimited:
		return fiber.StatusTooManyRequests
	default:
		return fiber.StatusInternalServerError
	}
}

// Failure codes. Code narrows Kind to the exact rule that failed.
const (
	CodeValidation        = "VALIDATION_ERROR"
	CodeSelfRequest       = "SELF_REQUEST"
	CodeSelfBlock         = "SELF_BLOCK"
	CodeReceiverNotFound  = "RECEIVER_NOT_FOUND"
	CodeUserNotFound      = "USER_NOT_FOUND"
	CodeRequestNotFound   = "REQUEST_NOT_FOUND"
	CodeRequestNotPending = "REQUEST_NOT_PENDING"
	CodeBlocked           = "BLOCKED"
	CodeCooldown          = "COOLDOWN"
	CodeDuplicateRequest  = "DUPLICATE_REQUEST"
	CodeAlreadyFriends    = "ALREADY_FRIENDS"
	CodeInvalidAction     = "INVALID_ACTION"
	CodeNotFound          = "NOT_FOUND"
	CodeConflict          = "CONFLICT"
	CodeUnauthenticated   = "UNAUTHENTICATED"
	CodeRateLimited       = "RATE_LIMITED"
	CodeInternal          = "INTERNAL_ERROR"
)

// ErrorBody is the inner object of the error envelope.
type ErrorBody struct {
	Type    ErrorKind `json:"type"`
	Message string    `json:"message"`
	Status  int       `json:"status"`
}

// ErrorResponse represents a standardized API error response
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// AppError represents a custom application error
type AppError struct {
	Kind    ErrorKind
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches another *AppError with the same Code, so callers can compare
// against a template error with errors.Is.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code != "" && t.Code == e.Code
}

// WithCode returns a copy of the error carrying a more specific code.
func (e *AppError) WithCode(code string) *AppError {
	cp := *e
	cp.Code = code
	return &cp
}

// Predefined error constructors
func NewNotFoundError(resource string, id interface{}) *AppError {
	return &AppError{
		Kind:    KindNotFound,
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s with ID %v not found", resource, id),
	}
}

func NewNotFoundMessage(code, message string) *AppError {
	return &AppError{Kind: KindNotFound, Code: code, Message: message}
}

func NewValidationError(message string) *AppError {
	return &AppError{
		Kind:    KindBadRequest,
		Code:    CodeValidation,
		Message: message,
	}
}

func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		Kind:    KindUnauthorized,
		Code:    CodeUnauthenticated,
		Message: message,
	}
}

func NewForbiddenError(message string) *AppError {
	return &AppError{
		Kind:    KindForbidden,
		Code:    CodeBlocked,
		Message: message,
	}
}

func NewConflictError(message string, err error) *AppError {
	return &AppError{
		Kind:    KindConflict,
		Code:    CodeConflict,
		Message: message,
		Err:     err,
	}
}

func NewRateLimitError(message string) *AppError {
	return &AppError{
		Kind:    KindRateLimited,
		Code:    CodeRateLimited,
		Message: message,
	}
}

func NewInternalError(err error) *AppError {
	return &AppError{
		Kind:    KindServerError,
		Code:    CodeInternal,
		Message: "An unexpected error occurred. Please try again later.",
		Err:     err,
	}
}

// AsAppError unwraps err into an *AppError, wrapping unknown errors as internal.
func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return NewInternalError(err)
}

// KindOf returns the kind of err, or server_error for foreign errors.
func KindOf(err error) ErrorKind {
	return AsAppError(err).Kind
}

// RespondWithError writes the error envelope. The status follows the error kind
// and wrapped causes are never serialized.
func RespondWithError(c *fiber.Ctx, err error) error {
	appErr := AsAppError(err)
	status := appErr.Kind.HTTPStatus()
	return c.Status(status).JSON(ErrorResponse{
		Error: ErrorBody{
			Type:    appErr.Kind,
			Message: appErr.Message,
			Status:  status,
		},
	})
}
