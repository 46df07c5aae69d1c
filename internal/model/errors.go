package model

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// ErrorCode identifies an ApiError in the closed error taxonomy
type ErrorCode string

const (
	// Contract errors
	ErrCodeSchemaMismatch    ErrorCode = "SCHEMA_MISMATCH"
	ErrCodeUnknownVariant    ErrorCode = "UNKNOWN_VARIANT"
	ErrCodePaginationInvalid ErrorCode = "PAGINATION_INVALID"
	ErrCodePageSizeExceeded  ErrorCode = "PAGE_SIZE_EXCEEDED"

	// Security errors
	ErrCodeCredentialLeak ErrorCode = "CREDENTIAL_LEAK"

	// Internal errors
	ErrCodeInternal ErrorCode = "INTERNAL"
)

// ErrorCodes lists the taxonomy in declaration order. The error_code
// enumeration declares the same tokens.
var ErrorCodes = []ErrorCode{
	ErrCodeSchemaMismatch,
	ErrCodeUnknownVariant,
	ErrCodePaginationInvalid,
	ErrCodePageSizeExceeded,
	ErrCodeCredentialLeak,
	ErrCodeInternal,
}

// Sentinels for errors.Is comparisons against any *ApiError
var (
	ErrSchemaMismatch    = &ApiError{Code: ErrCodeSchemaMismatch}
	ErrUnknownVariant    = &ApiError{Code: ErrCodeUnknownVariant}
	ErrPaginationInvalid = &ApiError{Code: ErrCodePaginationInvalid}
	ErrPageSizeExceeded  = &ApiError{Code: ErrCodePageSizeExceeded}
	ErrCredentialLeak    = &ApiError{Code: ErrCodeCredentialLeak}
	ErrInternal          = &ApiError{Code: ErrCodeInternal}
)

// ApiError is the error envelope returned to API consumers
type ApiError struct {
	Code    ErrorCode    `json:"code"`
	Message string       `json:"message"`
	Details []FieldError `json:"details,omitempty"`
	// Status is the HTTP status the transport should use. Not serialized.
	Status int `json:"-"`
}

// FieldError represents a violation on a specific field path
type FieldError struct {
	Field   string `json:"field"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *ApiError) Error() string {
	if len(e.Details) > 0 {
		return fmt.Sprintf("%s: %s (%d details)", e.Code, e.Message, len(e.Details))
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is matches any ApiError carrying the same code
func (e *ApiError) Is(target error) bool {
	t, ok := target.(*ApiError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// HTTPStatus returns Status, falling back to 500 when unset
func (e *ApiError) HTTPStatus() int {
	if e.Status == 0 {
		return http.StatusInternalServerError
	}
	return e.Status
}

// WriteJSON writes the error as a JSON response
func (e *ApiError) WriteJSON(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.HTTPStatus())
	_ = json.NewEncoder(w).Encode(e)
}

// Common error constructors

func NewSchemaMismatchError(details []FieldError) *ApiError {
	message := "Payload does not conform to schema"
	if len(details) > 0 {
		message = fmt.Sprintf("%s: %s", details[0].Field, details[0].Message)
		if len(details) > 1 {
			message = fmt.Sprintf("%s (and %d more errors)", message, len(details)-1)
		}
	}
	return &ApiError{
		Code:    ErrCodeSchemaMismatch,
		Message: message,
		Details: details,
		Status:  http.StatusUnprocessableEntity,
	}
}

func NewUnknownVariantError(details []FieldError) *ApiError {
	message := "Discriminator resolves to no registered variant"
	for _, d := range details {
		if d.Code == "unknown_variant" {
			message = fmt.Sprintf("%s: %s", d.Field, d.Message)
			break
		}
	}
	return &ApiError{
		Code:    ErrCodeUnknownVariant,
		Message: message,
		Details: details,
		Status:  http.StatusUnprocessableEntity,
	}
}

func NewPaginationInvalidError(detail string) *ApiError {
	return &ApiError{
		Code:    ErrCodePaginationInvalid,
		Message: detail,
		Status:  http.StatusBadRequest,
	}
}

func NewPageSizeExceededError(pageSize, returned int) *ApiError {
	return &ApiError{
		Code:    ErrCodePageSizeExceeded,
		Message: fmt.Sprintf("Page holds %d items but page_size is %d", returned, pageSize),
		Status:  http.StatusInternalServerError,
	}
}

func NewCredentialLeakError(schemaName string) *ApiError {
	return &ApiError{
		Code:    ErrCodeCredentialLeak,
		Message: fmt.Sprintf("%s is credential-bearing and cannot be sent to clients", schemaName),
		Status:  http.StatusInternalServerError,
	}
}

func NewInternalError(detail string) *ApiError {
	if detail == "" {
		detail = "An unexpected error occurred"
	}
	return &ApiError{
		Code:    ErrCodeInternal,
		Message: detail,
		Status:  http.StatusInternalServerError,
	}
}

var statusByCode = map[ErrorCode]int{
	ErrCodeSchemaMismatch:    http.StatusUnprocessableEntity,
	ErrCodeUnknownVariant:    http.StatusUnprocessableEntity,
	ErrCodePaginationInvalid: http.StatusBadRequest,
	ErrCodePageSizeExceeded:  http.StatusInternalServerError,
	ErrCodeCredentialLeak:    http.StatusInternalServerError,
	ErrCodeInternal:          http.StatusInternalServerError,
}

// NewApiError builds an error for any code, using the code's default
// status. Codes outside the built-in taxonomy get 500.
func NewApiError(code ErrorCode, message string, details ...FieldError) *ApiError {
	status, ok := statusByCode[code]
	if !ok {
		status = http.StatusInternalServerError
	}
	return &ApiError{
		Code:    code,
		Message: message,
		Details: details,
		Status:  status,
	}
}
