package handler

import (
	"errors"
	"net/http"

	"github.com/forgo/sublet/api/internal/contract"
	"github.com/forgo/sublet/api/internal/model"
	"github.com/forgo/sublet/api/internal/projection"
	"github.com/forgo/sublet/api/internal/schema"
)

// MapError converts any error from the contract layer into an ApiError.
// Unrecognized errors become INTERNAL without exposing their text.
func MapError(err error) *model.ApiError {
	if err == nil {
		return nil
	}

	var verr *contract.ValidationError
	if errors.As(err, &verr) {
		return verr.APIError()
	}
	var apiErr *model.ApiError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		e := model.NewApiError(model.ErrCodeSchemaMismatch, "request body too large")
		e.Status = http.StatusRequestEntityTooLarge
		return e
	}

	switch {
	case errors.Is(err, schema.ErrUnknownSchema):
		e := model.NewApiError(model.ErrCodeSchemaMismatch, err.Error())
		e.Status = http.StatusNotFound
		return e
	case errors.Is(err, projection.ErrInvalidProjection):
		e := model.NewApiError(model.ErrCodeSchemaMismatch, err.Error())
		e.Status = http.StatusBadRequest
		return e
	default:
		return model.NewInternalError("")
	}
}
