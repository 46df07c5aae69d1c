package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/forgo/sublet/api/internal/contract"
	"github.com/forgo/sublet/api/internal/model"
)

// Defaults applied when a paging query parameter is absent
const (
	DefaultPage     = 1
	DefaultPageSize = 20
)

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// WriteError maps err to an ApiError and writes it
func WriteError(w http.ResponseWriter, err error) {
	MapError(err).WriteJSON(w)
}

// ReadBody reads the whole request body. The size cap, if any, comes from
// middleware.MaxBody.
func ReadBody(r *http.Request) ([]byte, error) {
	if r.Body == nil {
		return nil, model.NewSchemaMismatchError([]model.FieldError{{
			Code:    string(contract.CodeSyntax),
			Message: "request body is required",
		}})
	}
	defer func() { _ = r.Body.Close() }()
	data, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return data, nil
}

// DecodeAndValidate reads the request body and validates it against the
// named schema, returning the normalized value
func DecodeAndValidate(r *http.Request, v *contract.Validator, schemaName string) (map[string]any, error) {
	data, err := ReadBody(r)
	if err != nil {
		return nil, err
	}
	return v.ValidateJSON(data, schemaName)
}

// parsePagination reads page, page_size and total_items from the query.
// total_items defaults to fallbackTotal. Range checks are left to
// envelope.NewPagination.
func parsePagination(r *http.Request, fallbackTotal int) (page, pageSize, totalItems int, err error) {
	q := r.URL.Query()
	page, err = queryInt(q.Get("page"), "page", DefaultPage)
	if err != nil {
		return 0, 0, 0, err
	}
	pageSize, err = queryInt(q.Get("page_size"), "page_size", DefaultPageSize)
	if err != nil {
		return 0, 0, 0, err
	}
	totalItems, err = queryInt(q.Get("total_items"), "total_items", fallbackTotal)
	if err != nil {
		return 0, 0, 0, err
	}
	return page, pageSize, totalItems, nil
}

func queryInt(raw, name string, fallback int) (int, error) {
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, model.NewPaginationInvalidError(fmt.Sprintf("%s must be an integer, got %q", name, raw))
	}
	return n, nil
}
