package handler

import (
	"log/slog"
	"net/http"

	"github.com/forgo/sublet/api/internal/bootstrap"
	"github.com/forgo/sublet/api/internal/contract"
	"github.com/forgo/sublet/api/internal/envelope"
	"github.com/forgo/sublet/api/internal/model"
)

// ContractHandler exposes the contract layer over HTTP: payloads are
// validated against a named schema, optionally projected, and returned
// inside an envelope
type ContractHandler struct {
	rt     *bootstrap.Runtime
	logger *slog.Logger
}

// NewContractHandler creates a new contract handler
func NewContractHandler(rt *bootstrap.Runtime, logger *slog.Logger) *ContractHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ContractHandler{rt: rt, logger: logger}
}

// ListSchemas handles GET /v1/schemas
func (h *ContractHandler) ListSchemas(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]any{
		"schemas":      h.rt.Schemas.Names(),
		"enumerations": h.rt.Enums.Names(),
	})
}

// DescribeSchema handles GET /v1/schemas/{schema} - flattened field list
func (h *ContractHandler) DescribeSchema(w http.ResponseWriter, r *http.Request) {
	fields, err := h.rt.Schemas.Describe(r.PathValue("schema"))
	if err != nil {
		WriteError(w, err)
		return
	}

	type field struct {
		Name     string `json:"name"`
		Type     string `json:"type"`
		Optional bool   `json:"optional,omitempty"`
	}
	out := make([]field, 0, len(fields))
	for _, f := range fields {
		out = append(out, field{Name: f.Name, Type: f.Type.String(), Optional: f.Optional})
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"schema": r.PathValue("schema"),
		"fields": out,
	})
}

// Validate handles POST /v1/validate/{schema} - validate the body and
// return the normalized value wrapped in a response envelope
func (h *ContractHandler) Validate(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("schema")

	value, err := DecodeAndValidate(r, h.rt.Validator, name)
	if err != nil {
		h.writeRejected(w, r, name, err)
		return
	}

	env, err := envelope.WrapOne(r.Context(), h.rt.Composer, value, name)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, env)
}

// Project handles POST /v1/project/{full}/{minimal} - validate the body as
// the full schema and return its minimal projection
func (h *ContractHandler) Project(w http.ResponseWriter, r *http.Request) {
	full, minimal := r.PathValue("full"), r.PathValue("minimal")

	value, err := DecodeAndValidate(r, h.rt.Validator, full)
	if err != nil {
		h.writeRejected(w, r, full, err)
		return
	}

	spec, err := h.rt.Projections.Project(full, minimal)
	if err != nil {
		WriteError(w, err)
		return
	}

	env, err := envelope.WrapOne(r.Context(), h.rt.Composer, h.rt.Projections.Derive(value, spec), minimal)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, env)
}

// Page handles POST /v1/page/{schema} - wrap a JSON array body as one
// page. Paging comes from the page, page_size and total_items query
// parameters.
func (h *ContractHandler) Page(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("schema")

	data, err := ReadBody(r)
	if err != nil {
		WriteError(w, err)
		return
	}
	raw, err := contract.DecodeJSON(data)
	if err != nil {
		WriteError(w, model.NewSchemaMismatchError([]model.FieldError{{
			Code:    string(contract.CodeSyntax),
			Message: err.Error(),
		}}))
		return
	}
	values, ok := raw.([]any)
	if !ok {
		WriteError(w, model.NewSchemaMismatchError([]model.FieldError{{
			Code:    string(contract.CodeType),
			Message: "body must be a JSON array",
		}}))
		return
	}

	page, pageSize, totalItems, err := parsePagination(r, len(values))
	if err != nil {
		WriteError(w, err)
		return
	}

	env, err := envelope.WrapMany(h.rt.Composer, values, name, page, pageSize, totalItems)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, env)
}

// Health handles GET /health
func Health(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *ContractHandler) writeRejected(w http.ResponseWriter, r *http.Request, schemaName string, err error) {
	apiErr := MapError(err)
	h.logger.Debug("payload rejected",
		slog.String("schema", schemaName),
		slog.String("code", string(apiErr.Code)),
		slog.Int("details", len(apiErr.Details)),
	)
	apiErr.WriteJSON(w)
}
