package envelope

import (
	"time"

	"github.com/forgo/sublet/api/internal/model"
	"github.com/forgo/sublet/api/internal/schema"
)

// Envelope kinds, used as metrics labels
const (
	KindOne   = "one"
	KindMany  = "many"
	KindError = "error"
)

// Meta is attached to every single-item response
type Meta struct {
	RequestID string    `json:"request_id"`
	Timestamp time.Time `json:"timestamp"`
}

// Response wraps one payload
type Response[T any] struct {
	Data T    `json:"data"`
	Meta Meta `json:"meta"`
}

// Paginated wraps one page of payloads
type Paginated[T any] struct {
	Data       []T            `json:"data"`
	Pagination PaginationMeta `json:"pagination"`
}

// PaginationMeta describes the page window. TotalPages is always derived
// from TotalItems and PageSize.
type PaginationMeta struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalItems int `json:"total_items"`
	TotalPages int `json:"total_pages"`
}

type envelope interface {
	envelopeKind() string
}

func (Response[T]) envelopeKind() string  { return KindOne }
func (Paginated[T]) envelopeKind() string { return KindMany }

// isEnvelope reports whether v is already a response or error envelope
func isEnvelope(v any) bool {
	switch v.(type) {
	case envelope, model.ApiError, *model.ApiError:
		return true
	}
	return false
}

// bearsCredential reports whether v declares itself credential-bearing
func bearsCredential(v any) bool {
	cb, ok := v.(interface{ CredentialBearing() bool })
	return ok && cb.CredentialBearing()
}

// ResponseOf returns the envelope schema for a single payload of the
// named schema
func ResponseOf(name string) *schema.Schema {
	return &schema.Schema{
		Name:    "ApiResponse<" + name + ">",
		Class:   schema.ClassEnvelope,
		Version: model.SchemaVersion,
		Fields: []schema.FieldSpec{
			schema.Field("data", schema.Ref(name)),
			schema.Field("meta", schema.Ref(model.SchemaResponseMeta)),
		},
	}
}

// PaginatedOf returns the envelope schema for a page of payloads of the
// named schema
func PaginatedOf(name string) *schema.Schema {
	return &schema.Schema{
		Name:    "PaginatedResponse<" + name + ">",
		Class:   schema.ClassEnvelope,
		Version: model.SchemaVersion,
		Fields: []schema.FieldSpec{
			schema.Field("data", schema.ArrayOf(schema.Ref(name))),
			schema.Field("pagination", schema.Ref(model.SchemaPaginationMeta)),
		},
	}
}
