// Package envelope wraps validated payloads in response envelopes.
//
// Every composed envelope is re-validated against its envelope schema
// before it is returned, and composition either returns an envelope or an
// *model.ApiError, never both. Credential-bearing payloads are refused
// outright.
package envelope

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/forgo/sublet/api/internal/contract"
	"github.com/forgo/sublet/api/internal/enum"
	"github.com/forgo/sublet/api/internal/metrics"
	"github.com/forgo/sublet/api/internal/model"
	"github.com/forgo/sublet/api/internal/schema"
)

// Composer builds envelopes. It is safe for concurrent use.
type Composer struct {
	validator *contract.Validator
	schemas   *schema.Registry
	enums     *enum.Registry
	clock     func() time.Time
	newID     func() string
	requestID func(context.Context) string
	metrics   metrics.Recorder
	logger    *slog.Logger
}

// Option configures a Composer
type Option func(*Composer)

// WithClock sets the source of ResponseMeta timestamps
func WithClock(clock func() time.Time) Option {
	return func(c *Composer) { c.clock = clock }
}

// WithIDGenerator sets the request ID generator used when the context
// carries none
func WithIDGenerator(gen func() string) Option {
	return func(c *Composer) { c.newID = gen }
}

// WithRequestIDFunc sets how a request ID is read from the context
func WithRequestIDFunc(fn func(context.Context) string) Option {
	return func(c *Composer) { c.requestID = fn }
}

// WithMetrics sets the metrics recorder
func WithMetrics(rec metrics.Recorder) Option {
	return func(c *Composer) { c.metrics = rec }
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(c *Composer) { c.logger = logger }
}

// NewComposer creates a composer validating through v. Outbound checks
// always reject undeclared fields, even when v is lenient.
func NewComposer(v *contract.Validator, opts ...Option) *Composer {
	c := &Composer{
		validator: v.StrictCopy(),
		schemas:   v.Registry(),
		enums:     v.Registry().Enums(),
		clock:     time.Now,
		newID:     uuid.NewString,
		requestID: func(context.Context) string { return "" },
		metrics:   metrics.Nop{},
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WrapOne wraps value, which must conform to the named schema
func WrapOne[T any](ctx context.Context, c *Composer, value T, schemaName string) (*Response[T], error) {
	if c.schemas.IsCredentialBearing(schemaName) || bearsCredential(value) {
		return nil, c.reject(KindOne, schemaName, model.NewCredentialLeakError(schemaName))
	}
	s, err := c.payloadSchema(schemaName)
	if err != nil {
		return nil, c.reject(KindOne, schemaName, err)
	}
	if err := doubleWrap(s, value); err != nil {
		return nil, c.reject(KindOne, schemaName, err)
	}

	env := &Response[T]{Data: value, Meta: c.meta(ctx)}
	if err := c.verify(env, ResponseOf(schemaName)); err != nil {
		return nil, c.reject(KindOne, schemaName, err)
	}
	c.metrics.ObserveEnvelope(KindOne, metrics.OutcomeAccepted)
	return env, nil
}

// WrapMany wraps one page of values. TotalPages is derived; a page holding
// more values than pageSize is refused.
func WrapMany[T any](c *Composer, values []T, schemaName string, page, pageSize, totalItems int) (*Paginated[T], error) {
	if c.schemas.IsCredentialBearing(schemaName) {
		return nil, c.reject(KindMany, schemaName, model.NewCredentialLeakError(schemaName))
	}
	for _, v := range values {
		if bearsCredential(v) {
			return nil, c.reject(KindMany, schemaName, model.NewCredentialLeakError(schemaName))
		}
	}
	s, err := c.payloadSchema(schemaName)
	if err != nil {
		return nil, c.reject(KindMany, schemaName, err)
	}

	pagination, err := NewPagination(page, pageSize, totalItems)
	if err != nil {
		return nil, c.reject(KindMany, schemaName, err)
	}
	if len(values) > pageSize {
		return nil, c.reject(KindMany, schemaName, model.NewPageSizeExceededError(pageSize, len(values)))
	}
	for _, v := range values {
		if err := doubleWrap(s, v); err != nil {
			return nil, c.reject(KindMany, schemaName, err)
		}
	}

	data := values
	if data == nil {
		data = []T{}
	}
	env := &Paginated[T]{Data: data, Pagination: pagination}
	if err := c.verify(env, PaginatedOf(schemaName)); err != nil {
		return nil, c.reject(KindMany, schemaName, err)
	}
	c.metrics.ObserveEnvelope(KindMany, metrics.OutcomeAccepted)
	return env, nil
}

// WrapError builds an error envelope. The code must be a token of the
// error_code enumeration.
func (c *Composer) WrapError(code model.ErrorCode, message string, details ...model.FieldError) (*model.ApiError, error) {
	if !c.enums.IsMember(enum.ErrorCode, string(code)) {
		err := model.NewSchemaMismatchError([]model.FieldError{{
			Field:   "code",
			Code:    string(contract.CodeEnum),
			Message: fmt.Sprintf("%q is not a valid %s", code, enum.ErrorCode),
		}})
		return nil, c.reject(KindError, model.SchemaApiError, err)
	}

	apiErr := model.NewApiError(code, message, details...)
	raw, err := contract.ToRaw(apiErr)
	if err != nil {
		return nil, c.reject(KindError, model.SchemaApiError, model.NewInternalError(err.Error()))
	}
	if _, err := c.validator.Validate(raw, model.SchemaApiError); err != nil {
		return nil, c.reject(KindError, model.SchemaApiError, toAPIError(err))
	}
	c.metrics.ObserveEnvelope(KindError, metrics.OutcomeAccepted)
	return apiErr, nil
}

// NewPagination validates the window and derives TotalPages
func NewPagination(page, pageSize, totalItems int) (PaginationMeta, error) {
	var problems []string
	if page < 1 {
		problems = append(problems, fmt.Sprintf("page must be >= 1, got %d", page))
	}
	if pageSize < 1 {
		problems = append(problems, fmt.Sprintf("page_size must be >= 1, got %d", pageSize))
	}
	if totalItems < 0 {
		problems = append(problems, fmt.Sprintf("total_items must be >= 0, got %d", totalItems))
	}
	if len(problems) > 0 {
		return PaginationMeta{}, model.NewPaginationInvalidError(strings.Join(problems, "; "))
	}
	return PaginationMeta{
		Page:       page,
		PageSize:   pageSize,
		TotalItems: totalItems,
		TotalPages: totalPages(totalItems, pageSize),
	}, nil
}

// totalPages is ceil(totalItems / pageSize) without overflowing near
// math.MaxInt
func totalPages(totalItems, pageSize int) int {
	pages := totalItems / pageSize
	if totalItems%pageSize != 0 {
		pages++
	}
	return pages
}

// CheckPagination rejects metadata whose window is invalid or whose
// TotalPages disagrees with the derived value
func CheckPagination(meta PaginationMeta) error {
	derived, err := NewPagination(meta.Page, meta.PageSize, meta.TotalItems)
	if err != nil {
		return err
	}
	if meta.TotalPages != derived.TotalPages {
		return model.NewPaginationInvalidError(fmt.Sprintf(
			"total_pages is %d but %d items at page_size %d make %d pages",
			meta.TotalPages, meta.TotalItems, meta.PageSize, derived.TotalPages))
	}
	return nil
}

func (c *Composer) payloadSchema(name string) (*schema.Schema, error) {
	s, err := c.schemas.Lookup(name)
	if err != nil {
		return nil, model.NewInternalError(err.Error())
	}
	return s, nil
}

func (c *Composer) meta(ctx context.Context) Meta {
	id := c.requestID(ctx)
	if id == "" {
		id = c.newID()
	}
	return Meta{RequestID: id, Timestamp: c.clock().UTC()}
}

// verify re-validates a composed envelope against its envelope schema
func (c *Composer) verify(env any, s *schema.Schema) error {
	raw, err := contract.ToRaw(env)
	if err != nil {
		return model.NewInternalError(err.Error())
	}
	if _, err := c.validator.ValidateSchema(raw, s); err != nil {
		return toAPIError(err)
	}
	return nil
}

func (c *Composer) reject(kind, schemaName string, err error) error {
	c.metrics.ObserveEnvelope(kind, metrics.OutcomeRejected)
	attrs := []any{
		slog.String("kind", kind),
		slog.String("schema", schemaName),
		slog.String("error", err.Error()),
	}
	if errors.Is(err, model.ErrCredentialLeak) {
		c.logger.Error("credential-bearing payload refused", attrs...)
	} else {
		c.logger.Warn("envelope rejected", attrs...)
	}
	return err
}

// doubleWrap refuses envelope schemas and values that are already
// envelopes
func doubleWrap(s *schema.Schema, value any) error {
	if s.Class == schema.ClassEnvelope || s.Class == schema.ClassMeta {
		return model.NewSchemaMismatchError([]model.FieldError{{
			Field:   "data",
			Code:    string(contract.CodeType),
			Message: fmt.Sprintf("%s is a %s schema and cannot be wrapped", s.Name, s.Class),
		}})
	}
	if isEnvelope(value) {
		return model.NewSchemaMismatchError([]model.FieldError{{
			Field:   "data",
			Code:    string(contract.CodeType),
			Message: "envelopes cannot be nested",
		}})
	}
	return nil
}

func toAPIError(err error) *model.ApiError {
	var verr *contract.ValidationError
	if errors.As(err, &verr) {
		return verr.APIError()
	}
	var apiErr *model.ApiError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return model.NewInternalError(err.Error())
}
