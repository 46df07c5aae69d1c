// Package helpers provides common test utilities for contract-layer and
// transport tests.
//
// This package includes a fully wired contract harness, HTTP request
// builders, and assertion helpers for envelope and error responses.
package helpers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/forgo/sublet/api/internal/contract"
	"github.com/forgo/sublet/api/internal/enum"
	"github.com/forgo/sublet/api/internal/envelope"
	"github.com/forgo/sublet/api/internal/model"
	"github.com/forgo/sublet/api/internal/projection"
	"github.com/forgo/sublet/api/internal/schema"
)

// ============================================================================
// Contract Harness
// ============================================================================

// FixedNow is the clock every harness composer reports
var FixedNow = time.Date(2026, time.September, 1, 12, 0, 0, 0, time.UTC)

// Harness bundles frozen registries with the components built on them
type Harness struct {
	Enums       *enum.Registry
	Schemas     *schema.Registry
	Validator   *contract.Validator
	Projections *projection.Engine
	Composer    *envelope.Composer
}

// HarnessOpts customizes harness construction
type HarnessOpts struct {
	Lenient bool
	// Extra schemas are registered after the built-in ones
	Extra []schema.Schema
}

// NewHarness builds the default registries and components. Request IDs
// are sequential ("req-1", "req-2", ...) and the clock is FixedNow.
func NewHarness(t *testing.T, opts ...func(*HarnessOpts)) *Harness {
	t.Helper()

	o := &HarnessOpts{}
	for _, fn := range opts {
		fn(o)
	}

	enums := enum.Default()
	schemas := schema.NewRegistry(enums)
	if err := model.RegisterSchemas(schemas); err != nil {
		t.Fatalf("helpers: failed to register schemas: %v", err)
	}
	for _, s := range o.Extra {
		if err := schemas.Register(s); err != nil {
			t.Fatalf("helpers: failed to register %s: %v", s.Name, err)
		}
	}
	if err := schemas.Freeze(); err != nil {
		t.Fatalf("helpers: failed to freeze schemas: %v", err)
	}

	v, err := contract.New(schemas, contract.WithStrictUnknownFields(!o.Lenient))
	if err != nil {
		t.Fatalf("helpers: failed to create validator: %v", err)
	}

	engine := projection.NewEngine(v)
	if err := engine.ProjectDeclared(); err != nil {
		t.Fatalf("helpers: failed to check projections: %v", err)
	}

	var seq atomic.Int64
	composer := envelope.NewComposer(v,
		envelope.WithClock(func() time.Time { return FixedNow }),
		envelope.WithIDGenerator(func() string {
			return fmt.Sprintf("req-%d", seq.Add(1))
		}),
	)

	return &Harness{
		Enums:       enums,
		Schemas:     schemas,
		Validator:   v,
		Projections: engine,
		Composer:    composer,
	}
}

// Lenient drops unknown fields instead of rejecting them
func Lenient(o *HarnessOpts) {
	o.Lenient = true
}

// ============================================================================
// HTTP Request Helpers
// ============================================================================

// RequestBuilder helps construct HTTP requests for testing
type RequestBuilder struct {
	t       *testing.T
	method  string
	path    string
	body    any
	raw     []byte
	headers map[string]string
}

// NewRequest creates a new request builder
func NewRequest(t *testing.T, method, path string) *RequestBuilder {
	t.Helper()
	return &RequestBuilder{
		t:       t,
		method:  method,
		path:    path,
		headers: make(map[string]string),
	}
}

// WithBody sets the request body (will be JSON encoded)
func (rb *RequestBuilder) WithBody(body any) *RequestBuilder {
	rb.body = body
	return rb
}

// WithRawBody sets the request body verbatim
func (rb *RequestBuilder) WithRawBody(body string) *RequestBuilder {
	rb.raw = []byte(body)
	return rb
}

// WithHeader adds a header to the request
func (rb *RequestBuilder) WithHeader(key, value string) *RequestBuilder {
	rb.headers[key] = value
	return rb
}

// Build creates the HTTP request
func (rb *RequestBuilder) Build() *http.Request {
	rb.t.Helper()

	var bodyReader io.Reader
	switch {
	case rb.raw != nil:
		bodyReader = bytes.NewReader(rb.raw)
	case rb.body != nil:
		bodyBytes, err := json.Marshal(rb.body)
		if err != nil {
			rb.t.Fatalf("helpers: failed to marshal body: %v", err)
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req := httptest.NewRequest(rb.method, rb.path, bodyReader)
	if bodyReader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range rb.headers {
		req.Header.Set(k, v)
	}
	return req
}

// ============================================================================
// Response Assertion Helpers
// ============================================================================

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, resp *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if resp.Code != expected {
		t.Errorf("expected status %d, got %d. Body: %s", expected, resp.Code, resp.Body.String())
	}
}

// AssertApiError validates an error envelope response and returns it
func AssertApiError(t *testing.T, resp *httptest.ResponseRecorder, expectedStatus int, expectedCode model.ErrorCode) model.ApiError {
	t.Helper()

	AssertStatus(t, resp, expectedStatus)

	var apiErr model.ApiError
	bodyBytes := resp.Body.Bytes()
	if err := json.Unmarshal(bodyBytes, &apiErr); err != nil {
		t.Fatalf("failed to decode error envelope: %v. Body: %s", err, string(bodyBytes))
	}
	if apiErr.Code != expectedCode {
		t.Errorf("expected code %s, got %s", expectedCode, apiErr.Code)
	}
	return apiErr
}

// AssertFieldError checks for a detail on a specific field path
func AssertFieldError(t *testing.T, resp *httptest.ResponseRecorder, field string) {
	t.Helper()

	var apiErr model.ApiError
	if err := json.Unmarshal(resp.Body.Bytes(), &apiErr); err != nil {
		t.Fatalf("failed to decode error envelope: %v", err)
	}
	for _, fe := range apiErr.Details {
		if fe.Field == field {
			return
		}
	}
	t.Errorf("expected field error on %q, but not found. Details: %+v", field, apiErr.Details)
}

// DecodeResponse decodes the response body into the given value
func DecodeResponse(t *testing.T, resp *httptest.ResponseRecorder, v any) {
	t.Helper()

	bodyBytes := resp.Body.Bytes()
	if err := json.Unmarshal(bodyBytes, v); err != nil {
		t.Fatalf("failed to decode response: %v. Body: %s", err, string(bodyBytes))
	}
}

// GetDataFromResponse extracts the "data" field from a single-item
// envelope
func GetDataFromResponse(t *testing.T, resp *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var response struct {
		Data map[string]any `json:"data"`
	}
	DecodeResponse(t, resp, &response)
	return response.Data
}
