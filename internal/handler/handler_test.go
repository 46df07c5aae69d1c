package handler_test

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/forgo/sublet/api/internal/bootstrap"
	"github.com/forgo/sublet/api/internal/config"
	"github.com/forgo/sublet/api/internal/contract"
	"github.com/forgo/sublet/api/internal/handler"
	"github.com/forgo/sublet/api/internal/model"
	"github.com/forgo/sublet/api/internal/projection"
	"github.com/forgo/sublet/api/internal/schema"
	"github.com/forgo/sublet/api/internal/testing/fixtures"
	"github.com/forgo/sublet/api/internal/testing/helpers"
)

func newRouter(t *testing.T, opts ...func(*handler.RouterConfig)) http.Handler {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := &config.Config{
		App:      config.AppConfig{Env: "test", LogLevel: "info"},
		Contract: config.ContractConfig{StrictUnknownFields: true},
	}
	rt, err := bootstrap.InitRuntime(cfg, bootstrap.Options{Logger: logger})
	if err != nil {
		t.Fatalf("failed to init runtime: %v", err)
	}
	rc := handler.RouterConfig{Runtime: rt, Logger: logger}
	for _, fn := range opts {
		fn(&rc)
	}
	return handler.NewRouter(rc)
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

// ============================================================================
// Validate Tests
// ============================================================================

func TestValidate_ValidUser_ReturnsEnvelope(t *testing.T) {
	t.Parallel()

	router := newRouter(t)
	f := fixtures.New(1)
	user := f.User(t)

	req := helpers.NewRequest(t, http.MethodPost, "/v1/validate/User").
		WithBody(user).
		WithHeader("X-Request-ID", "req-handler-1").
		Build()
	rr := serve(router, req)

	helpers.AssertStatus(t, rr, http.StatusOK)
	var body struct {
		Data map[string]any `json:"data"`
		Meta struct {
			RequestID string `json:"request_id"`
			Timestamp string `json:"timestamp"`
		} `json:"meta"`
	}
	helpers.DecodeResponse(t, rr, &body)
	if body.Data["id"] != user.ID {
		t.Errorf("expected id %q, got %v", user.ID, body.Data["id"])
	}
	if body.Meta.RequestID != "req-handler-1" {
		t.Errorf("expected request_id from header, got %q", body.Meta.RequestID)
	}
	if body.Meta.Timestamp == "" {
		t.Error("expected meta.timestamp to be set")
	}
}

func TestValidate_MissingRole_ReturnsSchemaMismatch(t *testing.T) {
	t.Parallel()

	router := newRouter(t)
	f := fixtures.New(2)
	raw := f.Raw(t, f.User(t))
	delete(raw, "role")

	rr := serve(router, helpers.NewRequest(t, http.MethodPost, "/v1/validate/User").WithBody(raw).Build())

	apiErr := helpers.AssertApiError(t, rr, http.StatusUnprocessableEntity, model.ErrCodeSchemaMismatch)
	if len(apiErr.Details) != 1 {
		t.Errorf("expected exactly one detail, got %+v", apiErr.Details)
	}
	helpers.AssertFieldError(t, rr, "role")
}

func TestValidate_UnknownVariant_ReturnsUnknownVariant(t *testing.T) {
	t.Parallel()

	router := newRouter(t)
	f := fixtures.New(3)
	raw := f.Raw(t, f.SubletPost(t, f.User(t)))
	raw["type"] = "roommate_wanted"

	rr := serve(router, helpers.NewRequest(t, http.MethodPost, "/v1/validate/BasePost").WithBody(raw).Build())

	helpers.AssertApiError(t, rr, http.StatusUnprocessableEntity, model.ErrCodeUnknownVariant)
}

func TestValidate_MalformedJSON_ReturnsSchemaMismatch(t *testing.T) {
	t.Parallel()

	router := newRouter(t)
	rr := serve(router, helpers.NewRequest(t, http.MethodPost, "/v1/validate/User").WithRawBody(`{"id":`).Build())

	helpers.AssertApiError(t, rr, http.StatusUnprocessableEntity, model.ErrCodeSchemaMismatch)
}

func TestValidate_UnknownSchema_Returns404(t *testing.T) {
	t.Parallel()

	router := newRouter(t)
	rr := serve(router, helpers.NewRequest(t, http.MethodPost, "/v1/validate/Listing").WithRawBody(`{}`).Build())

	helpers.AssertApiError(t, rr, http.StatusNotFound, model.ErrCodeSchemaMismatch)
}

func TestValidate_CredentialBearing_ReturnsCredentialLeak(t *testing.T) {
	t.Parallel()

	router := newRouter(t)
	f := fixtures.New(4)
	auth := f.UserAuth(t, "correct horse battery staple")

	rr := serve(router, helpers.NewRequest(t, http.MethodPost, "/v1/validate/UserAuth").WithBody(auth).Build())

	apiErr := helpers.AssertApiError(t, rr, http.StatusInternalServerError, model.ErrCodeCredentialLeak)
	if strings.Contains(rr.Body.String(), auth.CredentialHash) {
		t.Error("credential hash must not appear in the response")
	}
	if apiErr.Message == "" {
		t.Error("expected a message")
	}
}

func TestValidate_OversizedBody_Returns413(t *testing.T) {
	t.Parallel()

	router := newRouter(t, func(rc *handler.RouterConfig) { rc.MaxBodyBytes = 32 })
	body := fmt.Sprintf(`{"id":"%s"}`, strings.Repeat("x", 64))

	rr := serve(router, helpers.NewRequest(t, http.MethodPost, "/v1/validate/User").WithRawBody(body).Build())

	helpers.AssertApiError(t, rr, http.StatusRequestEntityTooLarge, model.ErrCodeSchemaMismatch)
}

// ============================================================================
// Project Tests
// ============================================================================

func TestProject_UserToPostAuthor(t *testing.T) {
	t.Parallel()

	router := newRouter(t)
	f := fixtures.New(5)
	user := f.User(t)

	rr := serve(router, helpers.NewRequest(t, http.MethodPost, "/v1/project/User/PostAuthor").WithBody(user).Build())

	helpers.AssertStatus(t, rr, http.StatusOK)
	data := helpers.GetDataFromResponse(t, rr)
	if data["username"] != user.Username {
		t.Errorf("expected username %q, got %v", user.Username, data["username"])
	}
	for _, dropped := range []string{"email", "role", "created_on"} {
		if _, ok := data[dropped]; ok {
			t.Errorf("expected %s to be dropped, got %v", dropped, data[dropped])
		}
	}
}

func TestProject_UserAuthToPostAuthor_DropsCredential(t *testing.T) {
	t.Parallel()

	router := newRouter(t)
	f := fixtures.New(6)
	auth := f.UserAuth(t, "hunter22")

	rr := serve(router, helpers.NewRequest(t, http.MethodPost, "/v1/project/UserAuth/PostAuthor").WithBody(auth).Build())

	helpers.AssertStatus(t, rr, http.StatusOK)
	if strings.Contains(rr.Body.String(), "credential_hash") {
		t.Errorf("projection leaked the credential: %s", rr.Body.String())
	}
}

func TestProject_InvalidPair_Returns400(t *testing.T) {
	t.Parallel()

	router := newRouter(t)
	f := fixtures.New(7)

	rr := serve(router, helpers.NewRequest(t, http.MethodPost, "/v1/project/User/User").WithBody(f.User(t)).Build())

	helpers.AssertApiError(t, rr, http.StatusBadRequest, model.ErrCodeSchemaMismatch)
}

// ============================================================================
// Page Tests
// ============================================================================

func TestPage_ComputesTotalPages(t *testing.T) {
	t.Parallel()

	router := newRouter(t)
	f := fixtures.New(8)
	authors := []any{f.User(t).ToPostAuthor(), f.User(t).ToPostAuthor()}

	req := helpers.NewRequest(t, http.MethodPost, "/v1/page/PostAuthor?page=1&page_size=2&total_items=5").
		WithBody(authors).
		Build()
	rr := serve(router, req)

	helpers.AssertStatus(t, rr, http.StatusOK)
	var body struct {
		Data       []map[string]any `json:"data"`
		Pagination map[string]int   `json:"pagination"`
	}
	helpers.DecodeResponse(t, rr, &body)
	if len(body.Data) != 2 {
		t.Errorf("expected 2 items, got %d", len(body.Data))
	}
	if body.Pagination["total_pages"] != 3 {
		t.Errorf("expected total_pages 3, got %d", body.Pagination["total_pages"])
	}
}

func TestPage_EmptyArray_SerializesEmptyData(t *testing.T) {
	t.Parallel()

	router := newRouter(t)
	rr := serve(router, helpers.NewRequest(t, http.MethodPost, "/v1/page/PostAuthor?total_items=0").WithRawBody(`[]`).Build())

	helpers.AssertStatus(t, rr, http.StatusOK)
	if !strings.Contains(rr.Body.String(), `"data":[]`) {
		t.Errorf("expected empty data array, got %s", rr.Body.String())
	}
}

func TestPage_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		path   string
		body   string
		status int
		code   model.ErrorCode
	}{
		{"non-integer page", "/v1/page/PostAuthor?page=two", `[]`, http.StatusBadRequest, model.ErrCodePaginationInvalid},
		{"zero page size", "/v1/page/PostAuthor?page_size=0", `[]`, http.StatusBadRequest, model.ErrCodePaginationInvalid},
		{"page overflow", "/v1/page/PostAuthor?page_size=1&total_items=2", `[{"id":"a","username":"a","level":0},{"id":"b","username":"b","level":1}]`, http.StatusInternalServerError, model.ErrCodePageSizeExceeded},
		{"not an array", "/v1/page/PostAuthor", `{}`, http.StatusUnprocessableEntity, model.ErrCodeSchemaMismatch},
		{"bad element", "/v1/page/PostAuthor", `[{"id":"a","username":"","level":0}]`, http.StatusUnprocessableEntity, model.ErrCodeSchemaMismatch},
		{"credential bearing", "/v1/page/UserAuth", `[]`, http.StatusInternalServerError, model.ErrCodeCredentialLeak},
	}

	router := newRouter(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := serve(router, helpers.NewRequest(t, http.MethodPost, tt.path).WithRawBody(tt.body).Build())
			helpers.AssertApiError(t, rr, tt.status, tt.code)
		})
	}
}

func TestPage_LenientRuntime_RejectsUndeclaredFieldsOutbound(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := &config.Config{
		App:      config.AppConfig{Env: "development", LogLevel: "info"},
		Contract: config.ContractConfig{StrictUnknownFields: false},
	}
	rt, err := bootstrap.InitRuntime(cfg, bootstrap.Options{Logger: logger})
	if err != nil {
		t.Fatalf("failed to init runtime: %v", err)
	}
	router := handler.NewRouter(handler.RouterConfig{Runtime: rt, Logger: logger})
	f := fixtures.New(9)
	auth := f.UserAuth(t, "hunter22")

	rr := serve(router, helpers.NewRequest(t, http.MethodPost, "/v1/page/User?page_size=1").WithBody([]any{auth}).Build())

	helpers.AssertApiError(t, rr, http.StatusUnprocessableEntity, model.ErrCodeSchemaMismatch)
	helpers.AssertFieldError(t, rr, "data[0].credential_hash")
	if strings.Contains(rr.Body.String(), auth.CredentialHash) {
		t.Errorf("credential hash leaked: %s", rr.Body.String())
	}
}

func TestPage_BadElement_ReportsIndexedPath(t *testing.T) {
	t.Parallel()

	router := newRouter(t)
	body := `[{"id":"a","username":"a","level":0},{"id":"b","username":"","level":0}]`

	rr := serve(router, helpers.NewRequest(t, http.MethodPost, "/v1/page/PostAuthor").WithRawBody(body).Build())

	helpers.AssertStatus(t, rr, http.StatusUnprocessableEntity)
	helpers.AssertFieldError(t, rr, "data[1].username")
}

// ============================================================================
// Catalog and Health Tests
// ============================================================================

func TestListSchemas(t *testing.T) {
	t.Parallel()

	router := newRouter(t)
	rr := serve(router, helpers.NewRequest(t, http.MethodGet, "/v1/schemas").Build())

	helpers.AssertStatus(t, rr, http.StatusOK)
	var body struct {
		Schemas      []string `json:"schemas"`
		Enumerations []string `json:"enumerations"`
	}
	helpers.DecodeResponse(t, rr, &body)
	found := false
	for _, s := range body.Schemas {
		if s == model.SchemaSubletPost {
			found = true
		}
	}
	if !found {
		t.Errorf("expected %s in %v", model.SchemaSubletPost, body.Schemas)
	}
	if len(body.Enumerations) == 0 {
		t.Error("expected enumerations to be listed")
	}
}

func TestDescribeSchema(t *testing.T) {
	t.Parallel()

	router := newRouter(t)

	rr := serve(router, helpers.NewRequest(t, http.MethodGet, "/v1/schemas/PostAuthor").Build())
	helpers.AssertStatus(t, rr, http.StatusOK)
	var body struct {
		Fields []struct {
			Name     string `json:"name"`
			Optional bool   `json:"optional"`
		} `json:"fields"`
	}
	helpers.DecodeResponse(t, rr, &body)
	if len(body.Fields) != 4 {
		t.Errorf("expected 4 PostAuthor fields, got %+v", body.Fields)
	}

	rr = serve(router, helpers.NewRequest(t, http.MethodGet, "/v1/schemas/Nope").Build())
	helpers.AssertApiError(t, rr, http.StatusNotFound, model.ErrCodeSchemaMismatch)
}

func TestHealth(t *testing.T) {
	t.Parallel()

	rr := serve(newRouter(t), helpers.NewRequest(t, http.MethodGet, "/health").Build())
	helpers.AssertStatus(t, rr, http.StatusOK)
}

func TestMetrics_ServedWhenGathererSet(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewCounter(prometheus.CounterOpts{Name: "handler_test_total", Help: "test"}))

	router := newRouter(t, func(rc *handler.RouterConfig) { rc.Gatherer = reg })
	rr := serve(router, helpers.NewRequest(t, http.MethodGet, "/metrics").Build())

	helpers.AssertStatus(t, rr, http.StatusOK)
	if !strings.Contains(rr.Body.String(), "handler_test_total") {
		t.Errorf("expected counter in exposition, got %s", rr.Body.String())
	}

	rr = serve(newRouter(t), helpers.NewRequest(t, http.MethodGet, "/metrics").Build())
	helpers.AssertStatus(t, rr, http.StatusNotFound)
}

// ============================================================================
// MapError Tests
// ============================================================================

func TestMapError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		err    error
		status int
		code   model.ErrorCode
	}{
		{
			name:   "validation error",
			err:    &contract.ValidationError{Schema: "User", Violations: contract.Violations{{Path: "role", Code: contract.CodeRequired, Message: "is required"}}},
			status: http.StatusUnprocessableEntity,
			code:   model.ErrCodeSchemaMismatch,
		},
		{
			name:   "api error passes through",
			err:    model.NewPaginationInvalidError("page must be >= 1"),
			status: http.StatusBadRequest,
			code:   model.ErrCodePaginationInvalid,
		},
		{
			name:   "wrapped api error",
			err:    fmt.Errorf("compose: %w", model.NewCredentialLeakError("UserAuth")),
			status: http.StatusInternalServerError,
			code:   model.ErrCodeCredentialLeak,
		},
		{
			name:   "unknown schema",
			err:    fmt.Errorf("%w: Listing", schema.ErrUnknownSchema),
			status: http.StatusNotFound,
			code:   model.ErrCodeSchemaMismatch,
		},
		{
			name:   "invalid projection",
			err:    fmt.Errorf("%w: User cannot project onto itself", projection.ErrInvalidProjection),
			status: http.StatusBadRequest,
			code:   model.ErrCodeSchemaMismatch,
		},
		{
			name:   "body too large",
			err:    &http.MaxBytesError{Limit: 10},
			status: http.StatusRequestEntityTooLarge,
			code:   model.ErrCodeSchemaMismatch,
		},
		{
			name:   "anything else",
			err:    errors.New("disk on fire"),
			status: http.StatusInternalServerError,
			code:   model.ErrCodeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := handler.MapError(tt.err)
			if got.Code != tt.code {
				t.Errorf("expected code %s, got %s", tt.code, got.Code)
			}
			if got.HTTPStatus() != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, got.HTTPStatus())
			}
		})
	}

	if handler.MapError(nil) != nil {
		t.Error("expected nil for nil error")
	}
	if msg := handler.MapError(errors.New("disk on fire")).Message; strings.Contains(msg, "disk") {
		t.Errorf("internal error text leaked: %q", msg)
	}
}
