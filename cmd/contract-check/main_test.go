package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgo/sublet/api/internal/testing/fixtures"
)

func runCLI(t *testing.T, stdin string, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, strings.NewReader(stdin), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func userJSON(t *testing.T, seed int64) string {
	t.Helper()
	f := fixtures.New(seed)
	data, err := json.Marshal(f.User(t))
	require.NoError(t, err)
	return string(data)
}

// ============================================================================
// Single Document Tests
// ============================================================================

func TestRun_ValidUser_PrintsNormalizedValue(t *testing.T) {
	code, stdout, _ := runCLI(t, userJSON(t, 1), "-schema", "User")

	require.Equal(t, exitOK, code)
	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &out))
	assert.Equal(t, "member", out["role"])
	assert.NotContains(t, out, "data")
}

func TestRun_WrapOneWithProjection(t *testing.T) {
	code, stdout, _ := runCLI(t, userJSON(t, 2), "-schema", "User", "-project", "PostAuthor", "-wrap", "one")

	require.Equal(t, exitOK, code)
	var out struct {
		Data map[string]any `json:"data"`
		Meta map[string]any `json:"meta"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &out))
	assert.Contains(t, out.Data, "username")
	assert.NotContains(t, out.Data, "role")
	assert.NotEmpty(t, out.Meta["request_id"])
}

func TestRun_MissingRole_PrintsApiError(t *testing.T) {
	var user map[string]any
	require.NoError(t, json.Unmarshal([]byte(userJSON(t, 3)), &user))
	delete(user, "role")
	data, err := json.Marshal(user)
	require.NoError(t, err)

	code, stdout, _ := runCLI(t, string(data), "-schema", "User")

	assert.Equal(t, exitRefused, code)
	var apiErr struct {
		Code    string `json:"code"`
		Details []struct {
			Field string `json:"field"`
		} `json:"details"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &apiErr))
	assert.Equal(t, "SCHEMA_MISMATCH", apiErr.Code)
	require.Len(t, apiErr.Details, 1)
	assert.Equal(t, "role", apiErr.Details[0].Field)
}

func TestRun_ReadsFileArgument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "user.json")
	require.NoError(t, os.WriteFile(path, []byte(userJSON(t, 4)), 0o600))

	code, _, _ := runCLI(t, "", "-schema", "User", path)

	assert.Equal(t, exitOK, code)
}

func TestRun_UnknownField_LenientDropsIt(t *testing.T) {
	var user map[string]any
	require.NoError(t, json.Unmarshal([]byte(userJSON(t, 5)), &user))
	user["nickname"] = "sub"
	data, err := json.Marshal(user)
	require.NoError(t, err)

	code, _, _ := runCLI(t, string(data), "-schema", "User")
	assert.Equal(t, exitRefused, code)

	code, stdout, _ := runCLI(t, string(data), "-schema", "User", "-lenient")
	require.Equal(t, exitOK, code)
	assert.NotContains(t, stdout, "nickname")
}

// ============================================================================
// Page Tests
// ============================================================================

func TestRun_WrapMany(t *testing.T) {
	input := "[" + userJSON(t, 6) + "," + userJSON(t, 7) + "]"

	code, stdout, _ := runCLI(t, input,
		"-schema", "User", "-project", "PostAuthor", "-wrap", "many",
		"-page", "1", "-page-size", "2", "-total-items", "5")

	require.Equal(t, exitOK, code)
	var out struct {
		Data       []map[string]any `json:"data"`
		Pagination map[string]int   `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &out))
	assert.Len(t, out.Data, 2)
	assert.Equal(t, 3, out.Pagination["total_pages"])
}

func TestRun_WrapMany_ReportsElementPaths(t *testing.T) {
	input := `[` + userJSON(t, 8) + `,{"id":"u2","username":"","level":0,"role":"member"}]`

	code, stdout, _ := runCLI(t, input, "-schema", "User", "-wrap", "many")

	assert.Equal(t, exitRefused, code)
	assert.Contains(t, stdout, `"[1].username"`)
}

func TestRun_WrapMany_PageOverflow(t *testing.T) {
	input := "[" + userJSON(t, 9) + "," + userJSON(t, 10) + "]"

	code, stdout, _ := runCLI(t, input, "-schema", "User", "-wrap", "many", "-page-size", "1")

	assert.Equal(t, exitRefused, code)
	assert.Contains(t, stdout, "PAGE_SIZE_EXCEEDED")
}

// ============================================================================
// Usage Tests
// ============================================================================

func TestRun_List(t *testing.T) {
	code, stdout, _ := runCLI(t, "", "-list")

	require.Equal(t, exitOK, code)
	assert.Contains(t, stdout, "SubletPost")
	assert.Contains(t, stdout, "avatar?")
}

func TestRun_UsageErrors(t *testing.T) {
	code, _, stderr := runCLI(t, "{}")
	assert.Equal(t, exitUsageErr, code)
	assert.Contains(t, stderr, "-schema is required")

	code, _, _ = runCLI(t, "{}", "-schema", "User", "-wrap", "both")
	assert.Equal(t, exitUsageErr, code)

	code, _, _ = runCLI(t, "", "-schema", "User", filepath.Join(t.TempDir(), "missing.json"))
	assert.Equal(t, exitUsageErr, code)
}
