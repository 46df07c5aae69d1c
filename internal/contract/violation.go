package contract

import (
	"fmt"
	"strings"

	"github.com/forgo/sublet/api/internal/model"
)

// Code classifies a single violation
type Code string

const (
	CodeRequired       Code = "required"
	CodeType           Code = "type"
	CodeEnum           Code = "enum"
	CodeLiteral        Code = "literal"
	CodeFormat         Code = "format"
	CodeMin            Code = "min"
	CodeEmpty          Code = "empty"
	CodeDuplicate      Code = "duplicate"
	CodeUnknownField   Code = "unknown_field"
	CodeUnknownVariant Code = "unknown_variant"
	CodeSyntax         Code = "syntax"
)

// Violation is one structural problem, tagged with its field path
// ("author.username", "amenities[2]"). The root object has path "".
type Violation struct {
	Path    string
	Code    Code
	Message string
}

func (v Violation) String() string {
	if v.Path == "" {
		return fmt.Sprintf("%s (%s)", v.Message, v.Code)
	}
	return fmt.Sprintf("%s: %s (%s)", v.Path, v.Message, v.Code)
}

// Violations accumulates every problem found in one validation call
type Violations []Violation

func (vs Violations) Error() string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = v.String()
	}
	return strings.Join(parts, "; ")
}

// Has reports whether any violation carries code
func (vs Violations) Has(code Code) bool {
	for _, v := range vs {
		if v.Code == code {
			return true
		}
	}
	return false
}

// At returns the violations reported at exactly path
func (vs Violations) At(path string) Violations {
	var out Violations
	for _, v := range vs {
		if v.Path == path {
			out = append(out, v)
		}
	}
	return out
}

// FieldErrors converts the violations to API field errors
func (vs Violations) FieldErrors() []model.FieldError {
	out := make([]model.FieldError, len(vs))
	for i, v := range vs {
		out[i] = model.FieldError{Field: v.Path, Code: string(v.Code), Message: v.Message}
	}
	return out
}

func (vs *Violations) add(path string, code Code, format string, args ...any) {
	*vs = append(*vs, Violation{Path: path, Code: code, Message: fmt.Sprintf(format, args...)})
}

// ValidationError is returned when a payload fails validation. It
// unwraps to a *model.ApiError so errors.Is(err, model.ErrSchemaMismatch)
// and errors.Is(err, model.ErrUnknownVariant) work.
type ValidationError struct {
	Schema     string
	Violations Violations
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Schema, e.Violations.Error())
}

// Unwrap returns the API error equivalent
func (e *ValidationError) Unwrap() error {
	return e.APIError()
}

// APIError converts the failure into the error envelope. An unknown
// discriminator takes precedence over other mismatches.
func (e *ValidationError) APIError() *model.ApiError {
	details := e.Violations.FieldErrors()
	if e.Violations.Has(CodeUnknownVariant) {
		return model.NewUnknownVariantError(details)
	}
	return model.NewSchemaMismatchError(details)
}

func joinPath(path, name string) string {
	if path == "" {
		return name
	}
	return path + "." + name
}

func indexPath(path string, i int) string {
	return fmt.Sprintf("%s[%d]", path, i)
}
