package contract

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/forgo/sublet/api/internal/enum"
	"github.com/forgo/sublet/api/internal/metrics"
	"github.com/forgo/sublet/api/internal/schema"
)

// Validator checks untyped payloads (decoded JSON) against registered
// schemas. It holds no mutable state and is safe for concurrent use.
type Validator struct {
	schemas *schema.Registry
	enums   *enum.Registry
	strict  bool
	formats *validator.Validate
	metrics metrics.Recorder
	logger  *slog.Logger
}

// Option configures a Validator
type Option func(*Validator)

// WithStrictUnknownFields sets whether fields a schema does not declare
// are violations (true, the default) or silently dropped (false)
func WithStrictUnknownFields(strict bool) Option {
	return func(v *Validator) { v.strict = strict }
}

// WithLenientUnknownFields drops undeclared fields instead of reporting
// them
func WithLenientUnknownFields() Option {
	return WithStrictUnknownFields(false)
}

// WithMetrics sets the metrics recorder
func WithMetrics(rec metrics.Recorder) Option {
	return func(v *Validator) { v.metrics = rec }
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(v *Validator) { v.logger = logger }
}

// New creates a validator over a frozen schema registry
func New(reg *schema.Registry, opts ...Option) (*Validator, error) {
	if !reg.Frozen() {
		return nil, schema.ErrNotFrozen
	}
	v := &Validator{
		schemas: reg,
		enums:   reg.Enums(),
		strict:  true,
		formats: validator.New(),
		metrics: metrics.Nop{},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v, nil
}

// Strict reports whether unknown fields are rejected
func (v *Validator) Strict() bool {
	return v.strict
}

// StrictCopy returns a validator sharing v's registry, metrics and logger
// that always rejects undeclared fields
func (v *Validator) StrictCopy() *Validator {
	c := *v
	c.strict = true
	return &c
}

// Registry returns the schema registry the validator resolves against
func (v *Validator) Registry() *schema.Registry {
	return v.schemas
}

// Validate checks raw against the named schema. On success it returns the
// normalized value: integers as int64, numbers as float64, timestamps as
// time.Time, and (in lenient mode) undeclared fields removed. On failure
// the error is a *ValidationError carrying every violation found.
func (v *Validator) Validate(raw any, schemaName string) (map[string]any, error) {
	s, err := v.schemas.Lookup(schemaName)
	if err != nil {
		return nil, err
	}
	return v.ValidateSchema(raw, s)
}

// ValidateSchema is Validate for a schema value that need not be
// registered, such as an envelope built around a registered payload.
// Embedded references still resolve through the registry.
func (v *Validator) ValidateSchema(raw any, s *schema.Schema) (map[string]any, error) {
	var vs Violations
	out := v.object(raw, s, "", &vs)
	v.observe(s.Name, vs)
	if len(vs) > 0 {
		return nil, &ValidationError{Schema: s.Name, Violations: vs}
	}
	return out, nil
}

// ValidateJSON decodes data and validates it against the named schema.
// Malformed JSON is reported as a single syntax violation.
func (v *Validator) ValidateJSON(data []byte, schemaName string) (map[string]any, error) {
	s, err := v.schemas.Lookup(schemaName)
	if err != nil {
		return nil, err
	}
	raw, err := DecodeJSON(data)
	if err != nil {
		vs := Violations{{Path: "", Code: CodeSyntax, Message: err.Error()}}
		v.observe(s.Name, vs)
		return nil, &ValidationError{Schema: s.Name, Violations: vs}
	}
	return v.ValidateSchema(raw, s)
}

// Check returns the violations of raw against the named schema; nil means
// the payload conforms
func (v *Validator) Check(raw any, schemaName string) (Violations, error) {
	_, err := v.Validate(raw, schemaName)
	if err == nil {
		return nil, nil
	}
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Violations, nil
	}
	return nil, err
}

// ValidateFields checks an object against an explicit field list rooted at
// path and appends violations to vs. It is the building block for
// projection checks.
func (v *Validator) ValidateFields(m map[string]any, fields []schema.FieldSpec, path string, vs *Violations) map[string]any {
	out := make(map[string]any, len(fields))
	declared := make(map[string]struct{}, len(fields))

	for _, f := range fields {
		declared[f.Name] = struct{}{}
		at := joinPath(path, f.Name)
		val, present := m[f.Name]
		if !present || val == nil {
			if !f.Optional {
				vs.add(at, CodeRequired, "is required")
			}
			continue
		}
		if typed, ok := v.value(val, f.Type, at, vs); ok {
			out[f.Name] = typed
		}
	}

	var unknown []string
	for key := range m {
		if _, ok := declared[key]; !ok {
			unknown = append(unknown, key)
		}
	}
	if len(unknown) > 0 && v.strict {
		sort.Strings(unknown)
		for _, key := range unknown {
			vs.add(joinPath(path, key), CodeUnknownField, "is not a declared field")
		}
	}
	return out
}

func (v *Validator) observe(schemaName string, vs Violations) {
	codes := make([]string, len(vs))
	for i, viol := range vs {
		codes[i] = string(viol.Code)
	}
	v.metrics.ObserveValidation(schemaName, codes)
	if len(vs) > 0 {
		v.logger.Debug("payload rejected",
			slog.String("schema", schemaName),
			slog.Int("violations", len(vs)),
		)
	}
}

func (v *Validator) object(raw any, s *schema.Schema, path string, vs *Violations) map[string]any {
	m, ok := raw.(map[string]any)
	if !ok {
		vs.add(path, CodeType, "must be an object (%s), got %s", s.Name, describe(raw))
		return nil
	}

	if s.IsUnion() {
		variant, ok := v.dispatch(m, s, path, vs)
		if !ok {
			return nil
		}
		s = variant
	}
	return v.ValidateFields(m, v.fieldsOf(s), path, vs)
}

// dispatch resolves the discriminator of a union value to its variant
func (v *Validator) dispatch(m map[string]any, union *schema.Schema, path string, vs *Violations) (*schema.Schema, bool) {
	at := joinPath(path, union.Discriminator)
	raw, present := m[union.Discriminator]
	if !present || raw == nil {
		vs.add(at, CodeRequired, "is required")
		return nil, false
	}
	token, ok := raw.(string)
	if !ok {
		vs.add(at, CodeType, "must be a string, got %s", describe(raw))
		return nil, false
	}
	name, ok := union.Variants[token]
	if !ok {
		known := make([]string, 0, len(union.Variants))
		for k := range union.Variants {
			known = append(known, k)
		}
		sort.Strings(known)
		vs.add(at, CodeUnknownVariant, "%q is not a %s variant (expected one of: %s)", token, union.Name, strings.Join(known, ", "))
		return nil, false
	}
	variant, err := v.schemas.Lookup(name)
	if err != nil {
		vs.add(at, CodeUnknownVariant, "%q resolves to unregistered schema %s", token, name)
		return nil, false
	}
	return variant, true
}

// fieldsOf returns the flattened fields of s, whether or not s itself is
// registered
func (v *Validator) fieldsOf(s *schema.Schema) []schema.FieldSpec {
	if registered, err := v.schemas.Lookup(s.Name); err == nil && registered == s {
		fields, _ := v.schemas.Describe(s.Name)
		return fields
	}
	if s.Extends == "" {
		return s.Fields
	}
	base, _ := v.schemas.Describe(s.Extends)
	return append(base, s.Fields...)
}

func (v *Validator) value(raw any, t schema.Type, path string, vs *Violations) (any, bool) {
	switch t.Kind {
	case schema.KindString:
		s, ok := v.str(raw, t, path, vs)
		return s, ok

	case schema.KindEmail, schema.KindURL:
		s, ok := v.str(raw, t, path, vs)
		if !ok {
			return nil, false
		}
		tag := "email"
		if t.Kind == schema.KindURL {
			tag = "url"
		}
		if err := v.formats.Var(s, tag); err != nil {
			vs.add(path, CodeFormat, "must be a valid %s", t.Kind)
			return nil, false
		}
		return s, true

	case schema.KindCredentialHash:
		s, ok := v.str(raw, t, path, vs)
		if !ok {
			return nil, false
		}
		if _, err := bcrypt.Cost([]byte(s)); err != nil {
			vs.add(path, CodeFormat, "must be a bcrypt hash")
			return nil, false
		}
		return s, true

	case schema.KindInteger:
		n, ok := toInt64(raw)
		if !ok {
			vs.add(path, CodeType, "must be an integer, got %s", describe(raw))
			return nil, false
		}
		if t.Min != nil && n < *t.Min {
			vs.add(path, CodeMin, "must be >= %d", *t.Min)
			return nil, false
		}
		return n, true

	case schema.KindNumber:
		f, ok := toFloat64(raw)
		if !ok {
			vs.add(path, CodeType, "must be a number, got %s", describe(raw))
			return nil, false
		}
		return f, true

	case schema.KindBoolean:
		b, ok := raw.(bool)
		if !ok {
			vs.add(path, CodeType, "must be a boolean, got %s", describe(raw))
			return nil, false
		}
		return b, true

	case schema.KindTimestamp:
		switch ts := raw.(type) {
		case time.Time:
			return ts, true
		case string:
			parsed, err := time.Parse(time.RFC3339, ts)
			if err != nil {
				vs.add(path, CodeFormat, "must be an RFC 3339 timestamp")
				return nil, false
			}
			return parsed, true
		default:
			vs.add(path, CodeType, "must be a timestamp string, got %s", describe(raw))
			return nil, false
		}

	case schema.KindEnum:
		s, ok := raw.(string)
		if !ok {
			vs.add(path, CodeType, "must be a string, got %s", describe(raw))
			return nil, false
		}
		if !v.enums.IsMember(t.Enum, s) {
			vs.add(path, CodeEnum, "%q is not a valid %s (expected one of: %s)", s, t.Enum, strings.Join(v.enums.Tokens(t.Enum), ", "))
			return nil, false
		}
		return s, true

	case schema.KindLiteral:
		s, ok := raw.(string)
		if !ok || s != t.Literal {
			vs.add(path, CodeLiteral, "must be %q", t.Literal)
			return nil, false
		}
		return s, true

	case schema.KindObject:
		ref, err := v.schemas.Lookup(t.Ref)
		if err != nil {
			vs.add(path, CodeType, "references unknown schema %s", t.Ref)
			return nil, false
		}
		before := len(*vs)
		out := v.object(raw, ref, path, vs)
		return out, len(*vs) == before

	case schema.KindArray, schema.KindSet:
		items, ok := raw.([]any)
		if !ok {
			vs.add(path, CodeType, "must be an array, got %s", describe(raw))
			return nil, false
		}
		before := len(*vs)
		out := make([]any, 0, len(items))
		seen := make(map[string]int)
		for i, item := range items {
			at := indexPath(path, i)
			if item == nil {
				vs.add(at, CodeRequired, "must not be null")
				continue
			}
			typed, ok := v.value(item, *t.Elem, at, vs)
			if !ok {
				continue
			}
			if t.Kind == schema.KindSet {
				key := setKey(typed)
				if first, dup := seen[key]; dup {
					vs.add(at, CodeDuplicate, "duplicates %s", indexPath(path, first))
					continue
				}
				seen[key] = i
			}
			out = append(out, typed)
		}
		return out, len(*vs) == before

	case schema.KindMap:
		m, ok := raw.(map[string]any)
		if !ok {
			vs.add(path, CodeType, "must be an object, got %s", describe(raw))
			return nil, false
		}
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		before := len(*vs)
		out := make(map[string]any, len(m))
		for _, k := range keys {
			at := joinPath(path, k)
			if m[k] == nil {
				vs.add(at, CodeRequired, "must not be null")
				continue
			}
			if typed, ok := v.value(m[k], *t.Elem, at, vs); ok {
				out[k] = typed
			}
		}
		return out, len(*vs) == before
	}

	vs.add(path, CodeType, "has unsupported kind %q", t.Kind)
	return nil, false
}

func (v *Validator) str(raw any, t schema.Type, path string, vs *Violations) (string, bool) {
	s, ok := raw.(string)
	if !ok {
		vs.add(path, CodeType, "must be a string, got %s", describe(raw))
		return "", false
	}
	if t.NonEmpty && strings.TrimSpace(s) == "" {
		vs.add(path, CodeEmpty, "must not be empty")
		return "", false
	}
	return s, true
}

// DecodeJSON decodes a JSON document keeping numbers exact
func DecodeJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if dec.More() {
		return nil, fmt.Errorf("invalid JSON: trailing data after document")
	}
	return raw, nil
}

func toInt64(raw any) (int64, bool) {
	switch n := raw.(type) {
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) || n >= math.MaxInt64 || n < math.MinInt64 {
			return 0, false
		}
		return int64(n), true
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint32:
		return int64(n), true
	default:
		return 0, false
	}
}

func toFloat64(raw any) (float64, bool) {
	switch n := raw.(type) {
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case float64:
		return n, true
	case float32:
		return float64(n), true
	default:
		i, ok := toInt64(raw)
		return float64(i), ok
	}
}

func setKey(v any) string {
	switch x := v.(type) {
	case string:
		return "s:" + x
	case time.Time:
		return "t:" + x.UTC().Format(time.RFC3339Nano)
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprintf("v:%v", x)
		}
		return "j:" + string(b)
	}
}

func describe(raw any) string {
	switch raw.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case json.Number, float64, float32, int, int32, int64, uint32:
		return "number"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", raw)
	}
}
