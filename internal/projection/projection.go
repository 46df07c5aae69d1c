// Package projection derives minimal embeddable views from full entities.
//
// A projection pairs a full schema with a minimal one whose fields are a
// strict subset of the full schema's, each with an identical type. Pairs
// are checked once and cached:
//
//	spec, err := engine.Project(model.SchemaUser, model.SchemaPostAuthor)
//	author := engine.Derive(user, spec)
//	if vs := engine.ValidateIsProjection(wireAuthor, spec); len(vs) > 0 {
//	    // producer and consumer have drifted
//	}
package projection

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"go.uber.org/multierr"

	"github.com/forgo/sublet/api/internal/contract"
	"github.com/forgo/sublet/api/internal/metrics"
	"github.com/forgo/sublet/api/internal/schema"
)

// ErrInvalidProjection is wrapped by every pair-definition error
var ErrInvalidProjection = errors.New("invalid projection")

// Spec is a checked (full, minimal) pair. Fields holds the minimal
// schema's flattened fields in declaration order.
type Spec struct {
	Full    string
	Minimal string
	Fields  []schema.FieldSpec
}

// Pair returns the metrics label for the pair
func (s *Spec) Pair() string {
	return s.Minimal + "<" + s.Full
}

type key struct {
	full, minimal string
}

// Engine checks and caches projection pairs. It is safe for concurrent
// use.
type Engine struct {
	validator *contract.Validator
	schemas   *schema.Registry
	metrics   metrics.Recorder
	logger    *slog.Logger

	mu    sync.RWMutex
	specs map[key]*Spec
}

// Option configures an Engine
type Option func(*Engine)

// WithMetrics sets the metrics recorder
func WithMetrics(rec metrics.Recorder) Option {
	return func(e *Engine) { e.metrics = rec }
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// NewEngine creates an engine resolving schemas through v's registry
func NewEngine(v *contract.Validator, opts ...Option) *Engine {
	e := &Engine{
		validator: v,
		schemas:   v.Registry(),
		metrics:   metrics.Nop{},
		logger:    slog.Default(),
		specs:     make(map[key]*Spec),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Project checks that minimal is a projection of full and returns the
// cached spec. Every mismatch found is reported in the returned error.
func (e *Engine) Project(full, minimal string) (*Spec, error) {
	k := key{full: full, minimal: minimal}

	e.mu.RLock()
	spec, ok := e.specs[k]
	e.mu.RUnlock()
	if ok {
		return spec, nil
	}

	spec, err := e.check(full, minimal)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if existing, ok := e.specs[k]; ok {
		return existing, nil
	}
	e.specs[k] = spec
	return spec, nil
}

func (e *Engine) check(full, minimal string) (*Spec, error) {
	if full == minimal {
		return nil, fmt.Errorf("%w: %s cannot project onto itself", ErrInvalidProjection, full)
	}
	fullFields, err := e.schemas.Describe(full)
	if err != nil {
		return nil, err
	}
	minFields, err := e.schemas.Describe(minimal)
	if err != nil {
		return nil, err
	}

	byName := make(map[string]schema.FieldSpec, len(fullFields))
	for _, f := range fullFields {
		byName[f.Name] = f
	}

	var errs error
	for _, f := range minFields {
		src, ok := byName[f.Name]
		if !ok {
			errs = multierr.Append(errs, fmt.Errorf("%w: %s.%s is not a field of %s", ErrInvalidProjection, minimal, f.Name, full))
			continue
		}
		if !f.Type.Equal(src.Type) {
			errs = multierr.Append(errs, fmt.Errorf("%w: %s.%s is %s but %s.%s is %s",
				ErrInvalidProjection, minimal, f.Name, f.Type, full, f.Name, src.Type))
		}
		if !f.Optional && src.Optional {
			errs = multierr.Append(errs, fmt.Errorf("%w: %s.%s is required but optional in %s",
				ErrInvalidProjection, minimal, f.Name, full))
		}
	}
	if len(minFields) >= len(fullFields) && errs == nil {
		errs = fmt.Errorf("%w: %s is not a strict subset of %s", ErrInvalidProjection, minimal, full)
	}
	if errs != nil {
		return nil, errs
	}

	return &Spec{Full: full, Minimal: minimal, Fields: minFields}, nil
}

// ProjectDeclared checks every pair declared with ProjectionOf and warms
// the cache
func (e *Engine) ProjectDeclared() error {
	var errs error
	for _, pair := range e.schemas.Projections() {
		if _, err := e.Project(pair[1], pair[0]); err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		e.logger.Debug("projection ready",
			slog.String("full", pair[1]),
			slog.String("minimal", pair[0]),
		)
	}
	return errs
}

// Derive copies the subset fields of full into a new value. Nested maps
// and slices are copied, so the result shares no state with full. Absent
// optional fields stay absent.
func (e *Engine) Derive(full map[string]any, spec *Spec) map[string]any {
	out := make(map[string]any, len(spec.Fields))
	for _, f := range spec.Fields {
		if v, ok := full[f.Name]; ok && v != nil {
			out[f.Name] = deepCopy(v)
		}
	}
	e.metrics.ObserveProjection(spec.Pair(), metrics.OutcomeAccepted)
	return out
}

// ValidateIsProjection checks a minimal value that arrived independently
// of its full source. Undeclared fields are always violations here, even
// for a lenient validator.
func (e *Engine) ValidateIsProjection(minimal any, spec *Spec) contract.Violations {
	var vs contract.Violations

	m, ok := minimal.(map[string]any)
	if !ok {
		vs = append(vs, contract.Violation{
			Code:    contract.CodeType,
			Message: fmt.Sprintf("must be an object (%s)", spec.Minimal),
		})
	} else {
		e.validator.ValidateFields(m, spec.Fields, "", &vs)
		if !e.validator.Strict() {
			vs = append(vs, unknownFields(m, spec.Fields)...)
		}
	}

	outcome := metrics.OutcomeAccepted
	if len(vs) > 0 {
		outcome = metrics.OutcomeRejected
	}
	e.metrics.ObserveProjection(spec.Pair(), outcome)
	return vs
}

func unknownFields(m map[string]any, fields []schema.FieldSpec) contract.Violations {
	declared := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		declared[f.Name] = struct{}{}
	}
	var keys []string
	for k := range m {
		if _, ok := declared[k]; !ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	vs := make(contract.Violations, 0, len(keys))
	for _, k := range keys {
		vs = append(vs, contract.Violation{Path: k, Code: contract.CodeUnknownField, Message: "is not a declared field"})
	}
	return vs
}

func deepCopy(v any) any {
	switch x := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, val := range x {
			out[k] = deepCopy(val)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, val := range x {
			out[i] = deepCopy(val)
		}
		return out
	default:
		return v
	}
}
