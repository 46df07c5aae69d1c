package schema

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/multierr"

	"github.com/forgo/sublet/api/internal/enum"
)

var (
	ErrFrozen          = errors.New("schema registry is frozen")
	ErrNotFrozen       = errors.New("schema registry is not frozen")
	ErrUnknownSchema   = errors.New("unknown schema")
	ErrDuplicateSchema = errors.New("schema already registered")
	ErrInvalidSchema   = errors.New("invalid schema")
	ErrUnknownEnum     = errors.New("unknown enumeration")
	ErrCycle           = errors.New("schema reference cycle")
	ErrUnresolvedRef   = errors.New("unresolved schema reference")
	ErrInvalidVariant  = errors.New("invalid variant")
)

// Registry holds the schema graph.
//
// Schemas are registered at startup and the registry is then frozen;
// Describe and Lookup only answer once frozen. A frozen registry is
// read-only and safe for concurrent use.
type Registry struct {
	enums    *enum.Registry
	schemas  map[string]*Schema
	resolved map[string][]FieldSpec
	// credential holds, per schema, whether a credential-bearing schema
	// is reachable from it. Filled by Freeze.
	credential map[string]bool
	frozen     bool
}

// NewRegistry creates a registry whose enum references resolve against
// enums
func NewRegistry(enums *enum.Registry) *Registry {
	return &Registry{
		enums:   enums,
		schemas: make(map[string]*Schema),
	}
}

// Enums returns the enumeration registry schemas resolve against
func (r *Registry) Enums() *enum.Registry {
	return r.enums
}

// Register adds a schema. References to schemas that are not registered
// yet are allowed until Freeze, but a reference that closes a cycle is
// rejected immediately.
func (r *Registry) Register(s Schema) error {
	if r.frozen {
		return ErrFrozen
	}
	if s.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidSchema)
	}
	if _, ok := r.schemas[s.Name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateSchema, s.Name)
	}
	if s.Class == "" {
		s.Class = ClassDomain
	}

	var err error
	seen := make(map[string]bool, len(s.Fields))
	for _, f := range s.Fields {
		if f.Name == "" {
			err = multierr.Append(err, fmt.Errorf("%w: %s has a field without a name", ErrInvalidSchema, s.Name))
			continue
		}
		if seen[f.Name] {
			err = multierr.Append(err, fmt.Errorf("%w: %s.%s declared twice", ErrInvalidSchema, s.Name, f.Name))
		}
		seen[f.Name] = true
		err = multierr.Append(err, r.checkType(s.Name+"."+f.Name, f.Type))
	}
	if s.IsUnion() {
		if len(s.Variants) == 0 {
			err = multierr.Append(err, fmt.Errorf("%w: %s has a discriminator but no variants", ErrInvalidSchema, s.Name))
		}
		if seen[s.Discriminator] {
			err = multierr.Append(err, fmt.Errorf("%w: %s declares its discriminator %q as a field", ErrInvalidSchema, s.Name, s.Discriminator))
		}
	} else if len(s.Variants) > 0 {
		err = multierr.Append(err, fmt.Errorf("%w: %s has variants but no discriminator", ErrInvalidSchema, s.Name))
	}
	if err != nil {
		return err
	}

	stored := s
	stored.Fields = append([]FieldSpec(nil), s.Fields...)
	if s.Variants != nil {
		stored.Variants = make(map[string]string, len(s.Variants))
		for k, v := range s.Variants {
			stored.Variants[k] = v
		}
	}

	r.schemas[s.Name] = &stored
	if path := r.findCycle(s.Name); path != nil {
		delete(r.schemas, s.Name)
		return fmt.Errorf("%w: %s", ErrCycle, strings.Join(path, " -> "))
	}
	return nil
}

// MustRegister registers every schema and panics on the first error
func (r *Registry) MustRegister(schemas ...Schema) {
	for _, s := range schemas {
		if err := r.Register(s); err != nil {
			panic(err)
		}
	}
}

func (r *Registry) checkType(at string, t Type) error {
	switch t.Kind {
	case KindString, KindInteger, KindNumber, KindBoolean, KindTimestamp,
		KindEmail, KindURL, KindCredentialHash:
		return nil
	case KindEnum:
		if t.Enum == "" {
			return fmt.Errorf("%w: %s enum type without a name", ErrInvalidSchema, at)
		}
		if r.enums == nil || !r.enums.Has(t.Enum) {
			return fmt.Errorf("%w: %s references %q", ErrUnknownEnum, at, t.Enum)
		}
		return nil
	case KindLiteral:
		if t.Literal == "" {
			return fmt.Errorf("%w: %s literal must not be empty", ErrInvalidSchema, at)
		}
		return nil
	case KindObject:
		if t.Ref == "" {
			return fmt.Errorf("%w: %s object type without a schema", ErrInvalidSchema, at)
		}
		return nil
	case KindArray, KindSet, KindMap:
		if t.Elem == nil {
			return fmt.Errorf("%w: %s %s without an element type", ErrInvalidSchema, at, t.Kind)
		}
		return r.checkType(at+"[]", *t.Elem)
	default:
		return fmt.Errorf("%w: %s has unknown kind %q", ErrInvalidSchema, at, t.Kind)
	}
}

// findCycle walks the structural graph from start and returns the path of
// a cycle back to start, if any. Unregistered names are leaves.
func (r *Registry) findCycle(start string) []string {
	visited := make(map[string]bool)
	var walk func(name string, path []string) []string
	walk = func(name string, path []string) []string {
		s, ok := r.schemas[name]
		if !ok {
			return nil
		}
		for _, next := range s.edges() {
			if next == start {
				return append(append([]string(nil), path...), next)
			}
			if visited[next] {
				continue
			}
			visited[next] = true
			if found := walk(next, append(path, next)); found != nil {
				return found
			}
		}
		return nil
	}
	return walk(start, []string{start})
}

// Freeze resolves every reference, checks union variants, flattens
// inherited fields and makes the registry read-only. The enumeration
// registry is frozen along with it. All problems are reported together.
func (r *Registry) Freeze() error {
	if r.frozen {
		return nil
	}

	var err error
	for _, name := range r.Names() {
		s := r.schemas[name]
		for _, ref := range s.edges() {
			if _, ok := r.schemas[ref]; !ok {
				err = multierr.Append(err, fmt.Errorf("%w: %s references %s", ErrUnresolvedRef, name, ref))
			}
		}
		if s.ProjectionOf != "" {
			if _, ok := r.schemas[s.ProjectionOf]; !ok {
				err = multierr.Append(err, fmt.Errorf("%w: %s is a projection of %s", ErrUnresolvedRef, name, s.ProjectionOf))
			}
		}
	}
	if err != nil {
		return err
	}

	resolved := make(map[string][]FieldSpec, len(r.schemas))
	for _, name := range r.Names() {
		fields, ferr := r.flatten(name)
		if ferr != nil {
			err = multierr.Append(err, ferr)
			continue
		}
		resolved[name] = fields
	}
	if err != nil {
		return err
	}

	for _, name := range r.Names() {
		s := r.schemas[name]
		if !s.IsUnion() {
			continue
		}
		err = multierr.Append(err, r.checkVariants(s, resolved))
	}
	if err != nil {
		return err
	}

	credential := make(map[string]bool, len(r.schemas))
	for _, name := range r.Names() {
		credential[name] = r.reachesCredential(name, make(map[string]bool))
	}

	r.resolved = resolved
	r.credential = credential
	r.frozen = true
	if r.enums != nil {
		r.enums.Freeze()
	}
	return nil
}

func (r *Registry) flatten(name string) ([]FieldSpec, error) {
	var chain []*Schema
	for cur := name; cur != ""; {
		s := r.schemas[cur]
		chain = append(chain, s)
		cur = s.Extends
	}

	var fields []FieldSpec
	owner := make(map[string]string)
	for i := len(chain) - 1; i >= 0; i-- {
		for _, f := range chain[i].Fields {
			if prev, ok := owner[f.Name]; ok {
				return nil, fmt.Errorf("%w: %s redeclares %s.%s", ErrInvalidSchema, chain[i].Name, prev, f.Name)
			}
			owner[f.Name] = chain[i].Name
			fields = append(fields, f)
		}
	}
	return fields, nil
}

func (r *Registry) checkVariants(union *Schema, resolved map[string][]FieldSpec) error {
	var err error
	tokens := make([]string, 0, len(union.Variants))
	for token := range union.Variants {
		tokens = append(tokens, token)
	}
	sort.Strings(tokens)

	for _, token := range tokens {
		name := union.Variants[token]
		v, ok := r.schemas[name]
		if !ok {
			err = multierr.Append(err, fmt.Errorf("%w: %s variant %q references %s", ErrUnresolvedRef, union.Name, token, name))
			continue
		}
		if v.IsUnion() {
			err = multierr.Append(err, fmt.Errorf("%w: %s variant %s is itself a union", ErrInvalidVariant, union.Name, name))
		}
		if !r.extends(v, union.Name) {
			err = multierr.Append(err, fmt.Errorf("%w: %s does not extend %s", ErrInvalidVariant, name, union.Name))
		}
		var disc *FieldSpec
		for i, f := range resolved[name] {
			if f.Name == union.Discriminator {
				disc = &resolved[name][i]
				break
			}
		}
		switch {
		case disc == nil:
			err = multierr.Append(err, fmt.Errorf("%w: %s does not declare discriminator %q", ErrInvalidVariant, name, union.Discriminator))
		case disc.Optional || !disc.Type.Equal(Literal(token)):
			err = multierr.Append(err, fmt.Errorf("%w: %s.%s must be the required literal %q", ErrInvalidVariant, name, union.Discriminator, token))
		}
	}
	return err
}

func (r *Registry) extends(s *Schema, ancestor string) bool {
	for cur := s.Extends; cur != ""; cur = r.schemas[cur].Extends {
		if cur == ancestor {
			return true
		}
	}
	return false
}

// Frozen reports whether Freeze has succeeded
func (r *Registry) Frozen() bool {
	return r.frozen
}

// Lookup returns the named schema. The result must be treated as
// read-only.
func (r *Registry) Lookup(name string) (*Schema, error) {
	if !r.frozen {
		return nil, ErrNotFrozen
	}
	s, ok := r.schemas[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSchema, name)
	}
	return s, nil
}

// Describe returns the flattened field list of the named schema,
// inherited fields first
func (r *Registry) Describe(name string) ([]FieldSpec, error) {
	if !r.frozen {
		return nil, ErrNotFrozen
	}
	fields, ok := r.resolved[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSchema, name)
	}
	return append([]FieldSpec(nil), fields...), nil
}

// IsCredentialBearing reports whether a value of the named schema can
// carry a credential: the schema or an ancestor is tagged, a field (or a
// field's elements) references such a schema, or a union variant does.
// Unknown names are not.
func (r *Registry) IsCredentialBearing(name string) bool {
	if r.frozen {
		return r.credential[name]
	}
	return r.reachesCredential(name, make(map[string]bool))
}

// reachesCredential walks the Extends chain, the object and element
// references of every inherited field, and union variants. Extending a
// union does not reach its sibling variants.
func (r *Registry) reachesCredential(name string, seen map[string]bool) bool {
	if seen[name] {
		return false
	}
	seen[name] = true

	s, ok := r.schemas[name]
	if !ok {
		return false
	}
	for cur := s; cur != nil; cur = r.schemas[cur.Extends] {
		if cur.CredentialBearing {
			return true
		}
		for _, f := range cur.Fields {
			for _, ref := range f.Type.refs() {
				if r.reachesCredential(ref, seen) {
					return true
				}
			}
		}
		if cur.Extends == "" {
			break
		}
	}
	for _, v := range s.Variants {
		if r.reachesCredential(v, seen) {
			return true
		}
	}
	return false
}

// Names returns every registered schema name, sorted
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.schemas))
	for name := range r.schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Projections returns the (minimal, full) pairs declared via ProjectionOf
func (r *Registry) Projections() [][2]string {
	var out [][2]string
	for _, name := range r.Names() {
		if full := r.schemas[name].ProjectionOf; full != "" {
			out = append(out, [2]string{name, full})
		}
	}
	return out
}
