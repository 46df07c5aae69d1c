package enum

import (
	"errors"
	"fmt"
	"sort"
)

// Built-in enumeration names
const (
	Role         = "role"
	PostStatus   = "post_status"
	PostCategory = "post_category"
	PostType     = "post_type"
	Amenity      = "amenity"
	Utility      = "utility"
	ErrorCode    = "error_code"
)

var (
	ErrFrozen       = errors.New("enumeration registry is frozen")
	ErrUnknownSet   = errors.New("unknown enumeration")
	ErrDuplicateSet = errors.New("enumeration already registered")
	ErrEmptySet     = errors.New("enumeration must have at least one token")
	ErrEmptyToken   = errors.New("enumeration token must not be empty")
)

// set keeps tokens in declaration order plus an index for membership
type set struct {
	tokens []string
	index  map[string]struct{}
}

// Registry holds the closed string sets used by schema validators.
//
// Registration is not safe for concurrent use. Once Freeze returns, the
// registry is read-only and may be shared across goroutines without locks.
type Registry struct {
	sets   map[string]*set
	frozen bool
}

// New creates an empty registry
func New() *Registry {
	return &Registry{sets: make(map[string]*set)}
}

// Register adds a new enumeration. Duplicate tokens within the call are
// collapsed.
func (r *Registry) Register(name string, tokens ...string) error {
	if r.frozen {
		return ErrFrozen
	}
	if name == "" {
		return errors.New("enumeration name must not be empty")
	}
	if _, ok := r.sets[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateSet, name)
	}
	if len(tokens) == 0 {
		return fmt.Errorf("%w: %s", ErrEmptySet, name)
	}
	s := &set{index: make(map[string]struct{}, len(tokens))}
	if err := s.add(name, tokens); err != nil {
		return err
	}
	r.sets[name] = s
	return nil
}

// Extend adds tokens to an existing enumeration
func (r *Registry) Extend(name string, tokens ...string) error {
	if r.frozen {
		return ErrFrozen
	}
	s, ok := r.sets[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSet, name)
	}
	return s.add(name, tokens)
}

func (s *set) add(name string, tokens []string) error {
	for _, tok := range tokens {
		if tok == "" {
			return fmt.Errorf("%w: %s", ErrEmptyToken, name)
		}
		if _, dup := s.index[tok]; dup {
			continue
		}
		s.index[tok] = struct{}{}
		s.tokens = append(s.tokens, tok)
	}
	return nil
}

// Freeze makes the registry read-only
func (r *Registry) Freeze() {
	r.frozen = true
}

// Frozen reports whether Freeze has been called
func (r *Registry) Frozen() bool {
	return r.frozen
}

// IsMember reports whether token belongs to the named set. Unknown sets
// have no members.
func (r *Registry) IsMember(name, token string) bool {
	s, ok := r.sets[name]
	if !ok {
		return false
	}
	_, ok = s.index[token]
	return ok
}

// Has reports whether the named set is registered
func (r *Registry) Has(name string) bool {
	_, ok := r.sets[name]
	return ok
}

// Tokens returns a copy of the set's tokens in declaration order
func (r *Registry) Tokens(name string) []string {
	s, ok := r.sets[name]
	if !ok {
		return nil
	}
	out := make([]string, len(s.tokens))
	copy(out, s.tokens)
	return out
}

// Names returns the registered set names, sorted
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.sets))
	for name := range r.sets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
