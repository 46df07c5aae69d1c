package schema

// Class separates payload schemas from the metadata and wrapper schemas
// used by envelopes
type Class string

const (
	ClassDomain   Class = "domain"
	ClassMeta     Class = "meta"
	ClassEnvelope Class = "envelope"
)

// FieldSpec is one declared field of a schema
type FieldSpec struct {
	Name     string
	Type     Type
	Optional bool
}

// Field declares a required field
func Field(name string, t Type) FieldSpec {
	return FieldSpec{Name: name, Type: t}
}

// OptionalField declares a field that may be absent
func OptionalField(name string, t Type) FieldSpec {
	return FieldSpec{Name: name, Type: t, Optional: true}
}

// Schema is a declarative description of an object payload
type Schema struct {
	Name    string
	Class   Class
	Version int

	// Extends inherits every field of the named schema. Inherited fields
	// may not be redeclared.
	Extends string
	Fields  []FieldSpec

	// Discriminator and Variants make the schema a tagged union: values
	// are validated exclusively against Variants[value[Discriminator]].
	Discriminator string
	Variants      map[string]string

	// CredentialBearing schemas are never wrapped for output
	CredentialBearing bool

	// ProjectionOf names the full schema this schema is a minimal view of
	ProjectionOf string
}

// IsUnion reports whether the schema dispatches on a discriminator
func (s *Schema) IsUnion() bool {
	return s.Discriminator != ""
}

// Field returns the schema's own declared field with the given name
func (s *Schema) Field(name string) (FieldSpec, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSpec{}, false
}

// edges lists the schemas this one structurally depends on
func (s *Schema) edges() []string {
	var out []string
	if s.Extends != "" {
		out = append(out, s.Extends)
	}
	for _, f := range s.Fields {
		out = append(out, f.Type.refs()...)
	}
	return out
}
