package schema

import (
	"fmt"
	"strconv"
)

// Kind is the structural category of a field type
type Kind string

const (
	KindString         Kind = "string"
	KindInteger        Kind = "integer"
	KindNumber         Kind = "number"
	KindBoolean        Kind = "boolean"
	KindTimestamp      Kind = "timestamp"
	KindEmail          Kind = "email"
	KindURL            Kind = "url"
	KindCredentialHash Kind = "credential_hash"
	KindEnum           Kind = "enum"
	KindLiteral        Kind = "literal"
	KindObject         Kind = "object"
	KindArray          Kind = "array"
	KindSet            Kind = "set"
	KindMap            Kind = "map"
)

// Type describes the shape a field value must have
type Type struct {
	Kind Kind

	// Enum names the enumeration for KindEnum
	Enum string
	// Literal is the only accepted value for KindLiteral
	Literal string
	// Ref names the schema for KindObject
	Ref string
	// Elem is the element type for KindArray, KindSet and KindMap values
	Elem *Type

	// NonEmpty rejects "" for string-like kinds
	NonEmpty bool
	// Min is the inclusive lower bound for KindInteger
	Min *int64
}

// Constructors

func String() Type         { return Type{Kind: KindString} }
func NonEmptyString() Type { return Type{Kind: KindString, NonEmpty: true} }
func Integer() Type        { return Type{Kind: KindInteger} }
func Number() Type         { return Type{Kind: KindNumber} }
func Boolean() Type        { return Type{Kind: KindBoolean} }
func Timestamp() Type      { return Type{Kind: KindTimestamp} }
func Email() Type          { return Type{Kind: KindEmail} }
func URL() Type            { return Type{Kind: KindURL} }
func CredentialHash() Type { return Type{Kind: KindCredentialHash} }

// IntegerMin returns an integer type with an inclusive lower bound
func IntegerMin(lower int64) Type {
	return Type{Kind: KindInteger, Min: &lower}
}

// NonNegativeInteger is an integer >= 0
func NonNegativeInteger() Type { return IntegerMin(0) }

// PositiveInteger is an integer >= 1
func PositiveInteger() Type { return IntegerMin(1) }

// Enum references a registered enumeration
func Enum(name string) Type { return Type{Kind: KindEnum, Enum: name} }

// Literal accepts exactly one string value
func Literal(value string) Type { return Type{Kind: KindLiteral, Literal: value} }

// Ref embeds another schema by value
func Ref(schemaName string) Type { return Type{Kind: KindObject, Ref: schemaName} }

// ArrayOf is an ordered sequence
func ArrayOf(elem Type) Type { return Type{Kind: KindArray, Elem: &elem} }

// SetOf is a sequence whose elements must be unique
func SetOf(elem Type) Type { return Type{Kind: KindSet, Elem: &elem} }

// MapOf is a string-keyed mapping
func MapOf(elem Type) Type { return Type{Kind: KindMap, Elem: &elem} }

// Equal reports whether two types are structurally identical, constraints
// included
func (t Type) Equal(o Type) bool {
	if t.Kind != o.Kind || t.Enum != o.Enum || t.Literal != o.Literal || t.Ref != o.Ref || t.NonEmpty != o.NonEmpty {
		return false
	}
	if (t.Min == nil) != (o.Min == nil) {
		return false
	}
	if t.Min != nil && *t.Min != *o.Min {
		return false
	}
	if (t.Elem == nil) != (o.Elem == nil) {
		return false
	}
	if t.Elem != nil {
		return t.Elem.Equal(*o.Elem)
	}
	return true
}

// String renders the type for diagnostics, e.g. "set<enum(amenity)>"
func (t Type) String() string {
	var s string
	switch t.Kind {
	case KindEnum:
		s = fmt.Sprintf("enum(%s)", t.Enum)
	case KindLiteral:
		s = strconv.Quote(t.Literal)
	case KindObject:
		s = t.Ref
	case KindArray, KindSet, KindMap:
		elem := "?"
		if t.Elem != nil {
			elem = t.Elem.String()
		}
		s = fmt.Sprintf("%s<%s>", t.Kind, elem)
	default:
		s = string(t.Kind)
	}
	if t.NonEmpty {
		s += "!"
	}
	if t.Min != nil {
		s += fmt.Sprintf(">=%d", *t.Min)
	}
	return s
}

// refs returns every schema name reachable from this type in one step
func (t Type) refs() []string {
	switch t.Kind {
	case KindObject:
		return []string{t.Ref}
	case KindArray, KindSet, KindMap:
		if t.Elem != nil {
			return t.Elem.refs()
		}
	}
	return nil
}

// enums returns every enumeration referenced by this type
func (t Type) enums() []string {
	switch t.Kind {
	case KindEnum:
		return []string{t.Enum}
	case KindArray, KindSet, KindMap:
		if t.Elem != nil {
			return t.Elem.enums()
		}
	}
	return nil
}
