// Package schema describes payload structure declaratively.
//
// A Schema is an ordered list of FieldSpecs, each naming a Type (string,
// integer, enum reference, embedded schema, set, ...) and whether it is
// optional. Schemas can inherit fields (Extends), dispatch on a
// discriminator (Variants), and be tagged credential-bearing.
//
// # Registry
//
// Schemas live in a Registry that is populated once and then frozen:
//
//	reg := schema.NewRegistry(enums)
//	reg.MustRegister(schema.Schema{
//	    Name: "PostAuthor",
//	    Fields: []schema.FieldSpec{
//	        schema.Field("id", schema.NonEmptyString()),
//	        schema.OptionalField("avatar", schema.URL()),
//	    },
//	})
//	if err := reg.Freeze(); err != nil {
//	    return err
//	}
//	fields, err := reg.Describe("PostAuthor")
//
// The reference graph (embedded schemas, element types and Extends) must
// be acyclic. Register rejects the schema that would close a cycle;
// Freeze rejects dangling references and malformed variants.
package schema
