// Package model defines the sublet domain entities, their declared
// schemas and the API error envelope.
//
// # Domain Entities
//
//   - User, UserProfile, UserAuth: the user hierarchy. UserAuth carries a
//     credential hash and is never sent to clients.
//   - PostAuthor: the minimal user view embedded in posts.
//   - BasePost with the HousingRequestPost and SubletPost variants,
//     selected by the "type" field.
//
// Go structs are the typed form; RegisterSchemas declares the same
// shapes to a schema.Registry so payloads can be checked before they are
// mapped onto the structs:
//
//	reg := schema.NewRegistry(enum.Default())
//	if err := model.RegisterSchemas(reg); err != nil { ... }
//
// # Error Types
//
// ApiError is the error envelope: {code, message, details}. Codes come
// from a closed taxonomy (ErrorCodes) and each maps to an HTTP status.
// errors.Is matches on the code:
//
//	if errors.Is(err, model.ErrCredentialLeak) { ... }
package model
