// Package contract validates untyped payloads against the schema registry.
//
// Validation is structural and recursive. Every required field must be
// present and conform, optional fields must conform when present, and
// undeclared fields are violations unless the validator is lenient.
// Tagged unions resolve their discriminator first and validate against
// the selected variant only.
//
// Violations are accumulated, never short-circuited:
//
//	_, err := v.Validate(raw, model.SchemaUser)
//	var verr *contract.ValidationError
//	if errors.As(err, &verr) {
//	    for _, viol := range verr.Violations {
//	        fmt.Println(viol.Path, viol.Code, viol.Message)
//	    }
//	}
//
// A ValidationError unwraps to a *model.ApiError, so
// errors.Is(err, model.ErrSchemaMismatch) and
// errors.Is(err, model.ErrUnknownVariant) both work.
package contract
