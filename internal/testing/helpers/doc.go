// Package helpers provides test utilities shared by the contract tests.
//
// The harness wires the built-in enumerations and schemas into a frozen
// validator, projection engine and composer:
//
//	h := helpers.NewHarness(t)
//	_, err := h.Validator.Validate(raw, model.SchemaUser)
//
// Pass helpers.Lenient to drop unknown fields instead of rejecting them.
//
// # HTTP Helpers
//
//	req := helpers.NewRequest(t, http.MethodPost, "/posts").WithBody(post).Build()
//	helpers.AssertApiError(t, rr, http.StatusUnprocessableEntity, model.ErrCodeSchemaMismatch)
//	helpers.AssertFieldError(t, rr, "rent")
package helpers
