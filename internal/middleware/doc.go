// Package middleware provides HTTP middleware for the contract transport
// adapter.
//
//   - RequestID: stamps X-Request-ID into the response and the context
//   - Logger: structured request logging
//   - Recovery: turns panics into an INTERNAL error envelope
//   - MaxBody: caps request body size
//
// Envelopes read the request ID back with GetRequestID(ctx).
package middleware
