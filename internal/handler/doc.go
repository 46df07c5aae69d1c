// Package handler adapts the contract layer to HTTP.
//
// Request bodies are decoded with exact numbers, validated against a
// named schema and answered with an envelope built by the composer. Any
// failure is mapped to a *model.ApiError by MapError and written with its
// HTTP status.
//
// # Endpoints
//
//   - GET  /health
//   - GET  /v1/schemas, GET /v1/schemas/{schema}
//   - POST /v1/validate/{schema}: returns {data, meta}
//   - POST /v1/project/{full}/{minimal}: returns the minimal view as {data, meta}
//   - POST /v1/page/{schema}?page=&page_size=&total_items=: body is a JSON
//     array, returns {data, pagination}
//   - GET  /metrics when a Prometheus gatherer is configured
//
// # Example Usage
//
//	rt, err := bootstrap.InitRuntime(cfg, bootstrap.Options{Logger: logger})
//	router := handler.NewRouter(handler.RouterConfig{Runtime: rt, Logger: logger})
package handler
