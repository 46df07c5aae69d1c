package handler

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/forgo/sublet/api/internal/bootstrap"
	"github.com/forgo/sublet/api/internal/middleware"
)

// DefaultMaxBodyBytes caps request bodies when RouterConfig leaves it unset
const DefaultMaxBodyBytes = 1 << 20

// RouterConfig holds the router's collaborators
type RouterConfig struct {
	Runtime *bootstrap.Runtime
	Logger  *slog.Logger
	// MaxBodyBytes defaults to DefaultMaxBodyBytes
	MaxBodyBytes int64
	// Gatherer, when set, is served on GET /metrics
	Gatherer prometheus.Gatherer
}

// NewRouter mounts the contract endpoints behind the standard middleware
// chain
func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = DefaultMaxBodyBytes
	}

	contractHandler := NewContractHandler(cfg.Runtime, logger)

	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", Health)

	// Schema catalog
	mux.HandleFunc("GET /v1/schemas", contractHandler.ListSchemas)
	mux.HandleFunc("GET /v1/schemas/{schema}", contractHandler.DescribeSchema)

	// Contract operations
	mux.HandleFunc("POST /v1/validate/{schema}", contractHandler.Validate)
	mux.HandleFunc("POST /v1/project/{full}/{minimal}", contractHandler.Project)
	mux.HandleFunc("POST /v1/page/{schema}", contractHandler.Page)

	if cfg.Gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	return middleware.Chain(mux,
		middleware.RequestID,
		middleware.Logger(logger),
		middleware.Recovery(logger),
		middleware.MaxBody(maxBody),
	)
}
