// Package bootstrap assembles the contract layer from configuration.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/forgo/sublet/api/internal/config"
	"github.com/forgo/sublet/api/internal/contract"
	"github.com/forgo/sublet/api/internal/enum"
	"github.com/forgo/sublet/api/internal/envelope"
	"github.com/forgo/sublet/api/internal/metrics"
	"github.com/forgo/sublet/api/internal/middleware"
	"github.com/forgo/sublet/api/internal/model"
	"github.com/forgo/sublet/api/internal/projection"
	"github.com/forgo/sublet/api/internal/schema"
)

// Options control runtime initialization behavior.
type Options struct {
	// Logger defaults to slog.Default()
	Logger *slog.Logger
	// Registerer receives the counters when metrics are enabled. Defaults
	// to prometheus.DefaultRegisterer.
	Registerer prometheus.Registerer
	// Schemas are registered after the built-in ones, before freezing
	Schemas []schema.Schema
	// RequestID reads the request ID stamped into envelopes. Defaults to
	// middleware.GetRequestID.
	RequestID func(context.Context) string
}

// Runtime holds the frozen registries and every component built on them
type Runtime struct {
	Enums       *enum.Registry
	Schemas     *schema.Registry
	Validator   *contract.Validator
	Projections *projection.Engine
	Composer    *envelope.Composer
	Metrics     metrics.Recorder
}

// InitRuntime builds the enumeration and schema registries, freezes them
// and wires the validator, projection engine and composer.
func InitRuntime(cfg *config.Config, opts Options) (*Runtime, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	requestID := opts.RequestID
	if requestID == nil {
		requestID = middleware.GetRequestID
	}

	var rec metrics.Recorder = metrics.Nop{}
	if cfg.Metrics.Enabled {
		reg := opts.Registerer
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		prom, err := metrics.NewPrometheus(reg)
		if err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
		rec = prom
	}

	enums := enum.Default()
	if cfg.Contract.EnumsFile != "" {
		if err := enums.LoadFile(cfg.Contract.EnumsFile); err != nil {
			return nil, fmt.Errorf("load enumerations: %w", err)
		}
		logger.Info("enumerations extended", slog.String("file", cfg.Contract.EnumsFile))
	}

	schemas := schema.NewRegistry(enums)
	if err := model.RegisterSchemas(schemas); err != nil {
		return nil, fmt.Errorf("register schemas: %w", err)
	}
	for _, s := range opts.Schemas {
		if err := schemas.Register(s); err != nil {
			return nil, fmt.Errorf("register schema %s: %w", s.Name, err)
		}
	}
	if err := schemas.Freeze(); err != nil {
		return nil, fmt.Errorf("freeze schemas: %w", err)
	}

	v, err := contract.New(schemas,
		contract.WithStrictUnknownFields(cfg.Contract.StrictUnknownFields),
		contract.WithMetrics(rec),
		contract.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("create validator: %w", err)
	}

	engine := projection.NewEngine(v,
		projection.WithMetrics(rec),
		projection.WithLogger(logger),
	)
	if err := engine.ProjectDeclared(); err != nil {
		return nil, fmt.Errorf("check projections: %w", err)
	}

	composer := envelope.NewComposer(v,
		envelope.WithRequestIDFunc(requestID),
		envelope.WithMetrics(rec),
		envelope.WithLogger(logger),
	)

	logger.Debug("contract runtime ready",
		slog.Int("schemas", len(schemas.Names())),
		slog.Int("enumerations", len(enums.Names())),
		slog.Bool("strict_unknown_fields", v.Strict()),
		slog.Bool("metrics", cfg.Metrics.Enabled),
	)

	return &Runtime{
		Enums:       enums,
		Schemas:     schemas,
		Validator:   v,
		Projections: engine,
		Composer:    composer,
		Metrics:     rec,
	}, nil
}
