package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels
const (
	OutcomeAccepted = "accepted"
	OutcomeRejected = "rejected"
)

// Recorder receives contract-layer events. Implementations must be safe
// for concurrent use.
type Recorder interface {
	// ObserveValidation is called once per validation with the codes of
	// every violation found (empty when accepted)
	ObserveValidation(schema string, codes []string)
	// ObserveEnvelope is called once per composition attempt
	ObserveEnvelope(kind, outcome string)
	// ObserveProjection is called once per Derive or ValidateIsProjection
	ObserveProjection(pair, outcome string)
}

// Nop discards every observation
type Nop struct{}

func (Nop) ObserveValidation(string, []string) {}
func (Nop) ObserveEnvelope(string, string)     {}
func (Nop) ObserveProjection(string, string)   {}

// Prometheus records observations as Prometheus counters
type Prometheus struct {
	validations *prometheus.CounterVec
	violations  *prometheus.CounterVec
	envelopes   *prometheus.CounterVec
	projections *prometheus.CounterVec
}

// NewPrometheus creates the collectors and registers them with reg.
// Registering the same collectors twice returns the existing ones.
func NewPrometheus(reg prometheus.Registerer) (*Prometheus, error) {
	p := &Prometheus{
		validations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sublet_contract_validations_total",
			Help: "Total number of payload validations by schema and outcome",
		}, []string{"schema", "outcome"}),
		violations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sublet_contract_violations_total",
			Help: "Total number of contract violations by schema and code",
		}, []string{"schema", "code"}),
		envelopes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sublet_contract_envelopes_total",
			Help: "Total number of envelope compositions by kind and outcome",
		}, []string{"kind", "outcome"}),
		projections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sublet_contract_projections_total",
			Help: "Total number of projections by schema pair and outcome",
		}, []string{"pair", "outcome"}),
	}

	var err error
	if p.validations, err = register(reg, p.validations); err != nil {
		return nil, err
	}
	if p.violations, err = register(reg, p.violations); err != nil {
		return nil, err
	}
	if p.envelopes, err = register(reg, p.envelopes); err != nil {
		return nil, err
	}
	if p.projections, err = register(reg, p.projections); err != nil {
		return nil, err
	}
	return p, nil
}

func register(reg prometheus.Registerer, c *prometheus.CounterVec) (*prometheus.CounterVec, error) {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
		}
		return nil, err
	}
	return c, nil
}

func (p *Prometheus) ObserveValidation(schema string, codes []string) {
	if len(codes) == 0 {
		p.validations.WithLabelValues(schema, OutcomeAccepted).Inc()
		return
	}
	p.validations.WithLabelValues(schema, OutcomeRejected).Inc()
	for _, code := range codes {
		p.violations.WithLabelValues(schema, code).Inc()
	}
}

func (p *Prometheus) ObserveEnvelope(kind, outcome string) {
	p.envelopes.WithLabelValues(kind, outcome).Inc()
}

func (p *Prometheus) ObserveProjection(pair, outcome string) {
	p.projections.WithLabelValues(pair, outcome).Inc()
}
