package observability

import (
	"context"
	"errors"

	"github.com/aretw0/abacus/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the engine counters.
type Metrics struct {
	Inputs *prometheus.CounterVec
	Folds  *prometheus.CounterVec
	Errors *prometheus.CounterVec
}

// NewMetrics creates the counters and registers them with reg.
// A nil reg uses prometheus.DefaultRegisterer.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		Inputs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "abacus_inputs_total",
				Help: "Total number of inputs applied, by action",
			},
			[]string{"action"},
		),
		Folds: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "abacus_folds_total",
				Help: "Total number of binary operations evaluated, by operator",
			},
			[]string{"operator"},
		),
		Errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "abacus_errors_total",
				Help: "Total number of rejected inputs, by kind",
			},
			[]string{"kind"},
		),
	}

	for _, c := range []prometheus.Collector{m.Inputs, m.Folds, m.Errors} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Hooks returns lifecycle hooks that record into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnInput: func(ctx context.Context, e *domain.InputEvent) {
			m.Inputs.WithLabelValues(string(e.Input.Action)).Inc()
		},
		OnFold: func(ctx context.Context, e *domain.FoldEvent) {
			m.Folds.WithLabelValues(string(e.Operator)).Inc()
		},
		OnError: func(ctx context.Context, e *domain.ErrorEvent) {
			m.Errors.WithLabelValues(ErrorKind(e.Err)).Inc()
		},
	}
}

// ErrorKind maps an engine error to a low-cardinality label.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, domain.ErrDivideByZero):
		return "divide_by_zero"
	case errors.Is(err, domain.ErrInvalidDigit):
		return "invalid_digit"
	case errors.Is(err, domain.ErrUnknownOperator):
		return "unknown_operator"
	case errors.Is(err, domain.ErrUnknownAction):
		return "unknown_action"
	}
	return "other"
}
