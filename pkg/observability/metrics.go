package observability

import (
	"context"
	"fmt"

	"github.com/aretw0/warden/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors for one session.
type Metrics struct {
	events        *prometheus.CounterVec
	authenticated prometheus.Gauge
	transitions   prometheus.Counter
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "warden_session_events_total",
				Help: "Session operations by type and outcome",
			},
			[]string{"type", "outcome"},
		),
		authenticated: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "warden_session_authenticated",
			Help: "1 while an identity is held, 0 otherwise",
		}),
		transitions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "warden_session_transitions_total",
			Help: "Identity changes delivered to listeners",
		}),
	}

	for _, c := range []prometheus.Collector{m.events, m.authenticated, m.transitions} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register session metrics: %w", err)
		}
	}
	return m, nil
}

// Hooks counts every session operation.
func (m *Metrics) Hooks() domain.Hooks {
	record := func(_ context.Context, ev *domain.AuthEvent) {
		outcome := "ok"
		if ev.IsError {
			outcome = "error"
		}
		m.events.WithLabelValues(string(ev.Type), outcome).Inc()
	}
	return domain.Hooks{
		OnLogin:   record,
		OnRefresh: record,
		OnLogout:  record,
		OnExpire:  record,
		OnSync:    record,
	}
}

// Observe is a session listener tracking whether someone is logged in.
func (m *Metrics) Observe(identity *domain.Identity) {
	m.transitions.Inc()
	if identity != nil {
		m.authenticated.Set(1)
	} else {
		m.authenticated.Set(0)
	}
}

// Authenticated exposes the logged-in gauge.
func (m *Metrics) Authenticated() prometheus.Gauge {
	return m.authenticated
}
