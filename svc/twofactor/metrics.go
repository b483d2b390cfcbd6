package twofactor

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exports counters for verifications, transitions and QR fallbacks.
// A nil *Metrics records nothing.
type Metrics struct {
	verifications   *prometheus.CounterVec
	transitions     *prometheus.CounterVec
	renderFallbacks *prometheus.CounterVec
}

// NewMetrics registers the collectors with reg. Collectors already registered by an
// earlier call are reused.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		verifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "twofactor",
			Name:      "verifications_total",
			Help:      "TOTP code checks by operation and result.",
		}, []string{"operation", "result"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "twofactor",
			Name:      "transitions_total",
			Help:      "Lifecycle events by outcome.",
		}, []string{"event", "result"}),
		renderFallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "twofactor",
			Name:      "render_fallbacks_total",
			Help:      "QR renderers that failed and handed over to the next one.",
		}, []string{"renderer"}),
	}

	var err error
	if m.verifications, err = register(reg, m.verifications); err != nil {
		return nil, err
	}
	if m.transitions, err = register(reg, m.transitions); err != nil {
		return nil, err
	}
	if m.renderFallbacks, err = register(reg, m.renderFallbacks); err != nil {
		return nil, err
	}
	return m, nil
}

func register(reg prometheus.Registerer, c *prometheus.CounterVec) (*prometheus.CounterVec, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
		}
		return nil, err
	}
	return c, nil
}

func (m *Metrics) ObserveVerification(operation, result string) {
	if m == nil {
		return
	}
	m.verifications.WithLabelValues(operation, result).Inc()
}

func (m *Metrics) ObserveTransition(event Event, result string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(event.String(), result).Inc()
}

// ObserveRenderFallback matches provisioning.WithFallbackHook.
func (m *Metrics) ObserveRenderFallback(renderer string) {
	if m == nil {
		return
	}
	m.renderFallbacks.WithLabelValues(renderer).Inc()
}
