package http

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"painel/internal/cache"
)

// appMetrics are the domain counters exported on /metrics.
type appMetrics struct {
	mutations       *prometheus.CounterVec
	staleSelections prometheus.Counter
}

func newAppMetrics(reg prometheus.Registerer, cacheStats func() cache.Stats) *appMetrics {
	m := &appMetrics{
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "painel",
			Name:      "mutations_total",
			Help:      "Company and record writes by outcome.",
		}, []string{"entity", "action", "outcome"}),
		staleSelections: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "painel",
			Name:      "stale_selections_total",
			Help:      "Dashboard responses discarded because a newer selection was made.",
		}),
	}
	if reg == nil {
		return m
	}
	reg.MustRegister(m.mutations, m.staleSelections)
	if cacheStats != nil {
		reg.MustRegister(
			prometheus.NewCounterFunc(prometheus.CounterOpts{
				Namespace: "painel", Subsystem: "cache", Name: "hits_total",
				Help: "Dashboard cache hits.",
			}, func() float64 { return float64(cacheStats().Hits) }),
			prometheus.NewCounterFunc(prometheus.CounterOpts{
				Namespace: "painel", Subsystem: "cache", Name: "misses_total",
				Help: "Dashboard cache misses.",
			}, func() float64 { return float64(cacheStats().Misses) }),
			prometheus.NewGaugeFunc(prometheus.GaugeOpts{
				Namespace: "painel", Subsystem: "cache", Name: "entries",
				Help: "Dashboard cache entries.",
			}, func() float64 { return float64(cacheStats().Size) }),
		)
	}
	return m
}

func (m *appMetrics) mutation(entity, action string, err error) {
	m.mutations.WithLabelValues(entity, action, outcomeOf(err)).Inc()
}

func outcomeOf(err error) string {
	switch statusFor(err) {
	case http.StatusOK:
		return "ok"
	case http.StatusUnprocessableEntity:
		return "invalid"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	}
	return "error"
}
