package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus counters for the ledger HTTP surface.
// Each process builds its own registry so tests never collide on
// duplicate registration.
type Metrics struct {
	registry *prometheus.Registry

	PremiumsReceived prometheus.Counter
	ClaimsDeclared   prometheus.Counter
	VotesCast        prometheus.Counter
	ClaimsSettled    prometheus.Counter
	TransfersFailed  prometheus.Counter
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		PremiumsReceived: factory.NewCounter(prometheus.CounterOpts{
			Name: "mutua_premiums_received_total",
			Help: "Total number of premium payments accepted by the ledger",
		}),
		ClaimsDeclared: factory.NewCounter(prometheus.CounterOpts{
			Name: "mutua_claims_declared_total",
			Help: "Total number of claims opened for peer voting",
		}),
		VotesCast: factory.NewCounter(prometheus.CounterOpts{
			Name: "mutua_votes_cast_total",
			Help: "Total number of peer votes recorded",
		}),
		ClaimsSettled: factory.NewCounter(prometheus.CounterOpts{
			Name: "mutua_claims_settled_total",
			Help: "Total number of claims settled, approved or rejected",
		}),
		TransfersFailed: factory.NewCounter(prometheus.CounterOpts{
			Name: "mutua_transfers_failed_total",
			Help: "Total number of outbound value transfers that failed and were rolled back",
		}),
	}
}

// Handler exposes the registry in Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
