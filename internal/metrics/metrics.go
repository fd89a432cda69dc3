package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SwapsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "agentswap_swaps_created_total",
		Help: "Number of swap requests created",
	})

	SwapsSettled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "agentswap_swaps_settled_total",
		Help: "Number of swap requests settled exactly once",
	})

	DuplicateExecutions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "agentswap_duplicate_executions_total",
		Help: "Number of execute calls rejected as replays",
	})

	OracleFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "agentswap_oracle_fallbacks_total",
		Help: "Number of rate fetches that fell back to the pair constant",
	})
)
