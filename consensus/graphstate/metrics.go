package graphstate

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	activeBlockCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "massa_graphstate_active_block_count",
		Help: "Number of blocks currently in the Active status.",
	})
	cliqueCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "massa_graphstate_clique_count",
		Help: "Number of maximal cliques currently tracked.",
	})
	blockcliqueFitness = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "massa_graphstate_blockclique_fitness",
		Help: "Fitness of the current blockclique.",
	})
	requiredSetSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "massa_graphstate_required_set_size",
		Help: "Size of the last computed retention set.",
	})
)
