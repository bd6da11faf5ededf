package db

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var storeMutations = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "nextstep_store_mutations_total",
		Help: "Store mutations by operation and outcome",
	},
	[]string{"op", "status"},
)

func observeMutation(op, status string) {
	storeMutations.WithLabelValues(op, status).Inc()
}
