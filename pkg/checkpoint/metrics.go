package checkpoint

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Operations tracks checkpoint operations by backend and operation
	Operations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "collection_checkpoint_operations_total",
			Help: "Total number of checkpoint operations",
		},
		[]string{"backend", "operation"}, // "redis"/"sqlite", "save"/"load"/"delete"
	)

	// OperationErrors tracks checkpoint operation errors
	OperationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "collection_checkpoint_errors_total",
			Help: "Total number of checkpoint operation errors",
		},
		[]string{"backend", "operation"},
	)
)
