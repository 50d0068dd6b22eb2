// Package metrics exposes the agent's Prometheus collectors and the
// standalone /metrics listener.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// JobsTotal counts background jobs by kind and terminal status.
	JobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shulker_jobs_total",
			Help: "Background jobs by kind and terminal status",
		},
		[]string{"kind", "status"},
	)

	// TransferBytes counts object-store payload bytes by direction.
	TransferBytes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shulker_transfer_bytes_total",
			Help: "Object store bytes moved, by direction (upload/download)",
		},
		[]string{"direction"},
	)

	// PartRetries counts retried chunk downloads.
	PartRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "shulker_transfer_part_retries_total",
			Help: "Chunk download attempts beyond the first",
		},
	)
)
