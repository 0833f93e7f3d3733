package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome label values.
const (
	outcomeSuccess = "success"
	outcomeFailure = "failure"
	outcomeSkipped = "skipped"
)

var (
	// MutationSteps counts orchestrator steps by operation, step and outcome.
	MutationSteps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sponsors_hub_mutation_steps_total",
			Help: "Total number of mutation steps by outcome",
		},
		[]string{"operation", "step", "outcome"},
	)

	// CacheLookups counts cache reads as hit, miss or error.
	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sponsors_hub_cache_lookups_total",
			Help: "Total number of sponsor cache lookups",
		},
		[]string{"result"},
	)

	// MediaTransfers counts media uploads and deletes by outcome.
	MediaTransfers = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sponsors_hub_media_transfers_total",
			Help: "Total number of media uploads and deletes",
		},
		[]string{"direction", "outcome"},
	)
)
