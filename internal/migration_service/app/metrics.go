package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	subaccountsProcessedCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tollfree_migration",
			Name:      "subaccounts_total",
			Help:      "Total sub-accounts visited, by outcome.",
		},
		[]string{"outcome"}, // processed, skipped_no_credentials, skipped_excluded, failed
	)

	servicesEvaluatedCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tollfree_migration",
			Name:      "services_evaluated_total",
			Help:      "Total messaging services evaluated, by eligibility decision.",
		},
		[]string{"decision"},
	)

	numbersSwappedCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tollfree_migration",
			Name:      "numbers_swapped_total",
			Help:      "Total long codes replaced by a toll-free number, by replacement source.",
		},
		[]string{"source"}, // reused, purchased
	)

	allocationFailuresCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tollfree_migration",
			Name:      "allocation_failures_total",
			Help:      "Total allocations that found no toll-free number.",
		},
		[]string{"reason"}, // budget_exhausted, inventory_exhausted
	)

	telemetryFetchFailuresCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "tollfree_migration",
			Name:      "telemetry_fetch_failures_total",
			Help:      "Total message log fetches that failed and were counted as zero errors.",
		},
	)

	verificationSubmissionsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tollfree_migration",
			Name:      "verification_submissions_total",
			Help:      "Total toll-free verification submissions, by status.",
		},
		[]string{"status"}, // success, extract_error, submit_error
	)

	// ProviderRequestDurationHist is observed by the provider adapter for every API call.
	ProviderRequestDurationHist = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "tollfree_migration",
			Name:      "provider_request_duration_seconds",
			Help:      "Duration of provider API requests.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"operation", "status"},
	)
)
