package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// QueriesTotal counts indexer queries by result (ok, query_failure, transport_error)
	QueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_analytics_queries_total",
			Help: "Total number of GraphQL queries issued to the indexer",
		},
		[]string{"result"},
	)

	// QueryDuration tracks indexer round-trip time
	QueryDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "bridge_analytics_query_duration_seconds",
			Help:    "Indexer query duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// SectionsTotal counts rendered report sections by pipeline and status (ok, failed)
	SectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_analytics_sections_total",
			Help: "Total number of report sections evaluated",
		},
		[]string{"pipeline", "status"},
	)

	// RecordsExcluded counts records dropped from a statistic because a numeric field failed to decode
	RecordsExcluded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_analytics_records_excluded_total",
			Help: "Records excluded from statistics due to decode failures",
		},
		[]string{"field"},
	)
)
