// Package metrics holds the Prometheus instruments of the recommender.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome label values.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
	OutcomeRefused = "refused" // precondition failed, no work done
)

var (
	RecommendationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "beautyrec_recommendations_total",
			Help: "Total number of recommendation requests",
		},
		[]string{"outcome"},
	)

	RecommendationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "beautyrec_recommendation_duration_seconds",
			Help:    "Duration of retrieve, score and rank for one request",
			Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		},
	)

	ExplanationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "beautyrec_explanations_total",
			Help: "Total number of explanation requests",
		},
		[]string{"outcome"},
	)

	ArtifactFetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "beautyrec_artifact_fetch_total",
			Help: "Artifact loads by artifact and source (cache or remote)",
		},
		[]string{"artifact", "source"},
	)

	ArtifactBytes = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "beautyrec_artifact_bytes",
			Help: "Size of each loaded artifact in bytes",
		},
		[]string{"artifact"},
	)

	CatalogProducts = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "beautyrec_catalog_products",
			Help: "Number of rows in the loaded product table",
		},
	)

	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "beautyrec_sessions",
			Help: "Number of sessions held in memory",
		},
	)
)
