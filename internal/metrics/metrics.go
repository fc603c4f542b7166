package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SnippetsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "snipvault_snippets_created_total",
		Help: "Snippets successfully created.",
	})

	TagReconcilesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "snipvault_tag_reconciles_total",
		Help: "Tag reconcile attempts by outcome.",
	}, []string{"status"})

	SearchesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "snipvault_searches_total",
		Help: "Snippet search requests served.",
	})

	AnnotationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "snipvault_annotations_total",
		Help: "AI annotation requests by outcome.",
	}, []string{"status"})

	AnnotationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "snipvault_annotation_duration_seconds",
		Help:    "Time from annotation request receipt to provider response.",
		Buckets: []float64{0.25, 0.5, 1, 2.5, 5, 10, 30},
	})

	SnippetsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "snipvault_snippets_total",
		Help: "Total number of non-deleted snippets in the database.",
	})

	UsersTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "snipvault_users_total",
		Help: "Total number of registered users in the database.",
	})
)
