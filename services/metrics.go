package services

import "github.com/prometheus/client_golang/prometheus"

var (
	articlesStored = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pubmed_articles_processed_total",
			Help: "Articles stored or found already stored, by provider.",
		},
		[]string{"provider"},
	)
	articleFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pubmed_article_failures_total",
			Help: "Articles that failed to ingest, by provider and stage (fetch, store).",
		},
		[]string{"provider", "stage"},
	)
	pipelineRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pubmed_pipeline_runs_total",
			Help: "Completed pipeline runs, by provider.",
		},
		[]string{"provider"},
	)
	fetchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pubmed_fetch_duration_seconds",
			Help:    "Duration of single article fetches.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider"},
	)
)

func init() {
	prometheus.MustRegister(articlesStored, articleFailures, pipelineRuns, fetchDuration)
}
