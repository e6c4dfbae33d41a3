package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CrawlsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "linkedva_crawls_total",
			Help: "Engagement crawls by outcome",
		},
		[]string{"outcome"},
	)

	ProfilesScraped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "linkedva_profiles_scraped_total",
			Help: "Profiles captured from post engagement",
		},
		[]string{"engagement_type"},
	)

	ElementsSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "linkedva_elements_skipped_total",
			Help: "Page elements skipped during a crawl",
		},
		[]string{"engagement_type", "reason"},
	)

	ModelCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "linkedva_model_calls_total",
			Help: "Language model calls by task and outcome",
		},
		[]string{"task", "outcome"},
	)

	ModelCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "linkedva_model_call_duration_seconds",
			Help:    "Duration of language model calls in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		},
		[]string{"task"},
	)

	DraftParseStrategy = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "linkedva_draft_parse_strategy_total",
			Help: "Which parse strategy recovered reply drafts",
		},
		[]string{"strategy"},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "linkedva_http_requests_total",
			Help: "HTTP requests by method and status",
		},
		[]string{"method", "status"},
	)

	RecordsStored = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "linkedva_records_stored",
			Help: "Records currently held per collection",
		},
		[]string{"collection"},
	)
)
