// Package metrics exposes Prometheus collectors for the digest pipeline.
package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	roundsTotal       *prometheus.CounterVec
	feedsFetchedTotal *prometheus.CounterVec
	itemsFetchedTotal prometheus.Counter
	itemsEnriched     *prometheus.CounterVec
	itemsClassified   *prometheus.CounterVec
	notifyTotal       *prometheus.CounterVec
	passDuration      prometheus.Histogram
	httpDuration      *prometheus.HistogramVec

	once sync.Once
)

// Init registers the collectors against the default registry. Safe to call
// more than once.
func Init() {
	once.Do(func() {
		roundsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "digest_rounds_total",
				Help: "Poll loop rounds, labeled by outcome.",
			},
			[]string{"outcome"},
		)
		feedsFetchedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "digest_feeds_fetched_total",
				Help: "Feed fetches, labeled by result.",
			},
			[]string{"result"},
		)
		itemsFetchedTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "digest_items_fetched_total",
				Help: "Items retained after feed fetch and date filtering.",
			},
		)
		itemsEnriched = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "digest_items_enriched_total",
				Help: "Page enrichment attempts, labeled by result.",
			},
			[]string{"result"},
		)
		itemsClassified = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "digest_items_classified_total",
				Help: "Classifier calls, labeled by result.",
			},
			[]string{"result"},
		)
		notifyTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "digest_notifications_total",
				Help: "Outbound webhook deliveries, labeled by result.",
			},
			[]string{"result"},
		)
		passDuration = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "digest_pass_duration_seconds",
				Help:    "Wall time of one full pipeline pass.",
				Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
			},
		)
		httpDuration = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "digest_http_request_duration_seconds",
				Help:    "Latency of digest page server requests.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route", "status"},
		)
	})
}

// IncRound records a completed poll round.
func IncRound(outcome string) {
	if roundsTotal != nil {
		roundsTotal.WithLabelValues(outcome).Inc()
	}
}

// IncFeedFetch records one feed fetch attempt.
func IncFeedFetch(result string) {
	if feedsFetchedTotal != nil {
		feedsFetchedTotal.WithLabelValues(result).Inc()
	}
}

// AddItemsFetched counts items surviving the fetch stage.
func AddItemsFetched(n int) {
	if itemsFetchedTotal != nil {
		itemsFetchedTotal.Add(float64(n))
	}
}

// IncEnriched records one enrichment attempt.
func IncEnriched(result string) {
	if itemsEnriched != nil {
		itemsEnriched.WithLabelValues(result).Inc()
	}
}

// IncClassified records one classifier call.
func IncClassified(result string) {
	if itemsClassified != nil {
		itemsClassified.WithLabelValues(result).Inc()
	}
}

// IncNotify records one webhook delivery attempt.
func IncNotify(result string) {
	if notifyTotal != nil {
		notifyTotal.WithLabelValues(result).Inc()
	}
}

// ObserveHTTPRequest records one handled HTTP request.
func ObserveHTTPRequest(method, route string, status int, d time.Duration) {
	if httpDuration != nil {
		httpDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
	}
}

// ObservePass records the duration of one pipeline pass.
func ObservePass(d time.Duration) {
	if passDuration != nil {
		passDuration.Observe(d.Seconds())
	}
}
