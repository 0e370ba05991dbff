package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all prometheus metrics
type Metrics struct {
	FlightsFetched       *prometheus.CounterVec
	FlightsClassified    *prometheus.CounterVec
	CodesharesDropped    prometheus.Counter
	FlightsExcluded      prometheus.Counter
	Diagnostics          *prometheus.CounterVec
	FetchRetries         *prometheus.CounterVec
	IngestionTime        prometheus.Histogram
	ErrorsCount          *prometheus.CounterVec
	LastSuccessfulIngest prometheus.Gauge
}

// NewMetrics creates new prometheus metrics registered on reg.
// A nil reg means the default registerer.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		FlightsFetched: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "flights_fetched_total",
			Help:      "Flight records fetched from upstream providers",
		}, []string{"provider", "direction"}),
		FlightsClassified: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "flights_classified_total",
			Help:      "Flights classified, by leg and time category",
		}, []string{"leg", "category"}),
		CodesharesDropped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "codeshares_dropped_total",
			Help:      "Codeshare duplicates removed before classification",
		}),
		FlightsExcluded: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "flights_excluded_total",
			Help:      "Flights removed by status filter",
		}),
		Diagnostics: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "data_quality_events_total",
			Help:      "Absorbed data-quality problems, by kind and field",
		}, []string{"kind", "field"}),
		FetchRetries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_retries_total",
			Help:      "Upstream requests retried after rate limiting or server errors",
		}, []string{"provider"}),
		IngestionTime: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ingestion_time_seconds",
			Help:      "Time taken to ingest one airport-day",
			Buckets:   prometheus.DefBuckets,
		}),
		ErrorsCount: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "The total number of errors",
		}, []string{"operation"}),
		LastSuccessfulIngest: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_successful_ingest_timestamp_seconds",
			Help:      "Unix time of the last successful ingestion",
		}),
	}
}
