package observability

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Cache lookup results.
const (
	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheError = "error"
)

// IngestCollector bundles Prometheus metrics for ingestion runs. A nil
// collector is valid and records nothing.
type IngestCollector struct {
	gatherer prometheus.Gatherer

	FetchRequests   *prometheus.CounterVec
	FetchDurations  *prometheus.HistogramVec
	PagesFetched    *prometheus.CounterVec
	RecordsMapped   *prometheus.CounterVec
	RecordsDropped  *prometheus.CounterVec
	CacheLookups    *prometheus.CounterVec
	PersistFailures *prometheus.CounterVec
	LastSuccess     *prometheus.GaugeVec
}

// NewIngestCollector registers ingestion metrics against the provided
// registerer, defaulting to the global Prometheus registry when nil.
func NewIngestCollector(reg prometheus.Registerer) (*IngestCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	c := &IngestCollector{gatherer: gatherer}
	var err error

	if c.FetchRequests, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "spade_fetch_requests_total",
		Help: "Remote requests made while ingesting, labeled by source and outcome.",
	}, []string{"source", "outcome"}), "spade_fetch_requests_total"); err != nil {
		return nil, err
	}
	if c.FetchDurations, err = register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "spade_fetch_duration_seconds",
		Help:    "Latency of remote requests in seconds.",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60, 120, 300},
	}, []string{"source"}), "spade_fetch_duration_seconds"); err != nil {
		return nil, err
	}
	if c.PagesFetched, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "spade_pages_fetched_total",
		Help: "Pages received from paginated sources.",
	}, []string{"source"}), "spade_pages_fetched_total"); err != nil {
		return nil, err
	}
	if c.RecordsMapped, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "spade_records_mapped_total",
		Help: "Records produced by the attribute mapper.",
	}, []string{"source"}), "spade_records_mapped_total"); err != nil {
		return nil, err
	}
	if c.RecordsDropped, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "spade_records_dropped_total",
		Help: "Source items skipped because they could not become a record.",
	}, []string{"source"}), "spade_records_dropped_total"); err != nil {
		return nil, err
	}
	if c.CacheLookups, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "spade_cache_lookups_total",
		Help: "Cache gate decisions, labeled by source and result.",
	}, []string{"source", "result"}), "spade_cache_lookups_total"); err != nil {
		return nil, err
	}
	if c.PersistFailures, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "spade_persist_failures_total",
		Help: "Downloaded payloads that could not be written to the data directory.",
	}, []string{"source"}), "spade_persist_failures_total"); err != nil {
		return nil, err
	}
	if c.LastSuccess, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "spade_last_success_timestamp_seconds",
		Help: "Unix time of the last ingestion run that returned records.",
	}, []string{"source"}), "spade_last_success_timestamp_seconds"); err != nil {
		return nil, err
	}
	return c, nil
}

// ObserveFetch records one remote request.
func (c *IngestCollector) ObserveFetch(source string, err error, d time.Duration) {
	if c == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	c.FetchRequests.WithLabelValues(source, outcome).Inc()
	c.FetchDurations.WithLabelValues(source).Observe(d.Seconds())
}

// AddPages counts received pages.
func (c *IngestCollector) AddPages(source string, n int) {
	if c == nil {
		return
	}
	c.PagesFetched.WithLabelValues(source).Add(float64(n))
}

// ObserveMapping counts the outcome of one mapping pass.
func (c *IngestCollector) ObserveMapping(source string, records, dropped int) {
	if c == nil {
		return
	}
	c.RecordsMapped.WithLabelValues(source).Add(float64(records))
	c.RecordsDropped.WithLabelValues(source).Add(float64(dropped))
}

// ObserveCacheLookup counts a cache gate decision.
func (c *IngestCollector) ObserveCacheLookup(source, result string) {
	if c == nil {
		return
	}
	c.CacheLookups.WithLabelValues(source, result).Inc()
}

// IncPersistFailure counts a payload that was not written.
func (c *IngestCollector) IncPersistFailure(source string) {
	if c == nil {
		return
	}
	c.PersistFailures.WithLabelValues(source).Inc()
}

// MarkSuccess stamps the last successful run of source.
func (c *IngestCollector) MarkSuccess(source string, at time.Time) {
	if c == nil {
		return
	}
	c.LastSuccess.WithLabelValues(source).Set(float64(at.Unix()))
}

// Handler exposes a ready-to-use /metrics handler.
func (c *IngestCollector) Handler() http.Handler {
	gatherer := prometheus.DefaultGatherer
	if c != nil && c.gatherer != nil {
		gatherer = c.gatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Push sends the collector's registry to a Prometheus Pushgateway under job.
// Batch runs call it once before exiting.
func (c *IngestCollector) Push(ctx context.Context, gatewayURL, job string) error {
	if c == nil || gatewayURL == "" {
		return nil
	}
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	if err := push.New(gatewayURL, job).Gatherer(gatherer).PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics to %s: %w", gatewayURL, err)
	}
	return nil
}

func register[T prometheus.Collector](reg prometheus.Registerer, c T, name string) (T, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
			var zero T
			return zero, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		var zero T
		return zero, err
	}
	return c, nil
}
