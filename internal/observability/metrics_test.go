package observability

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
)

func TestObserveFetchRecordsOutcomeAndLatency(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewIngestCollector(reg)
	if err != nil {
		t.Fatalf("NewIngestCollector: %v", err)
	}

	collector.ObserveFetch("discos", nil, 120*time.Millisecond)
	collector.ObserveFetch("discos", nil, 80*time.Millisecond)
	collector.ObserveFetch("discos", errors.New("HTTP 502"), time.Second)

	if got := testutil.ToFloat64(collector.FetchRequests.WithLabelValues("discos", "ok")); got != 2 {
		t.Fatalf("spade_fetch_requests_total ok = %v, want 2", got)
	}
	if got := testutil.ToFloat64(collector.FetchRequests.WithLabelValues("discos", "error")); got != 1 {
		t.Fatalf("spade_fetch_requests_total error = %v, want 1", got)
	}
	if count := histogramSampleCount(t, reg, "spade_fetch_duration_seconds", map[string]string{"source": "discos"}); count != 3 {
		t.Fatalf("spade_fetch_duration_seconds sample_count = %d, want 3", count)
	}
}

func TestMappingAndCacheCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewIngestCollector(reg)
	if err != nil {
		t.Fatalf("NewIngestCollector: %v", err)
	}

	collector.ObserveMapping("space-track", 40, 2)
	collector.ObserveMapping("space-track", 10, 0)
	collector.ObserveCacheLookup("space-track", CacheHit)
	collector.IncPersistFailure("discos")
	collector.AddPages("discos", 3)

	if got := testutil.ToFloat64(collector.RecordsMapped.WithLabelValues("space-track")); got != 50 {
		t.Fatalf("records mapped = %v, want 50", got)
	}
	if got := testutil.ToFloat64(collector.RecordsDropped.WithLabelValues("space-track")); got != 2 {
		t.Fatalf("records dropped = %v, want 2", got)
	}
	if got := testutil.ToFloat64(collector.CacheLookups.WithLabelValues("space-track", CacheHit)); got != 1 {
		t.Fatalf("cache hits = %v, want 1", got)
	}
	if got := testutil.ToFloat64(collector.PersistFailures.WithLabelValues("discos")); got != 1 {
		t.Fatalf("persist failures = %v, want 1", got)
	}
	if got := testutil.ToFloat64(collector.PagesFetched.WithLabelValues("discos")); got != 3 {
		t.Fatalf("pages = %v, want 3", got)
	}
}

func TestNewIngestCollectorReusesRegisteredMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewIngestCollector(reg)
	if err != nil {
		t.Fatalf("first NewIngestCollector: %v", err)
	}
	second, err := NewIngestCollector(reg)
	if err != nil {
		t.Fatalf("second NewIngestCollector: %v", err)
	}
	second.AddPages("discos", 1)
	if got := testutil.ToFloat64(first.PagesFetched.WithLabelValues("discos")); got != 1 {
		t.Fatalf("collectors do not share metrics: %v", got)
	}
}

func TestNilCollectorIsNoop(t *testing.T) {
	var c *IngestCollector
	c.ObserveFetch("x", nil, time.Second)
	c.ObserveMapping("x", 1, 1)
	c.MarkSuccess("x", time.Now())
	if err := c.Push(context.Background(), "http://unused", "spade"); err != nil {
		t.Fatalf("Push on nil collector: %v", err)
	}
}

func TestMetricsHandlerExposesIngestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewIngestCollector(reg)
	if err != nil {
		t.Fatalf("NewIngestCollector: %v", err)
	}
	collector.MarkSuccess("discos", time.Unix(1717171717, 0))
	collector.ObserveFetch("discos", nil, time.Millisecond)

	rr := httptest.NewRecorder()
	collector.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("/metrics status = %d, want 200", rr.Code)
	}
	body := rr.Body.String()
	for _, metric := range []string{
		"spade_fetch_requests_total",
		"spade_fetch_duration_seconds",
		"spade_last_success_timestamp_seconds",
	} {
		if !strings.Contains(body, metric) {
			t.Fatalf("expected %q in /metrics output", metric)
		}
	}
	if !strings.Contains(body, "1.717171717e+09") {
		t.Fatalf("/metrics output missing last success value: %s", body)
	}
}

func TestPushSendsToGateway(t *testing.T) {
	var gotPath, gotBody string
	gw := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.WriteHeader(http.StatusOK)
	}))
	defer gw.Close()

	reg := prometheus.NewRegistry()
	collector, err := NewIngestCollector(reg)
	if err != nil {
		t.Fatalf("NewIngestCollector: %v", err)
	}
	collector.AddPages("discos", 2)

	if err := collector.Push(context.Background(), gw.URL, "spade"); err != nil {
		t.Fatalf("Push: %v", err)
	}
	if gotPath != "/metrics/job/spade" {
		t.Fatalf("push path = %q, want /metrics/job/spade", gotPath)
	}
	if !strings.Contains(gotBody, "spade_pages_fetched_total") {
		t.Fatalf("pushed body does not carry pages metric")
	}
}

func histogramSampleCount(t *testing.T, gatherer prometheus.Gatherer, name string, labels map[string]string) uint64 {
	t.Helper()

	metrics, err := gatherer.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	for _, mf := range metrics {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.Metric {
			if matchLabels(m.GetLabel(), labels) && m.GetHistogram() != nil {
				return m.GetHistogram().GetSampleCount()
			}
		}
	}
	return 0
}

func matchLabels(got []*dto.LabelPair, want map[string]string) bool {
	if len(got) < len(want) {
		return false
	}
	matched := 0
	for _, lp := range got {
		if val, ok := want[lp.GetName()]; ok && val == lp.GetValue() {
			matched++
		}
	}
	return matched == len(want)
}
