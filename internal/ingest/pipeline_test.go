package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/signalsfoundry/spade/core"
	"github.com/signalsfoundry/spade/internal/cache"
	"github.com/signalsfoundry/spade/internal/fetch"
	"github.com/signalsfoundry/spade/internal/observability"
	"github.com/signalsfoundry/spade/internal/source/spacetrack"
	"github.com/signalsfoundry/spade/timectrl"
)

type fakeCatalog struct {
	payload    []byte
	authErr    error
	fetchErr   error
	authCalls  int
	fetchCalls int
}

func (f *fakeCatalog) Authenticate(context.Context) error {
	f.authCalls++
	return f.authErr
}

func (f *fakeCatalog) FetchCatalog(context.Context) ([]byte, error) {
	f.fetchCalls++
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.payload, nil
}

type fakePages struct {
	pages    [][]json.RawMessage
	failPage int
	calls    []int
}

func (f *fakePages) FetchPage(_ context.Context, _, number int) (core.Page[json.RawMessage], error) {
	f.calls = append(f.calls, number)
	if number == f.failPage {
		return core.Page[json.RawMessage]{}, &fetch.StatusError{StatusCode: 502, Body: "bad gateway"}
	}
	total := len(f.pages)
	return core.Page[json.RawMessage]{Items: f.pages[number-1], TotalPages: &total}, nil
}

func discosItem(cospar string, satno int) json.RawMessage {
	return json.RawMessage(fmt.Sprintf(`{"id":"%d","type":"object","attributes":{"cosparId":%q,"satno":%d,"name":"OBJ %d","mass":12.5}}`,
		satno, cospar, satno, satno))
}

type harness struct {
	dir       string
	clock     *timectrl.Controller
	catalog   *fakeCatalog
	pages     *fakePages
	collector *observability.IngestCollector
	pipeline  *Pipeline
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	fixture, err := os.ReadFile("../../core/testdata/spacetrack_omm.xml")
	require.NoError(t, err)

	h := &harness{
		dir:     t.TempDir(),
		clock:   timectrl.NewController(time.Date(2025, time.June, 8, 16, 0, 0, 0, time.Local)),
		catalog: &fakeCatalog{payload: fixture},
		pages: &fakePages{pages: [][]json.RawMessage{
			{discosItem("1957-001A", 1), discosItem("1957-001B", 2)},
			{discosItem("1958-002B", 5)},
		}},
	}
	h.collector, err = observability.NewIngestCollector(prometheus.NewRegistry())
	require.NoError(t, err)
	h.rebuild(h.dir)
	return h
}

func (h *harness) rebuild(storeDir string) {
	h.pipeline = New(Options{
		Catalog:     h.catalog,
		Objects:     h.pages,
		Gate:        cache.NewGate(h.dir, h.clock, nil),
		Store:       cache.NewStore(storeDir, h.clock, 0),
		CacheMaxAge: 2 * time.Hour,
		PageSize:    2,
		Clock:       h.clock,
		Metrics:     h.collector,
	})
}

func (h *harness) files(t *testing.T, prefix string) []string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(h.dir, prefix+"*"))
	require.NoError(t, err)
	return matches
}

func TestSpaceTrackCacheHitSkipsNetwork(t *testing.T) {
	h := newHarness(t)
	_, err := cache.NewStore(h.dir, timectrl.NewController(h.clock.Now().Add(-30*time.Minute)), 0).
		Save(CatalogPrefix, CatalogExt, h.catalog.payload)
	require.NoError(t, err)

	records, err := h.pipeline.SpaceTrack(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, "1958-002B", records[0].InternationalDesignator)
	require.Zero(t, h.catalog.authCalls)
	require.Zero(t, h.catalog.fetchCalls)
	require.Len(t, h.files(t, CatalogPrefix), 1)
	require.Equal(t, 1.0, testutil.ToFloat64(h.collector.CacheLookups.WithLabelValues(core.SourceSpaceTrack, observability.CacheHit)))
}

func TestSpaceTrackCacheMissFetchesAndPersists(t *testing.T) {
	h := newHarness(t)

	records, err := h.pipeline.SpaceTrack(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, 1, h.catalog.authCalls)
	require.Equal(t, 1, h.catalog.fetchCalls)

	written := h.files(t, CatalogPrefix)
	require.Len(t, written, 1)
	require.True(t, strings.HasSuffix(written[0], "2025_06_08-04_00_00_PM.XML"), written[0])
	data, err := os.ReadFile(written[0])
	require.NoError(t, err)
	require.Equal(t, h.catalog.payload, data)

	require.Equal(t, 2.0, testutil.ToFloat64(h.collector.RecordsMapped.WithLabelValues(core.SourceSpaceTrack)))
	require.Equal(t, float64(h.clock.Now().Unix()), testutil.ToFloat64(h.collector.LastSuccess.WithLabelValues(core.SourceSpaceTrack)))
}

func TestSpaceTrackStaleCacheRefetches(t *testing.T) {
	h := newHarness(t)
	_, err := cache.NewStore(h.dir, timectrl.NewController(h.clock.Now().Add(-3*time.Hour)), 0).
		Save(CatalogPrefix, CatalogExt, []byte("<stale/>"))
	require.NoError(t, err)

	records, err := h.pipeline.SpaceTrack(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, 1, h.catalog.fetchCalls)
	require.Len(t, h.files(t, CatalogPrefix), 2)
}

func TestSpaceTrackAuthenticationFailure(t *testing.T) {
	h := newHarness(t)
	h.catalog.authErr = fmt.Errorf("%w: login refused", spacetrack.ErrAuthentication)

	records, err := h.pipeline.SpaceTrack(context.Background())
	require.ErrorIs(t, err, spacetrack.ErrAuthentication)
	require.Nil(t, records)
	require.Zero(t, h.catalog.fetchCalls)
	require.Empty(t, h.files(t, CatalogPrefix))
}

func TestSpaceTrackTransportFailure(t *testing.T) {
	h := newHarness(t)
	h.catalog.fetchErr = &fetch.TransportError{Method: "GET", URL: "https://example.invalid", Err: errors.New("connection reset")}

	records, err := h.pipeline.SpaceTrack(context.Background())
	require.ErrorIs(t, err, fetch.ErrTransport)
	require.Nil(t, records)
	require.Equal(t, 1.0, testutil.ToFloat64(h.collector.FetchRequests.WithLabelValues(core.SourceSpaceTrack, "error")))
}

func TestSpaceTrackMalformedCatalog(t *testing.T) {
	h := newHarness(t)
	h.catalog.payload = []byte("<ndm><omm></ndm>")

	records, err := h.pipeline.SpaceTrack(context.Background())
	require.ErrorIs(t, err, core.ErrMalformedDocument)
	require.Nil(t, records)
}

func TestSpaceTrackPersistFailureStillReturnsRecords(t *testing.T) {
	h := newHarness(t)
	blocker := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))
	h.rebuild(blocker)

	records, err := h.pipeline.SpaceTrack(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, 1.0, testutil.ToFloat64(h.collector.PersistFailures.WithLabelValues(core.SourceSpaceTrack)))
}

func TestDiscosFetchesAllPagesAndPersists(t *testing.T) {
	h := newHarness(t)
	// A fresh payload on disk is ignored: this source always refetches.
	_, err := cache.NewStore(h.dir, h.clock, 0).Save(ObjectsPrefix, ObjectsExt, []byte("[]"))
	require.NoError(t, err)
	h.clock.Advance(time.Minute)

	records, err := h.pipeline.Discos(context.Background())
	require.NoError(t, err)
	require.Equal(t, []int{1, 2}, h.pages.calls)
	require.Len(t, records, 3)
	require.Equal(t, "1957-001A", records[0].InternationalDesignator)
	require.Equal(t, "5", *records[2].NoradID)
	require.Equal(t, []string{core.SourceDiscos}, records[2].Sources)

	written := h.files(t, ObjectsPrefix)
	require.Len(t, written, 2)
	data, err := os.ReadFile(written[len(written)-1])
	require.NoError(t, err)
	var items []map[string]any
	require.NoError(t, json.Unmarshal(data, &items))
	require.Len(t, items, 3)
	require.Contains(t, string(data), "\n  {")

	require.Equal(t, 2.0, testutil.ToFloat64(h.collector.PagesFetched.WithLabelValues(core.SourceDiscos)))
}

func TestDiscosPageFailureReturnsNothing(t *testing.T) {
	h := newHarness(t)
	h.pages.failPage = 2

	records, err := h.pipeline.Discos(context.Background())
	var se *fetch.StatusError
	require.ErrorAs(t, err, &se)
	require.Nil(t, records)
	require.Empty(t, h.files(t, ObjectsPrefix))
}

func TestRunContinuesPastFailedSource(t *testing.T) {
	h := newHarness(t)
	h.catalog.authErr = spacetrack.ErrAuthentication

	out, err := h.pipeline.Run(context.Background(), core.SourceSpaceTrack, core.SourceDiscos, "celestrak")
	require.ErrorIs(t, err, spacetrack.ErrAuthentication)
	require.ErrorIs(t, err, ErrUnknownSource)
	require.NotContains(t, out, core.SourceSpaceTrack)
	require.Len(t, out[core.SourceDiscos], 3)
}

func TestMissingClients(t *testing.T) {
	p := New(Options{})
	_, err := p.SpaceTrack(context.Background())
	require.Error(t, err)
	_, err = p.Discos(context.Background())
	require.Error(t, err)
}
