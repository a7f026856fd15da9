// Package ingest runs one source at a time from cache or network to typed
// records.
package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/signalsfoundry/spade/core"
	"github.com/signalsfoundry/spade/internal/cache"
	"github.com/signalsfoundry/spade/internal/logging"
	"github.com/signalsfoundry/spade/internal/observability"
	"github.com/signalsfoundry/spade/model"
	"github.com/signalsfoundry/spade/timectrl"
)

// Payload file naming.
const (
	CatalogPrefix = "FULL_CATLOG_"
	CatalogExt    = ".XML"
	ObjectsPrefix = "DISCOS_ALL_"
	ObjectsExt    = ".json"
)

// ErrUnknownSource is returned by Run for a source name it cannot ingest.
var ErrUnknownSource = errors.New("unknown source")

// CatalogClient authenticates and downloads the full element catalog.
type CatalogClient interface {
	Authenticate(ctx context.Context) error
	FetchCatalog(ctx context.Context) ([]byte, error)
}

// PageClient fetches one page of characteristics objects.
type PageClient interface {
	FetchPage(ctx context.Context, pageSize, pageNumber int) (core.Page[json.RawMessage], error)
}

// Recorder receives run metrics. *observability.IngestCollector implements it.
type Recorder interface {
	ObserveFetch(source string, err error, d time.Duration)
	AddPages(source string, n int)
	ObserveMapping(source string, records, dropped int)
	ObserveCacheLookup(source, result string)
	IncPersistFailure(source string)
	MarkSuccess(source string, at time.Time)
}

// Options wires a Pipeline. Catalog and Objects may be nil when that source
// is not used.
type Options struct {
	Catalog     CatalogClient
	Objects     PageClient
	Gate        *cache.Gate
	Store       *cache.Store
	CacheMaxAge time.Duration
	PageSize    int
	Clock       timectrl.Clock
	Metrics     Recorder
	Log         logging.Logger
}

// Pipeline holds collaborators only; every call is an independent run.
type Pipeline struct {
	opts   Options
	clock  timectrl.Clock
	log    logging.Logger
	tracer trace.Tracer
}

// New returns a Pipeline.
func New(opts Options) *Pipeline {
	log := opts.Log
	if log == nil {
		log = logging.Noop()
	}
	if opts.Metrics == nil {
		opts.Metrics = (*observability.IngestCollector)(nil)
	}
	if opts.PageSize == 0 {
		opts.PageSize = core.MaxPageSize
	}
	return &Pipeline{
		opts:   opts,
		clock:  timectrl.Or(opts.Clock),
		log:    log,
		tracer: observability.Tracer(),
	}
}

// SpaceTrack returns the catalog as records, from a fresh cached payload
// when one exists, otherwise after logging in and downloading it.
func (p *Pipeline) SpaceTrack(ctx context.Context) (records []model.Record, err error) {
	const source = core.SourceSpaceTrack
	ctx, log := logging.WithRunLogger(ctx, p.log.With(logging.String("source", source)))
	ctx, span := p.startRun(ctx, source)
	defer func() { observability.EndSpan(span, err) }()

	payload, fromCache := p.cachedCatalog(ctx, log)
	if !fromCache {
		if p.opts.Catalog == nil {
			return nil, fmt.Errorf("%s: no catalog client configured", source)
		}
		payload, err = p.downloadCatalog(ctx, log)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", source, err)
		}
		p.persist(ctx, log, source, CatalogPrefix, CatalogExt, payload)
	}
	span.SetAttributes(attribute.Bool("spade.cache_hit", fromCache))

	records, err = p.mapXML(ctx, log, payload)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}
	p.opts.Metrics.MarkSuccess(source, p.clock.Now())
	log.Info(ctx, "ingest finished",
		logging.Int("records", len(records)),
		logging.Any("from_cache", fromCache),
	)
	return records, nil
}

// Discos downloads every characteristics object page by page, persists the
// accumulated items as one JSON payload and maps them. It never reads the
// cache.
func (p *Pipeline) Discos(ctx context.Context) (records []model.Record, err error) {
	const source = core.SourceDiscos
	ctx, log := logging.WithRunLogger(ctx, p.log.With(logging.String("source", source)))
	ctx, span := p.startRun(ctx, source)
	defer func() { observability.EndSpan(span, err) }()

	if p.opts.Objects == nil {
		return nil, fmt.Errorf("%s: no page client configured", source)
	}

	items, err := core.FetchAllPages(ctx, p.opts.PageSize, p.pageFunc(log))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}
	span.SetAttributes(attribute.Int("spade.items", len(items)))

	payload, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("%s: encode payload: %w", source, err)
	}
	p.persist(ctx, log, source, ObjectsPrefix, ObjectsExt, payload)

	records, err = p.mapJSON(ctx, log, payload)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}
	p.opts.Metrics.MarkSuccess(source, p.clock.Now())
	log.Info(ctx, "ingest finished", logging.Int("records", len(records)))
	return records, nil
}

// Run ingests each named source in order. A failed source is absent from the
// result and its error is joined into the returned error; later sources still
// run.
func (p *Pipeline) Run(ctx context.Context, sources ...string) (map[string][]model.Record, error) {
	out := make(map[string][]model.Record, len(sources))
	var errs []error
	for _, s := range sources {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		var (
			records []model.Record
			err     error
		)
		switch s {
		case core.SourceSpaceTrack:
			records, err = p.SpaceTrack(ctx)
		case core.SourceDiscos:
			records, err = p.Discos(ctx)
		default:
			err = fmt.Errorf("%w: %q", ErrUnknownSource, s)
		}
		if err != nil {
			p.log.Error(ctx, "ingest failed", logging.String("source", s), logging.Err(err))
			errs = append(errs, err)
			continue
		}
		out[s] = records
	}
	return out, errors.Join(errs...)
}

func (p *Pipeline) startRun(ctx context.Context, source string) (context.Context, trace.Span) {
	return p.tracer.Start(ctx, "ingest."+source, trace.WithAttributes(
		attribute.String("spade.source", source),
		attribute.String("spade.run_id", logging.RunIDFromContext(ctx)),
	))
}

// cachedCatalog returns a fresh cached payload if the gate finds one and it
// can be read. Gate and read errors degrade to a miss.
func (p *Pipeline) cachedCatalog(ctx context.Context, log logging.Logger) ([]byte, bool) {
	const source = core.SourceSpaceTrack
	if p.opts.Gate == nil {
		return nil, false
	}
	path, ok, err := p.opts.Gate.Lookup(ctx, CatalogPrefix, p.opts.CacheMaxAge)
	switch {
	case err != nil:
		p.opts.Metrics.ObserveCacheLookup(source, observability.CacheError)
		log.Warn(ctx, "cache lookup failed; fetching", logging.Err(err))
		return nil, false
	case !ok:
		p.opts.Metrics.ObserveCacheLookup(source, observability.CacheMiss)
		log.Info(ctx, "no fresh cached catalog; fetching")
		return nil, false
	}

	data, err := os.ReadFile(path)
	if err != nil {
		p.opts.Metrics.ObserveCacheLookup(source, observability.CacheError)
		log.Warn(ctx, "cached catalog unreadable; fetching", logging.String("file", path), logging.Err(err))
		return nil, false
	}
	p.opts.Metrics.ObserveCacheLookup(source, observability.CacheHit)
	log.Info(ctx, "using cached catalog", logging.String("file", path))
	return data, true
}

func (p *Pipeline) downloadCatalog(ctx context.Context, log logging.Logger) ([]byte, error) {
	const source = core.SourceSpaceTrack
	start := p.clock.Now()
	err := p.opts.Catalog.Authenticate(ctx)
	p.opts.Metrics.ObserveFetch(source, err, p.clock.Now().Sub(start))
	if err != nil {
		return nil, err
	}

	start = p.clock.Now()
	payload, err := p.opts.Catalog.FetchCatalog(ctx)
	p.opts.Metrics.ObserveFetch(source, err, p.clock.Now().Sub(start))
	if err != nil {
		return nil, err
	}
	log.Info(ctx, "downloaded catalog", logging.Int("bytes", len(payload)))
	return payload, nil
}

func (p *Pipeline) pageFunc(log logging.Logger) core.PageFunc[json.RawMessage] {
	const source = core.SourceDiscos
	return func(ctx context.Context, size, number int) (core.Page[json.RawMessage], error) {
		start := p.clock.Now()
		page, err := p.opts.Objects.FetchPage(ctx, size, number)
		p.opts.Metrics.ObserveFetch(source, err, p.clock.Now().Sub(start))
		if err != nil {
			return page, err
		}
		p.opts.Metrics.AddPages(source, 1)
		total := "?"
		if page.TotalPages != nil {
			total = fmt.Sprint(*page.TotalPages)
		}
		log.Debug(ctx, "fetched page",
			logging.Int("page", number),
			logging.String("total_pages", total),
			logging.Int("items", len(page.Items)),
		)
		return page, nil
	}
}

// persist writes payload through the store. Failure is logged and counted
// only; the caller keeps using the in-memory payload.
func (p *Pipeline) persist(ctx context.Context, log logging.Logger, source, prefix, ext string, payload []byte) {
	if p.opts.Store == nil {
		return
	}
	path, err := p.opts.Store.Save(prefix, ext, payload)
	if err != nil {
		p.opts.Metrics.IncPersistFailure(source)
		log.Error(ctx, "could not persist payload", logging.String("file", path), logging.Err(err))
		return
	}
	log.Info(ctx, "persisted payload", logging.String("file", path), logging.Int("bytes", len(payload)))
}

func (p *Pipeline) mapXML(ctx context.Context, log logging.Logger, payload []byte) ([]model.Record, error) {
	ctx, span := p.tracer.Start(ctx, "map.xml")
	records, stats, err := core.NewMapper(log).MapXML(ctx, bytes.NewReader(payload), core.SpaceTrackOMM)
	observability.EndSpan(span, err)
	if err != nil {
		return nil, err
	}
	p.opts.Metrics.ObserveMapping(core.SourceSpaceTrack, stats.Records, stats.Dropped)
	return records, nil
}

func (p *Pipeline) mapJSON(ctx context.Context, log logging.Logger, payload []byte) ([]model.Record, error) {
	ctx, span := p.tracer.Start(ctx, "map.json")
	records, stats, err := core.NewMapper(log).MapJSON(ctx, bytes.NewReader(payload), core.DiscosObjects)
	observability.EndSpan(span, err)
	if err != nil {
		return nil, err
	}
	p.opts.Metrics.ObserveMapping(core.SourceDiscos, stats.Records, stats.Dropped)
	return records, nil
}
