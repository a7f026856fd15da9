package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/signalsfoundry/spade/internal/cache"
	"github.com/signalsfoundry/spade/internal/config"
	"github.com/signalsfoundry/spade/internal/fetch"
	"github.com/signalsfoundry/spade/internal/ingest"
	"github.com/signalsfoundry/spade/internal/logging"
	"github.com/signalsfoundry/spade/internal/observability"
	"github.com/signalsfoundry/spade/internal/orbit"
	"github.com/signalsfoundry/spade/internal/source/discos"
	"github.com/signalsfoundry/spade/internal/source/spacetrack"
	"github.com/signalsfoundry/spade/model"
	"github.com/signalsfoundry/spade/timectrl"
)

// Options are the command line settings.
type Options struct {
	ConfigPath string
	EnvFile    string
	Sources    string
	Propagate  int
	Observer   string
}

func main() {
	var opts Options
	flag.StringVar(&opts.ConfigPath, "config", "", "Path to a YAML config file (optional)")
	flag.StringVar(&opts.EnvFile, "env", ".env", "Path to a .env file with credentials (skipped if absent)")
	flag.StringVar(&opts.Sources, "source", "", "Comma separated sources to ingest (space-track, discos); overrides config")
	flag.IntVar(&opts.Propagate, "propagate", 0, "Propagate up to N ingested element sets to their epoch with SGP4 and print the result")
	flag.StringVar(&opts.Observer, "observer", "", "Ground site lat,lon[,alt_km]; adds elevation and range to -propagate output")
	flag.Parse()

	log := logging.NewFromEnv()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, opts, log, os.Stdout); err != nil {
		log.Error(ctx, "spade run failed", logging.Err(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, opts Options, log logging.Logger, stdout io.Writer) error {
	cfg, err := config.Load(opts.ConfigPath, opts.EnvFile)
	if err != nil {
		return err
	}
	if opts.Sources != "" {
		cfg.Sources = config.SplitSources(opts.Sources)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	var observer *orbit.Observer
	if opts.Observer != "" {
		o, err := orbit.ParseObserver(opts.Observer)
		if err != nil {
			return err
		}
		observer = &o
	}

	shutdown, err := observability.InitTracing(ctx, cfg.Tracing, log)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdown, log)

	collector, err := observability.NewIngestCollector(prometheus.NewRegistry())
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}

	client := fetch.New(
		fetch.WithTimeout(cfg.HTTP.Timeout),
		fetch.WithBodyLimit(cfg.HTTP.BodyLimit),
	)
	clock := timectrl.System()
	pipeline := ingest.New(ingest.Options{
		Catalog: spacetrack.New(client, spacetrack.Config{
			AuthURL:    cfg.SpaceTrack.AuthURL,
			CatalogURL: cfg.SpaceTrack.CatalogURL,
			Username:   cfg.SpaceTrack.Username,
			Password:   cfg.SpaceTrack.Password,
		}),
		Objects:     discos.New(client, cfg.Discos.BaseURL, cfg.Discos.Token),
		Gate:        cache.NewGate(cfg.DataDir, clock, log),
		Store:       cache.NewStore(cfg.DataDir, clock, cfg.Cache.MaxFiles),
		CacheMaxAge: cfg.SpaceTrack.CacheMaxAge,
		PageSize:    cfg.Discos.PageSize,
		Clock:       clock,
		Metrics:     collector,
		Log:         log,
	})

	log.Info(ctx, "starting ingest", logging.Any("sources", cfg.Sources), logging.String("data_dir", cfg.DataDir))
	results, runErr := pipeline.Run(ctx, cfg.Sources...)

	for _, source := range cfg.Sources {
		records, ok := results[source]
		if !ok {
			fmt.Fprintf(stdout, "%s\tfailed\n", source)
			continue
		}
		fmt.Fprintf(stdout, "%s\t%d records\n", source, len(records))
		if opts.Propagate > 0 {
			propagateSample(ctx, log, stdout, records, opts.Propagate, observer)
		}
	}

	if err := collector.Push(ctx, cfg.Metrics.PushgatewayURL, cfg.Metrics.Job); err != nil {
		log.Warn(ctx, "metrics push failed", logging.Err(err))
	}
	return runErr
}

// propagateSample runs SGP4 at the epoch of up to limit records that carry
// mean elements and prints the sub-satellite point of each.
func propagateSample(ctx context.Context, log logging.Logger, w io.Writer, records []model.Record, limit int, observer *orbit.Observer) {
	done := 0
	for _, r := range records {
		if done >= limit {
			return
		}
		if r.Epoch == nil {
			continue
		}
		p, err := orbit.NewPropagator(r)
		if err != nil {
			log.Debug(ctx, "skipping propagation", logging.String("designator", r.InternationalDesignator), logging.Err(err))
			continue
		}
		st, err := p.At(*r.Epoch)
		if err != nil {
			log.Warn(ctx, "propagation failed", logging.String("designator", r.InternationalDesignator), logging.Err(err))
			continue
		}
		fmt.Fprintf(w, "  %-11s lat %8.3f lon %9.3f alt %9.1f km",
			r.InternationalDesignator, st.Latitude, st.Longitude, st.Altitude)
		if observer != nil {
			el, rng, visible := observer.Look(st)
			fmt.Fprintf(w, "  el %6.2f range %9.1f km visible=%t", el, rng, visible)
		}
		fmt.Fprintln(w)
		done++
	}
}
