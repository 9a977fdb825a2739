package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/roeblinglabs/bridgewatch/core"
	"github.com/roeblinglabs/bridgewatch/internal/api"
	"github.com/roeblinglabs/bridgewatch/internal/ingest"
	"github.com/roeblinglabs/bridgewatch/internal/logging"
	"github.com/roeblinglabs/bridgewatch/internal/observability"
	"github.com/roeblinglabs/bridgewatch/internal/watch"
	"github.com/roeblinglabs/bridgewatch/kb"
	"github.com/roeblinglabs/bridgewatch/timectrl"
)

func main() {
	apiAddr := flag.String("api-addr", ":8080", "HTTP address the JSON API listens on")
	metricsAddr := flag.String("metrics-addr", ":9090", "HTTP address for Prometheus /metrics")
	piersPath := flag.String("piers", "", "Path to a JSON pier table; empty uses the built-in Chesapeake Bay Bridge Eastbound table")
	sourceURL := flag.String("source-url", "", "AIS snapshot endpoint; empty polls the snapshot file instead")
	snapshotPath := flag.String("snapshot", "current_ships.json", "Snapshot file path, used as the file source or as the HTTP source's cache")
	userAgent := flag.String("user-agent", "bridgewatch", "User-Agent header sent to the snapshot endpoint")
	interval := flag.Duration("interval", time.Minute, "Refresh interval between analysis runs")
	staleAfter := flag.Duration("stale-after", 10*time.Minute, "Evict vessels unseen for this long; 0 disables eviction")
	fetchTimeout := flag.Duration("fetch-timeout", 30*time.Second, "Per-fetch timeout for the snapshot endpoint")
	flag.Parse()

	log := logging.NewFromEnv()
	ctx := context.Background()

	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfigFromEnv(), log)
	if err != nil {
		log.Error(ctx, "failed to initialise tracing", logging.Err(err))
		os.Exit(1)
	}

	collector, err := observability.NewWatchCollector(nil)
	if err != nil {
		log.Error(ctx, "failed to initialise metrics collector", logging.Err(err))
		os.Exit(1)
	}
	ingestMetrics, err := observability.NewIngestCollector(nil)
	if err != nil {
		log.Error(ctx, "failed to initialise ingest metrics", logging.Err(err))
		os.Exit(1)
	}

	piers := loadPiers(log, *piersPath)
	state := watch.NewState(
		piers,
		kb.NewFleetKB(),
		log,
		watch.WithMetricsRecorder(collector),
		watch.WithStaleAfter(*staleAfter),
	)

	var source ingest.Source
	if *sourceURL != "" {
		source = &ingest.HTTPSource{
			URL:       *sourceURL,
			UserAgent: *userAgent,
			CachePath: *snapshotPath,
			Timeout:   *fetchTimeout,
			Log:       log,
			Metrics:   ingestMetrics,
		}
		log.Info(ctx, "polling AIS endpoint",
			logging.String("url", *sourceURL),
			logging.String("cache", *snapshotPath),
		)
	} else {
		source = ingest.FileSource{Path: *snapshotPath}
		log.Info(ctx, "polling snapshot file", logging.String("path", *snapshotPath))
	}

	refresh := func(tickCtx context.Context) {
		snap, err := source.Fetch(tickCtx)
		if err != nil {
			log.Warn(tickCtx, "snapshot fetch failed", logging.Err(err))
			return
		}
		if _, err := state.ApplySnapshot(tickCtx, snap); err != nil {
			log.Error(tickCtx, "fleet analysis failed", logging.Err(err))
		}
	}

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// Warm up from the source before serving so the API never starts on
	// an empty fleet when data is available.
	refresh(stopCtx)

	controller := timectrl.NewRefreshController(time.Now().UTC(), *interval, timectrl.RealTime)
	controller.AddListener(func(time.Time) { refresh(stopCtx) })
	loopDone := controller.Start(stopCtx)

	apiSrv := serveAPI(*apiAddr, state, log, collector)
	metricsSrv := serveMetrics(*metricsAddr, collector, log)

	<-stopCtx.Done()
	log.Info(ctx, "shutting down")
	<-loopDone

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if apiSrv != nil {
		_ = apiSrv.Shutdown(shutdownCtx)
	}
	if metricsSrv != nil {
		_ = metricsSrv.Shutdown(shutdownCtx)
	}
	observability.ShutdownWithTimeout(context.Background(), shutdownTracing, log)
}

func serveAPI(addr string, state *watch.State, log logging.Logger, collector *observability.WatchCollector) *http.Server {
	srv := &http.Server{
		Addr:    addr,
		Handler: api.NewServer(state, log, collector).Handler(),
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error(context.Background(), "API server exited", logging.Err(err))
		}
	}()

	log.Info(context.Background(), "serving JSON API", logging.String("addr", addr))
	return srv
}

func serveMetrics(addr string, collector *observability.WatchCollector, log logging.Logger) *http.Server {
	if collector == nil {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())

	srv := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Warn(context.Background(), "metrics server exited", logging.Err(err))
		}
	}()

	log.Info(context.Background(), "serving Prometheus metrics", logging.String("addr", addr))
	return srv
}

func loadPiers(log logging.Logger, path string) *core.PierTable {
	if path == "" {
		table := core.ChesapeakeBayBridgeEastbound()
		log.Info(context.Background(), "using built-in pier table", logging.Int("piers", table.Len()))
		return table
	}

	f, err := os.Open(path)
	if err != nil {
		log.Warn(context.Background(), "falling back to built-in pier table",
			logging.String("path", path), logging.Err(err))
		return core.ChesapeakeBayBridgeEastbound()
	}
	defer f.Close()

	table, err := core.LoadPierTable(f)
	if err != nil {
		log.Warn(context.Background(), "failed to parse pier table, using built-in",
			logging.String("path", path), logging.Err(err))
		return core.ChesapeakeBayBridgeEastbound()
	}

	log.Info(context.Background(), "loaded pier table",
		logging.String("path", path),
		logging.Int("piers", table.Len()),
	)
	return table
}
