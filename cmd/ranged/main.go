package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/fieldsignals/georange/core"
	"github.com/fieldsignals/georange/internal/api"
	"github.com/fieldsignals/georange/internal/feed"
	"github.com/fieldsignals/georange/internal/logging"
	"github.com/fieldsignals/georange/internal/observability"
)

func main() {
	listenAddr := flag.String("listen-addr", ":8080", "TCP address the API server listens on")
	metricsAddr := flag.String("metrics-addr", ":9090", "HTTP address for Prometheus /metrics")
	agentsPath := flag.String("agents", "configs/agents.json", "Path to a JSON agent deployment file")
	refresh := flag.Duration("refresh", 30*time.Second, "agent deployment refresh interval (0 disables)")
	flag.Parse()

	log := logging.NewFromEnv()
	ctx := context.Background()

	collector, err := observability.NewEngineCollector(nil)
	if err != nil {
		log.Error(ctx, "failed to initialise metrics collector", logging.Err(err))
		os.Exit(1)
	}

	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfigFromEnv(), log)
	if err != nil {
		log.Error(ctx, "failed to initialise tracing", logging.Err(err))
		os.Exit(1)
	}

	metricsSrv := serveMetrics(*metricsAddr, collector, log)

	engine := core.NewEngine(
		core.WithLogger(log),
		core.WithMetricsRecorder(collector),
	)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	if *agentsPath != "" {
		refresher := &feed.RosterRefresher{
			Engine:   engine,
			Path:     *agentsPath,
			Interval: *refresh,
			Log:      log,
		}
		if err := refresher.RefreshOnce(runCtx); err != nil {
			log.Warn(ctx, "starting with an empty roster", logging.Err(err))
		}
		if *refresh > 0 {
			go refresher.Run(runCtx)
		}
	}

	server := api.NewServer(engine, log)
	hub := api.NewHub(engine, log)
	router := api.NewRouter(server, hub, collector, log)

	srv := &http.Server{
		Addr:    *listenAddr,
		Handler: otelhttp.NewHandler(router, "georange-api"),
	}

	log.Info(ctx, "starting range API server", logging.String("addr", *listenAddr))
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error(ctx, "API server exited", logging.Err(err))
		}
	}()

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	<-stopCtx.Done()

	log.Info(ctx, "shutting down range API server")
	cancel()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	_ = srv.Shutdown(shutdownCtx)
	if metricsSrv != nil {
		_ = metricsSrv.Shutdown(shutdownCtx)
	}
	observability.ShutdownWithTimeout(context.Background(), shutdownTracing, log)
}

func serveMetrics(addr string, collector *observability.EngineCollector, log logging.Logger) *http.Server {
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
