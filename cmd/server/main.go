package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"eldcore/internal/hos/app"
	"eldcore/internal/hos/coordinator"
	"eldcore/internal/hos/handler"
	hosmetrics "eldcore/internal/hos/metrics"
	"eldcore/internal/hos/notify"
	"eldcore/internal/platform/config"
	"eldcore/internal/platform/httpserver"
	"eldcore/internal/platform/kafka"
	"eldcore/internal/platform/logger"
	"eldcore/internal/platform/metrics"
	"eldcore/pkg/platform/circuit"
	"eldcore/pkg/platform/httputil"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal/hos.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	log := logger.New(cfg.Log)

	ruleSet, err := config.LoadRuleSet(cfg.RuleSetPath)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	hosMetrics := hosmetrics.New(reg)
	httpMetrics := metrics.NewHTTP(reg)

	stores, err := app.OpenStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := stores.Close(); err != nil {
			log.Error("failed to close stores", "error", err)
		}
	}()

	sink, closeSink, err := violationSink(ctx, cfg.Kafka, log, hosMetrics)
	if err != nil {
		return err
	}
	defer closeSink()

	dispatcher := notify.NewDispatcher(sink,
		notify.WithLogger(log),
		notify.WithMetrics(hosMetrics),
		notify.WithBuffer(cfg.Coordinator.NotifyBufferSize),
		notify.WithBatching(cfg.Coordinator.NotifyBatchSize, cfg.Coordinator.NotifyFlushEvery),
	)

	coord, err := coordinator.New(stores.Events, stores.Cache, stores.Violations, ruleSet,
		coordinator.WithLogger(log),
		coordinator.WithMetrics(hosMetrics),
		coordinator.WithNotifier(dispatcher),
		coordinator.WithPersistTimeout(cfg.Coordinator.PersistTimeout),
	)
	if err != nil {
		return err
	}

	router := chi.NewRouter()
	router.Use(httpMetrics.Middleware)
	router.Get("/healthz", healthz(stores))
	if cfg.Server.MetricsAddr == "" {
		router.Handle("/metrics", metrics.Handler(reg))
	}
	handler.New(coord, log, handler.WithRequestTimeout(cfg.Server.RequestTimeout)).Register(router)

	serverOpts := []httpserver.Option{
		httpserver.WithRequestTimeout(cfg.Server.RequestTimeout),
		httpserver.WithLogger(log),
	}
	servers := []*http.Server{httpserver.New(cfg.Server.Addr, router, serverOpts...)}
	if cfg.Server.MetricsAddr != "" {
		mux := chi.NewRouter()
		mux.Handle("/metrics", metrics.Handler(reg))
		servers = append(servers, httpserver.New(cfg.Server.MetricsAddr, mux, serverOpts...))
	}

	// The dispatcher outlives the HTTP servers so violations recorded by in-flight
	// requests are still flushed during shutdown.
	dispatchCtx, stopDispatch := context.WithCancel(context.WithoutCancel(ctx))
	dispatchDone := make(chan error, 1)
	go func() { dispatchDone <- dispatcher.Run(dispatchCtx) }()

	g, gctx := errgroup.WithContext(ctx)
	for _, srv := range servers {
		g.Go(func() error {
			log.Info("listening", "addr", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("serve %s: %w", srv.Addr, err)
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down", "timeout", cfg.Server.ShutdownTimeout)
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), cfg.Server.ShutdownTimeout)
		defer cancel()
		var errs []error
		for _, srv := range servers {
			errs = append(errs, srv.Shutdown(shutdownCtx))
		}
		return errors.Join(errs...)
	})

	err = g.Wait()
	stopDispatch()
	if derr := <-dispatchDone; derr != nil {
		err = errors.Join(err, derr)
	}
	log.Info("stopped", "pending_notifications", dispatcher.Pending())
	return err
}

// violationSink publishes to Kafka when brokers are configured and to the log otherwise.
// A Kafka outage diverts batches to the log until the broker recovers.
func violationSink(ctx context.Context, cfg config.KafkaConfig, log *slog.Logger, m *hosmetrics.Metrics) (notify.Sink, func(), error) {
	client, err := kafka.NewClient(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	if client == nil {
		log.Warn("no kafka brokers configured, violations are logged only")
		return notify.NewLogSink(log), func() {}, nil
	}
	if cfg.EnsureTopic {
		if err := kafka.EnsureTopic(ctx, client, cfg); err != nil {
			client.Close()
			return nil, nil, err
		}
	}
	breaker := circuit.New("kafka", circuit.WithFailureThreshold(5), circuit.WithCooldown(30*time.Second))
	sink := notify.NewFallbackSink(notify.NewKafkaSink(client, cfg.ViolationsTopic), notify.NewLogSink(log), breaker,
		notify.WithFallbackLogger(log),
		notify.WithFallbackMetrics(m),
	)
	return sink, client.Close, nil
}

func healthz(stores *app.Stores) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := stores.Health(r.Context()); err != nil {
			httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
