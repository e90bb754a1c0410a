package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/itbasis/go-clock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/okian/playoffdraft/internal/adapters/http/api"
	"github.com/okian/playoffdraft/internal/adapters/http/ws"
	"github.com/okian/playoffdraft/internal/adapters/mq/broker"
	"github.com/okian/playoffdraft/internal/adapters/repository"
	"github.com/okian/playoffdraft/internal/adapters/scheduler"
	service "github.com/okian/playoffdraft/internal/app"
	"github.com/okian/playoffdraft/internal/config"
	"github.com/okian/playoffdraft/internal/domain/realtime"
	"github.com/okian/playoffdraft/pkg/logger"
	"github.com/okian/playoffdraft/pkg/metrics"
)

// HTTP server timeout constants. There is no write timeout: the event stream is
// long-lived and other routes are bounded by the request timeout middleware.
const (
	readHeaderTimeout      = 5 * time.Second
	idleTimeout            = 60 * time.Second
	shutdownTimeout        = 30 * time.Second
	systemMetricsInterval  = 10 * time.Second
	serviceMetricsInterval = 15 * time.Second
)

func main() {
	// Default Go collectors are not registered on the custom registry.
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	if err := run(ctx, cfg, log); err != nil {
		log.Error(ctx, "draft server failed", logger.Error(err))
		os.Exit(1)
	}
}

// application is the wired process: storage, event bus, service, sweep and router.
type application struct {
	store   repository.Store
	bus     *broker.Broker
	svc     *service.Service
	sweep   *scheduler.Scheduler
	handler http.Handler
	logger  logger.Logger
}

// build wires every component from cfg. Nothing is started.
func build(ctx context.Context, cfg *config.Config, log logger.Logger) (*application, error) {
	store, err := openStore(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	bus := broker.New(
		broker.WithBufferSize(cfg.BrokerBuffer),
		broker.WithLog(realtime.NewLog(cfg.EventLogSize)),
		broker.WithLogger(log.Named("broker")),
	)
	svc := service.New(store,
		service.WithPublisher(bus),
		service.WithClock(clock.New()),
		service.WithLogger(log.Named("service")),
		service.WithTotalSlots(cfg.TotalSlots),
		service.WithDefaultBudget(cfg.DefaultBudget),
		service.WithRecalcWorkers(cfg.RecalcWorkers),
		service.WithRecalcBatchSize(cfg.RecalcBatchSize),
		service.WithBootstrapAdmin(cfg.BootstrapAdmin),
	)

	a := &application{store: store, bus: bus, svc: svc, logger: log}
	if cfg.RecalcSchedule != "" {
		a.sweep, err = scheduler.New(cfg.RecalcSchedule, svc, scheduler.WithLogger(log.Named("scheduler")))
		if err != nil {
			store.Close()
			return nil, err
		}
	}

	stream := ws.NewHandler(bus, svc,
		ws.WithSeenSize(cfg.DedupeSize),
		ws.WithLogger(log.Named("ws")),
	)
	a.handler = api.NewServer(svc,
		api.WithEventStream(stream),
		api.WithRequestTimeout(cfg.RequestTimeout),
		api.WithLogger(log.Named("http")),
	).Routes()

	if cfg.PlayersFile != "" {
		players, err := config.LoadPlayers(ctx, cfg.PlayersFile)
		if err != nil {
			store.Close()
			return nil, err
		}
		if err := svc.SeedPlayers(ctx, players); err != nil {
			store.Close()
			return nil, err
		}
	}
	return a, nil
}

func openStore(ctx context.Context, cfg *config.Config, log logger.Logger) (repository.Store, error) {
	opts := []repository.Option{
		repository.WithTotalSlots(cfg.TotalSlots),
		repository.WithClock(clock.New()),
		repository.WithLogger(log.Named("repository")),
	}
	if cfg.DatabaseURL == "" {
		log.Info(ctx, "using in-memory store")
		return repository.NewMemoryStore(opts...), nil
	}
	return repository.NewPostgresStore(ctx, cfg.DatabaseURL, opts...)
}

// start launches the background parts.
func (a *application) start(ctx context.Context) error {
	if err := a.svc.Start(ctx); err != nil {
		return err
	}
	if a.sweep != nil {
		a.sweep.Start(ctx)
	}
	return nil
}

// stop tears down in reverse order of start.
func (a *application) stop(ctx context.Context) {
	if a.sweep != nil {
		if err := a.sweep.Stop(ctx); err != nil {
			a.logger.Warn(ctx, "sweep did not stop cleanly", logger.Error(err))
		}
	}
	if err := a.svc.Stop(ctx); err != nil {
		a.logger.Warn(ctx, "service did not stop cleanly", logger.Error(err))
	}
	_ = a.bus.Close()
	a.store.Close()
}

func run(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	a, err := build(ctx, cfg, log)
	if err != nil {
		return err
	}
	if err := a.start(ctx); err != nil {
		a.stop(context.Background())
		return err
	}

	go startSystemMetricsUpdater(ctx)
	go startServiceMetricsUpdater(ctx, a.svc)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           a.handler,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}
	serveErr := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			a.stop(context.Background())
			return err
		}
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	// Closing the bus ends open event streams, which Shutdown does not wait for.
	_ = a.bus.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	a.stop(shutdownCtx)
	log.Info(ctx, "server stopped")
	return nil
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// startServiceMetricsUpdater refreshes the draft gauges, which Stats updates as it counts.
func startServiceMetricsUpdater(ctx context.Context, svc *service.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := svc.Stats(ctx); err != nil {
				metrics.RecordErrorByComponent("main", "stats_failed")
			}
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())
}
