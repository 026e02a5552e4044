package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/distriweb/storefront/api/routes"
	cartsvc "github.com/distriweb/storefront/internal/cart"
	"github.com/distriweb/storefront/internal/catalog"
	"github.com/distriweb/storefront/internal/filter"
	"github.com/distriweb/storefront/internal/orders"
	"github.com/distriweb/storefront/internal/register"
	"github.com/distriweb/storefront/internal/session"
	"github.com/distriweb/storefront/internal/upstream"
	"github.com/distriweb/storefront/pkg/config"
	"github.com/distriweb/storefront/pkg/logger"
	"github.com/distriweb/storefront/pkg/metrics"
	"github.com/distriweb/storefront/pkg/storage"
)

const shutdownTimeout = 10 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "storefront"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "storefront",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "storefront stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := newStore(ctx, cfg, logg)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	upstreamMetrics := metrics.NewUpstreamMetrics(registry)

	client, err := upstream.NewClient(cfg.Upstream, store, logg, upstreamMetrics)
	if err != nil {
		return multierr.Append(err, store.Close())
	}

	sess, err := session.NewStore(store, client, logg)
	if err != nil {
		return multierr.Append(err, store.Close())
	}
	client.OnSessionRevoked(sess.HandleRevoked)

	cart, err := cartsvc.NewStore(store, logg)
	if err != nil {
		return multierr.Append(err, store.Close())
	}

	if err := sess.Restore(ctx); err != nil {
		logg.Warn(logg.WithField(ctx, "error", err.Error()), "session restore failed, starting logged out")
	}
	if err := cart.Restore(ctx); err != nil {
		logg.Warn(logg.WithField(ctx, "error", err.Error()), "cart restore failed, starting empty")
	}

	filters := filter.NewStore()

	catalogService, err := catalog.NewService(client, filters, logg)
	if err != nil {
		return multierr.Append(err, store.Close())
	}

	orderWorkflow, err := orders.NewWorkflow(client, sess, cart, logg)
	if err != nil {
		return multierr.Append(err, store.Close())
	}

	registerService, err := register.NewService(client, logg)
	if err != nil {
		return multierr.Append(err, store.Close())
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			store,
			client,
			sess,
			cart,
			filters,
			catalogService,
			orderWorkflow,
			registerService,
			registry,
		),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logg.Info(logg.WithFields(ctx, map[string]any{
			"env":     cfg.App.Env,
			"addr":    addr,
			"backend": cfg.Storage.Backend,
		}), "starting storefront server")
		serveErr <- server.ListenAndServe()
	}()

	var runErr error
	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			runErr = err
		}
	case <-ctx.Done():
		logg.Info(context.Background(), "shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			runErr = multierr.Append(runErr, err)
		}
	}

	if err := store.Close(); err != nil {
		runErr = multierr.Append(runErr, err)
	}
	return runErr
}

func newStore(ctx context.Context, cfg *config.Config, logg *logger.Logger) (storage.Store, error) {
	if cfg.Storage.IsRedis() {
		return storage.NewRedis(ctx, cfg.Redis)
	}
	return storage.NewSQLite(ctx, cfg.Storage, logg)
}
