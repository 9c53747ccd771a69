package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/inventory-core/internal/handler"
	"github.com/xenking/inventory-core/internal/repository"
	"github.com/xenking/inventory-core/pkg/health"
	"github.com/xenking/inventory-core/pkg/httpmiddleware"
)

const serviceName = "inventory-api"

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	tracer, err := repository.NewQueryTracer(m.TracerProvider(), m.MeterProvider())
	if err != nil {
		return errors.Wrap(err, "create query tracer")
	}

	// PostgreSQL pool.
	pool, err := repository.NewPool(ctx, cfg.DatabaseURL,
		repository.WithMaxConns(cfg.Database.MaxConns),
		repository.WithMinConns(cfg.Database.MinConns),
		repository.WithMaxConnLifetime(cfg.Database.MaxConnLifetime),
		repository.WithTracer(tracer),
	)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if cfg.ApplySchema {
		if err := repository.ApplySchema(ctx, pool); err != nil {
			return errors.Wrap(err, "apply schema")
		}
		lg.Info("Schema applied")
	}

	// Health check service.
	healthSvc := health.New(lg.Named("health"))
	healthSvc.AddReadinessCheck("postgres", 5*time.Second, health.PingCheck(pool))
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.Start(ctx, cfg.HealthInterval)
	healthSvc.SetReady(true)

	// Stores and the HTTP boundary over them.
	h := handler.NewHandler(
		repository.NewProductRepository(pool),
		repository.NewSupplierRepository(pool),
	)

	mux := http.NewServeMux()
	mux.HandleFunc("/livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("/readyz", healthSvc.ReadyEndpoint)
	mux.Handle("/api/products", h.Products())
	mux.Handle("/api/suppliers", h.Suppliers())

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler:           newServerHandler(ctx, zctx.From(ctx), m, cfg, mux),
	}

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}

// newServerHandler wraps mux with the middleware chain. LogRequests sits
// right under the logger so that requests answered by Recovery, CORS or
// RateLimit still get an access log line.
func newServerHandler(ctx context.Context, lg *zap.Logger, t httpmiddleware.Telemetry, cfg *Config, mux *http.ServeMux) http.Handler {
	routeFinder := httpmiddleware.MakeRouteFinder(mux)
	return httpmiddleware.Wrap(mux,
		httpmiddleware.RequestID(),
		httpmiddleware.InjectLogger(lg),
		httpmiddleware.LogRequests(routeFinder),
		httpmiddleware.Recovery(),
		httpmiddleware.CORS(httpmiddleware.CORSConfig{
			AllowOrigins:     cfg.CORS.Origins,
			AllowHeaders:     []string{"Content-Type", httpmiddleware.RequestIDHeader},
			ExposeHeaders:    []string{httpmiddleware.RequestIDHeader},
			AllowCredentials: cfg.CORS.AllowCredentials,
			MaxAge:           86400,
		}),
		httpmiddleware.RateLimit(ctx, httpmiddleware.RateLimitConfig{
			Rate:    cfg.RateLimit.Rate,
			Burst:   cfg.RateLimit.Burst,
			Methods: []string{http.MethodPost, http.MethodPut, http.MethodDelete},
			IdleTTL: 10 * time.Minute,
		}),
		httpmiddleware.Instrument(serviceName, routeFinder, t),
		httpmiddleware.Labeler(routeFinder),
	)
}
