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
	chimw "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	"github.com/Strob0t/CostLens/internal/adapter/azauth"
	"github.com/Strob0t/CostLens/internal/adapter/azure"
	cfhttp "github.com/Strob0t/CostLens/internal/adapter/http"
	cfmcp "github.com/Strob0t/CostLens/internal/adapter/mcp"
	"github.com/Strob0t/CostLens/internal/adapter/memcache"
	cfnats "github.com/Strob0t/CostLens/internal/adapter/nats"
	cfotel "github.com/Strob0t/CostLens/internal/adapter/otel"
	"github.com/Strob0t/CostLens/internal/adapter/ristretto"
	"github.com/Strob0t/CostLens/internal/config"
	"github.com/Strob0t/CostLens/internal/logger"
	"github.com/Strob0t/CostLens/internal/middleware"
	"github.com/Strob0t/CostLens/internal/port/cache"
	"github.com/Strob0t/CostLens/internal/resilience"
	"github.com/Strob0t/CostLens/internal/service"
)

const version = "0.1.0"

func main() {
	args := os.Args[1:]
	cmd := "serve"
	if len(args) > 0 {
		cmd, args = args[0], args[1:]
	}

	var err error
	switch cmd {
	case "serve":
		err = run()
	case "hash-key":
		err = runHashKey(args)
	case "help", "--help", "-h":
		printHelp()
	default:
		printHelp()
		err = fmt.Errorf("unknown command: %s", cmd)
	}
	if err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func printHelp() {
	fmt.Fprintf(os.Stderr, `Usage: costlens [command]

Commands:
  serve      Run the HTTP API (default)
  hash-key   Print a bcrypt hash of an API key for server.api_key_hash
  help       Show this help message
`)
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log, closeLog := logger.New(cfg.Logging)
	defer closeLog.Close()
	slog.SetDefault(log)

	slog.Info("config loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Logging.Level,
		"subscription_id", cfg.Azure.SubscriptionID,
		"cache_backend", cfg.Cache.Backend,
		"cache_ttl", cfg.Cache.TTL,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Observability ---

	shutdownOTEL, err := cfotel.Setup(ctx, cfg.OTEL)
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTEL(sctx); err != nil {
			slog.Warn("otel shutdown", "error", err)
		}
	}()

	metrics, err := cfotel.NewMetrics()
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	// --- Billing API ---

	tokens, err := azauth.TokenSource(ctx, cfg.Azure)
	if err != nil {
		return fmt.Errorf("credentials: %w", err)
	}

	client := azure.NewClient(tokens, azure.Options{
		BaseURL:           cfg.Azure.BaseURL,
		SubscriptionID:    cfg.Azure.SubscriptionID,
		Timeout:           cfg.Query.Timeout,
		MaxRetries:        cfg.Query.MaxRetries,
		DefaultRetryAfter: cfg.Query.DefaultRetryAfter,
		Limiter:           rate.NewLimiter(rate.Limit(cfg.Query.RequestsPerSecond), cfg.Query.Burst),
	})
	client.SetMetrics(metrics)
	client.SetBreaker(resilience.NewBreaker(cfg.Breaker.MaxFailures, cfg.Breaker.Timeout,
		resilience.WithNeutral(azure.IsBreakerNeutral),
		resilience.WithStateChange(func(from, to resilience.State) {
			slog.Warn("billing api circuit state changed", "from", from.String(), "to", to.String())
			metrics.RecordBreakerTransition(context.Background(), from.String(), to.String())
		}),
	))

	// --- Services ---

	var publisher *cfnats.Publisher
	if cfg.NATS.URL != "" {
		publisher, err = cfnats.Connect(ctx, cfg.NATS.URL)
		if err != nil {
			return fmt.Errorf("nats: %w", err)
		}
		defer func() {
			if err := publisher.Close(); err != nil {
				slog.Warn("nats close", "error", err)
			}
		}()
	}

	reportCache, closeCache, err := newCache(cfg.Cache)
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	defer closeCache()

	costSvc := service.NewCostService(client, reportCache, service.Subscription{
		ID:   cfg.Azure.SubscriptionID,
		Name: cfg.Azure.SubscriptionName,
	})
	costSvc.SetMetrics(metrics)
	if publisher != nil {
		costSvc.SetPublisher(publisher)
	}

	// --- HTTP ---

	limiter := middleware.NewRateLimiter(cfg.Rate.RequestsPerSecond, cfg.Rate.Burst)
	stopCleanup := limiter.StartCleanup(cfg.Rate.CleanupInterval, cfg.Rate.MaxIdleTime)
	defer stopCleanup()

	auth := middleware.NewAPIKeyAuth(cfg.Server.APIKeyHash)
	if cfg.Server.APIKeyHash == "" {
		slog.Warn("api key auth disabled, set server.api_key_hash to enable")
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(cfotel.HTTPMiddleware(cfg.OTEL.ServiceName))
	r.Use(cfhttp.Logger)
	r.Use(chimw.Recoverer)
	r.Use(cfhttp.SecurityHeaders)
	r.Use(cfhttp.CORS(cfg.Server.CORSOrigin))
	r.Use(limiter.Handler)
	r.Use(auth.Handler)
	r.Use(chimw.Timeout(requestTimeout(cfg.Query)))

	handlers := &cfhttp.Handlers{Cost: costSvc}
	if publisher != nil {
		handlers.Events = publisher
	}
	cfhttp.MountRoutes(r, handlers)

	addr := ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// --- MCP ---

	if cfg.MCP.Enabled {
		mcpSrv := cfmcp.NewServer(
			cfmcp.ServerConfig{Addr: cfg.MCP.Addr, Name: "costlens", Version: version},
			cfmcp.ServerDeps{Costs: costSvc, Middleware: auth.Handler},
		)
		if err := mcpSrv.Start(); err != nil {
			return fmt.Errorf("mcp: %w", err)
		}
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := mcpSrv.Stop(sctx); err != nil {
				slog.Warn("mcp shutdown", "error", err)
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", addr, "version", version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}

// requestTimeout covers every upstream attempt of a report plus the
// backoff between them.
func requestTimeout(q config.Query) time.Duration {
	attempts := time.Duration(q.MaxRetries)
	return q.Timeout*attempts + q.DefaultRetryAfter*(attempts-1) + 5*time.Second
}

// newCache builds the configured report cache backend.
func newCache(cfg config.Cache) (cache.Cache, func(), error) {
	switch cfg.Backend {
	case "ristretto":
		c, err := ristretto.New(cfg.L1MaxSizeMB<<20, cfg.TTL)
		if err != nil {
			return nil, nil, err
		}
		return c, c.Close, nil
	default:
		return memcache.New(cfg.TTL), func() {}, nil
	}
}
