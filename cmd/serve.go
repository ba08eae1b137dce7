package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"credit-sales/agent"
	"credit-sales/config"
	"credit-sales/creditapi"
	httpLayer "credit-sales/http"
	"credit-sales/policy"
	"credit-sales/repository"
	"credit-sales/service"
)

const redisPingTimeout = 2 * time.Second

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the credit sales HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, a.cfg, a.logger)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	repo, closeRepo, err := openQuoteRepository(cfg.Storage)
	if err != nil {
		return err
	}
	defer closeRepo()

	cache, closeCache := openCache(ctx, cfg.Cache, logger)
	defer closeCache()

	catalog, err := policy.LoadFile(cfg.Policy.File)
	if err != nil {
		return err
	}

	loanService := service.NewLoanService(repo, cache,
		service.WithLogger(logger),
		service.WithCacheTTL(cfg.Cache.TTL))
	termService := service.NewTermRecommendationService(loanService, logger)

	client := creditapi.NewClient(creditapi.Config{
		BaseURL:   cfg.CreditAPI.BaseURL,
		APIKey:    cfg.CreditAPI.APIKey,
		APISecret: cfg.CreditAPI.APISecret,
		Timeout:   cfg.CreditAPI.Timeout,
	}, logger)
	var submitter agent.ApplicationSubmitter
	if client.Configured() {
		submitter = client
	}
	tools := agent.NewCreditSalesToolset(loanService, catalog, submitter, logger)

	rateLimiter := httpLayer.NewRateLimiter(cfg.RateLimit.Capacity, cfg.RateLimit.Window)
	defer rateLimiter.Stop()

	server := httpLayer.NewServer(cfg.Server, httpLayer.NewRouter(httpLayer.Routes{
		Loans:   httpLayer.NewLoanHandler(loanService, logger),
		Terms:   httpLayer.NewTermRecommendationHandler(termService, logger),
		Tools:   httpLayer.NewToolHandler(tools, logger),
		Credit:  httpLayer.NewCreditHandler(client, logger),
		Limiter: rateLimiter,
		Logger:  logger,
	}))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("API listening",
			zap.String("addr", cfg.Server.Addr),
			zap.String("storage", cfg.Storage.Driver),
			zap.String("cache", cfg.Cache.Driver),
			zap.Bool("credit_api", client.Configured()))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("starting server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("server exited")
	return nil
}

func openQuoteRepository(cfg config.StorageConfig) (repository.QuoteRepository, func(), error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		repo, err := repository.OpenSQLiteQuoteRepository(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return repo, func() { _ = repo.Close() }, nil
	case config.DriverMemory, "":
		return repository.NewQuoteRepositoryMemory(), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// openCache never fails: an unreachable Redis only costs cache misses.
func openCache(ctx context.Context, cfg config.CacheConfig, logger *zap.Logger) (repository.CacheRepository, func()) {
	if cfg.Driver != config.DriverRedis {
		return repository.NewMemoryCache(), func() {}
	}

	cache := repository.NewRedisCache(cfg.RedisAddr, cfg.Password, cfg.DB, cfg.Prefix)
	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()
	if err := cache.Ping(pingCtx); err != nil {
		logger.Warn("redis unreachable, quotes will not be cached until it recovers",
			zap.String("addr", cfg.RedisAddr), zap.Error(err))
	}
	return cache, func() { _ = cache.Close() }
}
