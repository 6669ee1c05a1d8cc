package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/sessions"
	"github.com/rs/zerolog"

	"surplus-food-marketplace/internal/config"
	"surplus-food-marketplace/internal/database"
	"surplus-food-marketplace/internal/handlers"
	"surplus-food-marketplace/internal/logger"
	"surplus-food-marketplace/internal/middleware"
	"surplus-food-marketplace/internal/repositories"
	"surplus-food-marketplace/internal/server"
	"surplus-food-marketplace/internal/services"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Options{
		Service: "checkout",
		Env:     cfg.Server.Env,
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped with error")
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	// Initialize database connection
	db, err := database.NewConnection(ctx, database.Config{
		URL:          cfg.Database.URL,
		Host:         cfg.Database.Host,
		Port:         cfg.Database.Port,
		User:         cfg.Database.User,
		Password:     cfg.Database.Password,
		DBName:       cfg.Database.DBName,
		SSLMode:      cfg.Database.SSLMode,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
	})
	if err != nil {
		return err
	}
	defer db.Close()
	log.Info().Str("host", cfg.Database.Host).Str("db", cfg.Database.DBName).Msg("database connection established")

	if err := db.RunMigrations(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	store := repositories.NewStore(db.DB)

	var opts []services.CheckoutOption
	var cacheStats handlers.StatsReporter

	if cfg.Redis.URL != "" {
		redisOpts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			return fmt.Errorf("invalid REDIS_URL: %w", err)
		}
		client := redis.NewClient(redisOpts)
		defer client.Close()

		if err := client.Ping(ctx).Err(); err != nil {
			log.Warn().Err(err).Msg("redis unreachable, count cache will miss until it recovers")
		}
		countCache := services.NewRedisCountCache(client,
			services.WithCountTTL(cfg.Redis.CountCacheTTL),
			services.WithCountPrefix(cfg.Redis.CountCachePrefix),
		)
		opts = append(opts, services.WithCountCache(countCache))
		cacheStats = countCache
		log.Info().Dur("ttl", cfg.Redis.CountCacheTTL).Str("prefix", cfg.Redis.CountCachePrefix).Msg("checkout count cache enabled")
	}

	if cfg.Events.AMQPURL != "" {
		publisher, err := services.NewAMQPEventPublisher(cfg.Events.AMQPURL, cfg.Events.Exchange)
		if err != nil {
			return err
		}
		defer publisher.Close()
		opts = append(opts, services.WithEventPublisher(publisher))
		log.Info().Str("exchange", cfg.Events.Exchange).Msg("checkout events enabled")
	}

	checkoutService := services.NewCheckoutService(store, store.Checkouts, log, opts...)
	orderService := services.NewOrderService(store.Orders, log)

	// Create session store
	sessionStore := sessions.NewCookieStore([]byte(cfg.Session.Secret))
	sessionStore.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 30, // 30 days
		HttpOnly: true,
		Secure:   !cfg.Server.IsDevelopment(),
		SameSite: http.SameSiteLaxMode,
	}

	limiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
	stopCleanup := make(chan struct{})
	defer close(stopCleanup)
	limiter.StartCleanup(cfg.HTTP.RateLimitWindow, stopCleanup)

	router := server.NewRouter(server.Dependencies{
		Checkouts:      checkoutService,
		Orders:         orderService,
		Health:         store,
		CacheStats:     cacheStats,
		Identity:       middleware.NewIdentity(sessionStore, cfg.Session.Name, cfg.Server.IsDevelopment()),
		RateLimiter:    limiter,
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		DevSessions:    cfg.Server.IsDevelopment(),
		Logger:         log,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("env", cfg.Server.Env).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}
