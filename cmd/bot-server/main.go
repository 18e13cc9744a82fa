package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"boltalka-bot/internal/bot"
	"boltalka-bot/internal/config"
	"boltalka-bot/internal/crocodile"
	"boltalka-bot/internal/karma"
	"boltalka-bot/internal/logging"
	"boltalka-bot/internal/store"
	"boltalka-bot/internal/telegram"
	httptransport "boltalka-bot/internal/transport/http"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.LoadApp()
	if err != nil {
		panic(err)
	}
	logging.Init(cfg.Log)

	if err := run(ctx, cfg.Server); err != nil {
		log.Fatal().Err(err).Msg("bot server stopped")
	}
}

func run(ctx context.Context, cfg config.ServerConfig) error {
	st, err := store.New(cfg.PostgresDSN)
	if err != nil {
		return fmt.Errorf("store init: %w", err)
	}
	defer st.Close()
	if err := waitFor(ctx, "postgres", st.Ping); err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	catalog := crocodile.NewCatalog(st)
	if _, err := catalog.SeedIfEmpty(ctx); err != nil {
		return fmt.Errorf("seed words: %w", err)
	}

	throttle, closeThrottle, err := newThrottle(ctx, cfg.RedisURL)
	if err != nil {
		return err
	}
	defer closeThrottle()

	tg, err := telegram.NewClient(telegram.Config{
		BaseURL:    cfg.TelegramAPIURL,
		Token:      cfg.BotToken,
		Timeout:    cfg.TelegramTimeout,
		MaxRetries: cfg.TelegramMaxRetries,
	})
	if err != nil {
		return fmt.Errorf("telegram client: %w", err)
	}
	botID, err := telegram.BotIDFromToken(cfg.BotToken)
	if err != nil {
		return fmt.Errorf("parse bot token: %w", err)
	}

	ledger := karma.New(st)
	stats := crocodile.NewStats(st)
	manager := crocodile.NewManager(crocodile.Deps{
		Sessions: st,
		Catalog:  catalog,
		Stats:    stats,
		Karma:    ledger,
		Throttle: throttle,
		Metrics:  crocodile.NewMetrics(reg),
	})
	sweeper := crocodile.NewSweeper(manager, bot.NewTimeoutNotifier(tg, cfg.TelegramTimeout))

	dispatcher := bot.New(bot.Deps{
		Messenger:   tg,
		Game:        manager,
		Words:       catalog,
		Leaderboard: stats,
		Karma:       ledger,
		BotID:       botID,
		BotUsername: cfg.BotUsername,
	})

	r := httptransport.NewRouter(httptransport.RouterDeps{
		Updates:        dispatcher,
		DB:             st,
		Gatherer:       reg,
		Metrics:        httptransport.NewMetrics(reg),
		WebhookSecret:  cfg.WebhookSecret,
		HandlerTimeout: cfg.HandlerTimeout,
	})
	httptransport.LogRoutes(r)

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("http listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return sweeper.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down http server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// newThrottle picks the Redis hint throttle when a URL is configured and the
// in-process one otherwise.
func newThrottle(ctx context.Context, redisURL string) (crocodile.HintThrottle, func(), error) {
	if redisURL == "" {
		log.Info().Msg("hint throttle: in-memory")
		return crocodile.NewMemoryThrottle(crocodile.HintCooldown), func() {}, nil
	}
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opt)
	ping := func(ctx context.Context) error { return client.Ping(ctx).Err() }
	if err := waitFor(ctx, "redis", ping); err != nil {
		_ = client.Close()
		return nil, nil, err
	}
	log.Info().Msg("hint throttle: redis")
	return crocodile.NewRedisThrottle(client, crocodile.HintCooldown), func() { _ = client.Close() }, nil
}

// waitFor retries ping with exponential backoff for up to a minute.
func waitFor(ctx context.Context, name string, ping func(context.Context) error) error {
	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = time.Minute
	err := backoff.Retry(func() error {
		if err := ping(ctx); err != nil {
			log.Warn().Err(err).Str("dependency", name).Msg("not reachable yet; retrying")
			return err
		}
		return nil
	}, backoff.WithContext(b, ctx))
	if err != nil {
		return fmt.Errorf("%s ping: %w", name, err)
	}
	log.Info().Str("dependency", name).Msg("connected")
	return nil
}
