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

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"

	"driverbook/config"
	"driverbook/pkg/api"
	"driverbook/pkg/bot"
	"driverbook/pkg/logger"
	"driverbook/pkg/notify"
	"driverbook/service"
	"driverbook/storage"
	"driverbook/storage/memory"
	"driverbook/storage/postgres"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.ServiceName, cfg.LoggerLevel)
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stg, err := openStorage(ctx, cfg, log)
	if err != nil {
		log.Error("failed to open storage", logger.Error(err))
		os.Exit(1)
	}
	defer stg.Close()

	sessions, closeSessions := openSessions(ctx, cfg, log)
	defer closeSessions()

	notifiers := notify.Multi{}
	if cfg.NatsURL != "" {
		if nc, err := nats.Connect(cfg.NatsURL, nats.Name(cfg.ServiceName)); err == nil {
			defer nc.Drain()
			notifiers = append(notifiers, notify.NewNATSPublisher(nc, cfg.NatsSubject, log))
		} else {
			log.Warning("nats connection failed, events disabled", logger.Error(err))
		}
	}

	var tg *bot.Bot
	if cfg.TelegramBotToken != "" {
		tg, err = bot.New(&cfg, nil, sessions, log)
		if err != nil {
			log.Error("failed to initialize telegram bot", logger.Error(err))
			os.Exit(1)
		}
		notifiers = append(notifiers, tg.Notifier())
	}

	svc := service.New(stg, notifiers, log, service.Options{
		Location: cfg.Location(),
		Retries:  cfg.StoreRetries,
	})
	if tg != nil {
		tg.Svc = svc
	}

	if err := bootstrap(ctx, svc, cfg, log); err != nil {
		log.Error("bootstrap failed", logger.Error(err))
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           api.New(svc, log).Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info("http server listening", logger.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", logger.Error(err))
			stop()
		}
	}()

	go svc.Booking().RunCleanup(ctx, cfg.CleanupInterval, cfg.CleanupMaxAgeDays)

	if tg != nil {
		go tg.Start()
	} else {
		log.Warning("TG_BOT_TOKEN is empty, running without telegram front end")
	}

	<-ctx.Done()
	log.Info("shutting down")

	if tg != nil {
		tg.Stop()
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", logger.Error(err))
	}
}

func openStorage(ctx context.Context, cfg config.Config, log logger.ILogger) (storage.IStorage, error) {
	switch cfg.Storage {
	case config.StorageMemory:
		log.Warning("using in-memory storage, data is lost on restart")
		return memory.New(), nil
	case config.StoragePostgres:
		return postgres.New(ctx, cfg, log)
	}
	return nil, fmt.Errorf("unknown STORAGE %q", cfg.Storage)
}

func openSessions(ctx context.Context, cfg config.Config, log logger.ILogger) (bot.SessionStore, func()) {
	if cfg.RedisHost == "" {
		return bot.NewMemorySessions(), func() {}
	}
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.RedisHost, cfg.RedisPort),
		Password: cfg.RedisPassword,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		log.Warning("redis unavailable, keeping sessions in memory", logger.Error(err))
		_ = client.Close()
		return bot.NewMemorySessions(), func() {}
	}
	return bot.NewRedisSessions(client, bot.DefaultSessionTTL), func() { _ = client.Close() }
}

// bootstrap makes sure an active driver and the default invite code exist.
func bootstrap(ctx context.Context, svc service.IServiceManager, cfg config.Config, log logger.ILogger) error {
	d, err := svc.Slot().EnsureDriver(ctx, cfg.DriverName)
	if err != nil {
		return fmt.Errorf("ensure driver: %w", err)
	}
	if err := svc.Invite().Ensure(ctx, cfg.InviteCode); err != nil {
		return fmt.Errorf("ensure invite: %w", err)
	}
	log.Info("bootstrap done", logger.Int64("driver_id", d.ID))
	return nil
}
