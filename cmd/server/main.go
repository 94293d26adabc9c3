package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"wetime-service/internal/api"
	"wetime-service/internal/bot"
	"wetime-service/internal/config"
	"wetime-service/internal/notify"
	"wetime-service/internal/repo"
	"wetime-service/internal/service"
	"wetime-service/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/slack-go/slack"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "config.yaml", "path to config file")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Load Config
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	// 2. Init Logger
	logger.InitLogger(cfg.Server.Mode)
	defer logger.Log.Sync()

	logger.Log.Info("Starting WeTime...",
		zap.String("mode", cfg.Server.Mode),
		zap.String("store", cfg.Match.Store),
		zap.String("lock", cfg.Match.Lock),
	)

	// 3. Init DB & Redis, only what the configuration asks for
	var db *gorm.DB
	if cfg.Database.DSN != "" {
		if db, err = repo.NewDB(cfg.Database); err != nil {
			logger.Log.Fatal("database init failed", zap.Error(err))
		}
	}
	var rdb *redis.Client
	if cfg.Match.Store == "redis" || cfg.Match.Lock == "redis" {
		if rdb, err = repo.NewRedis(ctx, cfg.Redis); err != nil {
			logger.Log.Fatal("redis init failed", zap.Error(err))
		}
		defer rdb.Close()
	}

	// 4. Chat platform and services
	deps := service.Deps{DB: db, Log: logger.Log}
	if rdb != nil {
		deps.Redis = rdb
	}
	var slackClient *slack.Client
	if cfg.Slack.Enabled {
		if slackClient, err = bot.NewClient(cfg.Slack); err != nil {
			logger.Log.Fatal("slack init failed", zap.Error(err))
		}
		deps.Notifier = notify.NewSlackNotifier(slackClient, logger.Log.Named("notify"))
	} else {
		deps.Notifier = notify.NewLogNotifier(logger.Log.Named("notify"))
	}

	services, err := service.NewContainer(cfg.Match, deps)
	if err != nil {
		logger.Log.Fatal("failed to build services", zap.Error(err))
	}

	var slackBot *bot.Bot
	if slackClient != nil {
		slackBot = bot.New(slackClient, services.Coffee, logger.Log.Named("bot"), cfg.Slack.Debug)
	}
	run(ctx, cfg, services, slackBot)
}

func run(ctx context.Context, cfg *config.Config, services *service.Container, slackBot *bot.Bot) {
	// 5. HTTP: health, metrics, match API
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	api.RegisterRoutes(r, services)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Log.Info("Server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if slackBot != nil {
		g.Go(func() error {
			logger.Log.Info("Slack bot starting")
			if err := slackBot.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("slack bot: %w", err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		logger.Log.Fatal("server stopped with error", zap.Error(err))
	}
	logger.Log.Info("WeTime stopped")
}
