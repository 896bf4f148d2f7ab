package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"news_scraper/internal/config"
	"news_scraper/internal/fetch"
	"news_scraper/internal/publisher"
	"news_scraper/internal/render"
	"news_scraper/internal/scheduler"
	"news_scraper/internal/service"
	"news_scraper/internal/source/rss"
	"news_scraper/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	once := flag.Bool("once", false, "run a single pass and exit")
	flag.Parse()

	logger := setupLogger("info")

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger = setupLogger(cfg.LogLevel)

	policy, err := service.ParseUpdatePolicy(cfg.Scrape.UpdatePolicy)
	if err != nil {
		logger.Error("invalid config", "error", err)
		os.Exit(1)
	}

	db, err := sqlx.Connect("postgres", cfg.Database.DSN())
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	if err := postgres.Migrate(ctx, db, logger); err != nil {
		logger.Error("failed to migrate schema", "error", err)
		os.Exit(1)
	}
	logger.Info("connected to database")

	var pub service.Publisher
	if cfg.RabbitMQ.URL != "" {
		rabbitMQ, err := publisher.NewRabbitMQ(publisher.Config{
			URL:        cfg.RabbitMQ.URL,
			Exchange:   cfg.RabbitMQ.Exchange,
			RoutingKey: cfg.RabbitMQ.RoutingKey,
			QueueName:  cfg.RabbitMQ.QueueName,
		}, logger)
		if err != nil {
			logger.Error("failed to connect to rabbitmq", "error", err)
			os.Exit(1)
		}
		defer rabbitMQ.Close()
		pub = rabbitMQ
	}

	renderer, err := render.New(ctx, render.Config{
		Visible:    cfg.Browser.Visible,
		ExecPath:   cfg.Browser.ExecPath,
		NavTimeout: cfg.Browser.NavTimeout,
		Width:      cfg.Browser.Width,
		Height:     cfg.Browser.Height,
	}, logger)
	if err != nil {
		logger.Error("failed to start renderer", "error", err)
		os.Exit(1)
	}
	defer renderer.Close()

	articleStore := postgres.NewArticleStore(db)
	authorStore := postgres.NewAuthorStore(db)
	commentStore := postgres.NewCommentStore(db)
	txManager := postgres.NewTransactionManager(db)

	feedSource := rss.New(rss.Config{
		URL:     cfg.Feed.URL,
		Timeout: cfg.Feed.Timeout,
	}, logger)

	syncService := service.NewSyncService(feedSource, articleStore, pub, policy, logger)

	enrichService := service.NewEnrichService(
		articleStore,
		authorStore,
		fetch.New(cfg.Feed.Timeout),
		md.NewConverter("", true, nil),
		txManager,
		logger,
	)

	commentService := service.NewCommentService(
		commentStore,
		cfg.Scrape.SiteBaseURL,
		cfg.Scrape.ScrollInterval,
		cfg.Scrape.ScrollMaxPolls,
		logger,
	)

	orchestrator := service.NewOrchestrator(
		enrichService,
		commentService,
		func(ctx context.Context) (service.Session, error) {
			return renderer.NewSession(ctx)
		},
		cfg.Scrape.Concurrency,
		cfg.Scrape.SiteBaseURL,
		cfg.Scrape.CookieSelector,
		logger,
	)

	pipeline := service.NewPipeline(
		syncService,
		articleStore,
		orchestrator,
		cfg.Scrape.LookbackDays,
		logger,
	)

	logger.Info("starting news scraper",
		"feed", cfg.Feed.URL,
		"concurrency", cfg.Scrape.Concurrency,
		"lookback_days", cfg.Scrape.LookbackDays,
		"update_policy", cfg.Scrape.UpdatePolicy,
		"once", *once,
	)

	if *once {
		if _, err := pipeline.Run(ctx); err != nil {
			logger.Error("pass failed", "error", err)
			os.Exit(1)
		}
		return
	}

	sched := scheduler.New(pipeline, cfg.Scrape.Interval, cfg.Scrape.PassTimeout, logger)
	if err := sched.Start(ctx); err != nil && err != context.Canceled {
		logger.Error("scheduler error", "error", err)
		os.Exit(1)
	}
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: logLevel}
	handler := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(handler)
}
