package main

import (
	"context"
	"fmt"
	"log/slog"

	"jobmate/digest-service/internal/config"
	"jobmate/digest-service/internal/db"
	"jobmate/digest-service/internal/logger"
	"jobmate/digest-service/internal/notify"
	"jobmate/digest-service/internal/report"
	"jobmate/digest-service/internal/scraper"
	"jobmate/digest-service/internal/store"
)

// keepInMemory is how many digests the in-memory store keeps when no
// database is configured.
const keepInMemory = 50

// app holds everything the commands share.
type app struct {
	cfg      *config.Config
	log      *slog.Logger
	profiles []config.Profile
	digests  store.DigestStore
	reports  *report.Writer
	worker   *scraper.Worker
	closers  []func()
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// newApp loads configuration and connects every optional backend. PostgreSQL
// and Redis are used when their URLs are set; otherwise digests and seen
// postings are kept in memory.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	log := logger.New(cfg.LogLevel)

	profiles, err := config.LoadProfiles(cfg.SearchFile)
	if err != nil {
		return nil, err
	}
	log.Info("search profiles loaded", "file", cfg.SearchFile, "profiles", len(profiles))

	a := &app{cfg: cfg, log: log, profiles: profiles}
	ok := false
	defer func() {
		if !ok {
			a.Close()
		}
	}()

	// ── PostgreSQL ───────────────────────────────────────────────────────────
	mem := store.NewMemory(keepInMemory, cfg.SeenTTL)
	a.digests = mem
	if cfg.DatabaseURL != "" {
		log.Info("connecting to PostgreSQL")
		pool, err := db.NewPostgresPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		a.closers = append(a.closers, pool.Close)

		schema, err := db.RunMigrations(pool)
		if err != nil {
			return nil, fmt.Errorf("migrations: %w", err)
		}
		log.Info("PostgreSQL connected", "schema_version", schema)
		a.digests = store.NewPostgres(pool)
	} else {
		log.Warn("DATABASE_URL not set, digests are kept in memory")
	}

	// ── Redis ────────────────────────────────────────────────────────────────
	var (
		seen   store.SeenCache      = mem
		events store.EventPublisher = store.NopPublisher{}
	)
	if cfg.RedisURL != "" {
		log.Info("connecting to Redis")
		rdb, err := db.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("redis: %w", err)
		}
		a.closers = append(a.closers, func() { _ = rdb.Close() })
		r := store.NewRedis(rdb, cfg.SeenTTL)
		seen, events = r, r
		log.Info("Redis connected")
	} else {
		log.Warn("REDIS_URL not set, seen postings are kept in memory")
	}

	// ── Sources ──────────────────────────────────────────────────────────────
	client := scraper.NewClient(scraper.ClientOptions{
		RequestsPerMinute: cfg.RequestsPerMinute,
		Timeout:           cfg.RequestTimeout,
		MaxRetries:        cfg.MaxRetries,
	}, log)
	searchers := []scraper.Searcher{scraper.NewLinkedInSearcher(client, "", nil, log)}
	adzuna := scraper.NewAdzunaSearcher(client, cfg.AdzunaAppID, cfg.AdzunaAppKey, cfg.AdzunaCountry, "", nil, log)
	if adzuna.Enabled() {
		searchers = append(searchers, adzuna)
	}

	// ── Notifications ────────────────────────────────────────────────────────
	var notifier notify.Notifier = notify.Nop{}
	if cfg.TelegramToken != "" {
		tg, err := notify.NewTelegram(cfg.TelegramToken, cfg.TelegramChatID, "", nil, log)
		if err != nil {
			return nil, err
		}
		notifier = tg
	} else {
		log.Warn("TELEGRAM_BOT_TOKEN not set, notifications are disabled")
	}

	a.reports = report.NewWriter(cfg.OutputDir)
	a.worker = scraper.NewWorker(scraper.Deps{
		Searchers: searchers,
		Feeds:     scraper.NewFeedSource(client, nil, log),
		Reports:   a.reports,
		Digests:   a.digests,
		Seen:      seen,
		Events:    events,
		Notifier:  notifier,
		BaseURL:   cfg.BaseURL,
		Log:       log,
	})

	ok = true
	return a, nil
}
