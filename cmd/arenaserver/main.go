// Package main provides the arena server binary: the combat session engine
// behind a JSON HTTP API.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/emberworks/arena/internal/config"
	"github.com/emberworks/arena/internal/game/catalog"
	"github.com/emberworks/arena/internal/game/combat"
	"github.com/emberworks/arena/internal/game/dialogue"
	"github.com/emberworks/arena/internal/game/rng"
	"github.com/emberworks/arena/internal/observability"
	"github.com/emberworks/arena/internal/server"
	"github.com/emberworks/arena/internal/storage/postgres"
	"github.com/emberworks/arena/internal/transport/httpapi"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	// Load the enemy and loot catalog.
	catalogStart := time.Now()
	catalogMgr, err := catalog.LoadManager(cfg.Content.EnemiesDir, cfg.Content.LocationsDir)
	if err != nil {
		logger.Fatal("loading catalog", zap.Error(err))
	}
	logger.Info("catalog loaded",
		zap.Int("templates", catalogMgr.TemplateCount()),
		zap.Int("locations", catalogMgr.LocationCount()),
		zap.Duration("elapsed", time.Since(catalogStart)),
	)

	// Connect to PostgreSQL for player stats, rewards, and history.
	dbStart := time.Now()
	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("connecting to database", zap.Error(err))
	}
	logger.Info("database connected",
		zap.String("host", cfg.Database.Host),
		zap.Duration("elapsed", time.Since(dbStart)),
	)

	players := postgres.NewPlayerRepository(pool.DB())
	rewards := postgres.NewRewardsRepository(pool.DB())
	history := postgres.NewHistoryRepository(pool.DB())

	// Dialogue side-channel: model-driven narration when configured, canned
	// lines otherwise, nothing at all when disabled.
	var (
		notifier   combat.Notifier = dialogue.NopNotifier{}
		sink       *dialogue.MemorySink
		dispatcher *dialogue.Dispatcher
	)
	if cfg.Dialogue.Enabled {
		var narrator dialogue.Narrator = dialogue.StaticNarrator{}
		if cfg.Dialogue.Model != "" {
			narrator = dialogue.NewModelNarrator(
				cfg.Dialogue.APIKey, cfg.Dialogue.Model, cfg.Dialogue.MaxTokens, logger,
			)
		}
		sink = dialogue.NewMemorySink()
		dispatcher = dialogue.NewDispatcher(narrator, sink, logger)
		notifier = dispatcher
		logger.Info("dialogue side-channel enabled",
			zap.String("model", cfg.Dialogue.Model),
		)
	}

	store := combat.NewMemoryStore(cfg.Combat.SessionTTL, cfg.Combat.SweepInterval, logger)
	engine := combat.NewEngine(
		store, players, catalogMgr, rewards, history, notifier,
		rng.NewCryptoSource(), logger,
	)

	handler := httpapi.NewHandler(engine, sink, logger)
	httpServer := httpapi.NewServer(cfg.HTTP, handler, logger)

	// Wire lifecycle.
	lifecycle := server.NewLifecycle(logger)
	lifecycle.Add("session-sweeper", store)
	if dispatcher != nil {
		lifecycle.Add("dialogue", dispatcher)
	}
	lifecycle.Add("http", httpServer)
	lifecycle.Add("postgres", postgres.NewHealthChecker(pool, 30*time.Second, logger))

	logger.Info("arena server initialized",
		zap.Duration("startup", time.Since(start)),
		zap.String("http_addr", cfg.HTTP.Addr()),
	)

	if err := lifecycle.Run(ctx); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}
