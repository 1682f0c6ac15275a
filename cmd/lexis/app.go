package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/phrazzld/lexis/internal/config"
	"github.com/phrazzld/lexis/internal/domain/srs"
	"github.com/phrazzld/lexis/internal/embedding"
	"github.com/phrazzld/lexis/internal/engine"
	"github.com/phrazzld/lexis/internal/generation"
	"github.com/phrazzld/lexis/internal/platform/gemini"
	"github.com/phrazzld/lexis/internal/platform/logger"
	"github.com/phrazzld/lexis/internal/platform/postgres"
	"github.com/phrazzld/lexis/internal/platform/sqlite"
	"github.com/phrazzld/lexis/internal/service"
	"github.com/phrazzld/lexis/internal/service/auth"
	"github.com/phrazzld/lexis/internal/store"
)

// migrator runs a goose command for the configured driver.
type migrator func(ctx context.Context, db *sql.DB, command string, logger *slog.Logger) error

// application holds the shared dependencies of every command and closes
// them on cleanup.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	cards      store.CardStore
	groups     store.GroupStore
	cacheStore store.CacheStore
	migrate    migrator

	srsService    srs.Service
	cardService   *service.CardService
	ratingService *service.RatingService

	// Created on demand; token and migrate need neither.
	jwtService auth.JWTService
	embedder   embedding.Embedder
	generator  generation.Generator
	registry   *engine.Registry
}

// loadConfig reads configuration and sets up the JSON logger.
func loadConfig() (*config.Config, *slog.Logger, error) {
	cfg, err := config.LoadFrom(cfgFile)
	if err != nil {
		return nil, nil, withExitCode(ExitConfigError, fmt.Errorf("failed to load configuration: %w", err))
	}
	l, err := logger.Setup(cfg.Server)
	if err != nil {
		return nil, nil, withExitCode(ExitConfigError, fmt.Errorf("failed to set up logger: %w", err))
	}
	return cfg, l, nil
}

// newApplication opens the database and builds the stores and services.
func newApplication(ctx context.Context, cfg *config.Config, log *slog.Logger) (*application, error) {
	app := &application{config: cfg, logger: log}

	if err := app.openDatabase(ctx); err != nil {
		return nil, err
	}

	app.srsService = srs.NewServiceWithParams(srs.ParamsFromMinutes(cfg.Session.RatingAgainMinutes))

	var err error
	app.cardService, err = service.NewCardService(app.cards, app.groups, app.db, app.srsService, log)
	if err != nil {
		app.cleanup()
		return nil, fmt.Errorf("failed to create card service: %w", err)
	}
	app.ratingService, err = service.NewRatingService(app.cards, app.db, app.srsService, log)
	if err != nil {
		app.cleanup()
		return nil, fmt.Errorf("failed to create rating service: %w", err)
	}
	return app, nil
}

func (app *application) openDatabase(ctx context.Context) error {
	dbCfg := app.config.Database
	var err error
	switch dbCfg.Driver {
	case "postgres":
		app.db, err = postgres.Open(ctx, dbCfg.URL)
		if err != nil {
			return err
		}
		app.cards = postgres.NewPostgresCardStore(app.db, app.logger)
		app.groups = postgres.NewPostgresGroupStore(app.db, app.logger)
		app.cacheStore = postgres.NewPostgresCacheStore(app.db, app.logger)
		app.migrate = postgres.Migrate
	case "sqlite":
		app.db, err = sqlite.Open(ctx, dbCfg.URL)
		if err != nil {
			return err
		}
		app.cards = sqlite.NewCardStore(app.db, app.logger)
		app.groups = sqlite.NewGroupStore(app.db, app.logger)
		app.cacheStore = sqlite.NewCacheStore(app.db)
		app.migrate = sqlite.Migrate
	default:
		return withExitCode(ExitConfigError, fmt.Errorf("unsupported database driver %q", dbCfg.Driver))
	}
	app.logger.Info("database connection established", "driver", dbCfg.Driver)
	return nil
}

// runMigrations applies a goose command to the open database.
func (app *application) runMigrations(ctx context.Context, command string) error {
	return app.migrate(ctx, app.db, command, app.logger)
}

// setupAuth creates the JWT service.
func (app *application) setupAuth() error {
	svc, err := auth.NewJWTService(app.config.Auth)
	if err != nil {
		return withExitCode(ExitConfigError, fmt.Errorf("failed to initialize JWT service: %w", err))
	}
	app.jwtService = svc
	app.logger.Info("JWT authentication service initialized",
		"token_lifetime_minutes", app.config.Auth.TokenLifetimeMinutes)
	return nil
}

// setupGeneration creates the embedder and, when an API key is configured,
// the generator. Without a key the generator is generation.Unavailable and
// graphs carry no labels.
func (app *application) setupGeneration(ctx context.Context) error {
	llm := app.config.LLM
	emb := app.config.Embedding

	var client *gemini.Client
	if llm.GeminiAPIKey != "" {
		var err error
		client, err = gemini.NewClient(ctx, llm, app.logger)
		if err != nil {
			return fmt.Errorf("failed to initialize gemini client: %w", err)
		}
		app.generator = gemini.NewGenerator(client, llm.ModelName)
		app.logger.Info("LLM generator initialized", "model", llm.ModelName)
	} else {
		app.generator = generation.Unavailable{}
		app.logger.Warn("no gemini api key configured, graphs will be built without relation labels")
	}

	switch emb.Provider {
	case "gemini":
		if client == nil {
			return withExitCode(ExitConfigError, fmt.Errorf("gemini embeddings need llm.gemini_api_key"))
		}
		app.embedder = gemini.NewEmbedder(client, emb.ModelName)
	default:
		app.embedder = embedding.NewHashEmbedder(emb.Dimensions)
	}
	app.logger.Info("embedder initialized", "model", app.embedder.Model())
	return nil
}

// setupSessions creates the session registry. setupGeneration must run first.
func (app *application) setupSessions() {
	deps := engine.Deps{
		Cards:      app.cards,
		Groups:     app.groups,
		CacheStore: app.cacheStore,
		Rater:      app.ratingService,
		Generator:  app.generator,
		Embedder:   app.embedder,
		Logger:     app.logger,
	}
	app.registry = engine.NewRegistry(engine.NewFactory(deps, engine.ConfigFrom(app.config)), app.logger)
}

// cleanup closes live sessions and the database.
func (app *application) cleanup() {
	if app.registry != nil {
		app.registry.CloseAll()
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database connection", "error", err)
		}
	}
	app.logger.Debug("application shutdown completed")
}
