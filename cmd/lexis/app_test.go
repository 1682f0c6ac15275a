package main

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/lexis/internal/config"
	"github.com/phrazzld/lexis/internal/deck"
	"github.com/phrazzld/lexis/internal/generation"
	"github.com/phrazzld/lexis/internal/platform/migrate"
	"github.com/phrazzld/lexis/internal/platform/sqlite"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	v := viper.New()
	config.SetDefaults(v)
	v.Set("database.driver", "sqlite")
	v.Set("database.url", sqlite.MemoryDSN)
	v.Set("auth.jwt_secret", "0123456789abcdef0123456789abcdef")

	var cfg config.Config
	require.NoError(t, v.Unmarshal(&cfg))
	require.NoError(t, config.Validate(&cfg))
	return &cfg
}

func TestApplicationImportsDeckOverSQLite(t *testing.T) {
	ctx := context.Background()
	app, err := newApplication(ctx, testConfig(t), slog.Default())
	require.NoError(t, err)
	defer app.cleanup()

	require.NoError(t, app.runMigrations(ctx, migrate.Up))

	d, err := deck.ParseBytes([]byte("group_size: 2\nwords:\n  - cat: feline\n  - dog: canine\n  - owl: night bird\n"))
	require.NoError(t, err)

	learner := uuid.New()
	result, err := app.cardService.ImportDeck(ctx, learner, d.Inputs())
	require.NoError(t, err)
	assert.Equal(t, 2, result.Groups)
	assert.Equal(t, 3, result.Created)

	cards, err := app.cardService.ListCards(ctx, learner)
	require.NoError(t, err)
	assert.Len(t, cards, 3)
}

func TestSetupGenerationWithoutAPIKey(t *testing.T) {
	ctx := context.Background()
	app, err := newApplication(ctx, testConfig(t), slog.Default())
	require.NoError(t, err)
	defer app.cleanup()

	require.NoError(t, app.setupGeneration(ctx))
	assert.IsType(t, generation.Unavailable{}, app.generator)
	assert.Contains(t, app.embedder.Model(), "hash")

	require.NoError(t, app.setupAuth())
	app.setupSessions()
	require.NotNil(t, app.registry)
}

func TestSetupGenerationGeminiEmbeddingsNeedKey(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	cfg.Embedding.Provider = "gemini"

	app, err := newApplication(ctx, cfg, slog.Default())
	require.NoError(t, err)
	defer app.cleanup()

	err = app.setupGeneration(ctx)
	require.Error(t, err)
	assert.Equal(t, ExitConfigError, exitCode(err))
}

func TestUnsupportedDriver(t *testing.T) {
	cfg := testConfig(t)
	cfg.Database.Driver = "oracle"

	_, err := newApplication(context.Background(), cfg, slog.Default())
	require.Error(t, err)
	assert.Equal(t, ExitConfigError, exitCode(err))
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, exitCode(nil))
	assert.Equal(t, ExitError, exitCode(errors.New("boom")))
	assert.Equal(t, ExitDataError, exitCode(withExitCode(ExitDataError, errors.New("bad deck"))))
	assert.Nil(t, withExitCode(ExitDataError, nil))
}
