package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"exercise-tracker/internal/cache"
	"exercise-tracker/internal/config"
	"exercise-tracker/internal/events"
	"exercise-tracker/internal/store/memory"
	"exercise-tracker/internal/store/sqlstore"
)

func TestOpenStore(t *testing.T) {
	ctx := context.Background()

	st, err := openStore(ctx, &config.Config{StoreDriver: "memory"})
	require.NoError(t, err)
	assert.IsType(t, &memory.Store{}, st)

	st, err = openStore(ctx, &config.Config{StoreDriver: "sqlite3", DSN: ":memory:"})
	require.NoError(t, err)
	defer st.Close()
	assert.IsType(t, &sqlstore.Store{}, st)
	assert.NoError(t, st.Ping(ctx))

	_, err = openStore(ctx, &config.Config{StoreDriver: "cassandra"})
	assert.Error(t, err)
}

func TestOpenDependenciesDefaults(t *testing.T) {
	deps, err := openDependencies(context.Background(), &config.Config{StoreDriver: "memory"}, zap.NewNop())
	require.NoError(t, err)
	defer deps.Close(zap.NewNop())

	assert.Equal(t, cache.Nop{}, deps.userCache)
	assert.Equal(t, events.Nop{}, deps.publisher)
}

func TestNewLogger(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		logger, err := newLogger(level)
		require.NoError(t, err, level)
		assert.NotNil(t, logger)
	}

	_, err := newLogger("loud")
	assert.Error(t, err)
}

func TestRootCommandFlags(t *testing.T) {
	cmd := newRootCmd(run)
	for _, name := range []string{"port", "store", "dsn", "strict"} {
		assert.NotNil(t, cmd.Flags().Lookup(name), name)
	}
}

func TestRootCommandStoreFlagUsesDriverDefaultDSN(t *testing.T) {
	for _, key := range []string{"CONFIG_FILE", "STORE_DRIVER", "DSN", "PORT", "STRICT_VALIDATION"} {
		t.Setenv(key, "")
	}

	tests := []struct {
		args    []string
		driver  string
		wantDSN string
	}{
		{args: []string{"--store", "mongo"}, driver: "mongo", wantDSN: "mongodb://localhost:27017"},
		{args: []string{"--store", "sqlite3"}, driver: "sqlite3", wantDSN: config.DefaultDSN("sqlite3")},
		{args: []string{"--store", "sqlite3", "--dsn", ":memory:"}, driver: "sqlite3", wantDSN: ":memory:"},
		{args: []string{"--store", "memory"}, driver: "memory", wantDSN: ""},
	}

	for _, tt := range tests {
		var got *config.Config
		cmd := newRootCmd(func(ctx context.Context, cfg *config.Config) error {
			got = cfg
			return nil
		})
		cmd.SetArgs(tt.args)

		require.NoError(t, cmd.ExecuteContext(context.Background()), tt.args)
		require.NotNil(t, got, tt.args)
		assert.Equal(t, tt.driver, got.StoreDriver, tt.args)
		assert.Equal(t, tt.wantDSN, got.DSN, tt.args)
	}
}

func TestRootCommandEnvDSNSurvivesWithoutStoreFlag(t *testing.T) {
	for _, key := range []string{"CONFIG_FILE", "PORT", "STRICT_VALIDATION"} {
		t.Setenv(key, "")
	}
	t.Setenv("STORE_DRIVER", "sqlite3")
	t.Setenv("DSN", "file:env.db")

	var got *config.Config
	cmd := newRootCmd(func(ctx context.Context, cfg *config.Config) error {
		got = cfg
		return nil
	})
	cmd.SetArgs([]string{"--port", "4100", "--strict"})

	require.NoError(t, cmd.ExecuteContext(context.Background()))
	assert.Equal(t, "file:env.db", got.DSN)
	assert.Equal(t, "4100", got.Port)
	assert.True(t, got.StrictValidation)
}
