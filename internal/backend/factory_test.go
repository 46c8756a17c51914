package backend

import (
	"context"
	"path/filepath"
	"testing"

	"fintrack/internal/config"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/persistence"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromAppConfig(t *testing.T) {
	cfg, err := FromAppConfig(&config.Config{
		DataBackend:    "sqlite",
		SQLiteDBPath:   "/tmp/ledger.db",
		LedgerFilePath: "/tmp/slots",
		StorageKey:     "k",
	})
	require.NoError(t, err)
	assert.Equal(t, SQLiteBackend, cfg.Type)
	assert.Equal(t, "/tmp/ledger.db", cfg.SQLiteDBPath)
	assert.Equal(t, "/tmp/slots", cfg.DataDirectory)
	assert.Equal(t, "k", cfg.Key())

	_, err = FromAppConfig(&config.Config{DataBackend: "sheets"})
	assert.Error(t, err)

	_, err = FromAppConfig(nil)
	assert.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"memory", Config{Type: MemoryBackend}, false},
		{"file", Config{Type: FileBackend, DataDirectory: "data"}, false},
		{"file without directory", Config{Type: FileBackend}, true},
		{"sqlite", Config{Type: SQLiteBackend, SQLiteDBPath: "x.db"}, false},
		{"sqlite without path", Config{Type: SQLiteBackend}, true},
		{"unknown", Config{Type: "sheets"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			assert.Equal(t, tt.wantErr, err != nil, "Validate() = %v", err)
		})
	}
}

func TestDefaultKey(t *testing.T) {
	assert.Equal(t, persistence.DefaultKey, Config{}.Key())
	assert.Equal(t, []string{"memory", "file", "sqlite"}, GetBackendTypeStrings())
}

func TestCreateBackend(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	factory := NewFactory(log.Discard())

	configs := []Config{
		{Type: MemoryBackend},
		{Type: FileBackend, DataDirectory: filepath.Join(dir, "slots")},
		{Type: SQLiteBackend, SQLiteDBPath: filepath.Join(dir, "ledger.db")},
	}
	for _, cfg := range configs {
		t.Run(cfg.Type.String(), func(t *testing.T) {
			result, err := factory.CreateBackend(ctx, cfg)
			require.NoError(t, err)
			t.Cleanup(func() { _ = result.Close() })

			assert.Equal(t, cfg.Type, result.Type)
			assert.NoError(t, result.Ready(ctx))

			store := OpenLedger(ctx, result, cfg.Key(), log.Discard())
			assert.Equal(t, 3, store.Len(), "empty slot loads the seed set")

			tx := core.Transaction{
				ID:       "x",
				Type:     core.Expense,
				Amount:   decimal.RequireFromString("9.99"),
				Category: "Food",
				Date:     core.MustParseDate("2024-02-01"),
			}
			_, rev, err := store.Upsert(ctx, tx)
			require.NoError(t, err)
			assert.Equal(t, uint64(1), rev)

			reloaded := OpenLedger(ctx, result, cfg.Key(), log.Discard())
			assert.Equal(t, 4, reloaded.Len())
			got, ok := reloaded.Get("x")
			require.True(t, ok)
			assert.True(t, got.Equal(tx))
		})
	}
}

func TestCreateBackendRejectsInvalidConfig(t *testing.T) {
	_, err := NewFactory(nil).CreateBackend(context.Background(), Config{Type: SQLiteBackend})
	assert.Error(t, err)
}
