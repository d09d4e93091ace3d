package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STORE_RETRIES", "")
	t.Setenv("TIMEZONE", "")

	cfg := Load()

	require.Equal(t, 3, cfg.StoreRetries)
	require.Equal(t, 30, cfg.CleanupMaxAgeDays)
	require.Equal(t, 24*time.Hour, cfg.CleanupInterval)
	require.Equal(t, "default123", cfg.InviteCode)
	require.Equal(t, "Europe/Moscow", cfg.Location().String())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ADMIN_ID", "4242")
	t.Setenv("CLEANUP_INTERVAL", "90m")
	t.Setenv("STORAGE", StorageMemory)
	t.Setenv("TIMEZONE", "Not/AZone")

	cfg := Load()

	require.Equal(t, int64(4242), cfg.AdminID)
	require.Equal(t, 90*time.Minute, cfg.CleanupInterval)
	require.Equal(t, StorageMemory, cfg.Storage)
	require.Equal(t, time.UTC, cfg.Location())
}
