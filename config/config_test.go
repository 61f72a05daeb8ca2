package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ferreirogomes/tijolo/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "./storage/migrations", cfg.MigrationsDir)
	assert.Equal(t, "BRL", cfg.Currency)
	assert.False(t, cfg.MirrorEnabled())
	assert.False(t, cfg.KafkaEnabled())
	assert.False(t, cfg.FaucetEnabled)
}

func TestLoadFileAndEnvironment(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := "http:\n  addr: \":9999\"\ncurrency: USD\nkafka:\n  brokers:\n    - localhost:9092\n"
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	t.Setenv("TIJOLO_CUSTODY_FAUCET", "true")
	t.Setenv("TIJOLO_DATABASE_URL", "postgres://tijolo@localhost/tijolo?sslmode=disable")

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9999", cfg.HTTPAddr)
	assert.Equal(t, "USD", cfg.Currency)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.FaucetEnabled)
	assert.True(t, cfg.MirrorEnabled())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
