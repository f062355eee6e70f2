package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lawnchairsociety/combatsim/internal/catalog"
	"github.com/lawnchairsociety/combatsim/internal/sim"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, sim.DefaultOptions, cfg.Engine.SimOptions())
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Empty(t, cfg.Server.WebSocket.AllowedOrigins)
	assert.EqualValues(t, 4096, cfg.Server.WebSocket.MaxMessageSize)

	econ := cfg.Economy.Economy()
	assert.Equal(t, catalog.Hitpoints, econ.PetSkill)
	assert.Equal(t, 3600.0, econ.SignetPeriod)
	assert.False(t, econ.SellLoot)
}

func TestLoadConfig_FileNotExists(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/path/config.yaml")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfig_ValidFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "combatsim.yaml")
	content := `
catalog_path: /srv/catalog.yaml
engine:
  trials: 250
  workers: 3
  force_full_sim: true
  seed: 99
economy:
  pet_skill: Slayer
  drop_item: 7
  sell_loot: true
store:
  driver: postgres
  postgres:
    host: db
    conn_max_lifetime_seconds: 60
server:
  addr: ":9000"
  websocket:
    allowed_origins:
      - "https://example.com"
      - "http://localhost:3000"
    max_message_size: 8192
`
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))

	cfg, err := LoadConfig(configPath)
	require.NoError(t, err)

	assert.Equal(t, "/srv/catalog.yaml", cfg.CatalogPath)
	assert.Equal(t, sim.Options{Trials: 250, MaxActions: sim.DefaultOptions.MaxActions, ForceFullSim: true}, cfg.Engine.SimOptions())
	assert.Equal(t, 3, cfg.Engine.Workers)
	assert.EqualValues(t, 99, cfg.Engine.Seed)

	econ := cfg.Economy.Economy()
	assert.Equal(t, catalog.Slayer, econ.PetSkill)
	assert.Equal(t, 7, econ.DropItem)
	assert.True(t, econ.SellLoot)

	db := cfg.Store.DatabaseConfig()
	assert.Equal(t, "postgres", db.Driver)
	assert.Equal(t, "db", db.Postgres.Host)
	assert.Equal(t, 5432, db.Postgres.Port, "unset keys keep defaults")
	assert.Equal(t, time.Minute, db.Postgres.ConnMaxLifetime)

	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, []string{"https://example.com", "http://localhost:3000"}, cfg.Server.WebSocket.AllowedOrigins)
	assert.EqualValues(t, 8192, cfg.Server.WebSocket.MaxMessageSize)
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("engine: [unclosed"), 0644))

	cfg, err := LoadConfig(configPath)
	require.Error(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("COMBATSIM_ENGINE_TRIALS", "42")
	t.Setenv("COMBATSIM_ENGINE_SEED", "7")
	t.Setenv("COMBATSIM_ECONOMY_PET_SKILL", "magic")
	t.Setenv("COMBATSIM_STORE_SQLITE_PATH", "/tmp/cmp.db")
	t.Setenv("COMBATSIM_STORE_PG_PORT", "5435")
	t.Setenv("COMBATSIM_SERVER_WS_ALLOWED_ORIGINS", "https://a.example,https://b.example")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, 42, cfg.Engine.Trials)
	assert.EqualValues(t, 7, cfg.Engine.Seed)
	assert.Equal(t, catalog.Magic, cfg.Economy.Economy().PetSkill)
	assert.Equal(t, "/tmp/cmp.db", cfg.Store.SQLitePath)
	assert.Equal(t, 5435, cfg.Store.Postgres.Port)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.WebSocket.AllowedOrigins)
}

func TestLoadConfig_EnvParseError(t *testing.T) {
	t.Setenv("COMBATSIM_ENGINE_WORKERS", "many")

	_, err := LoadConfig("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse env")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero trials", func(c *Config) { c.Engine.Trials = 0 }},
		{"zero max actions", func(c *Config) { c.Engine.MaxActions = 0 }},
		{"negative workers", func(c *Config) { c.Engine.Workers = -1 }},
		{"negative signet period", func(c *Config) { c.Economy.SignetPeriodSeconds = -1 }},
		{"unknown pet skill", func(c *Config) { c.Economy.PetSkill = "cooking" }},
		{"unknown driver", func(c *Config) { c.Store.Driver = "mysql" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestEconomyUnknownSkillFallsBack(t *testing.T) {
	econ := EconomyConfig{PetSkill: "cooking"}.Economy()
	assert.Equal(t, catalog.Hitpoints, econ.PetSkill)
}

func TestIsOriginAllowed(t *testing.T) {
	const host = "sim.local:8080"
	sameOrigin := WebSocketConfig{}
	wildcard := WebSocketConfig{AllowedOrigins: []string{"*"}}
	listed := WebSocketConfig{AllowedOrigins: []string{"https://example.com", "http://localhost:3000"}}

	tests := []struct {
		name   string
		cfg    WebSocketConfig
		origin string
		want   bool
	}{
		{"no origin header", sameOrigin, "", true},
		{"same host over http", sameOrigin, "http://sim.local:8080", true},
		{"same host over https with slash", sameOrigin, "https://sim.local:8080/", true},
		{"same host over ws", sameOrigin, "ws://sim.local:8080", true},
		{"other host", sameOrigin, "http://evil.example", false},
		{"other port", sameOrigin, "http://sim.local:9090", false},
		{"wildcard", wildcard, "http://anything.example", true},
		{"wildcard without origin", wildcard, "", true},
		{"listed", listed, "http://localhost:3000", true},
		{"listed with other port", listed, "https://example.com:8443", false},
		{"unlisted", listed, "http://evil.example", false},
		{"list still admits same origin", listed, "http://sim.local:8080", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cfg.IsOriginAllowed(tt.origin, host))
		})
	}
}
