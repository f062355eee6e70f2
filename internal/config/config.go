// Package config loads combatsim settings from YAML with environment
// overrides.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/lawnchairsociety/combatsim/internal/catalog"
	"github.com/lawnchairsociety/combatsim/internal/database"
	"github.com/lawnchairsociety/combatsim/internal/results"
	"github.com/lawnchairsociety/combatsim/internal/sim"
)

// Config holds every setting the binaries read.
type Config struct {
	CatalogPath string `yaml:"catalog_path" env:"CATALOG_PATH"`
	BuildPath   string `yaml:"build_path" env:"BUILD_PATH"`

	Engine  EngineConfig  `yaml:"engine" envPrefix:"ENGINE_"`
	Economy EconomyConfig `yaml:"economy" envPrefix:"ECONOMY_"`
	Store   StoreConfig   `yaml:"store" envPrefix:"STORE_"`
	Server  ServerConfig  `yaml:"server" envPrefix:"SERVER_"`
}

// EngineConfig controls the simulation batch.
type EngineConfig struct {
	// Trials is the number of fights simulated per monster.
	Trials int `yaml:"trials" env:"TRIALS"`

	// MaxActions caps the attacks in one fight before the job is abandoned.
	MaxActions int `yaml:"max_actions" env:"MAX_ACTIONS"`

	// Workers is the simulation pool size. 0 uses one per CPU.
	Workers int `yaml:"workers" env:"WORKERS"`

	ForceFullSim bool `yaml:"force_full_sim" env:"FORCE_FULL_SIM"`

	// Seed fixes the random streams. 0 draws a fresh seed per batch.
	Seed uint64 `yaml:"seed" env:"SEED"`
}

// EconomyConfig controls the derived economy figures.
type EconomyConfig struct {
	SignetPeriodSeconds float64 `yaml:"signet_period_seconds" env:"SIGNET_PERIOD"`
	PetPeriodSeconds    float64 `yaml:"pet_period_seconds" env:"PET_PERIOD"`
	PetSkill            string  `yaml:"pet_skill" env:"PET_SKILL"`
	DropItem            int     `yaml:"drop_item" env:"DROP_ITEM"`
	SellLoot            bool    `yaml:"sell_loot" env:"SELL_LOOT"`
}

// StoreConfig selects where saved comparisons live.
type StoreConfig struct {
	// Driver is "sqlite" or "postgres".
	Driver     string         `yaml:"driver" env:"DRIVER"`
	SQLitePath string         `yaml:"sqlite_path" env:"SQLITE_PATH"`
	Postgres   PostgresConfig `yaml:"postgres" envPrefix:"PG_"`
}

// PostgresConfig holds PostgreSQL connection settings.
type PostgresConfig struct {
	Host     string `yaml:"host" env:"HOST"`
	Port     int    `yaml:"port" env:"PORT"`
	User     string `yaml:"user" env:"USER"`
	Password string `yaml:"password" env:"PASSWORD"`
	Database string `yaml:"database" env:"DATABASE"`
	SSLMode  string `yaml:"ssl_mode" env:"SSLMODE"`

	MaxOpenConns       int `yaml:"max_open_conns" env:"MAX_OPEN_CONNS"`
	MaxIdleConns       int `yaml:"max_idle_conns" env:"MAX_IDLE_CONNS"`
	ConnMaxLifetimeSec int `yaml:"conn_max_lifetime_seconds" env:"CONN_MAX_LIFETIME"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr      string          `yaml:"addr" env:"ADDR"`
	WebSocket WebSocketConfig `yaml:"websocket" envPrefix:"WS_"`
}

// WebSocketConfig holds WebSocket-specific settings.
type WebSocketConfig struct {
	// AllowedOrigins is a list of origins allowed to connect via WebSocket.
	// Empty list enforces same-origin policy.
	// Use "*" to allow all origins (not recommended for production).
	AllowedOrigins []string `yaml:"allowed_origins" env:"ALLOWED_ORIGINS" envSeparator:","`

	// MaxMessageSize is the maximum inbound WebSocket message size in bytes.
	MaxMessageSize int64 `yaml:"max_message_size" env:"MAX_MESSAGE_SIZE"`

	// MaxClients caps concurrent progress subscribers. 0 means unlimited.
	MaxClients int `yaml:"max_clients" env:"MAX_CLIENTS"`

	// MaxPerIP caps subscribers from one address. 0 means unlimited.
	MaxPerIP int `yaml:"max_per_ip" env:"MAX_PER_IP"`
}

// DefaultConfig returns a Config with the stock engine settings.
func DefaultConfig() *Config {
	return &Config{
		CatalogPath: "data/catalog.yaml",
		BuildPath:   "data/build.yaml",
		Engine: EngineConfig{
			Trials:     sim.DefaultOptions.Trials,
			MaxActions: sim.DefaultOptions.MaxActions,
		},
		Economy: EconomyConfig{
			SignetPeriodSeconds: results.DefaultEconomy.SignetPeriod,
			PetPeriodSeconds:    results.DefaultEconomy.PetPeriod,
			PetSkill:            results.DefaultEconomy.PetSkill.String(),
		},
		Store: StoreConfig{
			Driver:     string(database.DialectSQLite),
			SQLitePath: "data/combatsim.db",
			Postgres: PostgresConfig{
				Host:               "localhost",
				Port:               5432,
				SSLMode:            "disable",
				MaxOpenConns:       database.DefaultMaxOpenConns,
				MaxIdleConns:       database.DefaultMaxIdleConns,
				ConnMaxLifetimeSec: int(database.DefaultConnMaxLifetime / time.Second),
			},
		},
		Server: ServerConfig{
			Addr: ":8080",
			WebSocket: WebSocketConfig{
				AllowedOrigins: []string{}, // Same-origin only by default
				MaxMessageSize: 4096,
				MaxClients:     16,
				MaxPerIP:       4,
			},
		},
	}
}

// LoadConfig loads configuration from a YAML file and then applies
// COMBATSIM_* environment overrides. A missing file yields the defaults.
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return config, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, config); err != nil {
				return DefaultConfig(), fmt.Errorf("parse config: %w", err)
			}
		}
	}

	if err := ParseEnv(config); err != nil {
		return config, err
	}
	if err := config.Validate(); err != nil {
		return config, err
	}
	return config, nil
}

// ParseEnv applies COMBATSIM_* environment variables to target.
func ParseEnv(target any) error {
	if err := env.ParseWithOptions(target, env.Options{Prefix: "COMBATSIM_"}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Validate rejects settings the engine cannot run with.
func (c *Config) Validate() error {
	if c.Engine.Trials <= 0 {
		return fmt.Errorf("engine.trials must be positive, got %d", c.Engine.Trials)
	}
	if c.Engine.MaxActions <= 0 {
		return fmt.Errorf("engine.max_actions must be positive, got %d", c.Engine.MaxActions)
	}
	if c.Engine.Workers < 0 {
		return fmt.Errorf("engine.workers must not be negative, got %d", c.Engine.Workers)
	}
	if c.Economy.SignetPeriodSeconds < 0 || c.Economy.PetPeriodSeconds < 0 {
		return fmt.Errorf("economy periods must not be negative")
	}
	if _, ok := catalog.ParseSkill(c.Economy.PetSkill); !ok {
		return fmt.Errorf("economy.pet_skill: unknown skill %q", c.Economy.PetSkill)
	}
	switch database.DialectType(c.Store.Driver) {
	case database.DialectSQLite, database.DialectPostgres:
	default:
		return fmt.Errorf("store.driver: unknown driver %q", c.Store.Driver)
	}
	return nil
}

// SimOptions returns the per-job simulation options.
func (e EngineConfig) SimOptions() sim.Options {
	return sim.Options{
		Trials:       e.Trials,
		MaxActions:   e.MaxActions,
		ForceFullSim: e.ForceFullSim,
	}
}

// Economy converts the settings to the aggregator's form. An unknown pet
// skill falls back to Hitpoints; LoadConfig rejects it earlier.
func (e EconomyConfig) Economy() results.Economy {
	skill, ok := catalog.ParseSkill(e.PetSkill)
	if !ok {
		skill = catalog.Hitpoints
	}
	return results.Economy{
		SignetPeriod: e.SignetPeriodSeconds,
		PetPeriod:    e.PetPeriodSeconds,
		PetSkill:     skill,
		DropItem:     e.DropItem,
		SellLoot:     e.SellLoot,
	}
}

// DatabaseConfig converts the settings to the store's connection config.
func (s StoreConfig) DatabaseConfig() database.Config {
	return database.Config{
		Driver:     s.Driver,
		SQLitePath: s.SQLitePath,
		Postgres: database.PostgresConfig{
			Host:            s.Postgres.Host,
			Port:            s.Postgres.Port,
			User:            s.Postgres.User,
			Password:        s.Postgres.Password,
			Database:        s.Postgres.Database,
			SSLMode:         s.Postgres.SSLMode,
			MaxOpenConns:    s.Postgres.MaxOpenConns,
			MaxIdleConns:    s.Postgres.MaxIdleConns,
			ConnMaxLifetime: time.Duration(s.Postgres.ConnMaxLifetimeSec) * time.Second,
		},
	}
}

// IsOriginAllowed reports whether a browser page at origin may open a
// progress stream on requestHost. Same-origin requests, and those without an
// Origin header, always pass; AllowedOrigins admits further origins, with
// "*" admitting all.
func (c *WebSocketConfig) IsOriginAllowed(origin, requestHost string) bool {
	if isSameOrigin(origin, requestHost) {
		return true
	}
	for _, allowed := range c.AllowedOrigins {
		if allowed == "*" || strings.EqualFold(strings.TrimSuffix(allowed, "/"), strings.TrimSuffix(origin, "/")) {
			return true
		}
	}
	return false
}

func isSameOrigin(origin, requestHost string) bool {
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return false
	}
	return strings.EqualFold(u.Host, requestHost)
}
