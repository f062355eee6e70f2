// simserver serves a combat build and its batch results over HTTP, with a
// websocket stream of simulation progress.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/lawnchairsociety/combatsim/internal/catalog"
	"github.com/lawnchairsociety/combatsim/internal/combat"
	"github.com/lawnchairsociety/combatsim/internal/config"
	"github.com/lawnchairsociety/combatsim/internal/database"
	"github.com/lawnchairsociety/combatsim/internal/enemy"
	"github.com/lawnchairsociety/combatsim/internal/logger"
	"github.com/lawnchairsociety/combatsim/internal/results"
	"github.com/lawnchairsociety/combatsim/internal/scheduler"
	"github.com/lawnchairsociety/combatsim/internal/server"
	"github.com/lawnchairsociety/combatsim/internal/sim"
)

const shutdownTimeout = 10 * time.Second

type options struct {
	configFile  string
	loggingFile string
	addr        string
	noStore     bool
}

func main() {
	var opts options
	flag.StringVar(&opts.configFile, "config", "config.yaml", "Path to config YAML file")
	flag.StringVar(&opts.loggingFile, "logging", "data/logging.yaml", "Path to logging config YAML file")
	flag.StringVar(&opts.addr, "addr", "", "Listen address (overrides config)")
	flag.BoolVar(&opts.noStore, "no-store", false, "Run without the comparison store")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Failed to load .env: %v", err)
	}

	logConfig, err := logger.LoadConfig(opts.loggingFile)
	if err != nil {
		log.Printf("Logging config: %v", err)
	}
	if err := logger.Initialize(logConfig); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	if err := run(opts); err != nil {
		logger.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run(opts options) error {
	cfg, err := config.LoadConfig(opts.configFile)
	if err != nil {
		return err
	}
	if opts.addr != "" {
		cfg.Server.Addr = opts.addr
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	cat, err := catalog.LoadFromYAML(cfg.CatalogPath)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	logger.Info("Catalog loaded", "path", cfg.CatalogPath, "monsters", len(cat.Monsters()),
		"dungeons", len(cat.Dungeons()), "slayer_tasks", len(cat.SlayerTasks()))

	build, err := loadBuild(cfg.BuildPath)
	if err != nil {
		return err
	}
	resolver := combat.NewResolver(cat, build)

	var db *database.Database
	if opts.noStore {
		logger.Info("Comparison store disabled")
	} else {
		if db, err = database.OpenWithConfig(cfg.Store.DatabaseConfig()); err != nil {
			return fmt.Errorf("open comparison store: %w", err)
		}
		defer db.Close()
		logger.Info("Comparison store opened", "driver", cfg.Store.Driver)
	}

	sched := scheduler.New(cat, resolver, enemy.NewRegistry(cat), results.NewTable(cat, cfg.Economy.Economy()),
		sim.NewEngine(), scheduler.Config{
			Workers: cfg.Engine.Workers,
			Options: cfg.Engine.SimOptions(),
			Seed:    cfg.Engine.Seed,
		})
	defer sched.Wait()
	logger.Info("Scheduler ready", "workers", sched.Workers(), "trials", cfg.Engine.Trials, "max_actions", cfg.Engine.MaxActions)

	srv := server.NewServer(cfg.Server, resolver, sched, db)
	logOriginPolicy(cfg.Server.WebSocket.AllowedOrigins)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Start(cfg.Server.Addr)
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	logger.Info("Press Ctrl+C to shutdown")
	err = g.Wait()
	logger.Info("Server stopped")
	return err
}

// loadBuild reads the saved build, or starts fresh when there is none.
func loadBuild(path string) (*combat.Build, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		logger.Info("No build file, starting from a fresh build", "path", path)
		return combat.NewBuild(), nil
	}
	build, err := combat.LoadBuild(path)
	if err != nil {
		return nil, fmt.Errorf("load build: %w", err)
	}
	logger.Info("Build loaded", "path", path)
	return build, nil
}

func logOriginPolicy(origins []string) {
	switch {
	case len(origins) == 0:
		logger.Info("WebSocket CORS policy", "mode", "same-origin")
	case len(origins) == 1 && origins[0] == "*":
		logger.Warning("WebSocket CORS allows all origins (not recommended for production)")
	default:
		logger.Info("WebSocket CORS policy", "mode", "same-origin plus list", "allowed_origins", origins)
	}
}
