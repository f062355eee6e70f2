package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/lawnchairsociety/combatsim/internal/catalog"
	"github.com/lawnchairsociety/combatsim/internal/combat"
	"github.com/lawnchairsociety/combatsim/internal/config"
	"github.com/lawnchairsociety/combatsim/internal/database"
	"github.com/lawnchairsociety/combatsim/internal/enemy"
	"github.com/lawnchairsociety/combatsim/internal/logger"
	"github.com/lawnchairsociety/combatsim/internal/results"
	"github.com/lawnchairsociety/combatsim/internal/scheduler"
	"github.com/lawnchairsociety/combatsim/internal/sim"
)

// commonFlags are accepted by every command.
type commonFlags struct {
	configFile  *string
	loggingFile *string
	catalogFile *string
	buildFile   *string
	logLevel    *string
}

func addCommonFlags(fs *flag.FlagSet) commonFlags {
	return commonFlags{
		configFile:  fs.String("config", "config.yaml", "Path to config YAML file"),
		loggingFile: fs.String("logging", "data/logging.yaml", "Path to logging config YAML file"),
		catalogFile: fs.String("catalog", "", "Path to catalog YAML file (overrides config)"),
		buildFile:   fs.String("build", "", "Path to build YAML file (overrides config)"),
		logLevel:    fs.String("log-level", "", "Override the log level (DEBUG, INFO, WARNING, ERROR)"),
	}
}

// engineFlags override the engine section of the config.
type engineFlags struct {
	trials     *int
	maxActions *int
	workers    *int
	seed       *uint64
	fullSim    *bool
	groups     *string
}

func addEngineFlags(fs *flag.FlagSet) engineFlags {
	return engineFlags{
		trials:     fs.Int("trials", 0, "Fights simulated per monster (0 uses config)"),
		maxActions: fs.Int("max-actions", 0, "Attack cap per fight (0 uses config)"),
		workers:    fs.Int("workers", -1, "Simulation workers (-1 uses config, 0 one per CPU)"),
		seed:       fs.Uint64("seed", 0, "Random seed (0 uses config)"),
		fullSim:    fs.Bool("full-sim", false, "Never take the analytic shortcut"),
		groups:     fs.String("groups", "all", "Comma-separated groups: combat, wandering, slayer, dungeons, tasks, all"),
	}
}

func (e engineFlags) apply(cfg *config.EngineConfig) {
	if *e.trials > 0 {
		cfg.Trials = *e.trials
	}
	if *e.maxActions > 0 {
		cfg.MaxActions = *e.maxActions
	}
	if *e.workers >= 0 {
		cfg.Workers = *e.workers
	}
	if *e.seed != 0 {
		cfg.Seed = *e.seed
	}
	if *e.fullSim {
		cfg.ForceFullSim = true
	}
}

// parseGroups converts a -groups value into a batch filter.
func parseGroups(value string) (scheduler.Filter, error) {
	var f scheduler.Filter
	for _, g := range strings.Split(value, ",") {
		switch strings.ToLower(strings.TrimSpace(g)) {
		case "all":
			f = scheduler.AllGroups
		case "combat":
			f.CombatAreas = true
		case "wandering":
			f.Wandering = true
		case "slayer":
			f.SlayerAreas = true
		case "dungeons":
			f.Dungeons = true
		case "tasks":
			f.Tasks = true
		case "":
		default:
			return f, fmt.Errorf("unknown group %q", g)
		}
	}
	if f == (scheduler.Filter{}) {
		return f, fmt.Errorf("no groups selected")
	}
	return f, nil
}

// session is everything a command needs, loaded from config and flags.
type session struct {
	cfg      *config.Config
	cat      *catalog.Catalog
	build    *combat.Build
	resolver *combat.Resolver
}

func loadSession(common commonFlags, engine *engineFlags) (*session, error) {
	logConfig, err := logger.LoadConfig(*common.loggingFile)
	if err != nil {
		return nil, err
	}
	if *common.logLevel != "" {
		logConfig.Level = *common.logLevel
	}
	if err := logger.Initialize(logConfig); err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	cfg, err := config.LoadConfig(*common.configFile)
	if err != nil {
		return nil, err
	}
	if *common.catalogFile != "" {
		cfg.CatalogPath = *common.catalogFile
	}
	if *common.buildFile != "" {
		cfg.BuildPath = *common.buildFile
	}
	if engine != nil {
		engine.apply(&cfg.Engine)
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	cat, err := catalog.LoadFromYAML(cfg.CatalogPath)
	if err != nil {
		return nil, err
	}
	logger.Debug("Catalog loaded", "path", cfg.CatalogPath, "monsters", len(cat.Monsters()))

	build := combat.NewBuild()
	if _, err := os.Stat(cfg.BuildPath); err == nil {
		if build, err = combat.LoadBuild(cfg.BuildPath); err != nil {
			return nil, err
		}
	} else {
		logger.Info("No build file, using a fresh build", "path", cfg.BuildPath)
	}

	return &session{
		cfg:      cfg,
		cat:      cat,
		build:    build,
		resolver: combat.NewResolver(cat, build),
	}, nil
}

// newScheduler wires the engine, the result table and the worker pool.
func (s *session) newScheduler() *scheduler.Scheduler {
	table := results.NewTable(s.cat, s.cfg.Economy.Economy())
	return scheduler.New(s.cat, s.resolver, enemy.NewRegistry(s.cat), table, sim.NewEngine(), scheduler.Config{
		Workers: s.cfg.Engine.Workers,
		Options: s.cfg.Engine.SimOptions(),
		Seed:    s.cfg.Engine.Seed,
	})
}

func (s *session) openStore() (*database.Database, error) {
	return database.OpenWithConfig(s.cfg.Store.DatabaseConfig())
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
