// combatsim simulates a combat build against every monster, dungeon and
// slayer task in a catalog.
//
// Usage:
//
//	combatsim [command] [options]
//
// Commands:
//
//	stats    - Print the derived player stats of a build
//	run      - Simulate a batch and print one stat per entry
//	export   - Simulate a batch and write the results as CSV
//	compare  - List, show, diff or delete saved comparisons
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/lawnchairsociety/combatsim/internal/catalog"
	"github.com/lawnchairsociety/combatsim/internal/combat"
	"github.com/lawnchairsociety/combatsim/internal/logger"
	"github.com/lawnchairsociety/combatsim/internal/results"
	"github.com/lawnchairsociety/combatsim/internal/scheduler"
)

func main() {
	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "stats":
		runStats()
	case "run":
		runBatch()
	case "export":
		runExport()
	case "compare":
		runCompare()
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`Combat Simulator

Simulates a build against every monster, dungeon and slayer task.

Usage: combatsim <command> [options]

Commands:
  stats    Print the derived player stats of a build
  run      Simulate a batch and print one stat per entry
  export   Simulate a batch and write the results as CSV
  compare  List, show, diff or delete saved comparisons

Examples:
  combatsim stats -build=data/build.yaml
  combatsim run -groups=combat,dungeons -stat=xpPerSecond -trials=5000
  combatsim run -save="bronze sword"
  combatsim export -columns=killTime,xpPerSecond,gpPerSecond -out=results.csv
  combatsim compare list
  combatsim compare diff -stat=gpPerSecond <id> <id>

Use "combatsim <command> -h" for more information about a command.`)
}

func runStats() {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	common := addCommonFlags(fs)
	fs.Parse(os.Args[2:])

	sess, err := loadSession(common, nil)
	if err != nil {
		fatalf("%v", err)
	}
	printPlayerStats(sess.resolver.PlayerStats())
}

func printPlayerStats(p combat.PlayerStats) {
	hp := func(v int) float64 { return float64(v) / catalog.NumberMultiplier }

	fmt.Println("=== Player Stats ===")
	fmt.Println()
	fmt.Printf("Attack Type:      %s\n", p.AttackType)
	fmt.Printf("Attack Speed:     %.1fs\n", float64(p.AttackSpeed)/1000)
	fmt.Printf("Accuracy Rating:  %d\n", p.Accuracy)
	fmt.Printf("Hit Range:        %.1f - %.1f\n", hp(p.MinHit), hp(p.MaxHit))
	fmt.Printf("Evasion:          melee %d, ranged %d, magic %d\n", p.Evasion.Melee, p.Evasion.Ranged, p.Evasion.Magic)
	fmt.Printf("Max Hitpoints:    %.0f\n", hp(p.MaxHP))
	fmt.Printf("Damage Reduction: %d%%\n", p.DamageReduction)
	fmt.Printf("HP Regen:         %.1f per tick\n", hp(p.HPRegen))
	fmt.Printf("GP Bonus:         %.0f%%\n", p.GPPercent)
	fmt.Printf("Double Loot:      %.0f%%\n", p.DoubleLoot)
	fmt.Println()
	fmt.Println("XP Share:")
	for skill, share := range p.XPShare {
		if share > 0 {
			fmt.Printf("  %-10s %5.1f%%  (+%.0f%% bonus)\n", catalog.Skill(skill), share*100, p.XPBonus[skill])
		}
	}
}

// simulate runs a batch over the selected groups, reporting progress on
// stderr. Ctrl+C cancels the batch and keeps whatever finished.
func simulate(sess *session, groups string) (*scheduler.Scheduler, scheduler.Summary) {
	filter, err := parseGroups(groups)
	if err != nil {
		fatalf("%v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sched := sess.newScheduler()
	step := 0
	unsubscribe := sched.Subscribe(func(ev scheduler.Event) {
		if ev.Kind != scheduler.EventProgress || ev.Total == 0 {
			return
		}
		if pct := ev.Done * 10 / ev.Total; pct > step {
			step = pct
			fmt.Fprintf(os.Stderr, "\r  %3d%% (%d/%d)", pct*10, ev.Done, ev.Total)
		}
	})
	defer unsubscribe()

	summary, err := sched.Run(ctx, filter)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		fatalf("%v", err)
	}
	logger.Always("Batch summary", "state", summary.State.String(), "processed", summary.Processed,
		"failed", summary.Failed, "total", summary.Total, "elapsed", summary.Elapsed)
	return sched, summary
}

func runBatch() {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	common := addCommonFlags(fs)
	engine := addEngineFlags(fs)
	statKey := fs.String("stat", "killTime", "Stat to print for each entry")
	dungeon := fs.Int("dungeon", -1, "Drill into a dungeon by catalog index")
	save := fs.String("save", "", "Save the results as a named comparison")
	fs.Parse(os.Args[2:])

	stat, ok := results.LookupStat(*statKey)
	if !ok {
		fatalf("unknown stat %q", *statKey)
	}

	sess, err := loadSession(common, &engine)
	if err != nil {
		fatalf("%v", err)
	}

	fmt.Println("=== Batch Simulation ===")
	fmt.Println()
	fmt.Printf("Trials: %d, Max Actions: %d, Groups: %s\n", sess.cfg.Engine.Trials, sess.cfg.Engine.MaxActions, *engine.groups)
	fmt.Println()

	sched, summary := simulate(sess, *engine.groups)
	table := sched.Table()

	mode := results.Overview
	if *dungeon >= 0 {
		if _, ok := sess.cat.Dungeon(*dungeon); !ok {
			fatalf("unknown dungeon index %d", *dungeon)
		}
		mode = results.Mode{DrillIn: true, Dungeon: *dungeon}
	}

	fmt.Printf("%-16s  %-28s  %s\n", "Group", "Name", stat.Name)
	fmt.Println(strings.Repeat("-", 64))
	for _, e := range results.Enumerate(sess.cat, mode) {
		r := table.Lookup(e)
		fmt.Printf("%-16s  %-28s  %s\n", e.Group, e.Name, results.FormatValue(&r, stat))
	}
	fmt.Println()
	fmt.Printf("%s: %d/%d simulated, %d failed, %s\n", summary.State, summary.Processed, summary.Total,
		summary.Failed, summary.Elapsed.Round(1e6))

	if *save == "" {
		return
	}
	db, err := sess.openStore()
	if err != nil {
		fatalf("failed to open comparison store: %v", err)
	}
	defer db.Close()
	c, err := db.SaveComparison(*save, table.Snapshot(sess.build))
	if err != nil {
		fatalf("failed to save comparison: %v", err)
	}
	fmt.Printf("Saved comparison %q (%s)\n", c.Name, c.ID)
}

func runExport() {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	common := addCommonFlags(fs)
	engine := addEngineFlags(fs)
	columns := fs.String("columns", "", "Comma-separated stat keys (default: all)")
	expand := fs.Bool("expand", false, "List each dungeon's monsters after the dungeon")
	noName := fs.Bool("no-name", false, "Omit the name column")
	out := fs.String("out", "", "Output file (default: stdout)")
	fs.Parse(os.Args[2:])

	opts := results.ExportOptions{Name: !*noName, ExpandDungeons: *expand}
	if *columns != "" {
		opts.Columns = strings.Split(*columns, ",")
	}

	sess, err := loadSession(common, &engine)
	if err != nil {
		fatalf("%v", err)
	}
	sched, _ := simulate(sess, *engine.groups)

	rows, err := sched.Table().ExportFlat(opts)
	if err != nil {
		fatalf("%v", err)
	}

	w := os.Stdout
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			fatalf("%v", err)
		}
		defer f.Close()
		w = f
	}
	if err := results.WriteCSV(w, rows); err != nil {
		fatalf("failed to write CSV: %v", err)
	}
}
