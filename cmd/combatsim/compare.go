package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"sort"

	"github.com/lawnchairsociety/combatsim/internal/database"
	"github.com/lawnchairsociety/combatsim/internal/results"
)

// diffRow is one line of a comparison between two saved snapshots.
type diffRow struct {
	Name  string
	A, B  float64
	Delta float64 // B - A, NaN when either side is undefined
}

// diffSnapshots lines up two snapshots by monster ID and group index and
// reports the chosen stat for every entry present in either.
func diffSnapshots(a, b results.Snapshot, stat results.Stat) []diffRow {
	type pair struct {
		name string
		a, b float64
	}
	nan := math.NaN()

	monsters := make(map[int]*pair)
	for _, m := range a.Monsters {
		monsters[m.ID] = &pair{name: m.Name, a: stat.Value(&m.Result), b: nan}
	}
	for _, m := range b.Monsters {
		p, ok := monsters[m.ID]
		if !ok {
			p = &pair{name: m.Name, a: nan}
			monsters[m.ID] = p
		}
		p.b = stat.Value(&m.Result)
	}
	ids := make([]int, 0, len(monsters))
	for id := range monsters {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	var rows []diffRow
	add := func(name string, av, bv float64) {
		rows = append(rows, diffRow{Name: name, A: av, B: bv, Delta: bv - av})
	}
	for _, id := range ids {
		p := monsters[id]
		add(p.name, p.a, p.b)
	}

	groups := func(as, bs []results.GroupResult) {
		n := max(len(as), len(bs))
		for i := 0; i < n; i++ {
			av, bv, name := nan, nan, ""
			if i < len(as) {
				av, name = stat.Value(&as[i].Result), as[i].Name
			}
			if i < len(bs) {
				bv, name = stat.Value(&bs[i].Result), bs[i].Name
			}
			add(name, av, bv)
		}
	}
	groups(a.Dungeons, b.Dungeons)
	groups(a.Tasks, b.Tasks)
	return rows
}

func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return "-"
	}
	return fmt.Sprintf("%.4g", v)
}

func runCompare() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: combatsim compare <list|show|diff|delete> [options]")
		os.Exit(1)
	}

	fs := flag.NewFlagSet("compare "+os.Args[2], flag.ExitOnError)
	common := addCommonFlags(fs)
	statKey := fs.String("stat", "killTime", "Stat to compare (diff only)")
	fs.Parse(os.Args[3:])

	sess, err := loadSession(common, nil)
	if err != nil {
		fatalf("%v", err)
	}
	db, err := sess.openStore()
	if err != nil {
		fatalf("failed to open comparison store: %v", err)
	}
	defer db.Close()

	switch os.Args[2] {
	case "list":
		infos, err := db.ListComparisons()
		if err != nil {
			fatalf("%v", err)
		}
		current, _ := database.Fingerprint(sess.build)
		fmt.Printf("%-36s  %-24s  %-8s  %s\n", "ID", "Name", "Monsters", "Saved")
		for _, c := range infos {
			marker := ""
			if c.Fingerprint == current {
				marker = "  (current build)"
			}
			fmt.Printf("%-36s  %-24s  %-8d  %s%s\n", c.ID, c.Name, c.Monsters, c.CreatedAt.Format("2006-01-02 15:04"), marker)
		}

	case "show":
		if fs.NArg() != 1 {
			fatalf("show takes one comparison ID")
		}
		c, err := db.GetComparison(fs.Arg(0))
		if err != nil {
			fatalf("%v", err)
		}
		data, err := results.MarshalSnapshot(c.Snapshot)
		if err != nil {
			fatalf("%v", err)
		}
		os.Stdout.Write(data)

	case "diff":
		if fs.NArg() != 2 {
			fatalf("diff takes two comparison IDs")
		}
		stat, ok := results.LookupStat(*statKey)
		if !ok {
			fatalf("unknown stat %q", *statKey)
		}
		a, err := db.GetComparison(fs.Arg(0))
		if err != nil {
			fatalf("%s: %v", fs.Arg(0), err)
		}
		b, err := db.GetComparison(fs.Arg(1))
		if err != nil {
			fatalf("%s: %v", fs.Arg(1), err)
		}

		fmt.Printf("=== %s: %s vs %s ===\n\n", stat.Name, a.Name, b.Name)
		fmt.Printf("%-28s  %12s  %12s  %12s\n", "Name", a.Name, b.Name, "Delta")
		for _, r := range diffSnapshots(a.Snapshot, b.Snapshot, stat) {
			fmt.Printf("%-28s  %12s  %12s  %12s\n", r.Name, formatFloat(r.A), formatFloat(r.B), formatFloat(r.Delta))
		}

	case "delete":
		if fs.NArg() != 1 {
			fatalf("delete takes one comparison ID")
		}
		if err := db.DeleteComparison(fs.Arg(0)); err != nil {
			fatalf("%v", err)
		}
		fmt.Printf("Deleted comparison %s\n", fs.Arg(0))

	default:
		fatalf("unknown compare command %q", os.Args[2])
	}
}
