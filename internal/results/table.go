package results

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"sync"

	"github.com/lawnchairsociety/combatsim/internal/catalog"
	"github.com/lawnchairsociety/combatsim/internal/combat"
	"github.com/lawnchairsociety/combatsim/internal/enemy"
	"github.com/lawnchairsociety/combatsim/internal/sim"
)

// Table holds the results of the latest batch. During a batch only the
// scheduler's coordinator writes to it; readers may query it at any time.
type Table struct {
	mu       sync.RWMutex
	cat      *catalog.Catalog
	econ     Economy
	player   combat.PlayerStats
	monsters map[int]Result
	// inDungeon holds results of monsters fought inside a dungeon, where
	// dungeon-only bonuses apply. Dungeon rollups read only these.
	inDungeon map[int]Result
	dungeons  []Result
	tasks     []Result
}

// NewTable creates an empty table for a catalog.
func NewTable(cat *catalog.Catalog, econ Economy) *Table {
	t := &Table{cat: cat, econ: econ}
	t.Reset(combat.PlayerStats{})
	return t
}

// Reset clears every result to its default before a batch. p is the
// unadjusted snapshot the batch runs with.
func (t *Table) Reset(p combat.PlayerStats) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.player = p
	t.monsters = make(map[int]Result)
	t.inDungeon = make(map[int]Result)
	t.dungeons = make([]Result, len(t.cat.Dungeons()))
	t.tasks = make([]Result, len(t.cat.SlayerTasks()))
}

// Economy returns the loot and chance settings.
func (t *Table) Economy() Economy {
	return t.econ
}

// Record derives and stores a monster result. p is the snapshot the job
// ran with; inDungeon says whether it was fought inside a dungeon.
func (t *Table) Record(p combat.PlayerStats, e *enemy.Stats, inDungeon bool, out sim.Outcome) Result {
	r := Derive(t.cat, t.econ, p, e, out)
	t.mu.Lock()
	if inDungeon {
		t.inDungeon[e.ID] = r
	} else {
		t.monsters[e.ID] = r
	}
	t.mu.Unlock()
	return r
}

// Monster returns a monster's open-world result. A monster only found in
// dungeons reports its dungeon result. The default means it was not
// simulated in the latest batch.
func (t *Table) Monster(id int) Result {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.monster(id)
}

func (t *Table) monster(id int) Result {
	if r, ok := t.monsters[id]; ok {
		return r
	}
	return t.inDungeon[id]
}

// DungeonMonster returns a monster's result as fought inside a dungeon.
func (t *Table) DungeonMonster(id int) Result {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.inDungeon[id]
}

// Recorded returns how many monster results the latest batch stored.
func (t *Table) Recorded() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.monsters) + len(t.inDungeon)
}

// Dungeon returns the rollup for the dungeon at catalog index i.
func (t *Table) Dungeon(i int) Result {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if i < 0 || i >= len(t.dungeons) {
		return Result{}
	}
	return t.dungeons[i]
}

// Task returns the rollup for the slayer task at catalog index i.
func (t *Table) Task(i int) Result {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if i < 0 || i >= len(t.tasks) {
		return Result{}
	}
	return t.tasks[i]
}

// Aggregate recomputes every dungeon and slayer task rollup from the
// monster results, resolving task membership with access.
func (t *Table) Aggregate(access Access) {
	tasks := t.cat.SlayerTasks()
	members := make([][]int, len(tasks))
	for i := range tasks {
		members[i] = TaskMonsters(t.cat, &tasks[i], access)
	}
	t.AggregateGroups(members)
}

// AggregateGroups recomputes every rollup with task membership already
// resolved, one monster list per task in catalog order.
func (t *Table) AggregateGroups(taskMembers [][]int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i, d := range t.cat.Dungeons() {
		parts := make([]Result, 0, len(d.Monsters))
		for _, id := range d.Monsters {
			parts = append(parts, t.inDungeon[id])
		}
		r := ComputeAverageSimData(parts, GroupDungeon)
		if r.SimSuccess && d.GPReward > 0 && r.KillTime > 0 {
			r.GPPerSecond += float64(d.GPReward) * (1 + t.player.GPPercent/100) / r.KillTime
		}
		t.dungeons[i] = r
	}

	for i := range t.tasks {
		var ids []int
		if i < len(taskMembers) {
			ids = taskMembers[i]
		}
		parts := make([]Result, 0, len(ids))
		for _, id := range ids {
			parts = append(parts, t.monster(id))
		}
		t.tasks[i] = ComputeAverageSimData(parts, GroupSlayerTask)
	}
}

func (t *Table) lookup(e Entry) Result {
	switch e.Kind {
	case EntryDungeon:
		if e.ID >= 0 && e.ID < len(t.dungeons) {
			return t.dungeons[e.ID]
		}
	case EntryTask:
		if e.ID >= 0 && e.ID < len(t.tasks) {
			return t.tasks[e.ID]
		}
	default:
		if e.Group == GroupDungeonMonsters {
			return t.inDungeon[e.ID]
		}
		return t.monster(e.ID)
	}
	return Result{}
}

// Lookup returns the result an entry reads from.
func (t *Table) Lookup(e Entry) Result {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.lookup(e)
}

// DataSet returns one value per entry of the enumeration for mode. Failed
// entries are NaN.
func (t *Table) DataSet(key string, mode Mode) ([]float64, error) {
	stat, ok := LookupStat(key)
	if !ok {
		return nil, fmt.Errorf("unknown stat %q", key)
	}
	entries := Enumerate(t.cat, mode)

	t.mu.RLock()
	defer t.mu.RUnlock()
	values := make([]float64, len(entries))
	for i, e := range entries {
		r := t.lookup(e)
		if r.Failed() {
			values[i] = math.NaN()
			continue
		}
		values[i] = stat.Value(&r)
	}
	return values, nil
}

// ExportOptions configures ExportFlat.
type ExportOptions struct {
	Name           bool     // include a name column
	Columns        []string // stat keys, all stats if empty
	ExpandDungeons bool     // follow each dungeon with its monsters
}

// ExportFlat renders the overview as rows of text with a header row.
// Failed results render as FAILED and undefined values as N/A.
func (t *Table) ExportFlat(opts ExportOptions) ([][]string, error) {
	stats := Stats
	if len(opts.Columns) > 0 {
		stats = make([]Stat, 0, len(opts.Columns))
		for _, key := range opts.Columns {
			s, ok := LookupStat(key)
			if !ok {
				return nil, fmt.Errorf("unknown stat %q", key)
			}
			stats = append(stats, s)
		}
	}

	header := make([]string, 0, len(stats)+1)
	if opts.Name {
		header = append(header, "Name")
	}
	for _, s := range stats {
		header = append(header, s.Name)
	}
	rows := [][]string{header}

	t.mu.RLock()
	defer t.mu.RUnlock()
	addRow := func(name string, r Result) {
		row := make([]string, 0, len(header))
		if opts.Name {
			row = append(row, name)
		}
		for _, s := range stats {
			row = append(row, FormatValue(&r, s))
		}
		rows = append(rows, row)
	}

	for _, e := range Enumerate(t.cat, Overview) {
		addRow(e.Name, t.lookup(e))
		if e.Kind != EntryDungeon || !opts.ExpandDungeons {
			continue
		}
		for _, m := range Enumerate(t.cat, Mode{DrillIn: true, Dungeon: e.ID}) {
			addRow(e.Name+": "+m.Name, t.lookup(m))
		}
	}
	return rows, nil
}

// FormatValue renders one stat of a result for display.
func FormatValue(r *Result, s Stat) string {
	if r.Failed() {
		return "FAILED"
	}
	v := s.Value(r)
	if math.IsNaN(v) {
		return "N/A"
	}
	return strconv.FormatFloat(v, 'g', 6, 64)
}

// WriteCSV writes exported rows as CSV.
func WriteCSV(w io.Writer, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write CSV: %w", err)
	}
	return nil
}
