package results

import "github.com/lawnchairsociety/combatsim/internal/catalog"

// Access reports whether the current build can fight in an area.
// *combat.Resolver implements it.
type Access interface {
	CanAccessArea(area *catalog.Area) bool
}

// EntryKind says which result table an entry reads from.
type EntryKind int

const (
	EntryMonster EntryKind = iota
	EntryDungeon
	EntryTask
)

// Group is the section of the canonical enumeration an entry belongs to.
type Group int

const (
	GroupCombatArea Group = iota
	GroupWandering
	GroupSlayerArea
	GroupDungeons
	GroupTasks
	GroupDungeonMonsters
)

func (g Group) String() string {
	switch g {
	case GroupCombatArea:
		return "combat area"
	case GroupWandering:
		return "wandering"
	case GroupSlayerArea:
		return "slayer area"
	case GroupDungeons:
		return "dungeon"
	case GroupTasks:
		return "slayer task"
	case GroupDungeonMonsters:
		return "dungeon monster"
	}
	return "unknown"
}

// Entry is one bar of a data set or one row of an export. ID is a monster
// ID for monster entries and a catalog index for dungeons and tasks.
type Entry struct {
	Kind  EntryKind
	ID    int
	Name  string
	Group Group
}

// Mode selects the enumeration. Drilling into a dungeon lists its
// monsters in fight order instead of the overview.
type Mode struct {
	DrillIn bool
	Dungeon int // catalog index, used when DrillIn is set
}

// Overview is the default enumeration.
var Overview = Mode{}

// Enumerate returns the canonical entry order: combat area monsters, the
// wandering monster, slayer area monsters, dungeons, then slayer tasks.
// Every data set, export and result slice uses this order.
func Enumerate(cat *catalog.Catalog, mode Mode) []Entry {
	if mode.DrillIn {
		d, ok := cat.Dungeon(mode.Dungeon)
		if !ok {
			return nil
		}
		entries := make([]Entry, 0, len(d.Monsters))
		for _, id := range d.Monsters {
			entries = append(entries, monsterEntry(cat, id, GroupDungeonMonsters))
		}
		return entries
	}

	var entries []Entry
	for _, a := range cat.CombatAreas() {
		for _, id := range a.Monsters {
			entries = append(entries, monsterEntry(cat, id, GroupCombatArea))
		}
	}
	if id := cat.WanderingMonster(); id != 0 {
		entries = append(entries, monsterEntry(cat, id, GroupWandering))
	}
	for _, a := range cat.SlayerAreas() {
		for _, id := range a.Monsters {
			entries = append(entries, monsterEntry(cat, id, GroupSlayerArea))
		}
	}
	for i, d := range cat.Dungeons() {
		entries = append(entries, Entry{Kind: EntryDungeon, ID: i, Name: d.Name, Group: GroupDungeons})
	}
	for i, t := range cat.SlayerTasks() {
		entries = append(entries, Entry{Kind: EntryTask, ID: i, Name: t.Name, Group: GroupTasks})
	}
	return entries
}

func monsterEntry(cat *catalog.Catalog, id int, g Group) Entry {
	name := ""
	if m, ok := cat.Monster(id); ok {
		name = m.Name
	}
	return Entry{Kind: EntryMonster, ID: id, Name: name, Group: g}
}

// TaskMonsters lists the monsters a slayer task tier can assign to the
// current build, in catalog order. A monster must be slayer-eligible, have
// a combat level in the tier's range, and live in an accessible area.
// Monsters not listed in any area are always accessible. A tier whose
// slayer level the build lacks assigns nothing.
func TaskMonsters(cat *catalog.Catalog, task *catalog.SlayerTask, access Access) []int {
	if !access.CanAccessArea(&catalog.Area{Name: task.Name, SlayerLevel: task.SlayerLevel}) {
		return nil
	}
	var ids []int
	for i := range cat.Monsters() {
		m := &cat.Monsters()[i]
		if !m.CanSlayer {
			continue
		}
		if lvl := m.CombatLevel(); lvl < task.MinLevel || lvl > task.MaxLevel {
			continue
		}
		if area, ok := cat.AreaOf(m.ID); ok && !access.CanAccessArea(area) {
			continue
		}
		ids = append(ids, m.ID)
	}
	return ids
}
