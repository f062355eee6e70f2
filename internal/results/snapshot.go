package results

import (
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/lawnchairsociety/combatsim/internal/combat"
)

// MonsterResult is a monster's result keyed by ID.
type MonsterResult struct {
	ID     int    `yaml:"id"`
	Name   string `yaml:"name"`
	Result Result `yaml:"result"`
}

// GroupResult is a dungeon or slayer task rollup keyed by catalog index.
type GroupResult struct {
	Index  int    `yaml:"index"`
	Name   string `yaml:"name"`
	Result Result `yaml:"result"`
}

// Snapshot is everything needed to redisplay a batch without rerunning it.
type Snapshot struct {
	BuildSettings   *combat.Build   `yaml:"build"`
	Monsters        []MonsterResult `yaml:"monsters"`
	DungeonMonsters []MonsterResult `yaml:"dungeon_monsters,omitempty"`
	Dungeons        []GroupResult   `yaml:"dungeons"`
	Tasks           []GroupResult   `yaml:"tasks"`
}

// Snapshot captures the current results together with the build that
// produced them.
func (t *Table) Snapshot(build *combat.Build) Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var s Snapshot
	if build != nil {
		s.BuildSettings = build.Clone()
	}
	s.Monsters = t.monsterResults(t.monsters)
	s.DungeonMonsters = t.monsterResults(t.inDungeon)
	for i, d := range t.cat.Dungeons() {
		s.Dungeons = append(s.Dungeons, GroupResult{Index: i, Name: d.Name, Result: t.dungeons[i]})
	}
	for i, task := range t.cat.SlayerTasks() {
		s.Tasks = append(s.Tasks, GroupResult{Index: i, Name: task.Name, Result: t.tasks[i]})
	}
	return s
}

func (t *Table) monsterResults(m map[int]Result) []MonsterResult {
	ids := make([]int, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	var out []MonsterResult
	for _, id := range ids {
		name := ""
		if mon, ok := t.cat.Monster(id); ok {
			name = mon.Name
		}
		out = append(out, MonsterResult{ID: id, Name: name, Result: m[id]})
	}
	return out
}

// MarshalSnapshot encodes a snapshot as YAML. Undefined rates survive as .nan.
func MarshalSnapshot(s Snapshot) ([]byte, error) {
	data, err := yaml.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	return data, nil
}

// UnmarshalSnapshot decodes a snapshot written by MarshalSnapshot.
func UnmarshalSnapshot(data []byte) (Snapshot, error) {
	var s Snapshot
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Snapshot{}, fmt.Errorf("failed to parse snapshot: %w", err)
	}
	if s.BuildSettings != nil {
		raw, err := combat.ExportBuild(s.BuildSettings)
		if err != nil {
			return Snapshot{}, err
		}
		if s.BuildSettings, err = combat.ImportBuild(raw); err != nil {
			return Snapshot{}, err
		}
	}
	return s, nil
}
