package catalog_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/lawnchairsociety/combatsim/internal/catalog"
	"github.com/lawnchairsociety/combatsim/internal/catalog/catalogtest"
	"github.com/lawnchairsociety/combatsim/internal/modifiers"
)

const sampleYAML = `
wandering_monster: 2
items:
  - id: 1
    name: Bronze Sword
    slot: weapon
    type: melee
    attack_bonus: [4, 6, 0]
    strength_bonus: 5
    attack_speed: 2400
    modifiers:
      increasedGlobalAccuracy: 3
  - id: 2
    name: Feather
    sell_price: 2
monsters:
  - id: 1
    name: Chicken
    levels: {hitpoints: 3, attack: 1, strength: 1, defence: 1}
    attack_type: melee
    attack_speed: 2400
    loot_chance: 100
    loot:
      - {item: 2, weight: 1, max_quantity: 5}
  - id: 2
    name: Bane
    levels: {hitpoints: 500, attack: 150, strength: 150, defence: 150}
    attack_type: magic
    attack_speed: 3000
    is_boss: true
combat_areas:
  - id: 1
    name: Farmlands
    monsters: [1]
pets:
  - id: 1
    name: Pecker
    skill: attack
`

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write catalog file: %v", err)
	}
	return path
}

func TestLoadFromYAML(t *testing.T) {
	c, err := catalog.LoadFromYAML(writeFile(t, sampleYAML))
	if err != nil {
		t.Fatalf("LoadFromYAML failed: %v", err)
	}

	sword, ok := c.Item(1)
	if !ok {
		t.Fatal("item 1 not found")
	}
	if sword.Slot != catalog.SlotWeapon {
		t.Errorf("sword slot = %v, want weapon", sword.Slot)
	}
	if sword.Stats.AttackBonus != [3]int{4, 6, 0} {
		t.Errorf("sword attack bonus = %v", sword.Stats.AttackBonus)
	}
	if got := sword.Modifiers.Resolve(modifiers.GlobalAccuracy); got != 3 {
		t.Errorf("sword accuracy modifier = %v, want 3", got)
	}

	bane := c.MustMonster(2)
	if bane.AttackType != catalog.MagicType || !bane.IsBoss {
		t.Errorf("bane = %+v", bane)
	}
	if c.WanderingMonster() != 2 {
		t.Errorf("WanderingMonster() = %d, want 2", c.WanderingMonster())
	}

	pet, ok := c.Pet(1)
	if !ok || pet.Skill == nil || *pet.Skill != catalog.Attack {
		t.Errorf("pet skill not parsed: %+v", pet)
	}
}

func TestLoadFromYAMLErrors(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		notFound bool
	}{
		{"bad yaml", "monsters: [", false},
		{"unknown area monster", "combat_areas:\n  - {id: 1, name: A, monsters: [7]}\n", true},
		{"unknown loot item", "monsters:\n  - {id: 1, name: M, attack_type: melee, loot: [{item: 9, weight: 1, max_quantity: 1}]}\n", true},
		{"unknown wandering monster", "wandering_monster: 3\n", true},
		{"empty dungeon", "dungeons:\n  - {id: 1, name: D, monsters: []}\n", false},
		{"inverted task", "slayer_tasks:\n  - {id: 1, name: T, min_level: 10, max_level: 5}\n", false},
		{"duplicate monster", "monsters:\n  - {id: 1, name: A, attack_type: melee}\n  - {id: 1, name: B, attack_type: melee}\n", false},
		{"unknown attack type", "monsters:\n  - {id: 1, name: A, attack_type: psychic}\n", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := catalog.LoadFromYAML(writeFile(t, tt.content))
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if tt.notFound && !errors.Is(err, catalog.ErrNotFound) {
				t.Errorf("error %v does not wrap ErrNotFound", err)
			}
		})
	}
}

func TestLoadFromYAMLMissingFile(t *testing.T) {
	_, err := catalog.LoadFromYAML(filepath.Join(t.TempDir(), "missing.yaml"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected wrapped ErrNotExist, got %v", err)
	}
}

func TestMustMonsterPanics(t *testing.T) {
	c := catalogtest.New()
	defer func() {
		if recover() == nil {
			t.Error("MustMonster(unknown) did not panic")
		}
	}()
	c.MustMonster(9999)
}

func TestAreaOf(t *testing.T) {
	c := catalogtest.New()

	tests := []struct {
		monster int
		area    string
		found   bool
	}{
		{catalogtest.Chicken, "Farmlands", true},
		{catalogtest.Wizard, "Archery Range", true},
		{catalogtest.CaveBeast, "Dark Cave", true},
		{catalogtest.Guard, "", false},
	}
	for _, tt := range tests {
		area, ok := c.AreaOf(tt.monster)
		if ok != tt.found {
			t.Errorf("AreaOf(%d) found = %v, want %v", tt.monster, ok, tt.found)
			continue
		}
		if ok && area.Name != tt.area {
			t.Errorf("AreaOf(%d) = %q, want %q", tt.monster, area.Name, tt.area)
		}
	}
}

func TestIndexAccessors(t *testing.T) {
	c := catalogtest.New()

	if _, ok := c.Dungeon(-1); ok {
		t.Error("Dungeon(-1) should not exist")
	}
	d, ok := c.Dungeon(catalogtest.GuardPost)
	if !ok || len(d.Monsters) != 3 {
		t.Fatalf("Dungeon(GuardPost) = %+v, %v", d, ok)
	}
	if _, ok := c.SlayerTask(len(c.SlayerTasks())); ok {
		t.Error("SlayerTask(out of range) should not exist")
	}
}

func TestCombatLevel(t *testing.T) {
	tests := []struct {
		name   string
		levels catalog.MonsterLevels
		want   int
	}{
		{"melee", catalog.MonsterLevels{Hitpoints: 10, Attack: 10, Strength: 10, Defence: 10}, 11},
		{"ranged", catalog.MonsterLevels{Hitpoints: 20, Ranged: 20, Defence: 10}, 17},
		{"zero", catalog.MonsterLevels{}, 0},
	}
	for _, tt := range tests {
		m := catalog.Monster{Levels: tt.levels}
		if got := m.CombatLevel(); got != tt.want {
			t.Errorf("%s: CombatLevel() = %d, want %d", tt.name, got, tt.want)
		}
	}
}

func TestItemWeaponFlags(t *testing.T) {
	c := catalogtest.New()

	bow, _ := c.Item(catalogtest.OakShortbow)
	staff, _ := c.Item(catalogtest.StaffOfAir)
	sword, _ := c.Item(catalogtest.BronzeSword)

	if !bow.IsRangedWeapon() || bow.IsMagicWeapon() {
		t.Error("bow should be ranged by category")
	}
	if staff.IsRangedWeapon() || !staff.IsMagicWeapon() {
		t.Error("staff should be magic")
	}
	if sword.IsRangedWeapon() || sword.IsMagicWeapon() {
		t.Error("sword should be neither ranged nor magic")
	}
}

func TestPrayerProtects(t *testing.T) {
	c := catalogtest.New()
	p, ok := c.Prayer(catalogtest.ProtectMelee)
	if !ok {
		t.Fatal("protect prayer missing from fixture")
	}
	if !p.Protects(catalog.Melee) {
		t.Error("Protect from Melee should cover melee")
	}
	if p.Protects(catalog.RangedType) || p.Protects(catalog.MagicType) {
		t.Error("Protect from Melee should not cover ranged or magic")
	}
}
