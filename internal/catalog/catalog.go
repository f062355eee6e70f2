// Package catalog holds the immutable game data tables (monsters, items,
// spells, prayers, areas, dungeons) the simulator reads from.
package catalog

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrNotFound is returned when a lookup references an unknown ID.
var ErrNotFound = errors.New("catalog entry not found")

// AgilityDefinitions groups the agility course data.
type AgilityDefinitions struct {
	Obstacles []Obstacle `yaml:"obstacles"`
	Pillars   []Pillar   `yaml:"pillars"`
}

// Definitions is the YAML document shape of a catalog file.
type Definitions struct {
	WanderingMonster int                `yaml:"wandering_monster"`
	Monsters         []Monster          `yaml:"monsters"`
	Items            []Item             `yaml:"items"`
	Spells           []Spell            `yaml:"spells"`
	Ancients         []AncientSpell     `yaml:"ancients"`
	Curses           []Curse            `yaml:"curses"`
	Auroras          []Aurora           `yaml:"auroras"`
	Prayers          []PrayerDef        `yaml:"prayers"`
	Pets             []Pet              `yaml:"pets"`
	Potions          []Potion           `yaml:"potions"`
	AutoEat          []AutoEatTier      `yaml:"auto_eat"`
	CombatAreas      []Area             `yaml:"combat_areas"`
	SlayerAreas      []Area             `yaml:"slayer_areas"`
	Dungeons         []Dungeon          `yaml:"dungeons"`
	SlayerTasks      []SlayerTask       `yaml:"slayer_tasks"`
	Agility          AgilityDefinitions `yaml:"agility"`
	ShopUpgrades     []ShopUpgrade      `yaml:"shop_upgrades"`
}

// Catalog is a validated, indexed, read-only view over Definitions.
// It is safe for concurrent readers.
type Catalog struct {
	defs Definitions

	monsters  map[int]*Monster
	items     map[int]*Item
	spells    map[int]*Spell
	ancients  map[int]*AncientSpell
	curses    map[int]*Curse
	auroras   map[int]*Aurora
	prayers   map[int]*PrayerDef
	pets      map[int]*Pet
	potions   map[int]*Potion
	autoEat   map[int]*AutoEatTier
	obstacles map[int]*Obstacle
	pillars   map[int]*Pillar
	upgrades  map[int]*ShopUpgrade
}

// LoadFromYAML reads and validates a catalog file.
func LoadFromYAML(filename string) (*Catalog, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	var defs Definitions
	if err := yaml.Unmarshal(data, &defs); err != nil {
		return nil, fmt.Errorf("failed to parse catalog YAML: %w", err)
	}

	return New(defs)
}

// New indexes and validates definitions.
func New(defs Definitions) (*Catalog, error) {
	c := &Catalog{
		defs:      defs,
		monsters:  make(map[int]*Monster, len(defs.Monsters)),
		items:     make(map[int]*Item, len(defs.Items)),
		spells:    make(map[int]*Spell, len(defs.Spells)),
		ancients:  make(map[int]*AncientSpell, len(defs.Ancients)),
		curses:    make(map[int]*Curse, len(defs.Curses)),
		auroras:   make(map[int]*Aurora, len(defs.Auroras)),
		prayers:   make(map[int]*PrayerDef, len(defs.Prayers)),
		pets:      make(map[int]*Pet, len(defs.Pets)),
		potions:   make(map[int]*Potion, len(defs.Potions)),
		autoEat:   make(map[int]*AutoEatTier, len(defs.AutoEat)),
		obstacles: make(map[int]*Obstacle, len(defs.Agility.Obstacles)),
		pillars:   make(map[int]*Pillar, len(defs.Agility.Pillars)),
		upgrades:  make(map[int]*ShopUpgrade, len(defs.ShopUpgrades)),
	}

	for i := range c.defs.Monsters {
		m := &c.defs.Monsters[i]
		if _, dup := c.monsters[m.ID]; dup {
			return nil, fmt.Errorf("duplicate monster id %d", m.ID)
		}
		c.monsters[m.ID] = m
	}
	for i := range c.defs.Items {
		it := &c.defs.Items[i]
		if _, dup := c.items[it.ID]; dup {
			return nil, fmt.Errorf("duplicate item id %d", it.ID)
		}
		c.items[it.ID] = it
	}
	for i := range c.defs.Spells {
		c.spells[c.defs.Spells[i].ID] = &c.defs.Spells[i]
	}
	for i := range c.defs.Ancients {
		c.ancients[c.defs.Ancients[i].ID] = &c.defs.Ancients[i]
	}
	for i := range c.defs.Curses {
		c.curses[c.defs.Curses[i].ID] = &c.defs.Curses[i]
	}
	for i := range c.defs.Auroras {
		c.auroras[c.defs.Auroras[i].ID] = &c.defs.Auroras[i]
	}
	for i := range c.defs.Prayers {
		c.prayers[c.defs.Prayers[i].ID] = &c.defs.Prayers[i]
	}
	for i := range c.defs.Pets {
		c.pets[c.defs.Pets[i].ID] = &c.defs.Pets[i]
	}
	for i := range c.defs.Potions {
		c.potions[c.defs.Potions[i].ID] = &c.defs.Potions[i]
	}
	for i := range c.defs.AutoEat {
		c.autoEat[c.defs.AutoEat[i].ID] = &c.defs.AutoEat[i]
	}
	for i := range c.defs.Agility.Obstacles {
		c.obstacles[c.defs.Agility.Obstacles[i].ID] = &c.defs.Agility.Obstacles[i]
	}
	for i := range c.defs.Agility.Pillars {
		c.pillars[c.defs.Agility.Pillars[i].ID] = &c.defs.Agility.Pillars[i]
	}
	for i := range c.defs.ShopUpgrades {
		c.upgrades[c.defs.ShopUpgrades[i].ID] = &c.defs.ShopUpgrades[i]
	}

	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// validate checks that every cross reference resolves.
func (c *Catalog) validate() error {
	checkMonsters := func(kind, name string, ids []int) error {
		for _, id := range ids {
			if _, ok := c.monsters[id]; !ok {
				return fmt.Errorf("%s %q references monster %d: %w", kind, name, id, ErrNotFound)
			}
		}
		return nil
	}

	if c.defs.WanderingMonster != 0 {
		if _, ok := c.monsters[c.defs.WanderingMonster]; !ok {
			return fmt.Errorf("wandering monster %d: %w", c.defs.WanderingMonster, ErrNotFound)
		}
	}
	for _, a := range c.defs.CombatAreas {
		if err := checkMonsters("combat area", a.Name, a.Monsters); err != nil {
			return err
		}
	}
	for _, a := range c.defs.SlayerAreas {
		if err := checkMonsters("slayer area", a.Name, a.Monsters); err != nil {
			return err
		}
	}
	for _, d := range c.defs.Dungeons {
		if len(d.Monsters) == 0 {
			return fmt.Errorf("dungeon %q has no monsters", d.Name)
		}
		if err := checkMonsters("dungeon", d.Name, d.Monsters); err != nil {
			return err
		}
	}
	for _, m := range c.defs.Monsters {
		for _, l := range m.Loot {
			if _, ok := c.items[l.ItemID]; !ok {
				return fmt.Errorf("monster %q loot references item %d: %w", m.Name, l.ItemID, ErrNotFound)
			}
		}
	}
	for _, t := range c.defs.SlayerTasks {
		if t.MaxLevel < t.MinLevel {
			return fmt.Errorf("slayer task %q has max level %d below min level %d", t.Name, t.MaxLevel, t.MinLevel)
		}
	}
	return nil
}

// Monster looks up a monster by ID.
func (c *Catalog) Monster(id int) (*Monster, bool) {
	m, ok := c.monsters[id]
	return m, ok
}

// MustMonster looks up a monster and panics if it does not exist.
// Unknown IDs here are programmer errors, not user input.
func (c *Catalog) MustMonster(id int) *Monster {
	m, ok := c.monsters[id]
	if !ok {
		panic(fmt.Sprintf("catalog: monster %d does not exist", id))
	}
	return m
}

// Item looks up an item by ID.
func (c *Catalog) Item(id int) (*Item, bool) {
	it, ok := c.items[id]
	return it, ok
}

// Spell looks up a standard spell by ID.
func (c *Catalog) Spell(id int) (*Spell, bool) {
	s, ok := c.spells[id]
	return s, ok
}

// Ancient looks up an ancient spell by ID.
func (c *Catalog) Ancient(id int) (*AncientSpell, bool) {
	s, ok := c.ancients[id]
	return s, ok
}

// Curse looks up a curse by ID.
func (c *Catalog) Curse(id int) (*Curse, bool) {
	s, ok := c.curses[id]
	return s, ok
}

// Aurora looks up an aurora by ID.
func (c *Catalog) Aurora(id int) (*Aurora, bool) {
	s, ok := c.auroras[id]
	return s, ok
}

// Prayer looks up a prayer by ID.
func (c *Catalog) Prayer(id int) (*PrayerDef, bool) {
	p, ok := c.prayers[id]
	return p, ok
}

// Pet looks up a pet by ID.
func (c *Catalog) Pet(id int) (*Pet, bool) {
	p, ok := c.pets[id]
	return p, ok
}

// Potion looks up a potion by ID.
func (c *Catalog) Potion(id int) (*Potion, bool) {
	p, ok := c.potions[id]
	return p, ok
}

// AutoEatTier looks up an auto-eat tier by ID.
func (c *Catalog) AutoEatTier(id int) (*AutoEatTier, bool) {
	t, ok := c.autoEat[id]
	return t, ok
}

// Obstacle looks up an agility obstacle by ID.
func (c *Catalog) Obstacle(id int) (*Obstacle, bool) {
	o, ok := c.obstacles[id]
	return o, ok
}

// Pillar looks up an agility pillar by ID.
func (c *Catalog) Pillar(id int) (*Pillar, bool) {
	p, ok := c.pillars[id]
	return p, ok
}

// ShopUpgrade looks up a shop upgrade by ID.
func (c *Catalog) ShopUpgrade(id int) (*ShopUpgrade, bool) {
	u, ok := c.upgrades[id]
	return u, ok
}

// Monsters returns every monster in catalog order.
func (c *Catalog) Monsters() []Monster { return c.defs.Monsters }

// Pets returns every pet in catalog order.
func (c *Catalog) Pets() []Pet { return c.defs.Pets }

// CombatAreas returns the open-world combat areas in catalog order.
func (c *Catalog) CombatAreas() []Area { return c.defs.CombatAreas }

// SlayerAreas returns the restricted slayer areas in catalog order.
func (c *Catalog) SlayerAreas() []Area { return c.defs.SlayerAreas }

// Dungeons returns the dungeons in catalog order.
func (c *Catalog) Dungeons() []Dungeon { return c.defs.Dungeons }

// SlayerTasks returns the slayer task tiers in catalog order.
func (c *Catalog) SlayerTasks() []SlayerTask { return c.defs.SlayerTasks }

// WanderingMonster returns the ID of the special wandering monster, or 0.
func (c *Catalog) WanderingMonster() int { return c.defs.WanderingMonster }

// Dungeon returns the dungeon at index i in catalog order.
func (c *Catalog) Dungeon(i int) (*Dungeon, bool) {
	if i < 0 || i >= len(c.defs.Dungeons) {
		return nil, false
	}
	return &c.defs.Dungeons[i], true
}

// SlayerTask returns the task tier at index i in catalog order.
func (c *Catalog) SlayerTask(i int) (*SlayerTask, bool) {
	if i < 0 || i >= len(c.defs.SlayerTasks) {
		return nil, false
	}
	return &c.defs.SlayerTasks[i], true
}

// AreaOf returns the first area (combat, then slayer) that lists the monster.
func (c *Catalog) AreaOf(monsterID int) (*Area, bool) {
	for _, areas := range [][]Area{c.defs.CombatAreas, c.defs.SlayerAreas} {
		for i := range areas {
			for _, id := range areas[i].Monsters {
				if id == monsterID {
					return &areas[i], true
				}
			}
		}
	}
	return nil, false
}
