// Package combat derives the player's combat statistics from a build.
package combat

import (
	"sort"

	"github.com/lawnchairsociety/combatsim/internal/catalog"
)

// SpellbookMode selects which spellbook the build casts from.
type SpellbookMode int

const (
	SpellbookStandard SpellbookMode = iota
	SpellbookAncient
)

func (m SpellbookMode) String() string {
	if m == SpellbookAncient {
		return "ancient"
	}
	return "standard"
}

// Style indices per attack type.
const (
	MeleeStab  = 0
	MeleeSlash = 1
	MeleeBlock = 2

	RangedAccurate  = 0
	RangedRapid     = 1
	RangedLongrange = 2

	MagicStandard  = 0
	MagicDefensive = 1
)

// Build is the full set of player selections. Attack type is never stored;
// it is derived from the equipped weapon.
type Build struct {
	Levels    [catalog.NumSkills]int `yaml:"levels"`
	Equipment [catalog.NumSlots]int  `yaml:"equipment"` // item id per slot, 0 = empty
	Styles    [3]int                 `yaml:"styles"`    // style index per attack type

	Spellbook SpellbookMode `yaml:"spellbook"`
	Spell     int           `yaml:"spell,omitempty"`
	Ancient   int           `yaml:"ancient,omitempty"`
	Curse     int           `yaml:"curse,omitempty"`
	Aurora    int           `yaml:"aurora,omitempty"`

	Prayers    map[int]bool `yaml:"prayers,omitempty"`
	Potion     int          `yaml:"potion,omitempty"`
	PotionTier int          `yaml:"potion_tier,omitempty"`
	Pets       map[int]bool `yaml:"pets,omitempty"`

	Obstacles    map[int]int  `yaml:"obstacles,omitempty"` // category -> obstacle id
	Mastery      map[int]bool `yaml:"mastery,omitempty"`   // category -> mastered
	Pillar       int          `yaml:"pillar,omitempty"`
	ShopUpgrades map[int]bool `yaml:"shop_upgrades,omitempty"`

	AutoEat int `yaml:"auto_eat,omitempty"`
	Food    int `yaml:"food,omitempty"`

	Hardcore         bool `yaml:"hardcore,omitempty"`
	Adventure        bool `yaml:"adventure,omitempty"`
	CombinationRunes bool `yaml:"combination_runes,omitempty"`
}

// NewBuild returns a fresh level-1 build with 10 hitpoints.
func NewBuild() *Build {
	b := &Build{}
	b.Reset()
	return b
}

// Reset restores every selection to its default.
func (b *Build) Reset() {
	*b = Build{
		Prayers:      make(map[int]bool),
		Pets:         make(map[int]bool),
		Obstacles:    make(map[int]int),
		Mastery:      make(map[int]bool),
		ShopUpgrades: make(map[int]bool),
	}
	for i := range b.Levels {
		b.Levels[i] = 1
	}
	b.Levels[catalog.Hitpoints] = 10
}

// SetLevel sets a skill level, clamped to at least 1.
func (b *Build) SetLevel(skill catalog.Skill, level int) {
	if level < 1 {
		level = 1
	}
	b.Levels[skill] = level
}

// Level returns a skill level.
func (b *Build) Level(skill catalog.Skill) int {
	return b.Levels[skill]
}

// Equip places an item in a slot. Equipping a two-handed weapon clears the shield.
func (b *Build) Equip(cat *catalog.Catalog, itemID int) bool {
	item, ok := cat.Item(itemID)
	if !ok || item.Slot == catalog.SlotNone {
		return false
	}
	b.Equipment[item.Slot] = itemID
	if item.Slot == catalog.SlotWeapon && item.TwoHanded {
		b.Equipment[catalog.SlotShield] = 0
	}
	if item.Slot == catalog.SlotShield {
		if w, ok := cat.Item(b.Equipment[catalog.SlotWeapon]); ok && w.TwoHanded {
			b.Equipment[catalog.SlotWeapon] = 0
		}
	}
	return true
}

// Unequip empties a slot.
func (b *Build) Unequip(slot catalog.EquipmentSlot) {
	b.Equipment[slot] = 0
}

// IsEquipped reports whether the item is worn in any slot.
func (b *Build) IsEquipped(itemID int) bool {
	if itemID == 0 {
		return false
	}
	for _, id := range b.Equipment {
		if id == itemID {
			return true
		}
	}
	return false
}

// SetStyle selects the style index for an attack type.
func (b *Build) SetStyle(t catalog.AttackType, style int) {
	if style < 0 || style > 2 {
		return
	}
	b.Styles[t] = style
}

// UseSpell switches to the standard spellbook and selects a spell.
func (b *Build) UseSpell(spellID int) {
	b.Spellbook = SpellbookStandard
	b.Spell = spellID
}

// UseAncient switches to ancient magicks. Curses and auroras are dropped.
func (b *Build) UseAncient(ancientID int) {
	b.Spellbook = SpellbookAncient
	b.Ancient = ancientID
	b.Curse = 0
	b.Aurora = 0
}

// SetCurse selects a curse. Ignored in ancient mode.
func (b *Build) SetCurse(curseID int) {
	if b.Spellbook == SpellbookAncient {
		return
	}
	b.Curse = curseID
}

// SetAurora selects an aurora. Ignored in ancient mode.
func (b *Build) SetAurora(auroraID int) {
	if b.Spellbook == SpellbookAncient {
		return
	}
	b.Aurora = auroraID
}

// SetPrayer toggles a prayer.
func (b *Build) SetPrayer(prayerID int, active bool) {
	if active {
		b.Prayers[prayerID] = true
	} else {
		delete(b.Prayers, prayerID)
	}
}

// SetPotion selects a potion and tier. A zero id clears it.
func (b *Build) SetPotion(potionID, tier int) {
	b.Potion = potionID
	b.PotionTier = tier
}

// SetPet toggles pet ownership.
func (b *Build) SetPet(petID int, owned bool) {
	if owned {
		b.Pets[petID] = true
	} else {
		delete(b.Pets, petID)
	}
}

// SetObstacle builds an obstacle in its category. A zero id clears the category.
func (b *Build) SetObstacle(category, obstacleID int) {
	if obstacleID == 0 {
		delete(b.Obstacles, category)
		return
	}
	b.Obstacles[category] = obstacleID
}

// SetMastery flags a category's obstacle as mastered.
func (b *Build) SetMastery(category int, mastered bool) {
	if mastered {
		b.Mastery[category] = true
	} else {
		delete(b.Mastery, category)
	}
}

// SetShopUpgrade toggles a purchased shop upgrade.
func (b *Build) SetShopUpgrade(upgradeID int, owned bool) {
	if owned {
		b.ShopUpgrades[upgradeID] = true
	} else {
		delete(b.ShopUpgrades, upgradeID)
	}
}

// ActivePrayers returns the active prayer ids in ascending order.
func (b *Build) ActivePrayers() []int {
	return sortedKeys(b.Prayers)
}

// OwnedPets returns the owned pet ids in ascending order.
func (b *Build) OwnedPets() []int {
	return sortedKeys(b.Pets)
}

// Clone returns a deep copy of the build.
func (b *Build) Clone() *Build {
	c := *b
	c.Prayers = cloneSet(b.Prayers)
	c.Pets = cloneSet(b.Pets)
	c.Mastery = cloneSet(b.Mastery)
	c.ShopUpgrades = cloneSet(b.ShopUpgrades)
	c.Obstacles = make(map[int]int, len(b.Obstacles))
	for k, v := range b.Obstacles {
		c.Obstacles[k] = v
	}
	return &c
}

func cloneSet(m map[int]bool) map[int]bool {
	out := make(map[int]bool, len(m))
	for k, v := range m {
		if v {
			out[k] = true
		}
	}
	return out
}

func sortedKeys(m map[int]bool) []int {
	keys := make([]int, 0, len(m))
	for k, v := range m {
		if v {
			keys = append(keys, k)
		}
	}
	sort.Ints(keys)
	return keys
}
