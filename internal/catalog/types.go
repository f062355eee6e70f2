package catalog

import (
	"math"

	"github.com/lawnchairsociety/combatsim/internal/modifiers"
)

// NumberMultiplier scales hitpoints and damage from level units to combat units.
const NumberMultiplier = 10

// EquipmentStats are the combat bonuses an item grants when worn.
type EquipmentStats struct {
	AttackBonus         [3]int `yaml:"attack_bonus,omitempty"` // stab, slash, block
	StrengthBonus       int    `yaml:"strength_bonus,omitempty"`
	DefenceBonus        int    `yaml:"defence_bonus,omitempty"`
	RangedAttackBonus   int    `yaml:"ranged_attack_bonus,omitempty"`
	RangedStrengthBonus int    `yaml:"ranged_strength_bonus,omitempty"`
	RangedDefenceBonus  int    `yaml:"ranged_defence_bonus,omitempty"`
	MagicAttackBonus    int    `yaml:"magic_attack_bonus,omitempty"`
	MagicDamageBonus    int    `yaml:"magic_damage_bonus,omitempty"`
	MagicDefenceBonus   int    `yaml:"magic_defence_bonus,omitempty"`
	DamageReduction     int    `yaml:"damage_reduction,omitempty"`
	AttackSpeed         int    `yaml:"attack_speed,omitempty"`

	AttackLevelRequired  int `yaml:"attack_level_required,omitempty"`
	DefenceLevelRequired int `yaml:"defence_level_required,omitempty"`
	RangedLevelRequired  int `yaml:"ranged_level_required,omitempty"`
	MagicLevelRequired   int `yaml:"magic_level_required,omitempty"`
	SlayerLevelRequired  int `yaml:"slayer_level_required,omitempty"`
}

// SpecialAttack is an attack that replaces a normal one with some chance.
type SpecialAttack struct {
	ID               int     `yaml:"id"`
	Name             string  `yaml:"name"`
	Chance           float64 `yaml:"chance"` // percent
	DamageMultiplier float64 `yaml:"damage_multiplier,omitempty"`
	MaxHit           int     `yaml:"max_hit,omitempty"` // fixed max hit, overrides the normal roll
	Attacks          int     `yaml:"attacks,omitempty"`
	Effect           string  `yaml:"effect,omitempty"` // "mark_of_death", "stun"
	StunTurns        int     `yaml:"stun_turns,omitempty"`
}

// Special attack effects.
const (
	EffectMarkOfDeath = "mark_of_death"
	EffectStun        = "stun"
)

// Hits returns the number of hits the special makes (at least one).
func (s SpecialAttack) Hits() int {
	if s.Attacks < 1 {
		return 1
	}
	return s.Attacks
}

// Multiplier returns the damage multiplier, defaulting to 1.
func (s SpecialAttack) Multiplier() float64 {
	if s.DamageMultiplier == 0 {
		return 1
	}
	return s.DamageMultiplier
}

// Item is anything that can be equipped, eaten, or dropped.
type Item struct {
	ID        int             `yaml:"id"`
	Name      string          `yaml:"name"`
	Slot      EquipmentSlot   `yaml:"slot,omitempty"`
	Stats     EquipmentStats  `yaml:",inline"`
	Modifiers modifiers.Table `yaml:"modifiers,omitempty"`
	Type      string          `yaml:"type,omitempty"`     // "melee", "ranged", "magic"
	Category  string          `yaml:"category,omitempty"` // weapon category, e.g. "bow"
	AmmoType  string          `yaml:"ammo_type,omitempty"`
	TwoHanded bool            `yaml:"two_handed,omitempty"`
	Provides  map[int]int     `yaml:"provides_runes,omitempty"` // rune item id -> count per cast
	Specials  []SpecialAttack `yaml:"special_attacks,omitempty"`
	SellPrice int             `yaml:"sell_price,omitempty"`
	Heals     int             `yaml:"heals,omitempty"` // food heal in level units
}

// rangedCategories are weapon categories that always attack at range.
var rangedCategories = map[string]bool{
	"bow":            true,
	"crossbow":       true,
	"javelin":        true,
	"throwing_knife": true,
}

// IsRangedWeapon reports whether the item is flagged ranged or is a ranged category.
func (i *Item) IsRangedWeapon() bool {
	return i.Type == "ranged" || rangedCategories[i.Category]
}

// IsMagicWeapon reports whether the item is flagged as a magic weapon.
func (i *Item) IsMagicWeapon() bool {
	return i.Type == "magic"
}

// LootEntry is one weighted row of a monster loot table.
type LootEntry struct {
	ItemID      int `yaml:"item"`
	Weight      int `yaml:"weight"`
	MaxQuantity int `yaml:"max_quantity"`
}

// MonsterLevels are a monster's combat skill levels.
type MonsterLevels struct {
	Hitpoints int `yaml:"hitpoints"`
	Attack    int `yaml:"attack"`
	Strength  int `yaml:"strength"`
	Defence   int `yaml:"defence"`
	Ranged    int `yaml:"ranged"`
	Magic     int `yaml:"magic"`
}

// MonsterBonuses are a monster's equipment bonuses.
type MonsterBonuses struct {
	AttackBonus         int `yaml:"attack_bonus"`
	StrengthBonus       int `yaml:"strength_bonus"`
	DefenceBonus        int `yaml:"defence_bonus"`
	RangedAttackBonus   int `yaml:"ranged_attack_bonus"`
	RangedStrengthBonus int `yaml:"ranged_strength_bonus"`
	RangedDefenceBonus  int `yaml:"ranged_defence_bonus"`
	MagicAttackBonus    int `yaml:"magic_attack_bonus"`
	MagicDamageBonus    int `yaml:"magic_damage_bonus"`
	MagicDefenceBonus   int `yaml:"magic_defence_bonus"`
	DamageReduction     int `yaml:"damage_reduction"`
}

// GPRange is the uniform gold drop range of a monster.
type GPRange struct {
	Min int `yaml:"min"`
	Max int `yaml:"max"`
}

// Monster is a catalog enemy definition.
type Monster struct {
	ID          int             `yaml:"id"`
	Name        string          `yaml:"name"`
	Levels      MonsterLevels   `yaml:"levels"`
	Bonuses     MonsterBonuses  `yaml:"bonuses"`
	AttackType  AttackType      `yaml:"attack_type"`
	AttackSpeed int             `yaml:"attack_speed"`
	SpellMaxHit int             `yaml:"spell_max_hit,omitempty"`
	IsBoss      bool            `yaml:"is_boss,omitempty"`
	CanSlayer   bool            `yaml:"can_slayer,omitempty"`
	GP          GPRange         `yaml:"gp,omitempty"`
	BonesID     int             `yaml:"bones,omitempty"`
	BonesQty    int             `yaml:"bones_quantity,omitempty"`
	LootChance  float64         `yaml:"loot_chance,omitempty"` // percent
	Loot        []LootEntry     `yaml:"loot,omitempty"`
	Specials    []SpecialAttack `yaml:"special_attacks,omitempty"`
}

// CombatLevel derives the displayed combat level from the monster levels.
func (m *Monster) CombatLevel() int {
	l := m.Levels
	base := 0.25 * float64(l.Defence+l.Hitpoints)
	melee := 0.325 * float64(l.Attack+l.Strength)
	ranged := 0.325 * math.Floor(1.5*float64(l.Ranged))
	magic := 0.325 * math.Floor(1.5*float64(l.Magic))
	return int(math.Floor(base + math.Max(melee, math.Max(ranged, magic))))
}

// MaxHitpoints returns hitpoints in combat units.
func (m *Monster) MaxHitpoints() int {
	return m.Levels.Hitpoints * NumberMultiplier
}

// Spell is a standard spellbook spell.
type Spell struct {
	ID                  int         `yaml:"id"`
	Name                string      `yaml:"name"`
	Level               int         `yaml:"level"`
	MaxHit              int         `yaml:"max_hit"`
	RuneCost            map[int]int `yaml:"runes,omitempty"`
	CombinationRuneCost map[int]int `yaml:"combination_runes,omitempty"`
}

// AncientSpell is an ancient magick spell with a fixed special attack.
type AncientSpell struct {
	ID       int           `yaml:"id"`
	Name     string        `yaml:"name"`
	Level    int           `yaml:"level"`
	MaxHit   int           `yaml:"max_hit"`
	RuneCost map[int]int   `yaml:"runes,omitempty"`
	Special  SpecialAttack `yaml:"special_attack"`
}

// Curse kinds.
const (
	CurseAccuracy        = "accuracy"
	CurseEvasion         = "evasion"
	CurseDamageReduction = "damage_reduction"
	CurseMaxHit          = "max_hit"
)

// Curse debuffs the enemy for the rest of the fight.
type Curse struct {
	ID       int         `yaml:"id"`
	Name     string      `yaml:"name"`
	Level    int         `yaml:"level"`
	Kind     string      `yaml:"kind"`
	Value    float64     `yaml:"value"` // percent
	RuneCost map[int]int `yaml:"runes,omitempty"`
}

// Aurora is a self-buff cast alongside standard spells.
type Aurora struct {
	ID             int             `yaml:"id"`
	Name           string          `yaml:"name"`
	Level          int             `yaml:"level"`
	Modifiers      modifiers.Table `yaml:"modifiers,omitempty"`
	MinHitIncrease int             `yaml:"min_hit_increase,omitempty"`
	MaxHitIncrease int             `yaml:"max_hit_increase,omitempty"`
	RuneCost       map[int]int     `yaml:"runes,omitempty"`
	RequiredItem   int             `yaml:"required_item,omitempty"`
}

// PrayerDef is an activatable combat prayer.
type PrayerDef struct {
	ID              int             `yaml:"id"`
	Name            string          `yaml:"name"`
	Level           int             `yaml:"level"`
	Modifiers       modifiers.Table `yaml:"modifiers,omitempty"`
	PointsPerPlayer int             `yaml:"points_per_player,omitempty"`
	PointsPerEnemy  int             `yaml:"points_per_enemy,omitempty"`
	PointsPerRegen  int             `yaml:"points_per_regen,omitempty"`
	ProtectFrom     []AttackType    `yaml:"protect_from,omitempty"`
	ProtectChance   float64         `yaml:"protect_chance,omitempty"` // percent of enemy hits blocked
	DoublesRegen    bool            `yaml:"doubles_regen,omitempty"`
}

// Protects reports whether the prayer protects against the attack type.
func (p *PrayerDef) Protects(t AttackType) bool {
	for _, pt := range p.ProtectFrom {
		if pt == t {
			return true
		}
	}
	return false
}

// Pet is an owned companion granting permanent modifiers.
type Pet struct {
	ID              int             `yaml:"id"`
	Name            string          `yaml:"name"`
	Modifiers       modifiers.Table `yaml:"modifiers,omitempty"`
	MeleeStyleBonus bool            `yaml:"melee_style_bonus,omitempty"`
	Skill           *Skill          `yaml:"skill,omitempty"` // skill whose actions roll for this pet
}

// Potion charge triggers.
const (
	ChargeOnAttack    = "attack"
	ChargeOnHitTaken  = "hit_taken"
	ChargeOnRegen     = "regen"
	ChargeOnEnemyKill = "kill"
)

// PotionTier is one tier of a potion.
type PotionTier struct {
	Modifiers modifiers.Table `yaml:"modifiers,omitempty"`
	Charges   int             `yaml:"charges"`
	ItemID    int             `yaml:"item,omitempty"`
}

// Potion is a consumable with tiered effects.
type Potion struct {
	ID       int          `yaml:"id"`
	Name     string       `yaml:"name"`
	ChargeOn string       `yaml:"charge_on"`
	Tiers    []PotionTier `yaml:"tiers"`
}

// AutoEatTier is a purchasable auto-eat upgrade.
type AutoEatTier struct {
	ID         int     `yaml:"id"`
	Name       string  `yaml:"name"`
	Threshold  float64 `yaml:"threshold"`  // eat below this percent of max HP
	Efficiency float64 `yaml:"efficiency"` // percent of food value healed
	MaxHP      float64 `yaml:"max_hp"`     // eat until this percent of max HP
}

// AreaEffect is a penalty applied while fighting in a slayer area.
type AreaEffect struct {
	Modifiers modifiers.Table `yaml:"modifiers"`
	NegatedBy int             `yaml:"negated_by,omitempty"` // item that waives the effect
}

// Area is a combat or slayer area.
type Area struct {
	ID           int         `yaml:"id"`
	Name         string      `yaml:"name"`
	Monsters     []int       `yaml:"monsters"`
	SlayerLevel  int         `yaml:"slayer_level,omitempty"`
	RequiredItem int         `yaml:"required_item,omitempty"`
	Effect       *AreaEffect `yaml:"effect,omitempty"`
}

// Dungeon is an ordered sequence of monsters fought back to back.
type Dungeon struct {
	ID       int    `yaml:"id"`
	Name     string `yaml:"name"`
	Monsters []int  `yaml:"monsters"`
	GPReward int    `yaml:"gp_reward,omitempty"`
}

// SlayerTask is a task tier covering a combat level range.
type SlayerTask struct {
	ID          int    `yaml:"id"`
	Name        string `yaml:"name"`
	MinLevel    int    `yaml:"min_level"`
	MaxLevel    int    `yaml:"max_level"`
	SlayerLevel int    `yaml:"slayer_level,omitempty"`
}

// Obstacle is an agility course obstacle.
type Obstacle struct {
	ID        int             `yaml:"id"`
	Name      string          `yaml:"name"`
	Category  int             `yaml:"category"`
	Modifiers modifiers.Table `yaml:"modifiers,omitempty"`
}

// Pillar is an agility course pillar.
type Pillar struct {
	ID        int             `yaml:"id"`
	Name      string          `yaml:"name"`
	Modifiers modifiers.Table `yaml:"modifiers,omitempty"`
}

// ShopUpgrade is a purchasable permanent upgrade.
type ShopUpgrade struct {
	ID        int             `yaml:"id"`
	Name      string          `yaml:"name"`
	Modifiers modifiers.Table `yaml:"modifiers,omitempty"`
}
