package combat

import (
	"maps"
	"math"
	"slices"

	"github.com/lawnchairsociety/combatsim/internal/catalog"
	"github.com/lawnchairsociety/combatsim/internal/modifiers"
)

// Evasion holds the three defensive ratings.
type Evasion struct {
	Melee  int
	Ranged int
	Magic  int
}

// Against returns the rating used to defend against an attack type.
func (e Evasion) Against(t catalog.AttackType) int {
	switch t {
	case catalog.RangedType:
		return e.Ranged
	case catalog.MagicType:
		return e.Magic
	default:
		return e.Melee
	}
}

// Preservation holds chances (percent) to not consume a resource.
type Preservation struct {
	Ammo   float64
	Rune   float64
	Prayer float64
	Potion float64
}

// PrayerCost is prayer points drained per trigger.
type PrayerCost struct {
	PerPlayerAttack float64
	PerEnemyAttack  float64
	PerRegen        float64
}

// Any reports whether any prayer cost is incurred.
func (p PrayerCost) Any() bool {
	return p.PerPlayerAttack > 0 || p.PerEnemyAttack > 0 || p.PerRegen > 0
}

// AutoEat describes the resolved auto-eat behavior.
type AutoEat struct {
	Enabled    bool
	Threshold  float64 // percent of max HP
	Efficiency float64 // percent of food healed
	MaxHP      float64 // percent of max HP
	FoodHeal   int     // combat units per food before efficiency
	FoodID     int
}

// Potion describes the active potion's consumption.
type Potion struct {
	ID       int
	Charges  int
	ChargeOn string
	ItemID   int
}

// DamageBonus holds percent damage modifiers against monster classes.
type DamageBonus struct {
	All        float64
	Bosses     float64
	SlayerArea float64
	CombatArea float64
	Dungeon    float64
}

// Target is what the per-monster override pass needs to know about an enemy.
type Target struct {
	AttackType   catalog.AttackType
	IsBoss       bool
	InDungeon    bool
	InCombatArea bool
	SlayerArea   *catalog.Area
}

// PlayerStats is an immutable snapshot of derived combat stats. Values are
// in combat units (hitpoints × NumberMultiplier) and milliseconds.
type PlayerStats struct {
	AttackType catalog.AttackType
	Levels     [catalog.NumSkills]int

	Accuracy        int
	MaxHit          int
	MinHit          int
	Evasion         Evasion
	MaxHP           int
	DamageReduction int
	AttackSpeed     int
	HPRegen         int // per regen tick
	Preservation    Preservation

	SpellRunes map[int]int // per attack, after provision
	CurseRunes map[int]int // per enemy, after provision
	Prayer     PrayerCost
	Protection [3]float64 // percent of hits blocked per enemy attack type

	Specials  []catalog.SpecialAttack
	IsAncient bool
	Curse     *catalog.Curse

	AutoEat AutoEat
	Potion  Potion

	XPShare [catalog.NumSkills]float64 // fraction of combat XP per skill
	XPBonus [catalog.NumSkills]float64 // percent bonus per skill

	Damage        DamageBonus
	DoubleLoot    float64
	GPPercent     float64
	GPFlat        float64
	SlayerCoins   float64
	Negation      float64
	RespawnTime   int
	AmmoID        int
	Equipped      [catalog.NumSlots]int
	Hardcore      bool
	Adventure     bool
	ActiveBlocker float64 // protection against the current target, set by ForMonster
	AreaPenalty   bool    // a slayer area effect was applied by ForMonster
}

// Clone returns a deep copy.
func (s PlayerStats) Clone() PlayerStats {
	c := s
	c.SpellRunes = maps.Clone(s.SpellRunes)
	c.CurseRunes = maps.Clone(s.CurseRunes)
	c.Specials = slices.Clone(s.Specials)
	if s.Curse != nil {
		curse := *s.Curse
		curse.RuneCost = maps.Clone(s.Curse.RuneCost)
		c.Curse = &curse
	}
	return c
}

// ForMonster returns a copy of s adjusted for a single enemy: damage bonuses
// against its class, the slayer area penalty unless waived, and which
// protection prayer applies.
func (s PlayerStats) ForMonster(t Target) PlayerStats {
	out := s.Clone()

	pct := s.Damage.All
	if t.IsBoss {
		pct += s.Damage.Bosses
	}
	if t.SlayerArea != nil {
		pct += s.Damage.SlayerArea
	}
	if t.InCombatArea {
		pct += s.Damage.CombatArea
	}
	if t.InDungeon {
		pct += s.Damage.Dungeon
	}
	if pct != 0 {
		out.MaxHit = ApplyPercent(s.MaxHit, pct)
		out.MinHit = ApplyPercent(s.MinHit, pct)
	}

	if t.SlayerArea != nil && t.SlayerArea.Effect != nil && !s.waives(t.SlayerArea.Effect) {
		out.applyAreaEffect(t.SlayerArea.Effect.Modifiers)
	}

	out.ActiveBlocker = s.Protection[t.AttackType]
	return out
}

func (s PlayerStats) waives(effect *catalog.AreaEffect) bool {
	if effect.NegatedBy == 0 {
		return false
	}
	for _, id := range s.Equipped {
		if id == effect.NegatedBy {
			return true
		}
	}
	return false
}

func (s *PlayerStats) applyAreaEffect(effect modifiers.Table) {
	scale := 1 - ClampPercent(s.Negation)/100
	evasion := effect.Resolve(modifiers.GlobalEvasion) * scale
	accuracy := effect.Resolve(modifiers.GlobalAccuracy) * scale
	maxHit := effect.Resolve(modifiers.MaxHitPercent) * scale
	dr := effect.Resolve(modifiers.DamageReduction) * scale

	s.Evasion.Melee = ApplyPercent(s.Evasion.Melee, evasion)
	s.Evasion.Ranged = ApplyPercent(s.Evasion.Ranged, evasion)
	s.Evasion.Magic = ApplyPercent(s.Evasion.Magic, evasion)
	s.Accuracy = ApplyPercent(s.Accuracy, accuracy)
	s.MaxHit = ApplyPercent(s.MaxHit, maxHit)
	s.DamageReduction += int(dr)
	s.AreaPenalty = true
}

// ClampPercent bounds a percentage to [0, 100].
func ClampPercent(pct float64) float64 {
	if pct < 0 || math.IsNaN(pct) {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}
