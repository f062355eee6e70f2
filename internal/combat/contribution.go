package combat

import "github.com/lawnchairsociety/combatsim/internal/catalog"

// ContributionKind is how an equipment stat field combines across slots.
type ContributionKind int

const (
	SumScalar       ContributionKind = iota // added across every slot
	SumArray3                               // element-wise sum of a 3-way array
	MaxWins                                 // highest value across slots
	WeaponOverwrite                         // taken from the weapon slot only
)

// StatContribution binds one EquipmentStats field to its combining rule.
type StatContribution struct {
	Kind  ContributionKind
	Field string

	scalar func(*catalog.EquipmentStats) *int
	array  func(*catalog.EquipmentStats) *[3]int
}

// apply folds src (worn in slot) into dst.
func (c StatContribution) apply(dst, src *catalog.EquipmentStats, slot catalog.EquipmentSlot) {
	switch slot {
	case catalog.SlotPassive:
		// Passive items act through their modifiers alone.
		return
	case catalog.SlotQuiver:
		// Ammo adds its bonuses but sets no requirement or speed.
		if c.Kind != SumScalar && c.Kind != SumArray3 {
			return
		}
	}

	switch c.Kind {
	case SumScalar:
		*c.scalar(dst) += *c.scalar(src)
	case SumArray3:
		d, s := c.array(dst), c.array(src)
		for i := range d {
			d[i] += s[i]
		}
	case MaxWins:
		if v := *c.scalar(src); v > *c.scalar(dst) {
			*c.scalar(dst) = v
		}
	case WeaponOverwrite:
		if slot == catalog.SlotWeapon {
			*c.scalar(dst) = *c.scalar(src)
		}
	}
}

func sum(field string, f func(*catalog.EquipmentStats) *int) StatContribution {
	return StatContribution{Kind: SumScalar, Field: field, scalar: f}
}

func maxWins(field string, f func(*catalog.EquipmentStats) *int) StatContribution {
	return StatContribution{Kind: MaxWins, Field: field, scalar: f}
}

// Contributions is the aggregation table for every equipment stat field.
var Contributions = []StatContribution{
	{Kind: SumArray3, Field: "attack_bonus", array: func(s *catalog.EquipmentStats) *[3]int { return &s.AttackBonus }},
	sum("strength_bonus", func(s *catalog.EquipmentStats) *int { return &s.StrengthBonus }),
	sum("defence_bonus", func(s *catalog.EquipmentStats) *int { return &s.DefenceBonus }),
	sum("ranged_attack_bonus", func(s *catalog.EquipmentStats) *int { return &s.RangedAttackBonus }),
	sum("ranged_strength_bonus", func(s *catalog.EquipmentStats) *int { return &s.RangedStrengthBonus }),
	sum("ranged_defence_bonus", func(s *catalog.EquipmentStats) *int { return &s.RangedDefenceBonus }),
	sum("magic_attack_bonus", func(s *catalog.EquipmentStats) *int { return &s.MagicAttackBonus }),
	sum("magic_damage_bonus", func(s *catalog.EquipmentStats) *int { return &s.MagicDamageBonus }),
	sum("magic_defence_bonus", func(s *catalog.EquipmentStats) *int { return &s.MagicDefenceBonus }),
	sum("damage_reduction", func(s *catalog.EquipmentStats) *int { return &s.DamageReduction }),
	{Kind: WeaponOverwrite, Field: "attack_speed", scalar: func(s *catalog.EquipmentStats) *int { return &s.AttackSpeed }},
	maxWins("attack_level_required", func(s *catalog.EquipmentStats) *int { return &s.AttackLevelRequired }),
	maxWins("defence_level_required", func(s *catalog.EquipmentStats) *int { return &s.DefenceLevelRequired }),
	maxWins("ranged_level_required", func(s *catalog.EquipmentStats) *int { return &s.RangedLevelRequired }),
	maxWins("magic_level_required", func(s *catalog.EquipmentStats) *int { return &s.MagicLevelRequired }),
	maxWins("slayer_level_required", func(s *catalog.EquipmentStats) *int { return &s.SlayerLevelRequired }),
}

// RuneProvision is the runes supplied per cast by the weapon and shield slots.
type RuneProvision struct {
	Weapon map[int]int
	Shield map[int]int
}

// Total returns the combined provision per rune id.
func (p RuneProvision) Total() map[int]int {
	out := make(map[int]int, len(p.Weapon)+len(p.Shield))
	for id, n := range p.Weapon {
		out[id] += n
	}
	for id, n := range p.Shield {
		out[id] += n
	}
	return out
}

// EquipmentTotals is the aggregate of every equipped item.
type EquipmentTotals struct {
	Stats     catalog.EquipmentStats
	Provision RuneProvision
}

// AggregateEquipment folds the items worn in each slot with the contribution
// table. Empty and unknown slots are skipped.
func AggregateEquipment(cat *catalog.Catalog, equipment [catalog.NumSlots]int, doubleProvision bool) EquipmentTotals {
	totals := EquipmentTotals{
		Provision: RuneProvision{Weapon: map[int]int{}, Shield: map[int]int{}},
	}

	for slot := catalog.SlotHelmet; slot < catalog.NumSlots; slot++ {
		item, ok := cat.Item(equipment[slot])
		if !ok {
			continue
		}
		for _, c := range Contributions {
			c.apply(&totals.Stats, &item.Stats, slot)
		}

		var dst map[int]int
		switch slot {
		case catalog.SlotWeapon:
			dst = totals.Provision.Weapon
		case catalog.SlotShield:
			dst = totals.Provision.Shield
		default:
			continue
		}
		for runeID, n := range item.Provides {
			if doubleProvision {
				n *= 2
			}
			dst[runeID] += n
		}
	}

	if totals.Stats.AttackSpeed <= 0 {
		totals.Stats.AttackSpeed = DefaultAttackSpeed
	}
	return totals
}
