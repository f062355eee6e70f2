package combat

import (
	"math"

	"github.com/lawnchairsociety/combatsim/internal/catalog"
)

const (
	// DefaultAttackSpeed is the attack interval in ms with no weapon.
	DefaultAttackSpeed = 4000
	// MinAttackSpeed is the fastest allowed attack interval in ms.
	MinAttackSpeed = 250
	// RapidSpeedReduction is taken off the interval by the rapid ranged style.
	RapidSpeedReduction = 400
	// MaxPreservation caps every preservation chance, in percent.
	MaxPreservation = 80
	// StyleBonus is the invisible level boost a combat style grants.
	StyleBonus = 3
)

// EffectiveLevel is floor(level + 8 + style + hidden).
func EffectiveLevel(level, style int, hidden float64) int {
	return int(math.Floor(float64(level) + 8 + float64(style) + hidden))
}

// MagicDefenceLevel blends magic and defence for magic evasion.
func MagicDefenceLevel(magic, defence, style int) int {
	return int(math.Floor(math.Floor(float64(magic)*0.7) + math.Floor(float64(defence)*0.3) + 8 + float64(style)))
}

// Roll is floor(effectiveLevel × (bonus + 64)).
func Roll(effectiveLevel, bonus int) int {
	return int(math.Floor(float64(effectiveLevel) * float64(bonus+64)))
}

// ApplyPercent returns floor(value × (1 + pct/100)). Non-finite results are 0.
func ApplyPercent(value int, pct float64) int {
	return finiteInt(math.Floor(float64(value) * (1 + pct/100)))
}

// StrengthMaxHit is the melee/ranged max hit for an effective strength level
// and strength bonus, in combat units.
func StrengthMaxHit(effectiveLevel, strengthBonus int) int {
	eff := float64(effectiveLevel)
	str := float64(strengthBonus)
	return int(math.Floor(catalog.NumberMultiplier * (1.3 + eff/10 + str/80 + eff*str/640)))
}

// SpellMaxHit is the standard-spellbook max hit with magic damage scaling.
func SpellMaxHit(spellMaxHit int, damageBonus float64, magicLevel int, hidden float64) int {
	base := float64(spellMaxHit)
	scaled := catalog.NumberMultiplier * (base + base*damageBonus/100) * (1 + (float64(magicLevel)+1+hidden)/200)
	return finiteInt(math.Floor(scaled))
}

// EvasionRating applies the type modifier, then buff, then debuff to a base
// evasion roll, flooring only at the end.
func EvasionRating(effectiveLevel, defenceBonus int, modifierPct, buffPct, debuffPct float64) int {
	v := float64(Roll(effectiveLevel, defenceBonus))
	v *= 1 + modifierPct/100
	v *= 1 + buffPct/100
	v *= 1 - debuffPct/100
	return finiteInt(math.Floor(v))
}

// MarkedDamageReduction halves damage reduction under mark of death.
func MarkedDamageReduction(dr int) int {
	return int(math.Floor(float64(dr) / 2))
}

// HitChance is the probability an attack with the given accuracy lands
// against the given evasion.
func HitChance(accuracy, evasion int) float64 {
	acc, eva := float64(accuracy), float64(evasion)
	if acc <= 0 {
		return 0
	}
	if acc < eva {
		return 0.5 * acc / eva
	}
	return 1 - 0.5*eva/acc
}

// ClampPreservation bounds a preservation chance to [0, MaxPreservation].
func ClampPreservation(pct float64) float64 {
	if math.IsNaN(pct) || pct < 0 {
		return 0
	}
	return math.Min(pct, MaxPreservation)
}

func finiteInt(v float64) int {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return int(v)
}
