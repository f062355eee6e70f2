package results

import (
	"math"

	"github.com/lawnchairsociety/combatsim/internal/catalog"
	"github.com/lawnchairsociety/combatsim/internal/combat"
	"github.com/lawnchairsociety/combatsim/internal/enemy"
	"github.com/lawnchairsociety/combatsim/internal/sim"
)

const (
	// PetConstant scales the per-action pet roll.
	PetConstant = 25e9
	// SignetDivisor turns a combat level into a per-kill signet chance.
	SignetDivisor = 500000
)

// Economy configures the loot and chance derivations.
type Economy struct {
	SignetPeriod float64       // seconds
	PetPeriod    float64       // seconds
	PetSkill     catalog.Skill // skill whose pet is tracked
	DropItem     int           // item tracked by DropsPerSecond, 0 for none
	SellLoot     bool          // count loot and bones sale value in GP/s
}

// DefaultEconomy tracks chances over one hour.
var DefaultEconomy = Economy{SignetPeriod: 3600, PetPeriod: 3600, PetSkill: catalog.Hitpoints}

func doubleLootMultiplier(pct float64) float64 {
	return 1 + combat.ClampPercent(pct)/100
}

// expectedRolls is the halved quantity estimate used for loot entries. It
// ignores how loot doubling interacts with multi-roll tables.
func expectedRolls(maxQuantity int) float64 {
	return float64(1+maxQuantity) / 2
}

// GPPerKill returns the average gold gained per kill.
func (e Economy) GPPerKill(cat *catalog.Catalog, p combat.PlayerStats, m *catalog.Monster) float64 {
	gp := float64(m.GP.Min+m.GP.Max) / 2
	gp = gp*(1+p.GPPercent/100) + p.GPFlat
	if !e.SellLoot {
		return math.Max(0, gp)
	}

	dl := doubleLootMultiplier(p.DoubleLoot)
	total := totalWeight(m.Loot)
	if total > 0 {
		loot := 0.0
		for _, entry := range m.Loot {
			if item, ok := cat.Item(entry.ItemID); ok {
				loot += float64(entry.Weight) / total * expectedRolls(entry.MaxQuantity) * float64(item.SellPrice)
			}
		}
		gp += m.LootChance / 100 * loot * dl
	}
	if bones, ok := cat.Item(m.BonesID); ok {
		gp += float64(max(1, m.BonesQty)*bones.SellPrice) * dl
	}
	return math.Max(0, gp)
}

// DropsPerKill returns how many of the tracked item drop per kill on
// average.
func (e Economy) DropsPerKill(m *catalog.Monster, doubleLoot float64) float64 {
	if e.DropItem == 0 {
		return 0
	}
	drops := 0.0
	if total := totalWeight(m.Loot); total > 0 {
		matching := 0.0
		quantity := 0.0
		for _, entry := range m.Loot {
			if entry.ItemID == e.DropItem {
				matching += float64(entry.Weight)
				quantity = math.Max(quantity, expectedRolls(entry.MaxQuantity))
			}
		}
		drops += m.LootChance / 100 * (matching / total) * quantity
	}
	if m.BonesID == e.DropItem {
		drops += float64(max(1, m.BonesQty))
	}
	return drops * doubleLootMultiplier(doubleLoot)
}

func totalWeight(loot []catalog.LootEntry) float64 {
	total := 0
	for _, entry := range loot {
		total += entry.Weight
	}
	return float64(total)
}

// SignetChance is the chance of at least one signet drop over period
// seconds.
func SignetChance(combatLevel int, killsPerSecond, period float64) float64 {
	perKill := float64(combatLevel) / SignetDivisor
	if perKill <= 0 || killsPerSecond <= 0 || period <= 0 {
		return 0
	}
	return atLeastOnce(math.Min(1, perKill), killsPerSecond*period)
}

// atLeastOnce is 1 − (1 − p)^n, evaluated through log1p and expm1 so that
// tiny per-roll chances keep their precision.
func atLeastOnce(p, n float64) float64 {
	return -math.Expm1(n * math.Log1p(-p))
}

// PetRoll is one source of pet rolls.
type PetRoll struct {
	Speed          float64 // ms per action
	Level          float64
	RollsPerSecond float64
}

// PetChance is the chance of at least one pet over period seconds:
// 1 − Π(1 − speed×level/PetConstant)^(period×rollsPerSecond).
func PetChance(rolls []PetRoll, period float64) float64 {
	logNone := 0.0
	for _, r := range rolls {
		perRoll := math.Min(1, r.Speed*r.Level/PetConstant)
		if perRoll <= 0 || r.RollsPerSecond <= 0 {
			continue
		}
		logNone += period * r.RollsPerSecond * math.Log1p(-perRoll)
	}
	return -math.Expm1(logNone)
}

// petRolls lists the roll sources for the tracked pet skill. Skills that
// gain XP roll once per attack; slayer rolls once per kill.
func (e Economy) petRolls(p combat.PlayerStats, en *enemy.Stats, out sim.Outcome, secs float64) []PetRoll {
	skill := e.PetSkill
	if skill < 0 || skill >= catalog.NumSkills {
		return nil
	}
	level := float64(p.Levels[skill])
	attack := PetRoll{Speed: float64(p.AttackSpeed), Level: level, RollsPerSecond: float64(out.PlayerAttacks) / secs}

	switch {
	case skill == catalog.Slayer:
		if en.Monster == nil || !en.Monster.CanSlayer || out.Kills == 0 {
			return nil
		}
		killTime := out.Time / float64(out.Kills)
		return []PetRoll{{Speed: killTime, Level: level, RollsPerSecond: float64(out.Kills) / secs}}
	case skill == catalog.Prayer:
		if out.PrayerPoints <= 0 {
			return nil
		}
		return []PetRoll{attack}
	case p.XPShare[skill] > 0:
		return []PetRoll{attack}
	}
	return nil
}
