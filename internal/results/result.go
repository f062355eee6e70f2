// Package results turns raw simulation outcomes into per-second rates and
// rolls them up into dungeon and slayer task results.
package results

import (
	"cmp"
	"math"

	"github.com/lawnchairsociety/combatsim/internal/catalog"
	"github.com/lawnchairsociety/combatsim/internal/combat"
	"github.com/lawnchairsociety/combatsim/internal/enemy"
	"github.com/lawnchairsociety/combatsim/internal/sim"
)

// NotComputed marks a rate that is deliberately left undefined.
var NotComputed = math.NaN()

// xpPerHitpoint is the combat XP awarded per hitpoint of damage dealt.
const xpPerHitpoint = 4

// Result holds every rate derived for one monster, dungeon or slayer task.
// Rates are per second unless named otherwise. A result with SimSuccess
// false carries zero rates. A run that never kills its target still
// succeeds, with an infinite KillTime and zero kill rates.
type Result struct {
	SimSuccess     bool `yaml:"sim_success"`
	TooManyActions bool `yaml:"too_many_actions,omitempty"`

	KillTime       float64 `yaml:"kill_time"` // seconds per kill, including respawn
	KillsPerSecond float64 `yaml:"kills_per_second"`

	XPPerSecond       float64 `yaml:"xp_per_second"`
	HPXPPerSecond     float64 `yaml:"hp_xp_per_second"`
	SlayerXPPerSecond float64 `yaml:"slayer_xp_per_second"`
	XPPerAttack       float64 `yaml:"xp_per_attack"`

	DamagePerSecond      float64 `yaml:"damage_per_second"`
	DamagePerAttack      float64 `yaml:"damage_per_attack"`
	HitRate              float64 `yaml:"hit_rate"`
	AttacksMadePerSecond float64 `yaml:"attacks_made_per_second"`

	AttacksTakenPerSecond float64 `yaml:"attacks_taken_per_second"`
	DamageTakenPerSecond  float64 `yaml:"damage_taken_per_second"`
	HealingPerSecond      float64 `yaml:"healing_per_second"`
	HighestDamageTaken    float64 `yaml:"highest_damage_taken"`
	LowestHitpoints       float64 `yaml:"lowest_hitpoints"`
	DeathRate             float64 `yaml:"death_rate"`

	FoodPerSecond         float64 `yaml:"food_per_second"`
	PrayerPointsPerSecond float64 `yaml:"prayer_points_per_second"`
	AmmoPerSecond         float64 `yaml:"ammo_per_second"`
	RunesPerSecond        float64 `yaml:"runes_per_second"`
	PotionsPerSecond      float64 `yaml:"potions_per_second"`

	GPPerSecond    float64 `yaml:"gp_per_second"`
	DropsPerSecond float64 `yaml:"drops_per_second"`
	SignetChance   float64 `yaml:"signet_chance"`
	PetChance      float64 `yaml:"pet_chance"`
}

// Failed reports whether the result should render as a failure.
func (r *Result) Failed() bool {
	return !r.SimSuccess || r.TooManyActions
}

// Combine says how a stat folds across the monsters of a group.
type Combine int

const (
	TimeWeighted Combine = iota // Σ(v × killTime) / Σ killTime
	PerAttack                   // weighted by attacks made
	AnyOf                       // 1 − Π(1 − v)
	Highest
	Lowest
	Duration  // killTime itself
	Frequency // kills per second
)

// Stat describes one result field addressable by key.
type Stat struct {
	Key     string
	Name    string
	Combine Combine
	field   func(*Result) *float64
}

// Value returns the stat's value in r.
func (s Stat) Value(r *Result) float64 {
	return *s.field(r)
}

// Stats lists every stat in display order.
var Stats = []Stat{
	{"killTime", "Kill Time (s)", Duration, func(r *Result) *float64 { return &r.KillTime }},
	{"killsPerSecond", "Kills/s", Frequency, func(r *Result) *float64 { return &r.KillsPerSecond }},
	{"xpPerSecond", "XP/s", TimeWeighted, func(r *Result) *float64 { return &r.XPPerSecond }},
	{"hpXpPerSecond", "HP XP/s", TimeWeighted, func(r *Result) *float64 { return &r.HPXPPerSecond }},
	{"slayerXpPerSecond", "Slayer XP/s", TimeWeighted, func(r *Result) *float64 { return &r.SlayerXPPerSecond }},
	{"xpPerAttack", "XP/attack", PerAttack, func(r *Result) *float64 { return &r.XPPerAttack }},
	{"damagePerSecond", "Damage/s", TimeWeighted, func(r *Result) *float64 { return &r.DamagePerSecond }},
	{"damagePerAttack", "Damage/attack", PerAttack, func(r *Result) *float64 { return &r.DamagePerAttack }},
	{"hitRate", "Hit Rate", PerAttack, func(r *Result) *float64 { return &r.HitRate }},
	{"attacksMadePerSecond", "Attacks Made/s", TimeWeighted, func(r *Result) *float64 { return &r.AttacksMadePerSecond }},
	{"attacksTakenPerSecond", "Attacks Taken/s", TimeWeighted, func(r *Result) *float64 { return &r.AttacksTakenPerSecond }},
	{"damageTakenPerSecond", "Damage Taken/s", TimeWeighted, func(r *Result) *float64 { return &r.DamageTakenPerSecond }},
	{"healingPerSecond", "Healing/s", TimeWeighted, func(r *Result) *float64 { return &r.HealingPerSecond }},
	{"highestDamageTaken", "Highest Hit Taken", Highest, func(r *Result) *float64 { return &r.HighestDamageTaken }},
	{"lowestHitpoints", "Lowest Hitpoints", Lowest, func(r *Result) *float64 { return &r.LowestHitpoints }},
	{"deathRate", "Death Rate", AnyOf, func(r *Result) *float64 { return &r.DeathRate }},
	{"foodPerSecond", "Food/s", TimeWeighted, func(r *Result) *float64 { return &r.FoodPerSecond }},
	{"prayerPointsPerSecond", "Prayer Points/s", TimeWeighted, func(r *Result) *float64 { return &r.PrayerPointsPerSecond }},
	{"ammoPerSecond", "Ammo/s", TimeWeighted, func(r *Result) *float64 { return &r.AmmoPerSecond }},
	{"runesPerSecond", "Runes/s", TimeWeighted, func(r *Result) *float64 { return &r.RunesPerSecond }},
	{"potionsPerSecond", "Potions/s", TimeWeighted, func(r *Result) *float64 { return &r.PotionsPerSecond }},
	{"gpPerSecond", "GP/s", TimeWeighted, func(r *Result) *float64 { return &r.GPPerSecond }},
	{"dropsPerSecond", "Drops/s", TimeWeighted, func(r *Result) *float64 { return &r.DropsPerSecond }},
	{"signetChance", "Signet Chance", TimeWeighted, func(r *Result) *float64 { return &r.SignetChance }},
	{"petChance", "Pet Chance", TimeWeighted, func(r *Result) *float64 { return &r.PetChance }},
}

// LookupStat finds a stat by key.
func LookupStat(key string) (Stat, bool) {
	for _, s := range Stats {
		if s.Key == key {
			return s, true
		}
	}
	return Stat{}, false
}

// compareResults orders results by every stat so reductions can run in a
// canonical order.
func compareResults(a, b Result) int {
	for _, s := range Stats {
		if c := cmp.Compare(s.Value(&a), s.Value(&b)); c != 0 {
			return c
		}
	}
	return 0
}

// Derive computes a monster result from one job's outcome. p must be the
// snapshot the job ran with.
func Derive(cat *catalog.Catalog, econ Economy, p combat.PlayerStats, e *enemy.Stats, out sim.Outcome) Result {
	r := Result{TooManyActions: out.TooManyActions > 0}
	if r.TooManyActions || out.Time <= 0 {
		return r
	}
	r.SimSuccess = true

	secs := out.Time / 1000
	kills := float64(out.Kills)
	attacks := float64(out.PlayerAttacks)
	perSecond := func(v float64) float64 { return v / secs }

	r.KillTime = math.Inf(1)
	if kills > 0 {
		r.KillTime = secs / kills
	}
	r.KillsPerSecond = kills / secs

	xp := out.DamageDealt / catalog.NumberMultiplier * xpPerHitpoint
	combatXP := 0.0
	for _, s := range []catalog.Skill{catalog.Attack, catalog.Strength, catalog.Defence, catalog.Ranged, catalog.Magic} {
		combatXP += xp * p.XPShare[s] * (1 + p.XPBonus[s]/100)
	}
	r.XPPerSecond = perSecond(combatXP)
	r.HPXPPerSecond = perSecond(xp * p.XPShare[catalog.Hitpoints] * (1 + p.XPBonus[catalog.Hitpoints]/100))
	if e.Monster != nil && e.Monster.CanSlayer {
		hp := float64(e.MaxHP) / catalog.NumberMultiplier
		r.SlayerXPPerSecond = perSecond(kills * hp * (1 + p.XPBonus[catalog.Slayer]/100))
	}
	if attacks > 0 {
		r.XPPerAttack = combatXP / attacks
		r.DamagePerAttack = out.DamageDealt / attacks
		r.HitRate = float64(out.PlayerHits) / attacks
	}

	r.DamagePerSecond = perSecond(out.DamageDealt)
	r.AttacksMadePerSecond = perSecond(attacks)
	r.AttacksTakenPerSecond = perSecond(float64(out.EnemyAttacks))
	r.DamageTakenPerSecond = perSecond(out.DamageTaken)
	r.HealingPerSecond = perSecond(out.HealingDone)
	r.HighestDamageTaken = float64(out.HighestDamageTaken)
	r.LowestHitpoints = float64(out.LowestHitpoints)
	if fights := out.Fights(); fights > 0 {
		r.DeathRate = float64(out.Deaths) / float64(fights)
	}

	r.FoodPerSecond = perSecond(out.FoodEaten)
	r.PrayerPointsPerSecond = perSecond(out.PrayerPoints)
	r.AmmoPerSecond = perSecond(out.AmmoUsed)
	r.RunesPerSecond = perSecond(out.RunesUsed)
	r.PotionsPerSecond = perSecond(out.PotionsUsed)

	if e.Monster != nil {
		r.GPPerSecond = perSecond(kills * econ.GPPerKill(cat, p, e.Monster))
		r.DropsPerSecond = econ.DropsPerKill(e.Monster, p.DoubleLoot) * r.KillsPerSecond
	}
	r.SignetChance = SignetChance(e.CombatLevel, r.KillsPerSecond, econ.SignetPeriod)
	r.PetChance = PetChance(econ.petRolls(p, e, out, secs), econ.PetPeriod)
	return r
}
