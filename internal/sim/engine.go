package sim

import (
	"context"
	"fmt"
	"math"
	"slices"

	"github.com/lawnchairsociety/combatsim/internal/catalog"
	"github.com/lawnchairsociety/combatsim/internal/combat"
	"github.com/lawnchairsociety/combatsim/internal/enemy"
)

// RegenInterval is the time in ms between hitpoint regeneration ticks.
const RegenInterval = 10000

// maxEatsPerHit bounds auto-eat when food heals almost nothing.
const maxEatsPerHit = 100

// Engine is the default Simulator. It keeps no state between jobs.
type Engine struct{}

// NewEngine returns a simulation engine.
func NewEngine() *Engine {
	return &Engine{}
}

// foe is the mutable per-job view of an enemy after curses.
type foe struct {
	stats    *enemy.Stats
	accuracy int
	evasion  combat.Evasion
	maxHit   int
	dr       int

	// specialWeights holds each special's percent chance followed by the
	// remainder for a normal attack.
	specialWeights []float64
}

func newFoe(e *enemy.Stats, curse *catalog.Curse) foe {
	f := foe{stats: e, accuracy: e.Accuracy, evasion: e.Evasion, maxHit: e.MaxHit, dr: e.DamageReduction}
	if len(e.SpecialChances) > 0 {
		total := 0.0
		for _, c := range e.SpecialChances {
			total += c
		}
		f.specialWeights = append(slices.Clone(e.SpecialChances), max(0, 100-total))
	}
	if curse == nil {
		return f
	}
	switch curse.Kind {
	case catalog.CurseAccuracy:
		f.accuracy = combat.ApplyPercent(f.accuracy, -curse.Value)
	case catalog.CurseEvasion:
		f.evasion = combat.Evasion{
			Melee:  combat.ApplyPercent(f.evasion.Melee, -curse.Value),
			Ranged: combat.ApplyPercent(f.evasion.Ranged, -curse.Value),
			Magic:  combat.ApplyPercent(f.evasion.Magic, -curse.Value),
		}
	case catalog.CurseDamageReduction:
		f.dr = max(0, f.dr-int(curse.Value))
	case catalog.CurseMaxHit:
		f.maxHit = combat.ApplyPercent(f.maxHit, -curse.Value)
	}
	return f
}

// Simulate runs job.Options.Trials fights, or stops early when a fight
// exceeds the action budget or ctx is cancelled. Cancellation returns the
// partial outcome with ctx's error.
func (e *Engine) Simulate(ctx context.Context, job Job) (Outcome, error) {
	if job.Enemy == nil {
		return Outcome{}, fmt.Errorf("job for monster %d has no enemy stats", job.MonsterID)
	}
	opts := job.Options
	if opts.Trials <= 0 {
		opts.Trials = DefaultOptions.Trials
	}
	if opts.MaxActions <= 0 {
		opts.MaxActions = DefaultOptions.MaxActions
	}

	f := newFoe(job.Enemy, job.Player.Curse)
	if !opts.ForceFullSim {
		if out, ok := analytic(job, f, opts); ok {
			return out, nil
		}
	}

	r := &run{
		p:     job.Player,
		f:     f,
		dice:  NewDice(job.Seed),
		hp:    job.Player.MaxHP,
		regen: RegenInterval,
		out: Outcome{
			MonsterID:       job.MonsterID,
			LowestHitpoints: job.Player.MaxHP,
		},
	}
	r.hitChance = combat.HitChance(r.p.Accuracy, f.evasion.Against(r.p.AttackType))
	r.enemyHitChance = combat.HitChance(f.accuracy, r.p.Evasion.Against(f.stats.AttackType))

	for r.out.Fights() < opts.Trials {
		if err := ctx.Err(); err != nil {
			r.finish()
			return r.out, err
		}
		if !r.fight(opts.MaxActions) {
			r.out.TooManyActions++
			break
		}
	}
	r.finish()
	return r.out, nil
}

// analytic estimates jobs where every hit kills and the enemy cannot hurt
// the player. Counters hold expected values rounded to whole numbers.
func analytic(job Job, f foe, opts Options) (Outcome, bool) {
	p := job.Player
	if len(p.Specials) > 0 {
		return Outcome{}, false
	}
	h := combat.HitChance(p.Accuracy, f.evasion.Against(p.AttackType))
	if h <= 0 || reduce(p.MinHit, f.dr) < f.stats.MaxHP {
		return Outcome{}, false
	}
	harmless := f.maxHit <= 0 || p.ActiveBlocker >= 100 || p.DamageReduction >= 100 ||
		combat.HitChance(f.accuracy, p.Evasion.Against(f.stats.AttackType)) <= 0
	if !harmless {
		return Outcome{}, false
	}

	n := float64(opts.Trials)
	attacks := n / h
	fightTime := attacks * float64(p.AttackSpeed)
	enemyAttacks := fightTime / float64(f.stats.AttackSpeed)
	ticks := fightTime / RegenInterval

	out := Outcome{
		MonsterID:       job.MonsterID,
		Kills:           opts.Trials,
		Time:            fightTime + n*float64(p.RespawnTime),
		PlayerAttacks:   int(math.Round(attacks)),
		PlayerHits:      opts.Trials,
		EnemyAttacks:    int(math.Round(enemyAttacks)),
		DamageDealt:     n * float64(f.stats.MaxHP),
		LowestHitpoints: p.MaxHP,
		PrayerPoints:    attacks*p.Prayer.PerPlayerAttack + enemyAttacks*p.Prayer.PerEnemyAttack + ticks*p.Prayer.PerRegen,
		RunesUsed:       (attacks*runeCount(p.SpellRunes) + n*runeCount(p.CurseRunes)) * (1 - p.Preservation.Rune/100),
		Actions:         int(math.Round(attacks + enemyAttacks)),
		Analytic:        true,
	}
	if p.AmmoID != 0 {
		out.AmmoUsed = attacks * (1 - p.Preservation.Ammo/100)
	}
	if p.Potion.Charges > 0 {
		charges := map[string]float64{
			catalog.ChargeOnAttack:    attacks,
			catalog.ChargeOnEnemyKill: n,
			catalog.ChargeOnRegen:     ticks,
		}[p.Potion.ChargeOn]
		out.PotionsUsed = charges * (1 - p.Preservation.Potion/100) / float64(p.Potion.Charges)
	}
	return out, true
}

func runeCount(runes map[int]int) float64 {
	total := 0
	for _, n := range runes {
		total += n
	}
	return float64(total)
}

// reduce applies percent damage reduction.
func reduce(damage, dr int) int {
	if dr <= 0 {
		return damage
	}
	if dr >= 100 {
		return 0
	}
	return int(math.Floor(float64(damage) * (1 - float64(dr)/100)))
}

// run is the mutable state of one job.
type run struct {
	p    combat.PlayerStats
	f    foe
	dice *Dice
	out  Outcome

	hp             int
	regen          int
	hitChance      float64
	enemyHitChance float64
	potionCharges  float64
}

// fight plays until the enemy or the player dies. It returns false if the
// action budget ran out first.
func (r *run) fight(maxActions int) bool {
	enemyHP := r.f.stats.MaxHP
	playerTimer := r.p.AttackSpeed
	enemyTimer := r.f.stats.AttackSpeed
	marked := false
	actions := 0

	for {
		dt := min(playerTimer, enemyTimer, r.regen)
		r.out.Time += float64(dt)
		playerTimer -= dt
		enemyTimer -= dt
		r.regen -= dt

		if r.regen <= 0 {
			r.regenerate()
			r.regen += RegenInterval
		}

		if playerTimer <= 0 {
			actions++
			enemyHP -= r.playerAttack(enemyHP, &enemyTimer)
			playerTimer += r.p.AttackSpeed
			if enemyHP <= 0 {
				r.kill()
				return true
			}
		}

		if enemyTimer <= 0 {
			actions++
			stun := r.enemyAttack(&marked)
			enemyTimer += r.f.stats.AttackSpeed
			playerTimer += stun * r.p.AttackSpeed
			if r.hp <= 0 {
				r.die()
				return true
			}
		}

		if actions > maxActions {
			return false
		}
	}
}

func (r *run) playerAttack(enemyHP int, enemyTimer *int) int {
	r.out.PlayerAttacks++
	r.consumeAttack()

	hits, mult, maxHit := 1, 1.0, r.p.MaxHit
	for _, sp := range r.p.Specials {
		if !r.dice.Percent(sp.Chance) {
			continue
		}
		r.out.SpecialAttacks++
		hits, mult = sp.Hits(), sp.Multiplier()
		if sp.MaxHit > 0 {
			maxHit = sp.MaxHit * catalog.NumberMultiplier
		}
		if sp.Effect == catalog.EffectStun {
			*enemyTimer += sp.StunTurns * r.f.stats.AttackSpeed
		}
		break
	}

	dealt := 0
	for i := 0; i < hits && dealt < enemyHP; i++ {
		if !r.dice.Chance(r.hitChance) {
			continue
		}
		r.out.PlayerHits++
		dmg := int(math.Floor(float64(r.dice.Between(r.p.MinHit, maxHit)) * mult))
		dmg = min(reduce(dmg, r.f.dr), enemyHP-dealt)
		dealt += dmg
	}
	r.out.DamageDealt += float64(dealt)
	return dealt
}

// enemyAttack resolves one enemy attack and returns the player turns stunned.
func (r *run) enemyAttack(marked *bool) int {
	r.out.EnemyAttacks++
	r.out.PrayerPoints += r.p.Prayer.PerEnemyAttack

	mult, maxHit, stun := 1.0, r.f.maxHit, 0
	if i := r.dice.Weighted(r.f.specialWeights); i >= 0 && i < len(r.f.stats.Specials) {
		sp := r.f.stats.Specials[i]
		mult = sp.Multiplier()
		if sp.MaxHit > 0 {
			maxHit = sp.MaxHit * catalog.NumberMultiplier
		}
		switch sp.Effect {
		case catalog.EffectMarkOfDeath:
			*marked = true
		case catalog.EffectStun:
			stun = sp.StunTurns
		}
	}

	if !r.dice.Chance(r.enemyHitChance) || r.dice.Percent(r.p.ActiveBlocker) {
		return stun
	}
	r.out.EnemyHits++

	dr := r.p.DamageReduction
	if *marked {
		dr = combat.MarkedDamageReduction(dr)
	}
	dmg := reduce(int(math.Floor(float64(r.dice.Between(1, max(1, maxHit)))*mult)), dr)
	r.hp -= dmg
	r.out.DamageTaken += float64(dmg)
	r.out.HighestDamageTaken = max(r.out.HighestDamageTaken, dmg)
	r.out.LowestHitpoints = min(r.out.LowestHitpoints, max(r.hp, 0))

	if r.p.Potion.ChargeOn == catalog.ChargeOnHitTaken {
		r.usePotionCharge()
	}
	if r.hp > 0 {
		r.autoEat()
	}
	return stun
}

func (r *run) consumeAttack() {
	r.out.PrayerPoints += r.p.Prayer.PerPlayerAttack
	r.out.RunesUsed += runeCount(r.p.SpellRunes) * (1 - r.p.Preservation.Rune/100)
	if r.p.AmmoID != 0 && !r.dice.Percent(r.p.Preservation.Ammo) {
		r.out.AmmoUsed++
	}
	if r.p.Potion.ChargeOn == catalog.ChargeOnAttack {
		r.usePotionCharge()
	}
}

func (r *run) usePotionCharge() {
	if r.p.Potion.Charges <= 0 || r.dice.Percent(r.p.Preservation.Potion) {
		return
	}
	r.potionCharges++
}

func (r *run) autoEat() {
	ae := r.p.AutoEat
	if !ae.Enabled {
		return
	}
	maxHP := float64(r.p.MaxHP)
	if float64(r.hp) >= maxHP*ae.Threshold/100 {
		return
	}
	heal := int(math.Floor(float64(ae.FoodHeal) * ae.Efficiency / 100))
	if heal <= 0 {
		return
	}
	for eats := 0; float64(r.hp) < maxHP*ae.MaxHP/100 && r.hp < r.p.MaxHP && eats < maxEatsPerHit; eats++ {
		gained := min(heal, r.p.MaxHP-r.hp)
		r.hp += gained
		r.out.HealingDone += float64(gained)
		r.out.FoodEaten++
	}
}

func (r *run) regenerate() {
	r.out.PrayerPoints += r.p.Prayer.PerRegen
	if r.p.Potion.ChargeOn == catalog.ChargeOnRegen {
		r.usePotionCharge()
	}
	gained := min(r.p.HPRegen, r.p.MaxHP-r.hp)
	if gained > 0 {
		r.hp += gained
		r.out.HealingDone += float64(gained)
	}
}

func (r *run) kill() {
	r.out.Kills++
	r.out.Time += float64(r.p.RespawnTime)
	r.out.RunesUsed += runeCount(r.p.CurseRunes) * (1 - r.p.Preservation.Rune/100)
	if r.p.Potion.ChargeOn == catalog.ChargeOnEnemyKill {
		r.usePotionCharge()
	}
}

func (r *run) die() {
	r.out.Deaths++
	r.hp = r.p.MaxHP
	r.out.Time += float64(r.p.RespawnTime)
}

func (r *run) finish() {
	if r.p.Potion.Charges > 0 {
		r.out.PotionsUsed = r.potionCharges / float64(r.p.Potion.Charges)
	}
	r.out.Actions += r.out.PlayerAttacks + r.out.EnemyAttacks
}
