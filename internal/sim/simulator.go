// Package sim runs stochastic combat simulations of a player against a single
// monster.
package sim

//go:generate mockgen -destination=mock/mock_simulator.go -package=mocksim -source=simulator.go

import (
	"context"

	"github.com/lawnchairsociety/combatsim/internal/combat"
	"github.com/lawnchairsociety/combatsim/internal/enemy"
)

// Options control a single simulation job.
type Options struct {
	Trials       int  // fights (kills plus deaths) to simulate
	MaxActions   int  // attacks by either side before giving up
	ForceFullSim bool // never take the analytic shortcut
}

// DefaultOptions are used when a job does not specify its own.
var DefaultOptions = Options{Trials: 1000, MaxActions: 1000, ForceFullSim: false}

// Job is one simulation of a player snapshot against one monster. The
// player stats must already be adjusted for the monster.
type Job struct {
	MonsterID int
	InDungeon bool
	Player    combat.PlayerStats
	Enemy     *enemy.Stats
	Options   Options
	Seed      uint64
}

// Outcome holds the raw counters of a job.
type Outcome struct {
	MonsterID int

	Kills  int
	Deaths int
	Time   float64 // ms, including respawns

	PlayerAttacks int
	EnemyAttacks  int
	PlayerHits    int
	EnemyHits     int
	DamageDealt   float64
	DamageTaken   float64
	HealingDone   float64

	HighestDamageTaken int
	LowestHitpoints    int

	FoodEaten      float64
	PrayerPoints   float64
	AmmoUsed       float64
	RunesUsed      float64
	PotionsUsed    float64
	SpecialAttacks int

	Actions        int
	TooManyActions int
	Analytic       bool
}

// Fights returns the number of fights started (kills plus deaths).
func (o Outcome) Fights() int {
	return o.Kills + o.Deaths
}

// Simulator runs a single job.
type Simulator interface {
	Simulate(ctx context.Context, job Job) (Outcome, error)
}
