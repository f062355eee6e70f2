package sim

import "math/rand/v2"

// Dice wraps a seeded generator with the rolls the engine needs.
type Dice struct {
	r *rand.Rand
}

// NewDice returns dice seeded deterministically from seed.
func NewDice(seed uint64) *Dice {
	return &Dice{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Between rolls uniformly in [min, max].
func (d *Dice) Between(min, max int) int {
	if max <= min {
		return min
	}
	return min + d.r.IntN(max-min+1)
}

// Chance reports whether a roll succeeds with probability p.
func (d *Dice) Chance(p float64) bool {
	if p <= 0 {
		return false
	}
	if p >= 1 {
		return true
	}
	return d.r.Float64() < p
}

// Percent reports whether a roll succeeds with a percent chance.
func (d *Dice) Percent(pct float64) bool {
	return d.Chance(pct / 100)
}

// Weighted picks an index from weights. It returns -1 if every weight is zero.
func (d *Dice) Weighted(weights []float64) int {
	total := 0.0
	for _, w := range weights {
		total += w
	}
	if total <= 0 {
		return -1
	}
	roll := d.r.Float64() * total
	for i, w := range weights {
		if roll < w {
			return i
		}
		roll -= w
	}
	return len(weights) - 1
}
