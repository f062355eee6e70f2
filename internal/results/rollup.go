package results

import (
	"math"
	"slices"
)

// GroupKind selects how a group's kill time is interpreted.
type GroupKind int

const (
	// GroupDungeon results describe one full clear of the monster list.
	GroupDungeon GroupKind = iota
	// GroupSlayerTask results describe killing one monster drawn from the
	// list, so kill rates are corrected by the list length.
	GroupSlayerTask
)

// ComputeAverageSimData folds constituent monster results into one group
// result. If any part failed the group fails with zero rates. A part that
// never kills makes the group's kill time infinite. The reduction
// runs in a canonical order, so the result does not depend on the order of
// parts.
func ComputeAverageSimData(parts []Result, kind GroupKind) Result {
	var out Result
	if len(parts) == 0 {
		return out
	}
	for i := range parts {
		if parts[i].Failed() {
			out.TooManyActions = slices.ContainsFunc(parts, func(r Result) bool { return r.TooManyActions })
			return out
		}
	}

	sorted := slices.Clone(parts)
	slices.SortFunc(sorted, compareResults)

	totalTime := 0.0
	for _, r := range sorted {
		totalTime += r.KillTime
	}

	// A part that never dies takes the whole clock, so averages are taken
	// over the unending parts alone.
	timeWeight := func(r *Result) float64 { return r.KillTime }
	if math.IsInf(totalTime, 1) {
		timeWeight = func(r *Result) float64 {
			if math.IsInf(r.KillTime, 1) {
				return 1
			}
			return 0
		}
	}
	attackWeight := func(r *Result) float64 { return r.AttacksMadePerSecond * timeWeight(r) }

	weighted := func(v *float64, s Stat, weight func(*Result) float64) {
		total := 0.0
		for i := range sorted {
			if w := weight(&sorted[i]); w > 0 {
				*v += s.Value(&sorted[i]) * w
				total += w
			}
		}
		if total > 0 {
			*v /= total
		}
	}

	for _, s := range Stats {
		v := s.field(&out)
		switch s.Combine {
		case TimeWeighted:
			weighted(v, s, timeWeight)
		case PerAttack:
			weighted(v, s, attackWeight)
		case AnyOf:
			survive := 1.0
			for i := range sorted {
				survive *= 1 - s.Value(&sorted[i])
			}
			*v = 1 - survive
		case Highest:
			*v = math.Inf(-1)
			for i := range sorted {
				*v = math.Max(*v, s.Value(&sorted[i]))
			}
		case Lowest:
			*v = math.Inf(1)
			for i := range sorted {
				*v = math.Min(*v, s.Value(&sorted[i]))
			}
		case Duration:
			*v = totalTime
		case Frequency:
			if totalTime > 0 {
				*v = 1 / totalTime
			}
		}
	}

	if kind == GroupSlayerTask {
		n := float64(len(sorted))
		out.KillTime = totalTime / n
		if totalTime > 0 {
			out.KillsPerSecond = n / totalTime
		}
		out.SignetChance = NotComputed
		out.PetChance = NotComputed
	}
	out.SimSuccess = true
	return out
}
