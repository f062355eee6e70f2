// Package enemy precomputes build-independent combat stats for every monster.
package enemy

import (
	"fmt"

	"github.com/lawnchairsociety/combatsim/internal/catalog"
	"github.com/lawnchairsociety/combatsim/internal/combat"
)

// levelOffset is added to every monster level before rolls: +8 effective
// level, +1 invisible style.
const levelOffset = 9

// Stats is an immutable, precomputed view of one monster.
type Stats struct {
	ID          int
	Name        string
	CombatLevel int
	AttackType  catalog.AttackType
	AttackSpeed int
	MaxHP       int
	IsBoss      bool

	Accuracy        int
	MaxHit          int
	Evasion         combat.Evasion
	DamageReduction int

	Specials       []catalog.SpecialAttack
	SpecialChances []float64
	SpecialIDs     []int

	SlayerArea   *catalog.Area // first slayer area listing the monster, if any
	InCombatArea bool

	Monster *catalog.Monster
}

// SpecialCount returns the number of special attacks the monster has.
func (s *Stats) SpecialCount() int {
	return len(s.Specials)
}

// Precompute derives a monster's stats. It panics if the id is unknown.
func Precompute(cat *catalog.Catalog, monsterID int) *Stats {
	m := cat.MustMonster(monsterID)
	l, b := m.Levels, m.Bonuses

	s := &Stats{
		ID:              m.ID,
		Name:            m.Name,
		CombatLevel:     m.CombatLevel(),
		AttackType:      m.AttackType,
		AttackSpeed:     m.AttackSpeed,
		MaxHP:           m.MaxHitpoints(),
		IsBoss:          m.IsBoss,
		DamageReduction: b.DamageReduction,
		Monster:         m,
	}
	if s.AttackSpeed <= 0 {
		s.AttackSpeed = combat.DefaultAttackSpeed
	}

	switch m.AttackType {
	case catalog.RangedType:
		s.Accuracy = combat.Roll(l.Ranged+levelOffset, b.RangedAttackBonus)
		s.MaxHit = combat.StrengthMaxHit(l.Ranged+levelOffset, b.RangedStrengthBonus)
	case catalog.MagicType:
		s.Accuracy = combat.Roll(l.Magic+levelOffset, b.MagicAttackBonus)
		if m.SpellMaxHit > 0 {
			s.MaxHit = combat.SpellMaxHit(m.SpellMaxHit, float64(b.MagicDamageBonus), l.Magic, 0)
		} else {
			s.MaxHit = combat.StrengthMaxHit(l.Magic+levelOffset, b.MagicDamageBonus)
		}
	default:
		s.Accuracy = combat.Roll(l.Attack+levelOffset, b.AttackBonus)
		s.MaxHit = combat.StrengthMaxHit(l.Strength+levelOffset, b.StrengthBonus)
	}

	s.Evasion = combat.Evasion{
		Melee:  combat.Roll(l.Defence+levelOffset, b.DefenceBonus),
		Ranged: combat.Roll(l.Defence+levelOffset, b.RangedDefenceBonus),
		Magic:  combat.Roll(combat.MagicDefenceLevel(l.Magic, l.Defence, 1), b.MagicDefenceBonus),
	}

	for _, sp := range m.Specials {
		s.Specials = append(s.Specials, sp)
		s.SpecialChances = append(s.SpecialChances, sp.Chance)
		s.SpecialIDs = append(s.SpecialIDs, sp.ID)
	}

	areas := cat.SlayerAreas()
	for i := range areas {
		if contains(areas[i].Monsters, m.ID) {
			s.SlayerArea = &areas[i]
			break
		}
	}
	for _, a := range cat.CombatAreas() {
		if contains(a.Monsters, m.ID) {
			s.InCombatArea = true
			break
		}
	}
	return s
}

func contains(ids []int, id int) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// Target returns what the player override pass needs for this monster.
func (s *Stats) Target(inDungeon bool) combat.Target {
	return combat.Target{
		AttackType:   s.AttackType,
		IsBoss:       s.IsBoss,
		InDungeon:    inDungeon,
		InCombatArea: s.InCombatArea,
		SlayerArea:   s.SlayerArea,
	}
}

// ChanceToBeHit is the chance a player attack of the given type and accuracy lands.
func (s *Stats) ChanceToBeHit(attackType catalog.AttackType, accuracy int) float64 {
	return combat.HitChance(accuracy, s.Evasion.Against(attackType))
}

// Registry caches precomputed stats for every catalog monster.
type Registry struct {
	stats map[int]*Stats
	order []int
}

// NewRegistry precomputes every monster in the catalog.
func NewRegistry(cat *catalog.Catalog) *Registry {
	monsters := cat.Monsters()
	r := &Registry{
		stats: make(map[int]*Stats, len(monsters)),
		order: make([]int, 0, len(monsters)),
	}
	for _, m := range monsters {
		r.stats[m.ID] = Precompute(cat, m.ID)
		r.order = append(r.order, m.ID)
	}
	return r
}

// Get returns the stats for a monster.
func (r *Registry) Get(id int) (*Stats, bool) {
	s, ok := r.stats[id]
	return s, ok
}

// MustGet returns the stats for a monster and panics if it is unknown.
func (r *Registry) MustGet(id int) *Stats {
	s, ok := r.stats[id]
	if !ok {
		panic(fmt.Sprintf("enemy: monster %d not in registry", id))
	}
	return s
}

// IDs returns every monster id in catalog order.
func (r *Registry) IDs() []int {
	return r.order
}

// Len returns the number of monsters.
func (r *Registry) Len() int {
	return len(r.order)
}
