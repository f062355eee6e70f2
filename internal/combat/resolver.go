package combat

import (
	"math"
	"sort"

	"github.com/lawnchairsociety/combatsim/internal/catalog"
	"github.com/lawnchairsociety/combatsim/internal/modifiers"
)

// DefaultRespawnTime is the delay in ms between kills.
const DefaultRespawnTime = 3000

// Resolver derives combat stats from a build. It reads the build on every
// Recompute and never mutates it.
type Resolver struct {
	cat   *catalog.Catalog
	build *Build

	equipment EquipmentTotals
	mods      modifiers.Table
}

// NewResolver returns a resolver over build and computes its initial state.
func NewResolver(cat *catalog.Catalog, build *Build) *Resolver {
	r := &Resolver{cat: cat, build: build}
	r.Recompute()
	return r
}

// Build returns the build this resolver reads.
func (r *Resolver) Build() *Build {
	return r.build
}

// Catalog returns the catalog this resolver reads.
func (r *Resolver) Catalog() *catalog.Catalog {
	return r.cat
}

// Modifiers returns the current modifier table. Callers must not modify it.
func (r *Resolver) Modifiers() modifiers.Table {
	return r.mods
}

// Equipment returns the current equipment aggregate.
func (r *Resolver) Equipment() EquipmentTotals {
	return r.equipment
}

// Recompute rebuilds the modifier table and equipment aggregate from scratch.
func (r *Resolver) Recompute() {
	r.mods = r.buildModifiers()
	r.RecomputeEquipmentStats()
}

// RecomputeEquipmentStats aggregates equipped item stats.
func (r *Resolver) RecomputeEquipmentStats() {
	double := r.mods.Resolve(modifiers.RuneProvision) > 0
	r.equipment = AggregateEquipment(r.cat, r.build.Equipment, double)
}

func (r *Resolver) buildModifiers() modifiers.Table {
	b := r.build
	mods := modifiers.New()

	for slot := catalog.SlotHelmet; slot < catalog.NumSlots; slot++ {
		if item, ok := r.cat.Item(b.Equipment[slot]); ok {
			mods.Merge(item.Modifiers)
		}
	}
	for _, id := range b.ActivePrayers() {
		if p, ok := r.cat.Prayer(id); ok {
			mods.Merge(p.Modifiers)
		}
	}
	for _, id := range b.OwnedPets() {
		if p, ok := r.cat.Pet(id); ok {
			mods.Merge(p.Modifiers)
		}
	}
	if tier, ok := r.potionTier(); ok {
		mods.Merge(tier.Modifiers)
	}
	categories := make([]int, 0, len(b.Obstacles))
	for category := range b.Obstacles {
		categories = append(categories, category)
	}
	sort.Ints(categories)
	for _, category := range categories {
		o, ok := r.cat.Obstacle(b.Obstacles[category])
		if !ok {
			continue
		}
		if b.Mastery[category] {
			mods.Merge(modifiers.Halve(o.Modifiers))
		} else {
			mods.Merge(o.Modifiers)
		}
	}
	if p, ok := r.cat.Pillar(b.Pillar); ok {
		mods.Merge(p.Modifiers)
	}
	for _, id := range sortedKeys(b.ShopUpgrades) {
		if u, ok := r.cat.ShopUpgrade(id); ok {
			mods.Merge(u.Modifiers)
		}
	}
	if a, ok := r.aurora(); ok {
		mods.Merge(a.Modifiers)
	}
	return mods
}

func (r *Resolver) potionTier() (*catalog.PotionTier, bool) {
	p, ok := r.cat.Potion(r.build.Potion)
	if !ok || r.build.PotionTier < 0 || r.build.PotionTier >= len(p.Tiers) {
		return nil, false
	}
	return &p.Tiers[r.build.PotionTier], true
}

func (r *Resolver) aurora() (*catalog.Aurora, bool) {
	if r.build.Spellbook != SpellbookStandard {
		return nil, false
	}
	a, ok := r.cat.Aurora(r.build.Aurora)
	if !ok {
		return nil, false
	}
	if a.RequiredItem != 0 && !r.build.IsEquipped(a.RequiredItem) {
		return nil, false
	}
	return a, true
}

func (r *Resolver) curse() (*catalog.Curse, bool) {
	if r.build.Spellbook != SpellbookStandard {
		return nil, false
	}
	return r.cat.Curse(r.build.Curse)
}

// ResolveAttackType derives the attack type from a weapon. A nil weapon is melee.
func ResolveAttackType(weapon *catalog.Item) catalog.AttackType {
	switch {
	case weapon == nil:
		return catalog.Melee
	case weapon.IsRangedWeapon():
		return catalog.RangedType
	case weapon.IsMagicWeapon():
		return catalog.MagicType
	default:
		return catalog.Melee
	}
}

// AttackType returns the attack type of the equipped weapon.
func (r *Resolver) AttackType() catalog.AttackType {
	weapon, _ := r.cat.Item(r.build.Equipment[catalog.SlotWeapon])
	return ResolveAttackType(weapon)
}

func (r *Resolver) style() int {
	style := r.build.Styles[r.AttackType()]
	if style < 0 || style > 2 {
		return 0
	}
	return style
}

func (r *Resolver) hidden(skill catalog.Skill) float64 {
	return r.mods.Resolve(modifiers.HiddenSkillLevel, int(skill))
}

func (r *Resolver) ownsMeleeStylePet() bool {
	for _, id := range r.build.OwnedPets() {
		if p, ok := r.cat.Pet(id); ok && p.MeleeStyleBonus {
			return true
		}
	}
	return false
}

// ComputeAccuracyRating returns the accuracy roll for the current attack type.
func (r *Resolver) ComputeAccuracyRating() int {
	b := r.build
	stats := r.equipment.Stats
	style := r.style()
	global := r.mods.Resolve(modifiers.GlobalAccuracy)

	switch r.AttackType() {
	case catalog.RangedType:
		bonus := 0
		if style == RangedAccurate {
			bonus = StyleBonus
		}
		eff := EffectiveLevel(b.Levels[catalog.Ranged], bonus, r.hidden(catalog.Ranged))
		roll := Roll(eff, stats.RangedAttackBonus)
		return ApplyPercent(roll, r.mods.Resolve(modifiers.RangedAccuracyBonus)+global)
	case catalog.MagicType:
		eff := EffectiveLevel(b.Levels[catalog.Magic], 0, r.hidden(catalog.Magic))
		roll := Roll(eff, stats.MagicAttackBonus)
		return ApplyPercent(roll, r.mods.Resolve(modifiers.MagicAccuracyBonus)+global)
	default:
		bonus := 0
		if style == MeleeStab || r.ownsMeleeStylePet() {
			bonus = StyleBonus
		}
		eff := EffectiveLevel(b.Levels[catalog.Attack], bonus, r.hidden(catalog.Attack))
		roll := Roll(eff, stats.AttackBonus[style])
		return ApplyPercent(roll, r.mods.Resolve(modifiers.MeleeAccuracyBonus)+global)
	}
}

// ComputeMaxHit returns the max hit in combat units for the current attack
// type. Magic without a valid spell selection yields 0.
func (r *Resolver) ComputeMaxHit() int {
	b := r.build
	stats := r.equipment.Stats
	style := r.style()

	var maxHit int
	switch r.AttackType() {
	case catalog.RangedType:
		eff := EffectiveLevel(b.Levels[catalog.Ranged], 0, r.hidden(catalog.Ranged))
		maxHit = StrengthMaxHit(eff, stats.RangedStrengthBonus+int(r.mods.Resolve(modifiers.RangedStrengthBonus)))
	case catalog.MagicType:
		if b.Spellbook == SpellbookAncient {
			a, ok := r.cat.Ancient(b.Ancient)
			if !ok {
				return 0
			}
			return a.MaxHit * catalog.NumberMultiplier
		}
		spell, ok := r.cat.Spell(b.Spell)
		if !ok {
			return 0
		}
		damage := float64(stats.MagicDamageBonus) + r.mods.Resolve(modifiers.MagicDamageBonus)
		maxHit = SpellMaxHit(spell.MaxHit, damage, b.Levels[catalog.Magic], r.hidden(catalog.Magic))
		if a, ok := r.aurora(); ok {
			maxHit += a.MaxHitIncrease * catalog.NumberMultiplier
		}
	default:
		bonus := 0
		if style == MeleeSlash {
			bonus = StyleBonus
		}
		eff := EffectiveLevel(b.Levels[catalog.Strength], bonus, r.hidden(catalog.Strength))
		maxHit = StrengthMaxHit(eff, stats.StrengthBonus+int(r.mods.Resolve(modifiers.MeleeStrengthBonus)))
	}

	maxHit = ApplyPercent(maxHit, r.mods.Resolve(modifiers.MaxHitPercent))
	maxHit += int(r.mods.Resolve(modifiers.MaxHitFlat)) * catalog.NumberMultiplier
	if maxHit < 0 {
		return 0
	}
	return maxHit
}

// ComputeMinHit returns the min hit in combat units, never above maxHit.
func (r *Resolver) ComputeMinHit(maxHit int) int {
	minHit := 0
	if r.AttackType() == catalog.MagicType && r.build.Spellbook == SpellbookStandard {
		if a, ok := r.aurora(); ok {
			minHit += a.MinHitIncrease * catalog.NumberMultiplier
		}
	}
	if pct := r.mods.Resolve(modifiers.MinHitBasedOnMaxHit); pct > 0 {
		minHit += int(math.Floor(float64(maxHit) * pct / 100))
	}
	if minHit > maxHit {
		return maxHit
	}
	return minHit
}

// defenceStyle is the style bonus to defence for the current attack style.
func (r *Resolver) defenceStyle() int {
	style := r.style()
	switch r.AttackType() {
	case catalog.RangedType:
		if style == RangedLongrange {
			return StyleBonus
		}
	case catalog.MagicType:
		if style == MagicDefensive {
			return StyleBonus
		}
	default:
		if style == MeleeBlock {
			return StyleBonus
		}
	}
	return 0
}

// ComputeEvasionRatings returns the three evasion ratings with the given
// buff and debuff percentages.
func (r *Resolver) ComputeEvasionRatings(buffPct, debuffPct float64) Evasion {
	b := r.build
	stats := r.equipment.Stats
	global := r.mods.Resolve(modifiers.GlobalEvasion)
	style := r.defenceStyle()
	hiddenDef := r.hidden(catalog.Defence)

	eff := EffectiveLevel(b.Levels[catalog.Defence], style, hiddenDef)
	magicEff := MagicDefenceLevel(
		b.Levels[catalog.Magic]+int(r.hidden(catalog.Magic)),
		b.Levels[catalog.Defence]+int(hiddenDef),
		style,
	)

	return Evasion{
		Melee:  EvasionRating(eff, stats.DefenceBonus, r.mods.Resolve(modifiers.MeleeEvasion)+global, buffPct, debuffPct),
		Ranged: EvasionRating(eff, stats.RangedDefenceBonus, r.mods.Resolve(modifiers.RangedEvasion)+global, buffPct, debuffPct),
		Magic:  EvasionRating(magicEff, stats.MagicDefenceBonus, r.mods.Resolve(modifiers.MagicEvasion)+global, buffPct, debuffPct),
	}
}

// ComputeDamageReduction returns base plus modifier damage reduction,
// halved when marked.
func (r *Resolver) ComputeDamageReduction(marked bool) int {
	dr := r.equipment.Stats.DamageReduction + int(r.mods.Resolve(modifiers.DamageReduction))
	if marked {
		return MarkedDamageReduction(dr)
	}
	return dr
}

// ComputeMaxHP returns max hitpoints in combat units.
func (r *Resolver) ComputeMaxHP() int {
	levels := r.build.Levels[catalog.Hitpoints] + int(r.mods.Resolve(modifiers.MaxHitpoints))
	if levels < 1 {
		levels = 1
	}
	return levels * catalog.NumberMultiplier
}

// ComputeHPRegen returns hitpoints regenerated per tick.
func (r *Resolver) ComputeHPRegen(maxHP int) int {
	if r.build.Hardcore {
		return 0
	}
	regen := int(math.Floor(float64(maxHP)/100*(1+r.mods.Resolve(modifiers.HitpointRegeneration)/100))) +
		int(r.mods.Resolve(modifiers.FlatHitpointRegen))
	for _, id := range r.build.ActivePrayers() {
		if p, ok := r.cat.Prayer(id); ok && p.DoublesRegen {
			regen *= 2
			break
		}
	}
	if regen < 0 {
		return 0
	}
	return regen
}

// ComputeAttackSpeed returns the attack interval in ms.
func (r *Resolver) ComputeAttackSpeed() int {
	speed := float64(r.equipment.Stats.AttackSpeed)
	if r.AttackType() == catalog.RangedType && r.style() == RangedRapid {
		speed -= RapidSpeedReduction
	}
	speed += r.mods.Resolve(modifiers.PlayerAttackSpeed)
	speed *= 1 + r.mods.Resolve(modifiers.PlayerAttackSpeedPct)/100
	return max(finiteInt(math.Floor(speed)), MinAttackSpeed)
}

// ComputePreservation returns the clamped preservation chances.
func (r *Resolver) ComputePreservation() Preservation {
	return Preservation{
		Ammo:   ClampPreservation(r.mods.Resolve(modifiers.AmmoPreservation)),
		Rune:   ClampPreservation(r.mods.Resolve(modifiers.RunePreservation)),
		Prayer: ClampPreservation(r.mods.Resolve(modifiers.PrayerPreservation)),
		Potion: ClampPreservation(r.mods.Resolve(modifiers.PotionPreservation)),
	}
}

// ComputeRuneCosts returns runes used per attack and per curse cast after
// provision.
func (r *Resolver) ComputeRuneCosts() (spell, curse map[int]int) {
	b := r.build
	spell = map[int]int{}
	curse = map[int]int{}

	if r.AttackType() == catalog.MagicType {
		switch b.Spellbook {
		case SpellbookAncient:
			if a, ok := r.cat.Ancient(b.Ancient); ok {
				addRunes(spell, a.RuneCost)
			}
		default:
			if s, ok := r.cat.Spell(b.Spell); ok {
				if b.CombinationRunes && len(s.CombinationRuneCost) > 0 {
					addRunes(spell, s.CombinationRuneCost)
				} else {
					addRunes(spell, s.RuneCost)
				}
			}
		}
	}
	if a, ok := r.aurora(); ok {
		addRunes(spell, a.RuneCost)
	}
	if c, ok := r.curse(); ok {
		addRunes(curse, c.RuneCost)
	}

	provision := r.equipment.Provision.Total()
	subtractRunes(spell, provision)
	subtractRunes(curse, provision)
	return spell, curse
}

func addRunes(dst, src map[int]int) {
	for id, n := range src {
		dst[id] += n
	}
}

func subtractRunes(dst, provision map[int]int) {
	for id, n := range dst {
		n -= provision[id]
		if n <= 0 {
			delete(dst, id)
		} else {
			dst[id] = n
		}
	}
}

// ComputePrayerCosts returns prayer points drained per trigger.
func (r *Resolver) ComputePrayerCosts() PrayerCost {
	var player, enemy, regen int
	for _, id := range r.build.ActivePrayers() {
		p, ok := r.cat.Prayer(id)
		if !ok || p.Level > r.build.Levels[catalog.Prayer] {
			continue
		}
		player += p.PointsPerPlayer
		enemy += p.PointsPerEnemy
		regen += p.PointsPerRegen
	}

	flat := int(r.mods.Resolve(modifiers.FlatPrayerCostReduce))
	halved := r.mods.Resolve(modifiers.HalvedPrayerCost) > 0
	keep := 1 - ClampPreservation(r.mods.Resolve(modifiers.PrayerPreservation))/100

	cost := func(base int) float64 {
		if base <= 0 {
			return 0
		}
		c := base - flat
		if halved && c > 0 {
			c /= 2
		}
		if c < 1 {
			c = 1
		}
		return float64(c) * keep
	}

	return PrayerCost{
		PerPlayerAttack: cost(player),
		PerEnemyAttack:  cost(enemy),
		PerRegen:        cost(regen),
	}
}

// ComputeProtection returns the percent of enemy hits blocked per attack type.
func (r *Resolver) ComputeProtection() [3]float64 {
	var out [3]float64
	for _, id := range r.build.ActivePrayers() {
		p, ok := r.cat.Prayer(id)
		if !ok || p.Level > r.build.Levels[catalog.Prayer] {
			continue
		}
		for t := range out {
			if p.Protects(catalog.AttackType(t)) {
				out[t] = math.Max(out[t], p.ProtectChance)
			}
		}
	}
	return out
}

// ComputeXP returns the share of combat XP each skill receives and the
// percent bonus per skill. Defensive ranged and magic styles split XP
// evenly with Defence.
func (r *Resolver) ComputeXP() (share, bonus [catalog.NumSkills]float64) {
	style := r.style()
	switch r.AttackType() {
	case catalog.RangedType:
		if style == RangedLongrange {
			share[catalog.Ranged], share[catalog.Defence] = 0.5, 0.5
		} else {
			share[catalog.Ranged] = 1
		}
	case catalog.MagicType:
		if style == MagicDefensive {
			share[catalog.Magic], share[catalog.Defence] = 0.5, 0.5
		} else {
			share[catalog.Magic] = 1
		}
	default:
		share[[3]catalog.Skill{catalog.Attack, catalog.Strength, catalog.Defence}[style]] = 1
	}
	share[catalog.Hitpoints] = 1.0 / 3

	global := r.mods.Resolve(modifiers.GlobalSkillXP)
	for s := catalog.Skill(0); s < catalog.NumSkills; s++ {
		bonus[s] = global + r.mods.Resolve(modifiers.SkillXP, int(s))
	}
	return share, bonus
}

// ComputeSpecials returns the active special attacks. The ancient spell's
// special replaces every equipment special.
func (r *Resolver) ComputeSpecials() []catalog.SpecialAttack {
	b := r.build
	if r.AttackType() == catalog.MagicType && b.Spellbook == SpellbookAncient {
		if a, ok := r.cat.Ancient(b.Ancient); ok {
			return []catalog.SpecialAttack{a.Special}
		}
		return nil
	}
	var specials []catalog.SpecialAttack
	for slot := catalog.SlotHelmet; slot < catalog.NumSlots; slot++ {
		if item, ok := r.cat.Item(b.Equipment[slot]); ok {
			specials = append(specials, item.Specials...)
		}
	}
	return specials
}

// ComputeAutoEat resolves the auto-eat tier and food.
func (r *Resolver) ComputeAutoEat() AutoEat {
	tier, ok := r.cat.AutoEatTier(r.build.AutoEat)
	if !ok {
		return AutoEat{}
	}
	food, ok := r.cat.Item(r.build.Food)
	if !ok || food.Heals <= 0 {
		return AutoEat{}
	}
	heal := float64(food.Heals*catalog.NumberMultiplier) * (1 + r.mods.Resolve(modifiers.FoodHealing)/100)
	return AutoEat{
		Enabled:    true,
		Threshold:  ClampPercent(tier.Threshold + r.mods.Resolve(modifiers.AutoEatThreshold)),
		Efficiency: math.Max(0, tier.Efficiency+r.mods.Resolve(modifiers.AutoEatEfficiency)),
		MaxHP:      ClampPercent(tier.MaxHP + r.mods.Resolve(modifiers.AutoEatHPLimit)),
		FoodHeal:   finiteInt(math.Floor(heal)),
		FoodID:     food.ID,
	}
}

// ComputePotion resolves the active potion tier.
func (r *Resolver) ComputePotion() Potion {
	tier, ok := r.potionTier()
	if !ok {
		return Potion{}
	}
	p, _ := r.cat.Potion(r.build.Potion)
	return Potion{
		ID:       p.ID,
		Charges:  tier.Charges + int(r.mods.Resolve(modifiers.PotionChargesFlat)),
		ChargeOn: p.ChargeOn,
		ItemID:   tier.ItemID,
	}
}

// CanAccessArea reports whether the build meets an area's slayer level and
// required item.
func (r *Resolver) CanAccessArea(area *catalog.Area) bool {
	if area == nil {
		return false
	}
	if r.build.Levels[catalog.Slayer] < area.SlayerLevel {
		return false
	}
	return area.RequiredItem == 0 || r.build.IsEquipped(area.RequiredItem)
}

// PlayerStats recomputes and returns a full snapshot.
func (r *Resolver) PlayerStats() PlayerStats {
	r.Recompute()
	b := r.build

	maxHit := r.ComputeMaxHit()
	maxHP := r.ComputeMaxHP()
	spellRunes, curseRunes := r.ComputeRuneCosts()
	share, bonus := r.ComputeXP()

	s := PlayerStats{
		AttackType:      r.AttackType(),
		Levels:          b.Levels,
		Accuracy:        r.ComputeAccuracyRating(),
		MaxHit:          maxHit,
		MinHit:          r.ComputeMinHit(maxHit),
		Evasion:         r.ComputeEvasionRatings(0, 0),
		MaxHP:           maxHP,
		DamageReduction: r.ComputeDamageReduction(false),
		AttackSpeed:     r.ComputeAttackSpeed(),
		HPRegen:         r.ComputeHPRegen(maxHP),
		Preservation:    r.ComputePreservation(),
		SpellRunes:      spellRunes,
		CurseRunes:      curseRunes,
		Prayer:          r.ComputePrayerCosts(),
		Protection:      r.ComputeProtection(),
		Specials:        r.ComputeSpecials(),
		IsAncient:       b.Spellbook == SpellbookAncient && r.AttackType() == catalog.MagicType,
		AutoEat:         r.ComputeAutoEat(),
		Potion:          r.ComputePotion(),
		XPShare:         share,
		XPBonus:         bonus,
		Damage: DamageBonus{
			All:        r.mods.Resolve(modifiers.DamageToAllMonsters),
			Bosses:     r.mods.Resolve(modifiers.DamageToBosses),
			SlayerArea: r.mods.Resolve(modifiers.DamageToSlayerArea),
			CombatArea: r.mods.Resolve(modifiers.DamageToCombatArea),
			Dungeon:    r.mods.Resolve(modifiers.DamageToDungeon),
		},
		DoubleLoot:  ClampPercent(r.mods.Resolve(modifiers.DoubleLootChance)),
		GPPercent:   r.mods.Resolve(modifiers.GPFromMonsters),
		GPFlat:      r.mods.Resolve(modifiers.GPFromMonstersFlat),
		SlayerCoins: r.mods.Resolve(modifiers.SlayerCoins),
		Negation:    r.mods.Resolve(modifiers.SlayerAreaEffectNegation),
		RespawnTime: max(0, DefaultRespawnTime+int(r.mods.Resolve(modifiers.MonsterRespawnTimer))),
		Equipped:    b.Equipment,
		Hardcore:    b.Hardcore,
		Adventure:   b.Adventure,
	}
	if s.AttackType == catalog.RangedType {
		s.AmmoID = b.Equipment[catalog.SlotQuiver]
	}
	if c, ok := r.curse(); ok {
		curse := *c
		s.Curse = &curse
	}
	return s
}
