package modifiers

// Prefixes of the paired modifier keys.
const (
	Increased = "increased"
	Decreased = "decreased"
)

// Kind describes the value shape of a template key.
type Kind int

const (
	KindScalar Kind = iota
	KindList
)

// Modifier names, resolved as increased<Name> - decreased<Name>.
const (
	GlobalAccuracy      = "GlobalAccuracy"
	MeleeAccuracyBonus  = "MeleeAccuracyBonus"
	RangedAccuracyBonus = "RangedAccuracyBonus"
	MagicAccuracyBonus  = "MagicAccuracyBonus"

	GlobalEvasion = "GlobalEvasion"
	MeleeEvasion  = "MeleeEvasion"
	RangedEvasion = "RangedEvasion"
	MagicEvasion  = "MagicEvasion"

	MaxHitPercent            = "MaxHitPercent"
	MaxHitFlat               = "MaxHitFlat"
	MeleeStrengthBonus       = "MeleeStrengthBonus"
	RangedStrengthBonus      = "RangedStrengthBonus"
	MagicDamageBonus         = "MagicDamageBonus"
	MinHitBasedOnMaxHit      = "MinHitBasedOnMaxHit"
	DamageReduction          = "DamageReduction"
	HiddenSkillLevel         = "HiddenSkillLevel" // list, keyed by skill
	MaxHitpoints             = "MaxHitpoints"
	HitpointRegeneration     = "HitpointRegeneration"
	FlatHitpointRegen        = "FlatHitpointRegen"
	PlayerAttackSpeed        = "PlayerAttackSpeed"
	PlayerAttackSpeedPct     = "PlayerAttackSpeedPercent"
	AmmoPreservation         = "AmmoPreservation"
	RunePreservation         = "RunePreservation"
	PrayerPreservation       = "ChanceToPreservePrayerPoints"
	PotionPreservation       = "ChanceToPreservePotionCharge"
	FlatPrayerCostReduce     = "FlatPrayerCostReduction"
	HalvedPrayerCost         = "HalvedPrayerCost"
	RuneProvision            = "RuneProvision"
	GlobalSkillXP            = "GlobalSkillXP"
	SkillXP                  = "SkillXP" // list, keyed by skill
	DamageToBosses           = "DamageToBosses"
	DamageToSlayerArea       = "DamageToSlayerAreaMonsters"
	DamageToCombatArea       = "DamageToCombatAreaMonsters"
	DamageToDungeon          = "DamageToDungeonMonsters"
	DamageToAllMonsters      = "DamageToAllMonsters"
	DoubleLootChance         = "ChanceToDoubleLootCombat"
	GPFromMonsters           = "GPFromMonsters"
	GPFromMonstersFlat       = "GPFromMonstersFlat"
	FoodHealing              = "FoodHealingValue"
	AutoEatEfficiency        = "AutoEatEfficiency"
	AutoEatThreshold         = "AutoEatThreshold"
	AutoEatHPLimit           = "AutoEatHPLimit"
	SlayerCoins              = "SlayerCoins"
	SlayerAreaEffectNegation = "SlayerAreaEffectNegation"
	MonsterRespawnTimer      = "MonsterRespawnTimer"
	PotionChargesFlat        = "PotionChargesFlat"
)

// template lists every known key with its value shape. Each key has a
// deterministic zero default in New().
var template = func() map[string]Kind {
	t := make(map[string]Kind)
	for _, name := range []string{
		GlobalAccuracy, MeleeAccuracyBonus, RangedAccuracyBonus, MagicAccuracyBonus,
		GlobalEvasion, MeleeEvasion, RangedEvasion, MagicEvasion,
		MaxHitPercent, MaxHitFlat, MeleeStrengthBonus, RangedStrengthBonus, MagicDamageBonus,
		MinHitBasedOnMaxHit, DamageReduction, MaxHitpoints, HitpointRegeneration, FlatHitpointRegen,
		PlayerAttackSpeed, PlayerAttackSpeedPct, AmmoPreservation, RunePreservation,
		PrayerPreservation, PotionPreservation, FlatPrayerCostReduce, HalvedPrayerCost, RuneProvision,
		GlobalSkillXP, DamageToBosses, DamageToSlayerArea, DamageToCombatArea, DamageToDungeon,
		DamageToAllMonsters, DoubleLootChance, GPFromMonsters, GPFromMonstersFlat, FoodHealing,
		AutoEatEfficiency, AutoEatThreshold, AutoEatHPLimit, SlayerCoins, SlayerAreaEffectNegation,
		MonsterRespawnTimer, PotionChargesFlat,
	} {
		t[Increased+name] = KindScalar
		t[Decreased+name] = KindScalar
	}
	for _, name := range []string{HiddenSkillLevel, SkillXP} {
		t[Increased+name] = KindList
		t[Decreased+name] = KindList
	}
	return t
}()

// KindOf reports the template shape of a full key and whether it is known.
func KindOf(key string) (Kind, bool) {
	k, ok := template[key]
	return k, ok
}
