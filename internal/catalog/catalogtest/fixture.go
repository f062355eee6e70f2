// Package catalogtest provides a small, fully cross-referenced catalog for tests.
package catalogtest

import (
	"github.com/lawnchairsociety/combatsim/internal/catalog"
	"github.com/lawnchairsociety/combatsim/internal/modifiers"
)

// Item IDs used by the fixture.
const (
	BronzeSword     = 1
	IronShield      = 2
	OakShortbow     = 3
	BronzeArrows    = 4
	StaffOfAir      = 5
	MirrorShield    = 6
	PrayerSkillcape = 7
	MagicAmulet     = 8
	SlayerHelm      = 9
	AirRune         = 10
	MindRune        = 11
	MistRune        = 12
	Shrimp          = 20
	Bones           = 21
	Gem             = 22
	DragonScimitar  = 23
)

// Monster IDs used by the fixture.
const (
	Chicken      = 1
	Goblin       = 2
	Archer       = 3
	Wizard       = 4
	Bane         = 5
	CaveBeast    = 6
	Guard        = 7
	DungeonBoss  = 8
	Unreachable  = 9
	TaskOnlyWolf = 10
)

// Other fixture IDs.
const (
	WindStrike    = 1
	AncientBlast  = 1
	Weaken        = 1
	Surge         = 1
	ThickSkin     = 1
	ProtectMelee  = 2
	RapidHeal     = 3
	PetStyle      = 1
	PetAccuracy   = 2
	PetAttack     = 3
	MeleePotion   = 1
	AutoEatBasic  = 1
	AutoEatMax    = 2
	ObstacleRope  = 1
	ObstacleWall  = 2
	PillarHealth  = 1
	UpgradeRack   = 1
	DarkCave      = 1
	GuardPost     = 0 // dungeon index
	TaskEasy      = 0 // slayer task index
	TaskHard      = 1 // slayer task index
	FarmlandsArea = 1
)

func scalar(key string, v float64) modifiers.Table {
	return modifiers.Table{key: modifiers.ScalarValue(v)}
}

// Definitions returns fresh fixture definitions; callers may modify them.
func Definitions() catalog.Definitions {
	attackSkill := catalog.Attack

	return catalog.Definitions{
		WanderingMonster: Bane,
		Items: []catalog.Item{
			{ID: BronzeSword, Name: "Bronze Sword", Slot: catalog.SlotWeapon, Type: "melee", SellPrice: 10,
				Stats: catalog.EquipmentStats{AttackBonus: [3]int{10, 12, 0}, StrengthBonus: 8, AttackSpeed: 2400, AttackLevelRequired: 1}},
			{ID: IronShield, Name: "Iron Shield", Slot: catalog.SlotShield, SellPrice: 20,
				Stats: catalog.EquipmentStats{DefenceBonus: 10, DamageReduction: 2, DefenceLevelRequired: 10}},
			{ID: OakShortbow, Name: "Oak Shortbow", Slot: catalog.SlotWeapon, Category: "bow", TwoHanded: true,
				Stats: catalog.EquipmentStats{RangedAttackBonus: 20, AttackSpeed: 3000, RangedLevelRequired: 10}},
			{ID: BronzeArrows, Name: "Bronze Arrows", Slot: catalog.SlotQuiver, AmmoType: "arrows", SellPrice: 1,
				Stats: catalog.EquipmentStats{RangedStrengthBonus: 5, RangedLevelRequired: 1}},
			{ID: StaffOfAir, Name: "Staff of Air", Slot: catalog.SlotWeapon, Type: "magic", Provides: map[int]int{AirRune: 1},
				Stats: catalog.EquipmentStats{MagicAttackBonus: 10, MagicDamageBonus: 5, AttackSpeed: 3000, MagicLevelRequired: 5}},
			{ID: MirrorShield, Name: "Mirror Shield", Slot: catalog.SlotShield, Provides: map[int]int{MindRune: 1},
				Stats: catalog.EquipmentStats{MagicDefenceBonus: 10}},
			{ID: PrayerSkillcape, Name: "Prayer Skillcape", Slot: catalog.SlotCape,
				Modifiers: scalar(modifiers.Increased+modifiers.HalvedPrayerCost, 1)},
			{ID: MagicAmulet, Name: "Amulet of Magic", Slot: catalog.SlotAmulet,
				Modifiers: scalar(modifiers.Increased+modifiers.RuneProvision, 1)},
			{ID: SlayerHelm, Name: "Slayer Helmet", Slot: catalog.SlotHelmet,
				Stats: catalog.EquipmentStats{DefenceBonus: 5, SlayerLevelRequired: 10}},
			{ID: AirRune, Name: "Air Rune", SellPrice: 1},
			{ID: MindRune, Name: "Mind Rune", SellPrice: 1},
			{ID: MistRune, Name: "Mist Rune", SellPrice: 2},
			{ID: Shrimp, Name: "Shrimp", Heals: 5, SellPrice: 1},
			{ID: Bones, Name: "Bones", SellPrice: 1},
			{ID: Gem, Name: "Gem", SellPrice: 100},
			{ID: DragonScimitar, Name: "Dragon Scimitar", Slot: catalog.SlotWeapon, Type: "melee",
				Stats:    catalog.EquipmentStats{AttackBonus: [3]int{0, 60, 0}, StrengthBonus: 50, AttackSpeed: 2600, AttackLevelRequired: 60},
				Specials: []catalog.SpecialAttack{{ID: 1, Name: "Sever", Chance: 25, DamageMultiplier: 1.5}}},
		},
		Monsters: []catalog.Monster{
			{ID: Chicken, Name: "Chicken", AttackType: catalog.Melee, AttackSpeed: 2400, CanSlayer: true,
				Levels:     catalog.MonsterLevels{Hitpoints: 3, Attack: 1, Strength: 1, Defence: 1},
				GP:         catalog.GPRange{Min: 1, Max: 5},
				BonesID:    Bones,
				BonesQty:   1,
				LootChance: 50,
				Loot:       []catalog.LootEntry{{ItemID: Gem, Weight: 1, MaxQuantity: 1}, {ItemID: Bones, Weight: 9, MaxQuantity: 2}}},
			{ID: Goblin, Name: "Goblin", AttackType: catalog.Melee, AttackSpeed: 2600, CanSlayer: true,
				Levels:  catalog.MonsterLevels{Hitpoints: 8, Attack: 5, Strength: 5, Defence: 5},
				Bonuses: catalog.MonsterBonuses{AttackBonus: 4, StrengthBonus: 4, DefenceBonus: 2},
				GP:      catalog.GPRange{Min: 5, Max: 20}},
			{ID: Archer, Name: "Archer", AttackType: catalog.RangedType, AttackSpeed: 3000, CanSlayer: true,
				Levels:  catalog.MonsterLevels{Hitpoints: 20, Ranged: 20, Defence: 10},
				Bonuses: catalog.MonsterBonuses{RangedAttackBonus: 15, RangedStrengthBonus: 10, RangedDefenceBonus: 10}},
			{ID: Wizard, Name: "Wizard", AttackType: catalog.MagicType, AttackSpeed: 3000, SpellMaxHit: 8,
				Levels:  catalog.MonsterLevels{Hitpoints: 25, Magic: 25, Defence: 5},
				Bonuses: catalog.MonsterBonuses{MagicAttackBonus: 10, MagicDefenceBonus: 20}},
			{ID: Bane, Name: "Bane", AttackType: catalog.Melee, AttackSpeed: 3000, IsBoss: true,
				Levels:  catalog.MonsterLevels{Hitpoints: 500, Attack: 150, Strength: 150, Defence: 150},
				Bonuses: catalog.MonsterBonuses{AttackBonus: 100, StrengthBonus: 100, DefenceBonus: 100}},
			{ID: CaveBeast, Name: "Cave Beast", AttackType: catalog.Melee, AttackSpeed: 2800, CanSlayer: true,
				Levels:  catalog.MonsterLevels{Hitpoints: 60, Attack: 40, Strength: 40, Defence: 40},
				Bonuses: catalog.MonsterBonuses{AttackBonus: 20, StrengthBonus: 20, DefenceBonus: 20}},
			{ID: Guard, Name: "Guard", AttackType: catalog.Melee, AttackSpeed: 2600,
				Levels: catalog.MonsterLevels{Hitpoints: 30, Attack: 20, Strength: 20, Defence: 20}},
			{ID: DungeonBoss, Name: "Warden", AttackType: catalog.Melee, AttackSpeed: 3000, IsBoss: true,
				Levels:   catalog.MonsterLevels{Hitpoints: 100, Attack: 50, Strength: 50, Defence: 50},
				Specials: []catalog.SpecialAttack{{ID: 2, Name: "Mark of Death", Chance: 20, Effect: catalog.EffectMarkOfDeath}}},
			{ID: Unreachable, Name: "Deep Horror", AttackType: catalog.Melee, AttackSpeed: 3000, CanSlayer: true,
				Levels: catalog.MonsterLevels{Hitpoints: 90, Attack: 80, Strength: 80, Defence: 80}},
			{ID: TaskOnlyWolf, Name: "Wolf", AttackType: catalog.Melee, AttackSpeed: 2400, CanSlayer: true,
				Levels: catalog.MonsterLevels{Hitpoints: 10, Attack: 8, Strength: 8, Defence: 8}},
		},
		Spells: []catalog.Spell{
			{ID: WindStrike, Name: "Wind Strike", Level: 1, MaxHit: 10,
				RuneCost: map[int]int{AirRune: 1, MindRune: 1}, CombinationRuneCost: map[int]int{MistRune: 1}},
		},
		Ancients: []catalog.AncientSpell{
			{ID: AncientBlast, Name: "Ancient Blast", Level: 50, MaxHit: 25, RuneCost: map[int]int{MindRune: 2},
				Special: catalog.SpecialAttack{ID: 10, Name: "Drain", Chance: 100}},
		},
		Curses: []catalog.Curse{
			{ID: Weaken, Name: "Weaken", Level: 1, Kind: catalog.CurseAccuracy, Value: 10, RuneCost: map[int]int{MindRune: 1}},
		},
		Auroras: []catalog.Aurora{
			{ID: Surge, Name: "Surge", Level: 1, MinHitIncrease: 1, RuneCost: map[int]int{AirRune: 2},
				Modifiers: scalar(modifiers.Increased+modifiers.MagicAccuracyBonus, 5)},
		},
		Prayers: []catalog.PrayerDef{
			{ID: ThickSkin, Name: "Thick Skin", Level: 1, PointsPerPlayer: 1, PointsPerEnemy: 1,
				Modifiers: scalar(modifiers.Increased+modifiers.DamageReduction, 5)},
			{ID: ProtectMelee, Name: "Protect from Melee", Level: 20, PointsPerEnemy: 2,
				ProtectFrom: []catalog.AttackType{catalog.Melee}, ProtectChance: 80},
			{ID: RapidHeal, Name: "Rapid Heal", Level: 10, PointsPerRegen: 2, DoublesRegen: true},
		},
		Pets: []catalog.Pet{
			{ID: PetStyle, Name: "Sir Stab", MeleeStyleBonus: true},
			{ID: PetAccuracy, Name: "Scout", Modifiers: scalar(modifiers.Increased+modifiers.GlobalAccuracy, 2)},
			{ID: PetAttack, Name: "Swordsman", Skill: &attackSkill},
		},
		Potions: []catalog.Potion{
			{ID: MeleePotion, Name: "Melee Accuracy Potion", ChargeOn: catalog.ChargeOnAttack, Tiers: []catalog.PotionTier{
				{Charges: 10, Modifiers: scalar(modifiers.Increased+modifiers.MeleeAccuracyBonus, 5)},
				{Charges: 15, Modifiers: scalar(modifiers.Increased+modifiers.MeleeAccuracyBonus, 10)},
			}},
		},
		AutoEat: []catalog.AutoEatTier{
			{ID: AutoEatBasic, Name: "Auto Eat - Tier I", Threshold: 20, Efficiency: 50, MaxHP: 50},
			{ID: AutoEatMax, Name: "Auto Eat - Tier III", Threshold: 40, Efficiency: 100, MaxHP: 80},
		},
		CombatAreas: []catalog.Area{
			{ID: FarmlandsArea, Name: "Farmlands", Monsters: []int{Chicken, Goblin}},
			{ID: 2, Name: "Archery Range", Monsters: []int{Archer, Wizard}},
		},
		SlayerAreas: []catalog.Area{
			{ID: DarkCave, Name: "Dark Cave", Monsters: []int{CaveBeast}, SlayerLevel: 10,
				Effect: &catalog.AreaEffect{Modifiers: scalar(modifiers.Decreased+modifiers.GlobalEvasion, 20), NegatedBy: SlayerHelm}},
			{ID: 2, Name: "Abyss", Monsters: []int{Unreachable}, SlayerLevel: 90, RequiredItem: SlayerHelm},
		},
		Dungeons: []catalog.Dungeon{
			{ID: 1, Name: "Guard Post", Monsters: []int{Guard, Guard, DungeonBoss}, GPReward: 500},
		},
		SlayerTasks: []catalog.SlayerTask{
			{ID: 1, Name: "Easy", MinLevel: 1, MaxLevel: 20},
			{ID: 2, Name: "Hard", MinLevel: 21, MaxLevel: 200, SlayerLevel: 50},
		},
		Agility: catalog.AgilityDefinitions{
			Obstacles: []catalog.Obstacle{
				{ID: ObstacleRope, Name: "Rope Swing", Category: 0, Modifiers: modifiers.Table{
					modifiers.Increased + modifiers.GlobalAccuracy: modifiers.ScalarValue(5),
					modifiers.Decreased + modifiers.GlobalEvasion:  modifiers.ScalarValue(4),
				}},
				{ID: ObstacleWall, Name: "Wall Climb", Category: 1, Modifiers: scalar(modifiers.Increased+modifiers.MaxHitpoints, 2)},
			},
			Pillars: []catalog.Pillar{
				{ID: PillarHealth, Name: "Pillar of Health", Modifiers: scalar(modifiers.Increased+modifiers.MaxHitpoints, 5)},
			},
		},
		ShopUpgrades: []catalog.ShopUpgrade{
			{ID: UpgradeRack, Name: "Weapon Rack", Modifiers: scalar(modifiers.Increased+modifiers.GlobalAccuracy, 1)},
		},
	}
}

// New returns a validated fixture catalog. It panics on invalid fixture data.
func New() *catalog.Catalog {
	c, err := catalog.New(Definitions())
	if err != nil {
		panic(err)
	}
	return c
}
