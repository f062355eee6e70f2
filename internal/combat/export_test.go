package combat

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/lawnchairsociety/combatsim/internal/catalog"
	"github.com/lawnchairsociety/combatsim/internal/catalog/catalogtest"
)

func TestExportImportRoundTrip(t *testing.T) {
	cat := catalogtest.New()

	b := NewBuild()
	b.SetLevel(catalog.Magic, 80)
	b.SetLevel(catalog.Prayer, 40)
	b.SetLevel(catalog.Slayer, 55)
	equip(t, cat, b, catalogtest.StaffOfAir, catalogtest.MirrorShield, catalogtest.PrayerSkillcape)
	b.UseSpell(catalogtest.WindStrike)
	b.SetCurse(catalogtest.Weaken)
	b.SetAurora(catalogtest.Surge)
	b.SetPrayer(catalogtest.ThickSkin, true)
	b.SetPet(catalogtest.PetAccuracy, true)
	b.SetObstacle(0, catalogtest.ObstacleRope)
	b.SetMastery(0, true)
	b.Pillar = catalogtest.PillarHealth
	b.AutoEat = catalogtest.AutoEatMax
	b.Food = catalogtest.Shrimp
	b.CombinationRunes = true

	data, err := ExportBuild(b)
	require.NoError(t, err)

	imported, err := ImportBuild(data)
	require.NoError(t, err)

	assert.Equal(t, b, imported)
	assert.Equal(t, NewResolver(cat, b).PlayerStats(), NewResolver(cat, imported).PlayerStats())
}

func TestImportBuildDefaults(t *testing.T) {
	b, err := ImportBuild([]byte("spell: 1\n"))
	require.NoError(t, err)

	assert.Equal(t, 1, b.Spell)
	assert.Equal(t, 10, b.Levels[catalog.Hitpoints])
	assert.Equal(t, 1, b.Levels[catalog.Attack])
	assert.NotNil(t, b.Prayers)

	_, err = ImportBuild([]byte("levels: {"))
	assert.Error(t, err)
}

func TestSaveAndLoadBuild(t *testing.T) {
	path := filepath.Join(t.TempDir(), "build.yaml")

	b := NewBuild()
	b.SetLevel(catalog.Strength, 70)
	b.Hardcore = true
	require.NoError(t, SaveBuild(path, b))

	loaded, err := LoadBuild(path)
	require.NoError(t, err)
	assert.Equal(t, b, loaded)

	_, err = LoadBuild(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func drawBuild(t *rapid.T, cat *catalog.Catalog) *Build {
	b := NewBuild()
	for s := catalog.Skill(0); s < catalog.NumSkills; s++ {
		b.SetLevel(s, rapid.IntRange(1, 120).Draw(t, "level-"+s.String()))
	}

	equippable := []int{}
	for _, m := range []int{
		catalogtest.BronzeSword, catalogtest.IronShield, catalogtest.OakShortbow, catalogtest.BronzeArrows,
		catalogtest.StaffOfAir, catalogtest.MirrorShield, catalogtest.PrayerSkillcape, catalogtest.MagicAmulet,
		catalogtest.SlayerHelm, catalogtest.DragonScimitar,
	} {
		if rapid.Bool().Draw(t, "equip") {
			equippable = append(equippable, m)
		}
	}
	for _, id := range equippable {
		b.Equip(cat, id)
	}
	for at := catalog.Melee; at <= catalog.MagicType; at++ {
		b.SetStyle(at, rapid.IntRange(0, 2).Draw(t, "style"))
	}

	if rapid.Bool().Draw(t, "ancient") {
		b.UseAncient(catalogtest.AncientBlast)
	} else {
		b.UseSpell(catalogtest.WindStrike)
		if rapid.Bool().Draw(t, "curse") {
			b.SetCurse(catalogtest.Weaken)
		}
		if rapid.Bool().Draw(t, "aurora") {
			b.SetAurora(catalogtest.Surge)
		}
	}
	for _, id := range []int{catalogtest.ThickSkin, catalogtest.ProtectMelee, catalogtest.RapidHeal} {
		b.SetPrayer(id, rapid.Bool().Draw(t, "prayer"))
	}
	for _, id := range []int{catalogtest.PetStyle, catalogtest.PetAccuracy, catalogtest.PetAttack} {
		b.SetPet(id, rapid.Bool().Draw(t, "pet"))
	}
	if rapid.Bool().Draw(t, "potion") {
		b.SetPotion(catalogtest.MeleePotion, rapid.IntRange(0, 1).Draw(t, "tier"))
	}
	b.SetObstacle(0, rapid.SampledFrom([]int{0, catalogtest.ObstacleRope}).Draw(t, "obstacle"))
	b.SetObstacle(1, rapid.SampledFrom([]int{0, catalogtest.ObstacleWall}).Draw(t, "obstacle"))
	b.SetMastery(0, rapid.Bool().Draw(t, "mastery"))
	b.SetShopUpgrade(catalogtest.UpgradeRack, rapid.Bool().Draw(t, "upgrade"))
	b.AutoEat = rapid.SampledFrom([]int{0, catalogtest.AutoEatBasic, catalogtest.AutoEatMax}).Draw(t, "autoeat")
	b.Food = rapid.SampledFrom([]int{0, catalogtest.Shrimp}).Draw(t, "food")
	b.Hardcore = rapid.Bool().Draw(t, "hardcore")
	b.CombinationRunes = rapid.Bool().Draw(t, "combo")
	return b
}

func TestExportImportReproducesPlayerStats(t *testing.T) {
	cat := catalogtest.New()

	rapid.Check(t, func(t *rapid.T) {
		b := drawBuild(t, cat)

		data, err := ExportBuild(b)
		if err != nil {
			t.Fatal(err)
		}
		imported, err := ImportBuild(data)
		if err != nil {
			t.Fatal(err)
		}

		want := NewResolver(cat, b).PlayerStats()
		got := NewResolver(cat, imported).PlayerStats()
		if !assert.ObjectsAreEqual(want, got) {
			t.Fatalf("round trip changed stats:\nwant %+v\ngot  %+v", want, got)
		}
	})
}
