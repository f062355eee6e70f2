package database

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lawnchairsociety/combatsim/internal/combat"
	"github.com/lawnchairsociety/combatsim/internal/results"
)

// getPostgresTestConfig returns PostgreSQL config if available, nil otherwise.
// Set COMBATSIM_TEST_POSTGRES to run the store tests against PostgreSQL too:
//
//	COMBATSIM_TEST_POSTGRES_HOST (default: localhost)
//	COMBATSIM_TEST_POSTGRES_PORT (default: 5432)
//	COMBATSIM_TEST_POSTGRES_USER (default: combatsim)
//	COMBATSIM_TEST_POSTGRES_PASSWORD (default: combatsim)
//	COMBATSIM_TEST_POSTGRES_DATABASE (default: combatsim_test)
func getPostgresTestConfig() *Config {
	if os.Getenv("COMBATSIM_TEST_POSTGRES") == "" {
		return nil
	}

	getenv := func(key, def string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		return def
	}

	port := 5432
	fmt.Sscanf(getenv("COMBATSIM_TEST_POSTGRES_PORT", "5432"), "%d", &port)

	pg := PostgresConfig{
		Host:            getenv("COMBATSIM_TEST_POSTGRES_HOST", "localhost"),
		Port:            port,
		User:            getenv("COMBATSIM_TEST_POSTGRES_USER", "combatsim"),
		Password:        getenv("COMBATSIM_TEST_POSTGRES_PASSWORD", "combatsim"),
		Database:        getenv("COMBATSIM_TEST_POSTGRES_DATABASE", "combatsim_test"),
		ConnMaxLifetime: time.Minute,
	}

	return &Config{Driver: string(DialectPostgres), Postgres: pg}
}

// getDualTestDatabases returns SQLite and, when configured, PostgreSQL.
func getDualTestDatabases(t *testing.T) map[string]*Database {
	dbs := map[string]*Database{"sqlite": openTestDB(t)}

	if pgConfig := getPostgresTestConfig(); pgConfig != nil {
		pgDB, err := OpenWithConfig(*pgConfig)
		if err != nil {
			t.Logf("PostgreSQL not available: %v", err)
		} else {
			pgDB.db.Exec("DELETE FROM comparisons")
			t.Cleanup(func() {
				pgDB.db.Exec("DELETE FROM comparisons")
				pgDB.Close()
			})
			dbs["postgres"] = pgDB
		}
	}
	return dbs
}

func testSnapshot(attack int) results.Snapshot {
	build := combat.NewBuild()
	build.Levels[0] = attack

	chicken := results.Result{
		SimSuccess:     true,
		KillTime:       5,
		KillsPerSecond: 0.2,
		XPPerSecond:    2.4,
		SignetChance:   0.0001,
		PetChance:      0.01,
	}
	failed := results.Result{TooManyActions: true}
	task := chicken
	task.SignetChance = results.NotComputed
	task.PetChance = results.NotComputed

	return results.Snapshot{
		BuildSettings: build,
		Monsters: []results.MonsterResult{
			{ID: 1, Name: "Chicken", Result: chicken},
			{ID: 2, Name: "Goblin", Result: failed},
		},
		Tasks: []results.GroupResult{{Index: 0, Name: "Easy", Result: task}},
	}
}

func TestFingerprint(t *testing.T) {
	a, err := Fingerprint(testSnapshot(50).BuildSettings)
	require.NoError(t, err)
	b, err := Fingerprint(testSnapshot(50).BuildSettings)
	require.NoError(t, err)
	c, err := Fingerprint(testSnapshot(60).BuildSettings)
	require.NoError(t, err)

	assert.Len(t, a, 64)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)

	none, err := Fingerprint(nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSaveAndGetComparison(t *testing.T) {
	for name, db := range getDualTestDatabases(t) {
		t.Run(name, func(t *testing.T) {
			saved, err := db.SaveComparison("  dragon scimitar  ", testSnapshot(70))
			require.NoError(t, err)
			assert.Equal(t, "dragon scimitar", saved.Name)
			assert.Equal(t, 2, saved.Monsters)
			assert.NotEmpty(t, saved.ID)

			got, err := db.GetComparison(saved.ID)
			require.NoError(t, err)
			assert.Equal(t, saved.ID, got.ID)
			assert.Equal(t, saved.Fingerprint, got.Fingerprint)
			assert.WithinDuration(t, saved.CreatedAt, got.CreatedAt, time.Second)

			require.NotNil(t, got.Snapshot.BuildSettings)
			assert.Equal(t, 70, got.Snapshot.BuildSettings.Levels[0])
			require.Len(t, got.Snapshot.Monsters, 2)
			assert.Equal(t, 5.0, got.Snapshot.Monsters[0].Result.KillTime)
			assert.True(t, got.Snapshot.Monsters[1].Result.TooManyActions)
			require.Len(t, got.Snapshot.Tasks, 1)
			assert.True(t, math.IsNaN(got.Snapshot.Tasks[0].Result.SignetChance))
		})
	}
}

func TestSaveComparison_Errors(t *testing.T) {
	db := openTestDB(t)

	_, err := db.SaveComparison("   ", testSnapshot(1))
	assert.Error(t, err)

	_, err = db.SaveComparison("baseline", testSnapshot(1))
	require.NoError(t, err)
	_, err = db.SaveComparison("baseline", testSnapshot(2))
	assert.True(t, errors.Is(err, ErrComparisonExists), "got %v", err)
}

func TestSaveComparison_NoBuild(t *testing.T) {
	db := openTestDB(t)

	snap := testSnapshot(1)
	snap.BuildSettings = nil
	saved, err := db.SaveComparison("results only", snap)
	require.NoError(t, err)
	assert.Empty(t, saved.Fingerprint)

	got, err := db.GetComparison(saved.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Snapshot.BuildSettings)
}

func TestListAndFindComparisons(t *testing.T) {
	for name, db := range getDualTestDatabases(t) {
		t.Run(name, func(t *testing.T) {
			a, err := db.SaveComparison("a", testSnapshot(40))
			require.NoError(t, err)
			b, err := db.SaveComparison("b", testSnapshot(40))
			require.NoError(t, err)
			c, err := db.SaveComparison("c", testSnapshot(99))
			require.NoError(t, err)

			all, err := db.ListComparisons()
			require.NoError(t, err)
			ids := make([]string, len(all))
			for i, info := range all {
				ids[i] = info.ID
			}
			assert.ElementsMatch(t, []string{a.ID, b.ID, c.ID}, ids)

			same, err := db.FindByFingerprint(a.Fingerprint)
			require.NoError(t, err)
			require.Len(t, same, 2)
			assert.ElementsMatch(t, []string{"a", "b"}, []string{same[0].Name, same[1].Name})

			none, err := db.FindByFingerprint("missing")
			require.NoError(t, err)
			assert.Empty(t, none)
		})
	}
}

func TestDeleteComparison(t *testing.T) {
	for name, db := range getDualTestDatabases(t) {
		t.Run(name, func(t *testing.T) {
			saved, err := db.SaveComparison("doomed", testSnapshot(1))
			require.NoError(t, err)

			require.NoError(t, db.DeleteComparison(saved.ID))

			_, err = db.GetComparison(saved.ID)
			assert.ErrorIs(t, err, ErrComparisonNotFound)
			assert.ErrorIs(t, db.DeleteComparison(saved.ID), ErrComparisonNotFound)
		})
	}
}

func TestOpenWithConfig_Postgres(t *testing.T) {
	cfg := getPostgresTestConfig()
	if cfg == nil {
		t.Skip("Skipping PostgreSQL test: COMBATSIM_TEST_POSTGRES not set")
	}

	db, err := OpenWithConfig(*cfg)
	require.NoError(t, err)
	defer db.Close()

	assert.Equal(t, cfg.Postgres.MaxOpenConns, db.DB().Stats().MaxOpenConnections)
}

func TestOpenWithConfig_SQLitePath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.db")
	db, err := OpenWithConfig(SQLite(path))
	require.NoError(t, err)
	defer db.Close()

	_, err = os.Stat(path)
	assert.NoError(t, err)
}
