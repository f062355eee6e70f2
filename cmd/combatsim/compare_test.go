package main

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lawnchairsociety/combatsim/internal/results"
	"github.com/lawnchairsociety/combatsim/internal/scheduler"
)

func TestDiffSnapshots(t *testing.T) {
	stat, ok := results.LookupStat("killTime")
	require.True(t, ok)

	a := results.Snapshot{
		Monsters: []results.MonsterResult{
			{ID: 2, Name: "Goblin", Result: results.Result{SimSuccess: true, KillTime: 4}},
			{ID: 1, Name: "Chicken", Result: results.Result{SimSuccess: true, KillTime: 3}},
		},
		Dungeons: []results.GroupResult{{Index: 0, Name: "Guard Post", Result: results.Result{KillTime: 60}}},
	}
	b := results.Snapshot{
		Monsters: []results.MonsterResult{
			{ID: 1, Name: "Chicken", Result: results.Result{SimSuccess: true, KillTime: 2}},
			{ID: 3, Name: "Archer", Result: results.Result{SimSuccess: true, KillTime: 5}},
		},
		Dungeons: []results.GroupResult{{Index: 0, Name: "Guard Post", Result: results.Result{KillTime: 45}}},
	}

	rows := diffSnapshots(a, b, stat)
	require.Len(t, rows, 4)

	assert.Equal(t, "Chicken", rows[0].Name)
	assert.InDelta(t, -1.0, rows[0].Delta, 1e-9)

	assert.Equal(t, "Goblin", rows[1].Name)
	assert.True(t, math.IsNaN(rows[1].B), "missing on the right")
	assert.True(t, math.IsNaN(rows[1].Delta))

	assert.Equal(t, "Archer", rows[2].Name)
	assert.True(t, math.IsNaN(rows[2].A), "missing on the left")

	assert.Equal(t, "Guard Post", rows[3].Name)
	assert.InDelta(t, -15.0, rows[3].Delta, 1e-9)
}

func TestParseGroups(t *testing.T) {
	tests := []struct {
		input   string
		want    scheduler.Filter
		wantErr bool
	}{
		{"all", scheduler.AllGroups, false},
		{"combat", scheduler.Filter{CombatAreas: true}, false},
		{"Combat, dungeons", scheduler.Filter{CombatAreas: true, Dungeons: true}, false},
		{"slayer,tasks,wandering", scheduler.Filter{SlayerAreas: true, Tasks: true, Wandering: true}, false},
		{"", scheduler.Filter{}, true},
		{"bosses", scheduler.Filter{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseGroups(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatFloat(t *testing.T) {
	assert.Equal(t, "-", formatFloat(math.NaN()))
	assert.Equal(t, "3.25", formatFloat(3.25))
}
