package scheduler

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/lawnchairsociety/combatsim/internal/catalog"
	"github.com/lawnchairsociety/combatsim/internal/catalog/catalogtest"
	"github.com/lawnchairsociety/combatsim/internal/combat"
	"github.com/lawnchairsociety/combatsim/internal/enemy"
	"github.com/lawnchairsociety/combatsim/internal/results"
	"github.com/lawnchairsociety/combatsim/internal/sim"
	mocksim "github.com/lawnchairsociety/combatsim/internal/sim/mock"
)

var combatAreasOnly = Filter{CombatAreas: true}

func newScheduler(t *testing.T, simulator sim.Simulator, workers int) (*Scheduler, *combat.Build) {
	t.Helper()
	return newSchedulerFor(t, catalogtest.New(), simulator, workers)
}

func newSchedulerFor(t *testing.T, cat *catalog.Catalog, simulator sim.Simulator, workers int) (*Scheduler, *combat.Build) {
	t.Helper()
	b := combat.NewBuild()
	s := New(cat, combat.NewResolver(cat, b), enemy.NewRegistry(cat), results.NewTable(cat, results.DefaultEconomy), simulator,
		Config{Workers: workers, Options: sim.Options{Trials: 20, MaxActions: 500}, Seed: 1})
	return s, b
}

func success(_ context.Context, job sim.Job) (sim.Outcome, error) {
	return sim.Outcome{MonsterID: job.MonsterID, Kills: 10, Time: 30000, PlayerAttacks: 15, PlayerHits: 10}, nil
}

// recorder collects events from the coordinator goroutine.
type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) listen(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) kinds() []EventKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	var kinds []EventKind
	for _, ev := range r.events {
		kinds = append(kinds, ev.Kind)
	}
	return kinds
}

func TestBuildQueueDedupsAndSortsByCost(t *testing.T) {
	s, _ := newScheduler(t, nil, 1)

	n, err := s.BuildQueue(AllGroups)
	require.NoError(t, err)
	assert.Equal(t, 10, n)
	assert.Equal(t, QueueBuilt, s.State())

	ids := s.Queue()
	assert.ElementsMatch(t, []int{
		catalogtest.Chicken, catalogtest.Goblin, catalogtest.Archer, catalogtest.Wizard, catalogtest.Bane,
		catalogtest.CaveBeast, catalogtest.Unreachable, catalogtest.Guard, catalogtest.DungeonBoss, catalogtest.TaskOnlyWolf,
	}, ids)
	assert.Equal(t, catalogtest.Bane, ids[0])
	for i := 1; i < len(s.queue); i++ {
		assert.GreaterOrEqual(t, s.queue[i-1].cost, s.queue[i].cost)
	}
	for _, q := range s.queue {
		assert.Equal(t, q.monsterID == catalogtest.Guard || q.monsterID == catalogtest.DungeonBoss, q.inDungeon, q.monsterID)
	}
}

func TestMonsterSharedWithDungeonRunsInBoth(t *testing.T) {
	defs := catalogtest.Definitions()
	defs.Dungeons[0].Monsters = append(defs.Dungeons[0].Monsters, catalogtest.Chicken)
	cat, err := catalog.New(defs)
	require.NoError(t, err)

	var mu sync.Mutex
	var contexts []bool
	ctrl := gomock.NewController(t)
	m := mocksim.NewMockSimulator(ctrl)
	m.EXPECT().Simulate(gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, job sim.Job) (sim.Outcome, error) {
		out, err := success(ctx, job)
		if job.MonsterID == catalogtest.Chicken {
			mu.Lock()
			contexts = append(contexts, job.InDungeon)
			mu.Unlock()
			if job.InDungeon {
				out.Time *= 2
			}
		}
		return out, err
	}).Times(7)

	s, _ := newSchedulerFor(t, cat, m, 2)
	n, err := s.BuildQueue(Filter{CombatAreas: true, Dungeons: true})
	require.NoError(t, err)
	assert.Equal(t, 7, n, "chicken is queued in the open world and inside the dungeon")

	summary, err := s.Run(context.Background(), Filter{CombatAreas: true, Dungeons: true})
	require.NoError(t, err)
	assert.Equal(t, 7, summary.Processed)
	assert.ElementsMatch(t, []bool{false, true}, contexts)

	assert.InDelta(t, 3.0, s.Table().Monster(catalogtest.Chicken).KillTime, 1e-12)
	assert.InDelta(t, 6.0, s.Table().DungeonMonster(catalogtest.Chicken).KillTime, 1e-12)
	dungeon := s.Table().Dungeon(catalogtest.GuardPost)
	require.True(t, dungeon.SimSuccess)
	assert.InDelta(t, 3+3+3+6, dungeon.KillTime, 1e-12)
}

func TestBuildQueueFilters(t *testing.T) {
	tests := []struct {
		name   string
		filter Filter
		want   []int
	}{
		{"nothing", Filter{}, nil},
		{"wandering", Filter{Wandering: true}, []int{catalogtest.Bane}},
		{"dungeons", Filter{Dungeons: true}, []int{catalogtest.Guard, catalogtest.DungeonBoss}},
		{"tasks", Filter{Tasks: true}, []int{catalogtest.Chicken, catalogtest.Goblin, catalogtest.Archer, catalogtest.TaskOnlyWolf}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newScheduler(t, nil, 1)
			n, err := s.BuildQueue(tt.filter)
			require.NoError(t, err)
			assert.Equal(t, len(tt.want), n)
			assert.ElementsMatch(t, tt.want, s.Queue())
		})
	}
}

func TestBuildQueueTasksFollowAccess(t *testing.T) {
	s, b := newScheduler(t, nil, 1)
	b.SetLevel(catalog.Slayer, 50)

	_, err := s.BuildQueue(Filter{Tasks: true})
	require.NoError(t, err)
	assert.Contains(t, s.Queue(), catalogtest.CaveBeast)
	assert.NotContains(t, s.Queue(), catalogtest.Unreachable)
}

func TestStartWithoutQueue(t *testing.T) {
	s, _ := newScheduler(t, nil, 1)

	_, err := s.Start(context.Background())
	assert.ErrorIs(t, err, ErrNoQueue)
	assert.Equal(t, Idle, s.State())
	assert.Equal(t, Summary{}, s.Wait())
}

func TestRunRecordsEveryMonster(t *testing.T) {
	ctrl := gomock.NewController(t)
	m := mocksim.NewMockSimulator(ctrl)
	m.EXPECT().Simulate(gomock.Any(), gomock.Any()).DoAndReturn(success).Times(4)

	s, _ := newScheduler(t, m, 3)
	rec := &recorder{}
	s.Subscribe(rec.listen)

	summary, err := s.Run(context.Background(), combatAreasOnly)
	require.NoError(t, err)

	assert.Equal(t, Completed, summary.State)
	assert.Equal(t, Completed, s.State())
	assert.Equal(t, 4, summary.Total)
	assert.Equal(t, 4, summary.Processed)
	assert.Zero(t, summary.Failed)
	assert.Equal(t, []EventKind{EventStarted, EventProgress, EventProgress, EventProgress, EventProgress, EventCompleted}, rec.kinds())

	for _, id := range []int{catalogtest.Chicken, catalogtest.Goblin, catalogtest.Archer, catalogtest.Wizard} {
		assert.True(t, s.Table().Monster(id).SimSuccess, id)
	}
	assert.False(t, s.Table().Monster(catalogtest.Bane).SimSuccess)

	_, err = s.Start(context.Background())
	assert.ErrorIs(t, err, ErrNoQueue, "a queue is consumed by one batch")
}

func TestJobsCarryMonsterSnapshots(t *testing.T) {
	ctrl := gomock.NewController(t)
	m := mocksim.NewMockSimulator(ctrl)

	var mu sync.Mutex
	seeds := make(map[uint64]bool)
	m.EXPECT().Simulate(gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, job sim.Job) (sim.Outcome, error) {
		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, job.MonsterID, job.Enemy.ID)
		assert.Equal(t, job.Player.Protection[job.Enemy.AttackType], job.Player.ActiveBlocker)
		assert.Equal(t, 20, job.Options.Trials)
		seeds[job.Seed] = true
		return success(ctx, job)
	}).Times(2)

	s, _ := newScheduler(t, m, 2)
	_, err := s.Run(context.Background(), Filter{Dungeons: true})
	require.NoError(t, err)
	assert.Len(t, seeds, 2, "each job gets its own seed")
}

func TestCancelAfterKJobs(t *testing.T) {
	const k = 2

	ctrl := gomock.NewController(t)
	m := mocksim.NewMockSimulator(ctrl)
	m.EXPECT().Simulate(gomock.Any(), gomock.Any()).DoAndReturn(success).MinTimes(k).MaxTimes(k + 1)

	s, _ := newScheduler(t, m, 1)
	rec := &recorder{}
	s.Subscribe(rec.listen)
	s.Subscribe(func(ev Event) {
		if ev.Kind == EventProgress && ev.Done == k {
			s.Cancel()
		}
	})

	_, err := s.BuildQueue(combatAreasOnly)
	require.NoError(t, err)
	queue := s.Queue()
	_, err = s.Start(context.Background())
	require.NoError(t, err)
	summary := s.Wait()

	assert.Equal(t, Cancelled, summary.State)
	assert.Equal(t, Cancelled, s.State())
	assert.Equal(t, k, summary.Processed)
	assert.Equal(t, k, s.Table().Recorded())
	for i, id := range queue {
		assert.Equal(t, i < k, s.Table().Monster(id).SimSuccess, id)
	}
	assert.Equal(t, []EventKind{EventStarted, EventProgress, EventProgress, EventCancelled}, rec.kinds())
}

func TestCancelWhenIdleIsNoop(t *testing.T) {
	s, _ := newScheduler(t, nil, 1)
	s.Cancel()
	assert.Equal(t, Idle, s.State())
}

func TestWorkerFailuresAreIsolated(t *testing.T) {
	ctrl := gomock.NewController(t)
	m := mocksim.NewMockSimulator(ctrl)
	m.EXPECT().Simulate(gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, job sim.Job) (sim.Outcome, error) {
		switch job.MonsterID {
		case catalogtest.Goblin:
			panic("corrupt snapshot")
		case catalogtest.Archer:
			return sim.Outcome{}, errors.New("simulator exploded")
		}
		return success(ctx, job)
	}).Times(4)

	s, _ := newScheduler(t, m, 2)
	rec := &recorder{}
	s.Subscribe(rec.listen)

	summary, err := s.Run(context.Background(), combatAreasOnly)
	require.NoError(t, err)
	assert.Equal(t, Completed, summary.State)
	assert.Equal(t, 4, summary.Processed)
	assert.Equal(t, 2, summary.Failed)

	assert.False(t, s.Table().Monster(catalogtest.Goblin).SimSuccess)
	assert.False(t, s.Table().Monster(catalogtest.Archer).SimSuccess)
	assert.True(t, s.Table().Monster(catalogtest.Chicken).SimSuccess)

	var errs []string
	for _, ev := range rec.events {
		if ev.Err != "" {
			errs = append(errs, ev.Err)
		}
	}
	require.Len(t, errs, 2)
	assert.True(t, strings.Contains(errs[0], "panicked") || strings.Contains(errs[1], "panicked"))
}

func TestSecondStartWhileRunningIsNoop(t *testing.T) {
	release := make(chan struct{})
	ctrl := gomock.NewController(t)
	m := mocksim.NewMockSimulator(ctrl)
	m.EXPECT().Simulate(gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, job sim.Job) (sim.Outcome, error) {
		<-release
		return success(ctx, job)
	}).Times(2)

	s, _ := newScheduler(t, m, 2)
	_, err := s.BuildQueue(Filter{Dungeons: true})
	require.NoError(t, err)

	first, err := s.Start(context.Background())
	require.NoError(t, err)
	second, err := s.Start(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, Running, s.State())

	_, err = s.BuildQueue(AllGroups)
	assert.ErrorIs(t, err, ErrRunning)

	close(release)
	summary := s.Wait()
	assert.Equal(t, first, summary.Batch)
	assert.Equal(t, Completed, summary.State)

	s.Reset()
	assert.Equal(t, Idle, s.State())
}

func TestRunWithEngine(t *testing.T) {
	s, b := newScheduler(t, sim.NewEngine(), 2)
	cat := catalogtest.New()
	for skill := catalog.Skill(0); skill < catalog.NumSkills; skill++ {
		b.SetLevel(skill, 99)
	}
	require.True(t, b.Equip(cat, catalogtest.DragonScimitar))
	b.SetStyle(catalog.Melee, combat.MeleeSlash)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	summary, err := s.Run(ctx, Filter{Dungeons: true})
	require.NoError(t, err)

	assert.Equal(t, Completed, summary.State)
	assert.Equal(t, 2, summary.Processed)
	dungeon := s.Table().Dungeon(catalogtest.GuardPost)
	require.True(t, dungeon.SimSuccess)
	assert.Greater(t, dungeon.KillTime, s.Table().Monster(catalogtest.DungeonBoss).KillTime)
}
