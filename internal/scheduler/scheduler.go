// Package scheduler fans simulation jobs for a batch of monsters out over a
// fixed worker pool and folds the results into a results.Table.
package scheduler

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/lawnchairsociety/combatsim/internal/catalog"
	"github.com/lawnchairsociety/combatsim/internal/combat"
	"github.com/lawnchairsociety/combatsim/internal/enemy"
	"github.com/lawnchairsociety/combatsim/internal/logger"
	"github.com/lawnchairsociety/combatsim/internal/results"
	"github.com/lawnchairsociety/combatsim/internal/sim"
)

var (
	// ErrNoQueue is returned by Start when no queue has been built since
	// the last batch.
	ErrNoQueue = errors.New("no simulation queue built")
	// ErrRunning is returned by BuildQueue while a batch is running.
	ErrRunning = errors.New("a batch is already running")
)

// State is the scheduler's lifecycle state.
type State int

const (
	Idle State = iota
	QueueBuilt
	Running
	Completed
	Cancelled
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case QueueBuilt:
		return "queue_built"
	case Running:
		return "running"
	case Completed:
		return "completed"
	case Cancelled:
		return "cancelled"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Filter selects which monster groups a batch covers.
type Filter struct {
	CombatAreas bool `json:"combat_areas"`
	Wandering   bool `json:"wandering"`
	SlayerAreas bool `json:"slayer_areas"`
	Dungeons    bool `json:"dungeons"`
	Tasks       bool `json:"tasks"`
}

// AllGroups enables every group.
var AllGroups = Filter{CombatAreas: true, Wandering: true, SlayerAreas: true, Dungeons: true, Tasks: true}

// Config configures a Scheduler.
type Config struct {
	Workers int         // pool size, runtime.NumCPU() if zero
	Options sim.Options // per-job options
	Seed    uint64      // base seed, random per batch if zero
}

// Summary describes a finished batch.
type Summary struct {
	Batch     uuid.UUID
	State     State
	Total     int // jobs queued
	Processed int // results recorded
	Failed    int // jobs that errored or did not succeed
	Elapsed   time.Duration
}

// queued is one monster waiting in the queue.
type queued struct {
	monsterID int
	inDungeon bool
	cost      float64
}

type batch struct {
	id      uuid.UUID
	jobs    []sim.Job
	tasks   [][]int
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
	summary Summary
}

type jobResult struct {
	job     *sim.Job
	outcome sim.Outcome
	err     error
}

// Scheduler owns the job queue, the player snapshot of a batch and the
// worker pool. Build mutations must not race with BuildQueue, which reads
// the resolver.
type Scheduler struct {
	cat       *catalog.Catalog
	resolver  *combat.Resolver
	enemies   *enemy.Registry
	table     *results.Table
	simulator sim.Simulator
	workers   int
	options   sim.Options
	seed      uint64

	mu        sync.Mutex
	state     State
	queue     []queued
	player    combat.PlayerStats
	tasks     [][]int
	current   *batch
	listeners map[int]Listener
	nextID    int
}

// New creates a scheduler. The pool size is fixed for its lifetime.
func New(cat *catalog.Catalog, resolver *combat.Resolver, enemies *enemy.Registry, table *results.Table, simulator sim.Simulator, cfg Config) *Scheduler {
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Scheduler{
		cat:       cat,
		resolver:  resolver,
		enemies:   enemies,
		table:     table,
		simulator: simulator,
		workers:   workers,
		options:   cfg.Options,
		seed:      cfg.Seed,
		listeners: make(map[int]Listener),
	}
}

// Workers returns the pool size.
func (s *Scheduler) Workers() int {
	return s.workers
}

// Table returns the result table the scheduler writes to.
func (s *Scheduler) Table() *results.Table {
	return s.table
}

// State returns the current lifecycle state.
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Reset drops a built queue and returns to Idle. It does nothing while a
// batch is running.
func (s *Scheduler) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Running {
		return
	}
	s.queue = nil
	s.tasks = nil
	s.state = Idle
}

// BuildQueue snapshots the player stats and queues every monster the filter
// selects, most expensive first. A monster is queued at most once in the
// open world and once inside dungeons. It returns the queue length.
func (s *Scheduler) BuildQueue(f Filter) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Running {
		return 0, ErrRunning
	}

	player := s.resolver.PlayerStats()
	type key struct {
		id        int
		inDungeon bool
	}
	seen := make(map[key]bool)
	var q []queued
	add := func(id int, inDungeon bool) {
		k := key{id, inDungeon}
		if seen[k] {
			return
		}
		e, ok := s.enemies.Get(id)
		if !ok {
			logger.Warning("Skipping unknown monster in queue", "monster", id)
			return
		}
		seen[k] = true
		q = append(q, queued{monsterID: id, inDungeon: inDungeon, cost: estimateCost(player, e)})
	}

	if f.CombatAreas {
		for _, a := range s.cat.CombatAreas() {
			for _, id := range a.Monsters {
				add(id, false)
			}
		}
	}
	if f.Wandering {
		if id := s.cat.WanderingMonster(); id != 0 {
			add(id, false)
		}
	}
	if f.SlayerAreas {
		for _, a := range s.cat.SlayerAreas() {
			for _, id := range a.Monsters {
				add(id, false)
			}
		}
	}
	if f.Dungeons {
		for _, d := range s.cat.Dungeons() {
			for _, id := range d.Monsters {
				add(id, true)
			}
		}
	}

	tasks := s.cat.SlayerTasks()
	members := make([][]int, len(tasks))
	for i := range tasks {
		members[i] = results.TaskMonsters(s.cat, &tasks[i], s.resolver)
		if f.Tasks {
			for _, id := range members[i] {
				add(id, false)
			}
		}
	}

	sort.SliceStable(q, func(i, j int) bool {
		if q[i].cost != q[j].cost {
			return q[i].cost > q[j].cost
		}
		if q[i].monsterID != q[j].monsterID {
			return q[i].monsterID < q[j].monsterID
		}
		return !q[i].inDungeon && q[j].inDungeon
	})

	s.queue = q
	s.player = player
	s.tasks = members
	s.state = QueueBuilt
	logger.Debug("Simulation queue built", "jobs", len(q))
	return len(q), nil
}

// estimateCost approximates the attacks needed per kill as hp / hit chance.
// Monsters the player cannot hit sort first since they run until the
// action cap.
func estimateCost(p combat.PlayerStats, e *enemy.Stats) float64 {
	h := e.ChanceToBeHit(p.AttackType, p.Accuracy)
	if h <= 0 {
		return math.Inf(1)
	}
	return float64(e.MaxHP) / h
}

// Queue returns the queued monster IDs in dispatch order.
func (s *Scheduler) Queue() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]int, len(s.queue))
	for i, q := range s.queue {
		ids[i] = q.monsterID
	}
	return ids
}

// Start launches the built queue as a new batch and returns its ID. If a
// batch is already running it returns that batch's ID and starts nothing.
func (s *Scheduler) Start(ctx context.Context) (uuid.UUID, error) {
	s.mu.Lock()
	if s.state == Running {
		id := s.current.id
		s.mu.Unlock()
		return id, nil
	}
	if s.state != QueueBuilt {
		s.mu.Unlock()
		return uuid.Nil, ErrNoQueue
	}

	b := s.newBatch(ctx)
	s.current = b
	s.state = Running
	s.queue = nil
	s.table.Reset(s.player)
	s.mu.Unlock()

	logger.Info("Batch started", "batch", b.id, "jobs", len(b.jobs), "workers", s.workers)
	s.emit(Event{Kind: EventStarted, Batch: b.id, Total: len(b.jobs)})
	go s.coordinate(b)
	return b.id, nil
}

// newBatch deep-copies the player snapshot into one self-contained job per
// queued monster. Callers hold s.mu.
func (s *Scheduler) newBatch(ctx context.Context) *batch {
	id := uuid.New()
	seed := s.seed
	if seed == 0 {
		seed = binary.LittleEndian.Uint64(id[:8])
	}

	jobs := make([]sim.Job, len(s.queue))
	for i, q := range s.queue {
		e := s.enemies.MustGet(q.monsterID)
		jobs[i] = sim.Job{
			MonsterID: q.monsterID,
			InDungeon: q.inDungeon,
			Player:    s.player.ForMonster(e.Target(q.inDungeon)),
			Enemy:     e,
			Options:   s.options,
			Seed:      seed + uint64(q.monsterID)*0x9e3779b97f4a7c15,
		}
		if q.inDungeon {
			jobs[i].Seed = ^jobs[i].Seed
		}
	}

	bctx, cancel := context.WithCancel(ctx)
	return &batch{
		id:      id,
		jobs:    jobs,
		tasks:   s.tasks,
		ctx:     bctx,
		cancel:  cancel,
		done:    make(chan struct{}),
		summary: Summary{Batch: id, Total: len(jobs)},
	}
}

// coordinate runs the worker pool and is the only writer of the result
// table while the batch runs. Results that arrive after cancellation are
// dropped.
func (s *Scheduler) coordinate(b *batch) {
	defer close(b.done)
	defer b.cancel()
	start := time.Now()

	out := make(chan jobResult)
	var cursor atomic.Int64
	var g errgroup.Group
	for range s.workers {
		g.Go(func() error {
			for b.ctx.Err() == nil {
				i := int(cursor.Add(1) - 1)
				if i >= len(b.jobs) {
					return nil
				}
				job := &b.jobs[i]
				outcome, err := s.simulate(b.ctx, job)
				out <- jobResult{job: job, outcome: outcome, err: err}
			}
			return nil
		})
	}
	go func() {
		_ = g.Wait()
		close(out)
	}()

	for res := range out {
		if b.ctx.Err() != nil {
			continue
		}
		b.summary.Processed++
		ev := Event{Kind: EventProgress, Batch: b.id, MonsterID: res.job.MonsterID, Done: b.summary.Processed, Total: len(b.jobs)}
		if res.err != nil {
			b.summary.Failed++
			ev.Err = res.err.Error()
			logger.Error("Simulation failed", "batch", b.id, "monster", res.job.MonsterID, "error", res.err)
		} else {
			ev.Result = s.table.Record(res.job.Player, res.job.Enemy, res.job.InDungeon, res.outcome)
			if !ev.Result.SimSuccess {
				b.summary.Failed++
			}
		}
		s.emit(ev)
	}

	s.table.AggregateGroups(b.tasks)

	state, kind := Completed, EventCompleted
	if b.ctx.Err() != nil {
		state, kind = Cancelled, EventCancelled
	}
	b.summary.State = state
	b.summary.Elapsed = time.Since(start)

	s.mu.Lock()
	s.state = state
	s.mu.Unlock()

	logger.Info("Batch finished", "batch", b.id, "state", state.String(), "processed", b.summary.Processed,
		"failed", b.summary.Failed, "total", len(b.jobs), "elapsed", b.summary.Elapsed)
	s.emit(Event{Kind: kind, Batch: b.id, Done: b.summary.Processed, Total: len(b.jobs)})
}

// simulate runs one job, turning a panic into an error.
func (s *Scheduler) simulate(ctx context.Context, job *sim.Job) (out sim.Outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("simulation of monster %d panicked: %v", job.MonsterID, r)
		}
	}()
	return s.simulator.Simulate(ctx, *job)
}

// Cancel stops dispatching jobs for the running batch and asks in-flight
// jobs to stop. Results recorded so far are kept. It is a no-op when no
// batch is running.
func (s *Scheduler) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Running {
		return
	}
	logger.Info("Batch cancel requested", "batch", s.current.id)
	s.current.cancel()
}

// Wait blocks until the latest batch finishes and returns its summary.
func (s *Scheduler) Wait() Summary {
	s.mu.Lock()
	b := s.current
	s.mu.Unlock()
	if b == nil {
		return Summary{}
	}
	<-b.done
	return b.summary
}

// Run builds a queue for f, runs it, and waits for the batch to finish.
func (s *Scheduler) Run(ctx context.Context, f Filter) (Summary, error) {
	if _, err := s.BuildQueue(f); err != nil {
		return Summary{}, err
	}
	if _, err := s.Start(ctx); err != nil {
		return Summary{}, err
	}
	return s.Wait(), nil
}
