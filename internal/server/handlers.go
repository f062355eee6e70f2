package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/lawnchairsociety/combatsim/internal/catalog"
	"github.com/lawnchairsociety/combatsim/internal/combat"
	"github.com/lawnchairsociety/combatsim/internal/database"
	"github.com/lawnchairsociety/combatsim/internal/logger"
	"github.com/lawnchairsociety/combatsim/internal/results"
	"github.com/lawnchairsociety/combatsim/internal/scheduler"
)

const maxBodyBytes = 1 << 20

// StatsView is the player's derived stats as displayed. Damage and
// hitpoint values are in hitpoints.
type StatsView struct {
	AttackType      string              `json:"attack_type"`
	Accuracy        int                 `json:"accuracy"`
	MaxHit          float64             `json:"max_hit"`
	MinHit          float64             `json:"min_hit"`
	Evasion         map[string]int      `json:"evasion"`
	MaxHitpoints    float64             `json:"max_hitpoints"`
	DamageReduction int                 `json:"damage_reduction"`
	AttackSpeedMS   int                 `json:"attack_speed_ms"`
	HPRegen         float64             `json:"hp_regen"`
	Preservation    combat.Preservation `json:"preservation"`
	XPShare         map[string]float64  `json:"xp_share"`
	GPPercent       float64             `json:"gp_percent"`
	DoubleLoot      float64             `json:"double_loot"`
}

func newStatsView(p combat.PlayerStats) StatsView {
	hp := func(v int) float64 { return float64(v) / catalog.NumberMultiplier }
	share := make(map[string]float64)
	for skill, v := range p.XPShare {
		if v > 0 {
			share[catalog.Skill(skill).String()] = v
		}
	}
	return StatsView{
		AttackType: p.AttackType.String(),
		Accuracy:   p.Accuracy,
		MaxHit:     hp(p.MaxHit),
		MinHit:     hp(p.MinHit),
		Evasion: map[string]int{
			"melee":  p.Evasion.Melee,
			"ranged": p.Evasion.Ranged,
			"magic":  p.Evasion.Magic,
		},
		MaxHitpoints:    hp(p.MaxHP),
		DamageReduction: p.DamageReduction,
		AttackSpeedMS:   p.AttackSpeed,
		HPRegen:         hp(p.HPRegen),
		Preservation:    p.Preservation,
		XPShare:         share,
		GPPercent:       p.GPPercent,
		DoubleLoot:      p.DoubleLoot,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) playerStats() combat.PlayerStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resolver.PlayerStats()
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, newStatsView(s.playerStats()))
}

func (s *Server) handleGetBuild(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	data, err := combat.ExportBuild(s.build)
	s.mu.Unlock()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/yaml")
	w.Write(data)
}

// handlePutBuild replaces the build with a YAML document. Results of a
// running batch are unaffected; its jobs hold their own snapshot.
func (s *Server) handlePutBuild(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, err.Error())
		return
	}
	b, err := combat.ImportBuild(data)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.validateBuild(b); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	*s.build = *b
	stats := s.resolver.PlayerStats()
	s.mu.Unlock()

	logger.Info("Build replaced", "attack_type", stats.AttackType.String())
	writeJSON(w, http.StatusOK, newStatsView(stats))
}

// validateBuild rejects levels below 1 and equipment the catalog does not
// know.
func (s *Server) validateBuild(b *combat.Build) error {
	for skill, lvl := range b.Levels {
		if lvl < 1 {
			return fmt.Errorf("%s level %d below 1", catalog.Skill(skill), lvl)
		}
	}
	for slot, id := range b.Equipment {
		if id == 0 {
			continue
		}
		if _, ok := s.cat.Item(id); !ok {
			return fmt.Errorf("unknown item %d in slot %d", id, slot)
		}
	}
	return nil
}

// BatchStatus describes the scheduler for GET /api/batch.
type BatchStatus struct {
	State    string `json:"state"`
	Recorded int    `json:"recorded"`
	Workers  int    `json:"workers"`
}

func (s *Server) handleBatchStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, BatchStatus{
		State:    s.sched.State().String(),
		Recorded: s.table.Recorded(),
		Workers:  s.sched.Workers(),
	})
}

// BatchStarted is the response to POST /api/batch.
type BatchStarted struct {
	Batch string `json:"batch"`
	Jobs  int    `json:"jobs"`
}

// handleStartBatch queues the groups selected by the JSON body (every group
// when empty) and starts a batch.
func (s *Server) handleStartBatch(w http.ResponseWriter, r *http.Request) {
	filter := scheduler.AllGroups
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, err.Error())
		return
	}
	if len(strings.TrimSpace(string(body))) > 0 {
		filter = scheduler.Filter{}
		if err := json.Unmarshal(body, &filter); err != nil {
			writeError(w, http.StatusBadRequest, "invalid filter: "+err.Error())
			return
		}
	}

	// Queue and start under one lock so two requests cannot interleave.
	s.mu.Lock()
	n, err := s.sched.BuildQueue(filter)
	var id uuid.UUID
	if err == nil {
		s.batchBuild = s.build.Clone()
		id, err = s.sched.Start(s.ctx)
	}
	s.mu.Unlock()
	if errors.Is(err, scheduler.ErrRunning) || errors.Is(err, scheduler.ErrNoQueue) {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, BatchStarted{Batch: id.String(), Jobs: n})
}

func (s *Server) handleCancelBatch(w http.ResponseWriter, r *http.Request) {
	s.sched.Cancel()
	w.WriteHeader(http.StatusNoContent)
}

// DataSetEntry is one bar of a data set.
type DataSetEntry struct {
	Kind  string   `json:"kind"`
	ID    int      `json:"id"`
	Name  string   `json:"name"`
	Group string   `json:"group"`
	Value *float64 `json:"value"`
}

// handleDataSet serves one stat across the canonical enumeration.
// Query: stat (required), dungeon (catalog index to drill into).
func (s *Server) handleDataSet(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	key := q.Get("stat")
	if key == "" {
		writeError(w, http.StatusBadRequest, "missing stat parameter")
		return
	}

	mode := results.Overview
	if d := q.Get("dungeon"); d != "" {
		idx, err := strconv.Atoi(d)
		if _, ok := s.cat.Dungeon(idx); err != nil || !ok {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown dungeon %q", d))
			return
		}
		mode = results.Mode{DrillIn: true, Dungeon: idx}
	}

	values, err := s.table.DataSet(key, mode)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	entries := results.Enumerate(s.cat, mode)
	out := make([]DataSetEntry, len(entries))
	for i, e := range entries {
		out[i] = DataSetEntry{
			Kind:  entryKindName(e.Kind),
			ID:    e.ID,
			Name:  e.Name,
			Group: e.Group.String(),
			Value: finite(values[i]),
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func entryKindName(k results.EntryKind) string {
	switch k {
	case results.EntryDungeon:
		return "dungeon"
	case results.EntryTask:
		return "task"
	default:
		return "monster"
	}
}

// handleExport serves the results as CSV.
// Query: columns (comma-separated stat keys), name=0 to drop the name
// column, expand=1 to list dungeon monsters.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := results.ExportOptions{
		Name:           q.Get("name") != "0",
		ExpandDungeons: q.Get("expand") == "1",
	}
	if cols := q.Get("columns"); cols != "" {
		opts.Columns = strings.Split(cols, ",")
	}

	rows, err := s.table.ExportFlat(opts)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="combatsim.csv"`)
	if err := results.WriteCSV(w, rows); err != nil {
		logger.Error("Failed to write export", "error", err)
	}
}

// ComparisonView is a saved comparison as listed by the API.
type ComparisonView struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Fingerprint string `json:"fingerprint"`
	Monsters    int    `json:"monsters"`
	CreatedAt   string `json:"created_at"`
}

func newComparisonView(c database.ComparisonInfo) ComparisonView {
	return ComparisonView{
		ID:          c.ID,
		Name:        c.Name,
		Fingerprint: c.Fingerprint,
		Monsters:    c.Monsters,
		CreatedAt:   c.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
}

func (s *Server) requireStore(w http.ResponseWriter) bool {
	if s.db == nil {
		writeError(w, http.StatusServiceUnavailable, "comparison store not configured")
		return false
	}
	return true
}

// handleListComparisons lists saved comparisons. With build=current only
// those saved from a build identical to the current one are listed.
func (s *Server) handleListComparisons(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}

	var infos []database.ComparisonInfo
	var err error
	if r.URL.Query().Get("build") == "current" {
		s.mu.Lock()
		fp, ferr := database.Fingerprint(s.build)
		s.mu.Unlock()
		if ferr != nil {
			writeError(w, http.StatusInternalServerError, ferr.Error())
			return
		}
		infos, err = s.db.FindByFingerprint(fp)
	} else {
		infos, err = s.db.ListComparisons()
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	out := make([]ComparisonView, len(infos))
	for i, info := range infos {
		out[i] = newComparisonView(info)
	}
	writeJSON(w, http.StatusOK, out)
}

// handleSaveComparison stores the current results under {"name": ...}.
func (s *Server) handleSaveComparison(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	if s.sched.State() == scheduler.Running {
		writeError(w, http.StatusConflict, "a batch is running")
		return
	}

	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	s.mu.Lock()
	build := s.batchBuild
	s.mu.Unlock()

	saved, err := s.db.SaveComparison(req.Name, s.table.Snapshot(build))
	switch {
	case errors.Is(err, database.ErrComparisonExists):
		writeError(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	logger.Info("Comparison saved", "id", saved.ID, "name", saved.Name, "monsters", saved.Monsters)
	writeJSON(w, http.StatusCreated, newComparisonView(saved.ComparisonInfo))
}

// handleGetComparison serves a saved snapshot as YAML; NaN survives there.
func (s *Server) handleGetComparison(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}

	c, err := s.db.GetComparison(r.PathValue("id"))
	if errors.Is(err, database.ErrComparisonNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	data, err := results.MarshalSnapshot(c.Snapshot)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/yaml")
	w.Write(data)
}

func (s *Server) handleDeleteComparison(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}

	err := s.db.DeleteComparison(r.PathValue("id"))
	if errors.Is(err, database.ErrComparisonNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
