package database

import (
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"

	"github.com/lawnchairsociety/combatsim/internal/combat"
	"github.com/lawnchairsociety/combatsim/internal/results"
)

// ErrComparisonNotFound is returned when a comparison lookup fails.
var ErrComparisonNotFound = errors.New("comparison not found")

// ErrComparisonExists is returned when a name is already taken.
var ErrComparisonExists = errors.New("comparison already exists")

// ComparisonInfo describes a saved comparison without its results.
type ComparisonInfo struct {
	ID          string
	Name        string
	Fingerprint string
	Monsters    int
	CreatedAt   time.Time
}

// Comparison is a saved batch: the build that produced it and every result.
type Comparison struct {
	ComparisonInfo
	Snapshot results.Snapshot
}

// Fingerprint identifies a build by the blake2b-256 hash of its export. Two
// builds with the same settings share a fingerprint. A nil build has none.
func Fingerprint(b *combat.Build) (string, error) {
	if b == nil {
		return "", nil
	}
	data, err := combat.ExportBuild(b)
	if err != nil {
		return "", err
	}
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// SaveComparison stores a snapshot under a unique name.
func (d *Database) SaveComparison(name string, snap results.Snapshot) (*Comparison, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("comparison name cannot be empty")
	}

	fingerprint, err := Fingerprint(snap.BuildSettings)
	if err != nil {
		return nil, fmt.Errorf("failed to fingerprint build: %w", err)
	}
	data, err := results.MarshalSnapshot(snap)
	if err != nil {
		return nil, err
	}

	c := &Comparison{
		ComparisonInfo: ComparisonInfo{
			ID:          uuid.NewString(),
			Name:        name,
			Fingerprint: fingerprint,
			Monsters:    len(snap.Monsters),
			CreatedAt:   time.Now().UTC(),
		},
		Snapshot: snap,
	}

	_, err = d.db.Exec(
		d.dialect.Rebind("INSERT INTO comparisons (id, name, fingerprint, monsters, created_at, snapshot) VALUES (?, ?, ?, ?, ?, ?)"),
		c.ID, c.Name, c.Fingerprint, c.Monsters, c.CreatedAt, data,
	)
	if err != nil {
		if d.dialect.IsDuplicateKeyError(err) {
			return nil, ErrComparisonExists
		}
		return nil, fmt.Errorf("failed to save comparison: %w", err)
	}

	return c, nil
}

// GetComparison loads a comparison and decodes its snapshot.
func (d *Database) GetComparison(id string) (*Comparison, error) {
	var c Comparison
	var data []byte

	err := d.db.QueryRow(
		d.dialect.Rebind("SELECT id, name, fingerprint, monsters, created_at, snapshot FROM comparisons WHERE id = ?"),
		id,
	).Scan(&c.ID, &c.Name, &c.Fingerprint, &c.Monsters, &c.CreatedAt, &data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrComparisonNotFound
		}
		return nil, fmt.Errorf("failed to get comparison: %w", err)
	}

	if c.Snapshot, err = results.UnmarshalSnapshot(data); err != nil {
		return nil, fmt.Errorf("comparison %s: %w", id, err)
	}
	return &c, nil
}

// ListComparisons returns every saved comparison, newest first.
func (d *Database) ListComparisons() ([]ComparisonInfo, error) {
	return d.queryInfos("SELECT id, name, fingerprint, monsters, created_at FROM comparisons ORDER BY created_at DESC, name")
}

// FindByFingerprint returns the comparisons saved from an identical build.
func (d *Database) FindByFingerprint(fingerprint string) ([]ComparisonInfo, error) {
	return d.queryInfos(
		"SELECT id, name, fingerprint, monsters, created_at FROM comparisons WHERE fingerprint = ? ORDER BY created_at DESC, name",
		fingerprint,
	)
}

// DeleteComparison removes a comparison.
func (d *Database) DeleteComparison(id string) error {
	result, err := d.db.Exec(d.dialect.Rebind("DELETE FROM comparisons WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("failed to delete comparison: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return ErrComparisonNotFound
	}
	return nil
}

func (d *Database) queryInfos(query string, args ...any) ([]ComparisonInfo, error) {
	rows, err := d.db.Query(d.dialect.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list comparisons: %w", err)
	}
	defer rows.Close()

	var infos []ComparisonInfo
	for rows.Next() {
		var info ComparisonInfo
		if err := rows.Scan(&info.ID, &info.Name, &info.Fingerprint, &info.Monsters, &info.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan comparison: %w", err)
		}
		infos = append(infos, info)
	}
	return infos, rows.Err()
}
