// Package state persists the latest manifest snapshot per project root in
// SQLite so the panel can warm-start its trees before the host delivers
// the first manifest-change event. The cache follows the live store: it is
// written on every applied change and read only at startup.
package state

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver (pure Go)

	"github.com/leapstack-labs/leappanel/internal/manifest"
)

// SnapshotCache is a SQLite-backed cache of manifest snapshots.
type SnapshotCache struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// NewSnapshotCache creates a cache instance. Open must be called before use.
func NewSnapshotCache(logger *slog.Logger) *SnapshotCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &SnapshotCache{logger: logger}
}

// Open opens the SQLite database at path and runs pending migrations.
// Use ":memory:" for an in-memory database.
func (c *SnapshotCache) Open(path string) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("failed to open snapshot cache: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping snapshot cache: %w", err)
	}

	c.db = db
	c.path = path

	if err := c.Migrate(); err != nil {
		_ = db.Close()
		c.db = nil
		return err
	}
	return nil
}

// Close closes the database connection.
func (c *SnapshotCache) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Save upserts the snapshot row for its project root.
func (c *SnapshotCache) Save(snap *manifest.Snapshot) error {
	if c.db == nil {
		return fmt.Errorf("snapshot cache not opened")
	}
	if snap == nil || snap.ProjectRoot == "" {
		return fmt.Errorf("snapshot missing project root")
	}

	graphJSON, err := manifest.EncodeSnapshot(snap)
	if err != nil {
		return err
	}

	_, err = c.db.Exec(
		`INSERT INTO snapshots (id, project_root, project_name, graph_json, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(project_root) DO UPDATE SET
		   project_name = excluded.project_name,
		   graph_json = excluded.graph_json,
		   updated_at = excluded.updated_at`,
		uuid.New().String(), snap.ProjectRoot, snap.ProjectName, string(graphJSON), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save snapshot for %s: %w", snap.ProjectRoot, err)
	}
	return nil
}

// Delete removes the cached row for a project root. Deleting an unknown
// root is a no-op.
func (c *SnapshotCache) Delete(projectRoot string) error {
	if c.db == nil {
		return fmt.Errorf("snapshot cache not opened")
	}
	_, err := c.db.Exec(`DELETE FROM snapshots WHERE project_root = ?`, projectRoot)
	if err != nil {
		return fmt.Errorf("failed to delete snapshot for %s: %w", projectRoot, err)
	}
	return nil
}

// LoadAll returns every cached snapshot. Rows that no longer decode are
// skipped with a warning rather than failing the whole load.
func (c *SnapshotCache) LoadAll() ([]*manifest.Snapshot, error) {
	if c.db == nil {
		return nil, fmt.Errorf("snapshot cache not opened")
	}

	rows, err := c.db.Query(`SELECT project_root, graph_json FROM snapshots ORDER BY project_root`)
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshots: %w", err)
	}
	defer rows.Close()

	var snaps []*manifest.Snapshot
	for rows.Next() {
		var root, graphJSON string
		if err := rows.Scan(&root, &graphJSON); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot row: %w", err)
		}

		snap, err := manifest.DecodeSnapshot([]byte(graphJSON))
		if err != nil {
			c.logger.Warn("skipping undecodable cached snapshot", "project_root", root, "error", err)
			continue
		}
		snaps = append(snaps, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate snapshots: %w", err)
	}
	return snaps, nil
}

// Count returns the number of cached snapshots.
func (c *SnapshotCache) Count() (int, error) {
	if c.db == nil {
		return 0, fmt.Errorf("snapshot cache not opened")
	}
	var n int
	if err := c.db.QueryRow(`SELECT COUNT(*) FROM snapshots`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count snapshots: %w", err)
	}
	return n, nil
}
