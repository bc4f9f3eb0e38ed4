// Package buildindex keeps a SQLite record of completed region builds.
package buildindex

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/OCharnyshevich/citycraft/internal/region"
)

// Build is one recorded region build.
type Build struct {
	ID           int64
	Region       string
	TileX, TileZ int
	Seed         int64
	Columns      int
	NetworkTiles int
	Lots         int
	Placed       int
	Skipped      []string
	Elapsed      time.Duration
	RecordedAt   time.Time
	Phases       map[string]time.Duration
}

// Index is a handle on the build database.
type Index struct {
	db *sql.DB
}

// Open opens or creates the database at path.
func Open(path string) (*Index, error) {
	if path == "" {
		return nil, fmt.Errorf("buildindex: empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Index{db: db}, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS builds (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			region TEXT NOT NULL,
			tile_x INTEGER NOT NULL,
			tile_z INTEGER NOT NULL,
			seed INTEGER NOT NULL,
			columns INTEGER NOT NULL,
			network_tiles INTEGER NOT NULL,
			lots INTEGER NOT NULL,
			placed INTEGER NOT NULL,
			skipped_json TEXT NOT NULL,
			elapsed_ns INTEGER NOT NULL,
			recorded_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_builds_region ON builds(region, id);`,
		`CREATE TABLE IF NOT EXISTS phases (
			build_id INTEGER NOT NULL REFERENCES builds(id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			elapsed_ns INTEGER NOT NULL,
			PRIMARY KEY (build_id, name)
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the database.
func (ix *Index) Close() error {
	return ix.db.Close()
}

// Record stores rep and returns its build id.
func (ix *Index) Record(ctx context.Context, rep *region.Report) (int64, error) {
	skipped, err := json.Marshal(rep.Skipped)
	if err != nil {
		return 0, err
	}
	if rep.Skipped == nil {
		skipped = []byte("[]")
	}

	tx, err := ix.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `INSERT INTO builds
		(region, tile_x, tile_z, seed, columns, network_tiles, lots, placed, skipped_json, elapsed_ns, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rep.Region, rep.TileX, rep.TileZ, rep.Seed,
		rep.Terrain.Columns, rep.Network.Tiles(), rep.Lots.Lots, rep.Placement.Placed,
		string(skipped), int64(rep.Elapsed), time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("insert build %s: %w", rep.Region, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	for _, p := range rep.Phases {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO phases (build_id, name, elapsed_ns) VALUES (?, ?, ?)`,
			id, p.Name, int64(p.Elapsed),
		); err != nil {
			return 0, fmt.Errorf("insert phase %s: %w", p.Name, err)
		}
	}
	return id, tx.Commit()
}

// Builds returns the recorded builds of a region, newest first.
func (ix *Index) Builds(ctx context.Context, regionName string) ([]Build, error) {
	rows, err := ix.db.QueryContext(ctx, `SELECT
		id, region, tile_x, tile_z, seed, columns, network_tiles, lots, placed, skipped_json, elapsed_ns, recorded_at
		FROM builds WHERE region = ? ORDER BY id DESC`, regionName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Build
	for rows.Next() {
		var (
			b         Build
			skipped   string
			elapsed   int64
			recording string
		)
		if err := rows.Scan(&b.ID, &b.Region, &b.TileX, &b.TileZ, &b.Seed, &b.Columns, &b.NetworkTiles,
			&b.Lots, &b.Placed, &skipped, &elapsed, &recording); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(skipped), &b.Skipped); err != nil {
			return nil, fmt.Errorf("build %d skipped list: %w", b.ID, err)
		}
		b.Elapsed = time.Duration(elapsed)
		b.RecordedAt, _ = time.Parse(time.RFC3339Nano, recording)
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		phases, err := ix.phases(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Phases = phases
	}
	return out, nil
}

func (ix *Index) phases(ctx context.Context, id int64) (map[string]time.Duration, error) {
	rows, err := ix.db.QueryContext(ctx, `SELECT name, elapsed_ns FROM phases WHERE build_id = ?`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]time.Duration)
	for rows.Next() {
		var (
			name    string
			elapsed int64
		)
		if err := rows.Scan(&name, &elapsed); err != nil {
			return nil, err
		}
		out[name] = time.Duration(elapsed)
	}
	return out, rows.Err()
}
