package archive

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"nanopond/pond"
)

// SQLite indexes report snapshots and dump files for offline analysis.
// It is written inline at report and dump boundaries; the simulation
// loop is single-threaded, so no writer goroutine is needed.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the archive database at path.
func OpenSQLite(path string) (*SQLite, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
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
	return &SQLite{db: db}, nil
}

func initPragmas(db *sql.DB) error {
	// WAL is much faster for append-style workloads. NORMAL is a decent
	// durability/perf tradeoff for a secondary index.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
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
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS reports (
			clock INTEGER PRIMARY KEY,
			total_energy INTEGER NOT NULL,
			max_cell_energy INTEGER NOT NULL,
			max_living_cell_energy INTEGER NOT NULL,
			avg_living_energy REAL NOT NULL,
			avg_viable_energy REAL NOT NULL,
			total_active_cells INTEGER NOT NULL,
			total_living_cells INTEGER NOT NULL,
			total_viable_replicators INTEGER NOT NULL,
			max_generation INTEGER NOT NULL,
			avg_metabolism REAL NOT NULL,
			counters_json TEXT NOT NULL,
			recorded_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS dumps (
			clock INTEGER PRIMARY KEY,
			path TEXT NOT NULL,
			cells INTEGER NOT NULL,
			recorded_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_reports_replicators
			ON reports(total_viable_replicators);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// SetMeta stores one key/value pair in the meta table, replacing any
// previous value.
func (a *SQLite) SetMeta(key, value string) error {
	_, err := a.db.Exec(
		`INSERT INTO meta(key, value) VALUES(?, ?)
		 ON CONFLICT(key) DO UPDATE SET value=excluded.value;`,
		key, value,
	)
	return err
}

// RecordReport stores one report snapshot.
func (a *SQLite) RecordReport(r pond.Report) error {
	counters, err := json.Marshal(r.Counters)
	if err != nil {
		return err
	}
	_, err = a.db.Exec(
		`INSERT OR REPLACE INTO reports(
			clock, total_energy, max_cell_energy, max_living_cell_energy,
			avg_living_energy, avg_viable_energy,
			total_active_cells, total_living_cells, total_viable_replicators,
			max_generation, avg_metabolism, counters_json, recorded_at
		) VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`,
		r.Clock, r.TotalEnergy, r.MaxCellEnergy, r.MaxLivingCellEnergy,
		r.AvgLivingEnergy, r.AvgViableEnergy,
		r.TotalActiveCells, r.TotalLivingCells, r.TotalViableReplicators,
		r.MaxGeneration, r.AvgMetabolism, string(counters),
		time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// RecordDump stores the location and size of one genome dump file.
func (a *SQLite) RecordDump(clock uint64, path string, cells int) error {
	_, err := a.db.Exec(
		`INSERT OR REPLACE INTO dumps(clock, path, cells, recorded_at)
		 VALUES(?, ?, ?, ?);`,
		clock, path, cells,
		time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// Close closes the underlying database.
func (a *SQLite) Close() error {
	return a.db.Close()
}
