package results

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/mat"
	_ "modernc.org/sqlite"
)

// Store persists calibration runs in SQLite. Use ":memory:" for an
// ephemeral store.
type Store struct {
	db *sql.DB
}

// Open opens (and if needed migrates) a store at the given path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	PRAGMA journal_mode = WAL;
	PRAGMA synchronous = NORMAL;

	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		seed INTEGER NOT NULL,
		algorithm TEXT NOT NULL,
		n_params INTEGER NOT NULL,
		started_at DATETIME NOT NULL,
		ended_at DATETIME,
		status TEXT NOT NULL DEFAULT 'running',
		error TEXT
	);

	CREATE TABLE IF NOT EXISTS batches (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		batch INTEGER NOT NULL,
		epsilon REAL,
		accepted INTEGER NOT NULL,
		invalid INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL,
		FOREIGN KEY (run_id) REFERENCES runs(id)
	);

	CREATE TABLE IF NOT EXISTS particles (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		rank INTEGER NOT NULL,
		distance REAL NOT NULL,
		params TEXT NOT NULL,
		FOREIGN KEY (run_id) REFERENCES runs(id)
	);

	CREATE INDEX IF NOT EXISTS idx_batches_run ON batches(run_id, batch);
	CREATE INDEX IF NOT EXISTS idx_particles_run ON particles(run_id, rank);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// CreateRun inserts a new run record.
func (s *Store) CreateRun(r Run) error {
	_, err := s.db.Exec(
		`INSERT INTO runs (id, seed, algorithm, n_params, started_at, status) VALUES (?, ?, ?, ?, ?, ?)`,
		r.ID, r.Seed, r.Algorithm, r.NParams, r.StartedAt, r.Status,
	)
	return err
}

// FinishRun closes out a run with a final status.
func (s *Store) FinishRun(id, status, errMsg string) error {
	_, err := s.db.Exec(
		`UPDATE runs SET status = ?, error = ?, ended_at = ? WHERE id = ?`,
		status, errMsg, time.Now().UTC(), id,
	)
	return err
}

// RecordBatch appends one batch summary to a run. A NaN epsilon (no valid
// particle yet) is stored as NULL.
func (s *Store) RecordBatch(runID string, b BatchRecord) error {
	var eps any
	if !math.IsNaN(b.Epsilon) {
		eps = b.Epsilon
	}
	_, err := s.db.Exec(
		`INSERT INTO batches (run_id, batch, epsilon, accepted, invalid, duration_ms) VALUES (?, ?, ?, ?, ?, ?)`,
		runID, b.Batch, eps, b.Accepted, b.Invalid, b.DurationMS,
	)
	return err
}

// SaveParticles stores an accepted population, best first.
func (s *Store) SaveParticles(runID string, particles *mat.Dense, distances []float64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT INTO particles (run_id, rank, distance, params) VALUES (?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	n, _ := particles.Dims()
	for i := 0; i < n; i++ {
		encoded, err := json.Marshal(particles.RawRowView(i))
		if err != nil {
			tx.Rollback()
			return err
		}
		if _, err := stmt.Exec(runID, i, distances[i], string(encoded)); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// GetRun retrieves one run by ID.
func (s *Store) GetRun(id string) (*Run, error) {
	row := s.db.QueryRow(
		`SELECT id, seed, algorithm, n_params, started_at, ended_at, status, COALESCE(error, '') FROM runs WHERE id = ?`, id)
	var r Run
	var ended sql.NullTime
	if err := row.Scan(&r.ID, &r.Seed, &r.Algorithm, &r.NParams, &r.StartedAt, &ended, &r.Status, &r.Error); err != nil {
		return nil, err
	}
	if ended.Valid {
		r.EndedAt = &ended.Time
	}
	return &r, nil
}

// ListRuns returns all runs, most recent first.
func (s *Store) ListRuns() ([]Run, error) {
	rows, err := s.db.Query(
		`SELECT id, seed, algorithm, n_params, started_at, ended_at, status, COALESCE(error, '') FROM runs ORDER BY started_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var ended sql.NullTime
		if err := rows.Scan(&r.ID, &r.Seed, &r.Algorithm, &r.NParams, &r.StartedAt, &ended, &r.Status, &r.Error); err != nil {
			return nil, err
		}
		if ended.Valid {
			r.EndedAt = &ended.Time
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// LoadParticles retrieves a run's accepted population in rank order.
func (s *Store) LoadParticles(runID string) ([]Particle, error) {
	rows, err := s.db.Query(
		`SELECT rank, distance, params FROM particles WHERE run_id = ? ORDER BY rank`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Particle
	for rows.Next() {
		var p Particle
		var encoded string
		if err := rows.Scan(&p.Rank, &p.Distance, &encoded); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(encoded), &p.Params); err != nil {
			return nil, fmt.Errorf("decode particle %d: %w", p.Rank, err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Batches retrieves a run's batch history in order.
func (s *Store) Batches(runID string) ([]BatchRecord, error) {
	rows, err := s.db.Query(
		`SELECT batch, COALESCE(epsilon, 0), accepted, invalid, duration_ms FROM batches WHERE run_id = ? ORDER BY batch`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []BatchRecord
	for rows.Next() {
		var b BatchRecord
		if err := rows.Scan(&b.Batch, &b.Epsilon, &b.Accepted, &b.Invalid, &b.DurationMS); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
