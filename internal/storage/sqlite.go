package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"typeuml/internal/diag"
)

// timeLayout has fixed width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

type SQLiteStore struct {
	db *sql.DB
}

var _ RunStore = (*SQLiteStore)(nil)

// NewSQLiteStore creates or opens a SQLite database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init schema: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			created_at TEXT NOT NULL,
			roots JSON,
			revision TEXT,
			format TEXT,
			types INTEGER,
			edges INTEGER,
			diagnostics JSON
		);`,
		`CREATE TABLE IF NOT EXISTS events (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			seq INTEGER NOT NULL,
			line TEXT NOT NULL,
			PRIMARY KEY (run_id, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);`,
	}

	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteStore) SaveRun(ctx context.Context, r *Run) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	r.CreatedAt = r.CreatedAt.UTC()

	roots, err := json.Marshal(r.Roots)
	if err != nil {
		return err
	}
	diags, err := json.Marshal(r.Diagnostics)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO runs (id, created_at, roots, revision, format, types, edges, diagnostics)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, r.ID, r.CreatedAt.Format(timeLayout), roots, r.Revision, r.Format, r.Types, r.Edges, diags); err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO events (run_id, seq, line) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, line := range r.Lines {
		if _, err := stmt.ExecContext(ctx, r.ID, i, line); err != nil {
			return fmt.Errorf("failed to insert event %d: %w", i, err)
		}
	}

	return tx.Commit()
}

func (s *SQLiteStore) LatestRuns(ctx context.Context, n int) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, created_at, roots, revision, format, types, edges, diagnostics
		FROM runs ORDER BY created_at DESC, rowid DESC LIMIT ?
	`, n)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, rows.Err()
}

func (s *SQLiteStore) LoadRun(ctx context.Context, id string) (*Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, created_at, roots, revision, format, types, edges, diagnostics
		FROM runs WHERE id = ? OR substr(id, 1, length(?)) = ? ORDER BY id LIMIT 2
	`, id, id, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query run: %w", err)
	}
	var matches []*Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		matches = append(matches, r)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// An exact id sorts before every id it prefixes.
	switch {
	case len(matches) == 0 || id == "":
		return nil, fmt.Errorf("%w: %q", ErrRunNotFound, id)
	case len(matches) > 1 && matches[0].ID != id:
		return nil, fmt.Errorf("run id prefix %q is ambiguous", id)
	}
	r := matches[0]

	lines, err := s.db.QueryContext(ctx, `SELECT line FROM events WHERE run_id = ? ORDER BY seq`, r.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer lines.Close()

	for lines.Next() {
		var line string
		if err := lines.Scan(&line); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		r.Lines = append(r.Lines, line)
	}
	return r, lines.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*Run, error) {
	var (
		r       Run
		created string
		roots   []byte
		diags   []byte
	)
	if err := row.Scan(&r.ID, &created, &roots, &r.Revision, &r.Format, &r.Types, &r.Edges, &diags); err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}
	t, err := time.Parse(timeLayout, created)
	if err != nil {
		return nil, fmt.Errorf("run %s: bad timestamp: %w", r.ID, err)
	}
	r.CreatedAt = t
	if len(roots) > 0 {
		_ = json.Unmarshal(roots, &r.Roots)
	}
	if len(diags) > 0 {
		var ds []diag.Diagnostic
		if err := json.Unmarshal(diags, &ds); err == nil {
			r.Diagnostics = ds
		}
	}
	return &r, nil
}
