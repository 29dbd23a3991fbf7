package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/envscreen/internal/screening"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS screening_runs (
	id         TEXT PRIMARY KEY,
	lon        REAL NOT NULL,
	lat        REAL NOT NULL,
	domains    INTEGER NOT NULL,
	result     TEXT NOT NULL,
	created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_screening_runs_created_at ON screening_runs(created_at);
`

// Migrate creates the schema.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveRun stores a completed screening run.
func (s *SQLiteStore) SaveRun(ctx context.Context, run *screening.Run) error {
	payload, err := json.Marshal(run)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal run")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO screening_runs (id, lon, lat, domains, result, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, run.Origin.Lon, run.Origin.Lat, len(run.Domains), string(payload), run.CreatedAt,
	)
	return eris.Wrapf(err, "sqlite: insert run %s", run.ID)
}

// GetRun fetches a stored run by id.
func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*screening.Run, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT result FROM screening_runs WHERE id = ?`, id,
	).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, eris.Errorf("sqlite: run %s not found", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get run %s", id)
	}

	var run screening.Run
	if err := json.Unmarshal([]byte(payload), &run); err != nil {
		return nil, eris.Wrapf(err, "sqlite: unmarshal run %s", id)
	}
	return &run, nil
}

// ListRuns lists stored runs newest first.
func (s *SQLiteStore) ListRuns(ctx context.Context, limit, offset int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, lon, lat, domains, created_at FROM screening_runs ORDER BY created_at DESC LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close() //nolint:errcheck

	var out []RunSummary
	for rows.Next() {
		var r RunSummary
		var created time.Time
		if err := rows.Scan(&r.ID, &r.Lon, &r.Lat, &r.Domains, &created); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan run row")
		}
		r.CreatedAt = created
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: iterate run rows")
	}
	return out, nil
}
