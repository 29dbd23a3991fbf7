package store

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/envscreen/internal/screening"
)

// PgxIface is the subset of pgxpool.Pool the store needs; pgxmock satisfies
// it in tests.
type PgxIface interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore implements Store using pgx.
type PostgresStore struct {
	pool   PgxIface
	closer func()
}

// NewPostgres connects to the database at the given URL.
func NewPostgres(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}
	return &PostgresStore{pool: pool, closer: pool.Close}, nil
}

// NewPostgresWithPool wraps an existing pool (tests use pgxmock).
func NewPostgresWithPool(pool PgxIface) *PostgresStore {
	return &PostgresStore{pool: pool, closer: func() {}}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS screening_runs (
	id         TEXT PRIMARY KEY,
	lon        DOUBLE PRECISION NOT NULL,
	lat        DOUBLE PRECISION NOT NULL,
	domains    INTEGER NOT NULL,
	result     JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_screening_runs_created_at ON screening_runs(created_at);
`

// Migrate creates the schema.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

// Close releases the pool.
func (s *PostgresStore) Close() error {
	s.closer()
	return nil
}

// SaveRun stores a completed screening run.
func (s *PostgresStore) SaveRun(ctx context.Context, run *screening.Run) error {
	payload, err := json.Marshal(run)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal run")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO screening_runs (id, lon, lat, domains, result, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		run.ID, run.Origin.Lon, run.Origin.Lat, len(run.Domains), payload, run.CreatedAt,
	)
	return eris.Wrapf(err, "postgres: insert run %s", run.ID)
}

// GetRun fetches a stored run by id.
func (s *PostgresStore) GetRun(ctx context.Context, id string) (*screening.Run, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx,
		`SELECT result FROM screening_runs WHERE id = $1`, id,
	).Scan(&payload)
	if err != nil {
		if eris.Is(err, pgx.ErrNoRows) {
			return nil, eris.Errorf("postgres: run %s not found", id)
		}
		return nil, eris.Wrapf(err, "postgres: get run %s", id)
	}

	var run screening.Run
	if err := json.Unmarshal(payload, &run); err != nil {
		return nil, eris.Wrapf(err, "postgres: unmarshal run %s", id)
	}
	return &run, nil
}

// ListRuns lists stored runs newest first.
func (s *PostgresStore) ListRuns(ctx context.Context, limit, offset int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, lon, lat, domains, created_at FROM screening_runs ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var r RunSummary
		if err := rows.Scan(&r.ID, &r.Lon, &r.Lat, &r.Domains, &r.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan run row")
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate run rows")
	}
	return out, nil
}
