package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sarasa-labs/sarasa-checker/internal/model"
)

// Pool is the subset of pgxpool.Pool the store needs. pgxmock implements it,
// which is how the postgres paths are tested without a live database.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 2
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresFromPool wraps an existing pool, used by tests.
func NewPostgresFromPool(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS checks (
	id             TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	query_key      TEXT NOT NULL,
	original_input TEXT NOT NULL,
	verdict        JSONB NOT NULL,
	verdict_status TEXT NOT NULL,
	smoke_level    INTEGER NOT NULL,
	title          TEXT NOT NULL DEFAULT '',
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS request_logs (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	identity   TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_checks_query_key ON checks(query_key);
CREATE INDEX IF NOT EXISTS idx_checks_created_at ON checks(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_request_logs_identity ON request_logs(identity, created_at);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

const findCheckSQL = `SELECT id, query_key, original_input, verdict, verdict_status, smoke_level, title, created_at
FROM checks
WHERE position($1 in query_key) > 0
ORDER BY created_at DESC
LIMIT 1`

func (s *PostgresStore) FindCheck(ctx context.Context, key string) (*model.CheckRecord, error) {
	if key == "" {
		return nil, nil
	}

	row := s.pool.QueryRow(ctx, findCheckSQL, key)
	rec, err := scanCheckPg(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: find check")
	}
	return rec, nil
}

const insertCheckSQL = `INSERT INTO checks (id, query_key, original_input, verdict, verdict_status, smoke_level, title, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

func (s *PostgresStore) SaveCheck(ctx context.Context, rec model.CheckRecord) (*model.CheckRecord, error) {
	rec.ID = uuid.New().String()
	rec.CreatedAt = time.Now().UTC()

	verdictJSON, err := json.Marshal(rec.Verdict)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal verdict")
	}

	_, err = s.pool.Exec(ctx, insertCheckSQL,
		rec.ID, rec.QueryKey, rec.OriginalInput, verdictJSON,
		rec.VerdictStatus, rec.SmokeLevel, rec.Title, rec.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert check")
	}
	return &rec, nil
}

const listRecentSQL = `SELECT id, query_key, original_input, verdict, verdict_status, smoke_level, title, created_at
FROM checks
ORDER BY created_at DESC
LIMIT $1`

func (s *PostgresStore) ListRecentChecks(ctx context.Context, limit int) ([]model.CheckRecord, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.pool.Query(ctx, listRecentSQL, limit)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list recent checks")
	}
	defer rows.Close()

	var records []model.CheckRecord
	for rows.Next() {
		rec, err := scanCheckPg(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan check")
		}
		records = append(records, *rec)
	}
	return records, eris.Wrap(rows.Err(), "postgres: iterate checks")
}

const insertRequestLogSQL = `INSERT INTO request_logs (id, identity, created_at) VALUES ($1, $2, $3)`

func (s *PostgresStore) LogRequest(ctx context.Context, identity string) error {
	_, err := s.pool.Exec(ctx, insertRequestLogSQL, uuid.New().String(), identity, time.Now().UTC())
	return eris.Wrap(err, "postgres: insert request log")
}

const countRequestsSQL = `SELECT COUNT(*) FROM request_logs WHERE identity = $1 AND created_at >= $2`

func (s *PostgresStore) CountRequests(ctx context.Context, identity string, since time.Time) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, countRequestsSQL, identity, since.UTC()).Scan(&count)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: count requests")
	}
	return count, nil
}

func scanCheckPg(row pgx.Row) (*model.CheckRecord, error) {
	var rec model.CheckRecord
	var verdictJSON []byte

	if err := row.Scan(&rec.ID, &rec.QueryKey, &rec.OriginalInput, &verdictJSON,
		&rec.VerdictStatus, &rec.SmokeLevel, &rec.Title, &rec.CreatedAt); err != nil {
		return nil, err
	}

	if err := json.Unmarshal(verdictJSON, &rec.Verdict); err != nil {
		return nil, eris.Wrap(err, "unmarshal verdict")
	}
	return &rec, nil
}
