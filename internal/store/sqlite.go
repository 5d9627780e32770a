package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sarasa-labs/sarasa-checker/internal/model"
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
CREATE TABLE IF NOT EXISTS checks (
	id             TEXT PRIMARY KEY,
	query_key      TEXT NOT NULL,
	original_input TEXT NOT NULL,
	verdict        TEXT NOT NULL,
	verdict_status TEXT NOT NULL,
	smoke_level    INTEGER NOT NULL,
	title          TEXT NOT NULL DEFAULT '',
	created_at     DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS request_logs (
	id         TEXT PRIMARY KEY,
	identity   TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_checks_query_key ON checks(query_key);
CREATE INDEX IF NOT EXISTS idx_checks_created_at ON checks(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_request_logs_identity ON request_logs(identity, created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) FindCheck(ctx context.Context, key string) (*model.CheckRecord, error) {
	if key == "" {
		return nil, nil
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT id, query_key, original_input, verdict, verdict_status, smoke_level, title, created_at
		 FROM checks
		 WHERE instr(query_key, ?) > 0
		 ORDER BY created_at DESC
		 LIMIT 1`,
		key,
	)

	rec, err := scanCheck(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: find check")
	}
	return rec, nil
}

func (s *SQLiteStore) SaveCheck(ctx context.Context, rec model.CheckRecord) (*model.CheckRecord, error) {
	rec.ID = uuid.New().String()
	rec.CreatedAt = time.Now().UTC()

	verdictJSON, err := json.Marshal(rec.Verdict)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal verdict")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO checks (id, query_key, original_input, verdict, verdict_status, smoke_level, title, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.QueryKey, rec.OriginalInput, string(verdictJSON),
		rec.VerdictStatus, rec.SmokeLevel, rec.Title, rec.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert check")
	}

	return &rec, nil
}

func (s *SQLiteStore) ListRecentChecks(ctx context.Context, limit int) ([]model.CheckRecord, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, query_key, original_input, verdict, verdict_status, smoke_level, title, created_at
		 FROM checks
		 ORDER BY created_at DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list recent checks")
	}
	defer rows.Close()

	var records []model.CheckRecord
	for rows.Next() {
		rec, err := scanCheck(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan check")
		}
		records = append(records, *rec)
	}
	return records, eris.Wrap(rows.Err(), "sqlite: iterate checks")
}

func (s *SQLiteStore) LogRequest(ctx context.Context, identity string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO request_logs (id, identity, created_at) VALUES (?, ?, ?)`,
		uuid.New().String(), identity, time.Now().UTC(),
	)
	return eris.Wrap(err, "sqlite: insert request log")
}

func (s *SQLiteStore) CountRequests(ctx context.Context, identity string, since time.Time) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM request_logs WHERE identity = ? AND created_at >= ?`,
		identity, since.UTC(),
	).Scan(&count)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: count requests")
	}
	return count, nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanCheck(row scannable) (*model.CheckRecord, error) {
	var rec model.CheckRecord
	var verdictJSON string

	if err := row.Scan(&rec.ID, &rec.QueryKey, &rec.OriginalInput, &verdictJSON,
		&rec.VerdictStatus, &rec.SmokeLevel, &rec.Title, &rec.CreatedAt); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(verdictJSON), &rec.Verdict); err != nil {
		return nil, eris.Wrap(err, "unmarshal verdict")
	}
	return &rec, nil
}
