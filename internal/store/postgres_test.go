package store

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sarasa-labs/sarasa-checker/internal/model"
)

func newMockPostgres(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewPostgresFromPool(mock), mock
}

func TestPostgresFindCheck(t *testing.T) {
	s, mock := newMockPostgres(t)

	verdictJSON, err := json.Marshal(sampleVerdict())
	require.NoError(t, err)

	now := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta(findCheckSQL)).
		WithArgs("site.com/news/1").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "query_key", "original_input", "verdict", "verdict_status", "smoke_level", "title", "created_at",
		}).AddRow("id-1", "site.com/news/1", "https://site.com/news/1", verdictJSON, "FALSE", 85, "Pure smoke", now))

	got, err := s.FindCheck(context.Background(), "site.com/news/1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "id-1", got.ID)
	assert.Equal(t, model.VerdictFalse, got.Verdict.Verdict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresFindCheckMiss(t *testing.T) {
	s, mock := newMockPostgres(t)

	mock.ExpectQuery(regexp.QuoteMeta(findCheckSQL)).
		WithArgs("nope.com").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "query_key", "original_input", "verdict", "verdict_status", "smoke_level", "title", "created_at",
		}))

	got, err := s.FindCheck(context.Background(), "nope.com")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresFindCheckError(t *testing.T) {
	s, mock := newMockPostgres(t)

	mock.ExpectQuery(regexp.QuoteMeta(findCheckSQL)).
		WithArgs("any.com").
		WillReturnError(errors.New("connection refused"))

	_, err := s.FindCheck(context.Background(), "any.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "find check")
}

func TestPostgresSaveCheck(t *testing.T) {
	s, mock := newMockPostgres(t)

	mock.ExpectExec(regexp.QuoteMeta(insertCheckSQL)).
		WithArgs(pgxmock.AnyArg(), "site.com/a", "site.com/a", pgxmock.AnyArg(), "FALSE", 85, "Pure smoke", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	rec := model.NewCheckRecord("site.com/a", "site.com/a", sampleVerdict())
	saved, err := s.SaveCheck(context.Background(), rec)
	require.NoError(t, err)
	assert.NotEmpty(t, saved.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresListRecentChecks(t *testing.T) {
	s, mock := newMockPostgres(t)

	verdictJSON, err := json.Marshal(sampleVerdict())
	require.NoError(t, err)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta(listRecentSQL)).
		WithArgs(3).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "query_key", "original_input", "verdict", "verdict_status", "smoke_level", "title", "created_at",
		}).
			AddRow("id-2", "b.com", "b.com", verdictJSON, "FALSE", 85, "b", now).
			AddRow("id-1", "a.com", "a.com", verdictJSON, "FALSE", 85, "a", now.Add(-time.Minute)))

	records, err := s.ListRecentChecks(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "id-2", records[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRequestLog(t *testing.T) {
	s, mock := newMockPostgres(t)

	mock.ExpectExec(regexp.QuoteMeta(insertRequestLogSQL)).
		WithArgs(pgxmock.AnyArg(), "203.0.113.7", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, s.LogRequest(context.Background(), "203.0.113.7"))

	since := time.Now().Add(-3 * time.Hour).UTC()
	mock.ExpectQuery(regexp.QuoteMeta(countRequestsSQL)).
		WithArgs("203.0.113.7", pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(2))

	count, err := s.CountRequests(context.Background(), "203.0.113.7", since)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
