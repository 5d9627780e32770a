// Package store persists verification outcomes and the request audit log.
package store

import (
	"context"
	"time"

	"github.com/sarasa-labs/sarasa-checker/internal/model"
)

// Store defines the persistence interface for the verification pipeline.
//
// FindCheck implements the cache's fuzzy match policy: a stored record is a
// hit when its query_key contains the lookup key as a substring, and the
// newest matching record wins. The predicate lives entirely inside each
// backend so the matching policy (substring vs. exact vs. prefix) can be
// swapped without touching callers.
type Store interface {
	// FindCheck returns the newest record whose key contains key, or
	// (nil, nil) when nothing matches.
	FindCheck(ctx context.Context, key string) (*model.CheckRecord, error)
	// SaveCheck appends a new record. Records are never updated or deleted.
	SaveCheck(ctx context.Context, rec model.CheckRecord) (*model.CheckRecord, error)
	// ListRecentChecks returns up to limit records, newest first.
	ListRecentChecks(ctx context.Context, limit int) ([]model.CheckRecord, error)

	// LogRequest records one inbound request for auditing and rate
	// accounting.
	LogRequest(ctx context.Context, identity string) error
	// CountRequests counts requests from identity since the given time.
	CountRequests(ctx context.Context, identity string, since time.Time) (int, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
