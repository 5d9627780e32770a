// Package checker composes normalization, rate guarding, caching, evidence
// retrieval and the reasoning chain into one request/response cycle.
package checker

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sarasa-labs/sarasa-checker/internal/model"
	"github.com/sarasa-labs/sarasa-checker/internal/normalize"
)

// Sentinel errors for the two failure kinds allowed to short-circuit the
// user-visible response. Everything downstream of the rate check degrades
// gracefully instead of erroring.
var (
	ErrEmptyQuery  = eris.New("checker: empty query")
	ErrRateLimited = eris.New("checker: rate limited")
)

// defaultDeadline bounds one full pipeline run: one evidence round trip plus
// a couple of sequential provider attempts.
const defaultDeadline = 45 * time.Second

// CacheStore is the slice of the store the checker reads and writes.
type CacheStore interface {
	FindCheck(ctx context.Context, key string) (*model.CheckRecord, error)
	SaveCheck(ctx context.Context, rec model.CheckRecord) (*model.CheckRecord, error)
}

// Retriever fetches grounding evidence; it never fails.
type Retriever interface {
	Retrieve(ctx context.Context, query string) model.Evidence
}

// Classifier turns (query, evidence) into a verdict; it never fails.
type Classifier interface {
	Classify(ctx context.Context, query string, ev model.Evidence) *model.Verdict
}

// Admitter applies the per-identity request quota.
type Admitter interface {
	Admit(ctx context.Context, identity string) bool
}

// Request is one inbound verification call.
type Request struct {
	RawQuery       string
	ClientIdentity string
}

// Result is the outcome of a verification run.
type Result struct {
	Verdict *model.Verdict
	Key     string
	Cached  bool
}

// Checker runs the verification pipeline.
type Checker struct {
	store     CacheStore
	guard     Admitter
	retriever Retriever
	chain     Classifier
	deadline  time.Duration
}

// New creates a Checker. A non-positive deadline falls back to the default.
func New(store CacheStore, guard Admitter, retriever Retriever, chain Classifier, deadline time.Duration) *Checker {
	if deadline <= 0 {
		deadline = defaultDeadline
	}
	return &Checker{
		store:     store,
		guard:     guard,
		retriever: retriever,
		chain:     chain,
		deadline:  deadline,
	}
}

// Check runs one request through the pipeline: validate, rate-check, cache
// lookup, then on a miss evidence retrieval, classification and persistence.
// Cache hits return the stored verdict verbatim without any paid call.
//
// The paid stages run on a context detached from the caller's: a client
// disconnect does not cancel in-flight work, which completes and writes to
// cache so the next caller benefits.
func (c *Checker) Check(ctx context.Context, req Request) (*Result, error) {
	query := strings.TrimSpace(req.RawQuery)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	if !c.guard.Admit(ctx, req.ClientIdentity) {
		return nil, ErrRateLimited
	}

	key := normalize.Key(query)

	rec, err := c.store.FindCheck(ctx, key)
	if err != nil {
		// Lookup failures are misses, never user-visible errors.
		zap.L().Warn("checker: cache lookup failed, treating as miss",
			zap.String("key", key),
			zap.Error(err),
		)
		rec = nil
	}
	if rec != nil {
		zap.L().Info("checker: cache hit",
			zap.String("key", key),
			zap.String("verdict", rec.VerdictStatus),
		)
		return &Result{Verdict: &rec.Verdict, Key: key, Cached: true}, nil
	}

	runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.deadline)
	defer cancel()

	ev := c.retriever.Retrieve(runCtx, query)
	verdict := c.chain.Classify(runCtx, query, ev)

	if _, err := c.store.SaveCheck(runCtx, model.NewCheckRecord(key, query, *verdict)); err != nil {
		// The response already in flight must not fail because
		// persistence did.
		zap.L().Error("checker: persist failed",
			zap.String("key", key),
			zap.Error(err),
		)
	}

	return &Result{Verdict: verdict, Key: key, Cached: false}, nil
}
