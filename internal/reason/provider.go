// Package reason drives the ordered chain of reasoning providers that turn
// a query plus retrieved evidence into a structured verdict.
package reason

import (
	"context"

	"github.com/sarasa-labs/sarasa-checker/internal/model"
)

// Provider is a single reasoning backend. Classify returns a verdict that
// already passed schema validation, or an error when the call failed or the
// output was unusable. Providers never retry internally; the chain moves on
// to the next one instead.
type Provider interface {
	// Name identifies the provider in logs.
	Name() string
	// Classify maps (query, evidence) to a candidate verdict.
	Classify(ctx context.Context, query string, ev model.Evidence) (*model.Verdict, error)
}
