// Package evidence retrieves third-party search results used as grounding
// context for the reasoning chain.
package evidence

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sarasa-labs/sarasa-checker/internal/model"
	"github.com/sarasa-labs/sarasa-checker/internal/resilience"
	"github.com/sarasa-labs/sarasa-checker/pkg/tavily"
)

const (
	maxResults  = 5
	searchDepth = "advanced"

	// maxClaimChars bounds how much of a free-text claim goes into the
	// search query.
	maxClaimChars = 300

	// noEvidenceNote tells the reasoning provider to proceed on its own
	// knowledge when search returned nothing.
	noEvidenceNote = "No external sources found. Reason from logic and general knowledge."

	// searchFailedNote covers search-provider outages, which are absorbed
	// here and never surfaced to the caller.
	searchFailedNote = "Search provider unavailable. Proceed with logical analysis only."
)

var urlPattern = regexp.MustCompile(`^(http|https|www)`)

// Retriever queries the search provider for supporting documents. It never
// fails: outages degrade to empty evidence with an explanatory note.
type Retriever struct {
	client  tavily.Client
	limiter *rate.Limiter
	retry   resilience.RetryConfig
}

// NewRetriever creates a Retriever. searchRPS throttles outbound search
// calls across concurrent requests; zero or negative means 1 rps.
func NewRetriever(client tavily.Client, searchRPS float64) *Retriever {
	if searchRPS <= 0 {
		searchRPS = 1
	}
	return &Retriever{
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(searchRPS), 1),
		retry:   resilience.DefaultRetryConfig(),
	}
}

// Retrieve searches for documents supporting or refuting the query. The
// result is bounded to 5 items and the call never returns an error: any
// transport failure yields empty evidence plus a sentinel note.
func (r *Retriever) Retrieve(ctx context.Context, query string) model.Evidence {
	if err := r.limiter.Wait(ctx); err != nil {
		return model.Evidence{Note: searchFailedNote}
	}

	resp, err := resilience.DoVal(ctx, r.retry, func(ctx context.Context) (*tavily.SearchResponse, error) {
		return r.client.Search(ctx, tavily.SearchRequest{
			Query:         frameQuery(query),
			SearchDepth:   searchDepth,
			IncludeAnswer: true,
			MaxResults:    maxResults,
		})
	})
	if err != nil {
		zap.L().Warn("evidence: search failed", zap.Error(err))
		return model.Evidence{Note: searchFailedNote}
	}

	if len(resp.Results) == 0 {
		return model.Evidence{Note: noEvidenceNote}
	}

	results := resp.Results
	if len(results) > maxResults {
		results = results[:maxResults]
	}

	items := make([]model.EvidenceItem, 0, len(results))
	for _, res := range results {
		items = append(items, model.EvidenceItem{
			Title:   res.Title,
			Snippet: res.Content,
			URL:     res.URL,
		})
	}

	zap.L().Debug("evidence: retrieved",
		zap.String("query", query),
		zap.Int("results", len(items)),
	)

	return model.Evidence{Items: items}
}

// frameQuery phrases the search differently for links and for claims, and
// appends context terms that bias results toward fact-checking coverage.
func frameQuery(query string) string {
	var framed string
	if urlPattern.MatchString(query) {
		framed = fmt.Sprintf("Verify the veracity of this link: %q", query)
	} else {
		claim := query
		if runes := []rune(claim); len(runes) > maxClaimChars {
			claim = string(runes[:maxClaimChars])
		}
		framed = fmt.Sprintf("Fact-check this claim: %q", claim)
	}
	return framed + " fact check truth hoax"
}

// Transcript flattens evidence into the text block handed to reasoning
// providers: one line per item, or the sentinel note when empty.
func Transcript(ev model.Evidence) string {
	if len(ev.Items) == 0 {
		if ev.Note != "" {
			return ev.Note
		}
		return noEvidenceNote
	}

	var b strings.Builder
	for _, item := range ev.Items {
		fmt.Fprintf(&b, "- %s: %s (%s)\n", item.Title, item.Snippet, item.URL)
	}
	return strings.TrimRight(b.String(), "\n")
}
