package model

// EvidenceItem is one search result used as grounding context for reasoning.
type EvidenceItem struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	URL     string `json:"url"`
}

// Evidence is the bounded, ordered set of search results retrieved for a
// single cache-miss request, plus an optional note when retrieval failed.
type Evidence struct {
	Items []EvidenceItem `json:"items"`
	Note  string         `json:"note,omitempty"`
}

// Sources converts the evidence items into citation sources, used to backfill
// a verdict whose provider omitted its own source list.
func (e Evidence) Sources() []Source {
	sources := make([]Source, 0, len(e.Items))
	for _, item := range e.Items {
		sources = append(sources, Source{
			Title: item.Title,
			URL:   item.URL,
		})
	}
	return sources
}
