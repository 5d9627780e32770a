package model

// VerdictLabel is the top-level classification of a checked claim or link.
type VerdictLabel string

const (
	VerdictTrue      VerdictLabel = "TRUE"
	VerdictFalse     VerdictLabel = "FALSE"
	VerdictUncertain VerdictLabel = "UNCERTAIN"
	VerdictSatire    VerdictLabel = "SATIRE"
)

// ValidLabel reports whether l is one of the four accepted verdict labels.
func ValidLabel(l VerdictLabel) bool {
	switch l {
	case VerdictTrue, VerdictFalse, VerdictUncertain, VerdictSatire:
		return true
	}
	return false
}

// SourceType classifies the credibility tier of a cited source.
type SourceType string

const (
	SourceOfficial SourceType = "OFFICIAL" // government sites, international bodies, primary sources
	SourceOutlet   SourceType = "OUTLET"   // recognized news outlets and wire agencies
	SourceSocial   SourceType = "SOCIAL"   // social networks, personal blogs, forums
	SourceDubious  SourceType = "DUBIOUS"  // known fake-news sites, unattributed sources
)

// Source is a single citation backing a verdict.
type Source struct {
	Title string     `json:"title"`
	URL   string     `json:"url"`
	Type  SourceType `json:"type,omitempty"`
}

// Verdict is the structured result returned to the caller. It is immutable
// once produced: cache hits return the stored object verbatim.
type Verdict struct {
	Verdict           VerdictLabel `json:"verdict"`
	SmokeLevel        int          `json:"smoke_level"`
	Title             string       `json:"title"`
	Summary           string       `json:"summary"`
	DiplomaticMessage string       `json:"diplomatic_message"`
	Sources           []Source     `json:"sources"`
}
