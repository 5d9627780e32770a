package reason

import (
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sarasa-labs/sarasa-checker/internal/model"
)

// rawVerdict mirrors the provider JSON before validation. SmokeLevel is kept
// as json.Number so that non-integer values fail validation instead of being
// silently truncated.
type rawVerdict struct {
	Verdict           string      `json:"verdict"`
	SmokeLevel        json.Number `json:"smoke_level"`
	Title             string      `json:"title"`
	Summary           string      `json:"summary"`
	DiplomaticMessage string      `json:"diplomatic_message"`
	Sources           []rawSource `json:"sources"`
}

type rawSource struct {
	Title string `json:"title"`
	URL   string `json:"url"`
	Type  string `json:"type"`
}

// ParseVerdict decodes and validates a provider's JSON output. A missing or
// unknown verdict label, or a smoke level that is not an integer in [0,100],
// is a validation failure: a bad response must advance the chain rather than
// be patched up.
func ParseVerdict(text string) (*model.Verdict, error) {
	cleaned := cleanJSON(text)

	var raw rawVerdict
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		return nil, eris.Wrap(err, "reason: unmarshal verdict")
	}

	label := model.VerdictLabel(strings.ToUpper(strings.TrimSpace(raw.Verdict)))
	if !model.ValidLabel(label) {
		return nil, eris.Errorf("reason: invalid verdict label %q", raw.Verdict)
	}

	if raw.SmokeLevel == "" {
		return nil, eris.New("reason: missing smoke_level")
	}
	smoke, err := raw.SmokeLevel.Int64()
	if err != nil {
		return nil, eris.Wrapf(err, "reason: non-integer smoke_level %q", raw.SmokeLevel.String())
	}
	if smoke < 0 || smoke > 100 {
		return nil, eris.Errorf("reason: smoke_level %d out of range", smoke)
	}

	v := &model.Verdict{
		Verdict:           label,
		SmokeLevel:        int(smoke),
		Title:             raw.Title,
		Summary:           raw.Summary,
		DiplomaticMessage: raw.DiplomaticMessage,
	}

	for _, s := range raw.Sources {
		st := model.SourceType(strings.ToUpper(strings.TrimSpace(s.Type)))
		switch st {
		case model.SourceOfficial, model.SourceOutlet, model.SourceSocial, model.SourceDubious:
		default:
			st = "" // unknown tiers are dropped, not guessed
		}
		v.Sources = append(v.Sources, model.Source{
			Title: s.Title,
			URL:   s.URL,
			Type:  st,
		})
	}

	return v, nil
}

// cleanJSON strips markdown code fences and any prose around the outermost
// JSON object. Providers asked for strict JSON still wrap it occasionally.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}

	return strings.TrimSpace(text)
}
