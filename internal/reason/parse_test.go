package reason

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sarasa-labs/sarasa-checker/internal/model"
)

const validVerdictJSON = `{
	"verdict": "FALSE",
	"smoke_level": 85,
	"title": "Pure smoke, nothing else",
	"summary": "No outlet reported this. The supposed decree does not exist.",
	"diplomatic_message": "Hey, checked this one and it does not hold up, maybe wait before sharing.",
	"sources": [
		{"title": "Reuters", "url": "https://reuters.com/a", "type": "OUTLET"},
		{"title": "Official Gazette", "url": "https://gov.example/b", "type": "OFFICIAL"}
	]
}`

func TestParseVerdict(t *testing.T) {
	v, err := ParseVerdict(validVerdictJSON)
	require.NoError(t, err)

	assert.Equal(t, model.VerdictFalse, v.Verdict)
	assert.Equal(t, 85, v.SmokeLevel)
	assert.Equal(t, "Pure smoke, nothing else", v.Title)
	require.Len(t, v.Sources, 2)
	assert.Equal(t, model.SourceOutlet, v.Sources[0].Type)
	assert.Equal(t, model.SourceOfficial, v.Sources[1].Type)
}

func TestParseVerdictFencedJSON(t *testing.T) {
	fenced := "```json\n" + validVerdictJSON + "\n```"
	v, err := ParseVerdict(fenced)
	require.NoError(t, err)
	assert.Equal(t, model.VerdictFalse, v.Verdict)
}

func TestParseVerdictSurroundingProse(t *testing.T) {
	wrapped := "Here is the report you asked for:\n" + validVerdictJSON + "\nLet me know if you need more."
	v, err := ParseVerdict(wrapped)
	require.NoError(t, err)
	assert.Equal(t, 85, v.SmokeLevel)
}

func TestParseVerdictLowercaseLabelAccepted(t *testing.T) {
	v, err := ParseVerdict(`{"verdict": "true", "smoke_level": 10, "title": "t", "summary": "s", "diplomatic_message": "d"}`)
	require.NoError(t, err)
	assert.Equal(t, model.VerdictTrue, v.Verdict)
}

func TestParseVerdictRejections(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		wantErr string
	}{
		{
			name:    "not_json",
			text:    "I cannot produce JSON today.",
			wantErr: "unmarshal verdict",
		},
		{
			name:    "missing_verdict",
			text:    `{"smoke_level": 50, "title": "t"}`,
			wantErr: "invalid verdict label",
		},
		{
			name:    "unknown_label",
			text:    `{"verdict": "MAYBE", "smoke_level": 50}`,
			wantErr: "invalid verdict label",
		},
		{
			name:    "missing_smoke_level",
			text:    `{"verdict": "TRUE", "title": "t"}`,
			wantErr: "missing smoke_level",
		},
		{
			name:    "fractional_smoke_level",
			text:    `{"verdict": "TRUE", "smoke_level": 42.5}`,
			wantErr: "non-integer smoke_level",
		},
		{
			name:    "string_smoke_level",
			text:    `{"verdict": "TRUE", "smoke_level": "high"}`,
			wantErr: "unmarshal verdict",
		},
		{
			name:    "smoke_level_above_range",
			text:    `{"verdict": "TRUE", "smoke_level": 101}`,
			wantErr: "out of range",
		},
		{
			name:    "smoke_level_below_range",
			text:    `{"verdict": "TRUE", "smoke_level": -1}`,
			wantErr: "out of range",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseVerdict(tt.text)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParseVerdictBoundarySmokeLevels(t *testing.T) {
	for _, level := range []string{"0", "100"} {
		_, err := ParseVerdict(`{"verdict": "UNCERTAIN", "smoke_level": ` + level + `}`)
		assert.NoError(t, err, "smoke_level %s", level)
	}
}

func TestParseVerdictUnknownSourceTypeDropped(t *testing.T) {
	v, err := ParseVerdict(`{
		"verdict": "TRUE", "smoke_level": 5,
		"sources": [{"title": "Blog", "url": "https://blog.example", "type": "PREMIUM"}]
	}`)
	require.NoError(t, err)
	require.Len(t, v.Sources, 1)
	assert.Empty(t, v.Sources[0].Type)
}

func TestCleanJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `{"a":1}`, `{"a":1}`},
		{"json_fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare_fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"prose_around", "Sure!\n{\"a\":1}\nDone.", `{"a":1}`},
		{"whitespace", "  {\"a\":1}  ", `{"a":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cleanJSON(tt.in))
		})
	}
}
