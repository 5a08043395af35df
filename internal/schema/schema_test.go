package schema

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeRelevance(t *testing.T) {
	var out struct {
		Relevant bool    `json:"relevant"`
		Score    float64 `json:"relevance_score"`
	}

	err := Decode(Relevance, []byte(`{"relevant": false, "relevance_score": 0.75, "reason": "close"}`), &out)
	require.NoError(t, err)
	require.False(t, out.Relevant)
	require.Equal(t, 0.75, out.Score)
}

func TestDecodeRejects(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "not json", raw: `I think it is relevant`},
		{name: "missing field", raw: `{"relevant": true}`},
		{name: "score out of range", raw: `{"relevant": true, "relevance_score": 3}`},
		{name: "wrong type", raw: `{"relevant": "yes", "relevance_score": 0.5}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var out map[string]any
			require.Error(t, Decode(Relevance, []byte(tc.raw), &out))
		})
	}
}

func TestDecodeStripsFences(t *testing.T) {
	var out struct {
		Theme string `json:"theme"`
	}
	raw := "```json\n{\"theme\": \"travel\"}\n```"
	require.NoError(t, Decode(Theme, []byte(raw), &out))
	require.Equal(t, "travel", out.Theme)
}

func TestPromptCardBulletBounds(t *testing.T) {
	var out map[string]any
	require.Error(t, Decode(PromptCard, []byte(`{"main_prompt": "Describe a place", "bullet_points": ["a", "b"]}`), &out))
	require.NoError(t, Decode(PromptCard, []byte(`{"main_prompt": "Describe a place", "bullet_points": ["a", "b", "c"]}`), &out))
}

func TestReportRequiresAllCriteria(t *testing.T) {
	var out map[string]any
	raw := `{"scores": {"fluency_coherence": {"score": 6}}}`
	require.Error(t, Decode(Report, []byte(raw), &out))
}
