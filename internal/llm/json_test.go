package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSON(t *testing.T) {
	type verdict struct {
		Answer     string `json:"answer"`
		Confidence int    `json:"confidence"`
	}

	tests := []struct {
		name      string
		raw       string
		want      verdict
		wantError bool
	}{
		{
			name: "bare object",
			raw:  `{"answer": "yes", "confidence": 90}`,
			want: verdict{Answer: "yes", Confidence: 90},
		},
		{
			name: "object wrapped in prose",
			raw:  `Sure! Here is the result: {"answer": "yes", "confidence": 90} Hope that helps.`,
			want: verdict{Answer: "yes", Confidence: 90},
		},
		{
			name: "object in markdown fence",
			raw:  "```json\n{\"answer\": \"yes\", \"confidence\": 90}\n```",
			want: verdict{Answer: "yes", Confidence: 90},
		},
		{
			name: "nested braces survive",
			raw:  `{"answer": "use {braces} carefully", "confidence": 50}`,
			want: verdict{Answer: "use {braces} carefully", Confidence: 50},
		},
		{
			name:      "no object at all",
			raw:       "I cannot answer that.",
			wantError: true,
		},
		{
			name:      "reversed braces",
			raw:       "} nothing here {",
			wantError: true,
		},
		{
			name:      "malformed object",
			raw:       `{"answer": }`,
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got verdict
			err := ExtractJSON(tt.raw, &got)

			if tt.wantError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
