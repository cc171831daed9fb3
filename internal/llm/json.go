package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ExtractJSON unmarshals the JSON object embedded in raw model output
// into v. Models routinely wrap JSON in prose or markdown fences, so the
// object is located by the first '{' and the last '}' rather than
// parsed from position zero.
func ExtractJSON(raw string, v interface{}) error {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end == -1 || end < start {
		return fmt.Errorf("no JSON object found in model output")
	}

	if err := json.Unmarshal([]byte(raw[start:end+1]), v); err != nil {
		return fmt.Errorf("failed to parse model JSON: %w", err)
	}

	return nil
}
