package transcription

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// extractText pulls the recognized text out of a backend result. A string
// "text" field wins; any other non-empty structure is returned serialized.
func extractText(raw json.RawMessage) (string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return "", fmt.Errorf("%w: empty result", ErrInference)
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &obj); err == nil {
		if field, ok := obj["text"]; ok {
			var text string
			if err := json.Unmarshal(field, &text); err == nil {
				return text, nil
			}
		}
	}

	var compact bytes.Buffer
	if err := json.Compact(&compact, trimmed); err != nil {
		return "", fmt.Errorf("%w: malformed result: %v", ErrInference, err)
	}
	return compact.String(), nil
}
