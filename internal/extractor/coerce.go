package extractor

import (
	"encoding/json"
	"fmt"
	"strings"
)

// contentToString normalizes a message content value, which the service
// may return as a plain string or as a list of text blocks.
func contentToString(raw json.RawMessage) string {
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return text
	}

	var blocks []json.RawMessage
	if err := json.Unmarshal(raw, &blocks); err == nil {
		var builder strings.Builder
		for _, block := range blocks {
			var blockText string
			if err := json.Unmarshal(block, &blockText); err == nil {
				builder.WriteString(blockText)
				continue
			}
			var typed struct {
				Text string `json:"text"`
			}
			if err := json.Unmarshal(block, &typed); err == nil {
				builder.WriteString(typed.Text)
			}
		}
		return builder.String()
	}

	return string(raw)
}

// coerceJSON robustly extracts a JSON object from model text, handling
// fenced code blocks and extraneous prose around the payload.
func coerceJSON(raw string) (json.RawMessage, error) {
	text := strings.TrimSpace(raw)

	if strings.HasPrefix(text, "```") {
		text = strings.Trim(text, "`")
		text = strings.TrimSpace(text)
		if strings.HasPrefix(strings.ToLower(text), "json") {
			text = strings.TrimSpace(text[4:])
		}
	}

	if json.Valid([]byte(text)) {
		return json.RawMessage(text), nil
	}

	// Fall back to the outermost matching brace pair.
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start != -1 && end > start {
		candidate := text[start : end+1]
		if json.Valid([]byte(candidate)) {
			return json.RawMessage(candidate), nil
		}
	}

	return nil, fmt.Errorf("content is not valid JSON")
}
