// Package llmjson cleans up JSON text returned by language models.
package llmjson

import (
	"regexp"
	"strings"
)

var fenceRe = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*(.*?)\\s*```$")

// TrimCodeFence removes a surrounding markdown code block such as ```json ... ```.
// Text without a fence is returned trimmed.
func TrimCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if m := fenceRe.FindStringSubmatch(trimmed); m != nil {
		return strings.TrimSpace(m[1])
	}
	// Unterminated fence.
	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```")
		if nl := strings.IndexByte(trimmed, '\n'); nl >= 0 && !strings.ContainsAny(trimmed[:nl], "{[") {
			trimmed = trimmed[nl+1:]
		}
	}
	return strings.TrimSpace(trimmed)
}

// ExtractFragment strips fencing and any prose around the outermost JSON
// object or array. It returns "" when no JSON delimiter is present.
func ExtractFragment(raw string) string {
	text := TrimCodeFence(raw)
	if text == "" {
		return ""
	}
	start := strings.IndexAny(text, "{[")
	end := strings.LastIndexAny(text, "]}")
	if start < 0 || end < start {
		return ""
	}
	return strings.TrimSpace(text[start : end+1])
}
