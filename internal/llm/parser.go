package llm

import (
	"encoding/json"
	"regexp"
	"strings"
)

// answer is the JSON object the model is asked to produce.
type answer struct {
	Confidence *float64        `json:"confidence"`
	Category   string          `json:"category"`
	Rationale  json.RawMessage `json:"rationale"`
	Attributes map[string]any  `json:"attributes"`
}

// parsedResponse is a classification extracted from model output, with the
// confidence clamped into [0,1].
type parsedResponse struct {
	Attributes map[string]any
	Category   string
	Rationale  []string
	Confidence float64
}

var fencedBlockPattern = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")

// parseResponse extracts a classification from raw model text. It tolerates
// fenced code-block JSON, bare JSON embedded in prose, and rationale given as
// either a string or a list. The second return is false when nothing usable
// was found; callers degrade to the default category rather than erroring.
func parseResponse(text string) (parsedResponse, bool) {
	for _, candidate := range jsonCandidates(text) {
		var a answer
		if err := json.Unmarshal([]byte(candidate), &a); err != nil {
			continue
		}
		if a.Category == "" {
			continue
		}
		return parsedResponse{
			Category:   strings.TrimSpace(a.Category),
			Confidence: clampConfidence(a.Confidence),
			Rationale:  coerceRationale(a.Rationale),
			Attributes: a.Attributes,
		}, true
	}
	return parsedResponse{}, false
}

// jsonCandidates yields substrings of text that look like JSON objects,
// fenced blocks first, then every balanced top-level brace group.
func jsonCandidates(text string) []string {
	var candidates []string

	for _, m := range fencedBlockPattern.FindAllStringSubmatch(text, -1) {
		candidates = append(candidates, m[1])
	}

	depth := 0
	start := -1
	inString := false
	escaped := false
	for i, r := range text {
		if escaped {
			escaped = false
			continue
		}
		switch r {
		case '\\':
			escaped = inString
		case '"':
			inString = !inString
		case '{':
			if !inString {
				if depth == 0 {
					start = i
				}
				depth++
			}
		case '}':
			if !inString && depth > 0 {
				depth--
				if depth == 0 && start >= 0 {
					candidates = append(candidates, text[start:i+1])
					start = -1
				}
			}
		}
	}

	return candidates
}

// defaultConfidence stands in when the model omits a confidence value.
const defaultConfidence = 0.5

func clampConfidence(conf *float64) float64 {
	if conf == nil {
		return defaultConfidence
	}
	if *conf < 0 {
		return 0
	}
	if *conf > 1 {
		// Models sometimes answer in percent.
		if *conf <= 100 {
			return *conf / 100
		}
		return 1
	}
	return *conf
}

// coerceRationale accepts either a JSON string or a list of strings.
func coerceRationale(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list
	}
	var single string
	if err := json.Unmarshal(raw, &single); err == nil && single != "" {
		return []string{single}
	}
	return nil
}
