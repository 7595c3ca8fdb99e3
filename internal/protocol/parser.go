// Package protocol turns raw model response text into a parsed field map
// and a schema compliance result. It never judges plausibility; that is
// the checker graph's job. The raw text stops here: everything
// downstream sees evidence and parsed values only.
package protocol

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gurenolun/fly-eval/internal/config"
	"github.com/gurenolun/fly-eval/internal/domain"
)

// apiErrorMarkers are substrings that identify a transport or provider
// failure masquerading as a response.
var apiErrorMarkers = []string{
	"api error",
	"rate limit",
	"quota exceeded",
	"invalid api key",
	"authentication",
	"timed out",
	"timeout",
	"service unavailable",
	"internal server error",
	"connection refused",
}

// IsAPIError reports whether a raw response looks like an upstream error
// payload rather than a prediction. The screen is intentionally narrow:
// only short responses are considered, so a genuine prediction that
// mentions "timeout" in a string value is not misclassified.
func IsAPIError(raw string) bool {
	trimmed := strings.TrimSpace(raw)
	if len(trimmed) > 500 || strings.Contains(trimmed, "{") {
		return false
	}
	lower := strings.ToLower(trimmed)
	for _, marker := range apiErrorMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// ExtractJSON recovers a JSON object from a response that may wrap it in
// prose or a fenced code block. The ladder is: direct parse, fenced
// ```json block, then the first balanced brace-delimited object.
// Returns the empty string when no candidate object exists.
func ExtractJSON(response string) string {
	response = strings.TrimSpace(response)

	if json.Valid([]byte(response)) && strings.HasPrefix(response, "{") {
		return response
	}

	if idx := strings.Index(response, "```json"); idx != -1 {
		rest := response[idx+len("```json"):]
		if end := strings.Index(rest, "```"); end != -1 {
			candidate := strings.TrimSpace(rest[:end])
			if strings.HasPrefix(candidate, "{") {
				return candidate
			}
		}
	}

	start := strings.Index(response, "{")
	if start == -1 {
		return ""
	}

	// Scan for the matching close brace, ignoring braces inside strings.
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(response); i++ {
		ch := response[i]
		if escaped {
			escaped = false
			continue
		}
		switch ch {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return response[start : i+1]
				}
			}
		}
	}

	return ""
}

// Parse runs the protocol stage for one model output against the field
// schema. It always returns a usable ProtocolResult; parse failures are
// recorded in it, not returned as errors.
func Parse(raw string, cfg *config.Config) domain.ProtocolResult {
	result := domain.ProtocolResult{}

	if strings.TrimSpace(raw) == "" {
		result.ParseError = "empty response"
		return result
	}

	if IsAPIError(raw) {
		result.APIError = true
		result.ParseError = "response is an API error payload"
		return result
	}

	candidate := ExtractJSON(raw)
	if candidate == "" {
		result.ParseError = "no JSON object found in response"
		return result
	}

	var parsed map[string]any
	if err := json.Unmarshal([]byte(candidate), &parsed); err != nil {
		result.ParseError = fmt.Sprintf("invalid JSON: %v", err)
		return result
	}

	result.ParseOK = true
	result.Fields = normalizeFields(parsed)

	present := 0
	for _, field := range cfg.RequiredFields {
		if _, ok := result.Fields[field]; ok {
			present++
		} else {
			result.MissingFields = append(result.MissingFields, field)
		}
	}
	result.Completeness = float64(present) / float64(len(cfg.RequiredFields))
	result.NearMisses = findNearMisses(result.Fields, result.MissingFields)

	return result
}

// normalizeFields collapses JSON value shapes into the forms the
// checkers expect: float64 scalars and []float64 arrays. Values that do
// not normalize keep their decoded form so validity checks can name the
// offending content.
func normalizeFields(parsed map[string]any) map[string]any {
	fields := make(map[string]any, len(parsed))
	for key, value := range parsed {
		switch v := value.(type) {
		case []any:
			series := make([]float64, 0, len(v))
			numeric := true
			for _, elem := range v {
				f, ok := elem.(float64)
				if !ok {
					numeric = false
					break
				}
				series = append(series, f)
			}
			if numeric {
				fields[key] = series
			} else {
				fields[key] = v
			}
		default:
			fields[key] = value
		}
	}
	return fields
}
