package llmclient

import (
	"encoding/json"
	"regexp"
	"strings"
)

// ParseResult classifies how much of an LLM response could be trusted:
// every response is treated as potentially malformed, never assumed to
// be clean JSON.
type ParseResult int

const (
	// Empty means no usable JSON could be recovered from the response.
	Empty ParseResult = iota
	// Partial means JSON was recovered via the fenced-code-block fallback
	// after the permissive first pass failed.
	Partial
	// Ok means the permissive first pass found a JSON value in the raw
	// response (surrounding prose allowed) that parsed.
	Ok
)

var fencedBlockRe = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")
var firstJSONValueRe = regexp.MustCompile(`(?s)[\{\[].*[\}\]]`)

// ExtractJSON runs a tolerant parse policy over raw: first a permissive
// "find any JSON in this string" pass over the raw text; failing that,
// strip code-fence wrappers and retry a strict parse; failing that,
// report Empty. out must be a pointer, as for json.Unmarshal.
func ExtractJSON(raw string, out any) ParseResult {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Empty
	}

	if candidate := firstJSONValueRe.FindString(trimmed); candidate != "" {
		if json.Unmarshal([]byte(candidate), out) == nil {
			return Ok
		}
	}

	if m := fencedBlockRe.FindStringSubmatch(trimmed); len(m) == 2 {
		if json.Unmarshal([]byte(m[1]), out) == nil {
			return Partial
		}
		if candidate := firstJSONValueRe.FindString(m[1]); candidate != "" {
			if json.Unmarshal([]byte(candidate), out) == nil {
				return Partial
			}
		}
	}

	return Empty
}
