// Package parser recovers structured judge scores from free-form model
// output. Generative backends are asked for a single JSON object but return
// whatever they like: fenced markdown, stray bytes before the first brace,
// doubly-escaped newlines, or prose with score fragments buried inside.
// The parser runs a graduated strategy chain and favors a best partial
// answer over a hard failure.
package parser

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/modelarena/arena/internal/models"
)

// Dimensions is the closed set of judge scoring dimensions.
var Dimensions = []string{"personalization", "relevance", "fluency", "coherence", "creativity"}

var (
	fencedJSONRe  = regexp.MustCompile("(?s)```json\\s*(.*?)```")
	braceSpanRe   = regexp.MustCompile(`(?s)\{.*\}`)
	modelHeaderRe = regexp.MustCompile(`"([^"]+)"\s*:\s*\{`)
	scorePairRe   = regexp.MustCompile(`"([^"]+)"\s*:\s*(\d+)`)
)

// ParseJudgeScores extracts per-model judge scores from raw model output.
// It never fails: on total parse failure it returns an empty map.
//
// Strategy chain, each stage a fallback for the previous:
//  1. direct JSON parse of the trimmed input
//  2. candidate extraction (fenced ```json block, else first {...} span)
//  3. aggressive cleanup of the candidate, then re-parse
//  4. regex reconstruction of model headers and known score pairs
func ParseJudgeScores(raw string) map[string]models.JudgeScores {
	// Stage 1: direct parse.
	if scores, ok := tryParse(strings.TrimSpace(raw)); ok {
		return scores
	}

	// Stage 2: locate a candidate span.
	candidate, ok := extractCandidate(raw)
	if !ok {
		return map[string]models.JudgeScores{}
	}
	if scores, ok := tryParse(strings.TrimSpace(candidate)); ok {
		return scores
	}

	// Stage 3: aggressive cleanup.
	if scores, ok := tryParse(cleanCandidate(candidate)); ok {
		return scores
	}

	// Stage 4: last-resort reconstruction from score fragments.
	return reconstruct(candidate)
}

func tryParse(candidate string) (map[string]models.JudgeScores, bool) {
	if candidate == "" {
		return nil, false
	}
	var decoded map[string]json.RawMessage
	if err := json.Unmarshal([]byte(candidate), &decoded); err != nil {
		return nil, false
	}
	return coerceEntries(decoded), true
}

// extractCandidate pulls the JSON-looking span out of surrounding prose.
// A fenced json block wins; otherwise the first greedy {...} span is used.
func extractCandidate(raw string) (string, bool) {
	if m := fencedJSONRe.FindStringSubmatch(raw); m != nil {
		return m[1], true
	}
	if m := braceSpanRe.FindString(raw); m != "" {
		return m, true
	}
	return "", false
}

// cleanCandidate strips leading non-printable bytes, unescapes literal
// escape sequences, and trims any prefix before the first brace.
func cleanCandidate(candidate string) string {
	candidate = strings.TrimLeftFunc(candidate, func(r rune) bool {
		return unicode.IsSpace(r) || !unicode.IsPrint(r)
	})
	candidate = strings.TrimSpace(candidate)
	candidate = unescape(candidate)
	candidate = strings.TrimSpace(candidate)

	if !strings.HasPrefix(candidate, "{") {
		if idx := strings.Index(candidate, "{"); idx >= 0 {
			candidate = candidate[idx:]
		}
	}
	return candidate
}

// unescape converts literal backslash escape sequences into the characters
// they denote, so a doubly-escaped payload ("{\n \"model\": ...") becomes
// parseable JSON. Unknown sequences are kept verbatim.
func unescape(s string) string {
	if !strings.ContainsRune(s, '\\') {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))

	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 >= len(s) {
			b.WriteByte(c)
			continue
		}

		switch s[i+1] {
		case 'n':
			b.WriteByte('\n')
			i++
		case 't':
			b.WriteByte('\t')
			i++
		case 'r':
			b.WriteByte('\r')
			i++
		case '"':
			b.WriteByte('"')
			i++
		case '\'':
			b.WriteByte('\'')
			i++
		case '\\':
			b.WriteByte('\\')
			i++
		case 'u':
			if i+5 < len(s) {
				if code, err := strconv.ParseUint(s[i+2:i+6], 16, 32); err == nil {
					b.WriteRune(rune(code))
					i += 5
					continue
				}
			}
			b.WriteByte(c)
		default:
			b.WriteByte(c)
		}
	}

	return b.String()
}

// reconstruct scans the candidate for `"model": {` headers and, within each
// model's region, for `"dimension": <integer>` pairs restricted to the known
// dimensions. Text matching neither pattern is ignored.
func reconstruct(candidate string) map[string]models.JudgeScores {
	scores := map[string]models.JudgeScores{}

	headers := modelHeaderRe.FindAllStringSubmatchIndex(candidate, -1)
	for i, header := range headers {
		modelID := candidate[header[2]:header[3]]
		if isDimension(modelID) || modelID == "reasons" {
			continue
		}

		regionEnd := len(candidate)
		if i+1 < len(headers) {
			regionEnd = headers[i+1][0]
		}
		region := candidate[header[1]:regionEnd]

		entry := models.JudgeScores{Reasons: map[string]string{}}
		found := false
		for _, pair := range scorePairRe.FindAllStringSubmatch(region, -1) {
			if !isDimension(pair[1]) {
				continue
			}
			value, err := strconv.Atoi(pair[2])
			if err != nil {
				continue
			}
			setDimension(&entry, pair[1], value)
			found = true
		}

		if found {
			scores[modelID] = entry
		}
	}

	return scores
}

// coerceEntries validates each model entry: a non-object entry is skipped,
// every dimension is read with a default of 0 and cast to an integer, and
// reasons defaults to an empty map when absent or malformed.
func coerceEntries(decoded map[string]json.RawMessage) map[string]models.JudgeScores {
	scores := map[string]models.JudgeScores{}

	for modelID, rawEntry := range decoded {
		var entry map[string]any
		if err := json.Unmarshal(rawEntry, &entry); err != nil {
			continue
		}

		result := models.JudgeScores{Reasons: map[string]string{}}
		for _, dim := range Dimensions {
			setDimension(&result, dim, coerceInt(entry[dim]))
		}

		if reasons, ok := entry["reasons"].(map[string]any); ok {
			for dim, reason := range reasons {
				if text, ok := reason.(string); ok {
					result.Reasons[dim] = text
				}
			}
		}

		scores[modelID] = result
	}

	return scores
}

func coerceInt(value any) int {
	switch v := value.(type) {
	case float64:
		return int(v)
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return 0
}

func isDimension(name string) bool {
	for _, dim := range Dimensions {
		if name == dim {
			return true
		}
	}
	return false
}

func setDimension(scores *models.JudgeScores, dim string, value int) {
	switch dim {
	case "personalization":
		scores.Personalization = value
	case "relevance":
		scores.Relevance = value
	case "fluency":
		scores.Fluency = value
	case "coherence":
		scores.Coherence = value
	case "creativity":
		scores.Creativity = value
	}
}
