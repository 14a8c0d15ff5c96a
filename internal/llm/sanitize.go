package llm

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/kozichsergey/SmetaAI/internal/common"
)

// StripCodeFences removes a surrounding ```lang ... ``` block if present.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
}

// ExtractJSONArray returns the text between the first '[' and the last ']'.
func ExtractJSONArray(text string) ([]byte, error) {
	body := StripCodeFences(text)
	start := strings.IndexByte(body, '[')
	end := strings.LastIndexByte(body, ']')
	if start < 0 || end <= start {
		return nil, fmt.Errorf("%w: no json array bounds", common.ErrOracleMalformedResponse)
	}
	return []byte(body[start : end+1]), nil
}

var recordKeys = map[string]struct{}{
	"name": {}, "unit": {}, "material_price": {}, "work_price": {},
}

// NormalizeExtractedRecords
// - Drops non-object elements and records without a name
// - Removes quantity and any other unknown keys
// - Coerces prices given as strings ("1 200,50 руб.") or null into numbers
// - Maps a null unit to ""
func NormalizeExtractedRecords(raw []byte, logger *slog.Logger) ([]byte, []string, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var arr []any
	if err := json.Unmarshal(raw, &arr); err != nil {
		return nil, nil, fmt.Errorf("%w: decode: %v", common.ErrOracleMalformedResponse, err)
	}

	out := make([]map[string]any, 0, len(arr))
	var dropped []string
	for i, el := range arr {
		m, ok := el.(map[string]any)
		if !ok {
			dropped = append(dropped, fmt.Sprintf("#%d(not object)", i))
			continue
		}
		for k := range m {
			if _, ok := recordKeys[k]; !ok {
				delete(m, k)
				if k != "quantity" {
					dropped = append(dropped, fmt.Sprintf("#%d.%s(unknown)", i, k))
				}
			}
		}

		name, _ := m["name"].(string)
		name = strings.TrimSpace(name)
		if name == "" {
			dropped = append(dropped, fmt.Sprintf("#%d(no name)", i))
			continue
		}
		m["name"] = name

		switch u := m["unit"].(type) {
		case string:
			m["unit"] = strings.TrimSpace(u)
		default:
			m["unit"] = ""
		}

		for _, k := range []string{"material_price", "work_price"} {
			p, ok := CoercePrice(m[k])
			if !ok {
				dropped = append(dropped, fmt.Sprintf("#%d.%s(unparseable)", i, k))
			}
			m[k] = p
		}
		out = append(out, m)
	}

	b, err := json.Marshal(out)
	if err != nil {
		return nil, dropped, fmt.Errorf("sanitize: encode: %w", err)
	}
	if len(dropped) > 0 {
		logger.Warn("llm.extract.normalize_sanitize", "dropped", dropped)
	}
	return b, dropped, nil
}

// CoercePrice turns a JSON price value into a non-negative number. ok is false when a
// non-empty value could not be read; the price is then 0.
func CoercePrice(v any) (float64, bool) {
	switch t := v.(type) {
	case nil:
		return 0, true
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) || t < 0 {
			return 0, false
		}
		return t, true
	case string:
		return ParsePriceString(t)
	default:
		return 0, false
	}
}

// ParsePriceString reads prices written the way estimates write them: spaces as thousands
// separators, a comma as decimal mark, currency suffixes.
func ParsePriceString(s string) (float64, bool) {
	var b strings.Builder
	for _, r := range strings.TrimSpace(s) {
		switch {
		case r >= '0' && r <= '9', r == '.':
			b.WriteRune(r)
		case r == ',':
			b.WriteRune('.')
		}
	}
	clean := strings.Trim(b.String(), ".")
	if n := strings.Count(clean, "."); n > 1 {
		clean = strings.Replace(clean, ".", "", n-1)
	}
	if clean == "" {
		return 0, strings.TrimSpace(s) == ""
	}
	f, err := strconv.ParseFloat(clean, 64)
	if err != nil || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// NormalizeMatches accepts a bare array or {"matches": [...]} and returns the array as JSON.
func NormalizeMatches(text string) ([]byte, error) {
	body := StripCodeFences(text)
	trimmed := strings.TrimSpace(body)
	if strings.HasPrefix(trimmed, "{") {
		var wrapped struct {
			Matches json.RawMessage `json:"matches"`
		}
		if err := json.Unmarshal([]byte(trimmed), &wrapped); err != nil {
			return nil, fmt.Errorf("%w: decode: %v", common.ErrOracleMalformedResponse, err)
		}
		if len(wrapped.Matches) == 0 {
			return nil, fmt.Errorf("%w: missing matches", common.ErrOracleMalformedResponse)
		}
		return wrapped.Matches, nil
	}
	return ExtractJSONArray(body)
}
