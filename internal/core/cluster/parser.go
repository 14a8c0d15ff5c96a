package cluster

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/kozichsergey/SmetaAI/internal/common"
)

// Ref points at a source item, by name, by 1-based position, or both.
type Ref struct {
	Name     string
	Position int
}

// ParsedCluster is one cluster as the oracle described it, before matching refs to items.
type ParsedCluster struct {
	Label string
	Refs  []Ref
}

// ResponseParser turns grouping oracle text into clusters.
type ResponseParser interface {
	Name() string
	Parse(text string) ([]ParsedCluster, error)
}

// DefaultParsers is the order responses are tried in.
func DefaultParsers() []ResponseParser {
	return []ResponseParser{JSONParser{}, LegacyParser{}}
}

// ErrNoClusters is returned by parsers that recognised nothing in the response.
var ErrNoClusters = errors.New("no clusters in response")

// JSONParser reads an object of canonical name -> list of original names.
// Key order is preserved.
type JSONParser struct{}

func (JSONParser) Name() string { return "json" }

func (JSONParser) Parse(text string) ([]ParsedCluster, error) {
	body := stripFences(text)
	start := strings.IndexByte(body, '{')
	end := strings.LastIndexByte(body, '}')
	if start < 0 || end <= start {
		return nil, fmt.Errorf("%w: no json object", common.ErrOracleMalformedResponse)
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(body[start : end+1])))
	dec.UseNumber()
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrOracleMalformedResponse, err)
	}

	var out []ParsedCluster
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", common.ErrOracleMalformedResponse, err)
		}
		label, _ := tok.(string)

		var raw any
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("%w: cluster %q: %v", common.ErrOracleMalformedResponse, label, err)
		}
		refs, err := jsonRefs(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: cluster %q: %v", common.ErrOracleMalformedResponse, label, err)
		}
		out = append(out, ParsedCluster{Label: strings.TrimSpace(label), Refs: refs})
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrOracleMalformedResponse, err)
	}
	return out, nil
}

func jsonRefs(v any) ([]Ref, error) {
	switch t := v.(type) {
	case string:
		return []Ref{parseNameRef(t)}, nil
	case json.Number:
		n, err := strconv.Atoi(t.String())
		if err != nil {
			return nil, err
		}
		return []Ref{{Position: n}}, nil
	case []any:
		refs := make([]Ref, 0, len(t))
		for _, el := range t {
			r, err := jsonRefs(el)
			if err != nil {
				return nil, err
			}
			refs = append(refs, r...)
		}
		return refs, nil
	default:
		return nil, fmt.Errorf("unexpected value of type %T", v)
	}
}

// parseNameRef strips a leading "N. " ordinal and keeps it as a position hint.
func parseNameRef(s string) Ref {
	s = strings.TrimSpace(s)
	num, rest, ok := strings.Cut(s, ". ")
	if ok && isDigits(num) {
		pos, _ := strconv.Atoi(num)
		return Ref{Name: rest, Position: pos}
	}
	return Ref{Name: s}
}

// LegacyParser reads "**Cluster N: label**" headers followed by "- N. name" bullets.
// Bullets reference items by position only.
type LegacyParser struct{}

func (LegacyParser) Name() string { return "legacy" }

func (LegacyParser) Parse(text string) ([]ParsedCluster, error) {
	var out []ParsedCluster
	current := -1
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "**") && isClusterHeader(line) {
			out = append(out, ParsedCluster{Label: strings.TrimSpace(strings.Trim(line, "*"))})
			current = len(out) - 1
			continue
		}
		if current < 0 || !isBullet(line) {
			continue
		}
		num, _, ok := strings.Cut(line, ".")
		if !ok {
			continue
		}
		num = strings.TrimSpace(strings.TrimLeft(num, "-•* "))
		if !isDigits(num) {
			continue
		}
		pos, err := strconv.Atoi(num)
		if err != nil {
			continue
		}
		out[current].Refs = append(out[current].Refs, Ref{Position: pos})
	}

	kept := out[:0]
	for _, c := range out {
		if len(c.Refs) > 0 {
			kept = append(kept, c)
		}
	}
	if len(kept) == 0 {
		return nil, fmt.Errorf("%w: %w", common.ErrOracleMalformedResponse, ErrNoClusters)
	}
	return kept, nil
}

func isClusterHeader(line string) bool {
	l := strings.ToLower(line)
	return strings.Contains(l, "кластер") || strings.Contains(l, "cluster")
}

func isBullet(line string) bool {
	return strings.HasPrefix(line, "-") || strings.HasPrefix(line, "*") || strings.HasPrefix(line, "•")
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	return strings.TrimSuffix(strings.TrimSpace(s), "```")
}
