package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kozichsergey/SmetaAI/internal/common"
	"github.com/kozichsergey/SmetaAI/internal/core/similarity"
	"github.com/kozichsergey/SmetaAI/internal/entity"
)

// MatchingOracle returns, per input name, the exact candidate it judges equivalent or "".
type MatchingOracle interface {
	MatchBatch(ctx context.Context, names, candidates []string) ([]string, error)
}

// MatchOne returns the catalog entry whose name is most similar to name, or nil.
func MatchOne(name string, catalog []entity.CatalogEntry, threshold float64) *entity.CatalogEntry {
	candidates := make([]similarity.Candidate[int], len(catalog))
	for i := range catalog {
		candidates[i] = similarity.Candidate[int]{Name: catalog[i].Name, Payload: i}
	}
	m, ok := similarity.BestMatch(name, candidates, threshold)
	if !ok {
		return nil
	}
	return &catalog[m.Payload]
}

// MatchStats counts how the slots of one MatchBatch call were filled.
type MatchStats struct {
	Oracle   int
	Fallback int
	Missed   int
}

type Matcher struct {
	oracle    MatchingOracle
	threshold float64
	timeout   time.Duration
	logger    *slog.Logger
	onStats   func(MatchStats)
}

type MatcherOption func(*Matcher)

func WithMatchTimeout(d time.Duration) MatcherOption {
	return func(m *Matcher) {
		if d > 0 {
			m.timeout = d
		}
	}
}

func WithStatsHook(h func(MatchStats)) MatcherOption {
	return func(m *Matcher) { m.onStats = h }
}

// NewMatcher builds a matcher. A nil oracle matches by similarity only.
func NewMatcher(oracle MatchingOracle, threshold float64, logger *slog.Logger, opts ...MatcherOption) *Matcher {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Matcher{
		oracle:    oracle,
		threshold: threshold,
		timeout:   2 * time.Minute,
		logger:    logger,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// MatchBatch returns one slot per name, in order. Slots the oracle leaves empty, or all
// slots when the oracle call fails, are filled by MatchOne independently.
func (m *Matcher) MatchBatch(ctx context.Context, names []string, catalog []entity.CatalogEntry) []*entity.CatalogEntry {
	out := make([]*entity.CatalogEntry, len(names))
	if len(names) == 0 || len(catalog) == 0 {
		return out
	}

	byName := make(map[string]int, len(catalog))
	candidates := make([]string, 0, len(catalog))
	for i := range catalog {
		if _, dup := byName[catalog[i].Name]; !dup {
			byName[catalog[i].Name] = i
			candidates = append(candidates, catalog[i].Name)
		}
	}

	var stats MatchStats
	answers, err := m.askOracle(ctx, names, candidates)
	if err != nil && m.oracle != nil {
		m.logger.Warn("catalog.match.oracle_failed", "names", len(names), "error", err)
	}
	for i, name := range names {
		if i < len(answers) {
			if idx, ok := byName[strings.TrimSpace(answers[i])]; ok {
				out[i] = &catalog[idx]
				stats.Oracle++
				continue
			}
		}
		if e := MatchOne(name, catalog, m.threshold); e != nil {
			out[i] = e
			stats.Fallback++
			continue
		}
		stats.Missed++
	}

	m.logger.Info("catalog.match.done",
		"names", len(names), "oracle", stats.Oracle, "fallback", stats.Fallback, "missed", stats.Missed)
	if m.onStats != nil {
		m.onStats(stats)
	}
	return out
}

func (m *Matcher) askOracle(ctx context.Context, names, candidates []string) ([]string, error) {
	if m.oracle == nil {
		return nil, common.ErrOracleUnavailable
	}
	octx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	answers, err := m.oracle.MatchBatch(octx, names, candidates)
	if err != nil {
		return nil, fmt.Errorf("match batch: %w", err)
	}
	return answers, nil
}
