// Package catalog folds clusters into catalog entries and matches new item names against them.
package catalog

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/kozichsergey/SmetaAI/internal/core/pricing"
	"github.com/kozichsergey/SmetaAI/internal/entity"
)

// Builder turns resolved clusters into catalog entries.
type Builder struct {
	threshold float64
	now       func() time.Time
	newID     func() uuid.UUID
}

type BuilderOption func(*Builder)

// WithClock overrides the build timestamp source.
func WithClock(now func() time.Time) BuilderOption {
	return func(b *Builder) {
		if now != nil {
			b.now = now
		}
	}
}

// WithIDGenerator overrides how entry IDs are minted.
func WithIDGenerator(gen func() uuid.UUID) BuilderOption {
	return func(b *Builder) {
		if gen != nil {
			b.newID = gen
		}
	}
}

func NewBuilder(varianceThreshold float64, opts ...BuilderOption) *Builder {
	b := &Builder{
		threshold: varianceThreshold,
		now:       time.Now,
		newID:     uuid.New,
	}
	for _, o := range opts {
		o(b)
	}
	return b
}

// Build produces one entry per non-empty cluster, in input order.
func (b *Builder) Build(clusters []entity.Cluster) []entity.CatalogEntry {
	ts := b.now().UTC()
	out := make([]entity.CatalogEntry, 0, len(clusters))
	for _, c := range clusters {
		if len(c.Members) == 0 {
			continue
		}
		out = append(out, b.entry(c.Members, ts))
	}
	return out
}

func (b *Builder) entry(members []entity.LineItem, ts time.Time) entity.CatalogEntry {
	base := members[0]

	material := make([]float64, 0, len(members))
	work := make([]float64, 0, len(members))
	for _, m := range members {
		material = append(material, m.MaterialPrice)
		work = append(work, m.WorkPrice)
	}

	e := entity.CatalogEntry{
		ID:          b.newID(),
		Name:        base.Name,
		Unit:        base.Unit,
		ClusterSize: len(members),
		SourceFiles: sourceFiles(members),
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}
	e.MaterialPrice, e.MaterialAnalysis = b.aggregate(material, pricing.KindMaterial)
	e.WorkPrice, e.WorkAnalysis = b.aggregate(work, pricing.KindWork)
	return e
}

// aggregate keeps the analysis only when at least one positive price was observed.
func (b *Builder) aggregate(prices []float64, kind string) (float64, *entity.PriceAggregationResult) {
	positive := pricing.PositivePrices(prices)
	res := pricing.Aggregate(positive, kind, b.threshold)
	if len(positive) == 0 {
		return res.FinalPrice, nil
	}
	return res.FinalPrice, &res
}

func sourceFiles(members []entity.LineItem) []string {
	seen := make(map[string]struct{}, len(members))
	out := make([]string, 0, len(members))
	for _, m := range members {
		if _, ok := seen[m.SourceFile]; ok {
			continue
		}
		seen[m.SourceFile] = struct{}{}
		out = append(out, m.SourceFile)
	}
	sort.Strings(out)
	return out
}
