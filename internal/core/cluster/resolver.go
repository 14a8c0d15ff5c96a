// Package cluster resolves a bucket of line items into clusters of the same real-world item.
package cluster

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/kozichsergey/SmetaAI/internal/common"
	"github.com/kozichsergey/SmetaAI/internal/entity"
)

// GroupingOracle proposes clusters for a numbered list of item names ("1. name").
type GroupingOracle interface {
	Group(ctx context.Context, numberedNames []string) (string, error)
}

// FallbackHook observes every bucket that fell back to singleton clusters.
type FallbackHook func(bucket string, reason error)

type Resolver struct {
	oracle     GroupingOracle
	parsers    []ResponseParser
	timeout    time.Duration
	logger     *slog.Logger
	onFallback FallbackHook
}

type Option func(*Resolver)

func WithParsers(p ...ResponseParser) Option {
	return func(r *Resolver) {
		if len(p) > 0 {
			r.parsers = p
		}
	}
}

func WithOracleTimeout(d time.Duration) Option {
	return func(r *Resolver) {
		if d > 0 {
			r.timeout = d
		}
	}
}

func WithFallbackHook(h FallbackHook) Option {
	return func(r *Resolver) { r.onFallback = h }
}

// NewResolver builds a resolver. A nil oracle always takes the singleton path.
func NewResolver(oracle GroupingOracle, logger *slog.Logger, opts ...Option) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Resolver{
		oracle:  oracle,
		parsers: DefaultParsers(),
		timeout: 2 * time.Minute,
		logger:  logger,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Resolve clusters the items of one bucket. Every input item ends up in exactly one cluster,
// except oracle references that match no source item, which are dropped.
func (r *Resolver) Resolve(ctx context.Context, bucket string, items []entity.LineItem) []entity.Cluster {
	if len(items) <= 1 {
		return Singletons(bucket, items)
	}
	if r.oracle == nil {
		return r.fallback(bucket, items, common.ErrOracleUnavailable)
	}

	start := time.Now()
	octx, cancel := context.WithTimeout(ctx, r.timeout)
	text, err := r.oracle.Group(octx, NumberedNames(items))
	cancel()
	if err != nil {
		return r.fallback(bucket, items, err)
	}

	parsed, parser, err := r.parse(text)
	if err != nil {
		return r.fallback(bucket, items, err)
	}

	clusters, unreferenced := Assign(bucket, items, parsed)
	if len(clusters) == 0 {
		return r.fallback(bucket, items, fmt.Errorf("%w: %w", common.ErrOracleMalformedResponse, ErrNoClusters))
	}
	if len(unreferenced) > 0 {
		r.logger.Warn("cluster.resolve.unreferenced",
			"bucket", bucket, "count", len(unreferenced))
		clusters = append(clusters, Singletons(bucket, unreferenced)...)
	}

	r.logger.Info("cluster.resolve.done",
		"bucket", bucket,
		"items", len(items),
		"clusters", len(clusters),
		"parser", parser,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return clusters
}

func (r *Resolver) parse(text string) ([]ParsedCluster, string, error) {
	var errs []error
	for _, p := range r.parsers {
		out, err := p.Parse(text)
		if err == nil {
			return out, p.Name(), nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
	}
	if len(errs) == 0 {
		return nil, "", fmt.Errorf("%w: no parsers configured", common.ErrOracleMalformedResponse)
	}
	return nil, "", errors.Join(errs...)
}

func (r *Resolver) fallback(bucket string, items []entity.LineItem, reason error) []entity.Cluster {
	r.logger.Warn("cluster.resolve.fallback",
		"bucket", bucket, "items", len(items), "error", reason)
	if r.onFallback != nil {
		r.onFallback(bucket, reason)
	}
	return Singletons(bucket, items)
}

// Singletons puts every item in its own cluster labeled "{bucket}: {name}".
func Singletons(bucket string, items []entity.LineItem) []entity.Cluster {
	out := make([]entity.Cluster, 0, len(items))
	for _, it := range items {
		out = append(out, entity.Cluster{
			Label:   Label(bucket, it.Name),
			Members: []entity.LineItem{it},
		})
	}
	return out
}

// Label namespaces a cluster label by bucket.
func Label(bucket, label string) string {
	return bucket + ": " + label
}

// NumberedNames renders items as the "N. name" list sent to the oracle.
func NumberedNames(items []entity.LineItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = fmt.Sprintf("%d. %s", i+1, it.Name)
	}
	return out
}

// Assign matches parsed references back to items. A reference claims the item at its
// position when the names agree, otherwise the first unclaimed item with an equal name.
// Each item is claimed at most once; clusters left empty are dropped.
func Assign(bucket string, items []entity.LineItem, parsed []ParsedCluster) (clusters []entity.Cluster, unreferenced []entity.LineItem) {
	claimed := make([]bool, len(items))

	claim := func(ref Ref) int {
		if p := ref.Position - 1; p >= 0 && p < len(items) && !claimed[p] &&
			(ref.Name == "" || items[p].Name == ref.Name) {
			return p
		}
		if ref.Name == "" {
			return -1
		}
		for i, it := range items {
			if !claimed[i] && it.Name == ref.Name {
				return i
			}
		}
		return -1
	}

	for _, pc := range parsed {
		var members []entity.LineItem
		for _, ref := range pc.Refs {
			idx := claim(ref)
			if idx < 0 {
				continue
			}
			claimed[idx] = true
			members = append(members, items[idx])
		}
		if len(members) == 0 {
			continue
		}
		label := pc.Label
		if label == "" {
			label = members[0].Name
		}
		clusters = append(clusters, entity.Cluster{Label: Label(bucket, label), Members: members})
	}

	for i, it := range items {
		if !claimed[i] {
			unreferenced = append(unreferenced, it)
		}
	}
	return clusters, unreferenced
}
