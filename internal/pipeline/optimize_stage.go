package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kozichsergey/SmetaAI/constants"
	"github.com/kozichsergey/SmetaAI/internal/core/grouping"
	"github.com/kozichsergey/SmetaAI/internal/entity"
	"github.com/kozichsergey/SmetaAI/internal/progress"
)

// Optimize rebuilds the catalog from the raw document: group, resolve clusters per
// bucket, aggregate prices and save the whole catalog at once.
func (p *Pipeline) Optimize(ctx context.Context, sink progress.Sink) error {
	start := time.Now()
	sink.Start(ctx, constants.TaskOptimize, "Loading raw data")

	doc, err := p.deps.Raw.Load(ctx)
	if err != nil {
		return fail(ctx, sink, err, "Failed to load raw data")
	}
	if len(doc.Records) == 0 {
		return fail(ctx, sink, errNoData("no data to optimize"), "Nothing to optimize")
	}
	sink.Update(ctx, 10, fmt.Sprintf("Loaded %d records", len(doc.Records)))

	groups := grouping.Group(doc.Records)
	sink.Update(ctx, 30, fmt.Sprintf("Grouped %d records into %d buckets", groups.Total(), len(groups)))

	clusters, err := p.resolveBuckets(ctx, groups, sink)
	if err != nil {
		return fail(ctx, sink, err, "optimization stopped before the catalog was saved")
	}
	sink.Update(ctx, 70, fmt.Sprintf("Resolved %d clusters", len(clusters)))

	entries := p.deps.Builder.Build(clusters)
	sink.Update(ctx, 90, fmt.Sprintf("Built %d catalog entries", len(entries)))

	if err := ctx.Err(); err != nil {
		return fail(ctx, sink, err, "optimization stopped before the catalog was saved")
	}
	if err := p.deps.Catalog.Save(ctx, entries); err != nil {
		return fail(ctx, sink, err, "Failed to save catalog")
	}

	p.logger.Info("optimize.done",
		"records", len(doc.Records),
		"clusters", len(clusters),
		"entries", len(entries),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	sink.Complete(ctx, fmt.Sprintf("Created %d catalog entries from %d records", len(entries), len(doc.Records)))
	return nil
}

// resolveBuckets resolves every bucket with at most cfg.Concurrency in flight. Results land
// in per-bucket slots so the output order follows bucket priority regardless of timing.
func (p *Pipeline) resolveBuckets(ctx context.Context, groups grouping.Groups, sink progress.Sink) ([]entity.Cluster, error) {
	slots := make([][]entity.Cluster, len(groups))

	var mu sync.Mutex
	done := 0

	var g errgroup.Group
	g.SetLimit(p.cfg.Concurrency)
	for i, bucket := range groups {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			slots[i] = p.deps.Resolver.Resolve(ctx, string(bucket.Bucket), bucket.Items)
			p.logger.Info("optimize.bucket.resolved",
				"bucket", bucket.Bucket,
				"items", len(bucket.Items),
				"clusters", len(slots[i]),
			)

			mu.Lock()
			done++
			sink.Update(ctx, percent(done, len(groups), 30, 70),
				fmt.Sprintf("Resolved bucket %s (%d/%d)", bucket.Bucket, done, len(groups)))
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	// a cancellation that arrived during the last resolve still stops the task
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out []entity.Cluster
	for _, s := range slots {
		out = append(out, s...)
	}
	return out, nil
}
