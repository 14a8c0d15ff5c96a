package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/kozichsergey/SmetaAI/constants"
	"github.com/kozichsergey/SmetaAI/internal/common"
	"github.com/kozichsergey/SmetaAI/internal/entity"
	"github.com/kozichsergey/SmetaAI/internal/ingest"
	"github.com/kozichsergey/SmetaAI/internal/progress"
)

// Ingest extracts records from every new or changed spreadsheet in the input folder and
// appends them to the raw document, which is saved after each file.
func (p *Pipeline) Ingest(ctx context.Context, sink progress.Sink) error {
	start := time.Now()
	sink.Start(ctx, constants.TaskIngest, "Scanning input folder")

	if p.deps.Extractor == nil {
		err := fmt.Errorf("%w: set OPENAI_API_KEY to enable extraction", common.ErrOracleUnavailable)
		return fail(ctx, sink, err, "AI is not configured")
	}

	doc, err := p.deps.Raw.Load(ctx)
	if err != nil {
		return fail(ctx, sink, err, "Failed to load raw data")
	}
	cands, stats, err := ingest.Discover(ctx, p.cfg.InputDir, doc.ProcessedFiles, p.logger)
	if err != nil {
		return fail(ctx, sink, err, "Failed to scan input folder")
	}
	p.logger.Info("ingest.discovered",
		"dir", p.cfg.InputDir,
		"matched", stats.Matched,
		"changed", stats.Changed,
		"unchanged", stats.Unchanged,
	)
	if len(cands) == 0 {
		sink.Complete(ctx, "No new files to process")
		return nil
	}

	added, failed := 0, 0
	for i, c := range cands {
		if err := ctx.Err(); err != nil {
			return fail(ctx, sink, err, fmt.Sprintf("processed %d/%d files, added %d records", i, len(cands), added))
		}
		sink.Update(ctx, percent(i, len(cands), 0, 100), fmt.Sprintf("Processing file %d/%d: %s", i+1, len(cands), c.Name))

		items, err := p.deps.Extractor.Extract(ctx, c)
		p.fileDone(constants.TaskIngest, err)
		if err != nil {
			if ctx.Err() != nil {
				return fail(ctx, sink, ctx.Err(), fmt.Sprintf("processed %d/%d files, added %d records", i, len(cands), added))
			}
			failed++
			p.logger.Warn("ingest.file.skipped", "file", c.Name, "error", err)
			continue
		}

		now := p.now().UTC()
		doc.Records = append(withoutSource(doc.Records, c.Name), items...)
		meta := c.Meta
		meta.LastProcessed = now
		doc.ProcessedFiles[c.Name] = meta
		doc.UpdatedAt = &now
		// the file's extraction already finished; keep it even if a cancel arrived meanwhile
		if err := p.deps.Raw.Save(context.WithoutCancel(ctx), doc); err != nil {
			return fail(ctx, sink, err, "Failed to save raw data")
		}
		added += len(items)
	}
	if err := ctx.Err(); err != nil {
		return fail(ctx, sink, err, fmt.Sprintf("processed %d/%d files, added %d records", len(cands), len(cands), added))
	}

	p.logger.Info("ingest.done",
		"files", len(cands),
		"failed", failed,
		"added", added,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	msg := fmt.Sprintf("Added %d new records", added)
	if failed > 0 {
		msg += fmt.Sprintf(" (%d of %d files failed)", failed, len(cands))
	}
	sink.Complete(ctx, msg)
	return nil
}

// withoutSource drops the records of a file that is being processed again.
func withoutSource(records []entity.LineItem, source string) []entity.LineItem {
	out := records[:0:0]
	for _, r := range records {
		if r.SourceFile != source {
			out = append(out, r)
		}
	}
	return out
}
