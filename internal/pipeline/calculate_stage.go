package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/kozichsergey/SmetaAI/constants"
	"github.com/kozichsergey/SmetaAI/internal/entity"
	"github.com/kozichsergey/SmetaAI/internal/progress"
	"github.com/kozichsergey/SmetaAI/internal/spreadsheet"
)

// Calculate prices every workbook in the calculate folder against the catalog and writes
// priced copies to the output folder. Source workbooks are never modified.
func (p *Pipeline) Calculate(ctx context.Context, sink progress.Sink) error {
	start := time.Now()
	sink.Start(ctx, constants.TaskCalculate, "Loading catalog")

	entries, err := p.deps.Catalog.Load(ctx)
	if err != nil {
		return fail(ctx, sink, err, "Failed to load catalog")
	}
	if len(entries) == 0 {
		return fail(ctx, sink, errNoData("catalog is empty, run optimize first"), "Nothing to match against")
	}

	files, err := spreadsheet.ListWorkbooks(p.cfg.CalculateDir)
	if err != nil {
		return fail(ctx, sink, err, "Failed to list calculate folder")
	}
	if len(files) == 0 {
		sink.Complete(ctx, "No files to process")
		return nil
	}

	ok := 0
	for i, path := range files {
		if err := ctx.Err(); err != nil {
			return fail(ctx, sink, err, fmt.Sprintf("processed %d/%d files", ok, len(files)))
		}
		name := filepath.Base(path)
		sink.Update(ctx, percent(i, len(files), 0, 100), fmt.Sprintf("Processing file %d/%d: %s", i+1, len(files), name))

		out, priced, err := p.priceWorkbook(ctx, path, entries)
		p.fileDone(constants.TaskCalculate, err)
		if err != nil {
			p.logger.Warn("calculate.file.failed", "file", name, "error", err)
			continue
		}
		ok++
		p.logger.Info("calculate.file.priced", "file", name, "output", out, "priced_cells", priced)
	}

	p.logger.Info("calculate.done", "files", len(files), "ok", ok, "elapsed_ms", time.Since(start).Milliseconds())
	sink.Complete(ctx, fmt.Sprintf("Processed %d/%d files", ok, len(files)))
	return nil
}

func (p *Pipeline) priceWorkbook(ctx context.Context, path string, entries []entity.CatalogEntry) (string, int, error) {
	wb, err := spreadsheet.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer func() {
		if err := wb.Close(); err != nil {
			p.logger.Warn("calculate.workbook.close_failed", "file", path, "error", err)
		}
	}()

	priced := 0
	for _, sheet := range wb.SheetNames() {
		plan, err := wb.PlanSheet(sheet)
		if err != nil {
			return "", 0, err
		}
		if plan == nil || len(plan.Names) == 0 {
			continue
		}
		matches := p.deps.Matcher.MatchBatch(ctx, plan.Names, entries)
		n, err := wb.WritePrices(plan, matches)
		if err != nil {
			return "", 0, err
		}
		priced += n
	}

	out := spreadsheet.PricedOutputPath(p.cfg.OutputDir, path, p.now())
	if err := wb.SaveAs(out); err != nil {
		return "", 0, err
	}
	return out, priced, nil
}
