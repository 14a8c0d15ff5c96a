package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kozichsergey/SmetaAI/internal/common"
	"github.com/kozichsergey/SmetaAI/internal/core/pricing"
	"github.com/kozichsergey/SmetaAI/internal/entity"
	"github.com/kozichsergey/SmetaAI/internal/llm"
	"github.com/kozichsergey/SmetaAI/internal/spreadsheet"
)

const defaultMaxChars = 60000

// FileExtractor turns one spreadsheet into priced line items through the extraction oracle.
type FileExtractor struct {
	extractor    llm.Extractor
	logger       *slog.Logger
	responsesDir string
	maxChars     int
	now          func() time.Time
}

type Option func(*FileExtractor)

// WithResponsesDir keeps every raw and cleaned oracle response under dir.
func WithResponsesDir(dir string) Option {
	return func(x *FileExtractor) { x.responsesDir = dir }
}

// WithMaxChars bounds the workbook text sent to the oracle.
func WithMaxChars(n int) Option {
	return func(x *FileExtractor) {
		if n > 0 {
			x.maxChars = n
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(x *FileExtractor) { x.now = now }
}

func NewFileExtractor(extractor llm.Extractor, logger *slog.Logger, opts ...Option) *FileExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	x := &FileExtractor{
		extractor: extractor,
		logger:    logger,
		maxChars:  defaultMaxChars,
		now:       time.Now,
	}
	for _, o := range opts {
		o(x)
	}
	return x
}

// Extract reads the candidate workbook, asks the oracle for its records and returns the
// ones carrying at least one positive price, stamped with the candidate's name.
func (x *FileExtractor) Extract(ctx context.Context, c Candidate) ([]entity.LineItem, error) {
	if x.extractor == nil {
		return nil, fmt.Errorf("%w: extraction oracle is not configured", common.ErrOracleUnavailable)
	}

	wb, err := spreadsheet.Open(c.Path)
	if err != nil {
		return nil, err
	}
	text, err := wb.RenderText(x.maxChars)
	if cerr := wb.Close(); cerr != nil {
		x.logger.Warn("ingest.workbook.close_failed", "file", c.Name, "error", cerr)
	}
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		x.logger.Info("ingest.file.empty", "file", c.Name)
		return nil, nil
	}

	start := time.Now()
	records, raw, clean, err := x.extractor.Extract(ctx, llm.ExtractRequest{FileName: c.Name, Text: text})
	x.saveResponses(c.Name, raw, clean)
	if err != nil {
		x.logger.Error("ingest.file.extract_failed", "file", c.Name, "elapsed_ms", time.Since(start).Milliseconds(), "error", err)
		return nil, err
	}

	items := make([]entity.LineItem, 0, len(records))
	rejected := 0
	for _, r := range records {
		item := r.LineItem(c.Name)
		if err := pricing.ValidatePrices(statedPrices(item)); err != nil {
			rejected++
			x.logger.Warn("ingest.record.rejected", "file", c.Name, "name", item.Name, "error", err)
			continue
		}
		if !item.HasPrice() {
			continue
		}
		items = append(items, item)
	}
	x.logger.Info("ingest.file.extracted",
		"file", c.Name,
		"records", len(records),
		"priced", len(items),
		"rejected", rejected,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return items, nil
}

// statedPrices returns the prices the oracle actually filled in; zero means absent.
func statedPrices(item entity.LineItem) []float64 {
	var out []float64
	for _, p := range []float64{item.MaterialPrice, item.WorkPrice} {
		if p != 0 {
			out = append(out, p)
		}
	}
	return out
}

func (x *FileExtractor) saveResponses(name string, raw, clean []byte) {
	if x.responsesDir == "" || (raw == nil && clean == nil) {
		return
	}
	if err := os.MkdirAll(x.responsesDir, 0o755); err != nil {
		x.logger.Warn("ingest.responses.mkdir_failed", "dir", x.responsesDir, "error", err)
		return
	}
	stem := strings.TrimSuffix(strings.ReplaceAll(name, "/", "_"), filepath.Ext(name))
	base := filepath.Join(x.responsesDir, stem+"_"+x.now().Format("20060102_150405"))
	write := func(path string, b []byte) {
		if b == nil {
			return
		}
		if err := os.WriteFile(path, b, 0o644); err != nil {
			x.logger.Warn("ingest.responses.write_failed", "path", path, "error", err)
		}
	}
	write(base+"_raw.txt", raw)
	write(base+"_clean.json", clean)
}
