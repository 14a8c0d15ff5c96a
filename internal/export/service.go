package export

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/kozichsergey/SmetaAI/constants"
	"github.com/kozichsergey/SmetaAI/internal/common"
	"github.com/kozichsergey/SmetaAI/internal/entity"
	"github.com/kozichsergey/SmetaAI/internal/llm"
	"github.com/kozichsergey/SmetaAI/internal/repository"
)

// Service is a tiny façade over the catalog repository that produces and consumes XLSX bytes.
type Service struct {
	catalogRepo repository.CatalogRepository
	logger      *slog.Logger
	now         func() time.Time
}

func NewService(repo repository.CatalogRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{catalogRepo: repo, logger: logger, now: time.Now}
}

var exportHeaders = []string{
	constants.HeaderName,
	constants.HeaderUnit,
	constants.HeaderMaterialPrice,
	constants.HeaderWorkPrice,
	constants.HeaderClusterSize,
	constants.HeaderSources,
	constants.HeaderWarnings,
}

// ExportCatalogXLSX returns the catalog as an XLSX workbook.
func (s *Service) ExportCatalogXLSX(ctx context.Context) ([]byte, error) {
	start := time.Now()

	entries, err := s.catalogRepo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: catalog is empty", common.ErrNotFound)
	}

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", constants.CatalogSheet); err != nil {
		return nil, err
	}
	sheet := constants.CatalogSheet

	for i, h := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	for i, e := range entries {
		row := i + 2
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
		write(1, e.Name)
		write(2, e.Unit)
		write(3, e.MaterialPrice)
		write(4, e.WorkPrice)
		write(5, e.ClusterSize)
		write(6, strings.Join(e.SourceFiles, ", "))
		write(7, strings.Join(e.Warnings(), "; "))
	}

	_ = f.SetColWidth(sheet, "A", "A", 48) // name
	_ = f.SetColWidth(sheet, "B", "B", 10) // unit
	_ = f.SetColWidth(sheet, "C", "E", 14) // prices, size
	_ = f.SetColWidth(sheet, "F", "G", 40) // sources, warnings

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", len(entries),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

// importColumns are the 0-based positions of known headers; -1 when absent.
type importColumns struct {
	name, unit, material, work, size, sources int
}

func locateColumns(header []string) importColumns {
	cols := importColumns{-1, -1, -1, -1, -1, -1}
	for i, h := range header {
		h = strings.TrimSpace(h)
		match := func(titles ...string) bool {
			for _, t := range titles {
				if strings.EqualFold(h, t) {
					return true
				}
			}
			return false
		}
		switch {
		case match(constants.HeaderName, constants.HeaderNameRU):
			cols.name = i
		case match(constants.HeaderUnit, constants.HeaderUnitRU):
			cols.unit = i
		case match(constants.HeaderMaterialPrice, constants.HeaderMaterialPriceRU):
			cols.material = i
		case match(constants.HeaderWorkPrice, constants.HeaderWorkPriceRU):
			cols.work = i
		case match(constants.HeaderClusterSize, constants.HeaderClusterSizeRU):
			cols.size = i
		case match(constants.HeaderSources, constants.HeaderSourcesRU):
			cols.sources = i
		}
	}
	return cols
}

// ImportCatalogXLSX replaces the catalog with the priced rows of the first sheet of r.
// The sheet must have a Name column; rows without a positive price are skipped.
func (s *Service) ImportCatalogXLSX(ctx context.Context, r io.Reader) (int, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return 0, fmt.Errorf("%w: not a readable xlsx workbook: %v", common.ErrInvalidInput, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return 0, fmt.Errorf("%w: workbook has no sheets", common.ErrInvalidInput)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return 0, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return 0, fmt.Errorf("%w: sheet %q is empty", common.ErrInvalidInput, sheets[0])
	}

	cols := locateColumns(rows[0])
	if cols.name < 0 {
		return 0, fmt.Errorf("%w: missing required column %q", common.ErrInvalidInput, constants.HeaderName)
	}

	now := s.now().UTC()
	var entries []entity.CatalogEntry
	for _, row := range rows[1:] {
		cell := func(i int) string {
			if i < 0 || i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}
		name := cell(cols.name)
		if name == "" {
			continue
		}
		e := entity.CatalogEntry{
			ID:            uuid.New(),
			Name:          name,
			Unit:          cell(cols.unit),
			MaterialPrice: parsePrice(cell(cols.material)),
			WorkPrice:     parsePrice(cell(cols.work)),
			ClusterSize:   1,
			SourceFiles:   splitSources(cell(cols.sources)),
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if n, err := strconv.Atoi(cell(cols.size)); err == nil && n > 0 {
			e.ClusterSize = n
		}
		if e.MaterialPrice <= 0 && e.WorkPrice <= 0 {
			continue
		}
		entries = append(entries, e)
	}
	if len(entries) == 0 {
		return 0, fmt.Errorf("%w: no rows with a price to import", common.ErrInvalidInput)
	}

	if err := s.catalogRepo.Save(ctx, entries); err != nil {
		return 0, err
	}
	s.logger.Info("import.xlsx.ok", "rows", len(entries))
	return len(entries), nil
}

// ImportCatalogFile is ImportCatalogXLSX over a byte slice.
func (s *Service) ImportCatalogFile(ctx context.Context, b []byte) (int, error) {
	return s.ImportCatalogXLSX(ctx, bytes.NewReader(b))
}

func parsePrice(s string) float64 {
	if s == "" {
		return 0
	}
	v, ok := llm.ParsePriceString(s)
	if !ok || v < 0 {
		return 0
	}
	return v
}

func splitSources(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
