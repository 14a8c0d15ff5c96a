package spreadsheet

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/kozichsergey/SmetaAI/constants"
	"github.com/kozichsergey/SmetaAI/internal/entity"
)

// minNameLength is the rune length a name cell must exceed to be priced.
const minNameLength = 3

// SheetPlan describes where names are read and prices written on one sheet.
// Columns are 1-based; RowNumbers are the 1-based sheet rows of Names.
type SheetPlan struct {
	Sheet       string
	NameCol     int
	MaterialCol int
	WorkCol     int
	Names       []string
	RowNumbers  []int
}

// PlanSheet picks the name column, ensures the price header columns exist and collects the
// names to price. It returns nil for a sheet without data rows.
func (w *Workbook) PlanSheet(sheet string) (*SheetPlan, error) {
	rows, err := w.Rows(sheet)
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, nil
	}

	header := rows[0]
	data := rows[1:]
	plan := &SheetPlan{Sheet: sheet, NameCol: DetectNameColumn(data) + 1}

	width := len(header)
	for _, r := range data {
		if len(r) > width {
			width = len(r)
		}
	}

	plan.MaterialCol, width, err = w.ensureColumn(sheet, header, width, constants.HeaderMaterialPrice, constants.HeaderMaterialPriceRU)
	if err != nil {
		return nil, err
	}
	plan.WorkCol, _, err = w.ensureColumn(sheet, header, width, constants.HeaderWorkPrice, constants.HeaderWorkPriceRU)
	if err != nil {
		return nil, err
	}

	for i, r := range data {
		if plan.NameCol-1 >= len(r) {
			continue
		}
		name := strings.TrimSpace(r[plan.NameCol-1])
		if utf8.RuneCountInString(name) <= minNameLength {
			continue
		}
		plan.Names = append(plan.Names, name)
		plan.RowNumbers = append(plan.RowNumbers, i+2)
	}
	return plan, nil
}

// ensureColumn returns the column of an existing header matching any of titles, or writes
// titles[0] into a new column after width.
func (w *Workbook) ensureColumn(sheet string, header []string, width int, titles ...string) (int, int, error) {
	for i, h := range header {
		for _, t := range titles {
			if strings.EqualFold(strings.TrimSpace(h), t) {
				return i + 1, width, nil
			}
		}
	}
	col := width + 1
	cell, err := excelize.CoordinatesToCellName(col, 1)
	if err != nil {
		return 0, width, err
	}
	if err := w.f.SetCellValue(sheet, cell, titles[0]); err != nil {
		return 0, width, fmt.Errorf("write header %q: %w", titles[0], err)
	}
	return col, col, nil
}

// DetectNameColumn returns the 0-based column with the longest mean text length.
// Missing cells count as empty; ties go to the leftmost column.
func DetectNameColumn(rows [][]string) int {
	width := 0
	for _, r := range rows {
		if len(r) > width {
			width = len(r)
		}
	}
	if width == 0 || len(rows) == 0 {
		return 0
	}

	best, bestMean := 0, -1.0
	for c := 0; c < width; c++ {
		total := 0
		for _, r := range rows {
			if c < len(r) {
				total += utf8.RuneCountInString(strings.TrimSpace(r[c]))
			}
		}
		mean := float64(total) / float64(len(rows))
		if mean > bestMean {
			best, bestMean = c, mean
		}
	}
	return best
}

// WritePrices writes the positive prices of matched entries; matches[i] belongs to plan.Names[i].
// It returns how many rows received at least one price.
func (w *Workbook) WritePrices(plan *SheetPlan, matches []*entity.CatalogEntry) (int, error) {
	if len(matches) != len(plan.Names) {
		return 0, fmt.Errorf("write prices: %d matches for %d names", len(matches), len(plan.Names))
	}
	priced := 0
	for i, m := range matches {
		if m == nil {
			continue
		}
		row := plan.RowNumbers[i]
		wrote := false
		for _, p := range []struct {
			col   int
			price float64
		}{{plan.MaterialCol, m.MaterialPrice}, {plan.WorkCol, m.WorkPrice}} {
			if p.price <= 0 {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(p.col, row)
			if err != nil {
				return priced, err
			}
			if err := w.f.SetCellValue(plan.Sheet, cell, p.price); err != nil {
				return priced, fmt.Errorf("write %s!%s: %w", plan.Sheet, cell, err)
			}
			wrote = true
		}
		if wrote {
			priced++
		}
	}
	return priced, nil
}
