// Package spreadsheet reads estimate workbooks and writes priced copies of them.
package spreadsheet

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/kozichsergey/SmetaAI/constants"
)

// Workbook wraps an opened excelize file.
type Workbook struct {
	f    *excelize.File
	path string
}

// Open opens an .xlsx workbook.
func Open(path string) (*Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", filepath.Base(path), err)
	}
	return &Workbook{f: f, path: path}, nil
}

func (w *Workbook) Close() error { return w.f.Close() }

func (w *Workbook) SheetNames() []string { return w.f.GetSheetList() }

// Rows returns the sheet's rows; rows may be ragged.
func (w *Workbook) Rows(sheet string) ([][]string, error) {
	rows, err := w.f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	return rows, nil
}

// SaveAs writes the workbook to path, creating the parent folder.
func (w *Workbook) SaveAs(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := w.f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook %s: %w", filepath.Base(path), err)
	}
	return nil
}

// RenderText renders every non-empty row of every sheet as tab separated text, truncated
// to maxChars runes when maxChars > 0.
func (w *Workbook) RenderText(maxChars int) (string, error) {
	var b strings.Builder
	for _, sheet := range w.SheetNames() {
		rows, err := w.Rows(sheet)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "## Sheet: %s\n", sheet)
		for _, row := range rows {
			line := strings.TrimSpace(strings.Join(row, "\t"))
			if line == "" {
				continue
			}
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}
	text := b.String()
	if maxChars > 0 && utf8.RuneCountInString(text) > maxChars {
		r := []rune(text)
		text = string(r[:maxChars]) + "\n…(truncated)"
	}
	return text, nil
}

// PricedOutputPath builds OUTPUT_DIR/PRICED_{stem}_{YYYYMMDD_HHMMSS}.xlsx.
func PricedOutputPath(outputDir, srcPath string, now time.Time) string {
	stem := strings.TrimSuffix(filepath.Base(srcPath), filepath.Ext(srcPath))
	return filepath.Join(outputDir, constants.PricedFilePrefix+stem+"_"+now.Format("20060102_150405")+".xlsx")
}

// ListWorkbooks returns the .xlsx files directly inside dir, sorted by name, skipping
// Office lock files (~$...) and hidden files.
func ListWorkbooks(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}
	var out []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, "~") || strings.HasPrefix(name, ".") {
			continue
		}
		if !constants.IsAllowedExt(filepath.Ext(name)) {
			continue
		}
		out = append(out, filepath.Join(dir, name))
	}
	sort.Strings(out)
	return out, nil
}
