package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/kozichsergey/SmetaAI/internal/entity"
)

// Discover walks root and returns the eligible spreadsheets whose content hash differs
// from the one recorded in processed. Hidden directories are skipped. A missing root
// yields no candidates.
func Discover(ctx context.Context, root string, processed map[string]entity.FileMeta, logger *slog.Logger) ([]Candidate, DirStats, error) {
	var stats DirStats
	if strings.TrimSpace(root) == "" {
		return nil, stats, errors.New("input folder is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if _, err := os.Stat(root); errors.Is(err, fs.ErrNotExist) {
		logger.Warn("ingest.discover.missing_root", "root", root)
		return nil, stats, nil
	}

	var out []Candidate
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		stats.Scanned++
		if walkErr != nil {
			logger.Warn("ingest.discover.walk_error", "path", path, "error", walkErr)
			stats.Failed++
			return nil
		}
		if d.IsDir() {
			if path != root && IsHidden(path) {
				return filepath.SkipDir
			}
			return nil
		}
		if !Eligible(path) {
			return nil
		}
		stats.Matched++

		rel, err := filepath.Rel(root, path)
		if err != nil {
			rel = filepath.Base(path)
		}
		name := filepath.ToSlash(rel)

		info, err := d.Info()
		if err != nil {
			logger.Warn("ingest.discover.stat_failed", "path", path, "error", err)
			stats.Failed++
			return nil
		}
		hash, err := HashFile(path)
		if err != nil {
			logger.Warn("ingest.discover.hash_failed", "path", path, "error", err)
			stats.Failed++
			return nil
		}
		if prev, ok := processed[name]; ok && prev.Hash == hash {
			stats.Unchanged++
			return nil
		}

		stats.Changed++
		out = append(out, Candidate{
			Path: path,
			Name: name,
			Meta: entity.FileMeta{
				Size:       info.Size(),
				ModifiedAt: info.ModTime().UTC(),
				Hash:       hash,
			},
		})
		return nil
	})
	if err != nil {
		return out, stats, fmt.Errorf("walk: %w", err)
	}
	return out, stats, nil
}

// CountEligible counts the spreadsheets Discover would consider under root.
func CountEligible(root string) int {
	n := 0
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path != root && IsHidden(path) {
				return filepath.SkipDir
			}
			return nil
		}
		if Eligible(path) {
			n++
		}
		return nil
	})
	return n
}
