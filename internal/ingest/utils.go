package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/kozichsergey/SmetaAI/constants"
)

// IsHidden checks if a file or directory is hidden (starts with '.').
func IsHidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}

// IsLockFile reports Office lock files such as "~$estimate.xlsx".
func IsLockFile(path string) bool {
	return strings.HasPrefix(filepath.Base(path), "~")
}

// Eligible reports whether path names a spreadsheet the ingest task should read.
func Eligible(path string) bool {
	return constants.IsAllowedExt(filepath.Ext(path)) && !IsHidden(path) && !IsLockFile(path)
}

// HashFile returns the hex sha256 of the file contents.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
