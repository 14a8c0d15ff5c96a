package ingest

import (
	"github.com/kozichsergey/SmetaAI/internal/entity"
)

// Candidate is a spreadsheet that is new or changed since it was last processed.
type Candidate struct {
	Path string
	// Name is the path relative to the input root with forward slashes; it keys
	// RawDocument.ProcessedFiles and becomes LineItem.SourceFile.
	Name string
	Meta entity.FileMeta
}

// DirStats summarizes a directory scan.
type DirStats struct {
	Scanned   uint32
	Matched   uint32
	Changed   uint32
	Unchanged uint32
	Failed    uint32
}
