package llm

import (
	"context"

	"github.com/kozichsergey/SmetaAI/internal/core/catalog"
	"github.com/kozichsergey/SmetaAI/internal/core/cluster"
	"github.com/kozichsergey/SmetaAI/internal/entity"
)

// ExtractRequest carries one estimate workbook rendered as text.
type ExtractRequest struct {
	FileName string
	Text     string
}

// ExtractedRecord is the record shape the extraction oracle must return.
type ExtractedRecord struct {
	Name          string  `json:"name"`
	Unit          string  `json:"unit"`
	MaterialPrice float64 `json:"material_price"`
	WorkPrice     float64 `json:"work_price"`
}

// LineItem stamps the record with its source file.
func (r ExtractedRecord) LineItem(sourceFile string) entity.LineItem {
	return entity.LineItem{
		Name:          r.Name,
		Unit:          r.Unit,
		MaterialPrice: r.MaterialPrice,
		WorkPrice:     r.WorkPrice,
		SourceFile:    sourceFile,
	}
}

// Extractor is the extraction oracle. raw is the model output as received, clean the
// normalised JSON array that was decoded; either may be nil on failure.
type Extractor interface {
	Extract(ctx context.Context, req ExtractRequest) (records []ExtractedRecord, raw, clean []byte, err error)
}

// GroupingOracle proposes clusters for a numbered list of names.
type GroupingOracle = cluster.GroupingOracle

// MatchingOracle maps names to exact catalog candidate names.
type MatchingOracle = catalog.MatchingOracle

// Pinger checks that the model endpoint answers.
type Pinger interface {
	Ping(ctx context.Context) (string, error)
}
