package entity

import (
	"time"

	"github.com/google/uuid"
)

// PriceAggregationResult describes how a representative price was derived from observations.
type PriceAggregationResult struct {
	FinalPrice      float64   `json:"final_price"`
	OriginalPrices  []float64 `json:"original_prices"`
	UsedPrices      []float64 `json:"used_prices"`
	Method          string    `json:"method"`
	VariancePercent float64   `json:"variance_percent"`
	Warning         *string   `json:"warning"`
	ExcludedPrices  []float64 `json:"excluded_prices,omitempty"`
}

// CatalogEntry is one consolidated item of the reference catalog.
type CatalogEntry struct {
	ID                    uuid.UUID               `json:"id"`
	Name                  string                  `json:"name"`
	Unit                  string                  `json:"unit"`
	MaterialPrice         float64                 `json:"material_price"`
	WorkPrice             float64                 `json:"work_price"`
	MaterialAnalysis      *PriceAggregationResult `json:"material_analysis"`
	WorkAnalysis          *PriceAggregationResult `json:"work_analysis"`
	ClusterSize           int                     `json:"cluster_size"`
	SourceFiles           []string                `json:"source_files"`
	CreatedAt             time.Time               `json:"created_at"`
	UpdatedAt             time.Time               `json:"updated_at"`
	MaterialPriceApproved bool                    `json:"material_price_approved"`
	WorkPriceApproved     bool                    `json:"work_price_approved"`
}

// Warnings collects the non-empty warnings of both analyses.
func (e CatalogEntry) Warnings() []string {
	var out []string
	for _, a := range []*PriceAggregationResult{e.MaterialAnalysis, e.WorkAnalysis} {
		if a != nil && a.Warning != nil {
			out = append(out, *a.Warning)
		}
	}
	return out
}

// CatalogEntryPatch carries a manual edit; nil fields are left unchanged.
type CatalogEntryPatch struct {
	Name                  *string  `json:"name,omitempty"`
	Unit                  *string  `json:"unit,omitempty"`
	MaterialPrice         *float64 `json:"material_price,omitempty"`
	WorkPrice             *float64 `json:"work_price,omitempty"`
	MaterialPriceApproved *bool    `json:"material_price_approved,omitempty"`
	WorkPriceApproved     *bool    `json:"work_price_approved,omitempty"`
}

// LineItemPatch carries a manual edit of a raw record; nil fields are left unchanged.
type LineItemPatch struct {
	Name          *string  `json:"name,omitempty"`
	Unit          *string  `json:"unit,omitempty"`
	MaterialPrice *float64 `json:"material_price,omitempty"`
	WorkPrice     *float64 `json:"work_price,omitempty"`
}
