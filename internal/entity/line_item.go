package entity

import "time"

// LineItem is one extracted estimate row. Prices are per unit and non-negative.
type LineItem struct {
	Name          string     `json:"name"`
	Unit          string     `json:"unit"`
	MaterialPrice float64    `json:"material_price"`
	WorkPrice     float64    `json:"work_price"`
	SourceFile    string     `json:"source_file"`
	UpdatedAt     *time.Time `json:"updated_at,omitempty"`
}

// HasPrice reports whether at least one of the two prices is positive.
func (li LineItem) HasPrice() bool {
	return li.MaterialPrice > 0 || li.WorkPrice > 0
}

// Cluster is a group of line items judged to denote the same real-world item.
type Cluster struct {
	Label   string     `json:"label"`
	Members []LineItem `json:"members"`
}

// FileMeta records what was seen of an input file when it was last processed.
type FileMeta struct {
	Size          int64     `json:"size"`
	ModifiedAt    time.Time `json:"modified_at"`
	Hash          string    `json:"hash"`
	LastProcessed time.Time `json:"last_processed"`
}

// RawDocument is the persisted pool of extracted records.
type RawDocument struct {
	Records        []LineItem          `json:"records"`
	ProcessedFiles map[string]FileMeta `json:"processed_files"`
	UpdatedAt      *time.Time          `json:"updated_at,omitempty"`
}

// NewRawDocument returns an empty document with initialised collections.
func NewRawDocument() *RawDocument {
	return &RawDocument{
		Records:        []LineItem{},
		ProcessedFiles: map[string]FileMeta{},
	}
}
