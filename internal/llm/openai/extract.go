package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/kozichsergey/SmetaAI/internal/llm"
)

// Extract implements llm.Extractor over chat/completions with the workbook rendered as text.
func (c *Client) Extract(ctx context.Context, req llm.ExtractRequest) ([]llm.ExtractedRecord, []byte, []byte, error) {
	start := time.Now()
	data := llm.ExtractionData{FileName: req.FileName, Text: req.Text}
	sys, err := llm.Render("extraction.system", c.prompts.Extraction.System, data)
	if err != nil {
		return nil, nil, nil, err
	}
	user, err := llm.Render("extraction.user", c.prompts.Extraction.User, data)
	if err != nil {
		return nil, nil, nil, err
	}
	schema := llm.ExtractionSchema()
	sys += "\n\nJSON Schema:\n" + mustJSON(schema)

	content, err := c.chat(ctx, chatRequest{op: "extract", system: sys, user: user})
	if err != nil {
		return nil, nil, nil, err
	}
	raw := []byte(content)

	arr, err := llm.ExtractJSONArray(content)
	if err != nil {
		c.logger.Error("llm.extract.no_array", "file", req.FileName, "error", err)
		return nil, raw, nil, err
	}
	clean, dropped, err := llm.NormalizeExtractedRecords(arr, c.logger)
	if err != nil {
		return nil, raw, nil, malformed(err)
	}
	if err := llm.ValidateJSONAgainstSchema("extraction", schema, clean); err != nil {
		c.logger.Error("llm.extract.schema_validation_failed", "file", req.FileName, "error", err)
		return nil, raw, clean, malformed(err)
	}

	var out []llm.ExtractedRecord
	if err := json.Unmarshal(clean, &out); err != nil {
		return nil, raw, clean, malformed(fmt.Errorf("unmarshal records: %w", err))
	}

	c.logger.Info("llm.extract.parsed",
		"file", req.FileName,
		"records", len(out),
		"dropped", len(dropped),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, raw, clean, nil
}

func mustJSON(v any) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}
