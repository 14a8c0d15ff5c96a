package openai

import (
	"context"
	"encoding/json"

	"github.com/kozichsergey/SmetaAI/internal/llm"
)

// MatchBatch implements llm.MatchingOracle: one call with every name and the full candidate list.
// A null answer becomes "".
func (c *Client) MatchBatch(ctx context.Context, names, candidates []string) ([]string, error) {
	data := llm.MatchingData{Names: names, Candidates: candidates}
	sys, err := llm.Render("matching.system", c.prompts.Matching.System, data)
	if err != nil {
		return nil, err
	}
	user, err := llm.Render("matching.user", c.prompts.Matching.User, data)
	if err != nil {
		return nil, err
	}

	content, err := c.chat(ctx, chatRequest{op: "match", system: sys, user: user})
	if err != nil {
		return nil, err
	}

	arr, err := llm.NormalizeMatches(content)
	if err != nil {
		c.logger.Error("llm.match.parse_failed", "error", err, "content", truncate(content, 200))
		return nil, err
	}
	if err := llm.ValidateJSONAgainstSchema("matching", llm.MatchingSchema(), arr); err != nil {
		c.logger.Error("llm.match.schema_validation_failed", "error", err)
		return nil, malformed(err)
	}

	var answers []*string
	if err := json.Unmarshal(arr, &answers); err != nil {
		return nil, malformed(err)
	}
	if len(answers) != len(names) {
		c.logger.Warn("llm.match.length_mismatch", "names", len(names), "answers", len(answers))
	}
	out := make([]string, len(answers))
	for i, a := range answers {
		if a != nil {
			out[i] = *a
		}
	}
	return out, nil
}

// Ping sends a trivial prompt and returns the model's reply.
func (c *Client) Ping(ctx context.Context) (string, error) {
	user, err := llm.Render("check.user", c.prompts.Check.User, nil)
	if err != nil {
		return "", err
	}
	return c.chat(ctx, chatRequest{op: "ping", system: "You are a connectivity check.", user: user})
}
