package openai

import (
	"context"

	"github.com/kozichsergey/SmetaAI/internal/llm"
)

// Group implements llm.GroupingOracle. The raw content is returned for the resolver to parse.
func (c *Client) Group(ctx context.Context, numberedNames []string) (string, error) {
	data := llm.GroupingData{Names: numberedNames}
	sys, err := llm.Render("grouping.system", c.prompts.Grouping.System, data)
	if err != nil {
		return "", err
	}
	user, err := llm.Render("grouping.user", c.prompts.Grouping.User, data)
	if err != nil {
		return "", err
	}
	return c.chat(ctx, chatRequest{op: "group", system: sys, user: user, jsonMode: true})
}
