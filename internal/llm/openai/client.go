package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kozichsergey/SmetaAI/internal/common"
	"github.com/kozichsergey/SmetaAI/internal/llm"
)

const (
	outcomeOK          = "ok"
	outcomeRateLimited = "rate_limited"
	outcomeUnavailable = "unavailable"
	outcomeMalformed   = "malformed"
)

type chatRequest struct {
	op       string
	system   string
	user     string
	jsonMode bool
}

// chat sends one chat/completions request, retrying rate-limited attempts, and returns the
// first choice's content.
func (c *Client) chat(ctx context.Context, r chatRequest) (string, error) {
	rid := uuid.New().String()
	start := time.Now()

	body := map[string]any{
		"model": c.cfg.Model,
		"messages": []map[string]any{
			{"role": "system", "content": r.system},
			{"role": "user", "content": r.user},
		},
	}
	if !isReasoningModel(c.cfg.Model) {
		body["temperature"] = c.cfg.Temperature
	}
	if r.jsonMode {
		body["response_format"] = map[string]any{"type": "json_object"}
	}
	headers := map[string]string{"Authorization": "Bearer " + c.cfg.APIKey}

	c.logger.Info("llm."+r.op+".start", "req_id", rid, "model", c.cfg.Model, "prompt_len", len(r.user))

	attempts := c.cfg.Retry.MaxRetries + 1
	for attempt := 0; attempt < attempts; attempt++ {
		res, err := llm.SendJSON(ctx, c.http, c.endpoint, body, headers, c.logger)
		if err != nil {
			c.logger.Error("llm."+r.op+".http_error", "req_id", rid, "error", err,
				"elapsed_ms", time.Since(start).Milliseconds())
			c.report(r.op, outcomeUnavailable, start)
			return "", fmt.Errorf("%w: %v", common.ErrOracleUnavailable, err)
		}

		if llm.IsRateLimited(res.Status, res.Body) {
			if attempt == attempts-1 {
				break
			}
			wait := c.cfg.Retry.Delay(attempt, res.Header, res.Body, time.Now())
			c.logger.Warn("llm."+r.op+".rate_limited", "req_id", rid,
				"attempt", attempt+1, "max_attempts", attempts, "wait_ms", wait.Milliseconds())
			if err := c.sleep(ctx, wait); err != nil {
				c.report(r.op, outcomeUnavailable, start)
				return "", fmt.Errorf("%w: %v", common.ErrOracleUnavailable, err)
			}
			continue
		}

		if !res.OK() {
			c.logger.Error("llm."+r.op+".bad_status", "req_id", rid, "status", res.Status,
				"body", truncate(string(res.Body), 500), "elapsed_ms", time.Since(start).Milliseconds())
			c.report(r.op, outcomeUnavailable, start)
			return "", fmt.Errorf("%w: openai status %d: %s", common.ErrOracleUnavailable, res.Status, truncate(string(res.Body), 200))
		}

		content, err := firstChoice(res.Body)
		if err != nil {
			c.logger.Error("llm."+r.op+".decode_error", "req_id", rid, "error", err, "raw_bytes", len(res.Body),
				"elapsed_ms", time.Since(start).Milliseconds())
			c.report(r.op, outcomeMalformed, start)
			return "", err
		}

		c.logger.Info("llm."+r.op+".ok", "req_id", rid, "content_len", len(content),
			"attempts", attempt+1, "elapsed_ms", time.Since(start).Milliseconds())
		c.report(r.op, outcomeOK, start)
		return content, nil
	}

	c.logger.Error("llm."+r.op+".rate_limit_exhausted", "req_id", rid, "attempts", attempts,
		"elapsed_ms", time.Since(start).Milliseconds())
	c.report(r.op, outcomeRateLimited, start)
	return "", fmt.Errorf("%s after %d attempts: %w", r.op, attempts, common.ErrOracleRateLimited)
}

func firstChoice(raw []byte) (string, error) {
	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		return "", fmt.Errorf("%w: decode openai response: %v", common.ErrOracleMalformedResponse, err)
	}
	if len(cc.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices in openai response", common.ErrOracleMalformedResponse)
	}
	content := strings.TrimSpace(cc.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("%w: empty content", common.ErrOracleMalformedResponse)
	}
	return content, nil
}

func (c *Client) report(op, outcome string, start time.Time) {
	if c.observe != nil {
		c.observe(op, outcome, time.Since(start))
	}
}

// malformed marks err as a malformed-response failure unless it already is an oracle failure.
func malformed(err error) error {
	if err == nil || common.IsOracleFailure(err) {
		return err
	}
	return errors.Join(common.ErrOracleMalformedResponse, err)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

var (
	_ llm.Extractor      = (*Client)(nil)
	_ llm.GroupingOracle = (*Client)(nil)
	_ llm.MatchingOracle = (*Client)(nil)
	_ llm.Pinger         = (*Client)(nil)
)
