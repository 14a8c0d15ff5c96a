package openai

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/kozichsergey/SmetaAI/internal/llm"
)

// Config for the OpenAI client.
type Config struct {
	APIKey      string
	BaseURL     string // default https://api.openai.com/v1
	Model       string
	Temperature float32 // ignored for reasoning models, which only accept the default
	Timeout     time.Duration
	Retry       llm.RetryPolicy
}

// CallObserver is told the outcome of every chat call: ok, rate_limited, unavailable or malformed.
type CallObserver func(op, outcome string, elapsed time.Duration)

type Client struct {
	cfg      Config
	http     *http.Client
	logger   *slog.Logger
	prompts  *llm.Prompts
	observe  CallObserver
	sleep    func(ctx context.Context, d time.Duration) error
	endpoint string
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

func WithPrompts(p *llm.Prompts) Option {
	return func(c *Client) {
		if p != nil {
			c.prompts = p
		}
	}
}

func WithCallObserver(o CallObserver) Option {
	return func(c *Client) { c.observe = o }
}

func withSleep(f func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Client) { c.sleep = f }
}

func NewClient(cfg Config, logger *slog.Logger, opts ...Option) (*Client, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "o4-mini-2025-04-16"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	if cfg.Retry.MaxRetries < 0 {
		cfg.Retry.MaxRetries = 0
	}
	if logger == nil {
		logger = slog.Default()
	}

	c := &Client{
		cfg:      cfg,
		http:     &http.Client{Timeout: cfg.Timeout},
		logger:   logger,
		sleep:    llm.Sleep,
		endpoint: strings.TrimRight(cfg.BaseURL, "/") + "/chat/completions",
	}
	for _, o := range opts {
		o(c)
	}
	if c.prompts == nil {
		p, err := llm.DefaultPrompts()
		if err != nil {
			return nil, err
		}
		c.prompts = p
	}
	return c, nil
}

// reasoning models (o1, o3, o4-mini, ...) reject a custom temperature.
func isReasoningModel(model string) bool {
	m := strings.ToLower(model)
	return len(m) > 1 && m[0] == 'o' && m[1] >= '0' && m[1] <= '9'
}
