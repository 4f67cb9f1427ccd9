package ollama

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"docdocs-backend/internal/llm"
	"docdocs-backend/internal/shared/telemetry"
)

const (
	DefaultURL     = "http://127.0.0.1:11434"
	DefaultModel   = "llama3.2"
	DefaultTimeout = 60 * time.Second
)

// Options are the sampling parameters sent with every generate request.
type Options struct {
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"top_p"`
	TopK        int     `json:"top_k"`
}

// DefaultOptions returns the sampling parameters used when none are configured.
func DefaultOptions() Options {
	return Options{Temperature: 0.7, TopP: 0.9, TopK: 40}
}

// Config configures the Ollama client.
type Config struct {
	BaseURL string
	Model   string
	Timeout time.Duration
	Options Options

	// RatePerSecond caps outbound generate calls. Zero disables limiting.
	RatePerSecond float64
	Burst         int

	BreakerFailures uint32
	BreakerOpen     time.Duration
}

func (c Config) normalize() Config {
	if strings.TrimSpace(c.BaseURL) == "" {
		c.BaseURL = DefaultURL
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if strings.TrimSpace(c.Model) == "" {
		c.Model = DefaultModel
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.Options == (Options{}) {
		c.Options = DefaultOptions()
	}
	if c.Burst <= 0 {
		c.Burst = 1
	}
	if c.BreakerFailures == 0 {
		c.BreakerFailures = 5
	}
	if c.BreakerOpen <= 0 {
		c.BreakerOpen = 30 * time.Second
	}
	return c
}

// Client implements llm.Client against a local Ollama server.
type Client struct {
	cfg        Config
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker[string]
}

var _ llm.Client = (*Client)(nil)

// New constructs a Client. BreakerFailures consecutive generate failures open the
// circuit for BreakerOpen.
func New(cfg Config) *Client {
	cfg = cfg.normalize()

	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}

	settings := gobreaker.Settings{
		Name:    "ollama.generate",
		Timeout: cfg.BreakerOpen,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerFailures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			telemetry.Warn("llm.breaker_state_change", map[string]any{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			})
		},
	}

	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(limit, cfg.Burst),
		breaker:    gobreaker.NewCircuitBreaker[string](settings),
	}
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.cfg.Model
}

type generateRequest struct {
	Model   string  `json:"model"`
	Prompt  string  `json:"prompt"`
	System  string  `json:"system,omitempty"`
	Stream  bool    `json:"stream"`
	Options Options `json:"options"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// Generate sends a non-streaming generate request.
func (c *Client) Generate(ctx context.Context, prompt, system string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("ollama generate: %w", err)
	}

	return c.breaker.Execute(func() (string, error) {
		req := generateRequest{
			Model:   c.cfg.Model,
			Prompt:  prompt,
			System:  system,
			Stream:  false,
			Options: c.cfg.Options,
		}
		var resp generateResponse
		if err := c.doJSON(ctx, http.MethodPost, "/api/generate", req, &resp, "generate"); err != nil {
			return "", err
		}
		return strings.TrimSpace(resp.Response), nil
	})
}

// Models lists the model names installed on the server.
func (c *Client) Models(ctx context.Context) ([]string, error) {
	var tags struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/tags", nil, &tags, "tags"); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(tags.Models))
	for _, m := range tags.Models {
		names = append(names, m.Name)
	}
	return names, nil
}

// Healthy reports whether the server answers the model listing endpoint.
func (c *Client) Healthy(ctx context.Context) bool {
	if _, err := c.Models(ctx); err != nil {
		telemetry.Warn("llm.health_failed", map[string]any{"error": err.Error()})
		return false
	}
	return true
}

// BaseURL returns the normalized server URL.
func (c *Client) BaseURL() string {
	return c.cfg.BaseURL
}

// IsCircuitOpen reports whether err was returned because the breaker rejected the call.
func IsCircuitOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
