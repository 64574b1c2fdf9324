package analysis

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/roadwatch/roadwatch/internal/httpc"
)

// Client is the standard vision-model analyzer. It talks to any
// OpenAI-compatible endpoint (OpenAI, Ollama, vLLM, Together, etc.)
// through one chat-completion call per frame.
type Client struct {
	api    *openai.Client
	config *Config
	logger *slog.Logger

	// nowFunc stamps results; overridable in tests.
	nowFunc func() time.Time
}

// Config holds analyzer configuration.
// Use functional options (WithXxx) to set these values.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string

	// Temperature is the decoding randomness. Kept low so repeated calls
	// on near-identical frames tend toward consistent verdicts.
	Temperature float32

	// MaxTokens limits the reply length.
	MaxTokens int

	// Timeout bounds one analysis round trip.
	Timeout time.Duration

	// HTTPClient overrides the transport (tests, proxies).
	HTTPClient *http.Client

	// Logger is the structured logger for the client.
	Logger *slog.Logger
}

// Option is a functional option for configuring the client.
type Option func(*Config)

// WithAPIKey sets the API key.
func WithAPIKey(key string) Option {
	return func(c *Config) { c.APIKey = key }
}

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *Config) { c.BaseURL = url }
}

// WithModel sets the vision model name.
func WithModel(model string) Option {
	return func(c *Config) { c.Model = model }
}

// WithTemperature sets the decoding temperature.
func WithTemperature(t float32) Option {
	return func(c *Config) { c.Temperature = t }
}

// WithMaxTokens limits the reply length.
func WithMaxTokens(n int) Option {
	return func(c *Config) { c.MaxTokens = n }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Config) { c.Timeout = d }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Config) { c.HTTPClient = hc }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) { c.Logger = l }
}

// DefaultConfig returns sensible default configuration.
func DefaultConfig() *Config {
	return &Config{
		Model:       "gpt-4o-mini",
		Temperature: 0.1,
		MaxTokens:   1024,
		Timeout:     60 * time.Second,
		Logger:      slog.Default(),
	}
}

// Apply applies functional options to the config.
func (c *Config) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
}

// NewClient creates a new analyzer client.
func NewClient(opts ...Option) (*Client, error) {
	cfg := DefaultConfig()
	cfg.Apply(opts...)

	if cfg.APIKey == "" {
		return nil, ErrNoAPIKey
	}

	apiCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		apiCfg.BaseURL = cfg.BaseURL
	}
	if cfg.HTTPClient != nil {
		apiCfg.HTTPClient = cfg.HTTPClient
	} else {
		apiCfg.HTTPClient = httpc.NewClient(cfg.Timeout)
	}

	return &Client{
		api:     openai.NewClientWithConfig(apiCfg),
		config:  cfg,
		logger:  cfg.Logger.With("component", "analysis.client"),
		nowFunc: time.Now,
	}, nil
}

// Analyze submits one frame for scene analysis. Single attempt, no retry;
// the error is the caller's signal to wait for the next scan cycle.
func (c *Client) Analyze(ctx context.Context, frame []byte) (*Result, error) {
	if len(frame) == 0 {
		return nil, ErrEmptyFrame
	}

	raw, err := decodeFrame(frame)
	if err != nil {
		return nil, err
	}

	start := time.Now()

	req := openai.ChatCompletionRequest{
		Model:       c.config.Model,
		Temperature: c.config.Temperature,
		MaxTokens:   c.config.MaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: systemPrompt,
			},
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type: openai.ChatMessagePartTypeText,
						Text: "Analyze this road scene.",
					},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL: "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(raw),
						},
					},
				},
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   schemaName,
				Schema: &responseSchema,
				Strict: true,
			},
		},
	}

	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, &RequestError{Err: err}
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return nil, ErrEmptyResponse
	}

	result, err := parseResult(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}
	result.Timestamp = c.nowFunc().Format("15:04:05")

	c.logger.Debug("frame analyzed",
		"model", c.config.Model,
		"safety", string(result.SafetyLevel),
		"hazards", len(result.Hazards),
		"signs", len(result.Signs),
		"latency_ms", time.Since(start).Milliseconds(),
	)

	return result, nil
}

// Close releases resources. The underlying HTTP client keeps no state that
// needs explicit teardown, so this is a no-op kept for interface symmetry.
func (c *Client) Close() error {
	return nil
}

// String describes the client for logs.
func (c *Client) String() string {
	return fmt.Sprintf("analysis.Client{model=%s}", c.config.Model)
}

// Verify Client implements Analyzer at compile time.
var _ Analyzer = (*Client)(nil)
