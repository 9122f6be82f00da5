package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionParams tunes a single chat completion. Zero values fall back to
// the client defaults.
type CompletionParams struct {
	Temperature float64
	MaxTokens   int
}

type Config struct {
	BaseURL            string
	APIKey             string
	ChatModel          string
	EmbeddingModel     string
	Temperature        float64
	Timeout            time.Duration
	RequestsPerMinute  int
	BreakerMaxFailures int
}

// OpenAICompatibleClient talks to any /chat/completions + /embeddings API.
// Calls are rate limited and pass through a circuit breaker; nothing retries.
type OpenAICompatibleClient struct {
	cfg        Config
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	limiter    *rate.Limiter
	tracer     trace.Tracer
}

func NewOpenAICompatibleClient(cfg Config, log *slog.Logger) *OpenAICompatibleClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 90 * time.Second
	}
	if cfg.BreakerMaxFailures <= 0 {
		cfg.BreakerMaxFailures = 5
	}
	if log == nil {
		log = slog.Default()
	}

	limit := rate.Inf
	burst := 1
	if cfg.RequestsPerMinute > 0 {
		limit = rate.Limit(float64(cfg.RequestsPerMinute) / 60.0)
		burst = max(1, cfg.RequestsPerMinute/10)
	}

	maxFailures := uint32(cfg.BreakerMaxFailures)
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "llm-api",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	})

	return &OpenAICompatibleClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		breaker:    breaker,
		limiter:    rate.NewLimiter(limit, burst),
		tracer:     otel.Tracer("research-assistant/ai"),
	}
}

// BreakerState reports the breaker position for health checks.
func (c *OpenAICompatibleClient) BreakerState() string {
	return c.breaker.State().String()
}

func (c *OpenAICompatibleClient) Complete(ctx context.Context, messages []ChatMessage, params CompletionParams) (string, error) {
	ctx, span := c.tracer.Start(ctx, "llm.chat_completion")
	defer span.End()
	span.SetAttributes(
		attribute.String("llm.model", c.cfg.ChatModel),
		attribute.Int("llm.messages", len(messages)),
	)

	temperature := params.Temperature
	if temperature == 0 {
		temperature = c.cfg.Temperature
	}
	reqBody := map[string]interface{}{
		"model":       c.cfg.ChatModel,
		"messages":    messages,
		"stream":      false,
		"temperature": temperature,
	}
	if params.MaxTokens > 0 {
		reqBody["max_tokens"] = params.MaxTokens
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := c.post(ctx, span, "/chat/completions", reqBody, &parsed); err != nil {
		return "", err
	}
	if len(parsed.Choices) == 0 {
		return "", c.fail(span, fmt.Errorf("%w: empty llm choices", ErrUpstreamUnavailable))
	}
	span.SetStatus(codes.Ok, "")
	return parsed.Choices[0].Message.Content, nil
}

// post rate limits, runs the request through the breaker and decodes the JSON
// body into out.
func (c *OpenAICompatibleClient) post(ctx context.Context, span trace.Span, path string, body any, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		span.SetAttributes(attribute.Bool("llm.rate_limited", true))
		return c.fail(span, fmt.Errorf("wait llm rate limiter: %w", err))
	}

	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return c.fail(span, fmt.Errorf("marshal llm request failed: %w", err))
	}

	raw, err := c.breaker.Execute(func() (interface{}, error) {
		return c.do(ctx, path, bodyBytes)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			span.SetAttributes(attribute.Bool("llm.circuit_breaker_open", true))
			return c.fail(span, fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err))
		}
		return c.fail(span, err)
	}

	if err := json.Unmarshal(raw.([]byte), out); err != nil {
		return c.fail(span, fmt.Errorf("%w: parse llm json failed: %w", ErrUpstreamUnavailable, err))
	}
	return nil
}

func (c *OpenAICompatibleClient) do(ctx context.Context, path string, body []byte) ([]byte, error) {
	url := strings.TrimRight(c.cfg.BaseURL, "/") + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build llm request failed: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: llm request failed: %w", ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read llm response failed: %w", ErrUpstreamUnavailable, err)
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: llm response status %d: %s", ErrUpstreamUnavailable, resp.StatusCode, truncate(string(raw), 512))
	}
	return raw, nil
}

func (c *OpenAICompatibleClient) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
