package gemini

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/phrazzld/lexis/internal/config"
	"github.com/phrazzld/lexis/internal/generation"
	"github.com/sethvargo/go-retry"
	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// modelsAPI is the subset of *genai.Models the adapters use.
type modelsAPI interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content,
		config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	EmbedContent(ctx context.Context, model string, contents []*genai.Content,
		config *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error)
}

// Client issues rate-limited, retried calls to the Gemini API. A Client is
// safe for concurrent use and is normally shared by the Generator and the
// Embedder.
type Client struct {
	models     modelsAPI
	limiter    *rate.Limiter
	maxRetries uint64
	baseDelay  time.Duration
	timeout    time.Duration
	logger     *slog.Logger
}

// NewClient connects to the Gemini API with the key in cfg.
func NewClient(ctx context.Context, cfg config.LLMConfig, logger *slog.Logger) (*Client, error) {
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", generation.ErrInvalidConfig)
	}
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v", generation.ErrInvalidConfig, err)
	}
	return newClient(gc.Models, cfg, logger), nil
}

func newClient(models modelsAPI, cfg config.LLMConfig, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 2
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	base := cfg.RetryBaseDelay
	if base <= 0 {
		base = 500 * time.Millisecond
	}
	retries := cfg.MaxRetries
	if retries < 0 {
		retries = 0
	}
	return &Client{
		models:     models,
		limiter:    rate.NewLimiter(rate.Limit(rps), burst),
		maxRetries: uint64(retries),
		baseDelay:  base,
		timeout:    cfg.Timeout,
		logger:     logger.With(slog.String("component", "gemini")),
	}
}

// do runs call under the limiter, retrying transient failures.
func (c *Client) do(ctx context.Context, op string, call func(ctx context.Context) error) error {
	backoff := retry.WithMaxRetries(c.maxRetries,
		retry.WithJitterPercent(20, retry.NewExponential(c.baseDelay)))

	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		callCtx := ctx
		if c.timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, c.timeout)
			defer cancel()
		}

		err := call(callCtx)
		if err != nil && isTransient(err) && ctx.Err() == nil {
			c.logger.WarnContext(ctx, "gemini call failed, retrying",
				slog.String("operation", op),
				slog.Int("attempt", attempt),
				slog.String("error", err.Error()))
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		c.logger.ErrorContext(ctx, "gemini call failed",
			slog.String("operation", op),
			slog.Int("attempts", attempt),
			slog.String("error", err.Error()))
	}
	return err
}

// generateText sends prompt to model and returns the concatenated text of
// the first candidate.
func (c *Client) generateText(ctx context.Context, op, model, prompt string, cfg *genai.GenerateContentConfig) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", ErrEmptyInput
	}

	var resp *genai.GenerateContentResponse
	err := c.do(ctx, op, func(ctx context.Context) error {
		var err error
		resp, err = c.models.GenerateContent(ctx, model, genai.Text(prompt), cfg)
		return err
	})
	if err != nil {
		return "", wrapCallError(op, err)
	}
	return responseText(resp)
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("%w: no candidates", generation.ErrInvalidResponse)
	}
	cand := resp.Candidates[0]
	if cand.FinishReason == genai.FinishReasonSafety {
		return "", generation.ErrContentBlocked
	}
	if cand.Content == nil {
		return "", fmt.Errorf("%w: empty content", generation.ErrInvalidResponse)
	}

	var b strings.Builder
	for _, part := range cand.Content.Parts {
		if part != nil {
			b.WriteString(part.Text)
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("%w: empty text", generation.ErrInvalidResponse)
	}
	return b.String(), nil
}

// embed returns the embedding of text under model.
func (c *Client) embed(ctx context.Context, model, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyInput
	}

	var resp *genai.EmbedContentResponse
	err := c.do(ctx, "embed", func(ctx context.Context) error {
		var err error
		resp, err = c.models.EmbedContent(ctx, model, genai.Text(text),
			&genai.EmbedContentConfig{TaskType: "SEMANTIC_SIMILARITY"})
		return err
	})
	if err != nil {
		return nil, wrapCallError("embed", err)
	}
	if resp == nil || len(resp.Embeddings) == 0 || resp.Embeddings[0] == nil || len(resp.Embeddings[0].Values) == 0 {
		return nil, fmt.Errorf("%w: no embedding returned", generation.ErrInvalidResponse)
	}
	return resp.Embeddings[0].Values, nil
}
