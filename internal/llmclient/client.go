// Package llmclient wraps tmc/langchaingo's OpenAI-compatible chat
// driver, pointed at Perplexity's hosted endpoint, with a bounded
// max_tokens per call site and retry on transient failure.
package llmclient

import (
	"context"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/usercommon/hotelcorpus/internal/apperrors"
)

const defaultBaseURL = "https://api.perplexity.ai"

// Model is the single model this system calls for every LLM-driven
// component.
const Model = "sonar-pro"

// Token budgets per component.
const (
	ExtractorMaxTokens   = 6144
	RefinerMaxTokens     = 10240
	AdjudicatorMaxTokens = 40960
)

// Client issues single-turn chat completions against Perplexity's
// OpenAI-compatible API.
type Client struct {
	llm *openai.LLM
}

// New constructs a Client. apiKey comes from PERPLEXITY_API_KEY
// (config.Config.PerplexityAPIKey); baseURL is overridable for tests.
func New(apiKey string, baseURL string) (*Client, error) {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	l, err := openai.New(
		openai.WithToken(apiKey),
		openai.WithModel(Model),
		openai.WithBaseURL(baseURL),
	)
	if err != nil {
		return nil, apperrors.New(apperrors.Fatal, "llmclient.New", err)
	}
	return &Client{llm: l}, nil
}

// Complete issues one chat-completion request and returns the raw
// response text, retried up to maxRetries times on transient failure.
// Callers are responsible for interpreting the text (see ExtractJSON).
func (c *Client) Complete(ctx context.Context, prompt string, maxTokens int, maxRetries int) (string, error) {
	var out string
	op := func(attemptCtx context.Context) error {
		resp, err := c.llm.Call(attemptCtx, prompt, llms.WithMaxTokens(maxTokens))
		if err != nil {
			return err
		}
		out = resp
		return nil
	}
	if err := apperrors.Retry(ctx, maxRetries, 0, op); err != nil {
		return "", apperrors.New(apperrors.TransientNetwork, "llmclient.Complete", err)
	}
	return out, nil
}
