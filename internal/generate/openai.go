package generate

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// OpenAIGenerator talks to the chat completions API. Pointing BaseURL at a
// local OpenAI compatible server keeps generation offline.
type OpenAIGenerator struct {
	client *openai.Client
	opts   Options
}

// NewOpenAIGenerator creates an OpenAI generator. Without an explicit API
// key the client falls back to OPENAI_API_KEY.
func NewOpenAIGenerator(opts Options) *OpenAIGenerator {
	httpClient := &http.Client{Timeout: opts.Timeout}

	reqOpts := []option.RequestOption{option.WithHTTPClient(httpClient)}
	if base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/"); base != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(base))
	}
	if opts.APIKey != "" {
		reqOpts = append(reqOpts, option.WithAPIKey(opts.APIKey))
	}

	client := openai.NewClient(reqOpts...)
	return &OpenAIGenerator{client: &client, opts: opts}
}

// Generate sends prompt as a single user message
func (g *OpenAIGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model:    g.opts.Model,
		Messages: []openai.ChatCompletionMessageParamUnion{openai.UserMessage(prompt)},
	}
	if g.opts.MaxTokens > 0 {
		params.MaxCompletionTokens = openai.Opt(int64(g.opts.MaxTokens))
	}
	if g.opts.Temperature > 0 {
		params.Temperature = openai.Opt(g.opts.Temperature)
	}
	if g.opts.TopP > 0 {
		params.TopP = openai.Opt(g.opts.TopP)
	}

	resp, err := g.client.Chat.Completions.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return "", &Error{Provider: "openai", StatusCode: apiErr.StatusCode, Err: err}
		}
		return "", &Error{Provider: "openai", Err: err}
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", &Error{Provider: "openai", Err: ErrEmptyReply}
	}

	return resp.Choices[0].Message.Content, nil
}
