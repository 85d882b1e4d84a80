package generate

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicGenerator uses the Messages API
type AnthropicGenerator struct {
	client *anthropic.Client
	opts   Options
}

// NewAnthropicGenerator creates an Anthropic generator. Without an explicit
// API key the client falls back to ANTHROPIC_API_KEY.
func NewAnthropicGenerator(opts Options) *AnthropicGenerator {
	reqOpts := []option.RequestOption{option.WithHTTPClient(&http.Client{Timeout: opts.Timeout})}
	if base := strings.TrimSuffix(strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/"), "/v1"); base != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(base))
	}
	if opts.APIKey != "" {
		reqOpts = append(reqOpts, option.WithAPIKey(opts.APIKey))
	}

	client := anthropic.NewClient(reqOpts...)
	return &AnthropicGenerator{client: &client, opts: opts}
}

// Generate sends prompt as a single user message and joins the text blocks
// of the reply
func (g *AnthropicGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	maxTokens := int64(g.opts.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = int64(DefaultOptions().MaxTokens)
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(g.opts.Model),
		MaxTokens: maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}
	// The API rejects temperature and top_p together on newer models
	if g.opts.Temperature > 0 {
		params.Temperature = anthropic.Float(g.opts.Temperature)
	} else if g.opts.TopP > 0 {
		params.TopP = anthropic.Float(g.opts.TopP)
	}

	resp, err := g.client.Messages.New(ctx, params)
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			return "", &Error{Provider: "anthropic", StatusCode: apiErr.StatusCode, Err: err}
		}
		return "", &Error{Provider: "anthropic", Err: err}
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.AsText().Text)
		}
	}
	if sb.Len() == 0 {
		return "", &Error{Provider: "anthropic", Err: ErrEmptyReply}
	}
	return sb.String(), nil
}
