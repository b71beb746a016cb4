package llm

import (
	"context"
	"errors"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const (
	claudeModel     = "claude-sonnet-4-20250514"
	claudeMaxTokens = 4096
)

type claude struct {
	client anthropic.Client
	model  string
}

func newClaude(apiKey, baseURL, model string) *claude {
	if model == "" {
		model = claudeModel
	}

	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	return &claude{
		client: anthropic.NewClient(opts...),
		model:  model,
	}
}

func (c *claude) Dispatch(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: claudeMaxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			return "", &UpstreamError{Status: apiErr.StatusCode, Body: apiErr.RawJSON(), Err: err}
		}
		return "", &UpstreamError{Err: err}
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if text, ok := block.AsAny().(anthropic.TextBlock); ok {
			sb.WriteString(text.Text)
		}
	}

	if sb.Len() == 0 {
		return NoResponse, nil
	}

	return sb.String(), nil
}
