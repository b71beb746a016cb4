package llm

import (
	"context"
	"errors"

	"github.com/sashabaranov/go-openai"
)

type openaiCompatible struct {
	client *openai.Client
	model  string
}

func newOpenAI(apiKey, baseURL, model string) *openaiCompatible {
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = baseURL

	return &openaiCompatible{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

func (o *openaiCompatible) Dispatch(ctx context.Context, prompt string) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", mapOpenAIError(err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return NoResponse, nil
	}

	return resp.Choices[0].Message.Content, nil
}

func mapOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &UpstreamError{Status: apiErr.HTTPStatusCode, Body: apiErr.Message, Err: err}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &UpstreamError{Status: reqErr.HTTPStatusCode, Body: reqErr.Error(), Err: err}
	}

	return &UpstreamError{Err: err}
}
