package llm

import (
	"context"
	"fmt"
)

// NoResponse is returned in place of an answer when the upstream reply
// carries no text where one is expected.
const NoResponse = "No response generated"

type Config struct {
	Provider string
	APIKey   string
	Model    string
	BaseURL  string
}

// Dispatcher forwards a fully built prompt as a single-turn request and
// relays the answer text.
type Dispatcher interface {
	Dispatch(ctx context.Context, prompt string) (string, error)
}

// OpenAI-compatible providers and their base URLs
var openAICompatibleProviders = map[string]string{
	"mistral":   "https://api.mistral.ai/v1",
	"groq":      "https://api.groq.com/openai/v1",
	"together":  "https://api.together.xyz/v1",
	"deepseek":  "https://api.deepseek.com/v1",
	"fireworks": "https://api.fireworks.ai/inference/v1",
}

func New(cfg Config) (Dispatcher, error) {
	switch cfg.Provider {
	case "", "gemini":
		return newGemini(cfg.APIKey, cfg.BaseURL, cfg.Model), nil
	case "claude":
		return newClaude(cfg.APIKey, cfg.BaseURL, cfg.Model), nil
	case "openai":
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = "https://api.openai.com/v1"
		}

		model := cfg.Model
		if model == "" {
			model = "gpt-4o-mini"
		}

		return newOpenAI(cfg.APIKey, baseURL, model), nil
	case "ollama":
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434"
		}

		model := cfg.Model
		if model == "" {
			model = "qwen2:0.5b"
		}

		// Ollama's OpenAI-compatible endpoint
		return newOpenAI("ollama", baseURL+"/v1", model), nil
	default:
		if baseURL, ok := openAICompatibleProviders[cfg.Provider]; ok {
			if cfg.BaseURL != "" {
				baseURL = cfg.BaseURL
			}
			return newOpenAI(cfg.APIKey, baseURL, cfg.Model), nil
		}
		return nil, fmt.Errorf("unknown provider: %s", cfg.Provider)
	}
}
