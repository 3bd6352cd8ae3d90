package neural

import (
	"context"
	"errors"
	"fmt"

	"github.com/sashabaranov/go-openai"

	"github.com/iamwavecut/shrek-bot/internal/worker"
)

const openAITemperature = 0.7

var ErrNoChoices = errors.New("completion has no choices")

type OpenAIConfig struct {
	Token   string
	BaseURL string
	Model   string
	// Stop is passed as the completion stop sequence when set.
	Stop string
}

// OpenAILoader returns a loader for backends served by an OpenAI-compatible
// completions API. Loading checks that the model is available.
func OpenAILoader(cfg OpenAIConfig) worker.Loader {
	return func(ctx context.Context) (worker.Backend, error) {
		clientConfig := openai.DefaultConfig(cfg.Token)
		if cfg.BaseURL != "" {
			clientConfig.BaseURL = cfg.BaseURL
		}
		client := openai.NewClientWithConfig(clientConfig)

		if _, err := client.GetModel(ctx, cfg.Model); err != nil {
			return nil, fmt.Errorf("model %q: %w", cfg.Model, err)
		}
		return &openAIBackend{client: client, model: cfg.Model, stop: cfg.Stop}, nil
	}
}

type openAIBackend struct {
	client *openai.Client
	model  string
	stop   string
}

func (b *openAIBackend) Generate(ctx context.Context, prefix string, length int) (string, error) {
	req := openai.CompletionRequest{
		Model:       b.model,
		Prompt:      prefix,
		MaxTokens:   length,
		Temperature: openAITemperature,
		N:           1,
		Echo:        true,
	}
	if b.stop != "" {
		req.Stop = []string{b.stop}
	}

	resp, err := b.client.CreateCompletion(ctx, req)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", ErrNoChoices
	}
	return resp.Choices[0].Text, nil
}

func (b *openAIBackend) Close() error {
	return nil
}
