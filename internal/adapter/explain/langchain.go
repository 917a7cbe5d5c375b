// Package explain adapts langchaingo chat models to the explanation flow.
package explain

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/openai"

	"beautyrec/internal/logging"
	"beautyrec/internal/port"
)

// Supported providers.
const (
	ProviderGoogleAI = "googleai"
	ProviderOpenAI   = "openai"
)

// Factory creates a chat model per credential.
type Factory struct {
	provider string
	model    string
	baseURL  string
	logger   zerolog.Logger
}

var _ port.LLMFactory = (*Factory)(nil)

// NewFactory validates the provider name.
func NewFactory(provider, model, baseURL string) (*Factory, error) {
	switch provider {
	case ProviderGoogleAI, ProviderOpenAI:
	default:
		return nil, fmt.Errorf("unsupported explanation provider: %s", provider)
	}
	return &Factory{
		provider: provider,
		model:    model,
		baseURL:  baseURL,
		logger:   logging.With().Str("component", "explain").Str("provider", provider).Logger(),
	}, nil
}

// New builds a client bound to apiKey.
func (f *Factory) New(ctx context.Context, apiKey string) (port.LLM, error) {
	var (
		model llms.Model
		err   error
	)
	switch f.provider {
	case ProviderGoogleAI:
		model, err = googleai.New(ctx,
			googleai.WithAPIKey(apiKey),
			googleai.WithDefaultModel(f.model),
		)
	case ProviderOpenAI:
		opts := []openai.Option{
			openai.WithToken(apiKey),
			openai.WithModel(f.model),
		}
		if f.baseURL != "" {
			opts = append(opts, openai.WithBaseURL(f.baseURL))
		}
		model, err = openai.New(opts...)
	}
	if err != nil {
		return nil, err
	}
	return newClient(model, f.model, f.logger), nil
}

// Client generates text with a langchaingo model.
type Client struct {
	model  llms.Model
	name   string
	logger zerolog.Logger
}

func newClient(model llms.Model, name string, logger zerolog.Logger) *Client {
	return &Client{model: model, name: name, logger: logger}
}

// Generate sends a single-turn prompt.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	c.logger.Debug().Int("prompt_len", len(prompt)).Str("model", c.name).Msg("generating explanation")

	text, err := llms.GenerateFromSinglePrompt(ctx, c.model, prompt)
	if err != nil {
		c.logger.Error().Err(err).Str("model", c.name).Msg("generation failed")
		return "", err
	}
	return text, nil
}

func (c *Client) ModelName() string {
	return c.name
}
