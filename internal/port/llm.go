package port

import "context"

// LLM represents a language model for text generation.
type LLM interface {
	// Generate generates text based on the prompt.
	Generate(ctx context.Context, prompt string) (string, error)

	// ModelName returns the name of the model.
	ModelName() string
}

// LLMFactory builds an LLM bound to a credential. The explanation flow
// resolves the credential per request, so clients are created lazily.
type LLMFactory interface {
	New(ctx context.Context, apiKey string) (LLM, error)
}
