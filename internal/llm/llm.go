package llm

import (
	"context"
	"fmt"

	"github.com/snipvault/snipvault/internal/config"
)

// AnnotateRequest is the input to the Annotator.
type AnnotateRequest struct {
	Code     string
	Language string
}

// AnnotateResponse holds the commented version of the submitted code.
type AnnotateResponse struct {
	AnnotatedCode string `json:"annotated_code"`
}

// Annotator adds explanatory comments to code via an LLM provider.
type Annotator interface {
	Annotate(ctx context.Context, req AnnotateRequest) (*AnnotateResponse, error)
}

// New creates an Annotator based on the config. Returns nil when LLMProvider is
// unset, meaning AI annotation is disabled.
func New(cfg *config.Config) (Annotator, error) {
	switch cfg.LLM.Provider {
	case "":
		return nil, nil
	case "anthropic":
		return newAnthropicAnnotator(cfg), nil
	case "openai", "openai-compatible":
		return newOpenAIAnnotator(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %q", cfg.LLM.Provider)
	}
}
