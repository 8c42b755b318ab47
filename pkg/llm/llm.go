// Package llm wraps the text-generation providers used to build remote
// reports.
package llm

import (
	"context"
	"fmt"
)

// Completion is the raw model output plus any citation URLs the provider
// attached to it.
type Completion struct {
	Text      string
	Citations []string
}

// Completer sends a single non-streaming request to a text model.
type Completer interface {
	Provider() string
	Complete(ctx context.Context, system, prompt string) (*Completion, error)
}

// New returns the completer for provider ("anthropic" or "openai").
func New(provider, model, apiKey, baseURL string) (Completer, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("llm: api key required for %s", provider)
	}
	switch provider {
	case "anthropic":
		return NewAnthropic(model, apiKey, baseURL), nil
	case "openai", "":
		return NewOpenAI(model, apiKey, baseURL), nil
	default:
		return nil, fmt.Errorf("llm: unsupported provider %q (supported: anthropic, openai)", provider)
	}
}

func appendUnique(list []string, v string) []string {
	for _, s := range list {
		if s == v {
			return list
		}
	}
	return append(list, v)
}
