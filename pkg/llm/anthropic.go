package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const (
	defaultAnthropicModel = "claude-sonnet-4-20250514"
	maxWebSearches        = 5
)

// Anthropic completes prompts with the Messages API and the server-side web
// search tool. Web search result citations on text blocks become citations.
type Anthropic struct {
	client    *anthropic.Client
	model     anthropic.Model
	maxTokens int64
}

// NewAnthropic creates an Anthropic completer. baseURL is optional.
func NewAnthropic(model, apiKey, baseURL string) *Anthropic {
	if model == "" {
		model = defaultAnthropicModel
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	client := anthropic.NewClient(opts...)
	return &Anthropic{
		client:    &client,
		model:     anthropic.Model(model),
		maxTokens: 4096,
	}
}

func (a *Anthropic) Provider() string { return "anthropic" }

func (a *Anthropic) Complete(ctx context.Context, system, prompt string) (*Completion, error) {
	params := anthropic.MessageNewParams{
		Model:     a.model,
		MaxTokens: a.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
		Tools: []anthropic.ToolUnionParam{{
			OfWebSearchTool20250305: &anthropic.WebSearchTool20250305Param{
				MaxUses: anthropic.Int(maxWebSearches),
			},
		}},
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	resp, err := a.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic API error: %w", err)
	}

	var (
		sb        strings.Builder
		citations []string
	)
	for _, block := range resp.Content {
		if block.Type != "text" {
			continue
		}
		sb.WriteString(block.Text)
		for _, c := range block.Citations {
			if c.Type == "web_search_result_location" && c.URL != "" {
				citations = appendUnique(citations, c.URL)
			}
		}
	}
	if sb.Len() == 0 {
		return nil, fmt.Errorf("anthropic: no content returned")
	}

	return &Completion{Text: sb.String(), Citations: citations}, nil
}
