package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const defaultOpenAIModel = openai.ChatModelGPT4oMiniSearchPreview

// OpenAI completes prompts with the Chat Completions API. Search models get
// web_search_options and their URL citation annotations become citations.
type OpenAI struct {
	client *openai.Client
	model  openai.ChatModel
	search bool
}

// NewOpenAI creates an OpenAI completer. baseURL is optional.
func NewOpenAI(model, apiKey, baseURL string) *OpenAI {
	if model == "" {
		model = string(defaultOpenAIModel)
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	client := openai.NewClient(opts...)
	return &OpenAI{
		client: &client,
		model:  openai.ChatModel(model),
		search: strings.Contains(model, "search"),
	}
}

func (o *OpenAI) Provider() string { return "openai" }

func (o *OpenAI) Complete(ctx context.Context, system, prompt string) (*Completion, error) {
	var messages []openai.ChatCompletionMessageParamUnion
	if system != "" {
		messages = append(messages, openai.SystemMessage(system))
	}
	messages = append(messages, openai.UserMessage(prompt))

	params := openai.ChatCompletionNewParams{
		Model:    o.model,
		Messages: messages,
	}
	if o.search {
		params.WebSearchOptions = openai.ChatCompletionNewParamsWebSearchOptions{
			SearchContextSize: "medium",
		}
	}

	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai: no choices returned")
	}

	msg := resp.Choices[0].Message
	out := &Completion{Text: msg.Content}
	for _, ann := range msg.Annotations {
		if ann.URLCitation.URL != "" {
			out.Citations = appendUnique(out.Citations, ann.URLCitation.URL)
		}
	}
	return out, nil
}
