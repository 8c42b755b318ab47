package source

import "strings"

// DefaultKeywords decide whether a feed entry is AI news at all.
var DefaultKeywords = []string{
	"artificial intelligence", "machine learning", "deep learning",
	"neural network", "llm", "large language model", "gpt",
	"transformer", "diffusion", "generative ai", "genai", "agi",
	"reinforcement learning", "fine-tuning", "ai agent", "agentic",
	"copilot", "chatbot", "foundation model", "inference",
	"llama", "mistral", "gemini", "openai", "anthropic", "claude",
	"hugging face", "nvidia", "gpu", "tpu", "ai chip",
	"multimodal", "text-to-image", "text-to-video",
	"ai act", "ai safety", "ai regulation", "alignment",
}

// Filter matches text against keyword lists, case-insensitively.
type Filter struct {
	keywords []string
	exclude  []string
}

// NewFilter creates a filter with the default keywords plus extras.
func NewFilter(extraKeywords, excludeKeywords []string) *Filter {
	f := &Filter{}
	for _, kw := range append(append([]string(nil), DefaultKeywords...), extraKeywords...) {
		f.keywords = append(f.keywords, strings.ToLower(kw))
	}
	for _, kw := range excludeKeywords {
		f.exclude = append(f.exclude, strings.ToLower(kw))
	}
	return f
}

// Match reports whether text is AI-related and not excluded. A nil Filter
// matches everything.
func (f *Filter) Match(text string) bool {
	if f == nil {
		return true
	}
	lower := strings.ToLower(text)

	for _, ex := range f.exclude {
		if strings.Contains(lower, ex) {
			return false
		}
	}
	for _, kw := range f.keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
