package report

import (
	"context"
	"time"
)

const defaultKey = "default"

// StaticSource serves reports from a fixed table. Unmapped dates get the
// default report with its date rewritten.
type StaticSource struct {
	table map[string]DailyReport
	delay time.Duration
}

// NewStatic creates a static source over table, which must contain a
// "default" entry. A nil table uses the built-in fixture.
func NewStatic(table map[string]DailyReport, delay time.Duration) *StaticSource {
	if table == nil {
		table = map[string]DailyReport{defaultKey: defaultFixture}
	}
	return &StaticSource{table: table, delay: delay}
}

func (s *StaticSource) Name() string { return "static" }

func (s *StaticSource) Report(ctx context.Context, date string) (*DailyReport, error) {
	if err := ValidateDate(date); err != nil {
		return nil, err
	}

	if s.delay > 0 {
		t := time.NewTimer(s.delay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-t.C:
		}
	}

	base, ok := s.table[date]
	if !ok {
		base = s.table[defaultKey]
	}
	return cloneWithDate(base, date), nil
}

func cloneWithDate(r DailyReport, date string) *DailyReport {
	out := r
	out.Date = date
	out.Highlights = make([]NewsItem, len(r.Highlights))
	for i, it := range r.Highlights {
		it.Tags = append([]string(nil), it.Tags...)
		out.Highlights[i] = it
	}
	out.Sources = append([]string(nil), r.Sources...)
	return &out
}

var defaultFixture = DailyReport{
	Headline:      "AI 2.0: from big models to big applications",
	TrendAnalysis: "The industry's attention has moved from foundation-model competition to vertical applications. Embodied intelligence, AI agents and on-device chips are taking AI out of the cloud lab and into everyday scenarios.",
	Highlights: []NewsItem{
		{
			ID:       "news_001",
			Title:    "OpenAI opens a GPT-5 preview with a step change in reasoning",
			Summary:  "OpenAI opened limited reasoning tests of its next model. A self-correcting chain of thought cuts error rates on advanced mathematics and multi-step programming by 85%, and a wider Plus rollout is expected next quarter.",
			Category: CategoryModel,
			Source:   "OpenAI Blog",
			Time:     "10:25 AM",
			Tags:     []string{"GPT-5", "Reasoning"},
			Impact:   ImpactHigh,
			URL:      "https://openai.com",
		},
		{
			ID:       "news_002",
			Title:    "NVIDIA Blackwell enters volume production, compute cost drops 60%",
			Summary:  "The first Blackwell GPUs have shipped to top data centres. Built for trillion-parameter models, FP4 inference runs five times faster than the previous generation, lowering the hardware bar for smaller companies.",
			Category: CategoryHardware,
			Source:   "NVIDIA News",
			Time:     "11:45 AM",
			Tags:     []string{"Blackwell", "Compute"},
			Impact:   ImpactHigh,
			URL:      "https://nvidia.com",
		},
		{
			ID:       "news_003",
			Title:    "Apple Intelligence 2.0 handles 70% of daily tasks on device",
			Summary:  "Apple's latest developer preview upgrades its on-device AI engine. New compression lets an iPhone summarise mail, edit images and manage schedules offline with negligible battery cost.",
			Category: CategoryTechnology,
			Source:   "9to5Mac",
			Time:     "02:10 PM",
			Tags:     []string{"Apple", "On-device AI"},
			Impact:   ImpactMedium,
			URL:      "https://apple.com",
		},
		{
			ID:       "news_004",
			Title:    "Mistral AI releases a 12B open model that challenges GPT-4",
			Summary:  "Pixtral 12B shows strong multimodal understanding, and its permissive commercial licence strengthens Mistral's position in European AI.",
			Category: CategoryModel,
			Source:   "Mistral Blog",
			Time:     "03:50 PM",
			Tags:     []string{"Mistral", "Open multimodal"},
			Impact:   ImpactMedium,
			URL:      "https://mistral.ai",
		},
		{
			ID:       "news_005",
			Title:    "Meta publishes the Llama 4 roadmap, promising closed-model parity",
			Summary:  "Llama 4 will use a mixture-of-experts architecture that may exceed 500B parameters. Meta plans to keep leading the open ecosystem and to help set compliance standards worldwide.",
			Category: CategoryIndustry,
			Source:   "Meta AI",
			Time:     "04:30 PM",
			Tags:     []string{"Llama 4", "Open ecosystem"},
			Impact:   ImpactHigh,
			URL:      "https://ai.meta.com",
		},
		{
			ID:       "news_006",
			Title:    "AI-discovered drug enters phase III clinical trials",
			Summary:  "Insilico Medicine's AI-designed treatment for idiopathic pulmonary fibrosis reached phase III. AI cut preclinical research by three years and costs by 90%.",
			Category: CategoryTechnology,
			Source:   "Nature Medicine",
			Time:     "08:00 PM",
			Tags:     []string{"AI drug discovery", "Biotech"},
			Impact:   ImpactHigh,
			URL:      "https://www.nature.com",
		},
	},
}
