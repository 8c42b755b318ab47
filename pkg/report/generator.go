package report

import (
	"context"
	"fmt"
	"sort"
	"time"
	"unicode/utf16"

	"github.com/dustin/go-humanize"
)

const generatedCount = 5

// labelEpoch anchors relative-time labels so generation stays pure.
var labelEpoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

type poolItem struct {
	Title    string
	Summary  string
	Category Category
	Source   string
	Tags     []string
}

var newsPool = []poolItem{
	{
		Title:    "Next-generation reasoning model ships with 400% faster inference",
		Summary:  "A new reasoning architecture uses dynamic sparsity to cut compute cost while keeping logical ability. Benchmarks show new records in math competitions and code generation.",
		Category: CategoryModel,
		Source:   "AI Frontiers",
		Tags:     []string{"LLM", "Inference", "SOTA"},
	},
	{
		Title:    "First global AI governance framework signed in Zurich",
		Summary:  "Delegates from more than 30 countries agreed rules on model transparency, safety boundaries and training-data compliance, a milestone for AI regulation.",
		Category: CategoryPolicy,
		Source:   "Global Tech Watch",
		Tags:     []string{"Policy", "Regulation", "Governance"},
	},
	{
		Title:    "Photonic AI chip breaks the cooling barrier and doubles per-card compute",
		Summary:  "A photonic integrated circuit design solves power and heat problems in massively parallel computation. Commercial availability is expected in the second half of next year.",
		Category: CategoryHardware,
		Source:   "Silicon Insider",
		Tags:     []string{"Chips", "Photonics", "Hardware"},
	},
	{
		Title:    "Top lab announces multimodal emotional alignment",
		Summary:  "The technique lets models read and respond to human emotional shifts more precisely, making human-computer interaction noticeably more natural.",
		Category: CategoryTechnology,
		Source:   "Neural Daily",
		Tags:     []string{"Multimodal", "HCI", "Affective computing"},
	},
	{
		Title:    "AI compute rental prices swing as demand shifts to the edge",
		Summary:  "On-device model optimisation reduces reliance on expensive cloud compute. Analysts expect edge AI to take 60% of the market within 12 months.",
		Category: CategoryIndustry,
		Source:   "Market Pulse",
		Tags:     []string{"Compute", "Market analysis", "Edge AI"},
	},
	{
		Title:    "Open model community downloads hit a record high",
		Summary:  "Daily active users of the largest AI community grew 150%. Lightweight open models are becoming the default choice for small businesses deploying AI.",
		Category: CategoryIndustry,
		Source:   "OpenDev",
		Tags:     []string{"Open source", "Community", "Ecosystem"},
	},
}

var trendPool = []string{
	"As reasoning costs collapse, AI applications are moving from single-turn chat to long-running reasoning agents.",
	"Maturing on-device AI hardware is reshaping personal computing, with privacy as the headline feature.",
	"Regulatory frameworks landing worldwide mark the industry's shift from unchecked growth to governed development.",
	"The multimodal boom has made video generation and 3D modelling this year's most contested frontier.",
}

// GeneratedSource derives a report deterministically from the date string.
// The same date always yields the same report.
type GeneratedSource struct{}

// NewGenerated creates a deterministic generator.
func NewGenerated() *GeneratedSource { return &GeneratedSource{} }

func (g *GeneratedSource) Name() string { return "generated" }

func (g *GeneratedSource) Report(_ context.Context, date string) (*DailyReport, error) {
	if err := ValidateDate(date); err != nil {
		return nil, err
	}
	return Generate(date), nil
}

// Seed sums the character codes of date.
func Seed(date string) int {
	seed := 0
	for _, u := range utf16.Encode([]rune(date)) {
		seed += int(u)
	}
	return seed
}

// Generate builds the report for date. Selection sorts the pool stably by
// (utf16 title length + seed) mod 100 and keeps the first five.
func Generate(date string) *DailyReport {
	seed := Seed(date)

	shuffled := make([]poolItem, len(newsPool))
	copy(shuffled, newsPool)
	sort.SliceStable(shuffled, func(i, j int) bool {
		return titleHash(shuffled[i].Title, seed) < titleHash(shuffled[j].Title, seed)
	})

	n := generatedCount
	if len(shuffled) < n {
		n = len(shuffled)
	}

	highlights := make([]NewsItem, n)
	for idx, p := range shuffled[:n] {
		highlights[idx] = NewsItem{
			ID:       fmt.Sprintf("sim-news-%s-%d", date, idx),
			Title:    p.Title,
			Summary:  p.Summary,
			Category: p.Category,
			Source:   p.Source,
			Time:     relativeHours((seed+idx)%12 + 1),
			Tags:     append([]string(nil), p.Tags...),
			Impact:   impactForPosition(idx),
		}
	}

	return &DailyReport{
		Date:          date,
		Headline:      highlights[0].Title,
		TrendAnalysis: trendPool[seed%len(trendPool)],
		Highlights:    highlights,
		Sources:       []string{"https://artificialanalysis.ai/"},
	}
}

func titleHash(title string, seed int) int {
	return (len(utf16.Encode([]rune(title))) + seed) % 100
}

func relativeHours(h int) string {
	return humanize.RelTime(labelEpoch.Add(-time.Duration(h)*time.Hour), labelEpoch, "ago", "from now")
}
