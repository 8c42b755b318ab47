package report

import (
	"encoding/json"
	"fmt"
	"strings"
)

// rawItem mirrors NewsItem but keeps category and impact loose so model
// output in any casing or label form can be normalised.
type rawItem struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Summary  string   `json:"summary"`
	Category string   `json:"category"`
	Source   string   `json:"source"`
	Time     string   `json:"time"`
	Tags     []string `json:"tags"`
	Impact   string   `json:"impact"`
	URL      string   `json:"url"`
}

type rawReport struct {
	Date          string    `json:"date"`
	Headline      string    `json:"headline"`
	TrendAnalysis string    `json:"trendAnalysis"`
	Highlights    []rawItem `json:"highlights"`
	Sources       []string  `json:"sources"`
}

// ExtractStructured pulls a DailyReport out of free-form model output. It
// strips markdown fences, cuts from the first '{' to the last '}' and
// requires a non-empty highlights array.
func ExtractStructured(text string) (*DailyReport, error) {
	body, err := ExtractJSON(text)
	if err != nil {
		return nil, err
	}

	// Syntax errors are ErrParse; a parseable object with fields of the
	// wrong type is ErrInvalidShape.
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(body), &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	var raw rawReport
	if err := json.Unmarshal([]byte(body), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidShape, err)
	}
	if len(raw.Highlights) == 0 {
		return nil, ErrInvalidShape
	}

	r := &DailyReport{
		Date:          raw.Date,
		Headline:      raw.Headline,
		TrendAnalysis: raw.TrendAnalysis,
		Highlights:    make([]NewsItem, len(raw.Highlights)),
		Sources:       raw.Sources,
	}
	for i, it := range raw.Highlights {
		cat, _ := ParseCategory(it.Category)
		r.Highlights[i] = NewsItem{
			ID:       it.ID,
			Title:    it.Title,
			Summary:  it.Summary,
			Category: cat,
			Source:   it.Source,
			Time:     it.Time,
			Tags:     it.Tags,
			Impact:   ParseImpact(it.Impact),
			URL:      it.URL,
		}
	}
	return r, nil
}

// ExtractJSON returns the text between the first '{' and the last '}' after
// removing markdown fences, or ErrParse when there is no such span.
func ExtractJSON(text string) (string, error) {
	body := stripFences(text)
	start := strings.Index(body, "{")
	end := strings.LastIndex(body, "}")
	if start < 0 || end <= start {
		return "", fmt.Errorf("%w: %s", ErrParse, truncateStr(text, 200))
	}
	return body[start : end+1], nil
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// truncateStr keeps the first n runes of s.
func truncateStr(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
