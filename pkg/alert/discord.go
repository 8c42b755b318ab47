package alert

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Discord embed colour per impact level.
var impactColor = map[string]int{
	"High":   0xE11D48,
	"Medium": 0xF59E0B,
	"Low":    0x6366F1,
}

// Discord sends the digest via a Discord webhook.
type Discord struct {
	client     *http.Client
	webhookURL string
	now        func() time.Time
}

// NewDiscord creates a new Discord notifier.
func NewDiscord(webhookURL string) *Discord {
	return &Discord{client: newHTTPClient(), webhookURL: webhookURL, now: time.Now}
}

func (d *Discord) Name() string { return "discord" }

func (d *Discord) Send(ctx context.Context, n *Notification) error {
	lead := map[string]any{
		"title":       n.Headline,
		"description": n.Trend,
		"color":       0x4F46E5,
		"footer":      map[string]any{"text": "AI Pulse " + n.Date},
		"timestamp":   d.now().UTC().Format(time.RFC3339),
	}
	if n.PageURL != "" {
		lead["url"] = n.PageURL
	}
	embeds := []map[string]any{lead}

	// Discord caps a message at 10 embeds.
	for _, it := range n.Items {
		if len(embeds) == 10 {
			break
		}
		embeds = append(embeds, map[string]any{
			"title":       it.Title,
			"url":         itemLink(it),
			"description": it.Summary,
			"color":       impactColor[string(it.Impact)],
			"footer":      map[string]any{"text": fmt.Sprintf("%s · %s", it.Category.Label(), it.Source)},
		})
	}

	body, err := json.Marshal(map[string]any{"embeds": embeds})
	if err != nil {
		return fmt.Errorf("marshal discord payload: %w", err)
	}
	return postJSON(ctx, d.client, "discord webhook", d.webhookURL, body, nil)
}
