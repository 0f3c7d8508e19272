// Package insight generates financial advice from ledger aggregates using
// the Gemini API. Generation is best-effort: when no credentials are
// configured, or the model response cannot be used, the gateway degrades to
// a standby notice instead of failing.
package insight

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/genai"

	"wealthwise/internal/core"
	"wealthwise/internal/ledger"
)

const (
	DefaultModel = "gemini-2.5-flash"

	maxInsights = 3
)

// Gateway requests AI-generated insights for a ledger's aggregates.
type Gateway struct {
	client *genai.Client
	model  string
}

// New builds a Gateway. An empty apiKey yields a gateway that always
// answers with the standby notice and never touches the network.
func New(ctx context.Context, apiKey, model string) (*Gateway, error) {
	if model == "" {
		model = DefaultModel
	}
	if apiKey == "" {
		return &Gateway{model: model}, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Gateway{client: client, model: model}, nil
}

// Enabled reports whether a real model backs this gateway.
func (g *Gateway) Enabled() bool {
	return g.client != nil
}

// Generate returns up to three insights for the given aggregates. The lang
// code selects the response language ("en" or "th"; anything else falls
// back to English). Generate never returns an error to its caller for model
// problems: a standby notice or an empty list stands in instead.
func (g *Gateway) Generate(ctx context.Context, agg ledger.Aggregates, lang string) []core.AIInsight {
	if g.client == nil {
		return []core.AIInsight{standbyInsight(lang)}
	}

	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   responseSchema(),
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(buildPrompt(agg, lang)), config)
	if err != nil {
		slog.WarnContext(ctx, "Insight generation failed", "model", g.model, "error", err)
		return nil
	}
	if resp == nil {
		return nil
	}

	insights := ParseInsights(resp.Text())
	slog.InfoContext(ctx, "Insights generated", "model", g.model, "count", len(insights))
	return insights
}

// ParseInsights decodes the model's JSON payload. Records with a blank
// title or recommendation, or an unknown priority, are dropped; at most
// three insights are kept. An unusable payload yields an empty list.
func ParseInsights(raw string) []core.AIInsight {
	var payload struct {
		Insights []core.AIInsight `json:"insights"`
	}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil
	}

	insights := make([]core.AIInsight, 0, maxInsights)
	for _, in := range payload.Insights {
		if strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.Recommendation) == "" {
			continue
		}
		if !in.Priority.Valid() {
			continue
		}
		insights = append(insights, in)
		if len(insights) == maxInsights {
			break
		}
	}
	return insights
}

func buildPrompt(agg ledger.Aggregates, lang string) string {
	var b strings.Builder
	b.WriteString("You are a financial advisor for a student. Based on the data below, ")
	b.WriteString(fmt.Sprintf("provide exactly %d actionable insights.\n", maxInsights))
	if languageName(lang) != "English" {
		b.WriteString(fmt.Sprintf("Respond in %s.\n", languageName(lang)))
	}

	s := agg.Summary
	b.WriteString(fmt.Sprintf("\nTotal income: %.2f\nTotal expenses: %.2f\nBalance: %.2f\nSavings rate: %.1f%%\n",
		s.Income.Units(), s.Expenses.Units(), s.Balance.Units(), s.SavingsRate))

	if len(agg.Breakdown) > 0 {
		b.WriteString("\nSpending by category:\n")
		for _, c := range agg.Breakdown {
			b.WriteString(fmt.Sprintf("- %s: %.2f\n", c.Category, c.Value.Units()))
		}
	}
	if len(agg.Progress) > 0 {
		b.WriteString("\nBudget usage:\n")
		for _, p := range agg.Progress {
			b.WriteString(fmt.Sprintf("- %s: %.2f of %.2f (%.0f%%)\n",
				p.Category, p.Spent.Units(), p.Limit.Units(), p.Percentage))
		}
	}
	return b.String()
}

func languageName(lang string) string {
	if lang == "th" {
		return "Thai"
	}
	return "English"
}

func responseSchema() *genai.Schema {
	return &genai.Schema{
		Type:     genai.TypeObject,
		Required: []string{"insights"},
		Properties: map[string]*genai.Schema{
			"insights": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type:     genai.TypeObject,
					Required: []string{"title", "recommendation", "priority"},
					Properties: map[string]*genai.Schema{
						"title":          {Type: genai.TypeString},
						"recommendation": {Type: genai.TypeString},
						"priority":       {Type: genai.TypeString, Enum: []string{"low", "medium", "high"}},
					},
				},
			},
		},
	}
}

func standbyInsight(lang string) core.AIInsight {
	if lang == "th" {
		return core.AIInsight{
			Title:          "ระบบ AI ยังไม่พร้อมใช้งาน",
			Recommendation: "ยังไม่ได้ตั้งค่า API key สำหรับการวิเคราะห์ด้วย AI",
			Priority:       core.PriorityLow,
		}
	}
	return core.AIInsight{
		Title:          "AI standby",
		Recommendation: "AI analysis is not configured. Set an API key to enable insights.",
		Priority:       core.PriorityLow,
	}
}
