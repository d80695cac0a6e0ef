package assistant

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/models"
)

// MaxInsights caps the number of insights kept from one generation.
const MaxInsights = 3

// Notice tells the caller a fallback was used. It is empty when the
// provider answered.
type Notice string

const (
	NoticeOffline     Notice = "assistant offline, showing a local summary"
	NoticeUnavailable Notice = "assistant unavailable, showing a local summary"
)

// Advisor turns ledger data into insights, reports and chat replies.
type Advisor struct {
	completer Completer
	now       func() time.Time
	newID     func() string
	logger    *slog.Logger
}

// AdvisorOption is a functional option for configuring an Advisor.
type AdvisorOption func(*Advisor)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) AdvisorOption {
	return func(a *Advisor) { a.now = now }
}

// WithIDs overrides the id generator.
func WithIDs(newID func() string) AdvisorOption {
	return func(a *Advisor) { a.newID = newID }
}

// WithAdvisorLogger sets the logger.
func WithAdvisorLogger(l *slog.Logger) AdvisorOption {
	return func(a *Advisor) { a.logger = l }
}

// NewAdvisor creates an advisor. A nil completer always yields fallbacks.
func NewAdvisor(c Completer, opts ...AdvisorOption) *Advisor {
	a := &Advisor{
		completer: c,
		now:       time.Now,
		newID:     uuid.NewString,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Advisor) complete(ctx context.Context, req Request) (string, Notice) {
	if a.completer == nil {
		return "", NoticeOffline
	}
	text, err := a.completer.Complete(ctx, req)
	if errors.Is(err, ErrNoCredential) {
		return "", NoticeOffline
	}
	if err != nil {
		a.logger.Warn("Assistant call failed", "error", err)
		return "", NoticeUnavailable
	}
	return text, ""
}

type insightDraft struct {
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Impact      models.Impact `json:"impact"`
	Actions     []string      `json:"actions"`
}

// Insights returns at most MaxInsights insights for the given data.
func (a *Advisor) Insights(ctx context.Context, groups []models.Group, expenses []models.Expense) ([]models.AiInsight, Notice) {
	prompt := fmt.Sprintf(`You are an AI financial copilot. Using the JSON data, craft %d concise insights with impact level (low, medium, high) and actionable steps.

Groups: %s
Expenses: %s

Return JSON array matching the schema:
[{"title":"","description":"","impact":"low|medium|high","actions":["string"]}]`,
		MaxInsights, mustJSON(groups), mustJSON(expenses))

	text, notice := a.complete(ctx, Request{Messages: []Message{UserText(prompt)}})
	if notice != "" {
		return a.fallbackInsights(groups, expenses), notice
	}

	var drafts []insightDraft
	if err := json.Unmarshal([]byte(extractJSON(text)), &drafts); err != nil {
		a.logger.Warn("Malformed insights from assistant", "error", err)
		return a.fallbackInsights(groups, expenses), NoticeUnavailable
	}
	if len(drafts) > MaxInsights {
		drafts = drafts[:MaxInsights]
	}

	now := a.now().UTC()
	insights := make([]models.AiInsight, 0, len(drafts))
	for _, d := range drafts {
		if !d.Impact.Valid() {
			a.logger.Warn("Assistant returned invalid impact", "impact", d.Impact)
			return a.fallbackInsights(groups, expenses), NoticeUnavailable
		}
		insights = append(insights, models.AiInsight{
			ID:          a.newID(),
			Title:       d.Title,
			Description: d.Description,
			Impact:      d.Impact,
			CreatedAt:   now,
			Actions:     d.Actions,
		})
	}
	return insights, ""
}

func (a *Advisor) fallbackInsights(groups []models.Group, expenses []models.Expense) []models.AiInsight {
	name := "Your group"
	if len(groups) > 0 {
		name = groups[0].Name
	}
	return []models.AiInsight{{
		ID:    a.newID(),
		Title: name + " spending snapshot",
		Description: fmt.Sprintf("You've tracked %d expenses so far totalling $%.2f. Consider enabling smart settlements to keep reimbursements simple.",
			len(expenses), calculator.TotalSpend(expenses)),
		Impact:    models.ImpactMedium,
		CreatedAt: a.now().UTC(),
		Actions: []string{
			"Generate a mid-month report",
			"Remind members when balances exceed $50",
		},
	}}
}

type reportDraft struct {
	Title       string              `json:"title"`
	Summary     string              `json:"summary"`
	Highlights  []string            `json:"highlights"`
	Settlements []models.Settlement `json:"settlements"`
	TotalSpend  float64             `json:"totalSpend"`
}

// Report summarises spending, scoped to groupID when it is non-empty.
func (a *Advisor) Report(ctx context.Context, groupID string, groups []models.Group, expenses []models.Expense) (models.AutoReport, Notice) {
	scopedGroups := groups
	if groupID != "" {
		scopedGroups = slices.DeleteFunc(slices.Clone(groups), func(g models.Group) bool { return g.ID != groupID })
		expenses = calculator.ScopeToGroup(expenses, groupID)
	}

	prompt := fmt.Sprintf(`You are building a financial report summarising group expenses.
Return JSON with keys: title, summary, highlights (array of 3 strings), settlements (array of {from,to,amount,currency}), totalSpend.
Focus on budgeting advice, settlement optimisation, and trends.

Groups: %s
Expenses: %s`, mustJSON(scopedGroups), mustJSON(expenses))

	text, notice := a.complete(ctx, Request{Messages: []Message{UserText(prompt)}})
	if notice != "" {
		return a.fallbackReport(groupID, scopedGroups, expenses), notice
	}

	var d reportDraft
	if err := json.Unmarshal([]byte(extractJSON(text)), &d); err != nil || d.Title == "" {
		a.logger.Warn("Malformed report from assistant", "error", err)
		return a.fallbackReport(groupID, scopedGroups, expenses), NoticeUnavailable
	}
	if d.Highlights == nil {
		d.Highlights = []string{}
	}
	if d.Settlements == nil {
		d.Settlements = []models.Settlement{}
	}
	return models.AutoReport{
		ID:          a.newID(),
		GroupID:     groupID,
		Title:       d.Title,
		Summary:     d.Summary,
		Highlights:  d.Highlights,
		Settlements: d.Settlements,
		TotalSpend:  d.TotalSpend,
		GeneratedAt: a.now().UTC(),
		DownloadURL: "#",
	}, ""
}

// fallbackReport derives the report from the ledger itself: totals, the
// optimized settlement plan and the leading category.
func (a *Advisor) fallbackReport(groupID string, scopedGroups []models.Group, expenses []models.Expense) models.AutoReport {
	name := "All groups"
	if groupID != "" && len(scopedGroups) > 0 {
		name = scopedGroups[0].Name
	}
	total := calculator.TotalSpend(expenses)
	settlements := calculator.OptimizeSettlements(expenses)

	return models.AutoReport{
		ID:      a.newID(),
		GroupID: groupID,
		Title:   name + " summary",
		Summary: fmt.Sprintf("%s recorded %d expenses totalling $%.2f. Consider enabling automated reminders to settle balances quickly.",
			name, len(expenses), total),
		Highlights: []string{
			topCategoryHighlight(expenses),
			fmt.Sprintf("Smart settlement needs %d transfers to settle every balance.", len(settlements)),
			"Set a mid-month check-in automation to stay on budget.",
		},
		Settlements: settlements,
		TotalSpend:  total,
		GeneratedAt: a.now().UTC(),
	}
}

func topCategoryHighlight(expenses []models.Expense) string {
	totals := calculator.CategoryTotals(expenses, time.Time{})
	if len(totals) == 0 {
		return "No spending recorded yet."
	}
	categories := slices.Sorted(maps.Keys(totals))
	top := slices.MaxFunc(categories, func(x, y string) int {
		// Ties resolve to the alphabetically first category.
		if c := cmp.Compare(totals[x], totals[y]); c != 0 {
			return c
		}
		return cmp.Compare(y, x)
	})
	return fmt.Sprintf("%s leads spending at $%.2f.", top, totals[top])
}

const chatSystemPrompt = `You are an empathetic financial assistant.
- Summarise balances, highlight anomalies, and propose settlements.
- Provide actionable next steps in bullet form.
- Reference groups by name.
- If the user asks for translation, respond in that language.`

// Chat answers the latest user message in history.
func (a *Advisor) Chat(ctx context.Context, history []models.AiMessage, groups []models.Group, expenses []models.Expense) (models.AiMessage, Notice) {
	var conversation strings.Builder
	for _, m := range history {
		fmt.Fprintf(&conversation, "%s: %s\n", strings.ToUpper(string(m.Role)), m.Content)
	}
	prompt := fmt.Sprintf(`Context JSON:
Groups: %s
Expenses: %s

Conversation so far:
%s
Respond to the latest user message.`, mustJSON(groups), mustJSON(expenses), conversation.String())

	text, notice := a.complete(ctx, Request{System: chatSystemPrompt, Messages: []Message{UserText(prompt)}})
	switch notice {
	case NoticeOffline:
		text = fmt.Sprintf("The assistant is offline, but here's a quick summary: your groups have %d logged expenses. Consider running the smart settlement automation to keep balances tidy.", len(expenses))
	case NoticeUnavailable:
		text = "I couldn't reach the assistant right now. Try regenerating in a moment or review your latest dashboards for insights."
	}
	return models.AiMessage{
		ID:        a.newID(),
		Role:      models.RoleAssistant,
		Content:   strings.TrimSpace(text),
		CreatedAt: a.now().UTC(),
	}, notice
}

func mustJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "[]"
	}
	return string(data)
}

// extractJSON strips Markdown code fences and surrounding prose.
func extractJSON(text string) string {
	text = strings.TrimSpace(text)
	start := strings.IndexAny(text, "[{")
	if start < 0 {
		return text
	}
	end := strings.LastIndexAny(text, "]}")
	if end < start {
		return text[start:]
	}
	return text[start : end+1]
}
