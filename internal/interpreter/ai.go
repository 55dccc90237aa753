package interpreter

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/kaptinlin/jsonrepair"
	"github.com/notexe/reminder-bot/internal/api"
)

const aiSystemPrompt = `You turn a chat message into a structured reminder.
Respond with ONLY a JSON object, no prose, no code fences.

If the message asks to be reminded of something at some point in time, respond:
{"due_at": "YYYY-MM-DD HH:MM", "text": "<what to remind>", "tags": ["tag", ...]}

due_at must be expressed as local wall-clock time in the timezone given below.
Resolve relative expressions ("tomorrow", "in two hours", "next friday") against
the current date and time given below. text must never be empty.

If the message is not a reminder request, respond exactly:
{"not_a_reminder": true}`

const aiTimeLayout = "2006-01-02 15:04"

// AIResult is the structured interpretation returned by the language model.
type AIResult struct {
	Text  string
	DueAt time.Time
	Tags  []string
}

// aiPayload is the wire shape the model is asked to produce. It is untrusted
// output and every field is validated before use.
type aiPayload struct {
	NotAReminder bool     `json:"not_a_reminder"`
	DueAt        string   `json:"due_at"`
	Text         string   `json:"text"`
	Tags         []string `json:"tags"`
}

// AIInterpreter delegates reminder interpretation to a completion provider.
// It is a best-effort capability: every failure, from transport errors to
// malformed replies, collapses into a "not understood" result.
type AIInterpreter struct {
	provider api.Provider
	model    string
	maxTok   int
	temp     float64
	timeout  time.Duration
}

// NewAIInterpreter wraps provider with the given model settings. timeout
// bounds every call to the provider.
func NewAIInterpreter(provider api.Provider, model string, maxTokens int, temperature float64, timeout time.Duration) *AIInterpreter {
	return &AIInterpreter{
		provider: provider,
		model:    model,
		maxTok:   maxTokens,
		temp:     temperature,
		timeout:  timeout,
	}
}

// Interpret asks the model to extract a reminder from text, anchoring its
// notion of "now" to ref in ref's timezone. The second return value is false
// when no usable reminder could be extracted, for any reason.
func (a *AIInterpreter) Interpret(ctx context.Context, text string, ref time.Time) (*AIResult, bool) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	prompt := fmt.Sprintf("Current date and time: %s (%s)\nTimezone: %s\nMessage: %s",
		ref.Format("Monday, 2006-01-02 15:04"), ref.Format("-07:00"), ref.Location(), text)

	resp, err := a.provider.SendMessage(ctx, api.MessageRequest{
		Messages:    []api.Message{{Role: "user", Content: prompt}},
		System:      aiSystemPrompt,
		Model:       a.model,
		MaxTokens:   a.maxTok,
		Temperature: a.temp,
	})
	if err != nil {
		log.Printf("[ai] interpretation request failed: %v", err)
		return nil, false
	}

	payload, ok := extractPayload(resp.Content)
	if !ok || payload.NotAReminder {
		return nil, false
	}

	if payload.Text == "" || payload.DueAt == "" {
		log.Printf("[ai] reply missing required fields: %q", resp.Content)
		return nil, false
	}

	dueAt, err := time.ParseInLocation(aiTimeLayout, payload.DueAt, ref.Location())
	if err != nil {
		log.Printf("[ai] unparseable due_at %q: %v", payload.DueAt, err)
		return nil, false
	}

	return &AIResult{
		Text:  strings.TrimSpace(payload.Text),
		DueAt: dueAt,
		Tags:  payload.Tags,
	}, true
}

// extractPayload digs the JSON object out of a possibly noisy model reply
// (surrounding prose, code fences, trailing commentary) and parses it,
// repairing near-JSON when strict parsing fails.
func extractPayload(content string) (*aiPayload, bool) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		log.Printf("[ai] no JSON object in reply: %q", content)
		return nil, false
	}
	raw := content[start : end+1]

	var payload aiPayload
	if err := json.Unmarshal([]byte(raw), &payload); err == nil {
		return &payload, true
	}

	repaired, err := jsonrepair.JSONRepair(raw)
	if err != nil {
		log.Printf("[ai] failed to repair reply JSON: %v", err)
		return nil, false
	}
	if err := json.Unmarshal([]byte(repaired), &payload); err != nil {
		log.Printf("[ai] failed to parse repaired reply: %v", err)
		return nil, false
	}
	return &payload, true
}
