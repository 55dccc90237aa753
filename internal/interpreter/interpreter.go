// Package interpreter turns free-text chat messages into structured notes and
// reminders. The decision procedure is deterministic: a note prefix wins
// outright, then the rule-based date extractor, and only when that finds
// nothing is the optional language-model fallback consulted.
package interpreter

import (
	"context"
	"regexp"
	"strings"
	"time"
)

// OutcomeKind classifies the result of interpreting one message.
type OutcomeKind int

const (
	// KindNotUnderstood means no usable time expression was found by any
	// available strategy.
	KindNotUnderstood OutcomeKind = iota
	// KindPastDate means a time expression was found but does not lie in
	// the future.
	KindPastDate
	// KindNote means the message is a note-taking request.
	KindNote
	// KindReminder means a valid future reminder was extracted.
	KindReminder
)

// Outcome is the interpreter's verdict on one message. Text, DueAt and Tags
// are populated for KindReminder; Text and Tags for KindNote.
type Outcome struct {
	Kind  OutcomeKind
	Text  string
	DueAt time.Time
	Tags  []string
}

// AICapability is the optional language-model fallback. Implementations are
// best-effort: they report false instead of returning errors.
type AICapability interface {
	Interpret(ctx context.Context, text string, ref time.Time) (*AIResult, bool)
}

// noAI is the null capability used when no provider is configured.
type noAI struct{}

func (noAI) Interpret(context.Context, string, time.Time) (*AIResult, bool) {
	return nil, false
}

var (
	notePrefix = regexp.MustCompile(`(?i)^(?:note|nota)\s+`)

	// Leading imperative verbs meaning "remind me to ...". Longer
	// alternatives first: Go regexp alternation prefers the earlier branch.
	leadingVerbs = regexp.MustCompile(`(?i)^(?:remind me to|remind me|remember to|remind|remember|recu[eé]rdame|recordarme|recordar|av[ií]same|avisarme|avisar)\b[\s,:]*`)
)

// Interpreter composes the tag extractor, the rule-based date extractor and
// the AI fallback into one decision.
type Interpreter struct {
	ai AICapability
}

// New creates an Interpreter. ai may be nil when the capability is not
// configured; the fallback then simply never produces a result.
func New(ai AICapability) *Interpreter {
	if ai == nil {
		ai = noAI{}
	}
	return &Interpreter{ai: ai}
}

// Interpret maps one raw message to an Outcome, using now as the reference
// instant. now's location is the operating timezone.
func (i *Interpreter) Interpret(ctx context.Context, raw string, now time.Time) Outcome {
	text := strings.TrimSpace(raw)

	if m := notePrefix.FindString(text); m != "" {
		rest := text[len(m):]
		return Outcome{Kind: KindNote, Text: StripTags(rest), Tags: ExtractTags(rest)}
	}

	if occ, ok := ParseOccurrence(text, now); ok {
		if !occ.Time.After(now) {
			return Outcome{Kind: KindPastDate}
		}
		return Outcome{
			Kind:  KindReminder,
			Text:  reminderBody(text, occ.Match),
			DueAt: occ.Time,
			Tags:  ExtractTags(text),
		}
	}

	// The fallback runs only when the rule-based extractor found nothing,
	// so the common case never pays for an external call.
	if res, ok := i.ai.Interpret(ctx, text, now); ok {
		if !res.DueAt.After(now) {
			return Outcome{Kind: KindPastDate}
		}
		body := StripTags(res.Text)
		if body == "" {
			body = text
		}
		return Outcome{
			Kind:  KindReminder,
			Text:  body,
			DueAt: res.DueAt,
			Tags:  mergeTags(ExtractTags(text), res.Tags),
		}
	}

	return Outcome{Kind: KindNotUnderstood}
}

// reminderBody derives the reminder text: drop the matched time expression,
// drop a leading imperative verb, drop tags. An empty result falls back to
// the full original text so a reminder never ends up bodyless.
func reminderBody(text, matched string) string {
	body := strings.Replace(text, matched, "", 1)
	body = strings.TrimSpace(body)
	body = leadingVerbs.ReplaceAllString(body, "")
	body = StripTags(body)
	if body == "" {
		return text
	}
	return body
}

func mergeTags(a, b []string) []string {
	if len(b) == 0 {
		return a
	}
	seen := make(map[string]bool, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, t := range append(append([]string{}, a...), b...) {
		t = strings.TrimPrefix(strings.TrimSpace(t), "#")
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
