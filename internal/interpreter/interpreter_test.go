package interpreter

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAI is a scripted AICapability for pipeline tests.
type fakeAI struct {
	result *AIResult
	ok     bool
	calls  int
}

func (f *fakeAI) Interpret(_ context.Context, _ string, _ time.Time) (*AIResult, bool) {
	f.calls++
	return f.result, f.ok
}

func TestInterpretNote(t *testing.T) {
	i := New(nil)

	out := i.Interpret(context.Background(), "note buy paint #house", mondayMorning(8, 0))

	assert.Equal(t, KindNote, out.Kind)
	assert.Equal(t, "buy paint", out.Text)
	assert.Equal(t, []string{"house"}, out.Tags)
}

func TestInterpretNotePrefixIsCaseInsensitive(t *testing.T) {
	i := New(nil)

	out := i.Interpret(context.Background(), "Note remember the milk", mondayMorning(8, 0))

	assert.Equal(t, KindNote, out.Kind)
	assert.Equal(t, "remember the milk", out.Text)
}

func TestInterpretNoteNeverBecomesReminder(t *testing.T) {
	// A note prefix wins even when the remainder contains a time expression.
	i := New(nil)

	out := i.Interpret(context.Background(), "note tomorrow is a holiday", mondayMorning(8, 0))

	assert.Equal(t, KindNote, out.Kind)
	assert.Equal(t, "tomorrow is a holiday", out.Text)
}

func TestInterpretBasicReminder(t *testing.T) {
	i := New(nil)
	now := mondayMorning(8, 0)

	out := i.Interpret(context.Background(), "tomorrow at 10 call Juan", now)

	require.Equal(t, KindReminder, out.Kind)
	assert.Equal(t, "call Juan", out.Text)
	assert.True(t, out.DueAt.Equal(time.Date(2025, time.March, 11, 10, 0, 0, 0, time.UTC)))
	assert.Empty(t, out.Tags)
}

func TestInterpretStripsLeadingVerb(t *testing.T) {
	i := New(nil)
	now := mondayMorning(8, 0)

	tests := []struct {
		text string
		want string
	}{
		{"remind me to buy bread at 18:00", "buy bread"},
		{"tomorrow at 10 recuérdame llamar a Juan", "llamar a Juan"},
		{"remember to water the plants in 2 hours", "water the plants"},
	}

	for _, tt := range tests {
		out := i.Interpret(context.Background(), tt.text, now)
		require.Equal(t, KindReminder, out.Kind, "input %q", tt.text)
		assert.Equal(t, tt.want, out.Text, "input %q", tt.text)
	}
}

func TestInterpretExtractsTags(t *testing.T) {
	i := New(nil)

	out := i.Interpret(context.Background(), "tomorrow at 10 pay rent #money #home", mondayMorning(8, 0))

	require.Equal(t, KindReminder, out.Kind)
	assert.Equal(t, "pay rent", out.Text)
	assert.Equal(t, []string{"money", "home"}, out.Tags)
}

func TestInterpretBodyFallsBackToFullText(t *testing.T) {
	// "tomorrow" is the whole message; the body must never be empty.
	i := New(nil)

	out := i.Interpret(context.Background(), "tomorrow", mondayMorning(8, 0))

	require.Equal(t, KindReminder, out.Kind)
	assert.Equal(t, "tomorrow", out.Text)
}

func TestInterpretPastDate(t *testing.T) {
	i := New(nil)

	out := i.Interpret(context.Background(), "yesterday at 5pm clean the house", mondayMorning(8, 0))

	assert.Equal(t, KindPastDate, out.Kind)
}

func TestInterpretNotUnderstoodWithoutAI(t *testing.T) {
	i := New(nil)

	out := i.Interpret(context.Background(), "hello there", mondayMorning(8, 0))

	assert.Equal(t, KindNotUnderstood, out.Kind)
}

func TestInterpretAIFallback(t *testing.T) {
	now := mondayMorning(8, 0)
	due := time.Date(2025, time.March, 12, 18, 0, 0, 0, time.UTC)
	ai := &fakeAI{result: &AIResult{Text: "water the garden", DueAt: due, Tags: []string{"garden"}}, ok: true}
	i := New(ai)

	out := i.Interpret(context.Background(), "the garden needs watering midweek sometime", now)

	require.Equal(t, KindReminder, out.Kind)
	assert.Equal(t, "water the garden", out.Text)
	assert.True(t, out.DueAt.Equal(due))
	assert.Equal(t, []string{"garden"}, out.Tags)
	assert.Equal(t, 1, ai.calls)
}

func TestInterpretAINotConsultedWhenRulesMatch(t *testing.T) {
	ai := &fakeAI{result: &AIResult{Text: "wrong", DueAt: mondayMorning(23, 0)}, ok: true}
	i := New(ai)

	out := i.Interpret(context.Background(), "tomorrow at 10 call Juan", mondayMorning(8, 0))

	require.Equal(t, KindReminder, out.Kind)
	assert.Equal(t, "call Juan", out.Text)
	assert.Zero(t, ai.calls, "AI must only run as a fallback")
}

func TestInterpretAIPastDateRejected(t *testing.T) {
	now := mondayMorning(8, 0)
	ai := &fakeAI{result: &AIResult{Text: "too late", DueAt: now.Add(-time.Hour)}, ok: true}
	i := New(ai)

	out := i.Interpret(context.Background(), "something vague about earlier", now)

	assert.Equal(t, KindPastDate, out.Kind)
}

func TestInterpretAIFailureIsNotUnderstood(t *testing.T) {
	ai := &fakeAI{ok: false}
	i := New(ai)

	out := i.Interpret(context.Background(), "completely opaque message", mondayMorning(8, 0))

	assert.Equal(t, KindNotUnderstood, out.Kind)
	assert.Equal(t, 1, ai.calls)
}
