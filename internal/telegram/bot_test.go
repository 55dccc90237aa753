package telegram

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notexe/reminder-bot/internal/config"
	"github.com/notexe/reminder-bot/internal/interpreter"
	"github.com/notexe/reminder-bot/internal/reminder"
)

// newTestBot builds a bot over an in-memory store with the time pinned to a
// Monday morning. The client is nil: handler tests exercise the reply strings
// directly, not the transport.
func newTestBot(t *testing.T) (*Bot, *reminder.Store) {
	t.Helper()
	store, err := reminder.NewStore(":memory:", time.UTC)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	b := NewBot(nil, store, interpreter.New(nil), time.UTC, config.TelegramConfig{
		PollTimeout: 30,
		PollLimit:   100,
	})
	b.now = func() time.Time {
		return time.Date(2025, time.March, 10, 8, 0, 0, 0, time.UTC)
	}
	return b, store
}

func TestHandleTextCreatesReminder(t *testing.T) {
	b, store := newTestBot(t)
	ctx := context.Background()

	reply := b.handleText(ctx, 42, "tomorrow at 10 call Juan #work")

	assert.Contains(t, reply, "✅ Reminder created")
	assert.Contains(t, reply, "call Juan")
	assert.Contains(t, reply, "11/03/2025 10:00")
	assert.Contains(t, reply, "🆔 ID: 1")

	pending, err := store.ListPending(ctx, 42)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "call Juan", pending[0].Text)
	assert.Equal(t, []string{"work"}, pending[0].Tags)
}

func TestHandleTextRejectsDuplicate(t *testing.T) {
	b, _ := newTestBot(t)
	ctx := context.Background()

	first := b.handleText(ctx, 42, "tomorrow at 10 call Juan")
	assert.Contains(t, first, "✅ Reminder created")

	second := b.handleText(ctx, 42, "tomorrow at 10 call Juan")
	assert.Equal(t, replyDuplicate, second)
}

func TestHandleTextSavesNote(t *testing.T) {
	b, store := newTestBot(t)
	ctx := context.Background()

	reply := b.handleText(ctx, 42, "note buy paint #house")
	assert.Equal(t, "📝 Note saved (ID: 1)", reply)

	notes, err := store.ListNotes(ctx, 42)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "buy paint", notes[0].Text)
	assert.Equal(t, []string{"house"}, notes[0].Tags)
}

func TestHandleTextPastDate(t *testing.T) {
	b, _ := newTestBot(t)
	reply := b.handleText(context.Background(), 42, "yesterday at 5pm call Juan")
	assert.Equal(t, replyPastDate, reply)
}

func TestHandleTextNotUnderstood(t *testing.T) {
	b, _ := newTestBot(t)
	reply := b.handleText(context.Background(), 42, "the weather is nice")
	assert.Equal(t, replyNotUnderstood, reply)
}

func TestHandleCommandStartAndHelp(t *testing.T) {
	b, _ := newTestBot(t)
	ctx := context.Background()

	assert.Equal(t, startMessage, b.handleCommand(ctx, 42, "/start"))
	assert.Equal(t, helpMessage, b.handleCommand(ctx, 42, "/help"))
	// Group chats address commands as /cmd@botname.
	assert.Equal(t, helpMessage, b.handleCommand(ctx, 42, "/help@reminderbot"))
}

func TestHandleCommandUnknown(t *testing.T) {
	b, _ := newTestBot(t)
	reply := b.handleCommand(context.Background(), 42, "/frobnicate")
	assert.Contains(t, reply, "Unknown command")
}

func TestHandleCommandList(t *testing.T) {
	b, _ := newTestBot(t)
	ctx := context.Background()

	assert.Contains(t, b.handleCommand(ctx, 42, "/list"), "no pending reminders")

	b.handleText(ctx, 42, "tomorrow at 10 call Juan #work")

	reply := b.handleCommand(ctx, 42, "/list")
	assert.Contains(t, reply, "🔔 ID: 1")
	assert.Contains(t, reply, "call Juan")
	assert.Contains(t, reply, "11/03/2025 10:00")
	assert.Contains(t, reply, "#work")

	// Another user sees nothing.
	assert.Contains(t, b.handleCommand(ctx, 99, "/list"), "no pending reminders")
}

func TestHandleCommandNotes(t *testing.T) {
	b, _ := newTestBot(t)
	ctx := context.Background()

	assert.Contains(t, b.handleCommand(ctx, 42, "/notes"), "no notes yet")

	b.handleText(ctx, 42, "note buy paint #house")

	reply := b.handleCommand(ctx, 42, "/notes")
	assert.Contains(t, reply, "buy paint")
	assert.Contains(t, reply, "#house")
}

func TestHandleCommandDone(t *testing.T) {
	b, _ := newTestBot(t)
	ctx := context.Background()

	b.handleText(ctx, 42, "tomorrow at 10 call Juan")

	assert.Contains(t, b.handleCommand(ctx, 99, "/done 1"), "isn't yours")
	assert.Equal(t, "✅ Reminder marked as completed", b.handleCommand(ctx, 42, "/done 1"))
	assert.Contains(t, b.handleCommand(ctx, 42, "/done 1"), "Couldn't find")
	assert.Contains(t, b.handleCommand(ctx, 42, "/list"), "no pending reminders")
}

func TestHandleCommandDelete(t *testing.T) {
	b, _ := newTestBot(t)
	ctx := context.Background()

	b.handleText(ctx, 42, "tomorrow at 10 call Juan")

	assert.Contains(t, b.handleCommand(ctx, 99, "/delete 1"), "isn't yours")
	assert.Equal(t, "🗑 Reminder deleted", b.handleCommand(ctx, 42, "/delete 1"))
	assert.Contains(t, b.handleCommand(ctx, 42, "/delete 1"), "Couldn't find")
}

func TestParseIDArg(t *testing.T) {
	id, reply := parseIDArg("/done", nil)
	assert.Contains(t, reply, "Usage: /done <id>")
	assert.Zero(t, id)

	id, reply = parseIDArg("/done", []string{"abc"})
	assert.Contains(t, reply, "must be a number")
	assert.Zero(t, id)

	id, reply = parseIDArg("/done", []string{"7"})
	assert.Empty(t, reply)
	assert.Equal(t, int64(7), id)
}

func TestFormatRelative(t *testing.T) {
	now := time.Date(2025, time.March, 10, 8, 0, 0, 0, time.UTC)

	tests := []struct {
		at   time.Time
		want string
	}{
		{now.Add(30 * time.Minute), "in 30 minutes"},
		{now.Add(5 * time.Hour), "in 5 hours"},
		{time.Date(2025, time.March, 11, 10, 0, 0, 0, time.UTC), "tomorrow at 10:00"},
		{time.Date(2025, time.March, 14, 9, 0, 0, 0, time.UTC), "on 14/03 at 09:00"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, formatRelative(now, tt.at))
		})
	}
}
