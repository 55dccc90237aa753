package telegram

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/notexe/reminder-bot/internal/config"
	"github.com/notexe/reminder-bot/internal/interpreter"
	"github.com/notexe/reminder-bot/internal/reminder"
)

const dateLayout = "02/01/2006 15:04"

const startMessage = `👋 Hi! I'm your reminder assistant.

Just write what you want to remember in natural language:

💬 Examples:
• "tomorrow at 10 call Juan"
• "in 2 hours send the estimate"
• "on friday at 15 pay the rent"
• "remind me to buy bread at 18:00"
• "note buy paint #house"

📋 Commands:
/list - Show your pending reminders
/notes - Show your notes
/done <id> - Mark a reminder as completed
/delete <id> - Delete a reminder
/help - Show this help

Try me now! 🚀`

const helpMessage = `🤖 Reminder bot help

📝 Basic usage:
Write your reminder in natural language and I'll figure out when to remind you.
Start a message with "note" to save a note instead.

⌚ Supported time formats:
• Days: "tomorrow", "on friday", "the 15th of march"
• Clock times: "at 10", "at 14:30", "at 5pm"
• Relative: "in 2 hours", "in 30 minutes"
• Tags: add #labels anywhere in the text

📋 Commands:
/list - Show pending reminders
/notes - Show notes
/done <id> - Mark as completed
/delete <id> - Delete a reminder
/help - Show this help`

const (
	replyNotUnderstood = "🤔 I couldn't figure out when to remind you.\n\n💡 Try something like:\n• \"tomorrow at 10 call Juan\"\n• \"in 2 hours check email\"\n• \"on friday pay the rent\""
	replyPastDate      = "⏰ That time has already passed. Please give me a future date."
	replyDuplicate     = "⚠️ You already have an identical reminder scheduled for that time."
	replyStorageError  = "❌ Something went wrong on my side. Please try again."
)

// Bot is the long-polling message loop: it receives updates, routes commands,
// runs free text through the interpreter and persists the results.
type Bot struct {
	client *Client
	store  *reminder.Store
	interp *interpreter.Interpreter
	loc    *time.Location

	pollTimeout int
	pollLimit   int
	offset      int64
	now         func() time.Time
}

// NewBot wires the bot loop. loc is the operating timezone used for all
// date interpretation and display.
func NewBot(client *Client, store *reminder.Store, interp *interpreter.Interpreter, loc *time.Location, cfg config.TelegramConfig) *Bot {
	return &Bot{
		client:      client,
		store:       store,
		interp:      interp,
		loc:         loc,
		pollTimeout: cfg.PollTimeout,
		pollLimit:   cfg.PollLimit,
		now:         func() time.Time { return time.Now().In(loc) },
	}
}

// Run blocks polling for updates until ctx is cancelled. Transport errors are
// logged and polling resumes after a short pause; no error is fatal.
func (b *Bot) Run(ctx context.Context) error {
	log.Printf("[bot] Started. Poll timeout: %ds", b.pollTimeout)

	for {
		if ctx.Err() != nil {
			log.Println("[bot] Shutting down...")
			return nil
		}

		updates, err := b.client.GetUpdates(ctx, b.offset, b.pollTimeout, b.pollLimit)
		if err != nil {
			if ctx.Err() != nil {
				log.Println("[bot] Shutting down...")
				return nil
			}
			log.Printf("[bot] Error: getUpdates failed: %v", err)
			select {
			case <-ctx.Done():
			case <-time.After(3 * time.Second):
			}
			continue
		}

		for _, u := range updates {
			if u.UpdateID >= b.offset {
				b.offset = u.UpdateID + 1
			}
			if u.Message == nil || u.Message.From == nil || u.Message.From.IsBot {
				continue
			}
			b.handleMessage(ctx, u.Message)
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *Message) {
	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return
	}

	var reply string
	if strings.HasPrefix(text, "/") {
		reply = b.handleCommand(ctx, msg.From.ID, text)
	} else {
		reply = b.handleText(ctx, msg.From.ID, text)
	}

	if reply == "" {
		return
	}
	if err := b.client.Send(ctx, msg.Chat.ID, reply); err != nil {
		log.Printf("[bot] Error: reply to chat %d failed: %v", msg.Chat.ID, err)
	}
}

func (b *Bot) handleCommand(ctx context.Context, userID int64, text string) string {
	fields := strings.Fields(text)
	cmd, _, _ := strings.Cut(fields[0], "@")

	switch cmd {
	case "/start":
		return startMessage
	case "/help":
		return helpMessage
	case "/list":
		return b.handleList(ctx, userID)
	case "/notes":
		return b.handleNotes(ctx, userID)
	case "/done":
		return b.handleDone(ctx, userID, fields[1:])
	case "/delete":
		return b.handleDelete(ctx, userID, fields[1:])
	default:
		return "🤖 Unknown command. Use /help to see what I can do."
	}
}

func (b *Bot) handleList(ctx context.Context, userID int64) string {
	reminders, err := b.store.ListPending(ctx, userID)
	if err != nil {
		log.Printf("[bot] Error: list reminders for user %d: %v", userID, err)
		return replyStorageError
	}

	if len(reminders) == 0 {
		return "📭 You have no pending reminders."
	}

	var sb strings.Builder
	sb.WriteString("📋 Your pending reminders:\n\n")
	now := b.now()
	for _, r := range reminders {
		sb.WriteString(fmt.Sprintf("🔔 ID: %d\n", r.ID))
		sb.WriteString(fmt.Sprintf("   %s\n", r.Text))
		sb.WriteString(fmt.Sprintf("   📅 %s (%s)\n", r.DueAt.Format(dateLayout), formatRelative(now, r.DueAt)))
		if len(r.Tags) > 0 {
			sb.WriteString(fmt.Sprintf("   🏷 #%s\n", strings.Join(r.Tags, " #")))
		}
		sb.WriteString("\n")
	}
	sb.WriteString("💡 Use /done <id> to complete or /delete <id> to remove")
	return sb.String()
}

func (b *Bot) handleNotes(ctx context.Context, userID int64) string {
	notes, err := b.store.ListNotes(ctx, userID)
	if err != nil {
		log.Printf("[bot] Error: list notes for user %d: %v", userID, err)
		return replyStorageError
	}

	if len(notes) == 0 {
		return "🗒 You have no notes yet. Start a message with \"note\" to save one."
	}

	var sb strings.Builder
	sb.WriteString("🗒 Your notes:\n\n")
	for _, n := range notes {
		sb.WriteString(fmt.Sprintf("• %s", n.Text))
		if len(n.Tags) > 0 {
			sb.WriteString(fmt.Sprintf(" (#%s)", strings.Join(n.Tags, " #")))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func (b *Bot) handleDone(ctx context.Context, userID int64, args []string) string {
	id, reply := parseIDArg("/done", args)
	if reply != "" {
		return reply
	}

	ok, err := b.store.MarkDone(ctx, id, userID)
	if err != nil {
		log.Printf("[bot] Error: mark done %d for user %d: %v", id, userID, err)
		return replyStorageError
	}
	if !ok {
		return "❌ Couldn't find that reminder, or it isn't yours."
	}
	return "✅ Reminder marked as completed"
}

func (b *Bot) handleDelete(ctx context.Context, userID int64, args []string) string {
	id, reply := parseIDArg("/delete", args)
	if reply != "" {
		return reply
	}

	ok, err := b.store.DeleteReminder(ctx, id, userID)
	if err != nil {
		log.Printf("[bot] Error: delete %d for user %d: %v", id, userID, err)
		return replyStorageError
	}
	if !ok {
		return "❌ Couldn't find that reminder, or it isn't yours."
	}
	return "🗑 Reminder deleted"
}

func parseIDArg(cmd string, args []string) (int64, string) {
	if len(args) < 1 {
		return 0, fmt.Sprintf("❌ Usage: %s <id>\n\nExample: %s 5", cmd, cmd)
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return 0, "❌ The ID must be a number. Use /list to see your reminders."
	}
	return id, ""
}

func (b *Bot) handleText(ctx context.Context, userID int64, text string) string {
	now := b.now()
	outcome := b.interp.Interpret(ctx, text, now)

	switch outcome.Kind {
	case interpreter.KindNote:
		id, err := b.store.CreateNote(ctx, userID, outcome.Text, outcome.Tags)
		if err != nil {
			log.Printf("[bot] Error: create note for user %d: %v", userID, err)
			return replyStorageError
		}
		return fmt.Sprintf("📝 Note saved (ID: %d)", id)

	case interpreter.KindPastDate:
		return replyPastDate

	case interpreter.KindReminder:
		dup, err := b.store.ExistsDuplicate(ctx, userID, outcome.Text, outcome.DueAt)
		if err != nil {
			log.Printf("[bot] Error: duplicate check for user %d: %v", userID, err)
			return replyStorageError
		}
		if dup {
			return replyDuplicate
		}

		id, err := b.store.CreateReminder(ctx, userID, outcome.Text, outcome.DueAt, outcome.Tags)
		if err != nil {
			log.Printf("[bot] Error: create reminder for user %d: %v", userID, err)
			return replyStorageError
		}

		return fmt.Sprintf("✅ Reminder created\n\n📝 %s\n⏰ I'll remind you %s\n📅 %s\n\n🆔 ID: %d",
			outcome.Text, formatRelative(now, outcome.DueAt), outcome.DueAt.Format(dateLayout), id)

	default:
		return replyNotUnderstood
	}
}

// formatRelative phrases how far away t is from now, matching the
// granularity a person would use in chat.
func formatRelative(now, t time.Time) string {
	diff := t.Sub(now)

	switch {
	case diff < time.Hour:
		return fmt.Sprintf("in %d minutes", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("in %d hours", int(diff.Hours()))
	}

	ny, nm, nd := now.Date()
	ty, tm, td := t.Date()
	nextDay := time.Date(ny, nm, nd+1, 0, 0, 0, 0, now.Location()).Equal(time.Date(ty, tm, td, 0, 0, 0, 0, t.Location()))

	if nextDay {
		return fmt.Sprintf("tomorrow at %s", t.Format("15:04"))
	}
	return fmt.Sprintf("on %s at %s", t.Format("02/01"), t.Format("15:04"))
}
