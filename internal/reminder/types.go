package reminder

import "time"

// Status values for reminders. Pending reminders are picked up by the
// scheduler sweep; sent ones have been delivered; done is terminal.
const (
	StatusPending = "pending"
	StatusSent    = "sent"
	StatusDone    = "done"
)

// Reminder is a user-owned record pairing free text with a due instant,
// delivered once when due.
type Reminder struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Text      string    `json:"text"`
	DueAt     time.Time `json:"due_at"`
	Status    string    `json:"status"`
	Tags      []string  `json:"tags,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Note is a user-owned free-text record with no delivery behavior.
type Note struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Text      string    `json:"text"`
	Tags      []string  `json:"tags,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
