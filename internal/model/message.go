package model

import "time"

// Message is a chat message scoped to a transfer. Clients poll with an
// after-cursor; there is no push delivery.
type Message struct {
	ID         int64     `json:"id"`
	TransferID int64     `json:"transfer_id"`
	SenderID   int64     `json:"sender_id"`
	Body       string    `json:"body"`
	SentAt     time.Time `json:"sent_at"`

	// Joined fields (not always populated).
	SenderName string `json:"sender_name,omitempty"`
}
