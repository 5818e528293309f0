package models

import "time"

// Message is a direct message between two friends. ReadAt is set once by
// the receiver and never unset; messages are never deleted.
type Message struct {
	ID         int        `db:"id" json:"id"`
	SenderID   int        `db:"sender_id" json:"sender_id"`
	ReceiverID int        `db:"receiver_id" json:"receiver_id"`
	Content    string     `db:"content" json:"content"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	ReadAt     *time.Time `db:"read_at" json:"read_at,omitempty"`
}

// FeedEvent is broadcast to a user's websocket feed.
type FeedEvent struct {
	Type      string      `json:"type"`
	Message   *Message    `json:"message,omitempty"`
	CapsuleID int         `json:"capsule_id,omitempty"`
	FromID    int         `json:"from_id,omitempty"`
	Payload   interface{} `json:"payload,omitempty"`
}
