package models

import "time"

// Message is a text record inside a thread. Immutable once stored except
// for the read flag, which bumps updated_at when toggled.
type Message struct {
	ID        int       `db:"id" json:"id"`
	ThreadID  int       `db:"thread_id" json:"thread_id"`
	SenderID  int       `db:"sender_id" json:"sender_id"`
	Text      string    `db:"text" json:"text"`
	IsRead    bool      `db:"is_read" json:"is_read"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
