package models

import "time"

// Thread represents a conversation between exactly two users.
// The pair is stored sorted so {A,B} and {B,A} map to the same row.
type Thread struct {
	ID        int       `db:"id" json:"id"`
	User1ID   int       `db:"user1_id" json:"-"`
	User2ID   int       `db:"user2_id" json:"-"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Participants returns both participant ids.
func (t Thread) Participants() []int {
	return []int{t.User1ID, t.User2ID}
}

// HasParticipant reports whether the user belongs to the thread.
func (t Thread) HasParticipant(userID int) bool {
	return t.User1ID == userID || t.User2ID == userID
}
