package models

import "time"

// Friendship edge statuses.
const (
	FriendStatusPending  = "pending"
	FriendStatusAccepted = "accepted"
	FriendStatusBlocked  = "blocked"
)

// Friendship is a directed edge from requester to addressee. A pending edge
// is actionable only by the addressee.
type Friendship struct {
	ID          int       `db:"id" json:"id"`
	RequesterID int       `db:"requester_id" json:"requester_id"`
	AddresseeID int       `db:"addressee_id" json:"addressee_id"`
	Status      string    `db:"status" json:"status"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// FriendSummary is the API view of a friend or pending request with the
// counterpart profile resolved.
type FriendSummary struct {
	EdgeID    int       `db:"edge_id" json:"edge_id"`
	FriendID  int       `db:"friend_id" json:"friend_id"`
	Email     string    `db:"email" json:"email"`
	FullName  string    `db:"full_name" json:"full_name"`
	AvatarURL string    `db:"avatar_url" json:"avatar_url"`
	Status    string    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
