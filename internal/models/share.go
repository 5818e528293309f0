package models

import "time"

// Share methods.
const (
	SharedViaEmail  = "email"
	SharedViaFriend = "friend"
	SharedViaLink   = "link"
)

// SharedCapsule grants a specific recipient access to a capsule regardless
// of its privacy flag or lock state. For link shares no recipient is bound;
// the capsule's share token alone gates access.
type SharedCapsule struct {
	ID                int       `db:"id" json:"id"`
	CapsuleID         int       `db:"capsule_id" json:"capsule_id"`
	SharedBy          int       `db:"shared_by" json:"shared_by"`
	RecipientEmail    *string   `db:"recipient_email" json:"recipient_email,omitempty"`
	RecipientFriendID *int      `db:"recipient_friend_id" json:"recipient_friend_id,omitempty"`
	SharedVia         string    `db:"shared_via" json:"shared_via"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
}
