package models

import "time"

// Capsule content types.
const (
	ContentTypeText    = "text"
	ContentTypeImage   = "image"
	ContentTypeDrawing = "drawing"
)

// Capsule is a piece of content locked until its unlock time.
// Locked state is always derived from UnlockAt, never stored.
type Capsule struct {
	ID          int       `db:"id" json:"id"`
	OwnerID     int       `db:"owner_id" json:"owner_id"`
	Title       string    `db:"title" json:"title"`
	Content     string    `db:"content" json:"content"`
	ContentType string    `db:"content_type" json:"content_type"`
	UnlockAt    time.Time `db:"unlock_at" json:"unlock_at"`
	IsPrivate   bool      `db:"is_private" json:"is_private"`
	ShareToken  string    `db:"share_token" json:"-"`
	FileURL     string    `db:"file_url" json:"file_url,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// IsLocked reports whether the capsule is still sealed at the given time.
func (c Capsule) IsLocked(now time.Time) bool {
	return now.Before(c.UnlockAt)
}

// LockedCapsule is the redacted projection returned to viewers who may not
// see the content yet. It is a valid result, not an error.
type LockedCapsule struct {
	ID          int       `json:"id"`
	Title       string    `json:"title"`
	ContentType string    `json:"content_type"`
	UnlockAt    time.Time `json:"unlock_at"`
	CreatedAt   time.Time `json:"created_at"`
	Locked      bool      `json:"locked"`
}

// Redacted strips the payload from a capsule.
func (c Capsule) Redacted(now time.Time) LockedCapsule {
	return LockedCapsule{
		ID:          c.ID,
		Title:       c.Title,
		ContentType: c.ContentType,
		UnlockAt:    c.UnlockAt,
		CreatedAt:   c.CreatedAt,
		Locked:      c.IsLocked(now),
	}
}

// ValidContentType reports whether t is one of the supported capsule types.
func ValidContentType(t string) bool {
	return t == ContentTypeText || t == ContentTypeImage || t == ContentTypeDrawing
}

// CanView resolves capsule visibility for a viewer. Resolution order is
// owner, grant by identity, share token, then public+unlocked; the first
// matching rule wins.
func (c Capsule) CanView(viewerID int, token string, hasGrant bool, now time.Time) bool {
	if viewerID != 0 && viewerID == c.OwnerID {
		return true
	}
	if hasGrant {
		return true
	}
	if token != "" && token == c.ShareToken {
		return true
	}
	return !c.IsPrivate && !c.IsLocked(now)
}
