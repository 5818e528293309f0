package repositories

import (
	"context"

	"github.com/jmoiron/sqlx"

	"locktheday/internal/models"
)

// SharedCapsuleView is a grant joined with its capsule for listings.
type SharedCapsuleView struct {
	models.SharedCapsule
	Capsule models.Capsule `json:"capsule"`
}

// ShareRepository abstracts shared-capsule grants.
type ShareRepository interface {
	CreateShare(ctx context.Context, s models.SharedCapsule) (models.SharedCapsule, error)
	HasGrant(ctx context.Context, capsuleID, userID int) (bool, error)
	ListForRecipient(ctx context.Context, userID int) ([]SharedCapsuleView, error)
}

// ShareRepo is a sqlx implementation of ShareRepository.
type ShareRepo struct {
	db *sqlx.DB
}

// NewShareRepo constructs a ShareRepo.
func NewShareRepo(db *sqlx.DB) *ShareRepo {
	return &ShareRepo{db: db}
}

// CreateShare records a grant. Link shares are deduplicated on the capsule:
// repeating a link share is a no-op and the existing row is returned, which
// keeps shareByLink idempotent.
func (r *ShareRepo) CreateShare(ctx context.Context, s models.SharedCapsule) (models.SharedCapsule, error) {
	if s.SharedVia == models.SharedViaLink {
		_, err := r.db.ExecContext(ctx,
			`INSERT INTO shared_capsules (capsule_id, shared_by, shared_via)
             VALUES ($1, $2, 'link')
             ON CONFLICT DO NOTHING`,
			s.CapsuleID, s.SharedBy)
		if err != nil {
			return models.SharedCapsule{}, err
		}
		var existing models.SharedCapsule
		err = r.db.GetContext(ctx, &existing,
			`SELECT * FROM shared_capsules WHERE capsule_id=$1 AND shared_via='link'`, s.CapsuleID)
		return existing, err
	}

	var created models.SharedCapsule
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO shared_capsules (capsule_id, shared_by, recipient_email, recipient_friend_id, shared_via)
         VALUES ($1, $2, $3, $4, $5)
         RETURNING id, capsule_id, shared_by, recipient_email, recipient_friend_id, shared_via, created_at`,
		s.CapsuleID, s.SharedBy, s.RecipientEmail, s.RecipientFriendID, s.SharedVia).
		StructScan(&created)
	return created, err
}

// HasGrant reports whether the user holds an identity or email grant for the
// capsule. Email grants match the recipient's registered address.
func (r *ShareRepo) HasGrant(ctx context.Context, capsuleID, userID int) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(
            SELECT 1 FROM shared_capsules sc
            WHERE sc.capsule_id = $1
              AND (sc.recipient_friend_id = $2
                   OR sc.recipient_email = (SELECT email FROM profiles WHERE id = $2))
         )`, capsuleID, userID)
	return exists, err
}

// ListForRecipient returns grants addressed to the user, with capsules.
func (r *ShareRepo) ListForRecipient(ctx context.Context, userID int) ([]SharedCapsuleView, error) {
	rows, err := r.db.QueryxContext(ctx,
		`SELECT sc.id, sc.capsule_id, sc.shared_by, sc.recipient_email, sc.recipient_friend_id, sc.shared_via, sc.created_at,
                c.id AS cap_id, c.owner_id, c.title, c.content, c.content_type, c.unlock_at, c.is_private, c.share_token, c.file_url,
                c.created_at AS cap_created_at, c.updated_at AS cap_updated_at
         FROM shared_capsules sc
         JOIN capsules c ON c.id = sc.capsule_id
         WHERE sc.recipient_friend_id = $1
            OR sc.recipient_email = (SELECT email FROM profiles WHERE id = $1)
         ORDER BY sc.created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []SharedCapsuleView
	for rows.Next() {
		var v SharedCapsuleView
		if err := rows.Scan(
			&v.ID, &v.CapsuleID, &v.SharedBy, &v.RecipientEmail, &v.RecipientFriendID, &v.SharedVia, &v.CreatedAt,
			&v.Capsule.ID, &v.Capsule.OwnerID, &v.Capsule.Title, &v.Capsule.Content, &v.Capsule.ContentType,
			&v.Capsule.UnlockAt, &v.Capsule.IsPrivate, &v.Capsule.ShareToken, &v.Capsule.FileURL,
			&v.Capsule.CreatedAt, &v.Capsule.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, v)
	}
	return result, rows.Err()
}
