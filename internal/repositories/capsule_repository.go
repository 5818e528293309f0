package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"locktheday/internal/models"
)

var ErrCapsuleNotFound = errors.New("capsule not found")

// CapsuleRepository abstracts capsule persistence.
type CapsuleRepository interface {
	CreateCapsule(ctx context.Context, c models.Capsule) (models.Capsule, error)
	GetCapsule(ctx context.Context, id int) (models.Capsule, error)
	GetByShareToken(ctx context.Context, token string) (models.Capsule, error)
	ListPublic(ctx context.Context) ([]models.Capsule, error)
	ListOwn(ctx context.Context, ownerID int) ([]models.Capsule, error)
	Delete(ctx context.Context, id int) error
	Count(ctx context.Context) (int, int, error)
}

// CapsuleRepo is a sqlx implementation of CapsuleRepository.
type CapsuleRepo struct {
	db *sqlx.DB
}

// NewCapsuleRepo constructs a CapsuleRepo.
func NewCapsuleRepo(db *sqlx.DB) *CapsuleRepo {
	return &CapsuleRepo{db: db}
}

// CreateCapsule stores a new capsule. The share token is minted by the
// caller exactly once and never reassigned afterwards.
func (r *CapsuleRepo) CreateCapsule(ctx context.Context, c models.Capsule) (models.Capsule, error) {
	var created models.Capsule
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO capsules (owner_id, title, content, content_type, unlock_at, is_private, share_token, file_url)
         VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
         RETURNING id, owner_id, title, content, content_type, unlock_at, is_private, share_token, file_url, created_at, updated_at`,
		c.OwnerID, c.Title, c.Content, c.ContentType, c.UnlockAt, c.IsPrivate, c.ShareToken, c.FileURL).
		StructScan(&created)
	return created, err
}

// GetCapsule fetches a capsule by id.
func (r *CapsuleRepo) GetCapsule(ctx context.Context, id int) (models.Capsule, error) {
	var c models.Capsule
	err := r.db.GetContext(ctx, &c, `SELECT * FROM capsules WHERE id=$1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Capsule{}, ErrCapsuleNotFound
	}
	return c, err
}

// GetByShareToken fetches a capsule by its share token.
func (r *CapsuleRepo) GetByShareToken(ctx context.Context, token string) (models.Capsule, error) {
	var c models.Capsule
	err := r.db.GetContext(ctx, &c, `SELECT * FROM capsules WHERE share_token=$1`, token)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Capsule{}, ErrCapsuleNotFound
	}
	return c, err
}

// ListPublic returns non-private capsules, locked and unlocked alike.
// Private capsules are excluded at the query boundary so they can never
// appear in a public listing, not even transiently.
func (r *CapsuleRepo) ListPublic(ctx context.Context) ([]models.Capsule, error) {
	var capsules []models.Capsule
	err := r.db.SelectContext(ctx, &capsules,
		`SELECT * FROM capsules WHERE is_private = FALSE ORDER BY created_at DESC`)
	return capsules, err
}

// ListOwn returns the owner's capsules newest first.
func (r *CapsuleRepo) ListOwn(ctx context.Context, ownerID int) ([]models.Capsule, error) {
	var capsules []models.Capsule
	err := r.db.SelectContext(ctx, &capsules,
		`SELECT * FROM capsules WHERE owner_id=$1 ORDER BY created_at DESC`, ownerID)
	return capsules, err
}

// Delete removes a capsule. Used by moderation only; owners have no delete
// flow.
func (r *CapsuleRepo) Delete(ctx context.Context, id int) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM capsules WHERE id=$1`, id)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrCapsuleNotFound
	}
	return nil
}

// Count returns total and public capsule counts.
func (r *CapsuleRepo) Count(ctx context.Context) (int, int, error) {
	var total, public int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM capsules`); err != nil {
		return 0, 0, err
	}
	if err := r.db.GetContext(ctx, &public, `SELECT COUNT(*) FROM capsules WHERE is_private = FALSE`); err != nil {
		return 0, 0, err
	}
	return total, public, nil
}
