package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"locktheday/internal/models"
)

var (
	ErrRequestNotFound  = errors.New("friend request not found")
	ErrDuplicateRequest = errors.New("friend request already exists")
)

// FriendRepository abstracts friendship edges.
type FriendRepository interface {
	CreateRequest(ctx context.Context, requesterID, addresseeID int) (models.Friendship, error)
	GetEdge(ctx context.Context, id int) (models.Friendship, error)
	Accept(ctx context.Context, id int) (models.Friendship, error)
	DeleteEdge(ctx context.Context, id int) error
	AreFriends(ctx context.Context, userID, otherID int) (bool, error)
	ListFriends(ctx context.Context, userID int) ([]models.FriendSummary, error)
	ListIncoming(ctx context.Context, userID int) ([]models.FriendSummary, error)
	DeleteAccepted(ctx context.Context, userID, friendID int) error
}

// FriendRepo is a sqlx implementation of FriendRepository.
type FriendRepo struct {
	db *sqlx.DB
}

// NewFriendRepo constructs a FriendRepo.
func NewFriendRepo(db *sqlx.DB) *FriendRepo {
	return &FriendRepo{db: db}
}

// CreateRequest inserts a pending edge. The partial unique index on the
// unordered pair rejects a second active edge in either direction, which
// also settles the simultaneous mutual-request race: exactly one insert
// wins.
func (r *FriendRepo) CreateRequest(ctx context.Context, requesterID, addresseeID int) (models.Friendship, error) {
	var edge models.Friendship
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO friends (requester_id, addressee_id, status)
         VALUES ($1, $2, 'pending')
         RETURNING id, requester_id, addressee_id, status, created_at, updated_at`,
		requesterID, addresseeID).StructScan(&edge)
	if isUniqueViolation(err) {
		return models.Friendship{}, ErrDuplicateRequest
	}
	return edge, err
}

// GetEdge fetches an edge by id.
func (r *FriendRepo) GetEdge(ctx context.Context, id int) (models.Friendship, error) {
	var edge models.Friendship
	err := r.db.GetContext(ctx, &edge, `SELECT * FROM friends WHERE id=$1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Friendship{}, ErrRequestNotFound
	}
	return edge, err
}

// Accept transitions a pending edge to accepted.
func (r *FriendRepo) Accept(ctx context.Context, id int) (models.Friendship, error) {
	var edge models.Friendship
	err := r.db.QueryRowxContext(ctx,
		`UPDATE friends SET status='accepted', updated_at=NOW()
         WHERE id=$1 AND status='pending'
         RETURNING id, requester_id, addressee_id, status, created_at, updated_at`, id).
		StructScan(&edge)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Friendship{}, ErrRequestNotFound
	}
	return edge, err
}

// DeleteEdge removes an edge. Declines and cancellations delete the row
// outright so a later request between the same pair succeeds.
func (r *FriendRepo) DeleteEdge(ctx context.Context, id int) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM friends WHERE id=$1`, id)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrRequestNotFound
	}
	return nil
}

// AreFriends reports whether an accepted edge exists between the two users
// in either direction.
func (r *FriendRepo) AreFriends(ctx context.Context, userID, otherID int) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(
            SELECT 1 FROM friends
            WHERE status='accepted'
              AND ((requester_id=$1 AND addressee_id=$2) OR (requester_id=$2 AND addressee_id=$1))
         )`, userID, otherID)
	return exists, err
}

// ListFriends returns accepted edges with the counterpart profile resolved.
func (r *FriendRepo) ListFriends(ctx context.Context, userID int) ([]models.FriendSummary, error) {
	var friends []models.FriendSummary
	err := r.db.SelectContext(ctx, &friends,
		`SELECT f.id AS edge_id, p.id AS friend_id, p.email, p.full_name,
                p.avatar_url, f.status, f.created_at
         FROM friends f
         JOIN profiles p ON p.id = CASE WHEN f.requester_id=$1 THEN f.addressee_id ELSE f.requester_id END
         WHERE f.status='accepted' AND (f.requester_id=$1 OR f.addressee_id=$1)
         ORDER BY p.full_name, p.email`, userID)
	return friends, err
}

// ListIncoming returns pending requests addressed to the user, with the
// requester's profile.
func (r *FriendRepo) ListIncoming(ctx context.Context, userID int) ([]models.FriendSummary, error) {
	var requests []models.FriendSummary
	err := r.db.SelectContext(ctx, &requests,
		`SELECT f.id AS edge_id, p.id AS friend_id, p.email, p.full_name,
                p.avatar_url, f.status, f.created_at
         FROM friends f
         JOIN profiles p ON p.id = f.requester_id
         WHERE f.status='pending' AND f.addressee_id=$1
         ORDER BY f.created_at DESC`, userID)
	return requests, err
}

// DeleteAccepted removes the accepted edge between two users (unfriend).
func (r *FriendRepo) DeleteAccepted(ctx context.Context, userID, friendID int) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM friends
         WHERE status='accepted'
           AND ((requester_id=$1 AND addressee_id=$2) OR (requester_id=$2 AND addressee_id=$1))`,
		userID, friendID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrRequestNotFound
	}
	return nil
}
