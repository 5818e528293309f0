package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"locktheday/internal/models"
)

var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrEmailTaken      = errors.New("email already registered")
)

// ProfileRepository abstracts account persistence.
type ProfileRepository interface {
	CreateProfile(ctx context.Context, email, passwordHash, fullName string) (models.Profile, error)
	GetByID(ctx context.Context, id int) (models.Profile, error)
	GetByEmail(ctx context.Context, email string) (models.Profile, error)
	Search(ctx context.Context, term string, excludeID int) ([]models.Profile, error)
	Delete(ctx context.Context, id int) error
	Count(ctx context.Context) (int, error)
}

// ProfileRepo is a sqlx implementation of ProfileRepository.
type ProfileRepo struct {
	db *sqlx.DB
}

// NewProfileRepo constructs a ProfileRepo.
func NewProfileRepo(db *sqlx.DB) *ProfileRepo {
	return &ProfileRepo{db: db}
}

// CreateProfile inserts a new account row.
func (r *ProfileRepo) CreateProfile(ctx context.Context, email, passwordHash, fullName string) (models.Profile, error) {
	var p models.Profile
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO profiles (email, password_hash, full_name) VALUES ($1, $2, $3)
         RETURNING id, email, password_hash, full_name, avatar_url, created_at`,
		email, passwordHash, fullName).StructScan(&p)
	if isUniqueViolation(err) {
		return models.Profile{}, ErrEmailTaken
	}
	return p, err
}

// GetByID fetches a profile by id.
func (r *ProfileRepo) GetByID(ctx context.Context, id int) (models.Profile, error) {
	var p models.Profile
	err := r.db.GetContext(ctx, &p, `SELECT * FROM profiles WHERE id=$1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Profile{}, ErrProfileNotFound
	}
	return p, err
}

// GetByEmail fetches a profile by email.
func (r *ProfileRepo) GetByEmail(ctx context.Context, email string) (models.Profile, error) {
	var p models.Profile
	err := r.db.GetContext(ctx, &p, `SELECT * FROM profiles WHERE email=$1`, email)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Profile{}, ErrProfileNotFound
	}
	return p, err
}

// Search finds profiles by email or name, excluding the caller.
func (r *ProfileRepo) Search(ctx context.Context, term string, excludeID int) ([]models.Profile, error) {
	var profiles []models.Profile
	err := r.db.SelectContext(ctx, &profiles,
		`SELECT * FROM profiles
         WHERE id <> $1 AND (email ILIKE $2 OR full_name ILIKE $2)
         ORDER BY full_name, email LIMIT 20`,
		excludeID, "%"+term+"%")
	return profiles, err
}

// Delete removes an account. Capsules, edges and messages cascade.
func (r *ProfileRepo) Delete(ctx context.Context, id int) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM profiles WHERE id=$1`, id)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrProfileNotFound
	}
	return nil
}

// Count returns the number of registered accounts.
func (r *ProfileRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM profiles`)
	return n, err
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
