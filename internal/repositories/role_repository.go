package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"locktheday/internal/models"
)

// RoleRepository abstracts role assignments and their audit log.
type RoleRepository interface {
	GetRole(ctx context.Context, userID int) (string, error)
	SetRole(ctx context.Context, userID int, newRole string, changedBy int) (models.RoleChange, error)
	ListUsersWithRoles(ctx context.Context) ([]models.UserWithRole, error)
	ListRoleChanges(ctx context.Context) ([]models.RoleChange, error)
}

// RoleRepo is a sqlx implementation of RoleRepository.
type RoleRepo struct {
	db *sqlx.DB
}

// NewRoleRepo constructs a RoleRepo.
func NewRoleRepo(db *sqlx.DB) *RoleRepo {
	return &RoleRepo{db: db}
}

// GetRole returns the user's role, defaulting to plain user when no
// assignment exists.
func (r *RoleRepo) GetRole(ctx context.Context, userID int) (string, error) {
	var role string
	err := r.db.GetContext(ctx, &role, `SELECT role FROM user_roles WHERE user_id=$1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.RoleUser, nil
	}
	return role, err
}

// SetRole upserts the assignment and appends to the role_changes log in one
// transaction. The log is append-only; nothing updates or deletes its rows.
func (r *RoleRepo) SetRole(ctx context.Context, userID int, newRole string, changedBy int) (models.RoleChange, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.RoleChange{}, err
	}
	defer tx.Rollback()

	oldRole := models.RoleUser
	err = tx.GetContext(ctx, &oldRole, `SELECT role FROM user_roles WHERE user_id=$1 FOR UPDATE`, userID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return models.RoleChange{}, err
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO user_roles (user_id, role) VALUES ($1, $2)
         ON CONFLICT (user_id) DO UPDATE SET role = EXCLUDED.role`,
		userID, newRole); err != nil {
		return models.RoleChange{}, err
	}

	var change models.RoleChange
	if err := tx.QueryRowxContext(ctx,
		`INSERT INTO role_changes (user_id, changed_by, old_role, new_role)
         VALUES ($1, $2, $3, $4)
         RETURNING id, user_id, changed_by, old_role, new_role, created_at`,
		userID, changedBy, oldRole, newRole).StructScan(&change); err != nil {
		return models.RoleChange{}, err
	}

	return change, tx.Commit()
}

// ListUsersWithRoles returns every account joined with its role.
func (r *RoleRepo) ListUsersWithRoles(ctx context.Context) ([]models.UserWithRole, error) {
	var users []models.UserWithRole
	err := r.db.SelectContext(ctx, &users,
		`SELECT p.id, p.email, p.full_name, p.avatar_url,
                COALESCE(ur.role, 'user') AS role, p.created_at
         FROM profiles p
         LEFT JOIN user_roles ur ON ur.user_id = p.id
         ORDER BY p.created_at DESC`)
	return users, err
}

// ListRoleChanges returns the audit log, newest first.
func (r *RoleRepo) ListRoleChanges(ctx context.Context) ([]models.RoleChange, error) {
	var changes []models.RoleChange
	err := r.db.SelectContext(ctx, &changes,
		`SELECT * FROM role_changes ORDER BY created_at DESC, id DESC`)
	return changes, err
}
