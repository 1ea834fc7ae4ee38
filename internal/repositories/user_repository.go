// internal/repositories/user_repository.go
package repositories

import (
	"context"
	"fmt"

	"studyhub/internal/models"

	"github.com/lib/pq"
)

const userColumns = `
	id, username, email, password_hash,
	avatar_url, bio, university, major, year,
	reputation, total_uploads, total_downloads, created_at`

// ===============================
// USER OPERATIONS
// ===============================

// CreateUser inserts a user; username and email must be unique
func (s *PostgresStore) CreateUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (
			username, email, password_hash,
			avatar_url, bio, university, major, year
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, reputation, total_uploads, total_downloads, created_at`

	err := s.db.QueryRowxContext(
		ctx, query,
		user.Username, user.Email, user.PasswordHash,
		user.AvatarURL, user.Bio, user.University, user.Major, user.Year,
	).Scan(&user.ID, &user.Reputation, &user.TotalUploads, &user.TotalDownloads, &user.CreatedAt)

	return translateError(err, fmt.Sprintf("user %q", user.Username))
}

func (s *PostgresStore) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	err := s.db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	if err != nil {
		return nil, translateError(err, fmt.Sprintf("user %d", id))
	}
	return &user, nil
}

func (s *PostgresStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := s.db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
	if err != nil {
		return nil, translateError(err, fmt.Sprintf("user %q", username))
	}
	return &user, nil
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	if err != nil {
		return nil, translateError(err, fmt.Sprintf("user %q", email))
	}
	return &user, nil
}

// GetUsersByIDs resolves a batch of users in one query; missing ids are absent from the map
func (s *PostgresStore) GetUsersByIDs(ctx context.Context, ids []int64) (map[int64]*models.User, error) {
	result := make(map[int64]*models.User, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	var users []*models.User
	err := s.db.SelectContext(ctx, &users, `SELECT `+userColumns+` FROM users WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return nil, translateError(err, "users by ids")
	}

	for _, user := range users {
		result[user.ID] = user
	}
	return result, nil
}

// UpdateUserProfile rewrites the optional profile fields
func (s *PostgresStore) UpdateUserProfile(ctx context.Context, user *models.User) error {
	query := `
		UPDATE users SET
			avatar_url = $2, bio = $3, university = $4, major = $5, year = $6
		WHERE id = $1`

	result, err := s.db.ExecContext(ctx, query,
		user.ID, user.AvatarURL, user.Bio, user.University, user.Major, user.Year)
	if err != nil {
		return translateError(err, fmt.Sprintf("user %d", user.ID))
	}
	return requireAffected(result, fmt.Sprintf("user %d", user.ID))
}
