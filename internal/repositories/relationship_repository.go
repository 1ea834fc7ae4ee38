// internal/repositories/relationship_repository.go
package repositories

import (
	"context"
	"fmt"

	"studyhub/internal/models"
)

// ===============================
// BOOKMARKS
// ===============================

// AddBookmark inserts the pair; an existing pair yields ErrDuplicate
func (s *PostgresStore) AddBookmark(ctx context.Context, bookmark *models.Bookmark) error {
	err := s.db.QueryRowxContext(ctx, `
		INSERT INTO bookmarks (document_id, user_id) VALUES ($1, $2)
		RETURNING id, created_at`,
		bookmark.DocumentID, bookmark.UserID,
	).Scan(&bookmark.ID, &bookmark.CreatedAt)

	return translateError(err,
		fmt.Sprintf("bookmark for document %d by user %d", bookmark.DocumentID, bookmark.UserID))
}

func (s *PostgresStore) RemoveBookmark(ctx context.Context, documentID, userID int64) error {
	subject := fmt.Sprintf("bookmark for document %d by user %d", documentID, userID)
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM bookmarks WHERE document_id = $1 AND user_id = $2`, documentID, userID)
	if err != nil {
		return translateError(err, subject)
	}
	return requireAffected(result, subject)
}

func (s *PostgresStore) BookmarkExists(ctx context.Context, documentID, userID int64) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM bookmarks WHERE document_id = $1 AND user_id = $2)`,
		documentID, userID)
	if err != nil {
		return false, translateError(err, "bookmark lookup")
	}
	return exists, nil
}

func (s *PostgresStore) ListBookmarksByUser(ctx context.Context, userID int64) ([]*models.Bookmark, error) {
	bookmarks := make([]*models.Bookmark, 0)
	err := s.db.SelectContext(ctx, &bookmarks, `
		SELECT id, document_id, user_id, created_at FROM bookmarks
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, translateError(err, fmt.Sprintf("bookmarks of user %d", userID))
	}
	return bookmarks, nil
}

// ===============================
// FOLLOWS
// ===============================

const followColumns = `id, follower_id, following_id, created_at`

// AddFollow inserts the directed edge; an existing edge yields ErrDuplicate
func (s *PostgresStore) AddFollow(ctx context.Context, follow *models.Follow) error {
	err := s.db.QueryRowxContext(ctx, `
		INSERT INTO follows (follower_id, following_id) VALUES ($1, $2)
		RETURNING id, created_at`,
		follow.FollowerID, follow.FollowingID,
	).Scan(&follow.ID, &follow.CreatedAt)

	return translateError(err, fmt.Sprintf("follow %d -> %d", follow.FollowerID, follow.FollowingID))
}

func (s *PostgresStore) RemoveFollow(ctx context.Context, followerID, followingID int64) error {
	subject := fmt.Sprintf("follow %d -> %d", followerID, followingID)
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM follows WHERE follower_id = $1 AND following_id = $2`, followerID, followingID)
	if err != nil {
		return translateError(err, subject)
	}
	return requireAffected(result, subject)
}

func (s *PostgresStore) FollowExists(ctx context.Context, followerID, followingID int64) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM follows WHERE follower_id = $1 AND following_id = $2)`,
		followerID, followingID)
	if err != nil {
		return false, translateError(err, "follow lookup")
	}
	return exists, nil
}

func (s *PostgresStore) ListFollowers(ctx context.Context, userID int64) ([]*models.Follow, error) {
	follows := make([]*models.Follow, 0)
	err := s.db.SelectContext(ctx, &follows,
		`SELECT `+followColumns+` FROM follows WHERE following_id = $1 ORDER BY created_at DESC, id DESC`,
		userID)
	if err != nil {
		return nil, translateError(err, fmt.Sprintf("followers of user %d", userID))
	}
	return follows, nil
}

func (s *PostgresStore) ListFollowing(ctx context.Context, userID int64) ([]*models.Follow, error) {
	follows := make([]*models.Follow, 0)
	err := s.db.SelectContext(ctx, &follows,
		`SELECT `+followColumns+` FROM follows WHERE follower_id = $1 ORDER BY created_at DESC, id DESC`,
		userID)
	if err != nil {
		return nil, translateError(err, fmt.Sprintf("following of user %d", userID))
	}
	return follows, nil
}

func (s *PostgresStore) CountFollowers(ctx context.Context, userID int64) (int, error) {
	var count int
	if err := s.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM follows WHERE following_id = $1`, userID); err != nil {
		return 0, translateError(err, fmt.Sprintf("followers of user %d", userID))
	}
	return count, nil
}

func (s *PostgresStore) CountFollowing(ctx context.Context, userID int64) (int, error) {
	var count int
	if err := s.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM follows WHERE follower_id = $1`, userID); err != nil {
		return 0, translateError(err, fmt.Sprintf("following of user %d", userID))
	}
	return count, nil
}
