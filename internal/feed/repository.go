package feed

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gatherly/backend/internal/models"
)

// Repository handles feed persistence: posts, comments, likes, bookmarks.
// Uniqueness (one like per user per post, etc.) is enforced by database
// constraints, not application logic.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a feed repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CreatePost inserts a post.
func (r *Repository) CreatePost(ctx context.Context, p *models.Post) error {
	const q = `INSERT INTO posts (id, author_id, event_id, group_id, body)
		VALUES (gen_random_uuid(), $1, $2, $3, $4)
		RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, p.AuthorID, p.EventID, p.GroupID, p.Body).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
}

// GetPost returns a post by ID with counts, or nil when not found.
func (r *Repository) GetPost(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	const q = `SELECT p.id, p.author_id, p.event_id, p.group_id, p.body,
		(SELECT COUNT(*) FROM post_likes l WHERE l.post_id = p.id),
		(SELECT COUNT(*) FROM comments c WHERE c.post_id = p.id),
		p.created_at, p.updated_at
		FROM posts p WHERE p.id = $1`
	var p models.Post
	err := r.pool.QueryRow(ctx, q, id).Scan(&p.ID, &p.AuthorID, &p.EventID, &p.GroupID, &p.Body,
		&p.LikeCount, &p.CommentCount, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListPosts returns the newest posts with counts, optionally scoped to an
// event or group.
func (r *Repository) ListPosts(ctx context.Context, eventID, groupID *uuid.UUID, limit int) ([]models.Post, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	q := `SELECT p.id, p.author_id, p.event_id, p.group_id, p.body,
		(SELECT COUNT(*) FROM post_likes l WHERE l.post_id = p.id),
		(SELECT COUNT(*) FROM comments c WHERE c.post_id = p.id),
		p.created_at, p.updated_at FROM posts p`
	var args []interface{}
	limitPlaceholder := "$1"
	switch {
	case eventID != nil:
		q += ` WHERE p.event_id = $1`
		args = append(args, *eventID)
		limitPlaceholder = "$2"
	case groupID != nil:
		q += ` WHERE p.group_id = $1`
		args = append(args, *groupID)
		limitPlaceholder = "$2"
	}
	args = append(args, limit)
	rows, err := r.pool.Query(ctx, q+` ORDER BY p.created_at DESC LIMIT `+limitPlaceholder, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Post
	for rows.Next() {
		var p models.Post
		if err := rows.Scan(&p.ID, &p.AuthorID, &p.EventID, &p.GroupID, &p.Body,
			&p.LikeCount, &p.CommentCount, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

// DeletePost removes a post owned by authorID.
func (r *Repository) DeletePost(ctx context.Context, id, authorID uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM posts WHERE id = $1 AND author_id = $2`, id, authorID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// CreateComment inserts a comment on a post.
func (r *Repository) CreateComment(ctx context.Context, cm *models.Comment) error {
	const q = `INSERT INTO comments (id, post_id, author_id, body)
		VALUES (gen_random_uuid(), $1, $2, $3)
		RETURNING id, created_at`
	return r.pool.QueryRow(ctx, q, cm.PostID, cm.AuthorID, cm.Body).Scan(&cm.ID, &cm.CreatedAt)
}

// ListComments returns comments on a post, oldest first.
func (r *Repository) ListComments(ctx context.Context, postID uuid.UUID) ([]models.Comment, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, post_id, author_id, body, created_at
		FROM comments WHERE post_id = $1 ORDER BY created_at ASC`, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Comment
	for rows.Next() {
		var cm models.Comment
		if err := rows.Scan(&cm.ID, &cm.PostID, &cm.AuthorID, &cm.Body, &cm.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, cm)
	}
	return list, rows.Err()
}

// Like records a like; repeated likes are no-ops.
func (r *Repository) Like(ctx context.Context, postID, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO post_likes (post_id, user_id) VALUES ($1, $2)
		ON CONFLICT (post_id, user_id) DO NOTHING`, postID, userID)
	return err
}

// Unlike removes a like.
func (r *Repository) Unlike(ctx context.Context, postID, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM post_likes WHERE post_id = $1 AND user_id = $2`, postID, userID)
	return err
}

// Bookmark records a bookmark; repeated bookmarks are no-ops.
func (r *Repository) Bookmark(ctx context.Context, postID, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO bookmarks (post_id, user_id) VALUES ($1, $2)
		ON CONFLICT (post_id, user_id) DO NOTHING`, postID, userID)
	return err
}

// Unbookmark removes a bookmark.
func (r *Repository) Unbookmark(ctx context.Context, postID, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM bookmarks WHERE post_id = $1 AND user_id = $2`, postID, userID)
	return err
}

// ListBookmarked returns the user's bookmarked posts, newest bookmark first.
func (r *Repository) ListBookmarked(ctx context.Context, userID uuid.UUID) ([]models.Post, error) {
	const q = `SELECT p.id, p.author_id, p.event_id, p.group_id, p.body,
		(SELECT COUNT(*) FROM post_likes l WHERE l.post_id = p.id),
		(SELECT COUNT(*) FROM comments c WHERE c.post_id = p.id),
		p.created_at, p.updated_at
		FROM posts p JOIN bookmarks b ON b.post_id = p.id
		WHERE b.user_id = $1 ORDER BY b.created_at DESC`
	rows, err := r.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Post
	for rows.Next() {
		var p models.Post
		if err := rows.Scan(&p.ID, &p.AuthorID, &p.EventID, &p.GroupID, &p.Body,
			&p.LikeCount, &p.CommentCount, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, rows.Err()
}
