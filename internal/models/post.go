package models

import (
	"time"

	"github.com/google/uuid"
)

// Post is a social feed post, optionally attached to an event or group.
type Post struct {
	ID           uuid.UUID  `json:"id"`
	AuthorID     uuid.UUID  `json:"author_id"`
	EventID      *uuid.UUID `json:"event_id,omitempty"`
	GroupID      *uuid.UUID `json:"group_id,omitempty"`
	Body         string     `json:"body"`
	LikeCount    int        `json:"like_count"`
	CommentCount int        `json:"comment_count"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Comment is a reply on a post.
type Comment struct {
	ID        uuid.UUID `json:"id"`
	PostID    uuid.UUID `json:"post_id"`
	AuthorID  uuid.UUID `json:"author_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}
