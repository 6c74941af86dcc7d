package feed

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gatherly/backend/internal/middleware"
	"github.com/gatherly/backend/internal/models"
	"github.com/gatherly/backend/pkg/response"
)

// CreatePostRequest is the body for POST /posts.
type CreatePostRequest struct {
	Body    string  `json:"body" binding:"required,max=4000"`
	EventID *string `json:"event_id"`
	GroupID *string `json:"group_id"`
}

// CreateCommentRequest is the body for POST /posts/:id/comments.
type CreateCommentRequest struct {
	Body string `json:"body" binding:"required,max=2000"`
}

// Handler handles social feed HTTP endpoints.
type Handler struct {
	repo   *Repository
	logger *zap.Logger
}

// NewHandler creates a feed handler.
func NewHandler(repo *Repository, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, logger: logger}
}

// CreatePost handles POST /posts.
func (h *Handler) CreatePost(c *gin.Context) {
	var req CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)

	p := &models.Post{AuthorID: userID, Body: req.Body}
	if req.EventID != nil {
		id, err := uuid.Parse(*req.EventID)
		if err != nil {
			response.BadRequest(c, "invalid event_id")
			return
		}
		p.EventID = &id
	}
	if req.GroupID != nil {
		id, err := uuid.Parse(*req.GroupID)
		if err != nil {
			response.BadRequest(c, "invalid group_id")
			return
		}
		p.GroupID = &id
	}
	if err := h.repo.CreatePost(c.Request.Context(), p); err != nil {
		h.logger.Error("create post failed", zap.Error(err))
		response.Internal(c, "failed to create post")
		return
	}
	response.Created(c, p)
}

// ListPosts handles GET /posts with optional ?event_id= or ?group_id= scope.
func (h *Handler) ListPosts(c *gin.Context) {
	var eventID, groupID *uuid.UUID
	if s := c.Query("event_id"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			response.BadRequest(c, "invalid event_id")
			return
		}
		eventID = &id
	}
	if s := c.Query("group_id"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			response.BadRequest(c, "invalid group_id")
			return
		}
		groupID = &id
	}
	list, err := h.repo.ListPosts(c.Request.Context(), eventID, groupID, 50)
	if err != nil {
		response.Internal(c, "failed to list posts")
		return
	}
	response.OK(c, list)
}

// DeletePost handles DELETE /posts/:id (author only).
func (h *Handler) DeletePost(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid post id")
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	deleted, err := h.repo.DeletePost(c.Request.Context(), id, userID)
	if err != nil {
		response.Internal(c, "failed to delete post")
		return
	}
	if !deleted {
		response.NotFound(c, "post not found")
		return
	}
	response.NoContent(c)
}

// CreateComment handles POST /posts/:id/comments.
func (h *Handler) CreateComment(c *gin.Context) {
	postID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid post id")
		return
	}
	var req CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	p, err := h.repo.GetPost(c.Request.Context(), postID)
	if err != nil || p == nil {
		response.NotFound(c, "post not found")
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	cm := &models.Comment{PostID: postID, AuthorID: userID, Body: req.Body}
	if err := h.repo.CreateComment(c.Request.Context(), cm); err != nil {
		response.Internal(c, "failed to create comment")
		return
	}
	response.Created(c, cm)
}

// ListComments handles GET /posts/:id/comments.
func (h *Handler) ListComments(c *gin.Context) {
	postID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid post id")
		return
	}
	list, err := h.repo.ListComments(c.Request.Context(), postID)
	if err != nil {
		response.Internal(c, "failed to list comments")
		return
	}
	response.OK(c, list)
}

// Like handles POST /posts/:id/like.
func (h *Handler) Like(c *gin.Context) {
	h.togglePostLink(c, h.repo.Like)
}

// Unlike handles DELETE /posts/:id/like.
func (h *Handler) Unlike(c *gin.Context) {
	h.togglePostLink(c, h.repo.Unlike)
}

// Bookmark handles POST /posts/:id/bookmark.
func (h *Handler) Bookmark(c *gin.Context) {
	h.togglePostLink(c, h.repo.Bookmark)
}

// Unbookmark handles DELETE /posts/:id/bookmark.
func (h *Handler) Unbookmark(c *gin.Context) {
	h.togglePostLink(c, h.repo.Unbookmark)
}

// ListBookmarks handles GET /bookmarks.
func (h *Handler) ListBookmarks(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	list, err := h.repo.ListBookmarked(c.Request.Context(), userID)
	if err != nil {
		response.Internal(c, "failed to list bookmarks")
		return
	}
	response.OK(c, list)
}

func (h *Handler) togglePostLink(c *gin.Context, op func(ctx context.Context, postID, userID uuid.UUID) error) {
	postID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid post id")
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	if err := op(c.Request.Context(), postID, userID); err != nil {
		response.Internal(c, "operation failed")
		return
	}
	response.NoContent(c)
}
