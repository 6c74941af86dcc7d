package groups

import (
	"crypto/rand"
	"encoding/base32"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/gatherly/backend/internal/middleware"
	"github.com/gatherly/backend/internal/models"
	"github.com/gatherly/backend/pkg/response"
)

// Handler handles group HTTP endpoints.
type Handler struct {
	repo *Repository
}

// NewHandler creates a groups handler.
func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

// CreateRequest is the body for POST /groups.
type CreateRequest struct {
	Name        string `json:"name" binding:"required,max=255"`
	Description string `json:"description" binding:"max=2000"`
}

// JoinRequest is the body for POST /groups/join.
type JoinRequest struct {
	JoinCode string `json:"join_code" binding:"required"`
}

// Create handles POST /groups. Creates the group and adds the caller as owner.
func (h *Handler) Create(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	code, err := newJoinCode()
	if err != nil {
		response.Internal(c, "failed to create group")
		return
	}
	g := &models.Group{
		Name:        strings.TrimSpace(req.Name),
		Description: strings.TrimSpace(req.Description),
		JoinCode:    code,
		CreatedBy:   userID,
	}
	if g.Name == "" {
		response.BadRequest(c, "name required")
		return
	}
	if err := h.repo.Create(c.Request.Context(), g); err != nil {
		response.Internal(c, "failed to create group")
		return
	}
	if err := h.repo.AddMember(c.Request.Context(), g.ID, userID, "owner"); err != nil {
		response.Internal(c, "failed to add you as owner")
		return
	}
	response.Created(c, g)
}

// Join handles POST /groups/join. Adds the caller to the group by join code.
func (h *Handler) Join(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	var req JoinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "join_code required")
		return
	}
	g, err := h.repo.GetByJoinCode(c.Request.Context(), strings.ToUpper(strings.TrimSpace(req.JoinCode)))
	if err != nil {
		response.Internal(c, "failed to join group")
		return
	}
	if g == nil {
		response.NotFound(c, "group not found")
		return
	}
	if err := h.repo.AddMember(c.Request.Context(), g.ID, userID, "member"); err != nil {
		response.Internal(c, "failed to join group")
		return
	}
	response.OK(c, g)
}

// ListMine handles GET /groups: groups the caller belongs to.
func (h *Handler) ListMine(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	list, err := h.repo.ListForUser(c.Request.Context(), userID)
	if err != nil {
		response.Internal(c, "failed to list groups")
		return
	}
	response.OK(c, list)
}

// ListMembers handles GET /groups/:id/members (members only).
func (h *Handler) ListMembers(c *gin.Context) {
	groupID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid group id")
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	member, err := h.repo.IsMember(c.Request.Context(), groupID, userID)
	if err != nil {
		response.Internal(c, "failed to list members")
		return
	}
	if !member {
		response.Forbidden(c, "not a group member")
		return
	}
	members, err := h.repo.ListMembers(c.Request.Context(), groupID)
	if err != nil {
		response.Internal(c, "failed to list members")
		return
	}
	response.OK(c, members)
}

// newJoinCode returns a short random invite code, e.g. "K7QX3ZDP".
func newJoinCode() (string, error) {
	b := make([]byte, 5)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(b), nil
}
