package events

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gatherly/backend/internal/middleware"
	"github.com/gatherly/backend/internal/models"
	"github.com/gatherly/backend/internal/similarity"
	"github.com/gatherly/backend/pkg/response"
	"github.com/gatherly/backend/pkg/storage"
)

// CreateRequest is the body for POST /events.
type CreateRequest struct {
	Title       string  `json:"title" binding:"required"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Location    string  `json:"location" binding:"required"`
	StartsAt    string  `json:"starts_at" binding:"required"`
	EndsAt      *string `json:"ends_at"`
	Capacity    int     `json:"capacity"`
	GroupID     *string `json:"group_id"`
	// Force skips the duplicate warning (but never a block).
	Force bool `json:"force"`
}

// UpdateRequest is the body for PATCH /events/:id.
type UpdateRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Location    string  `json:"location"`
	StartsAt    *string `json:"starts_at"`
	EndsAt      *string `json:"ends_at"`
}

// Handler handles event HTTP endpoints.
type Handler struct {
	repo       *Repository
	similarity *similarity.Service
	store      *storage.S3
	logger     *zap.Logger
}

// NewHandler creates an events handler. store may be nil when S3 is not
// configured; cover image endpoints then return 503.
func NewHandler(repo *Repository, sim *similarity.Service, store *storage.S3, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, similarity: sim, store: store, logger: logger}
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}

func parseCategory(s string) (models.EventCategory, bool) {
	switch models.EventCategory(s) {
	case models.CategoryHackathon, models.CategoryWorkshop, models.CategoryModelUN, models.CategoryGaming, models.CategoryOther:
		return models.EventCategory(s), true
	case "":
		return models.CategoryOther, true
	}
	return "", false
}

// Create handles POST /events (organizer or admin). The similarity check runs
// before the write: a block tier rejects the creation with 409, warn and
// low_risk tiers pass through as a warning on the 201 response. If the
// candidate read fails the creation fails closed with 503 rather than
// skipping the check.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)

	startsAt, err := parseTime(req.StartsAt)
	if err != nil {
		response.BadRequest(c, "invalid starts_at")
		return
	}
	var endsAt *time.Time
	if req.EndsAt != nil {
		t, err := parseTime(*req.EndsAt)
		if err != nil {
			response.BadRequest(c, "invalid ends_at")
			return
		}
		endsAt = &t
	}
	category, ok := parseCategory(req.Category)
	if !ok {
		response.BadRequest(c, "invalid category")
		return
	}
	var groupID *uuid.UUID
	if req.GroupID != nil {
		id, err := uuid.Parse(*req.GroupID)
		if err != nil {
			response.BadRequest(c, "invalid group_id")
			return
		}
		groupID = &id
	}

	assessment, err := h.similarity.Check(c.Request.Context(), req.Title, req.Location, startsAt, userID)
	if err != nil {
		h.logger.Error("duplicate check failed", zap.Error(err), zap.String("user_id", userID.String()))
		response.ServiceUnavailable(c, "duplicate check unavailable, try again")
		return
	}
	if assessment.Tier == similarity.TierBlock {
		top := assessment.Matches[0]
		h.logger.Info("event creation blocked as duplicate",
			zap.String("user_id", userID.String()),
			zap.String("similar_event_id", top.EventID.String()),
			zap.Float64("score", top.Score))
		response.Conflict(c, "duplicate_detected: an event very similar to \""+top.Title+"\" already exists")
		return
	}

	e := &models.Event{
		Title:       req.Title,
		Description: req.Description,
		Category:    category,
		Location:    req.Location,
		StartsAt:    startsAt,
		EndsAt:      endsAt,
		Capacity:    req.Capacity,
		CreatedBy:   userID,
		GroupID:     groupID,
	}
	if err := h.repo.Create(c.Request.Context(), e); err != nil {
		h.logger.Error("create event failed", zap.Error(err))
		response.Internal(c, "failed to create event")
		return
	}

	body := gin.H{"event": e}
	if assessment.HasDuplicates && !req.Force {
		body["warning"] = "similar events found"
		body["assessment"] = assessment
	}
	response.Created(c, body)
}

// List handles GET /events with optional ?category= filter.
func (h *Handler) List(c *gin.Context) {
	var category *models.EventCategory
	if s := c.Query("category"); s != "" {
		cat, ok := parseCategory(s)
		if !ok {
			response.BadRequest(c, "invalid category")
			return
		}
		category = &cat
	}
	list, err := h.repo.List(c.Request.Context(), category)
	if err != nil {
		response.Internal(c, "failed to list events")
		return
	}
	response.OK(c, list)
}

// GetByID handles GET /events/:id.
func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	e, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil || e == nil {
		response.NotFound(c, "event not found")
		return
	}
	response.OK(c, e)
}

// Update handles PATCH /events/:id (creator or admin).
func (h *Handler) Update(c *gin.Context) {
	e, ok := h.requireOwnedEvent(c)
	if !ok {
		return
	}
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	var startsAt, endsAt *time.Time
	if req.StartsAt != nil {
		t, err := parseTime(*req.StartsAt)
		if err != nil {
			response.BadRequest(c, "invalid starts_at")
			return
		}
		startsAt = &t
	}
	if req.EndsAt != nil {
		t, err := parseTime(*req.EndsAt)
		if err != nil {
			response.BadRequest(c, "invalid ends_at")
			return
		}
		endsAt = &t
	}
	if err := h.repo.Update(c.Request.Context(), e.ID, req.Title, req.Description, req.Location, startsAt, endsAt); err != nil {
		response.Internal(c, "failed to update event")
		return
	}
	updated, err := h.repo.GetByID(c.Request.Context(), e.ID)
	if err != nil {
		response.Internal(c, "failed to load event")
		return
	}
	response.OK(c, updated)
}

// Delete handles DELETE /events/:id (creator or admin).
func (h *Handler) Delete(c *gin.Context) {
	e, ok := h.requireOwnedEvent(c)
	if !ok {
		return
	}
	if err := h.repo.Delete(c.Request.Context(), e.ID); err != nil {
		response.Internal(c, "failed to delete event")
		return
	}
	response.NoContent(c)
}

// UploadCover handles POST /events/:id/cover (creator or admin): uploads the
// cover image to S3 and stores the object key.
func (h *Handler) UploadCover(c *gin.Context) {
	if h.store == nil {
		response.ServiceUnavailable(c, "image storage not configured")
		return
	}
	e, ok := h.requireOwnedEvent(c)
	if !ok {
		return
	}
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		response.BadRequest(c, "file required")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !storage.ValidateImageType(contentType, header.Filename) {
		response.BadRequest(c, "unsupported file type")
		return
	}
	if header.Size > storage.MaxCoverFileSize {
		response.BadRequest(c, "file too large")
		return
	}

	key := storage.CoverKey(e.ID.String(), header.Filename)
	if err := h.store.Upload(c.Request.Context(), key, contentType, file); err != nil {
		h.logger.Error("cover upload failed", zap.Error(err), zap.String("event_id", e.ID.String()))
		response.Internal(c, "upload failed")
		return
	}
	if err := h.repo.SetCoverImage(c.Request.Context(), e.ID, key); err != nil {
		response.Internal(c, "failed to save cover image")
		return
	}
	response.OK(c, gin.H{"cover_image_key": key})
}

// CoverURL handles GET /events/:id/cover-url: returns a presigned download
// URL for the event cover image.
func (h *Handler) CoverURL(c *gin.Context) {
	if h.store == nil {
		response.ServiceUnavailable(c, "image storage not configured")
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	e, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil || e == nil {
		response.NotFound(c, "event not found")
		return
	}
	if e.CoverImageKey == "" {
		response.NotFound(c, "event has no cover image")
		return
	}
	url, err := h.store.PresignDownload(c.Request.Context(), e.CoverImageKey)
	if err != nil {
		response.Internal(c, "failed to presign url")
		return
	}
	response.OK(c, gin.H{"url": url})
}

// requireOwnedEvent loads the :id event and checks the caller is its creator
// or an admin. Writes the error response itself when the check fails.
func (h *Handler) requireOwnedEvent(c *gin.Context) (*models.Event, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return nil, false
	}
	e, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil || e == nil {
		response.NotFound(c, "event not found")
		return nil, false
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	role, _ := c.Get(middleware.ContextUserRole)
	if e.CreatedBy != userID && role != string(models.RoleAdmin) {
		response.Forbidden(c, "not the event organizer")
		return nil, false
	}
	return e, true
}
