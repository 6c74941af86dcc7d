package registrations

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gatherly/backend/internal/events"
	"github.com/gatherly/backend/internal/middleware"
	"github.com/gatherly/backend/internal/models"
	"github.com/gatherly/backend/pkg/queue"
	"github.com/gatherly/backend/pkg/response"
)

// RegisterRequest is the body for POST /events/:id/register.
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	FullName string `json:"full_name" binding:"required"`
}

// Handler handles registration HTTP endpoints.
type Handler struct {
	repo      *Repository
	eventRepo *events.Repository
	jobs      *queue.Queue
	logger    *zap.Logger
}

// NewHandler creates a registrations handler. jobs may be nil when no queue
// is configured; confirmation emails are then skipped.
func NewHandler(repo *Repository, eventRepo *events.Repository, jobs *queue.Queue, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, eventRepo: eventRepo, jobs: jobs, logger: logger}
}

// Register handles POST /events/:id/register. Registration is open to guests;
// when the caller is authenticated the registration is linked to their
// account. Enqueues a confirmation email job.
func (h *Handler) Register(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	e, err := h.eventRepo.GetByID(c.Request.Context(), eventID)
	if err != nil || e == nil {
		response.NotFound(c, "event not found")
		return
	}

	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	if e.Capacity > 0 {
		total, _, err := h.repo.CountByEvent(c.Request.Context(), eventID)
		if err != nil {
			response.Internal(c, "failed to register")
			return
		}
		if total >= e.Capacity {
			response.Conflict(c, "event is full")
			return
		}
	}

	var userID *uuid.UUID
	if v, ok := c.Get(middleware.ContextUserID); ok {
		if id, ok := v.(uuid.UUID); ok {
			userID = &id
		}
	}

	reg := &models.Registration{
		EventID:  eventID,
		UserID:   userID,
		Email:    req.Email,
		FullName: req.FullName,
	}
	if err := h.repo.Create(c.Request.Context(), reg); err != nil {
		h.logger.Error("create registration failed", zap.Error(err), zap.String("event_id", eventID.String()))
		response.Internal(c, "failed to register")
		return
	}

	if h.jobs != nil {
		payload := queue.EmailPayload{
			EmailType:      "registration_confirmation",
			EventID:        eventID,
			RegistrationID: reg.ID,
			RecipientEmail: reg.Email,
			Subject:        "You're registered for " + e.Title,
		}
		if err := h.jobs.EnqueueEmail(c.Request.Context(), payload); err != nil {
			// Registration stands even when the confirmation cannot be queued.
			h.logger.Warn("enqueue confirmation email failed", zap.Error(err), zap.String("registration_id", reg.ID.String()))
		}
	}

	response.Created(c, reg)
}

// ListByEvent handles GET /events/:id/registrations (organizer or admin).
func (h *Handler) ListByEvent(c *gin.Context) {
	e, ok := h.requireOwnedEvent(c)
	if !ok {
		return
	}
	list, err := h.repo.ListByEvent(c.Request.Context(), e.ID)
	if err != nil {
		response.Internal(c, "failed to list registrations")
		return
	}
	response.OK(c, list)
}

// Stats handles GET /events/:id/stats (organizer or admin): registration and
// check-in counts for the organizer dashboard.
func (h *Handler) Stats(c *gin.Context) {
	e, ok := h.requireOwnedEvent(c)
	if !ok {
		return
	}
	total, checkedIn, err := h.repo.CountByEvent(c.Request.Context(), e.ID)
	if err != nil {
		response.Internal(c, "failed to load stats")
		return
	}
	response.OK(c, gin.H{
		"event_id":   e.ID,
		"registered": total,
		"checked_in": checkedIn,
		"capacity":   e.Capacity,
	})
}

func (h *Handler) requireOwnedEvent(c *gin.Context) (*models.Event, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return nil, false
	}
	e, err := h.eventRepo.GetByID(c.Request.Context(), id)
	if err != nil || e == nil {
		response.NotFound(c, "event not found")
		return nil, false
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	roleVal, _ := c.Get(middleware.ContextUserRole)
	role, _ := roleVal.(string)
	if e.CreatedBy != userID && role != string(models.RoleAdmin) {
		response.Forbidden(c, "not the event organizer")
		return nil, false
	}
	return e, true
}
