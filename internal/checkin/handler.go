package checkin

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gatherly/backend/internal/events"
	"github.com/gatherly/backend/internal/middleware"
	"github.com/gatherly/backend/internal/models"
	"github.com/gatherly/backend/internal/registrations"
	"github.com/gatherly/backend/pkg/response"
)

// GenerateRequest is the body for POST /api/qr/generate.
type GenerateRequest struct {
	RegistrationID string `json:"registration_id" binding:"required,uuid"`
	ExpiresInHours int    `json:"expires_in_hours" binding:"required"`
}

// VerifyRequest is the body for POST /api/qr/verify.
type VerifyRequest struct {
	QRToken string `json:"qr_token" binding:"required"`
}

// Handler handles QR token HTTP endpoints. The token service judges token
// validity; the check-in state transition itself lives in the registrations
// repository.
type Handler struct {
	tokens    *Service
	regRepo   *registrations.Repository
	eventRepo *events.Repository
	logger    *zap.Logger
}

// NewHandler creates a check-in handler.
func NewHandler(tokens *Service, regRepo *registrations.Repository, eventRepo *events.Repository, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{tokens: tokens, regRepo: regRepo, eventRepo: eventRepo, logger: logger}
}

// Generate handles POST /api/qr/generate. The caller must own the
// registration (or organize its event, or be admin).
func (h *Handler) Generate(c *gin.Context) {
	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if req.ExpiresInHours <= 0 {
		response.BadRequest(c, "expires_in_hours must be positive")
		return
	}

	regID, err := uuid.Parse(req.RegistrationID)
	if err != nil {
		response.BadRequest(c, "invalid registration_id")
		return
	}
	reg, err := h.regRepo.GetByID(c.Request.Context(), regID)
	if err != nil {
		response.Internal(c, "failed to load registration")
		return
	}
	if reg == nil {
		response.NotFound(c, "registration_not_found")
		return
	}
	if !h.callerMayAccess(c, reg) {
		response.Forbidden(c, "unauthorized")
		return
	}

	tok, err := h.tokens.Generate(reg.ID.String(), hoursToDuration(req.ExpiresInHours), reg.EventID.String())
	if err != nil {
		if errors.Is(err, ErrInvalidArgument) {
			response.BadRequest(c, "invalid token parameters")
			return
		}
		h.logger.Error("token generation failed", zap.Error(err))
		response.Internal(c, "failed to generate token")
		return
	}

	response.OK(c, gin.H{
		"qr_token":   tok.Value,
		"qr_data":    h.tokens.CheckInURL(tok.Value),
		"expires_at": tok.ExpiresAt,
	})
}

// Verify handles POST /api/qr/verify (organizer/admin scanners). Any
// verification failure maps to a single 401 invalid_token so responses leak
// nothing about which check failed; the precise cause is logged server-side.
func (h *Handler) Verify(c *gin.Context) {
	var req VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	claims, err := h.tokens.Verify(req.QRToken)
	if err != nil {
		h.logger.Info("token verification failed", zap.Error(err))
		response.Unauthorized(c, "invalid_token")
		return
	}

	regID, err := uuid.Parse(claims.RegistrationID)
	if err != nil {
		h.logger.Warn("valid token carries non-uuid registration id", zap.String("registration_id", claims.RegistrationID))
		response.Unauthorized(c, "invalid_token")
		return
	}
	reg, err := h.regRepo.GetByID(c.Request.Context(), regID)
	if err != nil {
		response.Internal(c, "failed to load registration")
		return
	}
	if reg == nil {
		response.NotFound(c, "registration_not_found")
		return
	}
	if claims.EventID != "" && claims.EventID != reg.EventID.String() {
		h.logger.Warn("token event mismatch",
			zap.String("token_event_id", claims.EventID),
			zap.String("registration_event_id", reg.EventID.String()))
		response.Unauthorized(c, "invalid_token")
		return
	}

	if err := h.regRepo.CheckIn(c.Request.Context(), reg.ID); err != nil {
		if errors.Is(err, registrations.ErrAlreadyCheckedIn) {
			response.Conflict(c, "already_checked_in")
			return
		}
		h.logger.Error("check-in failed", zap.Error(err), zap.String("registration_id", reg.ID.String()))
		response.Internal(c, "failed to check in")
		return
	}

	h.logger.Info("checked in",
		zap.String("registration_id", reg.ID.String()),
		zap.String("event_id", reg.EventID.String()))
	response.OK(c, gin.H{
		"checked_in":      true,
		"registration_id": reg.ID,
		"event_id":        reg.EventID,
	})
}

// callerMayAccess reports whether the authenticated caller may mint a token
// for this registration: the registrant, the event organizer, or an admin.
func (h *Handler) callerMayAccess(c *gin.Context, reg *models.Registration) bool {
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	if reg.UserID != nil && *reg.UserID == userID {
		return true
	}
	roleVal, _ := c.Get(middleware.ContextUserRole)
	if role, _ := roleVal.(string); role == string(models.RoleAdmin) {
		return true
	}
	e, err := h.eventRepo.GetByID(c.Request.Context(), reg.EventID)
	if err != nil || e == nil {
		return false
	}
	return e.CreatedBy == userID
}

func hoursToDuration(hours int) time.Duration {
	return time.Duration(hours) * time.Hour
}
