package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"kindred-match/internal/domain"
	"kindred-match/internal/repository"
	"kindred-match/internal/service"
)

// ProfileHandler expone el perfil propio y el cierre de onboarding.
type ProfileHandler struct {
	logger     *zap.Logger
	profiles   repository.ProfileRepository
	onboarding *service.OnboardingService
}

func NewProfileHandler(logger *zap.Logger, profiles repository.ProfileRepository, onboarding *service.OnboardingService) *ProfileHandler {
	return &ProfileHandler{
		logger:     logger,
		profiles:   profiles,
		onboarding: onboarding,
	}
}

// GetProfile maneja GET /profile.
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing claims"})
		return
	}

	profile, err := h.profiles.GetByUserID(c.Request.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "profile not found"})
			return
		}
		h.logger.Error("get profile failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load profile"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"profile": profile})
}

// CompleteOnboarding maneja POST /onboarding/complete.
func (h *ProfileHandler) CompleteOnboarding(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing claims"})
		return
	}

	var req struct {
		SelectionIDs []string           `json:"selection_ids" binding:"required,min=1"`
		Quiz         domain.TraitVector `json:"quiz"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid onboarding request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	selectionIDs := make([]uuid.UUID, 0, len(req.SelectionIDs))
	for _, raw := range req.SelectionIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid selection id"})
			return
		}
		selectionIDs = append(selectionIDs, id)
	}

	profile, err := h.onboarding.Complete(c.Request.Context(), claims.UserID, selectionIDs, req.Quiz)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "profile not found"})
			return
		}
		h.logger.Error("complete onboarding failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not complete onboarding"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"profile": profile})
}
