package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"kindred-match/internal/service"
)

// InteractionHandler registra señales de comportamiento del usuario.
type InteractionHandler struct {
	logger       *zap.Logger
	interactions *service.InteractionService
}

func NewInteractionHandler(logger *zap.Logger, interactions *service.InteractionService) *InteractionHandler {
	return &InteractionHandler{
		logger:       logger,
		interactions: interactions,
	}
}

// Record maneja POST /interactions.
func (h *InteractionHandler) Record(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing claims"})
		return
	}

	var req struct {
		TargetID string `json:"target_id" binding:"required"`
		Domain   string `json:"domain" binding:"required"`
		Action   string `json:"action" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid interaction request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	targetID, err := uuid.Parse(req.TargetID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid target id"})
		return
	}

	interaction, err := h.interactions.Record(c.Request.Context(), claims.UserID, targetID, req.Domain, req.Action)
	if err != nil {
		if errors.Is(err, service.ErrUnknownAction) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown action"})
			return
		}
		h.logger.Error("record interaction failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not record interaction"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"interaction": interaction})
}
