package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"kindred-match/internal/domain"
	"kindred-match/internal/service"
)

// RecommendationHandler expone los rankings del motor sobre HTTP.
type RecommendationHandler struct {
	logger *zap.Logger
	recos  *service.RecommendationService
}

func NewRecommendationHandler(logger *zap.Logger, recos *service.RecommendationService) *RecommendationHandler {
	return &RecommendationHandler{
		logger: logger,
		recos:  recos,
	}
}

var recommendableDomains = map[string]bool{
	domain.DomainClub:  true,
	domain.DomainHobby: true,
	domain.DomainEvent: true,
}

// RecommendByDomain maneja GET /recommendations/:domain.
func (h *RecommendationHandler) RecommendByDomain(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing claims"})
		return
	}

	entityDomain := c.Param("domain")
	if !recommendableDomains[entityDomain] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown domain"})
		return
	}

	results, err := h.recos.RecommendForUser(c.Request.Context(), claims.UserID, entityDomain)
	if err != nil {
		h.logger.Error("recommend failed", zap.Error(err), zap.String("domain", entityDomain))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not build recommendations"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"domain": entityDomain, "results": results})
}

// MatchPeople maneja GET /matches/people.
func (h *RecommendationHandler) MatchPeople(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing claims"})
		return
	}

	results, err := h.recos.MatchPeople(c.Request.Context(), claims.UserID)
	if err != nil {
		h.logger.Error("match people failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not build matches"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"results": results})
}

// MatchHobbies maneja GET /matches/hobbies.
func (h *RecommendationHandler) MatchHobbies(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing claims"})
		return
	}

	results, err := h.recos.RecommendForUser(c.Request.Context(), claims.UserID, domain.DomainHobby)
	if err != nil {
		h.logger.Error("match hobbies failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not build matches"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"results": results})
}

// ScoreEvent maneja GET /events/:id/score.
func (h *RecommendationHandler) ScoreEvent(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing claims"})
		return
	}

	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
		return
	}

	result, err := h.recos.ScoreEventForUser(c.Request.Context(), claims.UserID, eventID)
	if err != nil {
		h.logger.Error("score event failed", zap.Error(err), zap.String("event_id", eventID.String()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not score event"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"result": result})
}
