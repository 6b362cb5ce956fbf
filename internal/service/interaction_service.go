package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"kindred-match/internal/domain"
	"kindred-match/internal/repository"
)

var ErrUnknownAction = errors.New("unknown interaction action")

// InteractionService registra comportamiento y dispara el recomputo del
// embedding del perfil. El historial es append-only.
type InteractionService struct {
	profiles     repository.ProfileRepository
	interactions repository.InteractionRepository
	embeddings   *ProfileEmbeddingService
	logger       *zap.Logger
}

func NewInteractionService(
	profiles repository.ProfileRepository,
	interactions repository.InteractionRepository,
	embeddings *ProfileEmbeddingService,
	logger *zap.Logger,
) *InteractionService {
	return &InteractionService{
		profiles:     profiles,
		interactions: interactions,
		embeddings:   embeddings,
		logger:       logger,
	}
}

// Record persiste la interaccion y recalcula el embedding del perfil.
// El recomputo es mejor esfuerzo: su fallo no invalida la interaccion.
func (s *InteractionService) Record(ctx context.Context, userID string, targetID uuid.UUID, entityDomain, action string) (domain.Interaction, error) {
	if !domain.ValidAction(action) {
		return domain.Interaction{}, ErrUnknownAction
	}

	profile, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil {
		return domain.Interaction{}, fmt.Errorf("get profile: %w", err)
	}

	interaction := domain.Interaction{
		ID:        uuid.New(),
		ProfileID: profile.ID,
		TargetID:  targetID,
		Domain:    entityDomain,
		Action:    action,
		Weight:    domain.ActionWeight(action),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.interactions.Create(ctx, interaction); err != nil {
		return domain.Interaction{}, fmt.Errorf("create interaction: %w", err)
	}

	if s.embeddings != nil {
		if err := s.embeddings.Recompute(ctx, profile.ID); err != nil && s.logger != nil {
			s.logger.Warn("profile embedding recompute failed",
				zap.Error(err), zap.String("profile_id", profile.ID.String()))
		}
	}
	return interaction, nil
}
