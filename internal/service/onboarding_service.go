package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	pgvector "github.com/pgvector/pgvector-go"
	"go.uber.org/zap"

	"kindred-match/internal/domain"
	"kindred-match/internal/embedding"
	"kindred-match/internal/repository"
)

// OnboardingService arranca perfiles frios: construye el vector de rasgos
// desde las selecciones de catalogo y el quiz, y genera el embedding inicial.
type OnboardingService struct {
	profiles repository.ProfileRepository
	entities repository.EntityRepository
	provider embedding.Provider
	traits   TraitEngine
	logger   *zap.Logger
}

func NewOnboardingService(
	profiles repository.ProfileRepository,
	entities repository.EntityRepository,
	provider embedding.Provider,
	traits TraitEngine,
	logger *zap.Logger,
) *OnboardingService {
	return &OnboardingService{
		profiles: profiles,
		entities: entities,
		provider: provider,
		traits:   traits,
		logger:   logger,
	}
}

// Complete cierra el onboarding de un perfil. El embedding inicial es mejor
// esfuerzo: si el provider no esta disponible el perfil queda trait-only y
// el rankeo degrada, nunca falla.
func (s *OnboardingService) Complete(ctx context.Context, userID string, selectionIDs []uuid.UUID, quiz domain.TraitVector) (domain.Profile, error) {
	profile, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil {
		return domain.Profile{}, fmt.Errorf("get profile: %w", err)
	}

	selections, err := s.entities.ListByIDs(ctx, selectionIDs)
	if err != nil {
		return domain.Profile{}, fmt.Errorf("list selections: %w", err)
	}

	traits := s.traits.BuildTraitsFromSelections(selections, quiz)
	if err := s.profiles.UpdateTraits(ctx, profile.ID, traits, true); err != nil {
		return domain.Profile{}, fmt.Errorf("update traits: %w", err)
	}
	profile.Traits = traits
	profile.Onboarded = true

	if s.provider != nil {
		text := onboardingText(selections)
		if vec, err := s.provider.Embed(ctx, text); err != nil {
			if s.logger != nil {
				s.logger.Warn("initial embedding unavailable, profile stays trait-only",
					zap.Error(err), zap.String("user_id", userID))
			}
		} else if IsValidEmbedding(vec) {
			v := pgvector.NewVector(vec)
			if err := s.profiles.UpdateEmbedding(ctx, profile.ID, v); err != nil {
				return domain.Profile{}, fmt.Errorf("update embedding: %w", err)
			}
			profile.Embedding = v
		}
	}

	return profile, nil
}

// onboardingText concatena nombres y tags de las selecciones como texto
// semantico para el embedding inicial.
func onboardingText(selections []domain.ContentEntity) string {
	var parts []string
	for _, sel := range selections {
		parts = append(parts, sel.Name)
		parts = append(parts, sel.Tags...)
	}
	return strings.Join(parts, ", ")
}
