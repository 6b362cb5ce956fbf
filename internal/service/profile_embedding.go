package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	pgvector "github.com/pgvector/pgvector-go"
	"go.uber.org/zap"

	"kindred-match/internal/repository"
)

// ProfileEmbeddingService recalcula el embedding de un perfil a partir de su
// historial de interacciones con signo: los loves recientes acercan el vector
// al contenido amado y los skips lo alejan.
type ProfileEmbeddingService struct {
	profiles     repository.ProfileRepository
	entities     repository.EntityRepository
	interactions repository.InteractionRepository
	logger       *zap.Logger
}

func NewProfileEmbeddingService(
	profiles repository.ProfileRepository,
	entities repository.EntityRepository,
	interactions repository.InteractionRepository,
	logger *zap.Logger,
) *ProfileEmbeddingService {
	return &ProfileEmbeddingService{
		profiles:     profiles,
		entities:     entities,
		interactions: interactions,
		logger:       logger,
	}
}

// Recompute es idempotente y conmutativa respecto a recomputos concurrentes:
// la persistencia es last-write-wins sobre el vector completo y la proxima
// interaccion re-deriva desde el historial entero.
// Si el promedio degenera (peso total cero, sin embeddings validos) el
// embedding anterior queda intacto: nunca se persiste un vector invalido.
func (s *ProfileEmbeddingService) Recompute(ctx context.Context, profileID uuid.UUID) error {
	history, err := s.interactions.ListByProfile(ctx, profileID)
	if err != nil {
		return fmt.Errorf("list interactions: %w", err)
	}
	if len(history) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, 0, len(history))
	seen := make(map[uuid.UUID]struct{}, len(history))
	for _, in := range history {
		if _, ok := seen[in.TargetID]; ok {
			continue
		}
		seen[in.TargetID] = struct{}{}
		ids = append(ids, in.TargetID)
	}

	targets, err := s.entities.ListByIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("list entities: %w", err)
	}
	embByID := make(map[uuid.UUID][]float32, len(targets))
	for _, e := range targets {
		if vec := e.Embedding.Slice(); IsValidEmbedding(vec) {
			embByID[e.ID] = vec
		}
	}

	vectors := make([][]float32, 0, len(history))
	weights := make([]float64, 0, len(history))
	for _, in := range history {
		vec, ok := embByID[in.TargetID]
		if !ok {
			continue
		}
		vectors = append(vectors, vec)
		weights = append(weights, in.Weight)
	}

	avg := WeightedAverage(vectors, weights)
	if avg == nil {
		if s.logger != nil {
			s.logger.Debug("profile embedding recompute degenerate, keeping previous",
				zap.String("profile_id", profileID.String()),
				zap.Int("interactions", len(history)),
			)
		}
		return nil
	}

	if err := s.profiles.UpdateEmbedding(ctx, profileID, pgvector.NewVector(avg)); err != nil {
		return fmt.Errorf("update embedding: %w", err)
	}
	return nil
}
