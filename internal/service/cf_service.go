package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	pgvector "github.com/pgvector/pgvector-go"
	"go.uber.org/zap"

	"kindred-match/internal/domain"
	"kindred-match/internal/repository"
)

// maxCFCandidates acota la lista agregada de CF.
const maxCFCandidates = 50

// CFCandidate es un objetivo promovido por los vecinos de gusto del usuario.
type CFCandidate struct {
	TargetID         uuid.UUID
	Score            float64
	StrongActions    int
	Contributors     []uuid.UUID
	ContributorNames []string
	AvgSimilarity    float64

	// NormalizedScore es el score remapeado a [15,100] relativo al lote;
	// lo fija el orquestador antes de la fusion.
	NormalizedScore *int
}

// CFService genera candidatos por filtrado colaborativo: encuentra vecinos de
// gusto por proximidad de embeddings y agrega su comportamiento positivo.
type CFService struct {
	profiles     repository.ProfileRepository
	interactions repository.InteractionRepository
	logger       *zap.Logger
}

func NewCFService(profiles repository.ProfileRepository, interactions repository.InteractionRepository, logger *zap.Logger) *CFService {
	return &CFService{
		profiles:     profiles,
		interactions: interactions,
		logger:       logger,
	}
}

// Candidates devuelve hasta 50 objetivos ordenados por score agregado.
// Sin embedding valido o sin vecinos devuelve lista vacia sin error: el
// llamador degrada a trait-only.
func (s *CFService) Candidates(ctx context.Context, userID uuid.UUID, entityDomain string, userEmbedding []float32, topN int, simThreshold float64) ([]CFCandidate, error) {
	if !IsValidEmbedding(userEmbedding) {
		return nil, nil
	}

	neighbors, err := s.profiles.NearestNeighbors(ctx, userID, pgvector.NewVector(userEmbedding), simThreshold, topN)
	if err != nil {
		return nil, fmt.Errorf("nearest neighbors: %w", err)
	}
	if len(neighbors) == 0 {
		return nil, nil
	}

	neighborIDs := make([]uuid.UUID, len(neighbors))
	for i, n := range neighbors {
		neighborIDs[i] = n.ProfileID
	}

	positive, err := s.interactions.ListPositiveByProfiles(ctx, neighborIDs, entityDomain)
	if err != nil {
		return nil, fmt.Errorf("neighbor interactions: %w", err)
	}

	seenIDs, err := s.interactions.TargetIDsByProfile(ctx, userID, entityDomain)
	if err != nil {
		return nil, fmt.Errorf("own interactions: %w", err)
	}
	seen := make(map[uuid.UUID]struct{}, len(seenIDs))
	for _, id := range seenIDs {
		seen[id] = struct{}{}
	}

	candidates := aggregateCF(neighbors, positive, seen)

	if s.logger != nil {
		s.logger.Debug("cf candidates",
			zap.String("user_id", userID.String()),
			zap.String("domain", entityDomain),
			zap.Int("neighbors", len(neighbors)),
			zap.Int("candidates", len(candidates)),
		)
	}
	return candidates, nil
}

// cfAccum acumula las contribuciones de vecinos para un objetivo.
type cfAccum struct {
	score         float64
	strongActions int
	contributors  []uuid.UUID
	perContrib    map[uuid.UUID]float64
	similarities  []float64
}

// aggregateCF es el fold puro de la agregacion: entradas inmutables, salida
// nueva. Las interacciones ya vienen filtradas a peso positivo, asi que un
// objetivo con solo skips nunca aparece.
func aggregateCF(neighbors []domain.Neighbor, positive []domain.Interaction, seen map[uuid.UUID]struct{}) []CFCandidate {
	simByNeighbor := make(map[uuid.UUID]float64, len(neighbors))
	nameByNeighbor := make(map[uuid.UUID]string, len(neighbors))
	for _, n := range neighbors {
		simByNeighbor[n.ProfileID] = n.Similarity
		nameByNeighbor[n.ProfileID] = n.DisplayName
	}

	accums := make(map[uuid.UUID]*cfAccum)
	var order []uuid.UUID
	for _, in := range positive {
		if _, already := seen[in.TargetID]; already {
			continue
		}
		sim, ok := simByNeighbor[in.ProfileID]
		if !ok {
			continue
		}

		acc := accums[in.TargetID]
		if acc == nil {
			acc = &cfAccum{perContrib: make(map[uuid.UUID]float64)}
			accums[in.TargetID] = acc
			order = append(order, in.TargetID)
		}

		contribution := sim * in.Weight
		acc.score += contribution
		acc.similarities = append(acc.similarities, sim)
		if _, known := acc.perContrib[in.ProfileID]; !known {
			acc.contributors = append(acc.contributors, in.ProfileID)
		}
		acc.perContrib[in.ProfileID] += contribution

		switch in.Action {
		case domain.ActionLove, domain.ActionSave, domain.ActionLike:
			acc.strongActions++
		}
	}

	candidates := make([]CFCandidate, 0, len(accums))
	for _, targetID := range order {
		acc := accums[targetID]
		var simSum float64
		for _, s := range acc.similarities {
			simSum += s
		}

		// Hasta 2 contribuyentes principales para atribucion en explicaciones.
		top := make([]uuid.UUID, len(acc.contributors))
		copy(top, acc.contributors)
		sort.SliceStable(top, func(i, j int) bool {
			return acc.perContrib[top[i]] > acc.perContrib[top[j]]
		})
		if len(top) > 2 {
			top = top[:2]
		}
		names := make([]string, 0, len(top))
		for _, id := range top {
			if name := nameByNeighbor[id]; name != "" {
				names = append(names, name)
			}
		}

		candidates = append(candidates, CFCandidate{
			TargetID:         targetID,
			Score:            acc.score,
			StrongActions:    acc.strongActions,
			Contributors:     acc.contributors,
			ContributorNames: names,
			AvgSimilarity:    simSum / float64(len(acc.similarities)),
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	if len(candidates) > maxCFCandidates {
		candidates = candidates[:maxCFCandidates]
	}
	return candidates
}
