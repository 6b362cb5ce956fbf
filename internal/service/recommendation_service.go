package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"kindred-match/internal/domain"
	"kindred-match/internal/metrics"
	"kindred-match/internal/repository"
)

// RecommendationOptions parametriza la vecindad de CF y el cache de resultados.
type RecommendationOptions struct {
	NeighborLimit int
	SimThreshold  float64
	CacheTTL      time.Duration
}

// DefaultRecommendationOptions es la calibracion de produccion.
func DefaultRecommendationOptions() RecommendationOptions {
	return RecommendationOptions{
		NeighborLimit: 20,
		SimThreshold:  0.3,
		CacheTTL:      2 * time.Minute,
	}
}

// RecommendationService es el orquestador del motor: carga datos ya resueltos
// via repositorios, resuelve señales, fusiona, explica y ordena. El peor caso
// siempre es un ranking completo de menor fidelidad, nunca un error visible.
type RecommendationService struct {
	profiles     repository.ProfileRepository
	entities     repository.EntityRepository
	interactions repository.InteractionRepository
	cf           *CFService
	scorer       HybridScorer
	explain      ExplanationBuilder
	cache        RecommendationCache
	stats        *metrics.Metrics
	opts         RecommendationOptions
	logger       *zap.Logger

	// now es inyectable para que urgencia sea determinista en tests.
	now func() time.Time
}

func NewRecommendationService(
	profiles repository.ProfileRepository,
	entities repository.EntityRepository,
	interactions repository.InteractionRepository,
	cf *CFService,
	scorer HybridScorer,
	cache RecommendationCache,
	stats *metrics.Metrics,
	opts RecommendationOptions,
	logger *zap.Logger,
) *RecommendationService {
	if opts.NeighborLimit <= 0 {
		opts = DefaultRecommendationOptions()
	}
	return &RecommendationService{
		profiles:     profiles,
		entities:     entities,
		interactions: interactions,
		cf:           cf,
		scorer:       scorer,
		cache:        cache,
		stats:        stats,
		opts:         opts,
		logger:       logger,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// RecommendForUser rankea las entidades de un dominio para un usuario.
// Devuelve la lista completa ordenada descendente por score fusionado;
// empates estables en el orden de entrada.
func (s *RecommendationService) RecommendForUser(ctx context.Context, userID, entityDomain string) ([]domain.ScoredCandidate, error) {
	profile, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}

	cacheKey := fmt.Sprintf("%s:%s", profile.ID, entityDomain)
	if s.cache != nil {
		if raw, ok := s.cache.Get(cacheKey); ok {
			var cached []domain.ScoredCandidate
			if err := json.Unmarshal(raw, &cached); err == nil {
				return cached, nil
			}
		}
	}

	candidates, err := s.entities.ListByDomain(ctx, entityDomain)
	if err != nil {
		return nil, fmt.Errorf("list entities: %w", err)
	}

	seenIDs, err := s.interactions.TargetIDsByProfile(ctx, profile.ID, entityDomain)
	if err != nil {
		return nil, fmt.Errorf("own interactions: %w", err)
	}
	seen := make(map[uuid.UUID]struct{}, len(seenIDs))
	for _, id := range seenIDs {
		seen[id] = struct{}{}
	}

	// CF solo aplica a recomendaciones de clubs/items; si falla o no hay
	// vecinos, el item pierde esa señal y el peso se redistribuye.
	var cfByTarget map[uuid.UUID]CFCandidate
	if entityDomain == domain.DomainClub && s.cf != nil {
		cfCands, err := s.cf.Candidates(ctx, profile.ID, entityDomain, profile.Embedding.Slice(), s.opts.NeighborLimit, s.opts.SimThreshold)
		if err != nil {
			if s.logger != nil {
				s.logger.Warn("cf unavailable, degrading", zap.Error(err), zap.String("user_id", userID))
			}
		} else {
			cfByTarget = normalizeCF(cfCands)
		}
	}

	scored := make([]domain.ScoredCandidate, 0, len(candidates))
	for _, entity := range candidates {
		if _, already := seen[entity.ID]; already {
			continue
		}
		scored = append(scored, s.scoreEntity(profile, entity, cfByTarget))
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if s.stats != nil {
		s.stats.ObserveCandidates(len(scored))
	}
	if s.cache != nil {
		if raw, err := json.Marshal(scored); err == nil {
			s.cache.Set(cacheKey, raw, s.opts.CacheTTL)
		}
	}
	return scored, nil
}

// scoreEntity resuelve las señales de una entidad y compone el candidato.
func (s *RecommendationService) scoreEntity(profile domain.Profile, entity domain.ContentEntity, cfByTarget map[uuid.UUID]CFCandidate) domain.ScoredCandidate {
	profileEmb := profile.Embedding.Slice()
	entityEmb := entity.Embedding.Slice()

	var result HybridResult
	var cfCand *CFCandidate
	var urgency *domain.UrgencyInfo
	var geo *domain.GeoInfo

	switch entity.Domain {
	case domain.DomainEvent:
		g := GeoScore(profile.Location, entity.Location)
		geo = &g
		u := UrgencyAt(s.now(), entity.Deadlines())
		urgency = &u
		result = s.scorer.ScoreEvent(profile.Traits, profileEmb, entity.Traits, entityEmb, g)
	case domain.DomainHobby:
		result = s.scorer.ScoreHobby(profile.Traits, profileEmb, entity.Traits, entityEmb)
	default:
		var cfScore *int
		if c, ok := cfByTarget[entity.ID]; ok {
			cfCand = &c
			cfScore = c.NormalizedScore
		}
		result = s.scorer.ScoreItem(profile.Traits, profileEmb, entity.Traits, entityEmb, cfScore)
	}

	if s.stats != nil {
		s.stats.ObserveMethod(entity.Domain, result.Method)
		s.stats.ObserveFallback(result.FallbackReason)
	}

	expl := s.explain.Build(ExplanationInput{
		Category:     entity.Domain,
		TargetName:   entity.Name,
		UserTraits:   profile.Traits,
		TargetTraits: entity.Traits,
		Result:       result,
		CF:           cfCand,
		Urgency:      urgency,
		Geo:          geo,
	})

	return domain.ScoredCandidate{
		TargetID:       entity.ID,
		Name:           entity.Name,
		Domain:         entity.Domain,
		Score:          result.Score,
		VectorScore:    result.VectorScore,
		CFScore:        result.CFScore,
		TraitScore:     result.TraitScore,
		ScoringMethod:  result.Method,
		FallbackReason: result.FallbackReason,
		Urgency:        urgency,
		Geo:            geo,
		ShortReason:    expl.Short,
		LongReason:     expl.Long,
		Audit:          expl.Audit,
	}
}

// MatchPeople rankea los demas perfiles con onboarding completo contra el
// solicitante.
func (s *RecommendationService) MatchPeople(ctx context.Context, userID string) ([]domain.ScoredCandidate, error) {
	profile, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}

	others, err := s.profiles.ListOthers(ctx, profile.ID)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}

	scored := make([]domain.ScoredCandidate, 0, len(others))
	for _, other := range others {
		result := s.scorer.ScorePerson(profile.Traits, profile.Embedding.Slice(), other.Traits, other.Embedding.Slice())
		if s.stats != nil {
			s.stats.ObserveMethod(domain.DomainPerson, result.Method)
			s.stats.ObserveFallback(result.FallbackReason)
		}

		expl := s.explain.Build(ExplanationInput{
			Category:     domain.DomainPerson,
			TargetName:   other.DisplayName,
			UserTraits:   profile.Traits,
			TargetTraits: other.Traits,
			Result:       result,
		})

		scored = append(scored, domain.ScoredCandidate{
			TargetID:       other.ID,
			Name:           other.DisplayName,
			Domain:         domain.DomainPerson,
			Score:          result.Score,
			VectorScore:    result.VectorScore,
			TraitScore:     result.TraitScore,
			ScoringMethod:  result.Method,
			FallbackReason: result.FallbackReason,
			ShortReason:    expl.Short,
			LongReason:     expl.Long,
			Audit:          expl.Audit,
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	if s.stats != nil {
		s.stats.ObserveCandidates(len(scored))
	}
	return scored, nil
}

// ScoreEventForUser puntua un evento concreto para un usuario.
func (s *RecommendationService) ScoreEventForUser(ctx context.Context, userID string, eventID uuid.UUID) (domain.ScoredCandidate, error) {
	profile, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil {
		return domain.ScoredCandidate{}, fmt.Errorf("get profile: %w", err)
	}
	event, err := s.entities.GetByID(ctx, eventID)
	if err != nil {
		return domain.ScoredCandidate{}, fmt.Errorf("get event: %w", err)
	}
	return s.scoreEntity(profile, event, nil), nil
}

// normalizeCF remapea los scores agregados de CF (no acotados) a la escala
// [15,100] relativa al maximo del lote, para que la fusion opere sobre
// señales comparables.
func normalizeCF(cands []CFCandidate) map[uuid.UUID]CFCandidate {
	if len(cands) == 0 {
		return nil
	}
	max := cands[0].Score
	for _, c := range cands[1:] {
		if c.Score > max {
			max = c.Score
		}
	}
	if max <= 0 {
		return nil
	}

	out := make(map[uuid.UUID]CFCandidate, len(cands))
	for _, c := range cands {
		norm := clampScore(c.Score / max * 100)
		c.NormalizedScore = &norm
		out[c.TargetID] = c
	}
	return out
}
