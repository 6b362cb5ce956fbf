package service

import (
	"fmt"

	"kindred-match/internal/domain"
)

// Razones de fallback reportadas junto al scoringMethod.
const (
	FallbackNoEmbedding = "no embedding on one or both sides"
	FallbackNoCF        = "no collaborative signal"
)

// HybridResult es la salida de una fusion: score acotado, sub-scores por señal,
// metodo, razon de degradacion y la formula literal para auditoria.
type HybridResult struct {
	Score          int
	VectorScore    *int
	CFScore        *int
	TraitScore     int
	GeoScore       *int
	Method         string
	FallbackReason string
	Formula        string
}

// HybridScorer fusiona rasgos, similitud de embeddings, CF y geo en scores
// compuestos por dominio. Funcion pura de sus entradas: sin I/O ni estado
// mutable compartido.
type HybridScorer struct {
	weights ScoringWeights
	traits  TraitEngine
}

func NewHybridScorer(weights ScoringWeights) HybridScorer {
	return HybridScorer{
		weights: weights,
		traits:  NewTraitEngine(weights),
	}
}

// vectorSignal resuelve la señal de embedding de forma explicita: valor y
// validez, en lugar de coalescencias implicitas en cada call site.
type vectorSignal struct {
	score int
	ok    bool
}

func resolveVectorSignal(a, b []float32) vectorSignal {
	if !IsValidEmbedding(a) || !IsValidEmbedding(b) {
		return vectorSignal{}
	}
	return vectorSignal{score: SimilarityToScore(CosineSimilarity(a, b)), ok: true}
}

func intPtr(v int) *int { return &v }

// ScoreItem fusiona señales para recomendaciones de clubs/items.
// cfScore es la señal de CF ya normalizada a [15,100], o nil si no hay
// vecinos. Sin CF su peso se redistribuye 60/40 hacia vector/rasgos para que
// las señales restantes sigan sumando 1.0.
func (h HybridScorer) ScoreItem(profileTraits domain.TraitVector, profileEmb []float32, entityTraits domain.TraitVector, entityEmb []float32, cfScore *int) HybridResult {
	trait := h.traits.DistanceScore(profileTraits, entityTraits)
	vec := resolveVectorSignal(profileEmb, entityEmb)
	if !vec.ok {
		return traitOnlyResult(trait)
	}

	w := h.weights.Item
	if cfScore != nil {
		fused := float64(vec.score)*w.Vector + float64(*cfScore)*w.CF + float64(trait)*w.Trait
		return HybridResult{
			Score:       clampScore(fused),
			VectorScore: intPtr(vec.score),
			CFScore:     cfScore,
			TraitScore:  trait,
			Method:      domain.MethodHybrid,
			Formula: fmt.Sprintf("%.2f*%d + %.2f*%d + %.2f*%d = %d",
				w.Vector, vec.score, w.CF, *cfScore, w.Trait, trait, clampScore(fused)),
		}
	}

	vw := w.Vector + w.VectorShare*w.CF
	tw := w.Trait + w.TraitShare*w.CF
	fused := float64(vec.score)*vw + float64(trait)*tw
	return HybridResult{
		Score:          clampScore(fused),
		VectorScore:    intPtr(vec.score),
		TraitScore:     trait,
		Method:         domain.MethodEmbedding,
		FallbackReason: FallbackNoCF,
		Formula: fmt.Sprintf("%.2f*%d + %.2f*%d = %d",
			vw, vec.score, tw, trait, clampScore(fused)),
	}
}

// ScorePerson fusiona señales para matching persona-a-persona.
func (h HybridScorer) ScorePerson(aTraits domain.TraitVector, aEmb []float32, bTraits domain.TraitVector, bEmb []float32) HybridResult {
	trait := h.traits.DistanceScore(aTraits, bTraits)
	vec := resolveVectorSignal(aEmb, bEmb)
	if !vec.ok {
		return traitOnlyResult(trait)
	}

	w := h.weights.Person
	fused := float64(vec.score)*w.Vector + float64(trait)*w.Trait
	return HybridResult{
		Score:       clampScore(fused),
		VectorScore: intPtr(vec.score),
		TraitScore:  trait,
		Method:      domain.MethodEmbedding,
		Formula: fmt.Sprintf("%.2f*%d + %.2f*%d = %d",
			w.Vector, vec.score, w.Trait, trait, clampScore(fused)),
	}
}

// ScoreEvent fusiona señales para eventos, incluyendo el bono geografico.
// Sin embedding valido cae a score de rasgos puro y el bono geo se descarta.
func (h HybridScorer) ScoreEvent(profileTraits domain.TraitVector, profileEmb []float32, eventTraits domain.TraitVector, eventEmb []float32, geo domain.GeoInfo) HybridResult {
	trait := h.traits.DistanceScore(profileTraits, eventTraits)
	vec := resolveVectorSignal(profileEmb, eventEmb)
	if !vec.ok {
		return traitOnlyResult(trait)
	}

	w := h.weights.Event
	fused := float64(vec.score)*w.Vector + float64(trait)*w.Trait + float64(geo.Score)*w.Geo
	return HybridResult{
		Score:       clampScore(fused),
		VectorScore: intPtr(vec.score),
		TraitScore:  trait,
		GeoScore:    intPtr(geo.Score),
		Method:      domain.MethodEmbedding,
		Formula: fmt.Sprintf("%.2f*%d + %.2f*%d + %.2f*%d = %d",
			w.Vector, vec.score, w.Trait, trait, w.Geo, geo.Score, clampScore(fused)),
	}
}

// ScoreHobby fusiona señales para matching de hobbies.
func (h HybridScorer) ScoreHobby(profileTraits domain.TraitVector, profileEmb []float32, hobbyTraits domain.TraitVector, hobbyEmb []float32) HybridResult {
	trait := h.traits.DistanceScore(profileTraits, hobbyTraits)
	vec := resolveVectorSignal(profileEmb, hobbyEmb)
	if !vec.ok {
		return traitOnlyResult(trait)
	}

	w := h.weights.Hobby
	fused := float64(vec.score)*w.Vector + float64(trait)*w.Trait
	return HybridResult{
		Score:       clampScore(fused),
		VectorScore: intPtr(vec.score),
		TraitScore:  trait,
		Method:      domain.MethodEmbedding,
		Formula: fmt.Sprintf("%.2f*%d + %.2f*%d = %d",
			w.Vector, vec.score, w.Trait, trait, clampScore(fused)),
	}
}

func traitOnlyResult(trait int) HybridResult {
	return HybridResult{
		Score:          trait,
		TraitScore:     trait,
		Method:         domain.MethodTraitOnly,
		FallbackReason: FallbackNoEmbedding,
		Formula:        fmt.Sprintf("1.00*%d = %d", trait, trait),
	}
}
