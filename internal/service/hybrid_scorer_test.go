package service

import (
	"strings"
	"testing"

	"kindred-match/internal/domain"
)

// traitPair70 devuelve dos vectores de rasgos cuyo DistanceScore es 70.
func traitPair70() (domain.TraitVector, domain.TraitVector) {
	a := domain.DefaultTraitVector()
	b := domain.DefaultTraitVector()
	for axis := domain.TraitAxis(0); axis < domain.NumTraitAxes; axis++ {
		b = b.SetAxis(axis, 0.5+3.0/14.0)
	}
	return a, b
}

func TestTraitPair70Fixture(t *testing.T) {
	a, b := traitPair70()
	if got := DefaultTraitEngine.DistanceScore(a, b); got != 70 {
		t.Fatalf("fixture broken: expected trait score 70, got %d", got)
	}
}

func TestScorePerson_FusesVectorAndTraits(t *testing.T) {
	scorer := NewHybridScorer(DefaultScoringWeights())
	aTraits, bTraits := traitPair70()
	aEmb, bEmb := embeddingPairWithCosine(0.9)

	res := scorer.ScorePerson(aTraits, aEmb, bTraits, bEmb)
	// 0.60*95 + 0.40*70 = 85
	if res.Score != 85 {
		t.Fatalf("expected fused score 85, got %d", res.Score)
	}
	if res.VectorScore == nil || *res.VectorScore != 95 {
		t.Fatalf("expected vector sub-score 95, got %v", res.VectorScore)
	}
	if res.TraitScore != 70 {
		t.Fatalf("expected trait sub-score 70, got %d", res.TraitScore)
	}
	if res.Method != domain.MethodEmbedding {
		t.Fatalf("expected embedding method, got %s", res.Method)
	}
	if res.FallbackReason != "" {
		t.Fatalf("unexpected fallback: %q", res.FallbackReason)
	}
}

func TestScorePerson_NoEmbeddingFallsBackToTraits(t *testing.T) {
	scorer := NewHybridScorer(DefaultScoringWeights())
	aTraits, bTraits := traitPair70()

	res := scorer.ScorePerson(aTraits, nil, bTraits, nil)
	if res.Method != domain.MethodTraitOnly {
		t.Fatalf("expected trait-only method, got %s", res.Method)
	}
	if res.Score != res.TraitScore || res.Score != 70 {
		t.Fatalf("expected fused score to equal trait score 70, got %d/%d", res.Score, res.TraitScore)
	}
	if res.FallbackReason != FallbackNoEmbedding {
		t.Fatalf("expected no-embedding fallback, got %q", res.FallbackReason)
	}
	if res.VectorScore != nil {
		t.Fatalf("expected no vector sub-score")
	}
}

func TestScoreItem_WithCollaborativeSignal(t *testing.T) {
	scorer := NewHybridScorer(DefaultScoringWeights())
	pTraits, eTraits := traitPair70()
	pEmb, eEmb := embeddingPairWithCosine(0.8)
	cf := 50

	res := scorer.ScoreItem(pTraits, pEmb, eTraits, eEmb, &cf)
	// 0.55*90 + 0.25*50 + 0.20*70 = 76
	if res.Score != 76 {
		t.Fatalf("expected fused score 76, got %d", res.Score)
	}
	if res.Method != domain.MethodHybrid {
		t.Fatalf("expected hybrid method, got %s", res.Method)
	}
	if res.CFScore == nil || *res.CFScore != 50 {
		t.Fatalf("expected cf sub-score 50, got %v", res.CFScore)
	}
	if !strings.Contains(res.Formula, "= 76") {
		t.Fatalf("formula should show the fused result: %q", res.Formula)
	}
}

func TestScoreItem_RedistributesMissingCF(t *testing.T) {
	scorer := NewHybridScorer(DefaultScoringWeights())
	pTraits, eTraits := traitPair70()
	pEmb, eEmb := embeddingPairWithCosine(0.8)

	res := scorer.ScoreItem(pTraits, pEmb, eTraits, eEmb, nil)
	// 0.70*90 + 0.30*70 = 84
	if res.Score != 84 {
		t.Fatalf("expected redistributed score 84, got %d", res.Score)
	}
	if res.Method != domain.MethodEmbedding {
		t.Fatalf("expected embedding method without cf, got %s", res.Method)
	}
	if res.FallbackReason != FallbackNoCF {
		t.Fatalf("expected no-cf fallback, got %q", res.FallbackReason)
	}
	if res.CFScore != nil {
		t.Fatalf("expected no cf sub-score")
	}
}

func TestScoreItem_NoEmbeddingFallsBackToTraits(t *testing.T) {
	scorer := NewHybridScorer(DefaultScoringWeights())
	pTraits, eTraits := traitPair70()
	cf := 50

	res := scorer.ScoreItem(pTraits, nil, eTraits, nil, &cf)
	if res.Method != domain.MethodTraitOnly {
		t.Fatalf("expected trait-only method, got %s", res.Method)
	}
	if res.Score != res.TraitScore || res.Score != 70 {
		t.Fatalf("expected fused score to equal trait score 70, got %d/%d", res.Score, res.TraitScore)
	}
	if res.FallbackReason != FallbackNoEmbedding {
		t.Fatalf("expected no-embedding fallback, got %q", res.FallbackReason)
	}
	if res.VectorScore != nil || res.CFScore != nil {
		t.Fatalf("expected no vector/cf sub-scores without an embedding")
	}
}

func TestScoreItem_WeightsSumToOneInBothBranches(t *testing.T) {
	w := DefaultScoringWeights().Item
	if sum := w.Vector + w.CF + w.Trait; sum < 0.9999 || sum > 1.0001 {
		t.Fatalf("full weights sum %v, want 1.0", sum)
	}
	vw := w.Vector + w.VectorShare*w.CF
	tw := w.Trait + w.TraitShare*w.CF
	if sum := vw + tw; sum < 0.9999 || sum > 1.0001 {
		t.Fatalf("redistributed weights sum %v, want 1.0", sum)
	}
}

func TestScoreEvent_IncludesGeoBonus(t *testing.T) {
	scorer := NewHybridScorer(DefaultScoringWeights())
	pTraits, eTraits := traitPair70()
	pEmb, eEmb := embeddingPairWithCosine(0.8)
	geo := domain.GeoInfo{Score: 100, Known: true}

	res := scorer.ScoreEvent(pTraits, pEmb, eTraits, eEmb, geo)
	// 0.50*90 + 0.25*70 + 0.25*100 = 87.5 -> 88
	if res.Score != 88 {
		t.Fatalf("expected fused score 88, got %d", res.Score)
	}
	if res.GeoScore == nil || *res.GeoScore != 100 {
		t.Fatalf("expected geo sub-score 100, got %v", res.GeoScore)
	}
}

func TestScoreEvent_NoEmbeddingDropsGeo(t *testing.T) {
	scorer := NewHybridScorer(DefaultScoringWeights())
	pTraits, eTraits := traitPair70()

	res := scorer.ScoreEvent(pTraits, nil, eTraits, nil, domain.GeoInfo{Score: 100, Known: true})
	if res.Method != domain.MethodTraitOnly || res.Score != 70 {
		t.Fatalf("expected trait-only 70, got %s %d", res.Method, res.Score)
	}
	if res.GeoScore != nil {
		t.Fatalf("expected geo discarded on trait-only fallback")
	}
}

func TestScoreHobby_Fusion(t *testing.T) {
	scorer := NewHybridScorer(DefaultScoringWeights())
	pTraits, hTraits := traitPair70()
	pEmb, hEmb := embeddingPairWithCosine(0.8)

	res := scorer.ScoreHobby(pTraits, pEmb, hTraits, hEmb)
	// 0.55*90 + 0.45*70 = 81
	if res.Score != 81 {
		t.Fatalf("expected fused score 81, got %d", res.Score)
	}
	if res.Method != domain.MethodEmbedding {
		t.Fatalf("expected embedding method, got %s", res.Method)
	}
}

func TestScores_AlwaysInRange(t *testing.T) {
	scorer := NewHybridScorer(DefaultScoringWeights())
	worst := domain.TraitVector{}
	best := domain.TraitVector{Novelty: 1, Intensity: 1, Cozy: 1, Strategy: 1, Social: 1, Creativity: 1, Nostalgia: 1, Adventure: 1}
	opposed, opposite := embeddingPairWithCosine(-1)

	results := []HybridResult{
		scorer.ScorePerson(worst, opposed, best, opposite),
		scorer.ScoreItem(worst, opposed, best, opposite, nil),
		scorer.ScoreHobby(worst, opposed, best, opposite),
		scorer.ScoreEvent(worst, opposed, best, opposite, domain.GeoInfo{Score: 20, Known: true}),
	}
	for i, res := range results {
		if res.Score < MinScore || res.Score > MaxScore {
			t.Fatalf("result %d: score %d out of [%d,%d]", i, res.Score, MinScore, MaxScore)
		}
	}
}
