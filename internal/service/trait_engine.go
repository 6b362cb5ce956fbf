package service

import (
	"fmt"
	"math"
	"sort"

	"kindred-match/internal/domain"
)

// TraitEngine encapsula la matematica pura sobre vectores de rasgos.
// No tiene estado ni dependencias; seguro para uso concurrente.
type TraitEngine struct {
	weights ScoringWeights
}

// NewTraitEngine construye el motor con la calibracion indicada.
func NewTraitEngine(weights ScoringWeights) TraitEngine {
	if weights.TraitAmplifier <= 0 {
		weights = DefaultScoringWeights()
	}
	return TraitEngine{weights: weights}
}

// DefaultTraitEngine permite uso directo sin instanciar.
var DefaultTraitEngine = NewTraitEngine(DefaultScoringWeights())

// axisPair es la comparacion de un eje entre dos vectores.
type axisPair struct {
	axis domain.TraitAxis
	a, b float64
	diff float64
}

func comparePairs(a, b domain.TraitVector) []axisPair {
	av, bv := a.Sanitized().Values(), b.Sanitized().Values()
	pairs := make([]axisPair, domain.NumTraitAxes)
	for i := 0; i < domain.NumTraitAxes; i++ {
		pairs[i] = axisPair{
			axis: domain.TraitAxis(i),
			a:    av[i],
			b:    bv[i],
			diff: math.Abs(av[i] - bv[i]),
		}
	}
	return pairs
}

// DistanceScore puntua la compatibilidad de rasgos entre dos vectores.
// Usa RMS de diferencias por eje amplificada; resultado siempre en [15,100].
func (e TraitEngine) DistanceScore(a, b domain.TraitVector) int {
	pairs := comparePairs(a, b)
	var sumSq float64
	for _, p := range pairs {
		sumSq += p.diff * p.diff
	}
	rms := math.Sqrt(sumSq / float64(domain.NumTraitAxes))
	similarity := 1 - e.weights.TraitAmplifier*rms
	return clampScore(similarity * 100)
}

func levelWord(avg float64) string {
	switch {
	case avg > 0.7:
		return "high"
	case avg > 0.4:
		return "moderate"
	default:
		return "low"
	}
}

// ExplainMatch genera frases deterministas sobre los 3 ejes mas cercanos
// y, si el eje mas divergente difiere en mas de 0.3, una frase de contraste.
// Los empates se resuelven por orden de declaracion de los ejes.
func (e TraitEngine) ExplainMatch(a, b domain.TraitVector) []string {
	pairs := comparePairs(a, b)
	sorted := make([]axisPair, len(pairs))
	copy(sorted, pairs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].diff < sorted[j].diff
	})

	phrases := make([]string, 0, 4)
	for i := 0; i < 3 && i < len(sorted); i++ {
		p := sorted[i]
		avg := (p.a + p.b) / 2
		phrases = append(phrases, fmt.Sprintf("Both have %s %s", levelWord(avg), p.axis.Label()))
	}

	most := pairs[0]
	for _, p := range pairs[1:] {
		if p.diff > most.diff {
			most = p
		}
	}
	if most.diff > 0.3 {
		phrases = append(phrases, fmt.Sprintf("You differ most on %s", most.axis.Label()))
	}
	return phrases
}

// ItemMatch puntua un perfil contra los rasgos de una entidad y nombra
// el eje mas cercano como explicacion.
func (e TraitEngine) ItemMatch(profile, entity domain.TraitVector) (int, string) {
	score := e.DistanceScore(profile, entity)

	pairs := comparePairs(profile, entity)
	closest := pairs[0]
	for _, p := range pairs[1:] {
		if p.diff < closest.diff {
			closest = p
		}
	}
	return score, fmt.Sprintf("Matches your %s preferences", closest.axis.Label())
}

// axisDelta es la contribucion de un tag de catalogo a un eje.
type axisDelta struct {
	axis  domain.TraitAxis
	value float64
}

// tagTraitDeltas mapea tags de catalogo a valores de rasgo.
// Tabla fija: un tag desconocido simplemente no aporta señal.
var tagTraitDeltas = map[string][]axisDelta{
	"boardgames":   {{domain.AxisStrategy, 0.9}, {domain.AxisSocial, 0.7}, {domain.AxisCozy, 0.6}},
	"hiking":       {{domain.AxisAdventure, 0.9}, {domain.AxisNovelty, 0.6}, {domain.AxisIntensity, 0.6}},
	"crafts":       {{domain.AxisCreativity, 0.9}, {domain.AxisCozy, 0.8}},
	"retro":        {{domain.AxisNostalgia, 0.9}, {domain.AxisCozy, 0.6}},
	"climbing":     {{domain.AxisAdventure, 0.85}, {domain.AxisIntensity, 0.9}},
	"book-club":    {{domain.AxisCozy, 0.85}, {domain.AxisCreativity, 0.6}, {domain.AxisSocial, 0.55}},
	"live-music":   {{domain.AxisIntensity, 0.8}, {domain.AxisSocial, 0.8}, {domain.AxisNovelty, 0.6}},
	"cooking":      {{domain.AxisCreativity, 0.75}, {domain.AxisCozy, 0.7}},
	"esports":      {{domain.AxisStrategy, 0.85}, {domain.AxisIntensity, 0.7}},
	"photography":  {{domain.AxisCreativity, 0.8}, {domain.AxisNovelty, 0.65}},
	"volunteering": {{domain.AxisSocial, 0.85}, {domain.AxisCozy, 0.55}},
	"travel":       {{domain.AxisNovelty, 0.9}, {domain.AxisAdventure, 0.85}},
	"vintage":      {{domain.AxisNostalgia, 0.85}, {domain.AxisCreativity, 0.6}},
	"chess":        {{domain.AxisStrategy, 0.95}, {domain.AxisCozy, 0.5}},
	"dancing":      {{domain.AxisSocial, 0.8}, {domain.AxisIntensity, 0.75}, {domain.AxisNovelty, 0.55}},
}

// Mezcla de arranque en frio: 60% derivado de tags, 40% quiz directo.
const (
	tagBlendWeight  = 0.6
	quizBlendWeight = 0.4
)

// BuildTraitsFromSelections construye el vector de rasgos inicial de un perfil
// a partir de los items de catalogo elegidos y las respuestas directas del quiz.
// Por eje: promedio de los deltas de tags que lo tocan (0.5 si ninguno),
// mezclado 60/40 con el valor del quiz.
func (e TraitEngine) BuildTraitsFromSelections(selections []domain.ContentEntity, quiz domain.TraitVector) domain.TraitVector {
	var sums, counts [domain.NumTraitAxes]float64
	for _, sel := range selections {
		for _, tag := range sel.Tags {
			for _, d := range tagTraitDeltas[tag] {
				sums[d.axis] += d.value
				counts[d.axis]++
			}
		}
	}

	quiz = quiz.Sanitized()
	out := domain.DefaultTraitVector()
	for a := domain.TraitAxis(0); a < domain.NumTraitAxes; a++ {
		tagValue := 0.5
		if counts[a] > 0 {
			tagValue = sums[a] / counts[a]
		}
		out = out.SetAxis(a, tagBlendWeight*tagValue+quizBlendWeight*quiz.Axis(a))
	}
	return out
}
