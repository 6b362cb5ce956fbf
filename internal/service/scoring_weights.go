package service

import "math"

// Limites de todo score publico del motor.
const (
	MinScore = 15
	MaxScore = 100
)

// ScoringWeights agrupa las constantes de afinado del motor de matching.
// Los valores por defecto reproducen el comportamiento calibrado en produccion;
// son constantes de tuning, no leyes, y por eso viven en config y no inline.
type ScoringWeights struct {
	// TraitAmplifier empuja scores hacia abajo ante divergencia moderada de rasgos.
	TraitAmplifier float64

	Item   ItemWeights
	Person PersonWeights
	Event  EventWeights
	Hobby  HobbyWeights
}

// ItemWeights pondera la fusion para recomendaciones de clubs/items.
// Cuando falta CF su peso se redistribuye VectorShare/TraitShare para que
// las dos señales restantes sigan sumando 1.0.
type ItemWeights struct {
	Vector      float64
	CF          float64
	Trait       float64
	VectorShare float64
	TraitShare  float64
}

type PersonWeights struct {
	Vector float64
	Trait  float64
}

type EventWeights struct {
	Vector float64
	Trait  float64
	Geo    float64
}

type HobbyWeights struct {
	Vector float64
	Trait  float64
}

// DefaultScoringWeights devuelve la calibracion de produccion.
func DefaultScoringWeights() ScoringWeights {
	return ScoringWeights{
		TraitAmplifier: 1.4,
		Item: ItemWeights{
			Vector:      0.55,
			CF:          0.25,
			Trait:       0.20,
			VectorShare: 0.6,
			TraitShare:  0.4,
		},
		Person: PersonWeights{Vector: 0.60, Trait: 0.40},
		Event:  EventWeights{Vector: 0.50, Trait: 0.25, Geo: 0.25},
		Hobby:  HobbyWeights{Vector: 0.55, Trait: 0.45},
	}
}

// clampScore redondea y acota un score a [MinScore, MaxScore].
func clampScore(v float64) int {
	s := int(math.Round(v))
	if s < MinScore {
		return MinScore
	}
	if s > MaxScore {
		return MaxScore
	}
	return s
}
