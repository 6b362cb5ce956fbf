package service

import (
	"math"

	"kindred-match/internal/domain"
)

// IsValidEmbedding indica si el vector tiene la dimension esperada.
// Los consumidores distinguen "sin señal" con este predicado, nunca
// inspeccionando el valor de similitud.
func IsValidEmbedding(v []float32) bool {
	return len(v) == domain.EmbeddingDim
}

// CosineSimilarity calcula la similitud coseno entre dos embeddings.
// Devuelve 0 si alguno es invalido o de norma cero; ese 0 significa
// "sin señal", no similitud real.
func CosineSimilarity(u, v []float32) float64 {
	if !IsValidEmbedding(u) || !IsValidEmbedding(v) {
		return 0
	}

	var dot, normU, normV float64
	for i := range u {
		ui, vi := float64(u[i]), float64(v[i])
		dot += ui * vi
		normU += ui * ui
		normV += vi * vi
	}
	if normU == 0 || normV == 0 {
		return 0
	}
	return dot / (math.Sqrt(normU) * math.Sqrt(normV))
}

// SimilarityToScore remapea similitud coseno [-1,1] a un score [15,100].
// Monotona y determinista.
func SimilarityToScore(sim float64) int {
	return clampScore(((sim + 1) / 2) * 100)
}

// WeightedAverage calcula el promedio ponderado con signo de varios embeddings
// y lo re-normaliza a longitud unitaria. Los pesos negativos (skips) empujan
// el resultado lejos de esos vectores. Devuelve nil si no hay vectores validos,
// el peso total es cero o el resultado degenera a norma cero.
func WeightedAverage(vectors [][]float32, weights []float64) []float32 {
	if len(vectors) == 0 || len(vectors) != len(weights) {
		return nil
	}

	sum := make([]float64, domain.EmbeddingDim)
	var totalWeight float64
	used := 0
	for i, vec := range vectors {
		if !IsValidEmbedding(vec) {
			continue
		}
		w := weights[i]
		if w == 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			continue
		}
		for j, x := range vec {
			sum[j] += w * float64(x)
		}
		totalWeight += math.Abs(w)
		used++
	}
	if used == 0 || totalWeight == 0 {
		return nil
	}

	var norm float64
	for j := range sum {
		sum[j] /= totalWeight
		norm += sum[j] * sum[j]
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		return nil
	}

	out := make([]float32, domain.EmbeddingDim)
	for j := range sum {
		out[j] = float32(sum[j] / norm)
	}
	return out
}
