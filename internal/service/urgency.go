package service

import (
	"time"

	"kindred-match/internal/domain"
)

// urgencyBucket define un escalon de horas-restantes con su score y etiqueta.
type urgencyBucket struct {
	maxHours float64
	score    int
	label    string
}

var urgencyBuckets = []urgencyBucket{
	{24, 100, "today/last chance"},
	{48, 90, "tomorrow"},
	{72, 75, "this week"},
	{168, 50, "upcoming"},
	{336, 30, "next week"},
}

const (
	urgencyFarScore = 10
	urgencyFarLabel = "plenty of time"
)

// UrgencyAt calcula la urgencia respecto al plazo futuro mas cercano,
// evaluada en el instante now. Sin plazo futuro: score 0.
// Determinista; now se inyecta para que los tests no dependan del reloj.
func UrgencyAt(now time.Time, deadlines []time.Time) domain.UrgencyInfo {
	var nearest *time.Time
	for _, d := range deadlines {
		d := d
		if !d.After(now) {
			continue
		}
		if nearest == nil || d.Before(*nearest) {
			nearest = &d
		}
	}

	if nearest == nil {
		label := "no deadline"
		if len(deadlines) > 0 {
			label = "past"
		}
		return domain.UrgencyInfo{Score: 0, Label: label}
	}

	hours := nearest.Sub(now).Hours()
	for _, b := range urgencyBuckets {
		if hours <= b.maxHours {
			return domain.UrgencyInfo{Score: b.score, Label: b.label, Deadline: nearest}
		}
	}
	return domain.UrgencyInfo{Score: urgencyFarScore, Label: urgencyFarLabel, Deadline: nearest}
}

// Urgency es UrgencyAt con el reloj real.
func Urgency(deadlines []time.Time) domain.UrgencyInfo {
	return UrgencyAt(time.Now().UTC(), deadlines)
}
