package service

import (
	"fmt"
	"sort"
	"strings"

	"kindred-match/internal/domain"
)

// ExplanationInput reune todo lo que los calculadores produjeron para un
// candidato. Los campos opcionales en nil simplemente omiten su clausula.
type ExplanationInput struct {
	Category     string
	TargetName   string
	UserTraits   domain.TraitVector
	TargetTraits domain.TraitVector
	Result       HybridResult
	CF           *CFCandidate
	Urgency      *domain.UrgencyInfo
	Geo          *domain.GeoInfo
	MutualCount  int
}

// Explanation son las tres cadenas de racional por candidato.
type Explanation struct {
	Short string
	Long  string
	Audit string
}

// ExplanationBuilder compone racionales deterministas a partir de las salidas
// de los calculadores. Nunca falla: entradas faltantes omiten su frase.
type ExplanationBuilder struct{}

// topAxes devuelve los n ejes de mayor valor, empates por orden de declaracion.
func topAxes(t domain.TraitVector, n int) []domain.TraitAxis {
	values := t.Sanitized().Values()
	axes := make([]domain.TraitAxis, domain.NumTraitAxes)
	for i := range axes {
		axes[i] = domain.TraitAxis(i)
	}
	sort.SliceStable(axes, func(i, j int) bool {
		return values[axes[i]] > values[axes[j]]
	})
	if n > len(axes) {
		n = len(axes)
	}
	return axes[:n]
}

func axisLabels(axes []domain.TraitAxis) []string {
	labels := make([]string, len(axes))
	for i, a := range axes {
		labels[i] = a.Label()
	}
	return labels
}

// Build genera las tres cadenas para un candidato puntuado.
func (ExplanationBuilder) Build(in ExplanationInput) Explanation {
	return Explanation{
		Short: buildShort(in),
		Long:  buildLong(in),
		Audit: buildAudit(in),
	}
}

func buildShort(in ExplanationInput) string {
	shared := sharedTopAxes(in.UserTraits, in.TargetTraits)

	var parts []string
	switch in.Category {
	case domain.DomainEvent:
		if len(shared) > 0 {
			parts = append(parts, fmt.Sprintf("Fits your %s side", shared[0].Label()))
		} else {
			parts = append(parts, "A change of pace from your usual picks")
		}
		if in.Geo != nil && in.Geo.Known {
			parts = append(parts, in.Geo.Label)
		}
		if in.Urgency != nil && in.Urgency.Score > 0 {
			parts = append(parts, in.Urgency.Label)
		}
	case domain.DomainPerson:
		if len(shared) >= 2 {
			parts = append(parts, fmt.Sprintf("You both lean into %s and %s", shared[0].Label(), shared[1].Label()))
		} else if len(shared) == 1 {
			parts = append(parts, fmt.Sprintf("You both lean into %s", shared[0].Label()))
		} else {
			parts = append(parts, "Your styles complement each other")
		}
		if in.MutualCount > 0 {
			parts = append(parts, fmt.Sprintf("%d mutual connections", in.MutualCount))
		}
	default: // clubs, hobbies
		if len(shared) > 0 {
			parts = append(parts, fmt.Sprintf("Strong %s match", strings.Join(axisLabels(shared), " and ")))
		} else {
			parts = append(parts, "Something new for your profile")
		}
		if in.CF != nil && in.CF.StrongActions > 0 {
			parts = append(parts, fmt.Sprintf("loved by %d people with your taste", in.CF.StrongActions))
		}
	}
	return strings.Join(parts, " · ")
}

func buildLong(in ExplanationInput) string {
	if in.Category == domain.DomainPerson {
		return buildPersonLong(in)
	}

	userTop := topAxes(in.UserTraits, 3)
	targetTop := topAxes(in.TargetTraits, 2)

	targetSet := make(map[domain.TraitAxis]struct{}, len(targetTop))
	for _, a := range targetTop {
		targetSet[a] = struct{}{}
	}
	var overlapping, complementary []string
	for _, a := range userTop {
		if _, ok := targetSet[a]; ok {
			overlapping = append(overlapping, a.Label())
		} else {
			complementary = append(complementary, a.Label())
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Your strongest traits are %s.", strings.Join(axisLabels(userTop), ", "))
	if len(overlapping) > 0 {
		fmt.Fprintf(&b, " %s shares your %s.", in.TargetName, strings.Join(overlapping, " and "))
	}
	if len(complementary) > 0 && len(overlapping) == 0 {
		fmt.Fprintf(&b, " %s complements your %s rather than mirroring it.", in.TargetName, strings.Join(complementary, " and "))
	}
	if in.Category == domain.DomainClub || in.Category == domain.DomainHobby {
		_, closest := DefaultTraitEngine.ItemMatch(in.UserTraits, in.TargetTraits)
		fmt.Fprintf(&b, " %s.", closest)
	}

	if in.CF != nil && len(in.CF.ContributorNames) > 0 {
		fmt.Fprintf(&b, " People with similar taste, like %s, are into it too.", strings.Join(in.CF.ContributorNames, " and "))
	} else if in.CF != nil && len(in.CF.Contributors) > 0 {
		fmt.Fprintf(&b, " %d people with similar taste are into it too.", len(in.CF.Contributors))
	}

	if in.Urgency != nil && in.Urgency.Score > 0 {
		fmt.Fprintf(&b, " Heads up: %s.", in.Urgency.Label)
	}
	return b.String()
}

// buildPersonLong narra match persona-a-persona con las frases por eje del
// TraitEngine: los tres ejes mas alineados y, si existe, el de mayor contraste.
func buildPersonLong(in ExplanationInput) string {
	var b strings.Builder
	for i, phrase := range DefaultTraitEngine.ExplainMatch(in.UserTraits, in.TargetTraits) {
		if i > 0 {
			b.WriteString(" ")
		}
		b.WriteString(phrase)
		b.WriteString(".")
	}
	return b.String()
}

// buildAudit compone la traza auditable: formula literal, metodo y fallback.
func buildAudit(in ExplanationInput) string {
	var b strings.Builder
	fmt.Fprintf(&b, "score = %s; method=%s", in.Result.Formula, in.Result.Method)
	if in.Result.FallbackReason != "" {
		fmt.Fprintf(&b, "; fallback=%s", in.Result.FallbackReason)
	}
	if in.Urgency != nil {
		fmt.Fprintf(&b, "; urgency=%d", in.Urgency.Score)
	}
	if in.Geo != nil && in.Geo.Known {
		fmt.Fprintf(&b, "; geo=%d (%.1f km)", in.Geo.Score, in.Geo.DistanceKm)
	}
	return b.String()
}

// sharedTopAxes devuelve los ejes presentes en el top-3 de ambos vectores,
// en el orden del usuario.
func sharedTopAxes(user, target domain.TraitVector) []domain.TraitAxis {
	targetTop := topAxes(target, 3)
	targetSet := make(map[domain.TraitAxis]struct{}, len(targetTop))
	for _, a := range targetTop {
		targetSet[a] = struct{}{}
	}
	var shared []domain.TraitAxis
	for _, a := range topAxes(user, 3) {
		if _, ok := targetSet[a]; ok {
			shared = append(shared, a)
		}
	}
	if len(shared) > 2 {
		shared = shared[:2]
	}
	return shared
}
