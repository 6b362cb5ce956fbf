package domain

import (
	"math"
	"time"

	"github.com/google/uuid"
	pgvector "github.com/pgvector/pgvector-go"
)

// EmbeddingDim es la dimension fija de los vectores semanticos.
// Cualquier vector con otra longitud se trata como ausente, nunca como error.
const EmbeddingDim = 384

type User struct {
	ID              string     `json:"id"`
	Email           string     `json:"email"`
	DisplayName     string     `json:"display_name,omitempty"`
	PasswordHash    string     `json:"-"`
	EmailVerifiedAt *time.Time `json:"email_verified_at,omitempty"`
	OtpCodeHash     string     `json:"-"`
	OtpExpiresAt    *time.Time `json:"-"`
	CreatedAt       time.Time  `json:"created_at"`
}

// TraitVector son los 8 ejes psicometricos fijos, cada uno en [0,1].
// Se usa un struct con campos enumerados (no acceso por string) para que
// un eje desconocido sea imposible en tiempo de compilacion.
type TraitVector struct {
	Novelty    float64 `json:"novelty"`
	Intensity  float64 `json:"intensity"`
	Cozy       float64 `json:"cozy"`
	Strategy   float64 `json:"strategy"`
	Social     float64 `json:"social"`
	Creativity float64 `json:"creativity"`
	Nostalgia  float64 `json:"nostalgia"`
	Adventure  float64 `json:"adventure"`
}

// TraitAxis identifica uno de los ejes fijos.
type TraitAxis int

const (
	AxisNovelty TraitAxis = iota
	AxisIntensity
	AxisCozy
	AxisStrategy
	AxisSocial
	AxisCreativity
	AxisNostalgia
	AxisAdventure

	NumTraitAxes = 8
)

var traitAxisLabels = [NumTraitAxes]string{
	"novelty",
	"intensity",
	"coziness",
	"strategy",
	"social energy",
	"creativity",
	"nostalgia",
	"adventure",
}

// Label devuelve la etiqueta legible del eje.
func (a TraitAxis) Label() string {
	if a < 0 || int(a) >= NumTraitAxes {
		return "unknown"
	}
	return traitAxisLabels[a]
}

// DefaultTraitVector devuelve el vector neutral (0.5 en todos los ejes).
func DefaultTraitVector() TraitVector {
	return TraitVector{0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5}
}

// Values devuelve los 8 valores en el orden de declaracion de los ejes.
func (t TraitVector) Values() [NumTraitAxes]float64 {
	return [NumTraitAxes]float64{
		t.Novelty, t.Intensity, t.Cozy, t.Strategy,
		t.Social, t.Creativity, t.Nostalgia, t.Adventure,
	}
}

// Axis devuelve el valor de un eje concreto.
func (t TraitVector) Axis(a TraitAxis) float64 {
	return t.Values()[a]
}

// SetAxis devuelve una copia con el eje indicado reemplazado.
func (t TraitVector) SetAxis(a TraitAxis, v float64) TraitVector {
	switch a {
	case AxisNovelty:
		t.Novelty = v
	case AxisIntensity:
		t.Intensity = v
	case AxisCozy:
		t.Cozy = v
	case AxisStrategy:
		t.Strategy = v
	case AxisSocial:
		t.Social = v
	case AxisCreativity:
		t.Creativity = v
	case AxisNostalgia:
		t.Nostalgia = v
	case AxisAdventure:
		t.Adventure = v
	}
	return t
}

// Sanitized reemplaza NaN/Inf o valores fuera de [0,1] por el neutral 0.5.
// Un rasgo malformado degrada igual que uno ausente: nunca propaga a la matematica.
func (t TraitVector) Sanitized() TraitVector {
	out := t
	for a := TraitAxis(0); a < NumTraitAxes; a++ {
		v := out.Axis(a)
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 || v > 1 {
			out = out.SetAxis(a, 0.5)
		}
	}
	return out
}

// Dominios de las entidades de contenido recomendables.
const (
	DomainClub  = "club"
	DomainHobby = "hobby"
	DomainEvent = "event"

	// DomainPerson no es una entidad de contenido; etiqueta los matches
	// persona-a-persona en resultados y metricas.
	DomainPerson = "person"
)

// Coordinates es una geocoordenada opcional de una entidad o perfil.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Profile es el perfil psicometrico de un usuario.
// Embedding puede estar vacio (perfil frio); Clusters es solo informativo.
type Profile struct {
	ID          uuid.UUID       `json:"id"`
	UserID      string          `json:"user_id"`
	DisplayName string          `json:"display_name"`
	Traits      TraitVector     `json:"traits"`
	Embedding   pgvector.Vector `json:"-"`
	Clusters    []string        `json:"clusters,omitempty"`
	Onboarded   bool            `json:"onboarded"`
	Location    *Coordinates    `json:"location,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// ContentEntity es un club/item, hobby o evento recomendable.
type ContentEntity struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Domain      string          `json:"domain"`
	Category    string          `json:"category,omitempty"`
	Tags        []string        `json:"tags,omitempty"`
	Description string          `json:"description,omitempty"`
	Traits      TraitVector     `json:"traits"`
	Embedding   pgvector.Vector `json:"-"`
	Location    *Coordinates    `json:"location,omitempty"`

	// Plazos opcionales; cuales aplican depende del dominio de la entidad.
	SignupDeadline *time.Time `json:"signup_deadline,omitempty"`
	DuesDeadline   *time.Time `json:"dues_deadline,omitempty"`
	StartsAt       *time.Time `json:"starts_at,omitempty"`
	NextMeetingAt  *time.Time `json:"next_meeting_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Deadlines devuelve todos los plazos presentes de la entidad.
func (e ContentEntity) Deadlines() []time.Time {
	var out []time.Time
	for _, t := range []*time.Time{e.SignupDeadline, e.DuesDeadline, e.StartsAt, e.NextMeetingAt} {
		if t != nil {
			out = append(out, *t)
		}
	}
	return out
}

// Acciones de interaccion y sus pesos con signo.
// El peso codifica magnitud y valencia: skip es negativo.
const (
	ActionLove = "love"
	ActionSave = "save"
	ActionLike = "like"
	ActionView = "view"
	ActionSkip = "skip"
)

var actionWeights = map[string]float64{
	ActionLove: 2.0,
	ActionSave: 1.5,
	ActionLike: 1.0,
	ActionView: 0.3,
	ActionSkip: -0.5,
}

// ActionWeight devuelve el peso con signo de una accion; 0 si es desconocida.
func ActionWeight(action string) float64 {
	return actionWeights[action]
}

// ValidAction indica si la accion pertenece al vocabulario conocido.
func ValidAction(action string) bool {
	_, ok := actionWeights[action]
	return ok
}

// Interaction es un registro append-only de comportamiento.
type Interaction struct {
	ID        uuid.UUID `json:"id"`
	ProfileID uuid.UUID `json:"profile_id"`
	TargetID  uuid.UUID `json:"target_id"`
	Domain    string    `json:"domain"`
	Action    string    `json:"action"`
	Weight    float64   `json:"weight"`
	CreatedAt time.Time `json:"created_at"`
}

// Neighbor es un vecino de gusto: otro perfil cuyo embedding supera el
// umbral de similitud respecto al solicitante.
type Neighbor struct {
	ProfileID   uuid.UUID `json:"profile_id"`
	DisplayName string    `json:"display_name"`
	Similarity  float64   `json:"similarity"`
}

// Metodos de scoring reportados con cada candidato puntuado.
const (
	MethodHybrid    = "hybrid"
	MethodEmbedding = "embedding"
	MethodTraitOnly = "trait-only"
)

// UrgencyInfo es el resultado del calculo de urgencia por plazo.
type UrgencyInfo struct {
	Score    int        `json:"score"`
	Label    string     `json:"label"`
	Deadline *time.Time `json:"deadline,omitempty"`
}

// GeoInfo es el resultado del calculo de proximidad geografica.
type GeoInfo struct {
	Score      int     `json:"score"`
	Label      string  `json:"label"`
	DistanceKm float64 `json:"distance_km"`
	Known      bool    `json:"known"`
}

// ScoredCandidate es el resultado transitorio de puntuar un objetivo.
// Se construye por request y no se persiste.
type ScoredCandidate struct {
	TargetID       uuid.UUID    `json:"target_id"`
	Name           string       `json:"name"`
	Domain         string       `json:"domain"`
	Score          int          `json:"score"`
	VectorScore    *int         `json:"vector_score,omitempty"`
	CFScore        *int         `json:"cf_score,omitempty"`
	TraitScore     int          `json:"trait_score"`
	ScoringMethod  string       `json:"scoring_method"`
	FallbackReason string       `json:"fallback_reason,omitempty"`
	Urgency        *UrgencyInfo `json:"urgency,omitempty"`
	Geo            *GeoInfo     `json:"geo,omitempty"`
	ShortReason    string       `json:"short_reason"`
	LongReason     string       `json:"long_reason"`
	Audit          string       `json:"audit"`
}
