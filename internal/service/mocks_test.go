package service

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	pgvector "github.com/pgvector/pgvector-go"

	"kindred-match/internal/domain"
)

// Mocks in-memory y helpers compartidos por los tests del paquete.

// unitEmbedding devuelve un vector unitario con 1 en el eje indicado.
func unitEmbedding(axis int) []float32 {
	v := make([]float32, domain.EmbeddingDim)
	v[axis] = 1
	return v
}

// embeddingPairWithCosine construye dos vectores unitarios cuya similitud
// coseno es exactamente sim.
func embeddingPairWithCosine(sim float64) ([]float32, []float32) {
	a := unitEmbedding(0)
	b := make([]float32, domain.EmbeddingDim)
	b[0] = float32(sim)
	b[1] = float32(math.Sqrt(1 - sim*sim))
	return a, b
}

type mockProfileRepo struct {
	profiles  map[uuid.UUID]domain.Profile
	neighbors []domain.Neighbor
	nnErr     error
}

func newMockProfileRepo() *mockProfileRepo {
	return &mockProfileRepo{profiles: make(map[uuid.UUID]domain.Profile)}
}

func (m *mockProfileRepo) Create(_ context.Context, profile domain.Profile) error {
	m.profiles[profile.ID] = profile
	return nil
}

func (m *mockProfileRepo) GetByID(_ context.Context, id uuid.UUID) (domain.Profile, error) {
	p, ok := m.profiles[id]
	if !ok {
		return domain.Profile{}, pgx.ErrNoRows
	}
	return p, nil
}

func (m *mockProfileRepo) GetByUserID(_ context.Context, userID string) (domain.Profile, error) {
	for _, p := range m.profiles {
		if p.UserID == userID {
			return p, nil
		}
	}
	return domain.Profile{}, pgx.ErrNoRows
}

func (m *mockProfileRepo) ListOthers(_ context.Context, exclude uuid.UUID) ([]domain.Profile, error) {
	var out []domain.Profile
	for _, p := range m.profiles {
		if p.ID != exclude && p.Onboarded {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockProfileRepo) UpdateTraits(_ context.Context, id uuid.UUID, traits domain.TraitVector, onboarded bool) error {
	p, ok := m.profiles[id]
	if !ok {
		return pgx.ErrNoRows
	}
	p.Traits = traits
	p.Onboarded = onboarded
	m.profiles[id] = p
	return nil
}

func (m *mockProfileRepo) UpdateEmbedding(_ context.Context, id uuid.UUID, embedding pgvector.Vector) error {
	p, ok := m.profiles[id]
	if !ok {
		return pgx.ErrNoRows
	}
	p.Embedding = embedding
	m.profiles[id] = p
	return nil
}

func (m *mockProfileRepo) NearestNeighbors(_ context.Context, _ uuid.UUID, _ pgvector.Vector, _ float64, _ int) ([]domain.Neighbor, error) {
	if m.nnErr != nil {
		return nil, m.nnErr
	}
	return m.neighbors, nil
}

type mockEntityRepo struct {
	entities map[uuid.UUID]domain.ContentEntity
	order    []uuid.UUID
}

func newMockEntityRepo() *mockEntityRepo {
	return &mockEntityRepo{entities: make(map[uuid.UUID]domain.ContentEntity)}
}

func (m *mockEntityRepo) Create(_ context.Context, entity domain.ContentEntity) error {
	if _, ok := m.entities[entity.ID]; !ok {
		m.order = append(m.order, entity.ID)
	}
	m.entities[entity.ID] = entity
	return nil
}

func (m *mockEntityRepo) GetByID(_ context.Context, id uuid.UUID) (domain.ContentEntity, error) {
	e, ok := m.entities[id]
	if !ok {
		return domain.ContentEntity{}, pgx.ErrNoRows
	}
	return e, nil
}

func (m *mockEntityRepo) ListByDomain(_ context.Context, entityDomain string) ([]domain.ContentEntity, error) {
	var out []domain.ContentEntity
	for _, id := range m.order {
		if e := m.entities[id]; e.Domain == entityDomain {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *mockEntityRepo) ListByIDs(_ context.Context, ids []uuid.UUID) ([]domain.ContentEntity, error) {
	var out []domain.ContentEntity
	for _, id := range ids {
		if e, ok := m.entities[id]; ok {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *mockEntityRepo) ListMissingEmbeddings(_ context.Context, limit int) ([]domain.ContentEntity, error) {
	var out []domain.ContentEntity
	for _, id := range m.order {
		e := m.entities[id]
		if len(e.Embedding.Slice()) == 0 {
			out = append(out, e)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *mockEntityRepo) ListEventsWithDeadlineBetween(_ context.Context, from, to time.Time) ([]domain.ContentEntity, error) {
	var out []domain.ContentEntity
	for _, id := range m.order {
		e := m.entities[id]
		if e.Domain != domain.DomainEvent {
			continue
		}
		deadline := e.SignupDeadline
		if deadline == nil {
			deadline = e.StartsAt
		}
		if deadline == nil {
			continue
		}
		if !deadline.Before(from) && !deadline.After(to) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *mockEntityRepo) UpdateEmbedding(_ context.Context, id uuid.UUID, embedding pgvector.Vector) error {
	e, ok := m.entities[id]
	if !ok {
		return pgx.ErrNoRows
	}
	e.Embedding = embedding
	m.entities[id] = e
	return nil
}

type mockInteractionRepo struct {
	interactions []domain.Interaction
}

func (m *mockInteractionRepo) Create(_ context.Context, interaction domain.Interaction) error {
	m.interactions = append(m.interactions, interaction)
	return nil
}

func (m *mockInteractionRepo) ListByProfile(_ context.Context, profileID uuid.UUID) ([]domain.Interaction, error) {
	var out []domain.Interaction
	for _, i := range m.interactions {
		if i.ProfileID == profileID {
			out = append(out, i)
		}
	}
	return out, nil
}

func (m *mockInteractionRepo) ListPositiveByProfiles(_ context.Context, profileIDs []uuid.UUID, entityDomain string) ([]domain.Interaction, error) {
	members := make(map[uuid.UUID]struct{}, len(profileIDs))
	for _, id := range profileIDs {
		members[id] = struct{}{}
	}
	var out []domain.Interaction
	for _, i := range m.interactions {
		if _, ok := members[i.ProfileID]; ok && i.Domain == entityDomain && i.Weight > 0 {
			out = append(out, i)
		}
	}
	return out, nil
}

func (m *mockInteractionRepo) TargetIDsByProfile(_ context.Context, profileID uuid.UUID, entityDomain string) ([]uuid.UUID, error) {
	seen := make(map[uuid.UUID]struct{})
	var out []uuid.UUID
	for _, i := range m.interactions {
		if i.ProfileID != profileID || i.Domain != entityDomain {
			continue
		}
		if _, dup := seen[i.TargetID]; dup {
			continue
		}
		seen[i.TargetID] = struct{}{}
		out = append(out, i.TargetID)
	}
	return out, nil
}

func (m *mockInteractionRepo) ProfileIDsByTarget(_ context.Context, targetID uuid.UUID) ([]uuid.UUID, error) {
	seen := make(map[uuid.UUID]struct{})
	var out []uuid.UUID
	for _, i := range m.interactions {
		if i.TargetID != targetID || i.Weight <= 0 {
			continue
		}
		if _, dup := seen[i.ProfileID]; dup {
			continue
		}
		seen[i.ProfileID] = struct{}{}
		out = append(out, i.ProfileID)
	}
	return out, nil
}

type mockUserRepo struct {
	usersByID    map[string]domain.User
	usersByEmail map[string]string
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{
		usersByID:    make(map[string]domain.User),
		usersByEmail: make(map[string]string),
	}
}

func (m *mockUserRepo) Create(_ context.Context, user domain.User) error {
	m.usersByID[user.ID] = user
	if user.Email != "" {
		m.usersByEmail[user.Email] = user.ID
	}
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (domain.User, error) {
	user, ok := m.usersByID[id]
	if !ok {
		return domain.User{}, pgx.ErrNoRows
	}
	return user, nil
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (domain.User, error) {
	id, ok := m.usersByEmail[email]
	if !ok {
		return domain.User{}, pgx.ErrNoRows
	}
	return m.GetByID(context.Background(), id)
}

func (m *mockUserRepo) UpdateOTP(_ context.Context, id, otpHash string, otpExpiresAt time.Time) error {
	user, ok := m.usersByID[id]
	if !ok {
		return pgx.ErrNoRows
	}
	user.OtpCodeHash = otpHash
	user.OtpExpiresAt = &otpExpiresAt
	m.usersByID[id] = user
	return nil
}

func (m *mockUserRepo) VerifyEmail(_ context.Context, id string, verifiedAt time.Time) error {
	user, ok := m.usersByID[id]
	if !ok {
		return pgx.ErrNoRows
	}
	user.EmailVerifiedAt = &verifiedAt
	user.OtpCodeHash = ""
	user.OtpExpiresAt = nil
	m.usersByID[id] = user
	return nil
}

type mockEmailSender struct {
	lastTo        string
	lastCode      string
	lastExpires   time.Time
	reminders     []string
	reminderNames []string
	err           error
}

func (m *mockEmailSender) SendVerificationOTP(_ context.Context, toEmail string, code string, expiresAt time.Time) error {
	m.lastTo = toEmail
	m.lastCode = code
	m.lastExpires = expiresAt
	return m.err
}

func (m *mockEmailSender) SendDeadlineReminder(_ context.Context, toEmail string, eventName string, _ string, _ time.Time) error {
	if m.err != nil {
		return m.err
	}
	m.reminders = append(m.reminders, toEmail)
	m.reminderNames = append(m.reminderNames, eventName)
	return nil
}
