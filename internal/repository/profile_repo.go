package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"

	"kindred-match/internal/domain"
)

// ProfileRepository define el contrato de persistencia para perfiles.
// NearestNeighbors es la capacidad de consulta vecino-mas-cercano que el
// motor de CF consume; esta respaldada por el indice vectorial de pgvector.
type ProfileRepository interface {
	Create(ctx context.Context, profile domain.Profile) error
	GetByID(ctx context.Context, id uuid.UUID) (domain.Profile, error)
	GetByUserID(ctx context.Context, userID string) (domain.Profile, error)
	ListOthers(ctx context.Context, exclude uuid.UUID) ([]domain.Profile, error)
	UpdateTraits(ctx context.Context, id uuid.UUID, traits domain.TraitVector, onboarded bool) error
	UpdateEmbedding(ctx context.Context, id uuid.UUID, embedding pgvector.Vector) error
	NearestNeighbors(ctx context.Context, exclude uuid.UUID, embedding pgvector.Vector, threshold float64, limit int) ([]domain.Neighbor, error)
}

// PgProfileRepository implementa ProfileRepository usando pgxpool.
type PgProfileRepository struct {
	pool *pgxpool.Pool
}

func NewPgProfileRepository(pool *pgxpool.Pool) *PgProfileRepository {
	return &PgProfileRepository{pool: pool}
}

const profileColumns = `
	id, user_id, display_name,
	trait_novelty, trait_intensity, trait_cozy, trait_strategy,
	trait_social, trait_creativity, trait_nostalgia, trait_adventure,
	embedding, clusters, onboarded, lat, lng, created_at, updated_at`

func (r *PgProfileRepository) Create(ctx context.Context, profile domain.Profile) error {
	const query = `
		INSERT INTO profiles (` + profileColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`
	t := profile.Traits
	var lat, lng interface{}
	if profile.Location != nil {
		lat, lng = profile.Location.Lat, profile.Location.Lng
	}
	_, err := r.pool.Exec(ctx, query,
		profile.ID,
		profile.UserID,
		profile.DisplayName,
		t.Novelty, t.Intensity, t.Cozy, t.Strategy,
		t.Social, t.Creativity, t.Nostalgia, t.Adventure,
		nullableVector(profile.Embedding),
		profile.Clusters,
		profile.Onboarded,
		lat, lng,
		profile.CreatedAt,
		profile.UpdatedAt,
	)
	return err
}

func (r *PgProfileRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.Profile, error) {
	return r.getOne(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id = $1`, id)
}

func (r *PgProfileRepository) GetByUserID(ctx context.Context, userID string) (domain.Profile, error) {
	return r.getOne(ctx, `SELECT `+profileColumns+` FROM profiles WHERE user_id = $1`, userID)
}

func (r *PgProfileRepository) getOne(ctx context.Context, query string, arg interface{}) (domain.Profile, error) {
	row := r.pool.QueryRow(ctx, query, arg)
	p, err := scanProfile(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Profile{}, err
	}
	return p, err
}

func (r *PgProfileRepository) ListOthers(ctx context.Context, exclude uuid.UUID) ([]domain.Profile, error) {
	const query = `
		SELECT ` + profileColumns + `
		FROM profiles
		WHERE id <> $1 AND onboarded
		ORDER BY created_at
	`
	rows, err := r.pool.Query(ctx, query, exclude)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []domain.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

func (r *PgProfileRepository) UpdateTraits(ctx context.Context, id uuid.UUID, traits domain.TraitVector, onboarded bool) error {
	const query = `
		UPDATE profiles SET
			trait_novelty = $2, trait_intensity = $3, trait_cozy = $4, trait_strategy = $5,
			trait_social = $6, trait_creativity = $7, trait_nostalgia = $8, trait_adventure = $9,
			onboarded = $10, updated_at = now()
		WHERE id = $1
	`
	_, err := r.pool.Exec(ctx, query, id,
		traits.Novelty, traits.Intensity, traits.Cozy, traits.Strategy,
		traits.Social, traits.Creativity, traits.Nostalgia, traits.Adventure,
		onboarded,
	)
	return err
}

// UpdateEmbedding reemplaza el vector completo en una sola fila: la politica
// de concurrencia es last-write-wins, sin lectura previa.
func (r *PgProfileRepository) UpdateEmbedding(ctx context.Context, id uuid.UUID, embedding pgvector.Vector) error {
	const query = `UPDATE profiles SET embedding = $2, updated_at = now() WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, id, embedding)
	return err
}

// NearestNeighbors devuelve perfiles con onboarding completo y embedding valido
// cuya similitud coseno al vector dado supera el umbral, excluyendo al propio
// solicitante. El operador <=> es distancia coseno; similitud = 1 - distancia.
func (r *PgProfileRepository) NearestNeighbors(ctx context.Context, exclude uuid.UUID, embedding pgvector.Vector, threshold float64, limit int) ([]domain.Neighbor, error) {
	if limit <= 0 {
		limit = 20
	}
	const query = `
		SELECT id, display_name, 1 - (embedding <=> $1) AS similarity
		FROM profiles
		WHERE id <> $2
		  AND onboarded
		  AND embedding IS NOT NULL
		  AND 1 - (embedding <=> $1) > $3
		ORDER BY embedding <=> $1
		LIMIT $4
	`
	rows, err := r.pool.Query(ctx, query, embedding, exclude, threshold, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var neighbors []domain.Neighbor
	for rows.Next() {
		var n domain.Neighbor
		if err := rows.Scan(&n.ProfileID, &n.DisplayName, &n.Similarity); err != nil {
			return nil, err
		}
		neighbors = append(neighbors, n)
	}
	return neighbors, rows.Err()
}

// pgxRow permite escanear tanto filas sueltas como iteradas.
type pgxRow interface {
	Scan(dest ...interface{}) error
}

func scanProfile(row pgxRow) (domain.Profile, error) {
	var p domain.Profile
	var emb *pgvector.Vector
	var lat, lng *float64
	err := row.Scan(
		&p.ID,
		&p.UserID,
		&p.DisplayName,
		&p.Traits.Novelty, &p.Traits.Intensity, &p.Traits.Cozy, &p.Traits.Strategy,
		&p.Traits.Social, &p.Traits.Creativity, &p.Traits.Nostalgia, &p.Traits.Adventure,
		&emb,
		&p.Clusters,
		&p.Onboarded,
		&lat, &lng,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return domain.Profile{}, err
	}
	if emb != nil {
		p.Embedding = *emb
	}
	if lat != nil && lng != nil {
		p.Location = &domain.Coordinates{Lat: *lat, Lng: *lng}
	}
	return p, nil
}

// nullableVector convierte un vector vacio en NULL para la base.
func nullableVector(v pgvector.Vector) interface{} {
	if len(v.Slice()) == 0 {
		return nil
	}
	return v
}
