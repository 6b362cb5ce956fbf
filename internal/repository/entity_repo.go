package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"

	"kindred-match/internal/domain"
)

// EntityRepository define el contrato de persistencia para entidades de contenido.
type EntityRepository interface {
	Create(ctx context.Context, entity domain.ContentEntity) error
	GetByID(ctx context.Context, id uuid.UUID) (domain.ContentEntity, error)
	ListByDomain(ctx context.Context, entityDomain string) ([]domain.ContentEntity, error)
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.ContentEntity, error)
	ListMissingEmbeddings(ctx context.Context, limit int) ([]domain.ContentEntity, error)
	ListEventsWithDeadlineBetween(ctx context.Context, from, to time.Time) ([]domain.ContentEntity, error)
	UpdateEmbedding(ctx context.Context, id uuid.UUID, embedding pgvector.Vector) error
}

// PgEntityRepository implementa EntityRepository usando pgxpool.
type PgEntityRepository struct {
	pool *pgxpool.Pool
}

func NewPgEntityRepository(pool *pgxpool.Pool) *PgEntityRepository {
	return &PgEntityRepository{pool: pool}
}

const entityColumns = `
	id, name, domain, category, tags, description,
	trait_novelty, trait_intensity, trait_cozy, trait_strategy,
	trait_social, trait_creativity, trait_nostalgia, trait_adventure,
	embedding, lat, lng,
	signup_deadline, dues_deadline, starts_at, next_meeting_at,
	created_at, updated_at`

func (r *PgEntityRepository) Create(ctx context.Context, entity domain.ContentEntity) error {
	const query = `
		INSERT INTO content_entities (` + entityColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
		        $15, $16, $17, $18, $19, $20, $21, $22, $23)
	`
	t := entity.Traits
	var lat, lng interface{}
	if entity.Location != nil {
		lat, lng = entity.Location.Lat, entity.Location.Lng
	}
	_, err := r.pool.Exec(ctx, query,
		entity.ID,
		entity.Name,
		entity.Domain,
		entity.Category,
		entity.Tags,
		entity.Description,
		t.Novelty, t.Intensity, t.Cozy, t.Strategy,
		t.Social, t.Creativity, t.Nostalgia, t.Adventure,
		nullableVector(entity.Embedding),
		lat, lng,
		entity.SignupDeadline,
		entity.DuesDeadline,
		entity.StartsAt,
		entity.NextMeetingAt,
		entity.CreatedAt,
		entity.UpdatedAt,
	)
	return err
}

func (r *PgEntityRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.ContentEntity, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+entityColumns+` FROM content_entities WHERE id = $1`, id)
	e, err := scanEntity(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ContentEntity{}, err
	}
	return e, err
}

func (r *PgEntityRepository) ListByDomain(ctx context.Context, entityDomain string) ([]domain.ContentEntity, error) {
	const query = `
		SELECT ` + entityColumns + `
		FROM content_entities
		WHERE domain = $1
		ORDER BY created_at
	`
	return r.list(ctx, query, entityDomain)
}

func (r *PgEntityRepository) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.ContentEntity, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	const query = `SELECT ` + entityColumns + ` FROM content_entities WHERE id = ANY($1)`
	return r.list(ctx, query, ids)
}

func (r *PgEntityRepository) ListMissingEmbeddings(ctx context.Context, limit int) ([]domain.ContentEntity, error) {
	if limit <= 0 {
		limit = 100
	}
	const query = `
		SELECT ` + entityColumns + `
		FROM content_entities
		WHERE embedding IS NULL
		ORDER BY created_at
		LIMIT $1
	`
	return r.list(ctx, query, limit)
}

func (r *PgEntityRepository) ListEventsWithDeadlineBetween(ctx context.Context, from, to time.Time) ([]domain.ContentEntity, error) {
	const query = `
		SELECT ` + entityColumns + `
		FROM content_entities
		WHERE domain = 'event'
		  AND COALESCE(signup_deadline, starts_at) BETWEEN $1 AND $2
		ORDER BY COALESCE(signup_deadline, starts_at)
	`
	return r.list(ctx, query, from, to)
}

func (r *PgEntityRepository) UpdateEmbedding(ctx context.Context, id uuid.UUID, embedding pgvector.Vector) error {
	const query = `UPDATE content_entities SET embedding = $2, updated_at = now() WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, id, embedding)
	return err
}

func (r *PgEntityRepository) list(ctx context.Context, query string, args ...interface{}) ([]domain.ContentEntity, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entities []domain.ContentEntity
	for rows.Next() {
		e, err := scanEntity(rows)
		if err != nil {
			return nil, err
		}
		entities = append(entities, e)
	}
	return entities, rows.Err()
}

func scanEntity(row pgxRow) (domain.ContentEntity, error) {
	var e domain.ContentEntity
	var emb *pgvector.Vector
	var lat, lng *float64
	err := row.Scan(
		&e.ID,
		&e.Name,
		&e.Domain,
		&e.Category,
		&e.Tags,
		&e.Description,
		&e.Traits.Novelty, &e.Traits.Intensity, &e.Traits.Cozy, &e.Traits.Strategy,
		&e.Traits.Social, &e.Traits.Creativity, &e.Traits.Nostalgia, &e.Traits.Adventure,
		&emb,
		&lat, &lng,
		&e.SignupDeadline,
		&e.DuesDeadline,
		&e.StartsAt,
		&e.NextMeetingAt,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	if err != nil {
		return domain.ContentEntity{}, err
	}
	if emb != nil {
		e.Embedding = *emb
	}
	if lat != nil && lng != nil {
		e.Location = &domain.Coordinates{Lat: *lat, Lng: *lng}
	}
	return e, nil
}
