package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"kindred-match/internal/domain"
)

// InteractionRepository define el contrato para el historial de interacciones.
// Las interacciones son append-only: el motor de scoring solo las lee.
type InteractionRepository interface {
	Create(ctx context.Context, interaction domain.Interaction) error
	ListByProfile(ctx context.Context, profileID uuid.UUID) ([]domain.Interaction, error)
	ListPositiveByProfiles(ctx context.Context, profileIDs []uuid.UUID, entityDomain string) ([]domain.Interaction, error)
	TargetIDsByProfile(ctx context.Context, profileID uuid.UUID, entityDomain string) ([]uuid.UUID, error)
	ProfileIDsByTarget(ctx context.Context, targetID uuid.UUID) ([]uuid.UUID, error)
}

// PgInteractionRepository implementa InteractionRepository usando pgxpool.
type PgInteractionRepository struct {
	pool *pgxpool.Pool
}

func NewPgInteractionRepository(pool *pgxpool.Pool) *PgInteractionRepository {
	return &PgInteractionRepository{pool: pool}
}

const interactionColumns = `id, profile_id, target_id, domain, action, weight, created_at`

func (r *PgInteractionRepository) Create(ctx context.Context, interaction domain.Interaction) error {
	const query = `
		INSERT INTO interactions (id, profile_id, target_id, domain, action, weight, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.pool.Exec(ctx, query,
		interaction.ID,
		interaction.ProfileID,
		interaction.TargetID,
		interaction.Domain,
		interaction.Action,
		interaction.Weight,
		interaction.CreatedAt,
	)
	return err
}

func (r *PgInteractionRepository) ListByProfile(ctx context.Context, profileID uuid.UUID) ([]domain.Interaction, error) {
	const query = `
		SELECT ` + interactionColumns + `
		FROM interactions
		WHERE profile_id = $1
		ORDER BY created_at
	`
	return r.list(ctx, query, profileID)
}

// ListPositiveByProfiles devuelve solo interacciones de peso positivo: los
// skips nunca entran a la agregacion de CF.
func (r *PgInteractionRepository) ListPositiveByProfiles(ctx context.Context, profileIDs []uuid.UUID, entityDomain string) ([]domain.Interaction, error) {
	if len(profileIDs) == 0 {
		return nil, nil
	}
	const query = `
		SELECT ` + interactionColumns + `
		FROM interactions
		WHERE profile_id = ANY($1) AND domain = $2 AND weight > 0
		ORDER BY created_at
	`
	return r.list(ctx, query, profileIDs, entityDomain)
}

func (r *PgInteractionRepository) TargetIDsByProfile(ctx context.Context, profileID uuid.UUID, entityDomain string) ([]uuid.UUID, error) {
	const query = `
		SELECT DISTINCT target_id
		FROM interactions
		WHERE profile_id = $1 AND domain = $2
	`
	rows, err := r.pool.Query(ctx, query, profileID, entityDomain)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ProfileIDsByTarget devuelve los perfiles con interaccion positiva sobre un
// objetivo; lo usan los recordatorios de plazos.
func (r *PgInteractionRepository) ProfileIDsByTarget(ctx context.Context, targetID uuid.UUID) ([]uuid.UUID, error) {
	const query = `
		SELECT DISTINCT profile_id
		FROM interactions
		WHERE target_id = $1 AND weight > 0
	`
	rows, err := r.pool.Query(ctx, query, targetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *PgInteractionRepository) list(ctx context.Context, query string, args ...interface{}) ([]domain.Interaction, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var interactions []domain.Interaction
	for rows.Next() {
		var i domain.Interaction
		if err := rows.Scan(
			&i.ID,
			&i.ProfileID,
			&i.TargetID,
			&i.Domain,
			&i.Action,
			&i.Weight,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		interactions = append(interactions, i)
	}
	return interactions, rows.Err()
}
