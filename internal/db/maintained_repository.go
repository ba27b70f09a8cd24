package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/udisondev/overcharge/internal/model"
)

// MaintainedRepository stores one maintained effect per actor.
// Implements charge.MaintainedStore.
type MaintainedRepository struct {
	db *pgxpool.Pool
}

// NewMaintainedRepository creates a new MaintainedRepository.
func NewMaintainedRepository(db *pgxpool.Pool) *MaintainedRepository {
	return &MaintainedRepository{db: db}
}

// SaveMaintained stores rec, replacing the actor's previous record (UPSERT).
func (r *MaintainedRepository) SaveMaintained(ctx context.Context, rec model.MaintainedRecord) error {
	query := `
		INSERT INTO maintained_effects (actor_id, ability_id, charge_level, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (actor_id)
		DO UPDATE SET ability_id = $2, charge_level = $3, updated_at = now()
	`

	if _, err := r.db.Exec(ctx, query, int64(rec.ActorID), int64(rec.AbilityID), rec.ChargeLevel); err != nil {
		return fmt.Errorf("upserting maintained effect for actor %d: %w", rec.ActorID, err)
	}
	return nil
}

// LoadMaintained returns the stored record of actorID.
// Returns nil, nil if the actor has none.
func (r *MaintainedRepository) LoadMaintained(ctx context.Context, actorID uint32) (*model.MaintainedRecord, error) {
	query := `
		SELECT ability_id, charge_level
		FROM maintained_effects
		WHERE actor_id = $1
	`

	var abilityID int64
	var level int
	err := r.db.QueryRow(ctx, query, int64(actorID)).Scan(&abilityID, &level)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying maintained effect for actor %d: %w", actorID, err)
	}

	return &model.MaintainedRecord{
		ActorID:     actorID,
		AbilityID:   uint32(abilityID),
		ChargeLevel: level,
	}, nil
}

// DeleteMaintained removes the actor's record. Deleting a missing record is not an error.
func (r *MaintainedRepository) DeleteMaintained(ctx context.Context, actorID uint32) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM maintained_effects WHERE actor_id = $1`, int64(actorID)); err != nil {
		return fmt.Errorf("deleting maintained effect for actor %d: %w", actorID, err)
	}
	return nil
}
