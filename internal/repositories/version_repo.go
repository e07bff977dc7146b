package repositories

import (
	"context"

	"github.com/eventdesk/backend/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type VersionRepo struct {
	pool *pgxpool.Pool
}

func NewVersionRepo(pool *pgxpool.Pool) *VersionRepo {
	return &VersionRepo{pool: pool}
}

// Append inserts v with the next version number for its (event, kind) stream and fills
// in ID, Version and CreatedAt. UNIQUE(event_id, kind, version) rejects a concurrent duplicate.
func (r *VersionRepo) Append(ctx context.Context, v *models.EventVersion) error {
	return conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO event_versions (event_id, kind, version, payload, submitted_by, submitted_at)
		SELECT $1, $2, COALESCE(MAX(version), 0) + 1, $3, $4, $5
		FROM event_versions WHERE event_id = $1 AND kind = $2
		RETURNING id, version, created_at
	`, v.EventID, v.Kind, v.Payload, v.SubmittedBy, v.SubmittedAt).Scan(&v.ID, &v.Version, &v.CreatedAt)
}

// ListByEvent returns the versions of one kind in ascending version order.
func (r *VersionRepo) ListByEvent(ctx context.Context, eventID uuid.UUID, kind string) ([]models.EventVersion, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `
		SELECT id, event_id, kind, version, payload, submitted_by, submitted_at, created_at
		FROM event_versions WHERE event_id = $1 AND kind = $2
		ORDER BY version ASC
	`, eventID, kind)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.EventVersion
	for rows.Next() {
		var v models.EventVersion
		if err := rows.Scan(&v.ID, &v.EventID, &v.Kind, &v.Version, &v.Payload, &v.SubmittedBy, &v.SubmittedAt, &v.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
