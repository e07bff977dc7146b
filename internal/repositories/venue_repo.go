package repositories

import (
	"context"

	"github.com/eventdesk/backend/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type VenueRepo struct {
	pool *pgxpool.Pool
}

func NewVenueRepo(pool *pgxpool.Pool) *VenueRepo {
	return &VenueRepo{pool: pool}
}

func (r *VenueRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Venue, error) {
	var v models.Venue
	err := conn(ctx, r.pool).QueryRow(ctx, `
		SELECT id, name, spaces, created_at FROM venues WHERE id = $1
	`, id).Scan(&v.ID, &v.Name, &v.Spaces, &v.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &v, nil
}

func (r *VenueRepo) List(ctx context.Context) ([]models.Venue, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `SELECT id, name, spaces, created_at FROM venues ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Venue
	for rows.Next() {
		var v models.Venue
		if err := rows.Scan(&v.ID, &v.Name, &v.Spaces, &v.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
