package repositories

import (
	"context"

	"github.com/eventdesk/backend/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var u models.User
	err := conn(ctx, r.pool).QueryRow(ctx, `
		SELECT id, email, name, role, created_at FROM users WHERE id = $1
	`, id).Scan(&u.ID, &u.Email, &u.Name, &u.Role, &u.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

// GetByEmail matches case-insensitively.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := conn(ctx, r.pool).QueryRow(ctx, `
		SELECT id, email, name, role, created_at FROM users WHERE lower(email) = lower($1)
	`, email).Scan(&u.ID, &u.Email, &u.Name, &u.Role, &u.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

// EarliestByRole returns the oldest account with role, or ErrNotFound.
func (r *UserRepo) EarliestByRole(ctx context.Context, role string) (*models.User, error) {
	var u models.User
	err := conn(ctx, r.pool).QueryRow(ctx, `
		SELECT id, email, name, role, created_at FROM users
		WHERE role = $1 ORDER BY created_at ASC, id ASC LIMIT 1
	`, role).Scan(&u.ID, &u.Email, &u.Name, &u.Role, &u.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (r *UserRepo) ListByRole(ctx context.Context, role string) ([]models.User, error) {
	return r.list(ctx, `
		SELECT id, email, name, role, created_at FROM users WHERE role = $1 ORDER BY created_at ASC
	`, role)
}

func (r *UserRepo) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return r.list(ctx, `SELECT id, email, name, role, created_at FROM users WHERE id = ANY($1)`, ids)
}

func (r *UserRepo) list(ctx context.Context, query string, args ...any) ([]models.User, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Email, &u.Name, &u.Role, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
