package repositories

import (
	"context"

	"github.com/eventdesk/backend/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ApprovalRepo struct {
	pool *pgxpool.Pool
}

func NewApprovalRepo(pool *pgxpool.Pool) *ApprovalRepo {
	return &ApprovalRepo{pool: pool}
}

func (r *ApprovalRepo) Create(ctx context.Context, a *models.Approval) error {
	return conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO approvals (event_id, decision, reviewer_id, feedback, decided_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, a.EventID, a.Decision, a.ReviewerID, a.Feedback, a.DecidedAt).Scan(&a.ID)
}

func (r *ApprovalRepo) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]models.Approval, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `
		SELECT id, event_id, decision, reviewer_id, feedback, decided_at
		FROM approvals WHERE event_id = $1
		ORDER BY decided_at ASC
	`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Approval
	for rows.Next() {
		var a models.Approval
		if err := rows.Scan(&a.ID, &a.EventID, &a.Decision, &a.ReviewerID, &a.Feedback, &a.DecidedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
