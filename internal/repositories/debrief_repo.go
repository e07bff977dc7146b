package repositories

import (
	"context"

	"github.com/eventdesk/backend/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type DebriefRepo struct {
	pool *pgxpool.Pool
}

func NewDebriefRepo(pool *pgxpool.Pool) *DebriefRepo {
	return &DebriefRepo{pool: pool}
}

func (r *DebriefRepo) GetByEventID(ctx context.Context, eventID uuid.UUID) (*models.Debrief, error) {
	var d models.Debrief
	err := conn(ctx, r.pool).QueryRow(ctx, `
		SELECT event_id, attendance, baseline_takings, takings, highlights, issues, follow_ups,
		       submitted_by, created_at, updated_at
		FROM debriefs WHERE event_id = $1
	`, eventID).Scan(&d.EventID, &d.Attendance, &d.BaselineTakings, &d.Takings, &d.Highlights, &d.Issues, &d.FollowUps,
		&d.SubmittedBy, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &d, nil
}

func (r *DebriefRepo) Upsert(ctx context.Context, d *models.Debrief) error {
	return conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO debriefs (event_id, attendance, baseline_takings, takings, highlights, issues, follow_ups, submitted_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (event_id) DO UPDATE SET
			attendance = EXCLUDED.attendance,
			baseline_takings = EXCLUDED.baseline_takings,
			takings = EXCLUDED.takings,
			highlights = EXCLUDED.highlights,
			issues = EXCLUDED.issues,
			follow_ups = EXCLUDED.follow_ups,
			submitted_by = EXCLUDED.submitted_by,
			updated_at = now()
		RETURNING created_at, updated_at
	`, d.EventID, d.Attendance, d.BaselineTakings, d.Takings, d.Highlights, d.Issues, d.FollowUps, d.SubmittedBy,
	).Scan(&d.CreatedAt, &d.UpdatedAt)
}
