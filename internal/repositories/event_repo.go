package repositories

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/eventdesk/backend/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const eventColumns = `
	e.id, e.title, e.event_type, e.start_at, e.end_at, e.venue_id, e.venue_space, e.status,
	e.created_by, e.assignee_id, e.promotions, e.notes, e.terms, e.public_fields,
	e.created_at, e.updated_at`

type EventRepo struct {
	pool *pgxpool.Pool
}

func NewEventRepo(pool *pgxpool.Pool) *EventRepo {
	return &EventRepo{pool: pool}
}

func scanEvent(row pgx.Row, e *models.Event, extra ...any) error {
	dest := []any{
		&e.ID, &e.Title, &e.EventType, &e.StartAt, &e.EndAt, &e.VenueID, &e.VenueSpace, &e.Status,
		&e.CreatedBy, &e.AssigneeID, &e.Promotions, &e.Notes, &e.Terms, &e.PublicFields,
		&e.CreatedAt, &e.UpdatedAt,
	}
	return row.Scan(append(dest, extra...)...)
}

func publicFields(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}

func (r *EventRepo) Create(ctx context.Context, e *models.Event) error {
	return conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO events (title, event_type, start_at, end_at, venue_id, venue_space, status,
		                    created_by, assignee_id, promotions, notes, terms, public_fields)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, created_at, updated_at
	`, e.Title, e.EventType, e.StartAt, e.EndAt, e.VenueID, e.VenueSpace, e.Status,
		e.CreatedBy, e.AssigneeID, e.Promotions, e.Notes, e.Terms, publicFields(e.PublicFields),
	).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
}

func (r *EventRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	var e models.Event
	err := scanEvent(conn(ctx, r.pool).QueryRow(ctx, `SELECT `+eventColumns+` FROM events e WHERE e.id = $1`, id), &e)
	if err != nil {
		return nil, notFound(err)
	}
	return &e, nil
}

func (r *EventRepo) GetWithVenue(ctx context.Context, id uuid.UUID) (*models.EventWithVenue, error) {
	var e models.EventWithVenue
	err := scanEvent(conn(ctx, r.pool).QueryRow(ctx, `
		SELECT `+eventColumns+`, v.name
		FROM events e
		JOIN venues v ON v.id = e.venue_id
		WHERE e.id = $1
	`, id), &e.Event, &e.VenueName)
	if err != nil {
		return nil, notFound(err)
	}
	return &e, nil
}

type EventFilter struct {
	Status     *string
	VenueID    *uuid.UUID
	AssigneeID *uuid.UUID
	CreatedBy  *uuid.UUID
	Limit      int
	Offset     int
}

func (r *EventRepo) List(ctx context.Context, f EventFilter) ([]models.EventWithVenue, error) {
	query := `SELECT ` + eventColumns + `, v.name FROM events e JOIN venues v ON v.id = e.venue_id`
	args := []any{}
	argIdx := 1
	where := []string{}

	if f.Status != nil {
		where = append(where, fmt.Sprintf("e.status = $%d", argIdx))
		args = append(args, *f.Status)
		argIdx++
	}
	if f.VenueID != nil {
		where = append(where, fmt.Sprintf("e.venue_id = $%d", argIdx))
		args = append(args, *f.VenueID)
		argIdx++
	}
	if f.AssigneeID != nil {
		where = append(where, fmt.Sprintf("e.assignee_id = $%d", argIdx))
		args = append(args, *f.AssigneeID)
		argIdx++
	}
	if f.CreatedBy != nil {
		where = append(where, fmt.Sprintf("e.created_by = $%d", argIdx))
		args = append(args, *f.CreatedBy)
		argIdx++
	}

	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}

	limit := f.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	query += fmt.Sprintf(" ORDER BY e.start_at ASC, e.id LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, limit, f.Offset)

	return r.queryWithVenue(ctx, query, args...)
}

// ListByStatus returns every event in status, soonest first. Used by the review queue
// and the reminder sweep, which need the full set rather than a page.
func (r *EventRepo) ListByStatus(ctx context.Context, status string) ([]models.EventWithVenue, error) {
	return r.queryWithVenue(ctx, `
		SELECT `+eventColumns+`, v.name
		FROM events e
		JOIN venues v ON v.id = e.venue_id
		WHERE e.status = $1
		ORDER BY e.start_at ASC, e.id
	`, status)
}

// ListUpcoming returns events starting at or after since whose status is not excluded.
func (r *EventRepo) ListUpcoming(ctx context.Context, since time.Time, excluded []string) ([]models.Event, error) {
	if excluded == nil {
		excluded = []string{}
	}
	rows, err := conn(ctx, r.pool).Query(ctx, `
		SELECT `+eventColumns+`
		FROM events e
		WHERE e.start_at >= $1 AND NOT (e.status = ANY($2))
		ORDER BY e.start_at ASC, e.id
	`, since, excluded)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Event
	for rows.Next() {
		var e models.Event
		if err := scanEvent(rows, &e); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *EventRepo) queryWithVenue(ctx context.Context, query string, args ...any) ([]models.EventWithVenue, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.EventWithVenue
	for rows.Next() {
		var e models.EventWithVenue
		if err := scanEvent(rows, &e.Event, &e.VenueName); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Update persists the editable fields. Status and assignee are changed through their own methods.
func (r *EventRepo) Update(ctx context.Context, e *models.Event) error {
	err := conn(ctx, r.pool).QueryRow(ctx, `
		UPDATE events SET title = $1, event_type = $2, start_at = $3, end_at = $4, venue_id = $5,
		       venue_space = $6, promotions = $7, notes = $8, terms = $9, public_fields = $10,
		       updated_at = now()
		WHERE id = $11
		RETURNING updated_at
	`, e.Title, e.EventType, e.StartAt, e.EndAt, e.VenueID, e.VenueSpace, e.Promotions, e.Notes, e.Terms,
		publicFields(e.PublicFields), e.ID,
	).Scan(&e.UpdatedAt)
	return notFound(err)
}

// TransitionStatus moves the event from one status to another. ErrStatusConflict means the
// row was no longer in from, e.g. a concurrent decision got there first.
func (r *EventRepo) TransitionStatus(ctx context.Context, id uuid.UUID, from, to string) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE events SET status = $1, updated_at = now() WHERE id = $2 AND status = $3
	`, to, id, from)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrStatusConflict
	}
	return nil
}

// AssignReviewer calls the assign_event_reviewer database function.
func (r *EventRepo) AssignReviewer(ctx context.Context, eventID, reviewerID uuid.UUID) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `SELECT assign_event_reviewer($1, $2)`, eventID, reviewerID)
	return err
}

func (r *EventRepo) UpdateAssignee(ctx context.Context, id uuid.UUID, assigneeID *uuid.UUID) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE events SET assignee_id = $1, updated_at = now() WHERE id = $2
	`, assigneeID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
