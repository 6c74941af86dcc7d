package events

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gatherly/backend/internal/models"
)

const eventColumns = `id, title, description, category, location, starts_at, ends_at, capacity,
	COALESCE(cover_image_key,''), created_by, group_id, created_at, updated_at`

// Repository handles event persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an events repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanEvent(row pgx.Row, e *models.Event) error {
	return row.Scan(&e.ID, &e.Title, &e.Description, &e.Category, &e.Location, &e.StartsAt, &e.EndsAt,
		&e.Capacity, &e.CoverImageKey, &e.CreatedBy, &e.GroupID, &e.CreatedAt, &e.UpdatedAt)
}

// Create inserts a new event.
func (r *Repository) Create(ctx context.Context, e *models.Event) error {
	const q = `INSERT INTO events (id, title, description, category, location, starts_at, ends_at, capacity, created_by, group_id)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, e.Title, e.Description, e.Category, e.Location, e.StartsAt, e.EndsAt,
		e.Capacity, e.CreatedBy, e.GroupID).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
}

// GetByID returns an event by ID, or nil when not found.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	var e models.Event
	err := scanEvent(r.pool.QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id), &e)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// List returns events, optionally filtered by category, soonest first.
func (r *Repository) List(ctx context.Context, category *models.EventCategory) ([]models.Event, error) {
	q := `SELECT ` + eventColumns + ` FROM events`
	var args []interface{}
	if category != nil {
		q += ` WHERE category = $1`
		args = append(args, *category)
	}
	rows, err := r.pool.Query(ctx, q+` ORDER BY starts_at ASC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.Event
	for rows.Next() {
		var e models.Event
		if err := scanEvent(rows, &e); err != nil {
			return nil, err
		}
		list = append(list, e)
	}
	return list, rows.Err()
}

// ListByOrganizerWithin returns events created by an organizer whose start
// time falls inside [from, to]. Used as the candidate pool for duplicate
// detection, so the comparison set stays small.
func (r *Repository) ListByOrganizerWithin(ctx context.Context, organizerID uuid.UUID, from, to time.Time) ([]models.Event, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+eventColumns+` FROM events
		WHERE created_by = $1 AND starts_at BETWEEN $2 AND $3 ORDER BY starts_at ASC`, organizerID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.Event
	for rows.Next() {
		var e models.Event
		if err := scanEvent(rows, &e); err != nil {
			return nil, err
		}
		list = append(list, e)
	}
	return list, rows.Err()
}

// Update updates event fields.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, title, description, location string, startsAt, endsAt *time.Time) error {
	const q = `UPDATE events SET title = COALESCE(NULLIF($1,''), title), description = COALESCE(NULLIF($2,''), description),
		location = COALESCE(NULLIF($3,''), location), starts_at = COALESCE($4, starts_at), ends_at = COALESCE($5, ends_at),
		updated_at = NOW() WHERE id = $6`
	_, err := r.pool.Exec(ctx, q, title, description, location, startsAt, endsAt, id)
	return err
}

// SetCoverImage records the S3 object key of the event cover image.
func (r *Repository) SetCoverImage(ctx context.Context, id uuid.UUID, key string) error {
	_, err := r.pool.Exec(ctx, `UPDATE events SET cover_image_key = $1, updated_at = NOW() WHERE id = $2`, key, id)
	return err
}

// Delete removes an event by ID.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	return err
}
