package registrations

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gatherly/backend/internal/models"
)

// ErrAlreadyCheckedIn is returned when a check-in transition is attempted on
// a registration that is already checked in.
var ErrAlreadyCheckedIn = errors.New("registration already checked in")

// Repository handles registration persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a registrations repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a registration (unique per event+email). Re-registering with
// the same email updates the name instead of failing.
func (r *Repository) Create(ctx context.Context, reg *models.Registration) error {
	const q = `INSERT INTO registrations (id, event_id, user_id, email, full_name)
		VALUES (gen_random_uuid(), $1, $2, $3, $4)
		ON CONFLICT (event_id, email) DO UPDATE SET full_name = EXCLUDED.full_name, updated_at = NOW()
		RETURNING id, check_in_status, checked_in_at, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, reg.EventID, reg.UserID, reg.Email, reg.FullName).
		Scan(&reg.ID, &reg.CheckInStatus, &reg.CheckedInAt, &reg.CreatedAt, &reg.UpdatedAt)
}

// GetByID returns a registration by ID, or nil when not found.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Registration, error) {
	const q = `SELECT id, event_id, user_id, email, full_name, check_in_status, checked_in_at, created_at, updated_at
		FROM registrations WHERE id = $1`
	var reg models.Registration
	err := r.pool.QueryRow(ctx, q, id).Scan(&reg.ID, &reg.EventID, &reg.UserID, &reg.Email,
		&reg.FullName, &reg.CheckInStatus, &reg.CheckedInAt, &reg.CreatedAt, &reg.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &reg, nil
}

// ListByEvent returns all registrations for an event, newest first.
func (r *Repository) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]models.Registration, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, event_id, user_id, email, full_name, check_in_status, checked_in_at, created_at, updated_at
		FROM registrations WHERE event_id = $1 ORDER BY created_at DESC`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Registration
	for rows.Next() {
		var reg models.Registration
		if err := rows.Scan(&reg.ID, &reg.EventID, &reg.UserID, &reg.Email,
			&reg.FullName, &reg.CheckInStatus, &reg.CheckedInAt, &reg.CreatedAt, &reg.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, reg)
	}
	return list, rows.Err()
}

// CountByEvent returns total and checked-in registration counts for an event.
func (r *Repository) CountByEvent(ctx context.Context, eventID uuid.UUID) (total, checkedIn int, err error) {
	const q = `SELECT COUNT(*), COUNT(checked_in_at) FROM registrations WHERE event_id = $1`
	err = r.pool.QueryRow(ctx, q, eventID).Scan(&total, &checkedIn)
	return total, checkedIn, err
}

// CheckIn transitions a registration to checked_in. Returns
// ErrAlreadyCheckedIn when the registration is already checked in.
func (r *Repository) CheckIn(ctx context.Context, id uuid.UUID) error {
	const q = `UPDATE registrations SET check_in_status = 'checked_in', checked_in_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND check_in_status = 'pending'`
	tag, err := r.pool.Exec(ctx, q, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAlreadyCheckedIn
	}
	return nil
}
