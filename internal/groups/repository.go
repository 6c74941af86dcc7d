package groups

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gatherly/backend/internal/models"
)

// Repository handles group and group_member persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a groups repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create creates a group.
func (r *Repository) Create(ctx context.Context, g *models.Group) error {
	const q = `INSERT INTO groups (id, name, description, join_code, created_by)
		VALUES (gen_random_uuid(), $1, $2, $3, $4)
		RETURNING id, created_at`
	return r.pool.QueryRow(ctx, q, g.Name, g.Description, g.JoinCode, g.CreatedBy).
		Scan(&g.ID, &g.CreatedAt)
}

// GetByID returns a group by ID, or nil when not found.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Group, error) {
	const q = `SELECT id, name, description, join_code, created_by, created_at FROM groups WHERE id = $1`
	var g models.Group
	err := r.pool.QueryRow(ctx, q, id).Scan(&g.ID, &g.Name, &g.Description, &g.JoinCode, &g.CreatedBy, &g.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// GetByJoinCode returns a group by its join code, or nil when not found.
func (r *Repository) GetByJoinCode(ctx context.Context, code string) (*models.Group, error) {
	const q = `SELECT id, name, description, join_code, created_by, created_at FROM groups WHERE join_code = $1`
	var g models.Group
	err := r.pool.QueryRow(ctx, q, code).Scan(&g.ID, &g.Name, &g.Description, &g.JoinCode, &g.CreatedBy, &g.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// AddMember adds a user to a group with a role. Re-adding updates the role.
func (r *Repository) AddMember(ctx context.Context, groupID, userID uuid.UUID, role string) error {
	const q = `INSERT INTO group_members (group_id, user_id, role) VALUES ($1, $2, $3)
		ON CONFLICT (group_id, user_id) DO UPDATE SET role = EXCLUDED.role`
	_, err := r.pool.Exec(ctx, q, groupID, userID, role)
	return err
}

// ListForUser returns groups the user is a member of.
func (r *Repository) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Group, error) {
	const q = `SELECT g.id, g.name, g.description, g.join_code, g.created_by, g.created_at
		FROM groups g INNER JOIN group_members m ON m.group_id = g.id
		WHERE m.user_id = $1 ORDER BY g.name`
	rows, err := r.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Group
	for rows.Next() {
		var g models.Group
		if err := rows.Scan(&g.ID, &g.Name, &g.Description, &g.JoinCode, &g.CreatedBy, &g.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, g)
	}
	return list, rows.Err()
}

// ListMembers returns members of a group.
func (r *Repository) ListMembers(ctx context.Context, groupID uuid.UUID) ([]models.GroupMember, error) {
	rows, err := r.pool.Query(ctx, `SELECT group_id, user_id, role, joined_at
		FROM group_members WHERE group_id = $1 ORDER BY joined_at`, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.GroupMember
	for rows.Next() {
		var m models.GroupMember
		if err := rows.Scan(&m.GroupID, &m.UserID, &m.Role, &m.JoinedAt); err != nil {
			return nil, err
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

// IsMember reports whether the user belongs to the group.
func (r *Repository) IsMember(ctx context.Context, groupID, userID uuid.UUID) (bool, error) {
	var one int
	err := r.pool.QueryRow(ctx, `SELECT 1 FROM group_members WHERE group_id = $1 AND user_id = $2`,
		groupID, userID).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
