package server

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/hgdelgado/timedeck/internal/models"
)

type RoleRepo struct {
	db *sql.DB
}

func NewRoleRepo(db *sql.DB) *RoleRepo {
	return &RoleRepo{db: db}
}

func (r *RoleRepo) Create(ctx context.Context, draft models.RoleDraft) (*models.Role, error) {
	id := uuid.New().String()
	if _, err := r.db.ExecContext(ctx,
		"INSERT INTO roles (id, name, role_group) VALUES (?, ?, ?)",
		id, draft.Name, draft.RoleGroup,
	); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *RoleRepo) GetByID(ctx context.Context, id string) (*models.Role, error) {
	var role models.Role
	err := r.db.QueryRowContext(ctx,
		"SELECT id, name, role_group FROM roles WHERE id = ?", id,
	).Scan(&role.ID, &role.Name, &role.RoleGroup)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *RoleRepo) GetAll(ctx context.Context) ([]models.Role, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, name, role_group FROM roles ORDER BY role_group, name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []models.Role
	for rows.Next() {
		var role models.Role
		if err := rows.Scan(&role.ID, &role.Name, &role.RoleGroup); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

func (r *RoleRepo) Update(ctx context.Context, update models.RoleUpdate) (*models.Role, error) {
	if _, err := r.db.ExecContext(ctx,
		"UPDATE roles SET name = ?, role_group = ? WHERE id = ?",
		update.Name, update.RoleGroup, update.ID,
	); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, update.ID)
}

func (r *RoleRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM roles WHERE id = ?", id)
	return err
}
