package server

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/hgdelgado/timedeck/internal/models"
)

type ProjectRepo struct {
	db    *sql.DB
	users *UserRepo
}

func NewProjectRepo(db *sql.DB) *ProjectRepo {
	return &ProjectRepo{db: db, users: NewUserRepo(db)}
}

func (r *ProjectRepo) Create(ctx context.Context, draft models.ProjectDraft) (*models.Project, error) {
	id := uuid.New().String()
	if _, err := r.db.ExecContext(ctx, `
		INSERT INTO projects (id, name, description, color_hex, creator_id, client_id)
		VALUES (?, ?, ?, ?, ?, ?)
	`, id, draft.Name, draft.Description, draft.ColorHex, draft.CreatorID, draft.ClientID); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *ProjectRepo) GetByID(ctx context.Context, id string) (*models.Project, error) {
	var p models.Project
	var creatorID, clientID sql.NullString

	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, description, color_hex, creator_id, client_id, created_at
		FROM projects WHERE id = ?
	`, id).Scan(&p.ID, &p.Name, &p.Description, &p.ColorHex, &creatorID, &clientID, &p.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if err := r.resolve(ctx, &p, creatorID, clientID); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProjectRepo) GetAll(ctx context.Context) ([]models.Project, error) {
	return r.list(ctx, `
		SELECT id, name, description, color_hex, creator_id, client_id, created_at
		FROM projects ORDER BY name
	`)
}

// GetByUserID returns projects the user belongs to: as a member, the
// creator, or the client.
func (r *ProjectRepo) GetByUserID(ctx context.Context, userID string) ([]models.Project, error) {
	return r.list(ctx, `
		SELECT DISTINCT p.id, p.name, p.description, p.color_hex, p.creator_id, p.client_id, p.created_at
		FROM projects p
		LEFT JOIN project_users pu ON pu.project_id = p.id
		WHERE pu.user_id = ? OR p.creator_id = ? OR p.client_id = ?
		ORDER BY p.name
	`, userID, userID, userID)
}

func (r *ProjectRepo) list(ctx context.Context, query string, args ...any) ([]models.Project, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	type rowRefs struct {
		creatorID, clientID sql.NullString
	}
	var projects []models.Project
	var refs []rowRefs

	for rows.Next() {
		var p models.Project
		var ref rowRefs
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.ColorHex,
			&ref.creatorID, &ref.clientID, &p.CreatedAt); err != nil {
			return nil, err
		}
		projects = append(projects, p)
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range projects {
		if err := r.resolve(ctx, &projects[i], refs[i].creatorID, refs[i].clientID); err != nil {
			return nil, err
		}
	}
	return projects, nil
}

// resolve fills the nested creator/client users and the membership list.
func (r *ProjectRepo) resolve(ctx context.Context, p *models.Project, creatorID, clientID sql.NullString) error {
	var err error
	if creatorID.Valid {
		if p.Creator, err = r.users.GetByID(ctx, creatorID.String); err != nil {
			return err
		}
	}
	if clientID.Valid {
		if p.Client, err = r.users.GetByID(ctx, clientID.String); err != nil {
			return err
		}
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, project_id, user_id, role_id
		FROM project_users WHERE project_id = ?
	`, p.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	p.ProjectUsers = []models.ProjectUser{}
	for rows.Next() {
		var pu models.ProjectUser
		if err := rows.Scan(&pu.ID, &pu.ProjectID, &pu.UserID, &pu.RoleID); err != nil {
			return err
		}
		p.ProjectUsers = append(p.ProjectUsers, pu)
	}
	return rows.Err()
}

func (r *ProjectRepo) Update(ctx context.Context, update models.ProjectUpdate) (*models.Project, error) {
	if _, err := r.db.ExecContext(ctx, `
		UPDATE projects SET name = ?, description = ?, color_hex = ?, client_id = ?
		WHERE id = ?
	`, update.Name, update.Description, update.ColorHex, update.ClientID, update.ID); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, update.ID)
}

func (r *ProjectRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM projects WHERE id = ?", id)
	return err
}

func (r *ProjectRepo) AddUser(ctx context.Context, draft models.ProjectUserDraft) (*models.ProjectUser, error) {
	pu := models.ProjectUser{
		ID:        uuid.New().String(),
		ProjectID: draft.ProjectID,
		UserID:    draft.UserID,
		RoleID:    draft.RoleID,
	}
	if _, err := r.db.ExecContext(ctx, `
		INSERT INTO project_users (id, project_id, user_id, role_id)
		VALUES (?, ?, ?, ?)
	`, pu.ID, pu.ProjectID, pu.UserID, pu.RoleID); err != nil {
		return nil, err
	}
	return &pu, nil
}

// RemoveUser deletes the join record and echoes it back.
func (r *ProjectRepo) RemoveUser(ctx context.Context, projectUserID string) (*models.ProjectUser, error) {
	var pu models.ProjectUser
	err := r.db.QueryRowContext(ctx, `
		SELECT id, project_id, user_id, role_id FROM project_users WHERE id = ?
	`, projectUserID).Scan(&pu.ID, &pu.ProjectID, &pu.UserID, &pu.RoleID)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if _, err := r.db.ExecContext(ctx,
		"DELETE FROM project_users WHERE id = ?", projectUserID); err != nil {
		return nil, err
	}
	return &pu, nil
}
