package server

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/hgdelgado/timedeck/internal/models"
)

type TaskRepo struct {
	db       *sql.DB
	projects *ProjectRepo
}

func NewTaskRepo(db *sql.DB) *TaskRepo {
	return &TaskRepo{db: db, projects: NewProjectRepo(db)}
}

func (r *TaskRepo) Create(ctx context.Context, draft models.ProjectTaskDraft) (*models.ProjectTask, error) {
	id := uuid.New().String()
	if _, err := r.db.ExecContext(ctx, `
		INSERT INTO project_tasks (id, name, description, estimated_time, status, project_id)
		VALUES (?, ?, ?, ?, ?, ?)
	`, id, draft.Name, draft.Description, draft.EstimatedTime, draft.Status, draft.ProjectID); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *TaskRepo) GetByID(ctx context.Context, id string) (*models.ProjectTask, error) {
	var t models.ProjectTask
	var projectID string

	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, description, estimated_time, status, project_id
		FROM project_tasks WHERE id = ?
	`, id).Scan(&t.ID, &t.Name, &t.Description, &t.EstimatedTime, &t.Status, &projectID)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if err := r.resolve(ctx, &t, projectID); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TaskRepo) GetPage(ctx context.Context, page, pageSize int) ([]models.ProjectTask, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM project_tasks").Scan(&total); err != nil {
		return nil, 0, err
	}

	tasks, err := r.list(ctx, `
		SELECT id, name, description, estimated_time, status, project_id
		FROM project_tasks ORDER BY name LIMIT ? OFFSET ?
	`, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, err
	}
	return tasks, total, nil
}

// GetPageByUserID pages over tasks the user is assigned to.
func (r *TaskRepo) GetPageByUserID(ctx context.Context, userID string, page, pageSize int) ([]models.ProjectTask, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(DISTINCT t.id)
		FROM project_tasks t
		JOIN user_tasks ut ON ut.project_task_id = t.id
		WHERE ut.user_id = ?
	`, userID).Scan(&total); err != nil {
		return nil, 0, err
	}

	tasks, err := r.list(ctx, `
		SELECT DISTINCT t.id, t.name, t.description, t.estimated_time, t.status, t.project_id
		FROM project_tasks t
		JOIN user_tasks ut ON ut.project_task_id = t.id
		WHERE ut.user_id = ?
		ORDER BY t.name LIMIT ? OFFSET ?
	`, userID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, err
	}
	return tasks, total, nil
}

func (r *TaskRepo) list(ctx context.Context, query string, args ...any) ([]models.ProjectTask, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []models.ProjectTask
	var projectIDs []string
	for rows.Next() {
		var t models.ProjectTask
		var projectID string
		if err := rows.Scan(&t.ID, &t.Name, &t.Description, &t.EstimatedTime, &t.Status, &projectID); err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
		projectIDs = append(projectIDs, projectID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range tasks {
		if err := r.resolve(ctx, &tasks[i], projectIDs[i]); err != nil {
			return nil, err
		}
	}
	return tasks, nil
}

func (r *TaskRepo) resolve(ctx context.Context, t *models.ProjectTask, projectID string) error {
	project, err := r.projects.GetByID(ctx, projectID)
	if err != nil {
		return err
	}
	t.Project = project

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, project_task_id, user_id FROM user_tasks WHERE project_task_id = ?
	`, t.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	t.UsersTask = []models.UserTask{}
	for rows.Next() {
		var ut models.UserTask
		if err := rows.Scan(&ut.ID, &ut.ProjectTaskID, &ut.UserID); err != nil {
			return err
		}
		t.UsersTask = append(t.UsersTask, ut)
	}
	return rows.Err()
}

func (r *TaskRepo) Update(ctx context.Context, update models.ProjectTaskUpdate) (*models.ProjectTask, error) {
	if _, err := r.db.ExecContext(ctx, `
		UPDATE project_tasks SET name = ?, description = ?, estimated_time = ?, status = ?
		WHERE id = ?
	`, update.Name, update.Description, update.EstimatedTime, update.Status, update.ID); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, update.ID)
}

func (r *TaskRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM project_tasks WHERE id = ?", id)
	return err
}

func (r *TaskRepo) AddUser(ctx context.Context, draft models.UserTaskDraft) (*models.UserTask, error) {
	ut := models.UserTask{
		ID:            uuid.New().String(),
		ProjectTaskID: draft.ProjectTaskID,
		UserID:        draft.UserID,
	}
	if _, err := r.db.ExecContext(ctx, `
		INSERT INTO user_tasks (id, project_task_id, user_id) VALUES (?, ?, ?)
	`, ut.ID, ut.ProjectTaskID, ut.UserID); err != nil {
		return nil, err
	}
	return &ut, nil
}

func (r *TaskRepo) RemoveUser(ctx context.Context, userTaskID string) (*models.UserTask, error) {
	var ut models.UserTask
	err := r.db.QueryRowContext(ctx, `
		SELECT id, project_task_id, user_id FROM user_tasks WHERE id = ?
	`, userTaskID).Scan(&ut.ID, &ut.ProjectTaskID, &ut.UserID)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if _, err := r.db.ExecContext(ctx,
		"DELETE FROM user_tasks WHERE id = ?", userTaskID); err != nil {
		return nil, err
	}
	return &ut, nil
}
