package server

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/hgdelgado/timedeck/internal/models"
)

type TimeEntryRepo struct {
	db       *sql.DB
	users    *UserRepo
	projects *ProjectRepo
	tasks    *TaskRepo
}

func NewTimeEntryRepo(db *sql.DB) *TimeEntryRepo {
	return &TimeEntryRepo{
		db:       db,
		users:    NewUserRepo(db),
		projects: NewProjectRepo(db),
		tasks:    NewTaskRepo(db),
	}
}

// Create persists the entry, recomputing minutes from the time range so
// the stored value can never drift from its inputs.
func (r *TimeEntryRepo) Create(ctx context.Context, draft models.TimeEntryDraft) (*models.TimeEntry, error) {
	id := uuid.New().String()
	minutes := models.MinutesBetween(draft.StartTime, draft.EndTime)

	var taskID any
	if draft.ProjectTaskID != "" {
		taskID = draft.ProjectTaskID
	}

	if _, err := r.db.ExecContext(ctx, `
		INSERT INTO time_entries (id, description, start_time, end_time, minutes, user_id, project_id, project_task_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, id, draft.Description, draft.StartTime, draft.EndTime, minutes,
		draft.UserID, draft.ProjectID, taskID); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *TimeEntryRepo) GetByID(ctx context.Context, id string) (*models.TimeEntry, error) {
	var e models.TimeEntry
	var userID, projectID string
	var taskID sql.NullString

	err := r.db.QueryRowContext(ctx, `
		SELECT id, description, start_time, end_time, minutes, user_id, project_id, project_task_id
		FROM time_entries WHERE id = ?
	`, id).Scan(&e.ID, &e.Description, &e.StartTime, &e.EndTime, &e.Minutes,
		&userID, &projectID, &taskID)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if err := r.resolve(ctx, &e, userID, projectID, taskID); err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *TimeEntryRepo) GetPage(ctx context.Context, page, pageSize int) ([]models.TimeEntry, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM time_entries").Scan(&total); err != nil {
		return nil, 0, err
	}

	entries, err := r.list(ctx, `
		SELECT id, description, start_time, end_time, minutes, user_id, project_id, project_task_id
		FROM time_entries ORDER BY start_time DESC LIMIT ? OFFSET ?
	`, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

func (r *TimeEntryRepo) GetPageByUserID(ctx context.Context, userID string, page, pageSize int) ([]models.TimeEntry, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM time_entries WHERE user_id = ?", userID).Scan(&total); err != nil {
		return nil, 0, err
	}

	entries, err := r.list(ctx, `
		SELECT id, description, start_time, end_time, minutes, user_id, project_id, project_task_id
		FROM time_entries WHERE user_id = ?
		ORDER BY start_time DESC LIMIT ? OFFSET ?
	`, userID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

func (r *TimeEntryRepo) list(ctx context.Context, query string, args ...any) ([]models.TimeEntry, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	type rowRefs struct {
		userID, projectID string
		taskID            sql.NullString
	}
	var entries []models.TimeEntry
	var refs []rowRefs

	for rows.Next() {
		var e models.TimeEntry
		var ref rowRefs
		if err := rows.Scan(&e.ID, &e.Description, &e.StartTime, &e.EndTime, &e.Minutes,
			&ref.userID, &ref.projectID, &ref.taskID); err != nil {
			return nil, err
		}
		entries = append(entries, e)
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range entries {
		if err := r.resolve(ctx, &entries[i], refs[i].userID, refs[i].projectID, refs[i].taskID); err != nil {
			return nil, err
		}
	}
	return entries, nil
}

func (r *TimeEntryRepo) resolve(ctx context.Context, e *models.TimeEntry, userID, projectID string, taskID sql.NullString) error {
	var err error
	if e.User, err = r.users.GetByID(ctx, userID); err != nil {
		return err
	}
	if e.Project, err = r.projects.GetByID(ctx, projectID); err != nil {
		return err
	}
	if taskID.Valid {
		if e.ProjectTask, err = r.tasks.GetByID(ctx, taskID.String); err != nil {
			return err
		}
	}
	return nil
}

func (r *TimeEntryRepo) Update(ctx context.Context, update models.TimeEntryUpdate) (*models.TimeEntry, error) {
	minutes := models.MinutesBetween(update.StartTime, update.EndTime)

	var taskID any
	if update.ProjectTaskID != "" {
		taskID = update.ProjectTaskID
	}

	if _, err := r.db.ExecContext(ctx, `
		UPDATE time_entries
		SET description = ?, start_time = ?, end_time = ?, minutes = ?, project_id = ?, project_task_id = ?
		WHERE id = ?
	`, update.Description, update.StartTime, update.EndTime, minutes,
		update.ProjectID, taskID, update.ID); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, update.ID)
}

func (r *TimeEntryRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM time_entries WHERE id = ?", id)
	return err
}
