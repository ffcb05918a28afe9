package api

import (
	"context"

	"github.com/hgdelgado/timedeck/internal/models"
)

// Auth

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, req LoginRequest) (string, error) {
	var token string
	if err := c.post(ctx, "/users/login", req, &token); err != nil {
		return "", err
	}
	return token, nil
}

// Register creates a new account.
func (c *Client) Register(ctx context.Context, draft models.UserDraft) (*models.User, error) {
	var user models.User
	if err := c.post(ctx, "/users/create", draft, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Users

func (c *Client) GetAllUsers(ctx context.Context) ([]models.User, int, error) {
	return getList[models.User](ctx, c, "/users/get-all")
}

func (c *Client) GetUsersPage(ctx context.Context, page, pageSize int) ([]models.User, int, error) {
	return getList[models.User](ctx, c, "/users/get-all"+pageQuery(page, pageSize))
}

func (c *Client) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := c.get(ctx, "/users/"+id, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) UpdateUser(ctx context.Context, update models.UserUpdate) (*models.User, error) {
	var user models.User
	if err := c.put(ctx, "/users/update", update, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) DeleteUser(ctx context.Context, id string) error {
	return c.delete(ctx, "/users/delete/"+id, nil)
}

// Roles

func (c *Client) GetAllRoles(ctx context.Context) ([]models.Role, int, error) {
	return getList[models.Role](ctx, c, "/roles/get-all")
}

func (c *Client) CreateRole(ctx context.Context, draft models.RoleDraft) (*models.Role, error) {
	var role models.Role
	if err := c.post(ctx, "/roles/create", draft, &role); err != nil {
		return nil, err
	}
	return &role, nil
}

func (c *Client) UpdateRole(ctx context.Context, update models.RoleUpdate) (*models.Role, error) {
	var role models.Role
	if err := c.put(ctx, "/roles/update", update, &role); err != nil {
		return nil, err
	}
	return &role, nil
}

func (c *Client) DeleteRole(ctx context.Context, id string) error {
	return c.delete(ctx, "/roles/delete/"+id, nil)
}

// Projects

func (c *Client) GetAllProjects(ctx context.Context) ([]models.Project, int, error) {
	return getList[models.Project](ctx, c, "/projects/get-all")
}

func (c *Client) GetProjectsByUserID(ctx context.Context, userID string) ([]models.Project, int, error) {
	return getList[models.Project](ctx, c, "/projects/get-all-by-user-id/"+userID)
}

func (c *Client) GetProjectByID(ctx context.Context, id string) (*models.Project, error) {
	var project models.Project
	if err := c.get(ctx, "/projects/"+id, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

func (c *Client) CreateProject(ctx context.Context, draft models.ProjectDraft) (*models.Project, error) {
	var project models.Project
	if err := c.post(ctx, "/projects/create", draft, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

func (c *Client) UpdateProject(ctx context.Context, update models.ProjectUpdate) (*models.Project, error) {
	var project models.Project
	if err := c.put(ctx, "/projects/update", update, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

func (c *Client) DeleteProject(ctx context.Context, id string) error {
	return c.delete(ctx, "/projects/delete/"+id, nil)
}

func (c *Client) AddUserToProject(ctx context.Context, draft models.ProjectUserDraft) (*models.ProjectUser, error) {
	var pu models.ProjectUser
	if err := c.post(ctx, "/projects/add-user-to-project", draft, &pu); err != nil {
		return nil, err
	}
	return &pu, nil
}

// RemoveUserFromProject deletes the join record and echoes it back so the
// caller can locate the parent project to patch.
func (c *Client) RemoveUserFromProject(ctx context.Context, projectUserID string) (*models.ProjectUser, error) {
	var pu models.ProjectUser
	if err := c.delete(ctx, "/projects/remove-user-from-project/"+projectUserID, &pu); err != nil {
		return nil, err
	}
	return &pu, nil
}

// Project tasks

func (c *Client) GetProjectTasksPage(ctx context.Context, page, pageSize int) ([]models.ProjectTask, int, error) {
	return getList[models.ProjectTask](ctx, c, "/project-tasks/get-all"+pageQuery(page, pageSize))
}

func (c *Client) GetProjectTasksPageByUserID(ctx context.Context, userID string, page, pageSize int) ([]models.ProjectTask, int, error) {
	return getList[models.ProjectTask](ctx, c, "/project-tasks/get-all-by-user-id/"+userID+pageQuery(page, pageSize))
}

func (c *Client) CreateProjectTask(ctx context.Context, draft models.ProjectTaskDraft) (*models.ProjectTask, error) {
	var task models.ProjectTask
	if err := c.post(ctx, "/project-tasks/create", draft, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (c *Client) UpdateProjectTask(ctx context.Context, update models.ProjectTaskUpdate) (*models.ProjectTask, error) {
	var task models.ProjectTask
	if err := c.put(ctx, "/project-tasks/update", update, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (c *Client) DeleteProjectTask(ctx context.Context, id string) error {
	return c.delete(ctx, "/project-tasks/delete/"+id, nil)
}

func (c *Client) AddUserToProjectTask(ctx context.Context, draft models.UserTaskDraft) (*models.UserTask, error) {
	var ut models.UserTask
	if err := c.post(ctx, "/project-tasks/add-user-to-project-task", draft, &ut); err != nil {
		return nil, err
	}
	return &ut, nil
}

func (c *Client) RemoveUserFromProjectTask(ctx context.Context, userTaskID string) (*models.UserTask, error) {
	var ut models.UserTask
	if err := c.delete(ctx, "/project-tasks/remove-user-from-project-task/"+userTaskID, &ut); err != nil {
		return nil, err
	}
	return &ut, nil
}

// Time entries

func (c *Client) GetTimeEntriesPage(ctx context.Context, page, pageSize int) ([]models.TimeEntry, int, error) {
	return getList[models.TimeEntry](ctx, c, "/time-entries/get-all"+pageQuery(page, pageSize))
}

func (c *Client) GetTimeEntriesPageByUserID(ctx context.Context, userID string, page, pageSize int) ([]models.TimeEntry, int, error) {
	return getList[models.TimeEntry](ctx, c, "/time-entries/get-all-by-user-id/"+userID+pageQuery(page, pageSize))
}

func (c *Client) CreateTimeEntry(ctx context.Context, draft models.TimeEntryDraft) (*models.TimeEntry, error) {
	var entry models.TimeEntry
	if err := c.post(ctx, "/time-entries/create", draft, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

func (c *Client) UpdateTimeEntry(ctx context.Context, update models.TimeEntryUpdate) (*models.TimeEntry, error) {
	var entry models.TimeEntry
	if err := c.put(ctx, "/time-entries/update", update, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

func (c *Client) DeleteTimeEntry(ctx context.Context, id string) error {
	return c.delete(ctx, "/time-entries/delete/"+id, nil)
}
