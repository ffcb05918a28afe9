package store

import (
	"context"

	"github.com/hgdelgado/timedeck/internal/api"
	"github.com/hgdelgado/timedeck/internal/models"
)

// Concrete store types for the five entities.
type (
	UserStore        = ListStore[models.User, models.UserDraft, models.UserUpdate]
	RoleStore        = ListStore[models.Role, models.RoleDraft, models.RoleUpdate]
	ProjectStore     = ListStore[models.Project, models.ProjectDraft, models.ProjectUpdate]
	ProjectTaskStore = ListStore[models.ProjectTask, models.ProjectTaskDraft, models.ProjectTaskUpdate]
	TimeEntryStore   = ListStore[models.TimeEntry, models.TimeEntryDraft, models.TimeEntryUpdate]
)

func NewUserStore(c *api.Client, pageSize int) *UserStore {
	return NewListStore(Adapter[models.User, models.UserDraft, models.UserUpdate]{
		ID:        func(u *models.User) string { return u.ID },
		FetchAll:  c.GetAllUsers,
		FetchPage: c.GetUsersPage,
		Create: func(ctx context.Context, draft models.UserDraft) (*models.User, error) {
			return c.Register(ctx, draft)
		},
		Update: c.UpdateUser,
		Merge: func(prev, next *models.User) models.User {
			merged := *next
			// The update response omits roles when only profile fields changed.
			if merged.Roles == nil {
				merged.Roles = prev.Roles
			}
			return merged
		},
		Delete: c.DeleteUser,
	}, pageSize)
}

func NewRoleStore(c *api.Client, pageSize int) *RoleStore {
	return NewListStore(Adapter[models.Role, models.RoleDraft, models.RoleUpdate]{
		ID:       func(r *models.Role) string { return r.ID },
		FetchAll: c.GetAllRoles,
		Create:   c.CreateRole,
		Update:   c.UpdateRole,
		Delete:   c.DeleteRole,
	}, pageSize)
}

func NewProjectStore(c *api.Client, pageSize int) *ProjectStore {
	return NewListStore(Adapter[models.Project, models.ProjectDraft, models.ProjectUpdate]{
		ID:          func(p *models.Project) string { return p.ID },
		FetchAll:    c.GetAllProjects,
		FetchByUser: c.GetProjectsByUserID,
		Create:      c.CreateProject,
		Update:      c.UpdateProject,
		Merge: func(prev, next *models.Project) models.Project {
			merged := *next
			// PUT responses don't carry the membership list or creator.
			merged.ProjectUsers = prev.ProjectUsers
			if merged.Creator == nil {
				merged.Creator = prev.Creator
			}
			if merged.Client == nil {
				merged.Client = prev.Client
			}
			return merged
		},
		Delete: c.DeleteProject,
	}, pageSize)
}

func NewProjectTaskStore(c *api.Client, pageSize int) *ProjectTaskStore {
	return NewListStore(Adapter[models.ProjectTask, models.ProjectTaskDraft, models.ProjectTaskUpdate]{
		ID:              func(t *models.ProjectTask) string { return t.ID },
		FetchPage:       c.GetProjectTasksPage,
		FetchPageByUser: c.GetProjectTasksPageByUserID,
		Create:          c.CreateProjectTask,
		Update:          c.UpdateProjectTask,
		Merge: func(prev, next *models.ProjectTask) models.ProjectTask {
			merged := *next
			merged.UsersTask = prev.UsersTask
			if merged.Project == nil {
				merged.Project = prev.Project
			}
			return merged
		},
		Delete: c.DeleteProjectTask,
	}, pageSize)
}

func NewTimeEntryStore(c *api.Client, pageSize int) *TimeEntryStore {
	return NewListStore(Adapter[models.TimeEntry, models.TimeEntryDraft, models.TimeEntryUpdate]{
		ID:              func(e *models.TimeEntry) string { return e.ID },
		FetchPage:       c.GetTimeEntriesPage,
		FetchPageByUser: c.GetTimeEntriesPageByUserID,
		Create:          c.CreateTimeEntry,
		Update:          c.UpdateTimeEntry,
		Merge: func(prev, next *models.TimeEntry) models.TimeEntry {
			merged := *next
			if merged.User == nil {
				merged.User = prev.User
			}
			if merged.Project == nil {
				merged.Project = prev.Project
			}
			if merged.ProjectTask == nil {
				merged.ProjectTask = prev.ProjectTask
			}
			return merged
		},
		Delete: c.DeleteTimeEntry,
	}, pageSize)
}

// ProjectMembers is the ProjectUser join adapter for a ProjectStore.
func ProjectMembers(c *api.Client) RelationAdapter[models.Project, models.ProjectUserDraft, models.ProjectUser] {
	return RelationAdapter[models.Project, models.ProjectUserDraft, models.ProjectUser]{
		Add:      c.AddUserToProject,
		Remove:   c.RemoveUserFromProject,
		ParentID: func(pu *models.ProjectUser) string { return pu.ProjectID },
		Attach: func(p *models.Project, pu models.ProjectUser) {
			p.ProjectUsers = append(p.ProjectUsers, pu)
		},
		Detach: func(p *models.Project, relationID string) {
			// fresh slice, so earlier Items() snapshots keep their view
			kept := make([]models.ProjectUser, 0, len(p.ProjectUsers))
			for _, pu := range p.ProjectUsers {
				if pu.ID != relationID {
					kept = append(kept, pu)
				}
			}
			p.ProjectUsers = kept
		},
	}
}

// TaskAssignees is the UserTask join adapter for a ProjectTaskStore.
func TaskAssignees(c *api.Client) RelationAdapter[models.ProjectTask, models.UserTaskDraft, models.UserTask] {
	return RelationAdapter[models.ProjectTask, models.UserTaskDraft, models.UserTask]{
		Add:      c.AddUserToProjectTask,
		Remove:   c.RemoveUserFromProjectTask,
		ParentID: func(ut *models.UserTask) string { return ut.ProjectTaskID },
		Attach: func(t *models.ProjectTask, ut models.UserTask) {
			t.UsersTask = append(t.UsersTask, ut)
		},
		Detach: func(t *models.ProjectTask, relationID string) {
			// fresh slice, so earlier Items() snapshots keep their view
			kept := make([]models.UserTask, 0, len(t.UsersTask))
			for _, ut := range t.UsersTask {
				if ut.ID != relationID {
					kept = append(kept, ut)
				}
			}
			t.UsersTask = kept
		},
	}
}
