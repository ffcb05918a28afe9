package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hgdelgado/timedeck/internal/models"
)

// Auth

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, r, err)
		return
	}

	user, hash, err := s.users.GetByEmail(r.Context(), req.Email)
	if err != nil {
		internalError(w, r, err)
		return
	}
	if user == nil || !CheckPassword(hash, req.Password) {
		unauthorized(w, r)
		return
	}

	token, err := s.auth.IssueToken(user)
	if err != nil {
		internalError(w, r, err)
		return
	}
	respondJSON(w, r, token)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var draft models.UserDraft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		badRequest(w, r, err)
		return
	}

	hash, err := HashPassword(draft.Password)
	if err != nil {
		internalError(w, r, err)
		return
	}

	roles := draft.Roles
	if len(roles) == 0 {
		roles = []string{models.RoleUser}
	}

	user, err := s.users.Create(r.Context(), draft.UserName, draft.Email, hash, roles)
	if err != nil {
		internalError(w, r, err)
		return
	}
	respondCreated(w, r, user)
}

// Users

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	page := ParsePage(r)
	if page.Present {
		users, total, err := s.users.GetPage(r.Context(), page.Page, page.PageSize)
		if err != nil {
			internalError(w, r, err)
			return
		}
		respondJSON(w, r, ListResponse{Items: emptyIfNil(users), TotalCount: total})
		return
	}

	users, err := s.users.GetAll(r.Context())
	if err != nil {
		internalError(w, r, err)
		return
	}
	respondJSON(w, r, emptyIfNil(users))
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	user, err := s.users.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		internalError(w, r, err)
		return
	}
	if user == nil {
		notFound(w, r)
		return
	}
	respondJSON(w, r, user)
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	var update models.UserUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		badRequest(w, r, err)
		return
	}

	user, err := s.users.Update(r.Context(), update)
	if err != nil {
		internalError(w, r, err)
		return
	}
	if user == nil {
		notFound(w, r)
		return
	}
	respondJSON(w, r, user)
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := s.users.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		internalError(w, r, err)
		return
	}
	respondJSON(w, r, map[string]bool{"success": true})
}

// Roles

func (s *Server) handleListRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := s.roles.GetAll(r.Context())
	if err != nil {
		internalError(w, r, err)
		return
	}
	respondJSON(w, r, emptyIfNil(roles))
}

func (s *Server) handleCreateRole(w http.ResponseWriter, r *http.Request) {
	var draft models.RoleDraft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		badRequest(w, r, err)
		return
	}

	role, err := s.roles.Create(r.Context(), draft)
	if err != nil {
		internalError(w, r, err)
		return
	}
	respondCreated(w, r, role)
}

func (s *Server) handleUpdateRole(w http.ResponseWriter, r *http.Request) {
	var update models.RoleUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		badRequest(w, r, err)
		return
	}

	role, err := s.roles.Update(r.Context(), update)
	if err != nil {
		internalError(w, r, err)
		return
	}
	if role == nil {
		notFound(w, r)
		return
	}
	respondJSON(w, r, role)
}

func (s *Server) handleDeleteRole(w http.ResponseWriter, r *http.Request) {
	if err := s.roles.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		internalError(w, r, err)
		return
	}
	respondJSON(w, r, map[string]bool{"success": true})
}

// Projects

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.project.GetAll(r.Context())
	if err != nil {
		internalError(w, r, err)
		return
	}
	respondJSON(w, r, emptyIfNil(projects))
}

func (s *Server) handleListProjectsByUser(w http.ResponseWriter, r *http.Request) {
	projects, err := s.project.GetByUserID(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		internalError(w, r, err)
		return
	}
	respondJSON(w, r, emptyIfNil(projects))
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	project, err := s.project.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		internalError(w, r, err)
		return
	}
	if project == nil {
		notFound(w, r)
		return
	}
	respondJSON(w, r, project)
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var draft models.ProjectDraft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		badRequest(w, r, err)
		return
	}
	// The creator is the authenticated caller unless explicitly set.
	if draft.CreatorID == "" {
		draft.CreatorID = CallerID(r)
	}

	project, err := s.project.Create(r.Context(), draft)
	if err != nil {
		internalError(w, r, err)
		return
	}
	respondCreated(w, r, project)
}

func (s *Server) handleUpdateProject(w http.ResponseWriter, r *http.Request) {
	var update models.ProjectUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		badRequest(w, r, err)
		return
	}

	project, err := s.project.Update(r.Context(), update)
	if err != nil {
		internalError(w, r, err)
		return
	}
	if project == nil {
		notFound(w, r)
		return
	}
	respondJSON(w, r, project)
}

func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	if err := s.project.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		internalError(w, r, err)
		return
	}
	respondJSON(w, r, map[string]bool{"success": true})
}

func (s *Server) handleAddProjectUser(w http.ResponseWriter, r *http.Request) {
	var draft models.ProjectUserDraft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		badRequest(w, r, err)
		return
	}

	pu, err := s.project.AddUser(r.Context(), draft)
	if err != nil {
		internalError(w, r, err)
		return
	}
	respondCreated(w, r, pu)
}

func (s *Server) handleRemoveProjectUser(w http.ResponseWriter, r *http.Request) {
	pu, err := s.project.RemoveUser(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		internalError(w, r, err)
		return
	}
	if pu == nil {
		notFound(w, r)
		return
	}
	respondJSON(w, r, pu)
}

// Project tasks

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	page := ParsePage(r)
	tasks, total, err := s.tasks.GetPage(r.Context(), page.Page, page.PageSize)
	if err != nil {
		internalError(w, r, err)
		return
	}
	respondJSON(w, r, ListResponse{Items: emptyIfNil(tasks), TotalCount: total})
}

func (s *Server) handleListTasksByUser(w http.ResponseWriter, r *http.Request) {
	page := ParsePage(r)
	tasks, total, err := s.tasks.GetPageByUserID(r.Context(), chi.URLParam(r, "userId"), page.Page, page.PageSize)
	if err != nil {
		internalError(w, r, err)
		return
	}
	respondJSON(w, r, ListResponse{Items: emptyIfNil(tasks), TotalCount: total})
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var draft models.ProjectTaskDraft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		badRequest(w, r, err)
		return
	}

	task, err := s.tasks.Create(r.Context(), draft)
	if err != nil {
		internalError(w, r, err)
		return
	}
	respondCreated(w, r, task)
}

func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	var update models.ProjectTaskUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		badRequest(w, r, err)
		return
	}

	task, err := s.tasks.Update(r.Context(), update)
	if err != nil {
		internalError(w, r, err)
		return
	}
	if task == nil {
		notFound(w, r)
		return
	}
	respondJSON(w, r, task)
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	if err := s.tasks.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		internalError(w, r, err)
		return
	}
	respondJSON(w, r, map[string]bool{"success": true})
}

func (s *Server) handleAddUserTask(w http.ResponseWriter, r *http.Request) {
	var draft models.UserTaskDraft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		badRequest(w, r, err)
		return
	}

	ut, err := s.tasks.AddUser(r.Context(), draft)
	if err != nil {
		internalError(w, r, err)
		return
	}
	respondCreated(w, r, ut)
}

func (s *Server) handleRemoveUserTask(w http.ResponseWriter, r *http.Request) {
	ut, err := s.tasks.RemoveUser(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		internalError(w, r, err)
		return
	}
	if ut == nil {
		notFound(w, r)
		return
	}
	respondJSON(w, r, ut)
}

// Time entries

func (s *Server) handleListTimeEntries(w http.ResponseWriter, r *http.Request) {
	page := ParsePage(r)
	entries, total, err := s.entries.GetPage(r.Context(), page.Page, page.PageSize)
	if err != nil {
		internalError(w, r, err)
		return
	}
	respondJSON(w, r, ListResponse{Items: emptyIfNil(entries), TotalCount: total})
}

func (s *Server) handleListTimeEntriesByUser(w http.ResponseWriter, r *http.Request) {
	page := ParsePage(r)
	entries, total, err := s.entries.GetPageByUserID(r.Context(), chi.URLParam(r, "userId"), page.Page, page.PageSize)
	if err != nil {
		internalError(w, r, err)
		return
	}
	respondJSON(w, r, ListResponse{Items: emptyIfNil(entries), TotalCount: total})
}

func (s *Server) handleCreateTimeEntry(w http.ResponseWriter, r *http.Request) {
	var draft models.TimeEntryDraft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		badRequest(w, r, err)
		return
	}
	if draft.UserID == "" {
		draft.UserID = CallerID(r)
	}

	entry, err := s.entries.Create(r.Context(), draft)
	if err != nil {
		internalError(w, r, err)
		return
	}
	respondCreated(w, r, entry)
}

func (s *Server) handleUpdateTimeEntry(w http.ResponseWriter, r *http.Request) {
	var update models.TimeEntryUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		badRequest(w, r, err)
		return
	}

	entry, err := s.entries.Update(r.Context(), update)
	if err != nil {
		internalError(w, r, err)
		return
	}
	if entry == nil {
		notFound(w, r)
		return
	}
	respondJSON(w, r, entry)
}

func (s *Server) handleDeleteTimeEntry(w http.ResponseWriter, r *http.Request) {
	if err := s.entries.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		internalError(w, r, err)
		return
	}
	respondJSON(w, r, map[string]bool{"success": true})
}

// emptyIfNil keeps list responses as [] rather than null.
func emptyIfNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
