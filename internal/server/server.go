// Package server is the embedded development backend: the same REST
// contract the production API serves, over a local sqlite database. It
// exists so the dashboard runs end-to-end without external services and so
// the client layers have a real integration target in tests.
package server

import (
	"context"
	"database/sql"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"

	"github.com/hgdelgado/timedeck/internal/models"
)

type Server struct {
	db      *sql.DB
	auth    *Auth
	users   *UserRepo
	roles   *RoleRepo
	project *ProjectRepo
	tasks   *TaskRepo
	entries *TimeEntryRepo
}

func New(db *sql.DB, jwtSecret string) *Server {
	return &Server{
		db:      db,
		auth:    NewAuth(jwtSecret),
		users:   NewUserRepo(db),
		roles:   NewRoleRepo(db),
		project: NewProjectRepo(db),
		tasks:   NewTaskRepo(db),
		entries: NewTimeEntryRepo(db),
	}
}

// Seed creates the builtin roles and a default admin account on an empty
// database so a fresh `timedeck serve` is immediately usable.
func (s *Server) Seed(ctx context.Context) error {
	for _, role := range []models.RoleDraft{
		{Name: models.RoleAdmin, RoleGroup: 1},
		{Name: models.RoleUser, RoleGroup: 2},
	} {
		var exists int
		if err := s.db.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM roles WHERE name = ?", role.Name).Scan(&exists); err != nil {
			return err
		}
		if exists == 0 {
			if _, err := s.roles.Create(ctx, role); err != nil {
				return err
			}
		}
	}

	var userCount int
	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM users").Scan(&userCount); err != nil {
		return err
	}
	if userCount == 0 {
		hash, err := HashPassword("admin123")
		if err != nil {
			return err
		}
		if _, err := s.users.Create(ctx, "admin", "admin@timedeck.local", hash,
			[]string{models.RoleAdmin}); err != nil {
			return err
		}
	}
	return nil
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Post("/users/login", s.handleLogin)
	r.Post("/users/create", s.handleRegister)

	r.Group(func(r chi.Router) {
		r.Use(s.auth.Middleware)

		r.Get("/users/get-all", s.handleListUsers)
		r.Get("/users/{id}", s.handleGetUser)
		r.Group(func(r chi.Router) {
			r.Use(RequireRole(models.RoleAdmin))
			r.Put("/users/update", s.handleUpdateUser)
			r.Delete("/users/delete/{id}", s.handleDeleteUser)
		})

		r.Get("/roles/get-all", s.handleListRoles)
		r.Group(func(r chi.Router) {
			r.Use(RequireRole(models.RoleAdmin))
			r.Post("/roles/create", s.handleCreateRole)
			r.Put("/roles/update", s.handleUpdateRole)
			r.Delete("/roles/delete/{id}", s.handleDeleteRole)
		})

		r.Get("/projects/get-all", s.handleListProjects)
		r.Get("/projects/get-all-by-user-id/{userId}", s.handleListProjectsByUser)
		r.Get("/projects/{id}", s.handleGetProject)
		r.Post("/projects/create", s.handleCreateProject)
		r.Put("/projects/update", s.handleUpdateProject)
		r.Delete("/projects/delete/{id}", s.handleDeleteProject)
		r.Post("/projects/add-user-to-project", s.handleAddProjectUser)
		r.Delete("/projects/remove-user-from-project/{id}", s.handleRemoveProjectUser)

		r.Get("/project-tasks/get-all", s.handleListTasks)
		r.Get("/project-tasks/get-all-by-user-id/{userId}", s.handleListTasksByUser)
		r.Post("/project-tasks/create", s.handleCreateTask)
		r.Put("/project-tasks/update", s.handleUpdateTask)
		r.Delete("/project-tasks/delete/{id}", s.handleDeleteTask)
		r.Post("/project-tasks/add-user-to-project-task", s.handleAddUserTask)
		r.Delete("/project-tasks/remove-user-from-project-task/{id}", s.handleRemoveUserTask)

		r.Get("/time-entries/get-all", s.handleListTimeEntries)
		r.Get("/time-entries/get-all-by-user-id/{userId}", s.handleListTimeEntriesByUser)
		r.Post("/time-entries/create", s.handleCreateTimeEntry)
		r.Put("/time-entries/update", s.handleUpdateTimeEntry)
		r.Delete("/time-entries/delete/{id}", s.handleDeleteTimeEntry)
	})

	return r
}
