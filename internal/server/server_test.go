package server

import (
	"context"
	"errors"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hgdelgado/timedeck/internal/api"
	"github.com/hgdelgado/timedeck/internal/models"
	"github.com/hgdelgado/timedeck/internal/session"
)

// newTestBackend spins up the full stack: sqlite in a temp dir, seeded
// schema, the chi handler behind httptest, and a typed client.
func newTestBackend(t *testing.T) *api.Client {
	t.Helper()

	db, err := OpenDB(filepath.Join(t.TempDir(), "test.sqlite"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	srv := New(db, "test-secret")
	if err := srv.Seed(context.Background()); err != nil {
		t.Fatal(err)
	}

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	return api.NewClient(ts.URL, 5*time.Second, nil)
}

func loginAsAdmin(t *testing.T, c *api.Client) *session.Session {
	t.Helper()

	token, err := c.Login(context.Background(), api.LoginRequest{
		Email:    "admin@timedeck.local",
		Password: "admin123",
	})
	if err != nil {
		t.Fatal(err)
	}

	sess, err := session.Decode(token)
	if err != nil {
		t.Fatal(err)
	}
	c.SetSession(sess)
	return sess
}

func TestLogin(t *testing.T) {
	c := newTestBackend(t)
	sess := loginAsAdmin(t, c)

	if sess.Name != "admin" {
		t.Errorf("Name = %q, expected admin", sess.Name)
	}
	if !sess.HasRole(models.RoleAdmin) {
		t.Errorf("Roles = %v, expected Admin", sess.Roles)
	}
	if sess.Expired() {
		t.Error("fresh session already expired")
	}
}

func TestLoginWrongPassword(t *testing.T) {
	c := newTestBackend(t)

	_, err := c.Login(context.Background(), api.LoginRequest{
		Email:    "admin@timedeck.local",
		Password: "wrong",
	})
	if !errors.Is(err, api.ErrUnauthorized) {
		t.Errorf("err = %v, expected ErrUnauthorized", err)
	}
}

func TestRequestsWithoutTokenRejected(t *testing.T) {
	c := newTestBackend(t)

	_, _, err := c.GetAllUsers(context.Background())
	if !errors.Is(err, api.ErrUnauthorized) {
		t.Errorf("err = %v, expected ErrUnauthorized", err)
	}
}

func TestRegisterAndListUsers(t *testing.T) {
	c := newTestBackend(t)
	loginAsAdmin(t, c)

	created, err := c.Register(context.Background(), models.UserDraft{
		UserName: "alice",
		Email:    "alice@work.io",
		Password: "secret1",
	})
	if err != nil {
		t.Fatal(err)
	}
	if created.ID == "" {
		t.Error("created user has no id")
	}
	if created.Password != "" {
		t.Error("password echoed back in response")
	}
	// Registration without explicit roles gets the default User role.
	if len(created.Roles) != 1 || created.Roles[0] != models.RoleUser {
		t.Errorf("roles = %v, expected [User]", created.Roles)
	}

	all, total, err := c.GetAllUsers(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 || total != 2 {
		t.Errorf("got %d users / total %d, expected 2/2 (admin + alice)", len(all), total)
	}

	// Paginated variant returns the envelope with the full count.
	page, total, err := c.GetUsersPage(context.Background(), 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(page) != 1 {
		t.Errorf("page size = %d, expected 1", len(page))
	}
	if total != 2 {
		t.Errorf("total = %d, expected 2", total)
	}
}

func TestUpdateUserRoles(t *testing.T) {
	c := newTestBackend(t)
	loginAsAdmin(t, c)

	created, err := c.Register(context.Background(), models.UserDraft{
		UserName: "bob", Email: "bob@work.io", Password: "secret1",
	})
	if err != nil {
		t.Fatal(err)
	}

	updated, err := c.UpdateUser(context.Background(), models.UserUpdate{
		ID:       created.ID,
		UserName: "bob",
		Email:    "bob@work.io",
		Roles:    []string{models.RoleAdmin, models.RoleUser},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(updated.Roles) != 2 {
		t.Errorf("roles = %v, expected both", updated.Roles)
	}
}

func TestNonAdminCannotManageUsers(t *testing.T) {
	c := newTestBackend(t)
	loginAsAdmin(t, c)

	created, err := c.Register(context.Background(), models.UserDraft{
		UserName: "carol", Email: "carol@work.io", Password: "secret1",
	})
	if err != nil {
		t.Fatal(err)
	}

	token, err := c.Login(context.Background(), api.LoginRequest{
		Email: "carol@work.io", Password: "secret1",
	})
	if err != nil {
		t.Fatal(err)
	}
	sess, err := session.Decode(token)
	if err != nil {
		t.Fatal(err)
	}
	c.SetSession(sess)

	_, err = c.UpdateUser(context.Background(), models.UserUpdate{
		ID: created.ID, UserName: "hax", Email: "carol@work.io",
	})
	if err == nil {
		t.Fatal("expected forbidden error")
	}
	if errors.Is(err, api.ErrUnauthorized) {
		t.Error("got 401, expected 403 for an authenticated non-admin")
	}
}

func TestProjectLifecycle(t *testing.T) {
	c := newTestBackend(t)
	adminSess := loginAsAdmin(t, c)

	client, err := c.Register(context.Background(), models.UserDraft{
		UserName: "customer", Email: "customer@work.io", Password: "secret1",
	})
	if err != nil {
		t.Fatal(err)
	}

	// CreatorID left empty: the server fills in the caller.
	created, err := c.CreateProject(context.Background(), models.ProjectDraft{
		Name:        "Website",
		Description: strings.Repeat("redesign the site ", 2),
		ColorHex:    "#4287f5",
		ClientID:    client.ID,
	})
	if err != nil {
		t.Fatal(err)
	}
	if created.Creator == nil || created.Creator.ID != adminSess.UserID {
		t.Errorf("creator = %+v, expected the caller", created.Creator)
	}
	if created.Client == nil || created.Client.ID != client.ID {
		t.Errorf("client = %+v", created.Client)
	}
	if created.ProjectUsers == nil {
		t.Error("projectUsers is null, expected []")
	}

	roles, _, err := c.GetAllRoles(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	pu, err := c.AddUserToProject(context.Background(), models.ProjectUserDraft{
		ProjectID: created.ID,
		UserID:    client.ID,
		RoleID:    roles[0].ID,
	})
	if err != nil {
		t.Fatal(err)
	}
	if pu.ProjectID != created.ID || pu.UserID != client.ID {
		t.Errorf("join record = %+v", pu)
	}

	// Membership makes the project visible in the user-scoped list.
	mine, _, err := c.GetProjectsByUserID(context.Background(), client.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(mine) != 1 || mine[0].ID != created.ID {
		t.Errorf("scoped projects = %+v", mine)
	}
	if len(mine[0].ProjectUsers) != 1 {
		t.Errorf("projectUsers = %+v, expected the new member", mine[0].ProjectUsers)
	}

	// Removal echoes the deleted join record.
	echoed, err := c.RemoveUserFromProject(context.Background(), pu.ID)
	if err != nil {
		t.Fatal(err)
	}
	if echoed.ID != pu.ID || echoed.ProjectID != created.ID {
		t.Errorf("echoed = %+v", echoed)
	}

	updated, err := c.UpdateProject(context.Background(), models.ProjectUpdate{
		ID:          created.ID,
		Name:        "Website v2",
		Description: created.Description,
		ColorHex:    "#00ff00",
		ClientID:    client.ID,
	})
	if err != nil {
		t.Fatal(err)
	}
	if updated.Name != "Website v2" || updated.ColorHex != "#00ff00" {
		t.Errorf("updated = %+v", updated)
	}

	if err := c.DeleteProject(context.Background(), created.ID); err != nil {
		t.Fatal(err)
	}
	all, _, err := c.GetAllProjects(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 0 {
		t.Errorf("projects after delete = %+v", all)
	}
}

func TestTaskLifecycle(t *testing.T) {
	c := newTestBackend(t)
	adminSess := loginAsAdmin(t, c)

	project, err := c.CreateProject(context.Background(), models.ProjectDraft{
		Name:        "Website",
		Description: strings.Repeat("redesign the site ", 2),
		ColorHex:    "#4287f5",
		CreatorID:   adminSess.UserID,
		ClientID:    adminSess.UserID,
	})
	if err != nil {
		t.Fatal(err)
	}

	task, err := c.CreateProjectTask(context.Background(), models.ProjectTaskDraft{
		Name:          "Landing page",
		Description:   "Build the landing page",
		EstimatedTime: 120,
		Status:        models.StatusToDo,
		ProjectID:     project.ID,
	})
	if err != nil {
		t.Fatal(err)
	}
	if task.Project == nil || task.Project.ID != project.ID {
		t.Errorf("task project = %+v", task.Project)
	}

	ut, err := c.AddUserToProjectTask(context.Background(), models.UserTaskDraft{
		ProjectTaskID: task.ID,
		UserID:        adminSess.UserID,
	})
	if err != nil {
		t.Fatal(err)
	}

	// Assignment makes the task visible in the user-scoped page.
	mine, total, err := c.GetProjectTasksPageByUserID(context.Background(), adminSess.UserID, 1, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(mine) != 1 || total != 1 {
		t.Errorf("scoped tasks = %d / total %d, expected 1/1", len(mine), total)
	}

	if _, err := c.RemoveUserFromProjectTask(context.Background(), ut.ID); err != nil {
		t.Fatal(err)
	}
	mine, _, err = c.GetProjectTasksPageByUserID(context.Background(), adminSess.UserID, 1, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(mine) != 0 {
		t.Errorf("scoped tasks after unassign = %+v", mine)
	}

	updated, err := c.UpdateProjectTask(context.Background(), models.ProjectTaskUpdate{
		ID:            task.ID,
		Name:          task.Name,
		Description:   task.Description,
		EstimatedTime: 90,
		Status:        models.StatusDone,
	})
	if err != nil {
		t.Fatal(err)
	}
	if updated.Status != models.StatusDone || updated.EstimatedTime != 90 {
		t.Errorf("updated = %+v", updated)
	}
}

func TestTimeEntryMinutesComputedServerSide(t *testing.T) {
	c := newTestBackend(t)
	adminSess := loginAsAdmin(t, c)

	project, err := c.CreateProject(context.Background(), models.ProjectDraft{
		Name:        "Website",
		Description: strings.Repeat("redesign the site ", 2),
		ColorHex:    "#4287f5",
		CreatorID:   adminSess.UserID,
		ClientID:    adminSess.UserID,
	})
	if err != nil {
		t.Fatal(err)
	}

	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	entry, err := c.CreateTimeEntry(context.Background(), models.TimeEntryDraft{
		Description: "Pairing on the importer",
		StartTime:   start,
		EndTime:     start.Add(90 * time.Minute),
		Minutes:     9999, // ignored, recomputed from the range
		ProjectID:   project.ID,
	})
	if err != nil {
		t.Fatal(err)
	}
	if entry.Minutes != 90 {
		t.Errorf("minutes = %d, expected 90", entry.Minutes)
	}
	// UserID left empty: the server fills in the caller.
	if entry.User == nil || entry.User.ID != adminSess.UserID {
		t.Errorf("user = %+v, expected the caller", entry.User)
	}
	if entry.ProjectTask != nil {
		t.Errorf("projectTask = %+v, expected nil", entry.ProjectTask)
	}

	updated, err := c.UpdateTimeEntry(context.Background(), models.TimeEntryUpdate{
		ID:          entry.ID,
		Description: entry.Description,
		StartTime:   start,
		EndTime:     start.Add(30 * time.Minute),
		ProjectID:   project.ID,
	})
	if err != nil {
		t.Fatal(err)
	}
	if updated.Minutes != 30 {
		t.Errorf("minutes after update = %d, expected 30", updated.Minutes)
	}

	page, total, err := c.GetTimeEntriesPage(context.Background(), 1, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(page) != 1 || total != 1 {
		t.Errorf("entries = %d / total %d, expected 1/1", len(page), total)
	}

	if err := c.DeleteTimeEntry(context.Background(), entry.ID); err != nil {
		t.Fatal(err)
	}
	_, total, err = c.GetTimeEntriesPage(context.Background(), 1, 10)
	if err != nil {
		t.Fatal(err)
	}
	if total != 0 {
		t.Errorf("total after delete = %d, expected 0", total)
	}
}

func TestRoleCRUD(t *testing.T) {
	c := newTestBackend(t)
	loginAsAdmin(t, c)

	created, err := c.CreateRole(context.Background(), models.RoleDraft{
		Name: "Manager", RoleGroup: 3,
	})
	if err != nil {
		t.Fatal(err)
	}

	updated, err := c.UpdateRole(context.Background(), models.RoleUpdate{
		ID: created.ID, Name: "Lead", RoleGroup: 3,
	})
	if err != nil {
		t.Fatal(err)
	}
	if updated.Name != "Lead" {
		t.Errorf("name = %q, expected Lead", updated.Name)
	}

	if err := c.DeleteRole(context.Background(), created.ID); err != nil {
		t.Fatal(err)
	}

	roles, _, err := c.GetAllRoles(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	for _, role := range roles {
		if role.ID == created.ID {
			t.Error("deleted role still listed")
		}
	}
}
