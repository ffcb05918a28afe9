package screens

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/hgdelgado/timedeck/internal/api"
	"github.com/hgdelgado/timedeck/internal/models"
	"github.com/hgdelgado/timedeck/internal/session"
)

func key(k string) tea.KeyMsg {
	if k == "enter" {
		return tea.KeyMsg{Type: tea.KeyEnter}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

// taskBackend serves the task list endpoints from a mutable slice so a
// screen can be driven end to end without the real server.
type taskBackend struct {
	tasks []models.ProjectTask
}

func (b *taskBackend) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/project-tasks/get-all", func(w http.ResponseWriter, r *http.Request) {
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		size, _ := strconv.Atoi(r.URL.Query().Get("pageSize"))
		start := (page - 1) * size
		end := start + size
		if start > len(b.tasks) {
			start = len(b.tasks)
		}
		if end > len(b.tasks) {
			end = len(b.tasks)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"items":      b.tasks[start:end],
			"totalCount": len(b.tasks),
		})
	})
	mux.HandleFunc("/project-tasks/delete/", func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, "/project-tasks/delete/")
		kept := b.tasks[:0]
		for _, task := range b.tasks {
			if task.ID != id {
				kept = append(kept, task)
			}
		}
		b.tasks = kept
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/users/get-all", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]models.User{})
	})
	mux.HandleFunc("/projects/get-all", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]models.Project{})
	})
	return mux
}

// Deleting the last row of a later page steps the store back; the screen
// must follow up with a reload so the previous page fills in immediately.
func TestTasksDeleteOnEmptiedPageReloads(t *testing.T) {
	backend := &taskBackend{tasks: []models.ProjectTask{
		{ID: "t1", Name: "alpha"},
		{ID: "t2", Name: "beta"},
		{ID: "t3", Name: "gamma"},
	}}
	ts := httptest.NewServer(backend.handler())
	defer ts.Close()

	sess := &session.Session{Token: "tok", UserID: "u1", Name: "boss", Roles: []string{models.RoleAdmin}}
	client := api.NewClient(ts.URL, 2*time.Second, sess)

	s := NewTasks(client, sess, 2)
	s.Update(s.Init()())

	cmd := s.Update(key("]"))
	if cmd == nil {
		t.Fatal("expected a load command when paging forward")
	}
	s.Update(cmd())
	if got := len(s.store.Items()); got != 1 {
		t.Fatalf("page 2 items = %d, want 1", got)
	}

	s.Update(key("d"))
	saveCmd := s.Update(key("enter"))
	if saveCmd == nil {
		t.Fatal("expected a save command from the delete confirm")
	}
	reload := s.Update(saveCmd())
	if reload == nil {
		t.Fatal("expected a reload command after the delete emptied the page")
	}
	s.Update(reload())

	if got := s.store.Page(); got != 1 {
		t.Errorf("page after delete = %d, want 1", got)
	}
	if got := s.store.TotalCount(); got != 2 {
		t.Errorf("totalCount after delete = %d, want 2", got)
	}
	if got := len(s.store.Items()); got != 2 {
		t.Errorf("items after reload = %d, want 2", got)
	}
}

// Deleting the only remaining record must not trigger a reload loop: the
// list is legitimately empty.
func TestTasksDeleteLastRecordDoesNotReload(t *testing.T) {
	backend := &taskBackend{tasks: []models.ProjectTask{{ID: "t1", Name: "alpha"}}}
	ts := httptest.NewServer(backend.handler())
	defer ts.Close()

	sess := &session.Session{Token: "tok", UserID: "u1", Name: "boss", Roles: []string{models.RoleAdmin}}
	client := api.NewClient(ts.URL, 2*time.Second, sess)

	s := NewTasks(client, sess, 2)
	s.Update(s.Init()())

	s.Update(key("d"))
	saveCmd := s.Update(key("enter"))
	if saveCmd == nil {
		t.Fatal("expected a save command from the delete confirm")
	}
	if cmd := s.Update(saveCmd()); cmd != nil {
		t.Fatal("expected no follow-up command after deleting the last record")
	}
	if got := s.store.TotalCount(); got != 0 {
		t.Errorf("totalCount = %d, want 0", got)
	}
}
