package screens

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/hgdelgado/timedeck/internal/api"
	"github.com/hgdelgado/timedeck/internal/filter"
	"github.com/hgdelgado/timedeck/internal/modal"
	"github.com/hgdelgado/timedeck/internal/models"
	"github.com/hgdelgado/timedeck/internal/session"
	"github.com/hgdelgado/timedeck/internal/store"
	"github.com/hgdelgado/timedeck/internal/validate"
)

// Tasks lists project tasks with status tracking and assignees.
// Non-admins only see tasks they are assigned to.
type Tasks struct {
	client *api.Client
	sess   *session.Session
	width  int
	height int

	store     *store.ProjectTaskStore
	assignees store.RelationAdapter[models.ProjectTask, models.UserTaskDraft, models.UserTask]
	ctrl      *modal.Controller[models.ProjectTask, models.ProjectTaskDraft, models.UserTaskDraft, models.UserTask]
	disp      *modal.Dispatcher

	allUsers    []models.User
	allProjects []models.Project

	update     models.ProjectTaskUpdate
	relationID string
	form       *Form

	search    textinput.Model
	searching bool
	cursor    int
	err       error
	message   string

	ctx    context.Context
	cancel context.CancelFunc
}

var taskModes = []modal.Mode{
	modal.ModeCreate,
	modal.ModeUpdate,
	modal.ModeDelete,
	modal.ModeAddRelation,
	modal.ModeRemoveRelation,
}

func NewTasks(client *api.Client, sess *session.Session, pageSize int) *Tasks {
	search := textinput.New()
	search.Placeholder = "Search tasks"
	search.Width = 30

	s := &Tasks{
		client:    client,
		sess:      sess,
		store:     store.NewProjectTaskStore(client, pageSize),
		assignees: store.TaskAssignees(client),
		search:    search,
	}
	if !sess.HasRole(models.RoleAdmin) {
		s.store.ScopeToUser(sess.UserID)
	}

	s.ctrl = modal.NewController(modal.Config[models.ProjectTask, models.ProjectTaskDraft, models.UserTaskDraft, models.UserTask]{
		Modes: taskModes,
		NewDraft: func(*models.ProjectTask) models.ProjectTaskDraft {
			return models.ProjectTaskDraft{Status: models.StatusToDo}
		},
		NewRelationDraft: func(parent *models.ProjectTask) models.UserTaskDraft {
			return models.UserTaskDraft{ProjectTaskID: parent.ID}
		},
	})

	s.disp = modal.MustDispatcher(
		taskModes,
		func(mode modal.Mode) []validate.FieldError {
			switch mode {
			case modal.ModeCreate:
				return validate.ProjectTaskDraft(*s.ctrl.Draft())
			case modal.ModeUpdate:
				return validate.ProjectTaskUpdate(s.update)
			case modal.ModeAddRelation:
				return validate.UserTaskDraft(*s.ctrl.RelationDraft())
			case modal.ModeRemoveRelation:
				if s.relationID == "" {
					return []validate.FieldError{{Field: "assignee", Message: "assignee is required"}}
				}
			}
			return nil
		},
		map[modal.Mode]modal.Handler{
			modal.ModeCreate: func(ctx context.Context) error {
				return s.store.Create(ctx, *s.ctrl.Draft())
			},
			modal.ModeUpdate: func(ctx context.Context) error {
				return s.store.Update(ctx, s.update)
			},
			modal.ModeDelete: func(ctx context.Context) error {
				return s.store.Remove(ctx, s.ctrl.Selected().ID)
			},
			modal.ModeAddRelation: func(ctx context.Context) error {
				return store.AddRelation(ctx, s.store, s.assignees, *s.ctrl.RelationDraft())
			},
			modal.ModeRemoveRelation: func(ctx context.Context) error {
				return store.RemoveRelation(ctx, s.store, s.assignees, s.relationID)
			},
		},
	)

	return s
}

func (s *Tasks) SetSize(width, height int) {
	s.width = width
	s.height = height
}

type tasksDataMsg struct {
	users    []models.User
	projects []models.Project
	err      error
}

type tasksSavedMsg struct{ err error }

func (s *Tasks) Init() tea.Cmd {
	if s.cancel != nil {
		s.cancel()
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.message = ""
	s.err = nil
	return s.loadData
}

func (s *Tasks) loadData() tea.Msg {
	if err := s.store.Fetch(s.ctx); err != nil {
		return tasksDataMsg{err: err}
	}
	users, _, err := s.client.GetAllUsers(s.ctx)
	if err != nil {
		return tasksDataMsg{err: err}
	}

	var projects []models.Project
	if s.sess.HasRole(models.RoleAdmin) {
		projects, _, err = s.client.GetAllProjects(s.ctx)
	} else {
		projects, _, err = s.client.GetProjectsByUserID(s.ctx, s.sess.UserID)
	}
	return tasksDataMsg{users: users, projects: projects, err: err}
}

func (s *Tasks) visible() []models.ProjectTask {
	return filter.Apply(s.store.Items(), s.search.Value(), func(t models.ProjectTask) []string {
		fields := []string{t.Name, t.Description}
		if t.Project != nil {
			fields = append(fields, t.Project.Name)
		}
		return fields
	})
}

func (s *Tasks) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tasksDataMsg:
		if msg.err != nil {
			return s.handleError(msg.err)
		}
		s.allUsers = msg.users
		s.allProjects = msg.projects
		s.clampCursor()
		return nil

	case tasksSavedMsg:
		if msg.err != nil {
			var ve *modal.ValidationError
			if errors.As(msg.err, &ve) {
				s.form.SetErrors(ve.Fields)
				return nil
			}
			return s.handleError(msg.err)
		}
		s.ctrl.Hide()
		s.message = "Saved"
		s.clampCursor()
		// a delete that empties the page steps the store back; reload to fill it
		if len(s.store.Items()) == 0 && s.store.TotalCount() > 0 {
			return s.loadData
		}
		return nil

	case RefreshMsg:
		return s.Init()

	case tea.KeyMsg:
		return s.handleKey(msg)
	}

	if s.ctrl.Visible() && s.form != nil {
		return s.form.Update(msg)
	}
	if s.searching {
		var cmd tea.Cmd
		s.search, cmd = s.search.Update(msg)
		return cmd
	}
	return nil
}

func (s *Tasks) handleError(err error) tea.Cmd {
	if store.Canceled(err) {
		return nil
	}
	if api.Unauthorized(err) {
		return SessionExpired()
	}
	s.err = err
	return nil
}

func (s *Tasks) clampCursor() {
	if n := len(s.visible()); s.cursor >= n {
		s.cursor = n - 1
	}
	if s.cursor < 0 {
		s.cursor = 0
	}
}

func (s *Tasks) userChoices() []Choice {
	choices := make([]Choice, 0, len(s.allUsers))
	for _, u := range s.allUsers {
		choices = append(choices, Choice{ID: u.ID, Label: u.UserName})
	}
	return choices
}

func (s *Tasks) projectChoices() []Choice {
	choices := make([]Choice, 0, len(s.allProjects))
	for _, p := range s.allProjects {
		choices = append(choices, Choice{ID: p.ID, Label: p.Name})
	}
	return choices
}

func (s *Tasks) statusChoices() []Choice {
	choices := make([]Choice, 0, len(models.TaskStatuses))
	for _, st := range models.TaskStatuses {
		choices = append(choices, Choice{ID: strconv.Itoa(st.ID), Label: st.Name})
	}
	return choices
}

func (s *Tasks) assigneeChoices(t *models.ProjectTask) []Choice {
	choices := make([]Choice, 0, len(t.UsersTask))
	for _, ut := range t.UsersTask {
		choices = append(choices, Choice{ID: ut.ID, Label: s.userName(ut.UserID)})
	}
	return choices
}

func (s *Tasks) userName(id string) string {
	for _, u := range s.allUsers {
		if u.ID == id {
			return u.UserName
		}
	}
	return id
}

func (s *Tasks) handleKey(msg tea.KeyMsg) tea.Cmd {
	if s.ctrl.Visible() {
		return s.handleModalKey(msg)
	}
	if s.searching {
		return s.handleSearchKey(msg)
	}
	return s.handleListKey(msg)
}

func (s *Tasks) handleListKey(msg tea.KeyMsg) tea.Cmd {
	rows := s.visible()
	switch msg.String() {
	case "up", "k":
		if s.cursor > 0 {
			s.cursor--
		}
	case "down", "j":
		if s.cursor < len(rows)-1 {
			s.cursor++
		}
	case "/":
		s.searching = true
		s.search.Focus()
	case "a":
		s.ctrl.Show(nil, nil, modal.ModeCreate)
		s.form = NewForm(
			NewTextField("name", "Name", "", "Task name"),
			NewTextField("description", "Description", "", "What needs doing"),
			NewTextField("estimated time", "Estimated minutes", "60", "Minutes"),
			NewChoiceField("status", "Status", s.statusChoices(), strconv.Itoa(models.StatusToDo)),
			NewChoiceField("project", "Project", s.projectChoices(), ""),
		)
	case "e":
		if len(rows) > 0 {
			task := rows[s.cursor]
			s.ctrl.Show(&task, nil, modal.ModeUpdate)
			s.form = NewForm(
				NewTextField("name", "Name", task.Name, "Task name"),
				NewTextField("description", "Description", task.Description, "What needs doing"),
				NewTextField("estimated time", "Estimated minutes", strconv.Itoa(task.EstimatedTime), "Minutes"),
				NewChoiceField("status", "Status", s.statusChoices(), strconv.Itoa(task.Status)),
			)
		}
	case "d":
		if len(rows) > 0 {
			task := rows[s.cursor]
			s.ctrl.Show(&task, nil, modal.ModeDelete)
			s.form = nil
		}
	case "u":
		if len(rows) > 0 {
			task := rows[s.cursor]
			s.ctrl.Show(&task, nil, modal.ModeAddRelation)
			s.form = NewForm(
				NewChoiceField("user", "User", s.userChoices(), ""),
			)
		}
	case "x":
		if len(rows) > 0 {
			task := rows[s.cursor]
			s.ctrl.Show(&task, nil, modal.ModeRemoveRelation)
			s.form = NewForm(
				NewChoiceField("assignee", "Assignee", s.assigneeChoices(&task), ""),
			)
		}
	case "[":
		if s.store.Page() > 1 {
			s.store.SetPage(s.store.Page() - 1)
			return s.loadData
		}
	case "]":
		if s.store.Page() < TotalPages(s.store.TotalCount(), s.store.PageSize()) {
			s.store.SetPage(s.store.Page() + 1)
			return s.loadData
		}
	case "r":
		return s.Init()
	case "q", "esc":
		return Navigate("dashboard")
	}
	return nil
}

func (s *Tasks) handleSearchKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "enter":
		s.searching = false
		s.search.Blur()
		s.clampCursor()
		return nil
	case "esc":
		s.searching = false
		s.search.SetValue("")
		s.search.Blur()
		s.clampCursor()
		return nil
	}
	var cmd tea.Cmd
	s.search, cmd = s.search.Update(msg)
	s.clampCursor()
	return cmd
}

func (s *Tasks) handleModalKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		s.ctrl.Hide()
		return nil
	case "enter":
		s.bindForm()
		return s.save()
	}
	if s.form != nil {
		return s.form.Update(msg)
	}
	return nil
}

func (s *Tasks) bindForm() {
	switch s.ctrl.Mode() {
	case modal.ModeCreate:
		d := s.ctrl.Draft()
		d.Name = s.form.Value("name")
		d.Description = s.form.Value("description")
		d.EstimatedTime = parseIntField(s.form, "estimated time")
		d.Status = parseIntField(s.form, "status")
		d.ProjectID = s.form.Value("project")
	case modal.ModeUpdate:
		s.update = models.ProjectTaskUpdate{
			ID:            s.ctrl.Selected().ID,
			Name:          s.form.Value("name"),
			Description:   s.form.Value("description"),
			EstimatedTime: parseIntField(s.form, "estimated time"),
			Status:        parseIntField(s.form, "status"),
		}
	case modal.ModeAddRelation:
		s.ctrl.RelationDraft().UserID = s.form.Value("user")
	case modal.ModeRemoveRelation:
		s.relationID = s.form.Value("assignee")
	}
}

func (s *Tasks) save() tea.Cmd {
	ctx := s.ctx
	mode := s.ctrl.Mode()
	return func() tea.Msg {
		return tasksSavedMsg{err: s.disp.Save(ctx, mode)}
	}
}

func (s *Tasks) View() string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render("TASKS"))
	b.WriteString("\n\n")

	if s.store.Loading() {
		b.WriteString("Loading...\n")
		return b.String()
	}

	if s.err != nil {
		b.WriteString(ErrorStyle.Render(fmt.Sprintf("Error: %v", s.err)))
		b.WriteString("\n\n")
		s.err = nil
	}

	if s.message != "" {
		b.WriteString(SuccessStyle.Render(s.message))
		b.WriteString("\n\n")
	}

	if s.ctrl.Visible() {
		b.WriteString(s.modalView())
		return b.String()
	}

	if s.searching || s.search.Value() != "" {
		b.WriteString("Search: " + s.search.View() + "\n\n")
	}

	rows := s.visible()
	if len(rows) == 0 {
		b.WriteString(DimStyle.Render("No tasks found."))
		b.WriteString("\n\n")
	} else {
		for i, task := range rows {
			cursor := "  "
			style := NormalStyle
			if i == s.cursor {
				cursor = "> "
				style = SelectedStyle
			}
			projectName := "-"
			if task.Project != nil {
				projectName = task.Project.Name
			}
			b.WriteString(style.Render(fmt.Sprintf("%s%-25s %-12s %-20s %d assigned",
				cursor, task.Name, models.StatusName(task.Status), projectName, len(task.UsersTask))))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	b.WriteString(Pager(s.store.Page(), s.store.PageSize(), s.store.TotalCount()))
	b.WriteString("\n")

	help := "[a] Add  [e] Edit  [d] Delete  [u] Assign  [x] Unassign  [/] Search  [[/]] Page  [r] Refresh  [q] Back"
	b.WriteString(HelpStyle.Render(help))
	return b.String()
}

func (s *Tasks) modalView() string {
	switch s.ctrl.Mode() {
	case modal.ModeCreate:
		return RenderModal("New task", s.form.View(), "Create", false)
	case modal.ModeUpdate:
		return RenderModal("Edit task", s.form.View(), "Save", false)
	case modal.ModeDelete:
		body := fmt.Sprintf("Delete task '%s'?", s.ctrl.Selected().Name)
		return RenderModal("Delete task", WarningStyle.Render(body), "Delete", true)
	case modal.ModeAddRelation:
		title := fmt.Sprintf("Assign user to %s", s.ctrl.Selected().Name)
		return RenderModal(title, s.form.View(), "Assign", false)
	case modal.ModeRemoveRelation:
		title := fmt.Sprintf("Unassign user from %s", s.ctrl.Selected().Name)
		return RenderModal(title, s.form.View(), "Unassign", true)
	}
	return ""
}
