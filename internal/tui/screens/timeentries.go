package screens

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

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

const timeLayout = "2006-01-02 15:04"

// TimeEntries lists logged work. Minutes are derived from the start/end
// pair right before every save, never entered directly.
// Non-admins only see their own entries.
type TimeEntries struct {
	client *api.Client
	sess   *session.Session
	width  int
	height int

	store *store.TimeEntryStore
	ctrl  *modal.Controller[models.TimeEntry, models.TimeEntryDraft, struct{}, struct{}]
	disp  *modal.Dispatcher

	allProjects []models.Project
	allTasks    []models.ProjectTask

	update models.TimeEntryUpdate
	form   *Form

	search    textinput.Model
	searching bool
	cursor    int
	err       error
	message   string

	ctx    context.Context
	cancel context.CancelFunc
}

var timeEntryModes = []modal.Mode{
	modal.ModeCreate,
	modal.ModeUpdate,
	modal.ModeDelete,
}

func NewTimeEntries(client *api.Client, sess *session.Session, pageSize int) *TimeEntries {
	search := textinput.New()
	search.Placeholder = "Search entries"
	search.Width = 30

	s := &TimeEntries{
		client: client,
		sess:   sess,
		store:  store.NewTimeEntryStore(client, pageSize),
		search: search,
	}
	if !sess.HasRole(models.RoleAdmin) {
		s.store.ScopeToUser(sess.UserID)
	}

	s.ctrl = modal.NewController(modal.Config[models.TimeEntry, models.TimeEntryDraft, struct{}, struct{}]{
		Modes: timeEntryModes,
		NewDraft: func(*models.TimeEntry) models.TimeEntryDraft {
			now := time.Now().Truncate(time.Minute)
			return models.TimeEntryDraft{
				UserID:    sess.UserID,
				StartTime: now.Add(-time.Hour),
				EndTime:   now,
			}
		},
	})

	s.disp = modal.MustDispatcher(
		timeEntryModes,
		func(mode modal.Mode) []validate.FieldError {
			switch mode {
			case modal.ModeCreate:
				return validate.TimeEntryDraft(*s.ctrl.Draft())
			case modal.ModeUpdate:
				return validate.TimeEntryUpdate(s.update)
			}
			return nil
		},
		map[modal.Mode]modal.Handler{
			modal.ModeCreate: func(ctx context.Context) error {
				d := s.ctrl.Draft()
				d.RecomputeMinutes()
				return s.store.Create(ctx, *d)
			},
			modal.ModeUpdate: func(ctx context.Context) error {
				s.update.RecomputeMinutes()
				return s.store.Update(ctx, s.update)
			},
			modal.ModeDelete: func(ctx context.Context) error {
				return s.store.Remove(ctx, s.ctrl.Selected().ID)
			},
		},
	)

	return s
}

func (s *TimeEntries) SetSize(width, height int) {
	s.width = width
	s.height = height
}

type timeEntriesDataMsg struct {
	projects []models.Project
	tasks    []models.ProjectTask
	err      error
}

type timeEntriesSavedMsg struct{ err error }

func (s *TimeEntries) Init() tea.Cmd {
	if s.cancel != nil {
		s.cancel()
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.message = ""
	s.err = nil
	return s.loadData
}

func (s *TimeEntries) loadData() tea.Msg {
	if err := s.store.Fetch(s.ctx); err != nil {
		return timeEntriesDataMsg{err: err}
	}

	var (
		projects []models.Project
		err      error
	)
	if s.sess.HasRole(models.RoleAdmin) {
		projects, _, err = s.client.GetAllProjects(s.ctx)
	} else {
		projects, _, err = s.client.GetProjectsByUserID(s.ctx, s.sess.UserID)
	}
	if err != nil {
		return timeEntriesDataMsg{err: err}
	}

	var tasks []models.ProjectTask
	if s.sess.HasRole(models.RoleAdmin) {
		tasks, _, err = s.client.GetProjectTasksPage(s.ctx, 1, 100)
	} else {
		tasks, _, err = s.client.GetProjectTasksPageByUserID(s.ctx, s.sess.UserID, 1, 100)
	}
	return timeEntriesDataMsg{projects: projects, tasks: tasks, err: err}
}

func (s *TimeEntries) visible() []models.TimeEntry {
	return filter.Apply(s.store.Items(), s.search.Value(), func(e models.TimeEntry) []string {
		fields := []string{e.Description}
		if e.Project != nil {
			fields = append(fields, e.Project.Name)
		}
		if e.ProjectTask != nil {
			fields = append(fields, e.ProjectTask.Name)
		}
		return fields
	})
}

func (s *TimeEntries) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case timeEntriesDataMsg:
		if msg.err != nil {
			return s.handleError(msg.err)
		}
		s.allProjects = msg.projects
		s.allTasks = msg.tasks
		s.clampCursor()
		return nil

	case timeEntriesSavedMsg:
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

func (s *TimeEntries) handleError(err error) tea.Cmd {
	if store.Canceled(err) {
		return nil
	}
	if api.Unauthorized(err) {
		return SessionExpired()
	}
	s.err = err
	return nil
}

func (s *TimeEntries) clampCursor() {
	if n := len(s.visible()); s.cursor >= n {
		s.cursor = n - 1
	}
	if s.cursor < 0 {
		s.cursor = 0
	}
}

func (s *TimeEntries) projectChoices() []Choice {
	choices := make([]Choice, 0, len(s.allProjects))
	for _, p := range s.allProjects {
		choices = append(choices, Choice{ID: p.ID, Label: p.Name})
	}
	return choices
}

func (s *TimeEntries) taskChoices() []Choice {
	choices := make([]Choice, 0, len(s.allTasks)+1)
	choices = append(choices, Choice{ID: "", Label: "(none)"})
	for _, t := range s.allTasks {
		choices = append(choices, Choice{ID: t.ID, Label: t.Name})
	}
	return choices
}

func (s *TimeEntries) handleKey(msg tea.KeyMsg) tea.Cmd {
	if s.ctrl.Visible() {
		return s.handleModalKey(msg)
	}
	if s.searching {
		return s.handleSearchKey(msg)
	}
	return s.handleListKey(msg)
}

func (s *TimeEntries) handleListKey(msg tea.KeyMsg) tea.Cmd {
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
		draft := s.ctrl.Draft()
		s.form = NewForm(
			NewTextField("description", "Description", "", "What was worked on"),
			NewTextField("start time", "Start", draft.StartTime.Format(timeLayout), timeLayout),
			NewTextField("end time", "End", draft.EndTime.Format(timeLayout), timeLayout),
			NewChoiceField("project", "Project", s.projectChoices(), ""),
			NewChoiceField("task", "Task", s.taskChoices(), ""),
		)
	case "e":
		if len(rows) > 0 {
			entry := rows[s.cursor]
			s.ctrl.Show(&entry, nil, modal.ModeUpdate)
			projectID := ""
			if entry.Project != nil {
				projectID = entry.Project.ID
			}
			taskID := ""
			if entry.ProjectTask != nil {
				taskID = entry.ProjectTask.ID
			}
			s.form = NewForm(
				NewTextField("description", "Description", entry.Description, "What was worked on"),
				NewTextField("start time", "Start", entry.StartTime.Format(timeLayout), timeLayout),
				NewTextField("end time", "End", entry.EndTime.Format(timeLayout), timeLayout),
				NewChoiceField("project", "Project", s.projectChoices(), projectID),
				NewChoiceField("task", "Task", s.taskChoices(), taskID),
			)
		}
	case "d":
		if len(rows) > 0 {
			entry := rows[s.cursor]
			s.ctrl.Show(&entry, nil, modal.ModeDelete)
			s.form = nil
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

func (s *TimeEntries) handleSearchKey(msg tea.KeyMsg) tea.Cmd {
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

func (s *TimeEntries) handleModalKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		s.ctrl.Hide()
		return nil
	case "enter":
		if !s.bindForm() {
			return nil
		}
		return s.save()
	}
	if s.form != nil {
		return s.form.Update(msg)
	}
	return nil
}

// bindForm parses the time fields and copies form values into the staged
// draft or update. A false return means a parse error is showing inline.
func (s *TimeEntries) bindForm() bool {
	if s.ctrl.Mode() == modal.ModeDelete {
		return true
	}

	s.form.ClearErrors()
	start, end, ok := s.parseTimes()
	if !ok {
		return false
	}

	switch s.ctrl.Mode() {
	case modal.ModeCreate:
		d := s.ctrl.Draft()
		d.Description = s.form.Value("description")
		d.StartTime = start
		d.EndTime = end
		d.ProjectID = s.form.Value("project")
		d.ProjectTaskID = s.form.Value("task")
	case modal.ModeUpdate:
		s.update = models.TimeEntryUpdate{
			ID:            s.ctrl.Selected().ID,
			Description:   s.form.Value("description"),
			StartTime:     start,
			EndTime:       end,
			ProjectID:     s.form.Value("project"),
			ProjectTaskID: s.form.Value("task"),
		}
	}
	return true
}

func (s *TimeEntries) parseTimes() (start, end time.Time, ok bool) {
	var parseErrs []validate.FieldError

	start, err := time.ParseInLocation(timeLayout, s.form.Value("start time"), time.Local)
	if err != nil {
		parseErrs = append(parseErrs, validate.FieldError{
			Field: "start time", Message: "start time must look like " + timeLayout,
		})
	}
	end, err = time.ParseInLocation(timeLayout, s.form.Value("end time"), time.Local)
	if err != nil {
		parseErrs = append(parseErrs, validate.FieldError{
			Field: "end time", Message: "end time must look like " + timeLayout,
		})
	}

	if len(parseErrs) > 0 {
		s.form.SetErrors(parseErrs)
		return start, end, false
	}
	return start, end, true
}

func (s *TimeEntries) save() tea.Cmd {
	ctx := s.ctx
	mode := s.ctrl.Mode()
	return func() tea.Msg {
		return timeEntriesSavedMsg{err: s.disp.Save(ctx, mode)}
	}
}

func (s *TimeEntries) View() string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render("TIME ENTRIES"))
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
		b.WriteString(DimStyle.Render("No time entries found."))
		b.WriteString("\n\n")
	} else {
		for i, entry := range rows {
			cursor := "  "
			style := NormalStyle
			if i == s.cursor {
				cursor = "> "
				style = SelectedStyle
			}
			projectName := "-"
			if entry.Project != nil {
				projectName = entry.Project.Name
			}
			b.WriteString(style.Render(fmt.Sprintf("%s%s  %4dm  %-20s %s",
				cursor,
				entry.StartTime.Format(timeLayout),
				entry.Minutes,
				projectName,
				truncate(entry.Description, 40))))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	b.WriteString(Pager(s.store.Page(), s.store.PageSize(), s.store.TotalCount()))
	b.WriteString("\n")

	help := "[a] Add  [e] Edit  [d] Delete  [/] Search  [[/]] Page  [r] Refresh  [q] Back"
	b.WriteString(HelpStyle.Render(help))
	return b.String()
}

func (s *TimeEntries) modalView() string {
	switch s.ctrl.Mode() {
	case modal.ModeCreate:
		return RenderModal("New time entry", s.form.View(), "Create", false)
	case modal.ModeUpdate:
		return RenderModal("Edit time entry", s.form.View(), "Save", false)
	case modal.ModeDelete:
		body := fmt.Sprintf("Delete time entry '%s'?", truncate(s.ctrl.Selected().Description, 40))
		return RenderModal("Delete time entry", WarningStyle.Render(body), "Delete", true)
	}
	return ""
}

// truncate shortens s to at most n characters, cutting on rune
// boundaries so multi-byte text is never split mid-character.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}
