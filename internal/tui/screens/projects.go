package screens

import (
	"context"
	"errors"
	"fmt"
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

// Projects lists projects with client, color and member management.
// Non-admins only see projects they belong to.
type Projects struct {
	client *api.Client
	sess   *session.Session
	width  int
	height int

	store   *store.ProjectStore
	members store.RelationAdapter[models.Project, models.ProjectUserDraft, models.ProjectUser]
	ctrl    *modal.Controller[models.Project, models.ProjectDraft, models.ProjectUserDraft, models.ProjectUser]
	disp    *modal.Dispatcher

	allUsers []models.User
	allRoles []models.Role

	update     models.ProjectUpdate
	relationID string // join record staged for removal
	form       *Form

	search    textinput.Model
	searching bool
	cursor    int
	err       error
	message   string

	ctx    context.Context
	cancel context.CancelFunc
}

var projectModes = []modal.Mode{
	modal.ModeCreate,
	modal.ModeUpdate,
	modal.ModeDelete,
	modal.ModeAddRelation,
	modal.ModeRemoveRelation,
}

func NewProjects(client *api.Client, sess *session.Session, pageSize int) *Projects {
	search := textinput.New()
	search.Placeholder = "Search projects"
	search.Width = 30

	s := &Projects{
		client:  client,
		sess:    sess,
		store:   store.NewProjectStore(client, pageSize),
		members: store.ProjectMembers(client),
		search:  search,
	}
	if !sess.HasRole(models.RoleAdmin) {
		s.store.ScopeToUser(sess.UserID)
	}

	s.ctrl = modal.NewController(modal.Config[models.Project, models.ProjectDraft, models.ProjectUserDraft, models.ProjectUser]{
		Modes: projectModes,
		NewDraft: func(*models.Project) models.ProjectDraft {
			return models.ProjectDraft{
				CreatorID: sess.UserID,
				ColorHex:  "#4287f5",
			}
		},
		NewRelationDraft: func(parent *models.Project) models.ProjectUserDraft {
			return models.ProjectUserDraft{ProjectID: parent.ID}
		},
	})

	s.disp = modal.MustDispatcher(
		projectModes,
		func(mode modal.Mode) []validate.FieldError {
			switch mode {
			case modal.ModeCreate:
				return validate.ProjectDraft(*s.ctrl.Draft())
			case modal.ModeUpdate:
				return validate.ProjectUpdate(s.update)
			case modal.ModeAddRelation:
				return validate.ProjectUserDraft(*s.ctrl.RelationDraft())
			case modal.ModeRemoveRelation:
				if s.relationID == "" {
					return []validate.FieldError{{Field: "member", Message: "member is required"}}
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
				return store.AddRelation(ctx, s.store, s.members, *s.ctrl.RelationDraft())
			},
			modal.ModeRemoveRelation: func(ctx context.Context) error {
				return store.RemoveRelation(ctx, s.store, s.members, s.relationID)
			},
		},
	)

	return s
}

func (s *Projects) SetSize(width, height int) {
	s.width = width
	s.height = height
}

type projectsDataMsg struct {
	users []models.User
	roles []models.Role
	err   error
}

type projectsSavedMsg struct{ err error }

func (s *Projects) Init() tea.Cmd {
	if s.cancel != nil {
		s.cancel()
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.message = ""
	s.err = nil
	return s.loadData
}

func (s *Projects) loadData() tea.Msg {
	if err := s.store.Fetch(s.ctx); err != nil {
		return projectsDataMsg{err: err}
	}
	users, _, err := s.client.GetAllUsers(s.ctx)
	if err != nil {
		return projectsDataMsg{err: err}
	}
	roles, _, err := s.client.GetAllRoles(s.ctx)
	return projectsDataMsg{users: users, roles: roles, err: err}
}

func (s *Projects) visible() []models.Project {
	return filter.Apply(s.store.Items(), s.search.Value(), func(p models.Project) []string {
		return []string{p.Name, p.Description}
	})
}

func (s *Projects) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case projectsDataMsg:
		if msg.err != nil {
			return s.handleError(msg.err)
		}
		s.allUsers = msg.users
		s.allRoles = msg.roles
		s.clampCursor()
		return nil

	case projectsSavedMsg:
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

func (s *Projects) handleError(err error) tea.Cmd {
	if store.Canceled(err) {
		return nil
	}
	if api.Unauthorized(err) {
		return SessionExpired()
	}
	s.err = err
	return nil
}

func (s *Projects) clampCursor() {
	if n := len(s.visible()); s.cursor >= n {
		s.cursor = n - 1
	}
	if s.cursor < 0 {
		s.cursor = 0
	}
}

func (s *Projects) userChoices() []Choice {
	choices := make([]Choice, 0, len(s.allUsers))
	for _, u := range s.allUsers {
		choices = append(choices, Choice{ID: u.ID, Label: u.UserName})
	}
	return choices
}

func (s *Projects) roleChoices() []Choice {
	choices := make([]Choice, 0, len(s.allRoles))
	for _, r := range s.allRoles {
		choices = append(choices, Choice{ID: r.ID, Label: r.Name})
	}
	return choices
}

func (s *Projects) memberChoices(p *models.Project) []Choice {
	choices := make([]Choice, 0, len(p.ProjectUsers))
	for _, pu := range p.ProjectUsers {
		choices = append(choices, Choice{ID: pu.ID, Label: s.userName(pu.UserID)})
	}
	return choices
}

func (s *Projects) userName(id string) string {
	for _, u := range s.allUsers {
		if u.ID == id {
			return u.UserName
		}
	}
	return id
}

func (s *Projects) handleKey(msg tea.KeyMsg) tea.Cmd {
	if s.ctrl.Visible() {
		return s.handleModalKey(msg)
	}
	if s.searching {
		return s.handleSearchKey(msg)
	}
	return s.handleListKey(msg)
}

func (s *Projects) handleListKey(msg tea.KeyMsg) tea.Cmd {
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
			NewTextField("name", "Name", "", "Project name"),
			NewTextField("description", "Description", "", "What the project is about"),
			NewTextField("color", "Color", "#4287f5", "#rrggbb"),
			NewChoiceField("client", "Client", s.userChoices(), ""),
		)
	case "e":
		if len(rows) > 0 {
			project := rows[s.cursor]
			s.ctrl.Show(&project, nil, modal.ModeUpdate)
			clientID := ""
			if project.Client != nil {
				clientID = project.Client.ID
			}
			s.form = NewForm(
				NewTextField("name", "Name", project.Name, "Project name"),
				NewTextField("description", "Description", project.Description, "What the project is about"),
				NewTextField("color", "Color", project.ColorHex, "#rrggbb"),
				NewChoiceField("client", "Client", s.userChoices(), clientID),
			)
		}
	case "d":
		if len(rows) > 0 {
			project := rows[s.cursor]
			s.ctrl.Show(&project, nil, modal.ModeDelete)
			s.form = nil
		}
	case "u":
		if len(rows) > 0 {
			project := rows[s.cursor]
			s.ctrl.Show(&project, nil, modal.ModeAddRelation)
			s.form = NewForm(
				NewChoiceField("user", "User", s.userChoices(), ""),
				NewChoiceField("role", "Role", s.roleChoices(), ""),
			)
		}
	case "x":
		if len(rows) > 0 {
			project := rows[s.cursor]
			s.ctrl.Show(&project, nil, modal.ModeRemoveRelation)
			s.form = NewForm(
				NewChoiceField("member", "Member", s.memberChoices(&project), ""),
			)
		}
	case "r":
		return s.Init()
	case "q", "esc":
		return Navigate("dashboard")
	}
	return nil
}

func (s *Projects) handleSearchKey(msg tea.KeyMsg) tea.Cmd {
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

func (s *Projects) handleModalKey(msg tea.KeyMsg) tea.Cmd {
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

func (s *Projects) bindForm() {
	switch s.ctrl.Mode() {
	case modal.ModeCreate:
		d := s.ctrl.Draft()
		d.Name = s.form.Value("name")
		d.Description = s.form.Value("description")
		d.ColorHex = s.form.Value("color")
		d.ClientID = s.form.Value("client")
	case modal.ModeUpdate:
		s.update = models.ProjectUpdate{
			ID:          s.ctrl.Selected().ID,
			Name:        s.form.Value("name"),
			Description: s.form.Value("description"),
			ColorHex:    s.form.Value("color"),
			ClientID:    s.form.Value("client"),
		}
	case modal.ModeAddRelation:
		d := s.ctrl.RelationDraft()
		d.UserID = s.form.Value("user")
		d.RoleID = s.form.Value("role")
	case modal.ModeRemoveRelation:
		s.relationID = s.form.Value("member")
	}
}

func (s *Projects) save() tea.Cmd {
	ctx := s.ctx
	mode := s.ctrl.Mode()
	return func() tea.Msg {
		return projectsSavedMsg{err: s.disp.Save(ctx, mode)}
	}
}

func (s *Projects) View() string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render("PROJECTS"))
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
		b.WriteString(DimStyle.Render("No projects found."))
		b.WriteString("\n\n")
	} else {
		for i, project := range rows {
			cursor := "  "
			style := NormalStyle
			if i == s.cursor {
				cursor = "> "
				style = SelectedStyle
			}
			clientName := "-"
			if project.Client != nil {
				clientName = project.Client.UserName
			}
			b.WriteString(style.Render(fmt.Sprintf("%s%-25s %-15s %d members",
				cursor, project.Name, clientName, len(project.ProjectUsers))))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	help := "[a] Add  [e] Edit  [d] Delete  [u] Add member  [x] Remove member  [/] Search  [r] Refresh  [q] Back"
	b.WriteString(HelpStyle.Render(help))
	return b.String()
}

func (s *Projects) modalView() string {
	switch s.ctrl.Mode() {
	case modal.ModeCreate:
		return RenderModal("New project", s.form.View(), "Create", false)
	case modal.ModeUpdate:
		return RenderModal("Edit project", s.form.View(), "Save", false)
	case modal.ModeDelete:
		body := fmt.Sprintf("Delete project '%s'?", s.ctrl.Selected().Name)
		return RenderModal("Delete project", WarningStyle.Render(body), "Delete", true)
	case modal.ModeAddRelation:
		title := fmt.Sprintf("Add member to %s", s.ctrl.Selected().Name)
		return RenderModal(title, s.form.View(), "Add", false)
	case modal.ModeRemoveRelation:
		title := fmt.Sprintf("Remove member from %s", s.ctrl.Selected().Name)
		return RenderModal(title, s.form.View(), "Remove", true)
	}
	return ""
}
