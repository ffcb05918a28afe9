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
	"github.com/hgdelgado/timedeck/internal/store"
	"github.com/hgdelgado/timedeck/internal/validate"
)

// Roles manages the role catalog. Admin only.
type Roles struct {
	client *api.Client
	width  int
	height int

	store *store.RoleStore
	ctrl  *modal.Controller[models.Role, models.RoleDraft, struct{}, struct{}]
	disp  *modal.Dispatcher

	update    models.RoleUpdate
	form      *Form
	search    textinput.Model
	searching bool
	cursor    int
	err       error
	message   string

	ctx    context.Context
	cancel context.CancelFunc
}

func NewRoles(client *api.Client, pageSize int) *Roles {
	search := textinput.New()
	search.Placeholder = "Search roles"
	search.Width = 30

	s := &Roles{
		client: client,
		store:  store.NewRoleStore(client, pageSize),
		search: search,
	}

	s.ctrl = modal.NewController(modal.Config[models.Role, models.RoleDraft, struct{}, struct{}]{
		Modes: []modal.Mode{modal.ModeCreate, modal.ModeUpdate, modal.ModeDelete},
		NewDraft: func(*models.Role) models.RoleDraft {
			return models.RoleDraft{RoleGroup: 1}
		},
	})

	s.disp = modal.MustDispatcher(
		[]modal.Mode{modal.ModeCreate, modal.ModeUpdate, modal.ModeDelete},
		func(mode modal.Mode) []validate.FieldError {
			switch mode {
			case modal.ModeCreate:
				d := s.ctrl.Draft()
				return validate.RoleDraft(d.Name, d.RoleGroup)
			case modal.ModeUpdate:
				return validate.RoleDraft(s.update.Name, s.update.RoleGroup)
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
		},
	)

	return s
}

func (s *Roles) SetSize(width, height int) {
	s.width = width
	s.height = height
}

type rolesDataMsg struct{ err error }
type rolesSavedMsg struct{ err error }

func (s *Roles) Init() tea.Cmd {
	if s.cancel != nil {
		s.cancel()
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.message = ""
	s.err = nil
	return s.loadData
}

func (s *Roles) loadData() tea.Msg {
	return rolesDataMsg{err: s.store.Fetch(s.ctx)}
}

func (s *Roles) visible() []models.Role {
	return filter.Apply(s.store.Items(), s.search.Value(), func(r models.Role) []string {
		return []string{r.Name}
	})
}

func (s *Roles) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case rolesDataMsg:
		if msg.err != nil {
			return s.handleError(msg.err)
		}
		s.clampCursor()
		return nil

	case rolesSavedMsg:
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

func (s *Roles) handleError(err error) tea.Cmd {
	if store.Canceled(err) {
		return nil
	}
	if api.Unauthorized(err) {
		return SessionExpired()
	}
	s.err = err
	return nil
}

func (s *Roles) clampCursor() {
	if n := len(s.visible()); s.cursor >= n {
		s.cursor = n - 1
	}
	if s.cursor < 0 {
		s.cursor = 0
	}
}

func (s *Roles) handleKey(msg tea.KeyMsg) tea.Cmd {
	if s.ctrl.Visible() {
		return s.handleModalKey(msg)
	}
	if s.searching {
		return s.handleSearchKey(msg)
	}
	return s.handleListKey(msg)
}

func (s *Roles) handleListKey(msg tea.KeyMsg) tea.Cmd {
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
			NewTextField("name", "Name", "", "Role name"),
			NewTextField("role group", "Role group", "1", "Numeric group"),
		)
	case "e":
		if len(rows) > 0 {
			role := rows[s.cursor]
			s.ctrl.Show(&role, nil, modal.ModeUpdate)
			s.form = NewForm(
				NewTextField("name", "Name", role.Name, "Role name"),
				NewTextField("role group", "Role group", strconv.Itoa(role.RoleGroup), "Numeric group"),
			)
		}
	case "d":
		if len(rows) > 0 {
			role := rows[s.cursor]
			s.ctrl.Show(&role, nil, modal.ModeDelete)
			s.form = nil
		}
	case "r":
		return s.Init()
	case "q", "esc":
		return Navigate("dashboard")
	}
	return nil
}

func (s *Roles) handleSearchKey(msg tea.KeyMsg) tea.Cmd {
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

func (s *Roles) handleModalKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		s.ctrl.Hide()
		return nil
	case "enter":
		if err := s.bindForm(); err != nil {
			return nil
		}
		return s.save()
	}
	if s.form != nil {
		return s.form.Update(msg)
	}
	return nil
}

// bindForm copies form values into the staged draft or update.
func (s *Roles) bindForm() error {
	switch s.ctrl.Mode() {
	case modal.ModeCreate:
		d := s.ctrl.Draft()
		d.Name = s.form.Value("name")
		d.RoleGroup = parseIntField(s.form, "role group")
	case modal.ModeUpdate:
		s.update = models.RoleUpdate{
			ID:        s.ctrl.Selected().ID,
			Name:      s.form.Value("name"),
			RoleGroup: parseIntField(s.form, "role group"),
		}
	}
	return nil
}

func (s *Roles) save() tea.Cmd {
	ctx := s.ctx
	mode := s.ctrl.Mode()
	return func() tea.Msg {
		return rolesSavedMsg{err: s.disp.Save(ctx, mode)}
	}
}

func (s *Roles) View() string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render("ROLES"))
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
		b.WriteString(DimStyle.Render("No roles found."))
		b.WriteString("\n\n")
	} else {
		for i, role := range rows {
			cursor := "  "
			style := NormalStyle
			if i == s.cursor {
				cursor = "> "
				style = SelectedStyle
			}
			b.WriteString(style.Render(fmt.Sprintf("%s%-30s group %d", cursor, role.Name, role.RoleGroup)))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	help := "[a] Add  [e] Edit  [d] Delete  [/] Search  [r] Refresh  [q] Back"
	b.WriteString(HelpStyle.Render(help))
	return b.String()
}

func (s *Roles) modalView() string {
	switch s.ctrl.Mode() {
	case modal.ModeCreate:
		return RenderModal("New role", s.form.View(), "Create", false)
	case modal.ModeUpdate:
		return RenderModal("Edit role", s.form.View(), "Save", false)
	case modal.ModeDelete:
		body := fmt.Sprintf("Delete role '%s'?", s.ctrl.Selected().Name)
		return RenderModal("Delete role", WarningStyle.Render(body), "Delete", true)
	}
	return ""
}
