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
	"github.com/hgdelgado/timedeck/internal/store"
	"github.com/hgdelgado/timedeck/internal/validate"
)

// Users manages accounts and their role assignments. Admin only.
// Profile edits and role edits are separate dialogs so a role change can
// never clobber concurrent profile fields and vice versa.
type Users struct {
	client *api.Client
	width  int
	height int

	store *store.UserStore
	ctrl  *modal.Controller[models.User, models.UserDraft, struct{}, struct{}]
	disp  *modal.Dispatcher

	allRoles []models.Role

	update models.UserUpdate
	form   *Form

	// role toggle dialog state
	roleCursor int
	roleChecks map[string]bool

	search    textinput.Model
	searching bool
	cursor    int
	err       error
	message   string

	ctx    context.Context
	cancel context.CancelFunc
}

var userModes = []modal.Mode{
	modal.ModeCreate,
	modal.ModeUpdateUser,
	modal.ModeUpdateRoles,
	modal.ModeDelete,
}

func NewUsers(client *api.Client, pageSize int) *Users {
	search := textinput.New()
	search.Placeholder = "Search users"
	search.Width = 30

	s := &Users{
		client: client,
		store:  store.NewUserStore(client, pageSize),
		search: search,
	}

	s.ctrl = modal.NewController(modal.Config[models.User, models.UserDraft, struct{}, struct{}]{
		Modes: userModes,
		NewDraft: func(*models.User) models.UserDraft {
			return models.UserDraft{Roles: []string{models.RoleUser}}
		},
	})

	s.disp = modal.MustDispatcher(
		userModes,
		func(mode modal.Mode) []validate.FieldError {
			switch mode {
			case modal.ModeCreate:
				return validate.UserDraft(*s.ctrl.Draft())
			case modal.ModeUpdateUser, modal.ModeUpdateRoles:
				return validate.UserUpdate(s.update)
			}
			return nil
		},
		map[modal.Mode]modal.Handler{
			modal.ModeCreate: func(ctx context.Context) error {
				return s.store.Create(ctx, *s.ctrl.Draft())
			},
			modal.ModeUpdateUser: func(ctx context.Context) error {
				return s.store.Update(ctx, s.update)
			},
			modal.ModeUpdateRoles: func(ctx context.Context) error {
				return s.store.Update(ctx, s.update)
			},
			modal.ModeDelete: func(ctx context.Context) error {
				return s.store.Remove(ctx, s.ctrl.Selected().ID)
			},
		},
	)

	return s
}

func (s *Users) SetSize(width, height int) {
	s.width = width
	s.height = height
}

type usersDataMsg struct {
	roles []models.Role
	err   error
}

type usersSavedMsg struct{ err error }

func (s *Users) Init() tea.Cmd {
	if s.cancel != nil {
		s.cancel()
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.message = ""
	s.err = nil
	return s.loadData
}

func (s *Users) loadData() tea.Msg {
	if err := s.store.Fetch(s.ctx); err != nil {
		return usersDataMsg{err: err}
	}
	roles, _, err := s.client.GetAllRoles(s.ctx)
	return usersDataMsg{roles: roles, err: err}
}

func (s *Users) visible() []models.User {
	return filter.Apply(s.store.Items(), s.search.Value(), func(u models.User) []string {
		return []string{u.UserName, u.Email}
	})
}

func (s *Users) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case usersDataMsg:
		if msg.err != nil {
			return s.handleError(msg.err)
		}
		s.allRoles = msg.roles
		s.clampCursor()
		return nil

	case usersSavedMsg:
		if msg.err != nil {
			var ve *modal.ValidationError
			if errors.As(msg.err, &ve) {
				if s.form != nil {
					s.form.SetErrors(ve.Fields)
				} else {
					s.err = ve
				}
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

func (s *Users) handleError(err error) tea.Cmd {
	if store.Canceled(err) {
		return nil
	}
	if api.Unauthorized(err) {
		return SessionExpired()
	}
	s.err = err
	return nil
}

func (s *Users) clampCursor() {
	if n := len(s.visible()); s.cursor >= n {
		s.cursor = n - 1
	}
	if s.cursor < 0 {
		s.cursor = 0
	}
}

func (s *Users) handleKey(msg tea.KeyMsg) tea.Cmd {
	if s.ctrl.Visible() {
		if s.ctrl.Mode() == modal.ModeUpdateRoles {
			return s.handleRolesKey(msg)
		}
		return s.handleModalKey(msg)
	}
	if s.searching {
		return s.handleSearchKey(msg)
	}
	return s.handleListKey(msg)
}

func (s *Users) handleListKey(msg tea.KeyMsg) tea.Cmd {
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
			NewTextField("username", "Username", "", "Username"),
			NewTextField("email", "Email", "", "you@example.com"),
			NewTextField("password", "Password", "", "At least 6 characters"),
		)
	case "e":
		if len(rows) > 0 {
			user := rows[s.cursor]
			s.ctrl.Show(&user, nil, modal.ModeUpdateUser)
			s.form = NewForm(
				NewTextField("username", "Username", user.UserName, "Username"),
				NewTextField("email", "Email", user.Email, "you@example.com"),
			)
		}
	case "u":
		if len(rows) > 0 {
			user := rows[s.cursor]
			s.ctrl.Show(&user, nil, modal.ModeUpdateRoles)
			s.form = nil
			s.roleCursor = 0
			s.roleChecks = make(map[string]bool, len(user.Roles))
			for _, r := range user.Roles {
				s.roleChecks[r] = true
			}
		}
	case "d":
		if len(rows) > 0 {
			user := rows[s.cursor]
			s.ctrl.Show(&user, nil, modal.ModeDelete)
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

func (s *Users) handleSearchKey(msg tea.KeyMsg) tea.Cmd {
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

func (s *Users) handleModalKey(msg tea.KeyMsg) tea.Cmd {
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

func (s *Users) handleRolesKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "up", "k":
		if s.roleCursor > 0 {
			s.roleCursor--
		}
	case "down", "j":
		if s.roleCursor < len(s.allRoles)-1 {
			s.roleCursor++
		}
	case " ":
		if len(s.allRoles) > 0 {
			name := s.allRoles[s.roleCursor].Name
			s.roleChecks[name] = !s.roleChecks[name]
		}
	case "enter":
		s.bindRoles()
		return s.save()
	case "esc":
		s.ctrl.Hide()
	}
	return nil
}

func (s *Users) bindForm() {
	switch s.ctrl.Mode() {
	case modal.ModeCreate:
		d := s.ctrl.Draft()
		d.UserName = s.form.Value("username")
		d.Email = s.form.Value("email")
		d.Password = s.form.Value("password")
	case modal.ModeUpdateUser:
		sel := s.ctrl.Selected()
		s.update = models.UserUpdate{
			ID:       sel.ID,
			UserName: s.form.Value("username"),
			Email:    s.form.Value("email"),
		}
	}
}

// bindRoles keeps the profile fields as-is and swaps the role set.
func (s *Users) bindRoles() {
	sel := s.ctrl.Selected()
	roles := make([]string, 0, len(s.roleChecks))
	for _, r := range s.allRoles {
		if s.roleChecks[r.Name] {
			roles = append(roles, r.Name)
		}
	}
	s.update = models.UserUpdate{
		ID:       sel.ID,
		UserName: sel.UserName,
		Email:    sel.Email,
		Roles:    roles,
	}
}

func (s *Users) save() tea.Cmd {
	ctx := s.ctx
	mode := s.ctrl.Mode()
	return func() tea.Msg {
		return usersSavedMsg{err: s.disp.Save(ctx, mode)}
	}
}

func (s *Users) View() string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render("USERS"))
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
		b.WriteString(DimStyle.Render("No users found."))
		b.WriteString("\n\n")
	} else {
		for i, user := range rows {
			cursor := "  "
			style := NormalStyle
			if i == s.cursor {
				cursor = "> "
				style = SelectedStyle
			}
			b.WriteString(style.Render(fmt.Sprintf("%s%-20s %-30s %s",
				cursor, user.UserName, user.Email, strings.Join(user.Roles, ", "))))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	b.WriteString(Pager(s.store.Page(), s.store.PageSize(), s.store.TotalCount()))
	b.WriteString("\n")

	help := "[a] Add  [e] Edit  [u] Roles  [d] Delete  [/] Search  [[/]] Page  [r] Refresh  [q] Back"
	b.WriteString(HelpStyle.Render(help))
	return b.String()
}

func (s *Users) modalView() string {
	switch s.ctrl.Mode() {
	case modal.ModeCreate:
		return RenderModal("New user", s.form.View(), "Create", false)
	case modal.ModeUpdateUser:
		return RenderModal("Edit user", s.form.View(), "Save", false)
	case modal.ModeUpdateRoles:
		return RenderModal(
			fmt.Sprintf("Roles for %s", s.ctrl.Selected().UserName),
			s.rolesView(), "Save", false)
	case modal.ModeDelete:
		body := fmt.Sprintf("Delete user '%s'?", s.ctrl.Selected().UserName)
		return RenderModal("Delete user", WarningStyle.Render(body), "Delete", true)
	}
	return ""
}

func (s *Users) rolesView() string {
	var b strings.Builder
	if len(s.allRoles) == 0 {
		b.WriteString(DimStyle.Render("No roles defined."))
		return b.String()
	}
	for i, role := range s.allRoles {
		cursor := "  "
		style := NormalStyle
		if i == s.roleCursor {
			cursor = "> "
			style = SelectedStyle
		}
		check := "[ ]"
		if s.roleChecks[role.Name] {
			check = "[x]"
		}
		b.WriteString(style.Render(fmt.Sprintf("%s%s %s", cursor, check, role.Name)))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(DimStyle.Render("[space] Toggle"))
	return b.String()
}
