package screens

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/hgdelgado/timedeck/internal/api"
	"github.com/hgdelgado/timedeck/internal/session"
	"github.com/hgdelgado/timedeck/internal/store"
	"github.com/hgdelgado/timedeck/internal/validate"
)

// LoginDoneMsg carries the freshly decoded session up to the app.
type LoginDoneMsg struct {
	Sess *session.Session
}

type loginResultMsg struct {
	sess *session.Session
	err  error
}

// LoginScreen authenticates against the backend and persists the session.
type LoginScreen struct {
	client *api.Client

	email    textinput.Model
	password textinput.Model
	focus    int
	busy     bool
	err      string

	width  int
	height int
	ctx    context.Context
	cancel context.CancelFunc
}

func (s *LoginScreen) SetSize(width, height int) {
	s.width = width
	s.height = height
}

func NewLoginScreen(client *api.Client) *LoginScreen {
	email := textinput.New()
	email.Placeholder = "you@example.com"
	email.Width = 40
	email.Focus()

	password := textinput.New()
	password.Placeholder = "password"
	password.Width = 40
	password.EchoMode = textinput.EchoPassword

	return &LoginScreen{
		client:   client,
		email:    email,
		password: password,
	}
}

func (s *LoginScreen) Init() tea.Cmd {
	if s.cancel != nil {
		s.cancel()
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.busy = false
	s.err = ""
	return textinput.Blink
}

func (s *LoginScreen) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case loginResultMsg:
		s.busy = false
		if msg.err != nil {
			if !store.Canceled(msg.err) {
				s.err = msg.err.Error()
			}
			return nil
		}
		sess := msg.sess
		return func() tea.Msg { return LoginDoneMsg{Sess: sess} }

	case tea.KeyMsg:
		if s.busy {
			return nil
		}
		switch msg.String() {
		case "ctrl+c":
			return tea.Quit
		case "tab", "shift+tab", "up", "down":
			s.toggleFocus()
			return nil
		case "enter":
			return s.submit()
		}
	}

	var cmd tea.Cmd
	if s.focus == 0 {
		s.email, cmd = s.email.Update(msg)
	} else {
		s.password, cmd = s.password.Update(msg)
	}
	return cmd
}

func (s *LoginScreen) toggleFocus() {
	if s.focus == 0 {
		s.focus = 1
		s.email.Blur()
		s.password.Focus()
	} else {
		s.focus = 0
		s.password.Blur()
		s.email.Focus()
	}
}

func (s *LoginScreen) submit() tea.Cmd {
	email := strings.TrimSpace(s.email.Value())
	password := s.password.Value()

	if err := validate.Collect(
		validate.Email("email", email),
		validate.Required("password", password),
	); len(err) > 0 {
		s.err = err[0].Message
		return nil
	}

	s.err = ""
	s.busy = true
	ctx := s.ctx
	return func() tea.Msg {
		token, err := s.client.Login(ctx, api.LoginRequest{Email: email, Password: password})
		if err != nil {
			return loginResultMsg{err: err}
		}
		sess, err := session.Decode(token)
		if err != nil {
			return loginResultMsg{err: err}
		}
		if err := session.Save(sess); err != nil {
			return loginResultMsg{err: err}
		}
		return loginResultMsg{sess: sess}
	}
}

func (s *LoginScreen) View() string {
	var b strings.Builder
	b.WriteString(TitleStyle.Render("Timedeck"))
	b.WriteString("\n")
	b.WriteString(SubtitleStyle.Render("Sign in to continue"))
	b.WriteString("\n\n")

	b.WriteString(s.label("Email", 0) + "\n  " + s.email.View() + "\n")
	b.WriteString(s.label("Password", 1) + "\n  " + s.password.View() + "\n")

	if s.busy {
		b.WriteString("\n" + WarningStyle.Render("Signing in..."))
	}
	if s.err != "" {
		b.WriteString("\n" + ErrorStyle.Render(s.err))
	}

	b.WriteString("\n")
	b.WriteString(HelpStyle.Render("[tab] Switch field  [enter] Sign in  [ctrl+c] Quit"))
	return b.String()
}

func (s *LoginScreen) label(text string, idx int) string {
	if s.focus == idx {
		return SelectedStyle.Render("> " + text)
	}
	return NormalStyle.Render("  " + text)
}
