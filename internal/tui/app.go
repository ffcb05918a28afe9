package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hgdelgado/timedeck/internal/api"
	"github.com/hgdelgado/timedeck/internal/config"
	"github.com/hgdelgado/timedeck/internal/models"
	"github.com/hgdelgado/timedeck/internal/session"
	"github.com/hgdelgado/timedeck/internal/tui/screens"
)

type Screen int

const (
	ScreenLogin Screen = iota
	ScreenDashboard
	ScreenUsers
	ScreenRoles
	ScreenProjects
	ScreenTasks
	ScreenTimeEntries
)

type App struct {
	cfg           *config.Config
	client        *api.Client
	sess          *session.Session
	currentScreen Screen
	width         int
	height        int

	// Screen models
	login       *screens.LoginScreen
	dashboard   *screens.Dashboard
	users       *screens.Users
	roles       *screens.Roles
	projects    *screens.Projects
	tasks       *screens.Tasks
	timeEntries *screens.TimeEntries
}

// NewApp wires the screens around one shared client and session. sess may
// be nil or expired; the app then starts on the login screen.
func NewApp(cfg *config.Config, client *api.Client, sess *session.Session) *App {
	return &App{
		cfg:    cfg,
		client: client,
		sess:   sess,
	}
}

func (a *App) Init() tea.Cmd {
	a.login = screens.NewLoginScreen(a.client)

	if a.sess.Expired() {
		a.currentScreen = ScreenLogin
		return a.login.Init()
	}

	a.buildScreens()
	a.currentScreen = ScreenDashboard
	return a.dashboard.Init()
}

// buildScreens constructs the signed-in screens. Stores scope themselves to
// the session user inside, so this runs again after every login.
func (a *App) buildScreens() {
	a.dashboard = screens.NewDashboard(a.client, a.sess)
	a.users = screens.NewUsers(a.client, a.cfg.PageSize)
	a.roles = screens.NewRoles(a.client, a.cfg.PageSize)
	a.projects = screens.NewProjects(a.client, a.sess, a.cfg.PageSize)
	a.tasks = screens.NewTasks(a.client, a.sess, a.cfg.PageSize)
	a.timeEntries = screens.NewTimeEntries(a.client, a.sess, a.cfg.PageSize)
	a.setSizes()
}

func (a *App) setSizes() {
	for _, s := range a.sizables() {
		if s != nil {
			s.SetSize(a.width, a.height)
		}
	}
}

type sizable interface {
	SetSize(width, height int)
}

func (a *App) sizables() []sizable {
	return []sizable{a.login, a.dashboard, a.users, a.roles, a.projects, a.tasks, a.timeEntries}
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return a, tea.Quit
		case "q":
			if a.currentScreen == ScreenDashboard {
				return a, tea.Quit
			}
			// Screens interpret 'q' as back themselves
		}

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.setSizes()

	case screens.LoginDoneMsg:
		a.sess = msg.Sess
		a.client.SetSession(msg.Sess)
		a.buildScreens()
		a.currentScreen = ScreenDashboard
		return a, a.dashboard.Init()

	case screens.SessionExpiredMsg:
		a.currentScreen = ScreenLogin
		return a, a.login.Init()

	case screens.NavigateMsg:
		return a.handleNavigation(msg)
	}

	var cmd tea.Cmd
	switch a.currentScreen {
	case ScreenLogin:
		cmd = a.login.Update(msg)
	case ScreenDashboard:
		cmd = a.dashboard.Update(msg)
	case ScreenUsers:
		cmd = a.users.Update(msg)
	case ScreenRoles:
		cmd = a.roles.Update(msg)
	case ScreenProjects:
		cmd = a.projects.Update(msg)
	case ScreenTasks:
		cmd = a.tasks.Update(msg)
	case ScreenTimeEntries:
		cmd = a.timeEntries.Update(msg)
	}

	return a, cmd
}

func (a *App) handleNavigation(msg screens.NavigateMsg) (tea.Model, tea.Cmd) {
	switch msg.Screen {
	case "login":
		a.currentScreen = ScreenLogin
		return a, a.login.Init()
	case "dashboard":
		a.currentScreen = ScreenDashboard
		return a, a.dashboard.Init()
	case "users":
		if a.sess.HasRole(models.RoleAdmin) {
			a.currentScreen = ScreenUsers
			return a, a.users.Init()
		}
	case "roles":
		if a.sess.HasRole(models.RoleAdmin) {
			a.currentScreen = ScreenRoles
			return a, a.roles.Init()
		}
	case "projects":
		a.currentScreen = ScreenProjects
		return a, a.projects.Init()
	case "tasks":
		a.currentScreen = ScreenTasks
		return a, a.tasks.Init()
	case "timeentries":
		a.currentScreen = ScreenTimeEntries
		return a, a.timeEntries.Init()
	}
	return a, nil
}

func (a *App) View() string {
	var content string

	switch a.currentScreen {
	case ScreenLogin:
		content = a.login.View()
	case ScreenDashboard:
		content = a.dashboard.View()
	case ScreenUsers:
		content = a.users.View()
	case ScreenRoles:
		content = a.roles.View()
	case ScreenProjects:
		content = a.projects.View()
	case ScreenTasks:
		content = a.tasks.View()
	case ScreenTimeEntries:
		content = a.timeEntries.View()
	}

	return lipgloss.NewStyle().
		Width(a.width).
		Height(a.height).
		Render(content)
}

func Run(cfg *config.Config, client *api.Client, sess *session.Session) error {
	app := NewApp(cfg, client, sess)
	p := tea.NewProgram(app, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
