package screens

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/hgdelgado/timedeck/internal/api"
	"github.com/hgdelgado/timedeck/internal/models"
	"github.com/hgdelgado/timedeck/internal/session"
	"github.com/hgdelgado/timedeck/internal/store"
)

// Dashboard greets the signed-in user and shows entity counts.
type Dashboard struct {
	client *api.Client
	sess   *session.Session
	width  int
	height int

	projectCount   int
	taskCount      int
	timeEntryCount int
	loading        bool
	err            error

	ctx    context.Context
	cancel context.CancelFunc
}

func NewDashboard(client *api.Client, sess *session.Session) *Dashboard {
	return &Dashboard{
		client:  client,
		sess:    sess,
		loading: true,
	}
}

func (d *Dashboard) SetSize(width, height int) {
	d.width = width
	d.height = height
}

type dashboardDataMsg struct {
	projectCount   int
	taskCount      int
	timeEntryCount int
	err            error
}

func (d *Dashboard) Init() tea.Cmd {
	if d.cancel != nil {
		d.cancel()
	}
	d.ctx, d.cancel = context.WithCancel(context.Background())
	d.loading = true
	return d.loadData
}

func (d *Dashboard) loadData() tea.Msg {
	ctx := d.ctx
	admin := d.sess.HasRole(models.RoleAdmin)

	var (
		projects []models.Project
		err      error
	)
	if admin {
		projects, _, err = d.client.GetAllProjects(ctx)
	} else {
		projects, _, err = d.client.GetProjectsByUserID(ctx, d.sess.UserID)
	}
	if err != nil {
		return dashboardDataMsg{err: err}
	}

	// First-page fetches with size 1 are the cheapest way to get totals.
	var taskTotal, entryTotal int
	if admin {
		_, taskTotal, err = d.client.GetProjectTasksPage(ctx, 1, 1)
	} else {
		_, taskTotal, err = d.client.GetProjectTasksPageByUserID(ctx, d.sess.UserID, 1, 1)
	}
	if err != nil {
		return dashboardDataMsg{err: err}
	}

	if admin {
		_, entryTotal, err = d.client.GetTimeEntriesPage(ctx, 1, 1)
	} else {
		_, entryTotal, err = d.client.GetTimeEntriesPageByUserID(ctx, d.sess.UserID, 1, 1)
	}
	if err != nil {
		return dashboardDataMsg{err: err}
	}

	return dashboardDataMsg{
		projectCount:   len(projects),
		taskCount:      taskTotal,
		timeEntryCount: entryTotal,
	}
}

func (d *Dashboard) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case dashboardDataMsg:
		d.loading = false
		d.err = msg.err
		if msg.err != nil {
			if api.Unauthorized(msg.err) {
				return SessionExpired()
			}
			if store.Canceled(msg.err) {
				d.err = nil
			}
			return nil
		}
		d.projectCount = msg.projectCount
		d.taskCount = msg.taskCount
		d.timeEntryCount = msg.timeEntryCount
		return nil

	case RefreshMsg:
		return d.Init()

	case tea.KeyMsg:
		switch msg.String() {
		case "p":
			return Navigate("projects")
		case "t":
			return Navigate("tasks")
		case "y":
			return Navigate("timeentries")
		case "u":
			if d.sess.HasRole(models.RoleAdmin) {
				return Navigate("users")
			}
		case "o":
			if d.sess.HasRole(models.RoleAdmin) {
				return Navigate("roles")
			}
		case "r":
			return d.Init()
		}
	}

	return nil
}

func (d *Dashboard) View() string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render("TIMEDECK"))
	b.WriteString("\n")
	b.WriteString(SubtitleStyle.Render(fmt.Sprintf("Signed in as %s (%s)",
		d.sess.Name, strings.Join(d.sess.Roles, ", "))))
	b.WriteString("\n\n")

	if d.loading {
		b.WriteString("Loading...\n")
		return b.String()
	}

	if d.err != nil {
		b.WriteString(ErrorStyle.Render(fmt.Sprintf("Error: %v", d.err)))
		b.WriteString("\n")
		return b.String()
	}

	stats := fmt.Sprintf(
		"Projects: %d\nTasks: %d\nTime entries: %d",
		d.projectCount,
		d.taskCount,
		d.timeEntryCount,
	)
	b.WriteString(BoxStyle.Render(stats))
	b.WriteString("\n\n")

	help := "[p] Projects  [t] Tasks  [y] Time entries"
	if d.sess.HasRole(models.RoleAdmin) {
		help += "  [u] Users  [o] Roles"
	}
	help += "  [r] Refresh  [q] Quit"
	b.WriteString(HelpStyle.Render(help))

	return b.String()
}
