package screens

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hgdelgado/timedeck/internal/validate"
)

// NavigateMsg is sent when navigation to another screen is requested
type NavigateMsg struct {
	Screen string
}

func Navigate(screen string) tea.Cmd {
	return func() tea.Msg {
		return NavigateMsg{Screen: screen}
	}
}

// RefreshMsg tells the current screen to reload its data
type RefreshMsg struct{}

func Refresh() tea.Cmd {
	return func() tea.Msg {
		return RefreshMsg{}
	}
}

// SessionExpiredMsg routes the app back to the login screen after a 401.
type SessionExpiredMsg struct{}

func SessionExpired() tea.Cmd {
	return func() tea.Msg {
		return SessionExpiredMsg{}
	}
}

// Styles
var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			MarginBottom(1)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			MarginBottom(1)

	HelpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			MarginTop(1)

	SelectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	NormalStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	DimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	SuccessStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	WarningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 1)

	ModalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2)

	DangerModalStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("196")).
				Padding(1, 2)
)

// Choice is one option of a choice field.
type Choice struct {
	ID    string
	Label string
}

type fieldKind int

const (
	fieldText fieldKind = iota
	fieldChoice
)

// Field is one form row: either a free-text input or a left/right choice
// over related records.
type Field struct {
	Name    string // matches validation field names
	Label   string
	Kind    fieldKind
	Input   textinput.Model
	Choices []Choice
	Choice  int
	Err     string
}

func NewTextField(name, label, value, placeholder string) Field {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.SetValue(value)
	ti.CharLimit = 1000
	ti.Width = 40
	return Field{Name: name, Label: label, Kind: fieldText, Input: ti}
}

func NewChoiceField(name, label string, choices []Choice, selectedID string) Field {
	f := Field{Name: name, Label: label, Kind: fieldChoice, Choices: choices}
	for i, c := range choices {
		if c.ID == selectedID {
			f.Choice = i
			break
		}
	}
	return f
}

func (f *Field) Value() string {
	if f.Kind == fieldChoice {
		if len(f.Choices) == 0 {
			return ""
		}
		return f.Choices[f.Choice].ID
	}
	return strings.TrimSpace(f.Input.Value())
}

// Form drives focus and editing across a modal's fields.
type Form struct {
	Fields []Field
	focus  int
}

func NewForm(fields ...Field) *Form {
	form := &Form{Fields: fields}
	if len(form.Fields) > 0 && form.Fields[0].Kind == fieldText {
		form.Fields[0].Input.Focus()
	}
	return form
}

func (f *Form) Value(name string) string {
	for i := range f.Fields {
		if f.Fields[i].Name == name {
			return f.Fields[i].Value()
		}
	}
	return ""
}

// SetErrors attaches validation messages to their fields.
func (f *Form) SetErrors(errs []validate.FieldError) {
	f.ClearErrors()
	for _, err := range errs {
		for i := range f.Fields {
			if strings.EqualFold(f.Fields[i].Name, err.Field) {
				f.Fields[i].Err = err.Message
				break
			}
		}
	}
}

func (f *Form) ClearErrors() {
	for i := range f.Fields {
		f.Fields[i].Err = ""
	}
}

// Update handles focus movement and delegates the rest to the focused
// field. Enter/esc are left for the screen to interpret.
func (f *Form) Update(msg tea.Msg) tea.Cmd {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "tab", "down":
			f.setFocus(f.focus + 1)
			return nil
		case "shift+tab", "up":
			f.setFocus(f.focus - 1)
			return nil
		case "left", "right":
			if cur := f.current(); cur != nil && cur.Kind == fieldChoice {
				delta := 1
				if key.String() == "left" {
					delta = -1
				}
				n := len(cur.Choices)
				if n > 0 {
					cur.Choice = (cur.Choice + delta + n) % n
				}
				return nil
			}
		}
	}

	if cur := f.current(); cur != nil && cur.Kind == fieldText {
		var cmd tea.Cmd
		cur.Input, cmd = cur.Input.Update(msg)
		return cmd
	}
	return nil
}

func (f *Form) current() *Field {
	if f.focus < 0 || f.focus >= len(f.Fields) {
		return nil
	}
	return &f.Fields[f.focus]
}

func (f *Form) setFocus(idx int) {
	if len(f.Fields) == 0 {
		return
	}
	if idx < 0 {
		idx = len(f.Fields) - 1
	}
	idx %= len(f.Fields)

	if cur := f.current(); cur != nil && cur.Kind == fieldText {
		cur.Input.Blur()
	}
	f.focus = idx
	if cur := f.current(); cur != nil && cur.Kind == fieldText {
		cur.Input.Focus()
	}
}

func (f *Form) View() string {
	var b strings.Builder
	for i := range f.Fields {
		field := &f.Fields[i]
		label := field.Label
		if i == f.focus {
			label = SelectedStyle.Render("> " + label)
		} else {
			label = NormalStyle.Render("  " + label)
		}
		b.WriteString(label)
		b.WriteString("\n  ")

		switch field.Kind {
		case fieldText:
			b.WriteString(field.Input.View())
		case fieldChoice:
			if len(field.Choices) == 0 {
				b.WriteString(DimStyle.Render("(none available)"))
			} else {
				b.WriteString("< " + field.Choices[field.Choice].Label + " >")
			}
		}
		b.WriteString("\n")

		if field.Err != "" {
			b.WriteString("  " + ErrorStyle.Render(field.Err) + "\n")
		}
	}
	return b.String()
}

// RenderModal draws the shared dialog shell around a form or confirmation
// body. Danger styling is used for destructive modes.
func RenderModal(title, body, okLabel string, danger bool) string {
	var b strings.Builder
	b.WriteString(TitleStyle.Render(title))
	b.WriteString("\n")
	b.WriteString(body)
	b.WriteString("\n")

	help := "[enter] " + okLabel + "  [esc] Cancel"
	b.WriteString(HelpStyle.Render(help))

	if danger {
		return DangerModalStyle.Render(b.String())
	}
	return ModalStyle.Render(b.String())
}

// parseIntField reads a numeric text field. Garbage parses as zero so the
// entity validation reports the error instead of the parser.
func parseIntField(f *Form, name string) int {
	n, _ := strconv.Atoi(f.Value(name))
	return n
}

// TotalPages returns how many pages total records fill at the given size.
func TotalPages(total, pageSize int) int {
	if pageSize <= 0 || total <= 0 {
		return 1
	}
	pages := (total + pageSize - 1) / pageSize
	if pages < 1 {
		pages = 1
	}
	return pages
}

// Pager renders the "Page x/y (n records)" footer line.
func Pager(page, pageSize, total int) string {
	return DimStyle.Render(fmt.Sprintf("Page %d/%d (%d records)", page, TotalPages(total, pageSize), total))
}
