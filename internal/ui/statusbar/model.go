package statusbar

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"billfold/internal/session"
)

var (
	barStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#333333")).
			Foreground(lipgloss.Color("#FFFFFF"))

	userStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#333333")).
			Foreground(lipgloss.Color("#2EC27E")).
			Padding(0, 1)

	balanceStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#2EC27E")).
			Foreground(lipgloss.Color("#000000")).
			Bold(true).
			Padding(0, 1)

	statusTextStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#333333")).
			Foreground(lipgloss.Color("#AAAAAA")).
			Padding(0, 1)

	offlineStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#8B0000")).
			Foreground(lipgloss.Color("#FFFFFF")).
			Bold(true).
			Padding(0, 1)
)

// Model is the one-line status bar at the bottom of the screen.
type Model struct {
	width    int
	profile  session.Profile
	loggedIn bool
	status   string
	isError  bool
}

func New() Model {
	return Model{}
}

// SetSize sets the bar width.
func (m *Model) SetSize(w int) {
	m.width = w
}

// SetProfile updates the identity section.
func (m *Model) SetProfile(p session.Profile, loggedIn bool) {
	m.profile = p
	m.loggedIn = loggedIn
}

// SetStatus shows a transient message in the middle section.
func (m *Model) SetStatus(text string, isError bool) {
	m.status = text
	m.isError = isError
}

// View renders the bar.
func (m Model) View() string {
	var left string
	if m.loggedIn {
		left = userStyle.Render(m.profile.Username) +
			balanceStyle.Render(fmt.Sprintf("$%.2f", m.profile.Balance))
	} else {
		left = offlineStyle.Render("not logged in")
	}

	middle := ""
	if m.status != "" {
		middle = statusTextStyle.Render(m.status)
	}

	bar := left + middle
	if pad := m.width - lipgloss.Width(bar); pad > 0 {
		bar += barStyle.Render(strings.Repeat(" ", pad))
	}
	return bar
}
