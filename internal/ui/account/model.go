package account

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"billfold/internal/api"
	"billfold/internal/session"
	"billfold/internal/ui/messages"
)

var (
	titleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#2EC27E")).Bold(true).
			Padding(1, 0)
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#828282"))
	valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Bold(true)
	hintStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
)

// Model is the account overview view: profile, balance, and the aggregate
// figures loaded alongside it.
type Model struct {
	manager  *session.Manager
	client   *api.Client
	profile  session.Profile
	overview *api.Overview
	loading  bool
	width    int
	height   int
}

// New creates the account view.
func New(manager *session.Manager, client *api.Client) Model {
	return Model{manager: manager, client: client}
}

// SetSize sets the viewport dimensions.
func (m *Model) SetSize(w, h int) {
	m.width = w
	m.height = h
}

// SetProfile updates the rendered profile.
func (m *Model) SetProfile(p session.Profile) {
	m.profile = p
}

// Load fetches the overview sections concurrently.
func (m *Model) Load() tea.Cmd {
	m.loading = true
	client := m.client
	return func() tea.Msg {
		overview, err := client.FetchOverview(context.Background(), 5)
		return messages.OverviewLoadedMsg{Overview: overview, Err: err}
	}
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case messages.OverviewLoadedMsg:
		m.loading = false
		if msg.Err == nil {
			m.overview = msg.Overview
		}
		return m, nil

	case messages.ProfileRefreshedMsg:
		m.profile = msg.Profile
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "r":
			manager := m.manager
			refresh := func() tea.Msg {
				if manager.RefreshOnEvent(context.Background()).OK() {
					return messages.ProfileRefreshedMsg{Profile: manager.UserData()}
				}
				return messages.StatusMsg{Text: "refresh failed", IsError: true}
			}
			return m, tea.Batch(refresh, m.Load())
		case "t":
			return m, func() tea.Msg { return messages.OpenTransactionsMsg{} }
		case "L":
			m.manager.Logout()
			return m, func() tea.Msg { return messages.SessionEndedMsg{} }
		}
	}
	return m, nil
}

// View renders the account overview.
func (m Model) View() string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render("Account"))
	sb.WriteString("\n\n")
	sb.WriteString(row("Username", m.profile.Username))
	sb.WriteString(row("Balance", fmt.Sprintf("$%.2f", m.profile.Balance)))
	sb.WriteString(row("Status", m.profile.Status))
	sb.WriteString("\n")

	switch {
	case m.loading:
		sb.WriteString(labelStyle.Render("Loading overview..."))
		sb.WriteString("\n")
	case m.overview != nil:
		if stats := m.overview.WithdrawalStats; stats != nil {
			sb.WriteString(row("Withdrawn this month", fmt.Sprintf("$%.2f", float64(stats.MonthlyTotal)/100)))
			sb.WriteString(row("Withdrawal frequency", fmt.Sprintf("%d per month", stats.Frequency)))
		}
		sb.WriteString(row("Cards on file", fmt.Sprintf("%d", len(m.overview.Cards))))
		if len(m.overview.RecentDeposits) > 0 {
			sb.WriteString("\n")
			sb.WriteString(labelStyle.Render("Recent deposits"))
			sb.WriteString("\n")
			for _, d := range m.overview.RecentDeposits {
				sb.WriteString(fmt.Sprintf("  %s  %s  %s\n",
					valueStyle.Render(fmt.Sprintf("$%.2f", d.Amount)),
					labelStyle.Render(d.Status),
					labelStyle.Render(d.CreatedAt)))
			}
		}
	}

	sb.WriteString("\n")
	sb.WriteString(hintStyle.Render("r refresh · t transactions · L logout"))

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, sb.String())
}

func row(label, value string) string {
	return fmt.Sprintf("%s %s\n", labelStyle.Render(fmt.Sprintf("%-22s", label+":")), valueStyle.Render(value))
}
