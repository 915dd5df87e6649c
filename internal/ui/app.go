package ui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"billfold/internal/api"
	"billfold/internal/cache"
	"billfold/internal/config"
	"billfold/internal/session"
	"billfold/internal/ui/account"
	"billfold/internal/ui/login"
	"billfold/internal/ui/messages"
	"billfold/internal/ui/statusbar"
	"billfold/internal/ui/translist"
)

// ViewType identifies the active view.
type ViewType int

const (
	ViewLogin ViewType = iota
	ViewAccount
	ViewTransactions
)

// App is the root Bubble Tea model.
type App struct {
	activeView ViewType

	loginForm    login.Model
	accountView  account.Model
	transactions translist.Model
	statusBar    statusbar.Model

	cfg     config.Config
	client  *api.Client
	cache   *cache.DB
	manager *session.Manager

	width  int
	height int

	// For pushing background refresh results into the event loop.
	program *tea.Program
}

// NewApp creates the root application model.
func NewApp(cfg config.Config, client *api.Client, db *cache.DB, manager *session.Manager) *App {
	return &App{
		activeView:   ViewLogin,
		loginForm:    login.New(manager),
		accountView:  account.New(manager, client),
		transactions: translist.New(cfg, client, db),
		statusBar:    statusbar.New(),
		cfg:          cfg,
		client:       client,
		cache:        db,
		manager:      manager,
	}
}

// SetProgram stores the tea.Program reference and hooks the session
// manager's background callbacks into the event loop.
func (a *App) SetProgram(p *tea.Program) {
	a.program = p
	a.manager.OnUpdate(func(profile session.Profile) {
		p.Send(messages.ProfileRefreshedMsg{Profile: profile})
	})
	a.manager.OnInvalidate(func(reason session.InvalidationReason) {
		p.Send(messages.SessionEndedMsg{Rebuild: reason == session.ReasonIdentityChanged})
	})
}

// Init restores a stored session if one exists.
func (a *App) Init() tea.Cmd {
	return a.tryRestoreSession()
}

// tryRestoreSession validates a stored token against the server. An expired
// token clears itself via the manager; the user just sees the login form.
func (a *App) tryRestoreSession() tea.Cmd {
	manager := a.manager
	return func() tea.Msg {
		if !manager.LoggedIn() {
			return nil
		}
		if !manager.Refresh(context.Background()).OK() {
			return nil
		}
		manager.StartAutoRefresh()
		return messages.SessionRestoredMsg{Profile: manager.UserData()}
	}
}

// Update handles all messages.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		contentHeight := msg.Height - 1 // Reserve 1 line for status bar.
		a.loginForm.SetSize(msg.Width, contentHeight)
		a.accountView.SetSize(msg.Width, contentHeight)
		a.transactions.SetSize(msg.Width, contentHeight)
		a.statusBar.SetSize(msg.Width)
		return a, nil

	case tea.KeyMsg:
		if a.activeView != ViewLogin {
			switch msg.String() {
			case "ctrl+c", "q":
				a.manager.StopAutoRefresh()
				return a, tea.Quit
			case "esc":
				if a.activeView == ViewTransactions {
					a.activeView = ViewAccount
					return a, nil
				}
			}
		} else if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}

	case messages.LoginResultMsg:
		if !msg.Err {
			a.activeView = ViewAccount
			a.accountView.SetProfile(a.manager.UserData())
			a.statusBar.SetProfile(a.manager.UserData(), true)
			cmds = append(cmds, a.accountView.Load(), a.transactions.Init())
		}
		a.loginForm, _ = a.loginForm.Update(msg)
		return a, tea.Batch(cmds...)

	case messages.SessionRestoredMsg:
		a.activeView = ViewAccount
		a.accountView.SetProfile(msg.Profile)
		a.statusBar.SetProfile(msg.Profile, true)
		return a, tea.Batch(a.accountView.Load(), a.transactions.Init())

	case messages.SessionEndedMsg:
		// The session is gone; every view holding data from it starts over.
		a.activeView = ViewLogin
		a.loginForm = login.New(a.manager)
		a.loginForm.SetSize(a.width, a.height-1)
		a.transactions.Reset()
		a.statusBar.SetProfile(session.DefaultProfile(), false)
		if msg.Rebuild {
			a.statusBar.SetStatus("session identity changed, logged out", true)
		} else {
			a.statusBar.SetStatus("session expired, please log in again", true)
		}
		return a, nil

	case messages.ProfileRefreshedMsg:
		a.statusBar.SetProfile(msg.Profile, true)
		a.accountView, _ = a.accountView.Update(msg)
		return a, nil

	case messages.OpenTransactionsMsg:
		a.activeView = ViewTransactions
		return a, nil

	case messages.StatusMsg:
		a.statusBar.SetStatus(msg.Text, msg.IsError)
		return a, nil
	}

	// Route remaining messages to the active view.
	var cmd tea.Cmd
	switch a.activeView {
	case ViewLogin:
		a.loginForm, cmd = a.loginForm.Update(msg)
	case ViewAccount:
		a.accountView, cmd = a.accountView.Update(msg)
	case ViewTransactions:
		a.transactions, cmd = a.transactions.Update(msg)
	}
	cmds = append(cmds, cmd)
	return a, tea.Batch(cmds...)
}

// View renders the active view plus the status bar.
func (a *App) View() string {
	var content string
	switch a.activeView {
	case ViewLogin:
		content = a.loginForm.View()
	case ViewAccount:
		content = a.accountView.View()
	case ViewTransactions:
		content = a.transactions.View()
	}
	return content + "\n" + a.statusBar.View()
}
