package translist

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"billfold/internal/api"
	"billfold/internal/cache"
	"billfold/internal/config"
	"billfold/internal/ui/messages"
)

// Model is the transaction list view. It renders the cached page immediately
// and replaces it once a fresh page arrives.
type Model struct {
	list      list.Model
	client    *api.Client
	cache     *cache.DB
	cfg       config.Config
	page      int
	pages     int
	direction string
	loading   bool
	width     int
	height    int
}

// New creates the transaction list model.
func New(cfg config.Config, client *api.Client, db *cache.DB) Model {
	l := list.New(nil, Delegate{}, 0, 0)
	l.Title = "Transactions"
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(true)

	return Model{
		list:    l,
		client:  client,
		cache:   db,
		cfg:     cfg,
		page:    1,
		loading: true,
	}
}

// Init loads the first page, serving the cache while the network is slow.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.loadCached(), m.loadPage())
}

// SetSize updates the viewport dimensions.
func (m *Model) SetSize(w, h int) {
	m.width = w
	m.height = h
	m.list.SetSize(w, h)
}

// Reset drops all loaded state, for use after a session teardown.
func (m *Model) Reset() {
	m.list.SetItems(nil)
	m.page = 1
	m.pages = 0
	m.direction = ""
	m.loading = true
}

func (m Model) loadCached() tea.Cmd {
	db := m.cache
	ttl := m.cfg.TransactionTTL
	return func() tea.Msg {
		txs, fresh, err := db.GetTransactions(ttl)
		if err != nil || len(txs) == 0 || !fresh {
			return nil
		}
		return messages.TransactionsLoadedMsg{
			Page:      &api.TransactionPage{Transactions: txs},
			FromCache: true,
		}
	}
}

func (m Model) loadPage() tea.Cmd {
	client := m.client
	db := m.cache
	filters := api.TransactionFilters{
		Page:      m.page,
		Limit:     m.cfg.PageSize,
		Direction: m.direction,
	}
	return func() tea.Msg {
		page, err := client.Transactions(context.Background(), filters)
		if err != nil {
			return messages.TransactionsLoadedMsg{Err: err}
		}
		// First unfiltered page is what the cache serves on startup.
		if filters.Page == 1 && filters.Direction == "" {
			db.PutTransactions(page.Transactions)
		}
		return messages.TransactionsLoadedMsg{Page: page}
	}
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case messages.TransactionsLoadedMsg:
		if msg.Err != nil {
			m.list.Title = "Error: " + msg.Err.Error()
			m.loading = false
			return m, nil
		}
		// A cached page must not clobber a fresher network page.
		if msg.FromCache && !m.loading {
			return m, nil
		}
		items := make([]list.Item, 0, len(msg.Page.Transactions))
		for _, tx := range msg.Page.Transactions {
			items = append(items, Item{Transaction: tx})
		}
		m.list.SetItems(items)
		if !msg.FromCache {
			m.pages = msg.Page.Pages
			m.loading = false
		}
		m.list.Title = m.title(msg.FromCache)
		return m, nil

	case tea.KeyMsg:
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch msg.String() {
		case "n":
			if m.pages > 0 && m.page < m.pages {
				m.page++
				m.loading = true
				return m, m.loadPage()
			}
		case "p":
			if m.page > 1 {
				m.page--
				m.loading = true
				return m, m.loadPage()
			}
		case "i", "o", "a":
			switch msg.String() {
			case "i":
				m.direction = "in"
			case "o":
				m.direction = "out"
			default:
				m.direction = ""
			}
			m.page = 1
			m.loading = true
			return m, m.loadPage()
		case "R":
			m.loading = true
			return m, m.loadPage()
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) title(fromCache bool) string {
	title := "Transactions"
	switch m.direction {
	case "in":
		title += " (incoming)"
	case "out":
		title += " (outgoing)"
	}
	if m.pages > 0 {
		title += fmt.Sprintf(" — page %d/%d", m.page, m.pages)
	}
	if fromCache {
		title += " [cached]"
	}
	return title
}

// View renders the list.
func (m Model) View() string {
	return m.list.View()
}
