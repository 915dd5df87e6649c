package messages

import (
	"billfold/internal/api"
	"billfold/internal/session"
)

// OpenTransactionsMsg switches the app to the transaction list view.
type OpenTransactionsMsg struct{}

// Data messages.
type (
	LoginResultMsg struct {
		Username string
		Message  string
		Err      bool
	}

	SessionRestoredMsg struct {
		Profile session.Profile
	}

	// SessionEndedMsg is sent when the manager force-cleared the session
	// (server rejection or identity mismatch). Rebuild forces every view to
	// discard state derived from the old identity.
	SessionEndedMsg struct {
		Rebuild bool
	}

	ProfileRefreshedMsg struct {
		Profile session.Profile
	}

	TransactionsLoadedMsg struct {
		Page      *api.TransactionPage
		FromCache bool
		Err       error
	}

	OverviewLoadedMsg struct {
		Overview *api.Overview
		Err      error
	}

	StatusMsg struct {
		Text    string
		IsError bool
	}
)
