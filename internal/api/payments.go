package api

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Deposits lists recent deposits, newest first. limit <= 0 uses the server
// default.
func (c *Client) Deposits(ctx context.Context, limit int) ([]Deposit, error) {
	path := "/deposits"
	if limit > 0 {
		path = fmt.Sprintf("/deposits?limit=%d", limit)
	}
	var resp struct {
		Deposits []Deposit `json:"deposits"`
	}
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, err
	}
	return resp.Deposits, nil
}

// Deposit fetches a single deposit by ID.
func (c *Client) Deposit(ctx context.Context, id int) (*Deposit, error) {
	var deposit Deposit
	if err := c.get(ctx, fmt.Sprintf("/deposits/%d", id), &deposit); err != nil {
		return nil, err
	}
	return &deposit, nil
}

// Withdrawals lists recent withdrawals, newest first.
func (c *Client) Withdrawals(ctx context.Context, limit int) ([]Withdrawal, error) {
	path := "/withdrawals"
	if limit > 0 {
		path = fmt.Sprintf("/withdrawals?limit=%d", limit)
	}
	var resp struct {
		Withdrawals []Withdrawal `json:"withdrawals"`
	}
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, err
	}
	return resp.Withdrawals, nil
}

// Withdrawal fetches a single withdrawal by ID.
func (c *Client) Withdrawal(ctx context.Context, id int) (*Withdrawal, error) {
	var w Withdrawal
	if err := c.get(ctx, fmt.Sprintf("/withdrawals/%d", id), &w); err != nil {
		return nil, err
	}
	return &w, nil
}

// WithdrawalStatistics fetches the current month's withdrawal aggregates.
func (c *Client) WithdrawalStatistics(ctx context.Context) (*WithdrawalStats, error) {
	var stats WithdrawalStats
	if err := c.get(ctx, "/withdrawals/stats", &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// Cards lists the user's stored payment cards.
func (c *Client) Cards(ctx context.Context) ([]Card, error) {
	var cards []Card
	if err := c.get(ctx, "/cards/user-cards", &cards); err != nil {
		return nil, err
	}
	return cards, nil
}

// AddCard stores a new payment card from a tokenized payload.
func (c *Client) AddCard(ctx context.Context, payload map[string]string) (*Card, error) {
	var card Card
	if err := c.postJSON(ctx, "/cards", payload, &card); err != nil {
		return nil, err
	}
	return &card, nil
}

// RemoveCard deletes a stored card.
func (c *Client) RemoveCard(ctx context.Context, id int) error {
	return c.delete(ctx, fmt.Sprintf("/cards/%d", id), nil)
}

// SetDefaultCard marks a card as the default funding source.
func (c *Client) SetDefaultCard(ctx context.Context, id int) error {
	return c.putJSON(ctx, fmt.Sprintf("/cards/%d/set-default", id), nil, nil)
}

// CustomizeCard updates a card's nickname and design.
func (c *Client) CustomizeCard(ctx context.Context, id int, nickname, design string) (*Card, error) {
	payload := map[string]string{"nickname": nickname, "card_design": design}
	var card Card
	if err := c.putJSON(ctx, fmt.Sprintf("/cards/%d/customize", id), payload, &card); err != nil {
		return nil, err
	}
	return &card, nil
}

// Overview bundles the data the account screen shows besides the profile.
type Overview struct {
	WithdrawalStats *WithdrawalStats
	Cards           []Card
	RecentDeposits  []Deposit
}

// FetchOverview loads the account overview pieces concurrently. Individual
// failures are non-fatal; missing sections come back nil.
func (c *Client) FetchOverview(ctx context.Context, depositLimit int) (*Overview, error) {
	var overview Overview

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		stats, err := c.WithdrawalStatistics(ctx)
		if err == nil {
			overview.WithdrawalStats = stats
		}
		return nil
	})
	g.Go(func() error {
		cards, err := c.Cards(ctx)
		if err == nil {
			overview.Cards = cards
		}
		return nil
	})
	g.Go(func() error {
		deposits, err := c.Deposits(ctx, depositLimit)
		if err == nil {
			overview.RecentDeposits = deposits
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &overview, nil
}
