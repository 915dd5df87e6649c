package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// TransactionFilters narrows and pages the /transactions/ listing. Zero
// values are omitted from the query, mirroring the server's defaults.
type TransactionFilters struct {
	Page      int
	Limit     int
	OrderBy   string
	DateFrom  string // YYYY-MM-DD
	DateTo    string // YYYY-MM-DD
	Direction string // "in" or "out"
	Status    string
}

// Values encodes the filters as query parameters.
func (f TransactionFilters) Values() url.Values {
	q := url.Values{}
	if f.Page > 0 {
		q.Set("page", strconv.Itoa(f.Page))
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	if f.OrderBy != "" {
		q.Set("order_by", f.OrderBy)
	}
	if f.DateFrom != "" {
		q.Set("date_from", f.DateFrom)
	}
	if f.DateTo != "" {
		q.Set("date_to", f.DateTo)
	}
	if f.Direction != "" {
		q.Set("direction", f.Direction)
	}
	if f.Status != "" {
		q.Set("status", f.Status)
	}
	return q
}

// Transactions fetches one page of transactions with summary figures.
func (c *Client) Transactions(ctx context.Context, filters TransactionFilters) (*TransactionPage, error) {
	path := "/transactions/"
	if q := filters.Values().Encode(); q != "" {
		path += "?" + q
	}
	var page TransactionPage
	if err := c.get(ctx, path, &page); err != nil {
		return nil, fmt.Errorf("fetching transactions: %w", err)
	}
	return &page, nil
}

// CreateTransactionRequest is the POST /transactions payload. Identifier is
// the receiver's username or email.
type CreateTransactionRequest struct {
	Identifier  string  `json:"identifier"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
	Recurring   bool    `json:"recurring"`
	Interval    string  `json:"interval,omitempty"`
	CategoryID  int     `json:"category_id,omitempty"`
}

// CreateTransaction starts a new transfer. The returned transaction is in
// "pending" state until confirmed.
func (c *Client) CreateTransaction(ctx context.Context, req CreateTransactionRequest) (*Transaction, error) {
	var tx Transaction
	if err := c.postJSON(ctx, "/transactions", req, &tx); err != nil {
		return nil, err
	}
	return &tx, nil
}

// SetTransactionStatus applies an action ("confirm", "cancel", "accept",
// "decline") to a transaction.
func (c *Client) SetTransactionStatus(ctx context.Context, id int, action string) error {
	payload := map[string]string{"action": action}
	return c.putJSON(ctx, fmt.Sprintf("/transactions/%d/status", id), payload, nil)
}

// TransactionStatus fetches the current status of one transaction.
func (c *Client) TransactionStatus(ctx context.Context, id int) (string, error) {
	var resp struct {
		Status string `json:"status"`
	}
	if err := c.get(ctx, fmt.Sprintf("/transactions/status/%d", id), &resp); err != nil {
		return "", err
	}
	return resp.Status, nil
}

// SetTransactionCategory assigns a category to a transaction.
func (c *Client) SetTransactionCategory(ctx context.Context, id, categoryID int) error {
	payload := map[string]int{"category_id": categoryID}
	return c.putJSON(ctx, fmt.Sprintf("/transactions/%d/category", id), payload, nil)
}

// ClearTransactionCategory removes a transaction's category.
func (c *Client) ClearTransactionCategory(ctx context.Context, id int) error {
	return c.delete(ctx, fmt.Sprintf("/transactions/%d/category", id), nil)
}

// Categories lists the user's transaction categories.
func (c *Client) Categories(ctx context.Context) ([]Category, error) {
	var categories []Category
	if err := c.get(ctx, "/categories", &categories); err != nil {
		return nil, err
	}
	return categories, nil
}
