package translist

import (
	"fmt"
	"strings"

	"billfold/internal/api"
)

// Item wraps a transaction for the bubbles list.
type Item struct {
	api.Transaction
}

func (i Item) Title() string {
	amount := fmt.Sprintf("$%.2f", i.Transaction.Amount)
	if i.Transaction.Direction == "out" {
		amount = "-" + amount
	}
	desc := i.Transaction.Description
	if desc == "" {
		desc = "No description"
	}
	return fmt.Sprintf("%s  %s", amount, desc)
}

func (i Item) Description() string {
	parts := make([]string, 0, 3)
	parts = append(parts, i.Transaction.Status)
	if i.Transaction.Date != "" {
		parts = append(parts, i.Transaction.Date)
	}
	switch i.Transaction.Direction {
	case "in":
		if i.Transaction.Sender != "" {
			parts = append(parts, "from "+i.Transaction.Sender)
		}
	case "out":
		if i.Transaction.Receiver != "" {
			parts = append(parts, "to "+i.Transaction.Receiver)
		}
	}
	return strings.Join(parts, " | ")
}

func (i Item) FilterValue() string {
	return i.Transaction.Description + " " + i.Transaction.Status
}
