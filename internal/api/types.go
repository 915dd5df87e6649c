package api

// User is the wallet server's view of the authenticated account, as returned
// by the /users/me endpoint.
type User struct {
	ID          int     `json:"id"`
	Username    string  `json:"username"`
	Email       string  `json:"email,omitempty"`
	PhoneNumber string  `json:"phone_number,omitempty"`
	Balance     float64 `json:"balance"`
	Avatar      string  `json:"avatar"`
	Status      string  `json:"status"`
}

// TokenResponse is the /users/token login response.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Transaction is a single wallet transfer.
type Transaction struct {
	ID          int     `json:"id"`
	Date        string  `json:"date"`
	Description string  `json:"description"`
	Status      string  `json:"status"`
	Amount      float64 `json:"amount"`
	Direction   string  `json:"direction,omitempty"`
	CategoryID  int     `json:"category_id,omitempty"`
	Sender      string  `json:"sender,omitempty"`
	Receiver    string  `json:"receiver,omitempty"`
	Recurring   bool    `json:"recurring,omitempty"`
	Interval    string  `json:"interval,omitempty"`
}

// TransactionPage is one page of transactions plus the summary figures the
// server computes over the whole filtered set.
type TransactionPage struct {
	Transactions   []Transaction `json:"transactions"`
	Total          int           `json:"total"`
	TotalCompleted int           `json:"total_completed"`
	IncomingTotal  float64       `json:"incoming_total"`
	OutgoingTotal  float64       `json:"outgoing_total"`
	AvgIncoming    float64       `json:"avg_incoming_transaction"`
	AvgOutgoing    float64       `json:"avg_outgoing_transaction"`
	Pages          int           `json:"pages"`
}

// Deposit is a completed or pending top-up of the wallet balance.
type Deposit struct {
	ID        int     `json:"id"`
	Amount    float64 `json:"amount"`
	Status    string  `json:"status"`
	Method    string  `json:"method,omitempty"`
	CreatedAt string  `json:"created_at"`
}

// Withdrawal is a transfer out of the wallet to an external destination.
type Withdrawal struct {
	ID        int     `json:"id"`
	Amount    float64 `json:"amount"`
	Status    string  `json:"status"`
	Method    string  `json:"method,omitempty"`
	CreatedAt string  `json:"created_at"`
}

// WithdrawalStats aggregates the current month's withdrawals. MonthlyTotal is
// in minor units (cents).
type WithdrawalStats struct {
	MonthlyTotal  int64   `json:"monthly_total"`
	Frequency     int     `json:"frequency"`
	AverageAmount float64 `json:"average_amount"`
}

// Card is a stored payment card.
type Card struct {
	ID         int    `json:"id"`
	Last4      string `json:"last4"`
	Brand      string `json:"brand"`
	ExpMonth   int    `json:"exp_month"`
	ExpYear    int    `json:"exp_year"`
	IsDefault  bool   `json:"is_default"`
	Nickname   string `json:"nickname,omitempty"`
	CardDesign string `json:"card_design,omitempty"`
}

// Contact is another wallet user saved to the address book.
type Contact struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Avatar   string `json:"avatar,omitempty"`
}

// Category labels transactions for reporting.
type Category struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}
