package domain

import "github.com/shopspring/decimal"

// CustomerProfile holds the non-financial identity fields of a customer.
// Balances and history never pass through this struct, so profile
// updates cannot touch them.
type CustomerProfile struct {
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	PAN          string `json:"pan,omitempty"`
	Notes        string `json:"notes,omitempty"`
	PhotoPath    string `json:"photoPath,omitempty"`
	AadhaarFront string `json:"aadhaarFrontPath,omitempty"`
	AadhaarBack  string `json:"aadhaarBackPath,omitempty"`
}

// Customer is a ledger account: identity plus three running balances and
// the transaction history they are folded from. Positive balances are
// owed by the shop to the customer, negative ones are dues.
type Customer struct {
	ID int64 `json:"id"`
	CustomerProfile

	CashBalance   decimal.Decimal `json:"cashBalance"`
	GoldBalance   decimal.Decimal `json:"goldBalance"`   // fine grams
	SilverBalance decimal.Decimal `json:"silverBalance"` // fine grams

	// Transactions is ordered newest first.
	Transactions []Transaction `json:"transactions"`
}

// NewCustomer creates a customer with zero balances and empty history.
func NewCustomer(id int64, profile CustomerProfile) Customer {
	return Customer{
		ID:              id,
		CustomerProfile: profile,
		CashBalance:     decimal.Zero,
		GoldBalance:     decimal.Zero,
		SilverBalance:   decimal.Zero,
		Transactions:    []Transaction{},
	}
}

// Clone returns a deep copy safe to hand out to readers.
func (c Customer) Clone() Customer {
	out := c
	out.Transactions = make([]Transaction, len(c.Transactions))
	copy(out.Transactions, c.Transactions)
	return out
}
