package domain

import "github.com/shopspring/decimal"

// Quote is a buy/sell pair for one metal, in currency units per fine gram.
type Quote struct {
	Buy  decimal.Decimal `json:"buy"`
	Sell decimal.Decimal `json:"sell"`
}

// RateBook holds the current quotes for both metals. It is a pure value
// holder: the engine never recomputes rates, callers capture the quote
// they used into the transaction details.
type RateBook struct {
	Gold   Quote `json:"gold"`
	Silver Quote `json:"silver"`
}

// DefaultRates is the rate book used when no persisted state exists.
func DefaultRates() RateBook {
	return RateBook{
		Gold:   Quote{Buy: decimal.NewFromInt(6850), Sell: decimal.NewFromInt(7050)},
		Silver: Quote{Buy: decimal.NewFromInt(85), Sell: decimal.NewFromInt(90)},
	}
}
