package domain

// LedgerSnapshot is the full persisted state of the ledger: the unit of
// load/save through the persistence gateway.
type LedgerSnapshot struct {
	Customers            []Customer        `json:"customers"`
	ShopTransactions     []ShopTransaction `json:"shopTransactions"`
	CustomerIDCounter    int64             `json:"customerIdCounter"`
	TransactionIDCounter int64             `json:"transactionIdCounter"`
	LiveRates            RateBook          `json:"liveRates"`
}

// DefaultSnapshot is the state of a fresh ledger: no accounts, counters
// at zero, rate book at its defaults.
func DefaultSnapshot() LedgerSnapshot {
	return LedgerSnapshot{
		Customers:        []Customer{},
		ShopTransactions: []ShopTransaction{},
		LiveRates:        DefaultRates(),
	}
}

// Clone returns a deep copy of the snapshot.
func (s LedgerSnapshot) Clone() LedgerSnapshot {
	out := s
	out.Customers = make([]Customer, len(s.Customers))
	for i, c := range s.Customers {
		out.Customers[i] = c.Clone()
	}
	out.ShopTransactions = make([]ShopTransaction, len(s.ShopTransactions))
	copy(out.ShopTransactions, s.ShopTransactions)
	return out
}
