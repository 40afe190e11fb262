package domain

// JournalKind discriminates mutation journal entries.
type JournalKind string

const (
	JournalCustomerCreated   JournalKind = "customer_created"
	JournalCustomerUpdated   JournalKind = "customer_updated"
	JournalCustomerDeleted   JournalKind = "customer_deleted"
	JournalTransaction       JournalKind = "transaction"
	JournalShopTransaction   JournalKind = "shop_transaction"
	JournalRatesUpdated      JournalKind = "rates_updated"
	JournalClearTransactions JournalKind = "clear_transactions"
	JournalClearAll          JournalKind = "clear_all"
)

// JournalEntry is one ledger mutation as written to the append-only
// journal. Exactly the fields relevant to the kind are set. Replaying
// the journal from the start reconstructs the full ledger snapshot.
type JournalEntry struct {
	Kind        JournalKind      `json:"kind"`
	CustomerID  int64            `json:"customerId,omitempty"`
	Profile     *CustomerProfile `json:"profile,omitempty"`
	Transaction *Transaction     `json:"transaction,omitempty"`
	ShopTx      *ShopTransaction `json:"shopTx,omitempty"`
	Rates       *RateBook        `json:"rates,omitempty"`
}
