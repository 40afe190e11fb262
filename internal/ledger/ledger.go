// Package ledger owns the canonical ledger state: customer balances,
// transaction history, the shop account, id counters and the rate book.
// Every mutation is applied atomically and mirrored to durable storage;
// in-memory state stays authoritative for the session.
package ledger

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vadiminshakov/khata/internal/classifier"
	"github.com/vadiminshakov/khata/internal/domain"
	"github.com/vadiminshakov/khata/pkg/retrier"
)

var (
	// ErrCustomerNotFound is returned when the target customer does not exist.
	ErrCustomerNotFound = errors.New("customer not found")
	// ErrShopCategory is returned when a non-cash category is submitted
	// without a customer. The shop account accepts CashIn/CashOut only.
	ErrShopCategory = errors.New("shop account accepts only cash categories")
	// ErrSaveFailed marks a persistence failure. The in-memory mutation
	// it accompanies is NOT rolled back; callers should surface it as a
	// durability warning, not as a failed operation.
	ErrSaveFailed = errors.New("ledger snapshot save failed")
)

// Gateway loads and stores the full ledger snapshot.
type Gateway interface {
	// Load returns the persisted snapshot, or nil when none exists.
	Load() (*domain.LedgerSnapshot, error)
	Save(domain.LedgerSnapshot) error
}

// Journal records every mutation append-only and can replay them into a
// snapshot when the primary store is empty.
type Journal interface {
	Append(domain.JournalEntry) error
	Replay() (*domain.LedgerSnapshot, error)
}

const (
	saveRetryInitial = 100 * time.Millisecond
	saveRetryMax     = time.Second
	saveRetries      = 2
)

// Ledger is the transaction engine. Construct it once with Open and
// pass the handle to every consumer; there is no package-level state.
type Ledger struct {
	mu sync.RWMutex

	customers   []domain.Customer
	shopTxs     []domain.ShopTransaction
	customerSeq int64
	txSeq       int64
	rates       domain.RateBook

	gateway Gateway
	journal Journal
	retrier *retrier.Retrier
	logger  *zap.Logger
	now     func() time.Time
}

// Open builds a ledger from durable state: the gateway snapshot first,
// journal replay when the snapshot is absent, a default snapshot when
// both are empty. Partial results are never mixed. Gateway and journal
// may be nil for a memory-only ledger.
func Open(gateway Gateway, journal Journal, logger *zap.Logger) (*Ledger, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	snap, err := hydrate(gateway, journal, logger)
	if err != nil {
		return nil, err
	}

	l := &Ledger{
		gateway: gateway,
		journal: journal,
		retrier: retrier.New(saveRetryInitial, saveRetryMax, saveRetries),
		logger:  logger,
		now:     time.Now,
	}
	l.restore(*snap)

	return l, nil
}

func hydrate(gateway Gateway, journal Journal, logger *zap.Logger) (*domain.LedgerSnapshot, error) {
	if gateway != nil {
		snap, err := gateway.Load()
		if err != nil {
			return nil, errors.Wrap(err, "load ledger snapshot")
		}
		if snap != nil {
			logger.Info("ledger hydrated from snapshot",
				zap.Int("customers", len(snap.Customers)),
				zap.Int("shop_transactions", len(snap.ShopTransactions)))
			return snap, nil
		}
	}

	if journal != nil {
		snap, err := journal.Replay()
		if err != nil {
			return nil, errors.Wrap(err, "replay ledger journal")
		}
		if snap != nil {
			logger.Info("ledger hydrated from journal replay",
				zap.Int("customers", len(snap.Customers)))
			return snap, nil
		}
	}

	def := domain.DefaultSnapshot()
	return &def, nil
}

func (l *Ledger) restore(snap domain.LedgerSnapshot) {
	l.customers = snap.Customers
	if l.customers == nil {
		l.customers = []domain.Customer{}
	}
	l.shopTxs = snap.ShopTransactions
	if l.shopTxs == nil {
		l.shopTxs = []domain.ShopTransaction{}
	}
	l.customerSeq = snap.CustomerIDCounter
	l.txSeq = snap.TransactionIDCounter
	l.rates = snap.LiveRates
}

// Customer returns a copy of the customer with the given id.
func (l *Ledger) Customer(id int64) (domain.Customer, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	idx := l.indexOf(id)
	if idx < 0 {
		return domain.Customer{}, errors.Wrapf(ErrCustomerNotFound, "id %d", id)
	}
	return l.customers[idx].Clone(), nil
}

// Customers returns copies of all customers in creation order.
func (l *Ledger) Customers() []domain.Customer {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]domain.Customer, len(l.customers))
	for i, c := range l.customers {
		out[i] = c.Clone()
	}
	return out
}

// ShopTransactions returns a copy of the shop account log, newest first.
func (l *Ledger) ShopTransactions() []domain.ShopTransaction {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]domain.ShopTransaction, len(l.shopTxs))
	copy(out, l.shopTxs)
	return out
}

// LiveRates returns the current rate book.
func (l *Ledger) LiveRates() domain.RateBook {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.rates
}

// Snapshot returns a deep copy of the full ledger state.
func (l *Ledger) Snapshot() domain.LedgerSnapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.snapshotLocked().Clone()
}

// CreateCustomer allocates the next customer id and registers a fresh
// account with zero balances and empty history.
func (l *Ledger) CreateCustomer(ctx context.Context, profile domain.CustomerProfile) (domain.Customer, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.customerSeq++
	customer := domain.NewCustomer(l.customerSeq, profile)
	l.customers = append(l.customers, customer)

	l.logger.Info("customer created", zap.Int64("customer", customer.ID), zap.String("name", profile.Name))

	err := l.persistLocked(ctx, domain.JournalEntry{
		Kind:       domain.JournalCustomerCreated,
		CustomerID: customer.ID,
		Profile:    &profile,
	})
	return customer.Clone(), err
}

// UpdateCustomer replaces the non-financial profile fields of a
// customer. Balances and history are derived state and cannot be set
// through this path by construction.
func (l *Ledger) UpdateCustomer(ctx context.Context, id int64, profile domain.CustomerProfile) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	idx := l.indexOf(id)
	if idx < 0 {
		return errors.Wrapf(ErrCustomerNotFound, "id %d", id)
	}
	l.customers[idx].CustomerProfile = profile

	return l.persistLocked(ctx, domain.JournalEntry{
		Kind:       domain.JournalCustomerUpdated,
		CustomerID: id,
		Profile:    &profile,
	})
}

// DeleteCustomer removes the customer and its entire history. There is
// no soft delete.
func (l *Ledger) DeleteCustomer(ctx context.Context, id int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	idx := l.indexOf(id)
	if idx < 0 {
		return errors.Wrapf(ErrCustomerNotFound, "id %d", id)
	}
	l.customers = append(l.customers[:idx], l.customers[idx+1:]...)

	l.logger.Info("customer deleted", zap.Int64("customer", id))

	return l.persistLocked(ctx, domain.JournalEntry{
		Kind:       domain.JournalCustomerDeleted,
		CustomerID: id,
	})
}

// AddTransaction classifies the payload, applies the resulting deltas to
// the customer's balances, appends the immutable record and persists.
// The whole step is atomic: readers never observe a partial apply.
func (l *Ledger) AddTransaction(ctx context.Context, customerID int64, payload domain.TransactionPayload) (domain.Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	idx := l.indexOf(customerID)
	if idx < 0 {
		return domain.Transaction{}, errors.Wrapf(ErrCustomerNotFound, "id %d", customerID)
	}

	delta, err := classifier.Classify(payload)
	if err != nil {
		return domain.Transaction{}, err
	}

	c := &l.customers[idx]

	l.txSeq++
	tx := domain.Transaction{
		ID:                 l.txSeq,
		Timestamp:          l.now(),
		Category:           payload.Category,
		Details:            payload.Details,
		CashChange:         delta.Cash,
		GoldChange:         delta.Gold,
		SilverChange:       delta.Silver,
		CashBalanceAfter:   c.CashBalance.Add(delta.Cash),
		GoldBalanceAfter:   c.GoldBalance.Add(delta.Gold),
		SilverBalanceAfter: c.SilverBalance.Add(delta.Silver),
	}

	c.CashBalance = tx.CashBalanceAfter
	c.GoldBalance = tx.GoldBalanceAfter
	c.SilverBalance = tx.SilverBalanceAfter
	c.Transactions = append([]domain.Transaction{tx}, c.Transactions...)
	sortTransactions(c.Transactions)

	l.logger.Info("transaction recorded",
		zap.Int64("tx", tx.ID),
		zap.Int64("customer", customerID),
		zap.String("category", tx.Category.String()),
		zap.String("cash_change", tx.CashChange.String()))

	err = l.persistLocked(ctx, domain.JournalEntry{
		Kind:        domain.JournalTransaction,
		CustomerID:  customerID,
		Transaction: &tx,
	})
	return tx, err
}

// AddShopTransaction records a cash movement on the shop account. Any
// category other than CashIn/CashOut is rejected explicitly.
func (l *Ledger) AddShopTransaction(ctx context.Context, payload domain.TransactionPayload) (domain.ShopTransaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !payload.Category.IsCashOnly() {
		return domain.ShopTransaction{}, errors.Wrapf(ErrShopCategory, "category %s", payload.Category)
	}
	details, ok := payload.Details.(domain.MovementDetails)
	if !ok {
		return domain.ShopTransaction{}, errors.Errorf("details payload %T does not match category %s", payload.Details, payload.Category)
	}

	l.txSeq++
	tx := domain.ShopTransaction{
		ID:        l.txSeq,
		Timestamp: l.now(),
		Category:  payload.Category,
		Details:   details,
	}

	l.shopTxs = append(l.shopTxs, tx)
	sort.SliceStable(l.shopTxs, func(i, j int) bool {
		if !l.shopTxs[i].Timestamp.Equal(l.shopTxs[j].Timestamp) {
			return l.shopTxs[i].Timestamp.After(l.shopTxs[j].Timestamp)
		}
		return l.shopTxs[i].ID > l.shopTxs[j].ID
	})

	l.logger.Info("shop transaction recorded",
		zap.Int64("tx", tx.ID),
		zap.String("category", tx.Category.String()),
		zap.String("amount", details.Amount.String()))

	err := l.persistLocked(ctx, domain.JournalEntry{
		Kind:   domain.JournalShopTransaction,
		ShopTx: &tx,
	})
	return tx, err
}

// UpdateLiveRates replaces the quote for one metal.
func (l *Ledger) UpdateLiveRates(ctx context.Context, metal domain.Metal, quote domain.Quote) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	switch metal {
	case domain.MetalGold:
		l.rates.Gold = quote
	case domain.MetalSilver:
		l.rates.Silver = quote
	default:
		return errors.Errorf("unknown metal %q", metal)
	}

	rates := l.rates
	return l.persistLocked(ctx, domain.JournalEntry{
		Kind:  domain.JournalRatesUpdated,
		Rates: &rates,
	})
}

// ClearAllTransactions wipes every history and resets all balances and
// the transaction id counter. Customer profiles survive.
func (l *Ledger) ClearAllTransactions(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i := range l.customers {
		l.customers[i].CashBalance = decimal.Zero
		l.customers[i].GoldBalance = decimal.Zero
		l.customers[i].SilverBalance = decimal.Zero
		l.customers[i].Transactions = []domain.Transaction{}
	}
	l.shopTxs = []domain.ShopTransaction{}
	l.txSeq = 0

	l.logger.Warn("all transactions cleared")

	return l.persistLocked(ctx, domain.JournalEntry{Kind: domain.JournalClearTransactions})
}

// ClearAllData resets the ledger to its default snapshot, including
// customer profiles, both id counters and the rate book.
func (l *Ledger) ClearAllData(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.restore(domain.DefaultSnapshot())

	l.logger.Warn("all ledger data cleared")

	return l.persistLocked(ctx, domain.JournalEntry{Kind: domain.JournalClearAll})
}

func (l *Ledger) indexOf(id int64) int {
	for i := range l.customers {
		if l.customers[i].ID == id {
			return i
		}
	}
	return -1
}

func (l *Ledger) snapshotLocked() domain.LedgerSnapshot {
	return domain.LedgerSnapshot{
		Customers:            l.customers,
		ShopTransactions:     l.shopTxs,
		CustomerIDCounter:    l.customerSeq,
		TransactionIDCounter: l.txSeq,
		LiveRates:            l.rates,
	}
}

// persistLocked mirrors the mutation to the journal and the snapshot
// store. A failure never rolls the mutation back: the journal error is
// only logged, the snapshot error is wrapped in ErrSaveFailed so the
// caller can warn about durability.
func (l *Ledger) persistLocked(ctx context.Context, entry domain.JournalEntry) error {
	if l.journal != nil {
		if err := l.journal.Append(entry); err != nil {
			l.logger.Warn("journal append failed", zap.Error(err))
		}
	}

	if l.gateway == nil {
		return nil
	}

	snap := l.snapshotLocked().Clone()
	err := l.retrier.Do(ctx, func(ctx context.Context) error {
		return l.gateway.Save(snap)
	})
	if err != nil {
		l.logger.Error("snapshot save failed", zap.Error(err))
		return errors.Wrap(ErrSaveFailed, err.Error())
	}
	return nil
}

func sortTransactions(txs []domain.Transaction) {
	sort.SliceStable(txs, func(i, j int) bool {
		if !txs[i].Timestamp.Equal(txs[j].Timestamp) {
			return txs[i].Timestamp.After(txs[j].Timestamp)
		}
		return txs[i].ID > txs[j].ID
	})
}
