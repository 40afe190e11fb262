// Package journal keeps an append-only log of every ledger mutation in
// a write-ahead log. It is the fallback hydration source: when the
// snapshot store is empty, replaying the journal reconstructs the full
// ledger state.
package journal

import (
	"encoding/json"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/gowal"

	"github.com/vadiminshakov/khata/internal/domain"
)

const (
	defaultDir     = "./wal/journal"
	segmentLimit   = 1000
	maxSegments    = 100
	entryKeyPrefix = "ledger_entry_"
)

// Journal is a gowal-backed mutation log.
type Journal struct {
	wal *gowal.Wal
	mu  sync.Mutex
}

// Open initializes the journal under the provided directory.
func Open(dir string) (*Journal, error) {
	if dir == "" {
		dir = defaultDir
	}

	cfg := gowal.Config{
		Dir:              dir,
		Prefix:           "journal_",
		SegmentThreshold: segmentLimit,
		MaxSegments:      maxSegments,
		IsInSyncDiskMode: true,
	}

	wal, err := gowal.NewWAL(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "init ledger journal")
	}

	return &Journal{wal: wal}, nil
}

// Append writes one mutation entry to the log.
func (j *Journal) Append(entry domain.JournalEntry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return errors.Wrap(err, "marshal journal entry")
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	key := entryKeyPrefix + string(entry.Kind)
	return errors.Wrap(j.wal.Write(j.wal.CurrentIndex()+1, key, payload), "append journal entry")
}

// Replay folds the whole log into a ledger snapshot. It returns nil
// when the journal holds no entries, so the caller can fall through to
// a default snapshot.
func (j *Journal) Replay() (*domain.LedgerSnapshot, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	snap := domain.DefaultSnapshot()
	seen := false

	for msg := range j.wal.Iterator() {
		if !strings.HasPrefix(msg.Key, entryKeyPrefix) {
			continue
		}

		var entry domain.JournalEntry
		if err := json.Unmarshal(msg.Value, &entry); err != nil {
			return nil, errors.Wrap(err, "decode journal entry")
		}

		seen = true
		if err := apply(&snap, entry); err != nil {
			return nil, err
		}
	}

	if !seen {
		return nil, nil
	}

	for i := range snap.Customers {
		sortNewestFirst(snap.Customers[i].Transactions)
	}
	sort.SliceStable(snap.ShopTransactions, func(a, b int) bool {
		if !snap.ShopTransactions[a].Timestamp.Equal(snap.ShopTransactions[b].Timestamp) {
			return snap.ShopTransactions[a].Timestamp.After(snap.ShopTransactions[b].Timestamp)
		}
		return snap.ShopTransactions[a].ID > snap.ShopTransactions[b].ID
	})

	return &snap, nil
}

// Close closes the underlying WAL.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.wal.Close()
}

func apply(snap *domain.LedgerSnapshot, entry domain.JournalEntry) error {
	switch entry.Kind {
	case domain.JournalCustomerCreated:
		if entry.Profile == nil {
			return errors.New("customer_created entry without profile")
		}
		snap.Customers = append(snap.Customers, domain.NewCustomer(entry.CustomerID, *entry.Profile))
		if entry.CustomerID > snap.CustomerIDCounter {
			snap.CustomerIDCounter = entry.CustomerID
		}
	case domain.JournalCustomerUpdated:
		if entry.Profile == nil {
			return errors.New("customer_updated entry without profile")
		}
		if idx := indexOf(snap.Customers, entry.CustomerID); idx >= 0 {
			snap.Customers[idx].CustomerProfile = *entry.Profile
		}
	case domain.JournalCustomerDeleted:
		if idx := indexOf(snap.Customers, entry.CustomerID); idx >= 0 {
			snap.Customers = append(snap.Customers[:idx], snap.Customers[idx+1:]...)
		}
	case domain.JournalTransaction:
		if entry.Transaction == nil {
			return errors.New("transaction entry without record")
		}
		idx := indexOf(snap.Customers, entry.CustomerID)
		if idx < 0 {
			return errors.Errorf("transaction entry for unknown customer %d", entry.CustomerID)
		}
		tx := *entry.Transaction
		c := &snap.Customers[idx]
		c.Transactions = append(c.Transactions, tx)
		c.CashBalance = tx.CashBalanceAfter
		c.GoldBalance = tx.GoldBalanceAfter
		c.SilverBalance = tx.SilverBalanceAfter
		if tx.ID > snap.TransactionIDCounter {
			snap.TransactionIDCounter = tx.ID
		}
	case domain.JournalShopTransaction:
		if entry.ShopTx == nil {
			return errors.New("shop_transaction entry without record")
		}
		snap.ShopTransactions = append(snap.ShopTransactions, *entry.ShopTx)
		if entry.ShopTx.ID > snap.TransactionIDCounter {
			snap.TransactionIDCounter = entry.ShopTx.ID
		}
	case domain.JournalRatesUpdated:
		if entry.Rates == nil {
			return errors.New("rates_updated entry without rates")
		}
		snap.LiveRates = *entry.Rates
	case domain.JournalClearTransactions:
		for i := range snap.Customers {
			snap.Customers[i] = domain.NewCustomer(snap.Customers[i].ID, snap.Customers[i].CustomerProfile)
		}
		snap.ShopTransactions = []domain.ShopTransaction{}
		snap.TransactionIDCounter = 0
	case domain.JournalClearAll:
		*snap = domain.DefaultSnapshot()
	default:
		return errors.Errorf("unknown journal entry kind %q", entry.Kind)
	}
	return nil
}

func indexOf(customers []domain.Customer, id int64) int {
	for i := range customers {
		if customers[i].ID == id {
			return i
		}
	}
	return -1
}

func sortNewestFirst(txs []domain.Transaction) {
	sort.SliceStable(txs, func(i, j int) bool {
		if !txs[i].Timestamp.Equal(txs[j].Timestamp) {
			return txs[i].Timestamp.After(txs[j].Timestamp)
		}
		return txs[i].ID > txs[j].ID
	})
}
