package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vadiminshakov/khata/internal/domain"
	"github.com/vadiminshakov/khata/pkg/retrier"
)

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func newTestLedger(t *testing.T) *Ledger {
	t.Helper()
	l, err := Open(nil, nil, zap.NewNop())
	require.NoError(t, err)

	// deterministic, strictly increasing clock
	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	l.now = func() time.Time {
		base = base.Add(time.Second)
		return base
	}
	return l
}

func newCustomer(t *testing.T, l *Ledger, name string) domain.Customer {
	t.Helper()
	c, err := l.CreateCustomer(context.Background(), domain.CustomerProfile{Name: name, Phone: "9000000000"})
	require.NoError(t, err)
	return c
}

func goldSale(weight, rate, totalAmount, amountPaid int64) domain.TransactionPayload {
	return domain.TransactionPayload{
		Category: domain.CategorySale,
		Details: domain.TradeDetails{
			Metal:       domain.MetalGold,
			Weight:      dec(weight),
			Rate:        dec(rate),
			TotalAmount: dec(totalAmount),
			AmountPaid:  dec(amountPaid),
		},
	}
}

func cashIn(amount int64) domain.TransactionPayload {
	return domain.TransactionPayload{
		Category: domain.CategoryCashIn,
		Details:  domain.MovementDetails{Amount: dec(amount)},
	}
}

func TestSaleScenario(t *testing.T) {
	l := newTestLedger(t)
	c := newCustomer(t, l, "Ramesh")

	tx, err := l.AddTransaction(context.Background(), c.ID, goldSale(10, 7000, 70000, 60000))
	require.NoError(t, err)

	assert.True(t, tx.CashChange.Equal(dec(-10000)))
	assert.True(t, tx.GoldChange.Equal(dec(10)))

	got, err := l.Customer(c.ID)
	require.NoError(t, err)
	assert.True(t, got.CashBalance.Equal(dec(-10000)))
	assert.True(t, got.GoldBalance.Equal(dec(10)))
	assert.True(t, got.SilverBalance.IsZero())
}

func TestBalanceFoldInvariant(t *testing.T) {
	l := newTestLedger(t)
	c := newCustomer(t, l, "Sita")

	payloads := []domain.TransactionPayload{
		goldSale(10, 7000, 70000, 60000),
		cashIn(5000),
		{
			Category: domain.CategoryGoldIn,
			Details:  domain.MovementDetails{Amount: dec(5), Rate: dec(7000), CashValue: dec(35000)},
		},
		{
			Category: domain.CategoryTunch,
			Details:  domain.TunchDetails{GrossWeight: dec(12), Purity: dec(75), FineWeight: dec(9), TunchCharges: dec(200)},
		},
		{
			Category: domain.CategorySilverOut,
			Details:  domain.MovementDetails{Amount: dec(100), Rate: dec(90), CashValue: dec(9000)},
		},
	}
	for _, p := range payloads {
		_, err := l.AddTransaction(context.Background(), c.ID, p)
		require.NoError(t, err)
	}

	got, err := l.Customer(c.ID)
	require.NoError(t, err)
	require.Len(t, got.Transactions, len(payloads))

	sumCash, sumGold, sumSilver := decimal.Zero, decimal.Zero, decimal.Zero
	for _, tx := range got.Transactions {
		sumCash = sumCash.Add(tx.CashChange)
		sumGold = sumGold.Add(tx.GoldChange)
		sumSilver = sumSilver.Add(tx.SilverChange)
	}

	assert.True(t, got.CashBalance.Equal(sumCash), "cash balance %s != fold %s", got.CashBalance, sumCash)
	assert.True(t, got.GoldBalance.Equal(sumGold), "gold balance %s != fold %s", got.GoldBalance, sumGold)
	assert.True(t, got.SilverBalance.Equal(sumSilver), "silver balance %s != fold %s", got.SilverBalance, sumSilver)
}

func TestRunningBalancesPerRecord(t *testing.T) {
	l := newTestLedger(t)
	c := newCustomer(t, l, "Mohan")

	for i := 0; i < 5; i++ {
		_, err := l.AddTransaction(context.Background(), c.ID, cashIn(100))
		require.NoError(t, err)
	}

	got, err := l.Customer(c.ID)
	require.NoError(t, err)

	// history is newest first; walk oldest to newest
	runCash, runGold, runSilver := decimal.Zero, decimal.Zero, decimal.Zero
	for i := len(got.Transactions) - 1; i >= 0; i-- {
		tx := got.Transactions[i]
		runCash = runCash.Add(tx.CashChange)
		runGold = runGold.Add(tx.GoldChange)
		runSilver = runSilver.Add(tx.SilverChange)

		assert.True(t, tx.CashBalanceAfter.Equal(runCash), "tx %d cash after", tx.ID)
		assert.True(t, tx.GoldBalanceAfter.Equal(runGold), "tx %d gold after", tx.ID)
		assert.True(t, tx.SilverBalanceAfter.Equal(runSilver), "tx %d silver after", tx.ID)
	}
}

func TestSignSymmetry(t *testing.T) {
	l := newTestLedger(t)
	c := newCustomer(t, l, "Gita")

	_, err := l.AddTransaction(context.Background(), c.ID, goldSale(10, 7000, 70000, 60000))
	require.NoError(t, err)

	_, err = l.AddTransaction(context.Background(), c.ID, domain.TransactionPayload{
		Category: domain.CategoryPurchase,
		Details: domain.TradeDetails{
			Metal:       domain.MetalGold,
			Weight:      dec(10),
			Rate:        dec(7000),
			TotalAmount: dec(70000),
			AmountPaid:  dec(60000),
		},
	})
	require.NoError(t, err)

	got, err := l.Customer(c.ID)
	require.NoError(t, err)
	assert.True(t, got.CashBalance.IsZero())
	assert.True(t, got.GoldBalance.IsZero())
	assert.True(t, got.SilverBalance.IsZero())
}

func TestIDMonotonicityAcrossStreams(t *testing.T) {
	l := newTestLedger(t)
	c := newCustomer(t, l, "Hari")

	tx1, err := l.AddTransaction(context.Background(), c.ID, cashIn(100))
	require.NoError(t, err)

	shop, err := l.AddShopTransaction(context.Background(), cashIn(200))
	require.NoError(t, err)

	tx2, err := l.AddTransaction(context.Background(), c.ID, cashIn(300))
	require.NoError(t, err)

	assert.Equal(t, int64(1), tx1.ID)
	assert.Equal(t, int64(2), shop.ID)
	assert.Equal(t, int64(3), tx2.ID)
}

func TestHistoryNewestFirst(t *testing.T) {
	l := newTestLedger(t)
	c := newCustomer(t, l, "Lila")

	for i := 0; i < 4; i++ {
		_, err := l.AddTransaction(context.Background(), c.ID, cashIn(10))
		require.NoError(t, err)
	}

	got, err := l.Customer(c.ID)
	require.NoError(t, err)
	for i := 1; i < len(got.Transactions); i++ {
		prev, cur := got.Transactions[i-1], got.Transactions[i]
		assert.False(t, prev.Timestamp.Before(cur.Timestamp))
		assert.Greater(t, prev.ID, cur.ID)
	}
}

func TestMissingCustomer(t *testing.T) {
	l := newTestLedger(t)

	_, err := l.AddTransaction(context.Background(), 42, cashIn(100))
	require.ErrorIs(t, err, ErrCustomerNotFound)

	_, err = l.Customer(42)
	require.ErrorIs(t, err, ErrCustomerNotFound)

	require.ErrorIs(t, l.UpdateCustomer(context.Background(), 42, domain.CustomerProfile{Name: "x"}), ErrCustomerNotFound)
	require.ErrorIs(t, l.DeleteCustomer(context.Background(), 42), ErrCustomerNotFound)
}

func TestShopRejectsNonCashCategory(t *testing.T) {
	l := newTestLedger(t)

	_, err := l.AddShopTransaction(context.Background(), goldSale(1, 7000, 7000, 7000))
	require.ErrorIs(t, err, ErrShopCategory)
	assert.Empty(t, l.ShopTransactions())
}

func TestUpdateCustomerTouchesOnlyProfile(t *testing.T) {
	l := newTestLedger(t)
	c := newCustomer(t, l, "Radha")

	_, err := l.AddTransaction(context.Background(), c.ID, cashIn(500))
	require.NoError(t, err)

	require.NoError(t, l.UpdateCustomer(context.Background(), c.ID, domain.CustomerProfile{Name: "Radha Devi", Phone: "9111111111"}))

	got, err := l.Customer(c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Radha Devi", got.Name)
	assert.True(t, got.CashBalance.Equal(dec(-500)))
	assert.Len(t, got.Transactions, 1)
}

func TestClearAllTransactions(t *testing.T) {
	l := newTestLedger(t)
	c := newCustomer(t, l, "Shyam")

	_, err := l.AddTransaction(context.Background(), c.ID, goldSale(10, 7000, 70000, 60000))
	require.NoError(t, err)
	_, err = l.AddShopTransaction(context.Background(), cashIn(1000))
	require.NoError(t, err)

	require.NoError(t, l.ClearAllTransactions(context.Background()))

	got, err := l.Customer(c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Shyam", got.Name)
	assert.True(t, got.CashBalance.IsZero())
	assert.True(t, got.GoldBalance.IsZero())
	assert.True(t, got.SilverBalance.IsZero())
	assert.Empty(t, got.Transactions)
	assert.Empty(t, l.ShopTransactions())

	// id sequence restarts only because history is gone
	tx, err := l.AddTransaction(context.Background(), c.ID, cashIn(1))
	require.NoError(t, err)
	assert.Equal(t, int64(1), tx.ID)
}

func TestClearAllData(t *testing.T) {
	l := newTestLedger(t)
	c := newCustomer(t, l, "Mina")

	_, err := l.AddTransaction(context.Background(), c.ID, cashIn(100))
	require.NoError(t, err)
	require.NoError(t, l.UpdateLiveRates(context.Background(), domain.MetalGold, domain.Quote{Buy: dec(7000), Sell: dec(7200)}))

	require.NoError(t, l.ClearAllData(context.Background()))

	assert.Empty(t, l.Customers())
	assert.Empty(t, l.ShopTransactions())
	assert.Equal(t, domain.DefaultRates(), l.LiveRates())

	// both counters restart
	fresh := newCustomer(t, l, "Mina")
	assert.Equal(t, int64(1), fresh.ID)
	tx, err := l.AddTransaction(context.Background(), fresh.ID, cashIn(1))
	require.NoError(t, err)
	assert.Equal(t, int64(1), tx.ID)
}

func TestUpdateLiveRates(t *testing.T) {
	l := newTestLedger(t)

	quote := domain.Quote{Buy: dec(7100), Sell: dec(7300)}
	require.NoError(t, l.UpdateLiveRates(context.Background(), domain.MetalGold, quote))

	rates := l.LiveRates()
	assert.True(t, rates.Gold.Buy.Equal(dec(7100)))
	assert.True(t, rates.Gold.Sell.Equal(dec(7300)))
	// silver untouched
	assert.True(t, rates.Silver.Buy.Equal(dec(85)))

	require.Error(t, l.UpdateLiveRates(context.Background(), "platinum", quote))
}

type failingGateway struct {
	loads int
}

func (g *failingGateway) Load() (*domain.LedgerSnapshot, error) { g.loads++; return nil, nil }

func (g *failingGateway) Save(domain.LedgerSnapshot) error { return errors.New("disk full") }

func TestSaveFailureSurfacedNotRolledBack(t *testing.T) {
	l, err := Open(&failingGateway{}, nil, zap.NewNop())
	require.NoError(t, err)
	l.retrier = retrier.New(time.Millisecond, time.Millisecond, 1)

	c, err := l.CreateCustomer(context.Background(), domain.CustomerProfile{Name: "Kavi"})
	require.ErrorIs(t, err, ErrSaveFailed)
	require.NotZero(t, c.ID)

	tx, err := l.AddTransaction(context.Background(), c.ID, cashIn(700))
	require.ErrorIs(t, err, ErrSaveFailed)

	// the in-memory mutation stands
	got, lookupErr := l.Customer(c.ID)
	require.NoError(t, lookupErr)
	assert.True(t, got.CashBalance.Equal(dec(-700)))
	require.Len(t, got.Transactions, 1)
	assert.Equal(t, tx.ID, got.Transactions[0].ID)
}

type stubGateway struct {
	snap  *domain.LedgerSnapshot
	saved []domain.LedgerSnapshot
}

func (g *stubGateway) Load() (*domain.LedgerSnapshot, error) { return g.snap, nil }
func (g *stubGateway) Save(s domain.LedgerSnapshot) error {
	g.saved = append(g.saved, s)
	return nil
}

func TestOpenHydratesFromSnapshot(t *testing.T) {
	snap := domain.DefaultSnapshot()
	customer := domain.NewCustomer(7, domain.CustomerProfile{Name: "Asha"})
	customer.CashBalance = dec(1500)
	snap.Customers = append(snap.Customers, customer)
	snap.CustomerIDCounter = 7
	snap.TransactionIDCounter = 12

	l, err := Open(&stubGateway{snap: &snap}, nil, zap.NewNop())
	require.NoError(t, err)

	got, err := l.Customer(7)
	require.NoError(t, err)
	assert.True(t, got.CashBalance.Equal(dec(1500)))

	// counters continue from the snapshot
	fresh, err := l.CreateCustomer(context.Background(), domain.CustomerProfile{Name: "Binod"})
	require.NoError(t, err)
	assert.Equal(t, int64(8), fresh.ID)
}

type stubJournal struct {
	entries []domain.JournalEntry
	snap    *domain.LedgerSnapshot
}

func (j *stubJournal) Append(e domain.JournalEntry) error {
	j.entries = append(j.entries, e)
	return nil
}

func (j *stubJournal) Replay() (*domain.LedgerSnapshot, error) { return j.snap, nil }

func TestOpenFallsBackToJournalReplay(t *testing.T) {
	snap := domain.DefaultSnapshot()
	snap.Customers = append(snap.Customers, domain.NewCustomer(3, domain.CustomerProfile{Name: "Jaya"}))
	snap.CustomerIDCounter = 3

	l, err := Open(&stubGateway{snap: nil}, &stubJournal{snap: &snap}, zap.NewNop())
	require.NoError(t, err)

	_, err = l.Customer(3)
	require.NoError(t, err)
}

func TestMutationsAreJournaled(t *testing.T) {
	jr := &stubJournal{}
	l, err := Open(nil, jr, zap.NewNop())
	require.NoError(t, err)

	c, err := l.CreateCustomer(context.Background(), domain.CustomerProfile{Name: "Puja"})
	require.NoError(t, err)
	_, err = l.AddTransaction(context.Background(), c.ID, cashIn(10))
	require.NoError(t, err)

	require.Len(t, jr.entries, 2)
	assert.Equal(t, domain.JournalCustomerCreated, jr.entries[0].Kind)
	assert.Equal(t, domain.JournalTransaction, jr.entries[1].Kind)
	require.NotNil(t, jr.entries[1].Transaction)
	assert.True(t, jr.entries[1].Transaction.CashChange.Equal(dec(-10)))
}
