package reports

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vadiminshakov/khata/internal/domain"
)

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func day(d int, hour int) time.Time {
	return time.Date(2026, 8, d, hour, 0, 0, 0, time.UTC)
}

// newest-first, the way the ledger stores histories
func customerWithHistory(id int64, name string, txs ...domain.Transaction) domain.Customer {
	c := domain.NewCustomer(id, domain.CustomerProfile{Name: name})
	for i := len(txs) - 1; i >= 0; i-- {
		c.Transactions = append(c.Transactions, txs[i])
	}
	if len(txs) > 0 {
		last := txs[len(txs)-1]
		c.CashBalance = last.CashBalanceAfter
		c.GoldBalance = last.GoldBalanceAfter
		c.SilverBalance = last.SilverBalanceAfter
	}
	return c
}

func cashTx(id int64, ts time.Time, change, after int64) domain.Transaction {
	category := domain.CategoryCashOut
	amount := change
	if change < 0 {
		category = domain.CategoryCashIn
		amount = -change
	}
	return domain.Transaction{
		ID:               id,
		Timestamp:        ts,
		Category:         category,
		Details:          domain.MovementDetails{Amount: dec(amount)},
		CashChange:       dec(change),
		CashBalanceAfter: dec(after),
	}
}

func TestOpeningClosing(t *testing.T) {
	c := customerWithHistory(1, "Ramesh",
		cashTx(1, day(1, 10), 1000, 1000),  // before the range
		cashTx(2, day(3, 11), -400, 600),   // inside
		cashTx(3, day(4, 12), 200, 800),    // inside
		cashTx(4, day(10, 9), -100, 700),   // after
	)

	from := day(2, 0)
	to := day(5, 0).Add(24*time.Hour - time.Nanosecond)

	summary := OpeningClosing([]domain.Customer{c}, from, to)

	assert.True(t, summary.Opening.Cash.Equal(dec(1000)), "opening %s", summary.Opening.Cash)
	assert.True(t, summary.Net.Cash.Equal(dec(-200)), "net %s", summary.Net.Cash)
	assert.True(t, summary.Closing.Cash.Equal(dec(800)), "closing %s", summary.Closing.Cash)
}

func TestOpeningClosingNoHistoryBeforeRange(t *testing.T) {
	c := customerWithHistory(1, "Sita", cashTx(1, day(3, 10), 500, 500))

	summary := OpeningClosing([]domain.Customer{c}, day(1, 0), day(30, 0))

	assert.True(t, summary.Opening.Cash.IsZero())
	assert.True(t, summary.Closing.Cash.Equal(dec(500)))
}

func TestMarketDues(t *testing.T) {
	debtor := customerWithHistory(1, "Mohan", cashTx(1, day(1, 10), -5000, -5000))
	creditor := customerWithHistory(2, "Gita", cashTx(2, day(1, 11), 3000, 3000))
	bigDebtor := customerWithHistory(3, "Hari", cashTx(3, day(1, 12), -9000, -9000))

	dues, total := MarketDues([]domain.Customer{debtor, creditor, bigDebtor})

	require.Len(t, dues, 2)
	assert.Equal(t, int64(3), dues[0].CustomerID) // biggest due first
	assert.Equal(t, int64(1), dues[1].CustomerID)
	assert.True(t, total.Equal(dec(-14000)))
}

func TestBusinessVolume(t *testing.T) {
	trader := customerWithHistory(1, "Shyam", domain.Transaction{
		ID: 1, Timestamp: day(1, 10), Category: domain.CategorySale,
		Details: domain.TradeDetails{Metal: domain.MetalGold, Weight: dec(10), Rate: dec(7000), TotalAmount: dec(70000), AmountPaid: dec(70000)},
	})
	exchanger := customerWithHistory(2, "Lila", domain.Transaction{
		ID: 2, Timestamp: day(1, 11), Category: domain.CategoryMetalExchange,
		Details: domain.MetalExchangeDetails{TotalFineWeight: dec(50), MetalReturned: dec(45), ValueOfDifference: dec(-35000), FinalAmount: dec(-34500)},
	})
	checker := customerWithHistory(3, "Kavi", domain.Transaction{
		ID: 3, Timestamp: day(1, 12), Category: domain.CategoryTunch,
		Details: domain.TunchDetails{TunchCharges: dec(200)},
	})

	ranked := BusinessVolume([]domain.Customer{checker, exchanger, trader}, 2)

	require.Len(t, ranked, 2)
	assert.Equal(t, int64(1), ranked[0].CustomerID)
	assert.True(t, ranked[0].Volume.Equal(dec(70000)))
	assert.Equal(t, int64(2), ranked[1].CustomerID)
	assert.True(t, ranked[1].Volume.Equal(dec(35000))) // absolute value
}

func TestBusinessVolumeSkipsZeroVolume(t *testing.T) {
	// cash movements carry no traded volume
	idle := customerWithHistory(1, "Asha", cashTx(1, day(1, 10), -100, -100))
	trader := customerWithHistory(2, "Binod", domain.Transaction{
		ID: 2, Timestamp: day(1, 11), Category: domain.CategorySale,
		Details: domain.TradeDetails{Metal: domain.MetalGold, Weight: dec(1), Rate: dec(7000), TotalAmount: dec(7000), AmountPaid: dec(7000)},
	})

	ranked := BusinessVolume([]domain.Customer{idle, trader}, 10)

	require.Len(t, ranked, 1)
	assert.Equal(t, int64(2), ranked[0].CustomerID)
}

func TestDailyValue(t *testing.T) {
	c := customerWithHistory(1, "Radha",
		domain.Transaction{
			ID: 1, Timestamp: day(1, 10), Category: domain.CategorySale,
			Details: domain.TradeDetails{TotalAmount: dec(70000)},
		},
		domain.Transaction{
			ID: 2, Timestamp: day(1, 15), Category: domain.CategoryTunch,
			Details: domain.TunchDetails{TunchCharges: dec(200)},
		},
		domain.Transaction{
			ID: 3, Timestamp: day(2, 10), Category: domain.CategoryMetalExchange,
			Details: domain.MetalExchangeDetails{FinalAmount: dec(-34500)},
		},
	)
	shop := []domain.ShopTransaction{
		{ID: 4, Timestamp: day(2, 16), Category: domain.CategoryCashOut, Details: domain.MovementDetails{Amount: dec(1000)}},
	}

	buckets := DailyValue([]domain.Customer{c}, shop)

	require.Len(t, buckets, 2)
	assert.Equal(t, "2026-08-01", buckets[0].Day)
	assert.True(t, buckets[0].Value.Equal(dec(70200)))
	assert.Equal(t, "2026-08-02", buckets[1].Day)
	assert.True(t, buckets[1].Value.Equal(dec(35500))) // |finalAmount| + shop amount
}

func TestDailyValueIgnoresMetalMovements(t *testing.T) {
	c := customerWithHistory(1, "Shanti",
		domain.Transaction{
			ID: 1, Timestamp: day(1, 10), Category: domain.CategoryGoldIn,
			Details: domain.MovementDetails{Amount: dec(5), Rate: dec(7000), CashValue: dec(35000)},
		},
		domain.Transaction{
			ID: 2, Timestamp: day(1, 11), Category: domain.CategorySilverOut,
			Details: domain.MovementDetails{Amount: dec(100)},
		},
		domain.Transaction{
			ID: 3, Timestamp: day(1, 12), Category: domain.CategoryCashIn,
			Details: domain.MovementDetails{Amount: dec(500)},
		},
	)

	buckets := DailyValue([]domain.Customer{c}, nil)

	// grams never count as currency; only the cash movement shows up
	require.Len(t, buckets, 1)
	assert.True(t, buckets[0].Value.Equal(dec(500)), "got %s", buckets[0].Value)
}

func TestQueriesAreIdempotent(t *testing.T) {
	c := customerWithHistory(1, "Mina",
		cashTx(1, day(1, 10), -5000, -5000),
		cashTx(2, day(2, 10), 1000, -4000),
	)
	customers := []domain.Customer{c}

	first, firstTotal := MarketDues(customers)
	second, secondTotal := MarketDues(customers)
	assert.Equal(t, first, second)
	assert.True(t, firstTotal.Equal(secondTotal))

	assert.Equal(t, DailyValue(customers, nil), DailyValue(customers, nil))
	assert.Equal(t,
		OpeningClosing(customers, day(1, 0), day(3, 0)),
		OpeningClosing(customers, day(1, 0), day(3, 0)))
}

func TestShopCashPosition(t *testing.T) {
	shop := []domain.ShopTransaction{
		{ID: 1, Timestamp: day(1, 10), Category: domain.CategoryCashIn, Details: domain.MovementDetails{Amount: dec(5000)}},
		{ID: 2, Timestamp: day(1, 11), Category: domain.CategoryCashOut, Details: domain.MovementDetails{Amount: dec(1200)}},
	}

	assert.True(t, ShopCashPosition(shop).Equal(dec(3800)))
	assert.True(t, ShopCashPosition(nil).IsZero())
}
