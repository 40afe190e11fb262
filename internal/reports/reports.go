// Package reports derives read-only views from the transaction stream.
// Every query is a pure function over copied ledger state, recomputed
// on each call; calling one never mutates anything.
package reports

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/khata/internal/domain"
)

// AssetTotals is a cash/gold/silver triple.
type AssetTotals struct {
	Cash   decimal.Decimal `json:"cash"`
	Gold   decimal.Decimal `json:"gold"`
	Silver decimal.Decimal `json:"silver"`
}

func (t AssetTotals) add(u AssetTotals) AssetTotals {
	return AssetTotals{
		Cash:   t.Cash.Add(u.Cash),
		Gold:   t.Gold.Add(u.Gold),
		Silver: t.Silver.Add(u.Silver),
	}
}

// BalanceSummary is the opening/net/closing view over a date range,
// aggregated across all customers.
type BalanceSummary struct {
	Opening AssetTotals `json:"opening"`
	Net     AssetTotals `json:"net"`
	Closing AssetTotals `json:"closing"`
}

// OpeningClosing computes the aggregate opening balance (state strictly
// before from), the net movement within [from, to], and the resulting
// closing balance. Histories are expected newest-first, as the ledger
// stores them.
func OpeningClosing(customers []domain.Customer, from, to time.Time) BalanceSummary {
	var out BalanceSummary
	for _, c := range customers {
		out.Opening = out.Opening.add(openingOf(c, from))
		out.Net = out.Net.add(netOf(c, from, to))
	}
	out.Closing = out.Opening.add(out.Net)
	return out
}

// openingOf is the running balance after the latest transaction strictly
// before the range start, or zero when the customer had none.
func openingOf(c domain.Customer, from time.Time) AssetTotals {
	for _, tx := range c.Transactions {
		if tx.Timestamp.Before(from) {
			return AssetTotals{
				Cash:   tx.CashBalanceAfter,
				Gold:   tx.GoldBalanceAfter,
				Silver: tx.SilverBalanceAfter,
			}
		}
	}
	return AssetTotals{}
}

func netOf(c domain.Customer, from, to time.Time) AssetTotals {
	var out AssetTotals
	for _, tx := range c.Transactions {
		if tx.Timestamp.Before(from) || tx.Timestamp.After(to) {
			continue
		}
		out = out.add(AssetTotals{Cash: tx.CashChange, Gold: tx.GoldChange, Silver: tx.SilverChange})
	}
	return out
}

// Due is one customer owing cash to the shop.
type Due struct {
	CustomerID int64           `json:"customerId"`
	Name       string          `json:"name"`
	Phone      string          `json:"phone"`
	Amount     decimal.Decimal `json:"amount"` // negative cash balance
}

// MarketDues lists customers with a negative cash balance and the total
// of those balances.
func MarketDues(customers []domain.Customer) ([]Due, decimal.Decimal) {
	dues := make([]Due, 0)
	total := decimal.Zero
	for _, c := range customers {
		if c.CashBalance.IsNegative() {
			dues = append(dues, Due{CustomerID: c.ID, Name: c.Name, Phone: c.Phone, Amount: c.CashBalance})
			total = total.Add(c.CashBalance)
		}
	}
	sort.SliceStable(dues, func(i, j int) bool {
		return dues[i].Amount.LessThan(dues[j].Amount)
	})
	return dues, total
}

// VolumeEntry is one customer's traded business volume.
type VolumeEntry struct {
	CustomerID int64           `json:"customerId"`
	Name       string          `json:"name"`
	Volume     decimal.Decimal `json:"volume"`
}

// BusinessVolume ranks customers by total traded value: totalAmount for
// sales and purchases, the absolute exchanged-value for metal exchanges,
// the fee for purity checks. Customers with no traded volume are
// omitted. Returns the top n entries.
func BusinessVolume(customers []domain.Customer, n int) []VolumeEntry {
	entries := make([]VolumeEntry, 0, len(customers))
	for _, c := range customers {
		volume := decimal.Zero
		for _, tx := range c.Transactions {
			switch d := tx.Details.(type) {
			case domain.TradeDetails:
				volume = volume.Add(d.TotalAmount)
			case domain.MetalExchangeDetails:
				volume = volume.Add(d.ValueOfDifference.Abs())
			case domain.TunchDetails:
				volume = volume.Add(d.TunchCharges)
			}
		}
		if !volume.IsPositive() {
			continue
		}
		entries = append(entries, VolumeEntry{CustomerID: c.ID, Name: c.Name, Volume: volume})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Volume.GreaterThan(entries[j].Volume)
	})
	if n > 0 && len(entries) > n {
		entries = entries[:n]
	}
	return entries
}

// DayBucket is the summed transaction value of one calendar day.
type DayBucket struct {
	Day   string          `json:"day"` // YYYY-MM-DD
	Value decimal.Decimal `json:"value"`
}

// DailyValue buckets every customer and shop transaction by calendar
// day and sums the per-category value projection: totalAmount for
// trades, |finalAmount| for exchanges, the fee for purity checks, the
// moved amount for cash movements. Metal movements do not count.
// Buckets come back in day order.
func DailyValue(customers []domain.Customer, shopTxs []domain.ShopTransaction) []DayBucket {
	buckets := make(map[string]decimal.Decimal)

	for _, c := range customers {
		for _, tx := range c.Transactions {
			day := tx.Timestamp.Format(time.DateOnly)
			buckets[day] = buckets[day].Add(transactionValue(tx))
		}
	}
	for _, tx := range shopTxs {
		day := tx.Timestamp.Format(time.DateOnly)
		buckets[day] = buckets[day].Add(tx.Details.Amount)
	}

	out := make([]DayBucket, 0, len(buckets))
	for day, value := range buckets {
		out = append(out, DayBucket{Day: day, Value: value})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day < out[j].Day })
	return out
}

// transactionValue projects a transaction onto a currency value by
// category. Metal movements carry grams in Amount, not currency, so
// they contribute nothing to the day bucket.
func transactionValue(tx domain.Transaction) decimal.Decimal {
	switch tx.Category {
	case domain.CategorySale, domain.CategoryPurchase:
		if d, ok := tx.Details.(domain.TradeDetails); ok {
			return d.TotalAmount
		}
	case domain.CategoryMetalExchange:
		if d, ok := tx.Details.(domain.MetalExchangeDetails); ok {
			return d.FinalAmount.Abs()
		}
	case domain.CategoryTunch:
		if d, ok := tx.Details.(domain.TunchDetails); ok {
			return d.TunchCharges
		}
	case domain.CategoryCashIn, domain.CategoryCashOut:
		if d, ok := tx.Details.(domain.MovementDetails); ok {
			return d.Amount
		}
	}
	return decimal.Zero
}

// ShopCashPosition folds the shop account log into its net cash
// position from the shop's perspective: CashIn adds, CashOut subtracts.
func ShopCashPosition(shopTxs []domain.ShopTransaction) decimal.Decimal {
	total := decimal.Zero
	for _, tx := range shopTxs {
		switch tx.Category {
		case domain.CategoryCashIn:
			total = total.Add(tx.Details.Amount)
		case domain.CategoryCashOut:
			total = total.Sub(tx.Details.Amount)
		}
	}
	return total
}
