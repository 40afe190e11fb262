// Package domain defines the core data structures of the jewellery ledger.
package domain

// Category is the closed set of transaction kinds the ledger accepts.
type Category string

const (
	// CategorySale shop sells metal to the customer.
	CategorySale Category = "Sale"
	// CategoryPurchase shop buys metal from the customer.
	CategoryPurchase Category = "Purchase"
	// CategoryTunch purity-check service with a flat fee.
	CategoryTunch Category = "Tunch"
	// CategoryMetalExchange old metal handed in against fine metal returned.
	CategoryMetalExchange Category = "MetalExchange"
	// CategoryGoldIn customer deposits fine gold with the shop.
	CategoryGoldIn Category = "GoldIn"
	// CategoryGoldOut customer withdraws fine gold from the shop.
	CategoryGoldOut Category = "GoldOut"
	// CategorySilverIn customer deposits fine silver with the shop.
	CategorySilverIn Category = "SilverIn"
	// CategorySilverOut customer withdraws fine silver from the shop.
	CategorySilverOut Category = "SilverOut"
	// CategoryCashIn customer pays cash to the shop.
	CategoryCashIn Category = "CashIn"
	// CategoryCashOut shop pays cash to the customer.
	CategoryCashOut Category = "CashOut"
)

// IsValid reports whether c belongs to the closed category set.
func (c Category) IsValid() bool {
	switch c {
	case CategorySale, CategoryPurchase, CategoryTunch, CategoryMetalExchange,
		CategoryGoldIn, CategoryGoldOut, CategorySilverIn, CategorySilverOut,
		CategoryCashIn, CategoryCashOut:
		return true
	}
	return false
}

// IsCashOnly reports whether c is one of the pure cash movements
// admitted on the shop account.
func (c Category) IsCashOnly() bool {
	return c == CategoryCashIn || c == CategoryCashOut
}

// String returns the string representation of the category.
func (c Category) String() string {
	return string(c)
}

// Metal identifies which metal a trade concerns.
type Metal string

const (
	MetalGold   Metal = "gold"
	MetalSilver Metal = "silver"
)

// IsValid reports whether m is a known metal.
func (m Metal) IsValid() bool {
	return m == MetalGold || m == MetalSilver
}

// Settlement is the disposition of a metal-exchange balance.
type Settlement string

const (
	// SettlementOnTheSpot settled in full at the counter.
	SettlementOnTheSpot Settlement = "on-the-spot"
	// SettlementJama difference credited to the customer in advance.
	SettlementJama Settlement = "jama"
	// SettlementBakaya difference left as a due.
	SettlementBakaya Settlement = "bakaya"
)

// SampleKind classifies a metal-exchange sample.
type SampleKind string

const (
	SampleOrnament SampleKind = "ornament"
	SampleKacha    SampleKind = "kacha"
	SampleCoin     SampleKind = "coin"
	SampleCustom   SampleKind = "custom"
)
