package domain

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// Details is the category-tagged payload of a transaction. Exactly one
// concrete type exists per group of categories; the classifier switches
// over the concrete types exhaustively.
type Details interface {
	details()
}

// TradeDetails describes a Sale or Purchase of fine metal.
type TradeDetails struct {
	Metal       Metal           `json:"metal"`
	Weight      decimal.Decimal `json:"weight"` // fine grams
	Rate        decimal.Decimal `json:"rate"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	AmountPaid  decimal.Decimal `json:"amountPaid"`
	Remarks     string          `json:"remarks,omitempty"`
}

// TunchDetails describes a purity check.
type TunchDetails struct {
	SampleType   string          `json:"sampleType"`
	GrossWeight  decimal.Decimal `json:"grossWeight"`
	Purity       decimal.Decimal `json:"purity"` // percent
	FineWeight   decimal.Decimal `json:"fineWeight"`
	TunchCharges decimal.Decimal `json:"tunchCharges"`
	ImageURL     string          `json:"imageUrl,omitempty"`
	Remarks      string          `json:"remarks,omitempty"`
}

// ExchangeSample is a single piece of metal handed in during an exchange.
type ExchangeSample struct {
	ID          string          `json:"id"`
	Kind        SampleKind      `json:"kind"`
	GrossWeight decimal.Decimal `json:"grossWeight"`
	Purity      decimal.Decimal `json:"purity"`
	ImageURL    string          `json:"imageUrl,omitempty"`
}

// NewExchangeSample builds a sample with a fresh identifier.
func NewExchangeSample(kind SampleKind, grossWeight, purity decimal.Decimal) ExchangeSample {
	return ExchangeSample{
		ID:          uuid.NewString(),
		Kind:        kind,
		GrossWeight: grossWeight,
		Purity:      purity,
	}
}

// FineWeight is the pure-metal-equivalent weight of the sample.
func (s ExchangeSample) FineWeight() decimal.Decimal {
	return FineWeight(s.GrossWeight, s.Purity)
}

// MetalExchangeDetails describes an old-for-new metal exchange settlement.
// Signs are from the shop's perspective: positive MetalDifference means
// fine metal came in, positive FinalAmount means cash came in.
type MetalExchangeDetails struct {
	Samples           []ExchangeSample `json:"samples"`
	TotalGrossWeight  decimal.Decimal  `json:"totalGrossWeight"`
	TotalFineWeight   decimal.Decimal  `json:"totalFineWeight"`
	MetalReturned     decimal.Decimal  `json:"metalReturned"`
	MetalDifference   decimal.Decimal  `json:"metalDifference"`
	RateUsed          decimal.Decimal  `json:"rateUsed"`
	ValueOfDifference decimal.Decimal  `json:"valueOfDifference"`
	TonCharges        decimal.Decimal  `json:"tonCharges"`
	FinalAmount       decimal.Decimal  `json:"finalAmount"`
	SettlementType    Settlement       `json:"settlementType"`
	Remarks           string           `json:"remarks,omitempty"`
}

// MovementDetails describes a simple in/out movement of one asset.
// Amount is grams for metal movements and currency for cash movements.
// Rate and CashValue are set only when a rate applies to a metal movement.
type MovementDetails struct {
	Amount    decimal.Decimal `json:"amount"`
	Rate      decimal.Decimal `json:"rate,omitempty"`
	CashValue decimal.Decimal `json:"cashValue,omitempty"`
	Remarks   string          `json:"remarks,omitempty"`
}

func (TradeDetails) details()         {}
func (TunchDetails) details()         {}
func (MetalExchangeDetails) details() {}
func (MovementDetails) details()      {}

// FineWeight computes the pure-metal-equivalent of a gross weight at the
// given purity percentage.
func FineWeight(grossWeight, purity decimal.Decimal) decimal.Decimal {
	return grossWeight.Mul(purity).Div(decimal.NewFromInt(100))
}

// DecodeDetails unmarshals a raw details payload into the concrete type
// dictated by the category.
func DecodeDetails(category Category, raw json.RawMessage) (Details, error) {
	switch category {
	case CategorySale, CategoryPurchase:
		var d TradeDetails
		if err := json.Unmarshal(raw, &d); err != nil {
			return nil, errors.Wrap(err, "decode trade details")
		}
		return d, nil
	case CategoryTunch:
		var d TunchDetails
		if err := json.Unmarshal(raw, &d); err != nil {
			return nil, errors.Wrap(err, "decode tunch details")
		}
		return d, nil
	case CategoryMetalExchange:
		var d MetalExchangeDetails
		if err := json.Unmarshal(raw, &d); err != nil {
			return nil, errors.Wrap(err, "decode metal exchange details")
		}
		return d, nil
	case CategoryGoldIn, CategoryGoldOut, CategorySilverIn, CategorySilverOut,
		CategoryCashIn, CategoryCashOut:
		var d MovementDetails
		if err := json.Unmarshal(raw, &d); err != nil {
			return nil, errors.Wrap(err, "decode movement details")
		}
		return d, nil
	default:
		return nil, errors.Errorf("unknown transaction category %q", category)
	}
}
