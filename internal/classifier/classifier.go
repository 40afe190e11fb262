// Package classifier turns a transaction payload into signed per-asset
// deltas. It is pure: no state, no I/O, no clock.
package classifier

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/khata/internal/domain"
)

// Delta is the signed effect of one transaction on a customer's three
// balances. Signs follow the receivable convention: positive means the
// shop owes the customer more, negative means the customer owes the shop.
type Delta struct {
	Cash   decimal.Decimal
	Gold   decimal.Decimal
	Silver decimal.Decimal
}

// Zero reports whether the delta changes nothing.
func (d Delta) Zero() bool {
	return d.Cash.IsZero() && d.Gold.IsZero() && d.Silver.IsZero()
}

// Classify computes the balance delta for a payload. The category set is
// closed: an unknown category is a programming error and panics. A
// details payload of the wrong concrete type for the category is a
// caller bug surfaced as an error.
func Classify(payload domain.TransactionPayload) (Delta, error) {
	switch payload.Category {
	case domain.CategorySale:
		d, err := tradeDetails(payload)
		if err != nil {
			return Delta{}, err
		}
		return sale(d), nil
	case domain.CategoryPurchase:
		d, err := tradeDetails(payload)
		if err != nil {
			return Delta{}, err
		}
		return purchase(d), nil
	case domain.CategoryTunch:
		d, ok := payload.Details.(domain.TunchDetails)
		if !ok {
			return Delta{}, errDetailsType(payload)
		}
		return Delta{Cash: d.TunchCharges.Neg()}, nil
	case domain.CategoryMetalExchange:
		d, ok := payload.Details.(domain.MetalExchangeDetails)
		if !ok {
			return Delta{}, errDetailsType(payload)
		}
		return Delta{
			Cash: d.FinalAmount.Neg(),
			Gold: d.MetalReturned.Sub(d.TotalFineWeight),
		}, nil
	case domain.CategoryGoldIn:
		d, err := movementDetails(payload)
		if err != nil {
			return Delta{}, err
		}
		return Delta{Cash: d.CashValue, Gold: d.Amount.Neg()}, nil
	case domain.CategoryGoldOut:
		d, err := movementDetails(payload)
		if err != nil {
			return Delta{}, err
		}
		return Delta{Cash: d.CashValue.Neg(), Gold: d.Amount}, nil
	case domain.CategorySilverIn:
		d, err := movementDetails(payload)
		if err != nil {
			return Delta{}, err
		}
		return Delta{Cash: d.CashValue, Silver: d.Amount.Neg()}, nil
	case domain.CategorySilverOut:
		d, err := movementDetails(payload)
		if err != nil {
			return Delta{}, err
		}
		return Delta{Cash: d.CashValue.Neg(), Silver: d.Amount}, nil
	case domain.CategoryCashIn:
		d, err := movementDetails(payload)
		if err != nil {
			return Delta{}, err
		}
		return Delta{Cash: d.Amount.Neg()}, nil
	case domain.CategoryCashOut:
		d, err := movementDetails(payload)
		if err != nil {
			return Delta{}, err
		}
		return Delta{Cash: d.Amount}, nil
	default:
		panic(fmt.Sprintf("classifier: unknown transaction category %q", payload.Category))
	}
}

// sale: shop hands metal over, customer's metal balance with the shop
// grows; any unpaid part of the price becomes a customer due.
func sale(d domain.TradeDetails) Delta {
	out := Delta{Cash: d.AmountPaid.Sub(d.TotalAmount)}
	if d.Metal == domain.MetalGold {
		out.Gold = d.Weight
	} else {
		out.Silver = d.Weight
	}
	return out
}

// purchase: mirror of sale — metal comes in, any unpaid part of the
// price becomes a shop due to the customer.
func purchase(d domain.TradeDetails) Delta {
	out := Delta{Cash: d.TotalAmount.Sub(d.AmountPaid)}
	if d.Metal == domain.MetalGold {
		out.Gold = d.Weight.Neg()
	} else {
		out.Silver = d.Weight.Neg()
	}
	return out
}

func tradeDetails(p domain.TransactionPayload) (domain.TradeDetails, error) {
	d, ok := p.Details.(domain.TradeDetails)
	if !ok {
		return domain.TradeDetails{}, errDetailsType(p)
	}
	return d, nil
}

func movementDetails(p domain.TransactionPayload) (domain.MovementDetails, error) {
	d, ok := p.Details.(domain.MovementDetails)
	if !ok {
		return domain.MovementDetails{}, errDetailsType(p)
	}
	return d, nil
}

func errDetailsType(p domain.TransactionPayload) error {
	return errors.Errorf("details payload %T does not match category %s", p.Details, p.Category)
}
