package domain

import (
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// Transaction is one immutable ledger record. It carries both the signed
// per-asset deltas and the balances that resulted from applying them, so
// history is self-describing without replaying earlier records.
type Transaction struct {
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Category  Category  `json:"category"`
	Details   Details   `json:"details"`

	CashChange   decimal.Decimal `json:"cashChange"`
	GoldChange   decimal.Decimal `json:"goldChange"`
	SilverChange decimal.Decimal `json:"silverChange"`

	CashBalanceAfter   decimal.Decimal `json:"cashBalanceAfter"`
	GoldBalanceAfter   decimal.Decimal `json:"goldBalanceAfter"`
	SilverBalanceAfter decimal.Decimal `json:"silverBalanceAfter"`
}

// ShopTransaction is a cash-only record on the shop account, not tied to
// any customer. It deliberately stores no running balance; the cash
// position of the shop is derived by folding the log.
type ShopTransaction struct {
	ID        int64           `json:"id"`
	Timestamp time.Time       `json:"timestamp"`
	Category  Category        `json:"category"`
	Details   MovementDetails `json:"details"`
}

// TransactionPayload is the input DTO a caller submits before the engine
// computes deltas and balances.
type TransactionPayload struct {
	Category Category `json:"category"`
	Details  Details  `json:"details"`
}

type transactionJSON struct {
	ID        int64           `json:"id"`
	Timestamp time.Time       `json:"timestamp"`
	Category  Category        `json:"category"`
	Details   json.RawMessage `json:"details"`

	CashChange   decimal.Decimal `json:"cashChange"`
	GoldChange   decimal.Decimal `json:"goldChange"`
	SilverChange decimal.Decimal `json:"silverChange"`

	CashBalanceAfter   decimal.Decimal `json:"cashBalanceAfter"`
	GoldBalanceAfter   decimal.Decimal `json:"goldBalanceAfter"`
	SilverBalanceAfter decimal.Decimal `json:"silverBalanceAfter"`
}

// UnmarshalJSON decodes the details payload into the concrete type the
// category dictates.
func (t *Transaction) UnmarshalJSON(data []byte) error {
	var tmp transactionJSON
	if err := json.Unmarshal(data, &tmp); err != nil {
		return errors.Wrap(err, "decode transaction")
	}

	details, err := DecodeDetails(tmp.Category, tmp.Details)
	if err != nil {
		return err
	}

	*t = Transaction{
		ID:                 tmp.ID,
		Timestamp:          tmp.Timestamp,
		Category:           tmp.Category,
		Details:            details,
		CashChange:         tmp.CashChange,
		GoldChange:         tmp.GoldChange,
		SilverChange:       tmp.SilverChange,
		CashBalanceAfter:   tmp.CashBalanceAfter,
		GoldBalanceAfter:   tmp.GoldBalanceAfter,
		SilverBalanceAfter: tmp.SilverBalanceAfter,
	}
	return nil
}

type payloadJSON struct {
	Category Category        `json:"category"`
	Details  json.RawMessage `json:"details"`
}

// UnmarshalJSON decodes the payload's details by category.
func (p *TransactionPayload) UnmarshalJSON(data []byte) error {
	var tmp payloadJSON
	if err := json.Unmarshal(data, &tmp); err != nil {
		return errors.Wrap(err, "decode transaction payload")
	}

	details, err := DecodeDetails(tmp.Category, tmp.Details)
	if err != nil {
		return err
	}

	*p = TransactionPayload{Category: tmp.Category, Details: details}
	return nil
}
