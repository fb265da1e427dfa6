package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Side of an order.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Order status values written to the audit log for decisions that never
// reached the brokerage. Statuses of submitted orders come from the
// brokerage itself (e.g. "filled", "new").
const (
	StatusDryRun = "dry_run"
	StatusError  = "error"
)

// OrderResult is what the brokerage reports back on submission.
// FilledAvgPrice is empty while the fill is still pending.
type OrderResult struct {
	Status         string
	FilledAvgPrice string
}

// TradeRecord is one append-only audit log entry. One record is written per
// submitted order attempt, or per dry-run decision. Immutable once written.
type TradeRecord struct {
	Timestamp time.Time
	Symbol    string
	Side      Side
	Qty       decimal.Decimal
	Status    string
	// FilledAvgPrice is empty for dry-run and still-pending orders.
	FilledAvgPrice string
	Reason         string
	Confidence     float64
}

// String returns a human-readable string representation.
func (t *TradeRecord) String() string {
	return fmt.Sprintf("%s %s %s qty=%s status=%s", t.Symbol, t.Side, t.Timestamp.Format(time.RFC3339), t.Qty.String(), t.Status)
}
