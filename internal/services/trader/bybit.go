package trader

import (
	"context"

	bybit "github.com/hirokisan/bybit/v2"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/crossma/internal/domain"
)

// BybitTrader submits spot market orders to Bybit.
type BybitTrader struct {
	client *bybit.Client
	pair   domain.Pair
}

// NewBybitTrader creates a trader for the given pair.
func NewBybitTrader(client *bybit.Client, pair domain.Pair) *BybitTrader {
	return &BybitTrader{client: client, pair: pair}
}

// SubmitOrder places a market order. Bybit's create-order response carries no
// fill information, so the result is always "accepted" with a pending price.
func (t *BybitTrader) SubmitOrder(ctx context.Context, side domain.Side, qty decimal.Decimal) (domain.OrderResult, error) {
	bybitSide := bybit.SideBuy
	if side == domain.SideSell {
		bybitSide = bybit.SideSell
	}

	orderLinkID := newClientOrderID()
	_, err := t.client.V5().Order().CreateOrder(bybit.V5CreateOrderParam{
		Category:    bybit.CategoryV5Spot,
		Symbol:      bybit.SymbolV5(t.pair.Symbol()),
		Side:        bybitSide,
		OrderType:   bybit.OrderTypeMarket,
		Qty:         qty.RoundFloor(8).String(),
		OrderLinkID: &orderLinkID,
	})
	if err != nil {
		return domain.OrderResult{}, errors.Wrapf(err, "failed to submit %s order for %s", side, t.pair.String())
	}

	return domain.OrderResult{Status: "accepted", FilledAvgPrice: ""}, nil
}
