// Package market provides brokerage-backed market data accessors: historical
// bars, the current price, account equity and the held position for one pair.
package market

import (
	"context"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/crossma/internal/domain"
)

// BinanceMarket serves market data for a single pair from Binance spot.
type BinanceMarket struct {
	client   *binance.Client
	pair     domain.Pair
	interval string
}

// NewBinanceMarket creates a market data accessor for the given pair and
// kline interval (e.g. "1m").
func NewBinanceMarket(client *binance.Client, pair domain.Pair, interval string) *BinanceMarket {
	return &BinanceMarket{client: client, pair: pair, interval: interval}
}

// GetBars fetches the most recent klines, ordered chronologically.
func (m *BinanceMarket) GetBars(ctx context.Context, limit int) ([]domain.Bar, error) {
	klines, err := m.client.NewKlinesService().
		Symbol(m.pair.Symbol()).
		Interval(m.interval).
		Limit(limit).
		Do(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to fetch klines from Binance for %s", m.pair.String())
	}

	bars := make([]domain.Bar, len(klines))
	for i, k := range klines {
		open, err := decimal.NewFromString(k.Open)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to parse open price at index %d", i)
		}
		high, err := decimal.NewFromString(k.High)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to parse high price at index %d", i)
		}
		low, err := decimal.NewFromString(k.Low)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to parse low price at index %d", i)
		}
		close, err := decimal.NewFromString(k.Close)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to parse close price at index %d", i)
		}
		volume, err := decimal.NewFromString(k.Volume)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to parse volume at index %d", i)
		}

		bars[i] = domain.Bar{
			OpenTime:  time.Unix(0, k.OpenTime*int64(time.Millisecond)),
			Open:      open,
			High:      high,
			Low:       low,
			Close:     close,
			Volume:    volume,
			CloseTime: time.Unix(0, k.CloseTime*int64(time.Millisecond)),
		}
	}

	return bars, nil
}

// GetPrice returns the last traded price for the pair.
func (m *BinanceMarket) GetPrice(ctx context.Context) (decimal.Decimal, error) {
	prices, err := m.client.NewListPricesService().Symbol(m.pair.Symbol()).Do(ctx)
	if err != nil {
		return decimal.Zero, errors.Wrapf(err, "failed to fetch price from Binance for %s", m.pair.String())
	}
	if len(prices) == 0 {
		return decimal.Zero, errors.Errorf("binance returned no price for %s", m.pair.String())
	}

	price, err := decimal.NewFromString(prices[0].Price)
	if err != nil {
		return decimal.Zero, errors.Wrap(err, "failed to parse price")
	}
	return price, nil
}

// GetEquity values the spot account in quote currency: free quote balance
// plus the base holding marked at the current price.
func (m *BinanceMarket) GetEquity(ctx context.Context) (decimal.Decimal, error) {
	account, err := m.client.NewGetAccountService().Do(ctx)
	if err != nil {
		return decimal.Zero, errors.Wrap(err, "failed to get binance account")
	}

	base, quote := decimal.Zero, decimal.Zero
	for _, balance := range account.Balances {
		switch balance.Asset {
		case m.pair.From:
			base, err = decimal.NewFromString(balance.Free)
		case m.pair.To:
			quote, err = decimal.NewFromString(balance.Free)
		default:
			continue
		}
		if err != nil {
			return decimal.Zero, errors.Wrapf(err, "failed to parse %s balance", balance.Asset)
		}
	}

	if base.IsZero() {
		return quote, nil
	}

	price, err := m.GetPrice(ctx)
	if err != nil {
		return decimal.Zero, err
	}

	return quote.Add(base.Mul(price)), nil
}

// GetPosition returns the held base quantity for the pair. The spot holding
// stands in for position state; it is queried fresh each tick, never cached.
func (m *BinanceMarket) GetPosition(ctx context.Context) (decimal.Decimal, error) {
	account, err := m.client.NewGetAccountService().Do(ctx)
	if err != nil {
		return decimal.Zero, errors.Wrap(err, "failed to get binance account")
	}

	for _, balance := range account.Balances {
		if balance.Asset == m.pair.From {
			qty, err := decimal.NewFromString(balance.Free)
			if err != nil {
				return decimal.Zero, errors.Wrap(err, "failed to parse position quantity")
			}
			return qty, nil
		}
	}

	return decimal.Zero, nil
}
