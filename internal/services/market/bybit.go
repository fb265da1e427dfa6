package market

import (
	"context"
	"fmt"
	"time"

	bybit "github.com/hirokisan/bybit/v2"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/crossma/internal/domain"
)

// BybitMarket serves market data for a single pair from Bybit spot.
type BybitMarket struct {
	client   *bybit.Client
	pair     domain.Pair
	interval string
}

// NewBybitMarket creates a market data accessor for the given pair and
// kline interval (standard "1m"/"1h" form, converted to Bybit's notation).
func NewBybitMarket(client *bybit.Client, pair domain.Pair, interval string) *BybitMarket {
	return &BybitMarket{client: client, pair: pair, interval: interval}
}

// GetBars fetches the most recent klines, ordered chronologically.
// Bybit returns klines newest-first, so the batch is reversed.
func (m *BybitMarket) GetBars(ctx context.Context, limit int) ([]domain.Bar, error) {
	if limit <= 0 {
		return nil, errors.New("limit must be > 0")
	}

	bybitInterval, err := convertIntervalToBybit(m.interval)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid interval: %s", m.interval)
	}

	result, err := m.client.V5().Market().GetKline(bybit.V5GetKlineParam{
		Category: bybit.CategoryV5Spot,
		Symbol:   bybit.SymbolV5(m.pair.Symbol()),
		Interval: bybit.Interval(bybitInterval),
		Limit:    &limit,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to fetch klines from Bybit for %s", m.pair.String())
	}
	if result == nil || len(result.Result.List) == 0 {
		return nil, errors.Errorf("no kline data returned from Bybit for %s", m.pair.String())
	}

	klines := result.Result.List
	bars := make([]domain.Bar, len(klines))
	for i, k := range klines {
		openTime, err := parseTimestamp(k.StartTime)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to parse start time at index %d", i)
		}
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

		// reversed: Bybit lists newest first, bars must be chronological
		bars[len(klines)-1-i] = domain.Bar{
			OpenTime:  openTime,
			Open:      open,
			High:      high,
			Low:       low,
			Close:     close,
			Volume:    volume,
			CloseTime: openTime,
		}
	}

	return bars, nil
}

// GetPrice returns the last traded price for the pair.
func (m *BybitMarket) GetPrice(ctx context.Context) (decimal.Decimal, error) {
	symbol := bybit.SymbolV5(m.pair.Symbol())
	result, err := m.client.V5().Market().GetTickers(bybit.V5GetTickersParam{
		Category: bybit.CategoryV5Spot,
		Symbol:   &symbol,
	})
	if err != nil {
		return decimal.Zero, errors.Wrapf(err, "failed to fetch price from Bybit for %s", m.pair.String())
	}
	if len(result.Result.Spot.List) == 0 {
		return decimal.Zero, errors.Errorf("bybit returned no price for %s", m.pair.String())
	}

	return decimal.NewFromString(result.Result.Spot.List[0].LastPrice)
}

// GetEquity values the unified account in quote currency: quote wallet
// balance plus the base holding marked at the current price.
func (m *BybitMarket) GetEquity(ctx context.Context) (decimal.Decimal, error) {
	res, err := m.client.V5().Account().GetWalletBalance(bybit.AccountTypeV5("UNIFIED"), nil)
	if err != nil {
		return decimal.Zero, errors.Wrap(err, "failed to get bybit wallet balance")
	}
	if len(res.Result.List) == 0 {
		return decimal.Zero, errors.New("bybit returned no wallet data")
	}

	base, quote := decimal.Zero, decimal.Zero
	for _, coin := range res.Result.List[0].Coin {
		switch string(coin.Coin) {
		case m.pair.From:
			base, err = decimal.NewFromString(coin.WalletBalance)
		case m.pair.To:
			quote, err = decimal.NewFromString(coin.WalletBalance)
		default:
			continue
		}
		if err != nil {
			return decimal.Zero, errors.Wrapf(err, "failed to parse %s balance", coin.Coin)
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

// GetPosition returns the held base quantity for the pair.
func (m *BybitMarket) GetPosition(ctx context.Context) (decimal.Decimal, error) {
	res, err := m.client.V5().Account().GetWalletBalance(bybit.AccountTypeV5("UNIFIED"), nil)
	if err != nil {
		return decimal.Zero, errors.Wrap(err, "failed to get bybit wallet balance")
	}
	if len(res.Result.List) == 0 {
		return decimal.Zero, nil
	}

	for _, coin := range res.Result.List[0].Coin {
		if string(coin.Coin) == m.pair.From {
			qty, err := decimal.NewFromString(coin.WalletBalance)
			if err != nil {
				return decimal.Zero, errors.Wrap(err, "failed to parse position quantity")
			}
			return qty, nil
		}
	}

	return decimal.Zero, nil
}

// convertIntervalToBybit converts standard interval format to Bybit format.
/// Standard: "1m", "5m", "1h", "4h", "1d". Bybit: "1", "5", "60", "240", "D".
func convertIntervalToBybit(interval string) (string, error) {
	if len(interval) < 2 {
		return "", fmt.Errorf("invalid interval format: %s", interval)
	}

	unit := interval[len(interval)-1]
	numberPart := interval[:len(interval)-1]

	switch unit {
	case 'm':
		return numberPart, nil
	case 'h':
		var n int64
		for _, r := range numberPart {
			if r < '0' || r > '9' {
				return "", fmt.Errorf("invalid interval number: %s", interval)
			}
			n = n*10 + int64(r-'0')
		}
		return fmt.Sprintf("%d", n*60), nil
	case 'd':
		return "D", nil
	case 'w':
		return "W", nil
	default:
		return "", fmt.Errorf("unsupported interval unit: %c", unit)
	}
}

// parseTimestamp converts a Bybit millisecond timestamp string to time.Time.
func parseTimestamp(ts string) (time.Time, error) {
	if ts == "" {
		return time.Time{}, errors.New("empty timestamp")
	}

	var msec int64
	if _, err := fmt.Sscanf(ts, "%d", &msec); err != nil {
		return time.Time{}, errors.Wrapf(err, "failed to parse timestamp: %s", ts)
	}

	return time.UnixMilli(msec), nil
}
