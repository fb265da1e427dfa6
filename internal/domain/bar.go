package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Bar is a single OHLCV candle in chronological order within a batch.
type Bar struct {
	OpenTime  time.Time
	Open      decimal.Decimal
	High      decimal.Decimal
	Low       decimal.Decimal
	Close     decimal.Decimal
	Volume    decimal.Decimal
	CloseTime time.Time
}

// Closes extracts the close series from a batch of bars.
func Closes(bars []Bar) []decimal.Decimal {
	closes := make([]decimal.Decimal, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}
