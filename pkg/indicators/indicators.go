// Package indicators wraps the technical analysis primitives used by the
// signal engine (currently only the simple moving average).
package indicators

import (
	"fmt"

	"github.com/cinar/indicator/v2/helper"
	"github.com/cinar/indicator/v2/trend"
	"github.com/shopspring/decimal"
)

// CalculateSMA calculates the Simple Moving Average for the given period.
// The result has len(closes)-period+1 values, one per fully formed window.
func CalculateSMA(closes []decimal.Decimal, period int) ([]decimal.Decimal, error) {
	if period < 1 {
		return nil, fmt.Errorf("period must be at least 1, got %d", period)
	}
	if len(closes) < period {
		return nil, fmt.Errorf("not enough data points: need %d, got %d", period, len(closes))
	}

	closesFloat := decimalsToFloat64(closes)

	sma := trend.NewSmaWithPeriod[float64](period)
	inputChan := helper.SliceToChan(closesFloat)
	outputChan := sma.Compute(inputChan)
	smaFloat := helper.ChanToSlice(outputChan)

	return float64ToDecimals(smaFloat), nil
}

// LastTwoSMA returns the previous and current SMA values for the given
// period. Crossover detection needs exactly these two consecutive samples,
// so callers must provide at least period+1 closes.
func LastTwoSMA(closes []decimal.Decimal, period int) (prev, curr decimal.Decimal, err error) {
	if len(closes) < period+1 {
		return decimal.Zero, decimal.Zero, fmt.Errorf("not enough data points: need %d, got %d", period+1, len(closes))
	}

	values, err := CalculateSMA(closes, period)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	return values[len(values)-2], values[len(values)-1], nil
}

// decimalsToFloat64 converts a slice of decimal.Decimal to []float64.
func decimalsToFloat64(decimals []decimal.Decimal) []float64 {
	result := make([]float64, len(decimals))
	for i, d := range decimals {
		result[i], _ = d.Float64()
	}
	return result
}

// float64ToDecimals converts a slice of float64 to []decimal.Decimal.
func float64ToDecimals(floats []float64) []decimal.Decimal {
	result := make([]decimal.Decimal, len(floats))
	for i, f := range floats {
		result[i] = decimal.NewFromFloat(f)
	}
	return result
}
