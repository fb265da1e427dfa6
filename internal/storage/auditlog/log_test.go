package auditlog

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vadiminshakov/crossma/internal/domain"
)

func newTestLog(t *testing.T) (*Log, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "trade_log.csv")
	log, err := NewLog(path)
	require.NoError(t, err)
	return log, path
}

func sampleRecord(side domain.Side, status string) domain.TradeRecord {
	return domain.TradeRecord{
		Timestamp:      time.Date(2024, 3, 1, 15, 4, 5, 0, time.UTC),
		Symbol:         "BTC_USDT",
		Side:           side,
		Qty:            decimal.NewFromInt(2),
		Status:         status,
		FilledAvgPrice: "50123.5",
		Reason:         "SMA(10) crossed above SMA(20)",
		Confidence:     0.0234,
	}
}

func TestAppendAndReadBack(t *testing.T) {
	log, _ := newTestLog(t)

	const n = 5
	for i := 0; i < n; i++ {
		require.NoError(t, log.Append(sampleRecord(domain.SideBuy, "filled")))
	}

	records, err := log.ReadAll()
	require.NoError(t, err)
	require.Len(t, records, n, "re-reading after %d appends must yield exactly %d records", n, n)

	for _, rec := range records {
		assert.Equal(t, "BTC_USDT", rec.Symbol)
		assert.Equal(t, domain.SideBuy, rec.Side)
		assert.True(t, rec.Qty.Equal(decimal.NewFromInt(2)))
		assert.Equal(t, "filled", rec.Status)
		assert.Equal(t, "50123.5", rec.FilledAvgPrice)
		assert.Contains(t, rec.Reason, "crossed above")
		assert.InDelta(t, 0.0234, rec.Confidence, 1e-9)
	}
}

func TestHeaderWrittenOnce(t *testing.T) {
	log, path := newTestLog(t)

	require.NoError(t, log.Append(sampleRecord(domain.SideBuy, "filled")))
	require.NoError(t, log.Append(sampleRecord(domain.SideSell, "filled")))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "timestamp,symbol,side,qty,status,filled_avg_price,reason,confidence", lines[0])
	assert.Equal(t, 1, strings.Count(string(raw), "timestamp,symbol"))
}

func TestEveryRowHasEightFields(t *testing.T) {
	log, path := newTestLog(t)

	rec := sampleRecord(domain.SideBuy, domain.StatusDryRun)
	rec.FilledAvgPrice = "" // dry-run sentinel
	require.NoError(t, log.Append(rec))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	for i, row := range rows {
		assert.Len(t, row, 8, "row %d", i)
	}
}

func TestReadAllMissingFile(t *testing.T) {
	log, _ := newTestLog(t)

	records, err := log.ReadAll()
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestDryRunSentinelRoundtrip(t *testing.T) {
	log, _ := newTestLog(t)

	rec := sampleRecord(domain.SideSell, domain.StatusDryRun)
	rec.FilledAvgPrice = ""
	require.NoError(t, log.Append(rec))

	records, err := log.ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, domain.StatusDryRun, records[0].Status)
	assert.Empty(t, records[0].FilledAvgPrice)
}

func TestReasonWithCommaSurvives(t *testing.T) {
	log, _ := newTestLog(t)

	rec := sampleRecord(domain.SideBuy, "filled")
	rec.Reason = "SMA(10) is above SMA(20), no crossover"
	require.NoError(t, log.Append(rec))

	records, err := log.ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, rec.Reason, records[0].Reason)
}
