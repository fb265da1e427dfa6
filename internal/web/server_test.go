package web

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/vadiminshakov/crossma/internal/domain"
)

type fakeTrades struct {
	records []domain.TradeRecord
}

func (f *fakeTrades) ReadAll() ([]domain.TradeRecord, error) {
	return f.records, nil
}

type fakeStates struct {
	state domain.RiskState
}

func (f *fakeStates) Load() (domain.RiskState, error) {
	return f.state, nil
}

func (f *fakeStates) SetUserPaused(paused bool) error {
	f.state.UserPaused = paused
	return nil
}

func (f *fakeStates) ClearAutoPause() error {
	f.state.AutoPaused = false
	return nil
}

func sampleRecord(status string) domain.TradeRecord {
	return domain.TradeRecord{
		Timestamp:      time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		Symbol:         "BTC_USDT",
		Side:           domain.SideBuy,
		Qty:            decimal.NewFromFloat(0.001),
		Status:         status,
		FilledAvgPrice: "50000",
		Reason:         "SMA(10) crossed above SMA(20)",
		Confidence:     0.42,
	}
}

func newTestServer(trades *fakeTrades, states *fakeStates) *Server {
	return NewServer(":0", "BTC_USDT", trades, states)
}

func TestHandleState(t *testing.T) {
	states := &fakeStates{state: domain.RiskState{PeakEquity: decimal.NewFromInt(10000), AutoPaused: true}}
	srv := newTestServer(&fakeTrades{}, states)

	rec := httptest.NewRecorder()
	srv.handleState(rec, httptest.NewRequest(http.MethodGet, "/api/state", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp stateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "BTC_USDT", resp.Symbol)
	require.Equal(t, "10000", resp.PeakEquity)
	require.True(t, resp.AutoPaused)
	require.False(t, resp.UserPaused)
	require.False(t, resp.TradingAllowed)
}

func TestHandleTrades(t *testing.T) {
	trades := &fakeTrades{records: []domain.TradeRecord{sampleRecord("filled"), sampleRecord("dry_run")}}
	srv := newTestServer(trades, &fakeStates{})

	rec := httptest.NewRecorder()
	srv.handleTrades(rec, httptest.NewRequest(http.MethodGet, "/api/trades", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp []tradeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp, 2)
	require.Equal(t, "buy", resp[0].Side)
	require.Equal(t, "filled", resp[0].Status)
	require.Equal(t, "2025-06-01T12:00:00Z", resp[0].Timestamp)
}

func TestPauseResumeControls(t *testing.T) {
	states := &fakeStates{}
	srv := newTestServer(&fakeTrades{}, states)

	rec := httptest.NewRecorder()
	srv.handlePause(rec, httptest.NewRequest(http.MethodPost, "/api/pause", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, states.state.UserPaused)

	var resp stateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, resp.UserPaused)
	require.False(t, resp.TradingAllowed)

	rec = httptest.NewRecorder()
	srv.handleResume(rec, httptest.NewRequest(http.MethodPost, "/api/resume", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.False(t, states.state.UserPaused)
}

func TestControlsRejectGet(t *testing.T) {
	srv := newTestServer(&fakeTrades{}, &fakeStates{})

	for _, path := range []string{"/api/pause", "/api/resume", "/api/autopause/clear"} {
		rec := httptest.NewRecorder()
		srv.mux().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusMethodNotAllowed, rec.Code, "GET %s must be rejected", path)
	}
}

func TestClearAutoPause(t *testing.T) {
	states := &fakeStates{state: domain.RiskState{AutoPaused: true, UserPaused: true}}
	srv := newTestServer(&fakeTrades{}, states)

	rec := httptest.NewRecorder()
	srv.handleClearAutoPause(rec, httptest.NewRequest(http.MethodPost, "/api/autopause/clear", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	require.False(t, states.state.AutoPaused)
	require.True(t, states.state.UserPaused, "clearing auto-pause must not touch the user pause")
}

func TestTradeStreamSendsBacklog(t *testing.T) {
	trades := &fakeTrades{records: []domain.TradeRecord{sampleRecord("filled")}}
	srv := newTestServer(trades, &fakeStates{})

	ts := httptest.NewServer(srv.mux())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/trades/stream", nil)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	var event, data string
	for {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		if strings.HasPrefix(line, "event: ") {
			event = strings.TrimSpace(strings.TrimPrefix(line, "event: "))
		}
		if strings.HasPrefix(line, "data: ") {
			data = strings.TrimSpace(strings.TrimPrefix(line, "data: "))
			break
		}
	}
	cancel()

	require.Equal(t, "trade", event)

	var payload tradeResponse
	require.NoError(t, json.Unmarshal([]byte(data), &payload))
	require.Equal(t, "BTC_USDT", payload.Symbol)
	require.Equal(t, "filled", payload.Status)
}

func TestIndexServed(t *testing.T) {
	srv := newTestServer(&fakeTrades{}, &fakeStates{})

	rec := httptest.NewRecorder()
	srv.mux().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	require.Contains(t, rec.Body.String(), "crossma dashboard")
}
