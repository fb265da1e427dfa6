// Package web serves the dashboard: current risk state, the trade audit log
// and pause controls, with live updates over SSE.
package web

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/vadiminshakov/crossma/internal/domain"
	"golang.org/x/crypto/acme/autocert"
)

const tradePollInterval = 2 * time.Second

type tradeLogReader interface {
	ReadAll() ([]domain.TradeRecord, error)
}

type riskStateController interface {
	Load() (domain.RiskState, error)
	SetUserPaused(paused bool) error
	ClearAutoPause() error
}

// Server exposes HTTP endpoints serving the HTML UI, JSON APIs, pause
// controls and an SSE stream of audit log records.
type Server struct {
	Addr   string
	Symbol string
	Trades tradeLogReader
	States riskStateController
}

// NewServer creates a new web server instance.
func NewServer(addr, symbol string, trades tradeLogReader, states riskStateController) *Server {
	return &Server{Addr: addr, Symbol: symbol, Trades: trades, States: states}
}

func (s *Server) mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/api/state", s.handleState)
	mux.HandleFunc("/api/trades", s.handleTrades)
	mux.HandleFunc("/trades/stream", s.handleTradeStream)
	mux.HandleFunc("/api/pause", s.handlePause)
	mux.HandleFunc("/api/resume", s.handleResume)
	mux.HandleFunc("/api/autopause/clear", s.handleClearAutoPause)
	return mux
}

// Start runs the HTTP server (blocking) and shuts it down when ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	server := &http.Server{
		Addr:              s.Addr,
		Handler:           s.mux(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// StartWithAutoTLS runs an HTTPS server with automatic TLS certificates via ACME.
// It also starts an HTTP server on port 80 to handle ACME HTTP-01 challenges.
func (s *Server) StartWithAutoTLS(ctx context.Context, domains []string, cacheDir string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if len(domains) == 0 {
		return fmt.Errorf("no domains provided for automatic TLS")
	}
	if cacheDir == "" {
		cacheDir = "cert-cache"
	}

	manager := &autocert.Manager{
		Prompt:     autocert.AcceptTOS,
		HostPolicy: autocert.HostWhitelist(domains...),
		Cache:      autocert.DirCache(cacheDir),
	}

	// HTTP server on port 80 for ACME challenges and HTTP->HTTPS redirects.
	httpSrv := &http.Server{
		Addr:              ":80",
		Handler:           manager.HTTPHandler(nil),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	tlsConfig := manager.TLSConfig()
	tlsConfig.MinVersion = tls.VersionTLS12

	httpsSrv := &http.Server{
		Addr:              s.Addr,
		Handler:           s.mux(),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       120 * time.Second,
		TLSConfig:         tlsConfig,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("http (acme) server shutdown error: %v", err)
		}
		if err := httpsSrv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("https server shutdown error: %v", err)
		}
	}()

	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("http (acme) server error: %v", err)
		}
	}()

	if err := httpsSrv.ListenAndServeTLS("", ""); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, indexHTML)
}

type stateResponse struct {
	Symbol         string `json:"symbol"`
	PeakEquity     string `json:"peak_equity"`
	AutoPaused     bool   `json:"auto_paused"`
	UserPaused     bool   `json:"user_paused"`
	TradingAllowed bool   `json:"trading_allowed"`
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	state, err := s.States.Load()
	if err != nil {
		http.Error(w, "failed to load risk state", http.StatusInternalServerError)
		log.Printf("state load: %v", err)
		return
	}

	writeJSON(w, stateResponse{
		Symbol:         s.Symbol,
		PeakEquity:     state.PeakEquity.String(),
		AutoPaused:     state.AutoPaused,
		UserPaused:     state.UserPaused,
		TradingAllowed: state.TradingAllowed(),
	})
}

type tradeResponse struct {
	Timestamp      string  `json:"ts"`
	Symbol         string  `json:"symbol"`
	Side           string  `json:"side"`
	Qty            string  `json:"qty"`
	Status         string  `json:"status"`
	FilledAvgPrice string  `json:"filled_avg_price"`
	Reason         string  `json:"reason"`
	Confidence     float64 `json:"confidence"`
}

func toTradeResponse(rec domain.TradeRecord) tradeResponse {
	return tradeResponse{
		Timestamp:      rec.Timestamp.Format(time.RFC3339),
		Symbol:         rec.Symbol,
		Side:           string(rec.Side),
		Qty:            rec.Qty.String(),
		Status:         rec.Status,
		FilledAvgPrice: rec.FilledAvgPrice,
		Reason:         rec.Reason,
		Confidence:     rec.Confidence,
	}
}

func (s *Server) handleTrades(w http.ResponseWriter, r *http.Request) {
	records, err := s.Trades.ReadAll()
	if err != nil {
		http.Error(w, "failed to read trade log", http.StatusInternalServerError)
		log.Printf("trades read: %v", err)
		return
	}

	out := make([]tradeResponse, 0, len(records))
	for _, rec := range records {
		out = append(out, toTradeResponse(rec))
	}
	writeJSON(w, out)
}

func (s *Server) handleTradeStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	// send a comment heartbeat every 30s so proxies keep connection
	heartbeat := time.NewTicker(30 * time.Second)
	defer heartbeat.Stop()

	pollTicker := time.NewTicker(tradePollInterval)
	defer pollTicker.Stop()

	// records are append-only, so the count doubles as a stream cursor
	sent := parseLastEventID(r.Header.Get("Last-Event-ID"))
	sendTrades := func() error {
		records, err := s.Trades.ReadAll()
		if err != nil {
			return err
		}
		if len(records) <= sent {
			return nil
		}
		for i := sent; i < len(records); i++ {
			payload, err := json.Marshal(toTradeResponse(records[i]))
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "id: %d\n", i+1)
			fmt.Fprintf(w, "event: trade\n")
			fmt.Fprintf(w, "data: %s\n\n", payload)
			flusher.Flush()
		}
		sent = len(records)
		return nil
	}

	if err := sendTrades(); err != nil {
		http.Error(w, "failed to load trades", http.StatusInternalServerError)
		log.Printf("trade stream initial load: %v", err)
		return
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			fmt.Fprintf(w, ": ping\n\n")
			flusher.Flush()
		case <-pollTicker.C:
			if err := sendTrades(); err != nil {
				log.Printf("trade stream poll err: %v", err)
			}
		}
	}
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	s.setUserPaused(w, r, true)
}

func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	s.setUserPaused(w, r, false)
}

func (s *Server) setUserPaused(w http.ResponseWriter, r *http.Request, paused bool) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := s.States.SetUserPaused(paused); err != nil {
		http.Error(w, "failed to update risk state", http.StatusInternalServerError)
		log.Printf("set user_paused=%v: %v", paused, err)
		return
	}
	s.handleState(w, r)
}

func (s *Server) handleClearAutoPause(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := s.States.ClearAutoPause(); err != nil {
		http.Error(w, "failed to update risk state", http.StatusInternalServerError)
		log.Printf("clear auto_paused: %v", err)
		return
	}
	s.handleState(w, r)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("encode response: %v", err)
	}
}

func parseLastEventID(header string) int {
	if header == "" {
		return 0
	}
	n, err := strconv.Atoi(header)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
