// Package controlplane serves the operations HTTP API. It exposes read
// endpoints for runtime state, order flow features and the audit trail,
// and write endpoints for operator signals, position management and the
// safety switches. Signals enter the engine only through this surface.
package controlplane

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/Adamcza88/ai-matic-bot-sub001/internal/execution"
	"github.com/Adamcza88/ai-matic-bot-sub001/internal/logger"
	"github.com/Adamcza88/ai-matic-bot-sub001/internal/orderflow"
	"github.com/Adamcza88/ai-matic-bot-sub001/internal/types"
	"github.com/Adamcza88/ai-matic-bot-sub001/internal/version"
	"github.com/Adamcza88/ai-matic-bot-sub001/pkg/errors"
)

// Operator executes trading actions submitted through the operations
// API. The bot implements it against the live exchange; tests fake it.
type Operator interface {
	// PlaceSignal runs the full placement path for an operator signal.
	PlaceSignal(ctx context.Context, signal types.Signal, stop float64) (execution.PlaceOrderResult, error)
	// ExitPosition closes the named position at the given price and
	// returns the realized PnL.
	ExitPosition(ctx context.Context, symbol string, exitPrice float64) (float64, error)
	// AdjustStop tightens the protective stop on an open position.
	AdjustStop(ctx context.Context, symbol string, stop float64) error
}

// Server is the operations HTTP server.
type Server struct {
	config       Config
	logger       *logger.Logger
	runtime      *execution.Runtime
	store        *orderflow.Store
	liquidations *orderflow.LiquidationBuffer
	operator     Operator

	mu         sync.RWMutex
	httpServer *http.Server
	listener   net.Listener
}

// NewServer creates an operations server. Start must be called before it
// accepts connections.
func NewServer(config Config, runtime *execution.Runtime, store *orderflow.Store, liquidations *orderflow.LiquidationBuffer, operator Operator, log *logger.Logger) *Server {
	return &Server{
		config:       config,
		logger:       log,
		runtime:      runtime,
		store:        store,
		liquidations: liquidations,
		operator:     operator,
	}
}

// Start binds the configured address and begins serving in the
// background.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.config.Listen)
	if err != nil {
		return errors.Wrap(errors.ErrCodeServerFailed, "Failed to listen", err)
	}

	httpServer := &http.Server{
		Handler:           s.router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.mu.Lock()
	s.listener = listener
	s.httpServer = httpServer
	s.mu.Unlock()

	go func() {
		if err := httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.logger.Error("Operations server stopped", zap.Error(err))
		}
	}()

	s.logger.Info("Operations server listening", zap.String("address", s.Address()))
	return nil
}

// Stop gracefully shuts the server down.
func (s *Server) Stop() error {
	s.mu.RLock()
	httpServer := s.httpServer
	s.mu.RUnlock()

	if httpServer == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return httpServer.Shutdown(ctx)
}

// Address returns the server's listen address.
func (s *Server) Address() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.listener == nil {
		return s.config.Listen
	}
	return s.listener.Addr().String()
}

// BaseURL returns the base URL of the server.
func (s *Server) BaseURL() string {
	return fmt.Sprintf("http://%s", s.Address())
}

func (s *Server) router() *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/health", s.handleHealth).Methods("GET")
	router.HandleFunc("/status", s.handleStatus).Methods("GET")
	router.HandleFunc("/orderflow/{symbol}", s.handleOrderFlow).Methods("GET")
	router.HandleFunc("/liquidations/{symbol}", s.handleLiquidations).Methods("GET")
	router.HandleFunc("/audit", s.handleAudit).Methods("GET")

	router.HandleFunc("/signal", s.handleSignal).Methods("POST")
	router.HandleFunc("/exit", s.handleExit).Methods("POST")
	router.HandleFunc("/stop", s.handleStop).Methods("POST")
	router.HandleFunc("/kill", s.handleKillSwitch).Methods("POST")
	router.HandleFunc("/safe-mode", s.handleSafeMode).Methods("POST")

	return router
}

type statusResponse struct {
	State       execution.State  `json:"state"`
	Positions   []types.Position `json:"positions"`
	OpenRiskUsd float64          `json:"open_risk_usd"`
	KillSwitch  bool             `json:"kill_switch"`
	SafeMode    bool             `json:"safe_mode"`
}

type liquidationsResponse struct {
	Symbol string                   `json:"symbol"`
	Events []types.LiquidationEvent `json:"events"`
}

type signalRequest struct {
	Signal types.Signal `json:"signal"`
	Stop   float64      `json:"stop"`
}

type exitRequest struct {
	Symbol string  `json:"symbol"`
	Price  float64 `json:"price"`
}

type stopRequest struct {
	Symbol string  `json:"symbol"`
	Stop   float64 `json:"stop"`
}

type switchRequest struct {
	On bool `json:"on"`
}

type errorResponse struct {
	Error string           `json:"error"`
	Code  errors.ErrorCode `json:"code"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": version.GetVersion(),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, statusResponse{
		State:       s.runtime.State(),
		Positions:   s.runtime.Positions(),
		OpenRiskUsd: s.runtime.OpenRiskUsd(),
		KillSwitch:  s.runtime.KillSwitch(),
		SafeMode:    s.runtime.SafeMode(),
	})
}

func (s *Server) handleOrderFlow(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]
	s.writeJSON(w, http.StatusOK, s.store.GetSnapshot(symbol))
}

func (s *Server) handleLiquidations(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]
	s.writeJSON(w, http.StatusOK, liquidationsResponse{
		Symbol: symbol,
		Events: s.liquidations.Recent(symbol),
	})
}

func (s *Server) handleAudit(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.runtime.AuditEntries())
}

func (s *Server) handleSignal(w http.ResponseWriter, r *http.Request) {
	var request signalRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeBadRequestBody, "Invalid request body", err))
		return
	}

	result, err := s.operator.PlaceSignal(r.Context(), request.Signal, request.Stop)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleExit(w http.ResponseWriter, r *http.Request) {
	var request exitRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeBadRequestBody, "Invalid request body", err))
		return
	}

	pnl, err := s.operator.ExitPosition(r.Context(), request.Symbol, request.Price)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"symbol": request.Symbol,
		"pnl":    pnl,
	})
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	var request stopRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeBadRequestBody, "Invalid request body", err))
		return
	}

	if err := s.operator.AdjustStop(r.Context(), request.Symbol, request.Stop); err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"symbol": request.Symbol,
		"stop":   request.Stop,
	})
}

func (s *Server) handleKillSwitch(w http.ResponseWriter, r *http.Request) {
	var request switchRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeBadRequestBody, "Invalid request body", err))
		return
	}

	s.runtime.SetKillSwitch(request.On)
	s.writeJSON(w, http.StatusOK, map[string]any{"kill_switch": request.On})
}

func (s *Server) handleSafeMode(w http.ResponseWriter, r *http.Request) {
	var request switchRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeBadRequestBody, "Invalid request body", err))
		return
	}

	s.runtime.SetSafeMode(request.On)
	s.writeJSON(w, http.StatusOK, map[string]any{"safe_mode": request.On})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("Failed to encode response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	s.writeJSON(w, httpStatus(err), errorResponse{
		Error: err.Error(),
		Code:  errors.GetCode(err),
	})
}

// httpStatus maps an engine error to a response status. Policy
// rejections are the operator's problem, not the server's, so they come
// back 422 rather than 500.
func httpStatus(err error) int {
	code := errors.GetCode(err)
	switch {
	case code == errors.ErrCodePositionNotFound:
		return http.StatusNotFound
	case code == errors.ErrCodeBadRequestBody:
		return http.StatusBadRequest
	case code >= 100 && code < 200:
		return http.StatusBadRequest
	case code >= 300 && code < 400:
		return http.StatusConflict
	case errors.IsRejection(err):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}
