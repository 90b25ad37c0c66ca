package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"coinbridge/internal/application"
	"coinbridge/internal/config"
	"coinbridge/internal/domain"
)

// BalanceHandler is the application service behind /account/balance.
type BalanceHandler interface {
	AccountBalance(ctx context.Context, req application.BalanceRequest) (application.BalanceResponse, error)
	CacheStats() (hits, misses, lookups uint64, size int)
}

// NodeStatus is the readiness probe against the upstream node.
type NodeStatus interface {
	LedgerInfo(ctx context.Context) (application.LedgerInfo, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type BuildInfo struct {
	Version   string
	Commit    string
	BuildTime string
}

type Server struct {
	network   config.Network
	balances  BalanceHandler
	node      NodeStatus
	store     Pinger
	metrics   *Metrics
	buildInfo BuildInfo
}

func NewServer(network config.Network, balances BalanceHandler, node NodeStatus, store Pinger, metrics *Metrics, buildInfo BuildInfo) (*Server, error) {
	if balances == nil || node == nil {
		return nil, errors.New("http server dependencies must not be nil")
	}
	if metrics == nil {
		metrics = NewMetrics()
	}
	return &Server{
		network:   network,
		balances:  balances,
		node:      node,
		store:     store,
		metrics:   metrics,
		buildInfo: buildInfo,
	}, nil
}

func (s *Server) MetricsObserver() *Metrics {
	return s.metrics
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/account/balance", s.handleAccountBalance)
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	mux.HandleFunc("/metrics", s.handleMetrics)
	mux.HandleFunc("/version", s.handleVersion)
	return mux
}

func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
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

func (s *Server) handleAccountBalance(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, domain.ErrCodeInvalidRequest, "method not allowed")
		return
	}

	var req application.BalanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, domain.ErrCodeInvalidRequest, "malformed request body")
		return
	}

	started := time.Now()
	response, err := s.balances.AccountBalance(r.Context(), req)
	if err != nil {
		coded := codedError(err)
		s.metrics.ObserveRequestError(coded.Code)
		respondError(w, statusForCode(coded.Code), coded.Code, coded.Detail)
		return
	}
	s.metrics.ObserveRequest(time.Since(started))
	respondJSON(w, http.StatusOK, response)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if _, err := s.node.LedgerInfo(ctx); err != nil {
		respondError(w, http.StatusServiceUnavailable, domain.ErrCodeUpstreamUnavailable, "node not ready")
		return
	}
	if s.store != nil {
		if err := s.store.Ping(ctx); err != nil {
			respondError(w, http.StatusServiceUnavailable, domain.ErrCodeUpstreamUnavailable, "block store not ready")
			return
		}
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	snap := s.metrics.Snapshot()
	hits, misses, lookups, size := s.balances.CacheStats()

	uptime := time.Since(snap.StartTime).Seconds()
	avgMillis := float64(0)
	if snap.Requests > 0 {
		avgMillis = float64(snap.TotalDuration.Milliseconds()) / float64(snap.Requests)
	}

	fmt.Fprintf(w, "coinbridge_uptime_seconds %.0f\n", uptime)
	fmt.Fprintf(w, "coinbridge_requests_total %d\n", snap.Requests)
	for code, count := range snap.RequestErrors {
		fmt.Fprintf(w, "coinbridge_request_errors_total{code=%q} %d\n", code, count)
	}
	fmt.Fprintf(w, "coinbridge_request_last_ms %d\n", snap.LastDuration.Milliseconds())
	fmt.Fprintf(w, "coinbridge_request_max_ms %d\n", snap.MaxDuration.Milliseconds())
	fmt.Fprintf(w, "coinbridge_request_avg_ms %.2f\n", avgMillis)
	fmt.Fprintf(w, "coinbridge_currency_cache_hits %d\n", hits)
	fmt.Fprintf(w, "coinbridge_currency_cache_misses %d\n", misses)
	fmt.Fprintf(w, "coinbridge_currency_descriptor_lookups %d\n", lookups)
	fmt.Fprintf(w, "coinbridge_currency_cache_size %d\n", size)
	fmt.Fprintf(w, "coinbridge_audit_publish_errors %d\n", snap.AuditPublishErr)
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"version":    s.buildInfo.Version,
		"commit":     s.buildInfo.Commit,
		"build_time": s.buildInfo.BuildTime,
		"blockchain": s.network.Blockchain,
		"network":    s.network.Name,
	})
}

func statusForCode(code domain.ErrorCode) int {
	switch code {
	case domain.ErrCodeInvalidNetwork, domain.ErrCodeInvalidRequest:
		return http.StatusBadRequest
	case domain.ErrCodeVersionUnresolvable:
		return http.StatusNotFound
	case domain.ErrCodeUpstreamUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func codedError(err error) *domain.Error {
	var coded *domain.Error
	if errors.As(err, &coded) {
		return coded
	}
	return domain.NewError(domain.ErrCodeUpstreamUnavailable, "request failed")
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, code domain.ErrorCode, message string) {
	respondJSON(w, status, map[string]string{
		"code":    string(code),
		"message": message,
	})
}
