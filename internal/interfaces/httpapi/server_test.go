package httpapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"coinbridge/internal/application"
	"coinbridge/internal/config"
	"coinbridge/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubBalances struct {
	response application.BalanceResponse
	err      error
}

func (s *stubBalances) AccountBalance(ctx context.Context, req application.BalanceRequest) (application.BalanceResponse, error) {
	return s.response, s.err
}

func (s *stubBalances) CacheStats() (hits, misses, lookups uint64, size int) {
	return 7, 3, 2, 4
}

type stubNode struct {
	err error
}

func (s *stubNode) LedgerInfo(ctx context.Context) (application.LedgerInfo, error) {
	return application.LedgerInfo{ChainID: 2}, s.err
}

type stubPinger struct {
	err error
}

func (s *stubPinger) Ping(ctx context.Context) error { return s.err }

func testServer(t *testing.T, balances BalanceHandler, node NodeStatus, store Pinger) *Server {
	t.Helper()
	network := config.Network{Name: "testnet", Blockchain: "aptos"}
	server, err := NewServer(network, balances, node, store, NewMetrics(), BuildInfo{Version: "1.2.3"})
	require.NoError(t, err)
	return server
}

const balanceBody = `{
	"network_identifier": {"blockchain": "aptos", "network": "testnet"},
	"account_identifier": {"address": "0xacc1"}
}`

func TestAccountBalanceOK(t *testing.T) {
	balances := &stubBalances{
		response: application.BalanceResponse{
			BlockIdentifier: application.ResponseBlockIdentifier{Index: 12, Hash: "0xhead"},
			Balances: []domain.Amount{
				{Value: "500", Currency: domain.Currency{Symbol: "TC", Decimals: 6}},
			},
		},
	}
	server := testServer(t, balances, &stubNode{}, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/account/balance", strings.NewReader(balanceBody))
	server.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), `"value":"500"`)
	assert.Contains(t, rec.Body.String(), `"hash":"0xhead"`)
}

func TestAccountBalanceMethodNotAllowed(t *testing.T) {
	server := testServer(t, &stubBalances{}, &stubNode{}, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/account/balance", nil)
	server.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestAccountBalanceMalformedBody(t *testing.T) {
	server := testServer(t, &stubBalances{}, &stubNode{}, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/account/balance", strings.NewReader("{"))
	server.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), string(domain.ErrCodeInvalidRequest))
}

func TestAccountBalanceErrorStatusMapping(t *testing.T) {
	cases := []struct {
		code   domain.ErrorCode
		status int
	}{
		{domain.ErrCodeInvalidNetwork, http.StatusBadRequest},
		{domain.ErrCodeInvalidRequest, http.StatusBadRequest},
		{domain.ErrCodeVersionUnresolvable, http.StatusNotFound},
		{domain.ErrCodeUpstreamUnavailable, http.StatusBadGateway},
		{domain.ErrCodeDescriptorMissing, http.StatusInternalServerError},
		{domain.ErrCodeDescriptorMalformed, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(string(tc.code), func(t *testing.T) {
			balances := &stubBalances{err: domain.NewError(tc.code, "boom")}
			server := testServer(t, balances, &stubNode{}, nil)

			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/account/balance", strings.NewReader(balanceBody))
			server.Handler().ServeHTTP(rec, req)

			assert.Equal(t, tc.status, rec.Code)
			assert.Contains(t, rec.Body.String(), string(tc.code))
		})
	}
}

func TestAccountBalanceUncodedErrorBecomesUpstream(t *testing.T) {
	balances := &stubBalances{err: errors.New("raw failure")}
	server := testServer(t, balances, &stubNode{}, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/account/balance", strings.NewReader(balanceBody))
	server.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), string(domain.ErrCodeUpstreamUnavailable))
}

func TestReadyz(t *testing.T) {
	t.Run("ready", func(t *testing.T) {
		server := testServer(t, &stubBalances{}, &stubNode{}, &stubPinger{})
		rec := httptest.NewRecorder()
		server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("node down", func(t *testing.T) {
		server := testServer(t, &stubBalances{}, &stubNode{err: errors.New("unreachable")}, nil)
		rec := httptest.NewRecorder()
		server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("store down", func(t *testing.T) {
		server := testServer(t, &stubBalances{}, &stubNode{}, &stubPinger{err: errors.New("gone")})
		rec := httptest.NewRecorder()
		server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func TestMetricsEndpoint(t *testing.T) {
	server := testServer(t, &stubBalances{}, &stubNode{}, nil)
	server.MetricsObserver().ObserveRequest(25 * time.Millisecond)
	server.MetricsObserver().ObserveRequestError(domain.ErrCodeInvalidNetwork)

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "coinbridge_requests_total 1")
	assert.Contains(t, body, `coinbridge_request_errors_total{code="invalid_network"} 1`)
	assert.Contains(t, body, "coinbridge_currency_cache_hits 7")
	assert.Contains(t, body, "coinbridge_currency_cache_misses 3")
	assert.Contains(t, body, "coinbridge_currency_cache_size 4")
}

func TestVersionEndpoint(t *testing.T) {
	server := testServer(t, &stubBalances{}, &stubNode{}, nil)

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/version", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"version":"1.2.3"`)
	assert.Contains(t, rec.Body.String(), `"network":"testnet"`)
}
