package application

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"coinbridge/internal/config"
	"coinbridge/internal/domain"
	"coinbridge/internal/streaming"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type NetworkIdentifier struct {
	Blockchain string `json:"blockchain"`
	Network    string `json:"network"`
}

type AccountIdentifier struct {
	Address string `json:"address"`
}

type PartialBlockIdentifier struct {
	Index *uint64 `json:"index,omitempty"`
	Hash  *string `json:"hash,omitempty"`
}

type BalanceRequest struct {
	NetworkIdentifier NetworkIdentifier       `json:"network_identifier"`
	AccountIdentifier AccountIdentifier       `json:"account_identifier"`
	BlockIdentifier   *PartialBlockIdentifier `json:"block_identifier,omitempty"`
	Currencies        []domain.Currency       `json:"currencies,omitempty"`
}

type ResponseBlockIdentifier struct {
	Index uint64 `json:"index"`
	Hash  string `json:"hash"`
}

type BalanceResponse struct {
	BlockIdentifier ResponseBlockIdentifier `json:"block_identifier"`
	Balances        []domain.Amount         `json:"balances"`
}

// AuditPublisher receives one event per served query. Publishing is
// best-effort; failures never affect the response.
type AuditPublisher interface {
	PublishQuery(ctx context.Context, event streaming.QueryEvent) error
}

// BalanceService sequences one balance query: network validation, version
// resolution, balance fetch, currency resolution, projection. It owns no
// state of its own; the currency cache is the only shared component.
type BalanceService struct {
	network config.Network
	reader  ResourceReader
	blocks  *BlockResolver
	cache   *CurrencyCache
	fetcher *BalanceFetcher
	audit   AuditPublisher
}

func NewBalanceService(network config.Network, reader ResourceReader, blocks *BlockResolver, cache *CurrencyCache, audit AuditPublisher) (*BalanceService, error) {
	if reader == nil {
		return nil, errors.New("resource reader is required")
	}
	if blocks == nil {
		return nil, errors.New("block resolver is required")
	}
	if cache == nil {
		return nil, errors.New("currency cache is required")
	}
	fetcher, err := NewBalanceFetcher(reader, network)
	if err != nil {
		return nil, err
	}
	return &BalanceService{
		network: network,
		reader:  reader,
		blocks:  blocks,
		cache:   cache,
		fetcher: fetcher,
		audit:   audit,
	}, nil
}

func (s *BalanceService) CacheStats() (hits, misses, lookups uint64, size int) {
	return s.cache.Stats()
}

// AccountBalance serves one balance query. Every error crossing this
// boundary carries a stable code; raw node failures are folded into
// upstream_unavailable.
func (s *BalanceService) AccountBalance(ctx context.Context, req BalanceRequest) (BalanceResponse, error) {
	started := time.Now()
	tracer := otel.Tracer("coinbridge/balance")
	ctx, span := tracer.Start(ctx, "balance.account_balance", trace.WithSpanKind(trace.SpanKindServer))
	span.SetAttributes(
		attribute.String("network", req.NetworkIdentifier.Network),
		attribute.String("account.address", req.AccountIdentifier.Address),
	)
	defer span.End()

	response, block, err := s.accountBalance(ctx, req)
	if err != nil {
		coded := asCodedError(err)
		span.RecordError(coded)
		span.SetStatus(codes.Error, string(coded.Code))
		return BalanceResponse{}, coded
	}

	span.SetAttributes(attribute.Int("balances", len(response.Balances)))
	s.publishAudit(ctx, req, response, block, time.Since(started))
	return response, nil
}

func (s *BalanceService) accountBalance(ctx context.Context, req BalanceRequest) (BalanceResponse, domain.BlockIdentifier, error) {
	if err := s.checkNetwork(req.NetworkIdentifier); err != nil {
		return BalanceResponse{}, domain.BlockIdentifier{}, err
	}
	address := strings.TrimSpace(req.AccountIdentifier.Address)
	if address == "" {
		return BalanceResponse{}, domain.BlockIdentifier{}, domain.NewError(domain.ErrCodeInvalidRequest, "account address is required")
	}

	var selector BlockSelector
	if req.BlockIdentifier != nil {
		selector = BlockSelector{Index: req.BlockIdentifier.Index, Hash: req.BlockIdentifier.Hash}
	}
	block, err := s.blocks.ResolveBlock(ctx, selector)
	if err != nil {
		return BalanceResponse{}, domain.BlockIdentifier{}, err
	}

	balances, err := s.fetcher.FetchBalances(ctx, address, block.EndVersion)
	if err != nil {
		return BalanceResponse{}, domain.BlockIdentifier{}, err
	}

	version := block.EndVersion
	amounts := make([]domain.Amount, 0, len(balances))
	for _, balance := range balances {
		currency, err := s.cache.Currency(ctx, s.reader, balance.CoinType, &version)
		if err != nil {
			return BalanceResponse{}, domain.BlockIdentifier{}, err
		}
		if currency == nil {
			continue
		}
		amounts = append(amounts, domain.Amount{
			Value:    balance.Value.String(),
			Currency: *currency,
		})
	}

	return BalanceResponse{
		BlockIdentifier: ResponseBlockIdentifier{Index: block.Index, Hash: block.Hash},
		Balances:        ProjectAmounts(amounts, req.Currencies),
	}, block, nil
}

func (s *BalanceService) checkNetwork(id NetworkIdentifier) error {
	if id.Blockchain != s.network.Blockchain || id.Network != s.network.Name {
		return domain.NewError(domain.ErrCodeInvalidNetwork,
			"server network is %s/%s, request targets %s/%s",
			s.network.Blockchain, s.network.Name, id.Blockchain, id.Network)
	}
	return nil
}

func (s *BalanceService) publishAudit(ctx context.Context, req BalanceRequest, resp BalanceResponse, block domain.BlockIdentifier, elapsed time.Duration) {
	if s.audit == nil {
		return
	}
	event := streaming.QueryEvent{
		Type:       streaming.EventTypeBalanceQuery,
		Network:    s.network.Name,
		ChainID:    s.network.ChainID,
		TraceID:    trace.SpanContextFromContext(ctx).TraceID().String(),
		Address:    req.AccountIdentifier.Address,
		BlockIndex: block.Index,
		Version:    block.EndVersion,
		Coins:      len(resp.Balances),
		Filtered:   req.Currencies != nil,
		DurationMS: elapsed.Milliseconds(),
	}
	if err := s.audit.PublishQuery(ctx, event); err != nil {
		slog.Warn("audit publish failed", "address", event.Address, "error", err)
	}
}

// asCodedError guarantees a stable error code at the service boundary.
func asCodedError(err error) *domain.Error {
	var coded *domain.Error
	if errors.As(err, &coded) {
		return coded
	}
	return domain.NewError(domain.ErrCodeUpstreamUnavailable, "%v", err)
}
