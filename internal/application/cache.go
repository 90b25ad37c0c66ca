package application

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"coinbridge/internal/config"
	"coinbridge/internal/domain"
)

// CurrencyCache memoizes coin type → currency metadata for the lifetime of
// the process. Metadata is immutable on chain, so entries never expire. A
// stored nil currency means the coin type is structurally valid but
// unsupported for display; that verdict is cached too and never retried.
type CurrencyCache struct {
	mu         sync.RWMutex
	currencies map[string]*domain.Currency

	native         domain.StructTag
	nativeCurrency domain.Currency
	system         string

	hits    atomic.Uint64
	misses  atomic.Uint64
	lookups atomic.Uint64
}

func NewCurrencyCache(network config.Network) (*CurrencyCache, error) {
	native, err := parseNativeTag(network)
	if err != nil {
		return nil, err
	}
	return &CurrencyCache{
		currencies: make(map[string]*domain.Currency),
		native:     native,
		nativeCurrency: domain.Currency{
			Symbol:   network.Native.Symbol,
			Decimals: network.Native.Decimals,
			Metadata: &domain.CurrencyMetadata{CoinType: native.String()},
		},
		system: domain.NormalizeAddress(network.SystemAddress),
	}, nil
}

// Currency resolves the display metadata for a coin type, memoizing the
// outcome. A nil currency with nil error means the coin is unsupported and
// must be skipped. The lock is never held across the descriptor read, so a
// slow node cannot serialize unrelated requests; racing misses for the same
// key both compute the same deterministic value and both insert it.
func (c *CurrencyCache) Currency(ctx context.Context, reader ResourceReader, coin domain.TypeTag, version *uint64) (*domain.Currency, error) {
	if coin.String() == c.native.String() {
		currency := c.nativeCurrency
		return &currency, nil
	}

	key := coin.String()
	c.mu.RLock()
	cached, ok := c.currencies[key]
	c.mu.RUnlock()
	if ok {
		c.hits.Add(1)
		return cloneCurrency(cached), nil
	}
	c.misses.Add(1)

	currency, err := c.fetchCurrency(ctx, reader, coin, version)
	if err != nil {
		// Failed or abandoned lookups must leave no trace in the map.
		return nil, err
	}

	c.mu.Lock()
	c.currencies[key] = currency
	c.mu.Unlock()
	return cloneCurrency(currency), nil
}

// fetchCurrency reads the coin's descriptor resource from chain. It runs
// without any cache lock held.
func (c *CurrencyCache) fetchCurrency(ctx context.Context, reader ResourceReader, coin domain.TypeTag, version *uint64) (*domain.Currency, error) {
	structTag, ok := coin.(domain.StructTag)
	if !ok {
		// Primitive and vector coin types carry no descriptor.
		return nil, nil
	}
	if len(structTag.TypeParams) > 0 {
		// Nested generic coins are not supported for display.
		return nil, nil
	}

	infoType := domain.StructTag{
		Address:    c.system,
		Module:     coinModule,
		Name:       coinInfoName,
		TypeParams: []domain.TypeTag{structTag},
	}
	canonical := infoType.String()
	encoded := domain.EncodeResourcePath(canonical)

	c.lookups.Add(1)
	payload, err := reader.AccountResource(ctx, structTag.Address, encoded, version)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, domain.NewError(domain.ErrCodeDescriptorMissing,
				"no descriptor for coin %s", coin)
		}
		return nil, err
	}

	info, err := parseCoinInfoPayload(payload)
	if err != nil {
		return nil, domain.NewError(domain.ErrCodeDescriptorMalformed,
			"descriptor for coin %s: %v", coin, err)
	}
	return &domain.Currency{
		Symbol:   info.symbol,
		Decimals: info.decimals,
		Metadata: &domain.CurrencyMetadata{CoinType: canonical},
	}, nil
}

// Stats reports cache effectiveness counters for the metrics endpoint.
func (c *CurrencyCache) Stats() (hits, misses, lookups uint64, size int) {
	c.mu.RLock()
	size = len(c.currencies)
	c.mu.RUnlock()
	return c.hits.Load(), c.misses.Load(), c.lookups.Load(), size
}

type coinInfo struct {
	name     string
	symbol   string
	decimals uint64
}

// parseCoinInfoPayload accepts decimals as either a bare number or a quoted
// integer; node versions differ on the encoding of small unsigned fields.
func parseCoinInfoPayload(data json.RawMessage) (coinInfo, error) {
	var payload struct {
		Name     string          `json:"name"`
		Symbol   string          `json:"symbol"`
		Decimals json.RawMessage `json:"decimals"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return coinInfo{}, err
	}
	if payload.Symbol == "" {
		return coinInfo{}, errors.New("missing symbol")
	}
	raw := strings.Trim(string(payload.Decimals), `"`)
	decimals, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return coinInfo{}, errors.New("invalid decimals")
	}
	return coinInfo{name: payload.Name, symbol: payload.Symbol, decimals: decimals}, nil
}

func cloneCurrency(currency *domain.Currency) *domain.Currency {
	if currency == nil {
		return nil
	}
	clone := *currency
	if currency.Metadata != nil {
		metadata := *currency.Metadata
		clone.Metadata = &metadata
	}
	return &clone
}
