package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/big"

	"coinbridge/internal/config"
	"coinbridge/internal/domain"
)

const (
	coinModule    = "coin"
	coinStoreName = "CoinStore"
	coinInfoName  = "CoinInfo"
)

// BalanceFetcher reads every coin-store resource an account holds at a
// fixed ledger version. The same (address, version) pair always yields the
// same result; version pinning is what makes the read repeatable.
type BalanceFetcher struct {
	reader ResourceReader
	system string
	native domain.StructTag
}

func NewBalanceFetcher(reader ResourceReader, network config.Network) (*BalanceFetcher, error) {
	if reader == nil {
		return nil, errors.New("resource reader is required")
	}
	native, err := parseNativeTag(network)
	if err != nil {
		return nil, err
	}
	return &BalanceFetcher{
		reader: reader,
		system: domain.NormalizeAddress(network.SystemAddress),
		native: native,
	}, nil
}

// FetchBalances returns the account's coin balances keyed by canonical coin
// type. An account the node does not know at that version is reported as
// holding zero native coin rather than failing the request.
func (f *BalanceFetcher) FetchBalances(ctx context.Context, address string, version uint64) (map[string]domain.CoinBalance, error) {
	resources, err := f.reader.AccountResources(ctx, address, version)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return map[string]domain.CoinBalance{
				f.native.String(): {CoinType: f.native, Value: big.NewInt(0)},
			}, nil
		}
		return nil, fmt.Errorf("account resources for %s at %d: %w", address, version, err)
	}

	balances := make(map[string]domain.CoinBalance)
	for _, resource := range resources {
		coinType, ok := f.coinStoreType(resource.Type)
		if !ok {
			continue
		}
		value, err := parseCoinStorePayload(resource.Data)
		if err != nil {
			// One malformed coin store must not poison the request.
			slog.Warn("skipping malformed coin store",
				"address", address,
				"resource_type", resource.Type,
				"error", err,
			)
			continue
		}
		balances[coinType.String()] = domain.CoinBalance{CoinType: coinType, Value: value}
	}
	return balances, nil
}

// coinStoreType returns the coin type parameter when the resource is a
// well-formed coin store: system-owned coin module, CoinStore name, exactly
// one type parameter.
func (f *BalanceFetcher) coinStoreType(resourceType string) (domain.TypeTag, bool) {
	tag, err := domain.ParseTypeTag(resourceType)
	if err != nil {
		return nil, false
	}
	structTag, ok := tag.(domain.StructTag)
	if !ok {
		return nil, false
	}
	if domain.NormalizeAddress(structTag.Address) != f.system ||
		structTag.Module != coinModule ||
		structTag.Name != coinStoreName {
		return nil, false
	}
	if len(structTag.TypeParams) != 1 {
		return nil, false
	}
	return structTag.TypeParams[0], true
}

func parseCoinStorePayload(data json.RawMessage) (*big.Int, error) {
	var payload struct {
		Coin struct {
			Value string `json:"value"`
		} `json:"coin"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, err
	}
	value, ok := new(big.Int).SetString(payload.Coin.Value, 10)
	if !ok || value.Sign() < 0 {
		return nil, fmt.Errorf("invalid coin value %q", payload.Coin.Value)
	}
	return value, nil
}

func parseNativeTag(network config.Network) (domain.StructTag, error) {
	tag, err := domain.ParseTypeTag(network.Native.CoinType)
	if err != nil {
		return domain.StructTag{}, fmt.Errorf("native coin type: %w", err)
	}
	structTag, ok := tag.(domain.StructTag)
	if !ok {
		return domain.StructTag{}, fmt.Errorf("native coin type %q is not a struct type", network.Native.CoinType)
	}
	return structTag, nil
}
