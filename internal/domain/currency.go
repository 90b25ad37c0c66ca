package domain

import "strconv"

// Currency is the display metadata for one coin type. Metadata, when
// present, pins the currency to the canonical on-chain type it came from;
// two currencies are interchangeable only when symbol, decimals and
// metadata all match.
type Currency struct {
	Symbol   string            `json:"symbol"`
	Decimals uint64            `json:"decimals"`
	Metadata *CurrencyMetadata `json:"metadata,omitempty"`
}

type CurrencyMetadata struct {
	CoinType string `json:"coin_type"`
}

func (c Currency) Equal(other Currency) bool {
	if c.Symbol != other.Symbol || c.Decimals != other.Decimals {
		return false
	}
	if (c.Metadata == nil) != (other.Metadata == nil) {
		return false
	}
	return c.Metadata == nil || c.Metadata.CoinType == other.Metadata.CoinType
}

// Key returns a string usable as a map key for strict currency equality.
// The string fields are quoted so a symbol containing the delimiter cannot
// collide with a structurally different currency.
func (c Currency) Key() string {
	key := strconv.Quote(c.Symbol) + "|" + strconv.FormatUint(c.Decimals, 10)
	if c.Metadata != nil {
		key += "|" + strconv.Quote(c.Metadata.CoinType)
	}
	return key
}
