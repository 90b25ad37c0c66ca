package domain

import "math/big"

// CoinBalance is one coin-store reading for a single (address, version)
// pair. Value is the raw on-chain integer, not scaled by decimals.
type CoinBalance struct {
	CoinType TypeTag
	Value    *big.Int
}

// Amount is a balance rendered for the wire: a decimal string plus the
// resolved currency.
type Amount struct {
	Value    string   `json:"value"`
	Currency Currency `json:"currency"`
}

// BlockIdentifier names one block and the ledger version at which its last
// transaction has been applied. Balance reads for the block pin to
// EndVersion.
type BlockIdentifier struct {
	Index      uint64
	Hash       string
	EndVersion uint64
}
