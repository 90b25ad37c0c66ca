package application

import (
	"context"
	"encoding/json"
	"errors"
)

// ErrNotFound is returned by ledger readers when the node reports that an
// account, resource or block does not exist at the requested version. It is
// the only remote failure the balance pipeline absorbs; everything else
// surfaces as an upstream error.
var ErrNotFound = errors.New("not found")

// Resource is one on-chain resource as served by the node: its canonical
// type string and the raw JSON payload.
type Resource struct {
	Type string
	Data json.RawMessage
}

// LedgerInfo is the node's view of the chain head.
type LedgerInfo struct {
	ChainID       uint64
	LedgerVersion uint64
	BlockHeight   uint64
}

// BlockInfo describes one block and the ledger version range it covers.
type BlockInfo struct {
	Height       uint64
	Hash         string
	FirstVersion uint64
	LastVersion  uint64
}

// ResourceReader reads account state from the node at a pinned ledger
// version. Implementations must not retry on behalf of the caller.
type ResourceReader interface {
	AccountResources(ctx context.Context, address string, version uint64) ([]Resource, error)
	AccountResource(ctx context.Context, address, resourcePath string, version *uint64) (json.RawMessage, error)
}

// BlockReader resolves chain-head and block metadata from the node.
type BlockReader interface {
	LedgerInfo(ctx context.Context) (LedgerInfo, error)
	BlockByHeight(ctx context.Context, height uint64) (BlockInfo, error)
}
