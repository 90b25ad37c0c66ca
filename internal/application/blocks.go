package application

import (
	"context"
	"errors"
	"log/slog"

	"coinbridge/internal/domain"
)

// BlockStore persists resolved block identifiers. Blocks are immutable, so
// stored entries never need invalidation.
type BlockStore interface {
	BlockByIndex(ctx context.Context, index uint64) (domain.BlockIdentifier, bool, error)
	BlockByHash(ctx context.Context, hash string) (domain.BlockIdentifier, bool, error)
	SaveBlock(ctx context.Context, block domain.BlockIdentifier) error
}

// BlockSelector is the caller's choice of point in history: explicit index,
// explicit hash, or neither for the chain head.
type BlockSelector struct {
	Index *uint64
	Hash  *string
}

// BlockResolver turns a selector into a concrete block identifier whose end
// version pins every read of the request. The store is a read-through layer
// in front of the node; it may be nil.
type BlockResolver struct {
	node  BlockReader
	store BlockStore
}

func NewBlockResolver(node BlockReader, store BlockStore) (*BlockResolver, error) {
	if node == nil {
		return nil, errors.New("block reader is required")
	}
	return &BlockResolver{node: node, store: store}, nil
}

func (r *BlockResolver) ResolveBlock(ctx context.Context, selector BlockSelector) (domain.BlockIdentifier, error) {
	switch {
	case selector.Index != nil:
		block, err := r.blockByIndex(ctx, *selector.Index)
		if err != nil {
			return domain.BlockIdentifier{}, err
		}
		if selector.Hash != nil && block.Hash != *selector.Hash {
			return domain.BlockIdentifier{}, domain.NewError(domain.ErrCodeVersionUnresolvable,
				"block %d has hash %s, not %s", *selector.Index, block.Hash, *selector.Hash)
		}
		return block, nil
	case selector.Hash != nil:
		return r.blockByHash(ctx, *selector.Hash)
	default:
		return r.latestBlock(ctx)
	}
}

func (r *BlockResolver) blockByIndex(ctx context.Context, index uint64) (domain.BlockIdentifier, error) {
	if r.store != nil {
		block, ok, err := r.store.BlockByIndex(ctx, index)
		if err != nil {
			slog.Warn("block store read failed", "index", index, "error", err)
		} else if ok {
			return block, nil
		}
	}

	info, err := r.node.BlockByHeight(ctx, index)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return domain.BlockIdentifier{}, domain.NewError(domain.ErrCodeVersionUnresolvable,
				"no block at index %d", index)
		}
		return domain.BlockIdentifier{}, err
	}
	block := domain.BlockIdentifier{
		Index:      info.Height,
		Hash:       info.Hash,
		EndVersion: info.LastVersion,
	}
	if r.store != nil {
		if err := r.store.SaveBlock(ctx, block); err != nil {
			slog.Warn("block store write failed", "index", index, "error", err)
		}
	}
	return block, nil
}

func (r *BlockResolver) blockByHash(ctx context.Context, hash string) (domain.BlockIdentifier, error) {
	if r.store != nil {
		block, ok, err := r.store.BlockByHash(ctx, hash)
		if err != nil {
			slog.Warn("block store read failed", "hash", hash, "error", err)
		} else if ok {
			return block, nil
		}
	}
	// The node API has no hash lookup; only previously resolved blocks can
	// be addressed by hash.
	return domain.BlockIdentifier{}, domain.NewError(domain.ErrCodeVersionUnresolvable,
		"unknown block hash %s", hash)
}

func (r *BlockResolver) latestBlock(ctx context.Context) (domain.BlockIdentifier, error) {
	info, err := r.node.LedgerInfo(ctx)
	if err != nil {
		return domain.BlockIdentifier{}, err
	}
	return r.blockByIndex(ctx, info.BlockHeight)
}
