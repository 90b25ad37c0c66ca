package blockstore

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"coinbridge/internal/domain"

	"github.com/redis/go-redis/v9"
)

const (
	blockKeyPrefix  = "coinbridge:block:index:"
	hashKeyPrefix   = "coinbridge:block:hash:"
	defaultCacheTTL = 24 * time.Hour
)

type CacheConfig struct {
	Addr string
	TTL  time.Duration
}

// CachedStore layers Redis in front of the SQL store. Block identifiers are
// immutable, so cached entries can only ever go stale by eviction, never by
// being wrong.
type CachedStore struct {
	*Store
	cache *redis.Client
	ttl   time.Duration
}

func NewCachedStore(base *Store, cfg CacheConfig) (*CachedStore, error) {
	if base == nil {
		return nil, errors.New("base block store is required")
	}
	if strings.TrimSpace(cfg.Addr) == "" {
		return &CachedStore{Store: base}, nil
	}
	if cfg.TTL <= 0 {
		cfg.TTL = defaultCacheTTL
	}
	client := redis.NewClient(&redis.Options{
		Addr: cfg.Addr,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return &CachedStore{Store: base, cache: client, ttl: cfg.TTL}, nil
}

func (s *CachedStore) BlockByIndex(ctx context.Context, index uint64) (domain.BlockIdentifier, bool, error) {
	if s.cache == nil {
		return s.Store.BlockByIndex(ctx, index)
	}
	key := blockKeyPrefix + strconv.FormatUint(index, 10)
	if block, ok := s.cachedBlock(ctx, key); ok {
		return block, true, nil
	}
	block, ok, err := s.Store.BlockByIndex(ctx, index)
	if err != nil || !ok {
		return block, ok, err
	}
	s.storeCached(ctx, block)
	return block, true, nil
}

func (s *CachedStore) BlockByHash(ctx context.Context, hash string) (domain.BlockIdentifier, bool, error) {
	if s.cache == nil {
		return s.Store.BlockByHash(ctx, hash)
	}
	if block, ok := s.cachedBlock(ctx, hashKeyPrefix+hash); ok {
		return block, true, nil
	}
	block, ok, err := s.Store.BlockByHash(ctx, hash)
	if err != nil || !ok {
		return block, ok, err
	}
	s.storeCached(ctx, block)
	return block, true, nil
}

func (s *CachedStore) SaveBlock(ctx context.Context, block domain.BlockIdentifier) error {
	if err := s.Store.SaveBlock(ctx, block); err != nil {
		return err
	}
	s.storeCached(ctx, block)
	return nil
}

type cachedBlock struct {
	Index      uint64 `json:"index"`
	Hash       string `json:"hash"`
	EndVersion uint64 `json:"end_version"`
}

func (s *CachedStore) cachedBlock(ctx context.Context, key string) (domain.BlockIdentifier, bool) {
	raw, err := s.cache.Get(ctx, key).Result()
	if err != nil {
		return domain.BlockIdentifier{}, false
	}
	var cached cachedBlock
	if err := json.Unmarshal([]byte(raw), &cached); err != nil {
		return domain.BlockIdentifier{}, false
	}
	return domain.BlockIdentifier{Index: cached.Index, Hash: cached.Hash, EndVersion: cached.EndVersion}, true
}

func (s *CachedStore) storeCached(ctx context.Context, block domain.BlockIdentifier) {
	if s.cache == nil {
		return
	}
	payload, err := json.Marshal(cachedBlock{Index: block.Index, Hash: block.Hash, EndVersion: block.EndVersion})
	if err != nil {
		return
	}
	_ = s.cache.Set(ctx, blockKeyPrefix+strconv.FormatUint(block.Index, 10), payload, s.ttl).Err()
	_ = s.cache.Set(ctx, hashKeyPrefix+block.Hash, payload, s.ttl).Err()
}
