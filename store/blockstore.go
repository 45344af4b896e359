package store

import (
	"encoding/binary"
	"fmt"

	"github.com/mezonai/simplechain/db"
	ledgererrors "github.com/mezonai/simplechain/errors"
	"github.com/mezonai/simplechain/logx"
	"github.com/pkg/errors"
)

// BlockStore is the key-ordered persistent map from block height to the
// serialized block. It knows nothing about block contents.
type BlockStore interface {
	// Put stores value at height, overwriting any previous value
	Put(height uint64, value []byte) error
	// Get returns the value at height, or a NotFound error
	Get(height uint64) ([]byte, error)
	// Iterate visits entries in ascending height order until fn returns false.
	// Every call starts again from the lowest height.
	Iterate(fn func(height uint64, value []byte) bool) error
	// Count returns the number of entries present
	Count() (uint64, error)
	MustClose()
}

// GenericBlockStore is a database-agnostic implementation that uses an IterableProvider
type GenericBlockStore struct {
	provider db.IterableProvider
}

// NewGenericBlockStore creates a new generic block store with the given provider
func NewGenericBlockStore(provider db.IterableProvider) (BlockStore, error) {
	if provider == nil {
		return nil, fmt.Errorf("provider cannot be nil")
	}

	return &GenericBlockStore{provider: provider}, nil
}

// heightToBlockKey converts a height to a block storage key. Big-endian keeps
// byte order equal to numeric order.
func heightToBlockKey(height uint64) []byte {
	key := make([]byte, len(PrefixBlock)+8)
	copy(key, PrefixBlock)
	binary.BigEndian.PutUint64(key[len(PrefixBlock):], height)
	return key
}

// blockKeyToHeight is the inverse of heightToBlockKey
func blockKeyToHeight(key []byte) (uint64, bool) {
	if len(key) != len(PrefixBlock)+8 || string(key[:len(PrefixBlock)]) != PrefixBlock {
		return 0, false
	}
	return binary.BigEndian.Uint64(key[len(PrefixBlock):]), true
}

// Put stores a block value at height
func (s *GenericBlockStore) Put(height uint64, value []byte) error {
	if err := s.provider.Put(heightToBlockKey(height), value); err != nil {
		logx.Error("BLOCKSTORE", "Failed to put block ", height, " error: ", err)
		return errors.Wrapf(ledgererrors.StoreFailure(err), "put block %d", height)
	}
	return nil
}

// Get retrieves the block value at height
func (s *GenericBlockStore) Get(height uint64) ([]byte, error) {
	value, err := s.provider.Get(heightToBlockKey(height))
	if err != nil {
		logx.Error("BLOCKSTORE", "Failed to get block ", height, " error: ", err)
		return nil, errors.Wrapf(ledgererrors.StoreFailure(err), "get block %d", height)
	}
	if value == nil {
		return nil, ledgererrors.NotFound(height)
	}
	return value, nil
}

// Iterate walks all blocks in ascending height order
func (s *GenericBlockStore) Iterate(fn func(height uint64, value []byte) bool) error {
	err := s.provider.IteratePrefix([]byte(PrefixBlock), func(key, value []byte) bool {
		height, ok := blockKeyToHeight(key)
		if !ok {
			logx.Warn("BLOCKSTORE", "Skipping malformed block key ", fmt.Sprintf("%x", key))
			return true
		}
		return fn(height, value)
	})
	if err != nil {
		logx.Error("BLOCKSTORE", "Failed to iterate blocks, error: ", err)
		return errors.Wrap(ledgererrors.StoreFailure(err), "iterate blocks")
	}
	return nil
}

// Count returns the number of stored blocks
func (s *GenericBlockStore) Count() (uint64, error) {
	var count uint64
	err := s.Iterate(func(uint64, []byte) bool {
		count++
		return true
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

// MustClose closes the underlying database provider
func (s *GenericBlockStore) MustClose() {
	if err := s.provider.Close(); err != nil {
		logx.Error("BLOCKSTORE", "Failed to close provider: ", err)
	}
}
