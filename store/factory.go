package store

import (
	"fmt"

	"github.com/mezonai/simplechain/db"
)

// StoreType represents the type of store implementation
type StoreType string

const (
	// LevelDBStoreType uses the LevelDB implementation
	LevelDBStoreType StoreType = "leveldb"

	// BoltStoreType uses a single bbolt file
	BoltStoreType StoreType = "bbolt"

	// RocksDBStoreType uses the RocksDB implementation (requires -tags rocksdb)
	RocksDBStoreType StoreType = "rocksdb"

	// RedisStoreType uses the Redis implementation
	RedisStoreType StoreType = "redis"

	// MemoryStoreType keeps blocks in process memory only
	MemoryStoreType StoreType = "memory"
)

// StoreConfig holds configuration for creating store instances
type StoreConfig struct {
	// Type specifies which store implementation to use
	Type StoreType `json:"type" yaml:"type"`

	// Directory is the database directory path (for file-based databases)
	Directory string `json:"directory" yaml:"directory"`

	// Address is the server address (for redis)
	Address string `json:"address" yaml:"address"`

	// Database selects the redis logical database
	Database int `json:"database" yaml:"database"`
}

// Validate validates the store configuration
func (sc *StoreConfig) Validate() error {
	if sc.Type == "" {
		return fmt.Errorf("store type cannot be empty")
	}

	switch sc.Type {
	case LevelDBStoreType, BoltStoreType, RocksDBStoreType:
		if sc.Directory == "" {
			return fmt.Errorf("directory cannot be empty for %s store", sc.Type)
		}
		return nil
	case RedisStoreType:
		if sc.Address == "" {
			return fmt.Errorf("address cannot be empty for redis store")
		}
		return nil
	case MemoryStoreType:
		return nil
	default:
		return fmt.Errorf("unsupported store type: %s", sc.Type)
	}
}

// StoreFactory take responsibility to create store instances
type StoreFactory struct{}

// NewStoreFactory creates a new store factory
func NewStoreFactory() *StoreFactory {
	return &StoreFactory{}
}

// CreateProvider creates a database provider based on the configuration
func (sf *StoreFactory) CreateProvider(config *StoreConfig) (db.IterableProvider, error) {
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	switch config.Type {
	case LevelDBStoreType:
		return db.NewLevelDBProvider(config.Directory)

	case BoltStoreType:
		return db.NewBoltProvider(config.Directory)

	case RocksDBStoreType:
		return db.NewRocksDBProvider(config.Directory)

	case RedisStoreType:
		return db.NewRedisProvider(config.Address, config.Database)

	case MemoryStoreType:
		return db.NewMemoryProvider(), nil

	default:
		return nil, fmt.Errorf("unsupported store type: %s", config.Type)
	}
}

// CreateBlockStore creates the provider and wraps it in a BlockStore
func (sf *StoreFactory) CreateBlockStore(config *StoreConfig) (BlockStore, error) {
	provider, err := sf.CreateProvider(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create provider: %w", err)
	}

	bs, err := NewGenericBlockStore(provider)
	if err != nil {
		_ = provider.Close()
		return nil, fmt.Errorf("failed to create block store: %w", err)
	}
	return bs, nil
}

// Global factory instance
var globalFactory = NewStoreFactory()

// CreateStore creates a block store using the global factory
func CreateStore(config *StoreConfig) (BlockStore, error) {
	return globalFactory.CreateBlockStore(config)
}
