package db

import (
	"fmt"
	"sync"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// LevelDBProvider implements IterableProvider for LevelDB
type LevelDBProvider struct {
	once sync.Once
	db   *leveldb.DB
	wo   *opt.WriteOptions
}

// NewLevelDBProvider creates a new LevelDB provider
func NewLevelDBProvider(directory string) (IterableProvider, error) {
	db, err := leveldb.OpenFile(directory, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open LevelDB: %w", err)
	}

	// blocks must survive a crash right after AddBlock returns
	return &LevelDBProvider{db: db, wo: &opt.WriteOptions{Sync: true}}, nil
}

// Get retrieves a value by key
func (p *LevelDBProvider) Get(key []byte) ([]byte, error) {
	value, err := p.db.Get(key, nil)
	if err != nil {
		if err == leveldb.ErrNotFound {
			return nil, nil
		}
		return nil, err
	}
	return value, nil
}

// Put stores a key-value pair
func (p *LevelDBProvider) Put(key, value []byte) error {
	return p.db.Put(key, value, p.wo)
}

// Has checks if a key exists
func (p *LevelDBProvider) Has(key []byte) (bool, error) {
	return p.db.Has(key, nil)
}

// Close closes the database connection
func (p *LevelDBProvider) Close() error {
	// avoid double close when being shared by several stores
	var err error
	p.once.Do(func() {
		err = p.db.Close()
	})
	return err
}

// IteratePrefix iterates over all key-value pairs with the given prefix
func (p *LevelDBProvider) IteratePrefix(prefix []byte, callback func(key, value []byte) bool) error {
	iter := p.db.NewIterator(util.BytesPrefix(prefix), nil)
	defer iter.Release()

	for iter.Next() {
		// iterator buffers are reused on Next
		key := append([]byte(nil), iter.Key()...)
		value := cloneBytes(iter.Value())
		if !callback(key, value) {
			break
		}
	}

	return iter.Error()
}
