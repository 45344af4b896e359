//go:build rocksdb
// +build rocksdb

package db

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/linxGnu/grocksdb"
)

// RocksDBProvider implements IterableProvider for RocksDB
type RocksDBProvider struct {
	once sync.Once
	db   *grocksdb.DB
	ro   *grocksdb.ReadOptions
	wo   *grocksdb.WriteOptions
}

// NewRocksDBProvider creates a new RocksDB provider
func NewRocksDBProvider(directory string) (IterableProvider, error) {
	opts := grocksdb.NewDefaultOptions()
	opts.SetCreateIfMissing(true)

	db, err := grocksdb.OpenDb(opts, directory)
	if err != nil {
		return nil, fmt.Errorf("failed to open RocksDB: %w", err)
	}

	wo := grocksdb.NewDefaultWriteOptions()
	wo.SetSync(true)

	return &RocksDBProvider{
		db: db,
		ro: grocksdb.NewDefaultReadOptions(),
		wo: wo,
	}, nil
}

// Get retrieves a value by key
func (p *RocksDBProvider) Get(key []byte) ([]byte, error) {
	value, err := p.db.Get(p.ro, key)
	if err != nil {
		return nil, err
	}
	defer value.Free()

	if !value.Exists() {
		return nil, nil
	}

	// Copy the data since we're freeing the slice
	data := value.Data()
	result := make([]byte, len(data))
	copy(result, data)
	return result, nil
}

// Put stores a key-value pair
func (p *RocksDBProvider) Put(key, value []byte) error {
	return p.db.Put(p.wo, key, value)
}

// Has checks if a key exists
func (p *RocksDBProvider) Has(key []byte) (bool, error) {
	value, err := p.db.Get(p.ro, key)
	if err != nil {
		return false, err
	}
	if value == nil {
		return false, nil
	}
	defer value.Free()

	return value.Exists(), nil
}

// Close closes the database connection
func (p *RocksDBProvider) Close() error {
	p.once.Do(func() {
		p.ro.Destroy()
		p.wo.Destroy()
		p.db.Close()
	})
	return nil
}

// IteratePrefix implements IterableProvider for RocksDB
func (p *RocksDBProvider) IteratePrefix(prefix []byte, fn func(key, value []byte) bool) error {
	it := p.db.NewIterator(p.ro)
	defer it.Close()

	for it.Seek(prefix); it.Valid(); it.Next() {
		k := it.Key()
		v := it.Value()
		if !bytes.HasPrefix(k.Data(), prefix) {
			k.Free()
			v.Free()
			break
		}
		kdata := append([]byte(nil), k.Data()...)
		vdata := cloneBytes(v.Data())
		k.Free()
		v.Free()
		if !fn(kdata, vdata) {
			break
		}
	}
	return it.Err()
}
