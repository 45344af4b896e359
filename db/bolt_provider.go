package db

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"
)

const (
	boltFileName = "chain.db"
	boltBucket   = "chain"
)

// BoltProvider implements IterableProvider on a single bbolt file
type BoltProvider struct {
	once   sync.Once
	db     *bolt.DB
	bucket []byte
}

// NewBoltProvider opens (or creates) directory/chain.db
func NewBoltProvider(directory string) (IterableProvider, error) {
	if err := os.MkdirAll(directory, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create bolt directory: %w", err)
	}

	path := filepath.Join(directory, boltFileName)
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bbolt at %s: %w", path, err)
	}

	p := &BoltProvider{db: db, bucket: []byte(boltBucket)}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(p.bucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create bucket %s: %w", boltBucket, err)
	}

	return p, nil
}

// Get retrieves a value by key
func (p *BoltProvider) Get(key []byte) ([]byte, error) {
	var value []byte
	err := p.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(p.bucket).Get(key)
		if v != nil {
			// bolt memory is only valid inside the transaction
			value = cloneBytes(v)
		}
		return nil
	})
	return value, err
}

// Put stores a key-value pair
func (p *BoltProvider) Put(key, value []byte) error {
	return p.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(p.bucket).Put(key, value)
	})
}

// Has checks if a key exists
func (p *BoltProvider) Has(key []byte) (bool, error) {
	var exists bool
	err := p.db.View(func(tx *bolt.Tx) error {
		exists = tx.Bucket(p.bucket).Get(key) != nil
		return nil
	})
	return exists, err
}

// Close closes the database file
func (p *BoltProvider) Close() error {
	var err error
	p.once.Do(func() {
		err = p.db.Close()
	})
	return err
}

// IteratePrefix iterates over all key-value pairs with the given prefix
func (p *BoltProvider) IteratePrefix(prefix []byte, callback func(key, value []byte) bool) error {
	return p.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(p.bucket).Cursor()
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			if !callback(append([]byte(nil), k...), cloneBytes(v)) {
				break
			}
		}
		return nil
	})
}
