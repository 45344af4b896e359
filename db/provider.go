package db

import "errors"

// ErrClosed is returned by providers used after Close
var ErrClosed = errors.New("database provider is closed")

// DatabaseProvider abstracts the low-level database operations.
// Ledger data is append-only, so providers expose no delete.
type DatabaseProvider interface {
	// Get retrieves a value by key. A missing key yields (nil, nil).
	Get(key []byte) ([]byte, error)

	// Put stores a key-value pair
	Put(key, value []byte) error

	// Has checks if a key exists
	Has(key []byte) (bool, error)

	// Close closes the database connection
	Close() error
}

// IterableProvider extends DatabaseProvider with iteration capabilities
type IterableProvider interface {
	DatabaseProvider

	// IteratePrefix visits all key-value pairs with the given prefix in
	// ascending byte order of the key. The callback returns false to stop.
	IteratePrefix(prefix []byte, callback func(key, value []byte) bool) error
}

// cloneBytes copies b and never returns nil, so an empty stored value still reads as present
func cloneBytes(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
