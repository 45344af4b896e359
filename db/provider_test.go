package db

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func heightKey(h uint64) []byte {
	key := make([]byte, len(heightKeyPrefix)+8)
	copy(key, heightKeyPrefix)
	binary.BigEndian.PutUint64(key[len(heightKeyPrefix):], h)
	return key
}

type providerFactory func(t *testing.T) IterableProvider

// taggedProviders holds backends that only exist under a build tag
var taggedProviders = map[string]providerFactory{}

func providers() map[string]providerFactory {
	all := map[string]providerFactory{
		"memory": func(t *testing.T) IterableProvider {
			return NewMemoryProvider()
		},
		"leveldb": func(t *testing.T) IterableProvider {
			p, err := NewLevelDBProvider(t.TempDir())
			require.NoError(t, err)
			return p
		},
		"bbolt": func(t *testing.T) IterableProvider {
			p, err := NewBoltProvider(t.TempDir())
			require.NoError(t, err)
			return p
		},
	}
	for name, factory := range taggedProviders {
		all[name] = factory
	}
	return all
}

func TestProviderGetPutHas(t *testing.T) {
	for name, factory := range providers() {
		t.Run(name, func(t *testing.T) {
			p := factory(t)
			defer p.Close()

			value, err := p.Get([]byte("missing"))
			require.NoError(t, err)
			assert.Nil(t, value)

			ok, err := p.Has([]byte("missing"))
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, p.Put([]byte("k"), []byte("v1")))
			value, err = p.Get([]byte("k"))
			require.NoError(t, err)
			assert.Equal(t, []byte("v1"), value)

			ok, err = p.Has([]byte("k"))
			require.NoError(t, err)
			assert.True(t, ok)

			require.NoError(t, p.Put([]byte("k"), []byte("v2")))
			value, err = p.Get([]byte("k"))
			require.NoError(t, err)
			assert.Equal(t, []byte("v2"), value)
		})
	}
}

func TestProviderEmptyValueIsPresent(t *testing.T) {
	for name, factory := range providers() {
		t.Run(name, func(t *testing.T) {
			p := factory(t)
			defer p.Close()

			require.NoError(t, p.Put(heightKey(0), []byte{}))

			value, err := p.Get(heightKey(0))
			require.NoError(t, err)
			assert.NotNil(t, value)
			assert.Empty(t, value)

			seen := 0
			err = p.IteratePrefix([]byte(heightKeyPrefix), func(key, value []byte) bool {
				assert.NotNil(t, value)
				seen++
				return true
			})
			require.NoError(t, err)
			assert.Equal(t, 1, seen)
		})
	}
}

func TestProviderIteratePrefixAscending(t *testing.T) {
	for name, factory := range providers() {
		t.Run(name, func(t *testing.T) {
			p := factory(t)
			defer p.Close()

			// insert out of order, across a byte boundary
			for _, h := range []uint64{256, 2, 0, 255, 1} {
				require.NoError(t, p.Put(heightKey(h), []byte{byte(h)}))
			}
			require.NoError(t, p.Put([]byte("other:1"), []byte("x")))

			var got []uint64
			err := p.IteratePrefix([]byte(heightKeyPrefix), func(key, value []byte) bool {
				got = append(got, binary.BigEndian.Uint64(key[len(heightKeyPrefix):]))
				return true
			})
			require.NoError(t, err)
			assert.Equal(t, []uint64{0, 1, 2, 255, 256}, got)

			// early stop
			count := 0
			err = p.IteratePrefix([]byte(heightKeyPrefix), func(key, value []byte) bool {
				count++
				return count < 2
			})
			require.NoError(t, err)
			assert.Equal(t, 2, count)
		})
	}
}

func TestProviderCloseTwice(t *testing.T) {
	for name, factory := range providers() {
		t.Run(name, func(t *testing.T) {
			p := factory(t)
			assert.NoError(t, p.Close())
			assert.NoError(t, p.Close())
		})
	}
}

func TestMemoryProviderClosed(t *testing.T) {
	p := NewMemoryProvider()
	require.NoError(t, p.Close())

	_, err := p.Get([]byte("k"))
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, p.Put([]byte("k"), nil), ErrClosed)
}

func TestRedisKeyConversion(t *testing.T) {
	key := heightKey(1234)
	assert.Equal(t, "blk:1234", convertKeyToHumanReadable(key))
	assert.Equal(t, key, convertKeyFromHumanReadable("blk:1234"))

	assert.Equal(t, "meta:x", convertKeyToHumanReadable([]byte("meta:x")))
	assert.Equal(t, []byte("meta:x"), convertKeyFromHumanReadable("meta:x"))
	assert.Equal(t, "blk:*", humanReadablePattern([]byte(heightKeyPrefix)))
}
