//go:build !rocksdb
// +build !rocksdb

package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRocksDBProviderNeedsBuildTag(t *testing.T) {
	p, err := NewRocksDBProvider(t.TempDir())
	assert.Nil(t, p)
	assert.ErrorContains(t, err, "-tags rocksdb")
}
