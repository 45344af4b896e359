package db

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/mezonai/simplechain/logx"
	"github.com/redis/go-redis/v9"
)

// heightKeyPrefix mirrors store.PrefixBlock; block keys are prefix + 8-byte big-endian height
const heightKeyPrefix = "blk:"

// RedisProvider implements IterableProvider for Redis
type RedisProvider struct {
	client  *redis.Client
	ctx     context.Context
	timeout time.Duration
}

// convertKeyToHumanReadable converts binary height keys to "blk:<height>" for Redis
func convertKeyToHumanReadable(key []byte) string {
	keyStr := string(key)

	if strings.HasPrefix(keyStr, heightKeyPrefix) && len(key) == len(heightKeyPrefix)+8 {
		height := binary.BigEndian.Uint64(key[len(heightKeyPrefix):])
		return fmt.Sprintf("%s%d", heightKeyPrefix, height)
	}

	return keyStr
}

// convertKeyFromHumanReadable is the inverse of convertKeyToHumanReadable
func convertKeyFromHumanReadable(redisKey string) []byte {
	if strings.HasPrefix(redisKey, heightKeyPrefix) {
		height, err := strconv.ParseUint(redisKey[len(heightKeyPrefix):], 10, 64)
		if err == nil {
			key := make([]byte, len(heightKeyPrefix)+8)
			copy(key, heightKeyPrefix)
			binary.BigEndian.PutUint64(key[len(heightKeyPrefix):], height)
			return key
		}
	}
	return []byte(redisKey)
}

// humanReadablePattern turns a binary key prefix into a SCAN match pattern
func humanReadablePattern(prefix []byte) string {
	if bytes.HasPrefix(prefix, []byte(heightKeyPrefix)) && len(prefix) == len(heightKeyPrefix) {
		return heightKeyPrefix + "*"
	}
	return convertKeyToHumanReadable(prefix) + "*"
}

// NewRedisProvider creates a new Redis provider
func NewRedisProvider(address string, database int) (IterableProvider, error) {
	client := redis.NewClient(&redis.Options{
		Addr: address,
		DB:   database,
	})

	p := &RedisProvider{
		client:  client,
		ctx:     context.Background(),
		timeout: 5 * time.Second,
	}

	ctx, cancel := p.opContext()
	defer cancel()
	if _, err := client.Ping(ctx).Result(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return p, nil
}

func (p *RedisProvider) opContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(p.ctx, p.timeout)
}

// Get retrieves a value by key
func (p *RedisProvider) Get(key []byte) ([]byte, error) {
	ctx, cancel := p.opContext()
	defer cancel()

	value, err := p.client.Get(ctx, convertKeyToHumanReadable(key)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}
	return value, nil
}

// Put stores a key-value pair
func (p *RedisProvider) Put(key, value []byte) error {
	ctx, cancel := p.opContext()
	defer cancel()

	redisKey := convertKeyToHumanReadable(key)
	logx.Debug("REDIS", "Put key:", redisKey, " value length:", len(value))
	return p.client.Set(ctx, redisKey, value, 0).Err()
}

// Has checks if a key exists
func (p *RedisProvider) Has(key []byte) (bool, error) {
	ctx, cancel := p.opContext()
	defer cancel()

	count, err := p.client.Exists(ctx, convertKeyToHumanReadable(key)).Result()
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Close closes the database connection
func (p *RedisProvider) Close() error {
	return p.client.Close()
}

// IteratePrefix implements IterableProvider for Redis using SCAN. SCAN has no
// ordering guarantee, so keys are collected and sorted in binary form first.
func (p *RedisProvider) IteratePrefix(prefix []byte, fn func(key, value []byte) bool) error {
	pattern := humanReadablePattern(prefix)

	keys := make([][]byte, 0)
	var cursor uint64
	for {
		ctx, cancel := p.opContext()
		batch, newCursor, err := p.client.Scan(ctx, cursor, pattern, 1000).Result()
		cancel()
		if err != nil {
			return err
		}
		for _, k := range batch {
			key := convertKeyFromHumanReadable(k)
			if bytes.HasPrefix(key, prefix) {
				keys = append(keys, key)
			}
		}
		cursor = newCursor
		if cursor == 0 {
			break
		}
	}

	sort.Slice(keys, func(i, j int) bool {
		return bytes.Compare(keys[i], keys[j]) < 0
	})

	for _, key := range keys {
		val, err := p.Get(key)
		if err != nil {
			return err
		}
		if val == nil {
			continue
		}
		if !fn(key, val) {
			return nil
		}
	}
	return nil
}
