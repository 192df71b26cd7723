package ao3

import (
	"context"
	"errors"
	"time"

	"ao3scraper/internal/components/assert"

	"github.com/dgraph-io/badger/v4"
	"github.com/redis/go-redis/v9"
)

// BadgerStore is a PageStore on a badger database, it relies on badger's own entry
// expiry.
type BadgerStore struct {
	db *badger.DB
}

func NewBadgerStore(db *badger.DB) BadgerStore {
	assert.NotNil(db)
	return BadgerStore{db: db}
}

func (s BadgerStore) Get(_ context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrPageNotCached
	}
	return value, err
}

func (s BadgerStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	return s.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(key), value).WithTTL(ttl)
		return txn.SetEntry(entry)
	})
}

// RedisStore is a PageStore on redis, it lets several processes share one page cache.
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) RedisStore {
	assert.NotNil(rdb)
	return RedisStore{rdb: rdb}
}

func (s RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := s.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrPageNotCached
	}
	return value, err
}

func (s RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.rdb.Set(ctx, key, value, ttl).Err()
}
