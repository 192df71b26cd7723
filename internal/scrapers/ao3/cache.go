package ao3

import (
	"bytes"
	"context"
	"encoding/gob"
	"errors"
	"time"

	"github.com/PuerkitoBio/purell"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// ErrPageNotCached is returned by a PageStore when it holds no live entry for a key.
var ErrPageNotCached = errors.New("page not cached")

// PageStore is a key-value store for raw page bodies with per-entry expiry.
//
// note: fault injection point
type PageStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

type cachedPage struct {
	Url       string
	Contents  []byte
	FetchedAt int64
}

// pageCache keeps page bodies under normalized urls, entries expire after ttl.
type pageCache struct {
	store PageStore
	ttl   time.Duration
}

func (c pageCache) key(endpoint string) (string, error) {
	normalized, err := purell.NormalizeURLString(
		endpoint,
		purell.FlagsSafe|
			purell.FlagsUsuallySafeNonGreedy|
			purell.FlagRemoveDirectoryIndex|
			purell.FlagRemoveFragment|
			purell.FlagSortQuery,
	)
	if err != nil {
		return "", err
	}
	return "page:" + normalized, nil
}

func (c pageCache) get(ctx context.Context, endpoint string) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "pageCache:get")
	defer span.End()

	key, err := c.key(endpoint)
	if err != nil {
		span.SetStatus(codes.Error, "failed to create cache key")
		return nil, err
	}
	span.SetAttributes(attribute.String("cache_key", key))

	serialized, err := c.store.Get(ctx, key)
	if errors.Is(err, ErrPageNotCached) {
		return nil, err
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read cached item")
		return nil, err
	}

	var cached cachedPage
	err = gob.NewDecoder(bytes.NewBuffer(serialized)).Decode(&cached)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to deserialize cached item")
		return nil, err
	}

	span.SetAttributes(attribute.Int("contentlength", len(cached.Contents)))
	return cached.Contents, nil
}

func (c pageCache) set(ctx context.Context, endpoint string, contents []byte) error {
	ctx, span := tracer.Start(ctx, "pageCache:set")
	defer span.End()

	key, err := c.key(endpoint)
	if err != nil {
		span.SetStatus(codes.Error, "failed to create cache key")
		return err
	}
	span.SetAttributes(attribute.String("cache_key", key))

	serialized := bytes.NewBuffer(nil)
	err = gob.NewEncoder(serialized).Encode(cachedPage{
		Url:       endpoint,
		Contents:  contents,
		FetchedAt: time.Now().Unix(),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to serialize page")
		return err
	}

	err = c.store.Set(ctx, key, serialized.Bytes(), c.ttl)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to store cached item")
		return err
	}
	return nil
}
