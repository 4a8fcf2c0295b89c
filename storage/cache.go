package storage

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"
)

const DefaultCacheSize = 64

// Cached remembers fetched content. Ids are content addresses, so an entry
// can never go stale.
type Cached struct {
	Client
	cache *lru.Cache[string, []byte]
}

func NewCached(c Client, size int) (*Cached, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, []byte](size)
	if err != nil {
		return nil, err
	}
	return &Cached{Client: c, cache: cache}, nil
}

func (c *Cached) FetchContent(ctx context.Context, id string) ([]byte, error) {
	if data, ok := c.cache.Get(id); ok {
		return append([]byte(nil), data...), nil
	}
	data, err := c.Client.FetchContent(ctx, id)
	if err != nil {
		return nil, err
	}
	c.cache.Add(id, append([]byte(nil), data...))
	return data, nil
}

