package provider

import (
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// fetchEntry wraps cached records with their expiry
type fetchEntry struct {
	Records   []RawCharger
	ExpiresAt time.Time
}

// FetchCache is a size-bounded, TTL-bounded cache of directory fetches.
type FetchCache struct {
	lru *lru.Cache[string, *fetchEntry]
	ttl time.Duration
}

func NewFetchCache(size int, ttl time.Duration) (*FetchCache, error) {
	lruCache, err := lru.New[string, *fetchEntry](size)
	if err != nil {
		return nil, fmt.Errorf("creating LRU cache: %w", err)
	}
	return &FetchCache{
		lru: lruCache,
		ttl: ttl,
	}, nil
}

func (c *FetchCache) Get(key string) ([]RawCharger, bool) {
	entry, ok := c.lru.Get(key)
	if !ok {
		return nil, false
	}
	if time.Now().After(entry.ExpiresAt) {
		// Entry expired, remove it
		c.lru.Remove(key)
		return nil, false
	}
	return entry.Records, true
}

func (c *FetchCache) Set(key string, records []RawCharger) {
	c.lru.Add(key, &fetchEntry{
		Records:   records,
		ExpiresAt: time.Now().Add(c.ttl),
	})
}
