package provider

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/evfinder/chargefinder/backend-go/pkg/http/client"
)

// RawCharger is an unvalidated station description from the external
// directory, pre-normalization. Optional wire fields keep pointer types so
// "absent" stays distinguishable from a zero value.
type RawCharger struct {
	Name        string       `json:"name"`
	Latitude    *float64     `json:"latitude"`
	Longitude   *float64     `json:"longitude"`
	Address     string       `json:"address"`
	Country     string       `json:"country"`
	IsActive    *bool        `json:"is_active"`
	Connections []Connection `json:"connections"`
}

type Connection struct {
	TypeName string `json:"type_name"`
}

// ChargerFetcher is the interface the discovery service depends on.
type ChargerFetcher interface {
	Fetch(ctx context.Context, lat, lon, radiusKm float64) ([]RawCharger, error)
}

// Client fetches candidate chargers from the external directory. All of its
// endpoint configuration arrives through the injected HTTP client; nothing is
// read from the environment here.
type Client struct {
	httpClient *client.Client
	cache      *FetchCache
	archive    *SnapshotArchive
}

type Option func(*Client)

// WithCache enables a short-TTL LRU cache of fetch results so hot map areas
// do not hammer the directory.
func WithCache(cache *FetchCache) Option {
	return func(c *Client) {
		c.cache = cache
	}
}

// WithSnapshotArchive enables best-effort archiving of raw payloads.
func WithSnapshotArchive(archive *SnapshotArchive) Option {
	return func(c *Client) {
		c.archive = archive
	}
}

func NewClient(httpClient *client.Client, opts ...Option) *Client {
	c := &Client{httpClient: httpClient}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch retrieves candidate chargers near a point. Records missing either
// coordinate, or failing to decode at all, are skipped; one bad record never
// discards the batch. Any transport or body-level failure is reported as a
// *Error and should be treated by callers as an empty batch.
func (c *Client) Fetch(ctx context.Context, lat, lon, radiusKm float64) ([]RawCharger, error) {
	key := fetchKey(lat, lon, radiusKm)
	if c.cache != nil {
		if records, ok := c.cache.Get(key); ok {
			log.Debug().Str("fetch_key", key).Msg("Cache HIT for charger directory fetch")
			return records, nil
		}
	}

	path := fmt.Sprintf("?lat=%f&lon=%f&distance=%f", lat, lon, radiusKm)
	resp, err := c.httpClient.Get(ctx, path)
	if err != nil {
		return nil, NewError("requesting directory", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, NewError(fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
	}

	var elements []json.RawMessage
	if err := json.Unmarshal(resp.Body, &elements); err != nil {
		return nil, NewError("decoding response body", err)
	}

	records := make([]RawCharger, 0, len(elements))
	for i, element := range elements {
		var raw RawCharger
		if err := json.Unmarshal(element, &raw); err != nil {
			log.Debug().Int("index", i).Err(err).Msg("Skipping undecodable directory record")
			continue
		}
		if raw.Latitude == nil || raw.Longitude == nil {
			log.Debug().Int("index", i).Msg("Skipping directory record without coordinates")
			continue
		}
		records = append(records, raw)
	}

	log.Debug().
		Int("record_count", len(records)).
		Int("skipped", len(elements)-len(records)).
		Msg("Fetched charger directory batch")

	if c.archive != nil {
		if err := c.archive.Save(ctx, key, resp.Body); err != nil {
			log.Warn().Err(err).Msg("Failed to archive directory payload")
		}
	}
	if c.cache != nil {
		c.cache.Set(key, records)
	}

	return records, nil
}

// fetchKey rounds the center to ~100m so nearby requests share cache entries
// and snapshot slots.
func fetchKey(lat, lon, radiusKm float64) string {
	return fmt.Sprintf("%.3f:%.3f:%.1f", lat, lon, radiusKm)
}
