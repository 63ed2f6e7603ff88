package discovery

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/evfinder/chargefinder/backend-go/internal/models"
	"github.com/evfinder/chargefinder/backend-go/internal/provider"
	"github.com/evfinder/chargefinder/backend-go/internal/reconcile"
	"github.com/evfinder/chargefinder/backend-go/internal/store"
)

// Stats summarizes the enabled charger inventory.
type Stats struct {
	TotalChargers  int            `json:"totalChargers"`
	CountByStatus  map[string]int `json:"countByStatus"`
	CountByCountry map[string]int `json:"countByCountry"`
}

// Service answers charger searches, syncing the external directory into the
// store before reading from it.
type Service struct {
	store      store.ChargerStore
	fetcher    provider.ChargerFetcher
	reconciler *reconcile.Reconciler
	radiusKm   float64
}

func NewService(chargerStore store.ChargerStore, fetcher provider.ChargerFetcher, radiusKm float64) *Service {
	return &Service{
		store:      chargerStore,
		fetcher:    fetcher,
		reconciler: reconcile.New(chargerStore),
		radiusKm:   radiusKm,
	}
}

// Discover returns enabled chargers within the search radius of the given
// point, ordered by distance. The directory sync is best-effort: a fetch
// failure is logged and the search proceeds on whatever the store already
// holds.
func (s *Service) Discover(ctx context.Context, lat, lon float64) ([]models.Charger, error) {
	records, err := s.fetcher.Fetch(ctx, lat, lon, s.radiusKm)
	if err != nil {
		log.Warn().
			Err(err).
			Float64("lat", lat).
			Float64("lon", lon).
			Msg("Directory sync failed, serving stored chargers")
		records = nil
	}

	if len(records) > 0 {
		if _, err := s.reconciler.Merge(ctx, records); err != nil {
			return nil, err
		}
	}

	return s.store.FindNearby(ctx, lat, lon, s.radiusKm)
}

// List returns enabled chargers filtered by status or plug type. When both
// filters are present, status wins.
func (s *Service) List(ctx context.Context, status, plugType string) ([]models.Charger, error) {
	if status != "" {
		return s.store.FindByStatus(ctx, models.ChargerStatus(status))
	}
	if plugType != "" {
		return s.store.FindByPlugType(ctx, plugType)
	}
	return s.store.FindAll(ctx)
}

// Get looks up a single charger by id. Unknown ids return (nil, nil).
func (s *Service) Get(ctx context.Context, id string) (*models.Charger, error) {
	return s.store.FindByID(ctx, id)
}

// Create registers an operator-supplied charger. A charger already at the
// same coordinates absorbs the live fields instead of creating a duplicate,
// in which case the existing charger is returned.
func (s *Service) Create(ctx context.Context, charger models.Charger) (*models.Charger, error) {
	inserted, err := s.store.Insert(ctx, []models.Charger{charger})
	if err != nil {
		return nil, err
	}
	if len(inserted) > 0 {
		return &inserted[0], nil
	}
	return s.store.FindByCoordinates(ctx, charger.Latitude, charger.Longitude)
}

// GetStats aggregates counts across the enabled charger inventory.
func (s *Service) GetStats(ctx context.Context) (*Stats, error) {
	chargers, err := s.store.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	stats := &Stats{
		TotalChargers:  len(chargers),
		CountByStatus:  make(map[string]int),
		CountByCountry: make(map[string]int),
	}
	for _, charger := range chargers {
		stats.CountByStatus[string(charger.Status)]++
		if charger.Country != "" {
			stats.CountByCountry[charger.Country]++
		}
	}
	return stats, nil
}
