package store

import (
	"context"
	"sort"
	"strconv"

	"github.com/evfinder/chargefinder/backend-go/internal/geo"
	"github.com/evfinder/chargefinder/backend-go/internal/models"
)

// ChargerStore is the persistence boundary for charger records. Lookups that
// miss return (nil, nil) rather than an error; only infrastructure failures
// surface as errors.
type ChargerStore interface {
	// FindNearby returns enabled chargers within radiusKm of the given point,
	// ascending by distance, ties broken by id.
	FindNearby(ctx context.Context, lat, lon, radiusKm float64) ([]models.Charger, error)
	// FindByCoordinates matches on exact coordinate equality. Used by the
	// reconciler for deduplication, never for proximity.
	FindByCoordinates(ctx context.Context, lat, lon float64) (*models.Charger, error)
	FindByID(ctx context.Context, id string) (*models.Charger, error)
	FindByStatus(ctx context.Context, status models.ChargerStatus) ([]models.Charger, error)
	FindByPlugType(ctx context.Context, plugType string) ([]models.Charger, error)
	FindAll(ctx context.Context) ([]models.Charger, error)
	// Insert persists new chargers, assigning ids. A charger whose coordinates
	// already exist in the store is not duplicated: its status, address and
	// country are applied to the existing record instead. Only genuinely new
	// chargers are returned.
	Insert(ctx context.Context, chargers []models.Charger) ([]models.Charger, error)
	// Update persists mutated fields of an existing charger, identified by id.
	// Coordinates are treated as immutable here.
	Update(ctx context.Context, charger models.Charger) error
}

// CoordinateKey derives the store key for a coordinate pair. Two pairs map to
// the same key exactly when they are equal as float64 values.
func CoordinateKey(lat, lon float64) string {
	return strconv.FormatFloat(lat, 'f', -1, 64) + "," + strconv.FormatFloat(lon, 'f', -1, 64)
}

// applyLiveFields copies the fields a sync run is allowed to touch.
func applyLiveFields(existing *models.Charger, incoming models.Charger) {
	existing.Status = incoming.Status
	existing.Address = incoming.Address
	existing.Country = incoming.Country
}

func nearbyOf(chargers []models.Charger, lat, lon, radiusKm float64) []models.Charger {
	results := make([]models.Charger, 0)
	for _, c := range chargers {
		if !c.Enabled {
			continue
		}
		d := geo.Distance(lat, lon, c.Latitude, c.Longitude)
		if d <= radiusKm {
			c.Distance = d
			results = append(results, c)
		}
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Distance != results[j].Distance {
			return results[i].Distance < results[j].Distance
		}
		return results[i].ID < results[j].ID
	})
	return results
}
