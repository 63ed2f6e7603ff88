package store

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/evfinder/chargefinder/backend-go/internal/models"
)

// MemoryStore is an in-memory ChargerStore used by tests and local runs. It
// applies the same coordinate-uniqueness rule as the DynamoDB store.
type MemoryStore struct {
	mu       sync.RWMutex
	byCoords map[string]models.Charger
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byCoords: make(map[string]models.Charger),
	}
}

func (s *MemoryStore) FindNearby(_ context.Context, lat, lon, radiusKm float64) ([]models.Charger, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return nearbyOf(s.all(), lat, lon, radiusKm), nil
}

func (s *MemoryStore) FindByCoordinates(_ context.Context, lat, lon float64) (*models.Charger, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if c, ok := s.byCoords[CoordinateKey(lat, lon)]; ok {
		return &c, nil
	}
	return nil, nil
}

func (s *MemoryStore) FindByID(_ context.Context, id string) (*models.Charger, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.byCoords {
		if c.ID == id {
			return &c, nil
		}
	}
	return nil, nil
}

func (s *MemoryStore) FindByStatus(_ context.Context, status models.ChargerStatus) ([]models.Charger, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]models.Charger, 0)
	for _, c := range s.all() {
		if c.Enabled && c.Status == status {
			results = append(results, c)
		}
	}
	return results, nil
}

func (s *MemoryStore) FindByPlugType(_ context.Context, plugType string) ([]models.Charger, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]models.Charger, 0)
	for _, c := range s.all() {
		if c.Enabled && c.PlugType == plugType {
			results = append(results, c)
		}
	}
	return results, nil
}

func (s *MemoryStore) FindAll(_ context.Context) ([]models.Charger, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]models.Charger, 0)
	for _, c := range s.all() {
		if c.Enabled {
			results = append(results, c)
		}
	}
	return results, nil
}

func (s *MemoryStore) Insert(_ context.Context, chargers []models.Charger) ([]models.Charger, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inserted := make([]models.Charger, 0, len(chargers))
	for _, c := range chargers {
		key := CoordinateKey(c.Latitude, c.Longitude)
		if existing, ok := s.byCoords[key]; ok {
			// Coordinate conflict: downgrade to a live-field update.
			applyLiveFields(&existing, c)
			s.byCoords[key] = existing
			continue
		}
		if c.ID == "" {
			c.ID = uuid.NewString()
		}
		s.byCoords[key] = c
		inserted = append(inserted, c)
	}
	return inserted, nil
}

func (s *MemoryStore) Update(_ context.Context, charger models.Charger) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, c := range s.byCoords {
		if c.ID == charger.ID {
			charger.Distance = 0
			delete(s.byCoords, key)
			s.byCoords[CoordinateKey(charger.Latitude, charger.Longitude)] = charger
			return nil
		}
	}
	return nil
}

// Count reports stored chargers, enabled or not.
func (s *MemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byCoords)
}

// all returns the stored chargers ascending by id, so listings stay
// deterministic despite the map backing.
func (s *MemoryStore) all() []models.Charger {
	chargers := make([]models.Charger, 0, len(s.byCoords))
	for _, c := range s.byCoords {
		chargers = append(chargers, c)
	}
	sort.Slice(chargers, func(i, j int) bool { return chargers[i].ID < chargers[j].ID })
	return chargers
}
