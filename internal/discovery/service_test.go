package discovery

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evfinder/chargefinder/backend-go/internal/models"
	"github.com/evfinder/chargefinder/backend-go/internal/provider"
	"github.com/evfinder/chargefinder/backend-go/internal/store"
)

type mockFetcher struct {
	fetchFn func(ctx context.Context, lat, lon, radiusKm float64) ([]provider.RawCharger, error)
	calls   int
}

func (m *mockFetcher) Fetch(ctx context.Context, lat, lon, radiusKm float64) ([]provider.RawCharger, error) {
	m.calls++
	if m.fetchFn != nil {
		return m.fetchFn(ctx, lat, lon, radiusKm)
	}
	return nil, nil
}

func floatPtr(f float64) *float64 { return &f }

func seedStore(t *testing.T, s *store.MemoryStore, chargers ...models.Charger) []models.Charger {
	t.Helper()
	inserted, err := s.Insert(context.Background(), chargers)
	require.NoError(t, err)
	return inserted
}

func TestDiscoverSyncsThenSearches(t *testing.T) {
	s := store.NewMemoryStore()
	fetcher := &mockFetcher{
		fetchFn: func(_ context.Context, lat, lon, radiusKm float64) ([]provider.RawCharger, error) {
			assert.Equal(t, 12.9716, lat)
			assert.Equal(t, 77.5946, lon)
			assert.Equal(t, 25.0, radiusKm)
			return []provider.RawCharger{
				// roughly 1km and 2km north of the search point
				{Name: "Near", Latitude: floatPtr(12.9806), Longitude: floatPtr(77.5946)},
				{Name: "Nearer", Latitude: floatPtr(12.9761), Longitude: floatPtr(77.5946)},
			}, nil
		},
	}
	svc := NewService(s, fetcher, 25)

	got, err := svc.Discover(context.Background(), 12.9716, 77.5946)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "Nearer", got[0].Name)
	assert.Equal(t, "Near", got[1].Name)
	assert.Less(t, got[0].Distance, got[1].Distance)
	assert.Equal(t, 2, s.Count(), "fetched records land in the store")
}

func TestDiscoverSurvivesFetchFailure(t *testing.T) {
	s := store.NewMemoryStore()
	seedStore(t, s, models.Charger{
		Name:      "Already known",
		Latitude:  12.9726,
		Longitude: 77.5946,
		Status:    models.StatusAvailable,
		Enabled:   true,
	})

	fetcher := &mockFetcher{
		fetchFn: func(context.Context, float64, float64, float64) ([]provider.RawCharger, error) {
			return nil, errors.New("directory unavailable")
		},
	}
	svc := NewService(s, fetcher, 25)

	got, err := svc.Discover(context.Background(), 12.9716, 77.5946)
	require.NoError(t, err, "a failed sync must not fail the search")
	require.Len(t, got, 1)
	assert.Equal(t, "Already known", got[0].Name)
}

func TestDiscoverExcludesDisabledAndFar(t *testing.T) {
	s := store.NewMemoryStore()
	seedStore(t, s,
		models.Charger{Name: "in range", Latitude: 0.01, Longitude: 0, Enabled: true},
		models.Charger{Name: "disabled", Latitude: 0.02, Longitude: 0, Enabled: false},
		models.Charger{Name: "too far", Latitude: 5, Longitude: 0, Enabled: true},
	)
	svc := NewService(s, &mockFetcher{}, 25)

	got, err := svc.Discover(context.Background(), 0, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "in range", got[0].Name)
}

func TestDiscoverIsIdempotentAcrossCalls(t *testing.T) {
	s := store.NewMemoryStore()
	fetcher := &mockFetcher{
		fetchFn: func(context.Context, float64, float64, float64) ([]provider.RawCharger, error) {
			return []provider.RawCharger{
				{Name: "Stable", Latitude: floatPtr(0.01), Longitude: floatPtr(0)},
			}, nil
		},
	}
	svc := NewService(s, fetcher, 25)

	for i := 0; i < 3; i++ {
		got, err := svc.Discover(context.Background(), 0, 0)
		require.NoError(t, err)
		require.Len(t, got, 1)
	}
	assert.Equal(t, 1, s.Count())
	assert.Equal(t, 3, fetcher.calls)
}

func TestListFilterPrecedence(t *testing.T) {
	s := store.NewMemoryStore()
	seedStore(t, s,
		models.Charger{Name: "a", Latitude: 1, Longitude: 1, Status: models.StatusAvailable, PlugType: "CCS", Enabled: true},
		models.Charger{Name: "b", Latitude: 2, Longitude: 2, Status: models.StatusOffline, PlugType: "CCS", Enabled: true},
		models.Charger{Name: "c", Latitude: 3, Longitude: 3, Status: models.StatusAvailable, PlugType: "Type2", Enabled: true},
	)
	svc := NewService(s, &mockFetcher{}, 25)

	tests := []struct {
		name      string
		status    string
		plugType  string
		wantNames []string
	}{
		{name: "no filters lists everything", wantNames: []string{"a", "b", "c"}},
		{name: "status filter", status: "OFFLINE", wantNames: []string{"b"}},
		{name: "plug type filter", plugType: "Type2", wantNames: []string{"c"}},
		{name: "status wins over plug type", status: "AVAILABLE", plugType: "Type2", wantNames: []string{"a", "c"}},
		{name: "unknown status matches nothing", status: "BROKEN", wantNames: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.List(context.Background(), tt.status, tt.plugType)
			require.NoError(t, err)

			var names []string
			for _, charger := range got {
				names = append(names, charger.Name)
			}
			assert.ElementsMatch(t, tt.wantNames, names)
		})
	}
}

func TestGet(t *testing.T) {
	s := store.NewMemoryStore()
	inserted := seedStore(t, s, models.Charger{Name: "known", Latitude: 1, Longitude: 1, Enabled: true})
	svc := NewService(s, &mockFetcher{}, 25)

	got, err := svc.Get(context.Background(), inserted[0].ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "known", got.Name)

	missing, err := svc.Get(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestCreate(t *testing.T) {
	s := store.NewMemoryStore()
	svc := NewService(s, &mockFetcher{}, 25)

	created, err := svc.Create(context.Background(), models.Charger{
		Name:      "Operator charger",
		Latitude:  10,
		Longitude: 20,
		Status:    models.StatusAvailable,
		Enabled:   true,
	})
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.NotEmpty(t, created.ID)

	// same coordinates: no duplicate, the existing charger comes back
	again, err := svc.Create(context.Background(), models.Charger{
		Name:      "Duplicate",
		Latitude:  10,
		Longitude: 20,
		Status:    models.StatusOccupied,
		Enabled:   true,
	})
	require.NoError(t, err)
	require.NotNil(t, again)
	assert.Equal(t, created.ID, again.ID)
	assert.Equal(t, 1, s.Count())
}

func TestGetStats(t *testing.T) {
	s := store.NewMemoryStore()
	seedStore(t, s,
		models.Charger{Name: "a", Latitude: 1, Longitude: 1, Status: models.StatusAvailable, Country: "IN", Enabled: true},
		models.Charger{Name: "b", Latitude: 2, Longitude: 2, Status: models.StatusAvailable, Country: "IN", Enabled: true},
		models.Charger{Name: "c", Latitude: 3, Longitude: 3, Status: models.StatusOffline, Country: "US", Enabled: true},
	)
	svc := NewService(s, &mockFetcher{}, 25)

	stats, err := svc.GetStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalChargers)
	assert.Equal(t, 2, stats.CountByStatus[string(models.StatusAvailable)])
	assert.Equal(t, 1, stats.CountByStatus[string(models.StatusOffline)])
	assert.Equal(t, 2, stats.CountByCountry["IN"])
	assert.Equal(t, 1, stats.CountByCountry["US"])
}
