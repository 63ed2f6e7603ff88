package reconcile

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/evfinder/chargefinder/backend-go/internal/models"
	"github.com/evfinder/chargefinder/backend-go/internal/provider"
	"github.com/evfinder/chargefinder/backend-go/internal/store"
)

// Defaults applied to directory records that omit optional fields.
const (
	defaultName     = "Unknown Charger"
	defaultCountry  = "IN"
	defaultPlugType = "Unknown"

	// Flat tariff assigned to newly discovered chargers until an operator
	// sets real pricing.
	defaultPricePerKwh = 15.0
)

// Result summarizes a single merge pass.
type Result struct {
	Inserted []models.Charger
	Updated  int
	Skipped  int
}

// Reconciler folds raw directory records into the charger store. Records
// matching an existing charger by exact coordinates refresh its live fields;
// everything else is inserted as a new charger.
type Reconciler struct {
	store store.ChargerStore
}

func New(chargerStore store.ChargerStore) *Reconciler {
	return &Reconciler{store: chargerStore}
}

// Merge is idempotent: running it twice over the same batch changes nothing
// on the second pass. Duplicate coordinates within one batch are not
// cross-checked here; the store's coordinate uniqueness turns the second
// occurrence into a live-field update.
func (r *Reconciler) Merge(ctx context.Context, records []provider.RawCharger) (*Result, error) {
	result := &Result{}
	var toInsert []models.Charger

	for _, record := range records {
		if record.Latitude == nil || record.Longitude == nil {
			result.Skipped++
			continue
		}

		candidate := normalize(record)

		existing, err := r.store.FindByCoordinates(ctx, candidate.Latitude, candidate.Longitude)
		if err != nil {
			return nil, fmt.Errorf("looking up charger at %f,%f: %w",
				candidate.Latitude, candidate.Longitude, err)
		}

		if existing != nil {
			if updateLiveFields(existing, candidate) {
				if err := r.store.Update(ctx, *existing); err != nil {
					return nil, fmt.Errorf("updating charger %s: %w", existing.ID, err)
				}
				result.Updated++
			}
			continue
		}

		toInsert = append(toInsert, candidate)
	}

	if len(toInsert) > 0 {
		inserted, err := r.store.Insert(ctx, toInsert)
		if err != nil {
			return nil, fmt.Errorf("inserting chargers: %w", err)
		}
		result.Inserted = inserted
	}

	log.Debug().
		Int("records", len(records)).
		Int("inserted", len(result.Inserted)).
		Int("updated", result.Updated).
		Int("skipped", result.Skipped).
		Msg("Merged directory records")

	return result, nil
}

// normalize maps a raw directory record onto the charger model, applying
// defaults for anything the directory omitted.
func normalize(record provider.RawCharger) models.Charger {
	charger := models.Charger{
		Name:        record.Name,
		Latitude:    *record.Latitude,
		Longitude:   *record.Longitude,
		Address:     record.Address,
		Country:     record.Country,
		PlugType:    defaultPlugType,
		Status:      models.StatusAvailable,
		PricePerKwh: defaultPricePerKwh,
		Enabled:     true,
	}

	if charger.Name == "" {
		charger.Name = defaultName
	}
	if charger.Country == "" {
		charger.Country = defaultCountry
	}
	if len(record.Connections) > 0 && record.Connections[0].TypeName != "" {
		charger.PlugType = record.Connections[0].TypeName
	}
	if record.IsActive != nil && !*record.IsActive {
		charger.Status = models.StatusOffline
	}

	return charger
}

// updateLiveFields copies the directory-owned fields onto an existing
// charger, reporting whether anything actually changed. Identity and
// operator-owned fields (name, plug type, price, enabled) are left alone.
func updateLiveFields(existing *models.Charger, candidate models.Charger) bool {
	changed := existing.Status != candidate.Status ||
		existing.Address != candidate.Address ||
		existing.Country != candidate.Country
	if !changed {
		return false
	}

	existing.Status = candidate.Status
	existing.Address = candidate.Address
	existing.Country = candidate.Country
	return true
}
