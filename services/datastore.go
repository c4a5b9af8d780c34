package services

import (
	"context"
	"slices"
	"sync"

	"crous-x/metrics"
	"crous-x/models"
	"crous-x/utils"
)

// ListingSource produces the raw listing collection. Implementations live in
// the storage package.
type ListingSource interface {
	FetchAll(ctx context.Context) ([]*models.RawListing, error)
}

// Refresher is implemented by sources that can skip their cache.
type Refresher interface {
	Refresh(ctx context.Context) ([]*models.RawListing, error)
}

// DataStore holds the listing collection of one page session. It is read-only
// apart from Load and Reload.
type DataStore struct {
	source  ListingSource
	cleaner *Cleaner
	logger  *utils.Logger

	mu       sync.RWMutex
	listings []*models.Listing
	loaded   bool
}

// NewDataStore creates an empty store backed by source.
func NewDataStore(source ListingSource, logger *utils.Logger) *DataStore {
	return &DataStore{
		source:   source,
		cleaner:  NewCleaner(logger),
		logger:   logger,
		listings: []*models.Listing{},
	}
}

// Load fetches the collection once. Failures leave the store empty and are
// only logged.
func (d *DataStore) Load(ctx context.Context) {
	d.load(ctx, false)
}

// Reload refetches the collection, bypassing any cache in front of the source.
func (d *DataStore) Reload(ctx context.Context) {
	d.load(ctx, true)
}

func (d *DataStore) load(ctx context.Context, refresh bool) {
	var (
		raw []*models.RawListing
		err error
	)
	switch {
	case d.source == nil:
		d.logger.Error("[datastore] No listings source configured")
	case refresh:
		if r, ok := d.source.(Refresher); ok {
			raw, err = r.Refresh(ctx)
		} else {
			raw, err = d.source.FetchAll(ctx)
		}
	default:
		raw, err = d.source.FetchAll(ctx)
	}

	listings := []*models.Listing{}
	if err != nil {
		metrics.FetchFailures.Inc()
		d.logger.Error("[datastore] Listing fetch failed, showing empty collection: %v", err)
	} else if len(raw) > 0 {
		var dropped int
		listings, dropped = d.cleaner.Clean(raw)
		metrics.ListingsDropped.Add(float64(dropped))
	}

	d.mu.Lock()
	d.listings = listings
	d.loaded = true
	d.mu.Unlock()

	metrics.ListingsLoaded.Set(float64(len(listings)))
	d.logger.Info("[datastore] %d listings available", len(listings))
}

// GetAll returns a copy of the current collection.
func (d *DataStore) GetAll() []*models.Listing {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return slices.Clone(d.listings)
}

// Loaded reports whether a load attempt has completed.
func (d *DataStore) Loaded() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.loaded
}
