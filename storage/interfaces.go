package storage

import (
	"context"

	"crous-x/models"
)

// ListingReader is the interface any listings backend must satisfy. It matches
// services.ListingSource.
type ListingReader interface {
	FetchAll(ctx context.Context) ([]*models.RawListing, error)
}

// ListingWriter persists listings, e.g. when seeding a database.
type ListingWriter interface {
	Write(ctx context.Context, listings []*models.RawListing) error
	Close() error
}

// ListingExporter writes a rendered listing selection somewhere.
type ListingExporter interface {
	Export(listings []*models.Listing) error
	Close() error
}
