package storage

import (
	"encoding/json"
	"fmt"
	"io"

	"crous-x/metrics"
	"crous-x/models"
	"crous-x/utils"
)

// DecodeListings reads a JSON array of listing records. A record that does
// not decode is logged and dropped; only a payload that is not an array is an
// error.
func DecodeListings(r io.Reader, logger *utils.Logger) ([]*models.RawListing, error) {
	var elems []json.RawMessage
	if err := json.NewDecoder(r).Decode(&elems); err != nil {
		return nil, fmt.Errorf("decode listings: %w", err)
	}

	listings := make([]*models.RawListing, 0, len(elems))
	for i, elem := range elems {
		var l models.RawListing
		if err := json.Unmarshal(elem, &l); err != nil {
			logger.Warn("[decode] Dropping record %d: %v", i, err)
			metrics.ListingsDropped.Inc()
			continue
		}
		listings = append(listings, &l)
	}
	return listings, nil
}
