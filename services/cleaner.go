package services

import (
	"strings"
	"unicode"

	"crous-x/models"
	"crous-x/utils"
)

// Cleaner transforms RawListings into validated Listings.
type Cleaner struct {
	logger *utils.Logger
}

// NewCleaner creates a Cleaner with the given logger.
func NewCleaner(logger *utils.Logger) *Cleaner {
	return &Cleaner{logger: logger}
}

// Clean validates raw records and returns the ones that can be rendered,
// together with the number of dropped records. A record without id or title is
// dropped, as is a second record reusing an id.
func (c *Cleaner) Clean(raw []*models.RawListing) ([]*models.Listing, int) {
	seen := utils.NewIDSet()
	result := make([]*models.Listing, 0, len(raw))

	for i, r := range raw {
		if r == nil {
			c.logger.Warn("[cleaner] Dropping null record at index %d", i)
			continue
		}
		if r.ID == nil || *r.ID == 0 {
			c.logger.Warn("[cleaner] Dropping record without listing_id at index %d", i)
			continue
		}
		title := ""
		if r.Title != nil {
			title = normaliseText(*r.Title)
		}
		if title == "" {
			c.logger.Warn("[cleaner] Dropping listing %d without title", *r.ID)
			continue
		}
		if !seen.Add(*r.ID) {
			c.logger.Debug("[cleaner] Duplicate listing_id skipped: %d", *r.ID)
			continue
		}

		listing := &models.Listing{
			ID:            *r.ID,
			Title:         title,
			PropertyType:  c.parseType(r.PropertyType),
			RentAmount:    nonNegative(r.RentAmount),
			SquareFootage: nonNegative(r.SquareFootage),
			Rating:        c.parseRating(*r.ID, r.Rating),
			Image:         strings.TrimSpace(deref(r.Image)),
			Address:       normaliseText(deref(r.Address)),
		}
		listing.Latitude, listing.Longitude = c.parseCoordinates(*r.ID, r.Latitude, r.Longitude)

		result = append(result, listing)
	}

	dropped := len(raw) - len(result)
	c.logger.Info("[cleaner] Cleaned %d -> %d listings (dropped %d)", len(raw), len(result), dropped)
	return result, dropped
}

// parseType maps the wire value onto the fixed enumeration. Unknown values
// become Other; matching ignores case and surrounding spaces.
func (c *Cleaner) parseType(raw *string) models.PropertyType {
	if raw == nil {
		return models.TypeOther
	}
	s := normaliseText(*raw)
	for _, t := range models.PropertyTypes {
		if strings.EqualFold(s, string(t)) {
			return t
		}
	}
	c.logger.Debug("[cleaner] Unknown property_type %q mapped to %s", s, models.TypeOther)
	return models.TypeOther
}

// parseRating keeps ratings inside [0,5]; anything else counts as not rated.
func (c *Cleaner) parseRating(id int64, raw *float64) *float64 {
	if raw == nil {
		return nil
	}
	if *raw < 0 || *raw > 5 {
		c.logger.Debug("[cleaner] Listing %d rating %.2f out of range, treated as unrated", id, *raw)
		return nil
	}
	v := *raw
	return &v
}

// parseCoordinates returns both coordinates or neither.
func (c *Cleaner) parseCoordinates(id int64, lat, lng *float64) (*float64, *float64) {
	if lat == nil || lng == nil {
		return nil, nil
	}
	if *lat < -90 || *lat > 90 || *lng < -180 || *lng > 180 {
		c.logger.Debug("[cleaner] Listing %d has invalid coordinates (%f, %f)", id, *lat, *lng)
		return nil, nil
	}
	la, ln := *lat, *lng
	return &la, &ln
}

func nonNegative(v *float64) float64 {
	if v == nil || *v < 0 {
		return 0
	}
	return *v
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// normaliseText strips leading/trailing whitespace and collapses internal whitespace.
func normaliseText(s string) string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return unicode.IsSpace(r)
	})
	return strings.Join(fields, " ")
}
