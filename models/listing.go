package models

import "time"

// PropertyType is the fixed set of housing kinds a listing can declare.
type PropertyType string

const (
	TypeStudio     PropertyType = "Studio"
	TypeApartment  PropertyType = "Apartment"
	TypeSharedRoom PropertyType = "Shared Room"
	TypeHouse      PropertyType = "House"
	TypeOther      PropertyType = "Other"
)

// PropertyTypes lists every property type in display order.
var PropertyTypes = []PropertyType{TypeStudio, TypeApartment, TypeSharedRoom, TypeHouse, TypeOther}

// Valid reports whether t belongs to the fixed enumeration.
func (t PropertyType) Valid() bool {
	for _, known := range PropertyTypes {
		if t == known {
			return true
		}
	}
	return false
}

// RawListing is a listing record exactly as the listings source returned it.
// Every field is optional; the cleaner decides what survives.
type RawListing struct {
	ID            *int64   `json:"listing_id"`
	Title         *string  `json:"title"`
	PropertyType  *string  `json:"property_type"`
	RentAmount    *float64 `json:"rent_amount"`
	SquareFootage *float64 `json:"square_footage"`
	Rating        *float64 `json:"rating"`
	Latitude      *float64 `json:"latitude"`
	Longitude     *float64 `json:"longitude"`
	Image         *string  `json:"image"`
	Address       *string  `json:"address"`
}

// Listing is a validated, read-only housing offer.
// ID 0 means the identifier is unknown.
type Listing struct {
	ID            int64        `json:"listing_id"`
	Title         string       `json:"title"`
	PropertyType  PropertyType `json:"property_type"`
	RentAmount    float64      `json:"rent_amount"`
	SquareFootage float64      `json:"square_footage"`
	Rating        *float64     `json:"rating,omitempty"`
	Latitude      *float64     `json:"latitude,omitempty"`
	Longitude     *float64     `json:"longitude,omitempty"`
	Image         string       `json:"image,omitempty"`
	Address       string       `json:"address,omitempty"`
}

// Mappable reports whether the listing carries both coordinates.
func (l *Listing) Mappable() bool {
	return l != nil && l.Latitude != nil && l.Longitude != nil
}

// Rated reports whether the listing has received a rating.
func (l *Listing) Rated() bool {
	return l != nil && l.Rating != nil
}

// Renderable is the minimal shape check applied before a listing reaches a view.
func (l *Listing) Renderable() bool {
	return l != nil && l.ID != 0 && l.Title != ""
}

// FilterCriteria narrows the visible listings. An empty Types set means no
// restriction on the property type.
type FilterCriteria struct {
	MaxPrice   int
	MaxSize    int
	Types      map[PropertyType]struct{}
	SearchTerm string
}

// NewFilterCriteria returns criteria that let every listing under the slider
// maximums through.
func NewFilterCriteria(maxPrice, maxSize int) FilterCriteria {
	return FilterCriteria{
		MaxPrice: maxPrice,
		MaxSize:  maxSize,
		Types:    make(map[PropertyType]struct{}),
	}
}

// HasType reports whether t is part of the type restriction.
func (c FilterCriteria) HasType(t PropertyType) bool {
	_, ok := c.Types[t]
	return ok
}

// TypeList returns the selected types in display order.
func (c FilterCriteria) TypeList() []PropertyType {
	out := make([]PropertyType, 0, len(c.Types))
	for _, t := range PropertyTypes {
		if c.HasType(t) {
			out = append(out, t)
		}
	}
	return out
}

// Clone returns a deep copy so callers can't alias the type set.
func (c FilterCriteria) Clone() FilterCriteria {
	types := make(map[PropertyType]struct{}, len(c.Types))
	for t := range c.Types {
		types[t] = struct{}{}
	}
	c.Types = types
	return c
}

// SortKey selects the grid order.
type SortKey string

const (
	SortNew       SortKey = "new"
	SortPriceAsc  SortKey = "price-asc"
	SortPriceDesc SortKey = "price-desc"
	SortRating    SortKey = "rating"
)

// SortKeys lists every supported key in button order.
var SortKeys = []SortKey{SortNew, SortPriceAsc, SortPriceDesc, SortRating}

// ParseSortKey maps s to a known key, falling back to SortNew.
func ParseSortKey(s string) SortKey {
	for _, k := range SortKeys {
		if string(k) == s {
			return k
		}
	}
	return SortNew
}

// DatasetStats summarises the loaded listings for the filter sidebar.
type DatasetStats struct {
	TotalListings    int
	MappableListings int
	RatedListings    int
	MinPrice         float64
	MaxPrice         float64
	MaxSize          float64
	AverageRent      float64
	ByType           map[PropertyType]int
	LoadedAt         time.Time
}
