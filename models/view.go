package models

// NodeKind distinguishes the nodes a rendered grid can hold.
type NodeKind string

const (
	NodeCard        NodeKind = "card"
	NodePlaceholder NodeKind = "placeholder"
)

// GridNode is one element of the listings grid container.
type GridNode struct {
	Kind       NodeKind `json:"kind"`
	ListingID  int64    `json:"listing_id,omitempty"`
	Title      string   `json:"title"`
	TypeLabel  string   `json:"type_label,omitempty"`
	PriceLabel string   `json:"price_label,omitempty"`
	SizeLabel  string   `json:"size_label,omitempty"`
	Rating     string   `json:"rating,omitempty"`
	Image      string   `json:"image,omitempty"`
	Address    string   `json:"address,omitempty"`
	// FullWidth is set on the placeholder so it spans every grid column.
	FullWidth bool `json:"full_width,omitempty"`
}

// LatLng is a WGS84 coordinate pair.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Marker is a single point on the map layer.
type Marker struct {
	ListingID int64  `json:"listing_id"`
	Position  LatLng `json:"position"`
	Popup     string `json:"popup"`
}

// TypeFacet is one property-type toggle with its match count.
type TypeFacet struct {
	Type     PropertyType `json:"type"`
	Label    string       `json:"label"`
	Count    int          `json:"count"`
	Selected bool         `json:"selected"`
}

// ViewSnapshot is everything the page needs to draw the current state.
type ViewSnapshot struct {
	State        string      `json:"state"`
	Language     string      `json:"language"`
	Sort         SortKey     `json:"sort"`
	MaxPrice     int         `json:"max_price"`
	MaxSize      int         `json:"max_size"`
	PriceDisplay string      `json:"price_display"`
	SizeDisplay  string      `json:"size_display"`
	SearchTerm   string      `json:"search_term"`
	Types        []TypeFacet `json:"types"`
	Grid         []GridNode  `json:"grid"`
	Markers      []Marker    `json:"markers"`
	MapEnabled   bool        `json:"map_enabled"`
	MapSizeEpoch int         `json:"map_size_epoch"`
	ResultCount  int         `json:"result_count"`
}
