// Package view turns filtered and sorted listings into the grid nodes and map
// markers the listings page draws.
package view

import (
	"fmt"
	"html"
	"strconv"
	"strings"
	"sync"

	"crous-x/i18n"
	"crous-x/metrics"
	"crous-x/models"
	"crous-x/utils"
)

// PlaceholderImage is served in place of a missing listing photo.
const PlaceholderImage = "/static/placeholder.svg"

// Synchronizer owns the grid and the map instance of one page session.
// Nothing else mutates the map.
type Synchronizer struct {
	lib        MapLibrary
	translator i18n.Translator
	opts       MapOptions
	logger     *utils.Logger
	resize     *utils.Debouncer

	mu        sync.Mutex
	lang      string
	m         Map
	grid      []models.GridNode
	markers   []models.Marker
	sizeEpoch int
}

// NewSynchronizer creates a Synchronizer. The map is created by InitMap; a nil
// lib leaves the map pane disabled.
func NewSynchronizer(lib MapLibrary, translator i18n.Translator, opts MapOptions, lang string, logger *utils.Logger) *Synchronizer {
	return &Synchronizer{
		lib:        lib,
		translator: translator,
		opts:       opts,
		logger:     logger,
		resize:     utils.NewDebouncer(opts.ResizeDelay),
		lang:       lang,
		grid:       []models.GridNode{},
		markers:    []models.Marker{},
	}
}

// InitMap creates the map and its tile layer. Any failure, panics included,
// leaves the map disabled and is only logged.
func (s *Synchronizer) InitMap() (enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.m != nil {
		return true
	}
	if s.lib == nil {
		metrics.MapInitFailures.Inc()
		s.logger.Warn("[view] No map library available, map pane disabled")
		return false
	}

	defer func() {
		if r := recover(); r != nil {
			metrics.MapInitFailures.Inc()
			s.logger.Error("[view] Map init panicked, map pane disabled: %v", r)
			s.m = nil
			enabled = false
		}
	}()

	m, err := s.lib.NewMap(s.opts)
	if err != nil {
		metrics.MapInitFailures.Inc()
		s.logger.Error("[view] Map init failed, map pane disabled: %v", err)
		return false
	}
	if err := m.AddTileLayer(s.opts.TileURL, s.opts.Attribution); err != nil {
		metrics.MapInitFailures.Inc()
		s.logger.Error("[view] Tile layer failed, map pane disabled: %v", err)
		m.Remove()
		return false
	}
	s.m = m
	return true
}

// SetLanguage switches the language used for labels on the next render.
func (s *Synchronizer) SetLanguage(lang string) {
	s.mu.Lock()
	s.lang = lang
	s.mu.Unlock()
}

// BuildGrid computes the grid nodes for ordered without touching the current
// render. Records failing the shape check are skipped.
func (s *Synchronizer) BuildGrid(ordered []*models.Listing) []models.GridNode {
	lang := s.language()
	nodes := make([]models.GridNode, 0, len(ordered))
	for _, l := range ordered {
		if !l.Renderable() {
			s.logger.Debug("[view] Skipping malformed listing in grid: %+v", l)
			continue
		}
		nodes = append(nodes, s.card(lang, l))
	}
	if len(nodes) == 0 {
		return []models.GridNode{{
			Kind:      models.NodePlaceholder,
			Title:     s.translator.Lookup(lang, "grid.no_results", "No results"),
			FullWidth: true,
		}}
	}
	return nodes
}

// BuildMarkers computes one marker per mappable listing in filtered.
func (s *Synchronizer) BuildMarkers(filtered []*models.Listing) []models.Marker {
	lang := s.language()
	markers := make([]models.Marker, 0, len(filtered))
	for _, l := range filtered {
		if !l.Renderable() || !l.Mappable() {
			continue
		}
		markers = append(markers, models.Marker{
			ListingID: l.ID,
			Position:  models.LatLng{Lat: *l.Latitude, Lng: *l.Longitude},
			Popup:     s.popup(lang, l),
		})
	}
	return markers
}

// RenderGrid replaces the grid with ordered. Zero cards render exactly one
// placeholder node.
func (s *Synchronizer) RenderGrid(ordered []*models.Listing) {
	s.CommitGrid(s.BuildGrid(ordered))
}

// RenderMapMarkers clears the map and adds the markers of filtered.
func (s *Synchronizer) RenderMapMarkers(filtered []*models.Listing) {
	s.CommitMarkers(s.BuildMarkers(filtered))
}

// CommitGrid swaps in previously built grid nodes.
func (s *Synchronizer) CommitGrid(nodes []models.GridNode) {
	s.mu.Lock()
	s.grid = nodes
	s.mu.Unlock()
}

// CommitMarkers replaces the marker layer. A map that fails while applying
// markers is disabled; the grid is not affected.
func (s *Synchronizer) CommitMarkers(markers []models.Marker) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.markers = markers
	if s.m == nil {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			metrics.MapInitFailures.Inc()
			s.logger.Error("[view] Map failed while placing markers, map pane disabled: %v", r)
			s.disableLocked()
		}
	}()

	s.m.ClearMarkers()
	for _, mk := range markers {
		if err := s.m.AddMarker(mk); err != nil {
			s.logger.Warn("[view] Marker for listing %d rejected: %v", mk.ListingID, err)
		}
	}
}

// Resize schedules a map-size invalidation once layout has settled. Bursts
// collapse into a single invalidation.
func (s *Synchronizer) Resize() {
	s.resize.Trigger(func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.m == nil {
			return
		}
		s.m.InvalidateSize()
		s.sizeEpoch++
	})
}

// Teardown cancels pending resizes and disposes the map.
func (s *Synchronizer) Teardown() {
	s.resize.Stop()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.disableLocked()
}

func (s *Synchronizer) disableLocked() {
	if s.m == nil {
		return
	}
	func() {
		defer func() {
			if r := recover(); r != nil {
				s.logger.Warn("[view] Map dispose panicked: %v", r)
			}
		}()
		s.m.Remove()
	}()
	s.m = nil
}

// Grid returns the current grid nodes.
func (s *Synchronizer) Grid() []models.GridNode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.GridNode(nil), s.grid...)
}

// Markers returns the markers of the last render. It is empty while the map
// pane is disabled.
func (s *Synchronizer) Markers() []models.Marker {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.m == nil {
		return []models.Marker{}
	}
	return append([]models.Marker{}, s.markers...)
}

// MapEnabled reports whether a live map instance exists.
func (s *Synchronizer) MapEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.m != nil
}

// MapSizeEpoch counts the size invalidations applied so far.
func (s *Synchronizer) MapSizeEpoch() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sizeEpoch
}

// MapState returns the recorded Leaflet layer state, if the map is a LeafletMap.
func (s *Synchronizer) MapState() (LeafletState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lm, ok := s.m.(*LeafletMap)
	if !ok {
		return LeafletState{}, false
	}
	return lm.State(), true
}

func (s *Synchronizer) language() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lang
}

func (s *Synchronizer) card(lang string, l *models.Listing) models.GridNode {
	image := l.Image
	if image == "" {
		image = PlaceholderImage
	}
	return models.GridNode{
		Kind:       models.NodeCard,
		ListingID:  l.ID,
		Title:      l.Title,
		TypeLabel:  s.typeLabel(lang, l.PropertyType),
		PriceLabel: s.priceLabel(lang, l.RentAmount),
		SizeLabel:  FormatSize(l.SquareFootage),
		Rating:     s.ratingLabel(lang, l),
		Image:      image,
		Address:    l.Address,
	}
}

func (s *Synchronizer) popup(lang string, l *models.Listing) string {
	var b strings.Builder
	b.WriteString("<strong>")
	b.WriteString(html.EscapeString(l.Title))
	b.WriteString("</strong><br>")
	b.WriteString(html.EscapeString(s.typeLabel(lang, l.PropertyType)))
	b.WriteString("<br>")
	b.WriteString(html.EscapeString(s.translator.Lookup(lang, "labels.price", "Price")))
	b.WriteString(": ")
	b.WriteString(html.EscapeString(s.priceLabel(lang, l.RentAmount)))
	b.WriteString("<br>")
	b.WriteString(html.EscapeString(s.translator.Lookup(lang, "labels.rating", "Rating")))
	b.WriteString(": ")
	b.WriteString(html.EscapeString(s.ratingLabel(lang, l)))
	return b.String()
}

func (s *Synchronizer) typeLabel(lang string, t models.PropertyType) string {
	return s.translator.Lookup(lang, "type."+string(t), string(t))
}

func (s *Synchronizer) priceLabel(lang string, rent float64) string {
	return FormatPrice(rent) + s.translator.Lookup(lang, "labels.per_month", "/month")
}

func (s *Synchronizer) ratingLabel(lang string, l *models.Listing) string {
	if !l.Rated() {
		return s.translator.Lookup(lang, "grid.not_rated", "Not rated yet")
	}
	return strconv.FormatFloat(*l.Rating, 'f', 1, 64) + "/5"
}

// FormatPrice renders a rent amount in euros.
func FormatPrice(v float64) string {
	return fmt.Sprintf("%s €", strconv.FormatFloat(v, 'f', -1, 64))
}

// FormatSize renders a surface in square metres.
func FormatSize(v float64) string {
	return fmt.Sprintf("%s m²", strconv.FormatFloat(v, 'f', -1, 64))
}
