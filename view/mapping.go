package view

import (
	"errors"
	"sync"
	"time"

	"crous-x/models"
)

// MapOptions configures the map pane.
type MapOptions struct {
	Container   string
	TileURL     string
	Attribution string
	Center      models.LatLng
	Zoom        int
	Clustering  bool
	ResizeDelay time.Duration
}

// MapLibrary creates maps bound to a page container.
type MapLibrary interface {
	NewMap(opts MapOptions) (Map, error)
}

// Map is the capability set the synchronizer needs from a mapping library.
type Map interface {
	AddTileLayer(urlTemplate, attribution string) error
	AddMarker(m models.Marker) error
	ClearMarkers()
	InvalidateSize()
	Remove()
}

// ErrMapRemoved is returned by operations on a disposed map.
var ErrMapRemoved = errors.New("map: instance removed")

// LeafletLibrary produces LeafletMaps.
type LeafletLibrary struct{}

func (LeafletLibrary) NewMap(opts MapOptions) (Map, error) {
	if opts.Container == "" {
		return nil, errors.New("map: container id is required")
	}
	if opts.Zoom < 0 || opts.Zoom > 22 {
		return nil, errors.New("map: zoom out of range")
	}
	return &LeafletMap{
		state: LeafletState{
			Container:  opts.Container,
			Center:     opts.Center,
			Zoom:       opts.Zoom,
			Clustering: opts.Clustering,
			Markers:    []models.Marker{},
		},
	}, nil
}

// TileLayer describes the raster tiles under the markers.
type TileLayer struct {
	URLTemplate string `json:"url_template"`
	Attribution string `json:"attribution"`
}

// LeafletState is the layer state shipped to the page's Leaflet runtime.
type LeafletState struct {
	Container  string          `json:"container"`
	Center     models.LatLng   `json:"center"`
	Zoom       int             `json:"zoom"`
	Clustering bool            `json:"clustering"`
	Tiles      []TileLayer     `json:"tiles"`
	Markers    []models.Marker `json:"markers"`
	SizeEpoch  int             `json:"size_epoch"`
	Removed    bool            `json:"removed"`
}

// LeafletMap records map operations so the browser can replay them with
// Leaflet (and Leaflet.markercluster when clustering is on).
type LeafletMap struct {
	mu    sync.Mutex
	state LeafletState
}

func (m *LeafletMap) AddTileLayer(urlTemplate, attribution string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state.Removed {
		return ErrMapRemoved
	}
	if urlTemplate == "" {
		return errors.New("map: tile url template is required")
	}
	m.state.Tiles = append(m.state.Tiles, TileLayer{URLTemplate: urlTemplate, Attribution: attribution})
	return nil
}

func (m *LeafletMap) AddMarker(mk models.Marker) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state.Removed {
		return ErrMapRemoved
	}
	m.state.Markers = append(m.state.Markers, mk)
	return nil
}

func (m *LeafletMap) ClearMarkers() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.Markers = []models.Marker{}
}

func (m *LeafletMap) InvalidateSize() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.state.Removed {
		m.state.SizeEpoch++
	}
}

func (m *LeafletMap) Remove() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.Removed = true
	m.state.Markers = []models.Marker{}
}

// State returns a copy of the recorded layer state.
func (m *LeafletMap) State() LeafletState {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.state
	s.Tiles = append([]TileLayer(nil), m.state.Tiles...)
	s.Markers = append([]models.Marker{}, m.state.Markers...)
	return s
}
