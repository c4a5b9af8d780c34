// Package controller holds the per-session listings controller: filter
// criteria, sort key and language, and the recompute cycle that keeps the
// grid and the map in step with them.
package controller

import (
	"context"
	"strings"
	"sync"
	"time"

	"crous-x/i18n"
	"crous-x/metrics"
	"crous-x/models"
	"crous-x/services"
	"crous-x/utils"
	"crous-x/view"
)

// State is the controller's position in the recompute cycle.
type State string

const (
	StateIdle        State = "idle"
	StateRecomputing State = "recomputing"
	StateClosed      State = "closed"
)

// Options are the page-level settings a controller starts from.
type Options struct {
	SliderMaxPrice int
	SliderMaxSize  int
	Language       string
}

// Update is a batch of control changes applied with a single recompute.
// Nil fields are left alone.
type Update struct {
	MaxPrice *int
	MaxSize  *int
	Types    *[]models.PropertyType
	Search   *string
	Sort     *models.SortKey
	Language *string
}

// Empty reports whether the update carries no change.
func (u Update) Empty() bool {
	return u.MaxPrice == nil && u.MaxSize == nil && u.Types == nil &&
		u.Search == nil && u.Sort == nil && u.Language == nil
}

// Controller is one page session's listings controller. All methods are safe
// for concurrent use; events are processed one at a time.
type Controller struct {
	store      *services.DataStore
	view       *view.Synchronizer
	translator i18n.Translator
	logger     *utils.Logger
	opts       Options

	mu       sync.Mutex
	state    State
	criteria models.FilterCriteria
	sortKey  models.SortKey
	lang     string
	filtered []*models.Listing
	ordered  []*models.Listing
}

// New creates a controller with criteria taken from the slider maximums.
func New(store *services.DataStore, synchronizer *view.Synchronizer, translator i18n.Translator, opts Options, logger *utils.Logger) *Controller {
	if opts.SliderMaxPrice < 0 {
		opts.SliderMaxPrice = 0
	}
	if opts.SliderMaxSize < 0 {
		opts.SliderMaxSize = 0
	}
	synchronizer.SetLanguage(opts.Language)
	return &Controller{
		store:      store,
		view:       synchronizer,
		translator: translator,
		logger:     logger,
		opts:       opts,
		state:      StateIdle,
		criteria:   models.NewFilterCriteria(opts.SliderMaxPrice, opts.SliderMaxSize),
		sortKey:    models.SortNew,
		lang:       opts.Language,
		filtered:   []*models.Listing{},
		ordered:    []*models.Listing{},
	}
}

// Init loads the listing collection, creates the map and draws the first view.
func (c *Controller) Init(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateClosed {
		return
	}

	c.store.Load(ctx)
	c.view.InitMap()
	c.updateLocked("init")
}

// SetMaxPrice moves the price slider. Values are clamped to the slider range.
func (c *Controller) SetMaxPrice(v int) {
	c.event("filter", func() { c.criteria.MaxPrice = clamp(v, c.opts.SliderMaxPrice) })
}

// SetMaxSize moves the size slider. Values are clamped to the slider range.
func (c *Controller) SetMaxSize(v int) {
	c.event("filter", func() { c.criteria.MaxSize = clamp(v, c.opts.SliderMaxSize) })
}

// ToggleType flips one property-type toggle. Unknown types are ignored.
func (c *Controller) ToggleType(t models.PropertyType) {
	if !t.Valid() {
		c.logger.Debug("[controller] Ignoring unknown property type %q", t)
		return
	}
	c.event("filter", func() {
		if c.criteria.HasType(t) {
			delete(c.criteria.Types, t)
		} else {
			c.criteria.Types[t] = struct{}{}
		}
	})
}

// SetTypes replaces the whole type selection.
func (c *Controller) SetTypes(types []models.PropertyType) {
	c.event("filter", func() { c.setTypesLocked(types) })
}

// SetSearch replaces the search term.
func (c *Controller) SetSearch(term string) {
	c.event("search", func() { c.criteria.SearchTerm = term })
}

// SetSort selects the grid order. Unknown keys select SortNew.
func (c *Controller) SetSort(key models.SortKey) {
	c.event("sort", func() { c.sortKey = models.ParseSortKey(string(key)) })
}

// SetLanguage switches the display language and re-renders every label.
func (c *Controller) SetLanguage(lang string) {
	c.event("language", func() { c.setLanguageLocked(lang) })
}

// ClearFilters resets criteria and sort to their initial values.
func (c *Controller) ClearFilters() {
	c.event("clear", func() {
		c.criteria = models.NewFilterCriteria(c.opts.SliderMaxPrice, c.opts.SliderMaxSize)
		c.sortKey = models.SortNew
	})
}

// Apply applies a batch of control changes and recomputes once.
func (c *Controller) Apply(u Update) {
	if u.Empty() {
		return
	}
	c.event(triggerFor(u), func() {
		if u.MaxPrice != nil {
			c.criteria.MaxPrice = clamp(*u.MaxPrice, c.opts.SliderMaxPrice)
		}
		if u.MaxSize != nil {
			c.criteria.MaxSize = clamp(*u.MaxSize, c.opts.SliderMaxSize)
		}
		if u.Types != nil {
			c.setTypesLocked(*u.Types)
		}
		if u.Search != nil {
			c.criteria.SearchTerm = *u.Search
		}
		if u.Sort != nil {
			c.sortKey = models.ParseSortKey(string(*u.Sort))
		}
		if u.Language != nil {
			c.setLanguageLocked(*u.Language)
		}
	})
}

// Reload refetches the listing collection and redraws.
func (c *Controller) Reload(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateClosed {
		return
	}

	c.store.Reload(ctx)
	c.updateLocked("reload")
}

// Resize schedules a map-size invalidation. The data views are not recomputed.
func (c *Controller) Resize() {
	c.view.Resize()
}

// UpdateDisplay recomputes both views from scratch with the current state.
func (c *Controller) UpdateDisplay() {
	c.event("refresh", func() {})
}

// Teardown releases the map and pending timers. Later events are ignored.
func (c *Controller) Teardown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateClosed {
		return
	}
	c.view.Teardown()
	c.state = StateClosed
}

// Criteria returns a copy of the active filter criteria.
func (c *Controller) Criteria() models.FilterCriteria {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.criteria.Clone()
}

// SortKey returns the active sort key.
func (c *Controller) SortKey() models.SortKey {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sortKey
}

// Language returns the active display language.
func (c *Controller) Language() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lang
}

// State returns the controller's cycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Visible returns the listings of the last successful render in grid order.
func (c *Controller) Visible() []*models.Listing {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*models.Listing(nil), c.ordered...)
}

// MapState returns the recorded map layer state when the map is enabled.
func (c *Controller) MapState() *view.LeafletState {
	state, ok := c.view.MapState()
	if !ok {
		return nil
	}
	return &state
}

// Snapshot returns what the page needs to draw the current view.
func (c *Controller) Snapshot() models.ViewSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	counts := services.CountByType(c.store.GetAll(), c.criteria)
	facets := make([]models.TypeFacet, 0, len(models.PropertyTypes))
	for _, t := range models.PropertyTypes {
		facets = append(facets, models.TypeFacet{
			Type:     t,
			Label:    c.translator.Lookup(c.lang, "type."+string(t), string(t)),
			Count:    counts[t],
			Selected: c.criteria.HasType(t),
		})
	}

	return models.ViewSnapshot{
		State:        string(c.state),
		Language:     c.lang,
		Sort:         c.sortKey,
		MaxPrice:     c.criteria.MaxPrice,
		MaxSize:      c.criteria.MaxSize,
		PriceDisplay: view.FormatPrice(float64(c.criteria.MaxPrice)),
		SizeDisplay:  view.FormatSize(float64(c.criteria.MaxSize)),
		SearchTerm:   c.criteria.SearchTerm,
		Types:        facets,
		Grid:         c.view.Grid(),
		Markers:      c.view.Markers(),
		MapEnabled:   c.view.MapEnabled(),
		MapSizeEpoch: c.view.MapSizeEpoch(),
		ResultCount:  len(c.filtered),
	}
}

func (c *Controller) event(trigger string, mutate func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateClosed {
		c.logger.Debug("[controller] Ignoring %s event after teardown", trigger)
		return
	}
	mutate()
	c.updateLocked(trigger)
}

// updateLocked runs one Idle -> Recomputing -> Idle pass. Views are built
// before anything is committed, so a failed pass leaves the previous render.
func (c *Controller) updateLocked(trigger string) {
	c.state = StateRecomputing
	start := time.Now()
	metrics.Renders.WithLabelValues(trigger).Inc()

	defer func() {
		if r := recover(); r != nil {
			metrics.RenderFailures.Inc()
			c.logger.Error("[controller] Render pass (%s) failed, keeping previous view: %v", trigger, r)
		}
		c.state = StateIdle
		metrics.RenderDuration.Observe(time.Since(start).Seconds())
	}()

	filtered := services.Filter(c.store.GetAll(), c.criteria)
	ordered := services.Sort(filtered, c.sortKey)

	grid := c.view.BuildGrid(ordered)
	markers := c.view.BuildMarkers(filtered)

	c.view.CommitGrid(grid)
	c.view.CommitMarkers(markers)
	c.filtered, c.ordered = filtered, ordered

	c.logger.Debug("[controller] %s: %d visible, %d markers", trigger, len(ordered), len(markers))
}

func (c *Controller) setTypesLocked(types []models.PropertyType) {
	c.criteria.Types = make(map[models.PropertyType]struct{}, len(types))
	for _, t := range types {
		if t.Valid() {
			c.criteria.Types[t] = struct{}{}
		}
	}
}

func (c *Controller) setLanguageLocked(lang string) {
	lang = strings.TrimSpace(lang)
	if lang == "" {
		return
	}
	c.lang = lang
	c.view.SetLanguage(lang)
}

func triggerFor(u Update) string {
	var parts []string
	if u.MaxPrice != nil || u.MaxSize != nil || u.Types != nil {
		parts = append(parts, "filter")
	}
	if u.Search != nil {
		parts = append(parts, "search")
	}
	if u.Sort != nil {
		parts = append(parts, "sort")
	}
	if u.Language != nil {
		parts = append(parts, "language")
	}
	if len(parts) == 1 {
		return parts[0]
	}
	return "batch"
}

func clamp(v, limit int) int {
	if v < 0 {
		return 0
	}
	if v > limit {
		return limit
	}
	return v
}
