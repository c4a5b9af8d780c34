package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"crous-x/controller"
	"crous-x/i18n"
	"crous-x/metrics"
	"crous-x/services"
	"crous-x/utils"
	"crous-x/view"
)

const sessionCookie = "crousx_sid"

// SessionFactory builds and initialises the controller of a new page session.
type SessionFactory func(ctx context.Context, lang string) *controller.Controller

// NewControllerFactory wires a DataStore and a Synchronizer per session around
// the shared listings source.
func NewControllerFactory(source services.ListingSource, tr i18n.Translator, lib view.MapLibrary, mapOpts view.MapOptions, opts controller.Options, logger *utils.Logger) SessionFactory {
	return func(ctx context.Context, lang string) *controller.Controller {
		o := opts
		if lang != "" {
			o.Language = lang
		}
		synchronizer := view.NewSynchronizer(lib, tr, mapOpts, o.Language, logger)
		c := controller.New(services.NewDataStore(source, logger), synchronizer, tr, o, logger)
		c.Init(ctx)
		return c
	}
}

// ErrTooManySessions is returned by Create when the registry is full.
var ErrTooManySessions = errors.New("sessions: limit reached")

// SessionOptions bound the registry.
type SessionOptions struct {
	// IdleTimeout is how long an unused session survives.
	IdleTimeout time.Duration
	// MaxSessions caps live sessions; 0 means unlimited.
	MaxSessions int
	// InitTimeout bounds the first listings load of a new session; 0 means
	// no bound.
	InitTimeout time.Duration
}

type session struct {
	ctrl     *controller.Controller
	lastSeen time.Time
}

// Sessions maps session cookies to controllers and tears down the ones left
// idle for too long.
type Sessions struct {
	factory SessionFactory
	opts    SessionOptions
	logger  *utils.Logger
	now     func() time.Time

	mu      sync.Mutex
	items   map[string]*session
	pending int
}

// NewSessions creates an empty registry.
func NewSessions(factory SessionFactory, opts SessionOptions, logger *utils.Logger) *Sessions {
	return &Sessions{
		factory: factory,
		opts:    opts,
		logger:  logger,
		now:     time.Now,
		items:   make(map[string]*session),
	}
}

// Get returns the controller for id and marks the session as used.
func (s *Sessions) Get(id string) (*controller.Controller, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.items[id]
	if !ok {
		return nil, false
	}
	sess.lastSeen = s.now()
	return sess.ctrl, true
}

// Create starts a new session. The controller is initialised before it
// becomes visible to other requests. The first load does not depend on ctx
// staying alive: it is detached from the caller and bounded by InitTimeout.
// When the registry is full, idle sessions are evicted first; if it is still
// full, ErrTooManySessions is returned.
func (s *Sessions) Create(ctx context.Context, lang string) (string, *controller.Controller, error) {
	if !s.reserve() {
		s.EvictIdle()
		if !s.reserve() {
			return "", nil, ErrTooManySessions
		}
	}

	initCtx := context.WithoutCancel(ctx)
	if s.opts.InitTimeout > 0 {
		var cancel context.CancelFunc
		initCtx, cancel = context.WithTimeout(initCtx, s.opts.InitTimeout)
		defer cancel()
	}

	id := uuid.NewString()
	ctrl := s.factory(initCtx, lang)

	s.mu.Lock()
	s.pending--
	s.items[id] = &session{ctrl: ctrl, lastSeen: s.now()}
	n := len(s.items)
	s.mu.Unlock()

	metrics.ActiveSessions.Set(float64(n))
	s.logger.Debug("[sessions] Created %s (%d active)", id, n)
	return id, ctrl, nil
}

// reserve claims a slot for a session under construction.
func (s *Sessions) reserve() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.opts.MaxSessions > 0 && len(s.items)+s.pending >= s.opts.MaxSessions {
		return false
	}
	s.pending++
	return true
}

// Remove tears the session down. It reports whether the session existed.
func (s *Sessions) Remove(id string) bool {
	s.mu.Lock()
	sess, ok := s.items[id]
	delete(s.items, id)
	n := len(s.items)
	s.mu.Unlock()

	if !ok {
		return false
	}
	sess.ctrl.Teardown()
	metrics.ActiveSessions.Set(float64(n))
	return true
}

// EvictIdle tears down every session unused for longer than the idle timeout.
func (s *Sessions) EvictIdle() int {
	cutoff := s.now().Add(-s.opts.IdleTimeout)

	s.mu.Lock()
	var stale []*session
	for id, sess := range s.items {
		if sess.lastSeen.Before(cutoff) {
			stale = append(stale, sess)
			delete(s.items, id)
		}
	}
	n := len(s.items)
	s.mu.Unlock()

	for _, sess := range stale {
		sess.ctrl.Teardown()
	}
	if len(stale) > 0 {
		metrics.ActiveSessions.Set(float64(n))
		s.logger.Info("[sessions] Evicted %d idle sessions (%d active)", len(stale), n)
	}
	return len(stale)
}

// RunJanitor evicts idle sessions every interval until ctx is done.
func (s *Sessions) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.EvictIdle()
		}
	}
}

// Len returns the number of live sessions.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Close tears down every session. It matches ShutdownHook.
func (s *Sessions) Close(ctx context.Context) error {
	s.mu.Lock()
	all := s.items
	s.items = make(map[string]*session)
	s.mu.Unlock()

	for _, sess := range all {
		if err := ctx.Err(); err != nil {
			return err
		}
		sess.ctrl.Teardown()
	}
	metrics.ActiveSessions.Set(0)
	s.logger.Info("[sessions] Closed %d sessions", len(all))
	return nil
}

func sessionID(r *http.Request) string {
	c, err := r.Cookie(sessionCookie)
	if err != nil {
		return ""
	}
	return c.Value
}

func setSessionCookie(w http.ResponseWriter, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
