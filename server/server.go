// Package server exposes the listings controller over HTTP: one controller per
// browser session, the listings page, and a small JSON API for the controls.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"crous-x/controller"
	"crous-x/i18n"
	"crous-x/storage"
	"crous-x/utils"
	"crous-x/view"
)

const placeholderSVG = `<svg xmlns="http://www.w3.org/2000/svg" width="320" height="180" viewBox="0 0 320 180">` +
	`<rect width="320" height="180" fill="#e5e7eb"/>` +
	`<path d="M120 120l30-40 25 30 15-20 30 30z" fill="#9ca3af"/></svg>`

// Options are the page settings the handlers need besides the sessions.
type Options struct {
	SliderMaxPrice int
	SliderMaxSize  int
}

// Server routes HTTP requests to session controllers.
type Server struct {
	sessions *Sessions
	catalog  *i18n.Catalog
	opts     Options
	logger   *utils.Logger
}

// New creates a Server.
func New(sessions *Sessions, catalog *i18n.Catalog, opts Options, logger *utils.Logger) *Server {
	return &Server{sessions: sessions, catalog: catalog, opts: opts, logger: logger}
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handlePage)
	mux.HandleFunc("GET /api/view", s.handleView)
	mux.HandleFunc("POST /api/clear", s.handleClear)
	mux.HandleFunc("POST /api/reload", s.handleReload)
	mux.HandleFunc("POST /api/resize", s.handleResize)
	mux.HandleFunc("DELETE /api/session", s.handleTeardown)
	mux.HandleFunc("POST /api/session/teardown", s.handleTeardown)
	mux.HandleFunc("GET /api/export.csv", s.handleExport)
	mux.HandleFunc("GET /static/placeholder.svg", handlePlaceholder)
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())
	return s.logRequests(mux)
}

// session returns the caller's controller, creating a session when the
// cookie is missing or stale. When no session can be created it answers 503
// and returns nil.
func (s *Server) session(w http.ResponseWriter, r *http.Request) *controller.Controller {
	if c := s.existing(r); c != nil {
		return c
	}
	lang := s.catalog.Negotiate(r.URL.Query().Get("lang"), r.Header.Get("Accept-Language"))
	id, c, err := s.sessions.Create(r.Context(), lang)
	if err != nil {
		s.logger.Warn("[server] Refusing new session: %v", err)
		w.Header().Set("Retry-After", "60")
		http.Error(w, "too many sessions, retry later", http.StatusServiceUnavailable)
		return nil
	}
	setSessionCookie(w, id)
	return c
}

// existing returns the caller's controller without creating a session.
func (s *Server) existing(r *http.Request) *controller.Controller {
	id := sessionID(r)
	if id == "" {
		return nil
	}
	c, _ := s.sessions.Get(id)
	return c
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	c := s.session(w, r)
	if c == nil {
		return
	}
	q, err := decodeViewQuery(r.URL.Query())
	if err != nil {
		http.Error(w, "invalid query: "+err.Error(), http.StatusBadRequest)
		return
	}
	c.Apply(q.Update(s.catalog.Negotiate))

	data, err := view.NewPageData(c.Snapshot(), s.catalog, s.catalog.Languages(),
		s.opts.SliderMaxPrice, s.opts.SliderMaxSize, c.MapState())
	if err != nil {
		s.logger.Error("[server] Page data failed: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := view.RenderPage(w, data); err != nil {
		s.logger.Error("[server] %v", err)
	}
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	c := s.session(w, r)
	if c == nil {
		return
	}
	q, err := decodeViewQuery(r.URL.Query())
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	c.Apply(q.Update(s.catalog.Negotiate))
	s.writeSnapshot(w, c)
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	c := s.session(w, r)
	if c == nil {
		return
	}
	c.ClearFilters()
	s.writeSnapshot(w, c)
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	c := s.session(w, r)
	if c == nil {
		return
	}
	c.Reload(r.Context())
	s.writeSnapshot(w, c)
}

func (s *Server) handleResize(w http.ResponseWriter, r *http.Request) {
	c := s.existing(r)
	if c == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	c.Resize()
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleTeardown(w http.ResponseWriter, r *http.Request) {
	if id := sessionID(r); id != "" {
		s.sessions.Remove(id)
	}
	clearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	c := s.session(w, r)
	if c == nil {
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="listings.csv"`)
	csvw, err := storage.NewCSVStream(w)
	if err != nil {
		s.logger.Error("[server] CSV export failed: %v", err)
		return
	}
	if err := csvw.Export(c.Visible()); err != nil {
		s.logger.Error("[server] CSV export failed: %v", err)
	}
	if err := csvw.Close(); err != nil {
		s.logger.Error("[server] CSV export failed: %v", err)
	}
}

func handlePlaceholder(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	_, _ = w.Write([]byte(placeholderSVG))
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) writeSnapshot(w http.ResponseWriter, c *controller.Controller) {
	writeJSON(w, http.StatusOK, c.Snapshot())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("[server] %s %s (%s)", r.Method, r.URL.Path, time.Since(start))
	})
}
