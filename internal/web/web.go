// Package web exposes a registry over HTTP. The routes mirror what the
// remote storage provider expects, so one process can serve the
// collection API that another process's remote backend consumes.
package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/mesh-intelligence/tapestry/internal/inflect"
	"github.com/mesh-intelligence/tapestry/pkg/tapestry"
	"github.com/mesh-intelligence/tapestry/pkg/types"
)

// Server handles the collection API for one registry.
type Server struct {
	registry   *tapestry.Registry
	credential string
	logger     zerolog.Logger
}

// Options configures the server. An empty Credential disables
// authentication.
type Options struct {
	Credential string
	Logger     zerolog.Logger
}

// NewServer wraps a registry in the collection API.
func NewServer(reg *tapestry.Registry, opts Options) *Server {
	return &Server{
		registry:   reg,
		credential: opts.Credential,
		logger:     opts.Logger,
	}
}

// Router returns the collection API router.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(s.logRequests)

	r.Get("/status", s.GetStatus)

	r.Group(func(r chi.Router) {
		r.Use(s.authMiddleware)

		r.Get("/{collection}", s.FindInstances)
		r.Post("/{collection}", s.CreateInstance)
		r.Get("/{collection}/{id}", s.GetInstance)
		r.Put("/{collection}/{id}", s.UpdateInstance)
		r.Delete("/{collection}/{id}", s.DeleteInstance)
		r.Post("/{collection}/{id}/{verb}", s.PerformVerb)
	})

	return r
}

// authMiddleware enforces the bearer credential when one is configured.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.credential != "" {
			if r.Header.Get("Authorization") != "Bearer "+s.credential {
				writeError(w, http.StatusUnauthorized, "unauthorized", "missing or invalid credential")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		s.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", sw.status).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// entityFor maps a collection path segment back to its entity handle.
// Collections derive deterministically from type names, so the reverse
// lookup scans the registered types.
func (s *Server) entityFor(collection string) *tapestry.Entity {
	for _, name := range s.registry.Types() {
		if inflect.Collection(name) == collection {
			return s.registry.Entity(name)
		}
	}
	return nil
}

// GetStatus reports the registry snapshot. Unauthenticated; it carries
// no instance data beyond per-type counts.
func (s *Server) GetStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.registry.Status(r.Context()))
}

// FindInstances lists a collection, optionally narrowed by the "filter"
// query parameter: a URL-encoded JSON predicate document.
func (s *Server) FindInstances(w http.ResponseWriter, r *http.Request) {
	e := s.entityFor(chi.URLParam(r, "collection"))
	if e == nil {
		writeError(w, http.StatusNotFound, "unknown_collection", "no such collection")
		return
	}

	var filter map[string]any
	// Query() already unescapes the parameter once; unescaping again
	// corrupts filters containing % or +.
	if raw := r.URL.Query().Get("filter"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &filter); err != nil {
			writeError(w, http.StatusBadRequest, "bad_filter", "filter must be URL-encoded JSON")
			return
		}
	}

	instances, err := e.Find(r.Context(), filter)
	if err != nil {
		s.writeOpError(w, err)
		return
	}
	if instances == nil {
		instances = []types.Instance{}
	}
	writeJSON(w, http.StatusOK, instances)
}

// CreateInstance stores a new instance and answers 201 with the stamped
// result.
func (s *Server) CreateInstance(w http.ResponseWriter, r *http.Request) {
	e := s.entityFor(chi.URLParam(r, "collection"))
	if e == nil {
		writeError(w, http.StatusNotFound, "unknown_collection", "no such collection")
		return
	}
	data, ok := readInstance(w, r)
	if !ok {
		return
	}

	inst, err := e.Create(r.Context(), data)
	if err != nil {
		s.writeOpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, inst)
}

// GetInstance answers 200 with the instance, or 404 when absent.
func (s *Server) GetInstance(w http.ResponseWriter, r *http.Request) {
	e := s.entityFor(chi.URLParam(r, "collection"))
	if e == nil {
		writeError(w, http.StatusNotFound, "unknown_collection", "no such collection")
		return
	}

	inst, err := e.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeOpError(w, err)
		return
	}
	if inst == nil {
		writeError(w, http.StatusNotFound, "not_found", "no such instance")
		return
	}
	writeJSON(w, http.StatusOK, inst)
}

// UpdateInstance merges the request body over the stored instance.
func (s *Server) UpdateInstance(w http.ResponseWriter, r *http.Request) {
	e := s.entityFor(chi.URLParam(r, "collection"))
	if e == nil {
		writeError(w, http.StatusNotFound, "unknown_collection", "no such collection")
		return
	}
	data, ok := readInstance(w, r)
	if !ok {
		return
	}

	inst, err := e.Update(r.Context(), chi.URLParam(r, "id"), data)
	if err != nil {
		s.writeOpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, inst)
}

// DeleteInstance answers 204 on removal and 404 on absence.
func (s *Server) DeleteInstance(w http.ResponseWriter, r *http.Request) {
	e := s.entityFor(chi.URLParam(r, "collection"))
	if e == nil {
		writeError(w, http.StatusNotFound, "unknown_collection", "no such collection")
		return
	}

	removed, err := e.Delete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeOpError(w, err)
		return
	}
	if !removed {
		writeError(w, http.StatusNotFound, "not_found", "no such instance")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PerformVerb executes a declared custom verb. Undeclared verbs answer
// 400, so remote clients can map the status back to their unknown-verb
// error.
func (s *Server) PerformVerb(w http.ResponseWriter, r *http.Request) {
	e := s.entityFor(chi.URLParam(r, "collection"))
	if e == nil {
		writeError(w, http.StatusNotFound, "unknown_collection", "no such collection")
		return
	}
	data, ok := readInstance(w, r)
	if !ok {
		return
	}

	inst, err := e.Perform(r.Context(), chi.URLParam(r, "verb"), chi.URLParam(r, "id"), data)
	if err != nil {
		s.writeOpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, inst)
}

func (s *Server) writeOpError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, types.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "no such instance")
	case errors.Is(err, types.ErrUnknownVerb):
		writeError(w, http.StatusBadRequest, "unknown_verb", "verb not declared for this type")
	case errors.Is(err, types.ErrUnknownType):
		writeError(w, http.StatusNotFound, "unknown_type", "no such entity type")
	default:
		s.logger.Error().Err(err).Msg("operation failed")
		writeError(w, http.StatusInternalServerError, "internal", "operation failed")
	}
}

// readInstance decodes the JSON request body. An empty body is a valid
// empty payload; malformed JSON answers 400.
func readInstance(w http.ResponseWriter, r *http.Request) (types.Instance, bool) {
	var data types.Instance
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
			writeError(w, http.StatusBadRequest, "bad_body", "request body must be JSON")
			return nil, false
		}
	}
	if data == nil {
		data = types.Instance{}
	}
	return data, true
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}
