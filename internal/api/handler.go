package api

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/gyaneshwarpardhi/ticketsupervisor/internal/engine"
)

// StatusSource is the read side of the poll loop.
type StatusSource interface {
	Status() engine.Status
	Ready() bool
}

// Handler holds all HTTP handler dependencies.
type Handler struct {
	loop StatusSource
	log  *logrus.Entry
	mux  *http.ServeMux
}

// New creates the ops HTTP handler and registers all routes.
func New(loop StatusSource, log *logrus.Entry) http.Handler {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	h := &Handler{loop: loop, log: log, mux: http.NewServeMux()}

	h.mux.HandleFunc("GET /v1/status", h.status)
	h.mux.HandleFunc("GET /healthz", h.healthz)
	h.mux.HandleFunc("GET /readyz", h.readyz)
	h.mux.Handle("GET /metrics", promhttp.Handler())
	h.mux.HandleFunc("GET /", h.notFound)

	return h.loggingMiddleware(h.mux)
}

// GET /v1/status: current poll loop snapshot.
func (h *Handler) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.loop.Status())
}

// GET /healthz: always 200 (liveness probe).
func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GET /readyz: 503 until a cycle completed, and while the backend is unreachable.
func (h *Handler) readyz(w http.ResponseWriter, r *http.Request) {
	st := h.loop.Status()
	if !h.loop.Ready() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":  "not ready",
			"state":   st.State,
			"retries": st.Retries,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ready",
		"state":  st.State,
	})
}

func (h *Handler) notFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "no route for "+r.URL.Path)
}

type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.code = code
	s.ResponseWriter.WriteHeader(code)
}

func (h *Handler) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(rec, r)
		h.log.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rec.code,
			"duration": time.Since(start).String(),
		}).Debug("http request")
	})
}
