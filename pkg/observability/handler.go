package observability

import (
	"encoding/json"
	"net/http"

	"github.com/aretw0/warden/pkg/domain"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SessionView is the read side of a session.Manager.
type SessionView interface {
	Identity() *domain.Identity
	SlotKey() string
	Origin() string
}

// SessionStatus is the body of GET /session.
type SessionStatus struct {
	Authenticated bool             `json:"authenticated"`
	Identity      *domain.Identity `json:"identity,omitempty"`
	Slot          string           `json:"slot"`
	Origin        string           `json:"origin"`
}

// NewHandler serves /metrics from gatherer, /healthz, and /session from view.
func NewHandler(view SessionView, gatherer prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]string{"status": "ok"})
	})

	r.Get("/session", func(w http.ResponseWriter, r *http.Request) {
		id := view.Identity()
		writeJSON(w, SessionStatus{
			Authenticated: id != nil,
			Identity:      id,
			Slot:          view.SlotKey(),
			Origin:        view.Origin(),
		})
	})

	return r
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
