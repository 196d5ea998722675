package httpserver

import (
	"net/http"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"pairchat/internal/config"
	"pairchat/internal/ws"
)

// NewRouter constructs the HTTP surface: health endpoints, the static chat
// page, and the websocket endpoint the whole protocol runs over.
func NewRouter(cfg *config.Config, orch *ws.Orchestrator) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	if cfg.Debug {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Plain HTTP routes get a request deadline. The websocket endpoint is
	// mounted outside this group: connections are long-lived and must not
	// inherit a per-request timeout.
	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))

		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"message":"pairchat API","version":"1.0.0"}`))
		})

		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"status":"healthy"}`))
		})

		// Browser chat page.
		r.Get("/chat", func(w http.ResponseWriter, r *http.Request) {
			http.ServeFile(w, r, filepath.Join(cfg.StaticDir, "index.html"))
		})
	})

	// The websocket endpoint does its own origin checking against the
	// configured CORS origins.
	r.Get("/ws", ws.MakeHandler(orch, cfg.CORSOrigins))

	return r
}
