package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/cmcnador-art/cmc-timetable/internal/analysis"
	"github.com/cmcnador-art/cmc-timetable/internal/config"
	"github.com/cmcnador-art/cmc-timetable/internal/store"
)

// Server is the HTTP API for the timetable service.
type Server struct {
	router   chi.Router
	store    *store.Store
	pipeline *analysis.Pipeline
	log      *slog.Logger
	cfg      config.Config
	client   *http.Client

	// now is the occupancy reference instant, swappable in tests.
	now func() time.Time
}

// NewServer creates and configures the HTTP server.
func NewServer(st *store.Store, pipeline *analysis.Pipeline, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		store:    st,
		pipeline: pipeline,
		log:      log,
		cfg:      cfg,
		client:   &http.Client{Timeout: cfg.FetchTimeout},
		now:      time.Now,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)
	r.Handle("/files/*", http.StripPrefix("/files/",
		http.FileServer(http.Dir(s.cfg.FilesDir))))

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.APIKey, s.log))

		r.Get("/api/timetables", s.handleListTimetables)
		r.Post("/api/timetables", s.handleCreateTimetable)
		r.Post("/api/timetables/import", s.handleImportTimetables)
		r.Put("/api/timetables/{id}", s.handleUpdateTimetable)
		r.Delete("/api/timetables/{id}", s.handleDeleteTimetable)
		r.Delete("/api/timetables", s.handleDeleteTimetablesByPole)
		r.Post("/api/timetables/{id}/pdf", s.handleUploadPDF)

		r.Get("/api/analysis", s.handleAnalysis)
		r.Get("/api/analysis/report", s.handleAnalysisReport)

		r.Get("/api/admins", s.handleListAdmins)
		r.Put("/api/admins/{id}", s.handleUpsertAdmin)
		r.Delete("/api/admins/{id}", s.handleDeleteAdmin)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
