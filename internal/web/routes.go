package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/PabloViniegra/how-are-u/internal/web/handlers"
	"github.com/PabloViniegra/how-are-u/internal/web/static"
)

func (s *Server) setupRoutes() error {
	analysesHandler := handlers.NewAnalysesHandler(s.config, s.client, s.jobManager)
	configHandler := handlers.NewConfigHandler(s.config)
	pagesHandler, err := handlers.NewPagesHandler(s.config, s.client)
	if err != nil {
		return err
	}

	s.router.Get("/api/v1/health", handlers.HealthCheck)

	s.router.Route("/api/v1", func(r chi.Router) {
		// Analyses
		r.Post("/analyses", analysesHandler.Upload)
		r.Get("/analyses", analysesHandler.List)
		r.Get("/analyses/{id}", analysesHandler.Get)

		// Upload jobs (long-running operations)
		r.Get("/jobs/{jobId}", analysesHandler.Status)
		r.Get("/jobs/{jobId}/events", analysesHandler.Events)
		r.Delete("/jobs/{jobId}", analysesHandler.Cancel)

		// Config
		r.Get("/config", configHandler.Get)
	})

	// Pages
	s.router.Get("/", pagesHandler.Home)
	s.router.Get("/make-beauty", pagesHandler.MakeBeauty)
	s.router.Get("/summary/{id}", pagesHandler.Summary)

	s.router.Handle("/assets/*", http.StripPrefix("/assets/", cacheAssets(http.FileServer(static.GetFileSystem()))))

	return nil
}

// cacheAssets adds cache headers for static assets.
func cacheAssets(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		next.ServeHTTP(w, r)
	})
}
