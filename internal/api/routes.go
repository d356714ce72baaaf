package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
)

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.config.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Archive-Failed"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(MetricsMiddleware)

	r.Get("/health", s.HealthCheckHandler)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	r.Get("/ws", s.ServeWsHandler)

	if s.objects != nil {
		r.Handle("/objects/*", http.StripPrefix("/objects/", s.objects))
	}

	r.Route("/api/v1", func(r chi.Router) {
		if s.accounts != nil {
			r.Post("/auth/login", s.LoginHandler)
			r.Post("/auth/refresh", s.RefreshTokenHandler)
		}

		r.Group(func(r chi.Router) {
			r.Use(s.AuthMiddleware)

			r.Get("/me", s.GetCurrentUserHandler)

			r.Post("/uploads", s.UploadFilesHandler)
			r.Get("/uploads/credentials", s.UploadCredentialsHandler)
			r.Post("/files", s.RegisterUploadHandler)
			r.Post("/folders", s.CreateFolderHandler)

			r.Get("/nodes", s.ListNodesHandler)
			r.Post("/nodes/archive", s.DownloadArchiveHandler)
			r.Post("/nodes/batch/{action}", s.BatchHandler)
			r.Patch("/nodes/{nodeId}", s.UpdateNodeHandler)
			r.Patch("/nodes/{nodeId}/star", s.ToggleStarHandler)
			r.Patch("/nodes/{nodeId}/trash", s.ToggleTrashHandler)
			r.Delete("/nodes/{nodeId}", s.DeleteNodeHandler)
			r.Get("/nodes/{nodeId}/download", s.DownloadFileHandler)

			r.Delete("/trash", s.EmptyTrashHandler)

			if s.accounts != nil {
				r.Get("/me/storage", s.GetStorageUsageHandler)
				r.Get("/sessions", s.ListSessionsHandler)
				r.Delete("/sessions/{sessionId}", s.DeleteSessionHandler)
				r.Post("/sessions/terminate_all", s.TerminateAllSessionsHandler)
				r.Get("/events", s.GetEventsHandler)
			}
		})
	})

	return r
}
