package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func NewRouter(apiHandler *APIHandler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)       // Basic request logging
	r.Use(middleware.Recoverer)    // Recover from panics
	r.Use(middleware.StripSlashes) // Ensure consistent path handling

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// All API routes will be under /api
	r.Route("/api", func(r chi.Router) {
		// Public routes
		r.Post("/login", apiHandler.LoginHandler)
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"status":"ok"}`))
		})

		// User-authenticated routes
		r.Group(func(r chi.Router) {
			r.Use(apiHandler.JWTAuthMiddleware)

			r.Get("/profile", apiHandler.ProfileHandler)

			// Library routes
			r.Get("/songs", apiHandler.ListSongsHandler)
			r.Post("/songs/search", apiHandler.SearchSongHandler)
			r.Get("/songs/{songID}", apiHandler.GetSongHandler)
			r.Post("/songs/{songID}/reflection", apiHandler.ReflectionHandler)
			r.Post("/songs/{songID}/speech", apiHandler.SpeechHandler)

			r.Get("/favorites", apiHandler.ListFavoritesHandler)
			r.Post("/favorites/{songID}", apiHandler.ToggleFavoriteHandler)

			// Study routes
			r.Post("/studies/explain", apiHandler.ExplainHandler)
			r.Get("/studies", apiHandler.ListStudiesHandler)
			r.Post("/studies", apiHandler.SaveStudyHandler)
			r.Delete("/studies/{studyID}", apiHandler.DeleteStudyHandler)

			// Chat routes
			r.Get("/chat/messages", apiHandler.ListMessagesHandler)
			r.Post("/chat/messages", apiHandler.PostMessageHandler)
			r.Get("/chat/ws", apiHandler.ChatWSHandler)

			// Setting routes
			r.Get("/settings/{key}", apiHandler.GetSettingHandler)
			r.Put("/settings/{key}", apiHandler.PutSettingHandler)
		})
	})

	return r
}
