package rest

import (
	"net/http"

	"gamegroup-backend/infrastructure/di"
	"gamegroup-backend/interfaces/http/rest/handlers"
	"gamegroup-backend/interfaces/http/rest/middleware"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// Router creates and configures the HTTP router
type Router struct {
	container *di.Container
	logger    *zap.Logger
}

// NewRouter creates a new router instance
func NewRouter(container *di.Container) *Router {
	return &Router{
		container: container,
		logger:    container.Logger.Named("http"),
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	cfg := rt.container.Config
	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(rt.logger))
	if cfg.EnableMetrics {
		router.Use(middleware.Metrics(rt.container.Metrics))
	}

	if cfg.EnableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID", middleware.UserIDHeader},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	router.Get("/health", rt.healthCheck)
	if cfg.EnableMetrics {
		router.Method(http.MethodGet, "/metrics", rt.container.Metrics.Handler())
	}

	c := rt.container
	gameHandler := handlers.NewGameHandler(c.Enhancer, c.Commands, rt.logger)
	voteHandler := handlers.NewVoteHandler(c.Enhancer, c.Commands, rt.logger)
	reportHandler := handlers.NewReportHandler(c.Reports, rt.logger)
	recommendationHandler := handlers.NewRecommendationHandler(c.Recommender, rt.logger)
	teamHandler := handlers.NewTeamHandler(c.Commands, rt.logger)
	cacheHandler := handlers.NewCacheHandler(c.Invalidator, rt.logger)

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Identity)

		// Public reads
		r.Get("/games", gameHandler.ListGames)
		r.Get("/games/favorite-counts", gameHandler.FavoriteCounts)
		r.Get("/votes/stats", voteHandler.Stats)
		r.Route("/reports", func(r chi.Router) {
			r.Get("/favorites", reportHandler.Favorites)
			r.Get("/votes", reportHandler.Votes)
			r.Get("/teams", reportHandler.Teams)
		})
		r.Post("/cache/invalidate", cacheHandler.Invalidate)

		// Caller-scoped endpoints
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireUser)

			r.Get("/votes/daily", voteHandler.Daily)
			r.Post("/votes", voteHandler.SubmitVote)
			r.Get("/recommendations", recommendationHandler.Recommend)

			r.Post("/games", gameHandler.CreateGame)
			r.Route("/games/{gameID}", func(r chi.Router) {
				r.Put("/", gameHandler.UpdateGame)
				r.Delete("/", gameHandler.DeleteGame)
				r.Post("/like", gameHandler.LikeGame)
				r.Post("/favorite", gameHandler.FavoriteGame)
				r.Delete("/favorite", gameHandler.UnfavoriteGame)
			})

			r.Post("/teams", teamHandler.CreateTeam)
			r.Post("/teams/{teamID}/join", teamHandler.JoinTeam)
			r.Post("/teams/{teamID}/leave", teamHandler.LeaveTeam)
		})
	})

	return router
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}
