package routes

import (
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/island-troll-tribes/stats-service/handlers"
	"github.com/island-troll-tribes/stats-service/metrics"
	"github.com/island-troll-tribes/stats-service/middleware"
)

// SetupRoutes mounts every endpoint of the stats API onto the router.
func SetupRoutes(
	router *chi.Mux,
	registry *prometheus.Registry,
	m *metrics.Metrics,
	gameHandler *handlers.GameHandler,
	playerHandler *handlers.PlayerHandler,
	classHandler *handlers.ClassHandler,
	standingsHandler *handlers.StandingsHandler,
	replayHandler *handlers.ReplayHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Recoverer)
	router.Use(middleware.Metrics(m))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Get("/healthz", handlers.HealthzHandler)
	router.Method("GET", "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	router.Get("/ws", webSocketHandler.ServeWs)

	router.Route("/api", func(r chi.Router) {
		r.Route("/games", func(r chi.Router) {
			r.Post("/", gameHandler.CreateHandler)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", gameHandler.GetByIDHandler)
				r.Put("/", gameHandler.UpdateHandler)
				r.Delete("/", gameHandler.DeleteHandler)
				r.Post("/replay", replayHandler.UploadHandler)
				r.Get("/replay", replayHandler.GetHandler)
			})
		})

		r.Route("/players", func(r chi.Router) {
			r.Get("/", playerHandler.ListHandler)
			// Fixed segments must come before the name wildcard.
			r.Get("/search", playerHandler.SearchHandler)
			r.Get("/compare", playerHandler.CompareHandler)
			r.Get("/{name}", playerHandler.GetStatsHandler)
		})

		r.Route("/classes", func(r chi.Router) {
			r.Get("/", classHandler.ListHandler)
			r.Get("/{className}", classHandler.GetHandler)
		})

		r.Get("/standings", standingsHandler.GetHandler)
	})
}
