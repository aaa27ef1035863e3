package api

import (
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/uplora/uplora/internal/api/handler"
	"github.com/uplora/uplora/internal/api/middleware"
	"github.com/uplora/uplora/internal/auth"
	"github.com/uplora/uplora/internal/content"
	"github.com/uplora/uplora/internal/events"
	"github.com/uplora/uplora/internal/platform"
	"github.com/uplora/uplora/internal/team"
)

// RouterDeps holds all dependencies needed by the router.
type RouterDeps struct {
	AuthService  *auth.Service
	UserRepo     auth.UserRepository
	TeamRepo     team.Repository
	MemberRepo   team.MembershipRepository
	ContentRepo  content.Repository
	PlatformRepo platform.Repository
	Hub          *events.Hub
	DBPinger     handler.DBPinger
	Version      string
	CORSOrigins  string
}

// NewRouter creates and configures a Chi router with all middleware and routes.
func NewRouter(deps RouterDeps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery)
	r.Use(middleware.Metrics)
	r.Use(chimiddleware.Logger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   strings.Split(deps.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-API-Key", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
	}))

	healthHandler := handler.NewHealthHandler(deps.DBPinger, deps.Version)
	r.Get("/health", healthHandler.ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())

	contentHandler := handler.NewContentHandler(deps.ContentRepo, deps.PlatformRepo, deps.Hub)
	teamHandler := handler.NewTeamHandler(deps.TeamRepo, deps.MemberRepo)
	platformHandler := handler.NewPlatformHandler(deps.PlatformRepo, teamHandler)
	userHandler := handler.NewUserHandler(deps.AuthService, deps.UserRepo)
	eventsHandler := handler.NewEventsHandler(deps.Hub)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(deps.AuthService))

		r.Route("/content", func(r chi.Router) {
			r.Post("/", contentHandler.Create)
			r.Get("/", contentHandler.List)
			r.Get("/{id}", contentHandler.GetByID)
			r.Patch("/{id}", contentHandler.Update)
			r.Delete("/{id}", contentHandler.Delete)
			r.Post("/{id}/{action}", contentHandler.Transition)
		})

		r.Get("/events", eventsHandler.ServeHTTP)

		r.Route("/teams", func(r chi.Router) {
			r.Post("/", teamHandler.Create)
			r.Get("/", teamHandler.List)
			r.Delete("/{id}", teamHandler.Delete)
			r.Get("/{id}/members", teamHandler.Members)
			r.Put("/{id}/members/{userId}", teamHandler.SetMember)
			r.Delete("/{id}/members/{userId}", teamHandler.RemoveMember)
			r.Post("/{id}/platforms", platformHandler.Connect)
			r.Get("/{id}/platforms", platformHandler.List)
			r.Delete("/{id}/platforms/{connId}", platformHandler.Disconnect)
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(middleware.RequireAdmin())
			r.Post("/", userHandler.Create)
			r.Get("/", userHandler.List)
			r.Delete("/{id}", userHandler.Revoke)
		})
	})

	return r
}
