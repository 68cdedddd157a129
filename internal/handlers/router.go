package handlers

import (
	"net/http"
	"strings"

	"hutang/internal/config"
	"hutang/internal/middleware"
	"hutang/internal/websocket"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

type Handler struct {
	cfg      config.Config
	auth     AuthService
	hutangs  HutangService
	sessions middleware.SessionLookup
	hub      *websocket.Hub
	logger   *zap.Logger
}

func New(cfg config.Config, auth AuthService, hutangs HutangService, sessions middleware.SessionLookup, hub *websocket.Hub, logger *zap.Logger) *Handler {
	return &Handler{
		cfg:      cfg,
		auth:     auth,
		hutangs:  hutangs,
		sessions: sessions,
		hub:      hub,
		logger:   logger,
	}
}

func (h *Handler) Routes() http.Handler {
	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(middleware.RequestLogger(h.logger))
	router.Use(middleware.Recoverer(h.logger))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   splitOrigins(h.cfg.AllowedOrigins),
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", middleware.SessionHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	// Set before Route so mounted subrouters inherit them.
	router.NotFound(h.NotFound)
	router.MethodNotAllowed(h.MethodNotAllowed)

	requireAuth := middleware.Auth(h.sessions)
	router.Route("/api", func(r chi.Router) {
		r.Get("/health", h.Health)
		r.Get("/ws/hutangs", h.WSHutangs)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", h.Register)
			r.Post("/login", h.Login)
			r.With(requireAuth).Post("/logout", h.Logout)
			r.With(requireAuth).Get("/me", h.Me)
		})

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/users", h.ListUsers)
			r.Post("/users", h.CreateUser)
			r.Get("/users/{id}", h.GetUser)

			r.Get("/hutangs", h.ListHutangs)
			r.Post("/hutangs", h.CreateHutang)
			r.Get("/hutangs/{id}", h.GetHutang)
			r.Put("/hutangs/{id}", h.UpdateHutang)
			r.Delete("/hutangs/{id}", h.DeleteHutang)
			r.Post("/hutangs/{id}/payments", h.AddPayment)

			r.Get("/summary", h.Summary)
		})
	})
	return router
}

func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	respondError(w, http.StatusNotFound, "Route not found")
}

func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
}

func splitOrigins(raw string) []string {
	var origins []string
	for _, origin := range strings.Split(raw, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}
