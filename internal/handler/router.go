package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/jagcoaching/backend/internal/auth"
	liveHandler "github.com/jagcoaching/backend/internal/handler/live"
	userHandler "github.com/jagcoaching/backend/internal/handler/user"
	liveService "github.com/jagcoaching/backend/internal/service/live"
	"github.com/jagcoaching/backend/internal/store"
	"github.com/jagcoaching/backend/pkg/utils"
)

// NewRouter wires HTTP routes to core services. authMgr may be nil when
// no signing secret is configured; account routes are then disabled and
// live sessions run anonymously.
func NewRouter(liveSvc *liveService.Service, st store.Store, authMgr *auth.Manager) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
	}).Handler)

	// Create handlers
	live := liveHandler.New(liveSvc, st)
	liveWS := liveHandler.NewWebSocketHandler(liveSvc)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(api chi.Router) {
		api.Route("/live", func(liveRoutes chi.Router) {
			if authMgr != nil {
				liveRoutes.Use(authMgr.OptionalMiddleware)
			}
			live.RegisterRoutes(liveRoutes)
			liveWS.RegisterWebSocketRoutes(liveRoutes)

			if authMgr != nil {
				liveRoutes.Group(func(authed chi.Router) {
					authed.Use(authMgr.Middleware)
					live.RegisterAuthenticatedRoutes(authed)
				})
			}
		})

		if authMgr != nil {
			users := userHandler.New(st, authMgr)
			users.RegisterRoutes(api)

			api.Group(func(authed chi.Router) {
				authed.Use(authMgr.Middleware)
				users.RegisterAuthenticatedRoutes(authed)
			})
		}
	})

	return r
}
