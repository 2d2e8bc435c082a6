/*
Package handler provides the HTTP handlers and routing setup for the HZ Room server.

The router applies request logging, CORS and IP-based rate limiting before delegating to
the login, directory, avatar and websocket handlers.
*/
package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"hzroom/internal/pkg/limiter"
	"hzroom/internal/pkg/logx"
	"hzroom/internal/pkg/resp"
)

const (
	LoginRate  = 0.2
	LoginBurst = 5
	JoinRate   = 0.5
	JoinBurst  = 10
)

// Router sets up the main HTTP routing table. ctx bounds the rate limiter sweepers.
func Router(ctx context.Context, deps *AppDeps) http.Handler {
	loginLimiter := limiter.NewIPRateLimiter(ctx, rate.Limit(LoginRate), LoginBurst)
	joinLimiter := limiter.NewIPRateLimiter(ctx, rate.Limit(JoinRate), JoinBurst)

	r := chi.NewRouter()

	allowedOrigins := make(map[string]struct{})
	for _, origin := range deps.Config.AllowedOrigins {
		allowedOrigins[origin] = struct{}{}
	}

	wsUpgrader := websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if deps.Config.IsDevelopment() {
				return true
			}

			origin := r.Header.Get("Origin")
			if _, ok := allowedOrigins[origin]; ok {
				return true
			}

			logx.Warn("WebSocket connection rejected: Origin not allowed.", "origin", origin)
			return false
		},
	}

	corsAllowedOrigins := []string{}
	if deps.Config.IsDevelopment() {
		corsAllowedOrigins = []string{"*"}
	} else if len(deps.Config.AllowedOrigins) > 0 {
		corsAllowedOrigins = deps.Config.AllowedOrigins
	}

	c := cors.New(cors.Options{
		AllowedOrigins: corsAllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	})
	r.Use(c.Handler)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logx.RequestLogger())
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		resp.RespondSuccess(w, map[string]any{
			"status":   "ok",
			"service":  "HZ Room Server",
			"sessions": deps.Manager.Len(),
		})
	})

	r.Route("/api", func(api chi.Router) {
		api.Get("/servers", HandleListServers(deps))
		api.Get("/servers/{id}/users", HandleListServerUsers(deps))

		api.With(loginLimiter.Middleware).Post("/session", HandleCreateSession(deps))
		api.With(loginLimiter.Middleware).Post("/avatar/presign", HandlePresignAvatar(deps))
	})

	r.Get("/ws", HandleWebSocket(deps, wsUpgrader, joinLimiter))

	return r
}
