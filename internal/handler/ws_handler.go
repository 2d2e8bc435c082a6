package handler

import (
	"errors"
	"net/http"

	"github.com/gorilla/websocket"

	"hzroom/internal/app/chat"
	"hzroom/internal/app/user"
	"hzroom/internal/pkg/auth/jwt"
	"hzroom/internal/pkg/errs"
	"hzroom/internal/pkg/limiter"
	"hzroom/internal/pkg/logx"
	"hzroom/internal/pkg/resp"
)

// HandleWebSocket verifies the session ticket, attaches a session to the ticket's server and
// runs the websocket client until the browser goes away.
func HandleWebSocket(deps *AppDeps, upgrader websocket.Upgrader, rateLimiter *limiter.IPRateLimiter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := limiter.ClientIP(r)
		if !rateLimiter.Allow(ip) {
			logx.Warn("WebSocket connection rejected: Rate limit exceeded.", "ip", logx.AnonymizeIP(ip))
			resp.RespondError(w, errs.NewError(errs.ErrRateLimitExceeded))
			return
		}

		ticket := r.URL.Query().Get("ticket")
		if ticket == "" {
			resp.RespondError(w, errs.NewError(errs.ErrTicketInvalid))
			return
		}

		payload, err := jwt.ParseToken(ticket, deps.Config.SessionSecret)
		if err != nil {
			logx.Info("WebSocket request rejected: invalid ticket.", "error", err.Error())
			resp.RespondError(w, errs.NewError(errs.ErrTicketInvalid))
			return
		}

		server, customErr := lookupServer(r, deps, payload.ServerID)
		if customErr != nil {
			resp.RespondError(w, customErr)
			return
		}

		self := user.User{
			ID:       payload.ID,
			Nickname: payload.Nickname,
			Avatar:   payload.Avatar,
		}

		session, err := deps.Manager.Attach(r.Context(), server.ID, self)
		switch {
		case errors.Is(err, errs.NewError(errs.ErrSessionExists)), errors.Is(err, errs.NewError(errs.ErrNicknameTaken)):
			errors.As(err, &customErr)
			logx.Info("WebSocket request rejected: identity already online.", "server_id", server.ID, "user_id", self.ID)
			resp.RespondError(w, customErr)
			return
		case err != nil:
			logx.Error(err, "Failed to attach session", "server_id", server.ID, "user_id", self.ID)
			resp.RespondError(w, errs.NewError(errs.ErrTopicUnavailable))
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logx.Error(err, "Failed to upgrade connection to WebSocket")
			deps.Manager.Detach(session.ID)
			return
		}

		client := chat.NewClient(session, conn, func() { deps.Manager.Detach(session.ID) })

		go client.WritePump()

		logx.Info("WebSocket connection established.", "session_id", session.ID, "server_id", server.ID)

		client.ReadPump()
	}
}
