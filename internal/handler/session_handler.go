package handler

import (
	"net/http"
	"slices"
	"strings"

	"hzroom/internal/app/user"
	"hzroom/internal/pkg/auth/jwt"
	"hzroom/internal/pkg/errs"
	"hzroom/internal/pkg/logx"
	"hzroom/internal/pkg/randx"
	"hzroom/internal/pkg/req"
	"hzroom/internal/pkg/resp"
)

// CreateSessionInput is the login form.
type CreateSessionInput struct {
	ServerID string `json:"serverId"`
	Nickname string `json:"nickname"`
	Avatar   string `json:"avatar,omitempty"`
}

// HandleCreateSession logs a user in: it assigns the identity, rejects nicknames already
// online on the server and returns the ticket for the websocket handshake.
func HandleCreateSession(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input CreateSessionInput
		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			resp.RespondError(w, customErr)
			return
		}

		nickname := strings.TrimSpace(input.Nickname)
		if !user.ValidNickname(nickname) {
			resp.RespondError(w, errs.NewError(errs.ErrNicknameInvalid, user.MaxNicknameRunes))
			return
		}

		server, customErr := lookupServer(r, deps, input.ServerID)
		if customErr != nil {
			resp.RespondError(w, customErr)
			return
		}

		online, err := deps.Manager.Nicknames(r.Context(), server.ID, deps.Config.ObserveWindow())
		if err != nil {
			logx.Error(err, "Failed to list online nicknames at login", "server_id", server.ID)
			resp.RespondError(w, errs.NewError(errs.ErrTopicUnavailable))
			return
		}
		if slices.Contains(online, nickname) {
			logx.Info("Login rejected: nickname already online.", "server_id", server.ID)
			resp.RespondError(w, errs.NewError(errs.ErrNicknameTaken, nickname))
			return
		}

		userID, err := randx.UserID()
		if err != nil {
			resp.RespondError(w, errs.NewError(errs.ErrUnknown, err))
			return
		}

		payload := &jwt.Payload{
			ID:       userID,
			Nickname: nickname,
			Avatar:   strings.TrimSpace(input.Avatar),
			ServerID: server.ID,
		}

		ticket, err := jwt.GenerateToken(payload, deps.Config.SessionSecret, jwt.TicketExpiration)
		if err != nil {
			resp.RespondError(w, errs.NewError(errs.ErrUnknown, err))
			return
		}

		resp.RespondSuccess(w, map[string]any{
			"ticket": ticket,
			"user": user.User{
				ID:       payload.ID,
				Nickname: payload.Nickname,
				Avatar:   payload.Avatar,
			},
			"server": server,
			"topic":  deps.Manager.TopicFor(server.ID),
		})
	}
}
