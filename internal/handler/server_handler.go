package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"hzroom/internal/app/directory"
	"hzroom/internal/pkg/errs"
	"hzroom/internal/pkg/logx"
	"hzroom/internal/pkg/resp"
)

// HandleListServers returns the server directory.
func HandleListServers(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		servers, err := deps.Directory.List(r.Context())
		if err != nil {
			logx.Error(err, "Failed to list servers")
			resp.RespondError(w, errs.NewError(errs.ErrUnknown))
			return
		}

		resp.RespondSuccess(w, map[string]any{"servers": servers})
	}
}

// HandleListServerUsers returns the nicknames currently announced on a server.
func HandleListServerUsers(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		server, customErr := lookupServer(r, deps, chi.URLParam(r, "id"))
		if customErr != nil {
			resp.RespondError(w, customErr)
			return
		}

		names, err := deps.Manager.Nicknames(r.Context(), server.ID, deps.Config.ObserveWindow())
		if err != nil {
			logx.Error(err, "Failed to list online nicknames", "server_id", server.ID)
			resp.RespondError(w, errs.NewError(errs.ErrTopicUnavailable))
			return
		}

		resp.RespondSuccess(w, map[string]any{
			"server":    server,
			"nicknames": names,
		})
	}
}

// lookupServer resolves id through the directory.
func lookupServer(r *http.Request, deps *AppDeps, id string) (directory.Server, *errs.CustomError) {
	if id == "" {
		return directory.Server{}, errs.NewError(errs.ErrInvalidParams)
	}

	server, err := deps.Directory.Get(r.Context(), id)
	switch {
	case errors.Is(err, directory.ErrNotFound):
		return directory.Server{}, errs.NewError(errs.ErrServerNotFound)
	case err != nil:
		logx.Error(err, "Failed to look up server", "server_id", id)
		return directory.Server{}, errs.NewError(errs.ErrUnknown)
	}
	return server, nil
}
