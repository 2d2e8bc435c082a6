package handler

import (
	"errors"
	"net/http"

	"hzroom/internal/app/storage"
	"hzroom/internal/pkg/errs"
	"hzroom/internal/pkg/logx"
	"hzroom/internal/pkg/req"
	"hzroom/internal/pkg/resp"
)

// PresignAvatarInput describes the image the browser is about to upload.
type PresignAvatarInput struct {
	MimeType string `json:"mimeType"`
	FileSize int64  `json:"fileSize"`
}

// HandlePresignAvatar returns a presigned upload URL and the avatar URL to send at login.
func HandlePresignAvatar(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.Storage == nil {
			resp.RespondError(w, errs.NewError(errs.ErrStorageDisabled))
			return
		}

		var input PresignAvatarInput
		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			resp.RespondError(w, customErr)
			return
		}

		upload, err := storage.PresignAvatar(r.Context(), deps.Storage, input.MimeType, input.FileSize)
		switch {
		case errors.Is(err, storage.ErrUnsupportedType), errors.Is(err, storage.ErrTooLarge):
			resp.RespondError(w, errs.NewError(errs.ErrInvalidParams))
			return
		case err != nil:
			logx.Error(err, "Failed to presign avatar upload")
			resp.RespondError(w, errs.NewError(errs.ErrStorageFailed))
			return
		}

		resp.RespondSuccess(w, upload)
	}
}
