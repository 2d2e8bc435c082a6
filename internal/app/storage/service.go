/*
Package storage issues presigned S3 URLs for avatar images.

Browsers upload avatars straight to an S3-compatible bucket; the server only signs the
request and hands back the key and a download URL to use as the avatar reference.
*/
package storage

import (
	"context"
	"errors"
	"path"
	"strings"
	"time"

	"hzroom/internal/pkg/randx"
)

const (
	// MaxAvatarBytes is the largest avatar accepted.
	MaxAvatarBytes = 2 << 20

	// UploadExpiration is the lifetime of a presigned upload URL.
	UploadExpiration = 5 * time.Minute

	// DownloadExpiration is the lifetime of a presigned avatar URL.
	DownloadExpiration = 24 * time.Hour

	avatarPrefix = "avatars"
)

var (
	// ErrDisabled is returned by NewStorageService when no bucket is configured.
	ErrDisabled = errors.New("storage: not configured")

	// ErrUnsupportedType is returned for avatar MIME types outside the allow list.
	ErrUnsupportedType = errors.New("storage: unsupported avatar type")

	// ErrTooLarge is returned for avatars over MaxAvatarBytes or with no size.
	ErrTooLarge = errors.New("storage: avatar size out of range")
)

var avatarExtensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// ServiceConfig holds the configuration required to connect to the storage service.
type ServiceConfig struct {
	S3BucketName      string
	S3Endpoint        string
	S3Region          string
	S3AccessKeyID     string
	S3SecretAccessKey string
}

// Enabled reports whether enough is configured to sign requests.
func (c ServiceConfig) Enabled() bool {
	return c.S3BucketName != "" && c.S3AccessKeyID != "" && c.S3SecretAccessKey != ""
}

// StorageService defines the public interface for the avatar storage service.
type StorageService interface {
	// PresignUpload generates a pre-signed URL for uploading an object.
	PresignUpload(ctx context.Context, key, mimeType string, fileSize int64, duration time.Duration) (string, error)

	// PresignDownload generates a pre-signed URL for downloading an object.
	PresignDownload(ctx context.Context, key string, duration time.Duration) (string, error)
}

// AvatarUpload is what a browser needs to upload an avatar and reference it at login.
type AvatarUpload struct {
	Key       string `json:"key"`
	UploadURL string `json:"uploadUrl"`
	AvatarURL string `json:"avatarUrl"`
}

// NewStorageService returns the S3 implementation, or ErrDisabled when cfg is incomplete.
func NewStorageService(cfg ServiceConfig) (StorageService, error) {
	if !cfg.Enabled() {
		return nil, ErrDisabled
	}
	return newS3Client(cfg)
}

// AvatarKey validates the upload and returns a fresh object key for it.
func AvatarKey(mimeType string, fileSize int64) (string, error) {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))

	ext, ok := avatarExtensions[mimeType]
	if !ok {
		return "", ErrUnsupportedType
	}
	if fileSize <= 0 || fileSize > MaxAvatarBytes {
		return "", ErrTooLarge
	}

	return path.Join(avatarPrefix, randx.MessageID()+ext), nil
}

// PresignAvatar validates the upload and signs both the upload and the download URL.
func PresignAvatar(ctx context.Context, svc StorageService, mimeType string, fileSize int64) (AvatarUpload, error) {
	key, err := AvatarKey(mimeType, fileSize)
	if err != nil {
		return AvatarUpload{}, err
	}

	uploadURL, err := svc.PresignUpload(ctx, key, strings.ToLower(strings.TrimSpace(mimeType)), fileSize, UploadExpiration)
	if err != nil {
		return AvatarUpload{}, err
	}

	avatarURL, err := svc.PresignDownload(ctx, key, DownloadExpiration)
	if err != nil {
		return AvatarUpload{}, err
	}

	return AvatarUpload{Key: key, UploadURL: uploadURL, AvatarURL: avatarURL}, nil
}
