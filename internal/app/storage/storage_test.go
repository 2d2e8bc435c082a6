package storage

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAvatarKey(t *testing.T) {
	tcases := []struct {
		name    string
		mime    string
		size    int64
		wantExt string
		wantErr error
	}{
		{name: "png", mime: "image/png", size: 1024, wantExt: ".png"},
		{name: "mixed case jpeg", mime: " Image/JPEG ", size: 1024, wantExt: ".jpg"},
		{name: "svg rejected", mime: "image/svg+xml", size: 1024, wantErr: ErrUnsupportedType},
		{name: "too large", mime: "image/webp", size: MaxAvatarBytes + 1, wantErr: ErrTooLarge},
		{name: "zero size", mime: "image/gif", size: 0, wantErr: ErrTooLarge},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			key, err := AvatarKey(tc.mime, tc.size)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(key, "avatars/"))
			assert.True(t, strings.HasSuffix(key, tc.wantExt))
		})
	}
}

func TestNewStorageService_Disabled(t *testing.T) {
	_, err := NewStorageService(ServiceConfig{S3BucketName: "avatars"})
	assert.ErrorIs(t, err, ErrDisabled)
}

func TestPresignAvatar(t *testing.T) {
	svc, err := NewStorageService(ServiceConfig{
		S3BucketName:      "hzroom",
		S3Endpoint:        "http://localhost:9000",
		S3AccessKeyID:     "test-key",
		S3SecretAccessKey: "test-secret",
	})
	require.NoError(t, err)

	upload, err := PresignAvatar(context.Background(), svc, "image/png", 2048)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(upload.UploadURL, "http://localhost:9000/hzroom/"+upload.Key), upload.UploadURL)
	assert.Contains(t, upload.UploadURL, "X-Amz-Signature=")
	assert.True(t, strings.HasPrefix(upload.AvatarURL, "http://localhost:9000/hzroom/"+upload.Key), upload.AvatarURL)
	assert.Contains(t, upload.AvatarURL, "X-Amz-Expires=86400")
}
