package media

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Upload categories map to folders on the media host.
const (
	CategoryAvatar = "avatars"
	CategoryBanner = "banners"
	CategoryPost   = "posts"
)

// ErrUploadFailed indicates the media host rejected or lost the upload.
var ErrUploadFailed = errors.New("media upload failed")

// Store persists opaque blobs on an external media host and returns a public URL.
type Store interface {
	Upload(ctx context.Context, data []byte, category string) (string, error)
}

// StaticStore simulates a media host by minting deterministic-looking URLs
// without storing anything. Used in development and tests.
type StaticStore struct {
	baseURL string
}

// NewStaticStore builds a stub media store rooted at baseURL.
func NewStaticStore(baseURL string) *StaticStore {
	return &StaticStore{baseURL: baseURL}
}

// Upload mints a URL for the blob.
func (s *StaticStore) Upload(_ context.Context, data []byte, category string) (string, error) {
	if len(data) == 0 {
		return "", ErrUploadFailed
	}
	return fmt.Sprintf("%s/%s/%s", s.baseURL, category, uuid.NewString()), nil
}
