package storage

import (
	"context"
)

// MediaUploader stores user uploads. Handlers depend on this so tests can
// swap in a fake.
type MediaUploader interface {
	UploadMedia(ctx context.Context, data []byte, userID, originalFilename, contentType string) (*UploadResult, error)
	UploadLogo(ctx context.Context, data []byte, userID, brandID, contentType string) (*UploadResult, error)
	Download(ctx context.Context, key string) ([]byte, error)
	DeleteFile(ctx context.Context, key string) error
}

// Ensure S3Uploader implements MediaUploader
var _ MediaUploader = (*S3Uploader)(nil)
