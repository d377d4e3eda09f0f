package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/zfogg/brandcast/internal/telemetry"
)

// MaxDownloadSize caps how much of an object Download reads into memory
const MaxDownloadSize = 512 << 20

// S3Uploader stores uploaded media and brand logos in S3
type S3Uploader struct {
	client  *s3.Client
	bucket  string
	region  string
	baseURL string
	now     func() time.Time
}

// UploadResult contains the result of an S3 upload
type UploadResult struct {
	Key         string `json:"key"`
	URL         string `json:"url"`
	Bucket      string `json:"bucket"`
	Region      string `json:"region"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

// NewS3Uploader creates a new S3 uploader. endpoint overrides the S3
// endpoint (localstack, minio) when set.
func NewS3Uploader(region, bucket, baseURL, endpoint string) (*S3Uploader, error) {
	cfg, err := config.LoadDefaultConfig(context.TODO(),
		config.WithRegion(region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})

	if baseURL == "" {
		baseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", bucket, region)
	}

	return &S3Uploader{
		client:  client,
		bucket:  bucket,
		region:  region,
		baseURL: baseURL,
		now:     time.Now,
	}, nil
}

// UploadMedia stores an image or video under media/{year}/{month}/{userID}/{id}{ext}
func (u *S3Uploader) UploadMedia(ctx context.Context, data []byte, userID, originalFilename, contentType string) (*UploadResult, error) {
	key := mediaKey("media", u.now(), userID, uuid.New().String(), extensionFor(originalFilename, contentType))
	return u.put(ctx, key, data, contentType, "max-age=31536000", map[string]string{
		"user-id":           userID,
		"original-filename": originalFilename,
		"file-type":         "media",
	})
}

// UploadLogo stores a brand logo under logos/{userID}/{brandID}{ext}
func (u *S3Uploader) UploadLogo(ctx context.Context, data []byte, userID, brandID, contentType string) (*UploadResult, error) {
	key := fmt.Sprintf("logos/%s/%s%s", userID, brandID, extensionFor("", contentType))
	// logos are overwritten in place
	return u.put(ctx, key, data, contentType, "max-age=300", map[string]string{
		"user-id":   userID,
		"brand-id":  brandID,
		"file-type": "logo",
	})
}

func (u *S3Uploader) put(ctx context.Context, key string, data []byte, contentType, cacheControl string, metadata map[string]string) (*UploadResult, error) {
	metadata["upload-timestamp"] = u.now().UTC().Format(time.RFC3339)

	ctx, span := telemetry.TraceS3Call(ctx, "put_object", u.bucket, key)
	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(u.bucket),
		Key:          aws.String(key),
		Body:         bytes.NewReader(data),
		ContentType:  aws.String(contentType),
		CacheControl: aws.String(cacheControl),
		Metadata:     metadata,
	})
	telemetry.EndSpan(span, err)
	if err != nil {
		return nil, fmt.Errorf("failed to upload to S3: %w", err)
	}

	return &UploadResult{
		Key:         key,
		URL:         u.PublicURL(key),
		Bucket:      u.bucket,
		Region:      u.region,
		ContentType: contentType,
		Size:        int64(len(data)),
	}, nil
}

// Download reads an object back into memory
func (u *S3Uploader) Download(ctx context.Context, key string) (data []byte, err error) {
	ctx, span := telemetry.TraceS3Call(ctx, "get_object", u.bucket, key)
	defer func() { telemetry.EndSpan(span, err) }()

	out, err := u.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(u.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to download %s from S3: %w", key, err)
	}
	defer out.Body.Close()

	data, err = io.ReadAll(io.LimitReader(out.Body, MaxDownloadSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s from S3: %w", key, err)
	}
	if len(data) > MaxDownloadSize {
		return nil, fmt.Errorf("object %s is larger than %d bytes", key, MaxDownloadSize)
	}
	return data, nil
}

// DeleteFile deletes a file from S3
func (u *S3Uploader) DeleteFile(ctx context.Context, key string) error {
	ctx, span := telemetry.TraceS3Call(ctx, "delete_object", u.bucket, key)
	_, err := u.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(u.bucket),
		Key:    aws.String(key),
	})
	telemetry.EndSpan(span, err)
	if err != nil {
		return fmt.Errorf("failed to delete from S3: %w", err)
	}

	return nil
}

// CheckBucketAccess verifies that we can access the S3 bucket
func (u *S3Uploader) CheckBucketAccess(ctx context.Context) error {
	_, err := u.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(u.bucket),
	})
	if err != nil {
		return fmt.Errorf("cannot access S3 bucket %s: %w", u.bucket, err)
	}

	return nil
}

// PublicURL is the CDN address of a key
func (u *S3Uploader) PublicURL(key string) string {
	return fmt.Sprintf("%s/%s", strings.TrimSuffix(u.baseURL, "/"), key)
}

func mediaKey(prefix string, now time.Time, userID, fileID, ext string) string {
	return fmt.Sprintf("%s/%d/%02d/%s/%s%s", prefix, now.Year(), now.Month(), userID, fileID, ext)
}

// extensionFor prefers the sniffed content type over the client's filename
func extensionFor(filename, contentType string) string {
	switch strings.ToLower(contentType) {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	case "image/svg+xml":
		return ".svg"
	case "video/mp4":
		return ".mp4"
	case "video/quicktime":
		return ".mov"
	}
	if ext := strings.ToLower(filepath.Ext(filename)); ext != "" {
		return ext
	}
	return ".bin"
}
