// Package storage keeps user-uploaded files (profile pictures) in S3-compatible
// object storage.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MaxAvatarBytes caps profile picture uploads.
const MaxAvatarBytes = 5 << 20

var (
	ErrUnsupportedType = errors.New("avatar must be a jpeg, png, gif or webp image")
	ErrTooLarge        = errors.New("avatar exceeds 5 MB")
	ErrNotConfigured   = errors.New("object storage not configured")
)

var avatarExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// Options configures a MinioStore.
type Options struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	// PublicURL is the externally reachable base for object links. Defaults to
	// the endpoint.
	PublicURL string
	Region    string
}

// MinioStore writes avatars to a MinIO or S3 bucket.
type MinioStore struct {
	client    *minio.Client
	bucket    string
	publicURL string
}

func NewMinioStore(opts Options) (*MinioStore, error) {
	if opts.Endpoint == "" || opts.Bucket == "" {
		return nil, ErrNotConfigured
	}
	region := opts.Region
	if region == "" {
		region = "us-east-1"
	}
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	publicURL := strings.TrimRight(opts.PublicURL, "/")
	if publicURL == "" {
		publicURL = strings.TrimRight(client.EndpointURL().String(), "/")
	}
	return &MinioStore{client: client, bucket: opts.Bucket, publicURL: publicURL}, nil
}

// EnsureBucket creates the bucket when it does not exist yet.
func (s *MinioStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket: %w", err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("make bucket: %w", err)
	}
	return nil
}

// AvatarKey validates an upload and returns the object key it is stored under.
func AvatarKey(userID int64, contentType string, size int64) (string, error) {
	ext, ok := avatarExtensions[strings.ToLower(strings.TrimSpace(contentType))]
	if !ok {
		return "", ErrUnsupportedType
	}
	if size <= 0 || size > MaxAvatarBytes {
		return "", ErrTooLarge
	}
	return path.Join("avatars", fmt.Sprint(userID), uuid.NewString()+ext), nil
}

// UploadAvatar stores the image and returns its public URL.
func (s *MinioStore) UploadAvatar(ctx context.Context, userID int64, contentType string, body io.Reader, size int64) (string, error) {
	key, err := AvatarKey(userID, contentType, size)
	if err != nil {
		return "", err
	}
	if _, err := s.client.PutObject(ctx, s.bucket, key, body, size, minio.PutObjectOptions{ContentType: contentType}); err != nil {
		return "", fmt.Errorf("put avatar: %w", err)
	}
	return s.publicURL + "/" + s.bucket + "/" + key, nil
}
