// internal/services/storage_service.go
package services

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/pod-backend/internal/config"
)

// BlobStore holds the raw bytes of uploaded artwork.
type BlobStore interface {
	Upload(ctx context.Context, data []byte, opts UploadOptions) (*UploadResult, error)
	Delete(ctx context.Context, key string) error
}

type UploadResult struct {
	URL      string `json:"url"`
	Key      string `json:"key"`
	Size     int64  `json:"size"`
	MimeType string `json:"mime_type"`
}

type UploadOptions struct {
	Key         string
	ContentType string
	IsPublic    bool
}

// NewBlobStore returns an S3 backed store when credentials are configured
// and a local directory store otherwise.
func NewBlobStore(cfg *config.Config) (BlobStore, error) {
	if cfg.AWS.AccessKeyID == "" {
		logrus.WithField("dir", cfg.Storage.LocalDir).Info("No AWS credentials, using local blob storage")
		return NewLocalBlobStore(cfg.Storage.LocalDir, cfg.Storage.PublicURL), nil
	}

	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(cfg.AWS.Region),
		Credentials: credentials.NewStaticCredentials(
			cfg.AWS.AccessKeyID,
			cfg.AWS.SecretAccessKey,
			"",
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return NewS3BlobStore(s3.New(sess), cfg.AWS), nil
}

type S3BlobStore struct {
	client s3iface.S3API
	cfg    config.AWSConfig
}

func NewS3BlobStore(client s3iface.S3API, cfg config.AWSConfig) *S3BlobStore {
	return &S3BlobStore{client: client, cfg: cfg}
}

func (s *S3BlobStore) Upload(ctx context.Context, data []byte, opts UploadOptions) (*UploadResult, error) {
	params := &s3.PutObjectInput{
		Bucket:        aws.String(s.cfg.S3Bucket),
		Key:           aws.String(opts.Key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(opts.ContentType),
		ContentLength: aws.Int64(int64(len(data))),
	}
	if opts.IsPublic {
		params.ACL = aws.String("public-read")
	}

	if _, err := s.client.PutObjectWithContext(ctx, params); err != nil {
		return nil, fmt.Errorf("%w: put object %s: %v", ErrStorageFailure, opts.Key, err)
	}

	return &UploadResult{
		URL:      s.objectURL(opts.Key),
		Key:      opts.Key,
		Size:     int64(len(data)),
		MimeType: opts.ContentType,
	}, nil
}

func (s *S3BlobStore) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.cfg.S3Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete file from S3: %w", err)
	}
	return nil
}

func (s *S3BlobStore) objectURL(key string) string {
	if s.cfg.CloudFrontURL != "" {
		return fmt.Sprintf("%s/%s", strings.TrimRight(s.cfg.CloudFrontURL, "/"), key)
	}

	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.cfg.S3Bucket, s.cfg.Region, key)
}

// LocalBlobStore writes blobs below a directory, for development.
type LocalBlobStore struct {
	dir       string
	publicURL string
}

func NewLocalBlobStore(dir, publicURL string) *LocalBlobStore {
	return &LocalBlobStore{dir: dir, publicURL: strings.TrimRight(publicURL, "/")}
}

func (s *LocalBlobStore) Upload(ctx context.Context, data []byte, opts UploadOptions) (*UploadResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	target, err := s.pathFor(opts.Key)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}

	// write then rename so readers never see a partial file
	tmp, err := os.CreateTemp(filepath.Dir(target), ".upload-*")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return nil, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return nil, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		os.Remove(tmp.Name())
		return nil, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}

	return &UploadResult{
		URL:      s.publicURL + "/" + opts.Key,
		Key:      opts.Key,
		Size:     int64(len(data)),
		MimeType: opts.ContentType,
	}, nil
}

func (s *LocalBlobStore) Delete(ctx context.Context, key string) error {
	target, err := s.pathFor(key)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete local file: %w", err)
	}
	return nil
}

func (s *LocalBlobStore) pathFor(key string) (string, error) {
	clean := path.Clean("/" + key)
	if clean == "/" || strings.Contains(key, "..") {
		return "", fmt.Errorf("%w: invalid storage key %q", ErrValidation, key)
	}
	return filepath.Join(s.dir, filepath.FromSlash(strings.TrimPrefix(clean, "/"))), nil
}
