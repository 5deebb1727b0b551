package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"

	"github.com/df07/go-lambert-raytracer/pkg/core"
)

// DefaultUploadTimeout bounds a single PutObject call
const DefaultUploadTimeout = 30 * time.Second

// ErrNotConfigured is returned when uploads are requested without a bucket
var ErrNotConfigured = errors.New("object storage is not configured")

// S3Config holds the connection settings for an S3-compatible object store
type S3Config struct {
	AccessKey string
	SecretKey string
	Endpoint  string // Empty for AWS; set for MinIO, R2, Spaces and friends
	Region    string
	Bucket    string
	Prefix    string // Key prefix prepended to every upload
	CDNURL    string // Public base URL; uploads are addressed through it when set
}

// Enabled reports whether enough settings are present to upload
func (c S3Config) Enabled() bool {
	return c.Bucket != ""
}

// NewS3Client creates an S3 client using static credentials and path-style addressing
func NewS3Client(cfg S3Config) (*s3.S3, error) {
	if !cfg.Enabled() {
		return nil, ErrNotConfigured
	}

	awsConfig := &aws.Config{
		Region:           aws.String(cfg.Region),
		S3ForcePathStyle: aws.Bool(true),
	}
	if cfg.AccessKey != "" || cfg.SecretKey != "" {
		awsConfig.Credentials = credentials.NewStaticCredentials(cfg.AccessKey, cfg.SecretKey, "")
	}
	if cfg.Endpoint != "" {
		awsConfig.Endpoint = aws.String(cfg.Endpoint)
	}

	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 session: %w", err)
	}
	return s3.New(sess), nil
}

// UploadResult describes a stored object
type UploadResult struct {
	Key  string `json:"key"`
	URL  string `json:"url"`
	Size int64  `json:"size"`
}

// Uploader publishes rendered images to a bucket
type Uploader struct {
	client  s3iface.S3API
	config  S3Config
	timeout time.Duration
	logger  core.Logger
}

// NewUploader creates an uploader on top of any S3 API implementation
func NewUploader(client s3iface.S3API, cfg S3Config, logger core.Logger) *Uploader {
	return &Uploader{
		client:  client,
		config:  cfg,
		timeout: DefaultUploadTimeout,
		logger:  logger,
	}
}

// SetTimeout overrides the per-upload timeout
func (u *Uploader) SetTimeout(timeout time.Duration) {
	u.timeout = timeout
}

// Key returns the object key used for a file name
func (u *Uploader) Key(name string) string {
	if u.config.Prefix == "" {
		return name
	}
	return path.Join(u.config.Prefix, name)
}

// URL returns the public address of an object key
func (u *Uploader) URL(key string) string {
	if u.config.CDNURL != "" {
		return strings.TrimRight(u.config.CDNURL, "/") + "/" + key
	}
	if u.config.Endpoint != "" {
		return strings.TrimRight(u.config.Endpoint, "/") + "/" + u.config.Bucket + "/" + key
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", u.config.Bucket, u.config.Region, key)
}

// Upload stores data under the prefixed name with a public-read ACL
func (u *Uploader) Upload(ctx context.Context, name string, data []byte, contentType string) (UploadResult, error) {
	if name == "" {
		return UploadResult{}, errors.New("upload name must not be empty")
	}

	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	key := u.Key(name)
	size := int64(len(data))
	_, err := u.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(u.config.Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
		ACL:           aws.String("public-read"),
	})
	if err != nil {
		return UploadResult{}, fmt.Errorf("failed to upload %s: %w", key, err)
	}

	u.logger.Printf("Uploaded %s to bucket %s (%d bytes)\n", key, u.config.Bucket, size)
	return UploadResult{Key: key, URL: u.URL(key), Size: size}, nil
}
