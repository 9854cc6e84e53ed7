// Package storage issues presigned upload URLs for an S3-compatible object
// store. Browsers upload straight to the bucket; the application only keeps
// the object key and metadata.
package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/shashiranjanraj/souq/config"
)

// ErrNotConfigured is returned by New when no bucket is set.
var ErrNotConfigured = errors.New("storage/s3: S3_BUCKET is not configured")

// Options configure the S3 client. Works with AWS S3, MinIO, DigitalOcean
// Spaces and Cloudflare R2.
type Options struct {
	Bucket    string
	Region    string
	Key       string
	Secret    string
	Endpoint  string // leave empty for real AWS
	PublicURL string // base URL objects are served from
	UploadTTL time.Duration
}

// OptionsFromConfig reads the S3_* settings.
func OptionsFromConfig() Options {
	return Options{
		Bucket:    config.StorageS3Bucket(),
		Region:    config.StorageS3Region(),
		Key:       config.StorageS3Key(),
		Secret:    config.StorageS3Secret(),
		Endpoint:  config.StorageS3Endpoint(),
		PublicURL: config.StorageS3URL(),
		UploadTTL: config.StorageUploadTTL(),
	}
}

// SignedUpload is what the browser needs to PUT a file and what the
// application stores afterwards.
type SignedUpload struct {
	Key       string    `json:"key"`
	UploadURL string    `json:"upload_url"`
	PublicURL string    `json:"public_url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// S3 is the S3-compatible object storage client.
type S3 struct {
	client  *s3.Client
	presign *s3.PresignClient
	bucket  string
	baseURL string
	ttl     time.Duration
	now     func() time.Time
	newID   func() string
}

// New builds a client. Static credentials are used when both key and secret
// are set (required for MinIO / R2 / Spaces); otherwise the default AWS
// credential chain applies.
func New(ctx context.Context, opts Options) (*S3, error) {
	if opts.Bucket == "" {
		return nil, ErrNotConfigured
	}
	if opts.Region == "" {
		opts.Region = "us-east-1"
	}
	if opts.UploadTTL <= 0 {
		opts.UploadTTL = 15 * time.Minute
	}

	var cfg aws.Config
	if opts.Key != "" && opts.Secret != "" {
		cfg = aws.Config{
			Region:      opts.Region,
			Credentials: credentials.NewStaticCredentialsProvider(opts.Key, opts.Secret, ""),
		}
	} else {
		loaded, err := awscfg.LoadDefaultConfig(ctx, awscfg.WithRegion(opts.Region))
		if err != nil {
			return nil, fmt.Errorf("storage/s3: load config: %w", err)
		}
		cfg = loaded
	}

	var clientOpts []func(*s3.Options)
	if opts.Endpoint != "" {
		clientOpts = append(clientOpts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true // required for MinIO
		})
	}

	baseURL := strings.TrimRight(opts.PublicURL, "/")
	if baseURL == "" {
		baseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", opts.Bucket, opts.Region)
	}

	client := s3.NewFromConfig(cfg, clientOpts...)
	return &S3{
		client:  client,
		presign: s3.NewPresignClient(client),
		bucket:  opts.Bucket,
		baseURL: baseURL,
		ttl:     opts.UploadTTL,
		now:     time.Now,
		newID:   uuid.NewString,
	}, nil
}

// CreateSignedUploadURL reserves a fresh object key under keyPrefix and
// returns a URL the browser can PUT the file to with the given content type.
// The original filename only contributes its extension to the key.
func (d *S3) CreateSignedUploadURL(ctx context.Context, keyPrefix, filename, contentType string) (SignedUpload, error) {
	key := d.objectKey(keyPrefix, filename)

	req, err := d.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(d.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(d.ttl))
	if err != nil {
		return SignedUpload{}, fmt.Errorf("storage/s3: presign %s: %w", key, err)
	}

	return SignedUpload{
		Key:       key,
		UploadURL: req.URL,
		PublicURL: d.URL(key),
		ExpiresAt: d.now().Add(d.ttl).UTC(),
	}, nil
}

// Delete removes an object. Deleting a missing key is not an error on S3.
func (d *S3) Delete(ctx context.Context, key string) error {
	_, err := d.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(d.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("storage/s3: delete %s: %w", key, err)
	}
	return nil
}

// URL returns the public URL of an object key.
func (d *S3) URL(key string) string {
	return d.baseURL + "/" + strings.TrimLeft(key, "/")
}

var (
	extRE    = regexp.MustCompile(`^[a-z0-9]{1,8}$`)
	prefixRE = regexp.MustCompile(`[^a-z0-9/_-]+`)
)

// objectKey builds <prefix>/<yyyy>/<mm>/<uuid>[.ext].
func (d *S3) objectKey(prefix, filename string) string {
	prefix = strings.Trim(prefixRE.ReplaceAllString(strings.ToLower(prefix), ""), "/")
	if prefix == "" {
		prefix = "uploads"
	}

	name := d.newID()
	if ext := strings.TrimPrefix(strings.ToLower(path.Ext(filename)), "."); extRE.MatchString(ext) {
		name += "." + ext
	}

	return path.Join(prefix, d.now().UTC().Format("2006/01"), name)
}
