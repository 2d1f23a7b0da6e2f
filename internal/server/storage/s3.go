// Package storage keeps listing photos in an S3-compatible bucket
// (MinIO, Backblaze B2, AWS S3).
package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		return c.PutObject(ctx, in, optFns...)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
)

// PresignExpiry is the lifetime of presigned upload URLs.
const PresignExpiry = 15 * time.Minute

// Config describes the bucket.
type Config struct {
	AccessKey    string
	SecretKey    string
	Bucket       string
	Region       string
	BaseEndpoint string
	// PublicBaseURL prefixes public object URLs. When empty, URLs are
	// built as {BaseEndpoint}/{Bucket}/{key}.
	PublicBaseURL string
}

// S3PhotoStore uploads photos with a public-read ACL.
type S3PhotoStore struct {
	cfg     Config
	client  *s3.Client
	presign *s3.PresignClient
	now     func() time.Time
}

// NewS3PhotoStore builds the S3 client from static credentials.
func NewS3PhotoStore(ctx context.Context, cfg Config) (*S3PhotoStore, error) {
	awsCfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := newS3ClientFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.BaseEndpoint)
		}
		o.UsePathStyle = true
	})

	return &S3PhotoStore{
		cfg:     cfg,
		client:  client,
		presign: s3.NewPresignClient(client),
		now:     time.Now,
	}, nil
}

// Upload stores body under a fresh key and returns its public URL.
func (s *S3PhotoStore) Upload(ctx context.Context, filename, contentType string, body io.Reader, size int64) (string, error) {
	key := ObjectKey(s.now(), filename)

	in := &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.Bucket),
		Key:         aws.String(key),
		Body:        body,
		ACL:         types.ObjectCannedACLPublicRead,
		ContentType: aws.String(contentTypeOr(contentType)),
	}
	if size > 0 {
		in.ContentLength = aws.Int64(size)
	}

	if _, err := putObject(s.client, ctx, in); err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}
	return s.PublicURL(key), nil
}

// PresignUpload returns a presigned PUT URL for a direct browser upload and
// the public URL the object will have once uploaded.
func (s *S3PhotoStore) PresignUpload(ctx context.Context, filename, contentType string) (uploadURL, publicURL string, err error) {
	key := ObjectKey(s.now(), filename)

	req, err := presignPutObject(s.presign, ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.Bucket),
		Key:         aws.String(key),
		ACL:         types.ObjectCannedACLPublicRead,
		ContentType: aws.String(contentTypeOr(contentType)),
	}, s3.WithPresignExpires(PresignExpiry))
	if err != nil {
		return "", "", fmt.Errorf("presign put %s: %w", key, err)
	}
	return req.URL, s.PublicURL(key), nil
}

// PublicURL returns the public address of key.
func (s *S3PhotoStore) PublicURL(key string) string {
	if s.cfg.PublicBaseURL != "" {
		return strings.TrimRight(s.cfg.PublicBaseURL, "/") + "/" + key
	}
	return strings.TrimRight(s.cfg.BaseEndpoint, "/") + "/" + s.cfg.Bucket + "/" + key
}

// ObjectKey builds listings/YYYY/MM/DD/<uuid>_<safe-name>.
func ObjectKey(t time.Time, filename string) string {
	return fmt.Sprintf("listings/%04d/%02d/%02d/%s_%s", t.Year(), int(t.Month()), t.Day(), uuid.New(), SafeName(filename))
}

// SafeName strips directories and keeps only letters, digits, dot, dash and
// underscore.
func SafeName(filename string) string {
	if i := strings.LastIndexAny(filename, `/\`); i >= 0 {
		filename = filename[i+1:]
	}

	var b strings.Builder
	for _, r := range filename {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
		case r == '.' || r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}

	name := strings.Trim(b.String(), "._")
	if name == "" {
		return "photo"
	}
	if len(name) > 100 {
		name = name[len(name)-100:]
	}
	return name
}

func contentTypeOr(ct string) string {
	if ct == "" {
		return "application/octet-stream"
	}
	return ct
}
