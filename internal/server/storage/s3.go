package storage

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/clipstream/clipstream/internal/filex"
	"github.com/clipstream/clipstream/internal/server/config"
)

// AWS SDK entry points as function vars so tests can stub them.
var (
	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	putObject = func(client *s3.Client, ctx context.Context, in *s3.PutObjectInput) (*s3.PutObjectOutput, error) {
		return client.PutObject(ctx, in)
	}
)

// S3Uploader uploads staged media files to an S3-compatible bucket
// (MinIO, Cloudflare R2, AWS) and returns path-style public URLs.
type S3Uploader struct {
	config *config.Config
}

var _ Uploader = (*S3Uploader)(nil)

func NewS3Uploader(cfg *config.Config) *S3Uploader {
	return &S3Uploader{config: cfg}
}

// Upload puts the staged file into the bucket under a date-partitioned,
// collision-free key. The local file is removed whether or not the upload
// succeeds.
func (u *S3Uploader) Upload(ctx context.Context, localPath string) (string, error) {
	defer func() { _ = filex.RemoveIfExists(localPath) }()

	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("open staged file: %w", err)
	}
	defer f.Close()

	client, err := u.client(ctx)
	if err != nil {
		return "", fmt.Errorf("s3 client: %w", err)
	}

	key := storageKey(localPath)
	in := &s3.PutObjectInput{
		Bucket: aws.String(u.config.S3Bucket),
		Key:    aws.String(key),
		Body:   f,
	}
	if contentType := mime.TypeByExtension(filepath.Ext(localPath)); contentType != "" {
		in.ContentType = aws.String(contentType)
	}

	if _, err := putObject(client, ctx, in); err != nil {
		return "", fmt.Errorf("put object: %w", err)
	}

	return u.publicURL(key), nil
}

func (u *S3Uploader) client(ctx context.Context) (*s3.Client, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		awsconfig.WithRegion(u.config.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			u.config.S3AccessKey,
			u.config.S3SecretKey,
			"",
		)))
	if err != nil {
		return nil, err
	}

	return newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(strings.TrimRight(u.config.S3BaseEndpoint, "/"))
		o.UsePathStyle = true
	}), nil
}

func (u *S3Uploader) publicURL(key string) string {
	return fmt.Sprintf("%s/%s/%s", strings.TrimRight(u.config.S3BaseEndpoint, "/"), u.config.S3Bucket, key)
}

func storageKey(localPath string) string {
	d := time.Now()
	ext := strings.ToLower(filepath.Ext(localPath))
	return fmt.Sprintf("media/%d/%02d/%02d/%s%s", d.Year(), int(d.Month()), d.Day(), uuid.New(), ext)
}
