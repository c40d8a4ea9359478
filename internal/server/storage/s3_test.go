package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sc "github.com/clipstream/clipstream/internal/server/config"
)

func newTestUploader() *S3Uploader {
	return NewS3Uploader(&sc.Config{
		S3AccessKey:    "minioadmin",
		S3SecretKey:    "minioadmin",
		S3Bucket:       "media",
		S3Region:       "us-east-1",
		S3BaseEndpoint: "http://127.0.0.1:9000/",
	})
}

func stageFile(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("image-bytes"), 0o600))
	return path
}

func stubAWS(t *testing.T, putErr error) *[]s3.PutObjectInput {
	t.Helper()

	origLoad := loadDefaultAWSConfig
	origNew := newS3ClientFromConfig
	origPut := putObject
	t.Cleanup(func() {
		loadDefaultAWSConfig = origLoad
		newS3ClientFromConfig = origNew
		putObject = origPut
	})

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		var lo awsconfig.LoadOptions
		for _, fn := range optFns {
			if err := fn(&lo); err != nil {
				t.Fatalf("load options fn error: %v", err)
			}
		}
		if lo.Region != "us-east-1" {
			t.Fatalf("region not applied: %q", lo.Region)
		}
		return aws.Config{}, nil
	}

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		var opts s3.Options
		for _, fn := range optFns {
			fn(&opts)
		}
		if opts.BaseEndpoint == nil || *opts.BaseEndpoint != "http://127.0.0.1:9000" {
			t.Fatalf("BaseEndpoint not normalized: %v", opts.BaseEndpoint)
		}
		if !opts.UsePathStyle {
			t.Fatalf("path-style addressing must be enabled")
		}
		return &s3.Client{}
	}

	var puts []s3.PutObjectInput
	putObject = func(client *s3.Client, ctx context.Context, in *s3.PutObjectInput) (*s3.PutObjectOutput, error) {
		puts = append(puts, *in)
		if putErr != nil {
			return nil, putErr
		}
		return &s3.PutObjectOutput{}, nil
	}
	return &puts
}

func TestUpload_Success(t *testing.T) {
	uploader := newTestUploader()
	puts := stubAWS(t, nil)
	path := stageFile(t, "avatar.png")

	url, err := uploader.Upload(context.Background(), path)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(url, "http://127.0.0.1:9000/media/media/"), "unexpected url: %s", url)
	assert.True(t, strings.HasSuffix(url, ".png"), "extension must be preserved: %s", url)

	require.Len(t, *puts, 1)
	put := (*puts)[0]
	assert.Equal(t, "media", *put.Bucket)
	require.NotNil(t, put.ContentType)
	assert.Equal(t, "image/png", *put.ContentType)

	_, statErr := os.Stat(path)
	assert.ErrorIs(t, statErr, os.ErrNotExist, "staged file must be removed after success")
}

func TestUpload_PutErrorStillRemovesStagedFile(t *testing.T) {
	uploader := newTestUploader()
	stubAWS(t, errors.New("bucket unavailable"))
	path := stageFile(t, "avatar.jpg")

	_, err := uploader.Upload(context.Background(), path)
	require.Error(t, err)

	_, statErr := os.Stat(path)
	assert.ErrorIs(t, statErr, os.ErrNotExist, "staged file must be removed after failure")
}

func TestUpload_MissingStagedFile(t *testing.T) {
	uploader := newTestUploader()
	stubAWS(t, nil)

	_, err := uploader.Upload(context.Background(), filepath.Join(t.TempDir(), "gone.png"))
	require.Error(t, err)
}

func TestStorageKey_UniquePerCall(t *testing.T) {
	first := storageKey("/tmp/a.png")
	second := storageKey("/tmp/a.png")
	assert.NotEqual(t, first, second)
	assert.True(t, strings.HasPrefix(first, "media/"))
	assert.True(t, strings.HasSuffix(first, ".png"))
}
