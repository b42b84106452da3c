// Package s3 implements the blob store on S3-compatible object storage.
// Objects are keyed <prefix><contentID>/<relativePath>, mirroring the
// filesystem backend's layout.
package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/openlearntech/contentstore/pkg/contentstore"
)

// Config options for the S3 backend
type Config struct {
	Region          string // AWS region
	Bucket          string // S3 bucket name
	AccessKeyID     string // AWS access key ID
	SecretAccessKey string // AWS secret access key
	Endpoint        string // Optional custom endpoint for S3-compatible services
	UsePathStyle    bool   // Use path-style addressing (MinIO needs this)
	KeyPrefix       string // Optional key prefix in front of the content layout

	// MinIO/S3-compatible service options
	CreateBucketIfNotExist bool // Create bucket if it doesn't exist
}

// Backend is an S3-compatible implementation of the contentstore.BlobStore interface
type Backend struct {
	client    *s3.Client
	bucket    string
	keyPrefix string
	config    Config
}

// New creates a new S3-compatible storage backend
func New(config Config) (contentstore.BlobStore, error) {
	if config.Bucket == "" {
		return nil, errors.New("bucket name is required")
	}
	if config.Region == "" {
		config.Region = "us-east-1"
	}

	var awsCfg aws.Config
	var err error

	if config.AccessKeyID != "" && config.SecretAccessKey != "" {
		awsCfg, err = awsconfig.LoadDefaultConfig(context.Background(),
			awsconfig.WithRegion(config.Region),
			awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
				config.AccessKeyID,
				config.SecretAccessKey,
				"",
			)),
		)
	} else {
		awsCfg, err = awsconfig.LoadDefaultConfig(context.Background(),
			awsconfig.WithRegion(config.Region),
		)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var s3Options []func(*s3.Options)
	if config.Endpoint != "" {
		s3Options = append(s3Options, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(config.Endpoint)
			o.UsePathStyle = config.UsePathStyle
		})
	}

	backend := &Backend{
		client:    s3.NewFromConfig(awsCfg, s3Options...),
		bucket:    config.Bucket,
		keyPrefix: config.KeyPrefix,
		config:    config,
	}

	if config.CreateBucketIfNotExist {
		if err := backend.createBucketIfNotExists(context.Background()); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return backend, nil
}

// createBucketIfNotExists creates the bucket if it doesn't exist
func (b *Backend) createBucketIfNotExists(ctx context.Context) error {
	_, err := b.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(b.bucket),
	})
	if err == nil {
		return nil
	}

	var notFound *types.NotFound
	var noSuchBucket *types.NoSuchBucket
	if !errors.As(err, &notFound) && !errors.As(err, &noSuchBucket) &&
		!strings.Contains(err.Error(), "NoSuchBucket") {
		return fmt.Errorf("failed to check bucket: %w", err)
	}

	createInput := &s3.CreateBucketInput{
		Bucket: aws.String(b.bucket),
	}
	if b.config.Region != "us-east-1" {
		createInput.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(b.config.Region),
		}
	}

	if _, err := b.client.CreateBucket(ctx, createInput); err != nil {
		if strings.Contains(err.Error(), "BucketAlreadyExists") ||
			strings.Contains(err.Error(), "BucketAlreadyOwnedByYou") {
			return nil
		}
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

func (b *Backend) contentPrefix(contentID int64) string {
	return b.keyPrefix + strconv.FormatInt(contentID, 10) + "/"
}

func (b *Backend) objectKey(contentID int64, relPath string) (string, error) {
	if err := contentstore.CheckFilename(relPath); err != nil {
		return "", err
	}
	return b.contentPrefix(contentID) + relPath, nil
}

// Upload streams reader to S3 through the multipart uploader, which buffers
// one part at a time rather than the whole payload.
func (b *Backend) Upload(ctx context.Context, contentID int64, relPath string, reader io.Reader) error {
	key, err := b.objectKey(contentID, relPath)
	if err != nil {
		return err
	}

	uploader := manager.NewUploader(b.client)
	_, err = uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
		Body:   reader,
	})
	if err != nil {
		return fmt.Errorf("failed to upload to S3: %w", err)
	}
	return nil
}

func (b *Backend) Exists(ctx context.Context, contentID int64, relPath string) (bool, error) {
	_, err := b.Stat(ctx, contentID, relPath)
	if errors.Is(err, contentstore.ErrFileNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (b *Backend) Stat(ctx context.Context, contentID int64, relPath string) (contentstore.FileInfo, error) {
	key, err := b.objectKey(contentID, relPath)
	if err != nil {
		return contentstore.FileInfo{}, err
	}

	result, err := b.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return contentstore.FileInfo{}, contentstore.ErrFileNotFound
		}
		return contentstore.FileInfo{}, fmt.Errorf("failed to get object metadata: %w", err)
	}

	return contentstore.FileInfo{
		Size:    aws.ToInt64(result.ContentLength),
		ModTime: aws.ToTime(result.LastModified),
	}, nil
}

func (b *Backend) Download(ctx context.Context, contentID int64, relPath string, rng *contentstore.ByteRange) (io.ReadCloser, error) {
	key, err := b.objectKey(contentID, relPath)
	if err != nil {
		return nil, err
	}

	input := &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
	}
	if rng != nil {
		if rng.Start < 0 || rng.End < rng.Start {
			return nil, fmt.Errorf("%w: [%d, %d]", contentstore.ErrInvalidRange, rng.Start, rng.End)
		}
		input.Range = aws.String(fmt.Sprintf("bytes=%d-%d", rng.Start, rng.End))
	}

	result, err := b.client.GetObject(ctx, input)
	if err != nil {
		if isNotFound(err) {
			return nil, contentstore.ErrFileNotFound
		}
		return nil, fmt.Errorf("failed to download from S3: %w", err)
	}
	return result.Body, nil
}

func (b *Backend) Delete(ctx context.Context, contentID int64, relPath string) error {
	key, err := b.objectKey(contentID, relPath)
	if err != nil {
		return err
	}

	// DeleteObject succeeds silently on missing keys; stat first so absent
	// assets surface as not found.
	if _, err := b.Stat(ctx, contentID, relPath); err != nil {
		return err
	}

	if _, err := b.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
	}); err != nil {
		return fmt.Errorf("failed to delete from S3: %w", err)
	}
	return nil
}

func (b *Backend) List(ctx context.Context, contentID int64) ([]string, error) {
	prefix := b.contentPrefix(contentID)

	var files []string
	paginator := s3.NewListObjectsV2Paginator(b.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(b.bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", err)
		}
		for _, obj := range page.Contents {
			files = append(files, strings.TrimPrefix(aws.ToString(obj.Key), prefix))
		}
	}
	return files, nil
}

func (b *Backend) RemoveAll(ctx context.Context, contentID int64) error {
	prefix := b.contentPrefix(contentID)

	paginator := s3.NewListObjectsV2Paginator(b.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(b.bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("failed to list objects: %w", err)
		}
		if len(page.Contents) == 0 {
			continue
		}

		objects := make([]types.ObjectIdentifier, 0, len(page.Contents))
		for _, obj := range page.Contents {
			objects = append(objects, types.ObjectIdentifier{Key: obj.Key})
		}
		if _, err := b.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(b.bucket),
			Delete: &types.Delete{Objects: objects, Quiet: aws.Bool(true)},
		}); err != nil {
			return fmt.Errorf("failed to delete objects: %w", err)
		}
	}
	return nil
}

// isNotFound detects missing-object responses. HeadObject reports them as a
// bare 404 APIError rather than types.NoSuchKey.
func isNotFound(err error) bool {
	var noSuchKey *types.NoSuchKey
	var notFound *types.NotFound
	if errors.As(err, &noSuchKey) || errors.As(err, &notFound) {
		return true
	}
	var apiErr smithy.APIError
	return errors.As(err, &apiErr) && apiErr.ErrorCode() == "NotFound"
}
