package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/transfermanager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/charliek/objstore/internal/constants"
	"github.com/charliek/objstore/internal/domain"
)

// Compile-time assertion that S3Backend implements Backend
var _ Backend = (*S3Backend)(nil)

type s3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

type s3Uploader interface {
	UploadObject(ctx context.Context, input *transfermanager.UploadObjectInput, opts ...func(*transfermanager.Options)) (*transfermanager.UploadObjectOutput, error)
}

type listObjectsV2Paginator interface {
	HasMorePages() bool
	NextPage(ctx context.Context, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

type awsListObjectsV2Paginator struct {
	inner *s3.ListObjectsV2Paginator
}

func (p *awsListObjectsV2Paginator) HasMorePages() bool {
	return p.inner != nil && p.inner.HasMorePages()
}

func (p *awsListObjectsV2Paginator) NextPage(ctx context.Context, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	if p.inner == nil {
		return nil, errors.New("s3 paginator is not configured")
	}
	return p.inner.NextPage(ctx, optFns...)
}

func newAWSListObjectsV2Paginator(client s3.ListObjectsV2APIClient, input *s3.ListObjectsV2Input) listObjectsV2Paginator {
	return &awsListObjectsV2Paginator{inner: s3.NewListObjectsV2Paginator(client, input)}
}

// S3Backend implements Backend using Amazon S3 or an S3-compatible service
type S3Backend struct {
	api      s3API
	uploader s3Uploader
	bucket   string
	prefix   string

	deleteTimeout   time.Duration
	listPageTimeout time.Duration

	newListObjectsV2Paginator func(s3.ListObjectsV2APIClient, *s3.ListObjectsV2Input) listObjectsV2Paginator
}

// NewS3Backend creates an S3 client bound to bucket
func NewS3Backend(ctx context.Context, bucket string, cfg S3Config) (*S3Backend, error) {
	if strings.TrimSpace(bucket) == "" {
		return nil, domain.Errorf(domain.ErrInvalidConfig, "s3 bucket is required")
	}
	if strings.TrimSpace(cfg.Region) == "" {
		return nil, domain.Errorf(domain.ErrInvalidConfig, "s3 region is required")
	}
	if cfg.Endpoint != "" {
		if err := validateEndpointURL(cfg.Endpoint); err != nil {
			return nil, err
		}
	}
	prefix, err := normalizePrefix(cfg.Prefix)
	if err != nil {
		return nil, err
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, domain.Errorf(domain.ErrBackend, "failed to load AWS config: %v", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	return &S3Backend{
		api:                       client,
		uploader:                  transfermanager.New(client),
		bucket:                    bucket,
		prefix:                    prefix,
		deleteTimeout:             constants.DefaultS3DeleteTimeout,
		listPageTimeout:           constants.DefaultS3ListPageTimeout,
		newListObjectsV2Paginator: newAWSListObjectsV2Paginator,
	}, nil
}

// normalizePrefix turns a configured prefix into "a/b/" form, or "" for none
func normalizePrefix(prefix string) (string, error) {
	p := strings.TrimSpace(strings.ReplaceAll(prefix, "\\", "/"))
	if p == "" {
		return "", nil
	}
	if strings.HasPrefix(p, "/") {
		return "", domain.Errorf(domain.ErrInvalidConfig, "s3 prefix must be relative: %q", prefix)
	}

	var parts []string
	for _, seg := range strings.Split(p, "/") {
		switch seg {
		case "":
			continue
		case ".", "..":
			return "", domain.Errorf(domain.ErrInvalidConfig, "s3 prefix must not contain relative segments: %q", prefix)
		}
		parts = append(parts, seg)
	}
	if len(parts) == 0 {
		return "", nil
	}
	return strings.Join(parts, "/") + "/", nil
}

func (c *S3Backend) prefixedKey(key string) (string, error) {
	if err := domain.ValidateRemotePath(key); err != nil {
		return "", domain.Errorf(domain.ErrInvalidArgs, "invalid object key %q: %v", key, err)
	}
	return c.prefix + key, nil
}

func withOptionalTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

// isS3NotFound reports whether err means the key does not exist
func isS3NotFound(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}
	return false
}

// Put implements Backend.Put
func (c *S3Backend) Put(ctx context.Context, path string, r io.Reader, size int64) (domain.ObjectMetadata, error) {
	if c.uploader == nil {
		return domain.ObjectMetadata{}, domain.Errorf(domain.ErrBackend, "s3 uploader is not configured")
	}
	key, err := c.prefixedKey(path)
	if err != nil {
		return domain.ObjectMetadata{}, err
	}

	input := &transfermanager.UploadObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
		Body:   r,
	}
	if size >= 0 {
		input.ContentLength = aws.Int64(size)
	}

	if _, err := c.uploader.UploadObject(ctx, input); err != nil {
		return domain.ObjectMetadata{}, domain.Errorf(domain.ErrBackend, "put object: %w", err)
	}

	meta := domain.ObjectMetadata{Path: path, Size: domain.UnknownSize}
	if size >= 0 {
		meta.Size = size
	}
	return meta, nil
}

// Get implements Backend.Get
func (c *S3Backend) Get(ctx context.Context, path string) (io.ReadCloser, error) {
	if c.api == nil {
		return nil, domain.Errorf(domain.ErrBackend, "s3 api client is not configured")
	}
	key, err := c.prefixedKey(path)
	if err != nil {
		return nil, err
	}

	out, err := c.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isS3NotFound(err) {
			return nil, domain.Errorf(domain.ErrNotFound, "object not found: %s", path)
		}
		return nil, domain.Errorf(domain.ErrBackend, "get object: %w", err)
	}
	return out.Body, nil
}

// Delete implements Backend.Delete. S3 DeleteObject already succeeds for missing keys.
func (c *S3Backend) Delete(ctx context.Context, path string) error {
	if c.api == nil {
		return domain.Errorf(domain.ErrBackend, "s3 api client is not configured")
	}
	key, err := c.prefixedKey(path)
	if err != nil {
		return err
	}

	ctx, cancel := withOptionalTimeout(ctx, c.deleteTimeout)
	defer cancel()

	_, err = c.api.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isS3NotFound(err) {
			return nil
		}
		return domain.Errorf(domain.ErrBackend, "delete object: %w", err)
	}
	return nil
}

// Exists implements Backend.Exists
func (c *S3Backend) Exists(ctx context.Context, path string) (bool, error) {
	if c.api == nil {
		return false, domain.Errorf(domain.ErrBackend, "s3 api client is not configured")
	}
	key, err := c.prefixedKey(path)
	if err != nil {
		return false, err
	}

	_, err = c.api.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isS3NotFound(err) {
			return false, nil
		}
		return false, domain.Errorf(domain.ErrBackend, "head object: %w", err)
	}
	return true, nil
}

// List implements Backend.List, following continuation tokens until the listing is exhausted
func (c *S3Backend) List(ctx context.Context, prefix string) ([]domain.ObjectMetadata, error) {
	if c.api == nil {
		return nil, domain.Errorf(domain.ErrBackend, "s3 api client is not configured")
	}
	if c.newListObjectsV2Paginator == nil {
		return nil, domain.Errorf(domain.ErrBackend, "s3 paginator factory is not configured")
	}

	paginator := c.newListObjectsV2Paginator(c.api, &s3.ListObjectsV2Input{
		Bucket: aws.String(c.bucket),
		Prefix: aws.String(c.prefix + prefix),
	})
	if paginator == nil {
		return nil, domain.Errorf(domain.ErrBackend, "s3 paginator is not configured")
	}

	objects := make([]domain.ObjectMetadata, 0)
	for paginator.HasMorePages() {
		page, err := c.nextPage(ctx, paginator)
		if err != nil {
			return nil, domain.Errorf(domain.ErrBackend, "list objects: %w", err)
		}
		for _, obj := range page.Contents {
			if obj.Key == nil {
				continue
			}
			key := strings.TrimPrefix(*obj.Key, c.prefix)
			if key == "" {
				continue
			}
			meta := domain.ObjectMetadata{Path: key, Size: domain.UnknownSize}
			if obj.Size != nil {
				meta.Size = *obj.Size
			}
			if obj.LastModified != nil {
				meta.Updated = *obj.LastModified
			}
			objects = append(objects, meta)
		}
	}
	return objects, nil
}

func (c *S3Backend) nextPage(ctx context.Context, paginator listObjectsV2Paginator) (*s3.ListObjectsV2Output, error) {
	ctx, cancel := withOptionalTimeout(ctx, c.listPageTimeout)
	defer cancel()
	return paginator.NextPage(ctx)
}

// Close implements Backend.Close
func (c *S3Backend) Close() error {
	return nil
}

// Describe implements Describer
func (c *S3Backend) Describe() string {
	return strings.TrimSuffix("s3://"+c.bucket+"/"+c.prefix, "/")
}
