// Package s3store provides an Amazon S3 backend for imgtransfer using the
// AWS SDK for Go v2. Any S3-compatible service (MinIO, Backblaze B2,
// Cloudflare R2) works through a custom endpoint and path-style addressing.
package s3store

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/sagarc03/imgtransfer"
)

// Compile-time check that Store implements imgtransfer.ObjectStore.
var _ imgtransfer.ObjectStore = (*Store)(nil)

// Client is the subset of *s3.Client the store uses.
type Client interface {
	manager.UploadAPIClient
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Opts holds options to build a Store.
type Opts struct {
	Bucket         string
	Region         string
	Endpoint       string // empty uses the SDK's regional endpoint
	ForcePathStyle bool
	AccessKey      string
	SecretKey      string
	PartSizeMB     int64 // default 16, minimum 5
	Concurrency    int   // default 4
}

// Store forwards object operations to a single bucket.
type Store struct {
	client   Client
	uploader *manager.Uploader
	bucket   string
}

// New loads the default AWS configuration, applies opts and returns a Store.
// Credentials come from the default chain unless both keys are set.
func New(ctx context.Context, opts *Opts) (*Store, error) {
	loadOpts := []func(*config.LoadOptions) error{
		config.WithRegion(opts.Region),
	}
	if opts.Endpoint != "" {
		loadOpts = append(loadOpts, config.WithBaseEndpoint(opts.Endpoint))
	}
	if opts.AccessKey != "" && opts.SecretKey != "" {
		loadOpts = append(loadOpts,
			config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, "")))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) { o.UsePathStyle = opts.ForcePathStyle })

	return NewWithClient(client, opts)
}

// NewWithClient returns a Store that uses an existing client.
func NewWithClient(client Client, opts *Opts) (*Store, error) {
	if client == nil {
		return nil, errors.New("new s3 store: client cannot be nil")
	}
	if opts.Bucket == "" {
		return nil, errors.New("new s3 store: bucket cannot be empty")
	}

	partSize := opts.PartSizeMB
	if partSize <= 0 {
		partSize = 16
	}
	if partSize*1024*1024 < manager.MinUploadPartSize {
		partSize = manager.MinUploadPartSize / (1024 * 1024)
	}
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}

	uploader := manager.NewUploader(client, func(u *manager.Uploader) {
		u.PartSize = partSize * 1024 * 1024
		u.Concurrency = concurrency
	})

	return &Store{
		client:   client,
		uploader: uploader,
		bucket:   opts.Bucket,
	}, nil
}

// Bucket returns the configured bucket name.
func (s *Store) Bucket() string {
	return s.bucket
}

// List returns the first page of objects in the bucket. Truncation is
// reported through IsTruncated; further pages are not requested.
func (s *Store) List(ctx context.Context) (imgtransfer.ListResult, error) {
	out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
	})
	if err != nil {
		return imgtransfer.ListResult{}, wrapError("list objects", s.bucket, "", err)
	}

	contents := make([]imgtransfer.ObjectSummary, 0, len(out.Contents))
	for _, obj := range out.Contents {
		contents = append(contents, imgtransfer.ObjectSummary{
			Key:          aws.ToString(obj.Key),
			Size:         aws.ToInt64(obj.Size),
			LastModified: aws.ToTime(obj.LastModified),
			ETag:         aws.ToString(obj.ETag),
			StorageClass: string(obj.StorageClass),
		})
	}

	name := aws.ToString(out.Name)
	if name == "" {
		name = s.bucket
	}

	return imgtransfer.ListResult{
		Name:        name,
		KeyCount:    len(contents),
		IsTruncated: aws.ToBool(out.IsTruncated),
		Contents:    contents,
	}, nil
}

// Put uploads body through the transfer manager, switching to multipart
// upload for bodies larger than one part.
func (s *Store) Put(ctx context.Context, obj imgtransfer.UploadObject, body io.ReadSeeker, size int64) error {
	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(obj.Key),
		Body:        body,
		ContentType: aws.String(obj.ContentType),
	}
	if size >= 0 {
		input.ContentLength = aws.Int64(size)
	}

	if _, err := s.uploader.Upload(ctx, input); err != nil {
		return wrapError("put object", s.bucket, obj.Key, err)
	}
	return nil
}

// Get opens an object. The returned body streams straight from the
// backend response.
func (s *Store) Get(ctx context.Context, key string) (imgtransfer.Object, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return imgtransfer.Object{}, wrapError("get object", s.bucket, key, err)
	}

	length := int64(-1)
	if out.ContentLength != nil {
		length = *out.ContentLength
	}

	return imgtransfer.Object{
		Key:           key,
		ContentType:   aws.ToString(out.ContentType),
		ContentLength: length,
		ETag:          aws.ToString(out.ETag),
		LastModified:  aws.ToTime(out.LastModified),
		Body:          out.Body,
	}, nil
}

// Delete removes an object. S3 reports success for missing keys, so the
// object is probed with HeadObject first to surface ErrNotFound.
func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return wrapError("head object", s.bucket, key, err)
	}

	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return wrapError("delete object", s.bucket, key, err)
	}
	return nil
}
