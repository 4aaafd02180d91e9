// Package s3store provides the S3-protocol backend for spaces.
// It talks to DigitalOcean Spaces (or any S3-compatible service) through
// aws-sdk-go-v2 using an endpoint override, static credentials and
// path-style addressing.
package s3store

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	spaces "github.com/shidubei/DigitalOcean-ObjectSpaces"
)

// SigningRegion is the region the client signs requests for. Spaces routes by
// endpoint, so the value only has to be a region the SDK accepts.
const SigningRegion = "us-east-1"

// Store implements spaces.ObjectStore on top of an S3 client.
type Store struct {
	client *s3.Client
	bucket string
}

// Option customises the underlying S3 client options.
type Option func(*s3.Options)

// WithHTTPClient sets the HTTP client used by the SDK.
func WithHTTPClient(client s3.HTTPClient) Option {
	return func(o *s3.Options) {
		o.HTTPClient = client
	}
}

// WithRetryer replaces the SDK default retryer.
func WithRetryer(r aws.Retryer) Option {
	return func(o *s3.Options) {
		o.Retryer = r
	}
}

// New creates a Store for the bucket described by settings.
func New(settings spaces.StorageSettings, opts ...Option) (*Store, error) {
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("new s3 store: %w", err)
	}

	endpoint := settings.EndpointURL()

	optFns := []func(*s3.Options){
		func(o *s3.Options) {
			o.Region = SigningRegion
			o.Credentials = credentials.NewStaticCredentialsProvider(
				settings.AccessKey,
				settings.SecretKey,
				"",
			)
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
			// S3-compatible stores do not all understand the SDK's default
			// flexible checksums.
			o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
			o.ResponseChecksumValidation = aws.ResponseChecksumValidationWhenRequired
		},
	}
	for _, opt := range opts {
		optFns = append(optFns, opt)
	}

	client := s3.New(s3.Options{}, optFns...)

	slog.Debug("s3 client created", "endpoint", endpoint, "bucket", settings.BucketName)

	return &Store{
		client: client,
		bucket: settings.BucketName,
	}, nil
}

// Put uploads content under key.
func (s *Store) Put(ctx context.Context, key string, content io.Reader, size int64, contentType string) (spaces.PutResult, error) {
	// Signing over plain HTTP needs a seekable body to hash the payload.
	body, ok := content.(io.ReadSeeker)
	if !ok {
		data, err := io.ReadAll(io.LimitReader(content, size))
		if err != nil {
			return spaces.PutResult{}, fmt.Errorf("%w: read input: %v", spaces.ErrStorageFailed, err)
		}
		body = bytes.NewReader(data)
	}

	input := &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	out, err := s.client.PutObject(ctx, input)
	if err != nil {
		return spaces.PutResult{}, wrapS3Error(err)
	}

	return spaces.PutResult{ETag: normalizeETag(out.ETag)}, nil
}

// Get opens the object body. The caller must close it.
func (s *Store) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, wrapS3Error(err)
	}

	return out.Body, nil
}

// Head returns the object attributes without downloading it.
func (s *Store) Head(ctx context.Context, key string) (spaces.ObjectInfo, error) {
	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return spaces.ObjectInfo{}, wrapS3Error(err)
	}

	return spaces.ObjectInfo{
		Key:          key,
		Size:         aws.ToInt64(out.ContentLength),
		LastModified: aws.ToTime(out.LastModified),
		ETag:         normalizeETag(out.ETag),
		ContentType:  aws.ToString(out.ContentType),
	}, nil
}

// List performs a single ListObjectsV2 call. Listings larger than one page
// are reported as truncated, the remaining pages are not fetched.
func (s *Store) List(ctx context.Context, prefix string) (spaces.ListResult, error) {
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
	}
	if prefix != "" {
		input.Prefix = aws.String(prefix)
	}

	out, err := s.client.ListObjectsV2(ctx, input)
	if err != nil {
		return spaces.ListResult{}, wrapS3Error(err)
	}

	objects := make([]spaces.ObjectInfo, 0, len(out.Contents))
	for _, obj := range out.Contents {
		objects = append(objects, spaces.ObjectInfo{
			Key:          aws.ToString(obj.Key),
			Size:         aws.ToInt64(obj.Size),
			LastModified: aws.ToTime(obj.LastModified),
			ETag:         normalizeETag(obj.ETag),
		})
	}

	return spaces.ListResult{
		Objects:   objects,
		Truncated: aws.ToBool(out.IsTruncated),
	}, nil
}

// Delete removes the object at key.
func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return wrapS3Error(err)
	}

	return nil
}

// Ping issues a HeadBucket request.
func (s *Store) Ping(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err != nil {
		return wrapS3Error(err)
	}

	return nil
}

// normalizeETag strips the quotes S3 puts around ETag values.
func normalizeETag(etag *string) string {
	return strings.Trim(aws.ToString(etag), `"`)
}

// Ensure Store implements spaces.ObjectStore.
var _ spaces.ObjectStore = (*Store)(nil)
