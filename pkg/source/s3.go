package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/coolbeans/billtrace/pkg/config"
)

// ObjectGetter is the part of the S3 API the source needs.
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Source reads documents from a bucket; the id is the object key below
// Prefix.
type S3Source struct {
	client       ObjectGetter
	bucket       string
	prefix       string
	maxBodyBytes int64
}

func NewS3Source(client ObjectGetter, bucket, prefix string) *S3Source {
	return &S3Source{
		client:       client,
		bucket:       bucket,
		prefix:       prefix,
		maxBodyBytes: 10 * 1024 * 1024,
	}
}

// NewS3Client loads the default AWS credential chain. Endpoint and path-style
// addressing support S3-compatible stores such as MinIO or LocalStack.
func NewS3Client(ctx context.Context, s3Config config.S3SourceConfig) (*s3.Client, error) {
	var options []func(*awsconfig.LoadOptions) error
	if s3Config.Region != "" {
		options = append(options, awsconfig.WithRegion(s3Config.Region))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, options...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if s3Config.Endpoint != "" {
			o.BaseEndpoint = aws.String(s3Config.Endpoint)
		}
		o.UsePathStyle = s3Config.UsePathStyle
	}), nil
}

// Key returns the object key for a document id.
func (s3Source *S3Source) Key(documentID string) string {
	return s3Source.prefix + documentID
}

func (s3Source *S3Source) Fetch(ctx context.Context, documentID string) (*Document, error) {
	if documentID == "" {
		return nil, fmt.Errorf("empty document id")
	}
	key := s3Source.Key(documentID)

	output, err := s3Source.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s3Source.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, fmt.Errorf("%w: s3://%s/%s", ErrNotFound, s3Source.bucket, key)
		}
		return nil, fmt.Errorf("failed to get s3://%s/%s: %w", s3Source.bucket, key, err)
	}
	defer output.Body.Close()

	rawBody, err := io.ReadAll(io.LimitReader(output.Body, s3Source.maxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read s3://%s/%s: %w", s3Source.bucket, key, err)
	}
	if int64(len(rawBody)) > s3Source.maxBodyBytes {
		return nil, fmt.Errorf("s3://%s/%s exceeds %d bytes", s3Source.bucket, key, s3Source.maxBodyBytes)
	}

	contentType := aws.ToString(output.ContentType)
	if contentType == "" {
		contentType = "text/plain"
	}
	return &Document{
		ID:          documentID,
		Text:        textFromBody(rawBody, contentType),
		ContentType: contentType,
		FetchedAt:   time.Now(),
	}, nil
}
