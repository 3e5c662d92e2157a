// Package library manages the digital library: files kept in an S3
// bucket, addressed by object key.
package library

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3API is the slice of the S3 client the library needs
type S3API interface {
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Object describes one stored file
type Object struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// Library provides access to the digital library bucket
type Library struct {
	s3     S3API
	bucket string
	region string
}

// New loads AWS credentials from the default chain and opens the
// library bucket
func New(ctx context.Context, bucket, region string) (*Library, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return &Library{
		s3:     s3.NewFromConfig(cfg),
		bucket: bucket,
		region: region,
	}, nil
}

// NewWithClient opens the library over an existing S3 client
func NewWithClient(api S3API, bucket, region string) *Library {
	return &Library{s3: api, bucket: bucket, region: region}
}

// List returns every object in the bucket, sorted by key. Paginates
// past the 1000-object response limit.
func (l *Library) List(ctx context.Context) ([]Object, error) {
	var objects []Object
	var continuation *string

	for {
		out, err := l.s3.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(l.bucket),
			ContinuationToken: continuation,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list library objects: %w", err)
		}

		for _, obj := range out.Contents {
			objects = append(objects, Object{
				Key:          aws.ToString(obj.Key),
				Size:         aws.ToInt64(obj.Size),
				LastModified: aws.ToTime(obj.LastModified),
			})
		}

		if !aws.ToBool(out.IsTruncated) {
			break
		}
		continuation = out.NextContinuationToken
	}

	sort.Slice(objects, func(i, j int) bool { return objects[i].Key < objects[j].Key })
	return objects, nil
}

// Exists reports whether an object with the given key is stored
func (l *Library) Exists(ctx context.Context, key string) (bool, error) {
	_, err := l.s3.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(l.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check object %q: %w", key, err)
	}
	return true, nil
}

// Upload stores the given content under key, refusing to overwrite an
// existing object
func (l *Library) Upload(ctx context.Context, key string, body io.Reader) error {
	exists, err := l.Exists(ctx, key)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("object %q already exists", key)
	}

	_, err = l.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(l.bucket),
		Key:    aws.String(key),
		Body:   body,
	})
	if err != nil {
		return fmt.Errorf("failed to upload %q: %w", key, err)
	}
	return nil
}

// Delete removes the object with the given key
func (l *Library) Delete(ctx context.Context, key string) error {
	_, err := l.s3.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(l.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete %q: %w", key, err)
	}
	return nil
}

// URL returns the public object URL for a key
func (l *Library) URL(key string) string {
	escaped := strings.ReplaceAll(key, " ", "+")
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", l.bucket, l.region, escaped)
}
