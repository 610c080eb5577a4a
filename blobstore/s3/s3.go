// Package s3 provides an S3 backed blob store.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/manualsvc/bundler/blobstore"
)

type Config struct {
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
	// Endpoint overrides the AWS endpoint, e.g. for MinIO.
	Endpoint string
}

func New(ctx context.Context, config Config) (*Store, error) {
	if config.Bucket == "" {
		return nil, errors.New("bucket is empty")
	}

	var opts []func(*awsconfig.LoadOptions) error
	if config.AccessKey != "" {
		cred := credentials.NewStaticCredentialsProvider(config.AccessKey, config.SecretKey, "")
		opts = append(opts, awsconfig.WithCredentialsProvider(cred))
	}
	if config.Region != "" {
		opts = append(opts, awsconfig.WithRegion(config.Region))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %v", err)
	}

	client := awss3.NewFromConfig(cfg, func(o *awss3.Options) {
		if config.Endpoint != "" {
			o.BaseEndpoint = aws.String(config.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &Store{
		bucket:  config.Bucket,
		client:  client,
		presign: awss3.NewPresignClient(client),
	}, nil
}

type Store struct {
	bucket  string
	client  *awss3.Client
	presign *awss3.PresignClient
}

var _ blobstore.Store = (*Store)(nil)

func (s *Store) Put(ctx context.Context, path string, b []byte) error {
	_, err := s.client.PutObject(ctx, &awss3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(path),
		Body:   bytes.NewReader(b),
	})
	if err != nil {
		return fmt.Errorf("failed to put blob %s: %v", path, err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, path string) ([]byte, error) {
	output, err := s.client.GetObject(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(path),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, blobstore.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get blob %s: %v", path, err)
	}

	defer output.Body.Close()

	b, err := io.ReadAll(output.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read blob %s: %v", path, err)
	}
	return b, nil
}

func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	var paths []string

	paginator := awss3.NewListObjectsV2Paginator(s.client, &awss3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list blobs below %s: %v", prefix, err)
		}

		for _, object := range page.Contents {
			paths = append(paths, aws.ToString(object.Key))
		}
	}

	return paths, nil
}

func (s *Store) Delete(ctx context.Context, path string) error {
	_, err := s.client.DeleteObject(ctx, &awss3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(path),
	})
	if err != nil {
		return fmt.Errorf("failed to delete blob %s: %v", path, err)
	}
	return nil
}

func (s *Store) SignedUrl(ctx context.Context, path string, expiry time.Duration) (string, error) {
	request, err := s.presign.PresignGetObject(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(path),
	}, awss3.WithPresignExpires(expiry))
	if err != nil {
		return "", fmt.Errorf("failed to presign blob %s: %v", path, err)
	}
	return request.URL, nil
}
