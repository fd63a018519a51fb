package storage

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	appconfig "github.com/mholecek/snapmatch/internal/config"
	"github.com/mholecek/snapmatch/internal/extractor"
)

const (
	connAttempts = 10
	connTimeout  = time.Second
)

// S3Store stores photo blobs in an S3-compatible bucket.
type S3Store struct {
	client    *s3.Client
	bucket    string
	publicURL string
}

// NewS3Store connects to the configured S3 endpoint, retrying while the
// backend comes up, and verifies the connection with a bucket listing.
func NewS3Store(ctx context.Context, cfg *appconfig.StorageConfig) (*S3Store, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(
		ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("loading S3 config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = true
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	store := &S3Store{
		client:    client,
		bucket:    cfg.Bucket,
		publicURL: strings.TrimSuffix(cfg.PublicURL, "/"),
	}

	attempts := connAttempts
	for {
		_, err = client.ListBuckets(ctx, &s3.ListBucketsInput{})
		if err == nil {
			break
		}
		attempts--
		if attempts == 0 {
			return nil, fmt.Errorf("connecting to S3: %w", err)
		}
		log.Printf("[storage] S3 not reachable, attempts left: %d", attempts)
		time.Sleep(connTimeout)
	}

	return store, nil
}

// extensionForMIME maps a detected image MIME type to a key suffix.
func extensionForMIME(mime string) string {
	switch mime {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ".bin"
	}
}

// Store uploads the image under a key derived from the namespace hint and a
// fresh UUID, and returns the retrieval URL plus the deletion key.
func (s *S3Store) Store(ctx context.Context, image []byte, namespace string) (*StoredObject, error) {
	mime := extractor.DetectMIMEType(image)
	key := fmt.Sprintf("%s/%s%s", Slug(namespace), uuid.NewString(), extensionForMIME(mime))

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(image),
		ContentType:   aws.String(mime),
		ContentLength: aws.Int64(int64(len(image))),
	})
	if err != nil {
		return nil, fmt.Errorf("uploading object %s: %w", key, err)
	}

	return &StoredObject{
		URL: fmt.Sprintf("%s/%s", s.publicURL, key),
		Key: key,
	}, nil
}

// Delete removes a stored object by key.
func (s *S3Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("deleting object %s: %w", key, err)
	}
	return nil
}
