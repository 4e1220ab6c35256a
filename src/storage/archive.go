package storage

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/username/tradeledger/backend/src/logger"
)

// S3Archive stores raw contract note files in an S3-compatible bucket under
// a per-user, per-filename key. A same-named re-upload overwrites the prior
// object; records in the note store are unaffected.
type S3Archive struct {
	uploader *manager.Uploader
	bucket   string
}

// NewS3Archive builds an archive backed by the bucket. An empty endpoint
// uses AWS proper; a custom endpoint (MinIO and friends) switches to
// path-style addressing.
func NewS3Archive(ctx context.Context, bucket, region, endpoint string) (*S3Archive, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Archive{
		uploader: manager.NewUploader(client),
		bucket:   bucket,
	}, nil
}

// Store uploads the bytes and returns the object's retrieval URL.
func (a *S3Archive) Store(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	out, err := a.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("uploading %s to bucket %s: %w", key, a.bucket, err)
	}

	logger.L.Debug("Archived raw contract note", "bucket", a.bucket, "key", key, "bytes", len(data))
	return out.Location, nil
}
