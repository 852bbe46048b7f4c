package minio_storage

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// CoverStorage serves presigned URLs for course cover images out of a single
// MinIO bucket. Covers are uploaded by the catalog management pipeline; this
// service only reads them.
type CoverStorage struct {
	client     *minio.Client
	bucket     string
	presignTTL time.Duration
}

func NewCoverStorage(endpoint, accessKey, secretKey string, useSSL bool, bucket string, presignTTL time.Duration) (*CoverStorage, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, err
	}

	ctx := context.Background()
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("error checking bucket %s: %w", bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("error creating bucket %s: %w", bucket, err)
		}
	}

	return &CoverStorage{client: client, bucket: bucket, presignTTL: presignTTL}, nil
}

func (s *CoverStorage) GetCoverURL(ctx context.Context, objectKey string) (string, error) {
	reqParams := make(url.Values)
	presignedURL, err := s.client.PresignedGetObject(ctx, s.bucket, objectKey, s.presignTTL, reqParams)
	if err != nil {
		return "", err
	}
	return presignedURL.String(), nil
}
