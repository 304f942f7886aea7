package e2e_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/require"

	"github.com/bucketry/bucketry"
	"github.com/bucketry/bucketry/s3"
)

const testScheme = "s3-minio"

// newTestSettings builds settings pointing one scheme at the shared MinIO.
func newTestSettings(t *testing.T, mutate func(*bucketry.Settings)) bucketry.Settings {
	t.Helper()

	endpoint, user, password := getSharedMinio(t)

	settings := bucketry.DefaultSettings()
	settings.AccessKeyID = user
	settings.SecretAccessKey = password
	settings.Endpoints = map[string]bucketry.Endpoints{
		testScheme: {EndpointURL: endpoint},
	}
	// MinIO buckets are not DNS-resolvable hosts.
	settings.AddressingStyle = bucketry.AddressingPath
	settings.ConnectTimeout = 10 * time.Second

	if mutate != nil {
		mutate(&settings)
	}
	return settings
}

// newTestStorage builds a storage engine against the shared MinIO and a
// freshly created bucket.
func newTestStorage(t *testing.T, bucket string, mutate func(*bucketry.Settings)) *bucketry.Storage {
	t.Helper()
	ctx := context.Background()

	settings := newTestSettings(t, mutate)

	createBucket(t, settings, bucket)

	backends, err := s3.NewBackends(ctx, settings, nil)
	require.NoError(t, err)

	storage, err := bucketry.NewStorage(settings, backends)
	require.NoError(t, err)

	return storage
}

// createBucket provisions a bucket directly through the SDK. Existing
// buckets are fine; tests share them.
func createBucket(t *testing.T, settings bucketry.Settings, bucket string) {
	t.Helper()
	ctx := context.Background()

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(settings.Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(settings.AccessKeyID, settings.SecretAccessKey, ""),
		),
	)
	require.NoError(t, err)

	client := awss3.NewFromConfig(awsCfg, func(o *awss3.Options) {
		o.BaseEndpoint = aws.String(settings.Endpoints[testScheme].EndpointURL)
		o.UsePathStyle = true
	})

	_, err = client.CreateBucket(ctx, &awss3.CreateBucketInput{
		Bucket: aws.String(bucket),
	})
	if err != nil {
		// Already-owned buckets are not a failure; tests share them.
		var apiErr smithy.APIError
		if !errors.As(err, &apiErr) ||
			(apiErr.ErrorCode() != "BucketAlreadyOwnedByYou" && apiErr.ErrorCode() != "BucketAlreadyExists") {
			t.Fatalf("create bucket: %v", err)
		}
	}
}
