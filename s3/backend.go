// Package s3 implements the bucketry Backend capability with the AWS SDK,
// against Amazon S3 or any S3-compatible store such as MinIO. One backend is
// created per configured scheme; each holds a transfer client and, when the
// presigning endpoint differs, a second client used only for presigning.
package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/bucketry/bucketry"
)

// Credentials is an explicit credential set for one backend. The zero value
// means the SDK default chain (environment, shared config, instance role).
type Credentials struct {
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
}

// CredentialSource supplies per-scheme credentials. A miss is not an error;
// the backend falls back to the settings-level keys.
type CredentialSource interface {
	Lookup(scheme string) (Credentials, bool)
}

// Backend implements bucketry.Backend over the AWS SDK v2 S3 client.
type Backend struct {
	client  *s3.Client
	presign *s3.PresignClient
}

// NewBackend builds a backend for one endpoint configuration. The presign
// client shares the transfer client unless a distinct presigning endpoint is
// configured, in which case presigning gets its own client so generated URLs
// carry the externally routable host.
func NewBackend(ctx context.Context, settings bucketry.Settings, ep bucketry.Endpoints, creds Credentials) (*Backend, error) {
	httpClient := awshttp.NewBuildableClient().
		WithDialerOptions(func(d *net.Dialer) {
			d.Timeout = settings.ConnectTimeout
		}).
		WithTransportOptions(func(tr *http.Transport) {
			tr.MaxIdleConnsPerHost = settings.MaxPoolConnections
			tr.MaxConnsPerHost = settings.MaxPoolConnections
		})

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(settings.Region),
		awsconfig.WithHTTPClient(httpClient),
	}
	if creds.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(creds.AccessKeyID, creds.SecretAccessKey, creds.SessionToken),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := newClient(awsCfg, ep.EndpointURL, settings.AddressingStyle)

	presign := s3.NewPresignClient(client)
	if ep.PresigningEndpointURL != "" && ep.PresigningEndpointURL != ep.EndpointURL {
		presign = s3.NewPresignClient(newClient(awsCfg, ep.PresigningEndpointURL, settings.AddressingStyle))
	}

	return &Backend{client: client, presign: presign}, nil
}

// NewBackends builds one backend per scheme in the settings' endpoint map,
// ready to hand to bucketry.NewStorage. source may be nil; when given, it
// overrides the settings-level credentials per scheme.
func NewBackends(ctx context.Context, settings bucketry.Settings, source CredentialSource) (map[string]bucketry.Backend, error) {
	backends := make(map[string]bucketry.Backend, len(settings.Endpoints))
	for scheme, ep := range settings.Endpoints {
		creds := Credentials{
			AccessKeyID:     settings.AccessKeyID,
			SecretAccessKey: settings.SecretAccessKey,
			SessionToken:    settings.SessionToken,
		}
		if source != nil {
			if c, ok := source.Lookup(scheme); ok {
				creds = c
			}
		}

		b, err := NewBackend(ctx, settings, ep, creds)
		if err != nil {
			return nil, fmt.Errorf("backend for scheme %q: %w", scheme, err)
		}
		backends[scheme] = b
	}
	return backends, nil
}

func newClient(cfg aws.Config, endpoint string, style bucketry.AddressingStyle) *s3.Client {
	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
		o.UsePathStyle = style == bucketry.AddressingPath
	})
}

// Put stores body under bucket/key with the resolved object parameters.
func (b *Backend) Put(ctx context.Context, bucket, key string, body io.Reader, meta bucketry.ObjectMetadata) error {
	input := putObjectInput(bucket, key, meta)
	input.Body = body

	_, err := b.client.PutObject(ctx, input)
	return wrapErr("put", bucket, key, err)
}

// Get opens bucket/key for reading.
func (b *Backend) Get(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	out, err := b.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, wrapErr("get", bucket, key, err)
	}
	return out.Body, nil
}

// Head returns the stored metadata for bucket/key.
func (b *Backend) Head(ctx context.Context, bucket, key string) (bucketry.ObjectInfo, error) {
	out, err := b.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return bucketry.ObjectInfo{}, wrapErr("head", bucket, key, err)
	}

	return bucketry.ObjectInfo{
		ContentType:     aws.ToString(out.ContentType),
		ContentEncoding: aws.ToString(out.ContentEncoding),
		ContentLength:   aws.ToInt64(out.ContentLength),
		ETag:            aws.ToString(out.ETag),
		LastModified:    aws.ToTime(out.LastModified),
		Metadata:        out.Metadata,
	}, nil
}

// Delete removes bucket/key. S3 treats deleting a missing key as success,
// which matches the Backend contract.
func (b *Backend) Delete(ctx context.Context, bucket, key string) error {
	_, err := b.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	return wrapErr("delete", bucket, key, err)
}

// Copy server-side copies src onto dst. A non-nil meta switches the copy to
// REPLACE mode, stamping the destination with freshly resolved parameters.
func (b *Backend) Copy(ctx context.Context, srcBucket, srcKey, dstBucket, dstKey string, meta *bucketry.ObjectMetadata) error {
	// CopySource must be URL-encoded; the SDK passes it through as-is.
	input := &s3.CopyObjectInput{
		Bucket:     aws.String(dstBucket),
		Key:        aws.String(dstKey),
		CopySource: aws.String(url.PathEscape(srcBucket + "/" + srcKey)),
	}
	if meta != nil {
		put := putObjectInput(dstBucket, dstKey, *meta)
		input.MetadataDirective = types.MetadataDirectiveReplace
		input.CacheControl = put.CacheControl
		input.ContentType = put.ContentType
		input.ContentDisposition = put.ContentDisposition
		input.ContentLanguage = put.ContentLanguage
		input.Metadata = put.Metadata
		input.StorageClass = put.StorageClass
		input.ServerSideEncryption = put.ServerSideEncryption
		input.SSEKMSKeyId = put.SSEKMSKeyId
	}

	_, err := b.client.CopyObject(ctx, input)
	return wrapErr("copy", dstBucket, dstKey, err)
}

// List returns one page of keys under prefix.
func (b *Backend) List(ctx context.Context, bucket, prefix, delimiter, token string, max int32) (bucketry.ListPage, error) {
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
		Prefix: aws.String(prefix),
	}
	if delimiter != "" {
		input.Delimiter = aws.String(delimiter)
	}
	if token != "" {
		input.ContinuationToken = aws.String(token)
	}
	if max > 0 {
		input.MaxKeys = aws.Int32(max)
	}

	out, err := b.client.ListObjectsV2(ctx, input)
	if err != nil {
		return bucketry.ListPage{}, wrapErr("list", bucket, prefix, err)
	}

	page := bucketry.ListPage{
		Keys:         make([]string, 0, len(out.Contents)),
		Prefixes:     make([]string, 0, len(out.CommonPrefixes)),
		NextToken:    aws.ToString(out.NextContinuationToken),
		HasMorePages: aws.ToBool(out.IsTruncated),
	}
	for _, obj := range out.Contents {
		page.Keys = append(page.Keys, aws.ToString(obj.Key))
	}
	for _, p := range out.CommonPrefixes {
		page.Prefixes = append(page.Prefixes, aws.ToString(p.Prefix))
	}
	return page, nil
}

// SignURL presigns one request. Signing happens locally in the SDK; no
// network round trip is involved, so given the same request and clock the
// resulting URL is deterministic.
func (b *Backend) SignURL(ctx context.Context, req bucketry.SignRequest) (string, error) {
	switch req.Method {
	case bucketry.MethodGetObject:
		input, err := signGetInput(req)
		if err != nil {
			return "", err
		}
		out, err := b.presign.PresignGetObject(ctx, input, s3.WithPresignExpires(req.Expires))
		if err != nil {
			return "", wrapErr("presign get", req.Bucket, req.Key, err)
		}
		return out.URL, nil

	case bucketry.MethodPutObject:
		input, err := signPutInput(req)
		if err != nil {
			return "", err
		}
		out, err := b.presign.PresignPutObject(ctx, input, s3.WithPresignExpires(req.Expires))
		if err != nil {
			return "", wrapErr("presign put", req.Bucket, req.Key, err)
		}
		return out.URL, nil

	default:
		return "", fmt.Errorf("presign %s/%s: unsupported client method %q", req.Bucket, req.Key, req.Method)
	}
}

// putObjectInput maps resolved object metadata onto the SDK input. Optional
// headers are set only when non-empty, matching what the store would record.
func putObjectInput(bucket, key string, meta bucketry.ObjectMetadata) *s3.PutObjectInput {
	input := &s3.PutObjectInput{
		Bucket:       aws.String(bucket),
		Key:          aws.String(key),
		CacheControl: aws.String(meta.CacheControl),
		ContentType:  aws.String(meta.ContentType),
		Metadata:     meta.Metadata,
		StorageClass: types.StorageClass(meta.StorageClass),
	}
	if meta.ContentDisposition != "" {
		input.ContentDisposition = aws.String(meta.ContentDisposition)
	}
	if meta.ContentLanguage != "" {
		input.ContentLanguage = aws.String(meta.ContentLanguage)
	}
	switch meta.Encryption.Mode {
	case bucketry.EncryptionAES256:
		input.ServerSideEncryption = types.ServerSideEncryptionAes256
	case bucketry.EncryptionKMS:
		input.ServerSideEncryption = types.ServerSideEncryptionAwsKms
		input.SSEKMSKeyId = aws.String(meta.Encryption.KMSKeyID)
	}
	return input
}

// signGetInput maps the open params mapping onto the typed SDK input.
// Unknown keys are rejected: silently dropping one would hand out a URL
// that does not grant what the caller asked for.
func signGetInput(req bucketry.SignRequest) (*s3.GetObjectInput, error) {
	input := &s3.GetObjectInput{
		Bucket: aws.String(req.Bucket),
		Key:    aws.String(req.Key),
	}
	for k, v := range req.Params {
		switch k {
		case "VersionId":
			input.VersionId = aws.String(v)
		case "ResponseContentDisposition":
			input.ResponseContentDisposition = aws.String(v)
		case "ResponseContentType":
			input.ResponseContentType = aws.String(v)
		case "ResponseContentLanguage":
			input.ResponseContentLanguage = aws.String(v)
		case "ResponseContentEncoding":
			input.ResponseContentEncoding = aws.String(v)
		case "ResponseCacheControl":
			input.ResponseCacheControl = aws.String(v)
		default:
			return nil, fmt.Errorf("presign %s/%s: unsupported parameter %q", req.Bucket, req.Key, k)
		}
	}
	return input, nil
}

func signPutInput(req bucketry.SignRequest) (*s3.PutObjectInput, error) {
	input := &s3.PutObjectInput{
		Bucket: aws.String(req.Bucket),
		Key:    aws.String(req.Key),
	}
	for k, v := range req.Params {
		switch k {
		case "ContentType":
			input.ContentType = aws.String(v)
		case "ContentDisposition":
			input.ContentDisposition = aws.String(v)
		default:
			return nil, fmt.Errorf("presign %s/%s: unsupported parameter %q", req.Bucket, req.Key, k)
		}
	}
	return input, nil
}

// wrapErr maps SDK failures onto the bucketry error kinds. Cancellation and
// timeouts pass through unmasked; a missing object becomes ErrNotFound;
// everything else is a backend error with the original chain preserved.
func wrapErr(op, bucket, key string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("s3 %s %s/%s: %w", op, bucket, key, err)
	}
	if isNotFound(err) {
		return fmt.Errorf("s3 %s %s/%s: %w", op, bucket, key, bucketry.ErrNotFound)
	}
	return fmt.Errorf("s3 %s %s/%s: %w: %w", op, bucket, key, bucketry.ErrBackend, err)
}

func isNotFound(err error) bool {
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return true
	}
	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound", "NoSuchBucket":
			return true
		}
	}
	var respErr *awshttp.ResponseError
	return errors.As(err, &respErr) && respErr.HTTPStatusCode() == http.StatusNotFound
}
