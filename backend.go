package bucketry

import (
	"context"
	"io"
	"time"
)

// ClientMethod names the operation a generated URL grants.
type ClientMethod string

const (
	MethodGetObject ClientMethod = "get_object"
	MethodPutObject ClientMethod = "put_object"
)

func (m ClientMethod) IsValid() bool {
	switch m {
	case MethodGetObject, MethodPutObject:
		return true
	default:
		return false
	}
}

// ObjectInfo is the durable metadata attached to a stored object, as
// reported by a backend head call.
type ObjectInfo struct {
	ContentType     string
	ContentEncoding string
	ContentLength   int64
	ETag            string
	LastModified    time.Time
	Metadata        map[string]string
}

// SignRequest carries everything a backend needs to presign one request.
// Params are forwarded verbatim into the signed request; documented keys
// include "VersionId" and "ResponseContentDisposition".
type SignRequest struct {
	Bucket  string
	Key     string
	Method  ClientMethod
	Expires time.Duration
	Params  map[string]string
}

// ListPage is one page of a delimiter listing: object keys plus the common
// prefixes ("directories") directly under the requested prefix.
type ListPage struct {
	Keys         []string
	Prefixes     []string
	NextToken    string
	HasMorePages bool
}

// Backend is the narrow capability the storage engine requires from a
// remote object store. The engine performs no signing, no retries and no
// network handling of its own; all of that lives behind this interface.
//
// Implementations must map a missing object to ErrNotFound and wrap other
// failures in ErrBackend, and must propagate context cancellation unmasked.
type Backend interface {
	// Put stores body under bucket/key with the given object parameters.
	Put(ctx context.Context, bucket, key string, body io.Reader, meta ObjectMetadata) error

	// Get opens bucket/key for reading. The caller closes the reader.
	Get(ctx context.Context, bucket, key string) (io.ReadCloser, error)

	// Head returns the stored metadata for bucket/key without fetching the body.
	Head(ctx context.Context, bucket, key string) (ObjectInfo, error)

	// Delete removes bucket/key. Deleting a missing object is not an error.
	Delete(ctx context.Context, bucket, key string) error

	// Copy server-side copies src onto dst. A non-nil meta replaces the
	// object parameters on the destination instead of copying them over.
	Copy(ctx context.Context, srcBucket, srcKey, dstBucket, dstKey string, meta *ObjectMetadata) error

	// List returns one page of keys under prefix. A non-empty delimiter
	// groups deeper keys into common prefixes.
	List(ctx context.Context, bucket, prefix, delimiter, token string, max int32) (ListPage, error)

	// SignURL produces a presigned URL for the request without contacting
	// the remote service.
	SignURL(ctx context.Context, req SignRequest) (string, error)
}
