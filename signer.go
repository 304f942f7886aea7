package bucketry

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// URLSigner assembles externally usable URLs for stored objects: plain
// public URLs, time-limited signed URLs and presigned upload URLs. The
// signer owns request assembly only; the signature math itself is delegated
// to the backend capability, so the whole assembly layer is deterministic.
type URLSigner struct {
	registry   *EndpointRegistry
	style      AddressingStyle
	bucketAuth bool
	maxAge     time.Duration
}

// NewURLSigner returns a signer over the given registry. maxAge is the
// default validity window for signed URLs when the caller supplies none.
func NewURLSigner(registry *EndpointRegistry, style AddressingStyle, bucketAuth bool, maxAge time.Duration) *URLSigner {
	return &URLSigner{registry: registry, style: style, bucketAuth: bucketAuth, maxAge: maxAge}
}

// PublicURL constructs the unauthenticated URL of an object from its
// endpoint, addressing style, bucket and key. No signature, no network call.
func (s *URLSigner) PublicURL(ref Reference) (string, error) {
	endpoint, err := s.registry.Endpoint(ref.Scheme)
	if err != nil {
		return "", err
	}

	base, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("public url %s: bad endpoint %q: %w", ref, endpoint, err)
	}

	// Escaping is left to url.URL: Path holds the raw key, String() encodes it.
	if s.styleFor(ref.Bucket) == AddressingVirtual {
		base.Host = ref.Bucket + "." + base.Host
		base.Path = joinURLPath(base.Path, ref.Key)
	} else {
		base.Path = joinURLPath(base.Path, ref.Bucket, ref.Key)
	}
	base.RawPath = ""

	return base.String(), nil
}

// SignedURL produces a time-limited authenticated URL for reading an object.
// Bucket-level access control must be enabled; with public buckets there is
// nothing to sign. A zero expiry falls back to the configured max age, so
// the URL stays valid at least as long as caches may serve the object.
// Caller params are forwarded verbatim into the signed request.
func (s *URLSigner) SignedURL(ctx context.Context, backend Backend, ref Reference, expires time.Duration, params map[string]string) (string, error) {
	if !s.bucketAuth {
		return "", fmt.Errorf("signed url %s: bucket auth is disabled", ref)
	}
	return s.presign(ctx, backend, ref, MethodGetObject, expires, params)
}

// PresignedUploadURL produces a URL that lets a client PUT an object
// directly, without holding server credentials.
func (s *URLSigner) PresignedUploadURL(ctx context.Context, backend Backend, ref Reference, expires time.Duration) (string, error) {
	return s.presign(ctx, backend, ref, MethodPutObject, expires, nil)
}

func (s *URLSigner) presign(ctx context.Context, backend Backend, ref Reference, method ClientMethod, expires time.Duration, params map[string]string) (string, error) {
	if _, err := s.registry.Resolve(ref.Scheme); err != nil {
		return "", err
	}
	if expires <= 0 {
		expires = s.maxAge
	}

	signed, err := backend.SignURL(ctx, SignRequest{
		Bucket:  ref.Bucket,
		Key:     ref.Key,
		Method:  method,
		Expires: expires,
		Params:  params,
	})
	if err != nil {
		return "", fmt.Errorf("sign url %s: %w", ref, err)
	}
	return signed, nil
}

// styleFor resolves the effective addressing style for a bucket. Auto picks
// virtual-hosted only when the bucket name is DNS-safe; this affects URL
// shape only, never signature validity.
func (s *URLSigner) styleFor(bucket string) AddressingStyle {
	switch s.style {
	case AddressingVirtual:
		return AddressingVirtual
	case AddressingPath:
		return AddressingPath
	default:
		if isDNSSafeBucket(bucket) {
			return AddressingVirtual
		}
		return AddressingPath
	}
}

// isDNSSafeBucket reports whether a bucket name can be used as a host name
// label: 3-63 lowercase letters, digits and hyphens, starting and ending
// alphanumeric. Dots are excluded, they break TLS certificate matching.
func isDNSSafeBucket(bucket string) bool {
	if len(bucket) < 3 || len(bucket) > 63 {
		return false
	}
	for i := 0; i < len(bucket); i++ {
		c := bucket[i]
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9':
		case c == '-' && i != 0 && i != len(bucket)-1:
		default:
			return false
		}
	}
	return true
}

// joinURLPath joins path segments with single slashes, dropping empties.
func joinURLPath(base string, parts ...string) string {
	segments := []string{strings.TrimSuffix(base, "/")}
	for _, part := range parts {
		part = strings.Trim(part, "/")
		if part == "" {
			continue
		}
		segments = append(segments, part)
	}
	return strings.Join(segments, "/")
}
