package bucketry

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"
)

// uncompressedSizeMetaKey carries the original byte size of objects stored
// with a compressed body, so Size can report the logical size.
const uncompressedSizeMetaKey = "uncompressed_size"

// URLOptions tunes URL generation. The zero value produces a read URL with
// the configured defaults.
type URLOptions struct {
	// Method selects the operation the URL grants. Empty means get_object.
	// MethodPutObject produces a presigned upload URL.
	Method ClientMethod
	// Expires overrides the validity window. Zero falls back to the
	// configured max age.
	Expires time.Duration
	// Params are forwarded verbatim into the signed request. Documented
	// keys include "VersionId" and "ResponseContentDisposition".
	Params map[string]string
}

// Storage maps stored names of the form scheme://bucket/key onto remote
// object-storage backends, one per configured scheme. All computation in
// this type is pure and stateless; the only blocking points are calls into
// the Backend capability. A single Storage is safe for unlimited concurrent
// use.
type Storage struct {
	settings Settings
	registry *EndpointRegistry
	resolver *MetadataResolver
	signer   *URLSigner
	guard    AccessGuard
	backends map[string]Backend
}

// NewStorage builds the storage engine from an immutable settings snapshot
// and one backend per configured scheme. Every scheme in the settings'
// endpoint map must have a backend.
func NewStorage(settings Settings, backends map[string]Backend) (*Storage, error) {
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("new storage: %w", err)
	}

	registry := NewEndpointRegistry(settings.Region, settings.Endpoints)
	for _, scheme := range registry.Schemes() {
		if _, ok := backends[scheme]; !ok {
			return nil, fmt.Errorf("new storage: no backend for scheme %q", scheme)
		}
	}

	bs := make(map[string]Backend, len(backends))
	for scheme, b := range backends {
		bs[scheme] = b
	}

	return &Storage{
		settings: settings,
		registry: registry,
		resolver: NewMetadataResolver(settings),
		signer:   NewURLSigner(registry, settings.AddressingStyle, settings.BucketAuth, settings.MaxAge),
		guard:    NewAccessGuard(settings.ReadOnly),
		backends: bs,
	}, nil
}

// Resolver exposes the metadata resolver as a standalone callable, for batch
// jobs that re-apply current settings to existing objects.
func (s *Storage) Resolver() *MetadataResolver {
	return s.resolver
}

// Registry exposes the endpoint registry.
func (s *Storage) Registry() *EndpointRegistry {
	return s.registry
}

// resolve parses a stored name and checks its scheme against the registry.
// All parsing and resolution errors surface here, before any network call.
func (s *Storage) resolve(name string) (Reference, Backend, error) {
	ref, err := ParseReference(name)
	if err != nil {
		return Reference{}, nil, err
	}
	if _, err := s.registry.Resolve(ref.Scheme); err != nil {
		return Reference{}, nil, err
	}
	backend, ok := s.backends[ref.Scheme]
	if !ok {
		return Reference{}, nil, fmt.Errorf("scheme %q: %w", ref.Scheme, ErrUnknownScheme)
	}
	return ref, backend, nil
}

// objectKey maps a reference's logical key to the physical object key by
// applying the configured key prefix.
func (s *Storage) objectKey(key string) string {
	return ApplyKeyPrefix(key, s.settings.KeyPrefix)
}

// Save stores content under the given stored name and returns the canonical
// stored name of the object actually written, which differs from the input
// when collision avoidance picked an alternative key.
//
// Pipeline: parse and validate the name, check read-only mode, resolve
// object metadata, negotiate the final key, then hand the transfer to the
// backend. Nothing is written before every local step has passed.
func (s *Storage) Save(ctx context.Context, name string, content io.Reader) (string, error) {
	ref, backend, err := s.resolve(name)
	if err != nil {
		return "", err
	}
	if !IsValidKey(ref.Key) {
		return "", fmt.Errorf("save %q: bad key: %w", name, ErrInvalidReference)
	}

	if err := s.guard.Check("save " + name); err != nil {
		return "", err
	}

	exists := func(ctx context.Context, key string) (bool, error) {
		return s.headExists(ctx, backend, ref.Bucket, s.objectKey(key))
	}
	finalKey, err := ResolveName(ctx, ref.Key, s.settings.FileOverwrite, exists)
	if err != nil {
		return "", err
	}

	// Metadata rules see the final stored name, so per-name settings match
	// the object actually written.
	stored := Reference{Scheme: ref.Scheme, Bucket: ref.Bucket, Key: finalKey}.String()
	meta := s.resolver.Resolve(stored)

	if err := backend.Put(ctx, ref.Bucket, s.objectKey(finalKey), content, meta); err != nil {
		return "", fmt.Errorf("save %q: %w", name, err)
	}

	return stored, nil
}

// Open returns the content of a stored object. The caller closes the reader.
func (s *Storage) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	ref, backend, err := s.resolve(name)
	if err != nil {
		return nil, err
	}

	body, err := backend.Get(ctx, ref.Bucket, s.objectKey(ref.Key))
	if err != nil {
		return nil, fmt.Errorf("open %q: %w", name, err)
	}
	return body, nil
}

// URL produces an externally usable URL for a stored object without
// contacting the remote service. With MethodPutObject in the options it
// returns a presigned upload URL; otherwise a signed read URL when bucket
// auth is enabled, or a plain public URL when it is not.
func (s *Storage) URL(ctx context.Context, name string, opts URLOptions) (string, error) {
	ref, backend, err := s.resolve(name)
	if err != nil {
		return "", err
	}
	ref.Key = s.objectKey(ref.Key)

	if opts.Method != "" && !opts.Method.IsValid() {
		return "", fmt.Errorf("url %q: invalid client method %q", name, opts.Method)
	}

	if opts.Method == MethodPutObject {
		return s.signer.PresignedUploadURL(ctx, backend, ref, opts.Expires)
	}
	if s.settings.BucketAuth {
		return s.signer.SignedURL(ctx, backend, ref, opts.Expires, opts.Params)
	}
	return s.signer.PublicURL(ref)
}

// Delete removes a stored object.
func (s *Storage) Delete(ctx context.Context, name string) error {
	ref, backend, err := s.resolve(name)
	if err != nil {
		return err
	}

	if err := s.guard.Check("delete " + name); err != nil {
		return err
	}

	if err := backend.Delete(ctx, ref.Bucket, s.objectKey(ref.Key)); err != nil {
		return fmt.Errorf("delete %q: %w", name, err)
	}
	return nil
}

// Exists reports whether a stored name refers to an existing object. Names
// ending in "/" are treated as virtual directories and probed by prefix,
// since object stores have no real directories.
func (s *Storage) Exists(ctx context.Context, name string) (bool, error) {
	ref, backend, err := s.resolve(name)
	if err != nil {
		return false, err
	}

	if strings.HasSuffix(ref.Key, "/") || ref.Key == "" {
		return s.prefixExists(ctx, backend, ref)
	}

	ok, err := s.headExists(ctx, backend, ref.Bucket, s.objectKey(ref.Key))
	if err != nil {
		return false, fmt.Errorf("exists %q: %w", name, err)
	}
	if ok {
		return true, nil
	}
	// Not a file; it may still be a virtual directory.
	ref.Key += "/"
	return s.prefixExists(ctx, backend, ref)
}

func (s *Storage) headExists(ctx context.Context, backend Backend, bucket, key string) (bool, error) {
	_, err := backend.Head(ctx, bucket, key)
	if err != nil {
		if IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *Storage) prefixExists(ctx context.Context, backend Backend, ref Reference) (bool, error) {
	// The prefix transform strips the trailing slash; add it back so only
	// keys below the directory match.
	prefix := s.objectKey(ref.Key)
	if prefix == "." {
		prefix = ""
	} else {
		prefix += "/"
	}
	page, err := backend.List(ctx, ref.Bucket, prefix, "", "", 1)
	if err != nil {
		return false, fmt.Errorf("exists %q: %w", ref, err)
	}
	return len(page.Keys) > 0, nil
}

// Meta returns the durable metadata stored with an object.
func (s *Storage) Meta(ctx context.Context, name string) (ObjectInfo, error) {
	ref, backend, err := s.resolve(name)
	if err != nil {
		return ObjectInfo{}, err
	}

	info, err := backend.Head(ctx, ref.Bucket, s.objectKey(ref.Key))
	if err != nil {
		return ObjectInfo{}, fmt.Errorf("meta %q: %w", name, err)
	}
	return info, nil
}

// Size returns the logical size of a stored object. Objects stored with a
// compressed body report their uncompressed size.
func (s *Storage) Size(ctx context.Context, name string) (int64, error) {
	info, err := s.Meta(ctx, name)
	if err != nil {
		return 0, err
	}
	if info.ContentEncoding == "gzip" {
		if raw, ok := info.Metadata[uncompressedSizeMetaKey]; ok {
			var n int64
			if _, err := fmt.Sscanf(raw, "%d", &n); err == nil {
				return n, nil
			}
		}
	}
	return info.ContentLength, nil
}

// Copy server-side copies one stored object onto another name. Both names
// must use the same scheme; cross-endpoint copies would need a transfer
// through the caller.
func (s *Storage) Copy(ctx context.Context, srcName, dstName string) error {
	src, backend, err := s.resolve(srcName)
	if err != nil {
		return err
	}
	dst, _, err := s.resolve(dstName)
	if err != nil {
		return err
	}
	if src.Scheme != dst.Scheme {
		return fmt.Errorf("copy %q to %q: cross-scheme copy not supported", srcName, dstName)
	}

	if err := s.guard.Check("copy " + dstName); err != nil {
		return err
	}

	err = backend.Copy(ctx, src.Bucket, s.objectKey(src.Key), dst.Bucket, s.objectKey(dst.Key), nil)
	if err != nil {
		return fmt.Errorf("copy %q to %q: %w", srcName, dstName, err)
	}
	return nil
}

// Rename moves a stored object by copy and delete. Not atomic: a failure
// between the two steps leaves both objects in place.
func (s *Storage) Rename(ctx context.Context, srcName, dstName string) error {
	if err := s.guard.Check("rename " + srcName); err != nil {
		return err
	}
	if err := s.Copy(ctx, srcName, dstName); err != nil {
		return err
	}
	return s.Delete(ctx, srcName)
}

// Listdir lists the virtual directory under a stored name, returning the
// directories and files directly below it.
func (s *Storage) Listdir(ctx context.Context, name string) (dirs, files []string, err error) {
	ref, backend, err := s.resolve(name)
	if err != nil {
		return nil, nil, err
	}

	key := s.objectKey(ref.Key)
	prefix := ""
	if key != "." {
		prefix = key + "/"
	}

	token := ""
	for {
		page, err := backend.List(ctx, ref.Bucket, prefix, "/", token, 0)
		if err != nil {
			return nil, nil, fmt.Errorf("listdir %q: %w", name, err)
		}
		for _, k := range page.Keys {
			files = append(files, strings.TrimPrefix(k, prefix))
		}
		for _, p := range page.Prefixes {
			dirs = append(dirs, strings.TrimSuffix(strings.TrimPrefix(p, prefix), "/"))
		}
		if !page.HasMorePages {
			break
		}
		token = page.NextToken
	}

	return dirs, files, nil
}

// Resync re-applies the currently configured object metadata to an existing
// object by copying it onto itself with replaced parameters. Settings
// changes are not retroactive on their own; this is the escape hatch.
func (s *Storage) Resync(ctx context.Context, name string) error {
	ref, backend, err := s.resolve(name)
	if err != nil {
		return err
	}

	if err := s.guard.Check("resync " + name); err != nil {
		return err
	}

	key := s.objectKey(ref.Key)
	if _, err := backend.Head(ctx, ref.Bucket, key); err != nil {
		return fmt.Errorf("resync %q: %w", name, err)
	}

	meta := s.resolver.Resolve(name)
	if err := backend.Copy(ctx, ref.Bucket, key, ref.Bucket, key, &meta); err != nil {
		return fmt.Errorf("resync %q: %w", name, err)
	}
	return nil
}

// ResyncPrefix walks every object under a stored name and re-applies the
// current metadata to each, returning how many were updated. It pages
// through the listing and stops at the first error.
func (s *Storage) ResyncPrefix(ctx context.Context, name string) (int, error) {
	ref, backend, err := s.resolve(name)
	if err != nil {
		return 0, err
	}

	if err := s.guard.Check("resync " + name); err != nil {
		return 0, err
	}

	key := s.objectKey(ref.Key)
	prefix := ""
	if key != "." {
		prefix = strings.TrimSuffix(key, "/") + "/"
	}

	updated := 0
	token := ""
	for {
		if err := ctx.Err(); err != nil {
			return updated, fmt.Errorf("resync %q: %w", name, err)
		}

		page, err := backend.List(ctx, ref.Bucket, prefix, "", token, 0)
		if err != nil {
			return updated, fmt.Errorf("resync %q: %w", name, err)
		}

		for _, k := range page.Keys {
			meta := s.resolver.Resolve(Reference{Scheme: ref.Scheme, Bucket: ref.Bucket, Key: k}.String())
			if err := backend.Copy(ctx, ref.Bucket, k, ref.Bucket, k, &meta); err != nil {
				return updated, fmt.Errorf("resync %q at %q: %w", name, k, err)
			}
			updated++
		}

		if !page.HasMorePages {
			break
		}
		token = page.NextToken
	}

	return updated, nil
}
