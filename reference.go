package bucketry

import (
	"fmt"
	"path"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Reference identifies a stored object. The scheme selects which configured
// endpoint the object lives on, bucket and key locate it there.
type Reference struct {
	Scheme string
	Bucket string
	Key    string
}

// ParseReference parses a stored name of the form scheme://bucket/key into a
// Reference. The key may contain further slashes. Returns ErrInvalidReference
// when the name has no scheme delimiter or no bucket. Whether the scheme is
// actually configured is checked later, against the endpoint registry.
func ParseReference(name string) (Reference, error) {
	scheme, rest, ok := strings.Cut(name, "://")
	if !ok {
		return Reference{}, fmt.Errorf("parse %q: no scheme delimiter: %w", name, ErrInvalidReference)
	}
	if scheme == "" || strings.ContainsAny(scheme, "/:") {
		return Reference{}, fmt.Errorf("parse %q: bad scheme: %w", name, ErrInvalidReference)
	}
	bucket, key, _ := strings.Cut(rest, "/")
	if bucket == "" {
		return Reference{}, fmt.Errorf("parse %q: no bucket: %w", name, ErrInvalidReference)
	}
	return Reference{Scheme: scheme, Bucket: bucket, Key: key}, nil
}

// String serializes the reference back into its canonical stored form,
// the exact inverse of ParseReference.
func (r Reference) String() string {
	return r.Scheme + "://" + r.Bucket + "/" + r.Key
}

// ApplyKeyPrefix prepends the configured key prefix to a key, collapsing
// doubled separators. It is idempotent: a key that already carries the prefix
// is returned unchanged, so re-applying never double-prefixes.
func ApplyKeyPrefix(key, prefix string) string {
	key = strings.TrimPrefix(key, "/")
	if prefix == "" {
		return path.Clean(key)
	}
	cleanPrefix := path.Clean(strings.TrimPrefix(prefix, "/"))
	cleanKey := path.Clean(key)
	if cleanKey == cleanPrefix || strings.HasPrefix(cleanKey, cleanPrefix+"/") {
		return cleanKey
	}
	return path.Join(cleanPrefix, key)
}

// IsValidKey validates that a key is usable as a storage object key.
// It rejects empty keys, absolute paths, traversal segments, empty segments,
// control characters and invalid UTF-8.
func IsValidKey(k string) bool {
	if k == "" || k == "/" || k == "." {
		return false
	}

	if k[0] == '/' {
		return false
	}

	if strings.Contains(k, "..") {
		return false
	}

	if strings.Contains(k, "//") {
		return false
	}

	if strings.ContainsAny(k, `\?#`) {
		return false
	}

	if !utf8.ValidString(k) {
		return false
	}

	if strings.Contains(k, "/./") || strings.HasSuffix(k, "/.") {
		return false
	}

	for _, r := range k {
		if r < 0x20 || r == 0x7f || unicode.IsSpace(r) && r != ' ' {
			return false
		}
	}

	return true
}
