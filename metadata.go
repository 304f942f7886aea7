package bucketry

import (
	"fmt"
	"mime"
	"path"
	"time"
)

// Setting is a configuration value that is either static or computed from
// the stored name it applies to. Computed settings let operators vary
// content disposition, language or custom metadata per file, typically on
// the file extension.
type Setting[T any] struct {
	value T
	fn    func(name string) T
}

// Static returns a setting that always resolves to v.
func Static[T any](v T) Setting[T] {
	return Setting[T]{value: v}
}

// Computed returns a setting resolved by calling fn with the stored name.
func Computed[T any](fn func(name string) T) Setting[T] {
	return Setting[T]{fn: fn}
}

// Resolve evaluates the setting for the given stored name.
func (s Setting[T]) Resolve(name string) T {
	if s.fn != nil {
		return s.fn(name)
	}
	return s.value
}

// EncryptionMode selects the server-side encryption applied to saved objects.
type EncryptionMode string

const (
	EncryptionNone   EncryptionMode = ""
	EncryptionAES256 EncryptionMode = "AES256"
	EncryptionKMS    EncryptionMode = "aws:kms"
)

// Encryption is the resolved server-side encryption for an object.
// KMSKeyID is set only when Mode is EncryptionKMS.
type Encryption struct {
	Mode     EncryptionMode
	KMSKeyID string
}

// StorageClass selects the durability class objects are stored under.
type StorageClass string

const (
	StorageClassStandard          StorageClass = "STANDARD"
	StorageClassReducedRedundancy StorageClass = "REDUCED_REDUNDANCY"
)

// ObjectMetadata is the full set of object-level parameters applied on a
// write. It is derived freshly from settings for every save, never cached:
// settings changes must apply to subsequent writes.
type ObjectMetadata struct {
	ContentType        string
	ContentDisposition string
	ContentLanguage    string
	Metadata           map[string]string
	CacheControl       string
	MaxAge             time.Duration
	Encryption         Encryption
	StorageClass       StorageClass
}

// MetadataResolver computes ObjectMetadata for a stored name. Resolution is
// a pure function of (name, settings): no I/O, no side effects, safe to call
// from any number of goroutines.
type MetadataResolver struct {
	settings Settings
}

// NewMetadataResolver returns a resolver over an immutable settings snapshot.
func NewMetadataResolver(settings Settings) *MetadataResolver {
	return &MetadataResolver{settings: settings}
}

// Resolve computes the object parameters for a stored name. Each attribute
// is evaluated independently: static values pass through, computed values
// are called with the name.
func (r *MetadataResolver) Resolve(name string) ObjectMetadata {
	s := r.settings

	meta := ObjectMetadata{
		ContentType:        ContentTypeFor(name),
		ContentDisposition: s.ContentDisposition.Resolve(name),
		ContentLanguage:    s.ContentLanguage.Resolve(name),
		Metadata:           make(map[string]string, len(s.Metadata)),
		CacheControl:       fmt.Sprintf("private,max-age=%d", int(s.MaxAge.Seconds())),
		MaxAge:             s.MaxAge,
		Encryption:         r.resolveEncryption(),
		StorageClass:       StorageClassStandard,
	}

	for key, value := range s.Metadata {
		meta.Metadata[key] = value.Resolve(name)
	}

	if s.ReducedRedundancy {
		meta.StorageClass = StorageClassReducedRedundancy
	}

	return meta
}

// resolveEncryption maps the encryption settings to a mode. A KMS key id
// only takes effect when KMS encryption is enabled; the plain encrypt flag
// always means AES256.
func (r *MetadataResolver) resolveEncryption() Encryption {
	s := r.settings
	if s.EncryptKMS && s.KMSKeyID != "" {
		return Encryption{Mode: EncryptionKMS, KMSKeyID: s.KMSKeyID}
	}
	if s.Encrypt || s.EncryptKMS {
		return Encryption{Mode: EncryptionAES256}
	}
	return Encryption{}
}

// ContentTypeFor guesses the content type of a stored name from its
// extension, defaulting to application/octet-stream.
func ContentTypeFor(name string) string {
	if ct := mime.TypeByExtension(path.Ext(name)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
