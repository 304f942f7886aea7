package bucketry

import (
	"errors"
	"fmt"
	"time"
)

// Settings is the full configuration surface of the storage engine. It is
// assembled once at startup and treated as an immutable snapshot afterwards:
// the engine never mutates it, so a single Settings value can be shared by
// any number of concurrent callers.
//
// Changing metadata-related settings is not retroactive. Objects saved under
// the old settings keep their headers until re-synced (see Storage.Resync).
type Settings struct {
	// Authentication. Empty values fall back to the SDK default chain.
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string

	// Endpoints maps URL schemes (e.g. "s3", "s3-minio") to their endpoint
	// configuration. Every stored name must use one of these schemes.
	Endpoints       map[string]Endpoints
	AddressingStyle AddressingStyle

	// KeyPrefix is prepended to every object key before it reaches a backend.
	KeyPrefix string

	// MaxAge controls the Cache-Control header of saved objects and is the
	// default validity window for signed URLs.
	MaxAge time.Duration

	// BucketAuth selects signed URLs for reads. When false, buckets are
	// assumed publicly readable and plain URLs are generated instead.
	BucketAuth bool

	ReducedRedundancy  bool
	ContentDisposition Setting[string]
	ContentLanguage    Setting[string]
	Metadata           map[string]Setting[string]

	// Encrypt enables server-side encryption with AES256. EncryptKMS together
	// with a KMSKeyID switches to KMS-managed keys; the key id is ignored
	// unless EncryptKMS is set.
	Encrypt    bool
	EncryptKMS bool
	KMSKeyID   string

	SignatureVersion string

	// FileOverwrite makes Save replace existing objects instead of picking
	// an alternative name.
	FileOverwrite bool

	// ReadOnly blocks every mutating operation before it produces any side effect.
	ReadOnly bool

	MaxPoolConnections int
	ConnectTimeout     time.Duration
}

// DefaultSettings returns settings with the documented defaults: a single
// bare "s3" scheme on the regional default endpoint, one hour of cache
// lifetime, signature v4 and no encryption.
func DefaultSettings() Settings {
	return Settings{
		Region:             "us-east-1",
		Endpoints:          map[string]Endpoints{"s3": {}},
		AddressingStyle:    AddressingAuto,
		MaxAge:             time.Hour,
		SignatureVersion:   "s3v4",
		MaxPoolConnections: 10,
		ConnectTimeout:     60 * time.Second,
	}
}

// Validate checks the settings for internal consistency.
func (s Settings) Validate() error {
	if s.Region == "" {
		return errors.New("validate settings: region cannot be empty")
	}
	if len(s.Endpoints) == 0 {
		return errors.New("validate settings: at least one endpoint scheme is required")
	}
	if !s.AddressingStyle.IsValid() {
		return fmt.Errorf("validate settings: invalid addressing style: %s", s.AddressingStyle)
	}
	if s.MaxAge <= 0 {
		return errors.New("validate settings: max age must be positive")
	}
	if s.MaxPoolConnections <= 0 {
		return errors.New("validate settings: max pool connections must be positive")
	}
	if s.ConnectTimeout <= 0 {
		return errors.New("validate settings: connect timeout must be positive")
	}
	return nil
}
