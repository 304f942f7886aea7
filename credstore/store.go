// Package credstore provides CredentialSource implementations that map
// storage schemes to their access credentials.
package credstore

import (
	"github.com/bucketry/bucketry/s3"
)

// Entry is one scheme's credential set as it appears in configuration.
type Entry struct {
	AccessKeyID     string `json:"access_key_id"     mapstructure:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key" mapstructure:"secret_access_key"`
	SessionToken    string `json:"session_token"     mapstructure:"session_token"`
}

// Config holds the credential sources to load.
type Config struct {
	Inline map[string]Entry `mapstructure:"inline"` // Per-scheme credentials from config
	File   string           `mapstructure:"file"`   // Path to JSON file with per-scheme credentials
}

// NewStore creates a CredentialSource from the given configuration. Inline
// and file credentials are merged into a single store; file entries take
// precedence over inline entries for the same scheme.
func NewStore(cfg Config) (s3.CredentialSource, error) {
	creds := make(map[string]s3.Credentials)

	for scheme, e := range cfg.Inline {
		if scheme == "" || e.AccessKeyID == "" || e.SecretAccessKey == "" {
			continue
		}
		creds[scheme] = s3.Credentials{
			AccessKeyID:     e.AccessKeyID,
			SecretAccessKey: e.SecretAccessKey,
			SessionToken:    e.SessionToken,
		}
	}

	if cfg.File != "" {
		fileCreds, err := LoadFromFile(cfg.File)
		if err != nil {
			return nil, err
		}
		for scheme, c := range fileCreds {
			creds[scheme] = c
		}
	}

	return NewMapStore(creds), nil
}
