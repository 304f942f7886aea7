package credstore

import (
	"github.com/bucketry/bucketry/s3"
)

// MapStore resolves scheme credentials from an in-memory map. Suitable for
// configuration file-based credential storage.
type MapStore struct {
	creds map[string]s3.Credentials
}

// NewMapStore creates a map-based store from the given scheme to credential
// mapping.
func NewMapStore(creds map[string]s3.Credentials) *MapStore {
	return &MapStore{creds: creds}
}

// Lookup returns the credentials for scheme. The second return reports
// whether the scheme has an entry; a miss means the caller should fall back
// to its default credentials.
func (s *MapStore) Lookup(scheme string) (s3.Credentials, bool) {
	c, found := s.creds[scheme]
	return c, found
}
