package bucketry

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
)

// ExistsFunc reports whether an object already exists under a candidate key.
// It is supplied by the backend and may block on I/O, so it takes a context.
type ExistsFunc func(ctx context.Context, key string) (bool, error)

// maxNameAttempts bounds the collision-avoidance loop. The token space is
// large enough that hitting this cap means the existence check is lying
// (or an adversary owns the namespace), not that we were unlucky.
const maxNameAttempts = 100

// ResolveName decides the final key for a new upload. With overwrite enabled
// the candidate is returned unchanged and a later write replaces any earlier
// object (last write wins). Otherwise candidates are probed through exists
// and, on collision, a short random token is inserted before the extension
// until a free name is found or the retry budget runs out.
//
// Two concurrent writers may both see a candidate as free before either
// writes; that race is accepted, the backend offers no lock to close it.
func ResolveName(ctx context.Context, candidate string, overwrite bool, exists ExistsFunc) (string, error) {
	if overwrite {
		return candidate, nil
	}

	name := candidate
	for attempt := 0; attempt < maxNameAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", fmt.Errorf("resolve name %q: %w", candidate, err)
		}

		taken, err := exists(ctx, name)
		if err != nil {
			return "", fmt.Errorf("resolve name %q: %w", candidate, err)
		}
		if !taken {
			return name, nil
		}

		name = alternativeName(candidate, nameToken())
	}

	return "", fmt.Errorf("resolve name %q: %w", candidate, ErrNameExhausted)
}

// alternativeName inserts a disambiguating token between the stem and the
// extension: "docs/a.txt" + "f3a9c12" -> "docs/a_f3a9c12.txt".
func alternativeName(name, token string) string {
	ext := path.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	return stem + "_" + token + ext
}

// nameToken returns a short random token. Seven hex characters of a random
// UUID give over 2^28 possibilities per attempt, plenty for a bounded loop.
func nameToken() string {
	u := uuid.New()
	return strings.ReplaceAll(u.String(), "-", "")[:7]
}
