package artifact

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/pscheid92/spotthefake/internal/domain"
)

// maxIDAttempts bounds the retry loop when a fresh id collides with a live one.
const maxIDAttempts = 4

var idPattern = regexp.MustCompile(`^[0-9a-f]{32}$`)

// NewID returns a random 128-bit (uuid v4) id rendered as 32 lowercase hex chars.
func NewID() (domain.ArtifactID, error) {
	u, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("failed to generate artifact id: %w", err)
	}
	return domain.ArtifactID(strings.ReplaceAll(u.String(), "-", "")), nil
}

// ValidID reports whether id has the shape NewID produces. Stores use it to
// reject client-supplied ids before touching storage.
func ValidID(id domain.ArtifactID) bool {
	return idPattern.MatchString(string(id))
}

// allocate draws ids until taken reports a free one.
func allocate(taken func(domain.ArtifactID) bool) (domain.ArtifactID, error) {
	for range maxIDAttempts {
		id, err := NewID()
		if err != nil {
			return "", err
		}
		if !taken(id) {
			return id, nil
		}
	}
	return "", fmt.Errorf("failed to allocate a unique artifact id after %d attempts", maxIDAttempts)
}
