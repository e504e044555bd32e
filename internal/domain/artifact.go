package domain

import (
	"context"
	"fmt"
	"strings"
)

// Kind is the ground-truth label of an image: drawn from the real corpus or
// produced by the oracle.
type Kind string

const (
	KindReal Kind = "real"
	KindFake Kind = "fake"
)

// KindOf maps the boolean ground truth to a Kind.
func KindOf(isFake bool) Kind {
	if isFake {
		return KindFake
	}
	return KindReal
}

// ParseKind parses a client-supplied guess ("real" or "fake", case-insensitive).
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case KindReal:
		return KindReal, nil
	case KindFake:
		return KindFake, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidLabel, s)
	}
}

// ArtifactID is an opaque, unguessable handle into an ArtifactStore.
// It never encodes the artifact's Kind.
type ArtifactID string

func (id ArtifactID) String() string { return string(id) }

// ArtifactStore owns the shared namespace of temporary image artifacts.
// Implementations must be safe for concurrent use by many sessions.
type ArtifactStore interface {
	// Create persists payload under a fresh id and registers it Live.
	Create(ctx context.Context, kind Kind, payload []byte) (ArtifactID, error)
	// Read returns the payload of a Live artifact, or ErrArtifactNotFound.
	Read(ctx context.Context, id ArtifactID) ([]byte, error)
	// Release deletes the artifact. Idempotent; failures are logged, never returned.
	Release(ctx context.Context, id ArtifactID)
	// SweepAll deletes every artifact in the namespace, including orphans left
	// behind by a previous process.
	SweepAll(ctx context.Context) (int, error)
}
