package domain

import "errors"

var (
	ErrArtifactNotFound    = errors.New("artifact not found")
	ErrProviderUnavailable = errors.New("image provider unavailable")
	ErrEmptyCorpus         = errors.New("real image corpus is empty")
	ErrNoActiveRound       = errors.New("no active round")
	ErrSessionClosed       = errors.New("session closed")
	ErrInvalidLabel        = errors.New("invalid label")
	ErrInvalidRounds       = errors.New("total rounds must be positive")
)
