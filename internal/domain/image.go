package domain

import (
	"context"
	"image"
)

// Oracle is the image-synthesis model: randomness in, pixels out.
// It may be slow and it may fail.
type Oracle interface {
	Synthesize(ctx context.Context, seed int64) (image.Image, error)
}

// Degrader makes a real photo look like early synthetic output.
// Deterministic for a given input.
type Degrader interface {
	Degrade(src image.Image) image.Image
}

// Corpus is the pool of real source images.
type Corpus interface {
	// PickRandom returns one image chosen with intn, or ErrEmptyCorpus.
	PickRandom(ctx context.Context, intn func(n int) int) (image.Image, error)
	// Size returns the number of images currently in the corpus.
	Size(ctx context.Context) (int, error)
}

// Random is the injected randomness source driving the game. Seeded
// implementations make a whole game replayable.
type Random interface {
	Bool() bool
	IntN(n int) int
	Int64() int64
}
