package imagery

import (
	"math/rand/v2"
	"sync"

	"github.com/pscheid92/spotthefake/internal/domain"
)

// LockedRand is a goroutine-safe domain.Random over a PCG source.
type LockedRand struct {
	mu  sync.Mutex
	rng *rand.Rand
}

var _ domain.Random = (*LockedRand)(nil)

// NewRand returns a source seeded with seed. A zero seed picks a random one,
// so only an explicit seed makes a game replayable.
func NewRand(seed uint64) *LockedRand {
	if seed == 0 {
		seed = rand.Uint64()
	}
	return &LockedRand{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (r *LockedRand) Bool() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.IntN(2) == 1
}

func (r *LockedRand) IntN(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.IntN(n)
}

func (r *LockedRand) Int64() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Int64()
}
