package imagery

import (
	"hash/fnv"
	"image"
	"math/rand/v2"

	"github.com/disintegration/imaging"
	"github.com/pscheid92/spotthefake/internal/domain"
)

const (
	workSize   = 64
	noiseSigma = 8.0
	blurSigma  = 0.9
)

// Degrader brings a real photo down to the fidelity of a 64px generator
// sample: bicubic downscale, gaussian pixel noise, a light blur, and a blocky
// nearest-neighbour upscale to the display size.
type Degrader struct {
	displaySize int
}

var _ domain.Degrader = (*Degrader)(nil)

func NewDegrader(displaySize int) *Degrader {
	return &Degrader{displaySize: displaySize}
}

// Degrade is deterministic: the noise generator is seeded from the
// downscaled pixels.
func (d *Degrader) Degrade(src image.Image) image.Image {
	small := imaging.Resize(src, workSize, workSize, imaging.CatmullRom)
	addNoise(small, noiseSigma)
	blurred := imaging.Blur(small, blurSigma)
	return imaging.Resize(blurred, d.displaySize, d.displaySize, imaging.NearestNeighbor)
}

func addNoise(img *image.NRGBA, sigma float64) {
	h := fnv.New64a()
	_, _ = h.Write(img.Pix)
	seed := h.Sum64()
	rng := rand.New(rand.NewPCG(seed, seed>>1))

	for i := range img.Pix {
		if i%4 == 3 {
			continue // alpha
		}
		v := float64(img.Pix[i]) + rng.NormFloat64()*sigma
		img.Pix[i] = clampByte(v)
	}
}

func clampByte(v float64) uint8 {
	switch {
	case v < 0:
		return 0
	case v > 255:
		return 255
	default:
		return uint8(v + 0.5)
	}
}
