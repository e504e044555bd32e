package imagery

import (
	"context"
	"image"
	"image/color"
	"math"
	"math/rand/v2"

	"github.com/disintegration/imaging"
	"github.com/pscheid92/spotthefake/internal/domain"
)

const sampleSize = 64

// LocalOracle draws procedural 64x64 flowers. It stands in for the model
// server when none is configured; the same seed always yields the same image.
type LocalOracle struct{}

var _ domain.Oracle = LocalOracle{}

func (LocalOracle) Synthesize(ctx context.Context, seed int64) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewPCG(uint64(seed), uint64(seed)^0x5851f42d4c957f2d))
	petals := 5 + rng.IntN(4)
	rotation := rng.Float64() * 2 * math.Pi
	petal := randomColor(rng, 120)
	center := randomColor(rng, 60)
	sky := randomColor(rng, 30)
	ground := randomColor(rng, 30)

	const mid = float64(sampleSize) / 2
	outer := mid * (0.6 + 0.3*rng.Float64())
	inner := outer * (0.2 + 0.1*rng.Float64())

	img := image.NewNRGBA(image.Rect(0, 0, sampleSize, sampleSize))
	for y := range sampleSize {
		for x := range sampleSize {
			dx := float64(x) + 0.5 - mid
			dy := float64(y) + 0.5 - mid
			r := math.Hypot(dx, dy)
			theta := math.Atan2(dy, dx) + rotation
			edge := outer * (0.55 + 0.45*math.Abs(math.Cos(float64(petals)*theta/2)))

			var c color.NRGBA
			switch {
			case r < inner:
				c = center
			case r < edge:
				c = lerpColor(petal, center, 0.35*(1-r/edge))
			default:
				c = lerpColor(sky, ground, float64(y)/sampleSize)
			}
			img.SetNRGBA(x, y, jitter(rng, c, 6))
		}
	}
	return imaging.Blur(img, 0.6), nil
}

func randomColor(rng *rand.Rand, floor int) color.NRGBA {
	channel := func() uint8 { return uint8(floor + rng.IntN(256-floor)) }
	return color.NRGBA{R: channel(), G: channel(), B: channel(), A: 255}
}

func lerpColor(a, b color.NRGBA, t float64) color.NRGBA {
	mix := func(x, y uint8) uint8 { return clampByte(float64(x) + (float64(y)-float64(x))*t) }
	return color.NRGBA{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B), A: 255}
}

func jitter(rng *rand.Rand, c color.NRGBA, sigma float64) color.NRGBA {
	n := func(v uint8) uint8 { return clampByte(float64(v) + rng.NormFloat64()*sigma) }
	return color.NRGBA{R: n(c.R), G: n(c.G), B: n(c.B), A: 255}
}
