package imagery

import (
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDegrader_OutputSize(t *testing.T) {
	d := NewDegrader(400)

	out := d.Degrade(gradientImage(300))

	assert.Equal(t, 400, out.Bounds().Dx())
	assert.Equal(t, 400, out.Bounds().Dy())
}

func TestDegrader_IsDeterministic(t *testing.T) {
	d := NewDegrader(128)
	src := gradientImage(256)

	first := imaging.Clone(d.Degrade(src))
	second := imaging.Clone(d.Degrade(src))

	require.Equal(t, first.Bounds(), second.Bounds())
	assert.Equal(t, first.Pix, second.Pix)
}

func TestDegrader_AddsNoise(t *testing.T) {
	d := NewDegrader(64)
	src := solidImage(64, gradientImage(1).NRGBAAt(0, 0))

	out := imaging.Clone(d.Degrade(src))

	distinct := make(map[uint8]struct{})
	for i := 0; i < len(out.Pix); i += 4 {
		distinct[out.Pix[i+2]] = struct{}{}
	}
	assert.Greater(t, len(distinct), 1, "a flat image should pick up noise")
}

func TestDegrader_LeavesSourceUntouched(t *testing.T) {
	d := NewDegrader(64)
	src := gradientImage(64)
	before := append([]uint8(nil), src.Pix...)

	d.Degrade(src)

	assert.Equal(t, before, src.Pix)
}
