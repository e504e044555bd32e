package imagery

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/require"
)

type mockOracle struct {
	synthesizeFn func(ctx context.Context, seed int64) (image.Image, error)
}

func (m *mockOracle) Synthesize(ctx context.Context, seed int64) (image.Image, error) {
	if m.synthesizeFn != nil {
		return m.synthesizeFn(ctx, seed)
	}
	return solidImage(64, color.NRGBA{R: 200, A: 255}), nil
}

func solidImage(size int, c color.NRGBA) *image.NRGBA {
	return imaging.New(size, size, c)
}

func gradientImage(size int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	for y := range size {
		for x := range size {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 255 / size), G: uint8(y * 255 / size), B: 128, A: 255})
		}
	}
	return img
}

func writeImage(t *testing.T, dir, name string, img image.Image) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, imaging.Save(img, path))
	return path
}

func bytesReader(b []byte) *bytes.Reader {
	return bytes.NewReader(b)
}
