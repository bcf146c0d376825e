package scan

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSolveHomographyIdentityMapping(t *testing.T) {
	q := Quad{{0, 0}, {99, 0}, {99, 99}, {0, 99}}
	m, err := solveHomography(q, q)
	require.NoError(t, err)

	for _, p := range []fpoint{{0, 0}, {99, 0}, {50, 50}, {10, 80}} {
		x, y := m.Apply(p.X, p.Y)
		assert.InDelta(t, p.X, x, 1e-6)
		assert.InDelta(t, p.Y, y, 1e-6)
	}
}

func TestSolveHomographyMapsCorners(t *testing.T) {
	src := Quad{{12, 8}, {88, 15}, {92, 130}, {5, 120}}
	dst := Quad{{0, 0}, {80, 0}, {80, 120}, {0, 120}}
	m, err := solveHomography(src, dst)
	require.NoError(t, err)

	for i := range src {
		x, y := m.Apply(src[i].X, src[i].Y)
		assert.InDelta(t, dst[i].X, x, 1e-6)
		assert.InDelta(t, dst[i].Y, y, 1e-6)
	}
}

func TestSolveHomographyDegenerate(t *testing.T) {
	// three collinear corners cannot define a perspective mapping
	src := Quad{{0, 0}, {10, 0}, {20, 0}, {0, 10}}
	dst := Quad{{0, 0}, {80, 0}, {80, 120}, {0, 120}}
	_, err := solveHomography(src, dst)
	assert.Error(t, err)
}

func TestWarpPerspectiveAxisAligned(t *testing.T) {
	// source: white image with a black square at (20..39, 30..49)
	src := image.NewGray(image.Rect(0, 0, 100, 100))
	for y := 0; y < 100; y++ {
		for x := 0; x < 100; x++ {
			src.SetGray(x, y, color.Gray{Y: 255})
		}
	}
	for y := 30; y < 50; y++ {
		for x := 20; x < 40; x++ {
			src.SetGray(x, y, color.Gray{Y: 0})
		}
	}

	quad := Quad{{20, 30}, {39, 30}, {39, 49}, {20, 49}}
	out, err := warpPerspective(src, quad, 20, 20)
	require.NoError(t, err)
	assert.Equal(t, 20, out.Rect.Dx())
	assert.Equal(t, 20, out.Rect.Dy())

	// interior of the warped output is the black square
	assert.Less(t, out.GrayAt(10, 10).Y, uint8(10))
}

func TestWarpPerspectiveOutOfBoundsIsWhite(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 50, 50)) // all black
	// quad reaching outside the source
	quad := Quad{{-20, -20}, {30, -20}, {30, 30}, {-20, 30}}
	out, err := warpPerspective(src, quad, 50, 50)
	require.NoError(t, err)

	// the top-left region maps outside the source and must be filled white
	assert.Equal(t, uint8(255), out.GrayAt(2, 2).Y)
}
