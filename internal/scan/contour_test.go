package scan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDouglasPeuckerCollinear(t *testing.T) {
	pts := []fpoint{{0, 0}, {1, 0.01}, {2, 0}, {3, 0.02}, {4, 0}}
	got := douglasPeucker(pts, 0.5)
	assert.Equal(t, []fpoint{{0, 0}, {4, 0}}, got)
}

func TestDouglasPeuckerKeepsCorner(t *testing.T) {
	pts := []fpoint{{0, 0}, {5, 0}, {10, 0}, {10, 5}, {10, 10}}
	got := douglasPeucker(pts, 0.5)
	require.Len(t, got, 3)
	assert.Equal(t, fpoint{0, 0}, got[0])
	assert.Equal(t, fpoint{10, 0}, got[1])
	assert.Equal(t, fpoint{10, 10}, got[2])
}

func TestApproxPolygonRectangle(t *testing.T) {
	// a dense rectangle outline reduces to its 4 corners
	var contour []fpoint
	for x := 0; x <= 60; x += 2 {
		contour = append(contour, fpoint{float64(x), 0})
	}
	for y := 2; y <= 90; y += 2 {
		contour = append(contour, fpoint{60, float64(y)})
	}
	for x := 58; x >= 0; x -= 2 {
		contour = append(contour, fpoint{float64(x), 90})
	}
	for y := 88; y >= 2; y -= 2 {
		contour = append(contour, fpoint{0, float64(y)})
	}

	approx := approxPolygon(contour, 0.02)
	assert.Len(t, approx, 4)
}

func TestTraceContoursFiltersShort(t *testing.T) {
	w, h := 20, 20
	edges := make([]uint8, w*h)
	// 12-pixel horizontal run
	for x := 2; x < 14; x++ {
		edges[5*w+x] = 1
	}
	// isolated 2-pixel blip
	edges[15*w+3] = 1
	edges[15*w+4] = 1

	contours := traceContours(edges, w, h, 10)
	require.Len(t, contours, 1)
	assert.Len(t, contours[0], 12)
}

func TestPointLineDistance(t *testing.T) {
	d := pointLineDistance(fpoint{0, 5}, fpoint{-10, 0}, fpoint{10, 0})
	assert.InDelta(t, 5.0, d, 1e-9)
}
