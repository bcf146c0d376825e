package scan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderCorners(t *testing.T) {
	tests := []struct {
		name string
		in   Quad
	}{
		{
			name: "already ordered",
			in:   Quad{{10, 10}, {90, 10}, {90, 140}, {10, 140}},
		},
		{
			name: "shuffled",
			in:   Quad{{90, 140}, {10, 10}, {10, 140}, {90, 10}},
		},
		{
			name: "reverse",
			in:   Quad{{10, 140}, {90, 140}, {90, 10}, {10, 10}},
		},
	}
	want := Quad{{10, 10}, {90, 10}, {90, 140}, {10, 140}}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, want, tt.in.OrderCorners())
		})
	}
}

func TestOrderCornersSkewed(t *testing.T) {
	// a tilted quadrilateral still resolves by corner role
	q := Quad{{95, 20}, {15, 5}, {5, 130}, {100, 150}}
	got := q.OrderCorners()
	assert.Equal(t, fpoint{15, 5}, got[0])
	assert.Equal(t, fpoint{95, 20}, got[1])
	assert.Equal(t, fpoint{100, 150}, got[2])
	assert.Equal(t, fpoint{5, 130}, got[3])
}

func TestQuadArea(t *testing.T) {
	q := Quad{{0, 0}, {100, 0}, {100, 50}, {0, 50}}
	assert.InDelta(t, 5000.0, q.Area(), 1e-9)
}

func TestTargetSize(t *testing.T) {
	q := Quad{{0, 0}, {80, 0}, {80, 120}, {0, 120}}
	w, h := q.TargetSize()
	assert.Equal(t, 80, w)
	assert.Equal(t, 120, h)

	// longer opposite edge wins
	q = Quad{{0, 0}, {80, 0}, {100, 120}, {0, 120}}
	w, _ = q.TargetSize()
	assert.Equal(t, 100, w)
}

func TestScoreQuadRejectsOutsideBand(t *testing.T) {
	tiny := Quad{{0, 0}, {5, 0}, {5, 7}, {0, 7}}
	assert.Zero(t, scoreQuad(tiny, 100, 100, 0.1, 0.9))

	huge := Quad{{0, 0}, {99, 0}, {99, 99}, {0, 99}}
	assert.Zero(t, scoreQuad(huge, 100, 100, 0.1, 0.9))
}

func TestScoreQuadPrefersDocumentAspect(t *testing.T) {
	doc := Quad{{10, 10}, {60, 10}, {60, 81}, {10, 81}} // ~1.414 aspect
	square := Quad{{10, 10}, {70, 10}, {70, 70}, {10, 70}}
	docScore := scoreQuad(doc, 100, 100, 0.1, 0.9)
	squareScore := scoreQuad(square, 100, 100, 0.1, 0.9)
	require.Positive(t, docScore)
	require.Positive(t, squareScore)

	// normalize away the area factor so only aspect closeness differs
	docNorm := docScore / (doc.Area() / 10000)
	squareNorm := squareScore / (square.Area() / 10000)
	assert.Greater(t, docNorm, squareNorm)
}

func TestBestQuadFillsFrame(t *testing.T) {
	// a rectangle covering 96% of the image is above the acceptance band
	frame := []fpoint{{1, 1}, {98, 1}, {98, 98}, {1, 98}}
	_, ok, fillsFrame := bestQuad([][]fpoint{frame}, 100, 100, 0.02, 0.1, 0.9)
	assert.False(t, ok)
	assert.True(t, fillsFrame)
}
