package scan

import (
	"math"
)

// Quad is a document quadrilateral candidate, corners in arbitrary order
// until OrderCorners is applied.
type Quad [4]fpoint

// quadArea via the shoelace formula.
func (q Quad) Area() float64 {
	var sum float64
	for i := 0; i < 4; i++ {
		j := (i + 1) % 4
		sum += q[i].X*q[j].Y - q[j].X*q[i].Y
	}
	return math.Abs(sum) / 2
}

// OrderCorners returns corners as top-left, top-right, bottom-right,
// bottom-left using the coordinate-sum / coordinate-difference rule.
func (q Quad) OrderCorners() Quad {
	var ordered Quad
	minSum, maxSum := math.Inf(1), math.Inf(-1)
	minDiff, maxDiff := math.Inf(1), math.Inf(-1)
	for _, p := range q {
		sum := p.X + p.Y
		diff := p.Y - p.X
		if sum < minSum {
			minSum = sum
			ordered[0] = p // top-left
		}
		if sum > maxSum {
			maxSum = sum
			ordered[2] = p // bottom-right
		}
		if diff < minDiff {
			minDiff = diff
			ordered[1] = p // top-right
		}
		if diff > maxDiff {
			maxDiff = diff
			ordered[3] = p // bottom-left
		}
	}
	return ordered
}

// TargetSize derives the rectified width/height from the longer of each
// opposite-edge pair. Corners must already be ordered.
func (q Quad) TargetSize() (int, int) {
	top := math.Hypot(q[1].X-q[0].X, q[1].Y-q[0].Y)
	bottom := math.Hypot(q[2].X-q[3].X, q[2].Y-q[3].Y)
	left := math.Hypot(q[3].X-q[0].X, q[3].Y-q[0].Y)
	right := math.Hypot(q[2].X-q[1].X, q[2].Y-q[1].Y)

	w := int(math.Round(math.Max(top, bottom)))
	h := int(math.Round(math.Max(left, right)))
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return w, h
}

// standard document aspect ratio (ISO A-series), height/width
const documentAspect = 1.414

// scoreQuad rates a candidate by area ratio to the full image and closeness
// to a standard document aspect ratio. A zero score means "reject" (outside
// the [minArea, maxArea] band the candidate is treated as no-crop-needed).
func scoreQuad(q Quad, imgW, imgH int, minArea, maxArea float64) float64 {
	areaRatio := q.Area() / float64(imgW*imgH)
	if areaRatio < minArea || areaRatio > maxArea {
		return 0
	}

	ordered := q.OrderCorners()
	w, h := ordered.TargetSize()
	aspect := float64(h) / float64(w)
	if aspect < 1 {
		aspect = 1 / aspect
	}
	// closeness in (0,1], 1 when aspect matches exactly
	closeness := 1.0 / (1.0 + math.Abs(aspect-documentAspect))

	return areaRatio * closeness
}

// bestQuad selects the highest-scoring 4-vertex polygon from the contour set.
// fillsFrame reports that a quadrilateral was found but covers more of the
// image than the acceptance band allows, meaning no crop is needed at all.
func bestQuad(contours [][]fpoint, imgW, imgH int, tolerance, minArea, maxArea float64) (best Quad, ok, fillsFrame bool) {
	bestScore := 0.0
	for _, c := range contours {
		approx := approxPolygon(c, tolerance)
		if len(approx) != 4 {
			continue
		}
		q := Quad{approx[0], approx[1], approx[2], approx[3]}
		if q.Area()/float64(imgW*imgH) > maxArea {
			fillsFrame = true
			continue
		}
		if s := scoreQuad(q, imgW, imgH, minArea, maxArea); s > bestScore {
			bestScore = s
			best = q.OrderCorners()
		}
	}
	return best, bestScore > 0, fillsFrame
}
