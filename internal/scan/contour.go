package scan

import (
	"math"
	"slices"
)

// fpoint is a float coordinate used by contour approximation and warping.
type fpoint struct {
	X, Y float64
}

// traceContours collects connected edge components from a binary edge map.
// Components shorter than minLength pixels are discarded.
func traceContours(edges []uint8, w, h, minLength int) [][]fpoint {
	visited := make([]bool, w*h)
	var contours [][]fpoint
	stack := make([]int, 0, 1024)

	for start, v := range edges {
		if v == 0 || visited[start] {
			continue
		}
		stack = append(stack[:0], start)
		visited[start] = true
		component := make([]fpoint, 0, 64)
		for len(stack) > 0 {
			idx := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			x := idx % w
			y := idx / w
			component = append(component, fpoint{X: float64(x), Y: float64(y)})
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					if dx == 0 && dy == 0 {
						continue
					}
					nx, ny := x+dx, y+dy
					if nx < 0 || nx >= w || ny < 0 || ny >= h {
						continue
					}
					ni := ny*w + nx
					if edges[ni] != 0 && !visited[ni] {
						visited[ni] = true
						stack = append(stack, ni)
					}
				}
			}
		}
		if len(component) >= minLength {
			contours = append(contours, orderByAngle(component))
		}
	}
	return contours
}

// orderByAngle sorts component pixels around their centroid so the flood-fill
// point soup becomes a closed polygon suitable for approximation.
func orderByAngle(pts []fpoint) []fpoint {
	var cx, cy float64
	for _, p := range pts {
		cx += p.X
		cy += p.Y
	}
	cx /= float64(len(pts))
	cy /= float64(len(pts))

	sorted := make([]fpoint, len(pts))
	copy(sorted, pts)
	slices.SortFunc(sorted, func(a, b fpoint) int {
		aa := math.Atan2(a.Y-cy, a.X-cx)
		ab := math.Atan2(b.Y-cy, b.X-cx)
		switch {
		case aa < ab:
			return -1
		case aa > ab:
			return 1
		default:
			return 0
		}
	})
	return sorted
}

// perimeter sums edge lengths of a closed polyline.
func perimeter(pts []fpoint) float64 {
	var sum float64
	for i := range pts {
		j := (i + 1) % len(pts)
		sum += math.Hypot(pts[j].X-pts[i].X, pts[j].Y-pts[i].Y)
	}
	return sum
}

// pointLineDistance is the perpendicular distance from p to segment (a,b).
func pointLineDistance(p, a, b fpoint) float64 {
	dx := b.X - a.X
	dy := b.Y - a.Y
	norm := math.Hypot(dx, dy)
	if norm == 0 {
		return math.Hypot(p.X-a.X, p.Y-a.Y)
	}
	return math.Abs(dy*p.X-dx*p.Y+b.X*a.Y-b.Y*a.X) / norm
}

// douglasPeucker simplifies a polyline by iterative farthest-point splitting.
func douglasPeucker(pts []fpoint, eps float64) []fpoint {
	if len(pts) < 3 {
		return pts
	}
	var maxDist float64
	maxIdx := 0
	last := len(pts) - 1
	for i := 1; i < last; i++ {
		d := pointLineDistance(pts[i], pts[0], pts[last])
		if d > maxDist {
			maxDist = d
			maxIdx = i
		}
	}
	if maxDist <= eps {
		return []fpoint{pts[0], pts[last]}
	}
	left := douglasPeucker(pts[:maxIdx+1], eps)
	right := douglasPeucker(pts[maxIdx:], eps)
	return append(left[:len(left)-1], right...)
}

// approxPolygon simplifies a closed contour with tolerance proportional to
// its perimeter, returning the resulting vertex set.
func approxPolygon(contour []fpoint, tolerance float64) []fpoint {
	eps := perimeter(contour) * tolerance
	// close the ring so the endpoints are considered
	closed := append(append([]fpoint{}, contour...), contour[0])
	approx := douglasPeucker(closed, eps)
	// drop the duplicated closing vertex
	if len(approx) > 1 {
		a, b := approx[0], approx[len(approx)-1]
		if a.X == b.X && a.Y == b.Y {
			approx = approx[:len(approx)-1]
		}
	}
	return approx
}
