package scan

import (
	"image"
	"math"
)

// sobel computes gradient magnitude and direction (radians) per pixel.
func sobel(src *image.Gray) (mag []float64, dir []float64, w, h int) {
	w = src.Rect.Dx()
	h = src.Rect.Dy()
	mag = make([]float64, w*h)
	dir = make([]float64, w*h)

	at := func(x, y int) float64 {
		return float64(src.GrayAt(src.Rect.Min.X+clampInt(x, 0, w-1), src.Rect.Min.Y+clampInt(y, 0, h-1)).Y)
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			gx := -at(x-1, y-1) + at(x+1, y-1) +
				-2*at(x-1, y) + 2*at(x+1, y) +
				-at(x-1, y+1) + at(x+1, y+1)
			gy := -at(x-1, y-1) - 2*at(x, y-1) - at(x+1, y-1) +
				at(x-1, y+1) + 2*at(x, y+1) + at(x+1, y+1)
			mag[y*w+x] = math.Hypot(gx, gy)
			dir[y*w+x] = math.Atan2(gy, gx)
		}
	}
	return mag, dir, w, h
}

// nonMaxSuppress thins edges to single-pixel ridges along gradient direction.
func nonMaxSuppress(mag, dir []float64, w, h int) []float64 {
	out := make([]float64, w*h)
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			m := mag[y*w+x]
			if m == 0 {
				continue
			}
			// quantize direction to one of 4 neighbor axes
			angle := dir[y*w+x] * 180 / math.Pi
			if angle < 0 {
				angle += 180
			}
			var a, b float64
			switch {
			case angle < 22.5 || angle >= 157.5: // horizontal gradient
				a, b = mag[y*w+x-1], mag[y*w+x+1]
			case angle < 67.5: // diagonal /
				a, b = mag[(y-1)*w+x+1], mag[(y+1)*w+x-1]
			case angle < 112.5: // vertical gradient
				a, b = mag[(y-1)*w+x], mag[(y+1)*w+x]
			default: // diagonal \
				a, b = mag[(y-1)*w+x-1], mag[(y+1)*w+x+1]
			}
			if m >= a && m >= b {
				out[y*w+x] = m
			}
		}
	}
	return out
}

const (
	edgeNone   = 0
	edgeWeak   = 1
	edgeStrong = 2
)

// hysteresis applies double thresholding and links weak edges connected to
// strong ones (stack-based flood).
func hysteresis(mag []float64, w, h int, low, high float64) []uint8 {
	cls := make([]uint8, w*h)
	for i, m := range mag {
		switch {
		case m >= high:
			cls[i] = edgeStrong
		case m >= low:
			cls[i] = edgeWeak
		}
	}

	out := make([]uint8, w*h)
	stack := make([]int, 0, 1024)
	for i, c := range cls {
		if c == edgeStrong && out[i] == 0 {
			stack = append(stack, i)
			out[i] = 255
			for len(stack) > 0 {
				idx := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				x := idx % w
				y := idx / w
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
						if cls[ni] != edgeNone && out[ni] == 0 {
							out[ni] = 255
							stack = append(stack, ni)
						}
					}
				}
			}
		}
	}
	return out
}

// cannyEdges runs the classic pipeline: blur, gradient, NMS, hysteresis.
// Thresholds are derived from the mean gradient magnitude so the detector
// adapts to contrast without per-image tuning.
func cannyEdges(src *image.Gray, sigma float64) ([]uint8, int, int) {
	blurred := gaussianBlur(src, sigma)
	mag, dir, w, h := sobel(blurred)
	thin := nonMaxSuppress(mag, dir, w, h)

	var sum float64
	var n int
	for _, m := range thin {
		if m > 0 {
			sum += m
			n++
		}
	}
	mean := 0.0
	if n > 0 {
		mean = sum / float64(n)
	}
	high := mean * 1.5
	low := high * 0.4
	if high == 0 {
		high, low = 1, 0.4
	}

	return hysteresis(thin, w, h, low, high), w, h
}
