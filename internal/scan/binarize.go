package scan

import (
	"image"
	"image/color"
	"math"
	"sort"
)

const (
	sauvolaWindow = 31
	sauvolaK      = 0.2
	sauvolaR      = 128.0
	// windows whose stddev falls below this are considered low-contrast
	// (background) and are not binarized aggressively
	minWindowStddev = 8.0
)

// sauvolaBinarize thresholds each pixel against local mean/stddev statistics
// computed over a sliding window via integral images:
//
//	T = mean * (1 + k*(stddev/R - 1))
//
// Low-contrast windows are clamped to white to avoid speckling empty paper.
func sauvolaBinarize(src *image.Gray) *image.Gray {
	w := src.Rect.Dx()
	h := src.Rect.Dy()

	// integral and squared-integral with a 1-pixel zero border
	integral := make([]float64, (w+1)*(h+1))
	integralSq := make([]float64, (w+1)*(h+1))
	for y := 1; y <= h; y++ {
		var rowSum, rowSumSq float64
		for x := 1; x <= w; x++ {
			v := float64(src.GrayAt(src.Rect.Min.X+x-1, src.Rect.Min.Y+y-1).Y)
			rowSum += v
			rowSumSq += v * v
			integral[y*(w+1)+x] = integral[(y-1)*(w+1)+x] + rowSum
			integralSq[y*(w+1)+x] = integralSq[(y-1)*(w+1)+x] + rowSumSq
		}
	}

	half := sauvolaWindow / 2
	dst := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		y0 := clampInt(y-half, 0, h-1)
		y1 := clampInt(y+half, 0, h-1)
		for x := 0; x < w; x++ {
			x0 := clampInt(x-half, 0, w-1)
			x1 := clampInt(x+half, 0, w-1)
			area := float64((x1 - x0 + 1) * (y1 - y0 + 1))

			sum := integral[(y1+1)*(w+1)+x1+1] - integral[y0*(w+1)+x1+1] -
				integral[(y1+1)*(w+1)+x0] + integral[y0*(w+1)+x0]
			sumSq := integralSq[(y1+1)*(w+1)+x1+1] - integralSq[y0*(w+1)+x1+1] -
				integralSq[(y1+1)*(w+1)+x0] + integralSq[y0*(w+1)+x0]

			mean := sum / area
			variance := sumSq/area - mean*mean
			if variance < 0 {
				variance = 0
			}
			stddev := math.Sqrt(variance)

			v := src.GrayAt(src.Rect.Min.X+x, src.Rect.Min.Y+y).Y
			if stddev < minWindowStddev {
				// low-contrast window: keep bright regions white, only very
				// dark pixels become ink
				if float64(v) < mean*0.5 {
					dst.SetGray(x, y, color.Gray{Y: 0})
				} else {
					dst.SetGray(x, y, color.Gray{Y: 255})
				}
				continue
			}

			threshold := mean * (1 + sauvolaK*(stddev/sauvolaR-1))
			if float64(v) < threshold {
				dst.SetGray(x, y, color.Gray{Y: 0})
			} else {
				dst.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	return dst
}

// contrastStretch remaps the 2nd..98th percentile range onto [0,255].
func contrastStretch(src *image.Gray) *image.Gray {
	w := src.Rect.Dx()
	h := src.Rect.Dy()

	var hist [256]int
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			hist[src.GrayAt(src.Rect.Min.X+x, src.Rect.Min.Y+y).Y]++
		}
	}
	total := w * h
	lowCut := total * 2 / 100
	highCut := total * 98 / 100

	lo, hi := 0, 255
	cum := 0
	for i := 0; i < 256; i++ {
		cum += hist[i]
		if cum >= lowCut {
			lo = i
			break
		}
	}
	cum = 0
	for i := 0; i < 256; i++ {
		cum += hist[i]
		if cum >= highCut {
			hi = i
			break
		}
	}
	if hi <= lo {
		return src
	}

	scale := 255.0 / float64(hi-lo)
	dst := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := float64(src.GrayAt(src.Rect.Min.X+x, src.Rect.Min.Y+y).Y)
			dst.SetGray(x, y, color.Gray{Y: uint8(clampFloat((v-float64(lo))*scale, 0, 255))})
		}
	}
	return dst
}

// sharpen applies a 3x3 unsharp kernel.
func sharpen(src *image.Gray) *image.Gray {
	w := src.Rect.Dx()
	h := src.Rect.Dy()
	at := func(x, y int) float64 {
		return float64(src.GrayAt(src.Rect.Min.X+clampInt(x, 0, w-1), src.Rect.Min.Y+clampInt(y, 0, h-1)).Y)
	}
	dst := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := 5*at(x, y) - at(x-1, y) - at(x+1, y) - at(x, y-1) - at(x, y+1)
			dst.SetGray(x, y, color.Gray{Y: uint8(clampFloat(v, 0, 255))})
		}
	}
	return dst
}

// medianDenoise runs a 3x3 median filter to remove salt-and-pepper noise
// left behind by binarization.
func medianDenoise(src *image.Gray) *image.Gray {
	w := src.Rect.Dx()
	h := src.Rect.Dy()
	dst := image.NewGray(image.Rect(0, 0, w, h))
	var window [9]int
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := 0
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					window[i] = int(src.GrayAt(
						src.Rect.Min.X+clampInt(x+dx, 0, w-1),
						src.Rect.Min.Y+clampInt(y+dy, 0, h-1)).Y)
					i++
				}
			}
			s := window[:]
			sort.Ints(s)
			dst.SetGray(x, y, color.Gray{Y: uint8(s[4])})
		}
	}
	return dst
}
