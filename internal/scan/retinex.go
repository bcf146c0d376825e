package scan

import (
	"image"
	"image/color"
	"math"
)

// retinexScales are the Gaussian surround sizes for multi-scale Retinex;
// small scales preserve detail, large scales remove slow illumination drift.
var retinexScales = []float64{15, 80, 250}

// multiScaleRetinex normalizes uneven lighting: log-domain image minus
// Gaussian-blurred versions at increasing scales, recombined with equal
// weights and rescaled back to [0,255].
func multiScaleRetinex(src *image.Gray) *image.Gray {
	w := src.Rect.Dx()
	h := src.Rect.Dy()
	n := w * h

	logImg := make([]float64, n)
	raw := make([]float64, n)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := float64(src.GrayAt(src.Rect.Min.X+x, src.Rect.Min.Y+y).Y)
			raw[y*w+x] = v
			logImg[y*w+x] = math.Log(v + 1)
		}
	}

	acc := make([]float64, n)
	weight := 1.0 / float64(len(retinexScales))
	for _, sigma := range retinexScales {
		blurred := boxBlur(raw, w, h, sigma)
		for i := 0; i < n; i++ {
			acc[i] += weight * (logImg[i] - math.Log(blurred[i]+1))
		}
	}

	// rescale the log-ratio output to the display range
	minV, maxV := math.Inf(1), math.Inf(-1)
	for _, v := range acc {
		if v < minV {
			minV = v
		}
		if v > maxV {
			maxV = v
		}
	}
	span := maxV - minV
	if span < 1e-9 {
		span = 1
	}

	dst := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := (acc[y*w+x] - minV) / span * 255
			dst.SetGray(x, y, color.Gray{Y: uint8(clampFloat(v, 0, 255))})
		}
	}
	return dst
}
