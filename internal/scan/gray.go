package scan

import (
	"image"
	"image/color"
	"math"
)

// toGray converts any image to 8-bit grayscale using luma weights.
func toGray(src image.Image) *image.Gray {
	if g, ok := src.(*image.Gray); ok {
		return g
	}
	b := src.Bounds()
	dst := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			dst.SetGray(x-b.Min.X, y-b.Min.Y, color.GrayModel.Convert(src.At(x, y)).(color.Gray))
		}
	}
	return dst
}

// downscale box-averages src so its pixel count does not exceed maxPixels.
// Returns src unchanged when already within bounds.
func downscale(src *image.Gray, maxPixels int) (*image.Gray, float64) {
	w := src.Rect.Dx()
	h := src.Rect.Dy()
	if w*h <= maxPixels {
		return src, 1.0
	}
	scale := math.Sqrt(float64(maxPixels) / float64(w*h))
	nw := int(float64(w) * scale)
	nh := int(float64(h) * scale)
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}
	dst := image.NewGray(image.Rect(0, 0, nw, nh))
	for y := 0; y < nh; y++ {
		sy0 := y * h / nh
		sy1 := (y + 1) * h / nh
		if sy1 <= sy0 {
			sy1 = sy0 + 1
		}
		for x := 0; x < nw; x++ {
			sx0 := x * w / nw
			sx1 := (x + 1) * w / nw
			if sx1 <= sx0 {
				sx1 = sx0 + 1
			}
			var sum, n int
			for sy := sy0; sy < sy1; sy++ {
				for sx := sx0; sx < sx1; sx++ {
					sum += int(src.GrayAt(src.Rect.Min.X+sx, src.Rect.Min.Y+sy).Y)
					n++
				}
			}
			dst.SetGray(x, y, color.Gray{Y: uint8(sum / n)})
		}
	}
	return dst, scale
}

// gaussianKernel builds a normalized 1-D kernel for the given sigma.
func gaussianKernel(sigma float64) []float64 {
	radius := int(math.Ceil(3 * sigma))
	if radius < 1 {
		radius = 1
	}
	kernel := make([]float64, 2*radius+1)
	var sum float64
	for i := -radius; i <= radius; i++ {
		v := math.Exp(-float64(i*i) / (2 * sigma * sigma))
		kernel[i+radius] = v
		sum += v
	}
	for i := range kernel {
		kernel[i] /= sum
	}
	return kernel
}

// gaussianBlur applies a separable Gaussian filter.
func gaussianBlur(src *image.Gray, sigma float64) *image.Gray {
	kernel := gaussianKernel(sigma)
	radius := len(kernel) / 2
	w := src.Rect.Dx()
	h := src.Rect.Dy()

	tmp := make([]float64, w*h)
	// horizontal pass
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var acc float64
			for k := -radius; k <= radius; k++ {
				xx := clampInt(x+k, 0, w-1)
				acc += kernel[k+radius] * float64(src.GrayAt(src.Rect.Min.X+xx, src.Rect.Min.Y+y).Y)
			}
			tmp[y*w+x] = acc
		}
	}
	// vertical pass
	dst := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var acc float64
			for k := -radius; k <= radius; k++ {
				yy := clampInt(y+k, 0, h-1)
				acc += kernel[k+radius] * tmp[yy*w+x]
			}
			dst.SetGray(x, y, color.Gray{Y: uint8(clampFloat(acc, 0, 255))})
		}
	}
	return dst
}

// boxBlur runs n iterated box passes approximating a Gaussian of the given
// sigma. Used for the large Retinex scales where a true kernel is too slow.
func boxBlur(src []float64, w, h int, sigma float64) []float64 {
	// three box passes approximate a Gaussian; box width from sigma
	boxW := int(math.Sqrt(sigma*sigma*12/3+1)) | 1
	if boxW < 3 {
		boxW = 3
	}
	radius := boxW / 2

	cur := make([]float64, len(src))
	copy(cur, src)
	next := make([]float64, len(src))
	for pass := 0; pass < 3; pass++ {
		// horizontal
		for y := 0; y < h; y++ {
			row := cur[y*w : (y+1)*w]
			var sum float64
			for x := -radius; x <= radius; x++ {
				sum += row[clampInt(x, 0, w-1)]
			}
			for x := 0; x < w; x++ {
				next[y*w+x] = sum / float64(boxW)
				sum -= row[clampInt(x-radius, 0, w-1)]
				sum += row[clampInt(x+radius+1, 0, w-1)]
			}
		}
		cur, next = next, cur
		// vertical
		for x := 0; x < w; x++ {
			var sum float64
			for y := -radius; y <= radius; y++ {
				sum += cur[clampInt(y, 0, h-1)*w+x]
			}
			for y := 0; y < h; y++ {
				next[y*w+x] = sum / float64(boxW)
				sum -= cur[clampInt(y-radius, 0, h-1)*w+x]
				sum += cur[clampInt(y+radius+1, 0, h-1)*w+x]
			}
		}
		cur, next = next, cur
	}
	return cur
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
