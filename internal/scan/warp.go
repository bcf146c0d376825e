package scan

import (
	"fmt"
	"image"
	"image/color"
	"math"
)

// homography is a 3x3 perspective transform in row-major order.
type homography [9]float64

// Apply maps (x,y) through the transform.
func (m homography) Apply(x, y float64) (float64, float64) {
	den := m[6]*x + m[7]*y + m[8]
	if den == 0 {
		den = 1e-12
	}
	return (m[0]*x + m[1]*y + m[2]) / den, (m[3]*x + m[4]*y + m[5]) / den
}

// solveHomography computes the transform mapping each src corner onto the
// corresponding dst corner by solving the standard 8x8 linear system with
// partial-pivot Gaussian elimination (h22 fixed to 1).
func solveHomography(src, dst Quad) (homography, error) {
	// Each correspondence contributes two rows:
	// [x y 1 0 0 0 -x*u -y*u] h = u
	// [0 0 0 x y 1 -x*v -y*v] h = v
	var a [8][9]float64
	for i := 0; i < 4; i++ {
		x, y := src[i].X, src[i].Y
		u, v := dst[i].X, dst[i].Y
		a[2*i] = [9]float64{x, y, 1, 0, 0, 0, -x * u, -y * u, u}
		a[2*i+1] = [9]float64{0, 0, 0, x, y, 1, -x * v, -y * v, v}
	}

	for col := 0; col < 8; col++ {
		// pivot
		pivot := col
		for row := col + 1; row < 8; row++ {
			if math.Abs(a[row][col]) > math.Abs(a[pivot][col]) {
				pivot = row
			}
		}
		if math.Abs(a[pivot][col]) < 1e-10 {
			return homography{}, fmt.Errorf("degenerate quadrilateral")
		}
		a[col], a[pivot] = a[pivot], a[col]

		for row := col + 1; row < 8; row++ {
			f := a[row][col] / a[col][col]
			for k := col; k < 9; k++ {
				a[row][k] -= f * a[col][k]
			}
		}
	}

	var h [8]float64
	for row := 7; row >= 0; row-- {
		v := a[row][8]
		for k := row + 1; k < 8; k++ {
			v -= a[row][k] * h[k]
		}
		h[row] = v / a[row][row]
	}

	return homography{h[0], h[1], h[2], h[3], h[4], h[5], h[6], h[7], 1}, nil
}

// warpPerspective maps the source quadrilateral into a dstW x dstH rectangle
// using the inverse transform with bilinear sampling. Samples that fall
// outside the source are filled white.
func warpPerspective(src *image.Gray, quad Quad, dstW, dstH int) (*image.Gray, error) {
	dstQuad := Quad{
		{0, 0},
		{float64(dstW - 1), 0},
		{float64(dstW - 1), float64(dstH - 1)},
		{0, float64(dstH - 1)},
	}
	// inverse mapping: destination pixel -> source coordinate
	inv, err := solveHomography(dstQuad, quad)
	if err != nil {
		return nil, err
	}

	dst := image.NewGray(image.Rect(0, 0, dstW, dstH))
	srcW := src.Rect.Dx()
	srcH := src.Rect.Dy()
	for y := 0; y < dstH; y++ {
		for x := 0; x < dstW; x++ {
			sx, sy := inv.Apply(float64(x), float64(y))
			dst.SetGray(x, y, color.Gray{Y: bilinearSample(src, sx, sy, srcW, srcH)})
		}
	}
	return dst, nil
}

// bilinearSample interpolates the four neighbors of (sx,sy); out-of-bounds
// samples return white.
func bilinearSample(src *image.Gray, sx, sy float64, w, h int) uint8 {
	if sx < 0 || sy < 0 || sx > float64(w-1) || sy > float64(h-1) {
		return 255
	}
	x0 := int(sx)
	y0 := int(sy)
	x1 := clampInt(x0+1, 0, w-1)
	y1 := clampInt(y0+1, 0, h-1)
	fx := sx - float64(x0)
	fy := sy - float64(y0)

	p00 := float64(src.GrayAt(src.Rect.Min.X+x0, src.Rect.Min.Y+y0).Y)
	p10 := float64(src.GrayAt(src.Rect.Min.X+x1, src.Rect.Min.Y+y0).Y)
	p01 := float64(src.GrayAt(src.Rect.Min.X+x0, src.Rect.Min.Y+y1).Y)
	p11 := float64(src.GrayAt(src.Rect.Min.X+x1, src.Rect.Min.Y+y1).Y)

	top := p00*(1-fx) + p10*fx
	bot := p01*(1-fx) + p11*fx
	return uint8(clampFloat(top*(1-fy)+bot*fy, 0, 255))
}
