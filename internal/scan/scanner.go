package scan

import (
	"context"
	"image"
	"log/slog"
	"time"
)

type Config struct {
	// EnhancedPreprocessing toggles the Canny/homography/Retinex path;
	// when false only contrast stretch and sharpening run.
	EnhancedPreprocessing bool

	MaxMegapixels   float64 // size ceiling for the quad/warp path, default 2.0
	GaussianSigma   float64 // blur before edge detection, default 1.4
	MinContourLen   int     // shortest contour worth tracing, default 100
	ApproxTolerance float64 // Douglas-Peucker tolerance as perimeter fraction, default 0.02
	MinAreaRatio    float64 // quad acceptance band, default 0.1
	MaxAreaRatio    float64 // default 0.9
	MarginInset     float64 // fixed-margin crop fraction when no quad found, default 0.05
}

// Result is the rectified output handed to the recognition adapter.
type Result struct {
	Image    *image.Gray
	Cropped  bool
	Warped   bool
	Quad     *Quad
	Warnings []string
	Duration time.Duration
}

// Scanner rectifies and cleans a raw receipt image. For a decodable image it
// never fails: internal uncertainty (no quadrilateral, low edge density)
// degrades to a simpler crop path instead of erroring.
type Scanner struct {
	cfg    Config
	logger *slog.Logger
}

func NewScanner(cfg Config, logger *slog.Logger) *Scanner {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxMegapixels <= 0 {
		cfg.MaxMegapixels = 2.0
	}
	if cfg.GaussianSigma <= 0 {
		cfg.GaussianSigma = 1.4
	}
	if cfg.MinContourLen <= 0 {
		cfg.MinContourLen = 100
	}
	if cfg.ApproxTolerance <= 0 {
		cfg.ApproxTolerance = 0.02
	}
	if cfg.MinAreaRatio <= 0 {
		cfg.MinAreaRatio = 0.1
	}
	if cfg.MaxAreaRatio <= 0 {
		cfg.MaxAreaRatio = 0.9
	}
	if cfg.MarginInset <= 0 {
		cfg.MarginInset = 0.05
	}
	return &Scanner{cfg: cfg, logger: logger}
}

// Scan runs the rectification pipeline: optional perspective correction,
// illumination normalization, adaptive binarization, and cleanup. The
// context is only consulted between phases; individual pixel passes are not
// interruptible.
func (s *Scanner) Scan(ctx context.Context, src image.Image) (*Result, error) {
	start := time.Now()
	res := &Result{}

	gray := toGray(src)
	origW := gray.Rect.Dx()
	origH := gray.Rect.Dy()

	maxPixels := int(s.cfg.MaxMegapixels * 1e6)
	oversized := origW*origH > maxPixels
	if oversized {
		var scale float64
		gray, scale = downscale(gray, maxPixels)
		res.Warnings = append(res.Warnings, "image over size ceiling; capped resolution and skipped perspective correction")
		s.logger.Debug("scan.downscale", "orig_w", origW, "orig_h", origH, "scale", scale)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if s.cfg.EnhancedPreprocessing && !oversized {
		gray = s.rectify(gray, res)
	} else if !s.cfg.EnhancedPreprocessing {
		// cheaper path: no geometry work, no illumination model
		out := sharpen(contrastStretch(gray))
		res.Image = out
		res.Duration = time.Since(start)
		s.logger.Debug("scan.quick.ok", "w", out.Rect.Dx(), "h", out.Rect.Dy(), "elapsed_ms", res.Duration.Milliseconds())
		return res, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	gray = multiScaleRetinex(gray)
	gray = sauvolaBinarize(gray)
	gray = contrastStretch(gray)
	gray = medianDenoise(gray)
	gray = sharpen(gray)

	res.Image = gray
	res.Duration = time.Since(start)
	s.logger.Debug("scan.rectify.ok",
		"w", gray.Rect.Dx(), "h", gray.Rect.Dy(),
		"cropped", res.Cropped, "warped", res.Warped,
		"warnings", len(res.Warnings),
		"elapsed_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}

// rectify finds the document quadrilateral and warps it into a rectangle.
// Falls back to a fixed-margin inset crop, then to no crop at all.
func (s *Scanner) rectify(gray *image.Gray, res *Result) *image.Gray {
	edges, w, h := cannyEdges(gray, s.cfg.GaussianSigma)
	contours := traceContours(edges, w, h, s.cfg.MinContourLen)
	if len(contours) == 0 {
		res.Warnings = append(res.Warnings, "no edge contours found; skipping crop")
		return gray
	}

	quad, ok, fillsFrame := bestQuad(contours, w, h, s.cfg.ApproxTolerance, s.cfg.MinAreaRatio, s.cfg.MaxAreaRatio)
	if !ok {
		if fillsFrame {
			// the document already covers the frame: cropping would only
			// lose content
			res.Warnings = append(res.Warnings, "document fills frame; no crop needed")
			return gray
		}
		res.Warnings = append(res.Warnings, "no document quadrilateral in acceptance band; using margin crop")
		return s.marginCrop(gray, res)
	}

	dstW, dstH := quad.TargetSize()
	warped, err := warpPerspective(gray, quad, dstW, dstH)
	if err != nil {
		res.Warnings = append(res.Warnings, "perspective solve failed: "+err.Error())
		return s.marginCrop(gray, res)
	}

	res.Cropped = true
	res.Warped = true
	res.Quad = &quad
	return warped
}

func (s *Scanner) marginCrop(gray *image.Gray, res *Result) *image.Gray {
	w := gray.Rect.Dx()
	h := gray.Rect.Dy()
	insetX := int(float64(w) * s.cfg.MarginInset)
	insetY := int(float64(h) * s.cfg.MarginInset)
	if w-2*insetX < 16 || h-2*insetY < 16 {
		return gray
	}
	cropped := image.NewGray(image.Rect(0, 0, w-2*insetX, h-2*insetY))
	for y := 0; y < cropped.Rect.Dy(); y++ {
		for x := 0; x < cropped.Rect.Dx(); x++ {
			cropped.SetGray(x, y, gray.GrayAt(gray.Rect.Min.X+x+insetX, gray.Rect.Min.Y+y+insetY))
		}
	}
	res.Cropped = true
	return cropped
}
