package pipeline

import (
	"context"
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/expenselens/receipt-engine/internal/common"
	"github.com/expenselens/receipt-engine/internal/fallback"
	"github.com/expenselens/receipt-engine/internal/heuristic"
	"github.com/expenselens/receipt-engine/internal/recognize"
	"github.com/expenselens/receipt-engine/internal/scan"
	"github.com/expenselens/receipt-engine/internal/vendor"
)

type stubRecognizer struct {
	text string
	conf float64
	err  error
}

func (s *stubRecognizer) Name() string { return "stub" }

func (s *stubRecognizer) Recognize(context.Context, []byte) (recognize.Recognition, error) {
	if s.err != nil {
		return recognize.Recognition{}, s.err
	}
	return recognize.Recognition{Text: s.text, Confidence: s.conf}, nil
}

type flakyRecognizer struct {
	text      string
	conf      float64
	failFirst int
	calls     int
}

func (f *flakyRecognizer) Name() string { return "flaky" }

func (f *flakyRecognizer) Recognize(context.Context, []byte) (recognize.Recognition, error) {
	f.calls++
	if f.calls <= f.failFirst {
		return recognize.Recognition{}, common.ErrProviderUnavailable
	}
	return recognize.Recognition{Text: f.text, Confidence: f.conf}, nil
}

func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 60, 80))
	for y := 0; y < 80; y++ {
		for x := 0; x < 60; x++ {
			img.SetGray(x, y, color.Gray{Y: 240})
		}
	}
	png, err := scan.EncodePNG(img)
	require.NoError(t, err)
	return png
}

func newTestProcessor(rec recognize.Recognizer) *Processor {
	registry := vendor.NewRegistry()
	parser := heuristic.NewParser(heuristic.Config{}, registry, nil)
	fb := fallback.NewManager(fallback.Config{}, fallback.DefaultStrategies(parser, nil), nil)

	cfg := common.PipelineConfig{
		CostThresholdPerReceipt: 0.10,
		QualityThreshold:        0.7,
		EnableVendorDetection:   true,
		EnableFallbacks:         true,
		CacheSize:               8,
	}
	scanner := scan.NewScanner(scan.Config{EnhancedPreprocessing: false}, nil)
	return NewProcessor(cfg, scanner, rec, parser, vendor.NewDetector(registry, nil), nil, fb, nil)
}

const walmartText = `WALMART
GREAT VALUE COOKIES 007874201234
6 AT 1 FOR 0.78
SUBTOTAL 0.78
TAX 0.06
TOTAL 0.84
01/15/24`

func TestProcessHappyPath(t *testing.T) {
	p := newTestProcessor(&stubRecognizer{text: walmartText, conf: 90})
	res, err := p.Process(context.Background(), testPNG(t), "image/png")
	require.NoError(t, err)

	assert.Equal(t, "WALMART", res.Data.Vendor)
	assert.InDelta(t, 0.84, res.Data.TotalAmount, 1e-9)
	assert.False(t, res.UsedFallback)
	assert.False(t, res.FromCache)
	assert.NotEmpty(t, res.ID)
	require.NotNil(t, res.Quality)
	assert.Greater(t, res.Quality.OverallScore, 70.0)

	var names []string
	for _, s := range res.Trace {
		names = append(names, s.Name)
		assert.True(t, s.Success, s.Name)
	}
	assert.Equal(t, []string{"scan", "recognize", "heuristic", "vendor-detect"}, names)
}

func TestProcessServesIdenticalInputFromCache(t *testing.T) {
	p := newTestProcessor(&stubRecognizer{text: walmartText, conf: 90})
	png := testPNG(t)

	first, err := p.Process(context.Background(), png, "image/png")
	require.NoError(t, err)
	second, err := p.Process(context.Background(), png, "image/png")
	require.NoError(t, err)

	assert.False(t, first.FromCache)
	assert.True(t, second.FromCache)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.Data, second.Data)
	assert.Equal(t, first.Fingerprint, second.Fingerprint)
}

func TestProcessRecoversViaFallback(t *testing.T) {
	// a confident-looking text with an unconfident recognition estimate: the
	// baseline is capped under the acceptance floor and fallback takes over
	p := newTestProcessor(&stubRecognizer{text: "CORNER DELI\nSANDWICH 6.50\nTOTAL 9.50", conf: 10})
	res, err := p.Process(context.Background(), testPNG(t), "image/png")
	require.NoError(t, err)

	assert.True(t, res.UsedFallback)
	assert.Equal(t, []string{"pattern-extraction"}, res.Strategies)
	assert.Equal(t, "CORNER DELI", res.Data.Vendor)
	assert.InDelta(t, 9.50, res.Data.TotalAmount, 1e-9)
	assert.NotEmpty(t, res.Warnings)
}

// An outage of the recognition adapter is not terminal: the recovery ladder
// re-drives recognition from the scanned image and the rule parser finishes.
func TestProcessRecoversFromRecognizerOutage(t *testing.T) {
	rec := &flakyRecognizer{text: "CORNER DELI\nSANDWICH 6.50\nTOTAL 9.50", conf: 80, failFirst: 1}
	p := newTestProcessor(rec)
	res, err := p.Process(context.Background(), testPNG(t), "image/png")
	require.NoError(t, err)

	assert.True(t, res.UsedFallback)
	assert.Equal(t, []string{"heuristic-retry"}, res.Strategies)
	assert.Equal(t, "CORNER DELI", res.Data.Vendor)
	assert.InDelta(t, 9.50, res.Data.TotalAmount, 1e-9)
	assert.NotEmpty(t, res.RawText)
	assert.Equal(t, 2, rec.calls)

	assert.Equal(t, "recognize", res.Trace[1].Name)
	assert.False(t, res.Trace[1].Success)
}

func TestProcessRecognizerOutageExhaustsFallback(t *testing.T) {
	p := newTestProcessor(&stubRecognizer{err: errors.New("service down")})
	res, err := p.Process(context.Background(), testPNG(t), "image/png")

	assert.ErrorIs(t, err, common.ErrAllStrategiesExhausted)
	assert.True(t, res.UsedFallback)
	assert.Equal(t, []string{"heuristic-retry", "pattern-extraction", "partial-merge"}, res.Strategies)

	assert.Equal(t, "recognize", res.Trace[1].Name)
	assert.False(t, res.Trace[1].Success)
	assert.NotEmpty(t, res.Trace[1].Error)
}

func TestProcessUndecodableInputIsTerminal(t *testing.T) {
	p := newTestProcessor(&stubRecognizer{text: walmartText, conf: 90})
	_, err := p.Process(context.Background(), []byte("definitely not an image"), "")
	assert.Error(t, err)
}

func TestProcessDifferentInputsGetDifferentFingerprints(t *testing.T) {
	p := newTestProcessor(&stubRecognizer{text: walmartText, conf: 90})

	img2 := image.NewGray(image.Rect(0, 0, 40, 40))
	for y := 0; y < 40; y++ {
		for x := 0; x < 40; x++ {
			img2.SetGray(x, y, color.Gray{Y: 200})
		}
	}
	png2, err := scan.EncodePNG(img2)
	require.NoError(t, err)

	a, err := p.Process(context.Background(), testPNG(t), "image/png")
	require.NoError(t, err)
	b, err := p.Process(context.Background(), png2, "image/png")
	require.NoError(t, err)

	assert.NotEqual(t, a.Fingerprint, b.Fingerprint)
	assert.False(t, b.FromCache)
}
