package recognize

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Tesseract string // binary name or absolute path; if empty -> "tesseract"

	TesseractLang       string // default "eng"
	TessdataDir         string
	EnableTSVConfidence bool

	PSM int // e.g., 6 is good for uniform block of text
	OEM int // 1 = LSTM; leave 0 to use default
}

// Tesseract shells out to the tesseract binary. The Runner indirection keeps
// the adapter testable without the binary installed.
type Tesseract struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewTesseract(cfg Config, logger *slog.Logger) *Tesseract {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.TesseractLang == "" {
		cfg.TesseractLang = "eng"
	}
	return &Tesseract{cfg: cfg, runner: execRunner{}, logger: logger}
}

func (t *Tesseract) Name() string { return "tesseract" }

// Recognize writes the PNG to a temp file, runs tesseract, and blends the
// TSV word confidence with a text-shape heuristic.
func (t *Tesseract) Recognize(ctx context.Context, png []byte) (Recognition, error) {
	start := time.Now()

	tmpDir, err := os.MkdirTemp("", "receipt-ocr-*")
	if err != nil {
		return Recognition{}, fmt.Errorf("temp dir: %w", err)
	}
	defer func() { _ = os.RemoveAll(tmpDir) }()

	path := filepath.Join(tmpDir, "page.png")
	if err := os.WriteFile(path, png, 0o600); err != nil {
		return Recognition{}, fmt.Errorf("write temp image: %w", err)
	}

	txt, warns, err := t.runOCR(ctx, path)
	if err != nil {
		return Recognition{Warnings: warns}, err
	}
	txt = Normalize(txt)

	var tsvConf float64
	if t.cfg.EnableTSVConfidence {
		if c, w, err2 := t.tsvConfidence(ctx, path); err2 == nil {
			tsvConf = c
			warns = append(warns, w...)
		} else {
			warns = append(warns, err2.Error())
		}
	}
	heurConf := heuristicConfidence(txt)

	// blend: weight tesseract's own estimate higher when present
	conf := heurConf
	if tsvConf > 0 {
		conf = 0.7*tsvConf + 0.3*heurConf
	}
	if conf > 100 {
		conf = 100
	}

	t.logger.Debug("recognize.ok",
		"text_bytes", len(txt),
		"confidence", conf,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return Recognition{Text: txt, Confidence: conf, Warnings: warns}, nil
}

// baseArgs builds the shared invocation so the text and TSV passes run with
// identical segmentation settings.
func (t *Tesseract) baseArgs(path string) []string {
	args := []string{path, "stdout", "-l", t.cfg.TesseractLang}
	if t.cfg.PSM > 0 {
		args = append(args, "--psm", strconv.Itoa(t.cfg.PSM))
	}
	if t.cfg.OEM > 0 {
		args = append(args, "--oem", strconv.Itoa(t.cfg.OEM))
	}
	if t.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", t.cfg.TessdataDir)
	}
	return args
}

func (t *Tesseract) runOCR(ctx context.Context, path string) (string, []string, error) {
	out, errb, err := t.runner.Run(ctx, t.cfg.Tesseract, t.baseArgs(path)...)
	if err != nil {
		return "", []string{string(errb)}, fmt.Errorf("tesseract: %w", err)
	}

	// minor cleanup of obvious line noise
	txt := reBoxNoise.ReplaceAllString(string(out), "")
	return txt, nil, nil
}

// tsvConfidence runs tesseract in TSV mode and returns mean word conf in 0..100.
func (t *Tesseract) tsvConfidence(ctx context.Context, path string) (float64, []string, error) {
	args := append(t.baseArgs(path), "tsv")

	out, errb, err := t.runner.Run(ctx, t.cfg.Tesseract, args...)
	if err != nil {
		return 0, []string{string(errb)}, fmt.Errorf("tesseract TSV: %w", err)
	}
	lines := strings.Split(string(out), "\n")
	// columns: level..height conf text; conf is second to last
	var sum, n float64
	for i, ln := range lines {
		if i == 0 || len(ln) == 0 {
			continue
		}
		cols := strings.Split(ln, "\t")
		if len(cols) < 12 {
			continue
		}
		confStr := cols[len(cols)-2]
		if confStr == "" || confStr == "-1" {
			continue
		}
		if v, err := strconv.ParseFloat(confStr, 64); err == nil {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0, nil, nil
	}
	return sum / n, nil, nil
}
