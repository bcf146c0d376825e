package scan

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	"image/png"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/gen2brain/heic"

	"github.com/expenselens/receipt-engine/internal/common"
)

// Decode turns raw input bytes into a raster image. PDFs are rasterized from
// their first page only; subsequent pages are ignored. HEIC/HEIF uses a pure
// Go decoder since the stdlib image package does not support it.
// Any decode problem maps to common.ErrImageDecode, the one terminal scanner error.
func Decode(data []byte, contentType string) (image.Image, error) {
	mimeType := strings.ToLower(strings.TrimSpace(contentType))
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	if mimeType == "application/pdf" {
		img, err := rasterizePDF(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", common.ErrImageDecode, err)
		}
		return img, nil
	}

	if isHEICData(data) || strings.Contains(mimeType, "heic") || strings.Contains(mimeType, "heif") {
		img, err := heic.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("%w: decode heic: %v", common.ErrImageDecode, err)
		}
		return img, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrImageDecode, err)
	}
	return img, nil
}

// rasterizePDF renders the first page of a PDF.
func rasterizePDF(data []byte) (image.Image, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("opening pdf: %w", err)
	}
	defer doc.Close()

	if doc.NumPage() == 0 {
		return nil, fmt.Errorf("pdf has no pages")
	}

	img, err := doc.Image(0)
	if err != nil {
		return nil, fmt.Errorf("rendering pdf page: %w", err)
	}
	return img, nil
}

// isHEICData checks the ftyp box brands at the head of the buffer.
func isHEICData(data []byte) bool {
	if len(data) < 12 {
		return false
	}
	if string(data[4:8]) != "ftyp" {
		return false
	}
	switch string(data[8:12]) {
	case "heic", "heif", "mif1", "msf1":
		return true
	}
	return false
}

// EncodePNG serializes a grayscale image for the recognition adapter.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding png: %w", err)
	}
	return buf.Bytes(), nil
}
