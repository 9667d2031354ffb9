// Package ocr reads cell text from rendered PDF pages with Tesseract, for
// scanned documents that carry no text layer.
package ocr

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"strings"
	"time"

	"github.com/otiai10/gosseract/v2"
	"golang.org/x/image/draw"

	"github.com/platinummonkey/tabscore/internal/logger"
)

// DefaultMinWidth is the narrowest image handed to Tesseract; smaller
// renders are upscaled first
const DefaultMinWidth = 1200

// Processor runs Tesseract over page images
type Processor struct {
	logger    *logger.Logger
	languages []string
	minWidth  int
}

// Config holds configuration for the OCR processor
type Config struct {
	Logger *logger.Logger

	// Languages are Tesseract language codes (default: ["eng"])
	Languages []string

	// DPI is the page rendering resolution (default: pdftext.DefaultDPI)
	DPI int

	// MinWidth is the minimum image width in pixels (default: DefaultMinWidth)
	MinWidth int
}

// New creates a new OCR processor
func New(cfg *Config) *Processor {
	if cfg == nil {
		cfg = &Config{}
	}

	log := cfg.Logger
	if log == nil {
		log = logger.Get()
	}

	languages := cfg.Languages
	if len(languages) == 0 {
		languages = []string{"eng"}
	}

	minWidth := cfg.MinWidth
	if minWidth <= 0 {
		minWidth = DefaultMinWidth
	}

	return &Processor{
		logger:    log,
		languages: languages,
		minWidth:  minWidth,
	}
}

// ProcessImage recognizes the words of img. Word boxes are returned in the
// pixel space of img even when the image was upscaled for recognition.
func (p *Processor) ProcessImage(img image.Image, pageNumber int) (*PageOCR, error) {
	startTime := time.Now()

	prepared, factor := prepareImage(img, p.minWidth)
	data, err := encodePNG(prepared)
	if err != nil {
		return nil, err
	}

	p.logger.WithFields("page", pageNumber, "image_size", len(data), "upscale", factor).Debug("Processing image with OCR")

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(p.languages...); err != nil {
		return nil, fmt.Errorf("failed to set OCR language: %w", err)
	}
	if err := client.SetImageFromBytes(data); err != nil {
		return nil, fmt.Errorf("failed to set image data: %w", err)
	}

	hocrText, err := client.HOCRText()
	if err != nil {
		return nil, fmt.Errorf("failed to get HOCR text: %w", err)
	}

	pageOCR, err := parseHOCR(hocrText, pageNumber, strings.Join(p.languages, "+"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HOCR: %w", err)
	}
	if factor != 1 {
		pageOCR.scale(1 / factor)
	}

	p.logger.WithFields(
		"page", pageNumber,
		"words", len(pageOCR.Words),
		"confidence", pageOCR.Confidence,
		"duration", time.Since(startTime),
	).Info("OCR processing completed")

	return pageOCR, nil
}

// prepareImage converts img to grayscale and upscales it with Catmull-Rom
// when narrower than minWidth. It returns the image and the scale factor.
func prepareImage(img image.Image, minWidth int) (image.Image, float64) {
	b := img.Bounds()
	factor := 1.0
	if b.Dx() > 0 && b.Dx() < minWidth {
		factor = float64(minWidth) / float64(b.Dx())
	}

	w := int(float64(b.Dx())*factor + 0.5)
	h := int(float64(b.Dy())*factor + 0.5)
	gray := image.NewGray(image.Rect(0, 0, w, h))

	if factor == 1 {
		draw.Draw(gray, gray.Bounds(), img, b.Min, draw.Src)
	} else {
		draw.CatmullRom.Scale(gray, gray.Bounds(), img, b, draw.Src, nil)
	}

	return gray, factor
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode page image: %w", err)
	}
	return buf.Bytes(), nil
}
